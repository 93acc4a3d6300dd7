package errs

// 错误码分配：
// 500   服务内部
// 1001+ 参数/通用
// 2001+ 同步相关
const (
	ServerInternalError = 500
	ArgsError           = 1001
	RecordNotFoundError = 1002

	SyncFailedError      = 2001
	SessionNotFoundError = 2002
)

var (
	ErrInternalServer  = NewCodeError(ServerInternalError, "server internal error")
	ErrArgs            = NewCodeError(ArgsError, "args error")
	ErrRecordNotFound  = NewCodeError(RecordNotFoundError, "record not found")
	ErrSyncFailed      = NewCodeError(SyncFailedError, "sync failed")
	ErrSessionNotFound = NewCodeError(SessionNotFoundError, "sync session not found or expired")
)
