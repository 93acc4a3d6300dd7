package model

// ===== 数据类型名 =====
//
// 与客户端上传载荷的键保持一致（兼容约定，不可改名）。
const (
	DataTypeUserInfo         = "userInfo"
	DataTypeLearningProgress = "learningProgress"
	DataTypeAIConfig         = "aiConfig"
	DataTypeChatHistory      = "chatHistory"
)

// 平台枚举：小程序 / Web / Android
const (
	PlatformMiniProgram = "miniprogram"
	PlatformWeb         = "web"
	PlatformAndroid     = "android"
)

func ValidPlatform(p string) bool {
	switch p {
	case PlatformMiniProgram, PlatformWeb, PlatformAndroid:
		return true
	}
	return false
}

// Timestamped 所有可合并记录都带一个记录级 updatedAt(Unix ms)，
// 默认冲突策略（最近写入胜出）只依赖这一个字段。
type Timestamped interface {
	GetUpdatedAt() int64
}

// UserInfo 用户档案（身份 + 资料快照），冲突时整体按时间戳取舍，不做字段级混合。
type UserInfo struct {
	UserID    string `bson:"user_id" json:"userId" mapstructure:"userId"`
	Nickname  string `bson:"nickname" json:"nickname" mapstructure:"nickname"`
	AvatarURL string `bson:"avatar_url" json:"avatarUrl" mapstructure:"avatarUrl"`
	Signature string `bson:"signature,omitempty" json:"signature,omitempty" mapstructure:"signature"` // 个性签名
	Level     int64  `bson:"level,omitempty" json:"level,omitempty" mapstructure:"level"`             // 学习等级
	UpdatedAt int64  `bson:"updated_at" json:"updatedAt" mapstructure:"updatedAt"`                    // Unix ms
}

func (u *UserInfo) GetUpdatedAt() int64 { return u.UpdatedAt }

// LearningProgress 学习进度。
// 计数器类字段跨端合并取 max，不允许旧数据回退进度；
// 收藏/成就取并集；其余字段按记录时间戳新者胜。
type LearningProgress struct {
	UserID          string             `bson:"user_id" json:"userId" mapstructure:"userId"`
	TotalDays       int64              `bson:"total_days" json:"totalDays" mapstructure:"totalDays"`                               // 累计学习天数
	TotalHours      float64            `bson:"total_hours" json:"totalHours" mapstructure:"totalHours"`                            // 累计学习时长
	OcrCount        int64              `bson:"ocr_count" json:"ocrCount" mapstructure:"ocrCount"`                                  // OCR识别次数
	ChatCount       int64              `bson:"chat_count" json:"chatCount" mapstructure:"chatCount"`                               // AI对话次数
	Streak          int64              `bson:"streak" json:"streak" mapstructure:"streak"`                                         // 连续打卡（可中断，非单调）
	LastCheckinDate string             `bson:"last_checkin_date,omitempty" json:"lastCheckinDate,omitempty" mapstructure:"lastCheckinDate"`
	FavoriteBooks   []string           `bson:"favorite_books,omitempty" json:"favoriteBooks,omitempty" mapstructure:"favoriteBooks"` // 收藏书目
	Achievements    []string           `bson:"achievements,omitempty" json:"achievements,omitempty" mapstructure:"achievements"`     // 已解锁成就
	ReadingProgress map[string]float64 `bson:"reading_progress,omitempty" json:"readingProgress,omitempty" mapstructure:"readingProgress"` // 书ID -> 进度比
	UpdatedAt       int64              `bson:"updated_at" json:"updatedAt" mapstructure:"updatedAt"`
}

func (p *LearningProgress) GetUpdatedAt() int64 { return p.UpdatedAt }

// AIConfig AI配置，整条原子：合并时只按 updatedAt 整体取舍，永不字段混合。
type AIConfig struct {
	UserID     string          `bson:"user_id" json:"userId" mapstructure:"userId"`
	APIKey     string          `bson:"api_key,omitempty" json:"apiKey,omitempty" mapstructure:"apiKey"`
	Connected  bool            `bson:"connected" json:"connected" mapstructure:"connected"`
	Features   map[string]bool `bson:"features,omitempty" json:"features,omitempty" mapstructure:"features"` // 功能开关
	UsageCount int64           `bson:"usage_count" json:"usageCount" mapstructure:"usageCount"`              // 调用量
	UpdatedAt  int64           `bson:"updated_at" json:"updatedAt" mapstructure:"updatedAt"`
}

func (c *AIConfig) GetUpdatedAt() int64 { return c.UpdatedAt }

// Message AI对话里的一条消息。ID 在同一人物线程内全局唯一（客户端幂等ID）。
type Message struct {
	ID        string `bson:"id" json:"id" mapstructure:"id"`
	Role      string `bson:"role" json:"role" mapstructure:"role"` // user / assistant
	Content   string `bson:"content" json:"content" mapstructure:"content"`
	Timestamp int64  `bson:"timestamp" json:"timestamp" mapstructure:"timestamp"` // Unix ms
}

// ChatHistory 一个 (用户, 人物) 的对话线程。
// 合并是按消息ID去重的并集（先见者胜），不是整体覆盖。
type ChatHistory struct {
	UserID    string    `bson:"user_id" json:"userId" mapstructure:"userId"`
	Character string    `bson:"character" json:"character" mapstructure:"character"` // 孔子/孟子/朱熹...
	Messages  []Message `bson:"messages" json:"messages" mapstructure:"messages"`
	UpdatedAt int64     `bson:"updated_at" json:"updatedAt" mapstructure:"updatedAt"`
}

func (h *ChatHistory) GetUpdatedAt() int64 { return h.UpdatedAt }

// UserRecord 服务端持有的用户全量状态（四个独立版本化的子记录）。
// 任一子记录可能缺失（nil / 空列表）。
type UserRecord struct {
	UserInfo         *UserInfo         `json:"userInfo,omitempty" mapstructure:"userInfo"`
	LearningProgress *LearningProgress `json:"learningProgress,omitempty" mapstructure:"learningProgress"`
	AIConfig         *AIConfig         `json:"aiConfig,omitempty" mapstructure:"aiConfig"`
	ChatHistory      []*ChatHistory    `json:"chatHistory,omitempty" mapstructure:"chatHistory"`
}

// Has 判断某数据类型在记录中是否存在
func (r *UserRecord) Has(dataType string) bool {
	if r == nil {
		return false
	}
	switch dataType {
	case DataTypeUserInfo:
		return r.UserInfo != nil
	case DataTypeLearningProgress:
		return r.LearningProgress != nil
	case DataTypeAIConfig:
		return r.AIConfig != nil
	case DataTypeChatHistory:
		return len(r.ChatHistory) > 0
	}
	return false
}

// ===== 同步会话 =====

const SessionStatusActive = "active"

// SyncSession 某设备的一次同步上下文，寿命短（滑动1小时TTL，24小时硬上限）。
type SyncSession struct {
	ID           string `json:"id"`
	UserID       string `json:"userId"`
	Platform     string `json:"platform"` // miniprogram / web / android
	DeviceID     string `json:"deviceId"`
	StartTime    int64  `json:"startTime"` // Unix ms
	Status       string `json:"status"`
	LastSyncTime int64  `json:"lastSyncTime,omitempty"`
}

// ===== 冲突摘要 =====

const (
	ResolutionLocal  = "local"
	ResolutionServer = "server"
	ResolutionMerged = "merged"
)

// Conflict 某数据类型两端内容不一致时的裁决摘要，只返回不落库。
type Conflict struct {
	DataType        string `json:"dataType"`
	Resolution      string `json:"resolution"` // local / server / merged
	LocalTimestamp  int64  `json:"localTimestamp"`
	ServerTimestamp int64  `json:"serverTimestamp"`
}
