package sync

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"RZProject/module/sync/model"
	"RZProject/module/sync/service"
	"RZProject/tools/errs"
)

// Handler 同步引擎的 HTTP 入口，统一 {success, data} 信封。
type Handler struct {
	svc *service.SyncService
}

func NewHandler(svc *service.SyncService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	g := r.Group("/api/v1/sync")
	g.POST("/login", h.login)
	g.GET("/data/:userId", h.data)
	g.POST("/upload", h.upload)
	g.POST("/realtime", h.realtime)
	g.POST("/cleanup", h.cleanup)
}

type loginReq struct {
	UserID   string `json:"userId" binding:"required"`
	Platform string `json:"platform" binding:"required"`
	DeviceID string `json:"deviceId" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrArgs.WrapMsg("bad login body", "err", err))
		return
	}
	res, err := h.svc.SyncOnLogin(c.Request.Context(), req.UserID, req.Platform, req.DeviceID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

func (h *Handler) data(c *gin.Context) {
	userID := c.Param("userId")
	if userID == "" {
		fail(c, errs.ErrArgs.WrapMsg("userId is required"))
		return
	}
	rec, err := h.svc.GetServerData(c.Request.Context(), userID)
	if err != nil {
		fail(c, errs.ErrSyncFailed.WrapMsg("fetch server data", "userId", userID, "err", err))
		return
	}
	ok(c, rec)
}

type uploadReq struct {
	SyncSessionID string         `json:"syncSessionId" binding:"required"`
	Data          map[string]any `json:"data"`
}

func (h *Handler) upload(c *gin.Context) {
	var req uploadReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrArgs.WrapMsg("bad upload body", "err", err))
		return
	}
	local, err := model.DecodeUserRecord(req.Data)
	if err != nil {
		fail(c, err)
		return
	}
	res, err := h.svc.UploadLocalData(c.Request.Context(), req.SyncSessionID, local)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, res)
}

type realtimeReq struct {
	UserID   string `json:"userId" binding:"required"`
	DataType string `json:"dataType" binding:"required"`
	Data     any    `json:"data"`
}

func (h *Handler) realtime(c *gin.Context) {
	var req realtimeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrArgs.WrapMsg("bad realtime body", "err", err))
		return
	}
	// 尽力而为，入队即成功
	h.svc.SyncRealtime(c.Request.Context(), req.UserID, req.DataType, req.Data)
	ok(c, nil)
}

// 运维钩子：手动触发一次清扫
func (h *Handler) cleanup(c *gin.Context) {
	removed, err := h.svc.CleanupExpiredSessions(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"removed": removed})
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := errs.ServerInternalError
	msg := "server internal error"

	var codeErr *errs.CodeError
	if errors.As(err, &codeErr) {
		code = codeErr.Code
		msg = codeErr.Msg
		switch codeErr.Code {
		case errs.ArgsError:
			status = http.StatusBadRequest
		case errs.SessionNotFoundError:
			status = http.StatusNotFound
		case errs.RecordNotFoundError:
			status = http.StatusNotFound
		}
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   gin.H{"code": code, "msg": msg},
	})
}
