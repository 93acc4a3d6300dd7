package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"RZProject/logger"
	"RZProject/module/sync/model"
	"RZProject/module/sync/store"
	storager "RZProject/service/storage/redis"
)

// WS 网关：设备带着同步会话ID连上来，节点订阅该会话的 Redis 频道，
// 把 data_update 事件原样转发到长连接。连接断开即退订。
const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
	pongWait   = 60 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// 跨端小程序/Web 都要连，来源校验交给前置网关
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WSGateway struct {
	sessions store.SessionStore
}

func NewWSGateway(sessions store.SessionStore) *WSGateway {
	return &WSGateway{sessions: sessions}
}

// Handle GET /ws?sessionId=xxx
func (g *WSGateway) Handle(c *gin.Context) {
	sessionID := c.Query("sessionId")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": gin.H{"msg": "sessionId is required"}})
		return
	}
	sess, err := g.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		logger.Errorf("[ws] load session failed sessionId=%s err=%v", sessionID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false})
		return
	}
	if sess == nil || sess.Status != model.SessionStatusActive {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": gin.H{"msg": "session not found or expired"}})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warnf("[ws] upgrade failed sessionId=%s err=%v", sessionID, err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	pubsub := storager.Subscribe(ctx, store.SessionChannelKey(sessionID))

	logger.Infof("[ws] connected userId=%s sessionId=%s platform=%s", sess.UserID, sessionID, sess.Platform)

	// 读泵：只为感知断开和回 pong
	go func() {
		defer cancel()
		conn.SetReadLimit(1 << 16)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// 写泵：频道消息 + 心跳
	go func() {
		defer func() {
			cancel()
			_ = pubsub.Close()
			_ = conn.Close()
			logger.Infof("[ws] closed sessionId=%s", sessionID)
		}()
		ch := pubsub.Channel()
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
					logger.Warnf("[ws] write failed sessionId=%s err=%v", sessionID, err)
					return
				}
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()
}
