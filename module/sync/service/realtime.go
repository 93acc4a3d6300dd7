package service

import (
	"context"
	"encoding/json"

	"RZProject/logger"
	"RZProject/module/sync/model"
	"RZProject/tools/ids"
	"RZProject/tools/safe"
)

const EventTypeDataUpdate = "data_update"

// Event 扇出给各端的变更通知
type Event struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	DataType  string `json:"dataType"`
	Data      any    `json:"data"`
	Timestamp int64  `json:"timestamp"`
	UserID    string `json:"userId"`
}

// EventPublisher 扇出镜像（NATS / Kafka）。投递至多一次，失败只记日志。
type EventPublisher interface {
	Name() string
	Publish(ctx context.Context, ev *Event) error
}

// SyncRealtime 把一次数据变更广播到该用户所有 active 会话的频道。
// 纯尽力而为：任何失败都不影响调用方，也不重试；跨会话无顺序保证。
func (s *SyncService) SyncRealtime(ctx context.Context, userID, dataType string, data any) {
	ev := &Event{
		ID:        ids.GenerateString(),
		Type:      EventTypeDataUpdate,
		DataType:  dataType,
		Data:      data,
		Timestamp: s.now().UnixMilli(),
		UserID:    userID,
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		logger.Errorf("[sync] marshal event failed userId=%s err=%v", userID, err)
		return
	}

	sessionIDs, err := s.sessions.ListSessionIDs(ctx, userID)
	if err != nil {
		logger.Warnf("[sync] list sessions failed userId=%s err=%v", userID, err)
		return
	}
	sent := 0
	for _, id := range sessionIDs {
		sess, err := s.sessions.Get(ctx, id)
		if err != nil {
			logger.Warnf("[sync] load session failed sessionId=%s err=%v", id, err)
			continue
		}
		if sess == nil || sess.Status != model.SessionStatusActive {
			continue
		}
		if err := s.sessions.Publish(ctx, id, payload); err != nil {
			logger.Warnf("[sync] publish failed sessionId=%s err=%v", id, err)
			continue
		}
		sent++
	}
	logger.Debugf("[sync] realtime userId=%s dataType=%s sessions=%d sent=%d",
		userID, dataType, len(sessionIDs), sent)

	// 镜像到外部总线，失败同样只记日志
	for _, m := range s.mirrors {
		m := m
		safe.SafeGo(func() {
			if err := m.Publish(context.Background(), ev); err != nil {
				logger.Warnf("[sync] mirror %s publish failed userId=%s err=%v", m.Name(), userID, err)
			}
		})
	}
}
