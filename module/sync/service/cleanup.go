package service

import (
	"context"
	"time"

	"RZProject/logger"
	"RZProject/module/sync/store"
	"RZProject/tools/errs"
	"RZProject/tools/safe"
)

// CleanupExpiredSessions 清扫所有用户会话集合里已失效的会话：
// 会话体被TTL淘汰（读到 nil）或 startTime 超过24小时硬上限的，
// 从KV和集合两边移除。单条失败跳过不中断，可重入、可并发。
func (s *SyncService) CleanupExpiredSessions(ctx context.Context) (int, error) {
	userIDs, err := s.sessions.ListUserIDs(ctx)
	if err != nil {
		return 0, errs.WrapMsg(err, "list user session sets")
	}

	nowMS := s.now().UnixMilli()
	removed := 0
	for _, userID := range userIDs {
		sessionIDs, err := s.sessions.ListSessionIDs(ctx, userID)
		if err != nil {
			logger.Warnf("[sync] cleanup list sessions failed userId=%s err=%v", userID, err)
			continue
		}
		for _, id := range sessionIDs {
			sess, err := s.sessions.Get(ctx, id)
			if err != nil {
				logger.Warnf("[sync] cleanup load session failed sessionId=%s err=%v", id, err)
				continue
			}
			if sess != nil && nowMS-sess.StartTime <= store.SessionMaxAge.Milliseconds() {
				continue
			}
			if err := s.sessions.Remove(ctx, userID, id); err != nil {
				logger.Warnf("[sync] cleanup remove failed sessionId=%s err=%v", id, err)
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		logger.Infof("[sync] cleanup removed %d expired sessions", removed)
	}
	return removed, nil
}

// StartSweeper 周期清扫，直到 ctx 结束
func (s *SyncService) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	safe.SafeGo(func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if _, err := s.CleanupExpiredSessions(ctx); err != nil {
					logger.Errorf("[sync] cleanup sweep failed err=%v", err)
				}
			}
		}
	})
}
