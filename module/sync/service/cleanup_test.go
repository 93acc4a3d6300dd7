package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RZProject/module/sync/model"
)

func TestCleanupExpiredSessions(t *testing.T) {
	gw := newFakeGateway()
	ss := newFakeSessionStore()
	start := time.UnixMilli(10_000_000)
	svc := newTestService(gw, ss, start)

	fresh, err := svc.SyncOnLogin(context.Background(), "u1", model.PlatformWeb, "dev-1")
	require.NoError(t, err)
	stale, err := svc.SyncOnLogin(context.Background(), "u1", model.PlatformAndroid, "dev-2")
	require.NoError(t, err)
	ghost, err := svc.SyncOnLogin(context.Background(), "u2", model.PlatformMiniProgram, "dev-3")
	require.NoError(t, err)

	// stale: 把 startTime 拨回25小时前；ghost: 会话体被TTL淘汰但集合残留
	ss.sessions[stale.SyncSessionID].StartTime = start.Add(-25 * time.Hour).UnixMilli()
	delete(ss.sessions, ghost.SyncSessionID)

	removed, err := svc.CleanupExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	// fresh 保留，stale/ghost 从两边清掉
	sess, _ := ss.Get(context.Background(), fresh.SyncSessionID)
	assert.NotNil(t, sess)
	ids1, _ := ss.ListSessionIDs(context.Background(), "u1")
	assert.Equal(t, []string{fresh.SyncSessionID}, ids1)
	ids2, _ := ss.ListSessionIDs(context.Background(), "u2")
	assert.Empty(t, ids2)
}

func TestCleanupIdempotent(t *testing.T) {
	gw := newFakeGateway()
	ss := newFakeSessionStore()
	start := time.UnixMilli(20_000_000)
	svc := newTestService(gw, ss, start)

	stale, err := svc.SyncOnLogin(context.Background(), "u1", model.PlatformWeb, "dev-1")
	require.NoError(t, err)
	ss.sessions[stale.SyncSessionID].StartTime = start.Add(-25 * time.Hour).UnixMilli()

	removed, err := svc.CleanupExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	removed, err = svc.CleanupExpiredSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}
