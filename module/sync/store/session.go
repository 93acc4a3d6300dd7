package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"RZProject/module/sync/model"
	"RZProject/tools/errs"
)

// Redis 键约定（兼容契约，既有客户端依赖这些命名空间）：
//
//	sync:session:{id}    会话 JSON，3600s 滑动TTL
//	sync:user:{userId}   该用户的会话ID集合
//	sync:channel:{id}    面向单会话的 pub/sub 频道
const (
	sessionKeyPrefix = "sync:session:"
	userSetKeyPrefix = "sync:user:"
	channelKeyPrefix = "sync:channel:"
	SessionTTL       = time.Hour
	SessionMaxAge    = 24 * time.Hour // 硬上限，由清扫兜底
)

func sessionKey(id string) string     { return sessionKeyPrefix + id }
func userSetKey(userID string) string { return userSetKeyPrefix + userID }

// SessionChannelKey 会话频道名，WS 网关订阅用
func SessionChannelKey(sessionID string) string { return channelKeyPrefix + sessionID }

// SessionStore 同步会话的唯一属主：短寿命 KV + 用户会话集合 + 会话频道发布。
type SessionStore interface {
	// Create 写入会话并加入用户集合
	Create(ctx context.Context, s *model.SyncSession) error
	// Get 会话缺失/已过期返回 (nil, nil)
	Get(ctx context.Context, id string) (*model.SyncSession, error)
	// Refresh 重写会话体并滑动续期
	Refresh(ctx context.Context, s *model.SyncSession) error
	// Remove 从会话KV和用户集合两边删除
	Remove(ctx context.Context, userID, id string) error
	// ListSessionIDs 某用户当前登记的所有会话ID
	ListSessionIDs(ctx context.Context, userID string) ([]string, error)
	// ListUserIDs 枚举所有持有会话集合的用户（清扫用）
	ListUserIDs(ctx context.Context) ([]string, error)
	// Publish 往会话频道投递一条消息，至多一次
	Publish(ctx context.Context, sessionID string, payload []byte) error
}

// RedisSessionStore go-redis 实现
type RedisSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: SessionTTL}
}

var _ SessionStore = (*RedisSessionStore)(nil)

func (s *RedisSessionStore) Create(ctx context.Context, sess *model.SyncSession) error {
	blob, err := json.Marshal(sess)
	if err != nil {
		return errs.Wrap(err)
	}
	if err := s.rdb.Set(ctx, sessionKey(sess.ID), blob, s.ttl).Err(); err != nil {
		return errs.WrapMsg(err, "create session", "sessionId", sess.ID)
	}
	if err := s.rdb.SAdd(ctx, userSetKey(sess.UserID), sess.ID).Err(); err != nil {
		return errs.WrapMsg(err, "index session", "userId", sess.UserID)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*model.SyncSession, error) {
	blob, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "get session", "sessionId", id)
	}
	var sess model.SyncSession
	if err := json.Unmarshal(blob, &sess); err != nil {
		return nil, errs.WrapMsg(err, "decode session", "sessionId", id)
	}
	return &sess, nil
}

func (s *RedisSessionStore) Refresh(ctx context.Context, sess *model.SyncSession) error {
	blob, err := json.Marshal(sess)
	if err != nil {
		return errs.Wrap(err)
	}
	if err := s.rdb.Set(ctx, sessionKey(sess.ID), blob, s.ttl).Err(); err != nil {
		return errs.WrapMsg(err, "refresh session", "sessionId", sess.ID)
	}
	return nil
}

func (s *RedisSessionStore) Remove(ctx context.Context, userID, id string) error {
	if err := s.rdb.Del(ctx, sessionKey(id)).Err(); err != nil {
		return errs.WrapMsg(err, "del session", "sessionId", id)
	}
	if err := s.rdb.SRem(ctx, userSetKey(userID), id).Err(); err != nil {
		return errs.WrapMsg(err, "srem session", "userId", userID)
	}
	return nil
}

func (s *RedisSessionStore) ListSessionIDs(ctx context.Context, userID string) ([]string, error) {
	ids, err := s.rdb.SMembers(ctx, userSetKey(userID)).Result()
	if err != nil {
		return nil, errs.WrapMsg(err, "smembers", "userId", userID)
	}
	return ids, nil
}

func (s *RedisSessionStore) ListUserIDs(ctx context.Context) ([]string, error) {
	keys, err := s.rdb.Keys(ctx, userSetKeyPrefix+"*").Result()
	if err != nil {
		return nil, errs.WrapMsg(err, "keys user sets")
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, userSetKeyPrefix))
	}
	return out, nil
}

func (s *RedisSessionStore) Publish(ctx context.Context, sessionID string, payload []byte) error {
	if err := s.rdb.Publish(ctx, SessionChannelKey(sessionID), payload).Err(); err != nil {
		return errs.WrapMsg(err, "publish", "sessionId", sessionID)
	}
	return nil
}
