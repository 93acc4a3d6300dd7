package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// 键命名空间是兼容契约，动了会把线上客户端全断掉
func TestKeyNamespace(t *testing.T) {
	assert.Equal(t, "sync:session:abc", sessionKey("abc"))
	assert.Equal(t, "sync:user:u1", userSetKey("u1"))
	assert.Equal(t, "sync:channel:abc", SessionChannelKey("abc"))
}

func TestSessionTTLConstants(t *testing.T) {
	assert.Equal(t, time.Hour, SessionTTL)
	assert.Equal(t, 24*time.Hour, SessionMaxAge)
}

func TestMillisConversion(t *testing.T) {
	assert.EqualValues(t, 0, toMillis(time.Time{}))
	assert.True(t, fromMillis(0).IsZero())

	ts := int64(1_700_000_000_123)
	assert.Equal(t, ts, toMillis(fromMillis(ts)))
}
