package mongoutil

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"RZProject/tools/errs"
)

const (
	defaultMaxPoolSize = 100
	defaultMaxRetry    = 3
	defaultAuthSource  = "admin"
)

// ValidateAndSetDefaults 校验配置并补默认值
func (c *Config) ValidateAndSetDefaults() error {
	if c.Uri == "" && len(c.Address) == 0 {
		return errs.New("either Uri or Address must be set")
	}
	if c.Database == "" {
		return errs.New("database is required")
	}
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = defaultMaxPoolSize
	}
	if c.MaxRetry <= 0 {
		c.MaxRetry = defaultMaxRetry
	}
	if c.AuthSource == "" {
		c.AuthSource = defaultAuthSource
	}
	return nil
}

// shouldRetry determines whether an error should trigger a retry.
func shouldRetry(ctx context.Context, err error) bool {
	select {
	case <-ctx.Done():
		return false
	default:
		if cmdErr, ok := err.(mongo.CommandError); ok {
			// 13=Unauthorized 18=AuthenticationFailed，重试无意义
			return cmdErr.Code != 13 && cmdErr.Code != 18
		}
		return true
	}
}
