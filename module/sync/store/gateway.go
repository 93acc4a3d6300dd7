package store

import (
	"context"

	"RZProject/module/sync/model"
)

// ChatHistoryFetchLimit 登录/上传时回读的最近线程数上限（每人物一条，按 updatedAt 倒序）
const ChatHistoryFetchLimit = 100

// Gateway 服务端权威数据的读写口。
// 读：缺失记录返回 (nil, nil)，错误只用于存储故障。
// 写：按自然键 upsert（userId，聊天线程为 userId+character）。
type Gateway interface {
	GetUserInfo(ctx context.Context, userID string) (*model.UserInfo, error)
	SaveUserInfo(ctx context.Context, info *model.UserInfo) error

	GetLearningProgress(ctx context.Context, userID string) (*model.LearningProgress, error)
	SaveLearningProgress(ctx context.Context, progress *model.LearningProgress) error

	GetAIConfig(ctx context.Context, userID string) (*model.AIConfig, error)
	SaveAIConfig(ctx context.Context, cfg *model.AIConfig) error

	// ListChatHistory 最近 limit 个线程，updatedAt 新者在前
	ListChatHistory(ctx context.Context, userID string, limit int64) ([]*model.ChatHistory, error)
	SaveChatHistory(ctx context.Context, history *model.ChatHistory) error
}
