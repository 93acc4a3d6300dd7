package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"RZProject/module/sync/model"
	"RZProject/tools/errs"
)

// Mongo 集合名
const (
	CollUserInfo         = "user_info"
	CollLearningProgress = "learning_progress"
	CollAIConfig         = "ai_config"
	CollChatHistory      = "chat_history"
)

// MongoGateway 用 MongoDB 实现 Gateway。
// 库内时间戳统一存 BSON Date；进出同步引擎时在这里转成 Unix ms。
type MongoGateway struct {
	db *mongo.Database
}

func NewMongoGateway(db *mongo.Database) *MongoGateway {
	return &MongoGateway{db: db}
}

var _ Gateway = (*MongoGateway)(nil)

// ===== 文档结构（库内形态，时间为 Date） =====

type userInfoDoc struct {
	UserID    string    `bson:"user_id"`
	Nickname  string    `bson:"nickname"`
	AvatarURL string    `bson:"avatar_url"`
	Signature string    `bson:"signature,omitempty"`
	Level     int64     `bson:"level,omitempty"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type learningProgressDoc struct {
	UserID          string             `bson:"user_id"`
	TotalDays       int64              `bson:"total_days"`
	TotalHours      float64            `bson:"total_hours"`
	OcrCount        int64              `bson:"ocr_count"`
	ChatCount       int64              `bson:"chat_count"`
	Streak          int64              `bson:"streak"`
	LastCheckinDate string             `bson:"last_checkin_date,omitempty"`
	FavoriteBooks   []string           `bson:"favorite_books,omitempty"`
	Achievements    []string           `bson:"achievements,omitempty"`
	ReadingProgress map[string]float64 `bson:"reading_progress,omitempty"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

type aiConfigDoc struct {
	UserID     string          `bson:"user_id"`
	APIKey     string          `bson:"api_key,omitempty"`
	Connected  bool            `bson:"connected"`
	Features   map[string]bool `bson:"features,omitempty"`
	UsageCount int64           `bson:"usage_count"`
	UpdatedAt  time.Time       `bson:"updated_at"`
}

type messageDoc struct {
	ID        string    `bson:"id"`
	Role      string    `bson:"role"`
	Content   string    `bson:"content"`
	Timestamp time.Time `bson:"timestamp"`
}

type chatHistoryDoc struct {
	UserID    string       `bson:"user_id"`
	Character string       `bson:"character"`
	Messages  []messageDoc `bson:"messages"`
	UpdatedAt time.Time    `bson:"updated_at"`
}

// ===== 时间边界转换 =====

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// ===== UserInfo =====

func (g *MongoGateway) GetUserInfo(ctx context.Context, userID string) (*model.UserInfo, error) {
	var doc userInfoDoc
	err := g.db.Collection(CollUserInfo).FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "get user info", "userId", userID)
	}
	return &model.UserInfo{
		UserID:    doc.UserID,
		Nickname:  doc.Nickname,
		AvatarURL: doc.AvatarURL,
		Signature: doc.Signature,
		Level:     doc.Level,
		UpdatedAt: toMillis(doc.UpdatedAt),
	}, nil
}

func (g *MongoGateway) SaveUserInfo(ctx context.Context, info *model.UserInfo) error {
	doc := userInfoDoc{
		UserID:    info.UserID,
		Nickname:  info.Nickname,
		AvatarURL: info.AvatarURL,
		Signature: info.Signature,
		Level:     info.Level,
		UpdatedAt: fromMillis(info.UpdatedAt),
	}
	return g.upsert(ctx, CollUserInfo, bson.M{"user_id": info.UserID}, doc)
}

// ===== LearningProgress =====

func (g *MongoGateway) GetLearningProgress(ctx context.Context, userID string) (*model.LearningProgress, error) {
	var doc learningProgressDoc
	err := g.db.Collection(CollLearningProgress).FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "get learning progress", "userId", userID)
	}
	return &model.LearningProgress{
		UserID:          doc.UserID,
		TotalDays:       doc.TotalDays,
		TotalHours:      doc.TotalHours,
		OcrCount:        doc.OcrCount,
		ChatCount:       doc.ChatCount,
		Streak:          doc.Streak,
		LastCheckinDate: doc.LastCheckinDate,
		FavoriteBooks:   doc.FavoriteBooks,
		Achievements:    doc.Achievements,
		ReadingProgress: doc.ReadingProgress,
		UpdatedAt:       toMillis(doc.UpdatedAt),
	}, nil
}

func (g *MongoGateway) SaveLearningProgress(ctx context.Context, progress *model.LearningProgress) error {
	doc := learningProgressDoc{
		UserID:          progress.UserID,
		TotalDays:       progress.TotalDays,
		TotalHours:      progress.TotalHours,
		OcrCount:        progress.OcrCount,
		ChatCount:       progress.ChatCount,
		Streak:          progress.Streak,
		LastCheckinDate: progress.LastCheckinDate,
		FavoriteBooks:   progress.FavoriteBooks,
		Achievements:    progress.Achievements,
		ReadingProgress: progress.ReadingProgress,
		UpdatedAt:       fromMillis(progress.UpdatedAt),
	}
	return g.upsert(ctx, CollLearningProgress, bson.M{"user_id": progress.UserID}, doc)
}

// ===== AIConfig =====

func (g *MongoGateway) GetAIConfig(ctx context.Context, userID string) (*model.AIConfig, error) {
	var doc aiConfigDoc
	err := g.db.Collection(CollAIConfig).FindOne(ctx, bson.M{"user_id": userID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, errs.WrapMsg(err, "get ai config", "userId", userID)
	}
	return &model.AIConfig{
		UserID:     doc.UserID,
		APIKey:     doc.APIKey,
		Connected:  doc.Connected,
		Features:   doc.Features,
		UsageCount: doc.UsageCount,
		UpdatedAt:  toMillis(doc.UpdatedAt),
	}, nil
}

func (g *MongoGateway) SaveAIConfig(ctx context.Context, cfg *model.AIConfig) error {
	doc := aiConfigDoc{
		UserID:     cfg.UserID,
		APIKey:     cfg.APIKey,
		Connected:  cfg.Connected,
		Features:   cfg.Features,
		UsageCount: cfg.UsageCount,
		UpdatedAt:  fromMillis(cfg.UpdatedAt),
	}
	return g.upsert(ctx, CollAIConfig, bson.M{"user_id": cfg.UserID}, doc)
}

// ===== ChatHistory =====

func (g *MongoGateway) ListChatHistory(ctx context.Context, userID string, limit int64) ([]*model.ChatHistory, error) {
	if limit <= 0 {
		limit = ChatHistoryFetchLimit
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetLimit(limit)
	cur, err := g.db.Collection(CollChatHistory).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, errs.WrapMsg(err, "list chat history", "userId", userID)
	}
	defer cur.Close(ctx)

	var out []*model.ChatHistory
	for cur.Next(ctx) {
		var doc chatHistoryDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errs.WrapMsg(err, "decode chat history", "userId", userID)
		}
		out = append(out, chatDocToModel(&doc))
	}
	if err := cur.Err(); err != nil {
		return nil, errs.WrapMsg(err, "iterate chat history", "userId", userID)
	}
	return out, nil
}

func (g *MongoGateway) SaveChatHistory(ctx context.Context, history *model.ChatHistory) error {
	doc := chatHistoryDoc{
		UserID:    history.UserID,
		Character: history.Character,
		Messages:  make([]messageDoc, 0, len(history.Messages)),
		UpdatedAt: fromMillis(history.UpdatedAt),
	}
	for _, m := range history.Messages {
		doc.Messages = append(doc.Messages, messageDoc{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: fromMillis(m.Timestamp),
		})
	}
	filter := bson.M{"user_id": history.UserID, "character": history.Character}
	return g.upsert(ctx, CollChatHistory, filter, doc)
}

func chatDocToModel(doc *chatHistoryDoc) *model.ChatHistory {
	out := &model.ChatHistory{
		UserID:    doc.UserID,
		Character: doc.Character,
		Messages:  make([]model.Message, 0, len(doc.Messages)),
		UpdatedAt: toMillis(doc.UpdatedAt),
	}
	for _, m := range doc.Messages {
		out.Messages = append(out.Messages, model.Message{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: toMillis(m.Timestamp),
		})
	}
	return out
}

// upsert 按自然键整体覆盖写（$set 全量文档）
func (g *MongoGateway) upsert(ctx context.Context, coll string, filter bson.M, doc any) error {
	opts := options.FindOneAndUpdate().SetUpsert(true)
	res := g.db.Collection(coll).FindOneAndUpdate(ctx, filter, bson.M{"$set": doc}, opts)
	if err := res.Err(); err != nil && err != mongo.ErrNoDocuments {
		return errs.WrapMsg(err, "upsert", "coll", coll)
	}
	return nil
}
