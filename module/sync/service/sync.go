package service

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"RZProject/logger"
	"RZProject/module/sync/model"
	"RZProject/module/sync/resolver"
	"RZProject/module/sync/store"
	"RZProject/tools/errs"
)

// SyncService 同步编排器：登录同步、上传合并、实时扇出、过期清扫。
// 依赖全部注入，自身无共享可变状态，可并发使用。
type SyncService struct {
	gateway  store.Gateway
	sessions store.SessionStore
	registry *resolver.Registry
	mirrors  []EventPublisher

	now func() time.Time // 测试可替换
}

func NewSyncService(gw store.Gateway, sessions store.SessionStore, reg *resolver.Registry) *SyncService {
	return &SyncService{
		gateway:  gw,
		sessions: sessions,
		registry: reg,
		now:      time.Now,
	}
}

// AddMirror 追加一个扇出镜像（NATS/Kafka 等），尽力投递
func (s *SyncService) AddMirror(p EventPublisher) {
	s.mirrors = append(s.mirrors, p)
}

// LoginResult 登录同步结果
type LoginResult struct {
	SyncSessionID string            `json:"syncSessionId"`
	ServerData    *model.UserRecord `json:"serverData"`
	Timestamp     int64             `json:"timestamp"`
}

// UploadResult 上传合并结果
type UploadResult struct {
	MergedData *model.UserRecord `json:"mergedData"`
	Conflicts  []model.Conflict  `json:"conflicts"`
	Timestamp  int64             `json:"timestamp"`
}

// SyncOnLogin 设备登录：拉全量服务端状态，再建会话。
// 拉取失败不会留下半截会话。
func (s *SyncService) SyncOnLogin(ctx context.Context, userID, platform, deviceID string) (*LoginResult, error) {
	if userID == "" || platform == "" || deviceID == "" {
		return nil, errs.ErrArgs.WrapMsg("userId/platform/deviceId are required")
	}
	if !model.ValidPlatform(platform) {
		return nil, errs.ErrArgs.WrapMsg("unknown platform", "platform", platform)
	}

	data, err := s.GetServerData(ctx, userID)
	if err != nil {
		logger.Errorf("[sync] login fetch failed userId=%s err=%v", userID, err)
		return nil, errs.ErrSyncFailed.WrapMsg("fetch server data", "userId", userID, "err", err)
	}

	now := s.now()
	sess := &model.SyncSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Platform:  platform,
		DeviceID:  deviceID,
		StartTime: now.UnixMilli(),
		Status:    model.SessionStatusActive,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		logger.Errorf("[sync] create session failed userId=%s err=%v", userID, err)
		return nil, errs.ErrSyncFailed.WrapMsg("create session", "userId", userID, "err", err)
	}

	logger.Infof("[sync] login userId=%s platform=%s session=%s", userID, platform, sess.ID)
	return &LoginResult{
		SyncSessionID: sess.ID,
		ServerData:    data,
		Timestamp:     now.UnixMilli(),
	}, nil
}

// GetServerData 并发读四个子记录，任一失败则整体失败（不给部分结果）。
// 聊天线程只取最近 100 个（每人物一条，updatedAt 新者在前）。
func (s *SyncService) GetServerData(ctx context.Context, userID string) (*model.UserRecord, error) {
	var (
		wg   sync.WaitGroup
		rec  model.UserRecord
		errv [4]error
	)
	wg.Add(4)
	go func() {
		defer wg.Done()
		rec.UserInfo, errv[0] = s.gateway.GetUserInfo(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		rec.LearningProgress, errv[1] = s.gateway.GetLearningProgress(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		rec.AIConfig, errv[2] = s.gateway.GetAIConfig(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		rec.ChatHistory, errv[3] = s.gateway.ListChatHistory(ctx, userID, store.ChatHistoryFetchLimit)
	}()
	wg.Wait()
	for _, err := range errv {
		if err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

// UploadLocalData 设备上传本地状态：先读当前服务端状态再按类型合并落库，
// 不做盲覆盖。无版本号CAS，两台设备同时上传同一类型时后读者胜出。
func (s *SyncService) UploadLocalData(ctx context.Context, syncSessionID string, local *model.UserRecord) (*UploadResult, error) {
	sess, err := s.sessions.Get(ctx, syncSessionID)
	if err != nil {
		return nil, errs.ErrSyncFailed.WrapMsg("load session", "sessionId", syncSessionID, "err", err)
	}
	now := s.now()
	if sess == nil || sess.Status != model.SessionStatusActive ||
		now.UnixMilli()-sess.StartTime > store.SessionMaxAge.Milliseconds() {
		return nil, errs.ErrSessionNotFound.WrapMsg("", "sessionId", syncSessionID)
	}
	if local == nil {
		local = &model.UserRecord{}
	}
	normalizeLocal(sess.UserID, local)

	server, err := s.GetServerData(ctx, sess.UserID)
	if err != nil {
		logger.Errorf("[sync] upload fetch failed userId=%s err=%v", sess.UserID, err)
		return nil, errs.ErrSyncFailed.WrapMsg("fetch server data", "userId", sess.UserID, "err", err)
	}

	merged := &model.UserRecord{}
	conflicts := make([]model.Conflict, 0, 4)

	// userInfo
	if out, c, err := s.mergeOne(model.DataTypeUserInfo, anyOrNil(local.UserInfo), anyOrNil(server.UserInfo)); err != nil {
		return nil, errs.ErrSyncFailed.WrapMsg("merge", "dataType", model.DataTypeUserInfo, "err", err)
	} else {
		if out != nil {
			merged.UserInfo = out.(*model.UserInfo)
		}
		if c != nil {
			conflicts = append(conflicts, *c)
		}
	}
	// learningProgress
	if out, c, err := s.mergeOne(model.DataTypeLearningProgress, anyOrNil(local.LearningProgress), anyOrNil(server.LearningProgress)); err != nil {
		return nil, errs.ErrSyncFailed.WrapMsg("merge", "dataType", model.DataTypeLearningProgress, "err", err)
	} else {
		if out != nil {
			merged.LearningProgress = out.(*model.LearningProgress)
		}
		if c != nil {
			conflicts = append(conflicts, *c)
		}
	}
	// aiConfig
	if out, c, err := s.mergeOne(model.DataTypeAIConfig, anyOrNil(local.AIConfig), anyOrNil(server.AIConfig)); err != nil {
		return nil, errs.ErrSyncFailed.WrapMsg("merge", "dataType", model.DataTypeAIConfig, "err", err)
	} else {
		if out != nil {
			merged.AIConfig = out.(*model.AIConfig)
		}
		if c != nil {
			conflicts = append(conflicts, *c)
		}
	}
	// chatHistory（线程列表，resolver 内部按人物配对）
	if out, c, err := s.mergeOne(model.DataTypeChatHistory, anyOrNilThreads(local.ChatHistory), anyOrNilThreads(server.ChatHistory)); err != nil {
		return nil, errs.ErrSyncFailed.WrapMsg("merge", "dataType", model.DataTypeChatHistory, "err", err)
	} else {
		if out != nil {
			merged.ChatHistory = out.([]*model.ChatHistory)
		}
		if c != nil {
			conflicts = append(conflicts, *c)
		}
	}

	// 只回写本地出现过的类型；服务端独有的类型原样带回，不重复落库
	if err := s.persistMerged(ctx, local, merged); err != nil {
		logger.Errorf("[sync] persist failed userId=%s err=%v", sess.UserID, err)
		return nil, errs.ErrSyncFailed.WrapMsg("persist merged data", "userId", sess.UserID, "err", err)
	}

	sess.LastSyncTime = now.UnixMilli()
	if err := s.sessions.Refresh(ctx, sess); err != nil {
		return nil, errs.ErrSyncFailed.WrapMsg("refresh session", "sessionId", sess.ID, "err", err)
	}

	logger.Infof("[sync] upload userId=%s session=%s conflicts=%d", sess.UserID, sess.ID, len(conflicts))
	return &UploadResult{
		MergedData: merged,
		Conflicts:  conflicts,
		Timestamp:  now.UnixMilli(),
	}, nil
}

// mergeOne 单个数据类型的合并 + 冲突摘要。
// 两侧序列化一致视为无冲突；有冲突时按合并结果与两侧的序列化比对归类。
// chatHistory 按整个线程列表比对：本地只带服务端若干线程中的一个副本时，
// 列表形状不同也会报一条 merged 冲突（粒度是数据类型，不下钻到单线程）。
func (s *SyncService) mergeOne(dataType string, local, server any) (any, *model.Conflict, error) {
	if local == nil && server == nil {
		return nil, nil, nil
	}
	if local == nil {
		return server, nil, nil
	}
	if server == nil {
		return local, nil, nil
	}
	merged, err := s.registry.Resolve(dataType, local, server)
	if err != nil {
		return nil, nil, err
	}

	lb, err := json.Marshal(local)
	if err != nil {
		return nil, nil, errs.Wrap(err)
	}
	sb, err := json.Marshal(server)
	if err != nil {
		return nil, nil, errs.Wrap(err)
	}
	if bytes.Equal(lb, sb) {
		return merged, nil, nil
	}
	mb, err := json.Marshal(merged)
	if err != nil {
		return nil, nil, errs.Wrap(err)
	}

	resolution := model.ResolutionMerged
	switch {
	case bytes.Equal(mb, lb):
		resolution = model.ResolutionLocal
	case bytes.Equal(mb, sb):
		resolution = model.ResolutionServer
	}
	return merged, &model.Conflict{
		DataType:        dataType,
		Resolution:      resolution,
		LocalTimestamp:  recordTimestamp(local),
		ServerTimestamp: recordTimestamp(server),
	}, nil
}

// persistMerged 并发回写本地上传过的类型，聊天线程逐条 upsert
func (s *SyncService) persistMerged(ctx context.Context, local, merged *model.UserRecord) error {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		werr   error
		record = func(err error) {
			if err == nil {
				return
			}
			mu.Lock()
			if werr == nil {
				werr = err
			}
			mu.Unlock()
		}
	)
	if local.UserInfo != nil && merged.UserInfo != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record(s.gateway.SaveUserInfo(ctx, merged.UserInfo))
		}()
	}
	if local.LearningProgress != nil && merged.LearningProgress != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record(s.gateway.SaveLearningProgress(ctx, merged.LearningProgress))
		}()
	}
	if local.AIConfig != nil && merged.AIConfig != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record(s.gateway.SaveAIConfig(ctx, merged.AIConfig))
		}()
	}
	if len(local.ChatHistory) > 0 {
		// 只回写本地动过的人物线程，服务端独有线程不重写
		localChars := make(map[string]struct{}, len(local.ChatHistory))
		for _, th := range local.ChatHistory {
			localChars[th.Character] = struct{}{}
		}
		for _, th := range merged.ChatHistory {
			if _, ok := localChars[th.Character]; !ok {
				continue
			}
			th := th
			wg.Add(1)
			go func() {
				defer wg.Done()
				record(s.gateway.SaveChatHistory(ctx, th))
			}()
		}
	}
	wg.Wait()
	return werr
}

// normalizeLocal 给上传的子记录补 userId（客户端经常不带）
func normalizeLocal(userID string, rec *model.UserRecord) {
	if rec.UserInfo != nil {
		rec.UserInfo.UserID = userID
	}
	if rec.LearningProgress != nil {
		rec.LearningProgress.UserID = userID
	}
	if rec.AIConfig != nil {
		rec.AIConfig.UserID = userID
	}
	for _, th := range rec.ChatHistory {
		th.UserID = userID
	}
}

// anyOrNil 避免接口里包一个 nil 指针
func anyOrNil[T any](v *T) any {
	if v == nil {
		return nil
	}
	return v
}

func anyOrNilThreads(v []*model.ChatHistory) any {
	if len(v) == 0 {
		return nil
	}
	return v
}

// recordTimestamp 取记录级 updatedAt；线程列表取各线程最大值
func recordTimestamp(v any) int64 {
	switch t := v.(type) {
	case model.Timestamped:
		return t.GetUpdatedAt()
	case []*model.ChatHistory:
		var maxTS int64
		for _, th := range t {
			if th.UpdatedAt > maxTS {
				maxTS = th.UpdatedAt
			}
		}
		return maxTS
	}
	return 0
}
