package service

import (
	"context"
	"sort"
	"sync"

	"RZProject/module/sync/model"
	"RZProject/tools/errs"
)

// 内存版 Gateway，失败注入用 failAll
type fakeGateway struct {
	mu       sync.Mutex
	userInfo map[string]*model.UserInfo
	progress map[string]*model.LearningProgress
	aiConfig map[string]*model.AIConfig
	chats    map[string]map[string]*model.ChatHistory // userId -> character
	failAll  bool
	saves    int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		userInfo: make(map[string]*model.UserInfo),
		progress: make(map[string]*model.LearningProgress),
		aiConfig: make(map[string]*model.AIConfig),
		chats:    make(map[string]map[string]*model.ChatHistory),
	}
}

func (g *fakeGateway) err() error {
	if g.failAll {
		return errs.New("storage down")
	}
	return nil
}

func (g *fakeGateway) GetUserInfo(_ context.Context, userID string) (*model.UserInfo, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.err(); err != nil {
		return nil, err
	}
	return g.userInfo[userID], nil
}

func (g *fakeGateway) SaveUserInfo(_ context.Context, info *model.UserInfo) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.err(); err != nil {
		return err
	}
	g.userInfo[info.UserID] = info
	g.saves++
	return nil
}

func (g *fakeGateway) GetLearningProgress(_ context.Context, userID string) (*model.LearningProgress, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.err(); err != nil {
		return nil, err
	}
	return g.progress[userID], nil
}

func (g *fakeGateway) SaveLearningProgress(_ context.Context, p *model.LearningProgress) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.err(); err != nil {
		return err
	}
	g.progress[p.UserID] = p
	g.saves++
	return nil
}

func (g *fakeGateway) GetAIConfig(_ context.Context, userID string) (*model.AIConfig, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.err(); err != nil {
		return nil, err
	}
	return g.aiConfig[userID], nil
}

func (g *fakeGateway) SaveAIConfig(_ context.Context, cfg *model.AIConfig) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.err(); err != nil {
		return err
	}
	g.aiConfig[cfg.UserID] = cfg
	g.saves++
	return nil
}

func (g *fakeGateway) ListChatHistory(_ context.Context, userID string, limit int64) ([]*model.ChatHistory, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.err(); err != nil {
		return nil, err
	}
	var out []*model.ChatHistory
	for _, th := range g.chats[userID] {
		out = append(out, th)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt > out[j].UpdatedAt })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (g *fakeGateway) SaveChatHistory(_ context.Context, th *model.ChatHistory) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.err(); err != nil {
		return err
	}
	if g.chats[th.UserID] == nil {
		g.chats[th.UserID] = make(map[string]*model.ChatHistory)
	}
	g.chats[th.UserID][th.Character] = th
	g.saves++
	return nil
}

// 内存版 SessionStore
type fakeSessionStore struct {
	mu        sync.Mutex
	sessions  map[string]*model.SyncSession
	userSets  map[string]map[string]struct{}
	published map[string][][]byte
	pubErr    error
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		sessions:  make(map[string]*model.SyncSession),
		userSets:  make(map[string]map[string]struct{}),
		published: make(map[string][][]byte),
	}
}

func (s *fakeSessionStore) Create(_ context.Context, sess *model.SyncSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.ID] = &cp
	if s.userSets[sess.UserID] == nil {
		s.userSets[sess.UserID] = make(map[string]struct{})
	}
	s.userSets[sess.UserID][sess.ID] = struct{}{}
	return nil
}

func (s *fakeSessionStore) Get(_ context.Context, id string) (*model.SyncSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *sess
	return &cp, nil
}

func (s *fakeSessionStore) Refresh(_ context.Context, sess *model.SyncSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *fakeSessionStore) Remove(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	if set, ok := s.userSets[userID]; ok {
		delete(set, id)
	}
	return nil
}

func (s *fakeSessionStore) ListSessionIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for id := range s.userSets[userID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeSessionStore) ListUserIDs(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for uid := range s.userSets {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out, nil
}

func (s *fakeSessionStore) Publish(_ context.Context, sessionID string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pubErr != nil {
		return s.pubErr
	}
	s.published[sessionID] = append(s.published[sessionID], payload)
	return nil
}

// 镜像替身
type fakeMirror struct {
	mu     sync.Mutex
	events []*Event
	err    error
}

func (m *fakeMirror) Name() string { return "fake" }

func (m *fakeMirror) Publish(_ context.Context, ev *Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, ev)
	return nil
}

func (m *fakeMirror) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}
