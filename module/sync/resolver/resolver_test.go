package resolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RZProject/module/sync/model"
)

func progressFixture(updatedAt int64) *model.LearningProgress {
	return &model.LearningProgress{
		UserID:          "u1",
		TotalDays:       10,
		TotalHours:      3.5,
		OcrCount:        7,
		ChatCount:       4,
		Streak:          3,
		LastCheckinDate: "2026-08-30",
		FavoriteBooks:   []string{"lunyu", "mengzi"},
		Achievements:    []string{"first_ocr"},
		ReadingProgress: map[string]float64{"lunyu": 0.4},
		UpdatedAt:       updatedAt,
	}
}

func TestResolveAbsentSides(t *testing.T) {
	reg := NewRegistry()
	x := progressFixture(100)

	got, err := reg.Resolve(model.DataTypeLearningProgress, nil, x)
	require.NoError(t, err)
	assert.Equal(t, x, got)

	got, err = reg.Resolve(model.DataTypeLearningProgress, x, nil)
	require.NoError(t, err)
	assert.Equal(t, x, got)

	// 接口里包 nil 指针也算缺失
	var nilInfo *model.UserInfo
	got, err = reg.Resolve(model.DataTypeUserInfo, nilInfo, &model.UserInfo{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, &model.UserInfo{UserID: "u1"}, got)
}

func TestMergeIdempotent(t *testing.T) {
	reg := NewRegistry()

	info := &model.UserInfo{UserID: "u1", Nickname: "学而", UpdatedAt: 100}
	cfg := &model.AIConfig{UserID: "u1", Connected: true, UsageCount: 2, UpdatedAt: 100}
	progress := progressFixture(100)
	threads := []*model.ChatHistory{{
		UserID: "u1", Character: "confucius", UpdatedAt: 100,
		Messages: []model.Message{{ID: "m1", Role: "user", Content: "仁", Timestamp: 50}},
	}}

	cases := []struct {
		dataType string
		value    any
	}{
		{model.DataTypeUserInfo, info},
		{model.DataTypeAIConfig, cfg},
		{model.DataTypeLearningProgress, progress},
		{model.DataTypeChatHistory, threads},
	}
	for _, tc := range cases {
		t.Run(tc.dataType, func(t *testing.T) {
			got, err := reg.Resolve(tc.dataType, tc.value, tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.value, got)
		})
	}
}

func TestUserInfoTimestampWinner(t *testing.T) {
	reg := NewRegistry()
	older := &model.UserInfo{UserID: "u1", Nickname: "旧", UpdatedAt: 100}
	newer := &model.UserInfo{UserID: "u1", Nickname: "新", UpdatedAt: 200}

	got, err := reg.Resolve(model.DataTypeUserInfo, older, newer)
	require.NoError(t, err)
	assert.Equal(t, newer, got)

	got, err = reg.Resolve(model.DataTypeUserInfo, newer, older)
	require.NoError(t, err)
	assert.Equal(t, newer, got)
}

func TestLearningProgressCountersMonotonic(t *testing.T) {
	reg := NewRegistry()
	local := progressFixture(200)
	local.OcrCount = 3
	local.TotalDays = 10
	remote := progressFixture(100)
	remote.OcrCount = 5
	remote.TotalDays = 8

	got, err := reg.Resolve(model.DataTypeLearningProgress, local, remote)
	require.NoError(t, err)
	merged := got.(*model.LearningProgress)

	// 计数器永不回退：双向取 max
	assert.EqualValues(t, 5, merged.OcrCount)
	assert.EqualValues(t, 10, merged.TotalDays)
	assert.EqualValues(t, 4, merged.ChatCount) // 相同时保持
	// 其余字段跟随 updatedAt 新侧（local）
	assert.EqualValues(t, 3, merged.Streak)
	assert.Equal(t, "2026-08-30", merged.LastCheckinDate)
	assert.EqualValues(t, 200, merged.UpdatedAt)
}

func TestLearningProgressSetUnionCommutative(t *testing.T) {
	reg := NewRegistry()
	a := progressFixture(100)
	a.FavoriteBooks = []string{"a", "b"}
	b := progressFixture(100)
	b.FavoriteBooks = []string{"b", "c"}

	got1, err := reg.Resolve(model.DataTypeLearningProgress, a, b)
	require.NoError(t, err)
	got2, err := reg.Resolve(model.DataTypeLearningProgress, b, a)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"a", "b", "c"}, got1.(*model.LearningProgress).FavoriteBooks)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, got2.(*model.LearningProgress).FavoriteBooks)
}

func TestLearningProgressInputsUntouched(t *testing.T) {
	reg := NewRegistry()
	local := progressFixture(200)
	remote := progressFixture(100)
	remote.OcrCount = 99
	remote.FavoriteBooks = []string{"daxue"}

	localCopy := *local
	remoteCopy := *remote
	_, err := reg.Resolve(model.DataTypeLearningProgress, local, remote)
	require.NoError(t, err)

	assert.Equal(t, localCopy.OcrCount, local.OcrCount)
	assert.Equal(t, localCopy.FavoriteBooks, local.FavoriteBooks)
	assert.Equal(t, remoteCopy.FavoriteBooks, remote.FavoriteBooks)
}

func TestChatHistoryDedupAndSort(t *testing.T) {
	reg := NewRegistry()
	local := []*model.ChatHistory{{
		UserID: "u1", Character: "confucius", UpdatedAt: 300,
		Messages: []model.Message{
			{ID: "m2", Content: "local-m2", Timestamp: 200},
			{ID: "m3", Content: "m3", Timestamp: 300},
		},
	}}
	remote := []*model.ChatHistory{{
		UserID: "u1", Character: "confucius", UpdatedAt: 250,
		Messages: []model.Message{
			{ID: "m1", Content: "m1", Timestamp: 100},
			{ID: "m2", Content: "remote-m2", Timestamp: 200},
		},
	}}

	got, err := reg.Resolve(model.DataTypeChatHistory, local, remote)
	require.NoError(t, err)
	merged := got.([]*model.ChatHistory)
	require.Len(t, merged, 1)

	th := merged[0]
	require.Len(t, th.Messages, 3)
	assert.Equal(t, "m1", th.Messages[0].ID)
	assert.Equal(t, "m2", th.Messages[1].ID)
	assert.Equal(t, "m3", th.Messages[2].ID)
	// 同ID先见者（local侧）胜
	assert.Equal(t, "local-m2", th.Messages[1].Content)
	assert.EqualValues(t, 300, th.UpdatedAt)
}

func TestChatHistoryDisjointThreads(t *testing.T) {
	reg := NewRegistry()
	local := []*model.ChatHistory{{UserID: "u1", Character: "mengzi", UpdatedAt: 100}}
	remote := []*model.ChatHistory{{UserID: "u1", Character: "zhuxi", UpdatedAt: 200}}

	got, err := reg.Resolve(model.DataTypeChatHistory, local, remote)
	require.NoError(t, err)
	merged := got.([]*model.ChatHistory)
	require.Len(t, merged, 2)

	chars := []string{merged[0].Character, merged[1].Character}
	assert.ElementsMatch(t, []string{"mengzi", "zhuxi"}, chars)
}

// 未注册类型走兜底：updatedAt 大者胜
type fakeRecord struct {
	Name      string
	UpdatedAt int64
}

func (f *fakeRecord) GetUpdatedAt() int64 { return f.UpdatedAt }

func TestDefaultFallback(t *testing.T) {
	reg := NewRegistry()
	older := &fakeRecord{Name: "older", UpdatedAt: 1}
	newer := &fakeRecord{Name: "newer", UpdatedAt: 2}

	got, err := reg.Resolve("someFutureType", older, newer)
	require.NoError(t, err)
	assert.Equal(t, newer, got)
}

func TestRegisterOverride(t *testing.T) {
	reg := NewRegistry()
	reg.Register(model.DataTypeUserInfo, MergeFunc(func(local, _ any) (any, error) {
		return local, nil
	}))
	local := &model.UserInfo{Nickname: "local", UpdatedAt: 1}
	remote := &model.UserInfo{Nickname: "remote", UpdatedAt: 2}

	got, err := reg.Resolve(model.DataTypeUserInfo, local, remote)
	require.NoError(t, err)
	assert.Equal(t, local, got)
}

func TestMergeTypeMismatch(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Resolve(model.DataTypeLearningProgress, &model.UserInfo{UpdatedAt: 1}, progressFixture(2))
	assert.Error(t, err)
}
