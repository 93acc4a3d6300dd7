package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeUserRecord(t *testing.T) {
	// 模拟 JSON 解出来的松散载荷：数字都是 float64，消息ID是数字
	payload := map[string]any{
		"learningProgress": map[string]any{
			"totalDays":       float64(10),
			"ocrCount":        float64(3),
			"favoriteBooks":   []any{"lunyu"},
			"readingProgress": map[string]any{"lunyu": 0.4},
			"updatedAt":       float64(600),
		},
		"chatHistory": []any{
			map[string]any{
				"character": "confucius",
				"updatedAt": float64(500),
				"messages": []any{
					map[string]any{"id": float64(2), "role": "user", "content": "仁", "timestamp": float64(200)},
				},
			},
		},
	}

	rec, err := DecodeUserRecord(payload)
	require.NoError(t, err)

	require.NotNil(t, rec.LearningProgress)
	assert.EqualValues(t, 10, rec.LearningProgress.TotalDays)
	assert.EqualValues(t, 3, rec.LearningProgress.OcrCount)
	assert.Equal(t, []string{"lunyu"}, rec.LearningProgress.FavoriteBooks)
	assert.EqualValues(t, 600, rec.LearningProgress.UpdatedAt)

	require.Len(t, rec.ChatHistory, 1)
	th := rec.ChatHistory[0]
	assert.Equal(t, "confucius", th.Character)
	require.Len(t, th.Messages, 1)
	// 弱类型解码：数字ID转成字符串
	assert.Equal(t, "2", th.Messages[0].ID)
	assert.Nil(t, rec.UserInfo)
}

func TestDecodeUserRecordDropsUnknownKeys(t *testing.T) {
	payload := map[string]any{
		"userInfo": map[string]any{"userId": "u1", "nickname": "学而", "updatedAt": float64(100)},
		"settings": map[string]any{"theme": "dark"},
		"quizHistory": []any{
			map[string]any{"id": "q1"},
		},
	}

	rec, err := DecodeUserRecord(payload)
	require.NoError(t, err)

	// 未知键不报错、不透传，只保留四类已知数据
	require.NotNil(t, rec.UserInfo)
	assert.Equal(t, "学而", rec.UserInfo.Nickname)
	assert.Nil(t, rec.LearningProgress)
	assert.Nil(t, rec.AIConfig)
	assert.Empty(t, rec.ChatHistory)
}

func TestDecodeUserRecordNil(t *testing.T) {
	rec, err := DecodeUserRecord(nil)
	require.NoError(t, err)
	assert.False(t, rec.Has(DataTypeUserInfo))
	assert.False(t, rec.Has(DataTypeChatHistory))
}
