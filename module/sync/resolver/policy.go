package resolver

import "RZProject/module/sync/model"

// 学习进度的字段级合并策略表。
// 旧版按 key 后缀（*Count/*Progress）猜策略，这里改为显式声明：
// 计数器取 max（进度永不回退），集合取并集，表里没有的字段跟随
// updatedAt 新者（streak / lastCheckinDate / readingProgress 等整体取自新侧）。

type counterRule struct {
	Field string
	Get   func(*model.LearningProgress) float64
	Set   func(*model.LearningProgress, float64)
}

type setRule struct {
	Field string
	Get   func(*model.LearningProgress) []string
	Set   func(*model.LearningProgress, []string)
}

var progressCounterRules = []counterRule{
	{
		Field: "totalDays",
		Get:   func(p *model.LearningProgress) float64 { return float64(p.TotalDays) },
		Set:   func(p *model.LearningProgress, v float64) { p.TotalDays = int64(v) },
	},
	{
		Field: "totalHours",
		Get:   func(p *model.LearningProgress) float64 { return p.TotalHours },
		Set:   func(p *model.LearningProgress, v float64) { p.TotalHours = v },
	},
	{
		Field: "ocrCount",
		Get:   func(p *model.LearningProgress) float64 { return float64(p.OcrCount) },
		Set:   func(p *model.LearningProgress, v float64) { p.OcrCount = int64(v) },
	},
	{
		Field: "chatCount",
		Get:   func(p *model.LearningProgress) float64 { return float64(p.ChatCount) },
		Set:   func(p *model.LearningProgress, v float64) { p.ChatCount = int64(v) },
	},
}

var progressSetRules = []setRule{
	{
		Field: "favoriteBooks",
		Get:   func(p *model.LearningProgress) []string { return p.FavoriteBooks },
		Set:   func(p *model.LearningProgress, v []string) { p.FavoriteBooks = v },
	},
	{
		Field: "achievements",
		Get:   func(p *model.LearningProgress) []string { return p.Achievements },
		Set:   func(p *model.LearningProgress, v []string) { p.Achievements = v },
	},
}
