package resolver

import (
	"fmt"
	"sort"

	"RZProject/module/sync/model"
	"RZProject/tools/errs"
)

// mergeByTimestamp 兜底策略：记录级 updatedAt 新者整体胜出，平局取服务端。
// userInfo / aiConfig 也用它（这两类永不做字段级混合）。
func mergeByTimestamp(local, remote any) (any, error) {
	lt, ok := local.(model.Timestamped)
	if !ok {
		return nil, errs.New("local record has no updatedAt", "type", typeName(local))
	}
	rt, ok := remote.(model.Timestamped)
	if !ok {
		return nil, errs.New("remote record has no updatedAt", "type", typeName(remote))
	}
	if lt.GetUpdatedAt() > rt.GetUpdatedAt() {
		return local, nil
	}
	return remote, nil
}

// mergeLearningProgress 字段级合并，策略见 policy.go。
// 基线取 updatedAt 新侧的拷贝（覆盖 streak / lastCheckinDate / readingProgress 等），
// 再按策略表回填计数器 max 与集合并集。
func mergeLearningProgress(local, remote any) (any, error) {
	l, ok := local.(*model.LearningProgress)
	if !ok {
		return nil, errs.New("learningProgress type mismatch", "type", typeName(local))
	}
	r, ok := remote.(*model.LearningProgress)
	if !ok {
		return nil, errs.New("learningProgress type mismatch", "type", typeName(remote))
	}

	newer := l
	if r.UpdatedAt >= l.UpdatedAt {
		newer = r
	}
	out := *newer
	// 拷贝引用字段，保证入参不可变
	if newer.ReadingProgress != nil {
		out.ReadingProgress = make(map[string]float64, len(newer.ReadingProgress))
		for k, v := range newer.ReadingProgress {
			out.ReadingProgress[k] = v
		}
	}

	for _, rule := range progressCounterRules {
		lv, rv := rule.Get(l), rule.Get(r)
		if lv > rv {
			rule.Set(&out, lv)
		} else {
			rule.Set(&out, rv)
		}
	}
	for _, rule := range progressSetRules {
		rule.Set(&out, unionStrings(rule.Get(l), rule.Get(r)))
	}
	return &out, nil
}

// mergeChatHistory 合并两份线程列表：按人物配对，线程内按消息ID去重并集。
func mergeChatHistory(local, remote any) (any, error) {
	l, ok := local.([]*model.ChatHistory)
	if !ok {
		return nil, errs.New("chatHistory type mismatch", "type", typeName(local))
	}
	r, ok := remote.([]*model.ChatHistory)
	if !ok {
		return nil, errs.New("chatHistory type mismatch", "type", typeName(remote))
	}

	remoteByChar := make(map[string]*model.ChatHistory, len(r))
	for _, th := range r {
		remoteByChar[th.Character] = th
	}

	merged := make([]*model.ChatHistory, 0, len(l)+len(r))
	seen := make(map[string]struct{}, len(l))
	for _, lth := range l {
		seen[lth.Character] = struct{}{}
		if rth, ok := remoteByChar[lth.Character]; ok {
			merged = append(merged, mergeChatThread(lth, rth))
		} else {
			merged = append(merged, cloneThread(lth))
		}
	}
	for _, rth := range r {
		if _, ok := seen[rth.Character]; !ok {
			merged = append(merged, cloneThread(rth))
		}
	}
	return merged, nil
}

// mergeChatThread 同一人物线程：local 优先的消息并集（同ID先见者胜），
// 按 timestamp 升序稳定排序，updatedAt 取两侧较大值。
func mergeChatThread(local, remote *model.ChatHistory) *model.ChatHistory {
	out := *local
	out.Messages = make([]model.Message, 0, len(local.Messages)+len(remote.Messages))
	seen := make(map[string]struct{}, len(local.Messages))
	for _, m := range local.Messages {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out.Messages = append(out.Messages, m)
	}
	for _, m := range remote.Messages {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		out.Messages = append(out.Messages, m)
	}
	sort.SliceStable(out.Messages, func(i, j int) bool {
		return out.Messages[i].Timestamp < out.Messages[j].Timestamp
	})
	if remote.UpdatedAt > out.UpdatedAt {
		out.UpdatedAt = remote.UpdatedAt
	}
	return &out
}

func cloneThread(th *model.ChatHistory) *model.ChatHistory {
	out := *th
	out.Messages = append([]model.Message(nil), th.Messages...)
	return &out
}

// unionStrings 去重并集，保留先见顺序（a 在前）
func unionStrings(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, s := range a {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	for _, s := range b {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
