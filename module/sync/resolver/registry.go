package resolver

import (
	"reflect"

	"RZProject/module/sync/model"
	"RZProject/tools/errs"
)

// Resolver 合并同一数据类型的本地/服务端两份数据，返回合并结果。
// 必须是纯函数：不修改入参，任何一侧可为 nil。
type Resolver interface {
	Merge(local, remote any) (any, error)
}

// MergeFunc 函数式 Resolver
type MergeFunc func(local, remote any) (any, error)

func (f MergeFunc) Merge(local, remote any) (any, error) { return f(local, remote) }

// Registry 数据类型名 -> Resolver 的显式注册表。
// 不用包级单例：由调用方构造并注入 Orchestrator，便于替换测试替身。
type Registry struct {
	resolvers map[string]Resolver
	fallback  Resolver
}

// NewRegistry 构造并注册默认的四类 Resolver。
// 兜底策略：记录级 updatedAt 新者整体胜出。
func NewRegistry() *Registry {
	r := &Registry{
		resolvers: make(map[string]Resolver),
		fallback:  MergeFunc(mergeByTimestamp),
	}
	r.Register(model.DataTypeUserInfo, MergeFunc(mergeByTimestamp))
	r.Register(model.DataTypeAIConfig, MergeFunc(mergeByTimestamp))
	r.Register(model.DataTypeLearningProgress, MergeFunc(mergeLearningProgress))
	r.Register(model.DataTypeChatHistory, MergeFunc(mergeChatHistory))
	return r
}

// Register 覆盖注册某数据类型的 Resolver
func (r *Registry) Register(dataType string, res Resolver) {
	r.resolvers[dataType] = res
}

// Resolve 合并一个数据类型。单侧缺失直接返回另一侧；
// 未注册类型走兜底策略。
func (r *Registry) Resolve(dataType string, local, remote any) (any, error) {
	if isNil(local) {
		return remote, nil
	}
	if isNil(remote) {
		return local, nil
	}
	res, ok := r.resolvers[dataType]
	if !ok {
		res = r.fallback
	}
	merged, err := res.Merge(local, remote)
	if err != nil {
		return nil, errs.WrapMsg(err, "resolve conflict", "dataType", dataType)
	}
	return merged, nil
}

// isNil 兼容接口里包着 nil 指针/nil 切片的情况
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
