// Package filter 在召回与排序之间剔除不该出现的商品：筛选条件、卖家排除、拉黑与黑名单。
package filter

import (
	"context"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

// Filter 是过滤器的抽象接口，用于判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Binder 是需要按请求预加载数据的过滤器（例如从 Store 读取拉黑列表）。
// FilterNode 每次请求调用一次 Bind，用返回的请求级 Filter 过滤所有商品。
type Binder interface {
	Bind(ctx context.Context, rctx *core.RecommendContext) (Filter, error)
}

// idSet 是按 ID 过滤的请求级过滤器。
type idSet struct {
	name string
	ids  map[string]struct{}
}

func newIDSet(name string, lists ...[]string) *idSet {
	s := &idSet{name: name, ids: make(map[string]struct{})}
	for _, l := range lists {
		for _, id := range l {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

func (s *idSet) Name() string { return s.name }

func (s *idSet) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	_, ok := s.ids[item.ID]
	return ok, nil
}
