package rerank

import (
	"context"
	"strings"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pipeline"
)

// Diversity 打散同一卖家（或同一类目）的连续商品：窗口 Window 内尽量不出现相同的 key。
// 找不到可用商品时按原顺序取下一个，因此不会丢弃任何商品；结果只依赖输入顺序。
type Diversity struct {
	// Key 取值 "seller"（默认）或 "category"
	Key string

	// Window 默认 3
	Window int
}

func (n *Diversity) Name() string {
	return "rerank.diversity"
}

func (n *Diversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	window := n.Window
	if window <= 0 {
		window = 3
	}
	pending := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it != nil {
			pending = append(pending, it)
		}
	}
	if window == 1 || len(pending) < 2 {
		return pending, nil
	}

	out := make([]*core.Item, 0, len(pending))
	for len(pending) > 0 {
		pick := 0
		for i, it := range pending {
			if !n.recent(out, n.key(it), window-1) {
				pick = i
				break
			}
		}
		out = append(out, pending[pick])
		pending = append(pending[:pick], pending[pick+1:]...)
	}
	return out, nil
}

func (n *Diversity) key(it *core.Item) string {
	if n.Key == "category" {
		return strings.ToLower(it.Category)
	}
	return it.SellerID
}

// recent 判断 key 是否出现在 out 的最后 k 个商品中；空 key 不参与打散。
func (n *Diversity) recent(out []*core.Item, key string, k int) bool {
	if key == "" {
		return false
	}
	for i := len(out) - 1; i >= 0 && i >= len(out)-k; i-- {
		if n.key(out[i]) == key {
			return true
		}
	}
	return false
}
