package rank

import (
	"context"
	"sort"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pipeline"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/utils"
)

// LatestNode 是确定性的时间/价格排序：新品优先，其次价格升序，最后 ID 升序。
// 筛选条件超出个性化排序能力时走这条降级链路。
type LatestNode struct{}

func (n *LatestNode) Name() string        { return "rank.latest" }
func (n *LatestNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *LatestNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	items = compactItems(items)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return a.ID < b.ID
	})
	for i, it := range items {
		it.Score = float64(len(items) - i)
		it.PutLabel("rank_model", utils.L("latest", "rank"))
	}
	return items, nil
}
