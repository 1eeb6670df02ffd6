// Package rerank 在排序之后调整序列：推广商品混排与多样性打散。
package rerank

import (
	"context"
	"math"
	"sort"
	"strconv"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pipeline"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/utils"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/rank"
)

// DefaultBoostEvery 默认每 5 个位置放一个推广商品
const DefaultBoostEvery = 5

// Boost 把推广商品混排进自然序列：第 Every、2*Every... 个位置放推广商品，
// 推广商品之间按加权随机键 u^(1/w) 降序（u 由 seed 与商品 ID 决定），权重越大越靠前的概率越高。
// 自然商品用完后剩余的推广商品按同样顺序追加。输出只依赖 seed 与输入，同一会话翻页稳定。
type Boost struct {
	Every int
}

func (n *Boost) Name() string        { return "rerank.boost" }
func (n *Boost) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Boost) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	every := n.Every
	if every <= 0 {
		every = DefaultBoostEvery
	}
	var seed int32
	if rctx != nil {
		seed = rctx.Seed
	}

	organic := make([]*core.Item, 0, len(items))
	var boosted []*core.Item
	for _, it := range items {
		if it == nil {
			continue
		}
		if it.IsBoosted {
			boosted = append(boosted, it)
		} else {
			organic = append(organic, it)
		}
	}
	if len(boosted) == 0 {
		return organic, nil
	}

	keys := make(map[string]float64, len(boosted))
	for _, it := range boosted {
		keys[it.ID] = BoostKey(seed, it)
	}
	sort.SliceStable(boosted, func(i, j int) bool {
		ki, kj := keys[boosted[i].ID], keys[boosted[j].ID]
		if ki != kj {
			return ki > kj
		}
		return boosted[i].ID < boosted[j].ID
	})

	out := make([]*core.Item, 0, len(organic)+len(boosted))
	oi, bi := 0, 0
	for oi < len(organic) || bi < len(boosted) {
		slot := (len(out)+1)%every == 0
		switch {
		case bi < len(boosted) && (slot || oi >= len(organic)):
			it := boosted[bi]
			it.PutLabel("boost_rank", utils.L(strconv.Itoa(bi+1), "rerank"))
			out = append(out, it)
			bi++
		default:
			out = append(out, organic[oi])
			oi++
		}
	}
	return out, nil
}

// BoostKey 是 Efraimidis-Spirakis 加权抽样键 u^(1/w)。权重 <= 0 的商品键为 0，排在最后。
func BoostKey(seed int32, it *core.Item) float64 {
	w := it.BoostWeight
	if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return 0
	}
	u := rank.SeedUniform(seed, it.ID)
	return math.Pow(u, 1/w)
}
