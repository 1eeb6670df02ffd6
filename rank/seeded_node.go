package rank

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pipeline"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/utils"
)

// Strategy 决定 SeededNode 在伪随机序列上叠加什么信号。
type Strategy string

const (
	StrategyPersonalized Strategy = "personalized" // 用户画像亲和度
	StrategyPopularity   Strategy = "popularity"   // likes/views + 热度榜
)

// DefaultHotKey 是热度榜有序集合的 key。
const DefaultHotKey = "hot:listings"

// SeededNode 是 personalized / trending 模式的排序 Node。
//
// 每个商品的分数 = (1-Weight) × SeedUniform(seed, id) + Weight × signal，signal ∈ [0,1]；
// 分数相同时按 ID 升序。对固定的 seed 与商品集合，输出顺序是确定的，
// 因此逐页切片和一次取整段得到的序列一致。
type SeededNode struct {
	Strategy Strategy

	// Weight 是信号权重 [0,1]，0 表示纯洗牌
	Weight float64

	// Hot 可选，热度榜（ZSet: member=item id, score=热度）
	Hot    core.KeyValueStore
	HotKey string
	// HotTopN 读取热度榜的条数
	HotTopN int64

	Logger *zerolog.Logger
}

func (n *SeededNode) Name() string        { return "rank.seeded" }
func (n *SeededNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SeededNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	items = compactItems(items)
	if len(items) == 0 {
		return items, nil
	}
	var seed int32
	if rctx != nil {
		seed = rctx.Seed
	}

	signal := n.signalFunc(ctx, rctx, items)
	w := clamp01(n.Weight)
	for _, it := range items {
		it.Score = (1-w)*SeedUniform(seed, it.ID) + w*signal(it)
		it.PutLabel("rank_model", utils.L("seeded."+string(n.strategy()), "rank"))
	}
	sortItems(items)
	return items, nil
}

func (n *SeededNode) strategy() Strategy {
	if n.Strategy == "" {
		return StrategyPersonalized
	}
	return n.Strategy
}

func (n *SeededNode) signalFunc(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) func(*core.Item) float64 {
	switch n.strategy() {
	case StrategyPopularity:
		return n.popularity(ctx, items)
	default:
		var profile *core.UserProfile
		if rctx != nil {
			profile = rctx.User
		}
		return func(it *core.Item) float64 {
			return profile.Affinity(it.Category, it.Style, it.Brand)
		}
	}
}

// popularity 归一化到 [0,1]：log1p(3×likes + views) / max，热度榜命中的商品再取两者较大值。
func (n *SeededNode) popularity(ctx context.Context, items []*core.Item) func(*core.Item) float64 {
	raw := make(map[string]float64, len(items))
	maxRaw := 0.0
	for _, it := range items {
		v := math.Log1p(float64(3*it.Likes + it.Views))
		raw[it.ID] = v
		if v > maxRaw {
			maxRaw = v
		}
	}
	hot := n.hotRanks(ctx)
	return func(it *core.Item) float64 {
		p := 0.0
		if maxRaw > 0 {
			p = raw[it.ID] / maxRaw
		}
		if h, ok := hot[it.ID]; ok && h > p {
			p = h
		}
		return p
	}
}

// hotRanks 读取热度榜，按名次线性映射到 (0,1]。热度榜不可用时返回空，不影响排序。
func (n *SeededNode) hotRanks(ctx context.Context) map[string]float64 {
	if n.Hot == nil {
		return nil
	}
	key := n.HotKey
	if key == "" {
		key = DefaultHotKey
	}
	topN := n.HotTopN
	if topN <= 0 {
		topN = 100
	}
	ids, err := n.Hot.ZRange(ctx, key, 0, topN-1)
	if err != nil {
		if !core.IsStoreNotFound(err) {
			logging.With(ctx, *logging.OrComponent(n.Logger, "rank.seeded")).Debug().Err(err).Msg("hot ranking unavailable")
		}
		return nil
	}
	out := make(map[string]float64, len(ids))
	for i, id := range ids {
		out[id] = 1 - float64(i)/float64(len(ids))
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
