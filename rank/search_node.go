package rank

import (
	"context"
	"strings"
	"unicode"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pipeline"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/utils"
)

// 字段权重
const (
	searchTitleWeight    = 3.0
	searchTagWeight      = 2.0
	searchBrandWeight    = 2.0
	searchCategoryWeight = 1.0
	searchDescWeight     = 0.5
)

// SearchNode 是 search 模式的排序 Node：按查询词在标题/标签/品牌/类目/描述中的命中加权打分，
// 相关度相同的商品用 seed 打散，保证同一会话翻页稳定。
//
// 查询为空时退化为纯 seed 洗牌。
type SearchNode struct{}

func (n *SearchNode) Name() string        { return "rank.search" }
func (n *SearchNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SearchNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	items = compactItems(items)
	var (
		seed  int32
		terms []string
	)
	if rctx != nil {
		seed = rctx.Seed
		terms = Terms(rctx.Filters.Query)
	}
	for _, it := range items {
		rel := Relevance(terms, it)
		// 相关度是 0.5 的整数倍，seed 噪声 < 0.5，不会越过相关度档位
		it.Score = rel + 0.49*SeedUniform(seed, it.ID)
		it.PutLabel("rank_model", utils.L("search", "rank"))
		if rel > 0 {
			it.PutLabel("relevance", utils.FloatLabel(rel, "rank"))
		}
	}
	sortItems(items)
	return items, nil
}

// Terms 把查询切成小写词，去重保序。
func Terms(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]struct{}, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}

// Relevance 计算查询词命中的加权和。
func Relevance(terms []string, it *core.Item) float64 {
	if len(terms) == 0 {
		return 0
	}
	title := strings.ToLower(it.Title)
	brand := strings.ToLower(it.Brand)
	category := strings.ToLower(it.Category)
	desc := strings.ToLower(it.Description)

	score := 0.0
	for _, t := range terms {
		if strings.Contains(title, t) {
			score += searchTitleWeight
		}
		for _, tag := range it.Tags {
			if strings.Contains(strings.ToLower(tag), t) {
				score += searchTagWeight
				break
			}
		}
		if brand != "" && strings.Contains(brand, t) {
			score += searchBrandWeight
		}
		if strings.Contains(category, t) {
			score += searchCategoryWeight
		}
		if strings.Contains(desc, t) {
			score += searchDescWeight
		}
	}
	return score
}
