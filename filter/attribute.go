package filter

import (
	"context"
	"strings"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/rank"
)

// AttributeFilter 按请求的筛选条件过滤商品：类目、性别、尺码、成色、价格区间、
// 查询词（至少命中一个词）以及卖家排除。字符串比较不区分大小写。
//
// SQLite catalog 已经在查询时下推了类目/性别/成色/价格，这里对任意召回源都再校验一遍。
type AttributeFilter struct{}

func NewAttributeFilter() *AttributeFilter { return &AttributeFilter{} }

func (f *AttributeFilter) Name() string { return "filter.attribute" }

func (f *AttributeFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if item == nil {
		return true, nil
	}
	if rctx == nil {
		return false, nil
	}
	return !Matches(rctx.Filters, item), nil
}

// Matches 判断商品是否满足筛选条件。
func Matches(f core.Filters, it *core.Item) bool {
	if f.Category != "" && !strings.EqualFold(strings.TrimSpace(it.Category), strings.TrimSpace(f.Category)) {
		return false
	}
	if f.Gender != "" && !genderMatches(f.Gender, it.Gender) {
		return false
	}
	if f.Condition != "" && !strings.EqualFold(it.Condition, f.Condition) {
		return false
	}
	if len(f.Sizes) > 0 && !sizeMatches(f.Sizes, it.Size) {
		return false
	}
	if f.MinPrice != nil && it.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && it.Price > *f.MaxPrice {
		return false
	}
	if f.ExcludeSeller != "" && it.SellerID == f.ExcludeSeller {
		return false
	}
	if terms := rank.Terms(f.Query); len(terms) > 0 && rank.Relevance(terms, it) == 0 {
		return false
	}
	return true
}

// genderMatches 中性款（unisex 或未标注）对任何性别筛选都可见。
func genderMatches(want, got string) bool {
	if got == "" || strings.EqualFold(got, "unisex") {
		return true
	}
	return strings.EqualFold(want, got)
}

func sizeMatches(sizes []string, size string) bool {
	size = strings.TrimSpace(size)
	for _, s := range sizes {
		if strings.EqualFold(strings.TrimSpace(s), size) {
			return true
		}
	}
	return false
}
