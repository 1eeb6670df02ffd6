package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// RankMode 是排序模式。
type RankMode string

const (
	ModePersonalized RankMode = "personalized"
	ModeTrending     RankMode = "trending"
	ModeSearch       RankMode = "search"

	// ModeLatest 是确定性的时间/价格排序，用于筛选条件超出个性化排序能力时的降级。
	ModeLatest RankMode = "latest"
)

// ParseRankMode 解析排序模式，空串默认为 personalized。
func ParseRankMode(s string) (RankMode, error) {
	switch m := RankMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModePersonalized, nil
	case ModePersonalized, ModeTrending, ModeSearch, ModeLatest:
		return m, nil
	default:
		return "", NewDomainError(ModuleCatalog, ErrorCodeInvalidInput, fmt.Sprintf("unknown rank mode %q", s))
	}
}

// Filters 是检索阶段的筛选条件，值类型，可直接比较是否变化。
type Filters struct {
	Category  string   `json:"category,omitempty"`
	Gender    string   `json:"gender,omitempty"`
	Sizes     []string `json:"sizes,omitempty"`
	Condition string   `json:"condition,omitempty"`
	MinPrice  *float64 `json:"minPrice,omitempty"`
	MaxPrice  *float64 `json:"maxPrice,omitempty"`
	Query     string   `json:"query,omitempty"`

	// ExcludeSeller 排除某个卖家自己的商品（例如浏览者本人）
	ExcludeSeller string `json:"excludeSeller,omitempty"`
}

// HasPriceRange 是否设置了价格区间（任一端即可）。
func (f Filters) HasPriceRange() bool { return f.MinPrice != nil || f.MaxPrice != nil }

// Flags 返回各筛选维度是否生效，供排序能力规则（CEL）使用。
func (f Filters) Flags() map[string]any {
	return map[string]any{
		"has_category":  f.Category != "",
		"has_gender":    f.Gender != "",
		"has_size":      len(f.Sizes) > 0,
		"has_condition": f.Condition != "",
		"has_price":     f.HasPriceRange(),
		"has_query":     strings.TrimSpace(f.Query) != "",
		"size_count":    int64(len(f.Sizes)),
	}
}

// Equal 判断两组筛选条件是否等价。
func (f Filters) Equal(o Filters) bool {
	return f.Category == o.Category &&
		f.Gender == o.Gender &&
		slices.Equal(f.Sizes, o.Sizes) &&
		f.Condition == o.Condition &&
		floatPtrEqual(f.MinPrice, o.MinPrice) &&
		floatPtrEqual(f.MaxPrice, o.MaxPrice) &&
		f.Query == o.Query &&
		f.ExcludeSeller == o.ExcludeSeller
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// PageRequest 是对排序/检索源的一次分页请求。
// 同一个会话内 Seed 原样回传，保证多页之间的排序一致。
type PageRequest struct {
	Mode     RankMode
	Seed     int32
	Page     int // 1-based
	PageSize int
	Filters  Filters
	UserID   string
}

// Offset 返回本页起始下标。
func (r PageRequest) Offset() int {
	if r.Page < 1 {
		return 0
	}
	return (r.Page - 1) * r.PageSize
}

// Validate 校验分页参数。
func (r PageRequest) Validate() error {
	if r.Page < 1 {
		return NewDomainError(ModuleCatalog, ErrorCodeInvalidInput, fmt.Sprintf("page must be >= 1, got %d", r.Page))
	}
	if r.PageSize < 1 || r.PageSize > MaxPageSize {
		return NewDomainError(ModuleCatalog, ErrorCodeInvalidInput, fmt.Sprintf("page size must be in [1, %d], got %d", MaxPageSize, r.PageSize))
	}
	return nil
}

// Page 是一页结果。Total 与 HasMore 都是可选的；HasMore 只是提示，
// 调用方应当自己根据 Total 推导是否还有更多。
type Page struct {
	Items    []*Item  `json:"items"`
	Total    *int     `json:"total,omitempty"`
	HasMore  *bool    `json:"hasMore,omitempty"`
	Seed     int32    `json:"seed"`
	Mode     RankMode `json:"mode,omitempty"` // 实际使用的排序模式（降级时为 latest）
	Degraded bool     `json:"degraded,omitempty"`
}

// PageSource 是分页检索源：进程内的 catalog.Engine 或远程排序服务。
type PageSource interface {
	FetchPage(ctx context.Context, req PageRequest) (*Page, error)
}
