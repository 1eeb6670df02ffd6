package recall

import (
	"context"
	"fmt"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pipeline"
)

// Scope 决定 CatalogRecall 召回哪些商品。
type Scope string

const (
	ScopeAll     Scope = "all"
	ScopeOrganic Scope = "organic" // 非推广商品
	ScopeBoosted Scope = "boosted" // 只召回推广商品
)

// Querier 是 catalog 的只读查询接口，catalog.SQLiteRepository 实现了它。
type Querier interface {
	Query(ctx context.Context, filters core.Filters) ([]*core.Item, error)
}

// CatalogRecall 按请求的筛选条件从 catalog 召回商品。
// 返回的是副本，后续节点写入的 Score/Labels 不会影响 catalog。
type CatalogRecall struct {
	Catalog Querier
	Scope   Scope
}

func NewCatalogRecall(q Querier, scope Scope) *CatalogRecall {
	return &CatalogRecall{Catalog: q, Scope: scope}
}

func (r *CatalogRecall) Name() string {
	switch r.Scope {
	case ScopeOrganic, ScopeBoosted:
		return "recall.catalog." + string(r.Scope)
	default:
		return "recall.catalog"
	}
}

func (r *CatalogRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，可单独作为 pipeline 的召回节点。
func (r *CatalogRecall) Process(ctx context.Context, rctx *core.RecommendContext, _ []*core.Item) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *CatalogRecall) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, fmt.Errorf("catalog recall: no catalog configured")
	}
	var filters core.Filters
	if rctx != nil {
		filters = rctx.Filters
	}
	items, err := r.Catalog.Query(ctx, filters)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		switch r.Scope {
		case ScopeOrganic:
			if it.IsBoosted {
				continue
			}
		case ScopeBoosted:
			if !it.IsBoosted {
				continue
			}
		}
		out = append(out, it.Clone())
	}
	return out, nil
}
