package filter

import (
	"context"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/dsl"
)

// ExprFilter 用 CEL 表达式过滤，表达式为 true 时移除商品。
//
//	item.price > 500.0 && !item.is_boosted
//	item.seller_id == rctx.user_id
type ExprFilter struct {
	prg *dsl.Program
}

// NewExprFilter 编译表达式。
func NewExprFilter(expr string) (*ExprFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{prg: prg}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

// Expr 返回表达式原文。
func (f *ExprFilter) Expr() string { return f.prg.String() }

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	in := dsl.Input{Item: item, Rctx: rctx}
	if rctx != nil {
		in.Filters = &rctx.Filters
	}
	return f.prg.Eval(in)
}
