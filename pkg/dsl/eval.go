// Package dsl 是基于 CEL (Common Expression Language) 的布尔表达式解释器。
//
// 可用变量：
//   - item：商品属性 item.id / item.category / item.price / item.is_boosted / item.tags ...
//   - label：商品 Label 的 value，label.recall_source == "catalog"
//   - filters：筛选条件是否生效，filters.has_price && filters.has_size
//   - rctx：请求上下文 rctx.user_id / rctx.mode / rctx.seed
//
// 示例：
//   - `!(filters.has_price && filters.has_condition && filters.has_size)`
//   - `item.price > 0.0 && size(item.images) > 0`
//   - `"recall_source" in label && label.recall_source == "catalog.boosted"`
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

var (
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func env() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("filters", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译好的表达式，线程安全，可复用。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；表达式必须返回 bool。
func Compile(expr string) (*Program, error) {
	e, err := env()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := e.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("compile %q: expression must return bool, got %v", expr, out)
	}
	prg, err := e.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// MustCompile 编译失败时 panic，仅用于包级默认表达式。
func MustCompile(expr string) *Program {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Program) String() string { return p.expr }

// Eval 以给定输入执行表达式。
func (p *Program) Eval(input Input) (bool, error) {
	out, _, err := p.prg.Eval(input.vars())
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: expression must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

// Input 是表达式输入，字段均可为空。
type Input struct {
	Item    *core.Item
	Filters *core.Filters
	Rctx    *core.RecommendContext
}

func (in Input) vars() map[string]any {
	item := map[string]any{}
	labels := map[string]any{}
	if it := in.Item; it != nil {
		item = map[string]any{
			"id":           it.ID,
			"category":     it.Category,
			"title":        it.Title,
			"price":        it.Price,
			"tags":         it.Tags,
			"images":       it.Images,
			"color":        it.Color,
			"style":        it.Style,
			"brand":        it.Brand,
			"condition":    it.Condition,
			"gender":       it.Gender,
			"size":         it.Size,
			"seller_id":    it.SellerID,
			"is_boosted":   it.IsBoosted,
			"boost_weight": it.BoostWeight,
			"likes":        int64(it.Likes),
			"views":        int64(it.Views),
			"score":        it.Score,
		}
		for k, v := range it.Labels {
			labels[k] = v.Value
		}
	}

	var filters map[string]any
	switch {
	case in.Filters != nil:
		filters = in.Filters.Flags()
	case in.Rctx != nil:
		filters = in.Rctx.Filters.Flags()
	default:
		filters = core.Filters{}.Flags()
	}

	rctx := map[string]any{}
	if r := in.Rctx; r != nil {
		rctx = map[string]any{
			"user_id": r.UserID,
			"scene":   r.Scene,
			"mode":    string(r.Mode),
			"seed":    int64(r.Seed),
			"params":  r.Params,
		}
	}

	return map[string]any{
		"item":    item,
		"label":   labels,
		"filters": filters,
		"rctx":    rctx,
	}
}
