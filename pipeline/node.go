package pipeline

import (
	"context"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

// Kind 用于标记 Node 类型，方便按阶段打点与编排。
type Kind string

const (
	KindRecall Kind = "recall" // 召回：从 catalog 拉出满足检索条件的候选
	KindFilter Kind = "filter" // 过滤：剔除不符合约束的候选
	KindRank   Kind = "rank"   // 排序：seeded / search / latest
	KindReRank Kind = "rerank" // 重排：推广商品混排
)

// Node 是 Pipeline 的最小可扩展单元，统一采用“输入 items -> 输出 items”的形态。
type Node interface {
	Name() string
	Kind() Kind

	Process(
		ctx context.Context,
		rctx *core.RecommendContext,
		items []*core.Item,
	) ([]*core.Item, error)
}

// NodeFunc 把函数包装成 Node，测试和一次性节点使用。
type NodeFunc struct {
	NodeName string
	NodeKind Kind
	Fn       func(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error)
}

func (f NodeFunc) Name() string { return f.NodeName }
func (f NodeFunc) Kind() Kind   { return f.NodeKind }

func (f NodeFunc) Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return f.Fn(ctx, rctx, items)
}
