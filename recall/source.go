// Package recall 负责候选召回：从 catalog 或远程服务取回一批商品，交给后续的过滤与排序。
package recall

import (
	"context"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pipeline"
)

// Source 表示一个可复用的召回源（自然流量/推广/远程...）。
// 可以理解为“可并发 fan-out 的策略单元”。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// Static 返回固定的一组商品，测试和本地运行使用。
type Static struct {
	SourceName string
	Items      []*core.Item
}

func (s *Static) Name() string {
	if s.SourceName == "" {
		return "recall.static"
	}
	return s.SourceName
}

func (s *Static) Kind() pipeline.Kind { return pipeline.KindRecall }

func (s *Static) Process(ctx context.Context, rctx *core.RecommendContext, _ []*core.Item) ([]*core.Item, error) {
	return s.Recall(ctx, rctx)
}

func (s *Static) Recall(context.Context, *core.RecommendContext) ([]*core.Item, error) {
	return core.CloneItems(s.Items), nil
}
