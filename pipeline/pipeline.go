package pipeline

import (
	"context"
	"fmt"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

// Pipeline 把排序逻辑拆成可组合的 Node 链：recall -> filter -> rank -> rerank。
type Pipeline struct {
	Name  string
	Nodes []Node
}

// Run 依次执行每个 Node；任一 Node 失败则整体失败，错误带上 Node 名称。
// 每个 Node 执行前检查 ctx，已取消时直接返回。
func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", node.Name(), err)
		}
		cur = next
	}
	return cur, nil
}

// Describe 返回节点名列表，用于日志。
func (p *Pipeline) Describe() []string {
	names := make([]string, 0, len(p.Nodes))
	for _, n := range p.Nodes {
		names = append(names, n.Name())
	}
	return names
}
