package model

import (
	"context"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

// CompatModel 是搭配打分的最小抽象：给定基准商品与同一 slot 的候选，返回每个候选的分数。
// 具体实现可以是远程 AI 打分服务（RPCCompatModel）或本地规则（RuleModel）。
//
// 返回的 Scores 中缺失的 ID 表示“没有可用分数”，调用方不能把它当 0 分。
type CompatModel interface {
	Name() string
	Score(ctx context.Context, base *core.Item, candidates []*core.Item) (core.Scores, error)
}

// clampScore 把分数限制在 [0,100]。
func clampScore(v float64) float64 {
	switch {
	case v != v: // NaN
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
