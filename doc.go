// Package topcare 是二手服饰平台的搭配推荐与 feed 排序工具包。
//
// 设计要点：
//   - 搭配：classify 把类目归到 slot，rank.CompatibilityScorer 优先远程打分、失败走规则兜底，
//     outfit.Assembler 围绕基准商品组装四个 slot 的候选
//   - Feed：catalog.Engine 按模式跑 Pipeline（Recall → Filter → Rank → ReRank），
//     同一 seed 下分页稳定；feed.Session 负责翻页、去重、hasMore 与行为上报
//   - Labels-first: labels 全链路透传，记录召回来源、打分来源与推广位置
package topcare

import (
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pipeline"
)

// 轻量 facade：便于直接 import 根包使用核心抽象。
type (
	Pipeline   = pipeline.Pipeline
	Node       = pipeline.Node
	Kind       = pipeline.Kind
	Item       = core.Item
	Page       = core.Page
	PageSource = core.PageSource
)

const (
	KindRecall = pipeline.KindRecall
	KindFilter = pipeline.KindFilter
	KindRank   = pipeline.KindRank
	KindReRank = pipeline.KindReRank
)
