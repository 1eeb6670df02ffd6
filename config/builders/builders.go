// Package builders 把 pipeline.Config 中声明的节点类型映射到具体的召回/过滤/排序/重排实现。
package builders

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/filter"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pipeline"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/conv"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/rank"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/recall"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/rerank"
)

//go:embed default_pipelines.yaml
var defaultPipelinesYAML []byte

// Deps 是节点构建时需要的运行期依赖。
type Deps struct {
	// Catalog 召回数据源，必填
	Catalog recall.Querier

	// Store 可选，拉黑列表与黑名单
	Store core.Store

	// Hot 可选，trending 的热度榜
	Hot core.KeyValueStore

	Logger *zerolog.Logger
}

// NewFactory 返回注册了全部内置节点的工厂。
func NewFactory(deps Deps) *pipeline.NodeFactory {
	b := &builder{deps: deps}
	f := pipeline.NewNodeFactory()
	f.Register("recall.fanout", b.fanout)
	f.Register("recall.catalog", b.catalogRecall)
	f.Register("filter", b.filter)
	f.Register("rank.seeded", b.seeded)
	f.Register("rank.search", func(map[string]any) (pipeline.Node, error) { return &rank.SearchNode{}, nil })
	f.Register("rank.latest", func(map[string]any) (pipeline.Node, error) { return &rank.LatestNode{}, nil })
	f.Register("rerank.boost", b.boost)
	f.Register("rerank.diversity", b.diversity)
	return f
}

// DefaultConfig 返回内置的四种模式的 Pipeline 配置。
func DefaultConfig() (*pipeline.Config, error) {
	return pipeline.ParseYAML(defaultPipelinesYAML)
}

// Modes 是每个排序模式都必须配置的 Pipeline 名称。
var Modes = []core.RankMode{core.ModePersonalized, core.ModeTrending, core.ModeSearch, core.ModeLatest}

// BuildPipelines 按模式构建 Pipeline；cfg 为 nil 时使用内置配置。缺少任一模式都会报错。
func BuildPipelines(cfg *pipeline.Config, deps Deps) (map[core.RankMode]*pipeline.Pipeline, error) {
	if cfg == nil {
		var err error
		if cfg, err = DefaultConfig(); err != nil {
			return nil, err
		}
	}
	if err := Validate(cfg, NewFactory(deps)); err != nil {
		return nil, err
	}
	built, err := cfg.BuildAll(NewFactory(deps))
	if err != nil {
		return nil, err
	}
	out := make(map[core.RankMode]*pipeline.Pipeline, len(built))
	for _, m := range Modes {
		p, ok := built[string(m)]
		if !ok {
			return nil, fmt.Errorf("pipeline for mode %q not configured", m)
		}
		out[m] = p
	}
	return out, nil
}

// Validate 校验所有节点类型均已注册；未支持的类型会在错误中列出已支持的类型。
func Validate(cfg *pipeline.Config, f *pipeline.NodeFactory) error {
	supported := f.Types()
	for name, spec := range cfg.Pipelines {
		for _, nc := range spec.Nodes {
			if !contains(supported, nc.Type) {
				return fmt.Errorf("pipeline %s: unsupported node type %q (supported: %s)", name, nc.Type, strings.Join(supported, ", "))
			}
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type builder struct {
	deps Deps
}

func (b *builder) source(cfg map[string]any) (recall.Source, error) {
	if b.deps.Catalog == nil {
		return nil, fmt.Errorf("catalog dependency is required")
	}
	switch t := conv.ConfigGet(cfg, "type", "catalog"); t {
	case "catalog":
		return recall.NewCatalogRecall(b.deps.Catalog, recall.ScopeAll), nil
	case "catalog.organic":
		return recall.NewCatalogRecall(b.deps.Catalog, recall.ScopeOrganic), nil
	case "catalog.boosted":
		return recall.NewCatalogRecall(b.deps.Catalog, recall.ScopeBoosted), nil
	default:
		return nil, fmt.Errorf("unknown source type: %s", t)
	}
}

func (b *builder) catalogRecall(cfg map[string]any) (pipeline.Node, error) {
	src, err := b.source(cfg)
	if err != nil {
		return nil, err
	}
	return src.(*recall.CatalogRecall), nil
}

func (b *builder) fanout(cfg map[string]any) (pipeline.Node, error) {
	specs := conv.SliceAnyToMaps(cfg["sources"])
	if len(specs) == 0 {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	n := &recall.Fanout{
		Timeout:       conv.ConfigGetMillis(cfg, "timeout_ms", 0),
		MaxConcurrent: conv.ConfigGetInt(cfg, "max_concurrent", 0),
		Logger:        b.deps.Logger,
	}
	for _, sc := range specs {
		src, err := b.source(sc)
		if err != nil {
			return nil, err
		}
		n.Sources = append(n.Sources, src)
		if conv.ConfigGet(sc, "required", false) {
			n.Required = append(n.Required, src.Name())
		}
	}
	return n, nil
}

func (b *builder) filter(cfg map[string]any) (pipeline.Node, error) {
	var adapter *filter.StoreAdapter
	if b.deps.Store != nil {
		adapter = filter.NewStoreAdapter(b.deps.Store)
	}
	n := &filter.FilterNode{Logger: b.deps.Logger}
	for _, fc := range conv.SliceAnyToMaps(cfg["filters"]) {
		switch t := conv.ConfigGet(fc, "type", ""); t {
		case "attribute":
			n.Filters = append(n.Filters, filter.NewAttributeFilter())
		case "user_block":
			if adapter == nil {
				continue
			}
			n.Filters = append(n.Filters, filter.NewUserBlockFilter(adapter, conv.ConfigGet(fc, "key_prefix", "")))
		case "blacklist":
			ids := conv.SliceAnyToString(fc["item_ids"])
			n.Filters = append(n.Filters, filter.NewBlacklistFilter(ids, adapter, conv.ConfigGet(fc, "key", "")))
		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(fc, "expr", ""))
			if err != nil {
				return nil, err
			}
			n.Filters = append(n.Filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", t)
		}
	}
	return n, nil
}

func (b *builder) seeded(cfg map[string]any) (pipeline.Node, error) {
	strategy := rank.Strategy(conv.ConfigGet(cfg, "strategy", string(rank.StrategyPersonalized)))
	switch strategy {
	case rank.StrategyPersonalized, rank.StrategyPopularity:
	default:
		return nil, fmt.Errorf("unknown seeded strategy: %s", strategy)
	}
	w := conv.ConfigGetFloat64(cfg, "weight", 0.5)
	if w < 0 || w > 1 {
		return nil, fmt.Errorf("weight must be in [0,1], got %v", w)
	}
	n := &rank.SeededNode{
		Strategy: strategy,
		Weight:   w,
		HotKey:   conv.ConfigGet(cfg, "hot_key", ""),
		HotTopN:  int64(conv.ConfigGetInt(cfg, "hot_top_n", 0)),
		Logger:   b.deps.Logger,
	}
	if strategy == rank.StrategyPopularity {
		n.Hot = b.deps.Hot
	}
	return n, nil
}

func (b *builder) boost(cfg map[string]any) (pipeline.Node, error) {
	every := conv.ConfigGetInt(cfg, "every", rerank.DefaultBoostEvery)
	if every < 1 {
		return nil, fmt.Errorf("every must be >= 1, got %d", every)
	}
	return &rerank.Boost{Every: every}, nil
}

func (b *builder) diversity(cfg map[string]any) (pipeline.Node, error) {
	key := conv.ConfigGet(cfg, "key", "seller")
	if key != "seller" && key != "category" {
		return nil, fmt.Errorf("unknown diversity key: %s", key)
	}
	return &rerank.Diversity{Key: key, Window: conv.ConfigGetInt(cfg, "window", 3)}, nil
}
