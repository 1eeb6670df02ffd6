package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pipeline"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉。
type FilterNode struct {
	Filters []Filter
	Logger  *zerolog.Logger
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}
	log := logging.OrComponent(n.Logger, "filter")

	filters := make([]Filter, 0, len(n.Filters))
	for _, f := range n.Filters {
		b, ok := f.(Binder)
		if !ok {
			filters = append(filters, f)
			continue
		}
		bound, err := b.Bind(ctx, rctx)
		if err != nil {
			// 预加载失败时跳过该过滤器，不中断流程
			log.Warn().Err(err).Str("filter", f.Name()).Msg("filter bind failed")
			continue
		}
		if bound != nil {
			filters = append(filters, bound)
		}
	}

	out := make([]*core.Item, 0, len(items))
	dropped := 0
	for _, item := range items {
		if item == nil {
			continue
		}
		if n.drop(ctx, rctx, item, filters, log) {
			dropped++
			continue
		}
		out = append(out, item)
	}

	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Int("kept", len(out)).Msg("filtered")
	}
	return out, nil
}

func (n *FilterNode) drop(ctx context.Context, rctx *core.RecommendContext, item *core.Item, filters []Filter, log *zerolog.Logger) bool {
	for _, f := range filters {
		ok, err := f.ShouldFilter(ctx, rctx, item)
		if err != nil {
			// 过滤器错误时记录但不中断流程
			log.Debug().Err(err).Str("filter", f.Name()).Str("item_id", item.ID).Msg("filter error")
			continue
		}
		if ok {
			return true
		}
	}
	return false
}
