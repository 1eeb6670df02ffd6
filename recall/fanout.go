package recall

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pipeline"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，按 Sources 顺序合并并按 ID 去重。
// 合并顺序与各源返回的先后无关，同样的输入总是得到同样的输出。
type Fanout struct {
	Sources []Source

	// Required 中列出的召回源失败时整个请求失败，其余召回源失败只记日志
	Required []string

	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）

	Logger *zerolog.Logger
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}
	log := logging.OrComponent(n.Logger, "recall")

	results := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				if n.required(src.Name()) {
					return fmt.Errorf("recall source %s: %w", src.Name(), err)
				}
				// 非必需的召回源失败时返回空结果，不中断其他召回源
				log.Warn().Err(err).Str("source", src.Name()).Msg("optional recall source failed")
				return nil
			}

			// 记录召回来源 label，方便 explain / 观测
			for _, it := range items {
				if it == nil {
					continue
				}
				it.PutLabel("recall_source", utils.L(src.Name(), "recall"))
				it.PutLabel("recall_priority", utils.L(strconv.Itoa(i), "recall"))
			}
			results[i] = items
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return mergeFirst(results), nil
}

func (n *Fanout) required(name string) bool {
	return slices.Contains(n.Required, name)
}

// mergeFirst 按召回源顺序拼接，相同 ID 保留第一次出现的商品并合并 labels。
func mergeFirst(results [][]*core.Item) []*core.Item {
	var total int
	for _, r := range results {
		total += len(r)
	}
	seen := make(map[string]*core.Item, total)
	out := make([]*core.Item, 0, total)
	for _, items := range results {
		for _, it := range items {
			if it == nil {
				continue
			}
			if old, ok := seen[it.ID]; ok {
				for k, v := range it.Labels {
					old.PutLabel(k, v)
				}
				continue
			}
			seen[it.ID] = it
			out = append(out, it)
		}
	}
	return out
}
