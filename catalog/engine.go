package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pipeline"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/metrics"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/rank"
)

// Engine 是进程内的排序/检索源，实现 core.PageSource。
//
// 按模式跑完整条 Pipeline（召回 -> 过滤 -> 排序 -> 重排），再按 offset 切出一页。
// 排序只依赖 seed 与候选集合，所以同一 seed 下逐页取与一次取整段得到相同的序列。
// 配置了 Orders 时，整段序列按 (mode, seed, filters, user) 缓存，后续翻页直接切片。
type Engine struct {
	pipelines  map[core.RankMode]*pipeline.Pipeline
	capability *rank.Capability
	profiles   *ProfileStore
	timeout    time.Duration
	orders     core.Store
	orderTTL   time.Duration
	group      singleflight.Group
	log        *zerolog.Logger
}

// EngineOptions 可选项。
type EngineOptions struct {
	// Capability 为空时使用 rank.DefaultCapability
	Capability *rank.Capability

	// Profiles 可选，个性化模式读取用户画像
	Profiles *ProfileStore

	// Timeout 单次排序超时，默认 core.DefaultRankTimeout
	Timeout time.Duration

	// Orders 可选，缓存排好序的整段序列；为空时每页都重新排序
	Orders core.Store

	// OrderTTL 序列缓存有效期，默认 DefaultOrderTTL
	OrderTTL time.Duration

	Logger *zerolog.Logger
}

const (
	// DefaultOrderTTL 是排序序列缓存的默认有效期
	DefaultOrderTTL = 2 * time.Minute
	orderKeyPrefix  = "rank_order:"
)

// NewEngine 创建 Engine；pipelines 必须至少包含 latest（降级路径）。
func NewEngine(pipelines map[core.RankMode]*pipeline.Pipeline, opts EngineOptions) (*Engine, error) {
	if _, ok := pipelines[core.ModeLatest]; !ok {
		return nil, fmt.Errorf("engine: latest pipeline is required")
	}
	if opts.Capability == nil {
		opts.Capability = rank.DefaultCapability
	}
	if opts.Timeout <= 0 {
		opts.Timeout = core.DefaultRankTimeout
	}
	if opts.OrderTTL <= 0 {
		opts.OrderTTL = DefaultOrderTTL
	}
	return &Engine{
		pipelines:  pipelines,
		capability: opts.Capability,
		profiles:   opts.Profiles,
		timeout:    opts.Timeout,
		orders:     opts.Orders,
		orderTTL:   opts.OrderTTL,
		log:        logging.OrComponent(opts.Logger, "catalog.engine"),
	}, nil
}

// FetchPage 实现 core.PageSource。
// 个性化请求的筛选条件超出排序能力时改用 latest，返回的 Page.Degraded 为 true。
func (e *Engine) FetchPage(ctx context.Context, req core.PageRequest) (*core.Page, error) {
	if req.Mode == "" {
		req.Mode = core.ModePersonalized
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	mode, degraded := e.capability.ResolveMode(req.Mode, req.Filters)
	if degraded {
		metrics.DegradedRequests.WithLabelValues("catalog").Inc()
		logging.With(ctx, *e.log).Info().
			Str("requested_mode", string(req.Mode)).
			Msg("filters exceed ranking capability, serving latest ordering")
	}
	p, ok := e.pipelines[mode]
	if !ok {
		return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotSupported, fmt.Sprintf("rank mode %q not supported", mode))
	}

	items, err := e.ordered(ctx, p, mode, req)
	if err != nil {
		return nil, err
	}

	total := len(items)
	off := min(req.Offset(), total)
	end := min(off+req.PageSize, total)
	hasMore := end < total

	return &core.Page{
		Items:    core.CloneItems(items[off:end]),
		Total:    &total,
		HasMore:  &hasMore,
		Seed:     req.Seed,
		Mode:     mode,
		Degraded: degraded,
	}, nil
}

// ordered 返回整段排好序的序列，优先读缓存；并发的相同请求只排一次。
func (e *Engine) ordered(ctx context.Context, p *pipeline.Pipeline, mode core.RankMode, req core.PageRequest) ([]*core.Item, error) {
	if e.orders == nil {
		return e.rank(ctx, p, mode, req)
	}
	key := orderKey(mode, req)
	data, err := e.orders.Get(ctx, key)
	switch {
	case err == nil:
		var items []*core.Item
		if err := json.Unmarshal(data, &items); err == nil {
			metrics.RankOrderCache.WithLabelValues("hit").Inc()
			return items, nil
		}
		e.log.Warn().Str("key", key).Msg("decode cached order")
	case !core.IsStoreNotFound(err):
		e.log.Warn().Err(err).Str("key", key).Msg("read cached order")
	}
	metrics.RankOrderCache.WithLabelValues("miss").Inc()

	v, err, _ := e.group.Do(key, func() (any, error) {
		items, err := e.rank(ctx, p, mode, req)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(items); err == nil {
			if err := e.orders.Set(ctx, key, data, int(e.orderTTL.Seconds())); err != nil {
				e.log.Warn().Err(err).Str("key", key).Msg("write cached order")
			}
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*core.Item), nil
}

func (e *Engine) rank(ctx context.Context, p *pipeline.Pipeline, mode core.RankMode, req core.PageRequest) ([]*core.Item, error) {
	rctx := core.NewRecommendContext(req)
	rctx.Mode = mode
	if mode == core.ModePersonalized && req.UserID != "" {
		prof, err := e.profiles.Get(ctx, req.UserID)
		if err != nil {
			// 画像不可用时按冷启动处理
			e.log.Warn().Err(err).Str("user_id", req.UserID).Msg("load user profile")
		}
		rctx.User = prof
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	items, err := p.Run(ctx, rctx, nil)
	metrics.RankDuration.WithLabelValues(string(mode)).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeUnavailable, fmt.Sprintf("rank %s", mode), err)
	}
	return items, nil
}

// orderKey 不含分页参数，同一序列的各页共用一个 key。
func orderKey(mode core.RankMode, req core.PageRequest) string {
	req.Mode = mode
	v := req.Values()
	v.Del("page")
	v.Del("pageSize")
	return orderKeyPrefix + v.Encode()
}

// Modes 返回已配置的排序模式。
func (e *Engine) Modes() []core.RankMode {
	out := make([]core.RankMode, 0, len(e.pipelines))
	for _, m := range []core.RankMode{core.ModePersonalized, core.ModeTrending, core.ModeSearch, core.ModeLatest} {
		if _, ok := e.pipelines[m]; ok {
			out = append(out, m)
		}
	}
	return out
}
