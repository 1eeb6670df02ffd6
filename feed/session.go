// Package feed 实现带种子的分页推荐流会话：稳定分页、按 ID 去重、
// 根据 total 推导 hasMore、单飞加载以及一次性的曝光/点击上报。
package feed

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/feedback"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/metrics"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/rank"
)

var (
	// ErrLoadInFlight 已有加载在进行中
	ErrLoadInFlight = core.NewDomainError(core.ModuleFeed, core.ErrorCodeBusy, "feed: load already in flight")

	// ErrClosed 会话已关闭，迟到的结果被丢弃
	ErrClosed = core.NewDomainError(core.ModuleFeed, core.ErrorCodeClosed, "feed: session closed")
)

// defaultTelemetryTimeout 单次上报的超时
const defaultTelemetryTimeout = 2 * time.Second

// State 会话状态
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateExhausted
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateExhausted:
		return "exhausted"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options 会话配置，零值可用。
type Options struct {
	Mode     core.RankMode
	Filters  core.Filters
	PageSize int
	UserID   string

	// Sink 为空时丢弃上报
	Sink feedback.Sink
	// Tracker 为空时使用 NewViewTracker
	Tracker Tracker
	// Capability 为空时使用 rank.DefaultCapability
	Capability *rank.Capability
	// SeedFunc 为空时使用 NewSeed
	SeedFunc func() int32

	// Timeout 单页拉取超时，默认 core.DefaultRankTimeout
	Timeout          time.Duration
	TelemetryTimeout time.Duration

	Logger *zerolog.Logger
}

// Session 是一个视图独占的推荐流。所有方法并发安全；拉取在锁外进行。
type Session struct {
	source     core.PageSource
	sink       feedback.Sink
	tracker    Tracker
	capability *rank.Capability
	seedFn     func() int32
	pageSize   int
	userID     string
	timeout    time.Duration
	telTimeout time.Duration
	log        *zerolog.Logger

	mu       sync.Mutex
	mode     core.RankMode
	filters  core.Filters
	seed     int32
	page     int
	items    []*core.Item
	seen     map[string]struct{}
	fetched  int
	total    *int
	hasMore  bool
	degraded bool
	state    State
	inFlight bool
	gen      uint64

	telemetry sync.WaitGroup
}

// New 创建会话，初始状态为 empty，需要调用 FreshLoad 开始。
func New(source core.PageSource, opts Options) *Session {
	if opts.PageSize <= 0 {
		opts.PageSize = core.DefaultPageSize
	}
	if opts.PageSize > core.MaxPageSize {
		opts.PageSize = core.MaxPageSize
	}
	if opts.Mode == "" {
		opts.Mode = core.ModePersonalized
	}
	if opts.Sink == nil {
		opts.Sink = feedback.NopSink{}
	}
	if opts.Tracker == nil {
		opts.Tracker = NewViewTracker()
	}
	if opts.Capability == nil {
		opts.Capability = rank.DefaultCapability
	}
	if opts.SeedFunc == nil {
		opts.SeedFunc = NewSeed
	}
	if opts.Timeout <= 0 {
		opts.Timeout = core.DefaultRankTimeout
	}
	if opts.TelemetryTimeout <= 0 {
		opts.TelemetryTimeout = defaultTelemetryTimeout
	}
	return &Session{
		source:     source,
		sink:       opts.Sink,
		tracker:    opts.Tracker,
		capability: opts.Capability,
		seedFn:     opts.SeedFunc,
		pageSize:   opts.PageSize,
		userID:     opts.UserID,
		timeout:    opts.Timeout,
		telTimeout: opts.TelemetryTimeout,
		log:        logging.OrComponent(opts.Logger, "feed"),
		mode:       opts.Mode,
		filters:    opts.Filters,
		seen:       make(map[string]struct{}),
		state:      StateEmpty,
	}
}

// FreshLoad 生成新种子，从第 1 页重新加载并整体替换结果。
// 失败时会话状态（包括种子、模式和筛选条件）保持不变。
func (s *Session) FreshLoad(ctx context.Context, mode core.RankMode, filters core.Filters) error {
	return s.reload(ctx, mode, filters, false)
}

// Refresh 等价于使用当前模式与筛选条件的 FreshLoad，并清空已上报集合。
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	mode, filters := s.mode, s.filters
	s.mu.Unlock()
	return s.reload(ctx, mode, filters, true)
}

// FilterChange 筛选条件变化后种子与分页一起重置。
func (s *Session) FilterChange(ctx context.Context, filters core.Filters) error {
	s.mu.Lock()
	mode := s.mode
	s.mu.Unlock()
	return s.reload(ctx, mode, filters, false)
}

func (s *Session) reload(ctx context.Context, mode core.RankMode, filters core.Filters, refresh bool) error {
	if mode == "" {
		mode = core.ModePersonalized
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.inFlight {
		s.mu.Unlock()
		return ErrLoadInFlight
	}
	s.inFlight = true
	s.gen++
	gen := s.gen
	seed := s.seedFn()
	s.mu.Unlock()

	page, degraded, err := s.fetch(ctx, mode, filters, seed, 1)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		metrics.RecordFeedPage(string(mode), "discarded")
		return ErrClosed
	}
	s.inFlight = false
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(page.Items))
	s.mode = mode
	s.filters = filters
	s.seed = seed
	s.page = 1
	s.items = appendUnseen(nil, page.Items, seen)
	s.seen = seen
	s.fetched = len(page.Items)
	s.total = copyTotal(page.Total)
	s.degraded = degraded
	s.updateHasMore(page)
	if refresh {
		s.tracker.Reset()
	}
	return nil
}

// LoadMore 使用同一种子拉取下一页并追加去重后的结果。
// 尚未加载、已无更多或已有加载进行中时不做任何事，返回 (false, nil)。
func (s *Session) LoadMore(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return false, ErrClosed
	}
	if s.inFlight || s.state != StateLoaded || !s.hasMore {
		s.mu.Unlock()
		return false, nil
	}
	s.inFlight = true
	s.gen++
	gen := s.gen
	mode, filters, seed, next := s.mode, s.filters, s.seed, s.page+1
	s.mu.Unlock()

	page, degraded, err := s.fetch(ctx, mode, filters, seed, next)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		metrics.RecordFeedPage(string(mode), "discarded")
		return false, ErrClosed
	}
	s.inFlight = false
	if err != nil {
		return false, err
	}

	s.items = appendUnseen(s.items, page.Items, s.seen)
	s.page = next
	s.fetched += len(page.Items)
	if page.Total != nil {
		s.total = copyTotal(page.Total)
	}
	s.degraded = degraded
	s.updateHasMore(page)
	return true, nil
}

// Close 结束会话；进行中的加载结果到达后会被丢弃。
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return
	}
	s.state = StateClosed
	s.inFlight = false
	s.gen++
}

// fetch 在锁外执行一次分页请求。个性化请求超出排序能力时改用 latest 模式，
// 本会话的种子和页码不受影响。
func (s *Session) fetch(ctx context.Context, mode core.RankMode, filters core.Filters, seed int32, page int) (*core.Page, bool, error) {
	reqMode, degraded := s.capability.ResolveMode(mode, filters)
	if degraded {
		metrics.DegradedRequests.WithLabelValues("feed").Inc()
		s.log.Info().
			Str("mode", string(mode)).
			Int("page", page).
			Msg("filters exceed ranking capability, using latest ordering")
	}

	req := core.PageRequest{
		Mode:     reqMode,
		Seed:     seed,
		Page:     page,
		PageSize: s.pageSize,
		Filters:  filters,
		UserID:   s.userID,
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.source.FetchPage(ctx, req)
	if err == nil && result == nil {
		err = errors.New("source returned no page")
	}
	if err != nil {
		metrics.RecordFeedPage(string(reqMode), "error")
		logging.With(ctx, *s.log).Warn().Err(err).
			Str("mode", string(reqMode)).
			Int32("seed", seed).
			Int("page", page).
			Msg("feed page fetch failed")
		return nil, false, core.WrapDomainError(core.ModuleFeed, core.ErrorCodeUnavailable,
			fmt.Sprintf("fetch page %d", page), err)
	}
	metrics.RecordFeedPage(string(reqMode), "ok")
	return result, degraded || result.Degraded, nil
}

// updateHasMore 只有整页返回且累计数量小于已知 total 时才认为还有更多；
// 服务端的 hasMore 仅作参考。调用方需持有锁。
func (s *Session) updateHasMore(page *core.Page) {
	more := len(page.Items) == s.pageSize && (s.total == nil || s.fetched < *s.total)
	if page.HasMore != nil && *page.HasMore != more {
		s.log.Debug().
			Bool("hint", *page.HasMore).
			Bool("derived", more).
			Int("fetched", s.fetched).
			Msg("server hasMore hint disagrees")
	}
	s.hasMore = more
	if more {
		s.state = StateLoaded
	} else {
		s.state = StateExhausted
	}
}

// ReportView 上报曝光，同一商品在一个会话内（直到 Refresh）只上报一次。
// 上报在后台进行，失败只记日志。
func (s *Session) ReportView(ctx context.Context, itemID string) {
	if itemID == "" || s.closed() || s.tracker.MarkViewed(itemID) {
		return
	}
	s.send(ctx, feedback.EventView, itemID)
}

// ReportClick 上报点击，规则同 ReportView。
func (s *Session) ReportClick(ctx context.Context, itemID string) {
	if itemID == "" || s.closed() || s.tracker.MarkClicked(itemID) {
		return
	}
	s.send(ctx, feedback.EventClick, itemID)
}

func (s *Session) send(ctx context.Context, t feedback.EventType, itemID string) {
	ctx = context.WithoutCancel(ctx)
	s.telemetry.Add(1)
	go func() {
		defer s.telemetry.Done()
		ctx, cancel := context.WithTimeout(ctx, s.telTimeout)
		defer cancel()
		err := feedback.Record(ctx, s.sink, feedback.Event{UserID: s.userID, ItemID: itemID, Type: t})
		metrics.RecordTelemetry(string(t), err)
		if err != nil {
			s.log.Warn().Err(err).
				Str("event", string(t)).
				Str("item_id", itemID).
				Msg("telemetry dropped")
		}
	}()
}

// WaitTelemetry 等待已发出的上报完成。
func (s *Session) WaitTelemetry() {
	s.telemetry.Wait()
}

func (s *Session) closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateClosed
}

// Items 返回当前结果列表的副本。
func (s *Session) Items() []*core.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.items)
}

func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasMore
}

func (s *Session) Seed() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seed
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Degraded 最近一页是否走了降级排序。
func (s *Session) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

func (s *Session) Mode() core.RankMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) Filters() core.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// Page 当前已加载到的页码，未加载时为 0。
func (s *Session) Page() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page
}

// Total 最近一次已知的 total，未知时 ok 为 false。
func (s *Session) Total() (total int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.total == nil {
		return 0, false
	}
	return *s.total, true
}

// InFlight 是否有加载在进行中。
func (s *Session) InFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// appendUnseen 追加 seen 中没有的商品，同一页内的重复也会被过滤。
func appendUnseen(dst, src []*core.Item, seen map[string]struct{}) []*core.Item {
	for _, it := range src {
		if it == nil {
			continue
		}
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		dst = append(dst, it)
	}
	return dst
}

func copyTotal(t *int) *int {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
