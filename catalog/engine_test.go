package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/config/builders"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/feed"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/feedback"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/store"
)

// seedCatalog 写入 n 个商品，每第 7 个为推广商品。
func seedCatalog(t *testing.T, n int) *SQLiteRepository {
	t.Helper()
	repo := newTestRepo(t)
	cats := []string{"Top", "Bottom", "Shoes", "Accessory"}
	items := make([]*core.Item, 0, n)
	for i := 0; i < n; i++ {
		it := &core.Item{
			ID:        fmt.Sprintf("item-%03d", i),
			Category:  cats[i%len(cats)],
			Title:     fmt.Sprintf("listing %d", i),
			Price:     float64(10 + i),
			Condition: []string{"New", "Good"}[i%2],
			Size:      []string{"S", "M", "L"}[i%3],
			SellerID:  fmt.Sprintf("seller-%d", i%5),
			Likes:     i * 3 % 17,
			CreatedAt: time.Unix(int64(1700000000+i*60), 0),
		}
		if i%7 == 3 {
			it.IsBoosted = true
			it.BoostWeight = 1 + float64(i%3)
		}
		items = append(items, it)
	}
	if _, err := repo.Upsert(context.Background(), items); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return repo
}

func newTestEngine(t *testing.T, repo *SQLiteRepository) *Engine {
	t.Helper()
	mem := store.NewMemoryStore()
	t.Cleanup(func() { mem.Close() })
	ps, err := builders.BuildPipelines(nil, builders.Deps{Catalog: repo, Store: mem, Hot: mem})
	if err != nil {
		t.Fatalf("BuildPipelines: %v", err)
	}
	e, err := NewEngine(ps, EngineOptions{Profiles: NewProfileStore(mem)})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestEnginePagingMatchesSingleFetch(t *testing.T) {
	repo := seedCatalog(t, 47)
	e := newTestEngine(t, repo)
	ctx := context.Background()

	for _, mode := range builders.Modes {
		t.Run(string(mode), func(t *testing.T) {
			all, err := e.FetchPage(ctx, core.PageRequest{Mode: mode, Seed: 42, Page: 1, PageSize: 47})
			if err != nil {
				t.Fatalf("single fetch: %v", err)
			}
			if len(all.Items) != 47 {
				t.Fatalf("single fetch returned %d items", len(all.Items))
			}

			var paged []string
			for page := 1; page <= 3; page++ {
				p, err := e.FetchPage(ctx, core.PageRequest{Mode: mode, Seed: 42, Page: page, PageSize: 20})
				if err != nil {
					t.Fatalf("page %d: %v", page, err)
				}
				if p.Total == nil || *p.Total != 47 {
					t.Fatalf("page %d: total = %v", page, p.Total)
				}
				wantMore := page < 3
				if p.HasMore == nil || *p.HasMore != wantMore {
					t.Errorf("page %d: hasMore = %v, want %v", page, p.HasMore, wantMore)
				}
				paged = append(paged, itemIDs(p.Items)...)
			}
			if fmt.Sprint(paged) != fmt.Sprint(itemIDs(all.Items)) {
				t.Errorf("paged order differs from single fetch\npaged:  %v\nsingle: %v", paged, itemIDs(all.Items))
			}

			seen := make(map[string]bool)
			for _, id := range paged {
				if seen[id] {
					t.Fatalf("duplicate %s", id)
				}
				seen[id] = true
			}
		})
	}
}

func TestEngineSeedChangesOrder(t *testing.T) {
	e := newTestEngine(t, seedCatalog(t, 47))
	ctx := context.Background()
	a, err := e.FetchPage(ctx, core.PageRequest{Mode: core.ModePersonalized, Seed: 1, Page: 1, PageSize: 47})
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.FetchPage(ctx, core.PageRequest{Mode: core.ModePersonalized, Seed: 2, Page: 1, PageSize: 47})
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(itemIDs(a.Items)) == fmt.Sprint(itemIDs(b.Items)) {
		t.Error("different seeds produced identical order")
	}
}

func TestEngineBoostedInline(t *testing.T) {
	e := newTestEngine(t, seedCatalog(t, 47))
	p, err := e.FetchPage(context.Background(), core.PageRequest{Mode: core.ModeLatest, Seed: 9, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatal(err)
	}
	for i, it := range p.Items {
		if (i+1)%5 == 0 && !it.IsBoosted {
			t.Errorf("position %d should hold a boosted listing, got %s", i+1, it.ID)
		}
	}
}

func TestEngineDegradesToLatest(t *testing.T) {
	e := newTestEngine(t, seedCatalog(t, 47))
	f := core.Filters{MinPrice: price(0), Condition: "Good", Sizes: []string{"M"}}
	p, err := e.FetchPage(context.Background(), core.PageRequest{Mode: core.ModePersonalized, Seed: 3, Page: 1, PageSize: 20, Filters: f})
	if err != nil {
		t.Fatal(err)
	}
	if !p.Degraded || p.Mode != core.ModeLatest {
		t.Fatalf("degraded = %v, mode = %s", p.Degraded, p.Mode)
	}
	for _, it := range p.Items {
		if it.Condition != "Good" || it.Size != "M" {
			t.Errorf("%s violates filters: %s/%s", it.ID, it.Condition, it.Size)
		}
	}
}

func TestEngineRejectsInvalidRequest(t *testing.T) {
	e := newTestEngine(t, seedCatalog(t, 5))
	_, err := e.FetchPage(context.Background(), core.PageRequest{Mode: core.ModeLatest, Page: 0, PageSize: 20})
	if !core.IsInvalidInput(err) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestEnginePastEnd(t *testing.T) {
	e := newTestEngine(t, seedCatalog(t, 5))
	p, err := e.FetchPage(context.Background(), core.PageRequest{Mode: core.ModeLatest, Page: 3, PageSize: 20})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Items) != 0 || *p.Total != 5 || *p.HasMore {
		t.Errorf("page past end = %d items, total %d, hasMore %v", len(p.Items), *p.Total, *p.HasMore)
	}
}

func TestEngineRequiresLatest(t *testing.T) {
	if _, err := NewEngine(nil, EngineOptions{}); err == nil {
		t.Error("expected error without latest pipeline")
	}
}

// 端到端：feed.Session 逐页加载与一次性拉取结果一致，推广商品按位混排。
func TestSessionOverEngine(t *testing.T) {
	e := newTestEngine(t, seedCatalog(t, 47))
	ctx := context.Background()
	sink := &feedback.MemorySink{}

	s := feed.New(e, feed.Options{PageSize: 20, Sink: sink, SeedFunc: func() int32 { return 77 }})
	if err := s.FreshLoad(ctx, core.ModeTrending, core.Filters{}); err != nil {
		t.Fatalf("FreshLoad: %v", err)
	}
	for s.HasMore() {
		if _, err := s.LoadMore(ctx); err != nil {
			t.Fatalf("LoadMore: %v", err)
		}
	}
	if s.State() != feed.StateExhausted {
		t.Errorf("state = %s, want exhausted", s.State())
	}

	want, err := e.FetchPage(ctx, core.PageRequest{Mode: core.ModeTrending, Seed: 77, Page: 1, PageSize: 47})
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(itemIDs(s.Items())) != fmt.Sprint(itemIDs(want.Items)) {
		t.Errorf("session order differs from single fetch")
	}

	first := s.Items()[0].ID
	s.ReportView(ctx, first)
	s.ReportView(ctx, first)
	s.WaitTelemetry()
	if n := len(sink.Events()); n != 1 {
		t.Errorf("telemetry events = %d, want 1", n)
	}
}

func newCachingEngine(t *testing.T, repo *SQLiteRepository) (*Engine, *store.MemoryStore) {
	t.Helper()
	mem := store.NewMemoryStore()
	t.Cleanup(func() { mem.Close() })
	ps, err := builders.BuildPipelines(nil, builders.Deps{Catalog: repo, Store: mem, Hot: mem})
	if err != nil {
		t.Fatalf("BuildPipelines: %v", err)
	}
	e, err := NewEngine(ps, EngineOptions{Profiles: NewProfileStore(mem), Orders: mem})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e, mem
}

func TestEngineOrderCacheMatchesUncached(t *testing.T) {
	repo := seedCatalog(t, 47)
	plain := newTestEngine(t, repo)
	cached, _ := newCachingEngine(t, repo)
	ctx := context.Background()

	for _, mode := range builders.Modes {
		t.Run(string(mode), func(t *testing.T) {
			for page := 1; page <= 3; page++ {
				req := core.PageRequest{Mode: mode, Seed: 9, Page: page, PageSize: 20, UserID: "u1"}
				want, err := plain.FetchPage(ctx, req)
				if err != nil {
					t.Fatal(err)
				}
				got, err := cached.FetchPage(ctx, req)
				if err != nil {
					t.Fatal(err)
				}
				if fmt.Sprint(itemIDs(got.Items)) != fmt.Sprint(itemIDs(want.Items)) {
					t.Errorf("page %d = %v, want %v", page, itemIDs(got.Items), itemIDs(want.Items))
				}
				if *got.Total != *want.Total || *got.HasMore != *want.HasMore {
					t.Errorf("page %d: total/hasMore = %d/%v, want %d/%v", page, *got.Total, *got.HasMore, *want.Total, *want.HasMore)
				}
			}
		})
	}
}

func TestEngineOrderCacheSkipsReRanking(t *testing.T) {
	repo := seedCatalog(t, 30)
	e, _ := newCachingEngine(t, repo)
	ctx := context.Background()

	first, err := e.FetchPage(ctx, core.PageRequest{Mode: core.ModeLatest, Seed: 1, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatal(err)
	}

	// 新上架的商品只影响之后开始的序列
	fresh := &core.Item{ID: "fresh", Category: "Top", Title: "fresh", Price: 5, CreatedAt: time.Unix(1800000000, 0)}
	if _, err := repo.Upsert(ctx, []*core.Item{fresh}); err != nil {
		t.Fatal(err)
	}

	again, err := e.FetchPage(ctx, core.PageRequest{Mode: core.ModeLatest, Seed: 1, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatal(err)
	}
	if *again.Total != 30 || fmt.Sprint(itemIDs(again.Items)) != fmt.Sprint(itemIDs(first.Items)) {
		t.Errorf("cached order changed: total=%d items=%v", *again.Total, itemIDs(again.Items))
	}

	other, err := e.FetchPage(ctx, core.PageRequest{Mode: core.ModeLatest, Seed: 2, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatal(err)
	}
	if *other.Total != 31 {
		t.Errorf("new seed total = %d, want 31", *other.Total)
	}
}

func TestEngineOrderCacheReturnsCopies(t *testing.T) {
	repo := seedCatalog(t, 10)
	e, _ := newCachingEngine(t, repo)
	ctx := context.Background()
	req := core.PageRequest{Mode: core.ModeLatest, Seed: 3, Page: 1, PageSize: 10}

	p, err := e.FetchPage(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	p.Items[0].Title = "mutated"
	again, err := e.FetchPage(ctx, req)
	if err != nil {
		t.Fatal(err)
	}
	if again.Items[0].Title == "mutated" {
		t.Error("page items must not alias the cached order")
	}
}

func TestOrderKey(t *testing.T) {
	lo := 10.0
	base := core.PageRequest{Mode: core.ModeTrending, Seed: 7, Page: 1, PageSize: 20, UserID: "u1"}
	key := orderKey(core.ModeTrending, base)

	tests := []struct {
		name string
		mode core.RankMode
		req  func(r core.PageRequest) core.PageRequest
		same bool
	}{
		{"other page", core.ModeTrending, func(r core.PageRequest) core.PageRequest { r.Page = 3; return r }, true},
		{"other page size", core.ModeTrending, func(r core.PageRequest) core.PageRequest { r.PageSize = 50; return r }, true},
		{"other seed", core.ModeTrending, func(r core.PageRequest) core.PageRequest { r.Seed = 8; return r }, false},
		{"other user", core.ModeTrending, func(r core.PageRequest) core.PageRequest { r.UserID = "u2"; return r }, false},
		{"filters", core.ModeTrending, func(r core.PageRequest) core.PageRequest { r.Filters.MinPrice = &lo; return r }, false},
		{"resolved mode", core.ModeLatest, func(r core.PageRequest) core.PageRequest { return r }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := orderKey(tt.mode, tt.req(base)) == key
			if got != tt.same {
				t.Errorf("same key = %v, want %v", got, tt.same)
			}
		})
	}
}
