package filter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/store"
)

func ptr(v float64) *float64 { return &v }

func listing(id string, mut func(*core.Item)) *core.Item {
	it := core.NewItem(id)
	it.Title = "Plain Tee"
	it.Category = "Tops"
	it.Price = 20
	mut(it)
	return it
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name    string
		filters core.Filters
		item    *core.Item
		want    bool
	}{
		{"empty filters", core.Filters{}, listing("a", func(*core.Item) {}), true},
		{"category case-insensitive", core.Filters{Category: "tops"}, listing("a", func(*core.Item) {}), true},
		{"category mismatch", core.Filters{Category: "shoes"}, listing("a", func(*core.Item) {}), false},
		{"unisex visible to women", core.Filters{Gender: "women"}, listing("a", func(it *core.Item) { it.Gender = "Unisex" }), true},
		{"gender mismatch", core.Filters{Gender: "women"}, listing("a", func(it *core.Item) { it.Gender = "men" }), false},
		{"size hit", core.Filters{Sizes: []string{"S", "M"}}, listing("a", func(it *core.Item) { it.Size = "m" }), true},
		{"size miss", core.Filters{Sizes: []string{"S"}}, listing("a", func(it *core.Item) { it.Size = "L" }), false},
		{"price in range", core.Filters{MinPrice: ptr(10), MaxPrice: ptr(20)}, listing("a", func(*core.Item) {}), true},
		{"price above max", core.Filters{MaxPrice: ptr(19.99)}, listing("a", func(*core.Item) {}), false},
		{"condition", core.Filters{Condition: "new"}, listing("a", func(it *core.Item) { it.Condition = "Like New" }), false},
		{"seller excluded", core.Filters{ExcludeSeller: "s1"}, listing("a", func(it *core.Item) { it.SellerID = "s1" }), false},
		{"query hits title", core.Filters{Query: "tee"}, listing("a", func(*core.Item) {}), true},
		{"query hits tag", core.Filters{Query: "vintage"}, listing("a", func(it *core.Item) { it.Tags = []string{"Vintage"} }), true},
		{"query misses", core.Filters{Query: "denim jacket"}, listing("a", func(*core.Item) {}), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.filters, tt.item); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

type errFilter struct{}

func (errFilter) Name() string { return "err" }
func (errFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return false, errors.New("broken")
}

func ids(items []*core.Item) string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return strings.Join(out, ",")
}

func TestFilterNode(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()
	adapter := NewStoreAdapter(mem)
	if err := adapter.SetList(ctx, DefaultUserBlockPrefix+":u1", []string{"b"}); err != nil {
		t.Fatal(err)
	}
	if err := adapter.SetList(ctx, DefaultBlacklistKey, []string{"c"}); err != nil {
		t.Fatal(err)
	}

	expr, err := NewExprFilter(`item.price > 100.0`)
	if err != nil {
		t.Fatal(err)
	}
	n := &FilterNode{Filters: []Filter{
		errFilter{},
		NewAttributeFilter(),
		NewUserBlockFilter(adapter, ""),
		NewBlacklistFilter([]string{"d"}, adapter, ""),
		expr,
	}}

	items := []*core.Item{
		listing("a", func(*core.Item) {}),
		listing("b", func(*core.Item) {}),
		listing("c", func(*core.Item) {}),
		listing("d", func(*core.Item) {}),
		listing("e", func(it *core.Item) { it.Price = 150 }),
		listing("f", func(it *core.Item) { it.Category = "Shoes" }),
		nil,
		listing("g", func(*core.Item) {}),
	}
	rctx := &core.RecommendContext{UserID: "u1", Filters: core.Filters{Category: "tops"}}
	got, err := n.Process(ctx, rctx, items)
	if err != nil {
		t.Fatal(err)
	}
	if s := ids(got); s != "a,g" {
		t.Errorf("kept = %s, want a,g", s)
	}

	// 匿名用户不走拉黑
	got, _ = n.Process(ctx, &core.RecommendContext{}, items)
	if s := ids(got); s != "a,b,f,g" {
		t.Errorf("anonymous kept = %s", s)
	}
}

func TestUserBlockDirect(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	defer mem.Close()
	adapter := NewStoreAdapter(mem)
	_ = adapter.SetList(ctx, "blk:u2", []string{"x"})

	f := NewUserBlockFilter(adapter, "blk")
	rctx := &core.RecommendContext{UserID: "u2"}
	if drop, err := f.ShouldFilter(ctx, rctx, core.NewItem("x")); err != nil || !drop {
		t.Errorf("x: drop=%v err=%v", drop, err)
	}
	if drop, _ := f.ShouldFilter(ctx, rctx, core.NewItem("y")); drop {
		t.Error("y should be kept")
	}
	// 没有拉黑列表的用户
	if drop, err := f.ShouldFilter(ctx, &core.RecommendContext{UserID: "nobody"}, core.NewItem("x")); err != nil || drop {
		t.Errorf("nobody: drop=%v err=%v", drop, err)
	}
}

func TestExprFilter(t *testing.T) {
	if _, err := NewExprFilter(`item.price +`); err == nil {
		t.Error("expected compile error")
	}
	f, err := NewExprFilter(`item.seller_id == rctx.user_id`)
	if err != nil {
		t.Fatal(err)
	}
	it := listing("a", func(it *core.Item) { it.SellerID = "u1" })
	drop, err := f.ShouldFilter(context.Background(), &core.RecommendContext{UserID: "u1"}, it)
	if err != nil || !drop {
		t.Errorf("own listing: drop=%v err=%v", drop, err)
	}
	if f.Expr() != `item.seller_id == rctx.user_id` {
		t.Errorf("Expr() = %q", f.Expr())
	}
}
