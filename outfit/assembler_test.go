package outfit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/model"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/rank"
)

type recordingModel struct {
	mu    sync.Mutex
	calls [][]string
	fail  func(cands []*core.Item) bool
}

func (m *recordingModel) Name() string { return "recording" }

func (m *recordingModel) Score(_ context.Context, _ *core.Item, cands []*core.Item) (core.Scores, error) {
	ids := make([]string, len(cands))
	for i, c := range cands {
		ids[i] = c.ID
	}
	m.mu.Lock()
	m.calls = append(m.calls, ids)
	m.mu.Unlock()
	if m.fail != nil && m.fail(cands) {
		return nil, errors.New("model unavailable")
	}
	out := core.Scores{}
	for i, c := range cands {
		out[c.ID] = float64(10 * (i + 1))
	}
	return out, nil
}

func pool() []*core.Item {
	return []*core.Item{
		{ID: "t1", Category: "T-Shirt", Title: "White Tee"},
		{ID: "t2", Category: "Blouse", Title: "Black Formal Blouse"},
		{ID: "p1", Category: "Jeans", Title: "Blue Jeans"},
		{ID: "s1", Category: "Sneakers", Title: "White Sneakers"},
		{ID: "a1", Category: "Bag", Title: "Beige Tote"},
	}
}

func TestAssembleDressBase(t *testing.T) {
	base := &core.Item{ID: "b1", Category: "Dress", Title: "Red Satin Dress"}
	a := NewAssembler(rank.NewCompatibilityScorer(nil))

	out, err := a.Assemble(context.Background(), base, pool())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if out.BaseSlot != core.SlotDresses || out.Locked != core.SlotDresses {
		t.Fatalf("base slot = %s, locked = %s", out.BaseSlot, out.Locked)
	}
	for _, slot := range []core.OutfitSlot{core.SlotTops, core.SlotBottoms, core.SlotShoes} {
		items := out.Slot(slot)
		if len(items) == 0 {
			t.Fatalf("%s is empty", slot)
		}
		for _, it := range items {
			if it.ID == base.ID {
				t.Errorf("%s contains the base item", slot)
			}
			s, ok := out.Scores[slot][it.ID]
			if !ok {
				t.Errorf("%s/%s has no score", slot, it.ID)
			}
			if s < 0 || s > 100 {
				t.Errorf("%s/%s score %v out of range", slot, it.ID, s)
			}
		}
	}
	if len(out.Tops) != 2 || out.FromFallback[core.SlotTops] {
		t.Errorf("tops = %d items (fallback=%v), want both tops", len(out.Tops), out.FromFallback[core.SlotTops])
	}
	if len(out.Fallback) != 5 {
		t.Errorf("fallback = %d items, want 5", len(out.Fallback))
	}
}

func TestAssembleTopsBaseLocked(t *testing.T) {
	base := &core.Item{ID: "b1", Category: "Shirt", Title: "Navy Shirt"}
	m := &recordingModel{}
	a := NewAssembler(rank.NewCompatibilityScorer(m))

	out, err := a.Assemble(context.Background(), base, pool())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if len(out.Tops) != 1 || out.Tops[0].ID != "b1" {
		t.Fatalf("tops = %v, want exactly [base]", ids(out.Tops))
	}
	if _, ok := out.Scores[core.SlotTops]; ok {
		t.Error("locked slot must not be scored")
	}
	if len(out.Bottoms) == 0 || len(out.Shoes) == 0 || len(out.Accessories) == 0 {
		t.Fatalf("other slots must be populated: %v / %v / %v", ids(out.Bottoms), ids(out.Shoes), ids(out.Accessories))
	}
	if len(m.calls) != 3 {
		t.Errorf("model calls = %d, want 3", len(m.calls))
	}
}

func TestAssembleSortsDescending(t *testing.T) {
	base := &core.Item{ID: "b1", Category: "Jeans", Title: "Blue Jeans"}
	m := &recordingModel{}
	a := NewAssembler(rank.NewCompatibilityScorer(m))

	out, err := a.Assemble(context.Background(), base, pool())
	if err != nil {
		t.Fatal(err)
	}
	// recordingModel 给后面的候选更高分
	if got := ids(out.Tops); len(got) != 2 || got[0] != "t2" || got[1] != "t1" {
		t.Errorf("tops = %v, want [t2 t1]", got)
	}
	if out.ScoreSource[core.SlotTops] != rank.SourceRemote {
		t.Errorf("source = %s", out.ScoreSource[core.SlotTops])
	}
	if lbl, ok := out.Tops[0].Labels["score_source"]; !ok || lbl.Value != rank.SourceRemote {
		t.Errorf("score_source label = %+v", lbl)
	}
}

func TestAssembleSlotFailureIsolated(t *testing.T) {
	base := &core.Item{ID: "b1", Category: "Dress", Title: "Red Dress"}
	m := &recordingModel{fail: func(cands []*core.Item) bool {
		return len(cands) > 0 && cands[0].ID == "s1"
	}}
	a := NewAssembler(rank.NewCompatibilityScorer(m))

	out, err := a.Assemble(context.Background(), base, pool())
	if err != nil {
		t.Fatal(err)
	}
	if out.ScoreSource[core.SlotShoes] != rank.SourceFallback {
		t.Errorf("shoes source = %s, want fallback", out.ScoreSource[core.SlotShoes])
	}
	for _, slot := range []core.OutfitSlot{core.SlotTops, core.SlotBottoms, core.SlotAccessories} {
		if out.ScoreSource[slot] != rank.SourceRemote {
			t.Errorf("%s source = %s, want remote", slot, out.ScoreSource[slot])
		}
	}
	if len(out.Scores[core.SlotShoes]) != 1 {
		t.Errorf("shoes fallback scores = %v", out.Scores[core.SlotShoes])
	}
}

func TestAssembleEmptyBucketUsesFallback(t *testing.T) {
	base := &core.Item{ID: "b1", Category: "Dress", Title: "Red Dress"}
	p := []*core.Item{
		{ID: "t1", Category: "Tee", Title: "White Tee"},
		{ID: "t1", Category: "Tee", Title: "duplicate"},
		{ID: "b1", Category: "Dress", Title: "base again"},
		nil,
	}
	out, err := NewAssembler(nil).Assemble(context.Background(), base, p)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Fallback) != 1 || out.Fallback[0].ID != "t1" || out.Fallback[0].Title != "White Tee" {
		t.Fatalf("fallback = %v", ids(out.Fallback))
	}
	for _, slot := range []core.OutfitSlot{core.SlotBottoms, core.SlotShoes, core.SlotAccessories} {
		if !out.FromFallback[slot] {
			t.Errorf("%s should come from fallback", slot)
		}
		if got := ids(out.Slot(slot)); len(got) != 1 || got[0] != "t1" {
			t.Errorf("%s = %v", slot, got)
		}
	}
}

func TestAssembleEmptyPool(t *testing.T) {
	base := &core.Item{ID: "b1", Category: "Jacket", Title: "Black Jacket"}
	out, err := NewAssembler(nil).Assemble(context.Background(), base, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Fallback) != 1 || out.Fallback[0].ID != "b1" {
		t.Fatalf("fallback = %v, want [base]", ids(out.Fallback))
	}
	if len(out.Bottoms) != 1 || out.Bottoms[0].ID != "b1" {
		t.Errorf("bottoms = %v", ids(out.Bottoms))
	}
}

func TestAssembleRejectsBaseWithoutID(t *testing.T) {
	a := NewAssembler(nil)
	for _, base := range []*core.Item{nil, {ID: ""}, {ID: "   ", Category: "Dress"}} {
		_, err := a.Assemble(context.Background(), base, pool())
		if !core.IsInvalidInput(err) {
			t.Errorf("err = %v, want INVALID_INPUT", err)
		}
	}
}

func TestAssembleDoesNotMutateInputs(t *testing.T) {
	p := pool()
	base := &core.Item{ID: "b1", Category: "Dress", Title: "Red Dress"}
	if _, err := NewAssembler(nil).Assemble(context.Background(), base, p); err != nil {
		t.Fatal(err)
	}
	for _, it := range p {
		if it.Score != 0 || len(it.Labels) != 0 {
			t.Errorf("pool item %s was mutated: score=%v labels=%v", it.ID, it.Score, it.Labels)
		}
	}
	if len(base.Labels) != 0 {
		t.Errorf("base mutated: %v", base.Labels)
	}
}

type slowModel struct{ inflight, peak int32 }

func (m *slowModel) Name() string { return "slow" }

func (m *slowModel) Score(_ context.Context, _ *core.Item, cands []*core.Item) (core.Scores, error) {
	n := atomic.AddInt32(&m.inflight, 1)
	for {
		p := atomic.LoadInt32(&m.peak)
		if n <= p || atomic.CompareAndSwapInt32(&m.peak, p, n) {
			break
		}
	}
	time.Sleep(30 * time.Millisecond)
	atomic.AddInt32(&m.inflight, -1)
	return core.Scores{}, nil
}

func TestAssembleScoresSlotsConcurrently(t *testing.T) {
	m := &slowModel{}
	base := &core.Item{ID: "b1", Category: "Dress", Title: "Red Dress"}
	if _, err := NewAssembler(rank.NewCompatibilityScorer(m)).Assemble(context.Background(), base, pool()); err != nil {
		t.Fatal(err)
	}
	if atomic.LoadInt32(&m.peak) < 2 {
		t.Errorf("peak concurrency = %d, want slots scored in parallel", m.peak)
	}
}

func TestAssembleWithZeroValueRemoteModel(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		var req struct {
			Items []struct {
				ID string `json:"id"`
			} `json:"items"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var b strings.Builder
		b.WriteString(`{"success":true,"scores":[`)
		for i, it := range req.Items {
			if i > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `{"itemId":%q,"score":70}`, it.ID)
		}
		b.WriteString("]}")
		_, _ = io.WriteString(w, b.String())
	}))
	defer srv.Close()

	m := &model.RPCCompatModel{Endpoint: srv.URL}
	base := &core.Item{ID: "b1", Category: "Dress", Title: "Red Dress"}
	out, err := NewAssembler(rank.NewCompatibilityScorer(m)).Assemble(context.Background(), base, pool())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != int32(len(CarouselSlots)) {
		t.Errorf("remote calls = %d, want %d", got, len(CarouselSlots))
	}
	for _, slot := range CarouselSlots {
		if out.ScoreSource[slot] != rank.SourceRemote {
			t.Errorf("%s source = %q, want %q", slot, out.ScoreSource[slot], rank.SourceRemote)
		}
	}
	if m.Client != nil || m.Timeout != 0 {
		t.Error("Score must not modify the model")
	}
}

func ids(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
