package store

import (
	"context"
	"slices"
	"testing"
	"time"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	defer m.Close()

	if _, err := m.Get(ctx, "missing"); !core.IsStoreNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
	buf := []byte("v1")
	if err := m.Set(ctx, "k", buf); err != nil {
		t.Fatal(err)
	}
	buf[0] = 'x'
	got, err := m.Get(ctx, "k")
	if err != nil || string(got) != "v1" {
		t.Fatalf("got %q, %v; stored value must not alias caller buffer", got, err)
	}

	_ = m.BatchSet(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")})
	vals, _ := m.BatchGet(ctx, []string{"a", "b", "c"})
	if len(vals) != 2 || string(vals["b"]) != "2" {
		t.Errorf("BatchGet = %v", vals)
	}

	_ = m.Delete(ctx, "a")
	if _, err := m.Get(ctx, "a"); !core.IsStoreNotFound(err) {
		t.Errorf("deleted key still present: %v", err)
	}
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	defer m.Close()

	m.mu.Lock()
	m.data["old"] = entry{value: []byte("x"), expire: time.Now().Add(-time.Second)}
	m.mu.Unlock()

	if _, err := m.Get(ctx, "old"); !core.IsStoreNotFound(err) {
		t.Errorf("expired key returned: %v", err)
	}
}

func TestMemoryStoreZRange(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	defer m.Close()

	_ = m.ZAdd(ctx, "hot", 10, "a")
	_ = m.ZAdd(ctx, "hot", 30, "b")
	_ = m.ZAdd(ctx, "hot", 20, "c")
	_ = m.ZAdd(ctx, "hot", 20, "d")

	tests := []struct {
		start, stop int64
		want        []string
	}{
		{0, -1, []string{"b", "d", "c", "a"}},
		{0, 1, []string{"b", "d"}},
		{2, 10, []string{"c", "a"}},
		{5, 6, nil},
	}
	for _, tt := range tests {
		got, err := m.ZRange(ctx, "hot", tt.start, tt.stop)
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(got, tt.want) {
			t.Errorf("ZRange(%d,%d) = %v, want %v", tt.start, tt.stop, got, tt.want)
		}
	}

	if s, err := m.ZScore(ctx, "hot", "c"); err != nil || s != 20 {
		t.Errorf("ZScore = %v, %v", s, err)
	}
	if _, err := m.ZScore(ctx, "hot", "zzz"); !core.IsStoreNotFound(err) {
		t.Errorf("err = %v", err)
	}
}

func TestMemoryStoreHash(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()
	defer m.Close()

	_ = m.HSet(ctx, "profile:u1", "styles", []byte(`{"casual":1}`))
	_ = m.HSet(ctx, "profile:u1", "brands", []byte(`{}`))
	v, err := m.HGet(ctx, "profile:u1", "styles")
	if err != nil || string(v) != `{"casual":1}` {
		t.Fatalf("HGet = %q, %v", v, err)
	}
	all, _ := m.HGetAll(ctx, "profile:u1")
	if len(all) != 2 {
		t.Errorf("HGetAll = %v", all)
	}
	if _, err := m.HGet(ctx, "profile:u1", "nope"); !core.IsStoreNotFound(err) {
		t.Errorf("err = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
