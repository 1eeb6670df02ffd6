package model

import (
	"context"
	"errors"
	"testing"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

type stubModel struct {
	calls int
	err   error
}

func (s *stubModel) Name() string { return "stub" }

func (s *stubModel) Score(_ context.Context, _ *core.Item, cands []*core.Item) (core.Scores, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := core.Scores{}
	for _, c := range cands {
		out[c.ID] = 42
	}
	return out, nil
}

func TestBreakerModelOpensAfterFailures(t *testing.T) {
	inner := &stubModel{err: errors.New("down")}
	m := NewBreakerModel(inner, BreakerConfig{
		Name:        "test-open",
		MinRequests: 3,
		FailureRate: 0.5,
		Timeout:     time.Hour,
	})

	base := &core.Item{ID: "b"}
	for i := 0; i < 3; i++ {
		if _, err := m.Score(context.Background(), base, candidates()); err == nil {
			t.Fatal("expected inner error")
		}
	}
	if m.State() != gobreaker.StateOpen {
		t.Fatalf("state = %v, want open", m.State())
	}

	_, err := m.Score(context.Background(), base, candidates())
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("err = %v, want ErrOpenState", err)
	}
	if inner.calls != 3 {
		t.Errorf("inner calls = %d, want 3 (open circuit must fail fast)", inner.calls)
	}
}

func TestBreakerModelPassesThrough(t *testing.T) {
	inner := &stubModel{}
	m := NewBreakerModel(inner, BreakerConfig{Name: "test-pass"})
	scores, err := m.Score(context.Background(), &core.Item{ID: "b"}, candidates())
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if scores["c1"] != 42 || scores["c2"] != 42 {
		t.Errorf("scores = %v", scores)
	}
	if m.Name() != "stub" {
		t.Errorf("Name = %q", m.Name())
	}
}
