package feedback

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"
)

type fakeProducer struct {
	mu      sync.Mutex
	records []*kgo.Record
	err     error
	flushed bool
	closed  bool
}

func (p *fakeProducer) Produce(_ context.Context, r *kgo.Record, promise func(*kgo.Record, error)) {
	p.mu.Lock()
	p.records = append(p.records, r)
	err := p.err
	p.mu.Unlock()
	if promise != nil {
		promise(r, err)
	}
}

func (p *fakeProducer) Flush(context.Context) error {
	p.mu.Lock()
	p.flushed = true
	p.mu.Unlock()
	return nil
}

func (p *fakeProducer) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

func (p *fakeProducer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.records)
}

func TestKafkaCollectorFlushOnClose(t *testing.T) {
	p := &fakeProducer{}
	c := NewKafkaCollectorWithProducer(p, KafkaConfig{Topic: "telemetry", BatchSize: 100, FlushInterval: time.Hour})

	ctx := context.Background()
	if err := c.RecordView(ctx, "u1", "a"); err != nil {
		t.Fatal(err)
	}
	if err := c.RecordClick(ctx, "u1", "b"); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if p.count() != 2 {
		t.Fatalf("records = %d, want 2", p.count())
	}
	if !p.flushed || !p.closed {
		t.Errorf("producer flushed=%v closed=%v", p.flushed, p.closed)
	}

	var ev Event
	if err := json.Unmarshal(p.records[1].Value, &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Type != EventClick || ev.ItemID != "b" || ev.UserID != "u1" {
		t.Errorf("decoded %+v", ev)
	}
	if string(p.records[0].Key) != "u1" || p.records[0].Topic != "telemetry" {
		t.Errorf("record key=%q topic=%q", p.records[0].Key, p.records[0].Topic)
	}

	// 关闭后静默丢弃，且 Close 幂等
	if err := c.RecordView(ctx, "u1", "c"); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if p.count() != 2 {
		t.Errorf("records after close = %d", p.count())
	}
}

func TestKafkaCollectorBatchTrigger(t *testing.T) {
	p := &fakeProducer{}
	c := NewKafkaCollectorWithProducer(p, KafkaConfig{Topic: "t", BatchSize: 2, FlushInterval: time.Hour})
	defer c.Close()

	ctx := context.Background()
	_ = c.RecordView(ctx, "u", "a")
	_ = c.RecordView(ctx, "u", "b")

	deadline := time.Now().Add(2 * time.Second)
	for p.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if p.count() != 2 {
		t.Fatalf("records = %d, want 2 after batch trigger", p.count())
	}
}

func TestKafkaCollectorProduceErrorSwallowed(t *testing.T) {
	p := &fakeProducer{err: errors.New("broker down")}
	c := NewKafkaCollectorWithProducer(p, KafkaConfig{Topic: "t"})
	if err := c.RecordView(context.Background(), "u", "a"); err != nil {
		t.Fatalf("RecordView returned %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close returned %v", err)
	}
}

func TestMulti(t *testing.T) {
	ok := &MemorySink{}
	bad := &MemorySink{Err: errors.New("boom")}
	m := Multi{ok, nil, bad}

	err := m.RecordView(context.Background(), "u", "a")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v", err)
	}
	if len(ok.Events()) != 1 || len(bad.Events()) != 1 {
		t.Errorf("events ok=%d bad=%d", len(ok.Events()), len(bad.Events()))
	}
	if err := m.RecordClick(context.Background(), "u", "a"); err == nil {
		t.Error("expected joined error")
	}
	if got := ok.Events()[1].Type; got != EventClick {
		t.Errorf("type = %s", got)
	}
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf)
	s := LogSink{Logger: &l}
	if err := s.RecordClick(context.Background(), "u9", "x1"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"event":"click"`, `"user_id":"u9"`, `"item_id":"x1"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %s", out, want)
		}
	}
}

func TestRecordDispatch(t *testing.T) {
	s := &MemorySink{}
	_ = Record(context.Background(), s, NewEvent(EventClick, "u", "a"))
	_ = Record(context.Background(), s, NewEvent(EventView, "u", "b"))
	evs := s.Events()
	if len(evs) != 2 || evs[0].Type != EventClick || evs[1].Type != EventView {
		t.Errorf("events = %+v", evs)
	}
}
