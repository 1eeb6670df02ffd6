package feedback

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
)

// LogSink 把事件写成 zerolog 日志，本地运行使用。
type LogSink struct {
	Logger *zerolog.Logger
}

func (s LogSink) log(ctx context.Context, t EventType, userID, itemID string) error {
	logging.With(ctx, *logging.OrComponent(s.Logger, "feedback")).Info().
		Str("event", string(t)).
		Str("user_id", userID).
		Str("item_id", itemID).
		Msg("telemetry")
	return nil
}

func (s LogSink) RecordView(ctx context.Context, userID, itemID string) error {
	return s.log(ctx, EventView, userID, itemID)
}

func (s LogSink) RecordClick(ctx context.Context, userID, itemID string) error {
	return s.log(ctx, EventClick, userID, itemID)
}

func (LogSink) Close() error { return nil }

// NopSink 丢弃所有事件。
type NopSink struct{}

func (NopSink) RecordView(context.Context, string, string) error  { return nil }
func (NopSink) RecordClick(context.Context, string, string) error { return nil }
func (NopSink) Close() error                                      { return nil }

// Multi 把事件分发给多个 Sink；返回所有失败的合并错误，一个失败不影响其他。
type Multi []Sink

func (m Multi) each(fn func(Sink) error) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := fn(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) RecordView(ctx context.Context, userID, itemID string) error {
	return m.each(func(s Sink) error { return s.RecordView(ctx, userID, itemID) })
}

func (m Multi) RecordClick(ctx context.Context, userID, itemID string) error {
	return m.each(func(s Sink) error { return s.RecordClick(ctx, userID, itemID) })
}

func (m Multi) Close() error {
	return m.each(func(s Sink) error { return s.Close() })
}

// MemorySink 在内存中保存事件，测试与调试使用。
type MemorySink struct {
	mu     sync.Mutex
	events []Event

	// Err 非空时每次上报都返回该错误（事件仍会记录）
	Err error

	// Notify 可选，每条事件记录后发送一次
	Notify chan Event
}

func (s *MemorySink) record(t EventType, userID, itemID string) error {
	ev := NewEvent(t, userID, itemID)
	s.mu.Lock()
	s.events = append(s.events, ev)
	err := s.Err
	s.mu.Unlock()
	if s.Notify != nil {
		s.Notify <- ev
	}
	return err
}

func (s *MemorySink) RecordView(_ context.Context, userID, itemID string) error {
	return s.record(EventView, userID, itemID)
}

func (s *MemorySink) RecordClick(_ context.Context, userID, itemID string) error {
	return s.record(EventClick, userID, itemID)
}

func (s *MemorySink) Close() error { return nil }

// Events 返回已记录事件的副本。
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}
