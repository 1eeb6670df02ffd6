// Package feedback 收集曝光/点击等行为反馈：尽力而为、不阻塞调用方。
package feedback

import (
	"context"
	"time"
)

// EventType 反馈类型
type EventType string

const (
	EventView  EventType = "view"  // 曝光
	EventClick EventType = "click" // 点击
)

// Event 反馈事件
type Event struct {
	UserID    string    `json:"user_id,omitempty"`
	ItemID    string    `json:"item_id"`
	Type      EventType `json:"type"`
	Scene     string    `json:"scene,omitempty"`
	Timestamp int64     `json:"timestamp"` // Unix 秒
}

// NewEvent 构建事件，时间戳取当前时间。
func NewEvent(t EventType, userID, itemID string) Event {
	return Event{UserID: userID, ItemID: itemID, Type: t, Timestamp: time.Now().Unix()}
}

// Sink 是行为上报的出口。实现必须并发安全，且不能长时间阻塞。
type Sink interface {
	RecordView(ctx context.Context, userID, itemID string) error
	RecordClick(ctx context.Context, userID, itemID string) error
	Close() error
}

// Record 按事件类型分发到 Sink。
func Record(ctx context.Context, s Sink, ev Event) error {
	switch ev.Type {
	case EventClick:
		return s.RecordClick(ctx, ev.UserID, ev.ItemID)
	default:
		return s.RecordView(ctx, ev.UserID, ev.ItemID)
	}
}
