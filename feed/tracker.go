package feed

import "sync"

// Tracker 记录本会话内已经上报过的商品，保证曝光/点击各只上报一次。
type Tracker interface {
	MarkViewed(id string) (wasAlreadyViewed bool)
	MarkClicked(id string) (wasAlreadyClicked bool)
	Reset()
}

// ViewTracker 是 Tracker 的默认实现，并发安全。
type ViewTracker struct {
	mu      sync.Mutex
	viewed  map[string]struct{}
	clicked map[string]struct{}
}

func NewViewTracker() *ViewTracker {
	return &ViewTracker{
		viewed:  make(map[string]struct{}),
		clicked: make(map[string]struct{}),
	}
}

func (t *ViewTracker) MarkViewed(id string) bool {
	return t.mark(t.viewed, id)
}

func (t *ViewTracker) MarkClicked(id string) bool {
	return t.mark(t.clicked, id)
}

func (t *ViewTracker) mark(set map[string]struct{}, id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := set[id]; ok {
		return true
	}
	set[id] = struct{}{}
	return false
}

// Reset 清空两个集合，只在 Refresh 时调用。
func (t *ViewTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.viewed)
	clear(t.clicked)
}

// Len 返回已上报的曝光数与点击数。
func (t *ViewTracker) Len() (viewed, clicked int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.viewed), len(t.clicked)
}
