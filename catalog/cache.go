package catalog

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/metrics"
)

// 缓存默认值
const (
	DefaultCacheSize = 1024
	DefaultCacheTTL  = 5 * time.Minute
	detailKeyPrefix  = "listing:"
)

// DetailCache 是商品详情缓存：进程内 LRU + TTL，可选 core.Store（例如 Redis）作为二级缓存。
// 由 Lookup 持有，按引用传给需要的组件。
type DetailCache struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	ll      *list.List
	entries map[string]*list.Element

	// L2 可选二级缓存
	L2 core.Store

	now func() time.Time
}

type cacheEntry struct {
	id       string
	item     *core.Item
	expireAt time.Time
}

// NewDetailCache 创建缓存，maxSize/ttl <= 0 时使用默认值。
func NewDetailCache(maxSize int, ttl time.Duration, l2 core.Store) *DetailCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &DetailCache{
		maxSize: maxSize,
		ttl:     ttl,
		ll:      list.New(),
		entries: make(map[string]*list.Element),
		L2:      l2,
		now:     time.Now,
	}
}

// Get 先查本地，再查 L2；L2 命中会回填本地。返回副本。
func (c *DetailCache) Get(ctx context.Context, id string) (*core.Item, bool) {
	if it, ok := c.getLocal(id); ok {
		metrics.DetailCacheHits.WithLabelValues("local").Inc()
		return it, true
	}
	if c.L2 != nil {
		data, err := c.L2.Get(ctx, detailKeyPrefix+id)
		if err == nil {
			var it core.Item
			if json.Unmarshal(data, &it) == nil && it.ID == id {
				metrics.DetailCacheHits.WithLabelValues("l2").Inc()
				c.setLocal(&it)
				return it.Clone(), true
			}
		}
	}
	metrics.DetailCacheMisses.Inc()
	return nil, false
}

func (c *DetailCache) getLocal(id string) (*core.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	e := el.Value.(*cacheEntry)
	if c.now().After(e.expireAt) {
		c.removeElement(el)
		return nil, false
	}
	c.ll.MoveToFront(el)
	return e.item.Clone(), true
}

// Set 写入本地与 L2。L2 写失败不影响本地缓存。
func (c *DetailCache) Set(ctx context.Context, it *core.Item) {
	if it == nil || it.ID == "" {
		return
	}
	c.setLocal(it)
	if c.L2 != nil {
		stored := it.Clone()
		stored.Score = 0
		stored.Labels = nil
		if data, err := json.Marshal(stored); err == nil {
			_ = c.L2.Set(ctx, detailKeyPrefix+it.ID, data, int(c.ttl.Seconds()))
		}
	}
}

func (c *DetailCache) setLocal(it *core.Item) {
	cp := it.Clone()
	cp.Score = 0
	cp.Labels = nil

	c.mu.Lock()
	defer c.mu.Unlock()
	expireAt := c.now().Add(c.ttl)
	if el, ok := c.entries[it.ID]; ok {
		e := el.Value.(*cacheEntry)
		e.item = cp
		e.expireAt = expireAt
		c.ll.MoveToFront(el)
		return
	}
	c.entries[it.ID] = c.ll.PushFront(&cacheEntry{id: it.ID, item: cp, expireAt: expireAt})
	for c.ll.Len() > c.maxSize {
		c.removeElement(c.ll.Back())
	}
}

// Invalidate 删除本地与 L2 中的条目。
func (c *DetailCache) Invalidate(ctx context.Context, id string) {
	c.mu.Lock()
	if el, ok := c.entries[id]; ok {
		c.removeElement(el)
	}
	c.mu.Unlock()
	if c.L2 != nil {
		_ = c.L2.Delete(ctx, detailKeyPrefix+id)
	}
}

// Len 返回本地条目数（可能包含尚未清理的过期条目）。
func (c *DetailCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *DetailCache) removeElement(el *list.Element) {
	c.ll.Remove(el)
	delete(c.entries, el.Value.(*cacheEntry).id)
}
