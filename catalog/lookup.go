package catalog

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

// ItemReader 是按 ID 读取商品的接口，SQLiteRepository 实现了它。
type ItemReader interface {
	Get(ctx context.Context, id string) (*core.Item, error)
	BatchGet(ctx context.Context, ids []string) (map[string]*core.Item, error)
}

// Lookup 是带缓存的商品详情读取，并发的同 ID 未命中只回源一次。
type Lookup struct {
	reader ItemReader
	cache  *DetailCache
	group  singleflight.Group
}

// NewLookup 创建 Lookup，cache 为 nil 时使用默认大小的缓存。
func NewLookup(reader ItemReader, cache *DetailCache) *Lookup {
	if cache == nil {
		cache = NewDetailCache(0, 0, nil)
	}
	return &Lookup{reader: reader, cache: cache}
}

// Cache 返回 Lookup 持有的缓存。
func (l *Lookup) Cache() *DetailCache { return l.cache }

// Get 读取单个商品，返回副本。
func (l *Lookup) Get(ctx context.Context, id string) (*core.Item, error) {
	if it, ok := l.cache.Get(ctx, id); ok {
		return it, nil
	}
	v, err, _ := l.group.Do(id, func() (any, error) {
		it, err := l.reader.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		l.cache.Set(ctx, it)
		return it, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.Item).Clone(), nil
}

// BatchGet 按给定顺序返回存在的商品，缺失的 ID 被跳过。
func (l *Lookup) BatchGet(ctx context.Context, ids []string) ([]*core.Item, error) {
	found := make(map[string]*core.Item, len(ids))
	var missing []string
	for _, id := range ids {
		if _, dup := found[id]; dup {
			continue
		}
		if it, ok := l.cache.Get(ctx, id); ok {
			found[id] = it
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) > 0 {
		loaded, err := l.reader.BatchGet(ctx, missing)
		if err != nil {
			return nil, err
		}
		for id, it := range loaded {
			l.cache.Set(ctx, it)
			found[id] = it.Clone()
		}
	}

	out := make([]*core.Item, 0, len(ids))
	emitted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		it, ok := found[id]
		if !ok {
			continue
		}
		if _, dup := emitted[id]; dup {
			continue
		}
		emitted[id] = struct{}{}
		out = append(out, it)
	}
	return out, nil
}
