package filter

import (
	"context"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

// DefaultBlacklistKey 下架/违规商品黑名单的默认 key
const DefaultBlacklistKey = "blacklist:listings"

// BlacklistFilter 是黑名单过滤器，过滤掉黑名单中的商品（如已下架、被举报）。
type BlacklistFilter struct {
	// ItemIDs 是内存中的黑名单
	ItemIDs []string

	// Store 用于从存储中读取黑名单（可选）
	Store BlacklistStore

	// Key 是 Store 中的黑名单 key（可选）
	Key string
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	// GetBlacklist 获取黑名单物品 ID 列表
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs []string, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	f := &BlacklistFilter{ItemIDs: itemIDs, Key: key}
	if storeAdapter != nil {
		f.Store = storeAdapter
	}
	return f
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

// Bind 合并内存列表与 Store 中的列表。
func (f *BlacklistFilter) Bind(ctx context.Context, _ *core.RecommendContext) (Filter, error) {
	lists := [][]string{f.ItemIDs}
	if f.Store != nil {
		key := f.Key
		if key == "" {
			key = DefaultBlacklistKey
		}
		ids, err := f.Store.GetBlacklist(ctx, key)
		if err != nil {
			return nil, err
		}
		lists = append(lists, ids)
	}
	return newIDSet(f.Name(), lists...), nil
}

func (f *BlacklistFilter) ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	bound, err := f.Bind(ctx, rctx)
	if err != nil {
		return false, err
	}
	return bound.ShouldFilter(ctx, rctx, item)
}
