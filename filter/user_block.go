package filter

import (
	"context"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

// DefaultUserBlockPrefix 用户拉黑列表的默认 key 前缀
const DefaultUserBlockPrefix = "user:block"

// UserBlockFilter 是用户拉黑过滤器，过滤掉用户拉黑的商品。
type UserBlockFilter struct {
	// Store 用于从存储中读取用户拉黑列表
	Store UserBlockStore

	// KeyPrefix 是 Store 中的 key 前缀，实际 key 为 {KeyPrefix}:{UserID}
	KeyPrefix string
}

// UserBlockStore 是用户拉黑存储接口。
type UserBlockStore interface {
	// GetUserBlocks 获取用户拉黑的物品 ID 列表
	GetUserBlocks(ctx context.Context, userID string, keyPrefix string) ([]string, error)
}

// NewUserBlockFilter 创建一个用户拉黑过滤器。
func NewUserBlockFilter(storeAdapter *StoreAdapter, keyPrefix string) *UserBlockFilter {
	f := &UserBlockFilter{KeyPrefix: keyPrefix}
	if storeAdapter != nil {
		f.Store = storeAdapter
	}
	return f
}

func (f *UserBlockFilter) Name() string {
	return "filter.user_block"
}

// Bind 每次请求只读取一次拉黑列表。匿名请求不过滤。
func (f *UserBlockFilter) Bind(ctx context.Context, rctx *core.RecommendContext) (Filter, error) {
	if f.Store == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}
	prefix := f.KeyPrefix
	if prefix == "" {
		prefix = DefaultUserBlockPrefix
	}
	ids, err := f.Store.GetUserBlocks(ctx, rctx.UserID, prefix)
	if err != nil {
		return nil, err
	}
	return newIDSet(f.Name(), ids), nil
}

// ShouldFilter 未经 FilterNode 直接使用时逐个商品查询。
func (f *UserBlockFilter) ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	bound, err := f.Bind(ctx, rctx)
	if err != nil || bound == nil {
		return false, err
	}
	return bound.ShouldFilter(ctx, rctx, item)
}
