package catalog

import (
	"context"
	"strings"

	"github.com/goccy/go-json"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

const profileKeyPrefix = "profile:"

// ProfileStore 在 core.Store 中以 JSON 保存用户画像，key 为 profile:{userID}。
type ProfileStore struct {
	Store core.Store
}

func NewProfileStore(s core.Store) *ProfileStore {
	return &ProfileStore{Store: s}
}

// Get 读取画像；不存在时返回 (nil, nil)，调用方按冷启动处理。
func (p *ProfileStore) Get(ctx context.Context, userID string) (*core.UserProfile, error) {
	if p == nil || p.Store == nil || strings.TrimSpace(userID) == "" {
		return nil, nil
	}
	data, err := p.Store.Get(ctx, profileKeyPrefix+userID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	var prof core.UserProfile
	if err := json.Unmarshal(data, &prof); err != nil {
		return nil, err
	}
	if prof.UserID == "" {
		prof.UserID = userID
	}
	return &prof, nil
}

// Put 写入画像。
func (p *ProfileStore) Put(ctx context.Context, prof *core.UserProfile) error {
	if prof == nil || prof.UserID == "" {
		return core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "profile without user id")
	}
	data, err := json.Marshal(prof)
	if err != nil {
		return err
	}
	return p.Store.Set(ctx, profileKeyPrefix+prof.UserID, data)
}
