package core

import "github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/utils"

// RecommendContext 承载用户/场景/请求信息，贯穿整个排序 Pipeline 透传。
type RecommendContext struct {
	UserID string
	Scene  string // for_you / trending / search ...

	Mode    RankMode
	Seed    int32
	Filters Filters

	// User 是强类型用户画像，可为空（未登录或冷启动）
	User *UserProfile

	// Labels 是用户级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级上下文参数
	Params map[string]any
}

// NewRecommendContext 由分页请求构建上下文。
func NewRecommendContext(req PageRequest) *RecommendContext {
	return &RecommendContext{
		UserID:  req.UserID,
		Scene:   string(req.Mode),
		Mode:    req.Mode,
		Seed:    req.Seed,
		Filters: req.Filters,
		Labels:  make(map[string]utils.Label),
		Params:  make(map[string]any),
	}
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
