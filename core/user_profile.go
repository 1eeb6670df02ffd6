package core

import (
	"strings"
	"time"
)

// UserProfile 是用户画像，驱动个性化排序。
//
// 权重均在 0-1 之间；key 统一小写。
type UserProfile struct {
	UserID string `json:"user_id"`
	Gender string `json:"gender,omitempty"`

	// 长期兴趣：category -> weight
	Categories map[string]float64 `json:"categories,omitempty"`

	// 风格偏好：casual / formal / vintage ... -> weight
	Styles map[string]float64 `json:"styles,omitempty"`

	// 品牌偏好
	Brands map[string]float64 `json:"brands,omitempty"`

	UpdateTime time.Time `json:"update_time"`
}

// NewUserProfile 创建一个新的用户画像。
func NewUserProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:     userID,
		Categories: make(map[string]float64),
		Styles:     make(map[string]float64),
		Brands:     make(map[string]float64),
		UpdateTime: time.Now(),
	}
}

// SetCategory 更新类目兴趣。
func (p *UserProfile) SetCategory(category string, weight float64) {
	if p.Categories == nil {
		p.Categories = make(map[string]float64)
	}
	p.Categories[strings.ToLower(category)] = weight
	p.UpdateTime = time.Now()
}

// SetStyle 更新风格偏好。
func (p *UserProfile) SetStyle(style string, weight float64) {
	if p.Styles == nil {
		p.Styles = make(map[string]float64)
	}
	p.Styles[strings.ToLower(style)] = weight
	p.UpdateTime = time.Now()
}

// Affinity 返回用户对商品的亲和度 [0,1]：类目、风格、品牌三者取加权和。
func (p *UserProfile) Affinity(category, style, brand string) float64 {
	if p == nil {
		return 0
	}
	score := 0.5*p.Categories[strings.ToLower(category)] +
		0.3*p.Styles[strings.ToLower(style)] +
		0.2*p.Brands[strings.ToLower(brand)]
	if score > 1 {
		return 1
	}
	if score < 0 {
		return 0
	}
	return score
}
