package core

import (
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/utils"
)

// Item 是一条商品（listing）在推荐链路中的统一承载结构。
//
// 商品属性由外部 catalog 拥有，本模块只读；Score 与 Labels 是请求级字段，
// 只在单次排序/打分过程中写入。跨请求复用前必须 Clone。
type Item struct {
	ID          string   `json:"id"`
	Category    string   `json:"category,omitempty"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	Images      []string `json:"images,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	// 可选提示字段
	Color     string `json:"color,omitempty"`
	Material  string `json:"material,omitempty"`
	Style     string `json:"style,omitempty"`
	Gender    string `json:"gender,omitempty"`
	Size      string `json:"size,omitempty"`
	Condition string `json:"condition,omitempty"`
	Brand     string `json:"brand,omitempty"`
	SellerID  string `json:"sellerId,omitempty"`

	// 推广字段：IsBoosted 的商品按 BoostWeight（>= 0）混排进正常序列
	IsBoosted   bool    `json:"isBoosted,omitempty"`
	BoostWeight float64 `json:"boostWeight,omitempty"`

	Likes     int       `json:"likes,omitempty"`
	Views     int       `json:"views,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	Score  float64                `json:"score,omitempty"`
	Labels map[string]utils.Label `json:"labels,omitempty"`
}

// FlexID 同时接受字符串与数字形式的 ID，数字按原文保留。
type FlexID string

func (id *FlexID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	switch {
	case raw == "null":
		*id = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = FlexID(s)
	default:
		*id = FlexID(raw)
	}
	return nil
}

// UnmarshalJSON 解码 Item，id 字段按 FlexID 解析。
func (it *Item) UnmarshalJSON(b []byte) error {
	type plain Item
	aux := struct {
		*plain
		ID FlexID `json:"id"`
	}{plain: (*plain)(it)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	it.ID = string(aux.ID)
	return nil
}

// NewItem 创建一个只有 ID 的 Item，主要用于测试与占位。
func NewItem(id string) *Item {
	return &Item{
		ID:     id,
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Clone 深拷贝商品，保证请求级的 Score/Labels 写入不会污染 catalog 里的记录。
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	cp := *it
	cp.Images = append([]string(nil), it.Images...)
	cp.Tags = append([]string(nil), it.Tags...)
	cp.Labels = make(map[string]utils.Label, len(it.Labels))
	for k, v := range it.Labels {
		cp.Labels[k] = v
	}
	return &cp
}

// CloneItems 批量 Clone，跳过 nil。
func CloneItems(items []*Item) []*Item {
	out := make([]*Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		out = append(out, it.Clone())
	}
	return out
}

// Scores 是一次打分请求的结果：item ID -> [0,100] 的分数。
// 缺失的 key 表示“没有可用分数”，而不是 0 分。
type Scores map[string]float64
