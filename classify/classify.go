// Package classify 把卖家自由填写的类目文本映射到搭配 slot，并从标题中抽取颜色/风格信号。
//
// 所有函数都是纯函数：相同输入恒得相同输出，无法识别时退化为安全默认值而不是报错。
package classify

import (
	"sort"
	"strings"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

// Rule 是一条关键词规则：Keywords 中任意一个是标签的子串即命中。
type Rule struct {
	Keywords []string
	Slot     core.OutfitSlot
	Priority int
}

// DefaultRules 按优先级从高到低：dress 必须先于 top 命中（"shirt dress" 归入 dresses）。
var DefaultRules = []Rule{
	{Slot: core.SlotDresses, Priority: 100, Keywords: []string{"dress", "gown", "jumpsuit", "romper", "playsuit"}},
	{Slot: core.SlotShoes, Priority: 90, Keywords: []string{"shoe", "sneaker", "trainer", "boots", "bootie", "ankle boot", "heel", "sandal", "loafer", "slipper", "flats", "footwear", "mule", "clog"}},
	{Slot: core.SlotBottoms, Priority: 80, Keywords: []string{"pant", "trouser", "jean", "shorts", "skirt", "legging", "jogger", "chino", "cargo", "bottom"}},
	{Slot: core.SlotAccessories, Priority: 70, Keywords: []string{"bag", "hat", "cap", "belt", "scarf", "jewel", "necklace", "bracelet", "earring", "rings", "watch", "sunglass", "glove", "wallet", "beanie", "accessor"}},
	{Slot: core.SlotTops, Priority: 60, Keywords: []string{"top", "shirt", "tee", "blouse", "sweater", "hoodie", "jacket", "coat", "cardigan", "vest", "tank", "polo", "jumper", "blazer", "knit", "pullover", "sweatshirt"}},
}

// DefaultCanonical 是关键词全部落空后的精确匹配表。
var DefaultCanonical = map[string]core.OutfitSlot{
	"tops":        core.SlotTops,
	"outerwear":   core.SlotTops,
	"knitwear":    core.SlotTops,
	"bottoms":     core.SlotBottoms,
	"denim":       core.SlotBottoms,
	"footwear":    core.SlotShoes,
	"shoes":       core.SlotShoes,
	"accessories": core.SlotAccessories,
	"jewelry":     core.SlotAccessories,
	"jewellery":   core.SlotAccessories,
	"dresses":     core.SlotDresses,
}

// Classifier 持有一组规则。零值不可用，请使用 New 或 Default。
type Classifier struct {
	rules     []Rule
	canonical map[string]core.OutfitSlot
}

// New 创建分类器；规则会拷贝一份并按 Priority 降序排列（同优先级保持原顺序）。
func New(rules []Rule, canonical map[string]core.OutfitSlot) *Classifier {
	rs := append([]Rule(nil), rules...)
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Priority > rs[j].Priority })
	cm := make(map[string]core.OutfitSlot, len(canonical))
	for k, v := range canonical {
		cm[strings.ToLower(k)] = v
	}
	return &Classifier{rules: rs, canonical: cm}
}

// Default 是使用内置规则表的分类器。
var Default = New(DefaultRules, DefaultCanonical)

// Classify 使用 Default 分类。
func Classify(label string) core.OutfitSlot {
	return Default.Classify(label)
}

// Classify 把类目文本映射为 slot；空串或无法识别返回 SlotOther。
func (c *Classifier) Classify(label string) core.OutfitSlot {
	norm := strings.ToLower(strings.TrimSpace(label))
	if norm == "" {
		return core.SlotOther
	}
	for _, r := range c.rules {
		for _, kw := range r.Keywords {
			if strings.Contains(norm, kw) {
				return r.Slot
			}
		}
	}
	if slot, ok := c.canonical[norm]; ok {
		return slot
	}
	return core.SlotOther
}

// SlotOf 对商品分类。
func (c *Classifier) SlotOf(it *core.Item) core.OutfitSlot {
	if it == nil {
		return core.SlotOther
	}
	return c.Classify(it.Category)
}
