package core

import "strings"

// OutfitSlot 是搭配中的服装角色，封闭枚举。
// 从不单独持久化，总是由 Item.Category 经 classify 实时推导。
type OutfitSlot string

const (
	SlotTops        OutfitSlot = "tops"
	SlotBottoms     OutfitSlot = "bottoms"
	SlotShoes       OutfitSlot = "shoes"
	SlotAccessories OutfitSlot = "accessories"
	SlotDresses     OutfitSlot = "dresses"
	SlotOther       OutfitSlot = "other"
)

// AllSlots 按固定顺序列出全部 slot。
var AllSlots = []OutfitSlot{SlotTops, SlotBottoms, SlotShoes, SlotAccessories, SlotDresses, SlotOther}

func (s OutfitSlot) String() string { return string(s) }

// ParseOutfitSlot 解析 slot 名称（大小写不敏感），未知值返回 (SlotOther, false)。
func ParseOutfitSlot(s string) (OutfitSlot, bool) {
	v := OutfitSlot(strings.ToLower(strings.TrimSpace(s)))
	for _, slot := range AllSlots {
		if v == slot {
			return slot, true
		}
	}
	return SlotOther, false
}
