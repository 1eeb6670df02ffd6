package rank

import (
	"sort"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

// SortByScore 按分数降序稳定排序（原地），缺失分数按 0 处理。
func SortByScore(items []*core.Item, scores core.Scores) {
	sort.SliceStable(items, func(i, j int) bool {
		return scores[items[i].ID] > scores[items[j].ID]
	})
}

// sortItems 按 Item.Score 降序，分数相同按 ID 升序，保证顺序只取决于输入集合。
func sortItems(items []*core.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
}

func compactItems(items []*core.Item) []*core.Item {
	out := items[:0:0]
	for _, it := range items {
		if it != nil {
			out = append(out, it)
		}
	}
	return out
}
