// Package outfit 围绕用户选中的基准商品组装一套搭配。
package outfit

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/classify"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/logging"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/utils"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/rank"
)

// CarouselSlots 是参与打分的四个 slot，顺序固定。
var CarouselSlots = []core.OutfitSlot{core.SlotTops, core.SlotBottoms, core.SlotShoes, core.SlotAccessories}

// Scorer 对同一 slot 的候选打分，返回分数与来源。实现不会失败：
// 远程失败时自行降级，因此各 slot 的并发打分不会产生错误。
type Scorer interface {
	Resolve(ctx context.Context, base *core.Item, candidates []*core.Item) (core.Scores, string)
}

// Outfit 是组装结果。各 slot 的列表都已按分数降序排列。
type Outfit struct {
	Base     *core.Item
	BaseSlot core.OutfitSlot

	// Locked 是被基准商品锁定的 slot；没有锁定时为 SlotOther
	Locked core.OutfitSlot

	Tops        []*core.Item
	Bottoms     []*core.Item
	Shoes       []*core.Item
	Accessories []*core.Item

	// Fallback 是去掉基准商品后的全部候选；候选池为空时为 [base]
	Fallback []*core.Item

	Scores       map[core.OutfitSlot]core.Scores
	FromFallback map[core.OutfitSlot]bool
	ScoreSource  map[core.OutfitSlot]string
}

// Slot 返回指定 slot 的列表。
func (o *Outfit) Slot(s core.OutfitSlot) []*core.Item {
	switch s {
	case core.SlotTops:
		return o.Tops
	case core.SlotBottoms:
		return o.Bottoms
	case core.SlotShoes:
		return o.Shoes
	case core.SlotAccessories:
		return o.Accessories
	default:
		return nil
	}
}

func (o *Outfit) setSlot(s core.OutfitSlot, items []*core.Item) {
	switch s {
	case core.SlotTops:
		o.Tops = items
	case core.SlotBottoms:
		o.Bottoms = items
	case core.SlotShoes:
		o.Shoes = items
	case core.SlotAccessories:
		o.Accessories = items
	}
}

// Assembler 组装搭配。结果与 feed 会话互不影响：所有商品都会被 Clone。
type Assembler struct {
	Scorer     Scorer
	Classifier *classify.Classifier
	Logger     *zerolog.Logger
}

// NewAssembler 使用默认分类器。
func NewAssembler(scorer Scorer) *Assembler {
	return &Assembler{Scorer: scorer, Classifier: classify.Default}
}

// lockable 是基准商品会锁定自身位置的 slot。
func lockable(s core.OutfitSlot) bool {
	switch s {
	case core.SlotTops, core.SlotBottoms, core.SlotShoes, core.SlotDresses:
		return true
	default:
		return false
	}
}

// Assemble 把候选池分到 tops/bottoms/shoes/accessories 四个桶并按搭配分数排序。
//
//   - 基准商品没有 ID 时直接拒绝（INVALID_INPUT），不做部分组装
//   - 候选池按 ID 去掉基准商品，重复 ID 只保留第一次出现
//   - 空桶用 Fallback 顶上
//   - 基准商品所在的 tops/bottoms/shoes 桶固定为 [base]，不打分
//   - 四个桶的打分并发进行，互不影响
func (a *Assembler) Assemble(ctx context.Context, base *core.Item, pool []*core.Item) (*Outfit, error) {
	if base == nil || strings.TrimSpace(base.ID) == "" {
		return nil, core.NewDomainError(core.ModuleOutfit, core.ErrorCodeInvalidInput, "outfit: base item has no id")
	}
	cls := a.Classifier
	if cls == nil {
		cls = classify.Default
	}
	scorer := a.Scorer
	if scorer == nil {
		scorer = rank.NewCompatibilityScorer(nil)
	}

	baseCopy := base.Clone()
	out := &Outfit{
		Base:         baseCopy,
		BaseSlot:     cls.SlotOf(base),
		Locked:       core.SlotOther,
		Scores:       make(map[core.OutfitSlot]core.Scores, len(CarouselSlots)),
		FromFallback: make(map[core.OutfitSlot]bool, len(CarouselSlots)),
		ScoreSource:  make(map[core.OutfitSlot]string, len(CarouselSlots)),
	}
	if lockable(out.BaseSlot) {
		out.Locked = out.BaseSlot
	}

	remaining := make([]*core.Item, 0, len(pool))
	seen := map[string]struct{}{base.ID: {}}
	buckets := make(map[core.OutfitSlot][]*core.Item, len(CarouselSlots))
	for _, it := range pool {
		if it == nil {
			continue
		}
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		remaining = append(remaining, it)
		s := cls.SlotOf(it)
		buckets[s] = append(buckets[s], it)
	}

	if len(remaining) == 0 {
		out.Fallback = []*core.Item{base.Clone()}
	} else {
		out.Fallback = core.CloneItems(remaining)
	}

	type slotResult struct {
		items  []*core.Item
		scores core.Scores
		source string
	}
	results := make([]slotResult, len(CarouselSlots))

	var g errgroup.Group
	for i, slot := range CarouselSlots {
		if slot == out.Locked {
			lockedBase := base.Clone()
			lockedBase.PutLabel("outfit_slot", utils.L("locked", "outfit"))
			results[i] = slotResult{items: []*core.Item{lockedBase}}
			continue
		}
		var cands []*core.Item
		if b := buckets[slot]; len(b) > 0 {
			cands = core.CloneItems(b)
		} else {
			cands = core.CloneItems(out.Fallback)
			out.FromFallback[slot] = true
		}
		g.Go(func() error {
			scores, source := scorer.Resolve(ctx, base, cands)
			rank.SortByScore(cands, scores)
			for _, it := range cands {
				if s, ok := scores[it.ID]; ok {
					it.Score = s
					it.PutLabel("compat_score", utils.FloatLabel(s, "outfit"))
				} else {
					it.Score = 0
				}
				it.PutLabel("score_source", utils.L(source, "outfit"))
			}
			results[i] = slotResult{items: cands, scores: scores, source: source}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, slot := range CarouselSlots {
		r := results[i]
		out.setSlot(slot, r.items)
		if r.scores != nil {
			out.Scores[slot] = r.scores
			out.ScoreSource[slot] = r.source
		}
	}

	logging.With(ctx, *logging.OrComponent(a.Logger, "outfit")).Debug().
		Str("base_id", base.ID).
		Str("base_slot", out.BaseSlot.String()).
		Str("locked", out.Locked.String()).
		Int("pool", len(remaining)).
		Msg("outfit assembled")
	return out, nil
}
