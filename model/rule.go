package model

import (
	"context"
	"strings"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/classify"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

const (
	ruleBase          = 50.0
	ruleComplementary = 30.0
	ruleSameColor     = 15.0
	ruleSameStyle     = 20.0
	ruleNeutral       = 10.0
	rulePerSharedTag  = 5.0
)

// ComplementaryColors 是有方向的配色表：只查基准颜色所在的那一行。
// 例如 black 行包含 yellow，但 yellow 行不包含 black。
var ComplementaryColors = map[string][]string{
	"black":  {"white", "red", "pink", "yellow", "beige"},
	"white":  {"black", "navy", "blue", "red"},
	"blue":   {"orange", "white", "beige", "brown"},
	"navy":   {"white", "beige", "red", "pink"},
	"red":    {"black", "white", "navy", "beige"},
	"green":  {"brown", "beige", "white"},
	"yellow": {"purple", "navy", "gray", "grey"},
	"pink":   {"gray", "grey", "navy", "white"},
	"purple": {"yellow", "gray", "grey"},
	"orange": {"blue", "navy", "white"},
	"brown":  {"blue", "green", "beige", "white"},
	"gray":   {"pink", "yellow", "navy"},
	"grey":   {"pink", "yellow", "navy"},
	"beige":  {"navy", "brown", "black", "white"},
}

// RuleModel 是确定性的规则打分，远程打分失败时兜底。从不返回错误。
//
//	50 起步
//	+30 候选颜色在基准颜色的互补行中；否则颜色相同 +15
//	+20 风格相同
//	+10 候选颜色为中性色
//	+5 × 大小写不敏感的共同标签数
//	最终限制在 [0,100]
type RuleModel struct{}

func (RuleModel) Name() string { return "rule" }

func (m RuleModel) Score(_ context.Context, base *core.Item, candidates []*core.Item) (core.Scores, error) {
	scores := make(core.Scores, len(candidates))
	if len(candidates) == 0 || base == nil {
		return scores, nil
	}
	baseColor := classify.ExtractColor(base.Title)
	baseStyle := classify.ExtractStyle(base.Title)
	baseTags := tagSet(base.Tags)
	for _, c := range candidates {
		if c == nil {
			continue
		}
		scores[c.ID] = RuleScore(baseColor, baseStyle, baseTags, c)
	}
	return scores, nil
}

// RuleScore 计算单个候选的规则分。
func RuleScore(baseColor, baseStyle string, baseTags map[string]struct{}, c *core.Item) float64 {
	color := classify.ExtractColor(c.Title)
	style := classify.ExtractStyle(c.Title)

	score := ruleBase
	if isComplementary(baseColor, color) {
		score += ruleComplementary
	} else if baseColor == color {
		score += ruleSameColor
	}
	if baseStyle == style {
		score += ruleSameStyle
	}
	if classify.IsNeutral(color) {
		score += ruleNeutral
	}
	shared := 0
	for t := range tagSet(c.Tags) {
		if _, ok := baseTags[t]; ok {
			shared++
		}
	}
	score += rulePerSharedTag * float64(shared)
	return clampScore(score)
}

func isComplementary(base, candidate string) bool {
	for _, c := range ComplementaryColors[base] {
		if c == candidate {
			return true
		}
	}
	return false
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	return set
}

// TagSet 构建小写去重的标签集合，供 RuleScore 使用。
func TagSet(tags []string) map[string]struct{} { return tagSet(tags) }
