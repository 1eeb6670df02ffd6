package utils

import "strconv"

// Label 是链路中的解释信息：召回来源、打分来源、降级原因等都以 Label 形式挂在商品上，
// 随结果一起透传给调用方。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / rank / rerank / score / filter ...
}

// L 构造一个 Label。
func L(value, source string) Label {
	return Label{Value: value, Source: source}
}

// FloatLabel 用于把分数类信息写成 Label，保留两位小数。
func FloatLabel(v float64, source string) Label {
	return Label{Value: strconv.FormatFloat(v, 'f', 2, 64), Source: source}
}

// MergeLabel 合并同名 Label，保留历史：
// - Value 以 '|' 累积
// - Source 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	merged.Value = existing.Value + "|" + incoming.Value
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "":
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}
