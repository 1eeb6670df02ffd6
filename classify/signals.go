package classify

import "strings"

// UnknownColor 是颜色抽取失败时的返回值。
const UnknownColor = "unknown"

// DefaultStyle 是风格抽取失败时的返回值：目录里大部分商品偏休闲。
const DefaultStyle = "casual"

// colorVocabulary 有序：标题里出现多种颜色时取表中靠前的那个。
var colorVocabulary = []string{
	"black", "white", "blue", "red", "green", "yellow", "pink",
	"purple", "orange", "brown", "gray", "grey", "beige", "navy",
}

var styleFamilies = []struct {
	style    string
	keywords []string
}{
	{"casual", []string{"casual", "relaxed"}},
	{"formal", []string{"formal", "business"}},
	{"sporty", []string{"sporty", "athletic"}},
	{"vintage", []string{"vintage", "retro"}},
	{"streetwear", []string{"streetwear", "urban"}},
}

var neutralColors = map[string]struct{}{
	"black": {}, "white": {}, "grey": {}, "gray": {}, "beige": {}, "brown": {}, "navy": {},
}

// ExtractColor 返回文本中第一个命中的颜色词，否则 "unknown"。
func ExtractColor(text string) string {
	t := strings.ToLower(text)
	for _, c := range colorVocabulary {
		if strings.Contains(t, c) {
			return c
		}
	}
	return UnknownColor
}

// ExtractStyle 按关键词族抽取风格，默认 "casual"。
func ExtractStyle(text string) string {
	t := strings.ToLower(text)
	for _, f := range styleFamilies {
		for _, kw := range f.keywords {
			if strings.Contains(t, kw) {
				return f.style
			}
		}
	}
	return DefaultStyle
}

// IsNeutral 判断颜色是否属于中性色。
func IsNeutral(color string) bool {
	_, ok := neutralColors[strings.ToLower(color)]
	return ok
}
