package rank

import (
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/pkg/dsl"
)

// DefaultCapabilityRule：价格区间、成色、尺码同时生效时个性化排序无法兑现。
const DefaultCapabilityRule = `!(filters.has_price && filters.has_condition && filters.has_size)`

// Capability 判断个性化排序能否承接一组筛选条件。
type Capability struct {
	prg *dsl.Program
}

// NewCapability 编译规则，空串使用默认规则。
func NewCapability(rule string) (*Capability, error) {
	if rule == "" {
		rule = DefaultCapabilityRule
	}
	prg, err := dsl.Compile(rule)
	if err != nil {
		return nil, err
	}
	return &Capability{prg: prg}, nil
}

// DefaultCapability 使用默认规则。
var DefaultCapability = &Capability{prg: dsl.MustCompile(DefaultCapabilityRule)}

// Supports 返回 true 表示可以走个性化排序。规则执行失败时按不支持处理，走确定性排序。
func (c *Capability) Supports(f core.Filters) bool {
	if c == nil || c.prg == nil {
		return true
	}
	ok, err := c.prg.Eval(dsl.Input{Filters: &f})
	if err != nil {
		return false
	}
	return ok
}

// Rule 返回规则表达式。
func (c *Capability) Rule() string {
	if c == nil || c.prg == nil {
		return ""
	}
	return c.prg.String()
}

// ResolveMode 返回本次请求实际使用的排序模式：个性化请求超出能力时降级为 latest。
func (c *Capability) ResolveMode(mode core.RankMode, f core.Filters) (core.RankMode, bool) {
	if mode == core.ModePersonalized && !c.Supports(f) {
		return core.ModeLatest, true
	}
	return mode, false
}
