package pipeline

import (
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Config 是按排序模式声明的 Pipeline 配置（支持 YAML/JSON）。
//
//	pipelines:
//	  trending:
//	    nodes:
//	      - type: recall.fanout
//	        config: {timeout_ms: 800, sources: [{type: catalog}, {type: catalog.boosted}]}
//	      - type: rank.seeded
//	        config: {strategy: popularity}
//	      - type: rerank.boost
//	        config: {every: 5}
type Config struct {
	Pipelines map[string]Spec `yaml:"pipelines" json:"pipelines"`
}

// Spec 是单条 Pipeline 的节点列表。
type Spec struct {
	Nodes []NodeConfig `yaml:"nodes" json:"nodes"`
}

// NodeConfig 是单个 Node 的配置。
type NodeConfig struct {
	Type   string         `yaml:"type" json:"type"`     // recall.fanout / filter / rank.seeded / rerank.boost ...
	Config map[string]any `yaml:"config" json:"config"` // Node 特定配置
}

// LoadFromYAML 从 YAML 文件加载。
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML 解析 YAML 内容。
func ParseYAML(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &cfg, nil
}

// LoadFromJSON 从 JSON 文件加载。
func LoadFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &cfg, nil
}

// Build 构建指定名称的 Pipeline。
func (c *Config) Build(name string, factory *NodeFactory) (*Pipeline, error) {
	spec, ok := c.Pipelines[name]
	if !ok {
		return nil, fmt.Errorf("pipeline %q not configured", name)
	}
	nodes := make([]Node, 0, len(spec.Nodes))
	for i, nc := range spec.Nodes {
		node, err := factory.Build(nc.Type, nc.Config)
		if err != nil {
			return nil, fmt.Errorf("pipeline %s: node #%d %s: %w", name, i, nc.Type, err)
		}
		nodes = append(nodes, node)
	}
	return &Pipeline{Name: name, Nodes: nodes}, nil
}

// BuildAll 构建全部 Pipeline，按名称排序以保证错误信息稳定。
func (c *Config) BuildAll(factory *NodeFactory) (map[string]*Pipeline, error) {
	names := make([]string, 0, len(c.Pipelines))
	for name := range c.Pipelines {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]*Pipeline, len(names))
	for _, name := range names {
		p, err := c.Build(name, factory)
		if err != nil {
			return nil, err
		}
		out[name] = p
	}
	return out, nil
}

// BuilderFunc 根据配置构建 Node。
type BuilderFunc func(config map[string]any) (Node, error)

// NodeFactory 根据类型名构建 Node 实例。
type NodeFactory struct {
	builders map[string]BuilderFunc
}

func NewNodeFactory() *NodeFactory {
	return &NodeFactory{builders: make(map[string]BuilderFunc)}
}

// Register 注册 Node 构建器，同名覆盖。
func (f *NodeFactory) Register(nodeType string, builder BuilderFunc) {
	f.builders[nodeType] = builder
}

// Build 根据类型和配置构建 Node。
func (f *NodeFactory) Build(nodeType string, config map[string]any) (Node, error) {
	builder, ok := f.builders[nodeType]
	if !ok {
		return nil, fmt.Errorf("unknown node type: %s", nodeType)
	}
	return builder(config)
}

// Types 返回已注册的类型名（有序）。
func (f *NodeFactory) Types() []string {
	out := make([]string, 0, len(f.builders))
	for t := range f.builders {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
