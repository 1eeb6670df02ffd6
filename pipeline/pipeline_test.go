package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

func appendNode(name, id string) Node {
	return NodeFunc{NodeName: name, NodeKind: KindRank, Fn: func(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
		return append(items, core.NewItem(id)), nil
	}}
}

func TestPipelineRunOrder(t *testing.T) {
	p := &Pipeline{Nodes: []Node{appendNode("a", "1"), appendNode("b", "2")}}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(out) != 2 || out[0].ID != "1" || out[1].ID != "2" {
		t.Fatalf("unexpected output %v", out)
	}
	if got := strings.Join(p.Describe(), ","); got != "a,b" {
		t.Errorf("Describe = %q", got)
	}
}

func TestPipelineRunError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{
		appendNode("a", "1"),
		NodeFunc{NodeName: "bad", Fn: func(context.Context, *core.RecommendContext, []*core.Item) ([]*core.Item, error) {
			return nil, boom
		}},
		appendNode("c", "3"),
	}}
	_, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if !strings.HasPrefix(err.Error(), "bad:") {
		t.Errorf("err = %q, want node name prefix", err)
	}
}

func TestPipelineRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &Pipeline{Nodes: []Node{appendNode("a", "1")}}
	if _, err := p.Run(ctx, &core.RecommendContext{}, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestConfigBuild(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
pipelines:
  trending:
    nodes:
      - type: test.append
        config: {id: "x"}
      - type: test.append
        config: {id: "y"}
  broken:
    nodes:
      - type: test.missing
`))
	if err != nil {
		t.Fatalf("ParseYAML: %v", err)
	}

	f := NewNodeFactory()
	f.Register("test.append", func(c map[string]any) (Node, error) {
		id, _ := c["id"].(string)
		return appendNode("append", id), nil
	})

	p, err := cfg.Build("trending", f)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	out, _ := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if len(out) != 2 || out[0].ID != "x" || out[1].ID != "y" {
		t.Fatalf("unexpected output %v", out)
	}

	if _, err := cfg.Build("broken", f); err == nil || !strings.Contains(err.Error(), "unknown node type") {
		t.Errorf("broken err = %v", err)
	}
	if _, err := cfg.Build("nope", f); err == nil {
		t.Error("expected error for unconfigured pipeline")
	}
	if _, err := cfg.BuildAll(f); err == nil {
		t.Error("BuildAll should surface the broken pipeline")
	}
}
