package conv

import (
	"testing"
	"time"
)

func TestConfigGetters(t *testing.T) {
	m := map[string]any{
		"name":       "x",
		"every":      5,
		"every_json": 7.0,
		"weight":     1,
		"timeout_ms": 800,
		"timeout":    "2s",
		"ids":        []any{"a", 12.0},
		"sources":    []any{map[string]any{"type": "catalog"}, "skip"},
	}
	if got := ConfigGet(m, "name", ""); got != "x" {
		t.Errorf("ConfigGet = %q", got)
	}
	if got := ConfigGet(m, "every", ""); got != "" {
		t.Errorf("type mismatch should return default, got %q", got)
	}
	if got := ConfigGetInt(m, "every_json", 0); got != 7 {
		t.Errorf("ConfigGetInt = %d", got)
	}
	if got := ConfigGetFloat64(m, "weight", 0); got != 1 {
		t.Errorf("ConfigGetFloat64 = %v", got)
	}
	if got := ConfigGetMillis(m, "timeout_ms", 0); got != 800*time.Millisecond {
		t.Errorf("ConfigGetMillis = %v", got)
	}
	if got := ConfigGetMillis(m, "timeout", 0); got != 2*time.Second {
		t.Errorf("ConfigGetMillis string = %v", got)
	}
	if got := ConfigGetMillis(m, "missing", time.Second); got != time.Second {
		t.Errorf("default = %v", got)
	}
	if got := SliceAnyToString(m["ids"]); len(got) != 2 || got[1] != "12" {
		t.Errorf("SliceAnyToString = %v", got)
	}
	if got := SliceAnyToMaps(m["sources"]); len(got) != 1 || got[0]["type"] != "catalog" {
		t.Errorf("SliceAnyToMaps = %v", got)
	}
	if got := ConfigGetInt(nil, "x", 3); got != 3 {
		t.Errorf("nil map = %d", got)
	}
}
