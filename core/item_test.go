package core

import (
	"testing"

	"github.com/goccy/go-json"
)

func TestItemDecodeID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"string", `{"id":"l-42","title":"Tee","price":12.5}`, "l-42"},
		{"integer", `{"id":42,"title":"Tee","price":12.5}`, "42"},
		{"null", `{"id":null,"title":"Tee","price":12.5}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var it Item
			if err := json.Unmarshal([]byte(tt.in), &it); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if it.ID != tt.want {
				t.Errorf("id = %q, want %q", it.ID, tt.want)
			}
			if it.Title != "Tee" || it.Price != 12.5 {
				t.Errorf("other fields lost: %+v", it)
			}
		})
	}
}

func TestItemDecodeRejectsBadID(t *testing.T) {
	var it Item
	if err := json.Unmarshal([]byte(`{"id":"unterminated}`), &it); err == nil {
		t.Error("expected error for malformed id")
	}
}
