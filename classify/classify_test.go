package classify

import (
	"testing"

	"github.com/BadCoderTaro/Top-Care-Fashion-sub000/core"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		label string
		want  core.OutfitSlot
	}{
		{"T-Shirt", core.SlotTops},
		{"  Hoodie ", core.SlotTops},
		{"Bootcut Jeans", core.SlotBottoms},
		{"Pleated Skirt", core.SlotBottoms},
		{"Running Sneakers", core.SlotShoes},
		{"Chelsea Boots", core.SlotShoes},
		{"Leather Belt", core.SlotAccessories},
		{"Tote Bag", core.SlotAccessories},
		{"Dress", core.SlotDresses},
		{"shirt dress", core.SlotDresses},
		{"SWEATER DRESS", core.SlotDresses},
		{"Dress Shoes", core.SlotDresses},
		{"footwear", core.SlotShoes},
		{"Outerwear", core.SlotTops},
		{"Jewelry", core.SlotAccessories},
		{"denim", core.SlotBottoms},
		{"", core.SlotOther},
		{"   ", core.SlotOther},
		{"home decor", core.SlotOther},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			if got := Classify(tt.label); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", tt.label, got, tt.want)
			}
		})
	}
}

func TestClassifyDressOutranksOtherApparel(t *testing.T) {
	others := []string{"shirt", "top", "sweater", "jacket", "skirt", "boots", "bag", "knit"}
	for _, kw := range others {
		for _, label := range []string{kw + " dress", "dress " + kw, "Midi " + kw + "-Dress"} {
			if got := Classify(label); got != core.SlotDresses {
				t.Errorf("Classify(%q) = %s, want dresses", label, got)
			}
		}
	}
}

func TestClassifyIsPure(t *testing.T) {
	labels := []string{"Shirt Dress", "jeans", "", "mystery", "Sneaker"}
	for _, l := range labels {
		first := Classify(l)
		for i := 0; i < 5; i++ {
			if got := Classify(l); got != first {
				t.Fatalf("Classify(%q) changed from %s to %s", l, first, got)
			}
		}
	}
}

func TestCustomRulesSortedByPriority(t *testing.T) {
	c := New([]Rule{
		{Slot: core.SlotTops, Priority: 1, Keywords: []string{"wrap"}},
		{Slot: core.SlotAccessories, Priority: 10, Keywords: []string{"wrap"}},
	}, nil)
	if got := c.Classify("Wrap"); got != core.SlotAccessories {
		t.Errorf("got %s, want accessories", got)
	}
	if got := c.SlotOf(nil); got != core.SlotOther {
		t.Errorf("SlotOf(nil) = %s, want other", got)
	}
}

func TestExtractColor(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Red Satin Dress", "red"},
		{"NAVY blazer", "navy"},
		{"white and black tee", "black"},
		{"Grey hoodie", "grey"},
		{"linen shirt", "unknown"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		if got := ExtractColor(tt.text); got != tt.want {
			t.Errorf("ExtractColor(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestExtractStyle(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Business Blazer", "formal"},
		{"athletic shorts", "sporty"},
		{"Retro Windbreaker", "vintage"},
		{"urban cargo pants", "streetwear"},
		{"relaxed fit jeans", "casual"},
		{"plain tee", "casual"},
	}
	for _, tt := range tests {
		if got := ExtractStyle(tt.text); got != tt.want {
			t.Errorf("ExtractStyle(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestIsNeutral(t *testing.T) {
	for _, c := range []string{"black", "White", "grey", "gray", "beige", "brown", "navy"} {
		if !IsNeutral(c) {
			t.Errorf("IsNeutral(%q) = false", c)
		}
	}
	for _, c := range []string{"red", "unknown", ""} {
		if IsNeutral(c) {
			t.Errorf("IsNeutral(%q) = true", c)
		}
	}
}
