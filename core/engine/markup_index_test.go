package engine

import (
	"testing"

	"esim-pricing/core/types"
)

func TestBuildMarkupIndex(t *testing.T) {
	rules := []types.PricingRule{
		markupRule("esim_de", 7, "12.00", 100),
		markupRule("esim_de", 15, "27.00", 100),
		{
			ID:   "no-duration",
			Type: types.RuleSystemMarkup,
			Name: "Group-wide markup",
			Conditions: []types.Condition{
				{Field: "bundle_group", Operator: types.OpEquals, Value: types.StringValue("esim_fr")},
			},
			Actions:  []types.Action{{Type: types.ActionAddMarkup, Value: dec("5.00")}},
			Priority: 100,
			IsActive: true,
		},
	}
	rules[1].ID = "markup-esim_de-15"

	idx := BuildMarkupIndex(rules)

	if v, ok := idx.Lookup("esim_de", 7); !ok || !v.Equal(dec("12.00")) {
		t.Errorf("Lookup(esim_de, 7) = %s ok=%t, want 12.00", v, ok)
	}
	if v, ok := idx.Lookup("esim_de", 15); !ok || !v.Equal(dec("27.00")) {
		t.Errorf("Lookup(esim_de, 15) = %s ok=%t, want 27.00", v, ok)
	}
	// A markup rule without a pinned duration never enters the index.
	if _, ok := idx.Lookup("esim_fr", 0); ok {
		t.Error("rule without a duration condition must not be indexed")
	}
}

func TestMarkupIndexHighestPriorityWins(t *testing.T) {
	high := markupRule("esim_de", 7, "14.00", 200)
	high.ID = "high"
	low := markupRule("esim_de", 7, "10.00", 50)
	low.ID = "low"

	// BuildMarkupIndex expects priority-descending input, which New
	// guarantees. Go through New to exercise the real path.
	eng := New([]types.PricingRule{low, high}, nil)

	if v, ok := eng.markupIndex.Lookup("esim_de", 7); !ok || !v.Equal(dec("14.00")) {
		t.Errorf("Lookup = %s ok=%t, want the priority-200 markup 14.00", v, ok)
	}
}

func TestMarkupIndexSkipsInactiveRules(t *testing.T) {
	inactive := markupRule("esim_de", 7, "12.00", 100)
	inactive.IsActive = false

	idx := BuildMarkupIndex([]types.PricingRule{inactive})
	if _, ok := idx.Lookup("esim_de", 7); ok {
		t.Error("inactive markup rules must not be indexed")
	}
}
