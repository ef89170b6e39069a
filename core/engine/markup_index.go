package engine

import (
	"strings"

	"github.com/shopspring/decimal"

	"esim-pricing/core/types"
)

// MarkupKey addresses the markup configured for one duration within a
// bundle group.
type MarkupKey struct {
	BundleGroup string
	Duration    int
}

// MarkupIndex maps (bundle group, duration) to the configured system
// markup. It is built once per engine so the unused-day calculation
// never rescans the rule set.
type MarkupIndex map[MarkupKey]decimal.Decimal

// BuildMarkupIndex extracts the index from SYSTEM_MARKUP rules whose
// conditions pin both a bundle group and a duration with EQUALS. Rules
// arrive sorted by priority descending; the highest-priority rule for
// a key wins.
func BuildMarkupIndex(systemRules []types.PricingRule) MarkupIndex {
	idx := make(MarkupIndex)
	for _, r := range systemRules {
		if r.Type != types.RuleSystemMarkup || !r.IsActive {
			continue
		}
		key, ok := markupKeyFromConditions(r.Conditions)
		if !ok {
			continue
		}
		if _, exists := idx[key]; exists {
			continue
		}
		if v, ok := r.ActionValue(types.ActionAddMarkup); ok {
			idx[key] = v
		}
	}
	return idx
}

// Lookup returns the markup for a group and duration.
func (idx MarkupIndex) Lookup(bundleGroup string, duration int) (decimal.Decimal, bool) {
	v, ok := idx[MarkupKey{BundleGroup: bundleGroup, Duration: duration}]
	return v, ok
}

// markupKeyFromConditions inspects a rule's conditions for the
// bundle-group and duration EQUALS predicates that scope a markup rule.
func markupKeyFromConditions(conds []types.Condition) (MarkupKey, bool) {
	var key MarkupKey
	var haveGroup, haveDuration bool

	for _, c := range conds {
		if c.Operator != types.OpEquals {
			continue
		}
		switch normalizeField(c.Field) {
		case "bundlegroup", "bundle.bundlegroup", "bundle.group":
			if c.Value.Kind == types.KindString {
				key.BundleGroup = c.Value.Str
				haveGroup = true
			}
		case "duration", "bundle.duration":
			if c.Value.Kind == types.KindNumber {
				key.Duration = int(c.Value.Number.IntPart())
				haveDuration = true
			}
		}
	}
	return key, haveGroup && haveDuration
}

// normalizeField matches the context resolver's case- and
// underscore-insensitive field addressing.
func normalizeField(f string) string {
	return strings.ReplaceAll(strings.ToLower(f), "_", "")
}
