package pricing

import (
	"esim-pricing/core/types"
	"esim-pricing/internal/errors"
)

var knownOperators = map[types.Operator]bool{
	types.OpEquals:      true,
	types.OpNotEquals:   true,
	types.OpGreaterThan: true,
	types.OpLessThan:    true,
	types.OpBetween:     true,
	types.OpIn:          true,
}

var knownActions = map[types.ActionType]bool{
	types.ActionAddMarkup:               true,
	types.ActionSetProcessingRate:       true,
	types.ActionApplyDiscount:           true,
	types.ActionApplyDiscountPct:        true,
	types.ActionSetMinimumPrice:         true,
	types.ActionSetMinimumProfit:        true,
	types.ActionSetDiscountPerUnusedDay: true,
}

var knownRuleTypes = map[types.RuleType]bool{
	types.RuleSystemMarkup:       true,
	types.RuleSystemProcessing:   true,
	types.RuleSystemMinimumPrice: true,
	types.RuleBusinessDiscount:   true,
	types.RuleBusinessMinProfit:  true,
	types.RuleBusinessPromotion:  true,
}

// ValidateRule checks a rule's structural integrity before it enters
// an engine. Unknown fields in conditions are allowed (they just never
// match); unknown operators, actions and malformed shapes are not.
func ValidateRule(r types.PricingRule) error {
	if r.Name == "" {
		return errors.Validation("rule has no name")
	}
	if !knownRuleTypes[r.Type] {
		return errors.Newf(errors.TypeValidation, "rule %q has unknown type %q", r.Name, r.Type)
	}
	if r.Priority < 0 || r.Priority > 1000 {
		return errors.Newf(errors.TypeValidation, "rule %q priority %d outside 0-1000", r.Name, r.Priority)
	}
	if len(r.Actions) == 0 {
		return errors.Newf(errors.TypeValidation, "rule %q has no actions", r.Name)
	}

	for _, c := range r.Conditions {
		if c.Field == "" {
			return errors.Newf(errors.TypeValidation, "rule %q has a condition without a field", r.Name)
		}
		if !knownOperators[c.Operator] {
			return errors.Newf(errors.TypeValidation, "rule %q uses unknown operator %q", r.Name, c.Operator)
		}
		if c.Operator == types.OpBetween {
			if c.Value.Kind != types.KindList || len(c.Value.List) != 2 {
				return errors.Newf(errors.TypeValidation, "rule %q BETWEEN condition needs a [start, end] pair", r.Name)
			}
		}
		if c.Operator == types.OpIn && c.Value.Kind != types.KindList {
			return errors.Newf(errors.TypeValidation, "rule %q IN condition needs a list value", r.Name)
		}
	}

	for _, a := range r.Actions {
		if !knownActions[a.Type] {
			return errors.Newf(errors.TypeValidation, "rule %q uses unknown action %q", r.Name, a.Type)
		}
	}

	if r.ValidFrom != nil && r.ValidUntil != nil && r.ValidUntil.Before(*r.ValidFrom) {
		return errors.Newf(errors.TypeValidation, "rule %q validity window ends before it starts", r.Name)
	}

	return nil
}
