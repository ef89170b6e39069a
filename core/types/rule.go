package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleType categorizes a pricing rule.
type RuleType string

const (
	RuleSystemMarkup       RuleType = "SYSTEM_MARKUP"
	RuleSystemProcessing   RuleType = "SYSTEM_PROCESSING"
	RuleSystemMinimumPrice RuleType = "SYSTEM_MINIMUM_PRICE"
	RuleBusinessDiscount   RuleType = "BUSINESS_DISCOUNT"
	RuleBusinessMinProfit  RuleType = "BUSINESS_MINIMUM_PROFIT"
	RuleBusinessPromotion  RuleType = "BUSINESS_PROMOTION"
)

// IsSystem reports whether the type belongs to the system category.
// System rules are evaluated before business rules and are not
// user-editable; everything else is a business rule.
func (t RuleType) IsSystem() bool {
	switch t {
	case RuleSystemMarkup, RuleSystemProcessing, RuleSystemMinimumPrice:
		return true
	}
	return false
}

// Operator is a condition comparison operator.
type Operator string

const (
	OpEquals      Operator = "EQUALS"
	OpNotEquals   Operator = "NOT_EQUALS"
	OpGreaterThan Operator = "GREATER_THAN"
	OpLessThan    Operator = "LESS_THAN"
	OpBetween     Operator = "BETWEEN"
	OpIn          Operator = "IN"
)

// ActionType identifies the operation a rule action performs.
type ActionType string

const (
	ActionAddMarkup               ActionType = "ADD_MARKUP"
	ActionSetProcessingRate       ActionType = "SET_PROCESSING_RATE"
	ActionApplyDiscount           ActionType = "APPLY_DISCOUNT"
	ActionApplyDiscountPct        ActionType = "APPLY_DISCOUNT_PERCENTAGE"
	ActionSetMinimumPrice         ActionType = "SET_MINIMUM_PRICE"
	ActionSetMinimumProfit        ActionType = "SET_MINIMUM_PROFIT"
	ActionSetDiscountPerUnusedDay ActionType = "SET_DISCOUNT_PER_UNUSED_DAY"
)

// Condition is a single predicate over the pricing context. A rule
// matches only when all of its conditions hold (AND semantics).
type Condition struct {
	// Field is a dot-addressable path into the pricing context,
	// e.g. "bundle.is_unlimited" or the denormalized "country"
	Field string `json:"field"`

	// Operator is the comparison to perform
	Operator Operator `json:"operator"`

	// Value is the typed comparison value, resolved at rule load
	Value Value `json:"value"`
}

// Action is a single typed operation applied when a rule matches.
type Action struct {
	// Type selects the operation
	Type ActionType `json:"type"`

	// Value is the operation's numeric parameter: an absolute amount
	// for markups and fixed discounts, a fraction for processing
	// rates, a percentage for percentage discounts
	Value decimal.Decimal `json:"value"`
}

// PricingRule is one rule in the pricing pipeline. Rules are immutable
// once loaded into an engine; a reload replaces the whole set.
type PricingRule struct {
	// ID uniquely identifies the rule
	ID string `json:"id"`

	// Type categorizes the rule (see RuleType)
	Type RuleType `json:"type"`

	// Name is the human-readable rule name
	Name string `json:"name"`

	// Description explains the rule's intent
	Description string `json:"description,omitempty"`

	// Conditions are AND-combined predicates; an empty list always matches
	Conditions []Condition `json:"conditions"`

	// Actions are applied in order when the rule matches
	Actions []Action `json:"actions"`

	// Priority orders evaluation within the rule's category,
	// 0-1000, higher first
	Priority int `json:"priority"`

	// IsActive gates the rule without deleting it
	IsActive bool `json:"is_active"`

	// IsEditable is false for system rules
	IsEditable bool `json:"is_editable"`

	// ValidFrom is the start of the validity window (nil = always)
	ValidFrom *time.Time `json:"valid_from,omitempty"`

	// ValidUntil is the end of the validity window (nil = always)
	ValidUntil *time.Time `json:"valid_until,omitempty"`
}

// IsSystem reports whether the rule is a system rule.
func (r PricingRule) IsSystem() bool {
	return r.Type.IsSystem()
}

// InValidityWindow reports whether the rule is valid at the given time.
func (r PricingRule) InValidityWindow(at time.Time) bool {
	if r.ValidFrom != nil && at.Before(*r.ValidFrom) {
		return false
	}
	if r.ValidUntil != nil && at.After(*r.ValidUntil) {
		return false
	}
	return true
}

// ActionValue returns the value of the first action of the given type
// and whether one exists.
func (r PricingRule) ActionValue(t ActionType) (decimal.Decimal, bool) {
	for _, a := range r.Actions {
		if a.Type == t {
			return a.Value, true
		}
	}
	return decimal.Decimal{}, false
}
