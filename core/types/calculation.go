package types

import "github.com/shopspring/decimal"

// DiscountType distinguishes how a discount entry was computed.
type DiscountType string

const (
	// DiscountFixed is an absolute amount
	DiscountFixed DiscountType = "fixed"

	// DiscountPercentage was computed as a percentage of the subtotal
	DiscountPercentage DiscountType = "percentage"

	// DiscountUnusedDays is the dynamic unused-days adjustment
	DiscountUnusedDays DiscountType = "unused_days"
)

// Discount is one applied discount line.
type Discount struct {
	// RuleName names the rule (or pipeline step) that granted it
	RuleName string `json:"rule_name"`

	// Amount is the discounted amount
	Amount decimal.Decimal `json:"amount"`

	// Type records how the amount was derived
	Type DiscountType `json:"type"`
}

// PricingState is the mutable working state of one calculation. It is
// created fresh per calculation, mutated in place by the action
// executor, and discarded once the PricingCalculation is produced.
// Never shared across calculations.
type PricingState struct {
	// BaseCost is the selected bundle's wholesale cost
	BaseCost decimal.Decimal

	// Markup is the accumulated absolute markup
	Markup decimal.Decimal

	// Subtotal is BaseCost + Markup once system rules have run;
	// before that it equals BaseCost
	Subtotal decimal.Decimal

	// Discounts are applied discount lines, in application order
	Discounts []Discount

	// ProcessingRate is the payment-processing fraction
	ProcessingRate decimal.Decimal

	// ProcessingRateSet records whether a SET_PROCESSING_RATE action
	// has fired; the first (highest-priority) write wins
	ProcessingRateSet bool

	// MinimumPrice is the configured price floor
	MinimumPrice decimal.Decimal

	// MinimumProfit is the configured profit target
	MinimumProfit decimal.Decimal

	// DiscountPerUnusedDay is the configured per-unused-day ratio,
	// reported in calculation metadata
	DiscountPerUnusedDay decimal.Decimal

	// UnusedDays is selected duration minus requested duration, >= 0
	UnusedDays int
}

// NewPricingState initializes state for a selected bundle.
func NewPricingState(bundle Bundle, requestedDuration int) *PricingState {
	unused := bundle.Duration - requestedDuration
	if unused < 0 {
		unused = 0
	}
	return &PricingState{
		BaseCost:   bundle.Cost,
		Markup:     decimal.Zero,
		Subtotal:   bundle.Cost,
		UnusedDays: unused,
	}
}

// TotalDiscount sums all applied discount lines.
func (s *PricingState) TotalDiscount() decimal.Decimal {
	total := decimal.Zero
	for _, d := range s.Discounts {
		total = total.Add(d.Amount)
	}
	return total
}

// AppliedRule records one rule that matched and had its actions executed.
type AppliedRule struct {
	// RuleID is the rule identifier
	RuleID string `json:"rule_id"`

	// RuleName is the rule's display name
	RuleName string `json:"rule_name"`

	// RuleType is the rule category
	RuleType RuleType `json:"rule_type"`

	// Impact is the sum of the rule's individually reported action values
	Impact decimal.Decimal `json:"impact"`
}

// CalculationMetadata carries diagnostic extras on a calculation.
type CalculationMetadata struct {
	// DiscountPerUnusedDay is the configured per-unused-day ratio
	DiscountPerUnusedDay decimal.Decimal `json:"discount_per_unused_day"`

	// UnusedDays is the number of days the customer paid for but did
	// not request
	UnusedDays int `json:"unused_days"`
}

// PricingCalculation is the immutable result of one pipeline run.
type PricingCalculation struct {
	// BaseCost is the wholesale cost of the selected bundle
	BaseCost decimal.Decimal `json:"base_cost"`

	// Markup is the total system markup applied
	Markup decimal.Decimal `json:"markup"`

	// Subtotal is BaseCost + Markup
	Subtotal decimal.Decimal `json:"subtotal"`

	// Discounts lists every applied discount line
	Discounts []Discount `json:"discounts"`

	// TotalDiscount is the sum of Discounts
	TotalDiscount decimal.Decimal `json:"total_discount"`

	// PriceAfterDiscount is max(minimum price, Subtotal - TotalDiscount)
	PriceAfterDiscount decimal.Decimal `json:"price_after_discount"`

	// ProcessingFee is PriceAfterDiscount * ProcessingRate
	ProcessingFee decimal.Decimal `json:"processing_fee"`

	// ProcessingRate is the applied payment-processing fraction
	ProcessingRate decimal.Decimal `json:"processing_rate"`

	// FinalPrice is PriceAfterDiscount + ProcessingFee
	FinalPrice decimal.Decimal `json:"final_price"`

	// FinalRevenue is FinalPrice - BaseCost
	FinalRevenue decimal.Decimal `json:"final_revenue"`

	// RevenueAfterProcessing is FinalPrice - ProcessingFee - BaseCost
	RevenueAfterProcessing decimal.Decimal `json:"revenue_after_processing"`

	// Profit equals RevenueAfterProcessing
	Profit decimal.Decimal `json:"profit"`

	// MaxRecommendedPrice is BaseCost + minimum profit target
	MaxRecommendedPrice decimal.Decimal `json:"max_recommended_price"`

	// MaxDiscountPercentage is the largest subtotal percentage that
	// still leaves the minimum profit target
	MaxDiscountPercentage decimal.Decimal `json:"max_discount_percentage"`

	// AppliedRules lists the rules that fired, in application order
	AppliedRules []AppliedRule `json:"applied_rules"`

	// SelectedBundle summarizes the priced bundle
	SelectedBundle BundleSummary `json:"selected_bundle"`

	// Metadata carries diagnostic extras
	Metadata CalculationMetadata `json:"metadata"`
}
