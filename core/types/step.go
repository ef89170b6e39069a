package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// StepStage identifies a pipeline stage in the step stream. Stages are
// emitted in a fixed, code-enforced order; steps are read-only audit
// artifacts and are never replayed into state.
type StepStage string

const (
	StageInitialization          StepStage = "INITIALIZATION"
	StageSystemRuleEvaluation    StepStage = "SYSTEM_RULE_EVALUATION"
	StageSystemRuleApplication   StepStage = "SYSTEM_RULE_APPLICATION"
	StageSubtotalCalculation     StepStage = "SUBTOTAL_CALCULATION"
	StageBusinessRuleEvaluation  StepStage = "BUSINESS_RULE_EVALUATION"
	StageBusinessRuleApplication StepStage = "BUSINESS_RULE_APPLICATION"
	StageUnusedDaysCalculation   StepStage = "UNUSED_DAYS_CALCULATION"
	StageFinalCalculation        StepStage = "FINAL_CALCULATION"
	StageProfitValidation        StepStage = "PROFIT_VALIDATION"
	StageCompleted               StepStage = "COMPLETED"
)

// PricingStep is one event in the pipeline's audit stream.
type PricingStep struct {
	// Stage is the pipeline stage that produced the step
	Stage StepStage `json:"stage"`

	// Timestamp is when the step was produced
	Timestamp time.Time `json:"timestamp"`

	// Message is a human-readable description
	Message string `json:"message"`

	// Payload is the typed, stage-specific detail (one of the
	// *Step structs below)
	Payload any `json:"payload,omitempty"`
}

// InitializationStep reports the freshly initialized state.
type InitializationStep struct {
	BundleID          string          `json:"bundle_id"`
	BaseCost          decimal.Decimal `json:"base_cost"`
	RequestedDuration int             `json:"requested_duration"`
	SelectedDuration  int             `json:"selected_duration"`
	UnusedDays        int             `json:"unused_days"`
}

// RuleEvaluationStep reports the outcome of evaluating one rule's
// conditions, for both system and business passes.
type RuleEvaluationStep struct {
	RuleID   string   `json:"rule_id"`
	RuleName string   `json:"rule_name"`
	RuleType RuleType `json:"rule_type"`
	Matched  bool     `json:"matched"`

	// Skipped is set when the rule was inactive or outside its
	// validity window and conditions were never evaluated
	Skipped bool `json:"skipped,omitempty"`
}

// RuleApplicationStep reports the executed actions of a matched rule.
type RuleApplicationStep struct {
	RuleID   string          `json:"rule_id"`
	RuleName string          `json:"rule_name"`
	RuleType RuleType        `json:"rule_type"`
	Impact   decimal.Decimal `json:"impact"`
}

// SubtotalStep reports the computed subtotal.
type SubtotalStep struct {
	BaseCost decimal.Decimal `json:"base_cost"`
	Markup   decimal.Decimal `json:"markup"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// UnusedDaysStep reports the unused-days adjustment.
type UnusedDaysStep struct {
	UnusedDays       int             `json:"unused_days"`
	PreviousDuration int             `json:"previous_duration,omitempty"`
	DiscountPerDay   decimal.Decimal `json:"discount_per_day"`
	TotalDiscount    decimal.Decimal `json:"total_discount"`

	// Applied is false when no previous-duration markup could be
	// resolved and the adjustment was skipped
	Applied bool `json:"applied"`
}

// FinalCalculationStep reports the assembled price breakdown.
type FinalCalculationStep struct {
	TotalDiscount      decimal.Decimal `json:"total_discount"`
	PriceAfterDiscount decimal.Decimal `json:"price_after_discount"`
	ProcessingFee      decimal.Decimal `json:"processing_fee"`
	FinalPrice         decimal.Decimal `json:"final_price"`
}

// ProfitValidationStep reports the advisory profit check.
type ProfitValidationStep struct {
	Profit        decimal.Decimal `json:"profit"`
	MinimumProfit decimal.Decimal `json:"minimum_profit"`
	Passed        bool            `json:"passed"`
}

// CompletedStep closes the stream.
type CompletedStep struct {
	FinalPrice   decimal.Decimal `json:"final_price"`
	AppliedRules int             `json:"applied_rules"`
}
