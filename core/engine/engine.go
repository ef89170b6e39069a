// Package engine runs the pricing pipeline: bundle selection, the
// system and business rule passes, the unused-days adjustment and the
// final price assembly. The pipeline is single-pass and strictly
// ordered; rules never trigger other rules.
package engine

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"esim-pricing/core/condition"
	"esim-pricing/core/types"
)

// Engine evaluates a fixed rule set. The rule slices are read-only
// after construction, so one Engine may serve concurrent calculations;
// a rule reload builds a new Engine and swaps the reference.
type Engine struct {
	systemRules   []types.PricingRule
	businessRules []types.PricingRule
	markupIndex   MarkupIndex
	logger        *zap.Logger
}

// CalcResult carries the terminal outcome of a streamed pipeline run.
type CalcResult struct {
	Calculation *types.PricingCalculation
	Err         error
}

// New categorizes and sorts the rules and builds the markup index.
// Exactly the rules whose type is one of the three system types become
// system rules; everything else is a business rule. Within each
// category evaluation order is priority descending.
func New(rules []types.PricingRule, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	e := &Engine{logger: logger}
	for _, r := range rules {
		if r.IsSystem() {
			e.systemRules = append(e.systemRules, r)
		} else {
			e.businessRules = append(e.businessRules, r)
		}
	}
	sortByPriority(e.systemRules)
	sortByPriority(e.businessRules)
	e.markupIndex = BuildMarkupIndex(e.systemRules)

	logger.Debug("pricing engine built",
		zap.Int("system_rules", len(e.systemRules)),
		zap.Int("business_rules", len(e.businessRules)),
		zap.Int("markup_index_entries", len(e.markupIndex)))
	return e
}

// SystemRules returns the sorted system rules.
func (e *Engine) SystemRules() []types.PricingRule {
	return e.systemRules
}

// BusinessRules returns the sorted business rules.
func (e *Engine) BusinessRules() []types.PricingRule {
	return e.businessRules
}

// Calculate runs the pipeline synchronously and returns the result.
func (e *Engine) Calculate(ctx context.Context, pctx *types.PricingContext) (*types.PricingCalculation, error) {
	return e.run(ctx, pctx, nil)
}

// Stream runs the pipeline in a goroutine, delivering audit steps on
// the first channel and the terminal result on the second. Emission
// honors ctx cancellation, so a caller may abandon iteration without
// leaking the goroutine. Both channels close when the run finishes.
func (e *Engine) Stream(ctx context.Context, pctx *types.PricingContext) (<-chan types.PricingStep, <-chan CalcResult) {
	steps := make(chan types.PricingStep)
	result := make(chan CalcResult, 1)

	go func() {
		defer close(steps)
		defer close(result)

		emit := func(step types.PricingStep) bool {
			select {
			case steps <- step:
				return true
			case <-ctx.Done():
				return false
			}
		}

		calc, err := e.run(ctx, pctx, emit)
		result <- CalcResult{Calculation: calc, Err: err}
	}()

	return steps, result
}

// processingRateConfigured reports whether any active SYSTEM_PROCESSING
// rule carries a SET_PROCESSING_RATE action. Pricing must never proceed
// with an undefined processing rate.
func (e *Engine) processingRateConfigured() bool {
	for _, r := range e.systemRules {
		if r.Type != types.RuleSystemProcessing || !r.IsActive {
			continue
		}
		if _, ok := r.ActionValue(types.ActionSetProcessingRate); ok {
			return true
		}
	}
	return false
}

// lookupConfig resolves a configuration value carried by the
// highest-priority active, matching rule of the given type with the
// given action. This replaces threading floor values through the
// generic action path.
func (e *Engine) lookupConfig(ruleType types.RuleType, actionType types.ActionType, pctx *types.PricingContext) (decimal.Decimal, bool) {
	rules := e.businessRules
	if ruleType.IsSystem() {
		rules = e.systemRules
	}
	for _, r := range rules {
		if r.Type != ruleType || !r.IsActive || !r.InValidityWindow(pctx.Now()) {
			continue
		}
		v, ok := r.ActionValue(actionType)
		if !ok {
			continue
		}
		if condition.EvaluateAll(r.Conditions, pctx) {
			return v, true
		}
	}
	return decimal.Zero, false
}

func sortByPriority(rules []types.PricingRule) {
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority > rules[j].Priority
	})
}
