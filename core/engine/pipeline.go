package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"esim-pricing/core/action"
	"esim-pricing/core/condition"
	"esim-pricing/core/selector"
	"esim-pricing/core/types"
	"esim-pricing/internal/errors"
)

var hundred = decimal.NewFromInt(100)

// emitFunc delivers one audit step; false means the consumer is gone
// and the run should stop emitting (the calculation itself finishes).
type emitFunc func(types.PricingStep) bool

// run executes the pipeline stages in their fixed order. emit may be
// nil for calculate-only callers.
func (e *Engine) run(ctx context.Context, pctx *types.PricingContext, emit emitFunc) (*types.PricingCalculation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Stage 1: bundle selection.
	bundle, err := selector.SelectOptimalBundle(pctx.AvailableBundles, pctx.RequestedDuration)
	if err != nil {
		e.logger.Warn("bundle selection failed",
			zap.Int("requested_duration", pctx.RequestedDuration),
			zap.Int("candidates", len(pctx.AvailableBundles)),
			zap.Error(err))
		return nil, err
	}
	pctx.AttachBundle(bundle)

	// Stage 2: required configuration. A calculation must never
	// proceed with an undefined processing rate.
	if !e.processingRateConfigured() {
		return nil, errors.Config("no active SYSTEM_PROCESSING rule with a SET_PROCESSING_RATE action is configured")
	}

	// Stage 3: fresh state.
	state := types.NewPricingState(bundle, pctx.RequestedDuration)
	emitter := &stepEmitter{emit: emit, now: pctx.Now}

	emitter.send(types.StageInitialization,
		fmt.Sprintf("selected bundle %q (%d days) at cost %s", bundle.Name, bundle.Duration, bundle.Cost),
		types.InitializationStep{
			BundleID:          bundle.ID,
			BaseCost:          bundle.Cost,
			RequestedDuration: pctx.RequestedDuration,
			SelectedDuration:  bundle.Duration,
			UnusedDays:        state.UnusedDays,
		})

	var applied []types.AppliedRule

	// Stage 4: system rule pass.
	applied = e.rulePass(e.systemRules, pctx, state, applied, emitter,
		types.StageSystemRuleEvaluation, types.StageSystemRuleApplication)

	// Stage 5: subtotal, recomputed once after the pass.
	state.Subtotal = state.BaseCost.Add(state.Markup)
	emitter.send(types.StageSubtotalCalculation,
		fmt.Sprintf("subtotal %s = base cost %s + markup %s", state.Subtotal, state.BaseCost, state.Markup),
		types.SubtotalStep{BaseCost: state.BaseCost, Markup: state.Markup, Subtotal: state.Subtotal})

	// Stage 6: business rule pass.
	applied = e.rulePass(e.businessRules, pctx, state, applied, emitter,
		types.StageBusinessRuleEvaluation, types.StageBusinessRuleApplication)

	// Stage 7: unused-days adjustment.
	if state.UnusedDays > 0 {
		e.applyUnusedDaysDiscount(pctx, bundle, state, emitter)
	}

	// Stages 8-10: final price assembly.
	calc := e.finalize(pctx, bundle, state, applied, emitter)

	// Stage 11: done.
	emitter.send(types.StageCompleted,
		fmt.Sprintf("calculation complete, final price %s", calc.FinalPrice),
		types.CompletedStep{FinalPrice: calc.FinalPrice, AppliedRules: len(calc.AppliedRules)})

	return calc, nil
}

// rulePass evaluates one rule category in priority order, emitting an
// evaluation step per rule and an application step per match.
func (e *Engine) rulePass(rules []types.PricingRule, pctx *types.PricingContext, state *types.PricingState,
	applied []types.AppliedRule, emitter *stepEmitter, evalStage, applyStage types.StepStage) []types.AppliedRule {

	now := pctx.Now()
	for _, r := range rules {
		if !r.IsActive || !r.InValidityWindow(now) {
			emitter.send(evalStage,
				fmt.Sprintf("rule %q skipped (inactive or outside validity window)", r.Name),
				types.RuleEvaluationStep{RuleID: r.ID, RuleName: r.Name, RuleType: r.Type, Skipped: true})
			continue
		}

		matched := condition.EvaluateAll(r.Conditions, pctx)
		emitter.send(evalStage,
			fmt.Sprintf("rule %q matched=%t", r.Name, matched),
			types.RuleEvaluationStep{RuleID: r.ID, RuleName: r.Name, RuleType: r.Type, Matched: matched})
		if !matched {
			continue
		}

		impact := action.ExecuteAll(r.Actions, state, r.Name)
		applied = append(applied, types.AppliedRule{
			RuleID:   r.ID,
			RuleName: r.Name,
			RuleType: r.Type,
			Impact:   impact,
		})
		emitter.send(applyStage,
			fmt.Sprintf("rule %q applied with impact %s", r.Name, impact),
			types.RuleApplicationStep{RuleID: r.ID, RuleName: r.Name, RuleType: r.Type, Impact: impact})
	}
	return applied
}

// applyUnusedDaysDiscount computes the dynamic per-day discount from
// the markup difference between the selected bundle and the largest
// available duration at or below the request. Missing markup data
// skips the discount outright; there is no flat-rate fallback.
func (e *Engine) applyUnusedDaysDiscount(pctx *types.PricingContext, bundle types.Bundle, state *types.PricingState, emitter *stepEmitter) {
	previous, ok := selector.PreviousDuration(pctx.AvailableBundles, pctx.RequestedDuration)
	if !ok {
		e.logger.Warn("unused-days discount skipped: no bundle at or below requested duration",
			zap.String("bundle_group", bundle.BundleGroup),
			zap.Int("requested_duration", pctx.RequestedDuration))
		emitter.send(types.StageUnusedDaysCalculation,
			"unused-days discount skipped: no previous-duration bundle",
			types.UnusedDaysStep{UnusedDays: state.UnusedDays, Applied: false})
		return
	}

	selectedMarkup, okSel := e.markupIndex.Lookup(bundle.BundleGroup, bundle.Duration)
	previousMarkup, okPrev := e.markupIndex.Lookup(bundle.BundleGroup, previous.Duration)
	if !okSel || !okPrev || bundle.Duration == previous.Duration {
		e.logger.Warn("unused-days discount skipped: markup not resolvable",
			zap.String("bundle_group", bundle.BundleGroup),
			zap.Int("selected_duration", bundle.Duration),
			zap.Int("previous_duration", previous.Duration))
		emitter.send(types.StageUnusedDaysCalculation,
			"unused-days discount skipped: previous-duration markup not configured",
			types.UnusedDaysStep{UnusedDays: state.UnusedDays, PreviousDuration: previous.Duration, Applied: false})
		return
	}

	days := decimal.NewFromInt(int64(bundle.Duration - previous.Duration))
	discountPerDay := selectedMarkup.Sub(previousMarkup).Div(days)
	total := discountPerDay.Mul(decimal.NewFromInt(int64(state.UnusedDays)))

	state.Discounts = append(state.Discounts, types.Discount{
		RuleName: "Unused days adjustment",
		Amount:   total,
		Type:     types.DiscountUnusedDays,
	})

	emitter.send(types.StageUnusedDaysCalculation,
		fmt.Sprintf("unused-days discount %s (%s/day for %d days)", total, discountPerDay, state.UnusedDays),
		types.UnusedDaysStep{
			UnusedDays:       state.UnusedDays,
			PreviousDuration: previous.Duration,
			DiscountPerDay:   discountPerDay,
			TotalDiscount:    total,
			Applied:          true,
		})
}

// finalize assembles the immutable calculation from the state and runs
// the advisory profit validation.
func (e *Engine) finalize(pctx *types.PricingContext, bundle types.Bundle, state *types.PricingState,
	applied []types.AppliedRule, emitter *stepEmitter) *types.PricingCalculation {

	totalDiscount := state.TotalDiscount()

	minimumPrice, _ := e.lookupConfig(types.RuleSystemMinimumPrice, types.ActionSetMinimumPrice, pctx)
	minimumProfit, _ := e.lookupConfig(types.RuleBusinessMinProfit, types.ActionSetMinimumProfit, pctx)
	perUnusedDay := state.DiscountPerUnusedDay
	if perUnusedDay.IsZero() {
		perUnusedDay, _ = e.lookupConfig(types.RuleBusinessDiscount, types.ActionSetDiscountPerUnusedDay, pctx)
	}

	priceAfterDiscount := state.Subtotal.Sub(totalDiscount)
	if priceAfterDiscount.LessThan(minimumPrice) {
		priceAfterDiscount = minimumPrice
	}

	processingFee := priceAfterDiscount.Mul(state.ProcessingRate)
	finalPrice := priceAfterDiscount.Add(processingFee)
	finalRevenue := finalPrice.Sub(state.BaseCost)
	revenueAfterProcessing := finalPrice.Sub(processingFee).Sub(state.BaseCost)
	profit := revenueAfterProcessing

	emitter.send(types.StageFinalCalculation,
		fmt.Sprintf("final price %s (after discount %s, processing fee %s)", finalPrice, priceAfterDiscount, processingFee),
		types.FinalCalculationStep{
			TotalDiscount:      totalDiscount,
			PriceAfterDiscount: priceAfterDiscount,
			ProcessingFee:      processingFee,
			FinalPrice:         finalPrice,
		})

	// Advisory only: a shortfall is logged and streamed, never fatal.
	passed := !profit.LessThan(minimumProfit)
	if !passed {
		e.logger.Warn("profit below configured minimum",
			zap.String("bundle_id", bundle.ID),
			zap.String("profit", profit.String()),
			zap.String("minimum_profit", minimumProfit.String()))
	}
	emitter.send(types.StageProfitValidation,
		fmt.Sprintf("profit %s vs minimum %s", profit, minimumProfit),
		types.ProfitValidationStep{Profit: profit, MinimumProfit: minimumProfit, Passed: passed})

	maxRecommendedPrice := state.BaseCost.Add(minimumProfit)
	maxDiscountPct := decimal.Zero
	if state.Subtotal.IsPositive() {
		// Profit reduces one-for-one with discount until the floor,
		// so the headroom is subtotal - baseCost - minimumProfit.
		headroom := state.Subtotal.Sub(state.BaseCost).Sub(minimumProfit)
		if headroom.IsPositive() {
			maxDiscountPct = headroom.Div(state.Subtotal).Mul(hundred)
		}
	}

	return &types.PricingCalculation{
		BaseCost:               state.BaseCost,
		Markup:                 state.Markup,
		Subtotal:               state.Subtotal,
		Discounts:              state.Discounts,
		TotalDiscount:          totalDiscount,
		PriceAfterDiscount:     priceAfterDiscount,
		ProcessingFee:          processingFee,
		ProcessingRate:         state.ProcessingRate,
		FinalPrice:             finalPrice,
		FinalRevenue:           finalRevenue,
		RevenueAfterProcessing: revenueAfterProcessing,
		Profit:                 profit,
		MaxRecommendedPrice:    maxRecommendedPrice,
		MaxDiscountPercentage:  maxDiscountPct,
		AppliedRules:           applied,
		SelectedBundle:         bundle.Summary(),
		Metadata: types.CalculationMetadata{
			DiscountPerUnusedDay: perUnusedDay,
			UnusedDays:           state.UnusedDays,
		},
	}
}

// stepEmitter timestamps and forwards steps, going quiet once the
// consumer abandons the stream.
type stepEmitter struct {
	emit    emitFunc
	now     func() time.Time
	stopped bool
}

func (s *stepEmitter) send(stage types.StepStage, message string, payload any) {
	if s.emit == nil || s.stopped {
		return
	}
	step := types.PricingStep{
		Stage:     stage,
		Timestamp: s.now(),
		Message:   message,
		Payload:   payload,
	}
	if !s.emit(step) {
		s.stopped = true
	}
}
