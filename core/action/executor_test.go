package action

import (
	"testing"

	"github.com/shopspring/decimal"

	"esim-pricing/core/types"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newState() *types.PricingState {
	return types.NewPricingState(types.Bundle{
		ID:       "b1",
		Duration: 7,
		Cost:     dec("15.00"),
	}, 5)
}

func TestAddMarkupAccumulates(t *testing.T) {
	state := newState()

	first := Execute(types.Action{Type: types.ActionAddMarkup, Value: dec("12.00")}, state, "markup A")
	second := Execute(types.Action{Type: types.ActionAddMarkup, Value: dec("3.00")}, state, "markup B")

	if !state.Markup.Equal(dec("15.00")) {
		t.Errorf("markup = %s, want 15.00", state.Markup)
	}
	if !first.Equal(dec("12.00")) || !second.Equal(dec("3.00")) {
		t.Errorf("applied values = %s, %s; want 12.00, 3.00", first, second)
	}
}

func TestSetProcessingRateFirstWriteWins(t *testing.T) {
	state := newState()

	first := Execute(types.Action{Type: types.ActionSetProcessingRate, Value: dec("0.029")}, state, "high priority")
	second := Execute(types.Action{Type: types.ActionSetProcessingRate, Value: dec("0.014")}, state, "low priority")

	if !state.ProcessingRate.Equal(dec("0.029")) {
		t.Errorf("processing rate = %s, want the first writer's 0.029", state.ProcessingRate)
	}
	if !first.Equal(dec("2.9")) {
		t.Errorf("first applied value = %s, want 2.9 (rate delta x100)", first)
	}
	if !second.IsZero() {
		t.Errorf("second applied value = %s, want 0 for an ignored write", second)
	}
}

func TestApplyFixedDiscount(t *testing.T) {
	state := newState()
	state.Subtotal = dec("27.00")

	applied := Execute(types.Action{Type: types.ActionApplyDiscount, Value: dec("2.50")}, state, "flat promo")

	if len(state.Discounts) != 1 {
		t.Fatalf("discounts = %d entries, want 1", len(state.Discounts))
	}
	d := state.Discounts[0]
	if d.RuleName != "flat promo" || d.Type != types.DiscountFixed || !d.Amount.Equal(dec("2.50")) {
		t.Errorf("discount entry = %+v, want flat promo / fixed / 2.50", d)
	}
	if !applied.Equal(dec("2.50")) {
		t.Errorf("applied = %s, want 2.50", applied)
	}
}

func TestApplyPercentageDiscountUsesCurrentSubtotal(t *testing.T) {
	state := newState()
	state.Subtotal = dec("27.00")

	applied := Execute(types.Action{Type: types.ActionApplyDiscountPct, Value: dec("20")}, state, "DE discount")

	if !applied.Equal(dec("5.4")) {
		t.Errorf("20%% of 27.00 = %s, want 5.4", applied)
	}
	if state.Discounts[0].Type != types.DiscountPercentage {
		t.Errorf("discount type = %s, want percentage", state.Discounts[0].Type)
	}
}

func TestConfigActionsSetStateFields(t *testing.T) {
	state := newState()

	Execute(types.Action{Type: types.ActionSetMinimumPrice, Value: dec("0.01")}, state, "floor")
	Execute(types.Action{Type: types.ActionSetMinimumProfit, Value: dec("1.50")}, state, "profit target")
	Execute(types.Action{Type: types.ActionSetDiscountPerUnusedDay, Value: dec("0.10")}, state, "unused ratio")

	if !state.MinimumPrice.Equal(dec("0.01")) {
		t.Errorf("minimum price = %s, want 0.01", state.MinimumPrice)
	}
	if !state.MinimumProfit.Equal(dec("1.50")) {
		t.Errorf("minimum profit = %s, want 1.50", state.MinimumProfit)
	}
	if !state.DiscountPerUnusedDay.Equal(dec("0.10")) {
		t.Errorf("discount per unused day = %s, want 0.10", state.DiscountPerUnusedDay)
	}
}

func TestUnknownActionIsNoOp(t *testing.T) {
	state := newState()
	before := *state

	applied := Execute(types.Action{Type: "FROBNICATE", Value: dec("99")}, state, "bad rule")

	if !applied.IsZero() {
		t.Errorf("unknown action applied value = %s, want 0", applied)
	}
	if !state.Markup.Equal(before.Markup) || len(state.Discounts) != 0 {
		t.Error("unknown action must not mutate state")
	}
}

func TestExecuteAllSumsImpact(t *testing.T) {
	state := newState()

	actions := []types.Action{
		{Type: types.ActionAddMarkup, Value: dec("10.00")},
		{Type: types.ActionAddMarkup, Value: dec("2.00")},
	}
	impact := ExecuteAll(actions, state, "combined markup")

	if !impact.Equal(dec("12.00")) {
		t.Errorf("summed impact = %s, want 12.00", impact)
	}
}
