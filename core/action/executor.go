// Package action applies rule actions to a pricing calculation state.
package action

import (
	"github.com/shopspring/decimal"

	"esim-pricing/core/types"
)

var hundred = decimal.NewFromInt(100)

// Execute applies a single action to the state and returns the value
// it reports toward the owning rule's impact. The state is mutated in
// place; unknown action types are a no-op reporting zero.
func Execute(a types.Action, state *types.PricingState, ruleName string) decimal.Decimal {
	switch a.Type {
	case types.ActionAddMarkup:
		state.Markup = state.Markup.Add(a.Value)
		return a.Value

	case types.ActionSetProcessingRate:
		// Rules run in descending priority order, so the first write
		// wins; lower-priority rules report a zero rate change.
		if state.ProcessingRateSet {
			return decimal.Zero
		}
		previous := state.ProcessingRate
		state.ProcessingRate = a.Value
		state.ProcessingRateSet = true
		return a.Value.Sub(previous).Mul(hundred)

	case types.ActionApplyDiscount:
		state.Discounts = append(state.Discounts, types.Discount{
			RuleName: ruleName,
			Amount:   a.Value,
			Type:     types.DiscountFixed,
		})
		return a.Value

	case types.ActionApplyDiscountPct:
		// Percentage of the subtotal as it stands at application time.
		amount := state.Subtotal.Mul(a.Value).Div(hundred)
		state.Discounts = append(state.Discounts, types.Discount{
			RuleName: ruleName,
			Amount:   amount,
			Type:     types.DiscountPercentage,
		})
		return amount

	case types.ActionSetMinimumPrice:
		state.MinimumPrice = a.Value
		return a.Value

	case types.ActionSetMinimumProfit:
		state.MinimumProfit = a.Value
		return a.Value

	case types.ActionSetDiscountPerUnusedDay:
		state.DiscountPerUnusedDay = a.Value
		return a.Value

	default:
		return decimal.Zero
	}
}

// ExecuteAll applies every action of a rule in order and returns the
// summed impact recorded against the rule.
func ExecuteAll(actions []types.Action, state *types.PricingState, ruleName string) decimal.Decimal {
	impact := decimal.Zero
	for _, a := range actions {
		impact = impact.Add(Execute(a, state, ruleName))
	}
	return impact
}
