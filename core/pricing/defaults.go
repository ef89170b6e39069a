package pricing

import (
	"github.com/shopspring/decimal"

	"esim-pricing/core/types"
)

// DefaultRules returns the system configuration seeded into an empty
// rule store: per-payment-method processing rates, a one-cent price
// floor, a $1.50 minimum profit target and a 10% per-unused-day
// metadata rule.
func DefaultRules() []types.PricingRule {
	rate := func(method string, fraction string, priority int) types.PricingRule {
		return types.PricingRule{
			Type:        types.RuleSystemProcessing,
			Name:        "Processing rate: " + method,
			Description: "Default payment-processing rate for " + method,
			Conditions: []types.Condition{
				{Field: "payment_method", Operator: types.OpEquals, Value: types.StringValue(method)},
			},
			Actions: []types.Action{
				{Type: types.ActionSetProcessingRate, Value: decimal.RequireFromString(fraction)},
			},
			Priority:   priority,
			IsActive:   true,
			IsEditable: false,
		}
	}

	return []types.PricingRule{
		rate("card", "0.029", 100),
		rate("paypal", "0.034", 100),
		rate("apple_pay", "0.014", 100),
		rate("google_pay", "0.014", 100),
		rate("bank_transfer", "0", 100),
		{
			Type:        types.RuleSystemProcessing,
			Name:        "Processing rate: fallback",
			Description: "Catch-all processing rate for unrecognized payment methods",
			Actions: []types.Action{
				{Type: types.ActionSetProcessingRate, Value: decimal.RequireFromString("0.029")},
			},
			Priority:   10,
			IsActive:   true,
			IsEditable: false,
		},
		{
			Type:        types.RuleSystemMinimumPrice,
			Name:        "Minimum price floor",
			Description: "A price can never fall below one cent",
			Actions: []types.Action{
				{Type: types.ActionSetMinimumPrice, Value: decimal.RequireFromString("0.01")},
			},
			Priority:   100,
			IsActive:   true,
			IsEditable: false,
		},
		{
			Type:        types.RuleBusinessMinProfit,
			Name:        "Minimum profit target",
			Description: "Advisory profit floor per sale",
			Actions: []types.Action{
				{Type: types.ActionSetMinimumProfit, Value: decimal.RequireFromString("1.50")},
			},
			Priority:   100,
			IsActive:   true,
			IsEditable: true,
		},
		{
			Type:        types.RuleBusinessDiscount,
			Name:        "Default unused-day ratio",
			Description: "Reported per-unused-day discount ratio",
			Actions: []types.Action{
				{Type: types.ActionSetDiscountPerUnusedDay, Value: decimal.RequireFromString("0.10")},
			},
			Priority:   10,
			IsActive:   true,
			IsEditable: true,
		},
	}
}
