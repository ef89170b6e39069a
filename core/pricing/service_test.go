package pricing_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esim-pricing/adapters/rulestore/memory"
	"esim-pricing/core/pricing"
	"esim-pricing/core/types"
	"esim-pricing/internal/errors"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func simpleContext() *types.PricingContext {
	return &types.PricingContext{
		AvailableBundles: []types.Bundle{{
			ID:          "fr-7d",
			Name:        "France 7 Days",
			BundleGroup: "esim_fr",
			Duration:    7,
			Cost:        dec("10.00"),
			Country:     "FR",
			Region:      "Europe",
		}},
		RequestedDuration: 7,
		PaymentMethod:     "card",
		CurrentDate:       time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}
}

func TestInitializeSeedsDefaultsWhenStoreIsEmpty(t *testing.T) {
	store := memory.New()
	svc := pricing.NewService(store, nil)

	require.NoError(t, svc.Initialize(context.Background()))

	seeded, err := store.FindActiveRules(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, seeded, "defaults must be written through the store")

	// With only defaults loaded: no markup, no discounts, card rate 0.029.
	calc, err := svc.CalculatePrice(context.Background(), simpleContext())
	require.NoError(t, err)
	assert.True(t, calc.FinalPrice.Equal(dec("10.29")),
		"final price = %s, want 10.29", calc.FinalPrice)
	assert.True(t, calc.ProcessingRate.Equal(dec("0.029")))
}

func TestInitializeSkipsSeedingWhenRulesExist(t *testing.T) {
	existing := types.PricingRule{
		ID:       "only-rule",
		Type:     types.RuleSystemProcessing,
		Name:     "Flat processing",
		Actions:  []types.Action{{Type: types.ActionSetProcessingRate, Value: dec("0.05")}},
		Priority: 100,
		IsActive: true,
	}
	store := memory.New(existing)
	svc := pricing.NewService(store, nil)

	require.NoError(t, svc.Initialize(context.Background()))

	rules, err := store.FindActiveRules(context.Background())
	require.NoError(t, err)
	assert.Len(t, rules, 1, "a non-empty store must not be reseeded")
}

// readOnlyStore serves a fixed rule set and rejects every mutation.
type readOnlyStore struct {
	rules []types.PricingRule
}

func (s *readOnlyStore) FindActiveRules(ctx context.Context) ([]types.PricingRule, error) {
	return s.rules, nil
}

func (s *readOnlyStore) Create(ctx context.Context, rule types.PricingRule) (types.PricingRule, error) {
	return types.PricingRule{}, errors.NotSupported("create")
}

func (s *readOnlyStore) Update(ctx context.Context, rule types.PricingRule) error {
	return errors.NotSupported("update")
}

func (s *readOnlyStore) Delete(ctx context.Context, id string) error {
	return errors.NotSupported("delete")
}

func (s *readOnlyStore) ToggleActive(ctx context.Context, id string) error {
	return errors.NotSupported("toggle")
}

func (s *readOnlyStore) Clone(ctx context.Context, id string) (types.PricingRule, error) {
	return types.PricingRule{}, errors.NotSupported("clone")
}

func (s *readOnlyStore) BulkUpdatePriorities(ctx context.Context, priorities map[string]int) error {
	return errors.NotSupported("bulk update priorities")
}

func TestInitializeToleratesReadOnlyStore(t *testing.T) {
	svc := pricing.NewService(&readOnlyStore{}, nil)

	// Seeding is impossible, but initialization must not fail.
	require.NoError(t, svc.Initialize(context.Background()))

	// Without a processing rule the configuration error surfaces at
	// calculation time instead.
	_, err := svc.CalculatePrice(context.Background(), simpleContext())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeConfig), "got %v", err)
}

func TestReloadRulesPicksUpStoreChanges(t *testing.T) {
	store := memory.New(types.PricingRule{
		ID:       "proc",
		Type:     types.RuleSystemProcessing,
		Name:     "Flat processing",
		Actions:  []types.Action{{Type: types.ActionSetProcessingRate, Value: dec("0.02")}},
		Priority: 100,
		IsActive: true,
	})
	svc := pricing.NewService(store, nil)
	require.NoError(t, svc.Initialize(context.Background()))

	before, err := svc.CalculatePrice(context.Background(), simpleContext())
	require.NoError(t, err)
	assert.True(t, before.TotalDiscount.IsZero())

	_, err = store.Create(context.Background(), types.PricingRule{
		Type:     types.RuleBusinessDiscount,
		Name:     "Ten percent off",
		Actions:  []types.Action{{Type: types.ActionApplyDiscountPct, Value: dec("10")}},
		Priority: 100,
		IsActive: true,
	})
	require.NoError(t, err)

	// The running engine snapshot is unaffected until reload.
	stale, err := svc.CalculatePrice(context.Background(), simpleContext())
	require.NoError(t, err)
	assert.True(t, stale.TotalDiscount.IsZero())

	require.NoError(t, svc.ReloadRules(context.Background()))

	after, err := svc.CalculatePrice(context.Background(), simpleContext())
	require.NoError(t, err)
	assert.True(t, after.TotalDiscount.Equal(dec("1")),
		"total discount = %s, want 1 (10%% of subtotal 10)", after.TotalDiscount)
}

func TestInvalidStoredRulesAreSkipped(t *testing.T) {
	store := memory.New(
		types.PricingRule{
			ID:       "proc",
			Type:     types.RuleSystemProcessing,
			Name:     "Flat processing",
			Actions:  []types.Action{{Type: types.ActionSetProcessingRate, Value: dec("0.02")}},
			Priority: 100,
			IsActive: true,
		},
		types.PricingRule{
			ID:       "broken",
			Type:     types.RuleBusinessDiscount,
			Name:     "No actions",
			Priority: 100,
			IsActive: true,
		},
	)
	svc := pricing.NewService(store, nil)
	require.NoError(t, svc.Initialize(context.Background()))

	calc, err := svc.CalculatePrice(context.Background(), simpleContext())
	require.NoError(t, err)
	for _, r := range calc.AppliedRules {
		assert.NotEqual(t, "broken", r.RuleID)
	}
}

func TestCalculatePriceLazilyInitializes(t *testing.T) {
	svc := pricing.NewService(memory.New(), nil)

	// No explicit Initialize: the first calculation triggers it,
	// including default seeding.
	calc, err := svc.CalculatePrice(context.Background(), simpleContext())
	require.NoError(t, err)
	assert.True(t, calc.FinalPrice.Equal(dec("10.29")))
}

func TestValidateContext(t *testing.T) {
	svc := pricing.NewService(memory.New(), nil)

	tests := []struct {
		name     string
		mutate   func(*types.PricingContext)
		problems int
	}{
		{"valid", func(p *types.PricingContext) {}, 0},
		{"zero duration", func(p *types.PricingContext) { p.RequestedDuration = 0 }, 1},
		{"no bundles", func(p *types.PricingContext) { p.AvailableBundles = nil }, 1},
		{"zero cost bundle", func(p *types.PricingContext) {
			p.AvailableBundles[0].Cost = decimal.Zero
		}, 1},
		{"zero duration bundle", func(p *types.PricingContext) {
			p.AvailableBundles[0].Duration = 0
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pctx := simpleContext()
			tt.mutate(pctx)
			assert.Len(t, svc.ValidateContext(pctx), tt.problems)
		})
	}
}

func TestValidateRule(t *testing.T) {
	valid := types.PricingRule{
		Type: types.RuleBusinessDiscount,
		Name: "Seasonal promo",
		Conditions: []types.Condition{
			{Field: "country", Operator: types.OpEquals, Value: types.StringValue("DE")},
		},
		Actions:  []types.Action{{Type: types.ActionApplyDiscountPct, Value: dec("10")}},
		Priority: 500,
		IsActive: true,
	}

	tests := []struct {
		name   string
		mutate func(*types.PricingRule)
		valid  bool
	}{
		{"valid rule", func(r *types.PricingRule) {}, true},
		{"missing name", func(r *types.PricingRule) { r.Name = "" }, false},
		{"unknown type", func(r *types.PricingRule) { r.Type = "MYSTERY" }, false},
		{"priority too high", func(r *types.PricingRule) { r.Priority = 1001 }, false},
		{"no actions", func(r *types.PricingRule) { r.Actions = nil }, false},
		{"unknown operator", func(r *types.PricingRule) {
			r.Conditions[0].Operator = "LIKE"
		}, false},
		{"unknown action", func(r *types.PricingRule) {
			r.Actions[0].Type = "EXPLODE"
		}, false},
		{"between needs a pair", func(r *types.PricingRule) {
			r.Conditions[0].Operator = types.OpBetween
			r.Conditions[0].Value = types.StringValue("7")
		}, false},
		{"between with pair", func(r *types.PricingRule) {
			r.Conditions[0].Operator = types.OpBetween
			r.Conditions[0].Value = types.RangeValue(
				types.NumberValue(decimal.NewFromInt(7)),
				types.NumberValue(decimal.NewFromInt(30)),
			)
		}, true},
		{"in needs a list", func(r *types.PricingRule) {
			r.Conditions[0].Operator = types.OpIn
			r.Conditions[0].Value = types.StringValue("DE")
		}, false},
		{"inverted validity window", func(r *types.PricingRule) {
			from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
			until := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
			r.ValidFrom, r.ValidUntil = &from, &until
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			r.Conditions = append([]types.Condition(nil), valid.Conditions...)
			r.Actions = append([]types.Action(nil), valid.Actions...)
			tt.mutate(&r)

			err := pricing.ValidateRule(r)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}
