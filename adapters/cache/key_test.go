package cache

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"esim-pricing/core/types"
)

func keyContext() *types.PricingContext {
	return &types.PricingContext{
		AvailableBundles: []types.Bundle{{
			ID:          "de-7d",
			BundleGroup: "esim_de",
			Duration:    7,
			Cost:        decimal.RequireFromString("15.00"),
			Country:     "DE",
			Region:      "Europe",
		}},
		RequestedDuration: 5,
		PaymentMethod:     "card",
	}
}

func TestKeyFromContextIsStable(t *testing.T) {
	a := KeyFromContext(keyContext(), keyContext().AvailableBundles[0], "user-1")
	b := KeyFromContext(keyContext(), keyContext().AvailableBundles[0], "user-1")
	assert.Equal(t, a.String(), b.String())
}

func TestKeyReflectsCustomerAttributes(t *testing.T) {
	bundle := keyContext().AvailableBundles[0]
	anonymous := KeyFromContext(keyContext(), bundle, "")

	// A first-time customer can match different discount rules, so the
	// cached anonymous price must never be served back.
	newCustomer := keyContext()
	newCustomer.Customer = &types.CustomerInfo{IsNew: true}
	assert.NotEqual(t, anonymous.String(), KeyFromContext(newCustomer, bundle, "").String())

	segmented := keyContext()
	segmented.Customer = &types.CustomerInfo{Segment: "vip"}
	assert.NotEqual(t, anonymous.String(), KeyFromContext(segmented, bundle, "").String())

	identified := KeyFromContext(keyContext(), bundle, "user-1")
	assert.NotEqual(t, anonymous.String(), identified.String())
}

func TestKeyReflectsEvaluationDate(t *testing.T) {
	bundle := keyContext().AvailableBundles[0]
	wallClock := KeyFromContext(keyContext(), bundle, "")

	pinned := keyContext()
	pinned.CurrentDate = time.Date(2026, 12, 26, 10, 0, 0, 0, time.UTC)
	pinnedKey := KeyFromContext(pinned, bundle, "")

	// Validity-windowed rules make the evaluation date price-relevant.
	assert.NotEqual(t, wallClock.String(), pinnedKey.String())

	otherDay := keyContext()
	otherDay.CurrentDate = time.Date(2027, 1, 11, 10, 0, 0, 0, time.UTC)
	assert.NotEqual(t, pinnedKey.String(), KeyFromContext(otherDay, bundle, "").String())

	// Time of day does not split the cache; pinned dates arrive at day
	// granularity.
	sameDay := keyContext()
	sameDay.CurrentDate = time.Date(2026, 12, 26, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, pinnedKey.String(), KeyFromContext(sameDay, bundle, "").String())
}

func TestKeyCarriesRequestIdentity(t *testing.T) {
	bundle := keyContext().AvailableBundles[0]
	base := KeyFromContext(keyContext(), bundle, "")

	otherDuration := keyContext()
	otherDuration.RequestedDuration = 7
	assert.NotEqual(t, base.String(), KeyFromContext(otherDuration, bundle, "").String())

	otherMethod := keyContext()
	otherMethod.PaymentMethod = "paypal"
	assert.NotEqual(t, base.String(), KeyFromContext(otherMethod, bundle, "").String())
}
