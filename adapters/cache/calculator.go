package cache

import (
	"context"

	"esim-pricing/core/pricing"
	"esim-pricing/core/selector"
	"esim-pricing/core/types"
)

// Calculator layers the result cache over a pricing service. The cache
// key is derived by running bundle selection up front; selection is
// deterministic, so a request resolves to the same key the pipeline
// will price.
type Calculator struct {
	service *pricing.Service
	cache   *Cache
}

// NewCalculator wraps a service with the cache.
func NewCalculator(service *pricing.Service, cache *Cache) *Calculator {
	return &Calculator{service: service, cache: cache}
}

// CalculatePrice serves the calculation from the cache when possible.
// userID scopes customer-specific results; pass empty for anonymous.
func (c *Calculator) CalculatePrice(ctx context.Context, pctx *types.PricingContext, userID string) (*types.PricingCalculation, error) {
	bundle, err := selector.SelectOptimalBundle(pctx.AvailableBundles, pctx.RequestedDuration)
	if err != nil {
		// Let the service produce the canonical error.
		return c.service.CalculatePrice(ctx, pctx)
	}

	key := KeyFromContext(pctx, bundle, userID)

	if calc, ok := c.cache.Get(ctx, key); ok {
		return calc, nil
	}

	calc, err := c.service.CalculatePrice(ctx, pctx)
	if err != nil {
		return nil, err
	}
	c.cache.Set(ctx, key, calc)
	return calc, nil
}

// Reload rebuilds the service's engine and drops every cached result so
// no price computed under the old rule set is served.
func (c *Calculator) Reload(ctx context.Context) error {
	if err := c.service.ReloadRules(ctx); err != nil {
		return err
	}
	return c.cache.Invalidate(ctx)
}
