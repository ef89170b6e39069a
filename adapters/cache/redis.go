// Package cache provides a Redis-backed cache for pricing calculation
// results. Caching results is safe because the engine is referentially
// transparent for a fixed context, rule set and evaluation date; the
// cache sits at the caller boundary, never inside the pipeline.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"esim-pricing/core/types"
	"esim-pricing/internal/config"
)

// Key identifies one cacheable calculation. Every context attribute a
// rule condition can observe must be part of the key, or two requests
// that price differently would collide.
type Key struct {
	// BundleID is the selected or requested bundle
	BundleID string

	// RequestedDuration is the requested duration in days
	RequestedDuration int

	// Country is the request country
	Country string

	// PaymentMethod is the payment method
	PaymentMethod string

	// UserID scopes customer-specific discounts; empty for anonymous
	UserID string

	// NewCustomer mirrors the context's customer.is_new attribute
	NewCustomer bool

	// Segment mirrors the context's customer.segment attribute
	Segment string

	// EvaluationDate is the pinned evaluation date (YYYY-MM-DD), empty
	// for wall-clock runs. Wall-clock runs share a key; the TTL bounds
	// staleness across rule validity-window edges.
	EvaluationDate string
}

// KeyFromContext derives the cache key for a request and its selected
// bundle.
func KeyFromContext(pctx *types.PricingContext, bundle types.Bundle, userID string) Key {
	key := Key{
		BundleID:          bundle.ID,
		RequestedDuration: pctx.RequestedDuration,
		Country:           bundle.Country,
		PaymentMethod:     pctx.PaymentMethod,
		UserID:            userID,
	}
	if pctx.Customer != nil {
		key.NewCustomer = pctx.Customer.IsNew
		key.Segment = pctx.Customer.Segment
	}
	if !pctx.CurrentDate.IsZero() {
		key.EvaluationDate = pctx.CurrentDate.Format("2006-01-02")
	}
	return key
}

// String renders the Redis key.
func (k Key) String() string {
	return fmt.Sprintf("pricing:calc:%s:%d:%s:%s:%s:%t:%s:%s",
		k.BundleID, k.RequestedDuration, k.Country, k.PaymentMethod,
		k.UserID, k.NewCustomer, k.Segment, k.EvaluationDate)
}

// Cache stores serialized calculations with a TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New builds a cache from the cache configuration.
func New(cfg config.CacheConfig, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl:    cfg.TTL,
		logger: logger,
	}
}

// Get returns a cached calculation, or ok=false on miss or decode
// failure. Cache errors never fail pricing; they only cost a
// recomputation.
func (c *Cache) Get(ctx context.Context, key Key) (*types.PricingCalculation, bool) {
	data, err := c.client.Get(ctx, key.String()).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("calculation cache read failed", zap.String("key", key.String()), zap.Error(err))
		return nil, false
	}

	var calc types.PricingCalculation
	if err := json.Unmarshal(data, &calc); err != nil {
		c.logger.Warn("calculation cache entry corrupt, dropping",
			zap.String("key", key.String()), zap.Error(err))
		_ = c.client.Del(ctx, key.String()).Err()
		return nil, false
	}
	return &calc, true
}

// Set stores a calculation under the key.
func (c *Cache) Set(ctx context.Context, key Key, calc *types.PricingCalculation) {
	data, err := json.Marshal(calc)
	if err != nil {
		c.logger.Warn("calculation cache encode failed", zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key.String(), data, c.ttl).Err(); err != nil {
		c.logger.Warn("calculation cache write failed", zap.String("key", key.String()), zap.Error(err))
	}
}

// Invalidate drops every cached calculation. Called after a rule
// reload so no stale prices are served.
func (c *Cache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "pricing:calc:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
