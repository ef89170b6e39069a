// Package pricing exposes the calculation facade over the rule engine
// and defines the rule-store contract its collaborators implement.
package pricing

import (
	"context"

	"esim-pricing/core/types"
)

// RuleStore is the persistence contract for pricing rules. Mutations
// do not touch any live engine; the caller must invoke
// Service.ReloadRules afterwards so the in-memory rule set never goes
// stale.
type RuleStore interface {
	// FindActiveRules returns every active rule
	FindActiveRules(ctx context.Context) ([]types.PricingRule, error)

	// Create persists a new rule and returns it with its assigned ID
	Create(ctx context.Context, rule types.PricingRule) (types.PricingRule, error)

	// Update replaces an existing rule by ID
	Update(ctx context.Context, rule types.PricingRule) error

	// Delete removes a rule by ID
	Delete(ctx context.Context, id string) error

	// ToggleActive flips a rule's active flag
	ToggleActive(ctx context.Context, id string) error

	// Clone duplicates a rule under a new ID and returns the copy
	Clone(ctx context.Context, id string) (types.PricingRule, error)

	// BulkUpdatePriorities reassigns priorities by rule ID
	BulkUpdatePriorities(ctx context.Context, priorities map[string]int) error
}
