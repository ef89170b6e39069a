// Package memory provides an in-memory rule store for tests and
// ad-hoc CLI runs.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"esim-pricing/core/pricing"
	"esim-pricing/core/types"
	"esim-pricing/internal/errors"
)

// Store keeps rules in a map guarded by a mutex. It implements the
// full pricing.RuleStore mutation set.
type Store struct {
	mu    sync.RWMutex
	rules map[string]types.PricingRule
}

var _ pricing.RuleStore = (*Store)(nil)

// New returns an empty store, optionally pre-populated.
func New(rules ...types.PricingRule) *Store {
	s := &Store{rules: make(map[string]types.PricingRule)}
	for _, r := range rules {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		s.rules[r.ID] = r
	}
	return s
}

// FindActiveRules returns every active rule.
func (s *Store) FindActiveRules(ctx context.Context) ([]types.PricingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []types.PricingRule
	for _, r := range s.rules {
		if r.IsActive {
			active = append(active, r)
		}
	}
	return active, nil
}

// Create assigns an ID and stores the rule.
func (s *Store) Create(ctx context.Context, rule types.PricingRule) (types.PricingRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	s.rules[rule.ID] = rule
	return rule, nil
}

// Update replaces an existing rule.
func (s *Store) Update(ctx context.Context, rule types.PricingRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[rule.ID]; !ok {
		return errors.NotFound("pricing rule", rule.ID)
	}
	s.rules[rule.ID] = rule
	return nil
}

// Delete removes a rule.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rules[id]; !ok {
		return errors.NotFound("pricing rule", id)
	}
	delete(s.rules, id)
	return nil
}

// ToggleActive flips a rule's active flag.
func (s *Store) ToggleActive(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rules[id]
	if !ok {
		return errors.NotFound("pricing rule", id)
	}
	r.IsActive = !r.IsActive
	s.rules[id] = r
	return nil
}

// Clone duplicates a rule under a fresh ID. The copy starts inactive
// so it can be edited before going live.
func (s *Store) Clone(ctx context.Context, id string) (types.PricingRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rules[id]
	if !ok {
		return types.PricingRule{}, errors.NotFound("pricing rule", id)
	}

	clone := r
	clone.ID = uuid.NewString()
	clone.Name = r.Name + " (copy)"
	clone.IsActive = false
	clone.Conditions = append([]types.Condition(nil), r.Conditions...)
	clone.Actions = append([]types.Action(nil), r.Actions...)
	s.rules[clone.ID] = clone
	return clone, nil
}

// BulkUpdatePriorities reassigns priorities by rule ID. Unknown IDs
// fail the whole batch.
func (s *Store) BulkUpdatePriorities(ctx context.Context, priorities map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range priorities {
		if _, ok := s.rules[id]; !ok {
			return errors.NotFound("pricing rule", id)
		}
	}
	for id, p := range priorities {
		r := s.rules[id]
		r.Priority = p
		s.rules[id] = r
	}
	return nil
}
