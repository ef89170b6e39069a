package rulefile

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"esim-pricing/core/pricing"
	"esim-pricing/core/types"
	"esim-pricing/internal/errors"
)

// Store serves rules loaded from a file. Mutations are not supported;
// edit the file and reload instead.
type Store struct {
	path  string
	rules []types.PricingRule
}

var _ pricing.RuleStore = (*Store)(nil)

// Open loads a rule file by extension: .hcl, .yaml or .yml.
func Open(path string) (*Store, error) {
	var (
		rules []types.PricingRule
		err   error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		rules, err = LoadHCL(path)
	case ".yaml", ".yml":
		rules, err = LoadYAML(path)
	default:
		return nil, errors.Newf(errors.TypeStore, "unsupported rule file extension: %s", path)
	}
	if err != nil {
		return nil, err
	}

	// File-authored rules often omit IDs; assign stable-enough ones.
	for i := range rules {
		if rules[i].ID == "" {
			rules[i].ID = uuid.NewString()
		}
	}
	return &Store{path: path, rules: rules}, nil
}

// FindActiveRules returns the active rules from the file.
func (s *Store) FindActiveRules(ctx context.Context) ([]types.PricingRule, error) {
	var active []types.PricingRule
	for _, r := range s.rules {
		if r.IsActive {
			active = append(active, r)
		}
	}
	return active, nil
}

// Rules returns everything in the file, active or not.
func (s *Store) Rules() []types.PricingRule {
	return s.rules
}

// Create is not supported on a file store.
func (s *Store) Create(ctx context.Context, rule types.PricingRule) (types.PricingRule, error) {
	return types.PricingRule{}, errors.NotSupported("creating rules in a file store")
}

// Update is not supported on a file store.
func (s *Store) Update(ctx context.Context, rule types.PricingRule) error {
	return errors.NotSupported("updating rules in a file store")
}

// Delete is not supported on a file store.
func (s *Store) Delete(ctx context.Context, id string) error {
	return errors.NotSupported("deleting rules in a file store")
}

// ToggleActive is not supported on a file store.
func (s *Store) ToggleActive(ctx context.Context, id string) error {
	return errors.NotSupported("toggling rules in a file store")
}

// Clone is not supported on a file store.
func (s *Store) Clone(ctx context.Context, id string) (types.PricingRule, error) {
	return types.PricingRule{}, errors.NotSupported("cloning rules in a file store")
}

// BulkUpdatePriorities is not supported on a file store.
func (s *Store) BulkUpdatePriorities(ctx context.Context, priorities map[string]int) error {
	return errors.NotSupported("reordering rules in a file store")
}
