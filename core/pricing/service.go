package pricing

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"esim-pricing/core/engine"
	"esim-pricing/core/types"
	"esim-pricing/internal/errors"
)

// Service is the pricing facade: it loads active rules from the store,
// keeps an engine snapshot, and exposes the calculate and stream APIs.
// Construct one per dependency scope and inject it; there is no global
// instance. Reload swaps the engine atomically, so in-flight
// calculations finish against the snapshot they started with.
type Service struct {
	store  RuleStore
	logger *zap.Logger
	engine atomic.Pointer[engine.Engine]
}

// NewService builds an uninitialized service. Call Initialize before
// pricing.
func NewService(store RuleStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger}
}

// Initialize loads active rules from the store. When the store holds
// none, the documented default system rules are seeded through the
// store first and the load repeated.
func (s *Service) Initialize(ctx context.Context) error {
	rules, err := s.store.FindActiveRules(ctx)
	if err != nil {
		return errors.Store("loading active rules", err)
	}

	if len(rules) == 0 {
		s.logger.Info("no active pricing rules found, seeding defaults")
		for _, r := range DefaultRules() {
			if _, err := s.store.Create(ctx, r); err != nil {
				if errors.IsType(err, errors.TypeNotSupported) {
					// Read-only store: run with what it has and let
					// the engine surface the configuration error.
					s.logger.Warn("rule store is read-only, defaults not seeded")
					break
				}
				return errors.Store("seeding default rules", err)
			}
		}
		rules, err = s.store.FindActiveRules(ctx)
		if err != nil {
			return errors.Store("reloading rules after seeding", err)
		}
	}

	s.installRules(rules)
	return nil
}

// ReloadRules rebuilds the engine from the store. Callers invoke this
// after any rule mutation (create, update, delete, toggle, clone,
// reorder).
func (s *Service) ReloadRules(ctx context.Context) error {
	rules, err := s.store.FindActiveRules(ctx)
	if err != nil {
		return errors.Store("reloading active rules", err)
	}
	s.installRules(rules)
	return nil
}

// CalculatePrice runs a full pricing calculation for the context.
func (s *Service) CalculatePrice(ctx context.Context, pctx *types.PricingContext) (*types.PricingCalculation, error) {
	eng, err := s.currentEngine(ctx)
	if err != nil {
		return nil, err
	}
	return eng.Calculate(ctx, pctx)
}

// StreamPricingSteps exposes the engine's audit step stream alongside
// the terminal result.
func (s *Service) StreamPricingSteps(ctx context.Context, pctx *types.PricingContext) (<-chan types.PricingStep, <-chan engine.CalcResult, error) {
	eng, err := s.currentEngine(ctx)
	if err != nil {
		return nil, nil, err
	}
	steps, result := eng.Stream(ctx, pctx)
	return steps, result, nil
}

// ValidateContext runs pre-flight checks on a pricing context and
// returns human-readable problems; an empty slice means valid. Callers
// check this before CalculatePrice.
func (s *Service) ValidateContext(pctx *types.PricingContext) []string {
	var problems []string

	if pctx.RequestedDuration < 1 {
		problems = append(problems, "requested duration must be at least 1 day")
	}
	if len(pctx.AvailableBundles) == 0 {
		problems = append(problems, "at least one candidate bundle is required")
	}
	for _, b := range pctx.AvailableBundles {
		if !b.Cost.IsPositive() {
			problems = append(problems, "bundle "+b.ID+" has a non-positive cost")
		}
		if b.Duration < 1 {
			problems = append(problems, "bundle "+b.ID+" has a duration below 1 day")
		}
	}
	return problems
}

// installRules validates, filters and installs a rule set as a new
// engine snapshot. Invalid rules are skipped with a warning rather
// than failing the load: rules are user-authored data.
func (s *Service) installRules(rules []types.PricingRule) {
	valid := rules[:0:0]
	for _, r := range rules {
		if err := ValidateRule(r); err != nil {
			s.logger.Warn("skipping invalid pricing rule",
				zap.String("rule_id", r.ID),
				zap.String("rule_name", r.Name),
				zap.Error(err))
			continue
		}
		valid = append(valid, r)
	}

	s.engine.Store(engine.New(valid, s.logger))
	s.logger.Info("pricing rules installed",
		zap.Int("loaded", len(rules)),
		zap.Int("valid", len(valid)))
}

func (s *Service) currentEngine(ctx context.Context) (*engine.Engine, error) {
	if eng := s.engine.Load(); eng != nil {
		return eng, nil
	}
	// Lazily initialize on first use.
	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	return s.engine.Load(), nil
}
