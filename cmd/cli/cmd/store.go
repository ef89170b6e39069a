package cmd

import (
	"context"
	"fmt"
	"io"

	"esim-pricing/adapters/rulestore/memory"
	"esim-pricing/adapters/rulestore/postgres"
	"esim-pricing/adapters/rulestore/rulefile"
	"esim-pricing/core/pricing"
	"esim-pricing/internal/config"
	"esim-pricing/internal/logging"
)

// openRuleStore resolves the rule store for a command run. An explicit
// --rules file takes precedence; otherwise the configured backend is
// opened. The returned closer is a no-op for stores without one.
func openRuleStore(ctx context.Context, explicitFile string) (pricing.RuleStore, func(), error) {
	noop := func() {}

	if explicitFile != "" {
		store, err := rulefile.Open(explicitFile)
		return store, noop, err
	}

	cfg := config.Get()
	switch cfg.Store.Backend {
	case "", "memory":
		return memory.New(), noop, nil
	case "file":
		if cfg.Pricing.RuleFile == "" {
			return nil, noop, fmt.Errorf("store backend %q needs pricing.rule_file in the config", cfg.Store.Backend)
		}
		store, err := rulefile.Open(cfg.Pricing.RuleFile)
		return store, noop, err
	case "postgres":
		store, err := postgres.Connect(ctx, cfg.Store, logging.Named("store"))
		if err != nil {
			return nil, noop, err
		}
		return store, closer(store), nil
	default:
		return nil, noop, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func closer(c io.Closer) func() {
	return func() { _ = c.Close() }
}
