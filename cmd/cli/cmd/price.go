// Package cmd - price command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"esim-pricing/adapters/cache"
	"esim-pricing/core/pricing"
	"esim-pricing/core/types"
	"esim-pricing/internal/config"
	"esim-pricing/internal/logging"
)

var (
	rulesFile     string
	catalogFile   string
	duration      int
	paymentMethod string
	fixedDate     string
	streamSteps   bool
	newCustomer   bool
	segment       string
)

// priceCmd represents the price command
var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a bundle for a requested duration",
	Long: `Run one pricing calculation against a rule file and a candidate
bundle catalog.

The catalog is a JSON array of bundles, already filtered for the
country and bundle group being priced. The rule file may be HCL or
YAML.

Examples:
  esim-pricing price --rules rules.hcl --catalog bundles.json --duration 10 --payment card
  esim-pricing price --rules rules.hcl --catalog bundles.json --duration 5 --payment paypal --steps`,
	RunE: runPrice,
}

func init() {
	priceCmd.Flags().StringVarP(&rulesFile, "rules", "r", "", "rule file (.hcl, .yaml); overrides the configured store backend")
	priceCmd.Flags().StringVarP(&catalogFile, "catalog", "c", "", "candidate bundle catalog (JSON)")
	priceCmd.Flags().IntVarP(&duration, "duration", "d", 0, "requested duration in days")
	priceCmd.Flags().StringVarP(&paymentMethod, "payment", "p", "card", "payment method")
	priceCmd.Flags().StringVar(&fixedDate, "date", "", "evaluation date (YYYY-MM-DD, default now)")
	priceCmd.Flags().BoolVar(&streamSteps, "steps", false, "print the audit step stream")
	priceCmd.Flags().BoolVar(&newCustomer, "new-customer", false, "price as a first-time customer")
	priceCmd.Flags().StringVar(&segment, "segment", "", "customer segment tag")

	_ = priceCmd.MarkFlagRequired("catalog")
	_ = priceCmd.MarkFlagRequired("duration")
}

func runPrice(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	store, closeStore, err := openRuleStore(ctx, rulesFile)
	if err != nil {
		return err
	}
	defer closeStore()

	bundles, err := loadCatalog(catalogFile)
	if err != nil {
		return err
	}

	pctx := &types.PricingContext{
		AvailableBundles:  bundles,
		RequestedDuration: duration,
		PaymentMethod:     paymentMethod,
	}
	if newCustomer || segment != "" {
		pctx.Customer = &types.CustomerInfo{IsNew: newCustomer, Segment: segment}
	}
	if fixedDate != "" {
		t, err := time.Parse("2006-01-02", fixedDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		pctx.CurrentDate = t
	}

	service := pricing.NewService(store, logging.Named("pricing"))
	if err := service.Initialize(ctx); err != nil {
		return err
	}

	if problems := service.ValidateContext(pctx); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "invalid input: %s\n", p)
		}
		return fmt.Errorf("pricing context failed validation")
	}

	if streamSteps {
		return runStreaming(ctx, service, pctx)
	}

	calc, err := calculate(ctx, service, pctx)
	if err != nil {
		return err
	}
	printCalculation(calc)
	return nil
}

// calculate goes through the Redis result cache when it is enabled in
// the configuration.
func calculate(ctx context.Context, service *pricing.Service, pctx *types.PricingContext) (*types.PricingCalculation, error) {
	cfg := config.Get()
	if !cfg.Cache.Enabled {
		return service.CalculatePrice(ctx, pctx)
	}

	resultCache := cache.New(cfg.Cache, logging.Named("cache"))
	defer resultCache.Close()

	return cache.NewCalculator(service, resultCache).CalculatePrice(ctx, pctx, "")
}

func runStreaming(ctx context.Context, service *pricing.Service, pctx *types.PricingContext) error {
	steps, result, err := service.StreamPricingSteps(ctx, pctx)
	if err != nil {
		return err
	}

	for step := range steps {
		fmt.Printf("%-28s %s\n", step.Stage, step.Message)
	}

	res := <-result
	if res.Err != nil {
		return res.Err
	}
	fmt.Println()
	printCalculation(res.Calculation)
	return nil
}

func printCalculation(calc *types.PricingCalculation) {
	fmt.Printf("Bundle:               %s (%d days)\n", calc.SelectedBundle.Name, calc.SelectedBundle.Duration)
	fmt.Printf("Base cost:            %s\n", calc.BaseCost.StringFixed(2))
	fmt.Printf("Markup:               %s\n", calc.Markup.StringFixed(2))
	fmt.Printf("Subtotal:             %s\n", calc.Subtotal.StringFixed(2))
	for _, d := range calc.Discounts {
		fmt.Printf("Discount:             -%s (%s)\n", d.Amount.StringFixed(2), d.RuleName)
	}
	fmt.Printf("Price after discount: %s\n", calc.PriceAfterDiscount.StringFixed(2))
	fmt.Printf("Processing fee:       %s (rate %s)\n", calc.ProcessingFee.StringFixed(2), calc.ProcessingRate)
	fmt.Printf("Final price:          %s\n", calc.FinalPrice.StringFixed(2))
	fmt.Printf("Profit:               %s\n", calc.Profit.StringFixed(2))
	if calc.Metadata.UnusedDays > 0 {
		fmt.Printf("Unused days:          %d\n", calc.Metadata.UnusedDays)
	}
	if len(calc.AppliedRules) > 0 {
		fmt.Println("Applied rules:")
		for _, r := range calc.AppliedRules {
			fmt.Printf("  - %s (%s), impact %s\n", r.RuleName, r.RuleType, r.Impact.StringFixed(2))
		}
	}
}

func loadCatalog(path string) ([]types.Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	var bundles []types.Bundle
	if err := json.Unmarshal(data, &bundles); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return bundles, nil
}
