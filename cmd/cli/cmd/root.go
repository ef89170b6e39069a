// Package cmd provides the CLI commands for esim-pricing.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"esim-pricing/internal/config"
	"esim-pricing/internal/logging"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "esim-pricing",
	Short: "Price eSIM bundles through the rule engine",
	Long: `esim-pricing runs the bundle pricing pipeline from the command line.

It selects the best-matching bundle for a requested duration, applies
the configured system and business rules, and prints the resulting
price breakdown or the full audit step stream.

Examples:
  esim-pricing price --rules rules.hcl --catalog bundles.json --duration 10 --payment card
  esim-pricing price --rules rules.yaml --catalog bundles.json --duration 5 --payment paypal --steps
  esim-pricing rules validate rules.hcl`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.esim-pricing.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		config.Set(cfg)
	}

	cfg := config.Get()
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("esim-pricing version 0.1.0")
	},
}
