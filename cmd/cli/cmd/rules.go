// Package cmd - rules inspection commands
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"esim-pricing/adapters/rulestore/rulefile"
	"esim-pricing/core/pricing"
)

// rulesCmd groups rule-file inspection subcommands
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and validate rule files",
}

var rulesListCmd = &cobra.Command{
	Use:   "list [file]",
	Short: "List the rules in a rule file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := rulefile.Open(args[0])
		if err != nil {
			return err
		}
		for _, r := range store.Rules() {
			state := "active"
			if !r.IsActive {
				state = "inactive"
			}
			category := "business"
			if r.IsSystem() {
				category = "system"
			}
			fmt.Printf("%-40s %-25s %-8s priority=%-4d %s\n",
				r.Name, r.Type, category, r.Priority, state)
		}
		return nil
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate every rule in a rule file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := rulefile.Open(args[0])
		if err != nil {
			return err
		}

		invalid := 0
		for _, r := range store.Rules() {
			if err := pricing.ValidateRule(r); err != nil {
				fmt.Printf("INVALID %s: %v\n", r.Name, err)
				invalid++
			}
		}
		if invalid > 0 {
			return fmt.Errorf("%d invalid rule(s)", invalid)
		}
		fmt.Printf("all %d rules valid\n", len(store.Rules()))
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
}
