// Package cmd - rules management commands
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"carecost/adapters/rulestore"
	"carecost/internal/config"
)

// rulesCmd groups the rule store subcommands
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and manage per-unit pricing rule files",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the loaded rule snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := rulestore.Open(config.Get().Rules.Directory)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
		fmt.Fprintln(w, "UNIT\tNAME\tVERSION\tCURRENCY\tACTIVE\tHASH")
		for _, snap := range store.List() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\t%s\n",
				snap.UnitCode, snap.UnitName, snap.Version, snap.Currency,
				snap.Active, snap.ContentHash().Hex()[:12])
		}
		return w.Flush()
	},
}

var rulesShowCmd = &cobra.Command{
	Use:   "show <unit-code>",
	Short: "Show one unit's rule set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := rulestore.Open(config.Get().Rules.Directory)
		if err != nil {
			return err
		}
		for _, snap := range store.List() {
			if snap.UnitCode != args[0] {
				continue
			}
			fmt.Printf("unit %s (%s) version %s, currency %s\n",
				snap.UnitCode, snap.UnitName, snap.Version, snap.Currency)
			fmt.Printf("snapshot hash %s\n\n", snap.ContentHash().Hex())
			fmt.Printf("margin %s%%, tax over margin %s%%, fee before discount: %t\n",
				snap.MarginPercent, snap.TaxOverMarginPercent, snap.FeeBeforeDiscount)
			fmt.Printf("conditions: %d, minicosts: %d, commissions: %d, payment fees: %d, discounts: %d\n",
				len(snap.ConditionRules), len(snap.MiniCostRules), len(snap.CommissionRules),
				len(snap.PaymentFeeRules), len(snap.DiscountPresets))
			return nil
		}
		return fmt.Errorf("unit not found: %s", args[0])
	},
}

var rulesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Parse and validate every rule file in the rules directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := rulestore.Open(config.Get().Rules.Directory)
		if err != nil {
			return err
		}
		fmt.Printf("OK: %d rule file(s) valid\n", len(store.List()))
		return nil
	},
}

var rulesSeedCmd = &cobra.Command{
	Use:   "seed <unit-code> [unit-name]",
	Short: "Write the seeded default rule file for a new unit",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := rulestore.Open(config.Get().Rules.Directory)
		if err != nil {
			return err
		}
		name := args[0]
		if len(args) > 1 {
			name = args[1]
		}
		snap, err := store.Seed("u-"+args[0], args[0], name)
		if err != nil {
			return err
		}
		fmt.Printf("seeded unit %s (version %s, hash %s)\n",
			snap.UnitCode, snap.Version, snap.ContentHash().Hex()[:12])
		return nil
	},
}

func init() {
	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesShowCmd)
	rulesCmd.AddCommand(rulesValidateCmd)
	rulesCmd.AddCommand(rulesSeedCmd)
}
