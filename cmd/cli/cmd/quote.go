// Package cmd - quote command
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"carecost/adapters/rulestore"
	"carecost/api"
	"carecost/core/breakdown"
	"carecost/core/engine"
	"carecost/internal/config"
)

var (
	quoteFormat   string
	quoteSchedule bool
	quoteUnit     string
)

// quoteCmd represents the quote command
var quoteCmd = &cobra.Command{
	Use:   "quote [request.json]",
	Short: "Price a staffing request against a unit's rule set",
	Long: `Price a single occurrence or a schedule of service dates.

The request file uses the same JSON shape as the HTTP API. With
--schedule the file must carry an "occurrences" array.

Examples:
  carecost quote --unit sp-01 request.json
  carecost quote --schedule schedule.json
  carecost quote --format json request.json`,
	Args: cobra.ExactArgs(1),
	RunE: runQuote,
}

func init() {
	quoteCmd.Flags().StringVarP(&quoteFormat, "format", "f", "", "output format (table, json)")
	quoteCmd.Flags().BoolVar(&quoteSchedule, "schedule", false, "price a multi-date schedule request")
	quoteCmd.Flags().StringVarP(&quoteUnit, "unit", "u", "", "unit code overriding the request's lookup key")
}

func runQuote(cmd *cobra.Command, args []string) error {
	cfg := config.Get()
	format := quoteFormat
	if format == "" {
		format = cfg.Output.DefaultFormat
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read request file: %w", err)
	}

	store, err := rulestore.Open(cfg.Rules.Directory)
	if err != nil {
		return err
	}
	eng := engine.New(store)
	ctx := context.Background()

	if quoteSchedule {
		return runScheduleQuote(ctx, eng, data, format)
	}

	var req api.QuoteRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parse request file: %w", err)
	}
	applyUnitOverride(&req)

	in, err := req.ToInput()
	if err != nil {
		return err
	}
	quote, err := eng.Quote(ctx, snapshotKey(&req), in)
	if err != nil {
		return err
	}
	if format == "json" {
		return printJSON(api.RenderQuote(quote))
	}
	if cfg.Output.ShowBreakdown {
		printBreakdownTable(quote.Breakdown.Items, quote.Breakdown.Summary, quote.Breakdown.Warnings)
	} else {
		fmt.Println(quote.Breakdown.Summary)
	}
	return nil
}

func runScheduleQuote(ctx context.Context, eng *engine.Engine, data []byte, format string) error {
	var req api.ScheduleQuoteRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return fmt.Errorf("parse schedule request file: %w", err)
	}
	applyUnitOverride(&req.QuoteRequest)

	in, err := req.ToInput()
	if err != nil {
		return err
	}
	sched, err := req.ToSchedule()
	if err != nil {
		return err
	}
	quote, err := eng.QuoteSchedule(ctx, snapshotKey(&req.QuoteRequest), in, sched)
	if err != nil {
		return err
	}
	if format == "json" {
		return printJSON(api.RenderScheduleQuote(quote))
	}
	if config.Get().Output.ShowBreakdown {
		printBreakdownTable(quote.Breakdown.Items, quote.Breakdown.Summary, quote.Breakdown.Warnings)
	} else {
		fmt.Println(quote.Breakdown.Summary)
	}
	fmt.Printf("\n%d days, %d hours | weekly %s | monthly %s\n",
		quote.Result.Days, quote.Result.TotalHours, quote.Result.Weekly, quote.Result.Monthly)
	return nil
}

func applyUnitOverride(req *api.QuoteRequest) {
	if quoteUnit != "" {
		req.UnitCode = quoteUnit
		req.UnitID = ""
		req.VersionID = ""
	}
	if req.UnitCode == "" && req.UnitID == "" && req.VersionID == "" {
		req.UnitCode = config.Get().Rules.DefaultUnit
	}
}

func snapshotKey(req *api.QuoteRequest) engine.SnapshotKey {
	return engine.SnapshotKey{
		VersionID: req.VersionID,
		UnitID:    req.UnitID,
		UnitCode:  req.UnitCode,
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printBreakdownTable(items []breakdown.LineItem, summary string, warnings []string) {
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	for _, item := range items {
		percent := ""
		if !item.Percent.IsZero() {
			percent = item.Percent.String() + "%"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", item.Label, percent, item.Amount)
	}
	_ = w.Flush()
	fmt.Println()
	fmt.Println(summary)
	for _, warning := range warnings {
		fmt.Println("warning:", warning)
	}
}
