// Package cmd provides the CLI commands for carecost.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"carecost/internal/config"
	"carecost/internal/logging"
)

// Version is stamped at build time
const Version = "1.0.0"

var (
	cfgFile  string
	rulesDir string
	verbose  bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "carecost",
	Short: "Price home-care staffing quotes",
	Long: `carecost prices home-care staffing requests against per-unit,
versioned pricing rule sets.

It resolves hour-based cost factors, clinical tier escalation,
additive surcharges, margin, commission, tax, addon minicosts and
payment fee/discount sequencing into an itemized, audit-ready quote.

Examples:
  carecost quote --unit sp-01 request.json
  carecost quote --schedule schedule.json --format json
  carecost rules list
  carecost serve --addr :8080`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.carecost.json)")
	rootCmd.PersistentFlags().StringVar(&rulesDir, "rules", "", "directory holding per-unit rule files")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(serveCmd)
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
	} else {
		config.Set(config.LoadDefault())
	}

	cfg := config.Get()
	if rulesDir != "" {
		cfg.Rules.Directory = rulesDir
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

// versionCmd prints the build version
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the carecost version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("carecost %s\n", Version)
	},
}
