package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	rulesFile string
	verbose   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "bidback",
	Short: "BIDBACK - market breadth scoring and position sizing",
	Long: `BIDBACK Unified CLI

Market-breadth journal backend: Stockbee CSV import, 6-factor breadth
scoring, BIDBACK position sizing and holiday-aware exit planning.

Usage:
  go run ./cmd/bidback [command]

Examples:
  go run ./cmd/bidback api
  go run ./cmd/bidback import data/stockbee_2025.csv
  go run ./cmd/bidback position --portfolio 100000 --up4 520 --t2108 28 --vix 14.5
  go run ./cmd/bidback exit --entry-date 2025-01-15 --price 42.50 --vix 18.2`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "YAML rule file overriding the built-in BIDBACK tables")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
