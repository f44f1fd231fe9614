package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// importCmd represents the import command
var importCmd = &cobra.Command{
	Use:   "import <file.csv> [file2.csv ...]",
	Short: "Import Stockbee CSV files",
	Long: `Import one or more Stockbee market-monitor CSV files.

Rows merge by date: re-importing a file is idempotent, and files covering
the same dates fill each other's gaps without clobbering stored values.
Bad rows are reported and skipped; good rows always commit.

Example:
  go run ./cmd/bidback import data/stockbee_2025.csv
  go run ./cmd/bidback import data/*.csv`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	exitErr := false

	for _, path := range args {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}

		result, err := a.service.ImportFromCSV(ctx, f, filepath.Base(path))
		f.Close()
		if err != nil {
			fmt.Printf("%s: import failed: %v\n", path, err)
			exitErr = true
			continue
		}

		fmt.Printf("%s: %d imported, %d skipped, %d merged duplicates",
			path, result.Imported, result.Skipped, result.Duplicates)
		if result.DateRangeStart != "" {
			fmt.Printf(" (%s .. %s)", result.DateRangeStart, result.DateRangeEnd)
		}
		fmt.Println()

		if verbose {
			for _, e := range result.Errors {
				fmt.Printf("  %s\n", e.Error())
			}
		} else if len(result.Errors) > 0 {
			fmt.Printf("  %d row errors (re-run with -v for details)\n", len(result.Errors))
		}
	}

	if exitErr {
		return fmt.Errorf("one or more files failed to import")
	}
	return nil
}
