package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bidback/backend/internal/breadth"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <file.csv>",
	Short: "Export stored breadth records as CSV",
	Long: `Export stored breadth records for a date range in the fixed
column order. Absent fields export as empty cells, never as zero, so an
export re-imports losslessly.

Example:
  go run ./cmd/bidback export breadth.csv --start 2025-01-01 --end 2025-06-30`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var (
	exportStart string
	exportEnd   string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportStart, "start", "", "range start (YYYY-MM-DD, required)")
	exportCmd.Flags().StringVar(&exportEnd, "end", "", "range end (YYYY-MM-DD, required)")
	exportCmd.MarkFlagRequired("start")
	exportCmd.MarkFlagRequired("end")
}

func runExport(cmd *cobra.Command, args []string) error {
	start, err := breadth.ParseDate(exportStart)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	end, err := breadth.ParseDate(exportEnd)
	if err != nil {
		return fmt.Errorf("invalid --end: %w", err)
	}

	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	f, err := os.Create(args[0])
	if err != nil {
		return fmt.Errorf("create %s: %w", args[0], err)
	}
	defer f.Close()

	n, err := a.service.ExportToCSV(context.Background(), f, start, end)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d records exported\n", args[0], n)
	return nil
}
