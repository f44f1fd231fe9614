package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bidback/backend/internal/breadth"
	"github.com/bidback/backend/internal/contracts"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Show the breadth score for a stored date",
	Long: `Show the 6-factor breadth score, trend strength and market phase
for a stored record. Without --date, the most recent record is used.

Example:
  go run ./cmd/bidback score
  go run ./cmd/bidback score --date 2025-01-15`,
	RunE: runScore,
}

var scoreDate string

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().StringVar(&scoreDate, "date", "", "date to score (YYYY-MM-DD, default: latest)")
}

func runScore(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()

	var rec *contracts.RawBreadthRecord
	if scoreDate != "" {
		date, err := breadth.ParseDate(scoreDate)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		rec, err = a.service.GetByDate(ctx, date)
		if err != nil {
			return err
		}
	} else {
		rec, err = a.service.GetLatest(ctx, 30)
		if err != nil {
			return err
		}
	}
	if rec == nil {
		return fmt.Errorf("no breadth data found")
	}

	fmt.Printf("Date:            %s\n", rec.DateKey().Format("2006-01-02"))
	fmt.Printf("Breadth score:   %d / 100\n", rec.BreadthScore)
	fmt.Printf("Trend strength:  %d\n", rec.TrendStrength)
	fmt.Printf("Market phase:    %s\n", rec.MarketPhase)
	fmt.Printf("Data quality:    %.0f%%\n", rec.DataQualityScore*100)
	if rec.StocksUp4PctDaily != nil && rec.StocksDown4PctDaily != nil {
		fmt.Printf("Up4%% / Down4%%:   %d / %d\n", *rec.StocksUp4PctDaily, *rec.StocksDown4PctDaily)
	}
	if rec.T2108 != nil {
		fmt.Printf("T2108:           %.1f\n", *rec.T2108)
	}
	if rec.VIX != nil {
		fmt.Printf("VIX:             %.2f\n", *rec.VIX)
	}
	return nil
}
