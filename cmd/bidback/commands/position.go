package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bidback/backend/internal/contracts"
	"github.com/bidback/backend/internal/position"
	"github.com/bidback/backend/internal/rules"
)

// positionCmd represents the position command
var positionCmd = &cobra.Command{
	Use:   "position",
	Short: "Calculate a BIDBACK position size",
	Long: `Calculate a BIDBACK position size from market state.

Flags left unset count as unknown, not zero: unknown breadth sizes
nothing and unknown VIX takes the most conservative multiplier. With
--latest, unset market flags are filled from the most recent stored
breadth record.

Example:
  go run ./cmd/bidback position --portfolio 100000 --up4 520 --t2108 28 --vix 14.5
  go run ./cmd/bidback position --latest`,
	RunE: runPosition,
}

var (
	posPortfolio float64
	posUp4       int
	posDown4     int
	posT2108     float64
	posVIX       float64
	posLatest    bool
)

func init() {
	rootCmd.AddCommand(positionCmd)

	positionCmd.Flags().Float64Var(&posPortfolio, "portfolio", 0, "portfolio size (default: DEFAULT_PORTFOLIO_SIZE)")
	positionCmd.Flags().IntVar(&posUp4, "up4", 0, "stocks up 4%+ today")
	positionCmd.Flags().IntVar(&posDown4, "down4", 0, "stocks down 4%+ today")
	positionCmd.Flags().Float64Var(&posT2108, "t2108", 0, "T2108 (% of stocks above 40-day MA)")
	positionCmd.Flags().Float64Var(&posVIX, "vix", 0, "VIX level")
	positionCmd.Flags().BoolVar(&posLatest, "latest", false, "fill unset flags from the latest stored record")
}

func runPosition(cmd *cobra.Command, args []string) error {
	in := contracts.PositionInput{PortfolioSize: posPortfolio}
	if cmd.Flags().Changed("up4") {
		in.Up4Pct = contracts.IntPtr(posUp4)
	}
	if cmd.Flags().Changed("down4") {
		in.Down4Pct = contracts.IntPtr(posDown4)
	}
	if cmd.Flags().Changed("t2108") {
		in.T2108 = contracts.FloatPtr(posT2108)
	}
	if cmd.Flags().Changed("vix") {
		in.VIX = contracts.FloatPtr(posVIX)
	}

	var ruleSet *rules.Config

	if posLatest || in.PortfolioSize <= 0 {
		a, err := setup()
		if err != nil {
			return err
		}
		defer a.close()
		ruleSet = a.rules

		if in.PortfolioSize <= 0 {
			in.PortfolioSize = a.cfg.Trading.DefaultPortfolioSize
		}
		if posLatest {
			latest, err := a.service.GetLatest(context.Background(), 30)
			if err != nil {
				return err
			}
			if latest != nil {
				if in.Up4Pct == nil {
					in.Up4Pct = latest.StocksUp4PctDaily
				}
				if in.Down4Pct == nil {
					in.Down4Pct = latest.StocksDown4PctDaily
				}
				if in.T2108 == nil {
					in.T2108 = latest.T2108
				}
				if in.VIX == nil {
					in.VIX = latest.VIX
				}
			}
		}
	}

	if ruleSet == nil && rulesFile != "" {
		var err error
		if ruleSet, _, err = rules.Load(rulesFile); err != nil {
			return err
		}
	}

	engine := position.NewEngine(ruleSet)
	result := engine.Calculate(in)

	fmt.Printf("Base position:       $%.2f\n", result.BasePosition)
	fmt.Printf("Breadth multiplier:  %.1fx\n", result.BreadthMultiplier)
	fmt.Printf("VIX multiplier:      %.1fx\n", result.VIXMultiplier)
	fmt.Printf("Final position:      $%.2f\n", result.FinalPosition)
	fmt.Printf("Portfolio heat:      %.1f%%\n", result.PortfolioHeatPercent)
	fmt.Printf("Deterioration score: %d / 4\n", result.PositionDeteriorationScore)

	switch {
	case result.AvoidEntry:
		fmt.Println("Signal:              AVOID ENTRY")
	case result.BigOpportunity:
		fmt.Println("Signal:              BIG OPPORTUNITY")
	case result.NoEntry():
		fmt.Println("Signal:              NO ENTRY (breadth below minimum)")
	}
	return nil
}
