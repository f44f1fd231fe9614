package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bidback/backend/internal/breadth"
	"github.com/bidback/backend/internal/contracts"
	"github.com/bidback/backend/internal/exits"
	"github.com/bidback/backend/internal/rules"
)

// exitCmd represents the exit command
var exitCmd = &cobra.Command{
	Use:   "exit",
	Short: "Plan an exit for an entry",
	Long: `Compute the holiday-aware exit plan for an entry: stop-loss,
profit targets and the exit date after the regime's hold days, counted
in NYSE trading days.

Needs no database; the calendar and VIX regime matrix are built in.

Example:
  go run ./cmd/bidback exit --entry-date 2025-01-15 --price 42.50 --vix 18.2`,
	RunE: runExit,
}

var (
	exitEntryDate string
	exitPrice     float64
	exitVIX       float64
)

func init() {
	rootCmd.AddCommand(exitCmd)

	exitCmd.Flags().StringVar(&exitEntryDate, "entry-date", "", "entry date (YYYY-MM-DD, required)")
	exitCmd.Flags().Float64Var(&exitPrice, "price", 0, "entry price (required)")
	exitCmd.Flags().Float64Var(&exitVIX, "vix", 0, "VIX at entry (unset = most conservative regime)")
	exitCmd.MarkFlagRequired("entry-date")
	exitCmd.MarkFlagRequired("price")
}

func runExit(cmd *cobra.Command, args []string) error {
	entryDate, err := breadth.ParseDate(exitEntryDate)
	if err != nil {
		return fmt.Errorf("invalid --entry-date: %w", err)
	}
	if exitPrice <= 0 {
		return fmt.Errorf("--price must be positive")
	}

	var vix *float64
	if cmd.Flags().Changed("vix") {
		vix = contracts.FloatPtr(exitVIX)
	}

	// Rules come from the flag override when present, defaults otherwise.
	ruleSet := rules.Default()
	if rulesFile != "" {
		if ruleSet, _, err = rules.Load(rulesFile); err != nil {
			return err
		}
	}

	calendar := exits.NewUSTradingCalendar(ruleSet.Calendar.ExtraClosures)
	plan := exits.NewCalculator(calendar, ruleSet).Plan(entryDate, exitPrice, vix)

	fmt.Printf("Entry:           %s @ $%.2f\n", plan.EntryDate.Format("2006-01-02"), plan.EntryPrice)
	fmt.Printf("VIX regime:      %s\n", plan.VIXRegime)
	fmt.Printf("Stop loss:       $%.2f\n", plan.StopLoss)
	fmt.Printf("Profit target 1: $%.2f\n", plan.ProfitTarget1)
	fmt.Printf("Profit target 2: $%.2f\n", plan.ProfitTarget2)
	fmt.Printf("Max hold:        %d trading days\n", plan.MaxHoldDays)
	fmt.Printf("Exit date:       %s (%s)\n", plan.ExitDate.Format("2006-01-02"), plan.ExitDate.Weekday())
	return nil
}
