package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database and data status",
	Long: `Show database connectivity, pool health and a summary of the
stored breadth data.

Example:
  go run ./cmd/bidback status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	health, err := a.db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("database health check: %w", err)
	}

	fmt.Printf("Database:     healthy (%s, %d/%d conns)\n",
		health.ResponseTime, health.TotalConns, health.MaxConns)
	fmt.Printf("Schema:       %s\n", a.cfg.Database.SchemaGeneration)
	fmt.Printf("Redis cache:  %v\n", a.cfg.Redis.Enabled)

	latest, err := a.service.GetLatest(ctx, 365)
	if err != nil {
		return err
	}
	if latest == nil {
		fmt.Println("Breadth data: none in the last year")
		return nil
	}

	fmt.Printf("Latest data:  %s (score %d, %s, quality %.0f%%)\n",
		latest.DateKey().Format("2006-01-02"),
		latest.BreadthScore, latest.MarketPhase, latest.DataQualityScore*100)
	return nil
}
