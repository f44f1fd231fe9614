package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bidback/backend/internal/api"
	"github.com/bidback/backend/internal/api/handlers"
	"github.com/bidback/backend/internal/exits"
	"github.com/bidback/backend/internal/position"
)

// apiCmd represents the api command
var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Start the REST API server",
	Long: `Start the REST API server.

Endpoints:
  GET  /health                  - Health check
  POST /api/breadth             - Save a manual breadth record
  GET  /api/breadth/latest      - Most recent record
  GET  /api/breadth/{date}      - Record for one date
  GET  /api/breadth/history     - Records for a date range
  GET  /api/breadth/quality     - Field-coverage report
  POST /api/breadth/import      - Import a Stockbee CSV
  GET  /api/breadth/export      - Export a range as CSV
  POST /api/position/calculate  - BIDBACK position sizing
  POST /api/exits/plan          - Holiday-aware exit plan

Example:
  go run ./cmd/bidback api
  go run ./cmd/bidback api --port 8080`,
	RunE: runAPIServer,
}

var apiPort string

func init() {
	rootCmd.AddCommand(apiCmd)

	apiCmd.Flags().StringVar(&apiPort, "port", "", "API server port (overrides PORT)")
}

func runAPIServer(cmd *cobra.Command, args []string) error {
	a, err := setup()
	if err != nil {
		return err
	}
	defer a.close()

	if apiPort != "" {
		a.cfg.Port = apiPort
	}

	a.log.WithFields(map[string]interface{}{
		"port":   a.cfg.Port,
		"env":    a.cfg.Env,
		"schema": a.cfg.Database.SchemaGeneration,
	}).Info("Initializing API server")

	engine := position.NewEngine(a.rules)
	calendar := exits.NewUSTradingCalendar(a.rules.Calendar.ExtraClosures)
	calculator := exits.NewCalculator(calendar, a.rules)

	breadthHandler := handlers.NewBreadthHandler(a.service, a.log)
	positionHandler := handlers.NewPositionHandler(
		engine, calculator, a.service, a.cfg.Trading.DefaultPortfolioSize, a.log)

	router := api.NewRouter(breadthHandler, positionHandler, a.log)
	server := api.New(a.cfg, a.log, router)

	go func() {
		if err := server.Start(); err != nil {
			a.log.WithError(err).Fatal("Failed to start server")
		}
	}()

	fmt.Printf("Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Println("Press Ctrl+C to stop")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	a.log.Info("Server stopped")
	return nil
}
