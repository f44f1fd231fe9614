package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/bidback/backend/internal/contracts"
	"github.com/bidback/backend/pkg/logger"
)

// RescoreJob recomputes the derived score fields over a trailing window by
// re-upserting each stored record. Needed after a rule-set change: scores
// are denormalized into the table and do not update themselves.
type RescoreJob struct {
	store        contracts.BreadthStore
	lookbackDays int
	logger       *logger.Logger
}

// NewRescoreJob creates a nightly rescore job.
func NewRescoreJob(store contracts.BreadthStore, lookbackDays int, log *logger.Logger) *RescoreJob {
	if lookbackDays <= 0 {
		lookbackDays = 90
	}
	return &RescoreJob{
		store:        store,
		lookbackDays: lookbackDays,
		logger:       log,
	}
}

// Name returns the job name.
func (j *RescoreJob) Name() string {
	return "breadth_rescore"
}

// Schedule returns the cron schedule (02:00 every day).
func (j *RescoreJob) Schedule() string {
	return "0 0 2 * * *"
}

// Run re-upserts every record in the window.
func (j *RescoreJob) Run(ctx context.Context) error {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -j.lookbackDays)

	records, err := j.store.GetRange(ctx, start, end)
	if err != nil {
		return fmt.Errorf("load rescore window: %w", err)
	}

	for _, rec := range records {
		if _, err := j.store.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("rescore %s: %w", rec.DateKey().Format("2006-01-02"), err)
		}
	}

	j.logger.WithField("records", len(records)).Info("Breadth rescore completed")
	return nil
}
