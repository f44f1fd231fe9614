package jobs

import (
	"context"
	"time"

	"github.com/bidback/backend/internal/breadth"
	"github.com/bidback/backend/pkg/logger"
)

// QualityReportJob logs a weekly field-coverage report so gaps in the
// imported history surface without anyone asking for them.
type QualityReportJob struct {
	service      *breadth.Service
	lookbackDays int
	logger       *logger.Logger
}

// NewQualityReportJob creates a weekly quality report job.
func NewQualityReportJob(service *breadth.Service, lookbackDays int, log *logger.Logger) *QualityReportJob {
	if lookbackDays <= 0 {
		lookbackDays = 90
	}
	return &QualityReportJob{
		service:      service,
		lookbackDays: lookbackDays,
		logger:       log,
	}
}

// Name returns the job name.
func (j *QualityReportJob) Name() string {
	return "breadth_quality_report"
}

// Schedule returns the cron schedule (07:00 every Monday).
func (j *QualityReportJob) Schedule() string {
	return "0 0 7 * * 1"
}

// Run builds and logs the report.
func (j *QualityReportJob) Run(ctx context.Context) error {
	end := time.Now().UTC()
	start := end.AddDate(0, 0, -j.lookbackDays)

	report, err := j.service.DataQualityReport(ctx, start, end)
	if err != nil {
		return err
	}

	j.logger.WithFields(map[string]interface{}{
		"start":         report.Start,
		"end":           report.End,
		"records":       report.Records,
		"avg_quality":   report.AvgQuality,
		"missing_t2108": report.MissingT2108,
		"missing_vix":   report.MissingVIX,
		"no_primary":    report.NoPrimary,
	}).Info("Breadth data quality report")

	return nil
}
