package breadth

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bidback/backend/internal/contracts"
	"github.com/bidback/backend/pkg/logger"
	"github.com/bidback/backend/pkg/redis"
)

// =============================================================================
// Breadth Service
// Entry-point boundary for breadth data: validation happens here, once, so
// the engines and the store can trust their inputs.
// =============================================================================

// Service orchestrates validation, scoring, persistence and caching for
// breadth records.
type Service struct {
	store    contracts.BreadthStore
	mapper   *FieldMapper
	importer *CSVImporter
	cache    *redis.Cache
	log      *logger.Logger
}

// NewService wires the breadth service. cache may be backed by a disabled
// Redis client; every cache miss falls through to the store.
func NewService(store contracts.BreadthStore, mapper *FieldMapper, cache *redis.Cache, log *logger.Logger) *Service {
	return &Service{
		store:    store,
		mapper:   mapper,
		importer: NewCSVImporter(mapper, log),
		cache:    cache,
		log:      log.WithComponent("breadth.service"),
	}
}

// SaveBreadthData validates and upserts one record, returning the row id.
// Manual entry is the default provenance when the caller did not set one.
func (s *Service) SaveBreadthData(ctx context.Context, rec *contracts.RawBreadthRecord) (int64, error) {
	if err := ValidateRecord(rec); err != nil {
		return 0, err
	}
	if rec.DataSource == "" {
		rec.DataSource = contracts.DataSourceManual
	}
	if rec.Notes == "" {
		rec.Notes = s.mapper.BuildNotes(rec)
	}

	id, err := s.store.Upsert(ctx, rec)
	if err != nil {
		return 0, err
	}

	s.invalidateLatest(ctx)
	s.log.WithFields(map[string]interface{}{
		"date": rec.DateKey().Format("2006-01-02"),
		"id":   id,
	}).Info("breadth record saved")
	return id, nil
}

// GetByDate returns the stored record for a date, or (nil, nil) when absent.
func (s *Service) GetByDate(ctx context.Context, date time.Time) (*contracts.RawBreadthRecord, error) {
	return s.store.GetByDate(ctx, date)
}

// GetBreadthHistory returns records for an inclusive date range, ascending.
// Range reads are cached for a day; writes only invalidate the latest-record
// key, historical ranges age out on TTL.
func (s *Service) GetBreadthHistory(ctx context.Context, start, end time.Time) ([]*contracts.RawBreadthRecord, error) {
	key := redis.HistoryKey(start.Format("2006-01-02"), end.Format("2006-01-02"))

	var cached []*contracts.RawBreadthRecord
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	records, err := s.store.GetRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, records, redis.TTLDaily); err != nil {
		s.log.WithError(err).Warn("history cache write failed")
	}
	return records, nil
}

// GetLatest returns the most recent record within the trailing lookback
// window, or (nil, nil) when the store is empty for that window.
func (s *Service) GetLatest(ctx context.Context, lookbackDays int) (*contracts.RawBreadthRecord, error) {
	if lookbackDays <= 0 {
		lookbackDays = 30
	}
	end := time.Now().UTC()
	start := midnight(end.AddDate(0, 0, -lookbackDays))

	// The cached latest is shared across callers with different lookbacks;
	// only serve it when it falls inside this caller's window.
	var cached contracts.RawBreadthRecord
	if hit, err := s.cache.Get(ctx, redis.LatestKey, &cached); err == nil && hit {
		if !cached.DateKey().Before(start) {
			return &cached, nil
		}
	}

	records, err := s.store.GetRange(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}

	latest := records[len(records)-1]
	if err := s.cache.Set(ctx, redis.LatestKey, latest, redis.TTLShort); err != nil {
		s.log.WithError(err).Warn("latest cache write failed")
	}
	return latest, nil
}

// ImportFromCSV parses and persists a CSV stream. Partial success is the
// designed outcome: every valid row commits independently, bad rows are
// collected into the result, and the run is audit-logged either way.
func (s *Service) ImportFromCSV(ctx context.Context, r io.Reader, filename string) (*contracts.ImportResult, error) {
	records, rowErrs, err := s.importer.Parse(ctx, r, filename)
	if err != nil {
		s.logImportRun(ctx, filename, nil, rowErrs, "failed", err)
		return nil, fmt.Errorf("parse csv %s: %w", filename, err)
	}

	result := &contracts.ImportResult{Errors: rowErrs}
	result.Skipped = len(rowErrs)

	for _, rec := range records {
		select {
		case <-ctx.Done():
			s.logImportRun(ctx, filename, result, rowErrs, "failed", ctx.Err())
			return result, ctx.Err()
		default:
		}

		if err := ValidateRecord(rec); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, contracts.RowError{
				Field:   "record",
				Value:   rec.DateKey().Format("2006-01-02"),
				Message: err.Error(),
			})
			continue
		}

		existing, err := s.store.GetByDate(ctx, rec.Date)
		if err != nil {
			return result, fmt.Errorf("duplicate check for %s: %w", rec.DateKey().Format("2006-01-02"), err)
		}
		if existing != nil {
			result.Duplicates++
			result.DuplicateDates = append(result.DuplicateDates, rec.DateKey().Format("2006-01-02"))
		}

		if _, err := s.store.Upsert(ctx, rec); err != nil {
			return result, fmt.Errorf("upsert %s: %w", rec.DateKey().Format("2006-01-02"), err)
		}
		result.Imported++
		s.extendDateRange(result, rec.DateKey())
	}

	s.invalidateLatest(ctx)
	s.logImportRun(ctx, filename, result, result.Errors, "completed", nil)

	s.log.WithFields(map[string]interface{}{
		"file":       filename,
		"imported":   result.Imported,
		"skipped":    result.Skipped,
		"duplicates": result.Duplicates,
	}).Info("csv import complete")
	return result, nil
}

// ExportToCSV streams the stored records of a range in the fixed export
// column order.
func (s *Service) ExportToCSV(ctx context.Context, w io.Writer, start, end time.Time) (int, error) {
	records, err := s.store.GetRange(ctx, start, end)
	if err != nil {
		return 0, err
	}
	if err := WriteCSV(w, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

// QualityReport summarizes field coverage over a stored range.
type QualityReport struct {
	Start        string  `json:"start"`
	End          string  `json:"end"`
	Records      int     `json:"records"`
	AvgQuality   float64 `json:"avg_quality"`
	MissingT2108 int     `json:"missing_t2108"`
	MissingVIX   int     `json:"missing_vix"`
	NoPrimary    int     `json:"no_primary"`
}

// DataQualityReport computes coverage statistics for a range.
func (s *Service) DataQualityReport(ctx context.Context, start, end time.Time) (*QualityReport, error) {
	records, err := s.store.GetRange(ctx, start, end)
	if err != nil {
		return nil, err
	}

	report := &QualityReport{
		Start:   start.Format("2006-01-02"),
		End:     end.Format("2006-01-02"),
		Records: len(records),
	}
	var sum float64
	for _, rec := range records {
		sum += rec.DataQualityScore
		if rec.T2108 == nil {
			report.MissingT2108++
		}
		if rec.VIX == nil {
			report.MissingVIX++
		}
		if !rec.HasPrimaryIndicators() {
			report.NoPrimary++
		}
	}
	if len(records) > 0 {
		report.AvgQuality = sum / float64(len(records))
	}
	return report, nil
}

// ValidateRecord enforces the entry-point invariants: a real date, counts
// that are not negative, T2108 inside [0, 100] and a non-negative VIX.
func ValidateRecord(rec *contracts.RawBreadthRecord) error {
	if rec == nil {
		return fmt.Errorf("nil breadth record")
	}
	if rec.Date.IsZero() {
		return fmt.Errorf("breadth record has no date")
	}
	if rec.T2108 != nil && (*rec.T2108 < 0 || *rec.T2108 > 100) {
		return fmt.Errorf("t2108 %.2f out of range [0, 100]", *rec.T2108)
	}
	if rec.VIX != nil && *rec.VIX < 0 {
		return fmt.Errorf("vix %.2f is negative", *rec.VIX)
	}

	counts := map[string]*int{
		"stocks_up_4pct_daily":        rec.StocksUp4PctDaily,
		"stocks_down_4pct_daily":      rec.StocksDown4PctDaily,
		"stocks_up_25pct_quarterly":   rec.StocksUp25PctQuarterly,
		"stocks_down_25pct_quarterly": rec.StocksDown25PctQuarterly,
		"stocks_up_25pct_monthly":     rec.StocksUp25PctMonthly,
		"stocks_down_25pct_monthly":   rec.StocksDown25PctMonthly,
		"stocks_up_50pct_monthly":     rec.StocksUp50PctMonthly,
		"stocks_down_50pct_monthly":   rec.StocksDown50PctMonthly,
		"stocks_up_13pct_34days":      rec.StocksUp13Pct34Days,
		"stocks_down_13pct_34days":    rec.StocksDown13Pct34Days,
		"worden_universe":             rec.WordenUniverse,
	}
	for name, v := range counts {
		if v != nil && *v < 0 {
			return fmt.Errorf("%s is negative: %d", name, *v)
		}
	}
	return nil
}

func (s *Service) extendDateRange(result *contracts.ImportResult, date time.Time) {
	key := date.Format("2006-01-02")
	if result.DateRangeStart == "" || key < result.DateRangeStart {
		result.DateRangeStart = key
	}
	if result.DateRangeEnd == "" || key > result.DateRangeEnd {
		result.DateRangeEnd = key
	}
}

func (s *Service) invalidateLatest(ctx context.Context) {
	if err := s.cache.Delete(ctx, redis.LatestKey); err != nil {
		s.log.WithError(err).Warn("latest cache invalidation failed")
	}
}

func (s *Service) logImportRun(ctx context.Context, filename string, result *contracts.ImportResult, rowErrs []contracts.RowError, status string, runErr error) {
	entry := &contracts.ImportLogEntry{
		Filename:    filename,
		ImportType:  "csv",
		Status:      status,
		CompletedAt: time.Now().UTC(),
	}
	if result != nil {
		entry.RecordsTotal = result.Total()
		entry.RecordsOK = result.Imported
		entry.RecordsFailed = len(result.Errors)
		entry.DateRangeStart = result.DateRangeStart
		entry.DateRangeEnd = result.DateRangeEnd
	}

	var lines []string
	if runErr != nil {
		lines = append(lines, runErr.Error())
	}
	for _, e := range rowErrs {
		lines = append(lines, e.Error())
	}
	entry.ErrorLog = strings.Join(lines, "\n")

	if err := s.store.LogImport(ctx, entry); err != nil {
		s.log.WithError(err).Warn("import audit log write failed")
	}
}
