package breadth

import (
	"context"
	"fmt"
	"time"

	"github.com/bidback/backend/internal/contracts"
	"github.com/bidback/backend/pkg/database"
	"github.com/bidback/backend/pkg/logger"
)

// =============================================================================
// Breadth Repository
// Date-keyed merge persistence over either schema generation. Upsert is a
// single read-modify-write inside one transaction, so two imports for the
// same date serialize instead of clobbering each other.
// =============================================================================

// Repository implements contracts.BreadthStore on PostgreSQL.
type Repository struct {
	db      *database.DB
	adapter schemaAdapter
	log     *logger.Logger
}

// NewRepository creates a repository for the configured schema generation.
func NewRepository(db *database.DB, generation string, mapper *FieldMapper, log *logger.Logger) (*Repository, error) {
	adapter, err := newSchemaAdapter(generation, mapper)
	if err != nil {
		return nil, err
	}
	return &Repository{
		db:      db,
		adapter: adapter,
		log:     log.WithComponent("breadth.repository"),
	}, nil
}

// Upsert inserts or merges the record for its date and returns the row id.
// Raw fields merge with preserve-on-null semantics: an incoming nil never
// clears a stored value. Derived fields are always recomputed from the
// merged record, never taken from either side.
func (r *Repository) Upsert(ctx context.Context, record *contracts.RawBreadthRecord) (int64, error) {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	existing, err := r.adapter.selectByDate(ctx, tx, record.Date, true)
	if err != nil {
		return 0, err
	}

	merged := mergeRecords(existing, record)
	ScoreRecord(merged)
	merged.DataQualityScore = QualityScore(merged)

	id, err := r.adapter.upsert(ctx, tx, merged)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit upsert tx: %w", err)
	}

	record.ID = id
	return id, nil
}

// GetByDate returns the record for a date, or (nil, nil) when absent.
func (r *Repository) GetByDate(ctx context.Context, date time.Time) (*contracts.RawBreadthRecord, error) {
	return r.adapter.selectByDate(ctx, r.db.Pool, date, false)
}

// GetRange returns records with start <= date <= end, ascending by date.
func (r *Repository) GetRange(ctx context.Context, start, end time.Time) ([]*contracts.RawBreadthRecord, error) {
	if end.Before(start) {
		return nil, fmt.Errorf("invalid range: end %s before start %s",
			end.Format("2006-01-02"), start.Format("2006-01-02"))
	}
	return r.adapter.selectRange(ctx, r.db.Pool, start, end)
}

// LogImport appends an import audit entry. The import_log table is shared by
// both schema generations.
func (r *Repository) LogImport(ctx context.Context, entry *contracts.ImportLogEntry) error {
	query := `
		INSERT INTO import_log (
			filename, import_type,
			records_total, records_ok, records_failed,
			date_range_start, date_range_end,
			status, error_log, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`

	completedAt := entry.CompletedAt
	if completedAt.IsZero() {
		completedAt = time.Now().UTC()
	}

	err := r.db.Pool.QueryRow(ctx, query,
		entry.Filename, entry.ImportType,
		entry.RecordsTotal, entry.RecordsOK, entry.RecordsFailed,
		nullableString(entry.DateRangeStart), nullableString(entry.DateRangeEnd),
		entry.Status, nullableString(entry.ErrorLog), completedAt,
	).Scan(&entry.ID)
	if err != nil {
		return fmt.Errorf("insert import log entry: %w", err)
	}
	return nil
}

// mergeRecords combines an existing stored record with an incoming one.
// Incoming non-nil wins, existing survives incoming nil. With no existing
// record the incoming record passes through unchanged.
func mergeRecords(existing, incoming *contracts.RawBreadthRecord) *contracts.RawBreadthRecord {
	if existing == nil {
		out := *incoming
		out.Timestamp = contracts.MarketCloseUTC(out.Date)
		return &out
	}

	out := *existing
	out.Date = existing.Date
	out.Timestamp = contracts.MarketCloseUTC(existing.Date)

	out.StocksUp4PctDaily = coalesceInt(incoming.StocksUp4PctDaily, existing.StocksUp4PctDaily)
	out.StocksDown4PctDaily = coalesceInt(incoming.StocksDown4PctDaily, existing.StocksDown4PctDaily)
	out.Ratio5Day = coalesceFloat(incoming.Ratio5Day, existing.Ratio5Day)
	out.Ratio10Day = coalesceFloat(incoming.Ratio10Day, existing.Ratio10Day)
	out.StocksUp25PctQuarterly = coalesceInt(incoming.StocksUp25PctQuarterly, existing.StocksUp25PctQuarterly)
	out.StocksDown25PctQuarterly = coalesceInt(incoming.StocksDown25PctQuarterly, existing.StocksDown25PctQuarterly)
	out.StocksUp25PctMonthly = coalesceInt(incoming.StocksUp25PctMonthly, existing.StocksUp25PctMonthly)
	out.StocksDown25PctMonthly = coalesceInt(incoming.StocksDown25PctMonthly, existing.StocksDown25PctMonthly)
	out.StocksUp50PctMonthly = coalesceInt(incoming.StocksUp50PctMonthly, existing.StocksUp50PctMonthly)
	out.StocksDown50PctMonthly = coalesceInt(incoming.StocksDown50PctMonthly, existing.StocksDown50PctMonthly)
	out.StocksUp13Pct34Days = coalesceInt(incoming.StocksUp13Pct34Days, existing.StocksUp13Pct34Days)
	out.StocksDown13Pct34Days = coalesceInt(incoming.StocksDown13Pct34Days, existing.StocksDown13Pct34Days)
	out.T2108 = coalesceFloat(incoming.T2108, existing.T2108)
	out.WordenUniverse = coalesceInt(incoming.WordenUniverse, existing.WordenUniverse)
	out.VIX = coalesceFloat(incoming.VIX, existing.VIX)
	if incoming.SP500 != "" {
		out.SP500 = incoming.SP500
	}

	// Provenance follows the latest write.
	if incoming.DataSource != "" {
		out.DataSource = incoming.DataSource
	}
	if incoming.SourceFile != "" {
		out.SourceFile = incoming.SourceFile
	}
	if incoming.ImportFormat != "" {
		out.ImportFormat = incoming.ImportFormat
	}
	if incoming.Notes != "" {
		out.Notes = incoming.Notes
	}

	return &out
}

func coalesceInt(a, b *int) *int {
	if a != nil {
		return a
	}
	return b
}

func coalesceFloat(a, b *float64) *float64 {
	if a != nil {
		return a
	}
	return b
}
