package breadth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bidback/backend/internal/contracts"
)

// =============================================================================
// Schema Adapters
// Two physical generations of the breadth table exist in the wild. The
// adapter is selected once at startup; callers never branch on schema
// version. The legacy table predates the dedicated secondary-indicator
// columns, so those fields round-trip through the notes side-channel.
// =============================================================================

// schemaAdapter hides the physical table shape behind one logical view.
type schemaAdapter interface {
	selectByDate(ctx context.Context, q querier, date time.Time, forUpdate bool) (*contracts.RawBreadthRecord, error)
	selectRange(ctx context.Context, q querier, start, end time.Time) ([]*contracts.RawBreadthRecord, error)
	upsert(ctx context.Context, q querier, rec *contracts.RawBreadthRecord) (int64, error)
}

// querier is satisfied by both pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// newSchemaAdapter picks the adapter for a configured generation.
func newSchemaAdapter(generation string, mapper *FieldMapper) (schemaAdapter, error) {
	switch generation {
	case "current", "":
		return &currentSchemaAdapter{}, nil
	case "legacy":
		return &legacySchemaAdapter{mapper: mapper}, nil
	default:
		return nil, fmt.Errorf("unknown schema generation %q", generation)
	}
}

// =============================================================================
// Current generation: market_breadth_daily, one column per field
// =============================================================================

type currentSchemaAdapter struct{}

const currentColumns = `
	id, date, ts,
	stocks_up_4pct_daily, stocks_down_4pct_daily,
	ratio_5day, ratio_10day,
	stocks_up_25pct_quarterly, stocks_down_25pct_quarterly,
	stocks_up_25pct_monthly, stocks_down_25pct_monthly,
	stocks_up_50pct_monthly, stocks_down_50pct_monthly,
	stocks_up_13pct_34days, stocks_down_13pct_34days,
	t2108, worden_universe, sp_reference, vix,
	breadth_score, trend_strength, market_phase,
	data_source, source_file, import_format, data_quality_score, notes,
	created_at, updated_at`

func (a *currentSchemaAdapter) selectByDate(ctx context.Context, q querier, date time.Time, forUpdate bool) (*contracts.RawBreadthRecord, error) {
	query := `SELECT ` + currentColumns + ` FROM market_breadth_daily WHERE date = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rec, err := scanCurrentRow(q.QueryRow(ctx, query, midnight(date)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select breadth record for %s: %w", date.Format("2006-01-02"), err)
	}
	return rec, nil
}

func (a *currentSchemaAdapter) selectRange(ctx context.Context, q querier, start, end time.Time) ([]*contracts.RawBreadthRecord, error) {
	query := `SELECT ` + currentColumns + `
		FROM market_breadth_daily
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC`

	rows, err := q.Query(ctx, query, midnight(start), midnight(end))
	if err != nil {
		return nil, fmt.Errorf("query breadth range: %w", err)
	}
	defer rows.Close()

	var records []*contracts.RawBreadthRecord
	for rows.Next() {
		rec, err := scanCurrentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan breadth row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (a *currentSchemaAdapter) upsert(ctx context.Context, q querier, rec *contracts.RawBreadthRecord) (int64, error) {
	query := `
		INSERT INTO market_breadth_daily (
			date, ts,
			stocks_up_4pct_daily, stocks_down_4pct_daily,
			ratio_5day, ratio_10day,
			stocks_up_25pct_quarterly, stocks_down_25pct_quarterly,
			stocks_up_25pct_monthly, stocks_down_25pct_monthly,
			stocks_up_50pct_monthly, stocks_down_50pct_monthly,
			stocks_up_13pct_34days, stocks_down_13pct_34days,
			t2108, worden_universe, sp_reference, vix,
			breadth_score, trend_strength, market_phase,
			data_source, source_file, import_format, data_quality_score, notes,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
			NOW(), NOW()
		)
		ON CONFLICT (date) DO UPDATE SET
			ts = EXCLUDED.ts,
			stocks_up_4pct_daily = EXCLUDED.stocks_up_4pct_daily,
			stocks_down_4pct_daily = EXCLUDED.stocks_down_4pct_daily,
			ratio_5day = EXCLUDED.ratio_5day,
			ratio_10day = EXCLUDED.ratio_10day,
			stocks_up_25pct_quarterly = EXCLUDED.stocks_up_25pct_quarterly,
			stocks_down_25pct_quarterly = EXCLUDED.stocks_down_25pct_quarterly,
			stocks_up_25pct_monthly = EXCLUDED.stocks_up_25pct_monthly,
			stocks_down_25pct_monthly = EXCLUDED.stocks_down_25pct_monthly,
			stocks_up_50pct_monthly = EXCLUDED.stocks_up_50pct_monthly,
			stocks_down_50pct_monthly = EXCLUDED.stocks_down_50pct_monthly,
			stocks_up_13pct_34days = EXCLUDED.stocks_up_13pct_34days,
			stocks_down_13pct_34days = EXCLUDED.stocks_down_13pct_34days,
			t2108 = EXCLUDED.t2108,
			worden_universe = EXCLUDED.worden_universe,
			sp_reference = EXCLUDED.sp_reference,
			vix = EXCLUDED.vix,
			breadth_score = EXCLUDED.breadth_score,
			trend_strength = EXCLUDED.trend_strength,
			market_phase = EXCLUDED.market_phase,
			data_source = EXCLUDED.data_source,
			source_file = EXCLUDED.source_file,
			import_format = EXCLUDED.import_format,
			data_quality_score = EXCLUDED.data_quality_score,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id`

	var id int64
	err := q.QueryRow(ctx, query,
		rec.DateKey(), rec.Timestamp,
		rec.StocksUp4PctDaily, rec.StocksDown4PctDaily,
		rec.Ratio5Day, rec.Ratio10Day,
		rec.StocksUp25PctQuarterly, rec.StocksDown25PctQuarterly,
		rec.StocksUp25PctMonthly, rec.StocksDown25PctMonthly,
		rec.StocksUp50PctMonthly, rec.StocksDown50PctMonthly,
		rec.StocksUp13Pct34Days, rec.StocksDown13Pct34Days,
		rec.T2108, rec.WordenUniverse, nullableString(rec.SP500), rec.VIX,
		rec.BreadthScore, rec.TrendStrength, string(rec.MarketPhase),
		string(rec.DataSource), nullableString(rec.SourceFile),
		nullableString(rec.ImportFormat), rec.DataQualityScore,
		nullableString(rec.Notes),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert breadth record for %s: %w", rec.DateKey().Format("2006-01-02"), err)
	}
	return id, nil
}

// scanCurrentRow scans one row of the current-generation column set.
func scanCurrentRow(row pgx.Row) (*contracts.RawBreadthRecord, error) {
	rec := &contracts.RawBreadthRecord{}
	var (
		phase, source           *string
		sp, file, format, notes *string
	)

	err := row.Scan(
		&rec.ID, &rec.Date, &rec.Timestamp,
		&rec.StocksUp4PctDaily, &rec.StocksDown4PctDaily,
		&rec.Ratio5Day, &rec.Ratio10Day,
		&rec.StocksUp25PctQuarterly, &rec.StocksDown25PctQuarterly,
		&rec.StocksUp25PctMonthly, &rec.StocksDown25PctMonthly,
		&rec.StocksUp50PctMonthly, &rec.StocksDown50PctMonthly,
		&rec.StocksUp13Pct34Days, &rec.StocksDown13Pct34Days,
		&rec.T2108, &rec.WordenUniverse, &sp, &rec.VIX,
		&rec.BreadthScore, &rec.TrendStrength, &phase,
		&source, &file, &format, &rec.DataQualityScore, &notes,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.SP500 = stringOrEmpty(sp)
	rec.MarketPhase = contracts.MarketPhase(stringOrEmpty(phase))
	rec.DataSource = contracts.DataSource(stringOrEmpty(source))
	rec.SourceFile = stringOrEmpty(file)
	rec.ImportFormat = stringOrEmpty(format)
	rec.Notes = stringOrEmpty(notes)
	return rec, nil
}

// =============================================================================
// Legacy generation: market_breadth, secondary indicators live in notes
// =============================================================================

type legacySchemaAdapter struct {
	mapper *FieldMapper
}

const legacyColumns = `
	id, date, "timestamp",
	advancing_issues, declining_issues,
	t2108, worden_universe, sp500,
	breadth_score, trend_strength, market_phase,
	data_source, source_file, import_format, data_quality_score, notes,
	created_at, updated_at`

func (a *legacySchemaAdapter) selectByDate(ctx context.Context, q querier, date time.Time, forUpdate bool) (*contracts.RawBreadthRecord, error) {
	query := `SELECT ` + legacyColumns + ` FROM market_breadth WHERE date = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	rec, err := a.scanLegacyRow(q.QueryRow(ctx, query, midnight(date)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select legacy breadth record for %s: %w", date.Format("2006-01-02"), err)
	}
	return rec, nil
}

func (a *legacySchemaAdapter) selectRange(ctx context.Context, q querier, start, end time.Time) ([]*contracts.RawBreadthRecord, error) {
	query := `SELECT ` + legacyColumns + `
		FROM market_breadth
		WHERE date >= $1 AND date <= $2
		ORDER BY date ASC`

	rows, err := q.Query(ctx, query, midnight(start), midnight(end))
	if err != nil {
		return nil, fmt.Errorf("query legacy breadth range: %w", err)
	}
	defer rows.Close()

	var records []*contracts.RawBreadthRecord
	for rows.Next() {
		rec, err := a.scanLegacyRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan legacy breadth row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (a *legacySchemaAdapter) upsert(ctx context.Context, q querier, rec *contracts.RawBreadthRecord) (int64, error) {
	// Fields without legacy columns survive in the notes string.
	notes := a.mapper.BuildNotes(rec)

	query := `
		INSERT INTO market_breadth (
			date, "timestamp",
			advancing_issues, declining_issues,
			t2108, worden_universe, sp500,
			breadth_score, trend_strength, market_phase,
			data_source, source_file, import_format, data_quality_score, notes,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			NOW(), NOW()
		)
		ON CONFLICT (date) DO UPDATE SET
			"timestamp" = EXCLUDED."timestamp",
			advancing_issues = EXCLUDED.advancing_issues,
			declining_issues = EXCLUDED.declining_issues,
			t2108 = EXCLUDED.t2108,
			worden_universe = EXCLUDED.worden_universe,
			sp500 = EXCLUDED.sp500,
			breadth_score = EXCLUDED.breadth_score,
			trend_strength = EXCLUDED.trend_strength,
			market_phase = EXCLUDED.market_phase,
			data_source = EXCLUDED.data_source,
			source_file = EXCLUDED.source_file,
			import_format = EXCLUDED.import_format,
			data_quality_score = EXCLUDED.data_quality_score,
			notes = EXCLUDED.notes,
			updated_at = NOW()
		RETURNING id`

	var id int64
	err := q.QueryRow(ctx, query,
		rec.DateKey(), rec.Timestamp,
		rec.StocksUp4PctDaily, rec.StocksDown4PctDaily,
		rec.T2108, rec.WordenUniverse, nullableString(rec.SP500),
		rec.BreadthScore, rec.TrendStrength, string(rec.MarketPhase),
		string(rec.DataSource), nullableString(rec.SourceFile),
		nullableString(rec.ImportFormat), rec.DataQualityScore,
		nullableString(notes),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert legacy breadth record for %s: %w", rec.DateKey().Format("2006-01-02"), err)
	}
	return id, nil
}

// scanLegacyRow scans one legacy row and hydrates the overflow fields from
// notes, so callers see the same logical record either way.
func (a *legacySchemaAdapter) scanLegacyRow(row pgx.Row) (*contracts.RawBreadthRecord, error) {
	rec := &contracts.RawBreadthRecord{}
	var (
		phase, source           *string
		sp, file, format, notes *string
	)

	err := row.Scan(
		&rec.ID, &rec.Date, &rec.Timestamp,
		&rec.StocksUp4PctDaily, &rec.StocksDown4PctDaily,
		&rec.T2108, &rec.WordenUniverse, &sp,
		&rec.BreadthScore, &rec.TrendStrength, &phase,
		&source, &file, &format, &rec.DataQualityScore, &notes,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.SP500 = stringOrEmpty(sp)
	rec.MarketPhase = contracts.MarketPhase(stringOrEmpty(phase))
	rec.DataSource = contracts.DataSource(stringOrEmpty(source))
	rec.SourceFile = stringOrEmpty(file)
	rec.ImportFormat = stringOrEmpty(format)
	rec.Notes = stringOrEmpty(notes)

	a.mapper.ApplyNotes(rec, rec.Notes)
	return rec, nil
}

// =============================================================================
// helpers
// =============================================================================

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func midnight(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
