package contracts

import "time"

// =============================================================================
// Market Breadth Raw Data
// SSOT: one logical record per calendar date, keyed by date
// =============================================================================

// DataSource identifies where a breadth record came from.
type DataSource string

const (
	DataSourceManual   DataSource = "manual"
	DataSourceImported DataSource = "imported"
	DataSourceAPI      DataSource = "api"
)

// MarketPhase labels the market regime derived from the breadth score.
type MarketPhase string

const (
	PhaseStrongBull MarketPhase = "STRONG_BULL"
	PhaseBull       MarketPhase = "BULL"
	PhaseNeutral    MarketPhase = "NEUTRAL"
	PhaseBear       MarketPhase = "BEAR"
	PhaseStrongBear MarketPhase = "STRONG_BEAR"
)

// NotesSentinel is stored in Notes when a row carried no optional fields.
// Distinguishes "nothing to recover" from a failed extraction.
const NotesSentinel = "CSV: no valid data fields found"

// RawBreadthRecord is the canonical daily market-breadth record.
// Optional numeric fields are pointers: nil means absent, a pointer to zero
// means the source really reported zero. The distinction drives scoring.
type RawBreadthRecord struct {
	ID   int64     `json:"id,omitempty"`
	Date time.Time `json:"date"`
	// Timestamp is pinned to market close (16:00 ET) for the record's date so
	// repeated imports of the same date always collide on the same key.
	Timestamp time.Time `json:"timestamp"`

	// Primary indicators
	StocksUp4PctDaily   *int `json:"stocks_up_4pct_daily,omitempty"`
	StocksDown4PctDaily *int `json:"stocks_down_4pct_daily,omitempty"`

	// Secondary indicators
	Ratio5Day                *float64 `json:"ratio_5day,omitempty"`
	Ratio10Day               *float64 `json:"ratio_10day,omitempty"`
	StocksUp25PctQuarterly   *int     `json:"stocks_up_25pct_quarterly,omitempty"`
	StocksDown25PctQuarterly *int     `json:"stocks_down_25pct_quarterly,omitempty"`
	StocksUp25PctMonthly     *int     `json:"stocks_up_25pct_monthly,omitempty"`
	StocksDown25PctMonthly   *int     `json:"stocks_down_25pct_monthly,omitempty"`
	StocksUp50PctMonthly     *int     `json:"stocks_up_50pct_monthly,omitempty"`
	StocksDown50PctMonthly   *int     `json:"stocks_down_50pct_monthly,omitempty"`
	StocksUp13Pct34Days      *int     `json:"stocks_up_13pct_34days,omitempty"`
	StocksDown13Pct34Days    *int     `json:"stocks_down_13pct_34days,omitempty"`

	// Reference indicators
	T2108          *float64 `json:"t2108,omitempty"`           // % of stocks above 40-day MA, 0-100
	WordenUniverse *int     `json:"worden_universe,omitempty"` // Worden common stock universe size
	SP500          string   `json:"sp500,omitempty"`           // display-only, formatting preserved
	VIX            *float64 `json:"vix,omitempty"`

	// Derived values, recomputed on every merge
	BreadthScore  int         `json:"breadth_score"`
	TrendStrength int         `json:"trend_strength"`
	MarketPhase   MarketPhase `json:"market_phase"`

	// Provenance
	DataSource       DataSource `json:"data_source"`
	SourceFile       string     `json:"source_file,omitempty"`
	ImportFormat     string     `json:"import_format,omitempty"`
	DataQualityScore float64    `json:"data_quality_score"` // 0.0 ~ 1.0
	Notes            string     `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// MarketCloseUTC returns the canonical conflict-key timestamp for a date:
// the date at 16:00 US Eastern, expressed in UTC.
func MarketCloseUTC(date time.Time) time.Time {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// Fall back to a fixed offset; the key only has to be stable.
		loc = time.FixedZone("ET", -5*3600)
	}
	close := time.Date(date.Year(), date.Month(), date.Day(), 16, 0, 0, 0, loc)
	return close.UTC()
}

// DateKey returns the record's date normalized to midnight UTC.
func (r *RawBreadthRecord) DateKey() time.Time {
	return time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC)
}

// HasPrimaryIndicators reports whether both daily 4% counts are present.
func (r *RawBreadthRecord) HasPrimaryIndicators() bool {
	return r.StocksUp4PctDaily != nil && r.StocksDown4PctDaily != nil
}

// IntPtr and FloatPtr are small literal helpers used across the import path
// and in tests.
func IntPtr(v int) *int { return &v }

// FloatPtr returns a pointer to v.
func FloatPtr(v float64) *float64 { return &v }
