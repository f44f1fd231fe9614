package breadth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bidback/backend/internal/contracts"
)

// =============================================================================
// Field Mapper
// Normalizes the many header spellings seen in Stockbee exports (2007-2025)
// onto canonical column names, and round-trips overflow fields through the
// notes side-channel for schemas that lack dedicated columns.
// =============================================================================

// Canonical column names. These match the current physical schema.
const (
	colDate            = "date"
	colUp4Daily        = "stocks_up_4pct_daily"
	colDown4Daily      = "stocks_down_4pct_daily"
	colRatio5Day       = "ratio_5day"
	colRatio10Day      = "ratio_10day"
	colUp25Quarterly   = "stocks_up_25pct_quarterly"
	colDown25Quarterly = "stocks_down_25pct_quarterly"
	colUp25Monthly     = "stocks_up_25pct_monthly"
	colDown25Monthly   = "stocks_down_25pct_monthly"
	colUp50Monthly     = "stocks_up_50pct_monthly"
	colDown50Monthly   = "stocks_down_50pct_monthly"
	colUp13Pct34Days   = "stocks_up_13pct_34days"
	colDown13Pct34Days = "stocks_down_13pct_34days"
	colWorden          = "worden_universe"
	colT2108           = "t2108"
	colSP500           = "sp_reference"
	colVIX             = "vix"
)

// notesPrefix marks field data recovered from CSV imports inside Notes.
const notesPrefix = "CSV: "

// aliasTable maps every known header spelling (normalized) to its canonical
// column. Built once; both the CSV short labels and the verbose multi-year
// Stockbee spellings are listed, plus the column names themselves so the
// table is usable in both directions.
func aliasTable() map[string]string {
	aliases := map[string][]string{
		colDate: {"date"},
		colUp4Daily: {
			"up4%", "up4", "4% plus daily",
			"number of stocks up 4% plus today",
		},
		colDown4Daily: {
			"down4%", "down4", "4% down daily",
			"number of stocks down 4% plus today",
		},
		colRatio5Day: {
			"5day", "ratio5day", "5 day ratio",
			"5 day breadth ratio of 4% up/4% down",
		},
		colRatio10Day: {
			"10day", "ratio10day", "10 day ratio",
			"10 day breadth ratio of 4% up/4% down",
		},
		colUp25Quarterly: {
			"up25%quarter", "up25quarter", "25% plus quarter",
			"number of stocks up 25% plus in a quarter",
		},
		colDown25Quarterly: {
			"down25%quarter", "down25quarter", "25% down quarter",
			"number of stocks down 25% + in a quarter",
			"number of stocks 25% down plus in a quarter",
		},
		colUp25Monthly: {
			"up25%month", "up25month", "25% month",
			"number of stocks up 25% + in a month",
		},
		colDown25Monthly: {
			"down25%month", "down25month", "25 down month",
			"number of stocks down 25% + in a month",
		},
		colUp50Monthly: {
			"up50%month", "up50month", "50% up",
			"number of stocks up 50% + in a month",
		},
		colDown50Monthly: {
			"down50%month", "down50month", "50% down",
			"number of stocks down 50% + in a month",
		},
		colUp13Pct34Days: {
			"up13%34day", "up13day34",
			"number of stocks up 13% + in 34 days",
		},
		colDown13Pct34Days: {
			"down13%34day", "down13day34",
			"number of stocks down 13% + in 34 days",
		},
		colWorden: {
			"worden", "worden common stock universe",
			"number of stocks in worden common stock universe",
		},
		colT2108: {
			"t2108", "t2108 (% of stocks above 40 day ma)",
		},
		colSP500: {
			"s&p", "sp", "sp500",
		},
		colVIX: {"vix"},
	}

	table := make(map[string]string, len(aliases)*4)
	for col, names := range aliases {
		table[normalizeKey(col)] = col
		for _, name := range names {
			table[normalizeKey(name)] = col
		}
	}
	return table
}

// overflowColumns are the fields the legacy schema has no columns for; they
// ride in the notes string, keyed by their short CSV label.
var overflowColumns = []struct {
	column string
	label  string
}{
	{colRatio5Day, "ratio5day"},
	{colRatio10Day, "ratio10day"},
	{colUp25Quarterly, "up25quarter"},
	{colDown25Quarterly, "down25quarter"},
	{colUp25Monthly, "up25month"},
	{colDown25Monthly, "down25month"},
	{colUp50Monthly, "up50month"},
	{colDown50Monthly, "down50month"},
	{colUp13Pct34Days, "up13day34"},
	{colDown13Pct34Days, "down13day34"},
	{colVIX, "vix"},
}

// FieldMapper converts loosely-labelled key/value rows into canonical
// RawBreadthRecords. Safe for concurrent use once constructed.
type FieldMapper struct {
	aliases map[string]string
}

// NewFieldMapper builds the mapper with the full alias table.
func NewFieldMapper() *FieldMapper {
	return &FieldMapper{aliases: aliasTable()}
}

// Canonical resolves any known header spelling to its column name.
func (m *FieldMapper) Canonical(key string) (string, bool) {
	col, ok := m.aliases[normalizeKey(key)]
	return col, ok
}

// MapRow converts one row of header->value pairs into a record. A bad date
// or an unparseable numeric is fatal for the row (record is nil and the
// errors say why); unknown headers are silently ignored.
func (m *FieldMapper) MapRow(row map[string]string) (*contracts.RawBreadthRecord, []contracts.RowError) {
	var errs []contracts.RowError
	rec := &contracts.RawBreadthRecord{}

	dateSeen := false
	for key, raw := range row {
		col, ok := m.Canonical(key)
		if !ok {
			continue
		}

		switch col {
		case colDate:
			dateSeen = true
			date, err := ParseDate(raw)
			if err != nil {
				errs = append(errs, contracts.RowError{
					Field: key, Value: raw, Message: "invalid date",
				})
				continue
			}
			rec.Date = date
		case colSP500:
			// Display-only: keep the formatting, just strip quoting noise.
			rec.SP500 = strings.Trim(strings.TrimSpace(raw), `"`)
		case colRatio5Day, colRatio10Day, colT2108, colVIX:
			val, err := CleanFloat(raw)
			if err != nil {
				errs = append(errs, contracts.RowError{
					Field: key, Value: raw, Message: "not numeric",
				})
				continue
			}
			m.setFloat(rec, col, val)
		default:
			val, err := CleanCount(raw)
			if err != nil {
				errs = append(errs, contracts.RowError{
					Field: key, Value: raw, Message: "not numeric",
				})
				continue
			}
			m.setInt(rec, col, val)
		}
	}

	if !dateSeen {
		errs = append(errs, contracts.RowError{Field: "date", Message: "missing date"})
	}
	if len(errs) > 0 {
		return nil, errs
	}

	rec.Timestamp = contracts.MarketCloseUTC(rec.Date)
	return rec, nil
}

func (m *FieldMapper) setFloat(rec *contracts.RawBreadthRecord, col string, val *float64) {
	if val == nil {
		return
	}
	switch col {
	case colRatio5Day:
		rec.Ratio5Day = val
	case colRatio10Day:
		rec.Ratio10Day = val
	case colT2108:
		rec.T2108 = val
	case colVIX:
		rec.VIX = val
	}
}

func (m *FieldMapper) setInt(rec *contracts.RawBreadthRecord, col string, val *int) {
	if val == nil {
		return
	}
	switch col {
	case colUp4Daily:
		rec.StocksUp4PctDaily = val
	case colDown4Daily:
		rec.StocksDown4PctDaily = val
	case colUp25Quarterly:
		rec.StocksUp25PctQuarterly = val
	case colDown25Quarterly:
		rec.StocksDown25PctQuarterly = val
	case colUp25Monthly:
		rec.StocksUp25PctMonthly = val
	case colDown25Monthly:
		rec.StocksDown25PctMonthly = val
	case colUp50Monthly:
		rec.StocksUp50PctMonthly = val
	case colDown50Monthly:
		rec.StocksDown50PctMonthly = val
	case colUp13Pct34Days:
		rec.StocksUp13Pct34Days = val
	case colDown13Pct34Days:
		rec.StocksDown13Pct34Days = val
	case colWorden:
		rec.WordenUniverse = val
	}
}

// =============================================================================
// Notes side-channel
// =============================================================================

// BuildNotes serializes the overflow fields into a single recoverable string:
// "CSV: up25quarter=45, ratio5day=1.5, ...". When none of the overflow
// fields carry a value it returns the explicit sentinel, so consumers can
// tell "no extra data" from a failed extraction.
func (m *FieldMapper) BuildNotes(rec *contracts.RawBreadthRecord) string {
	var parts []string
	for _, of := range overflowColumns {
		if v, ok := overflowValue(rec, of.column); ok {
			parts = append(parts, of.label+"="+v)
		}
	}
	if len(parts) == 0 {
		return contracts.NotesSentinel
	}
	return notesPrefix + strings.Join(parts, ", ")
}

// ExtractFromNotes is the exact inverse of BuildNotes. The key may be either
// the short CSV label or the canonical column name.
func (m *FieldMapper) ExtractFromNotes(notes, key string) (string, bool) {
	if !strings.HasPrefix(notes, notesPrefix) || notes == contracts.NotesSentinel {
		return "", false
	}

	wanted, ok := m.Canonical(key)
	if !ok {
		return "", false
	}

	for _, pair := range strings.Split(strings.TrimPrefix(notes, notesPrefix), ",") {
		k, v, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			continue
		}
		if col, ok := m.Canonical(k); ok && col == wanted {
			return v, true
		}
	}
	return "", false
}

// ApplyNotes hydrates the overflow fields of rec from a notes string written
// by BuildNotes. Already-populated fields are left alone.
func (m *FieldMapper) ApplyNotes(rec *contracts.RawBreadthRecord, notes string) {
	for _, of := range overflowColumns {
		if _, ok := overflowValue(rec, of.column); ok {
			continue
		}
		raw, ok := m.ExtractFromNotes(notes, of.label)
		if !ok {
			continue
		}
		switch of.column {
		case colRatio5Day, colRatio10Day, colVIX:
			if v, err := CleanFloat(raw); err == nil {
				m.setFloat(rec, of.column, v)
			}
		default:
			if v, err := CleanCount(raw); err == nil {
				m.setInt(rec, of.column, v)
			}
		}
	}
}

// overflowValue formats the overflow field's current value, reporting whether
// it is present.
func overflowValue(rec *contracts.RawBreadthRecord, col string) (string, bool) {
	switch col {
	case colRatio5Day:
		return formatFloatPtr(rec.Ratio5Day)
	case colRatio10Day:
		return formatFloatPtr(rec.Ratio10Day)
	case colVIX:
		return formatFloatPtr(rec.VIX)
	case colUp25Quarterly:
		return formatIntPtr(rec.StocksUp25PctQuarterly)
	case colDown25Quarterly:
		return formatIntPtr(rec.StocksDown25PctQuarterly)
	case colUp25Monthly:
		return formatIntPtr(rec.StocksUp25PctMonthly)
	case colDown25Monthly:
		return formatIntPtr(rec.StocksDown25PctMonthly)
	case colUp50Monthly:
		return formatIntPtr(rec.StocksUp50PctMonthly)
	case colDown50Monthly:
		return formatIntPtr(rec.StocksDown50PctMonthly)
	case colUp13Pct34Days:
		return formatIntPtr(rec.StocksUp13Pct34Days)
	case colDown13Pct34Days:
		return formatIntPtr(rec.StocksDown13Pct34Days)
	}
	return "", false
}

func formatFloatPtr(p *float64) (string, bool) {
	if p == nil {
		return "", false
	}
	return strconv.FormatFloat(*p, 'g', -1, 64), true
}

func formatIntPtr(p *int) (string, bool) {
	if p == nil {
		return "", false
	}
	return strconv.Itoa(*p), true
}

// =============================================================================
// Value cleaning
// =============================================================================

// absentMarkers are the strings the historical CSVs use for missing data.
// The literal "0" is NOT here: zero is a real observation, absence is not.
var absentMarkers = map[string]struct{}{
	"": {}, "null": {}, "undefined": {}, "n/a": {}, "na": {}, "md": {}, "-": {},
}

// CleanFloat parses a numeric string tolerating thousands separators,
// currency symbols, quotes and surrounding whitespace. Absent markers map to
// (nil, nil), never to zero.
func CleanFloat(raw string) (*float64, error) {
	s := strings.TrimSpace(raw)
	if _, absent := absentMarkers[strings.ToLower(s)]; absent {
		return nil, nil
	}

	s = strings.NewReplacer(`"`, "", ",", "", "$", "", " ", "").Replace(s)
	if _, absent := absentMarkers[strings.ToLower(s)]; absent {
		return nil, nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("parse numeric %q: %w", raw, err)
	}
	return &v, nil
}

// CleanCount parses a non-negative-ish integer field the same way CleanFloat
// does; fractional inputs are truncated toward zero like the source data
// loader did.
func CleanCount(raw string) (*int, error) {
	f, err := CleanFloat(raw)
	if err != nil || f == nil {
		return nil, err
	}
	v := int(*f)
	return &v, nil
}

// ParseDate accepts MM/DD/YYYY and YYYY-MM-DD (with or without zero padding)
// and normalizes to a midnight-UTC date.
func ParseDate(raw string) (time.Time, error) {
	s := strings.TrimSpace(raw)
	for _, layout := range []string{"1/2/2006", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}

// normalizeKey lowercases, trims and collapses runs of whitespace. The
// historical exports are full of double spaces and trailing blanks.
func normalizeKey(key string) string {
	return strings.Join(strings.Fields(strings.ToLower(key)), " ")
}
