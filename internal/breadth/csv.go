package breadth

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bidback/backend/internal/contracts"
	"github.com/bidback/backend/pkg/logger"
)

// =============================================================================
// Stockbee CSV Import / Export
// The historical exports come in two flavors: the raw Stockbee download with
// a category-title line above the real header, and re-exports of our own
// fixed-column format. Both funnel through the FieldMapper.
// =============================================================================

// Import formats as recorded in provenance.
const (
	FormatStockbee = "stockbee"
	FormatStandard = "standard"
)

// CSVImporter parses breadth CSV files into canonical records. Parsing and
// persistence are separate: the importer never touches the database.
type CSVImporter struct {
	mapper *FieldMapper
	log    *logger.Logger
}

// NewCSVImporter creates an importer over the shared field mapper.
func NewCSVImporter(mapper *FieldMapper, log *logger.Logger) *CSVImporter {
	return &CSVImporter{
		mapper: mapper,
		log:    log.WithComponent("breadth.csv"),
	}
}

// Parse reads a whole CSV stream and returns the parseable records plus one
// RowError per rejected row. A bad row never aborts the batch; only an
// unreadable stream or a missing header is a hard error. Row indexes in the
// errors are 1-based data rows, title and header lines excluded.
func (i *CSVImporter) Parse(ctx context.Context, r io.Reader, sourceFile string) ([]*contracts.RawBreadthRecord, []contracts.RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, format, err := i.readHeader(reader)
	if err != nil {
		return nil, nil, err
	}

	var (
		records []*contracts.RawBreadthRecord
		rowErrs []contracts.RowError
		rowNum  int
	)
	for {
		select {
		case <-ctx.Done():
			return records, rowErrs, ctx.Err()
		default:
		}

		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			rowNum++
			rowErrs = append(rowErrs, contracts.RowError{
				Row: rowNum, Message: fmt.Sprintf("malformed csv row: %v", err),
			})
			continue
		}
		if isBlankRow(fields) {
			continue
		}
		rowNum++

		rec, errs := i.mapper.MapRow(zipRow(headers, fields))
		if len(errs) > 0 {
			for _, e := range errs {
				e.Row = rowNum
				rowErrs = append(rowErrs, e)
			}
			continue
		}

		rec.DataSource = contracts.DataSourceImported
		rec.SourceFile = sourceFile
		rec.ImportFormat = format
		rec.Notes = i.mapper.BuildNotes(rec)
		records = append(records, rec)
	}

	i.log.WithFields(map[string]interface{}{
		"file":   sourceFile,
		"format": format,
		"parsed": len(records),
		"errors": len(rowErrs),
	}).Info("csv parse complete")

	return records, rowErrs, nil
}

// readHeader consumes the header line, skipping at most one leading
// category-title line, and classifies the format.
func (i *CSVImporter) readHeader(reader *csv.Reader) ([]string, string, error) {
	for attempt := 0; attempt < 2; attempt++ {
		fields, err := reader.Read()
		if err == io.EOF {
			return nil, "", fmt.Errorf("empty csv: no header row")
		}
		if err != nil {
			return nil, "", fmt.Errorf("read csv header: %w", err)
		}
		if i.looksLikeHeader(fields) {
			return fields, DetectFormat(fields), nil
		}
		// Raw Stockbee downloads put a title like "Primary Breadth
		// Indicators" above the column names.
	}
	return nil, "", fmt.Errorf("no recognizable header row in first two lines")
}

// looksLikeHeader requires at least two known column spellings, one of them
// the date column.
func (i *CSVImporter) looksLikeHeader(fields []string) bool {
	known, hasDate := 0, false
	for _, f := range fields {
		col, ok := i.mapper.Canonical(f)
		if !ok {
			continue
		}
		known++
		if col == colDate {
			hasDate = true
		}
	}
	return hasDate && known >= 2
}

// DetectFormat classifies a header row. Stockbee exports carry the short
// percent-style labels or the verbose multi-year spellings; our own exports
// use the canonical column names.
func DetectFormat(headers []string) string {
	for _, h := range headers {
		key := normalizeKey(h)
		if strings.Contains(key, "up4") ||
			strings.Contains(key, "4% plus") ||
			strings.Contains(key, "primary breadth") ||
			strings.Contains(key, "t2108 (") {
			return FormatStockbee
		}
	}
	return FormatStandard
}

func zipRow(headers, fields []string) map[string]string {
	row := make(map[string]string, len(headers))
	for idx, h := range headers {
		if idx < len(fields) {
			row[h] = fields[idx]
		}
	}
	return row
}

func isBlankRow(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// =============================================================================
// Export
// =============================================================================

// exportColumns is the fixed output order. Derived values export after the
// raw fields so re-importing a file round-trips cleanly.
var exportColumns = []string{
	colDate,
	colUp4Daily, colDown4Daily,
	colRatio5Day, colRatio10Day,
	colUp25Quarterly, colDown25Quarterly,
	colUp25Monthly, colDown25Monthly,
	colUp50Monthly, colDown50Monthly,
	colUp13Pct34Days, colDown13Pct34Days,
	colT2108, colWorden, colSP500, colVIX,
	"breadth_score", "trend_strength", "market_phase",
}

// WriteCSV exports records in the fixed column order. Absent fields export as
// empty cells, never as zero.
func WriteCSV(w io.Writer, records []*contracts.RawBreadthRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportColumns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range records {
		if err := writer.Write(exportRow(rec)); err != nil {
			return fmt.Errorf("write csv row for %s: %w", rec.DateKey().Format("2006-01-02"), err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func exportRow(rec *contracts.RawBreadthRecord) []string {
	return []string{
		rec.DateKey().Format("2006-01-02"),
		cellInt(rec.StocksUp4PctDaily), cellInt(rec.StocksDown4PctDaily),
		cellFloat(rec.Ratio5Day), cellFloat(rec.Ratio10Day),
		cellInt(rec.StocksUp25PctQuarterly), cellInt(rec.StocksDown25PctQuarterly),
		cellInt(rec.StocksUp25PctMonthly), cellInt(rec.StocksDown25PctMonthly),
		cellInt(rec.StocksUp50PctMonthly), cellInt(rec.StocksDown50PctMonthly),
		cellInt(rec.StocksUp13Pct34Days), cellInt(rec.StocksDown13Pct34Days),
		cellFloat(rec.T2108), cellInt(rec.WordenUniverse), rec.SP500, cellFloat(rec.VIX),
		strconv.Itoa(rec.BreadthScore), strconv.Itoa(rec.TrendStrength), string(rec.MarketPhase),
	}
}

func cellInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func cellFloat(p *float64) string {
	if p == nil {
		return ""
	}
	return strconv.FormatFloat(*p, 'g', -1, 64)
}
