package contracts

import (
	"fmt"
	"time"
)

// =============================================================================
// CSV Import Results
// =============================================================================

// RowError describes a single rejected row of a CSV import.
// One bad row never aborts the batch.
type RowError struct {
	Row     int    `json:"row"` // 1-based data row index
	Field   string `json:"field,omitempty"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e RowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: field %q value %q: %s", e.Row, e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ImportResult summarizes a CSV import. Partial success is the designed
// behavior: committed rows stay committed when later rows fail.
type ImportResult struct {
	Imported   int        `json:"imported"`
	Skipped    int        `json:"skipped"`
	Duplicates int        `json:"duplicates"`
	Errors     []RowError `json:"errors,omitempty"`

	// DuplicateDates lists the dates that already existed and were merged.
	DuplicateDates []string `json:"duplicate_dates,omitempty"`

	DateRangeStart string `json:"date_range_start,omitempty"`
	DateRangeEnd   string `json:"date_range_end,omitempty"`
}

// Total returns the number of rows the importer looked at. Every row is
// either imported or skipped; Errors carry the detail for the skips.
func (r *ImportResult) Total() int {
	return r.Imported + r.Skipped
}

// ImportLogEntry is the persisted audit record for one import run.
type ImportLogEntry struct {
	ID             int64     `json:"id,omitempty"`
	Filename       string    `json:"filename"`
	ImportType     string    `json:"import_type"` // "csv", "manual", "api"
	RecordsTotal   int       `json:"records_total"`
	RecordsOK      int       `json:"records_ok"`
	RecordsFailed  int       `json:"records_failed"`
	DateRangeStart string    `json:"date_range_start,omitempty"`
	DateRangeEnd   string    `json:"date_range_end,omitempty"`
	Status         string    `json:"status"` // "completed", "failed"
	ErrorLog       string    `json:"error_log,omitempty"`
	CompletedAt    time.Time `json:"completed_at"`
}
