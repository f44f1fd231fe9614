package contracts

import (
	"context"
	"time"
)

// =============================================================================
// Repository Interfaces
// SSOT: persistence contracts live here; implementations under internal/breadth
// =============================================================================

// BreadthStore persists raw breadth records with date-keyed merge semantics.
type BreadthStore interface {
	// Upsert inserts or merges a record for its date and returns the row id.
	// On conflict, incoming nulls never clobber stored non-null raw fields;
	// derived score/trend/phase are always overwritten.
	Upsert(ctx context.Context, record *RawBreadthRecord) (int64, error)

	// GetByDate returns the record for a date, or (nil, nil) when absent.
	GetByDate(ctx context.Context, date time.Time) (*RawBreadthRecord, error)

	// GetRange returns records with start <= date <= end, ascending by date.
	GetRange(ctx context.Context, start, end time.Time) ([]*RawBreadthRecord, error)

	// LogImport appends an import audit entry.
	LogImport(ctx context.Context, entry *ImportLogEntry) error
}

// TradingCalendar answers whether a calendar day trades.
type TradingCalendar interface {
	IsHoliday(date time.Time) bool
	IsWeekend(date time.Time) bool
	IsTradingDay(date time.Time) bool
}
