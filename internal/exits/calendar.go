// Package exits computes holiday-aware exit plans from a single VIX regime
// matrix shared between hold-day counts and price targets.
package exits

import (
	"sync"
	"time"
)

// =============================================================================
// US Trading Calendar
// Full-closure NYSE holidays plus weekends. Early-close days still trade.
// =============================================================================

// USTradingCalendar implements contracts.TradingCalendar for the US market.
// Holiday tables are derived per year on first use and cached; construct one
// instance at startup and inject it everywhere a calendar is needed.
type USTradingCalendar struct {
	mu    sync.RWMutex
	years map[int]map[time.Time]struct{}
	extra map[time.Time]struct{}
}

// NewUSTradingCalendar creates the calendar. extraClosures lists ad-hoc
// full-market closures as YYYY-MM-DD strings; unparseable entries are
// ignored (rules.Validate already rejects them upstream).
func NewUSTradingCalendar(extraClosures []string) *USTradingCalendar {
	extra := make(map[time.Time]struct{}, len(extraClosures))
	for _, s := range extraClosures {
		if d, err := time.Parse("2006-01-02", s); err == nil {
			extra[midnightUTC(d)] = struct{}{}
		}
	}
	return &USTradingCalendar{
		years: make(map[int]map[time.Time]struct{}),
		extra: extra,
	}
}

// IsWeekend reports whether the date falls on Saturday or Sunday.
func (c *USTradingCalendar) IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsHoliday reports whether the date is a full-market-closure holiday.
func (c *USTradingCalendar) IsHoliday(date time.Time) bool {
	key := midnightUTC(date)
	if _, ok := c.extra[key]; ok {
		return true
	}

	c.mu.RLock()
	table, ok := c.years[key.Year()]
	c.mu.RUnlock()

	if !ok {
		table = holidaysForYear(key.Year())
		c.mu.Lock()
		c.years[key.Year()] = table
		c.mu.Unlock()
	}

	_, ok = table[key]
	return ok
}

// IsTradingDay reports whether the market is open on the date.
func (c *USTradingCalendar) IsTradingDay(date time.Time) bool {
	return !c.IsWeekend(date) && !c.IsHoliday(date)
}

// holidaysForYear builds the full-closure set for one year.
func holidaysForYear(year int) map[time.Time]struct{} {
	days := []time.Time{
		observed(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)),   // New Year's Day
		nthWeekday(year, time.January, time.Monday, 3),                     // Martin Luther King Jr. Day
		nthWeekday(year, time.February, time.Monday, 3),                    // Washington's Birthday
		goodFriday(year),                                                   // Good Friday
		lastWeekday(year, time.May, time.Monday),                           // Memorial Day
		observed(time.Date(year, time.June, 19, 0, 0, 0, 0, time.UTC)),     // Juneteenth
		observed(time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC)),      // Independence Day
		nthWeekday(year, time.September, time.Monday, 1),                   // Labor Day
		nthWeekday(year, time.November, time.Thursday, 4),                  // Thanksgiving
		observed(time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC)), // Christmas
	}

	table := make(map[time.Time]struct{}, len(days))
	for _, d := range days {
		table[d] = struct{}{}
	}
	return table
}

// observed shifts weekend holidays to the adjacent weekday: Saturday back to
// Friday, Sunday forward to Monday.
func observed(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	default:
		return d
	}
}

// nthWeekday returns the nth given weekday of a month.
func nthWeekday(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	d := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(weekday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset+(n-1)*7)
}

// lastWeekday returns the last given weekday of a month.
func lastWeekday(year int, month time.Month, weekday time.Weekday) time.Time {
	d := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	offset := (int(d.Weekday()) - int(weekday) + 7) % 7
	return d.AddDate(0, 0, -offset)
}

// goodFriday is two days before Easter Sunday (anonymous Gregorian computus).
func goodFriday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1

	easter := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return easter.AddDate(0, 0, -2)
}

func midnightUTC(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
