package exits

import (
	"testing"
	"time"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestHolidays2025(t *testing.T) {
	cal := NewUSTradingCalendar(nil)

	holidays := []time.Time{
		d(2025, time.January, 1),   // New Year's Day
		d(2025, time.January, 20),  // MLK Day (3rd Monday)
		d(2025, time.February, 17), // Washington's Birthday
		d(2025, time.April, 18),    // Good Friday
		d(2025, time.May, 26),      // Memorial Day (last Monday)
		d(2025, time.June, 19),     // Juneteenth
		d(2025, time.July, 4),      // Independence Day
		d(2025, time.September, 1), // Labor Day
		d(2025, time.November, 27), // Thanksgiving (4th Thursday)
		d(2025, time.December, 25), // Christmas
	}
	for _, day := range holidays {
		if !cal.IsHoliday(day) {
			t.Errorf("%s should be a holiday", day.Format("2006-01-02"))
		}
		if cal.IsTradingDay(day) {
			t.Errorf("%s should not trade", day.Format("2006-01-02"))
		}
	}

	// Ordinary weekdays trade; weekends never do.
	if !cal.IsTradingDay(d(2025, time.January, 15)) {
		t.Error("2025-01-15 (Wednesday) should trade")
	}
	if cal.IsTradingDay(d(2025, time.January, 18)) {
		t.Error("2025-01-18 (Saturday) should not trade")
	}
	if !cal.IsWeekend(d(2025, time.January, 19)) {
		t.Error("2025-01-19 is a Sunday")
	}
}

func TestObservedShift(t *testing.T) {
	cal := NewUSTradingCalendar(nil)

	// July 4 2026 is a Saturday: observed Friday July 3.
	if !cal.IsHoliday(d(2026, time.July, 3)) {
		t.Error("2026-07-03 should be the observed Independence Day")
	}
	if cal.IsHoliday(d(2026, time.July, 4)) {
		t.Error("2026-07-04 itself (Saturday) is covered by the weekend, not the holiday table")
	}

	// January 1 2022 was a Saturday: observed 2021-12-31.
	if !cal.IsHoliday(d(2021, time.December, 31)) {
		t.Error("2021-12-31 should be the observed New Year's Day")
	}
}

func TestGoodFriday(t *testing.T) {
	// Computus spot checks across cycles.
	tests := map[int]time.Time{
		2024: d(2024, time.March, 29),
		2025: d(2025, time.April, 18),
		2026: d(2026, time.April, 3),
	}
	for year, want := range tests {
		if got := goodFriday(year); !got.Equal(want) {
			t.Errorf("goodFriday(%d) = %s, want %s", year, got.Format("2006-01-02"), want.Format("2006-01-02"))
		}
	}
}

func TestExtraClosures(t *testing.T) {
	// National day of mourning style ad-hoc closure.
	cal := NewUSTradingCalendar([]string{"2025-03-05"})

	if !cal.IsHoliday(d(2025, time.March, 5)) {
		t.Error("extra closure should count as a holiday")
	}
	if cal.IsTradingDay(d(2025, time.March, 5)) {
		t.Error("extra closure should not trade")
	}
	if !cal.IsTradingDay(d(2025, time.March, 6)) {
		t.Error("the next day trades normally")
	}
}
