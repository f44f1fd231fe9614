package breadth

import (
	"testing"
	"time"

	"github.com/bidback/backend/internal/contracts"
)

func TestCanonical(t *testing.T) {
	m := NewFieldMapper()

	tests := []struct {
		header string
		want   string
	}{
		{"Date", "date"},
		{"up4%", "stocks_up_4pct_daily"},
		{"Number of stocks up 4% plus today", "stocks_up_4pct_daily"},
		{"  number of stocks up 4%  plus today ", "stocks_up_4pct_daily"},
		{"T2108", "t2108"},
		{"T2108 (% of stocks above 40 day MA)", "t2108"},
		{"S&P", "sp_reference"},
		{"worden", "worden_universe"},
		{"5day", "ratio_5day"},
		{"up25%quarter", "stocks_up_25pct_quarterly"},
		{"stocks_up_4pct_daily", "stocks_up_4pct_daily"}, // column names map to themselves
	}
	for _, tt := range tests {
		got, ok := m.Canonical(tt.header)
		if !ok || got != tt.want {
			t.Errorf("Canonical(%q) = %q, %v; want %q", tt.header, got, ok, tt.want)
		}
	}

	if _, ok := m.Canonical("mystery column"); ok {
		t.Error("unknown header should not resolve")
	}
}

func TestCleanFloat(t *testing.T) {
	tests := []struct {
		raw     string
		want    *float64
		wantErr bool
	}{
		{"65.4", contracts.FloatPtr(65.4), false},
		{` "5,847" `, contracts.FloatPtr(5847), false},
		{"$1,234.50", contracts.FloatPtr(1234.50), false},
		{"0", contracts.FloatPtr(0), false}, // zero is data, not absence
		{"", nil, false},
		{"null", nil, false},
		{"N/A", nil, false},
		{"md", nil, false},
		{"-", nil, false},
		{"abc", nil, true},
	}
	for _, tt := range tests {
		got, err := CleanFloat(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("CleanFloat(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		switch {
		case tt.want == nil && got != nil:
			t.Errorf("CleanFloat(%q) = %v, want nil", tt.raw, *got)
		case tt.want != nil && got == nil:
			t.Errorf("CleanFloat(%q) = nil, want %v", tt.raw, *tt.want)
		case tt.want != nil && got != nil && *got != *tt.want:
			t.Errorf("CleanFloat(%q) = %v, want %v", tt.raw, *got, *tt.want)
		}
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	for _, raw := range []string{"01/15/2025", "1/15/2025", "2025-01-15"} {
		got, err := ParseDate(raw)
		if err != nil {
			t.Fatalf("ParseDate(%q): %v", raw, err)
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %s, want %s", raw, got, want)
		}
	}

	if _, err := ParseDate("15.01.2025"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestMapRow(t *testing.T) {
	m := NewFieldMapper()

	// "vix" is absent and must stay nil; "mystery" is an unknown header.
	rec, errs := m.MapRow(map[string]string{
		"Date":    "01/15/2025",
		"up4%":    "180",
		"down4%":  "120",
		"5day":    "1.5",
		"T2108":   "65.4",
		"S&P":     `"5,847"`,
		"worden":  "3500",
		"vix":     "",
		"mystery": "whatever",
	})
	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if !rec.Date.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("Date = %s", rec.Date)
	}
	if rec.StocksUp4PctDaily == nil || *rec.StocksUp4PctDaily != 180 {
		t.Errorf("StocksUp4PctDaily = %v", rec.StocksUp4PctDaily)
	}
	if rec.Ratio5Day == nil || *rec.Ratio5Day != 1.5 {
		t.Errorf("Ratio5Day = %v", rec.Ratio5Day)
	}
	if rec.T2108 == nil || *rec.T2108 != 65.4 {
		t.Errorf("T2108 = %v", rec.T2108)
	}
	if rec.SP500 != "5,847" {
		t.Errorf("SP500 = %q, want display-formatted original", rec.SP500)
	}
	if rec.VIX != nil {
		t.Errorf("VIX = %v, want nil for empty cell", *rec.VIX)
	}
	if rec.Timestamp.IsZero() {
		t.Error("Timestamp not pinned to market close")
	}
}

func TestMapRowBadValues(t *testing.T) {
	m := NewFieldMapper()

	rec, errs := m.MapRow(map[string]string{
		"Date": "01/15/2025",
		"up4%": "not-a-number",
	})
	if rec != nil {
		t.Error("record should be nil when a field is unparseable")
	}
	if len(errs) != 1 || errs[0].Field != "up4%" {
		t.Errorf("errs = %v", errs)
	}

	rec, errs = m.MapRow(map[string]string{"up4%": "180"})
	if rec != nil || len(errs) == 0 {
		t.Error("missing date must be fatal for the row")
	}
}

func TestNotesRoundTrip(t *testing.T) {
	m := NewFieldMapper()

	rec := &contracts.RawBreadthRecord{
		Ratio5Day:                contracts.FloatPtr(1.5),
		Ratio10Day:               contracts.FloatPtr(1.6),
		StocksUp25PctQuarterly:   contracts.IntPtr(45),
		StocksDown25PctQuarterly: contracts.IntPtr(30),
		StocksUp25PctMonthly:     contracts.IntPtr(25),
		StocksDown25PctMonthly:   contracts.IntPtr(18),
		StocksUp50PctMonthly:     contracts.IntPtr(12),
		StocksDown50PctMonthly:   contracts.IntPtr(8),
		StocksUp13Pct34Days:      contracts.IntPtr(35),
		StocksDown13Pct34Days:    contracts.IntPtr(22),
		VIX:                      contracts.FloatPtr(18.75),
	}

	notes := m.BuildNotes(rec)

	// Extraction works with both the short label and the column name.
	if v, ok := m.ExtractFromNotes(notes, "ratio5day"); !ok || v != "1.5" {
		t.Errorf("ExtractFromNotes(ratio5day) = %q, %v", v, ok)
	}
	if v, ok := m.ExtractFromNotes(notes, "stocks_up_25pct_quarterly"); !ok || v != "45" {
		t.Errorf("ExtractFromNotes(column name) = %q, %v", v, ok)
	}
	if v, ok := m.ExtractFromNotes(notes, "vix"); !ok || v != "18.75" {
		t.Errorf("ExtractFromNotes(vix) = %q, %v", v, ok)
	}

	// ApplyNotes hydrates an empty record back to the original values.
	restored := &contracts.RawBreadthRecord{}
	m.ApplyNotes(restored, notes)
	if restored.Ratio5Day == nil || *restored.Ratio5Day != 1.5 {
		t.Errorf("restored Ratio5Day = %v", restored.Ratio5Day)
	}
	if restored.StocksDown13Pct34Days == nil || *restored.StocksDown13Pct34Days != 22 {
		t.Errorf("restored StocksDown13Pct34Days = %v", restored.StocksDown13Pct34Days)
	}
	if restored.VIX == nil || *restored.VIX != 18.75 {
		t.Errorf("restored VIX = %v", restored.VIX)
	}
}

func TestNotesSentinel(t *testing.T) {
	m := NewFieldMapper()

	// No overflow fields: the sentinel, not an empty string.
	notes := m.BuildNotes(&contracts.RawBreadthRecord{
		StocksUp4PctDaily: contracts.IntPtr(180), // has a column everywhere, not overflow
	})
	if notes != contracts.NotesSentinel {
		t.Errorf("BuildNotes = %q, want sentinel", notes)
	}

	if _, ok := m.ExtractFromNotes(contracts.NotesSentinel, "vix"); ok {
		t.Error("sentinel must not extract anything")
	}
	if _, ok := m.ExtractFromNotes("free-form user note", "vix"); ok {
		t.Error("non-CSV notes must not extract anything")
	}
}
