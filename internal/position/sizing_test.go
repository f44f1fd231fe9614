package position

import (
	"math"
	"testing"

	"github.com/bidback/backend/internal/contracts"
)

func calc(t2108, vix *float64, up4, down4 *int, portfolio float64) contracts.PositionCalculationResult {
	return NewEngine(nil).Calculate(contracts.PositionInput{
		T2108:         t2108,
		Up4Pct:        up4,
		Down4Pct:      down4,
		VIX:           vix,
		PortfolioSize: portfolio,
	})
}

func fp(v float64) *float64 { return contracts.FloatPtr(v) }
func ip(v int) *int         { return contracts.IntPtr(v) }

func TestBreadthMultiplierLadder(t *testing.T) {
	tests := []struct {
		name  string
		t2108 *float64
		up4   *int
		want  float64
	}{
		{"below bottom rung", fp(50), ip(99), 0.0},
		{"bottom rung lower bound", fp(50), ip(100), 0.3},
		{"bottom rung upper bound", fp(50), ip(149), 0.3},
		{"middle rung lower bound", fp(50), ip(150), 0.5},
		{"middle rung upper bound", fp(50), ip(199), 0.5},
		{"top rung lower bound", fp(50), ip(200), 1.0},
		{"strong breadth", fp(39.9), ip(501), 1.5},
		{"strong breadth needs t2108 below 40", fp(40), ip(501), 1.0},
		{"strong breadth needs up4 above 500", fp(39.9), ip(500), 1.0},
		{"big opportunity", fp(19.9), ip(1001), 2.0},
		{"big opportunity t2108 boundary exclusive", fp(20), ip(1001), 1.5},
		{"big opportunity up4 boundary exclusive", fp(19.9), ip(1000), 1.5},
		{"unknown t2108 skips named rules", nil, ip(1200), 1.0},
		{"unknown breadth sizes nothing", fp(15), nil, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc(tt.t2108, fp(18), tt.up4, nil, 100000)
			if got.BreadthMultiplier != tt.want {
				t.Errorf("BreadthMultiplier = %v, want %v", got.BreadthMultiplier, tt.want)
			}
		})
	}
}

func TestVIXMultiplierBands(t *testing.T) {
	tests := []struct {
		vix  *float64
		want float64
	}{
		{fp(11.99), 0.8},
		{fp(12), 0.9}, // boundaries are strict: 12 is not < 12
		{fp(14.99), 0.9},
		{fp(15), 1.0},
		{fp(19.99), 1.0},
		{fp(20), 1.1},
		{fp(24.99), 1.1},
		{fp(25), 1.2},
		{fp(34.99), 1.2},
		{fp(35), 1.4},
		{fp(80), 1.4},
		{nil, 0.8}, // unknown VIX takes the most conservative multiplier
	}
	for _, tt := range tests {
		got := calc(fp(50), tt.vix, ip(250), nil, 100000)
		if got.VIXMultiplier != tt.want {
			t.Errorf("vix=%v: VIXMultiplier = %v, want %v", tt.vix, got.VIXMultiplier, tt.want)
		}
	}
}

func TestFinalPositionCap(t *testing.T) {
	// 10% base * 2.0 * 1.4 = 28% < cap
	r := calc(fp(15), fp(40), ip(1200), nil, 100000)
	if r.FinalPosition != 28000 {
		t.Errorf("FinalPosition = %v, want 28000", r.FinalPosition)
	}

	// The cap binds at 30% of the portfolio whatever the multipliers say.
	for _, portfolio := range []float64{1000, 100000, 2500000} {
		r := calc(fp(15), fp(80), ip(5000), nil, portfolio)
		if r.FinalPosition > portfolio*0.30+1e-9 {
			t.Errorf("portfolio %v: FinalPosition %v exceeds 30%% cap", portfolio, r.FinalPosition)
		}
	}
}

func TestAvoidEntry(t *testing.T) {
	tests := []struct {
		name  string
		t2108 *float64
		up4   *int
		want  bool
	}{
		{"healthy", fp(50), ip(300), false},
		{"thin breadth", fp(50), ip(149), true},
		{"breadth boundary inclusive-off", fp(50), ip(150), false},
		{"extended t2108", fp(70.1), ip(300), true},
		{"t2108 boundary exclusive", fp(70), ip(300), false},
		{"unknown breadth", fp(50), nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc(tt.t2108, fp(18), tt.up4, nil, 100000)
			if got.AvoidEntry != tt.want {
				t.Errorf("AvoidEntry = %v, want %v", got.AvoidEntry, tt.want)
			}
		})
	}
}

func TestDeteriorationScore(t *testing.T) {
	tests := []struct {
		name  string
		t2108 *float64
		up4   *int
		down4 *int
		want  int
	}{
		{"healthy", fp(50), ip(300), ip(100), 0},
		{"extended", fp(65.1), ip(300), ip(100), 1},
		{"more decliners", fp(50), ip(300), ip(400), 1},
		{"thin breadth", fp(50), ip(100), ip(50), 2},
		{"worst case", fp(66), ip(100), ip(400), 4},
		{"unknown breadth counts as thin", fp(66), nil, nil, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calc(tt.t2108, fp(18), tt.up4, tt.down4, 100000)
			if got.PositionDeteriorationScore != tt.want {
				t.Errorf("PositionDeteriorationScore = %d, want %d", got.PositionDeteriorationScore, tt.want)
			}
		})
	}
}

func TestBigOpportunityScenario(t *testing.T) {
	// Extreme bullish reversal on a $100,000 portfolio:
	// base $10,000 * 2.0 breadth * 0.8 ultra-low VIX = $16,000.
	r := calc(fp(15), fp(11.5), ip(1200), nil, 100000)

	if !r.BigOpportunity {
		t.Error("BigOpportunity not flagged")
	}
	if r.BreadthMultiplier != 2.0 || r.VIXMultiplier != 0.8 {
		t.Errorf("multipliers = %v, %v", r.BreadthMultiplier, r.VIXMultiplier)
	}
	if math.Abs(r.FinalPosition-16000) > 1e-9 {
		t.Errorf("FinalPosition = %v, want 16000", r.FinalPosition)
	}
	if math.Abs(r.PortfolioHeatPercent-16) > 1e-9 {
		t.Errorf("PortfolioHeatPercent = %v, want 16", r.PortfolioHeatPercent)
	}
}

func TestAvoidEntryScenario(t *testing.T) {
	// Weak extended tape: avoid-entry flags, but the ladder still sizes
	// independently: base $10,000 * 0.3 * 1.1 = $3,300.
	r := calc(fp(80), fp(24), ip(120), nil, 100000)

	if !r.AvoidEntry {
		t.Error("AvoidEntry not flagged")
	}
	if r.BigOpportunity {
		t.Error("BigOpportunity must not flag here")
	}
	if r.BreadthMultiplier != 0.3 || r.VIXMultiplier != 1.1 {
		t.Errorf("multipliers = %v, %v", r.BreadthMultiplier, r.VIXMultiplier)
	}
	if math.Abs(r.FinalPosition-3300) > 1e-9 {
		t.Errorf("FinalPosition = %v, want 3300", r.FinalPosition)
	}
}

func TestAvoidEntryAndBigOpportunitySimultaneously(t *testing.T) {
	// t2108 deep but breadth thin: the multiplier table applies the thin
	// bracket, and avoid-entry takes display precedence. Fixed contract.
	r := calc(fp(15), fp(18), ip(120), nil, 100000)

	if !r.AvoidEntry {
		t.Error("AvoidEntry not flagged")
	}
	if r.BigOpportunity {
		t.Error("BigOpportunity must not flag on thin breadth")
	}
	if r.BreadthMultiplier != 0.3 {
		t.Errorf("BreadthMultiplier = %v, want thin-bracket 0.3", r.BreadthMultiplier)
	}
}

func TestNoEntry(t *testing.T) {
	r := calc(fp(50), fp(18), ip(50), nil, 100000)
	if !r.NoEntry() {
		t.Error("NoEntry not reported below the bottom rung")
	}
	if r.FinalPosition != 0 {
		t.Errorf("FinalPosition = %v, want 0", r.FinalPosition)
	}
}
