// Package breadth implements the market-breadth core: field mapping, the
// 0-100 breadth score, CSV import/export, and the date-keyed repository.
package breadth

import (
	"math"

	"github.com/bidback/backend/internal/contracts"
)

// =============================================================================
// Breadth Score Engine
// Six weighted factors, fixed weights. The numbers are a regression contract;
// any change here must reproduce the historical scores bit-for-bit.
// =============================================================================

// ScoreInput carries the counts the score is computed from. Missing record
// fields arrive as zero, which the ratio fallbacks treat as neutral.
type ScoreInput struct {
	AdvancingIssues int // stocks up 4%+ today
	DecliningIssues int // stocks down 4%+ today
	NewHighs        int // stocks up 25%+ in a quarter
	NewLows         int // stocks down 25%+ in a quarter
	UpVolume        int // stocks up 25%+ in a month
	DownVolume      int // stocks down 25%+ in a month
}

// ScoreResult is the derived triple stored alongside the raw record.
type ScoreResult struct {
	BreadthScore  int                   `json:"breadth_score"`  // 0-100
	TrendStrength int                   `json:"trend_strength"` // 0-100
	MarketPhase   contracts.MarketPhase `json:"market_phase"`
}

// ScoreInputFromRecord maps a raw record onto the engine's count fields.
// Nil fields become zero, keeping the engine total over partial records.
func ScoreInputFromRecord(r *contracts.RawBreadthRecord) ScoreInput {
	return ScoreInput{
		AdvancingIssues: intOrZero(r.StocksUp4PctDaily),
		DecliningIssues: intOrZero(r.StocksDown4PctDaily),
		NewHighs:        intOrZero(r.StocksUp25PctQuarterly),
		NewLows:         intOrZero(r.StocksDown25PctQuarterly),
		UpVolume:        intOrZero(r.StocksUp25PctMonthly),
		DownVolume:      intOrZero(r.StocksDown25PctMonthly),
	}
}

// Score computes the composite breadth score, trend strength and market
// phase. Pure and total: it never fails, whatever the input.
func Score(in ScoreInput) ScoreResult {
	total := 0.0

	// 1. Advance/decline ratio, weight 30
	total += ratioOrNeutral(in.AdvancingIssues, in.DecliningIssues) * 30

	// 2. New-high/new-low ratio, weight 20
	total += ratioOrNeutral(in.NewHighs, in.NewLows) * 20

	// 3. Up/down volume ratio, weight 25
	total += ratioOrNeutral(in.UpVolume, in.DownVolume) * 25

	// 4. Absolute advancing-issue strength, capped at 10
	total += math.Min(10, float64(in.AdvancingIssues)/3000*10)

	// 5. Momentum vs. the 200 new-high baseline, capped at 10
	total += math.Min(10, float64(in.NewHighs)/200*10)

	// 6. Volume confirmation vs. the 20-unit baseline, capped at 5
	total += math.Min(5, float64(in.UpVolume)/20*5)

	score := clampInt(int(math.Round(total)), 0, 100)
	trend := clampInt(abs(score-50)*2, 0, 100)

	return ScoreResult{
		BreadthScore:  score,
		TrendStrength: trend,
		MarketPhase:   phaseForScore(score),
	}
}

// ScoreRecord scores a record in place, overwriting its derived fields.
func ScoreRecord(r *contracts.RawBreadthRecord) ScoreResult {
	result := Score(ScoreInputFromRecord(r))
	r.BreadthScore = result.BreadthScore
	r.TrendStrength = result.TrendStrength
	r.MarketPhase = result.MarketPhase
	return result
}

// phaseForScore maps a score onto the fixed phase breakpoints.
func phaseForScore(score int) contracts.MarketPhase {
	switch {
	case score >= 75:
		return contracts.PhaseStrongBull
	case score >= 60:
		return contracts.PhaseBull
	case score >= 40:
		return contracts.PhaseNeutral
	case score >= 25:
		return contracts.PhaseBear
	default:
		return contracts.PhaseStrongBear
	}
}

// ratioOrNeutral returns up/(up+down), or 0.5 when the denominator is zero.
func ratioOrNeutral(up, down int) float64 {
	if up+down == 0 {
		return 0.5
	}
	return float64(up) / float64(up+down)
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
