package breadth

import (
	"testing"

	"github.com/bidback/backend/internal/contracts"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name      string
		in        ScoreInput
		wantScore int
		wantTrend int
		wantPhase contracts.MarketPhase
	}{
		{
			// Every ratio falls back to neutral 0.5: 15 + 10 + 12.5 = 37.5
			name:      "all zero input is neutral-ish",
			in:        ScoreInput{},
			wantScore: 38,
			wantTrend: 24,
			wantPhase: contracts.PhaseBear,
		},
		{
			name: "typical mixed day",
			in: ScoreInput{
				AdvancingIssues: 180, DecliningIssues: 120,
				NewHighs: 45, NewLows: 30,
				UpVolume: 25, DownVolume: 18,
			},
			wantScore: 52,
			wantTrend: 4,
			wantPhase: contracts.PhaseNeutral,
		},
		{
			name: "broad rally",
			in: ScoreInput{
				AdvancingIssues: 1000, DecliningIssues: 100,
				NewHighs: 250, NewLows: 20,
				UpVolume: 60, DownVolume: 10,
			},
			wantScore: 86,
			wantTrend: 72,
			wantPhase: contracts.PhaseStrongBull,
		},
		{
			name: "washout day",
			in: ScoreInput{
				AdvancingIssues: 50, DecliningIssues: 900,
				NewHighs: 5, NewLows: 120,
				UpVolume: 3, DownVolume: 40,
			},
			wantScore: 5,
			wantTrend: 90,
			wantPhase: contracts.PhaseStrongBear,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.in)
			if got.BreadthScore != tt.wantScore {
				t.Errorf("BreadthScore = %d, want %d", got.BreadthScore, tt.wantScore)
			}
			if got.TrendStrength != tt.wantTrend {
				t.Errorf("TrendStrength = %d, want %d", got.TrendStrength, tt.wantTrend)
			}
			if got.MarketPhase != tt.wantPhase {
				t.Errorf("MarketPhase = %s, want %s", got.MarketPhase, tt.wantPhase)
			}
		})
	}
}

func TestScoreBounds(t *testing.T) {
	// Extreme inputs must never escape [0, 100].
	extremes := []ScoreInput{
		{AdvancingIssues: 100000, NewHighs: 100000, UpVolume: 100000},
		{DecliningIssues: 100000, NewLows: 100000, DownVolume: 100000},
	}
	for _, in := range extremes {
		got := Score(in)
		if got.BreadthScore < 0 || got.BreadthScore > 100 {
			t.Errorf("BreadthScore %d out of bounds for %+v", got.BreadthScore, in)
		}
		if got.TrendStrength < 0 || got.TrendStrength > 100 {
			t.Errorf("TrendStrength %d out of bounds for %+v", got.TrendStrength, in)
		}
	}
}

func TestPhaseForScore(t *testing.T) {
	tests := []struct {
		score int
		want  contracts.MarketPhase
	}{
		{100, contracts.PhaseStrongBull},
		{75, contracts.PhaseStrongBull},
		{74, contracts.PhaseBull},
		{60, contracts.PhaseBull},
		{59, contracts.PhaseNeutral},
		{40, contracts.PhaseNeutral},
		{39, contracts.PhaseBear},
		{25, contracts.PhaseBear},
		{24, contracts.PhaseStrongBear},
		{0, contracts.PhaseStrongBear},
	}
	for _, tt := range tests {
		if got := phaseForScore(tt.score); got != tt.want {
			t.Errorf("phaseForScore(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestScoreRecord(t *testing.T) {
	rec := &contracts.RawBreadthRecord{
		StocksUp4PctDaily:      contracts.IntPtr(180),
		StocksDown4PctDaily:    contracts.IntPtr(120),
		StocksUp25PctQuarterly: contracts.IntPtr(45),
		// remaining fields absent: the engine must stay total
	}

	result := ScoreRecord(rec)
	if rec.BreadthScore != result.BreadthScore {
		t.Errorf("record not updated in place")
	}
	if rec.BreadthScore < 0 || rec.BreadthScore > 100 {
		t.Errorf("score %d out of bounds", rec.BreadthScore)
	}
	if rec.MarketPhase == "" {
		t.Error("phase not set")
	}
}
