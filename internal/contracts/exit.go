package contracts

import "time"

// =============================================================================
// Holiday-Aware Exit Planning
// =============================================================================

// VIXRegime labels a volatility bracket. One matrix drives both hold-day
// counts and price-target percentages; the brackets here are deliberately
// coarser than the sizing engine's VIX multiplier bands.
type VIXRegime string

const (
	RegimeUltraLow VIXRegime = "ultra_low" // VIX < 12
	RegimeLow      VIXRegime = "low"       // VIX < 15
	RegimeNormal   VIXRegime = "normal"    // VIX < 20
	RegimeElevated VIXRegime = "elevated"  // VIX < 25
	RegimeHigh     VIXRegime = "high"      // VIX < 35
	RegimeExtreme  VIXRegime = "extreme"   // VIX >= 35
)

// ExitPlan is the transient output of the exit calculator.
type ExitPlan struct {
	EntryDate     time.Time `json:"entry_date"`
	EntryPrice    float64   `json:"entry_price"`
	ExitDate      time.Time `json:"exit_date"` // always a trading day
	StopLoss      float64   `json:"stop_loss"`
	ProfitTarget1 float64   `json:"profit_target_1"`
	ProfitTarget2 float64   `json:"profit_target_2"`
	MaxHoldDays   int       `json:"max_hold_days"` // trading days between entry and exit
	VIXRegime     VIXRegime `json:"vix_regime"`
}
