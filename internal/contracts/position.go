package contracts

// =============================================================================
// BIDBACK Position Sizing
// =============================================================================

// PositionInput carries the market state a sizing decision is based on.
// Nil fields mean the value is unknown; the engine classifies unknowns into
// the most conservative bracket instead of failing.
type PositionInput struct {
	T2108         *float64 `json:"t2108,omitempty"`
	Up4Pct        *int     `json:"up4pct,omitempty"`
	Down4Pct      *int     `json:"down4pct,omitempty"`
	VIX           *float64 `json:"vix,omitempty"`
	PortfolioSize float64  `json:"portfolio_size"`
}

// PositionCalculationResult is the transient output of the sizing engine.
// It is computed on demand and never persisted.
type PositionCalculationResult struct {
	BasePosition         float64 `json:"base_position"`          // 10% of portfolio
	BreadthMultiplier    float64 `json:"breadth_multiplier"`     // 0.0 ~ 2.0
	VIXMultiplier        float64 `json:"vix_multiplier"`         // 0.8 ~ 1.4
	FinalPosition        float64 `json:"final_position"`         // capped at 30% of portfolio
	PortfolioHeatPercent float64 `json:"portfolio_heat_percent"` // final position / portfolio * 100

	// Advisory signals. AvoidEntry takes display precedence when both are
	// true; the multiplier ladder is evaluated independently of either flag.
	BigOpportunity bool `json:"big_opportunity"`
	AvoidEntry     bool `json:"avoid_entry"`

	// PositionDeteriorationScore is a 0-4 heuristic, higher is worse.
	PositionDeteriorationScore int `json:"position_deterioration_score"`
}

// NoEntry reports whether the ladder zeroed the position outright.
func (r *PositionCalculationResult) NoEntry() bool {
	return r.BreadthMultiplier == 0
}
