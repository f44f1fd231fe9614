package rules

// Config is the full BIDBACK rule set. The zero value is not usable; start
// from Default() and let YAML overrides adjust it. Every table here is a
// regression-parity contract: Validate rejects configs that reorder brackets.
type Config struct {
	Meta     Meta     `yaml:"meta" json:"meta"`
	Sizing   Sizing   `yaml:"sizing" json:"sizing"`
	Exits    Exits    `yaml:"exits" json:"exits"`
	Calendar Calendar `yaml:"calendar" json:"calendar"`
}

// Meta identifies a rule-set revision for audit.
type Meta struct {
	RuleSetID string `yaml:"rule_set_id" json:"rule_set_id"`
	Version   string `yaml:"version" json:"version"`
}

// Sizing holds the position-sizing tables.
type Sizing struct {
	BasePositionPct float64 `yaml:"base_position_pct" json:"base_position_pct"` // 0.10
	MaxPositionPct  float64 `yaml:"max_position_pct" json:"max_position_pct"`   // 0.30 hard cap

	BigOpportunity BigOpportunityRule `yaml:"big_opportunity" json:"big_opportunity"`
	StrongBreadth  StrongBreadthRule  `yaml:"strong_breadth" json:"strong_breadth"`

	// BreadthLadder is evaluated top-down after the two named rules above;
	// the first rung with Up4Pct >= MinUp4Pct wins. Below the last rung the
	// multiplier is 0.0 (explicit no-entry).
	BreadthLadder []LadderRung `yaml:"breadth_ladder" json:"breadth_ladder"`

	// VIXBands are mutually exclusive: the first band with VIX < Below wins;
	// the final band has Below = 0 and catches everything else.
	VIXBands []VIXBand `yaml:"vix_bands" json:"vix_bands"`

	AvoidEntry AvoidEntryRule `yaml:"avoid_entry" json:"avoid_entry"`
}

// BigOpportunityRule defines the extreme bullish-reversal setup.
// Both boundaries are exclusive: t2108 < T2108Below AND up4pct > Up4PctAbove.
type BigOpportunityRule struct {
	T2108Below  float64 `yaml:"t2108_below" json:"t2108_below"`
	Up4PctAbove int     `yaml:"up4pct_above" json:"up4pct_above"`
	Multiplier  float64 `yaml:"multiplier" json:"multiplier"`
}

// StrongBreadthRule is the second rung of the priority ladder.
type StrongBreadthRule struct {
	Up4PctAbove int     `yaml:"up4pct_above" json:"up4pct_above"`
	T2108Below  float64 `yaml:"t2108_below" json:"t2108_below"`
	Multiplier  float64 `yaml:"multiplier" json:"multiplier"`
}

// LadderRung maps a half-open up4pct bracket [MinUp4Pct, nextRung) to a
// multiplier.
type LadderRung struct {
	MinUp4Pct  int     `yaml:"min_up4pct" json:"min_up4pct"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// VIXBand maps VIX < Below to a multiplier; Below = 0 marks the open-ended
// top band.
type VIXBand struct {
	Below      float64 `yaml:"below" json:"below"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// AvoidEntryRule defines the advisory no-new-positions signal.
type AvoidEntryRule struct {
	Up4PctBelow int     `yaml:"up4pct_below" json:"up4pct_below"`
	T2108Above  float64 `yaml:"t2108_above" json:"t2108_above"`
}

// Exits holds the single VIX regime matrix driving both hold-day counts and
// price-target percentages. Do not duplicate these thresholds elsewhere.
type Exits struct {
	// Regimes are ordered by ascending VIXBelow; the last regime has
	// VIXBelow = 0 and is open-ended.
	Regimes []Regime `yaml:"regimes" json:"regimes"`
}

// Regime is one row of the VIX matrix.
type Regime struct {
	Name             string  `yaml:"name" json:"name"`
	VIXBelow         float64 `yaml:"vix_below" json:"vix_below"` // 0 = open-ended
	HoldDays         int     `yaml:"hold_days" json:"hold_days"` // trading days
	StopLossPct      float64 `yaml:"stop_loss_pct" json:"stop_loss_pct"`
	ProfitTarget1Pct float64 `yaml:"profit_target1_pct" json:"profit_target1_pct"`
	ProfitTarget2Pct float64 `yaml:"profit_target2_pct" json:"profit_target2_pct"`
}

// Calendar holds trading-calendar overrides.
type Calendar struct {
	// ExtraClosures lists ad-hoc full-market closures (YYYY-MM-DD), e.g.
	// national days of mourning.
	ExtraClosures []string `yaml:"extra_closures" json:"extra_closures"`
}

// Default returns the fixed BIDBACK contract values. Tests pin these numbers;
// changing them is a behavioral change, not a refactor.
func Default() *Config {
	return &Config{
		Meta: Meta{
			RuleSetID: "bidback-core",
			Version:   "1.0",
		},
		Sizing: Sizing{
			BasePositionPct: 0.10,
			MaxPositionPct:  0.30,
			BigOpportunity: BigOpportunityRule{
				T2108Below:  20,
				Up4PctAbove: 1000,
				Multiplier:  2.0,
			},
			StrongBreadth: StrongBreadthRule{
				Up4PctAbove: 500,
				T2108Below:  40,
				Multiplier:  1.5,
			},
			BreadthLadder: []LadderRung{
				{MinUp4Pct: 200, Multiplier: 1.0},
				{MinUp4Pct: 150, Multiplier: 0.5},
				{MinUp4Pct: 100, Multiplier: 0.3},
			},
			VIXBands: []VIXBand{
				{Below: 12, Multiplier: 0.8},
				{Below: 15, Multiplier: 0.9},
				{Below: 20, Multiplier: 1.0},
				{Below: 25, Multiplier: 1.1},
				{Below: 35, Multiplier: 1.2},
				{Below: 0, Multiplier: 1.4},
			},
			AvoidEntry: AvoidEntryRule{
				Up4PctBelow: 150,
				T2108Above:  70,
			},
		},
		Exits: Exits{
			Regimes: []Regime{
				{Name: "ultra_low", VIXBelow: 12, HoldDays: 10, StopLossPct: -5, ProfitTarget1Pct: 5, ProfitTarget2Pct: 10},
				{Name: "low", VIXBelow: 15, HoldDays: 10, StopLossPct: -5, ProfitTarget1Pct: 6, ProfitTarget2Pct: 12},
				{Name: "normal", VIXBelow: 20, HoldDays: 7, StopLossPct: -6, ProfitTarget1Pct: 7, ProfitTarget2Pct: 15},
				{Name: "elevated", VIXBelow: 25, HoldDays: 7, StopLossPct: -6, ProfitTarget1Pct: 8, ProfitTarget2Pct: 18},
				{Name: "high", VIXBelow: 35, HoldDays: 5, StopLossPct: -7, ProfitTarget1Pct: 9, ProfitTarget2Pct: 20},
				{Name: "extreme", VIXBelow: 0, HoldDays: 3, StopLossPct: -8, ProfitTarget1Pct: 10, ProfitTarget2Pct: 25},
			},
		},
		Calendar: Calendar{},
	}
}
