package rules

import (
	"fmt"
	"time"
)

// Validate checks the structural invariants of a rule set. It guards the
// bracket ordering the engines rely on; it does not second-guess the numbers.
func Validate(cfg *Config) error {
	s := cfg.Sizing

	if s.BasePositionPct <= 0 || s.BasePositionPct > 1 {
		return fmt.Errorf("sizing: base_position_pct must be in (0,1], got %v", s.BasePositionPct)
	}
	if s.MaxPositionPct < s.BasePositionPct || s.MaxPositionPct > 1 {
		return fmt.Errorf("sizing: max_position_pct must be in [base,1], got %v", s.MaxPositionPct)
	}

	if s.BigOpportunity.Multiplier < s.StrongBreadth.Multiplier {
		return fmt.Errorf("sizing: big_opportunity multiplier %v below strong_breadth %v",
			s.BigOpportunity.Multiplier, s.StrongBreadth.Multiplier)
	}

	if len(s.BreadthLadder) == 0 {
		return fmt.Errorf("sizing: breadth_ladder is empty")
	}
	for i := 1; i < len(s.BreadthLadder); i++ {
		if s.BreadthLadder[i].MinUp4Pct >= s.BreadthLadder[i-1].MinUp4Pct {
			return fmt.Errorf("sizing: breadth_ladder must be strictly descending by min_up4pct")
		}
	}

	if len(s.VIXBands) < 2 {
		return fmt.Errorf("sizing: need at least two vix_bands")
	}
	if s.VIXBands[len(s.VIXBands)-1].Below != 0 {
		return fmt.Errorf("sizing: last vix_band must be open-ended (below: 0)")
	}
	for i := 1; i < len(s.VIXBands)-1; i++ {
		if s.VIXBands[i].Below <= s.VIXBands[i-1].Below {
			return fmt.Errorf("sizing: vix_bands must be strictly ascending by below")
		}
	}

	if s.AvoidEntry.Up4PctBelow <= 0 {
		return fmt.Errorf("sizing: avoid_entry up4pct_below must be positive")
	}

	if err := validateExits(&cfg.Exits); err != nil {
		return err
	}

	for _, d := range cfg.Calendar.ExtraClosures {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("calendar: invalid extra closure date %q", d)
		}
	}

	return nil
}

func validateExits(e *Exits) error {
	if len(e.Regimes) < 2 {
		return fmt.Errorf("exits: need at least two regimes")
	}
	last := len(e.Regimes) - 1
	if e.Regimes[last].VIXBelow != 0 {
		return fmt.Errorf("exits: last regime must be open-ended (vix_below: 0)")
	}
	for i, r := range e.Regimes {
		if r.Name == "" {
			return fmt.Errorf("exits: regime %d has no name", i)
		}
		if r.HoldDays <= 0 {
			return fmt.Errorf("exits: regime %q hold_days must be positive", r.Name)
		}
		if r.StopLossPct >= 0 {
			return fmt.Errorf("exits: regime %q stop_loss_pct must be negative", r.Name)
		}
		if r.ProfitTarget1Pct <= 0 || r.ProfitTarget2Pct <= r.ProfitTarget1Pct {
			return fmt.Errorf("exits: regime %q targets must satisfy 0 < pt1 < pt2", r.Name)
		}
		if i > 0 && i < last && e.Regimes[i].VIXBelow <= e.Regimes[i-1].VIXBelow {
			return fmt.Errorf("exits: regimes must be strictly ascending by vix_below")
		}
	}
	return nil
}
