// Package position implements the BIDBACK position-sizing rule set: a
// breadth-multiplier priority ladder, VIX multiplier bands, advisory signals
// and the 30% portfolio cap.
package position

import (
	"math"

	"github.com/bidback/backend/internal/contracts"
	"github.com/bidback/backend/internal/rules"
)

// Engine evaluates the BIDBACK sizing rules. Pure and total: degenerate or
// missing inputs classify into the most conservative bracket, they never
// fail. Input validation belongs to the entry points, not here.
type Engine struct {
	sizing rules.Sizing
}

// NewEngine creates a sizing engine from a rule set; nil means defaults.
func NewEngine(cfg *rules.Config) *Engine {
	if cfg == nil {
		cfg = rules.Default()
	}
	return &Engine{sizing: cfg.Sizing}
}

// Calculate sizes a position for the given market state.
func (e *Engine) Calculate(in contracts.PositionInput) contracts.PositionCalculationResult {
	s := e.sizing

	bm, bigOpp := e.breadthMultiplier(in.T2108, in.Up4Pct)
	vm := e.vixMultiplier(in.VIX)

	base := in.PortfolioSize * s.BasePositionPct
	final := math.Min(base*bm*vm, in.PortfolioSize*s.MaxPositionPct)
	if final < 0 {
		final = 0
	}

	heat := 0.0
	if in.PortfolioSize > 0 {
		heat = final / in.PortfolioSize * 100
	}

	return contracts.PositionCalculationResult{
		BasePosition:               base,
		BreadthMultiplier:          bm,
		VIXMultiplier:              vm,
		FinalPosition:              final,
		PortfolioHeatPercent:       heat,
		BigOpportunity:             bigOpp,
		AvoidEntry:                 e.avoidEntry(in.T2108, in.Up4Pct),
		PositionDeteriorationScore: e.deteriorationScore(in.T2108, in.Up4Pct, in.Down4Pct),
	}
}

// breadthMultiplier walks the priority ladder: Big-Opportunity, then strong
// breadth, then the up4pct rungs. First match wins. All boundaries are
// exactly as stated: the named rules use strict comparisons, the rungs are
// half-open on the lower end.
func (e *Engine) breadthMultiplier(t2108 *float64, up4 *int) (multiplier float64, bigOpp bool) {
	s := e.sizing

	// Unknown breadth sizes nothing.
	if up4 == nil {
		return 0, false
	}

	if t2108 != nil {
		if *t2108 < s.BigOpportunity.T2108Below && *up4 > s.BigOpportunity.Up4PctAbove {
			return s.BigOpportunity.Multiplier, true
		}
		if *up4 > s.StrongBreadth.Up4PctAbove && *t2108 < s.StrongBreadth.T2108Below {
			return s.StrongBreadth.Multiplier, false
		}
	}

	for _, rung := range s.BreadthLadder {
		if *up4 >= rung.MinUp4Pct {
			return rung.Multiplier, false
		}
	}

	// Below the lowest rung: explicit no-entry.
	return 0, false
}

// vixMultiplier picks the first band with vix < below; unknown VIX falls
// into the lowest-multiplier band.
func (e *Engine) vixMultiplier(vix *float64) float64 {
	bands := e.sizing.VIXBands
	if vix == nil {
		lowest := bands[0].Multiplier
		for _, b := range bands {
			if b.Multiplier < lowest {
				lowest = b.Multiplier
			}
		}
		return lowest
	}

	for _, b := range bands[:len(bands)-1] {
		if *vix < b.Below {
			return b.Multiplier
		}
	}
	return bands[len(bands)-1].Multiplier
}

// avoidEntry is advisory only: it never zeroes the position by itself (the
// ladder already does that below the bottom rung) and it takes display
// precedence over a simultaneously-true Big-Opportunity flag.
func (e *Engine) avoidEntry(t2108 *float64, up4 *int) bool {
	ae := e.sizing.AvoidEntry
	if up4 == nil || *up4 < ae.Up4PctBelow {
		return true
	}
	return t2108 != nil && *t2108 > ae.T2108Above
}

// deteriorationScore is the 0-4 heuristic: +1 extended T2108, +1 more
// decliners than advancers, +2 thin breadth.
func (e *Engine) deteriorationScore(t2108 *float64, up4, down4 *int) int {
	score := 0
	if t2108 != nil && *t2108 > 65 {
		score++
	}
	if up4 != nil && down4 != nil && *down4 > *up4 {
		score++
	}
	if up4 == nil || *up4 < e.sizing.AvoidEntry.Up4PctBelow {
		score += 2
	}
	return score
}
