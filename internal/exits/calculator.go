package exits

import (
	"time"

	"github.com/bidback/backend/internal/contracts"
	"github.com/bidback/backend/internal/rules"
)

// Calculator derives exit plans from entry date/price and the VIX level.
// Hold-day counts and price targets are both looked up in the one regime
// matrix carried by the rule set; there is no second threshold table.
type Calculator struct {
	cal     contracts.TradingCalendar
	regimes []rules.Regime
}

// NewCalculator creates a Calculator; nil cfg means default rules.
func NewCalculator(cal contracts.TradingCalendar, cfg *rules.Config) *Calculator {
	if cfg == nil {
		cfg = rules.Default()
	}
	return &Calculator{cal: cal, regimes: cfg.Exits.Regimes}
}

// Plan computes the exit date, stop-loss and profit targets for an entry.
// Unknown VIX classifies into the open-ended top regime, which holds the
// shortest and stops the widest.
func (c *Calculator) Plan(entryDate time.Time, entryPrice float64, vix *float64) contracts.ExitPlan {
	regime := c.regimeFor(vix)

	return contracts.ExitPlan{
		EntryDate:     midnightUTC(entryDate),
		EntryPrice:    entryPrice,
		ExitDate:      c.advanceTradingDays(entryDate, regime.HoldDays),
		StopLoss:      entryPrice * (1 + regime.StopLossPct/100),
		ProfitTarget1: entryPrice * (1 + regime.ProfitTarget1Pct/100),
		ProfitTarget2: entryPrice * (1 + regime.ProfitTarget2Pct/100),
		MaxHoldDays:   regime.HoldDays,
		VIXRegime:     contracts.VIXRegime(regime.Name),
	}
}

// regimeFor picks the first regime with vix < vix_below; the last regime is
// open-ended and also catches unknown VIX.
func (c *Calculator) regimeFor(vix *float64) rules.Regime {
	last := c.regimes[len(c.regimes)-1]
	if vix == nil {
		return last
	}
	for _, r := range c.regimes[:len(c.regimes)-1] {
		if *vix < r.VIXBelow {
			return r
		}
	}
	return last
}

// advanceTradingDays walks forward one calendar day at a time, counting only
// days the calendar trades. Year-end rollover and holiday clusters need no
// special cases: the loop just keeps stepping.
func (c *Calculator) advanceTradingDays(from time.Time, n int) time.Time {
	d := midnightUTC(from)
	for counted := 0; counted < n; {
		d = d.AddDate(0, 0, 1)
		if c.cal.IsTradingDay(d) {
			counted++
		}
	}
	return d
}
