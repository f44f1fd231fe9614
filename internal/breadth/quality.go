package breadth

import "github.com/bidback/backend/internal/contracts"

// QualityScore rates field coverage of a record on [0.0, 1.0].
// Primary indicators carry half the weight because every downstream
// calculation starts from them; secondary and reference fields split the
// rest. Verbatim SP500 text counts as a reference field.
func QualityScore(rec *contracts.RawBreadthRecord) float64 {
	primary := coverage(
		rec.StocksUp4PctDaily != nil,
		rec.StocksDown4PctDaily != nil,
	)
	secondary := coverage(
		rec.Ratio5Day != nil,
		rec.Ratio10Day != nil,
		rec.StocksUp25PctQuarterly != nil,
		rec.StocksDown25PctQuarterly != nil,
		rec.StocksUp25PctMonthly != nil,
		rec.StocksDown25PctMonthly != nil,
		rec.StocksUp50PctMonthly != nil,
		rec.StocksDown50PctMonthly != nil,
		rec.StocksUp13Pct34Days != nil,
		rec.StocksDown13Pct34Days != nil,
	)
	reference := coverage(
		rec.T2108 != nil,
		rec.WordenUniverse != nil,
		rec.SP500 != "",
		rec.VIX != nil,
	)

	return 0.5*primary + 0.3*secondary + 0.2*reference
}

func coverage(present ...bool) float64 {
	if len(present) == 0 {
		return 0
	}
	n := 0
	for _, p := range present {
		if p {
			n++
		}
	}
	return float64(n) / float64(len(present))
}
