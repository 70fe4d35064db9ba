package fundamentals

import "github.com/wonny/vnequity/internal/contracts"

// band awards points when a value reaches a floor; bands are checked top-down
type band struct {
	floor  float64
	points float64
}

type bucket struct {
	max   float64
	bands []band
}

func (b bucket) award(x float64) float64 {
	for _, bd := range b.bands {
		if x >= bd.floor {
			return bd.points
		}
	}
	return 0
}

// tally accumulates awarded points against the maximum attainable for the
// inputs that were present
type tally struct {
	score float64
	max   float64
}

func (t *tally) add(v contracts.Value, b bucket) {
	x, ok := v.Get()
	if !ok {
		return
	}
	t.score += b.award(x)
	t.max += b.max
}

func (t tally) result() contracts.Value {
	if t.max == 0 {
		return contracts.Null()
	}
	return contracts.Some(t.score / t.max * 100)
}

var (
	currentRatioBucket = bucket{30, []band{{2, 30}, {1.5, 20}, {1, 10}}}
	quickRatioBucket   = bucket{25, []band{{1, 25}, {0.8, 15}, {0.5, 5}}}
	cashRatioBucket    = bucket{25, []band{{0.5, 25}, {0.3, 15}, {0.1, 5}}}

	roeBucket       = bucket{30, []band{{20, 30}, {15, 20}, {10, 10}}}
	roaBucket       = bucket{25, []band{{8, 25}, {5, 15}, {3, 5}}}
	netMarginBucket = bucket{25, []band{{15, 25}, {10, 15}, {5, 5}}}
	roicBucket      = bucket{20, []band{{15, 20}, {10, 10}, {5, 5}}}
)

// LiquidityScore grades current, quick and cash ratios plus working capital
// sign on a 0-100 scale relative to the inputs available. Null when none is.
func LiquidityScore(row contracts.MetricRow) contracts.Value {
	var t tally
	t.add(row.Value("CURRENT_RATIO_Q"), currentRatioBucket)
	t.add(row.Value("QUICK_RATIO_Q"), quickRatioBucket)
	t.add(row.Value("CASH_PLUS_EQUIVALENTS").Div(row.Value("CURRENT_LIABILITIES")), cashRatioBucket)

	if wc, ok := row.Value(FieldWorkingCapital).Get(); ok {
		if wc > 0 {
			t.score += 20
		}
		t.max += 20
	}
	return t.result()
}

// ProfitabilityScore grades ROE, ROA, net margin and ROIC (percent units)
// on a 0-100 scale. Null when no input is present.
func ProfitabilityScore(row contracts.MetricRow) contracts.Value {
	var t tally
	t.add(row.Value("ROAE"), roeBucket)
	t.add(row.Value("ROAA"), roaBucket)
	t.add(row.Value("NET_INCOME_MARGIN_12M"), netMarginBucket)
	t.add(row.Value("ROIC"), roicBucket)
	return t.result()
}
