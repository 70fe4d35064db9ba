package fundamentals

import (
	"math"
	"sort"

	"github.com/wonny/vnequity/internal/contracts"
)

// Summary holds descriptive statistics over the defined values of a column
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"` // sample standard deviation, 0 when Count < 2
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// Summarize computes statistics over defined values. Nil when none is defined.
func Summarize(values []contracts.Value) *Summary {
	xs := defined(values)
	if len(xs) == 0 {
		return nil
	}
	sort.Float64s(xs)

	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(len(xs))

	std := 0.0
	if len(xs) > 1 {
		ss := 0.0
		for _, x := range xs {
			ss += (x - mean) * (x - mean)
		}
		std = math.Sqrt(ss / float64(len(xs)-1))
	}

	return &Summary{
		Count:  len(xs),
		Mean:   mean,
		Median: quantile(xs, 0.5),
		Std:    std,
		Min:    xs[0],
		Max:    xs[len(xs)-1],
		Q25:    quantile(xs, 0.25),
		Q75:    quantile(xs, 0.75),
	}
}

// quantile uses linear interpolation between closest ranks on sorted xs
func quantile(xs []float64, q float64) float64 {
	if len(xs) == 1 {
		return xs[0]
	}
	pos := q * float64(len(xs)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	frac := pos - float64(lo)
	return xs[lo] + (xs[hi]-xs[lo])*frac
}

func defined(values []contracts.Value) []float64 {
	xs := make([]float64, 0, len(values))
	for _, v := range values {
		if x, ok := v.Get(); ok {
			xs = append(xs, x)
		}
	}
	return xs
}

// GrowthRate returns period-over-period growth in percent for a
// chronologically ordered series: (v[i] - v[i-p]) / |v[i-p]| * 100.
// The first p entries, and any entry with a null or zero base, are null.
func GrowthRate(values []contracts.Value, periods int) []contracts.Value {
	out := make([]contracts.Value, len(values))
	if periods <= 0 {
		return out
	}
	for i := periods; i < len(values); i++ {
		cur, ok1 := values[i].Get()
		base, ok2 := values[i-periods].Get()
		if !ok1 || !ok2 || base == 0 {
			continue
		}
		out[i] = contracts.Some((cur - base) / math.Abs(base) * 100)
	}
	return out
}

// CAGR returns the compound growth rate in percent over periods steps.
// Null when either endpoint is non-positive or periods is 0.
func CAGR(start, end contracts.Value, periods int) contracts.Value {
	s, ok1 := start.Get()
	e, ok2 := end.Get()
	if !ok1 || !ok2 || s <= 0 || e <= 0 || periods == 0 {
		return contracts.Null()
	}
	n := math.Abs(float64(periods))
	return contracts.Some((math.Pow(e/s, 1/n) - 1) * 100)
}

// Percentile returns the share (0-100) of defined values strictly below v.
// Null when v is null or no value is defined.
func Percentile(values []contracts.Value, v contracts.Value) contracts.Value {
	x, ok := v.Get()
	if !ok {
		return contracts.Null()
	}
	xs := defined(values)
	if len(xs) == 0 {
		return contracts.Null()
	}
	below := 0
	for _, y := range xs {
		if y < x {
			below++
		}
	}
	return contracts.Some(float64(below) / float64(len(xs)) * 100)
}
