package contracts

import "fmt"

// RangeCriterion is an inclusive range predicate on one metric.
// A null bound leaves that side unbounded.
type RangeCriterion struct {
	Metric string `json:"metric"`
	Min    Value  `json:"min"`
	Max    Value  `json:"max"`
}

// Between builds a criterion bounded on both sides
func Between(metric string, min, max float64) RangeCriterion {
	return RangeCriterion{Metric: metric, Min: Some(min), Max: Some(max)}
}

// AtLeast builds a criterion with only a lower bound
func AtLeast(metric string, min float64) RangeCriterion {
	return RangeCriterion{Metric: metric, Min: Some(min)}
}

// AtMost builds a criterion with only an upper bound
func AtMost(metric string, max float64) RangeCriterion {
	return RangeCriterion{Metric: metric, Max: Some(max)}
}

// Validate checks min <= max when both bounds are present
func (c RangeCriterion) Validate() error {
	if c.Metric == "" {
		return fmt.Errorf("%w: metric is required", ErrInvalidCriterion)
	}
	lo, hasLo := c.Min.Get()
	hi, hasHi := c.Max.Get()
	if hasLo && hasHi && lo > hi {
		return fmt.Errorf("%w: %s min %v > max %v", ErrInvalidCriterion, c.Metric, lo, hi)
	}
	return nil
}

// Admits reports whether v satisfies the criterion; null never does
func (c RangeCriterion) Admits(v Value) bool {
	x, ok := v.Get()
	if !ok {
		return false
	}
	if lo, has := c.Min.Get(); has && x < lo {
		return false
	}
	if hi, has := c.Max.Get(); has && x > hi {
		return false
	}
	return true
}

func (c RangeCriterion) String() string {
	lo, hi := "-inf", "+inf"
	if !c.Min.IsNull() {
		lo = c.Min.String()
	}
	if !c.Max.IsNull() {
		hi = c.Max.String()
	}
	return fmt.Sprintf("%s in [%s, %s]", c.Metric, lo, hi)
}

// Direction says which end of a metric's range scores well
type Direction string

const (
	HigherIsBetter Direction = "higher_is_better"
	LowerIsBetter  Direction = "lower_is_better"
)

// Valid reports whether d is a known direction
func (d Direction) Valid() bool {
	return d == HigherIsBetter || d == LowerIsBetter
}

// MetricWeight is one entry of a ScoreWeightSpec
type MetricWeight struct {
	Metric    string    `json:"metric" yaml:"metric"`
	Weight    float64   `json:"weight" yaml:"weight"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// ScoreWeightSpec weights metrics for composite scoring. Weights
// conventionally sum to 100 but that is not enforced.
type ScoreWeightSpec struct {
	Name    string         `json:"name,omitempty" yaml:"name"`
	Metrics []MetricWeight `json:"metrics" yaml:"metrics"`
}

// Validate rejects specs that cannot produce a meaningful score
func (s ScoreWeightSpec) Validate() error {
	if len(s.Metrics) == 0 {
		return fmt.Errorf("%w: no metrics", ErrInvalidWeightSpec)
	}

	positive := 0
	seen := make(map[string]struct{}, len(s.Metrics))
	for _, m := range s.Metrics {
		if m.Metric == "" {
			return fmt.Errorf("%w: empty metric code", ErrInvalidWeightSpec)
		}
		if _, dup := seen[m.Metric]; dup {
			return fmt.Errorf("%w: metric %s listed twice", ErrInvalidWeightSpec, m.Metric)
		}
		seen[m.Metric] = struct{}{}

		if m.Weight < 0 {
			return fmt.Errorf("%w: negative weight for %s", ErrInvalidWeightSpec, m.Metric)
		}
		if !m.Direction.Valid() {
			return fmt.Errorf("%w: unknown direction %q for %s", ErrInvalidWeightSpec, m.Direction, m.Metric)
		}
		if m.Weight > 0 {
			positive++
		}
	}

	if positive == 0 {
		return fmt.Errorf("%w: at least one weight must be positive", ErrInvalidWeightSpec)
	}
	return nil
}

// TotalWeight sums all weights
func (s ScoreWeightSpec) TotalWeight() float64 {
	total := 0.0
	for _, m := range s.Metrics {
		total += m.Weight
	}
	return total
}
