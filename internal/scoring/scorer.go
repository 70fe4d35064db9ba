package scoring

import (
	"fmt"
	"math"

	"github.com/wonny/vnequity/internal/catalog"
	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/pkg/logger"
)

// Basis selects the dataset each metric's scale (max |v|) is taken from
type Basis string

const (
	// BasisQuery scales against the dataset being scored. Scores are then
	// only comparable within one call.
	BasisQuery Basis = "query"
	// BasisReference scales against Options.Reference, typically the full
	// universe for the period, so scores are comparable across subsets.
	BasisReference Basis = "reference"
)

// Options tunes a scoring call
type Options struct {
	Basis     Basis
	Reference *contracts.Dataset
	Column    string // output column, catalog.ScoreColumn when empty
}

// Scorer computes weighted composite scores
// ⭐ SSOT: 종합 점수 계산은 여기서만
type Scorer struct {
	logger *logger.Logger
}

// Result is a scored dataset plus diagnostics
type Result struct {
	Dataset  *contracts.Dataset  `json:"dataset"`
	Warnings []contracts.Warning `json:"warnings,omitempty"`
	Scales   map[string]float64  `json:"scales"` // metric -> max |v| used
	Column   string              `json:"column"`
}

// NewScorer creates a new scorer
func NewScorer(logger *logger.Logger) *Scorer {
	return &Scorer{logger: logger}
}

type term struct {
	metric    string
	weight    float64
	direction contracts.Direction
	scale     float64
}

// Score adds a composite score column to ds.
//
// Each weighted metric is normalized as v / max|v| over the scaling basis;
// lower_is_better metrics use 1 - normalized. The row score is the weighted
// sum. A zero scale normalizes to 0 before the direction is applied; a
// missing value contributes 0 for its term.
func (s *Scorer) Score(ds *contracts.Dataset, spec contracts.ScoreWeightSpec, opts Options) (*Result, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}

	basis, err := resolveBasis(ds, opts)
	if err != nil {
		return nil, err
	}

	column := opts.Column
	if column == "" {
		column = catalog.ScoreColumn
	}

	result := &Result{
		Scales: make(map[string]float64),
		Column: column,
	}

	terms := make([]term, 0, len(spec.Metrics))
	for _, mw := range spec.Metrics {
		if mw.Weight == 0 {
			continue
		}
		if !ds.HasColumn(mw.Metric) || !basis.HasColumn(mw.Metric) {
			result.Warnings = append(result.Warnings, contracts.SchemaMismatch(mw.Metric, "scoring"))
			s.logger.WithField("metric", mw.Metric).Warn("Weighted metric skipped: not in dataset")
			continue
		}

		scale, negatives := maxAbs(basis.Column(mw.Metric))
		if scale == 0 {
			result.Warnings = append(result.Warnings, contracts.Warning{
				Code:    contracts.WarnUndefinedScale,
				Metric:  mw.Metric,
				Message: "max |value| is 0 or undefined; normalized to 0 before direction",
			})
		}
		if negatives && mw.Direction == contracts.LowerIsBetter {
			result.Warnings = append(result.Warnings, contracts.Warning{
				Code:    contracts.WarnNegativeLowerIsBetter,
				Metric:  mw.Metric,
				Message: "negative values on a lower_is_better metric score above 1 before weighting",
			})
		}

		result.Scales[mw.Metric] = scale
		terms = append(terms, term{
			metric:    mw.Metric,
			weight:    mw.Weight,
			direction: mw.Direction,
			scale:     scale,
		})
	}

	if len(terms) == 0 {
		return nil, fmt.Errorf("%w: no weighted metric present in dataset", contracts.ErrInvalidWeightSpec)
	}

	scores := make([]contracts.Value, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		scores[i] = contracts.Some(rowScore(ds.Row(i), terms))
	}

	out, err := ds.WithColumn(column, scores)
	if err != nil {
		return nil, err
	}
	result.Dataset = out

	s.logger.WithFields(map[string]interface{}{
		"spec":     spec.Name,
		"rows":     ds.Len(),
		"terms":    len(terms),
		"basis":    string(opts.basisOrDefault()),
		"warnings": len(result.Warnings),
	}).Info("Scoring completed")

	return result, nil
}

func (o Options) basisOrDefault() Basis {
	if o.Basis == "" {
		return BasisQuery
	}
	return o.Basis
}

func resolveBasis(ds *contracts.Dataset, opts Options) (*contracts.Dataset, error) {
	switch opts.basisOrDefault() {
	case BasisQuery:
		return ds, nil
	case BasisReference:
		if opts.Reference == nil {
			return nil, fmt.Errorf("reference basis requires a reference dataset")
		}
		return opts.Reference, nil
	}
	return nil, fmt.Errorf("unknown scaling basis %q", opts.Basis)
}

// rowScore sums weighted normalized terms. Terms are summed in spec order;
// the result does not depend on that order beyond float rounding.
func rowScore(row contracts.MetricRow, terms []term) float64 {
	total := 0.0
	for _, t := range terms {
		total += t.weight * normalize(row.Value(t.metric), t)
	}
	return total
}

func normalize(v contracts.Value, t term) float64 {
	x, ok := v.Get()
	if !ok {
		return 0
	}
	n := 0.0
	if t.scale != 0 {
		n = x / t.scale
	}
	if t.direction == contracts.LowerIsBetter {
		return 1 - n
	}
	return n
}

// maxAbs returns max |v| over defined values and whether any was negative
func maxAbs(values []contracts.Value) (float64, bool) {
	m := 0.0
	negatives := false
	for _, v := range values {
		x, ok := v.Get()
		if !ok {
			continue
		}
		if x < 0 {
			negatives = true
		}
		m = math.Max(m, math.Abs(x))
	}
	return m, negatives
}
