package scoring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vnequity/internal/catalog"
	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/pkg/logger"
)

var q4 = contracts.Period{Year: 2024, Quarter: 4}

func dataset(t *testing.T, values map[string][]contracts.Value) *contracts.Dataset {
	t.Helper()
	n := 0
	for _, col := range values {
		n = len(col)
	}
	rows := make([]contracts.MetricRow, n)
	for i := range rows {
		rows[i] = contracts.MetricRow{
			Entity: string(rune('A' + i)),
			Period: q4,
			Values: map[string]contracts.Value{},
		}
		for code, col := range values {
			rows[i].Values[code] = col[i]
		}
	}
	ds, err := contracts.NewDataset(rows)
	require.NoError(t, err)
	return ds
}

func some(xs ...float64) []contracts.Value {
	out := make([]contracts.Value, len(xs))
	for i, x := range xs {
		out[i] = contracts.Some(x)
	}
	return out
}

func roePESpec() contracts.ScoreWeightSpec {
	return contracts.ScoreWeightSpec{Metrics: []contracts.MetricWeight{
		{Metric: "ROAE", Weight: 50, Direction: contracts.HigherIsBetter},
		{Metric: "PE_EOQ", Weight: 50, Direction: contracts.LowerIsBetter},
	}}
}

func scores(ds *contracts.Dataset) []float64 {
	col := ds.Column(catalog.ScoreColumn)
	out := make([]float64, len(col))
	for i, v := range col {
		out[i] = v.Or(-1)
	}
	return out
}

func TestScorer_Score_WeightedNormalized(t *testing.T) {
	s := NewScorer(logger.Nop())
	ds := dataset(t, map[string][]contracts.Value{
		"ROAE":   some(20, 10),
		"PE_EOQ": some(10, 20),
	})

	res, err := s.Score(ds, roePESpec(), Options{})
	require.NoError(t, err)

	got := scores(res.Dataset)
	assert.InDelta(t, 75.0, got[0], 1e-9)
	assert.InDelta(t, 25.0, got[1], 1e-9)
	assert.Greater(t, got[0], got[1])
	assert.Equal(t, 20.0, res.Scales["ROAE"])
	assert.Empty(t, res.Warnings)
	assert.False(t, ds.HasColumn(catalog.ScoreColumn), "input not mutated")
}

func TestScorer_Score_OrderInvariant(t *testing.T) {
	s := NewScorer(logger.Nop())
	ds := dataset(t, map[string][]contracts.Value{
		"ROAE":   some(0.21, 0.13, 0.08),
		"PE_EOQ": some(9.5, 14.2, 22.1),
		"ROAA":   some(0.02, 0.05, 0.011),
	})

	spec := roePESpec()
	spec.Metrics = append(spec.Metrics, contracts.MetricWeight{Metric: "ROAA", Weight: 30, Direction: contracts.HigherIsBetter})
	reversed := contracts.ScoreWeightSpec{Metrics: []contracts.MetricWeight{spec.Metrics[2], spec.Metrics[1], spec.Metrics[0]}}

	a, err := s.Score(ds, spec, Options{})
	require.NoError(t, err)
	b, err := s.Score(ds, reversed, Options{})
	require.NoError(t, err)

	assert.InDeltaSlice(t, scores(a.Dataset), scores(b.Dataset), 1e-9)
}

func TestScorer_Score_MissingContributesZero(t *testing.T) {
	s := NewScorer(logger.Nop())
	ds := dataset(t, map[string][]contracts.Value{
		"ROAE":   {contracts.Some(20), contracts.Null()},
		"PE_EOQ": {contracts.Some(10), contracts.Null()},
	})

	res, err := s.Score(ds, roePESpec(), Options{})
	require.NoError(t, err)

	got := res.Dataset.Column(catalog.ScoreColumn)
	v, ok := got[1].Get()
	assert.True(t, ok, "score is defined even when every input is missing")
	assert.Equal(t, 0.0, v)
}

func TestScorer_Score_UndefinedScale(t *testing.T) {
	s := NewScorer(logger.Nop())
	ds := dataset(t, map[string][]contracts.Value{
		"ROAE":   some(20, 10, 10),
		"PE_EOQ": {contracts.Some(0), contracts.Some(0), contracts.Null()},
	})

	res, err := s.Score(ds, roePESpec(), Options{})
	require.NoError(t, err)

	got := scores(res.Dataset)
	// normalized 0, then inverted: 1 - 0 = 1 for every present value
	assert.InDelta(t, 100.0, got[0], 1e-9)
	assert.InDelta(t, 75.0, got[1], 1e-9)
	assert.InDelta(t, 25.0, got[2], 1e-9, "missing value still contributes 0")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, contracts.WarnUndefinedScale, res.Warnings[0].Code)
}

func TestScorer_Score_NegativeLowerIsBetter(t *testing.T) {
	s := NewScorer(logger.Nop())
	ds := dataset(t, map[string][]contracts.Value{
		"ROAE":   some(10, 10),
		"PE_EOQ": some(-10, 5),
	})

	res, err := s.Score(ds, roePESpec(), Options{})
	require.NoError(t, err)

	got := scores(res.Dataset)
	// -10/10 = -1 -> 1-(-1) = 2, not clipped
	assert.InDelta(t, 50+100, got[0], 1e-9)
	assert.InDelta(t, 50+25, got[1], 1e-9)

	codes := make([]string, len(res.Warnings))
	for i, w := range res.Warnings {
		codes[i] = w.Code
	}
	assert.Contains(t, codes, contracts.WarnNegativeLowerIsBetter)
}

func TestScorer_Score_SchemaMismatch(t *testing.T) {
	s := NewScorer(logger.Nop())
	ds := dataset(t, map[string][]contracts.Value{"ROAE": some(20, 10)})

	res, err := s.Score(ds, roePESpec(), Options{})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{50, 25}, scores(res.Dataset), 1e-9)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, contracts.WarnSchemaMismatch, res.Warnings[0].Code)
	assert.Equal(t, "PE_EOQ", res.Warnings[0].Metric)

	empty := dataset(t, map[string][]contracts.Value{"NIM_12M": some(1, 2)})
	_, err = s.Score(empty, roePESpec(), Options{})
	assert.True(t, errors.Is(err, contracts.ErrInvalidWeightSpec), "no weighted metric present")
}

func TestScorer_Score_InvalidSpec(t *testing.T) {
	s := NewScorer(logger.Nop())
	ds := dataset(t, map[string][]contracts.Value{"ROAE": some(20, 10)})

	_, err := s.Score(ds, contracts.ScoreWeightSpec{Metrics: []contracts.MetricWeight{
		{Metric: "ROAE", Weight: 0, Direction: contracts.HigherIsBetter},
	}}, Options{})
	assert.True(t, errors.Is(err, contracts.ErrInvalidWeightSpec))
}

func TestScorer_Score_OverwritesScoreColumn(t *testing.T) {
	s := NewScorer(logger.Nop())
	ds := dataset(t, map[string][]contracts.Value{
		"ROAE":              some(20, 10),
		catalog.ScoreColumn: some(999, 999),
	})

	res, err := s.Score(ds, contracts.ScoreWeightSpec{Metrics: []contracts.MetricWeight{
		{Metric: "ROAE", Weight: 100, Direction: contracts.HigherIsBetter},
	}}, Options{})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{100, 50}, scores(res.Dataset), 1e-9)
}

func TestScorer_Score_BasisNotComparable(t *testing.T) {
	s := NewScorer(logger.Nop())
	spec := contracts.ScoreWeightSpec{Metrics: []contracts.MetricWeight{
		{Metric: "ROAE", Weight: 100, Direction: contracts.HigherIsBetter},
	}}

	universe := dataset(t, map[string][]contracts.Value{"ROAE": some(40, 20, 10)})
	subset := universe.Select([]int{1, 2})

	perQuery, err := s.Score(subset, spec, Options{Basis: BasisQuery})
	require.NoError(t, err)
	reference, err := s.Score(subset, spec, Options{Basis: BasisReference, Reference: universe})
	require.NoError(t, err)

	// the same row scores differently depending on the basis
	assert.InDeltaSlice(t, []float64{100, 50}, scores(perQuery.Dataset), 1e-9)
	assert.InDeltaSlice(t, []float64{50, 25}, scores(reference.Dataset), 1e-9)

	full, err := s.Score(universe, spec, Options{Basis: BasisQuery})
	require.NoError(t, err)
	assert.InDelta(t, scores(full.Dataset)[1], scores(reference.Dataset)[0], 1e-9,
		"reference basis matches scoring the whole universe")

	_, err = s.Score(subset, spec, Options{Basis: BasisReference})
	assert.Error(t, err)
}

func TestSpecs(t *testing.T) {
	specs := DefaultSpecs()
	for name, spec := range specs {
		assert.NoError(t, spec.Validate(), name)
		assert.Equal(t, 100.0, spec.TotalWeight(), name)
	}

	bank, err := SpecForClass(specs, "bank")
	require.NoError(t, err)
	assert.Equal(t, SpecBank, bank.Name)

	other, err := SpecForClass(specs, "insurance")
	require.NoError(t, err)
	assert.Equal(t, SpecDefault, other.Name)

	_, err = LookupSpec(specs, "nope")
	assert.True(t, errors.Is(err, contracts.ErrInvalidWeightSpec))
}
