package screening

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/pkg/logger"
)

var q4 = contracts.Period{Year: 2024, Quarter: 4}

func row(entity, group string, values map[string]contracts.Value) contracts.MetricRow {
	return contracts.MetricRow{
		Entity: entity,
		Period: q4,
		Attrs:  map[string]string{contracts.AttrGroup: group},
		Values: values,
	}
}

func peDataset(t *testing.T) *contracts.Dataset {
	t.Helper()
	ds, err := contracts.NewDataset([]contracts.MetricRow{
		row("AAA", "company", map[string]contracts.Value{"PE_EOQ": contracts.Some(10), "ROAE": contracts.Some(20)}),
		row("BBB", "bank", map[string]contracts.Value{"PE_EOQ": contracts.Some(20), "ROAE": contracts.Some(10)}),
		row("CCC", "security", map[string]contracts.Value{"PE_EOQ": contracts.Null(), "ROAE": contracts.Some(15)}),
	})
	require.NoError(t, err)
	return ds
}

func TestScreener_Screen_RangeWithMissing(t *testing.T) {
	s := NewScreener(logger.Nop())
	ds := peDataset(t)

	res, err := s.Screen(ds, []contracts.RangeCriterion{contracts.Between("PE_EOQ", 5, 15)})
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA"}, res.Dataset.Entities(), "out-of-range and null rows excluded")
	assert.Equal(t, 3, res.Input)
	assert.Equal(t, 1, res.Passed)
	assert.Equal(t, 2, res.Rejected["PE_EOQ"])
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 3, ds.Len(), "input dataset untouched")
}

func TestScreener_Screen_Conjunction(t *testing.T) {
	s := NewScreener(logger.Nop())

	res, err := s.Screen(peDataset(t), []contracts.RangeCriterion{
		contracts.AtMost("PE_EOQ", 25),
		contracts.AtLeast("ROAE", 15),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"AAA"}, res.Dataset.Entities())
	assert.Equal(t, 1, res.Rejected["PE_EOQ"], "CCC fails on missing PE first")
	assert.Equal(t, 1, res.Rejected["ROAE"])
}

func TestScreener_Screen_EmptyCriteriaIsIdentity(t *testing.T) {
	s := NewScreener(logger.Nop())
	ds := peDataset(t)

	res, err := s.Screen(ds, nil)
	require.NoError(t, err)
	assert.Same(t, ds, res.Dataset)
	assert.Equal(t, 3, res.Passed)
}

func TestScreener_Screen_Idempotent(t *testing.T) {
	s := NewScreener(logger.Nop())
	criteria := []contracts.RangeCriterion{contracts.Between("ROAE", 12, 100)}

	once, err := s.Screen(peDataset(t), criteria)
	require.NoError(t, err)
	twice, err := s.Screen(once.Dataset, criteria)
	require.NoError(t, err)

	assert.Equal(t, once.Dataset.Entities(), twice.Dataset.Entities())
	assert.Equal(t, []string{"AAA", "CCC"}, twice.Dataset.Entities(), "input order preserved")
}

func TestScreener_Screen_SchemaMismatch(t *testing.T) {
	var buf bytes.Buffer
	s := NewScreener(logger.NewWithWriter(&buf, "debug"))

	res, err := s.Screen(peDataset(t), []contracts.RangeCriterion{
		contracts.Between("DIVIDEND_YIELD_EOQ", 4, 100),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Passed, "unknown metric never reduces the result")
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, contracts.WarnSchemaMismatch, res.Warnings[0].Code)
	assert.Equal(t, "DIVIDEND_YIELD_EOQ", res.Warnings[0].Metric)
	assert.Contains(t, buf.String(), "Criterion skipped")
}

func TestScreener_Screen_InvalidCriterion(t *testing.T) {
	s := NewScreener(logger.Nop())

	_, err := s.Screen(peDataset(t), []contracts.RangeCriterion{contracts.Between("PE_EOQ", 15, 5)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, contracts.ErrInvalidCriterion))
}

func TestFilterGroups(t *testing.T) {
	ds := peDataset(t)

	assert.Same(t, ds, FilterGroups(ds))
	assert.Equal(t, []string{"BBB"}, FilterGroups(ds, "BANK").Entities())
	assert.Equal(t, []string{"AAA", "CCC"}, FilterGroups(ds, "company", "security").Entities())
}

func TestPresets(t *testing.T) {
	presets := DefaultPresets()
	assert.Equal(t, []string{PresetDividend, PresetGrowth, PresetQuality, PresetValue}, PresetNames(presets))

	for _, name := range PresetNames(presets) {
		p, err := LookupPreset(presets, name)
		require.NoError(t, err)
		for _, c := range p.Criteria {
			assert.NoError(t, c.Validate(), "%s: %s", name, c)
		}
	}

	_, err := LookupPreset(presets, "Momentum")
	assert.ErrorIs(t, err, ErrUnknownPreset)
}
