package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/internal/export"
)

func TestParseCriterion(t *testing.T) {
	tests := []struct {
		in   string
		want contracts.RangeCriterion
	}{
		{"ROAE>=15", contracts.RangeCriterion{Metric: "ROAE", Min: contracts.Some(15), Max: contracts.Null()}},
		{"pe_eoq <= 12", contracts.RangeCriterion{Metric: "PE_EOQ", Min: contracts.Null(), Max: contracts.Some(12)}},
		{"PB_EOQ=0:1.5", contracts.Between("PB_EOQ", 0, 1.5)},
		{"DEBTS_RATIO=:0.6", contracts.RangeCriterion{Metric: "DEBTS_RATIO", Min: contracts.Null(), Max: contracts.Some(0.6)}},
	}
	for _, tt := range tests {
		got, err := parseCriterion(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want.Metric, got.Metric, tt.in)
		assert.True(t, tt.want.Min.Equal(got.Min), tt.in)
		assert.True(t, tt.want.Max.Equal(got.Max), tt.in)
	}

	for _, bad := range []string{"ROAE", ">=3", "ROAE>=x", "PE=5", "PE=9:3"} {
		_, err := parseCriterion(bad)
		assert.ErrorIs(t, err, contracts.ErrInvalidCriterion, bad)
	}
}

func TestFormatOf(t *testing.T) {
	f, err := formatOf("out/Result.XLSX")
	require.NoError(t, err)
	assert.Equal(t, export.FormatXLSX, f)

	_, err = formatOf("result.json")
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}

func TestPad(t *testing.T) {
	assert.Equal(t, "FPT   ", pad("FPT", 6))
	assert.Equal(t, "Vietc…", pad("Vietcombank", 6))
	assert.Equal(t, "Hòa   ", pad("Hòa", 6))
}

func TestSortedKeys(t *testing.T) {
	assert.Equal(t, []string{"bank", "default"}, sortedKeys(map[string]int{"default": 1, "bank": 2}))
}
