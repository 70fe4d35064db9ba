package contracts

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_NullSemantics(t *testing.T) {
	var zero Value
	assert.True(t, zero.IsNull(), "zero Value must be null")
	assert.True(t, Some(math.NaN()).IsNull())
	assert.True(t, Some(math.Inf(1)).IsNull())

	v, ok := Some(0).Get()
	assert.True(t, ok, "0 is a defined value, not null")
	assert.Equal(t, 0.0, v)
	assert.Equal(t, 7.0, Null().Or(7))
}

func TestValue_Div(t *testing.T) {
	tests := []struct {
		name string
		num  Value
		den  Value
		want Value
	}{
		{"defined", Some(10), Some(4), Some(2.5)},
		{"zero denominator", Some(10), Some(0), Null()},
		{"null numerator", Null(), Some(4), Null()},
		{"null denominator", Some(10), Null(), Null()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(tt.num.Div(tt.den)), "got %v", tt.num.Div(tt.den))
		})
	}
}

func TestValue_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]Value{"a": Some(1.5), "b": Null()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1.5,"b":null}`, string(data))

	var back map[string]Value
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back["a"].Equal(Some(1.5)))
	assert.True(t, back["b"].IsNull())
}

func TestParseValue(t *testing.T) {
	for _, s := range []string{"", "NaN", "N/A", "None", "null"} {
		v, err := ParseValue(s)
		require.NoError(t, err, s)
		assert.True(t, v.IsNull(), s)
	}

	v, err := ParseValue("12.5")
	require.NoError(t, err)
	assert.True(t, v.Equal(Some(12.5)))

	_, err = ParseValue("twelve")
	assert.Error(t, err)
}

func TestPeriod(t *testing.T) {
	p, err := ParsePeriod("2024Q3")
	require.NoError(t, err)
	assert.Equal(t, Period{Year: 2024, Quarter: 3}, p)
	assert.Equal(t, "2024Q3", p.String())

	assert.True(t, Period{2023, 4}.Before(Period{2024, 1}))
	assert.True(t, Period{2024, 1}.Before(Period{2024, 2}))
	assert.Equal(t, 0, Period{2024, 2}.Compare(Period{2024, 2}))

	for _, bad := range []string{"2024", "2024Q5", "Q1", "abcdQ1", "2024Q"} {
		_, err := ParsePeriod(bad)
		assert.Error(t, err, bad)
	}
}
