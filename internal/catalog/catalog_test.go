package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/vnequity/internal/contracts"
)

func TestFormatOf(t *testing.T) {
	tests := []struct {
		code string
		want Format
	}{
		{"ROAE", FormatPercent},
		{"NET_INCOME_MARGIN_12M", FormatPercent},
		{"CLOSE_PRICE_GYOY", FormatPercent},
		{"MARKET_CAP_EOQ", FormatBillion},
		{"NET_SALES_12M", FormatBillion},
		{"CLOSE_PRICE", FormatPrice},
		{"PE_EOQ", FormatRatio},
		{"PB_EOQ", FormatRatio},
		{"SOMETHING_ELSE", FormatNumber},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatOf(tt.code))
		})
	}
}

func TestLookup(t *testing.T) {
	m, ok := Lookup("PE_EOQ")
	assert.True(t, ok)
	assert.Equal(t, "P/E", m.Label)
	assert.Equal(t, GroupValuation, m.Group)
	assert.Equal(t, FormatRatio, m.Format)

	m, ok = Lookup("CURRENT_RATIO_Q")
	assert.True(t, ok)
	assert.Equal(t, FormatRatio, m.Format, "override beats the RATIO keyword")

	_, ok = Lookup("UNKNOWN_CODE")
	assert.False(t, ok)
	assert.Equal(t, "UNKNOWN_CODE", Label("UNKNOWN_CODE"))
	assert.Equal(t, FormatBillion, FormatFor("TOTAL_REVENUE_X"))
}

func TestMetricsOrdered(t *testing.T) {
	ms := Metrics()
	assert.NotEmpty(t, ms)
	for i := 1; i < len(ms); i++ {
		assert.Less(t, ms[i-1].Order, ms[i].Order)
	}
	assert.Equal(t, "PE_EOQ", ms[0].Code)

	assert.Equal(t, GroupValuation, Groups()[0])
	assert.Contains(t, GroupMetrics(GroupRisk), "Z_SCORE")
}

func TestClassMetrics(t *testing.T) {
	assert.Contains(t, ClassMetrics(ClassBank), "NIM_12M")
	assert.Contains(t, ClassMetrics("BANK"), "NPL_Q")
	assert.NotContains(t, ClassMetrics(ClassCompany), "NIM_12M")
	assert.Equal(t, ClassMetrics(ClassCompany), ClassMetrics("unknown"))

	// returned slices are copies
	ms := ClassMetrics(ClassBank)
	ms[0] = "X"
	assert.NotEqual(t, "X", ClassMetrics(ClassBank)[0])
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, NA, FormatValue("PE_EOQ", contracts.Null()))
	assert.Equal(t, "0.00", FormatValue("PE_EOQ", contracts.Some(0)), "zero is not N/A")
	assert.Equal(t, NA, FormatValue("PE_EOQ", contracts.Some(-4)))
	assert.Equal(t, "12.50%", FormatValue("ROAE", contracts.Some(12.5)))
	assert.Equal(t, "1,234.50 bn", FormatValue("MARKET_CAP_EOQ", contracts.Some(1234.5e9)))
	assert.Equal(t, "25,300.00", FormatValue("CLOSE_PRICE", contracts.Some(25300)))
	assert.Equal(t, "2.50M", FormatAs(FormatNumber, contracts.Some(2.5e6)))
	assert.Equal(t, "3.10", FormatValue("Z_SCORE", contracts.Some(3.1)))
}
