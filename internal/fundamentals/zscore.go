package fundamentals

import "github.com/wonny/vnequity/internal/contracts"

// Source fields of the Z-Score components
const (
	FieldWorkingCapital   = "WORKING_CAPITAL_AVG4Q"
	FieldTotalAssets      = "TOTAL_ASSETS"
	FieldEBIT             = "EBIT_12M"
	FieldMarketCap        = "MARKET_CAP_EOQ"
	FieldTotalLiabilities = "TOTAL_LIABILITIES"
	FieldNetSales         = "NET_SALES_12M"
	FieldZ2               = "Z2"
)

// Altman cutoffs
const (
	SafeThreshold     = 2.99
	DistressThreshold = 1.81
)

// ZScore derives the Altman components from a row.
// A missing field or zero denominator leaves that component null, and the
// aggregate is defined only when all five components are.
func ZScore(row contracts.MetricRow) contracts.ZScoreComponents {
	assets := row.Value(FieldTotalAssets)

	z := contracts.ZScoreComponents{
		Z1: row.Value(FieldWorkingCapital).Div(assets),
		Z2: row.Value(FieldZ2),
		Z3: row.Value(FieldEBIT).Div(assets),
		Z4: row.Value(FieldMarketCap).Div(row.Value(FieldTotalLiabilities)),
		Z5: row.Value(FieldNetSales).Div(assets),
	}
	z.ZScore = Combine(z.Z1, z.Z2, z.Z3, z.Z4, z.Z5)
	return z
}

// Combine applies the Altman weights; null if any component is null
func Combine(z1, z2, z3, z4, z5 contracts.Value) contracts.Value {
	parts := [5]contracts.Value{z1, z2, z3, z4, z5}
	weights := [5]float64{
		contracts.ZWeight1,
		contracts.ZWeight2,
		contracts.ZWeight3,
		contracts.ZWeight4,
		contracts.ZWeight5,
	}

	total := 0.0
	for i, p := range parts {
		x, ok := p.Get()
		if !ok {
			return contracts.Null()
		}
		total += weights[i] * x
	}
	return contracts.Some(total)
}

// Category of a Z-Score reading
type Category string

const (
	CategorySafe     Category = "Safe"
	CategoryGrey     Category = "Grey Zone"
	CategoryDistress Category = "Distress"
	CategoryUnknown  Category = "Unknown"
)

// Severity for presentation
type Severity string

const (
	SeverityLow     Severity = "low"
	SeverityMedium  Severity = "medium"
	SeverityHigh    Severity = "high"
	SeverityUnknown Severity = "unknown"
)

// Interpretation is a categorized Z-Score reading
type Interpretation struct {
	Category    Category `json:"category"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// InterpretZScore maps a Z-Score onto the fixed Altman zones:
// Safe above 2.99, Grey Zone within [1.81, 2.99], Distress below 1.81.
func InterpretZScore(z contracts.Value) Interpretation {
	x, ok := z.Get()
	switch {
	case !ok:
		return Interpretation{CategoryUnknown, "insufficient data", SeverityUnknown}
	case x > SafeThreshold:
		return Interpretation{CategorySafe, "low bankruptcy risk", SeverityLow}
	case x >= DistressThreshold:
		return Interpretation{CategoryGrey, "needs monitoring", SeverityMedium}
	}
	return Interpretation{CategoryDistress, "high bankruptcy risk", SeverityHigh}
}
