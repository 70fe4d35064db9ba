package fundamentals

import (
	"fmt"
	"math"

	"github.com/wonny/vnequity/internal/contracts"
)

// Pre-computed DuPont factor fields
const (
	FieldTaxBurden      = "DU1_TAX_BURDEN"
	FieldInterestBurden = "DU2_INTEREST_BURDEN"
	FieldProfitMargin   = "DU3_PROFIT_MARGIN"
	FieldAssetTurnover  = "DU4_ASSETS_TURNOVER"
	FieldLeverage       = "DU5_LEVERAGE"
	FieldReportedROE    = "ROAE"
)

// DuPont reads the five factors from the row. ImpliedROE is their product
// when all five are present.
func DuPont(row contracts.MetricRow) contracts.DuPontComponents {
	d := contracts.DuPontComponents{
		TaxBurden:      row.Value(FieldTaxBurden),
		InterestBurden: row.Value(FieldInterestBurden),
		ProfitMargin:   row.Value(FieldProfitMargin),
		AssetTurnover:  row.Value(FieldAssetTurnover),
		Leverage:       row.Value(FieldLeverage),
	}

	product := 1.0
	for _, f := range []contracts.Value{d.TaxBurden, d.InterestBurden, d.ProfitMargin, d.AssetTurnover, d.Leverage} {
		x, ok := f.Get()
		if !ok {
			return d
		}
		product *= x
	}
	d.ImpliedROE = contracts.Some(product)
	return d
}

// CheckROE compares the implied ROE with a reported figure. It returns a
// ROE_DISCREPANCY warning when both are defined and differ by more than
// tolerance (absolute). It never alters either value.
func CheckROE(entity string, d contracts.DuPontComponents, reported contracts.Value, tolerance float64) (contracts.Warning, bool) {
	implied, ok1 := d.ImpliedROE.Get()
	rep, ok2 := reported.Get()
	if !ok1 || !ok2 {
		return contracts.Warning{}, false
	}
	if math.Abs(implied-rep) <= tolerance {
		return contracts.Warning{}, false
	}
	return contracts.Warning{
		Code:    contracts.WarnROEDiscrepancy,
		Metric:  FieldReportedROE,
		Entity:  entity,
		Message: fmt.Sprintf("implied ROE %.4f differs from reported %.4f by more than %.4f", implied, rep, tolerance),
	}, true
}
