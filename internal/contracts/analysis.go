package contracts

// Altman Z-Score coefficients
const (
	ZWeight1 = 1.2
	ZWeight2 = 1.4
	ZWeight3 = 3.3
	ZWeight4 = 0.6
	ZWeight5 = 1.0
)

// ZScoreComponents holds the five Altman sub-ratios and their aggregate.
// ZScore is defined only when all five components are.
type ZScoreComponents struct {
	Z1     Value `json:"z1"` // working capital / total assets
	Z2     Value `json:"z2"` // retained earnings / total assets (pre-supplied)
	Z3     Value `json:"z3"` // EBIT / total assets
	Z4     Value `json:"z4"` // market cap / total liabilities
	Z5     Value `json:"z5"` // net sales / total assets
	ZScore Value `json:"z_score"`
}

// Complete reports whether every component is defined
func (z ZScoreComponents) Complete() bool {
	return !z.ZScore.IsNull()
}

// Missing lists the undefined components by name
func (z ZScoreComponents) Missing() []string {
	var out []string
	for _, c := range []struct {
		name string
		v    Value
	}{{"Z1", z.Z1}, {"Z2", z.Z2}, {"Z3", z.Z3}, {"Z4", z.Z4}, {"Z5", z.Z5}} {
		if c.v.IsNull() {
			out = append(out, c.name)
		}
	}
	return out
}

// DuPontComponents holds the five multiplicative ROE factors.
// ImpliedROE is their product and is never reconciled against reported ROE.
type DuPontComponents struct {
	TaxBurden      Value `json:"tax_burden"`      // net income / PBT
	InterestBurden Value `json:"interest_burden"` // PBT / EBIT
	ProfitMargin   Value `json:"profit_margin"`   // EBIT / sales
	AssetTurnover  Value `json:"asset_turnover"`  // sales / assets
	Leverage       Value `json:"leverage"`        // assets / equity
	ImpliedROE     Value `json:"implied_roe"`
}

// Complete reports whether the implied ROE could be computed
func (d DuPontComponents) Complete() bool {
	return !d.ImpliedROE.IsNull()
}
