package catalog

import (
	"sort"
	"strings"
)

// Format is the display class of a metric
type Format string

const (
	FormatPercent Format = "percent"
	FormatBillion Format = "billion"
	FormatPrice   Format = "price"
	FormatRatio   Format = "ratio"
	FormatNumber  Format = "number"
)

// Group is a display grouping of metrics
type Group string

const (
	GroupValuation     Group = "Valuation"
	GroupProfitability Group = "Profitability"
	GroupGrowth        Group = "Growth"
	GroupCashflow      Group = "Cashflow"
	GroupLiquidity     Group = "Liquidity"
	GroupLeverage      Group = "Leverage"
	GroupEfficiency    Group = "Efficiency"
	GroupRisk          Group = "Risk"
	GroupBanking       Group = "Banking"
	GroupDerived       Group = "Derived"
	GroupOther         Group = "Other"
)

// Metric describes one metric code
type Metric struct {
	Code   string `json:"code"`
	Label  string `json:"label"`
	Group  Group  `json:"group"`
	Order  int    `json:"order"`
	Format Format `json:"format"`
}

// CAL_GROUP classes
const (
	ClassCompany   = "company"
	ClassBank      = "bank"
	ClassSecurity  = "security"
	ClassInsurance = "insurance"
)

// Derived column codes produced by the fundamentals stage
const (
	DerivedZScore      = "Z_SCORE_DERIVED"
	DerivedDuPontROE   = "DUPONT_ROE"
	LiquidityScore     = "LIQUIDITY_SCORE"
	ProfitabilityScore = "PROFITABILITY_SCORE"
	ScoreColumn        = "Score"
	RankColumn         = "Rank"
)

var groupOrder = []Group{
	GroupValuation,
	GroupProfitability,
	GroupGrowth,
	GroupCashflow,
	GroupLiquidity,
	GroupLeverage,
	GroupEfficiency,
	GroupRisk,
	GroupBanking,
	GroupDerived,
	GroupOther,
}

type entry struct {
	code  string
	label string
}

var grouped = map[Group][]entry{
	GroupValuation: {
		{"PE_EOQ", "P/E"},
		{"PB_EOQ", "P/B"},
		{"EV_EBITDA", "EV/EBITDA"},
		{"P_FCF_EOQ", "P/FCF"},
		{"P_CFO_EOQ", "P/CFO"},
	},
	GroupProfitability: {
		{"ROAE", "ROE (%)"},
		{"ROAA", "ROA (%)"},
		{"ROIC", "ROIC (%)"},
		{"ROCE", "ROCE (%)"},
		{"NET_INCOME_MARGIN_12M", "Net margin (%)"},
		{"OPERATING_MARGIN_12M", "EBIT margin (%)"},
		{"GROSS_MARGIN_12M", "Gross margin (%)"},
	},
	GroupGrowth: {
		{"MARKET_CAP_EOQ_GYOY", "Market cap growth YoY (%)"},
		{"MARKET_CAP_EOQ_GQOQ", "Market cap growth QoQ (%)"},
		{"CLOSE_PRICE_GYOY", "Price change YoY (%)"},
		{"CLOSE_PRICE_GQOQ", "Price change QoQ (%)"},
	},
	GroupCashflow: {
		{"CFO_12M", "Operating cash flow (12M)"},
		{"FCF_12M", "Free cash flow (12M)"},
		{"FCFE_12M", "FCFE (12M)"},
		{"FCFF_12M", "FCFF (12M)"},
		{"FCF_PER_SHARE_12M", "FCF per share"},
		{"OCF_PER_SHARE_12M", "OCF per share"},
	},
	GroupLiquidity: {
		{"CURRENT_RATIO_Q", "Current ratio"},
		{"QUICK_RATIO_Q", "Quick ratio"},
		{"CASH_PLUS_EQUIVALENTS", "Cash and equivalents"},
	},
	GroupLeverage: {
		{"DEBTS_RATIO", "Debt ratio (%)"},
		{"LEVERAGE", "Leverage"},
		{"INTEREST_COVERAGE_RATIO", "Interest coverage"},
	},
	GroupEfficiency: {
		{"ASSETS_TURNOVER", "Asset turnover"},
		{"INVENTORY_TURNOVER", "Inventory turnover"},
		{"ACCOUNTS_RECEIVABLE_TURNOVER", "Receivables turnover"},
		{"ACCOUNTS_PAYABLE_TURNOVER", "Payables turnover"},
	},
	GroupRisk: {
		{"Z_SCORE", "Z-Score"},
		{"Z1", "Z1 working capital / assets"},
		{"Z2", "Z2 retained earnings / assets"},
		{"Z3", "Z3 EBIT / assets"},
		{"Z4", "Z4 market cap / liabilities"},
		{"Z5", "Z5 sales / assets"},
	},
	GroupBanking: {
		{"NIM_12M", "NIM (12M)"},
		{"NPL_Q", "NPL ratio"},
		{"LLR_Q", "Loan loss reserve"},
		{"CIR_12M", "Cost to income (12M)"},
		{"LDR_12M", "Loan to deposit (12M)"},
		{"CASA_12M", "CASA (12M)"},
		{"NII_TOI_12M", "NII / TOI (12M)"},
	},
	GroupDerived: {
		{DerivedZScore, "Z-Score (derived)"},
		{DerivedDuPontROE, "ROE (DuPont)"},
		{LiquidityScore, "Liquidity score"},
		{ProfitabilityScore, "Profitability score"},
		{ScoreColumn, "Score"},
		{RankColumn, "Rank"},
	},
	GroupOther: {
		{"MARKET_CAP_EOQ", "Market cap"},
		{"CLOSE_PRICE", "Close price"},
		{"EPS_12M", "EPS (12M)"},
		{"BVPS", "BVPS"},
		{"DPS", "DPS"},
		{"DIVIDEND_YIELD_EOQ", "Dividend yield (%)"},
		{"DIVIDEND_PAYOUT", "Dividend payout (%)"},
		{"NET_SALES_12M", "Net sales (12M)"},
		{"NET_INCOME_12M", "Net income (12M)"},
		{"NPATMI_12M", "NPAT-MI (12M)"},
		{"EBIT_12M", "EBIT (12M)"},
		{"EBITDA_12M", "EBITDA (12M)"},
		{"TOTAL_ASSETS", "Total assets"},
		{"TOTAL_EQUITY", "Total equity"},
		{"TOTAL_DEBTS", "Total debts"},
		{"TOTAL_LIABILITIES", "Total liabilities"},
		{"CURRENT_LIABILITIES", "Current liabilities"},
		{"WORKING_CAPITAL_AVG4Q", "Working capital (avg 4Q)"},
	},
}

// formatOverrides fixes codes the keyword classifier gets wrong
var formatOverrides = map[string]Format{
	"EV_EBITDA":                    FormatRatio,
	"P_FCF_EOQ":                    FormatRatio,
	"P_CFO_EOQ":                    FormatRatio,
	"FCF_PER_SHARE_12M":            FormatPrice,
	"OCF_PER_SHARE_12M":            FormatPrice,
	"CURRENT_RATIO_Q":              FormatRatio,
	"QUICK_RATIO_Q":                FormatRatio,
	"INTEREST_COVERAGE_RATIO":      FormatRatio,
	"LEVERAGE":                     FormatRatio,
	"ASSETS_TURNOVER":              FormatRatio,
	"INVENTORY_TURNOVER":           FormatRatio,
	"ACCOUNTS_RECEIVABLE_TURNOVER": FormatRatio,
	"ACCOUNTS_PAYABLE_TURNOVER":    FormatRatio,
	"Z_SCORE":                      FormatNumber,
	"DIVIDEND_PAYOUT":              FormatPercent,
	"EPS_12M":                      FormatPrice,
	"BVPS":                         FormatPrice,
	"DPS":                          FormatPrice,
	"NIM_12M":                      FormatPercent,
	"NPL_Q":                        FormatPercent,
	"LLR_Q":                        FormatPercent,
	"CIR_12M":                      FormatPercent,
	"LDR_12M":                      FormatPercent,
	"CASA_12M":                     FormatPercent,
	"NII_TOI_12M":                  FormatPercent,
	DerivedZScore:                  FormatNumber,
	DerivedDuPontROE:               FormatPercent,
	LiquidityScore:                 FormatNumber,
	ProfitabilityScore:             FormatNumber,
	ScoreColumn:                    FormatNumber,
	RankColumn:                     FormatNumber,
}

var classMetrics = map[string][]string{
	ClassCompany: {
		"PE_EOQ", "PB_EOQ", "ROAE", "ROAA", "ROIC", "GROSS_MARGIN_12M",
		"OPERATING_MARGIN_12M", "NET_INCOME_MARGIN_12M", "CURRENT_RATIO_Q",
		"QUICK_RATIO_Q", "DEBTS_RATIO", "Z_SCORE",
	},
	ClassBank: {
		"PE_EOQ", "PB_EOQ", "ROAE", "ROAA", "NIM_12M", "NPL_Q", "LLR_Q",
		"CIR_12M", "LDR_12M", "CASA_12M", "NII_TOI_12M",
	},
	ClassSecurity: {
		"PE_EOQ", "PB_EOQ", "ROAE", "ROAA", "OPERATING_MARGIN_12M",
		"NET_INCOME_MARGIN_12M", "CURRENT_RATIO_Q", "DEBTS_RATIO",
	},
	ClassInsurance: {
		"PE_EOQ", "PB_EOQ", "ROAE", "ROAA", "NET_INCOME_MARGIN_12M",
	},
}

var index = buildIndex()

func buildIndex() map[string]Metric {
	idx := make(map[string]Metric)
	order := 0
	for _, g := range groupOrder {
		for _, e := range grouped[g] {
			f, ok := formatOverrides[e.code]
			if !ok {
				f = FormatOf(e.code)
			}
			idx[e.code] = Metric{Code: e.code, Label: e.label, Group: g, Order: order, Format: f}
			order++
		}
	}
	return idx
}

// Lookup returns the catalog entry for code
func Lookup(code string) (Metric, bool) {
	m, ok := index[code]
	return m, ok
}

// Label returns the display label, the raw code when unknown
func Label(code string) string {
	if m, ok := index[code]; ok {
		return m.Label
	}
	return code
}

// FormatFor returns the catalog format, falling back to the keyword classifier
func FormatFor(code string) Format {
	if m, ok := index[code]; ok {
		return m.Format
	}
	return FormatOf(code)
}

// Groups returns the metric groups in display order
func Groups() []Group {
	out := make([]Group, len(groupOrder))
	copy(out, groupOrder)
	return out
}

// GroupMetrics returns the codes in g, in display order
func GroupMetrics(g Group) []string {
	entries := grouped[g]
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.code
	}
	return out
}

// Metrics returns every catalog entry sorted by display order
func Metrics() []Metric {
	out := make([]Metric, 0, len(index))
	for _, m := range index {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Classes returns the known CAL_GROUP classes
func Classes() []string {
	return []string{ClassCompany, ClassBank, ClassSecurity, ClassInsurance}
}

// ClassMetrics returns the metric set shown for a CAL_GROUP class.
// Unknown classes use the company set.
func ClassMetrics(class string) []string {
	ms, ok := classMetrics[strings.ToLower(class)]
	if !ok {
		ms = classMetrics[ClassCompany]
	}
	out := make([]string, len(ms))
	copy(out, ms)
	return out
}

var (
	percentKeys = []string{"RATIO", "MARGIN", "YIELD", "ROA", "ROE", "ROIC", "ROCE", "GROWTH", "GQOQ", "GYOY"}
	billionKeys = []string{"MARKET_CAP", "SALES", "INCOME", "ASSETS", "EQUITY", "DEBTS", "CF", "FCF", "EBITDA", "REVENUE"}
	ratioKeys   = []string{"PE_", "PB_", "EV_", "P_"}
)

// FormatOf classifies an arbitrary code by keyword. Checks run in order:
// percent, billion, price, ratio, then number.
func FormatOf(code string) Format {
	upper := strings.ToUpper(code)
	switch {
	case containsAny(upper, percentKeys):
		return FormatPercent
	case containsAny(upper, billionKeys):
		return FormatBillion
	case strings.Contains(upper, "PRICE"):
		return FormatPrice
	case containsAny(upper, ratioKeys):
		return FormatRatio
	}
	return FormatNumber
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
