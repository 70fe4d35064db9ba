package analysis

import (
	"errors"
	"fmt"

	"github.com/wonny/vnequity/internal/catalog"
	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/internal/fundamentals"
	"github.com/wonny/vnequity/internal/snapshot"
	"github.com/wonny/vnequity/pkg/logger"
)

// ErrUnknownTicker is returned when the symbol has no rows
var ErrUnknownTicker = errors.New("unknown ticker")

// FieldReportedZScore is the pre-computed Z-Score column of the ticker table
const FieldReportedZScore = "Z_SCORE"

// MetricView is one metric of the latest period, placed among its peers
type MetricView struct {
	Code    string          `json:"code"`
	Label   string          `json:"label"`
	Group   catalog.Group   `json:"group"`
	Value   contracts.Value `json:"value"`
	Display string          `json:"display"`
	// PeerPercentile is the share of peers (same industry and period)
	// strictly below Value, in percent
	PeerPercentile contracts.Value       `json:"peer_percentile"`
	PeerSummary    *fundamentals.Summary `json:"peer_summary,omitempty"`
}

// TickerAnalysis is the detail view of one ticker
type TickerAnalysis struct {
	Info           snapshot.Info               `json:"info"`
	Period         contracts.Period            `json:"period"`
	ZScore         contracts.ZScoreComponents  `json:"z_score"`
	Interpretation fundamentals.Interpretation `json:"interpretation"`
	DuPont         contracts.DuPontComponents  `json:"dupont"`
	Liquidity      contracts.Value             `json:"liquidity_score"`
	Profitability  contracts.Value             `json:"profitability_score"`
	Peers          int                         `json:"peers"`
	Metrics        []MetricView                `json:"metrics"`
	History        *contracts.Dataset          `json:"history"`
	Warnings       []contracts.Warning         `json:"warnings,omitempty"`
}

// Analyzer builds per-ticker detail views
// ⭐ SSOT: 종목 상세 분석은 여기서만
type Analyzer struct {
	enricher *fundamentals.Enricher
	logger   *logger.Logger
}

// NewAnalyzer creates a new analyzer
func NewAnalyzer(opts fundamentals.EnrichOptions, logger *logger.Logger) *Analyzer {
	return &Analyzer{
		enricher: fundamentals.NewEnricher(opts, logger),
		logger:   logger,
	}
}

// Analyze builds the detail view of symbol from the ticker table
func (an *Analyzer) Analyze(tickers *contracts.Dataset, symbol string) (*TickerAnalysis, error) {
	info, ok := snapshot.TickerInfo(tickers, symbol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTicker, symbol)
	}

	history := snapshot.History(tickers, info.Symbol)
	latest := history.Row(history.Len() - 1)

	a := &TickerAnalysis{
		Info:          info,
		Period:        latest.Period,
		ZScore:        fundamentals.ZScore(latest),
		DuPont:        fundamentals.DuPont(latest),
		Liquidity:     fundamentals.LiquidityScore(latest),
		Profitability: fundamentals.ProfitabilityScore(latest),
	}

	z := a.ZScore.ZScore
	if z.IsNull() {
		z = latest.Value(FieldReportedZScore)
	}
	a.Interpretation = fundamentals.InterpretZScore(z)

	enriched, warnings, err := an.enricher.Enrich(history)
	if err != nil {
		return nil, err
	}
	a.History = enriched
	a.Warnings = append(a.Warnings, warnings...)

	peers := Peers(tickers, latest)
	a.Peers = peers.Len()
	for _, code := range catalog.ClassMetrics(latest.Attr(contracts.AttrGroup)) {
		if !tickers.HasColumn(code) {
			a.Warnings = append(a.Warnings, contracts.SchemaMismatch(code, "analysis"))
			continue
		}
		m, _ := catalog.Lookup(code)
		v := latest.Value(code)
		column := peers.Column(code)
		a.Metrics = append(a.Metrics, MetricView{
			Code:           code,
			Label:          catalog.Label(code),
			Group:          m.Group,
			Value:          v,
			Display:        catalog.FormatValue(code, v),
			PeerPercentile: fundamentals.Percentile(column, v),
			PeerSummary:    fundamentals.Summarize(column),
		})
	}

	an.logger.WithFields(map[string]interface{}{
		"symbol":   info.Symbol,
		"period":   a.Period.String(),
		"peers":    a.Peers,
		"z_zone":   string(a.Interpretation.Category),
		"warnings": len(a.Warnings),
	}).Debug("Ticker analysis completed")

	return a, nil
}

// Peers returns the rows sharing row's period and industry, falling back
// to CAL_GROUP when the industry is unknown. row itself is included.
func Peers(tickers *contracts.Dataset, row contracts.MetricRow) *contracts.Dataset {
	key, value := contracts.AttrIndustry, row.Attr(contracts.AttrIndustry)
	if value == "" {
		key, value = contracts.AttrGroup, row.Attr(contracts.AttrGroup)
	}
	return tickers.Filter(func(r contracts.MetricRow) bool {
		return r.Period == row.Period && r.Attr(key) == value
	})
}
