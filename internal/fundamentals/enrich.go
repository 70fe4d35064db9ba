package fundamentals

import (
	"fmt"

	"github.com/wonny/vnequity/internal/catalog"
	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/pkg/logger"
)

// EnrichOptions controls optional checks during enrichment
type EnrichOptions struct {
	// CheckROE emits ROE_DISCREPANCY warnings when the DuPont product
	// drifts from reported ROE by more than ROETolerance
	CheckROE     bool
	ROETolerance float64
}

// Enricher appends derived columns to a dataset
// ⭐ SSOT: 파생 지표 (Z-Score, DuPont, 유동성/수익성 점수) 계산은 여기서만
type Enricher struct {
	opts   EnrichOptions
	logger *logger.Logger
}

// NewEnricher creates a new enricher
func NewEnricher(opts EnrichOptions, logger *logger.Logger) *Enricher {
	return &Enricher{opts: opts, logger: logger}
}

// DerivedColumns lists the columns Enrich adds, in order
func DerivedColumns() []string {
	return []string{
		catalog.DerivedZScore,
		catalog.DerivedDuPontROE,
		catalog.LiquidityScore,
		catalog.ProfitabilityScore,
	}
}

// Enrich adds Z_SCORE_DERIVED, DUPONT_ROE, LIQUIDITY_SCORE and
// PROFITABILITY_SCORE alongside the source columns. Source values, including
// a pre-supplied Z_SCORE, are left untouched.
func (e *Enricher) Enrich(ds *contracts.Dataset) (*contracts.Dataset, []contracts.Warning, error) {
	n := ds.Len()
	zs := make([]contracts.Value, n)
	roe := make([]contracts.Value, n)
	liq := make([]contracts.Value, n)
	prof := make([]contracts.Value, n)

	var warnings []contracts.Warning
	zMissing, duMissing := 0, 0

	for i := 0; i < n; i++ {
		row := ds.Row(i)

		z := ZScore(row)
		zs[i] = z.ZScore
		if !z.Complete() {
			zMissing++
		}

		du := DuPont(row)
		roe[i] = du.ImpliedROE
		if !du.Complete() {
			duMissing++
		}
		if e.opts.CheckROE {
			if w, ok := CheckROE(row.Entity, du, row.Value(FieldReportedROE), e.opts.ROETolerance); ok {
				warnings = append(warnings, w)
			}
		}

		liq[i] = LiquidityScore(row)
		prof[i] = ProfitabilityScore(row)
	}

	if zMissing > 0 {
		warnings = append(warnings, undefinedArithmetic(catalog.DerivedZScore, zMissing, n))
	}
	if duMissing > 0 {
		warnings = append(warnings, undefinedArithmetic(catalog.DerivedDuPontROE, duMissing, n))
	}

	out := ds
	for _, col := range []struct {
		code   string
		values []contracts.Value
	}{
		{catalog.DerivedZScore, zs},
		{catalog.DerivedDuPontROE, roe},
		{catalog.LiquidityScore, liq},
		{catalog.ProfitabilityScore, prof},
	} {
		var err error
		out, err = out.WithColumn(col.code, col.values)
		if err != nil {
			return nil, nil, fmt.Errorf("add %s: %w", col.code, err)
		}
	}

	e.logger.WithFields(map[string]interface{}{
		"rows":            n,
		"z_score_missing": zMissing,
		"dupont_missing":  duMissing,
		"warnings":        len(warnings),
	}).Info("Enrichment completed")

	return out, warnings, nil
}

func undefinedArithmetic(code string, missing, total int) contracts.Warning {
	return contracts.Warning{
		Code:    contracts.WarnUndefinedArithmetic,
		Metric:  code,
		Message: fmt.Sprintf("%d of %d rows lack inputs or have a zero denominator", missing, total),
	}
}
