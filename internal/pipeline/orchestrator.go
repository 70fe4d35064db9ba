package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/vnequity/internal/catalog"
	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/internal/fundamentals"
	"github.com/wonny/vnequity/internal/ranking"
	"github.com/wonny/vnequity/internal/scoring"
	"github.com/wonny/vnequity/internal/screening"
	"github.com/wonny/vnequity/internal/snapshot"
	"github.com/wonny/vnequity/pkg/logger"
)

// Stage names, in execution order
const (
	StagePeriod = "period"
	StageGroup  = "group"
	StageScreen = "screen"
	StageEnrich = "enrich"
	StageScore  = "score"
	StageRank   = "rank"
)

// Request describes one screening run
type Request struct {
	// Period restricts rows to one quarter. Zero selects the latest row
	// of each entity unless AllPeriods is set.
	Period     contracts.Period `json:"period,omitempty"`
	AllPeriods bool             `json:"all_periods,omitempty"`

	Groups   []string `json:"groups,omitempty"`
	Industry string   `json:"industry,omitempty"`

	// Preset criteria run first, then Criteria
	Preset   string                     `json:"preset,omitempty"`
	Criteria []contracts.RangeCriterion `json:"criteria,omitempty"`

	// Weights overrides Spec. With neither, the weight spec follows the CAL_GROUP
	// when exactly one group is requested, else the default spec.
	Spec    string                     `json:"spec,omitempty"`
	Weights *contracts.ScoreWeightSpec `json:"weights,omitempty"`
	Basis   scoring.Basis              `json:"basis,omitempty"`

	SkipEnrich bool    `json:"skip_enrich,omitempty"`
	CheckROE   bool    `json:"check_roe,omitempty"`
	Tolerance  float64 `json:"roe_tolerance,omitempty"`

	// SortBy defaults to the Score column, descending
	SortBy    string `json:"sort_by,omitempty"`
	Ascending bool   `json:"ascending,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// StageCount records rows remaining after a stage
type StageCount struct {
	Stage string `json:"stage"`
	Rows  int    `json:"rows"`
}

// Result holds the ranked dataset and everything collected on the way
type Result struct {
	Dataset  *contracts.Dataset  `json:"dataset"`
	Warnings []contracts.Warning `json:"warnings,omitempty"`
	Stages   []StageCount        `json:"stages"`
	Rejected map[string]int      `json:"rejected,omitempty"`
	Spec     string              `json:"spec"`
	Scales   map[string]float64  `json:"scales,omitempty"`
	Duration time.Duration       `json:"duration"`
}

func (r *Result) record(stage string, ds *contracts.Dataset) {
	r.Stages = append(r.Stages, StageCount{Stage: stage, Rows: ds.Len()})
}

// Orchestrator runs period selection → group filter → screen → enrich →
// score → rank
// ⭐ SSOT: 스크리닝 파이프라인 조율은 여기서만
type Orchestrator struct {
	presets map[string]screening.Preset
	specs   map[string]contracts.ScoreWeightSpec

	screener *screening.Screener
	scorer   *scoring.Scorer
	ranker   *ranking.Ranker
	logger   *logger.Logger
}

// NewOrchestrator creates an orchestrator over the given presets and specs
func NewOrchestrator(
	presets map[string]screening.Preset,
	specs map[string]contracts.ScoreWeightSpec,
	logger *logger.Logger,
) *Orchestrator {
	return &Orchestrator{
		presets:  presets,
		specs:    specs,
		screener: screening.NewScreener(logger),
		scorer:   scoring.NewScorer(logger),
		ranker:   ranking.NewRanker(logger),
		logger:   logger,
	}
}

// Presets returns the configured presets
func (o *Orchestrator) Presets() map[string]screening.Preset {
	return o.presets
}

// Specs returns the configured weight specs
func (o *Orchestrator) Specs() map[string]contracts.ScoreWeightSpec {
	return o.specs
}

// Run executes every stage on ds. ds is not modified.
func (o *Orchestrator) Run(ctx context.Context, ds *contracts.Dataset, req Request) (*Result, error) {
	start := time.Now()
	result := &Result{}

	criteria, err := o.criteria(req)
	if err != nil {
		return nil, err
	}
	spec, err := o.spec(req)
	if err != nil {
		return nil, err
	}
	result.Spec = spec.Name

	// Period selection
	switch {
	case !req.Period.IsZero():
		ds = snapshot.AtPeriod(ds, req.Period)
	case !req.AllPeriods:
		ds = snapshot.Latest(ds)
	}
	result.record(StagePeriod, ds)

	// Group filter
	ds = screening.FilterIndustry(screening.FilterGroups(ds, req.Groups...), req.Industry)
	result.record(StageGroup, ds)
	universe := ds

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Screen
	screened, err := o.screener.Screen(ds, criteria)
	if err != nil {
		return nil, fmt.Errorf("screen failed: %w", err)
	}
	ds = screened.Dataset
	result.Warnings = append(result.Warnings, screened.Warnings...)
	result.Rejected = screened.Rejected
	result.record(StageScreen, ds)

	// Enrich
	enricher := fundamentals.NewEnricher(fundamentals.EnrichOptions{
		CheckROE:     req.CheckROE,
		ROETolerance: req.Tolerance,
	}, o.logger)
	if !req.SkipEnrich {
		enriched, warnings, err := enricher.Enrich(ds)
		if err != nil {
			return nil, fmt.Errorf("enrich failed: %w", err)
		}
		ds = enriched
		result.Warnings = append(result.Warnings, warnings...)
		result.record(StageEnrich, ds)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// The reference universe carries the same derived columns as ds
	if req.Basis == scoring.BasisReference && !req.SkipEnrich {
		universe, _, err = enricher.Enrich(universe)
		if err != nil {
			return nil, fmt.Errorf("enrich reference failed: %w", err)
		}
	}

	// Score
	scored, err := o.scorer.Score(ds, spec, scoring.Options{
		Basis:     req.Basis,
		Reference: universe,
	})
	if err != nil {
		return nil, fmt.Errorf("score failed: %w", err)
	}
	ds = scored.Dataset
	result.Warnings = append(result.Warnings, scored.Warnings...)
	result.Scales = scored.Scales
	result.record(StageScore, ds)

	// Rank
	sortBy := req.SortBy
	if sortBy == "" {
		sortBy = catalog.ScoreColumn
	}
	ranked, err := o.ranker.TopN(ds, sortBy, req.Limit, req.Ascending)
	if err != nil {
		return nil, fmt.Errorf("rank failed: %w", err)
	}
	result.Dataset = ranked
	result.record(StageRank, ranked)
	result.Duration = time.Since(start)

	o.logger.WithFields(map[string]interface{}{
		"preset":   req.Preset,
		"spec":     spec.Name,
		"criteria": len(criteria),
		"universe": universe.Len(),
		"passed":   screened.Passed,
		"returned": ranked.Len(),
		"warnings": len(result.Warnings),
		"duration": result.Duration,
	}).Info("Pipeline completed")

	return result, nil
}

func (o *Orchestrator) criteria(req Request) ([]contracts.RangeCriterion, error) {
	var out []contracts.RangeCriterion
	if req.Preset != "" {
		p, err := screening.LookupPreset(o.presets, req.Preset)
		if err != nil {
			return nil, err
		}
		out = append(out, p.Criteria...)
	}
	return append(out, req.Criteria...), nil
}

func (o *Orchestrator) spec(req Request) (contracts.ScoreWeightSpec, error) {
	switch {
	case req.Weights != nil:
		return *req.Weights, nil
	case req.Spec != "":
		return scoring.LookupSpec(o.specs, req.Spec)
	case len(req.Groups) == 1:
		return scoring.SpecForClass(o.specs, req.Groups[0])
	}
	return scoring.LookupSpec(o.specs, scoring.SpecDefault)
}
