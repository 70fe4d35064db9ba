package screenconfig

import (
	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/internal/fundamentals"
	"github.com/wonny/vnequity/internal/scoring"
	"github.com/wonny/vnequity/internal/screening"
)

// Config는 스크리닝 프리셋과 점수 가중치 설정
type Config struct {
	Meta    Meta                        `yaml:"meta" json:"meta"`
	Presets []Preset                    `yaml:"presets" json:"presets"`
	Specs   []contracts.ScoreWeightSpec `yaml:"specs" json:"specs"`
	Ranking Ranking                     `yaml:"ranking" json:"ranking"`
	Enrich  Enrich                      `yaml:"enrich" json:"enrich"`
}

// Meta 메타 정보
type Meta struct {
	ConfigID string `yaml:"config_id" json:"config_id"`
	Version  string `yaml:"version" json:"version"`
	// ReplaceDefaults drops the built-in presets and specs instead of
	// overlaying the configured ones on top of them
	ReplaceDefaults bool `yaml:"replace_defaults" json:"replace_defaults"`
}

// Preset is a named criteria list
type Preset struct {
	Name     string      `yaml:"name" json:"name"`
	Criteria []Criterion `yaml:"criteria" json:"criteria"`
}

// Criterion is a range bound; a missing bound is open
type Criterion struct {
	Metric string   `yaml:"metric" json:"metric"`
	Min    *float64 `yaml:"min,omitempty" json:"min,omitempty"`
	Max    *float64 `yaml:"max,omitempty" json:"max,omitempty"`
}

// Ranking defaults for requests that leave them unset
type Ranking struct {
	DefaultLimit int    `yaml:"default_limit" json:"default_limit"`
	Basis        string `yaml:"basis" json:"basis"` // query | reference
}

// Enrich toggles optional enrichment checks
type Enrich struct {
	CheckROE     bool    `yaml:"check_roe" json:"check_roe"`
	ROETolerance float64 `yaml:"roe_tolerance" json:"roe_tolerance"`
}

// RangeCriterion converts to the screening form
func (c Criterion) RangeCriterion() contracts.RangeCriterion {
	rc := contracts.RangeCriterion{Metric: c.Metric}
	if c.Min != nil {
		rc.Min = contracts.Some(*c.Min)
	}
	if c.Max != nil {
		rc.Max = contracts.Some(*c.Max)
	}
	return rc
}

// PresetMap returns the effective presets keyed by name
func (cfg *Config) PresetMap() map[string]screening.Preset {
	out := make(map[string]screening.Preset)
	if !cfg.Meta.ReplaceDefaults {
		for name, p := range screening.DefaultPresets() {
			out[name] = p
		}
	}
	for _, p := range cfg.Presets {
		criteria := make([]contracts.RangeCriterion, len(p.Criteria))
		for i, c := range p.Criteria {
			criteria[i] = c.RangeCriterion()
		}
		out[p.Name] = screening.Preset{Name: p.Name, Criteria: criteria}
	}
	return out
}

// SpecMap returns the effective weight specs keyed by name
func (cfg *Config) SpecMap() map[string]contracts.ScoreWeightSpec {
	out := make(map[string]contracts.ScoreWeightSpec)
	if !cfg.Meta.ReplaceDefaults {
		for name, s := range scoring.DefaultSpecs() {
			out[name] = s
		}
	}
	for _, s := range cfg.Specs {
		out[s.Name] = s
	}
	return out
}

// Basis returns the configured scaling basis, query when unset
func (cfg *Config) Basis() scoring.Basis {
	if cfg.Ranking.Basis == "" {
		return scoring.BasisQuery
	}
	return scoring.Basis(cfg.Ranking.Basis)
}

// EnrichOptions returns the enrichment options
func (cfg *Config) EnrichOptions() fundamentals.EnrichOptions {
	return fundamentals.EnrichOptions{
		CheckROE:     cfg.Enrich.CheckROE,
		ROETolerance: cfg.Enrich.ROETolerance,
	}
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Meta:    Meta{ConfigID: "builtin", Version: "1"},
		Ranking: Ranking{DefaultLimit: 50, Basis: string(scoring.BasisQuery)},
		Enrich:  Enrich{ROETolerance: 0.01},
	}
}
