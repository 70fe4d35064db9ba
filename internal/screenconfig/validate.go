package screenconfig

import (
	"fmt"
	"math"

	"github.com/wonny/vnequity/internal/catalog"
	"github.com/wonny/vnequity/internal/scoring"
)

// ValidationError 검증 실패 (로드 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.ConfigID == "" {
		return ValidationError{"meta.config_id", "required"}
	}

	// === Presets ===
	seen := make(map[string]bool)
	for i, p := range cfg.Presets {
		field := fmt.Sprintf("presets[%d]", i)
		if p.Name == "" {
			return ValidationError{field + ".name", "required"}
		}
		if seen[p.Name] {
			return ValidationError{field + ".name", fmt.Sprintf("duplicate preset %q", p.Name)}
		}
		seen[p.Name] = true

		if len(p.Criteria) == 0 {
			return ValidationError{field + ".criteria", "must not be empty"}
		}
		for j, c := range p.Criteria {
			if err := c.RangeCriterion().Validate(); err != nil {
				return ValidationError{fmt.Sprintf("%s.criteria[%d]", field, j), err.Error()}
			}
		}
	}

	// === Specs ===
	seen = make(map[string]bool)
	for i, s := range cfg.Specs {
		field := fmt.Sprintf("specs[%d]", i)
		if s.Name == "" {
			return ValidationError{field + ".name", "required"}
		}
		if seen[s.Name] {
			return ValidationError{field + ".name", fmt.Sprintf("duplicate spec %q", s.Name)}
		}
		seen[s.Name] = true

		if err := s.Validate(); err != nil {
			return ValidationError{field, err.Error()}
		}
	}

	// === Ranking ===
	switch scoring.Basis(cfg.Ranking.Basis) {
	case "", scoring.BasisQuery, scoring.BasisReference:
	default:
		return ValidationError{"ranking.basis", "must be query or reference"}
	}
	if cfg.Ranking.DefaultLimit < 0 {
		return ValidationError{"ranking.default_limit", "must be >= 0"}
	}

	// === Enrich ===
	if cfg.Enrich.ROETolerance < 0 {
		return ValidationError{"enrich.roe_tolerance", "must be >= 0"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	for _, p := range cfg.Presets {
		for _, c := range p.Criteria {
			if _, ok := catalog.Lookup(c.Metric); !ok {
				warnings = append(warnings, Warning{
					Code:    "UNKNOWN_METRIC",
					Message: fmt.Sprintf("preset %q: %s is not in the metric catalog", p.Name, c.Metric),
				})
			}
		}
	}

	for _, s := range cfg.Specs {
		if total := s.TotalWeight(); math.Abs(total-100) > 1e-9 {
			warnings = append(warnings, Warning{
				Code:    "WEIGHT_SUM",
				Message: fmt.Sprintf("spec %q: weights sum to %.2f, not 100", s.Name, total),
			})
		}
		for _, m := range s.Metrics {
			if _, ok := catalog.Lookup(m.Metric); !ok {
				warnings = append(warnings, Warning{
					Code:    "UNKNOWN_METRIC",
					Message: fmt.Sprintf("spec %q: %s is not in the metric catalog", s.Name, m.Metric),
				})
			}
		}
	}

	if cfg.Meta.ReplaceDefaults && len(cfg.Presets) == 0 {
		warnings = append(warnings, Warning{
			Code:    "NO_PRESETS",
			Message: "replace_defaults is set but no presets are configured",
		})
	}

	return warnings
}
