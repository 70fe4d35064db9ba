package scoring

import (
	"fmt"
	"strings"

	"github.com/wonny/vnequity/internal/catalog"
	"github.com/wonny/vnequity/internal/contracts"
)

// Built-in weight spec names, one per CAL_GROUP family
const (
	SpecDefault  = "default"
	SpecBank     = "bank"
	SpecSecurity = "security"
)

// DefaultSpecs returns the built-in weight specs
func DefaultSpecs() map[string]contracts.ScoreWeightSpec {
	return map[string]contracts.ScoreWeightSpec{
		SpecDefault: {Name: SpecDefault, Metrics: []contracts.MetricWeight{
			{Metric: "ROAE", Weight: 25, Direction: contracts.HigherIsBetter},
			{Metric: "ROAA", Weight: 25, Direction: contracts.HigherIsBetter},
			{Metric: "PE_EOQ", Weight: 25, Direction: contracts.LowerIsBetter},
			{Metric: "Z_SCORE", Weight: 25, Direction: contracts.HigherIsBetter},
		}},
		SpecBank: {Name: SpecBank, Metrics: []contracts.MetricWeight{
			{Metric: "NIM_12M", Weight: 25, Direction: contracts.HigherIsBetter},
			{Metric: "NPL_Q", Weight: 25, Direction: contracts.LowerIsBetter},
			{Metric: "CIR_12M", Weight: 25, Direction: contracts.LowerIsBetter},
			{Metric: "ROAE", Weight: 25, Direction: contracts.HigherIsBetter},
		}},
		SpecSecurity: {Name: SpecSecurity, Metrics: []contracts.MetricWeight{
			{Metric: "ROAE", Weight: 30, Direction: contracts.HigherIsBetter},
			{Metric: "OPERATING_MARGIN_12M", Weight: 30, Direction: contracts.HigherIsBetter},
			{Metric: "PE_EOQ", Weight: 20, Direction: contracts.LowerIsBetter},
			{Metric: "CURRENT_RATIO_Q", Weight: 20, Direction: contracts.HigherIsBetter},
		}},
	}
}

// SpecForClass picks the built-in spec for a CAL_GROUP class
func SpecForClass(specs map[string]contracts.ScoreWeightSpec, class string) (contracts.ScoreWeightSpec, error) {
	name := SpecDefault
	switch strings.ToLower(class) {
	case catalog.ClassBank:
		name = SpecBank
	case catalog.ClassSecurity:
		name = SpecSecurity
	}
	return LookupSpec(specs, name)
}

// LookupSpec finds a weight spec by name
func LookupSpec(specs map[string]contracts.ScoreWeightSpec, name string) (contracts.ScoreWeightSpec, error) {
	spec, ok := specs[name]
	if !ok {
		return contracts.ScoreWeightSpec{}, fmt.Errorf("%w: unknown spec %q", contracts.ErrInvalidWeightSpec, name)
	}
	return spec, nil
}
