package contracts

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrInvalidWeightSpec rejects a scoring request outright
	ErrInvalidWeightSpec = errors.New("invalid weight spec")
	// ErrInvalidCriterion rejects a screening request (min > max, empty metric)
	ErrInvalidCriterion = errors.New("invalid range criterion")
	// ErrUnknownColumn is returned when a required column is not in the schema
	ErrUnknownColumn = errors.New("unknown column")
	// ErrDuplicateRow violates (entity, period) uniqueness
	ErrDuplicateRow = errors.New("duplicate entity/period row")
)

// Warning codes
const (
	WarnSchemaMismatch        = "SCHEMA_MISMATCH"
	WarnUndefinedArithmetic   = "UNDEFINED_ARITHMETIC"
	WarnNegativeLowerIsBetter = "NEGATIVE_LOWER_IS_BETTER"
	WarnUndefinedScale        = "UNDEFINED_SCALE"
	WarnROEDiscrepancy        = "ROE_DISCREPANCY"
)

// Warning is a recovered, non-fatal diagnostic surfaced to the caller
type Warning struct {
	Code    string `json:"code"`
	Metric  string `json:"metric,omitempty"`
	Entity  string `json:"entity,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	if w.Metric == "" {
		return fmt.Sprintf("[%s] %s", w.Code, w.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", w.Code, w.Metric, w.Message)
}

// SchemaMismatch builds the warning for a metric absent from the schema
func SchemaMismatch(metric, stage string) Warning {
	return Warning{
		Code:    WarnSchemaMismatch,
		Metric:  metric,
		Message: fmt.Sprintf("metric not in dataset schema, skipped by %s", stage),
	}
}

func sortedKeys(m map[string]Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
