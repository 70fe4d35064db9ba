package screening

import (
	"fmt"
	"strings"

	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/pkg/logger"
)

// Screener applies conjunctive range criteria to a dataset
// ⭐ SSOT: 범위 필터 로직은 여기서만
type Screener struct {
	logger *logger.Logger
}

// Result is the outcome of one screening call
type Result struct {
	Dataset  *contracts.Dataset  `json:"dataset"`
	Warnings []contracts.Warning `json:"warnings,omitempty"`
	Rejected map[string]int      `json:"rejected"` // criterion metric -> rows it removed first
	Input    int                 `json:"input"`
	Passed   int                 `json:"passed"`
}

// NewScreener creates a new screener
func NewScreener(logger *logger.Logger) *Screener {
	return &Screener{logger: logger}
}

// Screen keeps the rows satisfying every criterion, in input order.
// A criterion on a metric outside the schema is skipped with a warning;
// a null value fails its criterion.
func (s *Screener) Screen(ds *contracts.Dataset, criteria []contracts.RangeCriterion) (*Result, error) {
	for _, c := range criteria {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}

	result := &Result{
		Rejected: make(map[string]int),
		Input:    ds.Len(),
	}

	active := make([]contracts.RangeCriterion, 0, len(criteria))
	for _, c := range criteria {
		if !ds.HasColumn(c.Metric) {
			w := contracts.SchemaMismatch(c.Metric, "screening")
			result.Warnings = append(result.Warnings, w)
			s.logger.WithFields(map[string]interface{}{
				"metric":    c.Metric,
				"criterion": c.String(),
			}).Warn("Criterion skipped: metric not in dataset")
			continue
		}
		active = append(active, c)
	}

	if len(active) == 0 {
		result.Dataset = ds
		result.Passed = ds.Len()
		s.logCompletion(result)
		return result, nil
	}

	result.Dataset = ds.Filter(func(row contracts.MetricRow) bool {
		if failed := firstFailure(row, active); failed != "" {
			result.Rejected[failed]++
			return false
		}
		return true
	})
	result.Passed = result.Dataset.Len()

	s.logCompletion(result)
	return result, nil
}

// firstFailure returns the metric of the first criterion row fails, or ""
func firstFailure(row contracts.MetricRow, criteria []contracts.RangeCriterion) string {
	for _, c := range criteria {
		if !c.Admits(row.Value(c.Metric)) {
			return c.Metric
		}
	}
	return ""
}

func (s *Screener) logCompletion(r *Result) {
	s.logger.WithFields(map[string]interface{}{
		"total_input":  r.Input,
		"passed":       r.Passed,
		"filtered_out": r.Input - r.Passed,
		"filters":      r.Rejected,
		"warnings":     len(r.Warnings),
	}).Info("Screening completed")
}

// FilterGroups keeps rows whose CAL_GROUP is one of groups (case-insensitive).
// No groups means no restriction.
func FilterGroups(ds *contracts.Dataset, groups ...string) *contracts.Dataset {
	if len(groups) == 0 {
		return ds
	}
	allowed := make(map[string]bool, len(groups))
	for _, g := range groups {
		allowed[strings.ToLower(g)] = true
	}
	return ds.Filter(func(row contracts.MetricRow) bool {
		return allowed[strings.ToLower(row.Attr(contracts.AttrGroup))]
	})
}

// FilterIndustry keeps rows of a single industry
func FilterIndustry(ds *contracts.Dataset, industry string) *contracts.Dataset {
	if industry == "" {
		return ds
	}
	return ds.Filter(func(row contracts.MetricRow) bool {
		return strings.EqualFold(row.Attr(contracts.AttrIndustry), industry)
	})
}

// Describe renders criteria for logs and CLI output
func Describe(criteria []contracts.RangeCriterion) string {
	parts := make([]string, len(criteria))
	for i, c := range criteria {
		parts[i] = c.String()
	}
	return fmt.Sprintf("[%s]", strings.Join(parts, " AND "))
}
