package ranking

import (
	"fmt"
	"sort"

	"github.com/wonny/vnequity/internal/catalog"
	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/pkg/logger"
)

// Ranker sorts, truncates and ranks datasets
// ⭐ SSOT: 정렬/상위 N 선택/순위 부여는 여기서만
type Ranker struct {
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(logger *logger.Logger) *Ranker {
	return &Ranker{logger: logger}
}

// TopN stable-sorts ds by sortKey, keeps the first n rows and adds a
// contiguous 1-based Rank column. Null sort values go last in either
// direction. n <= 0 keeps every row.
func (r *Ranker) TopN(ds *contracts.Dataset, sortKey string, n int, ascending bool) (*contracts.Dataset, error) {
	out, err := TopN(ds, sortKey, n, ascending)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{
		"sort_key":  sortKey,
		"ascending": ascending,
		"input":     ds.Len(),
		"kept":      out.Len(),
	}
	if out.Len() > 0 {
		fields["top_entity"] = out.Row(0).Entity
		fields["top_value"] = out.Row(0).Value(sortKey).String()
	}
	r.logger.WithFields(fields).Info("Ranking completed")

	return out, nil
}

// TopN is the logger-free form of Ranker.TopN
func TopN(ds *contracts.Dataset, sortKey string, n int, ascending bool) (*contracts.Dataset, error) {
	if !ds.HasColumn(sortKey) {
		return nil, fmt.Errorf("%w: sort key %s", contracts.ErrUnknownColumn, sortKey)
	}

	keys := ds.Column(sortKey)
	idx := make([]int, ds.Len())
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(a, b int) bool {
		va, okA := keys[idx[a]].Get()
		vb, okB := keys[idx[b]].Get()
		switch {
		case !okA:
			return false
		case !okB:
			return true
		case ascending:
			return va < vb
		}
		return va > vb
	})

	if n > 0 && n < len(idx) {
		idx = idx[:n]
	}

	selected := ds.Select(idx)
	ranks := make([]contracts.Value, selected.Len())
	for i := range ranks {
		ranks[i] = contracts.Some(float64(i + 1))
	}
	return selected.WithColumn(catalog.RankColumn, ranks)
}
