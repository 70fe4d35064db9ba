package snapshot

import (
	"sort"
	"strings"

	"github.com/wonny/vnequity/internal/contracts"
)

// Periods returns the distinct periods present, most recent first
func Periods(ds *contracts.Dataset) []contracts.Period {
	seen := make(map[contracts.Period]bool)
	var out []contracts.Period
	for _, r := range ds.Rows() {
		if !seen[r.Period] {
			seen[r.Period] = true
			out = append(out, r.Period)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[j].Before(out[i]) })
	return out
}

// LatestPeriod returns the most recent period, false for an empty dataset
func LatestPeriod(ds *contracts.Dataset) (contracts.Period, bool) {
	ps := Periods(ds)
	if len(ps) == 0 {
		return contracts.Period{}, false
	}
	return ps[0], true
}

// AtPeriod keeps rows of a single period
func AtPeriod(ds *contracts.Dataset, p contracts.Period) *contracts.Dataset {
	return ds.Filter(func(r contracts.MetricRow) bool { return r.Period == p })
}

// InRange keeps rows with from <= period <= to. A zero bound is open.
func InRange(ds *contracts.Dataset, from, to contracts.Period) *contracts.Dataset {
	return ds.Filter(func(r contracts.MetricRow) bool {
		if !from.IsZero() && r.Period.Before(from) {
			return false
		}
		if !to.IsZero() && to.Before(r.Period) {
			return false
		}
		return true
	})
}

// Latest keeps, for each entity, its most recent row. Output follows the
// input order of the kept rows.
func Latest(ds *contracts.Dataset) *contracts.Dataset {
	best := make(map[string]int)
	for i, r := range ds.Rows() {
		j, ok := best[r.Entity]
		if !ok || ds.Row(j).Period.Before(r.Period) {
			best[r.Entity] = i
		}
	}

	idx := make([]int, 0, len(best))
	for _, i := range best {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return ds.Select(idx)
}

// History returns the rows of one entity in chronological order
func History(ds *contracts.Dataset, entity string) *contracts.Dataset {
	var idx []int
	for i, r := range ds.Rows() {
		if strings.EqualFold(r.Entity, entity) {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool { return ds.Row(idx[a]).Period.Before(ds.Row(idx[b]).Period) })
	return ds.Select(idx)
}

// Industries returns the distinct industry names, sorted
func Industries(ds *contracts.Dataset) []string {
	return distinct(ds, func(r contracts.MetricRow) string { return r.Attr(contracts.AttrIndustry) })
}

// Groups returns the distinct CAL_GROUP values, sorted
func Groups(ds *contracts.Dataset) []string {
	return distinct(ds, func(r contracts.MetricRow) string { return r.Attr(contracts.AttrGroup) })
}

func distinct(ds *contracts.Dataset, field func(contracts.MetricRow) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range ds.Rows() {
		v := field(r)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Search returns entities whose symbol or name contains keyword,
// case-insensitively, sorted
func Search(ds *contracts.Dataset, keyword string) []string {
	keyword = strings.ToUpper(strings.TrimSpace(keyword))
	if keyword == "" {
		return nil
	}
	return distinct(ds, func(r contracts.MetricRow) string {
		if strings.Contains(strings.ToUpper(r.Entity), keyword) ||
			strings.Contains(strings.ToUpper(r.Attr(contracts.AttrName)), keyword) {
			return r.Entity
		}
		return ""
	})
}

// Info summarizes one entity from its latest row
type Info struct {
	Symbol   string           `json:"symbol"`
	Name     string           `json:"name,omitempty"`
	Industry string           `json:"industry,omitempty"`
	Group    string           `json:"cal_group,omitempty"`
	Latest   contracts.Period `json:"latest_period"`
	Periods  int              `json:"periods"`
}

// TickerInfo describes entity, false when it is absent
func TickerInfo(ds *contracts.Dataset, entity string) (Info, bool) {
	h := History(ds, entity)
	if h.Len() == 0 {
		return Info{}, false
	}
	last := h.Row(h.Len() - 1)
	return Info{
		Symbol:   last.Entity,
		Name:     last.Attr(contracts.AttrName),
		Industry: last.Attr(contracts.AttrIndustry),
		Group:    last.Attr(contracts.AttrGroup),
		Latest:   last.Period,
		Periods:  h.Len(),
	}, true
}
