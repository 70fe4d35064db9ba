package contracts

import (
	"encoding/json"
	"fmt"
)

// Row attribute keys (string-typed columns)
const (
	AttrName     = "NAME"
	AttrGroup    = "CAL_GROUP"
	AttrIndustry = "LEVEL2_NAME_EN"
)

// MetricRow is one observation: an entity (ticker or industry symbol) in a period.
// Rows are read-only once placed in a Dataset.
type MetricRow struct {
	Entity string            `json:"entity"`
	Period Period            `json:"period"`
	Attrs  map[string]string `json:"attrs,omitempty"`
	Values map[string]Value  `json:"values"`
}

// Value returns the metric value, null when the code is absent
func (r MetricRow) Value(code string) Value {
	return r.Values[code]
}

// Attr returns a string attribute, empty when absent
func (r MetricRow) Attr(key string) string {
	return r.Attrs[key]
}

func (r MetricRow) withValue(code string, v Value) MetricRow {
	values := make(map[string]Value, len(r.Values)+1)
	for k, x := range r.Values {
		values[k] = x
	}
	values[code] = v
	r.Values = values
	return r
}

type rowKey struct {
	entity string
	period Period
}

// Dataset is an immutable table of MetricRows with an ordered metric schema.
// Every derivation returns a new Dataset; source rows are never modified.
type Dataset struct {
	columns []string
	colset  map[string]struct{}
	rows    []MetricRow
}

// NewDataset builds a dataset whose schema is the union of metric codes
// seen in rows, in first-seen order
func NewDataset(rows []MetricRow) (*Dataset, error) {
	return NewDatasetWithColumns(nil, rows)
}

// NewDatasetWithColumns builds a dataset with declared columns first, so a
// column whose every value is null still belongs to the schema.
// (entity, period) must be unique.
func NewDatasetWithColumns(columns []string, rows []MetricRow) (*Dataset, error) {
	ds := &Dataset{
		colset: make(map[string]struct{}),
		rows:   make([]MetricRow, len(rows)),
	}
	for _, c := range columns {
		ds.addColumn(c)
	}

	seen := make(map[rowKey]struct{}, len(rows))
	for i, r := range rows {
		key := rowKey{r.Entity, r.Period}
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: %s %s", ErrDuplicateRow, r.Entity, r.Period)
		}
		seen[key] = struct{}{}

		if r.Values == nil {
			r.Values = map[string]Value{}
		}
		for _, code := range sortedKeys(r.Values) {
			ds.addColumn(code)
		}
		ds.rows[i] = r
	}

	return ds, nil
}

// EmptyDataset returns a dataset without rows or columns
func EmptyDataset() *Dataset {
	return &Dataset{colset: map[string]struct{}{}}
}

func (d *Dataset) addColumn(code string) {
	if _, ok := d.colset[code]; ok {
		return
	}
	d.colset[code] = struct{}{}
	d.columns = append(d.columns, code)
}

// Len returns the row count
func (d *Dataset) Len() int {
	return len(d.rows)
}

// Row returns the i-th row
func (d *Dataset) Row(i int) MetricRow {
	return d.rows[i]
}

// Rows returns the rows in order. The slice is a copy; row maps are shared
// and must be treated as read-only.
func (d *Dataset) Rows() []MetricRow {
	out := make([]MetricRow, len(d.rows))
	copy(out, d.rows)
	return out
}

// Columns returns the metric schema in order
func (d *Dataset) Columns() []string {
	out := make([]string, len(d.columns))
	copy(out, d.columns)
	return out
}

// HasColumn reports whether code is part of the schema
func (d *Dataset) HasColumn(code string) bool {
	_, ok := d.colset[code]
	return ok
}

// Column returns the values of one metric across all rows
func (d *Dataset) Column(code string) []Value {
	out := make([]Value, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.Value(code)
	}
	return out
}

// Entities returns the entity of every row in order
func (d *Dataset) Entities() []string {
	out := make([]string, len(d.rows))
	for i, r := range d.rows {
		out[i] = r.Entity
	}
	return out
}

// Select returns a view holding the rows at idx, in the given order, with
// the same schema
func (d *Dataset) Select(idx []int) *Dataset {
	out := &Dataset{
		columns: d.columns,
		colset:  d.colset,
		rows:    make([]MetricRow, len(idx)),
	}
	for i, j := range idx {
		out.rows[i] = d.rows[j]
	}
	return out
}

// Filter returns the rows for which keep returns true, order preserved
func (d *Dataset) Filter(keep func(MetricRow) bool) *Dataset {
	idx := make([]int, 0, len(d.rows))
	for i, r := range d.rows {
		if keep(r) {
			idx = append(idx, i)
		}
	}
	return d.Select(idx)
}

// WithColumn returns a new dataset where code holds values (one per row).
// An existing column of the same name is overwritten.
func (d *Dataset) WithColumn(code string, values []Value) (*Dataset, error) {
	if len(values) != len(d.rows) {
		return nil, fmt.Errorf("column %s: got %d values for %d rows", code, len(values), len(d.rows))
	}

	out := &Dataset{
		colset: make(map[string]struct{}, len(d.columns)+1),
		rows:   make([]MetricRow, len(d.rows)),
	}
	for _, c := range d.columns {
		out.addColumn(c)
	}
	out.addColumn(code)

	for i, r := range d.rows {
		out.rows[i] = r.withValue(code, values[i])
	}
	return out, nil
}

type datasetJSON struct {
	Columns []string    `json:"columns"`
	Rows    []MetricRow `json:"rows"`
}

// MarshalJSON encodes the schema and rows
func (d *Dataset) MarshalJSON() ([]byte, error) {
	rows := d.rows
	if rows == nil {
		rows = []MetricRow{}
	}
	return json.Marshal(datasetJSON{Columns: d.columns, Rows: rows})
}

// UnmarshalJSON decodes a dataset produced by MarshalJSON
func (d *Dataset) UnmarshalJSON(data []byte) error {
	var raw datasetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ds, err := NewDatasetWithColumns(raw.Columns, raw.Rows)
	if err != nil {
		return err
	}
	*d = *ds
	return nil
}
