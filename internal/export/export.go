package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/tealeg/xlsx/v2"

	"github.com/wonny/vnequity/internal/catalog"
	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/pkg/logger"
	"github.com/wonny/vnequity/pkg/objectstore"
)

// ErrUnknownFormat is returned for an export format other than csv or xlsx
var ErrUnknownFormat = errors.New("unsupported export format")

// Format of an export
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts "csv" or "xlsx"
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatXLSX:
		return Format(s), nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownFormat, s)
}

// Options controls the exported table
type Options struct {
	// Columns restricts and orders the metric columns; empty means all
	Columns []string
	// Formatted renders values with the catalog display formats
	// instead of raw numbers
	Formatted bool
	// RawHeaders uses metric codes instead of catalog labels
	RawHeaders bool
	Sheet      string
}

// attribute columns exported after symbol and period
var attrColumns = []struct {
	key, label string
}{
	{contracts.AttrName, "Name"},
	{contracts.AttrGroup, "Group"},
	{contracts.AttrIndustry, "Industry"},
}

type table struct {
	header []string
	rows   [][]cell
}

type cell struct {
	text  string
	num   float64
	isNum bool
}

func build(ds *contracts.Dataset, opts Options) (*table, error) {
	columns := opts.Columns
	if len(columns) == 0 {
		columns = ds.Columns()
	}
	for _, c := range columns {
		if !ds.HasColumn(c) {
			return nil, fmt.Errorf("%w: export column %s", contracts.ErrUnknownColumn, c)
		}
	}

	t := &table{header: []string{"Symbol", "Period"}}
	for _, a := range attrColumns {
		t.header = append(t.header, a.label)
	}
	for _, c := range columns {
		if opts.RawHeaders {
			t.header = append(t.header, c)
		} else {
			t.header = append(t.header, catalog.Label(c))
		}
	}

	for _, r := range ds.Rows() {
		row := []cell{{text: r.Entity}, {text: r.Period.String()}}
		for _, a := range attrColumns {
			row = append(row, cell{text: r.Attr(a.key)})
		}
		for _, c := range columns {
			v := r.Value(c)
			switch x, ok := v.Get(); {
			case opts.Formatted:
				row = append(row, cell{text: catalog.FormatValue(c, v)})
			case ok:
				row = append(row, cell{num: x, isNum: true})
			default:
				row = append(row, cell{})
			}
		}
		t.rows = append(t.rows, row)
	}
	return t, nil
}

func (c cell) String() string {
	if c.isNum {
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	}
	return c.text
}

// WriteCSV writes ds as CSV with a header row
func WriteCSV(w io.Writer, ds *contracts.Dataset, opts Options) error {
	t, err := build(ds, opts)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.header); err != nil {
		return err
	}
	record := make([]string, len(t.header))
	for _, row := range t.rows {
		for i, c := range row {
			record[i] = c.String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes ds as a single-sheet workbook. Raw numbers are stored
// as numeric cells.
func WriteXLSX(w io.Writer, ds *contracts.Dataset, opts Options) error {
	t, err := build(ds, opts)
	if err != nil {
		return err
	}

	name := opts.Sheet
	if name == "" {
		name = "Screening"
	}
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(name)
	if err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	header := sheet.AddRow()
	for _, h := range t.header {
		header.AddCell().SetString(h)
	}
	for _, row := range t.rows {
		xr := sheet.AddRow()
		for _, c := range row {
			xc := xr.AddCell()
			if c.isNum {
				xc.SetFloat(c.num)
			} else {
				xc.SetString(c.text)
			}
		}
	}

	return f.Write(w)
}

// Write dispatches on format
func Write(w io.Writer, format Format, ds *contracts.Dataset, opts Options) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, ds, opts)
	case FormatXLSX:
		return WriteXLSX(w, ds, opts)
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// ContentType returns the MIME type of an export format
func ContentType(format Format) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}

// Exporter writes results to an object store
type Exporter struct {
	store  objectstore.Store
	logger *logger.Logger
}

// NewExporter creates an exporter over store
func NewExporter(store objectstore.Store, logger *logger.Logger) *Exporter {
	return &Exporter{store: store, logger: logger}
}

// Upload encodes ds and stores it under path
func (e *Exporter) Upload(ctx context.Context, path string, format Format, ds *contracts.Dataset, opts Options) error {
	var buf bytes.Buffer
	if err := Write(&buf, format, ds, opts); err != nil {
		return err
	}
	if err := e.store.Write(ctx, path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to upload export: %w", err)
	}

	e.logger.WithFields(map[string]interface{}{
		"path":   path,
		"format": string(format),
		"rows":   ds.Len(),
		"bytes":  buf.Len(),
	}).Info("Export uploaded")
	return nil
}
