package snapshot

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx/v2"

	"github.com/wonny/vnequity/internal/contracts"
)

// Key columns of the snapshot tables
const (
	ColSymbol  = "SYMBOL"
	ColYear    = "YEAR"
	ColQuarter = "QUARTER"
	ColPeriod  = "PERIOD"

	// MarketEntity names the single entity of the market table, which has
	// no SYMBOL column
	MarketEntity = "MARKET"
)

// attrColumns are always decoded as strings
var attrColumns = map[string]bool{
	contracts.AttrName:     true,
	contracts.AttrGroup:    true,
	contracts.AttrIndustry: true,
	"LEVEL1_NAME_EN":       true,
	"EXCHANGE":             true,
}

// Format of an encoded snapshot file
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FileName returns the conventional file name of a snapshot table
func FileName(kind contracts.Kind, format Format) string {
	return fmt.Sprintf("%s_analysis.%s", kind, format)
}

// DecodeCSV reads a snapshot table from CSV with a header row
func DecodeCSV(r io.Reader) (*contracts.Dataset, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(records) == 0 {
		return contracts.EmptyDataset(), nil
	}
	return buildDataset(records[0], records[1:])
}

// DecodeXLSX reads a snapshot table from the first sheet of an xlsx workbook
func DecodeXLSX(data []byte) (*contracts.Dataset, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	return decodeWorkbook(f)
}

// DecodeXLSXFile reads a snapshot table from an xlsx file on disk
func DecodeXLSXFile(path string) (*contracts.Dataset, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx %s: %w", path, err)
	}
	return decodeWorkbook(f)
}

func decodeWorkbook(f *xlsx.File) (*contracts.Dataset, error) {
	if len(f.Sheets) == 0 {
		return nil, errors.New("xlsx workbook has no sheets")
	}

	var records [][]string
	for _, row := range f.Sheets[0].Rows {
		cells := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			cells[j] = cell.String()
		}
		records = append(records, cells)
	}
	if len(records) == 0 {
		return contracts.EmptyDataset(), nil
	}
	return buildDataset(records[0], records[1:])
}

// Decode dispatches on format
func Decode(format Format, data []byte) (*contracts.Dataset, error) {
	switch format {
	case FormatCSV:
		return DecodeCSV(bytes.NewReader(data))
	case FormatXLSX:
		return DecodeXLSX(data)
	}
	return nil, fmt.Errorf("unsupported snapshot format %q", format)
}

// buildDataset turns a header plus string records into a dataset.
// A column is an attribute when it is a known attribute or any of its
// non-null cells is not numeric; every other column is a metric.
func buildDataset(header []string, records [][]string) (*contracts.Dataset, error) {
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[h] = i
	}
	_, hasPeriod := pos[ColPeriod]
	_, hasYear := pos[ColYear]
	_, hasQuarter := pos[ColQuarter]
	if !hasPeriod && !(hasYear && hasQuarter) {
		return nil, fmt.Errorf("snapshot needs %s or %s and %s columns", ColPeriod, ColYear, ColQuarter)
	}

	isAttr := make([]bool, len(header))
	for i, h := range header {
		if attrColumns[h] {
			isAttr[i] = true
			continue
		}
		for _, rec := range records {
			if i >= len(rec) {
				continue
			}
			if _, err := contracts.ParseValue(strings.TrimSpace(rec[i])); err != nil {
				isAttr[i] = true
				break
			}
		}
	}

	var metrics []string
	for i, h := range header {
		if !isAttr[i] && !isKey(h) {
			metrics = append(metrics, h)
		}
	}

	rows := make([]contracts.MetricRow, 0, len(records))
	for n, rec := range records {
		if blank(rec) {
			continue
		}
		cell := func(col string) string {
			i, ok := pos[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		period, err := parseRowPeriod(cell(ColPeriod), cell(ColYear), cell(ColQuarter))
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", n+2, err)
		}

		entity := cell(ColSymbol)
		if entity == "" {
			entity = MarketEntity
		}

		row := contracts.MetricRow{
			Entity: entity,
			Period: period,
			Attrs:  map[string]string{},
			Values: make(map[string]contracts.Value, len(metrics)),
		}
		for i, h := range header {
			if isKey(h) || i >= len(rec) {
				continue
			}
			raw := strings.TrimSpace(rec[i])
			if isAttr[i] {
				if raw != "" {
					row.Attrs[h] = raw
				}
				continue
			}
			v, _ := contracts.ParseValue(raw)
			row.Values[h] = v
		}
		rows = append(rows, row)
	}

	return contracts.NewDatasetWithColumns(metrics, rows)
}

func isKey(col string) bool {
	return col == ColSymbol || col == ColYear || col == ColQuarter || col == ColPeriod
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseRowPeriod accepts PERIOD "2024Q1", or YEAR "2024" with QUARTER as
// "Q1", "1" or the full "2024Q1" key
func parseRowPeriod(period, year, quarter string) (contracts.Period, error) {
	if period != "" {
		return contracts.ParsePeriod(period)
	}
	if strings.Contains(strings.ToUpper(quarter), "Q") && len(quarter) > 2 {
		return contracts.ParsePeriod(quarter)
	}

	y, err := strconv.Atoi(strings.TrimSuffix(year, ".0"))
	if err != nil {
		return contracts.Period{}, fmt.Errorf("invalid year %q", year)
	}
	q, err := strconv.Atoi(strings.TrimPrefix(strings.ToUpper(quarter), "Q"))
	if err != nil {
		return contracts.Period{}, fmt.Errorf("invalid quarter %q", quarter)
	}

	p := contracts.Period{Year: y, Quarter: q}
	if !p.Valid() {
		return contracts.Period{}, fmt.Errorf("invalid period %d/%d", y, q)
	}
	return p, nil
}
