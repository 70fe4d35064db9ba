package snapshot

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/wonny/vnequity/internal/contracts"
	"github.com/wonny/vnequity/pkg/httputil"
	"github.com/wonny/vnequity/pkg/logger"
	"github.com/wonny/vnequity/pkg/objectstore"
)

const tickerCSV = `SYMBOL,YEAR,QUARTER,CAL_GROUP,LEVEL2_NAME_EN,PE_EOQ,ROAE,NIM_12M
VCB,2024,Q1,bank,Banks,15.2,0.21,0.031
VCB,2024,Q2,bank,Banks,14.8,,0.032
FPT,2024,Q2,company,Technology,22.5,0.28,
HPG,2024,Q1,company,Basic Resources,N/A,0.11,
`

func TestDecodeCSV(t *testing.T) {
	ds, err := DecodeCSV(strings.NewReader(tickerCSV))
	require.NoError(t, err)

	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, []string{"PE_EOQ", "ROAE", "NIM_12M"}, ds.Columns())

	vcb := ds.Row(0)
	assert.Equal(t, "VCB", vcb.Entity)
	assert.Equal(t, contracts.Period{Year: 2024, Quarter: 1}, vcb.Period)
	assert.Equal(t, "bank", vcb.Attr(contracts.AttrGroup))
	assert.Equal(t, "Banks", vcb.Attr(contracts.AttrIndustry))
	pe, ok := vcb.Value("PE_EOQ").Get()
	require.True(t, ok)
	assert.InDelta(t, 15.2, pe, 1e-9)

	assert.True(t, ds.Row(1).Value("ROAE").IsNull(), "empty cell is null")
	assert.True(t, ds.Row(3).Value("PE_EOQ").IsNull(), "N/A is null")
}

func TestDecodeCSV_MarketTable(t *testing.T) {
	ds, err := DecodeCSV(strings.NewReader("PERIOD,MARKET_PE\n2024Q1,12.3\n2024Q2,13.1\n"))
	require.NoError(t, err)

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, MarketEntity, ds.Row(0).Entity)
	assert.Equal(t, contracts.Period{Year: 2024, Quarter: 2}, ds.Row(1).Period)
}

func TestDecodeCSV_Errors(t *testing.T) {
	_, err := DecodeCSV(strings.NewReader("SYMBOL,PE_EOQ\nVCB,10\n"))
	assert.Error(t, err, "no period columns")

	_, err = DecodeCSV(strings.NewReader("SYMBOL,YEAR,QUARTER\nVCB,2024,Q7\n"))
	assert.Error(t, err, "quarter out of range")

	_, err = DecodeCSV(strings.NewReader("SYMBOL,PERIOD\nVCB,2024Q1\nVCB,2024Q1\n"))
	assert.ErrorIs(t, err, contracts.ErrDuplicateRow)
}

func TestDecodeCSV_TextColumnBecomesAttribute(t *testing.T) {
	ds, err := DecodeCSV(strings.NewReader("SYMBOL,PERIOD,EXCHANGE_CODE,PE_EOQ\nVCB,2024Q1,HOSE,10\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"PE_EOQ"}, ds.Columns())
	assert.Equal(t, "HOSE", ds.Row(0).Attr("EXCHANGE_CODE"))
}

func TestParseRowPeriod(t *testing.T) {
	tests := []struct {
		period, year, quarter string
		want                  contracts.Period
	}{
		{"2023Q4", "", "", contracts.Period{Year: 2023, Quarter: 4}},
		{"", "2024", "Q1", contracts.Period{Year: 2024, Quarter: 1}},
		{"", "2024", "3", contracts.Period{Year: 2024, Quarter: 3}},
		{"", "2024.0", "q2", contracts.Period{Year: 2024, Quarter: 2}},
		{"", "", "2022Q2", contracts.Period{Year: 2022, Quarter: 2}},
	}
	for _, tt := range tests {
		got, err := parseRowPeriod(tt.period, tt.year, tt.quarter)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func writeTestXLSX(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	require.NoError(t, f.Save(path))
}

func TestDecodeXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "industry_analysis.xlsx")
	writeTestXLSX(t, path, [][]string{
		{"SYMBOL", "YEAR", "QUARTER", "LEVEL2_NAME_EN", "PE_EOQ"},
		{"BANKS", "2024", "Q1", "Banks", "9.5"},
		{"TECH", "2024", "Q1", "Technology", ""},
	})

	ds, err := DecodeXLSXFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "BANKS", ds.Row(0).Entity)
	assert.True(t, ds.Row(1).Value("PE_EOQ").IsNull())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	fromBytes, err := Decode(FormatXLSX, data)
	require.NoError(t, err)
	assert.Equal(t, ds.Len(), fromBytes.Len())
}

func TestDecode_UnknownFormat(t *testing.T) {
	_, err := Decode(Format("parquet"), nil)
	assert.Error(t, err)
}

func TestLocalSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ticker_analysis.csv"), []byte(tickerCSV), 0o644))
	writeTestXLSX(t, filepath.Join(dir, "market_analysis.xlsx"), [][]string{
		{"PERIOD", "MARKET_PE"},
		{"2024Q1", "12.1"},
	})

	src := NewLocalSource(dir)
	assert.Equal(t, "local", src.Name())

	ticker, err := src.Load(context.Background(), contracts.KindTicker)
	require.NoError(t, err)
	assert.Equal(t, 4, ticker.Len())

	market, err := src.Load(context.Background(), contracts.KindMarket)
	require.NoError(t, err)
	assert.Equal(t, 1, market.Len())

	_, err = src.Load(context.Background(), contracts.KindIndustry)
	assert.Error(t, err)
}

func TestObjectSource(t *testing.T) {
	store := objectstore.NewMemory()
	require.NoError(t, store.Write(context.Background(), FileName(contracts.KindTicker, FormatCSV), []byte(tickerCSV)))

	src := NewObjectSource(store)
	ds, err := src.Load(context.Background(), contracts.KindTicker)
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())

	_, err = src.Load(context.Background(), contracts.KindMarket)
	assert.Error(t, err)
}

func TestHTTPSource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/data/ticker_analysis.csv" {
			_, _ = w.Write([]byte(tickerCSV))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := httputil.New(logger.Nop()).DisableRetry()
	src := NewHTTPSource(client, server.URL+"/data/")

	ds, err := src.Load(context.Background(), contracts.KindTicker)
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())

	_, err = src.Load(context.Background(), contracts.KindIndustry)
	assert.Error(t, err)
}

func TestPostgresSource(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"symbol", "year", "quarter", "field", "num", "txt"}).
		AddRow("FPT", int32(2024), int32(1), "CAL_GROUP", math.NaN(), "company").
		AddRow("FPT", int32(2024), int32(1), "PE_EOQ", 22.5, "").
		AddRow("FPT", int32(2024), int32(1), "ROAE", math.NaN(), "").
		AddRow("VCB", int32(2024), int32(1), "PE_EOQ", 15.0, "")
	mock.ExpectQuery("SELECT symbol").WithArgs("ticker").WillReturnRows(rows)

	src := NewPostgresSource(mock)
	ds, err := src.Load(context.Background(), contracts.KindTicker)
	require.NoError(t, err)

	require.Equal(t, 2, ds.Len())
	assert.Equal(t, []string{"PE_EOQ", "ROAE"}, ds.Columns())
	fpt := ds.Row(0)
	assert.Equal(t, "company", fpt.Attr(contracts.AttrGroup))
	assert.True(t, fpt.Value("ROAE").IsNull())
	assert.True(t, ds.Row(1).Value("ROAE").IsNull())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSource_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT symbol").WithArgs("market").WillReturnError(errors.New("connection refused"))

	_, err = NewPostgresSource(mock).Load(context.Background(), contracts.KindMarket)
	assert.ErrorContains(t, err, "connection refused")
}

// countingSource serves a fixed dataset and counts loads
type countingSource struct {
	loads atomic.Int32
	fail  contracts.Kind
}

func (s *countingSource) Name() string { return "fake" }

func (s *countingSource) Load(_ context.Context, kind contracts.Kind) (*contracts.Dataset, error) {
	s.loads.Add(1)
	if kind == s.fail {
		return nil, errors.New("boom")
	}
	return DecodeCSV(strings.NewReader(tickerCSV))
}

func TestMemo_TTL(t *testing.T) {
	src := &countingSource{}
	memo := NewMemo(src, nil, time.Minute, logger.Nop())
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	memo.now = func() time.Time { return now }

	ctx := context.Background()
	first, err := memo.Load(ctx, contracts.KindTicker)
	require.NoError(t, err)
	second, err := memo.Load(ctx, contracts.KindTicker)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), src.loads.Load())

	now = now.Add(2 * time.Minute)
	_, err = memo.Load(ctx, contracts.KindTicker)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.loads.Load(), "expired entry reloads")
}

func TestMemo_Invalidate(t *testing.T) {
	src := &countingSource{}
	memo := NewMemo(src, nil, time.Hour, logger.Nop())
	ctx := context.Background()

	_, _ = memo.Load(ctx, contracts.KindTicker)
	_, _ = memo.Load(ctx, contracts.KindMarket)
	require.NoError(t, memo.Invalidate(ctx, contracts.KindTicker))

	_, _ = memo.Load(ctx, contracts.KindMarket)
	assert.Equal(t, int32(2), src.loads.Load())
	_, _ = memo.Load(ctx, contracts.KindTicker)
	assert.Equal(t, int32(3), src.loads.Load())

	require.NoError(t, memo.Invalidate(ctx))
	_, _ = memo.Load(ctx, contracts.KindMarket)
	assert.Equal(t, int32(4), src.loads.Load())
}

func TestMemo_ErrorNotCached(t *testing.T) {
	src := &countingSource{fail: contracts.KindIndustry}
	memo := NewMemo(src, nil, time.Hour, logger.Nop())

	_, err := memo.Load(context.Background(), contracts.KindIndustry)
	assert.Error(t, err)
	_, err = memo.Load(context.Background(), contracts.KindIndustry)
	assert.Error(t, err)
	assert.Equal(t, int32(2), src.loads.Load())
}

func TestStore_LoadAll(t *testing.T) {
	src := &countingSource{}
	store := NewStore(src, logger.Nop())
	ctx := context.Background()

	require.NoError(t, store.LoadAll(ctx))
	assert.Equal(t, int32(3), src.loads.Load())
	assert.False(t, store.LoadedAt().IsZero())

	ticker, err := store.Ticker(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, ticker.Len())
	assert.Equal(t, int32(3), src.loads.Load(), "served from memory")

	_, err = store.Get(ctx, contracts.Kind("sector"))
	assert.Error(t, err)
}

func TestStore_LoadAllKeepsPreviousOnFailure(t *testing.T) {
	src := &countingSource{}
	store := NewStore(src, logger.Nop())
	ctx := context.Background()
	require.NoError(t, store.LoadAll(ctx))
	before, _ := store.Market(ctx)

	src.fail = contracts.KindIndustry
	assert.Error(t, store.LoadAll(ctx))

	after, err := store.Market(ctx)
	require.NoError(t, err)
	assert.Same(t, before, after)
}

func TestStore_Reset(t *testing.T) {
	src := &countingSource{}
	store := NewStore(src, logger.Nop())
	ctx := context.Background()

	_, err := store.Industry(ctx)
	require.NoError(t, err)
	store.Reset()
	_, err = store.Industry(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), src.loads.Load())
}

type loadObservation struct {
	source, kind string
	rows         int
	failed       bool
}

type recorderStub struct {
	seen []loadObservation
}

func (r *recorderStub) RecordSnapshotLoad(source, kind string, rows int, err error) {
	r.seen = append(r.seen, loadObservation{source, kind, rows, err != nil})
}

func TestMetered(t *testing.T) {
	rec := &recorderStub{}
	src := NewMetered(&countingSource{fail: contracts.KindMarket}, rec)
	assert.Equal(t, "fake", src.Name())

	ctx := context.Background()
	ds, err := src.Load(ctx, contracts.KindTicker)
	require.NoError(t, err)
	_, err = src.Load(ctx, contracts.KindMarket)
	require.Error(t, err)

	assert.Equal(t, []loadObservation{
		{"fake", "ticker", ds.Len(), false},
		{"fake", "market", 0, true},
	}, rec.seen)
}
