package snapshot

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/vnequity/internal/contracts"
)

const historyCSV = `SYMBOL,PERIOD,NAME,CAL_GROUP,LEVEL2_NAME_EN,PE_EOQ
VCB,2024Q2,Vietcombank,bank,Banks,14.8
FPT,2023Q4,FPT Corp,company,Technology,20.1
VCB,2023Q4,Vietcombank,bank,Banks,16.0
FPT,2024Q2,FPT Corp,company,Technology,22.5
HPG,2024Q1,Hoa Phat,company,Basic Resources,9.0
VCB,2024Q1,Vietcombank,bank,Banks,15.2
`

func historyDataset(t *testing.T) *contracts.Dataset {
	t.Helper()
	ds, err := DecodeCSV(strings.NewReader(historyCSV))
	require.NoError(t, err)
	return ds
}

func TestPeriods(t *testing.T) {
	ds := historyDataset(t)
	assert.Equal(t, []contracts.Period{
		{Year: 2024, Quarter: 2},
		{Year: 2024, Quarter: 1},
		{Year: 2023, Quarter: 4},
	}, Periods(ds))

	latest, ok := LatestPeriod(ds)
	require.True(t, ok)
	assert.Equal(t, contracts.Period{Year: 2024, Quarter: 2}, latest)

	_, ok = LatestPeriod(contracts.EmptyDataset())
	assert.False(t, ok)
}

func TestAtPeriodAndInRange(t *testing.T) {
	ds := historyDataset(t)

	q1 := AtPeriod(ds, contracts.Period{Year: 2024, Quarter: 1})
	assert.Equal(t, []string{"HPG", "VCB"}, q1.Entities())

	r := InRange(ds, contracts.Period{Year: 2024, Quarter: 1}, contracts.Period{})
	assert.Equal(t, 4, r.Len())

	r = InRange(ds, contracts.Period{}, contracts.Period{Year: 2023, Quarter: 4})
	assert.Equal(t, []string{"FPT", "VCB"}, r.Entities())
}

func TestLatest(t *testing.T) {
	ds := historyDataset(t)
	latest := Latest(ds)

	assert.Equal(t, []string{"VCB", "FPT", "HPG"}, latest.Entities())
	assert.Equal(t, contracts.Period{Year: 2024, Quarter: 1}, latest.Row(2).Period)
	assert.Equal(t, ds.Columns(), latest.Columns())
}

func TestHistory(t *testing.T) {
	ds := historyDataset(t)
	h := History(ds, "vcb")

	require.Equal(t, 3, h.Len())
	assert.Equal(t, contracts.Period{Year: 2023, Quarter: 4}, h.Row(0).Period)
	assert.Equal(t, contracts.Period{Year: 2024, Quarter: 2}, h.Row(2).Period)
	assert.Equal(t, 0, History(ds, "MWG").Len())
}

func TestDistinctAttributes(t *testing.T) {
	ds := historyDataset(t)
	assert.Equal(t, []string{"Banks", "Basic Resources", "Technology"}, Industries(ds))
	assert.Equal(t, []string{"bank", "company"}, Groups(ds))
}

func TestSearch(t *testing.T) {
	ds := historyDataset(t)
	assert.Equal(t, []string{"VCB"}, Search(ds, "vietcom"))
	assert.Equal(t, []string{"FPT"}, Search(ds, "fp"))
	assert.Equal(t, []string{"FPT", "HPG"}, Search(ds, "p"))
	assert.Nil(t, Search(ds, "  "))
}

func TestTickerInfo(t *testing.T) {
	ds := historyDataset(t)
	info, ok := TickerInfo(ds, "FPT")
	require.True(t, ok)
	assert.Equal(t, Info{
		Symbol:   "FPT",
		Name:     "FPT Corp",
		Industry: "Technology",
		Group:    "company",
		Latest:   contracts.Period{Year: 2024, Quarter: 2},
		Periods:  2,
	}, info)

	_, ok = TickerInfo(ds, "XYZ")
	assert.False(t, ok)
}
