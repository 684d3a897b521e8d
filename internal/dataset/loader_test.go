package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
)

const sampleCSV = `Date,Item_Name,Category,Current_Stock,Daily_Usage
2025-01-01,Paneer,Dairy,50,12
2025-01-02, Paneer ,Dairy,40,15
2025-01-01,Chicken,Meat,80,30
2025-01-02,Chicken,Meat,,25
not-a-date,Chicken,Meat,10,5
2025-01-03,Chicken,Meat,-4,25
2025-01-03,Chicken,Meat,60,oops
`

func TestParse_CleansAndIndexesRecords(t *testing.T) {
	ds, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	// Two Paneer rows, two valid Chicken rows; the unparseable date, the
	// negative stock and the non-numeric usage rows are dropped.
	assert.Equal(t, 4, ds.Len())
	assert.Equal(t, []string{"Chicken", "Paneer"}, ds.Items())
}

func TestParse_TrimsAndCollapsesItemNames(t *testing.T) {
	ds, err := Parse(strings.NewReader("Date,Item_Name,Current_Stock,Daily_Usage\n2025-01-01,  Basmati   Rice ,10,2\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"Basmati Rice"}, ds.Items())
}

func TestParse_BlankStockCountsAsZero(t *testing.T) {
	ds, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	latest := ds.LatestStockByItem()
	assert.InDelta(t, 0.0, latest["Chicken"], 1e-9)
}

func TestParse_LatestStockUsesMostRecentRecord(t *testing.T) {
	// Rows deliberately out of date order.
	csv := "Date,Item_Name,Current_Stock,Daily_Usage\n" +
		"2025-01-03,Paneer,33,1\n" +
		"2025-01-01,Paneer,50,1\n" +
		"2025-01-02,Paneer,44,1\n"

	ds, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)

	assert.InDelta(t, 33.0, ds.LatestStockByItem()["Paneer"], 1e-9)
}

func TestParse_HistoryIsDateSorted(t *testing.T) {
	csv := "Date,Item_Name,Current_Stock,Daily_Usage\n" +
		"2025-01-03,Paneer,33,3\n" +
		"2025-01-01,Paneer,50,1\n" +
		"2025-01-02,Paneer,44,2\n"

	ds, err := Parse(strings.NewReader(csv))
	require.NoError(t, err)

	history := ds.History("Paneer")
	require.Len(t, history, 3)
	assert.InDelta(t, 1.0, history[0].Value, 1e-9)
	assert.InDelta(t, 2.0, history[1].Value, 1e-9)
	assert.InDelta(t, 3.0, history[2].Value, 1e-9)
}

func TestParse_HistoryForUnknownItemIsNil(t *testing.T) {
	ds, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Nil(t, ds.History("Ghost Pepper"))
}

func TestParse_DateRange(t *testing.T) {
	ds, err := Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	start, end := ds.DateRange()
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), end)
}

func TestParse_MissingRequiredColumn(t *testing.T) {
	_, err := Parse(strings.NewReader("Date,Item_Name,Daily_Usage\n2025-01-01,Paneer,5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Current_Stock")
}

func TestLoader_SearchesDirsInOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()

	csv := "Date,Item_Name,Current_Stock,Daily_Usage\n2025-01-01,Paneer,10,2\n"
	require.NoError(t, os.WriteFile(filepath.Join(second, "data.csv"), []byte(csv), 0644))

	loader := NewLoader([]string{first, second}, "data.csv")
	path, err := loader.Resolve()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(second, "data.csv"), path)

	ds, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, 1, ds.Len())
}

func TestLoader_MissingEverywhereNamesAllSearchedPaths(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	loader := NewLoader([]string{dirA, dirB}, "data.csv")
	_, err := loader.Load()

	require.ErrorIs(t, err, domain.ErrDataUnavailable)
	assert.Contains(t, err.Error(), filepath.Join(dirA, "data.csv"))
	assert.Contains(t, err.Error(), filepath.Join(dirB, "data.csv"))
}

func TestLoader_LoadReturnsFreshDatasetPerCall(t *testing.T) {
	dir := t.TempDir()
	csv := "Date,Item_Name,Current_Stock,Daily_Usage\n2025-01-01,Paneer,10,2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.csv"), []byte(csv), 0644))

	loader := NewLoader([]string{dir}, "data.csv")

	first, err := loader.Load()
	require.NoError(t, err)
	second, err := loader.Load()
	require.NoError(t, err)

	assert.NotSame(t, first, second)
}
