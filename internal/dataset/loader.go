// internal/dataset/loader.go
package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
	"github.com/wastewatch-ai/wastewatch-go/pkg/logger"
)

// Loader finds and parses the cleaned restaurant usage dataset. Each Load
// call re-reads the file so concurrent runs never share mutable state.
type Loader struct {
	dataDirs []string
	filename string
}

func NewLoader(dataDirs []string, filename string) *Loader {
	return &Loader{dataDirs: dataDirs, filename: filename}
}

// Resolve walks the candidate directories in order and returns the first
// existing dataset path. When no candidate exists the error names every
// searched path and wraps ErrDataUnavailable.
func (l *Loader) Resolve() (string, error) {
	searched := make([]string, 0, len(l.dataDirs))
	for _, dir := range l.dataDirs {
		path := filepath.Join(dir, l.filename)
		searched = append(searched, path)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: %s not found, searched: %s", domain.ErrDataUnavailable, l.filename, strings.Join(searched, ", "))
}

// Load resolves and parses the dataset into a fresh Dataset.
func (l *Loader) Load() (*Dataset, error) {
	path, err := l.Resolve()
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open %s: %v", domain.ErrDataUnavailable, path, err)
	}
	defer file.Close()

	ds, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse %s: %v", domain.ErrDataUnavailable, path, err)
	}

	logger.Log.Info().
		Str("path", path).
		Int("records", ds.Len()).
		Int("items", len(ds.Items())).
		Msg("dataset loaded")

	return ds, nil
}

// Parse reads the usage CSV. Columns are matched by normalized header name;
// extra descriptive columns are ignored. Rows with an unparseable date or a
// negative numeric value are dropped with a warning so downstream logic only
// ever sees clean records.
func Parse(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	colIndex := func(names ...string) int {
		targets := make(map[string]struct{}, len(names))
		for _, name := range names {
			targets[normalizeColumnName(name)] = struct{}{}
		}
		for i, h := range header {
			if _, ok := targets[normalizeColumnName(h)]; ok {
				return i
			}
		}
		return -1
	}

	idxDate := colIndex("date")
	idxItem := colIndex("item_name", "item")
	idxStock := colIndex("current_stock", "stock")
	idxUsage := colIndex("daily_usage", "usage")

	if idxDate < 0 || idxItem < 0 || idxStock < 0 || idxUsage < 0 {
		return nil, fmt.Errorf("missing required columns (need Date, Item_Name, Current_Stock, Daily_Usage), got: %s", strings.Join(header, ", "))
	}

	ds := newDataset()
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}
		line++

		get := func(idx int) string {
			if idx < 0 || idx >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[idx])
		}

		date, err := time.Parse("2006-01-02", get(idxDate))
		if err != nil {
			logger.Log.Warn().Int("line", line).Str("date", get(idxDate)).Msg("dropping row with unparseable date")
			continue
		}

		item := cleanItemName(get(idxItem))
		if item == "" {
			logger.Log.Warn().Int("line", line).Msg("dropping row with empty item name")
			continue
		}

		stock, ok := parseAmount(get(idxStock))
		if !ok {
			logger.Log.Warn().Int("line", line).Str("item", item).Msg("dropping row with invalid current stock")
			continue
		}

		usage, ok := parseAmount(get(idxUsage))
		if !ok {
			logger.Log.Warn().Int("line", line).Str("item", item).Msg("dropping row with invalid daily usage")
			continue
		}

		ds.add(domain.UsageRecord{
			Date:         date,
			ItemName:     item,
			CurrentStock: stock,
			DailyUsage:   usage,
		})
	}

	ds.finalize()

	return ds, nil
}

// parseAmount parses a non-negative quantity. Blank cells count as zero
// (missing stock readings are recorded as empty in the source files);
// negative or non-numeric values are rejected.
func parseAmount(v string) (float64, bool) {
	if v == "" {
		return 0, true
	}
	v = strings.ReplaceAll(v, ",", "")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

// cleanItemName trims and collapses internal whitespace runs so "Paneer " and
// "Paneer" are the same item.
func cleanItemName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// Dataset is an immutable snapshot of the usage history, indexed by item.
type Dataset struct {
	records []domain.UsageRecord
	byItem  map[string][]domain.UsageRecord
	start   time.Time
	end     time.Time
}

func newDataset() *Dataset {
	return &Dataset{byItem: make(map[string][]domain.UsageRecord)}
}

func (d *Dataset) add(rec domain.UsageRecord) {
	d.records = append(d.records, rec)
	d.byItem[rec.ItemName] = append(d.byItem[rec.ItemName], rec)
}

func (d *Dataset) finalize() {
	for item := range d.byItem {
		recs := d.byItem[item]
		sort.Slice(recs, func(i, j int) bool { return recs[i].Date.Before(recs[j].Date) })
	}
	for _, rec := range d.records {
		if d.start.IsZero() || rec.Date.Before(d.start) {
			d.start = rec.Date
		}
		if d.end.IsZero() || rec.Date.After(d.end) {
			d.end = rec.Date
		}
	}
}

func (d *Dataset) Len() int {
	return len(d.records)
}

// Items returns all item names, sorted.
func (d *Dataset) Items() []string {
	items := make([]string, 0, len(d.byItem))
	for item := range d.byItem {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// History returns the item's daily usage series in date order, or nil when
// the item has no records.
func (d *Dataset) History(item string) []domain.UsagePoint {
	recs := d.byItem[item]
	if len(recs) == 0 {
		return nil
	}
	points := make([]domain.UsagePoint, 0, len(recs))
	for _, rec := range recs {
		points = append(points, domain.UsagePoint{Date: rec.Date, Value: rec.DailyUsage})
	}
	return points
}

// LatestStockByItem returns each item's stock level from its most recent
// record.
func (d *Dataset) LatestStockByItem() map[string]float64 {
	latest := make(map[string]float64, len(d.byItem))
	for item, recs := range d.byItem {
		latest[item] = recs[len(recs)-1].CurrentStock
	}
	return latest
}

// DateRange returns the earliest and latest record dates.
func (d *Dataset) DateRange() (time.Time, time.Time) {
	return d.start, d.end
}
