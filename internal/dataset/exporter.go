// internal/dataset/exporter.go
package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
	"github.com/wastewatch-ai/wastewatch-go/internal/storage"
	"github.com/wastewatch-ai/wastewatch-go/pkg/logger"
)

// Exporter renders an assessment run as a CSV report and optionally archives
// it to object storage.
type Exporter struct {
	reportDir string
	store     storage.ObjectStorage
	keyPrefix string
}

func NewExporter(reportDir string) *Exporter {
	return &Exporter{reportDir: reportDir}
}

// WithObjectStorage enables report archiving under the given key prefix.
func (e *Exporter) WithObjectStorage(store storage.ObjectStorage, keyPrefix string) *Exporter {
	e.store = store
	e.keyPrefix = keyPrefix
	return e
}

var reportHeader = []string{
	"item_name",
	"forecast_date",
	"predicted_value",
	"lower_bound",
	"upper_bound",
	"confidence_width",
	"current_stock",
	"status",
	"alert_level",
	"units_needed",
	"shortfall_critical",
	"shortfall_warning",
	"surplus",
	"waste_ratio",
	"waste_risk",
	"risk_score",
	"risk_level",
	"recommended_action",
}

// WriteCSV streams the run's action plans as CSV.
func (e *Exporter) WriteCSV(w io.Writer, run *domain.AssessmentRun) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(reportHeader); err != nil {
		return fmt.Errorf("failed to write report header: %w", err)
	}

	for _, plan := range run.Plans {
		rec := []string{
			plan.ItemName,
			plan.ForecastDate.Format("2006-01-02"),
			formatFloat(plan.PredictedValue),
			formatFloat(plan.LowerBound),
			formatFloat(plan.UpperBound),
			formatFloat(plan.ConfidenceWidth),
			formatFloat(plan.CurrentStock),
			plan.Status,
			string(plan.Stockout.AlertLevel),
			formatFloat(plan.Stockout.UnitsNeeded),
			formatFloat(plan.ShortfallCritical),
			formatFloat(plan.ShortfallWarning),
			formatFloat(plan.Surplus),
			formatFloat(plan.WasteRatio),
			string(plan.WasteRisk),
			formatFloat(plan.RiskScore),
			string(plan.RiskLevel),
			plan.RecommendedAction,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write report row for %s: %w", plan.ItemName, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// ExportFile writes the report under the report directory and returns its
// path.
func (e *Exporter) ExportFile(run *domain.AssessmentRun) (string, error) {
	if err := os.MkdirAll(e.reportDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create report dir %s: %w", e.reportDir, err)
	}

	path := filepath.Join(e.reportDir, e.reportName(run))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file %s: %w", path, err)
	}
	defer f.Close()

	if err := e.WriteCSV(f, run); err != nil {
		return "", err
	}

	logger.Log.Info().Str("path", path).Int("plans", len(run.Plans)).Msg("report exported")

	return path, nil
}

// Upload archives the report to object storage and returns the object key.
func (e *Exporter) Upload(ctx context.Context, run *domain.AssessmentRun) (string, error) {
	if e.store == nil {
		return "", fmt.Errorf("object storage not configured")
	}

	var buf bytes.Buffer
	if err := e.WriteCSV(&buf, run); err != nil {
		return "", err
	}

	key := e.reportName(run)
	if e.keyPrefix != "" {
		key = e.keyPrefix + "/" + key
	}

	if err := e.store.UploadObject(ctx, key, buf.Bytes()); err != nil {
		return "", err
	}

	logger.Log.Info().Str("key", key).Msg("report uploaded")

	return key, nil
}

func (e *Exporter) reportName(run *domain.AssessmentRun) string {
	return fmt.Sprintf("assessment_%s.csv", run.GeneratedAt.Format("20060102_150405"))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
