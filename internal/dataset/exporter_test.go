package dataset

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
	"github.com/wastewatch-ai/wastewatch-go/internal/storage"
)

func sampleRun() *domain.AssessmentRun {
	return &domain.AssessmentRun{
		GeneratedAt:         time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC),
		SafetyBufferPercent: 10,
		Plans: []domain.ActionPlan{
			{
				ItemName:          "Paneer",
				ForecastDate:      time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
				PredictedValue:    100,
				LowerBound:        80,
				UpperBound:        120,
				ConfidenceWidth:   20,
				CurrentStock:      50,
				Status:            domain.PlanStatusRestock,
				RiskScore:         50,
				RiskLevel:         domain.RiskHigh,
				WasteRisk:         domain.WasteLow,
				RecommendedAction: "URGENT: restock Paneer now",
				Stockout: domain.StockoutAssessment{
					AlertLevel:  domain.AlertCritical,
					UnitsNeeded: 60,
				},
			},
		},
	}
}

func TestWriteCSV_HeaderAndRows(t *testing.T) {
	var buf bytes.Buffer
	exporter := NewExporter(t.TempDir())

	require.NoError(t, exporter.WriteCSV(&buf, sampleRun()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, reportHeader, records[0])

	row := records[1]
	assert.Equal(t, "Paneer", row[0])
	assert.Equal(t, "2025-01-03", row[1])
	assert.Equal(t, "100.00", row[2])
	assert.Equal(t, "RESTOCK", row[7])
	assert.Equal(t, "CRITICAL", row[8])
	assert.Equal(t, "60.00", row[9])
}

func TestExportFile_WritesUnderReportDir(t *testing.T) {
	dir := t.TempDir()
	exporter := NewExporter(dir)

	path, err := exporter.ExportFile(sampleRun())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))
	assert.Contains(t, path, "assessment_20250102_093000.csv")
}

type memStorage struct {
	data map[string][]byte
}

func (m *memStorage) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (m *memStorage) DownloadObject(ctx context.Context, key, destPath string) error {
	return nil
}

func (m *memStorage) UploadObject(ctx context.Context, key string, data []byte) error {
	if m.data == nil {
		m.data = make(map[string][]byte)
	}
	m.data[key] = data
	return nil
}

func TestUpload_UsesKeyPrefix(t *testing.T) {
	store := &memStorage{}
	exporter := NewExporter(t.TempDir()).WithObjectStorage(store, "reports")

	key, err := exporter.Upload(context.Background(), sampleRun())
	require.NoError(t, err)
	assert.Equal(t, "reports/assessment_20250102_093000.csv", key)
	assert.Contains(t, string(store.data[key]), "Paneer")
}

func TestUpload_WithoutStorageFails(t *testing.T) {
	exporter := NewExporter(t.TempDir())

	_, err := exporter.Upload(context.Background(), sampleRun())
	require.Error(t, err)
}
