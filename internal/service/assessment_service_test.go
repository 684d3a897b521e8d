package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wastewatch-ai/wastewatch-go/internal/dataset"
	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
	"github.com/wastewatch-ai/wastewatch-go/internal/risk"
)

// stubForecaster returns canned results per item and records call counts.
// Forecasts run concurrently, so the counter is guarded.
type stubForecaster struct {
	results map[string]*domain.ForecastResult
	errs    map[string]error

	mu    sync.Mutex
	calls int
}

func (s *stubForecaster) Forecast(ctx context.Context, item string, history []domain.UsagePoint) (*domain.ForecastResult, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if err, ok := s.errs[item]; ok {
		return nil, err
	}
	if fc, ok := s.results[item]; ok {
		return fc, nil
	}
	return nil, fmt.Errorf("%w: no stub for %s", domain.ErrForecastUnavailable, item)
}

func writeDataset(t *testing.T, rows string) *dataset.Loader {
	t.Helper()
	dir := t.TempDir()
	csv := "Date,Item_Name,Current_Stock,Daily_Usage\n" + rows
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.csv"), []byte(csv), 0644))
	return dataset.NewLoader([]string{dir}, "data.csv")
}

func stubResult(item string, predicted, lower, upper float64) *domain.ForecastResult {
	return &domain.ForecastResult{
		ItemName:        item,
		ForecastDate:    time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC),
		PredictedValue:  predicted,
		LowerBound:      lower,
		UpperBound:      upper,
		ConfidenceWidth: (upper - lower) / 2,
	}
}

func TestRunFullAssessment_HappyPath(t *testing.T) {
	loader := writeDataset(t,
		"2025-01-01,Paneer,50,12\n"+
			"2025-01-02,Paneer,40,15\n"+
			"2025-01-01,Chicken,200,30\n"+
			"2025-01-02,Chicken,180,25\n")

	forecaster := &stubForecaster{results: map[string]*domain.ForecastResult{
		"Paneer":  stubResult("Paneer", 100, 80, 120),
		"Chicken": stubResult("Chicken", 50, 40, 60),
	}}

	svc := NewAssessmentService(loader, forecaster, risk.NewAssessor(), nil, nil, nil)

	run, err := svc.RunFullAssessment(context.Background(), []string{"Paneer", "Chicken"}, 10)
	require.NoError(t, err)

	require.Len(t, run.Plans, 2)
	assert.Empty(t, run.ForecastingErrors)
	assert.Empty(t, run.SkippedItems)
	assert.Equal(t, 2, run.Summary.TotalItems)
	assert.Equal(t, 1, run.Summary.ItemsNeedingRestock) // Paneer short, Chicken overstocked
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), run.Summary.DataStartDate)
	assert.Equal(t, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), run.Summary.DataEndDate)
}

func TestRunFullAssessment_PartialForecastFailureIsRecorded(t *testing.T) {
	loader := writeDataset(t,
		"2025-01-01,Paneer,50,12\n"+
			"2025-01-01,Chicken,200,30\n")

	forecaster := &stubForecaster{
		results: map[string]*domain.ForecastResult{
			"Paneer": stubResult("Paneer", 100, 80, 120),
		},
		errs: map[string]error{
			"Chicken": fmt.Errorf("%w: service returned 500", domain.ErrForecastUnavailable),
		},
	}

	svc := NewAssessmentService(loader, forecaster, risk.NewAssessor(), nil, nil, nil)

	run, err := svc.RunFullAssessment(context.Background(), []string{"Paneer", "Chicken"}, 10)
	require.NoError(t, err)

	require.Len(t, run.Plans, 1)
	assert.Equal(t, "Paneer", run.Plans[0].ItemName)
	require.Contains(t, run.ForecastingErrors, "Chicken")
	assert.Contains(t, run.ForecastingErrors["Chicken"], "500")
}

func TestRunFullAssessment_AllForecastsFailing(t *testing.T) {
	loader := writeDataset(t, "2025-01-01,Paneer,50,12\n")

	forecaster := &stubForecaster{errs: map[string]error{
		"Paneer": fmt.Errorf("%w: down", domain.ErrForecastUnavailable),
	}}

	svc := NewAssessmentService(loader, forecaster, risk.NewAssessor(), nil, nil, nil)

	_, err := svc.RunFullAssessment(context.Background(), []string{"Paneer"}, 10)
	require.ErrorIs(t, err, domain.ErrNoForecasts)
}

func TestRunFullAssessment_ItemWithoutHistoryIsRecorded(t *testing.T) {
	loader := writeDataset(t, "2025-01-01,Paneer,50,12\n")

	forecaster := &stubForecaster{results: map[string]*domain.ForecastResult{
		"Paneer": stubResult("Paneer", 100, 80, 120),
	}}

	svc := NewAssessmentService(loader, forecaster, risk.NewAssessor(), nil, nil, nil)

	run, err := svc.RunFullAssessment(context.Background(), []string{"Paneer", "Ghost Pepper"}, 10)
	require.NoError(t, err)

	require.Len(t, run.Plans, 1)
	assert.Equal(t, "no usage history in dataset", run.ForecastingErrors["Ghost Pepper"])
	// The forecaster is never called for an item without history.
	assert.Equal(t, 1, forecaster.calls)
}

func TestRunFullAssessment_NegativeBufferRejected(t *testing.T) {
	loader := writeDataset(t, "2025-01-01,Paneer,50,12\n")
	svc := NewAssessmentService(loader, &stubForecaster{}, risk.NewAssessor(), nil, nil, nil)

	_, err := svc.RunFullAssessment(context.Background(), []string{"Paneer"}, -5)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunFullAssessment_BlankItemNameRejected(t *testing.T) {
	loader := writeDataset(t, "2025-01-01,Paneer,50,12\n")
	svc := NewAssessmentService(loader, &stubForecaster{}, risk.NewAssessor(), nil, nil, nil)

	_, err := svc.RunFullAssessment(context.Background(), []string{"Paneer", "   "}, 10)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunFullAssessment_DefaultsToAllDatasetItems(t *testing.T) {
	loader := writeDataset(t,
		"2025-01-01,Paneer,50,12\n"+
			"2025-01-01,Chicken,200,30\n")

	forecaster := &stubForecaster{results: map[string]*domain.ForecastResult{
		"Paneer":  stubResult("Paneer", 100, 80, 120),
		"Chicken": stubResult("Chicken", 50, 40, 60),
	}}

	svc := NewAssessmentService(loader, forecaster, risk.NewAssessor(), nil, nil, nil)

	run, err := svc.RunFullAssessment(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.Len(t, run.Plans, 2)
}

func TestRunFullAssessment_MissingDatasetIsFatal(t *testing.T) {
	loader := dataset.NewLoader([]string{t.TempDir()}, "data.csv")
	svc := NewAssessmentService(loader, &stubForecaster{}, risk.NewAssessor(), nil, nil, nil)

	_, err := svc.RunFullAssessment(context.Background(), []string{"Paneer"}, 10)
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestLatestRun_NothingStored(t *testing.T) {
	loader := writeDataset(t, "2025-01-01,Paneer,50,12\n")
	svc := NewAssessmentService(loader, &stubForecaster{}, risk.NewAssessor(), nil, nil, nil)

	_, err := svc.LatestRun(context.Background())
	require.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestLatestRun_RemembersLastResultWithoutRepository(t *testing.T) {
	loader := writeDataset(t, "2025-01-01,Paneer,50,12\n")

	forecaster := &stubForecaster{results: map[string]*domain.ForecastResult{
		"Paneer": stubResult("Paneer", 100, 80, 120),
	}}

	svc := NewAssessmentService(loader, forecaster, risk.NewAssessor(), nil, nil, nil)

	run, err := svc.RunFullAssessment(context.Background(), []string{"Paneer"}, 10)
	require.NoError(t, err)

	latest, err := svc.LatestRun(context.Background())
	require.NoError(t, err)
	assert.Equal(t, run.GeneratedAt, latest.GeneratedAt)
}

func TestRunFullAssessment_RunsAreIsolated(t *testing.T) {
	loader := writeDataset(t, "2025-01-01,Paneer,50,12\n")

	forecaster := &stubForecaster{results: map[string]*domain.ForecastResult{
		"Paneer": stubResult("Paneer", 100, 80, 120),
	}}

	svc := NewAssessmentService(loader, forecaster, risk.NewAssessor(), nil, nil, nil)

	first, err := svc.RunFullAssessment(context.Background(), []string{"Paneer"}, 10)
	require.NoError(t, err)
	second, err := svc.RunFullAssessment(context.Background(), []string{"Paneer"}, 10)
	require.NoError(t, err)

	assert.NotSame(t, first, second)
	assert.Equal(t, first.Plans[0].RiskScore, second.Plans[0].RiskScore)
}
