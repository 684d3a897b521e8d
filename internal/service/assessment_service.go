// internal/service/assessment_service.go
package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/wastewatch-ai/wastewatch-go/internal/cache"
	"github.com/wastewatch-ai/wastewatch-go/internal/dataset"
	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
	"github.com/wastewatch-ai/wastewatch-go/internal/forecast"
	"github.com/wastewatch-ai/wastewatch-go/internal/repository"
	"github.com/wastewatch-ai/wastewatch-go/internal/risk"
	"github.com/wastewatch-ai/wastewatch-go/pkg/logger"
)

// AssessmentService orchestrates a full waste/stock-out assessment: dataset
// load, per-item forecasting, risk assessment, summary statistics, and
// optional persistence and caching.
type AssessmentService struct {
	loader       *dataset.Loader
	forecaster   forecast.Forecaster
	assessor     *risk.Assessor
	repo         repository.AssessmentRepository
	cache        cache.AssessmentCache
	defaultItems []string

	// lastRun keeps the most recent result in-process so LatestRun works
	// even in CSV-only mode (no repository, cache disabled).
	mu      sync.RWMutex
	lastRun *domain.AssessmentRun
}

func NewAssessmentService(
	loader *dataset.Loader,
	forecaster forecast.Forecaster,
	assessor *risk.Assessor,
	repo repository.AssessmentRepository,
	assessmentCache cache.AssessmentCache,
	defaultItems []string,
) *AssessmentService {
	if assessmentCache == nil {
		assessmentCache = cache.NewNoopAssessmentCache()
	}

	return &AssessmentService{
		loader:       loader,
		forecaster:   forecaster,
		assessor:     assessor,
		repo:         repo,
		cache:        assessmentCache,
		defaultItems: defaultItems,
	}
}

// RunFullAssessment assesses the given items (defaults when empty, every
// dataset item when no default is configured). Each run loads a fresh
// dataset snapshot, so concurrent runs never share state. Per-item forecast
// failures are recorded and the run continues; only a run where every item
// fails returns ErrNoForecasts.
func (s *AssessmentService) RunFullAssessment(ctx context.Context, items []string, safetyBufferPercent float64) (*domain.AssessmentRun, error) {
	if safetyBufferPercent < 0 {
		return nil, fmt.Errorf("%w: safety buffer percent must not be negative, got %v", domain.ErrInvalidInput, safetyBufferPercent)
	}

	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: item names must not be blank", domain.ErrInvalidInput)
		}
		cleaned = append(cleaned, trimmed)
	}
	if len(cleaned) == 0 {
		cleaned = s.defaultItems
	}

	ds, err := s.loader.Load()
	if err != nil {
		return nil, err
	}

	if len(cleaned) == 0 {
		cleaned = ds.Items()
	}

	forecasts, forecastingErrors := s.forecastAll(ctx, cleaned, ds)

	if len(forecasts) == 0 {
		return nil, fmt.Errorf("%w: all %d item(s) failed", domain.ErrNoForecasts, len(cleaned))
	}

	plans, skipped := s.assessor.Assess(forecasts, ds.LatestStockByItem(), safetyBufferPercent)

	run := &domain.AssessmentRun{
		GeneratedAt:         time.Now().UTC(),
		SafetyBufferPercent: safetyBufferPercent,
		Plans:               plans,
		SkippedItems:        skipped,
		ForecastingErrors:   forecastingErrors,
		Summary:             buildSummary(plans, ds),
	}

	if s.repo != nil {
		id, err := s.repo.SaveRun(ctx, run)
		if err != nil {
			// The run itself is valid; persistence failure is logged and the
			// caller still gets the result.
			logger.Log.Error().Err(err).Msg("failed to persist assessment run")
		} else {
			run.ID = id
		}
	}

	if err := s.cache.SetLatestRun(ctx, run); err != nil {
		logger.Log.Warn().Err(err).Msg("failed to cache latest run")
	}

	s.mu.Lock()
	s.lastRun = run
	s.mu.Unlock()

	logger.Log.Info().
		Int("plans", len(run.Plans)).
		Int("skipped", len(run.SkippedItems)).
		Int("forecast_errors", len(run.ForecastingErrors)).
		Float64("avg_risk_score", run.Summary.AverageRiskScore).
		Msg("assessment run complete")

	return run, nil
}

// LatestRun returns the most recent run: cache first, then repository, then
// the in-process copy. ErrItemNotFound when no run exists anywhere.
func (s *AssessmentService) LatestRun(ctx context.Context) (*domain.AssessmentRun, error) {
	run, ok, err := s.cache.GetLatestRun(ctx)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("latest run cache lookup failed")
	}
	if ok {
		return run, nil
	}

	if s.repo != nil {
		return s.repo.LatestRun(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun != nil {
		return s.lastRun, nil
	}

	return nil, fmt.Errorf("%w: no assessment run available", domain.ErrItemNotFound)
}

// forecastWorkerCount bounds concurrent calls to the forecasting service.
const forecastWorkerCount = 4

type forecastJob struct {
	idx     int
	item    string
	history []domain.UsagePoint
}

// forecastAll fans per-item forecasts out over a small worker pool. Results
// keep the caller's item order; per-item failures land in the returned error
// map instead of aborting the run.
func (s *AssessmentService) forecastAll(ctx context.Context, items []string, ds *dataset.Dataset) ([]domain.ForecastResult, map[string]string) {
	forecastingErrors := make(map[string]string)

	jobs := make([]forecastJob, 0, len(items))
	for _, item := range items {
		history := ds.History(item)
		if len(history) == 0 {
			forecastingErrors[item] = "no usage history in dataset"
			continue
		}
		jobs = append(jobs, forecastJob{idx: len(jobs), item: item, history: history})
	}

	// Slots are indexed per job so workers never share a write target.
	results := make([]*domain.ForecastResult, len(jobs))
	failures := make([]error, len(jobs))

	workerCount := forecastWorkerCount
	if workerCount > len(jobs) {
		workerCount = len(jobs)
	}

	jobChan := make(chan forecastJob, len(jobs))
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobChan {
				fc, err := s.forecaster.Forecast(ctx, job.item, job.history)
				if err != nil {
					failures[job.idx] = err
					continue
				}
				results[job.idx] = fc
			}
		}()
	}

	for _, job := range jobs {
		jobChan <- job
	}
	close(jobChan)
	wg.Wait()

	forecasts := make([]domain.ForecastResult, 0, len(jobs))
	for i, job := range jobs {
		if err := failures[i]; err != nil {
			logger.Log.Warn().Err(err).Str("item", job.item).Msg("forecast failed")
			forecastingErrors[job.item] = err.Error()
			continue
		}
		forecasts = append(forecasts, *results[i])
	}

	return forecasts, forecastingErrors
}

func buildSummary(plans []domain.ActionPlan, ds *dataset.Dataset) domain.SummaryStatistics {
	summary := domain.SummaryStatistics{
		TotalItems:       len(plans),
		AlertLevelCounts: make(map[string]int),
		RiskLevelCounts:  make(map[string]int),
		WasteRiskCounts:  make(map[string]int),
	}

	var scoreTotal float64
	for _, plan := range plans {
		summary.AlertLevelCounts[string(plan.Stockout.AlertLevel)]++
		summary.RiskLevelCounts[string(plan.RiskLevel)]++
		summary.WasteRiskCounts[string(plan.WasteRisk)]++

		if plan.Status == domain.PlanStatusRestock {
			summary.ItemsNeedingRestock++
		}
		summary.TotalShortfall += plan.Stockout.UnitsNeeded
		scoreTotal += plan.RiskScore
	}

	if len(plans) > 0 {
		summary.AverageRiskScore = scoreTotal / float64(len(plans))
	}

	summary.DataStartDate, summary.DataEndDate = ds.DateRange()

	return summary
}
