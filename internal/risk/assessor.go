// internal/risk/assessor.go
package risk

import (
	"fmt"
	"sort"

	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
	"github.com/wastewatch-ai/wastewatch-go/pkg/logger"
)

// Waste ratio thresholds (current stock / predicted demand).
const (
	WasteRatioHigh     = 2.0
	WasteRatioElevated = 1.5
	WasteRatioModerate = 1.3
)

// Risk score weights. Stock-out and waste components are summed and capped.
const (
	scoreStockBelowLower     = 50
	scoreStockBelowPredicted = 35
	scoreStockBelowUpper     = 20
	scoreWasteHigh           = 40
	scoreWasteElevated       = 25
	scoreWasteModerate       = 15
	maxRiskScore             = 100
)

// Assessor turns per-item forecasts and latest stock levels into action
// plans. Stateless; the safety buffer is passed per call.
type Assessor struct{}

func NewAssessor() *Assessor {
	return &Assessor{}
}

// Assess builds one action plan per forecast. Items without a stock record
// are skipped and returned separately so callers can surface them. Forecast
// bounds are used as delivered; inverted bounds only affect score tiers, they
// never cause an error.
func (a *Assessor) Assess(forecasts []domain.ForecastResult, latestStock map[string]float64, safetyBufferPercent float64) ([]domain.ActionPlan, []string) {
	plans := make([]domain.ActionPlan, 0, len(forecasts))
	var skipped []string

	for _, fc := range forecasts {
		stock, ok := latestStock[fc.ItemName]
		if !ok {
			logger.Log.Warn().Str("item", fc.ItemName).Msg("no stock record for forecast item, skipping")
			skipped = append(skipped, fc.ItemName)
			continue
		}

		plans = append(plans, a.buildPlan(fc, stock, safetyBufferPercent))
	}

	sort.Slice(skipped, func(i, j int) bool { return skipped[i] < skipped[j] })

	return plans, skipped
}

func (a *Assessor) buildPlan(fc domain.ForecastResult, currentStock, safetyBufferPercent float64) domain.ActionPlan {
	// The detector contract requires non-negative demand; a model can emit a
	// negative point forecast for a near-zero series, so clamp here.
	predicted := fc.PredictedValue
	if predicted < 0 {
		predicted = 0
	}

	stockout := DetectStockoutRisk(predicted, currentStock, safetyBufferPercent)

	wasteRatio := 0.0
	if predicted > 0 {
		wasteRatio = currentStock / predicted
	}

	wasteRisk := domain.WasteLow
	switch {
	case wasteRatio > WasteRatioHigh:
		wasteRisk = domain.WasteHigh
	case wasteRatio > WasteRatioModerate:
		wasteRisk = domain.WasteModerate
	}

	score := stockoutScore(currentStock, fc) + wasteScore(wasteRatio)
	if score > maxRiskScore {
		score = maxRiskScore
	}

	plan := domain.ActionPlan{
		ItemName:          fc.ItemName,
		ForecastDate:      fc.ForecastDate,
		PredictedValue:    fc.PredictedValue,
		LowerBound:        fc.LowerBound,
		UpperBound:        fc.UpperBound,
		ConfidenceWidth:   fc.ConfidenceWidth,
		CurrentStock:      currentStock,
		Status:            domain.PlanStatusOK,
		ShortfallCritical: positive(fc.LowerBound - currentStock),
		ShortfallWarning:  positive(fc.UpperBound - currentStock),
		Surplus:           positive(currentStock - fc.UpperBound),
		WasteRatio:        wasteRatio,
		WasteRisk:         wasteRisk,
		RiskScore:         score,
		RiskLevel:         domain.RiskLevelForScore(score),
		Stockout:          stockout,
	}

	if stockout.HasRisk {
		plan.Status = domain.PlanStatusRestock
	}

	plan.RecommendedAction = recommendAction(plan)

	return plan
}

func stockoutScore(currentStock float64, fc domain.ForecastResult) float64 {
	switch {
	case currentStock < fc.LowerBound:
		return scoreStockBelowLower
	case currentStock < fc.PredictedValue:
		return scoreStockBelowPredicted
	case currentStock < fc.UpperBound:
		return scoreStockBelowUpper
	default:
		return 0
	}
}

func wasteScore(wasteRatio float64) float64 {
	switch {
	case wasteRatio > WasteRatioHigh:
		return scoreWasteHigh
	case wasteRatio > WasteRatioElevated:
		return scoreWasteElevated
	case wasteRatio > WasteRatioModerate:
		return scoreWasteModerate
	default:
		return 0
	}
}

// recommendAction picks exactly one action, most urgent condition first.
func recommendAction(plan domain.ActionPlan) string {
	switch {
	case plan.Stockout.AlertLevel == domain.AlertCritical:
		return fmt.Sprintf("URGENT: restock %s now, order at least %.1f units to cover demand plus buffer", plan.ItemName, plan.Stockout.UnitsNeeded)
	case plan.Stockout.AlertLevel == domain.AlertWarning:
		return fmt.Sprintf("Restock %s soon: stock covers demand but is %.1f units short of the safety buffer", plan.ItemName, plan.Stockout.UnitsNeeded)
	case plan.WasteRisk == domain.WasteHigh:
		return fmt.Sprintf("High waste risk for %s: stock is %.1fx predicted demand, reduce the next order and redistribute %.1f surplus units", plan.ItemName, plan.WasteRatio, plan.Surplus)
	case plan.WasteRisk == domain.WasteModerate:
		return fmt.Sprintf("Moderate overstock for %s: monitor usage and delay the next order", plan.ItemName)
	default:
		return fmt.Sprintf("Stock level for %s looks healthy, keep current ordering", plan.ItemName)
	}
}

func positive(v float64) float64 {
	if v < 0 {
		return 0
	}

	return v
}
