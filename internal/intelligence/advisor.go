// internal/intelligence/advisor.go
package intelligence

import (
	"context"
	"fmt"

	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
	"github.com/wastewatch-ai/wastewatch-go/pkg/logger"
)

// SurplusAdvisor recommends how to redistribute surplus food to NGOs.
// Implementations return a fallback advice (never an error) for malformed
// model output; errors are reserved for transport-level failures.
type SurplusAdvisor interface {
	AnalyzeSurplus(ctx context.Context, item string, surplusKg float64) (*domain.SurplusAdvice, error)
}

// Impact factors applied when the model gives no numbers of its own.
// Per-kg estimates for redistributed food.
const (
	CO2SavedPerKg     = 2.5
	MealsPerKg        = 10
	CostSavedPerKgINR = 250
)

// FallbackAdvice synthesizes a deterministic advice when the model cannot be
// used. Impact numbers come from the per-kg factors; confidence is zero so
// consumers can tell it apart from model output.
func FallbackAdvice(item string, surplusKg float64, reason string) *domain.SurplusAdvice {
	return &domain.SurplusAdvice{
		ItemName:             item,
		SurplusKg:            surplusKg,
		Reasoning:            fmt.Sprintf("Automatic estimate for %.1f kg of %s (model unavailable: %s)", surplusKg, item, reason),
		NGORecommendation:    "Contact a local food bank or community kitchen for pickup",
		HandlingInstructions: "Keep refrigerated and redistribute within 24 hours",
		Impact: domain.ImpactMetrics{
			CO2SavedKg:    surplusKg * CO2SavedPerKg,
			MealsProvided: surplusKg * MealsPerKg,
			CostSavedINR:  surplusKg * CostSavedPerKgINR,
		},
		ConfidenceScore: 0,
		Fallback:        true,
		ErrorDetail:     reason,
	}
}

// AnalyzeBatch runs the advisor over each surplus item. A failing item gets
// the fallback advice instead of aborting the batch.
func AnalyzeBatch(ctx context.Context, advisor SurplusAdvisor, items []domain.SurplusItem) []domain.SurplusAdvice {
	results := make([]domain.SurplusAdvice, 0, len(items))
	for _, item := range items {
		advice, err := advisor.AnalyzeSurplus(ctx, item.ItemName, item.SurplusKg)
		if err != nil {
			logger.Log.Warn().Err(err).Str("item", item.ItemName).Msg("surplus analysis failed, using fallback")
			advice = FallbackAdvice(item.ItemName, item.SurplusKg, err.Error())
		}
		results = append(results, *advice)
	}
	return results
}
