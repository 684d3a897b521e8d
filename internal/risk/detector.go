// internal/risk/detector.go
package risk

import (
	"fmt"

	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
)

// DetectStockoutRisk evaluates current stock against a predicted demand plus
// a percentage safety buffer. Pure function: no I/O, no validation, same
// inputs always produce the same assessment. Callers validate at their own
// boundary.
func DetectStockoutRisk(predictedDemand, currentStock, safetyBufferPercent float64) domain.StockoutAssessment {
	bufferAmount := predictedDemand * safetyBufferPercent / 100
	demandWithBuffer := predictedDemand + bufferAmount

	unitsNeeded := demandWithBuffer - currentStock
	if unitsNeeded < 0 {
		unitsNeeded = 0
	}

	assessment := domain.StockoutAssessment{
		PredictedDemand:  predictedDemand,
		CurrentStock:     currentStock,
		BufferAmount:     bufferAmount,
		DemandWithBuffer: demandWithBuffer,
		UnitsNeeded:      unitsNeeded,
	}

	switch {
	case currentStock >= demandWithBuffer:
		assessment.HasRisk = false
		assessment.AlertLevel = domain.AlertNone
		assessment.Message = fmt.Sprintf("Stock (%.1f) covers predicted demand (%.1f) plus safety buffer", currentStock, predictedDemand)
	case currentStock >= predictedDemand:
		assessment.HasRisk = true
		assessment.AlertLevel = domain.AlertWarning
		assessment.Message = fmt.Sprintf("Stock (%.1f) covers predicted demand (%.1f) but not the safety buffer; %.1f more units needed", currentStock, predictedDemand, unitsNeeded)
	default:
		assessment.HasRisk = true
		assessment.AlertLevel = domain.AlertCritical
		assessment.Message = fmt.Sprintf("Stock (%.1f) is below predicted demand (%.1f); %.1f units needed to be safe", currentStock, predictedDemand, unitsNeeded)
	}

	return assessment
}
