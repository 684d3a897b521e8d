// internal/api/handlers/risk_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wastewatch-ai/wastewatch-go/internal/risk"
)

type RiskHandler struct {
	defaultBufferPct float64
}

func NewRiskHandler(defaultBufferPct float64) *RiskHandler {
	return &RiskHandler{defaultBufferPct: defaultBufferPct}
}

type stockoutRequest struct {
	PredictedDemand     *float64 `json:"predicted_demand"`
	CurrentStock        *float64 `json:"current_stock"`
	SafetyBufferPercent *float64 `json:"safety_buffer_percent"`
}

// CheckStockout evaluates a single stock position. All validation happens
// here; the detector itself trusts its inputs.
func (h *RiskHandler) CheckStockout(c *gin.Context) {
	var req stockoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), "invalid request body")
		return
	}

	if req.PredictedDemand == nil || req.CurrentStock == nil {
		respondError(c, http.StatusBadRequest, "predicted_demand and current_stock are required", "invalid stockout check")
		return
	}
	if *req.PredictedDemand < 0 || *req.CurrentStock < 0 {
		respondError(c, http.StatusBadRequest, "predicted_demand and current_stock must not be negative", "invalid stockout check")
		return
	}

	bufferPct := h.defaultBufferPct
	if req.SafetyBufferPercent != nil {
		bufferPct = *req.SafetyBufferPercent
	}
	if bufferPct < 0 {
		respondError(c, http.StatusBadRequest, "safety_buffer_percent must not be negative", "invalid stockout check")
		return
	}

	assessment := risk.DetectStockoutRisk(*req.PredictedDemand, *req.CurrentStock, bufferPct)

	respondOK(c, http.StatusOK, assessment, "stockout risk evaluated")
}
