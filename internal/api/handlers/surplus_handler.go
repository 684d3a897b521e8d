// internal/api/handlers/surplus_handler.go
package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
	"github.com/wastewatch-ai/wastewatch-go/internal/intelligence"
)

const maxBatchSize = 50

type SurplusHandler struct {
	advisor intelligence.SurplusAdvisor
	timeout time.Duration
}

func NewSurplusHandler(advisor intelligence.SurplusAdvisor, timeout time.Duration) *SurplusHandler {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &SurplusHandler{advisor: advisor, timeout: timeout}
}

// Analyze returns redistribution advice for one surplus item. A failing
// model call degrades to the deterministic fallback; the endpoint only
// errors on invalid input.
func (h *SurplusHandler) Analyze(c *gin.Context) {
	var req domain.SurplusItem
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), "invalid request body")
		return
	}

	if err := validateSurplusItem(req); err != "" {
		respondError(c, http.StatusBadRequest, err, "invalid surplus request")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	advice, err := h.advisor.AnalyzeSurplus(ctx, strings.TrimSpace(req.ItemName), req.SurplusKg)
	if err != nil {
		log.Warn().Err(err).Str("item", req.ItemName).Msg("surplus analysis failed, using fallback")
		advice = intelligence.FallbackAdvice(strings.TrimSpace(req.ItemName), req.SurplusKg, err.Error())
	}
	if advice.Fallback {
		surplusFallbacks.Inc()
	}

	respondOK(c, http.StatusOK, advice, "surplus analyzed")
}

// AnalyzeBatch analyzes several surplus items; failing items get fallback
// advice instead of failing the batch.
func (h *SurplusHandler) AnalyzeBatch(c *gin.Context) {
	var req []domain.SurplusItem
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error(), "invalid request body")
		return
	}

	if len(req) == 0 {
		respondError(c, http.StatusBadRequest, "at least one surplus item is required", "invalid surplus batch")
		return
	}
	if len(req) > maxBatchSize {
		respondError(c, http.StatusBadRequest, "too many items in one batch", "invalid surplus batch")
		return
	}
	for _, item := range req {
		if msg := validateSurplusItem(item); msg != "" {
			respondError(c, http.StatusBadRequest, msg, "invalid surplus batch")
			return
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout*time.Duration(len(req)))
	defer cancel()

	results := intelligence.AnalyzeBatch(ctx, h.advisor, req)
	for _, r := range results {
		if r.Fallback {
			surplusFallbacks.Inc()
		}
	}

	respondOK(c, http.StatusOK, results, "surplus batch analyzed")
}

func validateSurplusItem(item domain.SurplusItem) string {
	if strings.TrimSpace(item.ItemName) == "" {
		return "item_name is required"
	}
	if item.SurplusKg <= 0 {
		return "surplus_kg must be positive"
	}
	return ""
}
