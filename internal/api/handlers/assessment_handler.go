// internal/api/handlers/assessment_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wastewatch-ai/wastewatch-go/internal/dataset"
	"github.com/wastewatch-ai/wastewatch-go/internal/domain"
	"github.com/wastewatch-ai/wastewatch-go/internal/service"
)

type AssessmentHandler struct {
	service          *service.AssessmentService
	exporter         *dataset.Exporter
	defaultBufferPct float64
}

func NewAssessmentHandler(svc *service.AssessmentService, exporter *dataset.Exporter, defaultBufferPct float64) *AssessmentHandler {
	return &AssessmentHandler{
		service:          svc,
		exporter:         exporter,
		defaultBufferPct: defaultBufferPct,
	}
}

type runAssessmentRequest struct {
	Items               []string `json:"items"`
	SafetyBufferPercent *float64 `json:"safety_buffer_percent"`
}

// RunAssessment executes a full assessment for the requested items.
func (h *AssessmentHandler) RunAssessment(c *gin.Context) {
	var req runAssessmentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, err.Error(), "invalid request body")
			return
		}
	}

	bufferPct := h.defaultBufferPct
	if req.SafetyBufferPercent != nil {
		bufferPct = *req.SafetyBufferPercent
	}

	run, err := h.service.RunFullAssessment(c.Request.Context(), req.Items, bufferPct)
	if err != nil {
		assessmentRunFailures.Inc()
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			respondError(c, http.StatusBadRequest, err.Error(), "invalid assessment parameters")
		case errors.Is(err, domain.ErrNoForecasts):
			respondError(c, http.StatusNotFound, err.Error(), "no forecasts could be generated for the requested items")
		default:
			respondError(c, http.StatusInternalServerError, err.Error(), "assessment run failed")
		}
		return
	}

	assessmentRunsTotal.Inc()
	forecastFailures.Add(float64(len(run.ForecastingErrors)))
	for _, plan := range run.Plans {
		alertsByLevel.WithLabelValues(string(plan.Stockout.AlertLevel)).Inc()
	}

	respondOK(c, http.StatusOK, run, fmt.Sprintf("assessed %d item(s)", len(run.Plans)))
}

// GetLatest returns the most recent run from cache or storage.
func (h *AssessmentHandler) GetLatest(c *gin.Context) {
	run, err := h.service.LatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			respondError(c, http.StatusNotFound, err.Error(), "no assessment run available yet")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error(), "failed to load latest run")
		return
	}

	respondOK(c, http.StatusOK, run, "latest assessment run")
}

// GetReport streams the latest run as a CSV download.
func (h *AssessmentHandler) GetReport(c *gin.Context) {
	run, err := h.service.LatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) {
			respondError(c, http.StatusNotFound, err.Error(), "no assessment run available yet")
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error(), "failed to load latest run")
		return
	}

	filename := fmt.Sprintf("assessment_%s.csv", run.GeneratedAt.Format("20060102_150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Content-Type", "text/csv")

	if err := h.exporter.WriteCSV(c.Writer, run); err != nil {
		respondError(c, http.StatusInternalServerError, err.Error(), "failed to render report")
	}
}
