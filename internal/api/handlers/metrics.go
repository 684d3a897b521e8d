// internal/api/handlers/metrics.go
package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	assessmentRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wastewatch_assessment_runs_total",
		Help: "Completed assessment runs.",
	})

	assessmentRunFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wastewatch_assessment_run_failures_total",
		Help: "Assessment runs that failed entirely.",
	})

	alertsByLevel = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wastewatch_alerts_total",
		Help: "Stock-out alerts raised, by alert level.",
	}, []string{"level"})

	forecastFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wastewatch_forecast_failures_total",
		Help: "Per-item forecast failures across runs.",
	})

	surplusFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wastewatch_surplus_fallbacks_total",
		Help: "Surplus analyses answered with the local fallback.",
	})
)
