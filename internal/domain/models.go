// internal/domain/models.go
package domain

import "time"

// UsageRecord is one cleaned row of the restaurant dataset: how much of an
// item was on hand and how much was consumed on a given day.
type UsageRecord struct {
	Date         time.Time `json:"date"`
	ItemName     string    `json:"item_name"`
	CurrentStock float64   `json:"current_stock"`
	DailyUsage   float64   `json:"daily_usage"`
}

// UsagePoint is a single point of an item's daily usage series, the shape the
// forecasting service consumes.
type UsagePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// ForecastResult is the next-day demand forecast for one item as returned by
// the external forecasting service. Bounds are taken as-is; lower <= upper is
// not guaranteed.
type ForecastResult struct {
	ItemName        string    `json:"item_name"`
	ForecastDate    time.Time `json:"forecast_date"`
	PredictedValue  float64   `json:"predicted_value"`
	LowerBound      float64   `json:"lower_bound"`
	UpperBound      float64   `json:"upper_bound"`
	ConfidenceWidth float64   `json:"confidence_width"`
}

// StockoutAssessment is the output of the stock-out detector for one item.
type StockoutAssessment struct {
	HasRisk          bool       `json:"has_risk"`
	AlertLevel       AlertLevel `json:"alert_level"`
	PredictedDemand  float64    `json:"predicted_demand"`
	CurrentStock     float64    `json:"current_stock"`
	BufferAmount     float64    `json:"buffer_amount"`
	DemandWithBuffer float64    `json:"demand_with_buffer"`
	UnitsNeeded      float64    `json:"units_needed"`
	Message          string     `json:"message"`
}

// ActionPlan is the per-item outcome of a full assessment: the forecast, the
// stock position against it, waste exposure and a single recommended action.
type ActionPlan struct {
	ItemName          string             `json:"item_name"`
	ForecastDate      time.Time          `json:"forecast_date"`
	PredictedValue    float64            `json:"predicted_value"`
	LowerBound        float64            `json:"lower_bound"`
	UpperBound        float64            `json:"upper_bound"`
	ConfidenceWidth   float64            `json:"confidence_width"`
	CurrentStock      float64            `json:"current_stock"`
	Status            string             `json:"status"`
	ShortfallCritical float64            `json:"shortfall_critical"`
	ShortfallWarning  float64            `json:"shortfall_warning"`
	Surplus           float64            `json:"surplus"`
	WasteRatio        float64            `json:"waste_ratio"`
	WasteRisk         WasteRisk          `json:"waste_risk"`
	RiskScore         float64            `json:"risk_score"`
	RiskLevel         RiskLevel          `json:"risk_level"`
	RecommendedAction string             `json:"recommended_action"`
	Stockout          StockoutAssessment `json:"stockout"`
}

// Plan status values.
const (
	PlanStatusRestock = "RESTOCK"
	PlanStatusOK      = "OK"
)

// SummaryStatistics aggregates one assessment run.
type SummaryStatistics struct {
	TotalItems          int            `json:"total_items"`
	ItemsNeedingRestock int            `json:"items_needing_restock"`
	AlertLevelCounts    map[string]int `json:"alert_level_counts"`
	RiskLevelCounts     map[string]int `json:"risk_level_counts"`
	WasteRiskCounts     map[string]int `json:"waste_risk_counts"`
	AverageRiskScore    float64        `json:"average_risk_score"`
	TotalShortfall      float64        `json:"total_shortfall"`
	DataStartDate       time.Time      `json:"data_start_date"`
	DataEndDate         time.Time      `json:"data_end_date"`
}

// AssessmentRun is one end-to-end assessment: every item's plan, the items
// that could not be assessed and why, and the run-level summary.
type AssessmentRun struct {
	ID                  int64             `json:"id,omitempty"`
	GeneratedAt         time.Time         `json:"generated_at"`
	SafetyBufferPercent float64           `json:"safety_buffer_percent"`
	Plans               []ActionPlan      `json:"plans"`
	SkippedItems        []string          `json:"skipped_items"`
	ForecastingErrors   map[string]string `json:"forecasting_errors"`
	Summary             SummaryStatistics `json:"summary"`
}

// SurplusItem is one entry of a batch surplus-analysis request.
type SurplusItem struct {
	ItemName  string  `json:"item_name"`
	SurplusKg float64 `json:"surplus_kg"`
}

// ImpactMetrics quantifies the effect of redistributing a surplus.
type ImpactMetrics struct {
	CO2SavedKg    float64 `json:"co2_saved_kg"`
	MealsProvided float64 `json:"meals_provided"`
	CostSavedINR  float64 `json:"cost_saved_inr"`
}

// SurplusAdvice is the advisor's answer for one surplus item. Fallback is set
// when the advice was synthesized locally instead of coming from the model.
type SurplusAdvice struct {
	ItemName             string        `json:"item_name"`
	SurplusKg            float64       `json:"surplus_kg"`
	Reasoning            string        `json:"reasoning"`
	NGORecommendation    string        `json:"ngo_recommendation"`
	HandlingInstructions string        `json:"handling_instructions"`
	Impact               ImpactMetrics `json:"impact_metrics"`
	ConfidenceScore      float64       `json:"confidence_score"`
	Fallback             bool          `json:"fallback"`
	ErrorDetail          string        `json:"error_detail,omitempty"`
}
