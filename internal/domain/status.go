// internal/domain/status.go
package domain

import "strings"

// AlertLevel is the stock-out detector's verdict for one item.
type AlertLevel string

const (
	AlertNone     AlertLevel = "NONE"
	AlertWarning  AlertLevel = "ALERT"
	AlertCritical AlertLevel = "CRITICAL"
)

var alertSeverity = map[AlertLevel]int{
	AlertNone:     0,
	AlertWarning:  1,
	AlertCritical: 2,
}

// Severity orders alert levels; higher means more urgent.
func (a AlertLevel) Severity() int {
	return alertSeverity[a]
}

// ParseAlertLevel returns the alert level for a given label (case-insensitive).
func ParseAlertLevel(label string) (AlertLevel, bool) {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case string(AlertNone):
		return AlertNone, true
	case string(AlertWarning):
		return AlertWarning, true
	case string(AlertCritical):
		return AlertCritical, true
	}

	return AlertNone, false
}

// WasteRisk classifies how far current stock exceeds forecast demand.
type WasteRisk string

const (
	WasteLow      WasteRisk = "Low"
	WasteModerate WasteRisk = "Moderate"
	WasteHigh     WasteRisk = "High"
)

// RiskLevel buckets the combined risk score for summary reporting.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskModerate RiskLevel = "moderate"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// RiskLevelForScore maps a combined risk score onto a reporting bucket.
func RiskLevelForScore(score float64) RiskLevel {
	switch {
	case score >= 70:
		return RiskCritical
	case score >= 40:
		return RiskHigh
	case score >= 20:
		return RiskModerate
	default:
		return RiskLow
	}
}
