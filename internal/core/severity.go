package core

import "github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"

// Shortfall cutoffs, as fractions of the threshold.
const (
	criticalShortfall = 0.50
	highShortfall     = 0.30
	mediumShortfall   = 0.15
)

// IsViolation reports whether value breaches threshold. Equality is not a
// breach.
func IsViolation(value, threshold float64) bool {
	return value < threshold
}

// CalculateSeverity classifies a breaching value by its fractional shortfall
// (threshold - value) / threshold: at least half below is CRITICAL, at least
// 30% below is HIGH, at least 15% below is MEDIUM, anything less is LOW.
// A zero or negative threshold has no meaningful shortfall fraction, so any
// value below it classifies as CRITICAL.
func CalculateSeverity(value, threshold float64) models.Severity {
	if threshold <= 0 {
		return models.SeverityCritical
	}
	p := (threshold - value) / threshold
	switch {
	case p >= criticalShortfall:
		return models.SeverityCritical
	case p >= highShortfall:
		return models.SeverityHigh
	case p >= mediumShortfall:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
