package models

import (
	"fmt"
	"strconv"
	"time"
)

// Severity classifies how far below its threshold a metric value fell.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Rank orders severities for comparison; CRITICAL ranks highest. Unknown
// values rank below LOW.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// StatusSuccess marks lifecycle events that carry no severity.
const StatusSuccess = "SUCCESS"

// Event types recorded in the log.
const (
	EventInitialization     = "INITIALIZATION"
	EventThresholdViolation = "THRESHOLD_VIOLATION"
	EventMetricOnboarded    = "METRIC_ONBOARDED"
	EventMetricOffboarded   = "METRIC_OFFBOARDED"
	EventFetchFailure       = "FETCH_FAILURE"
)

// LogEvent is one append-only record in the event log. Status holds either
// a Severity value or SUCCESS depending on the event type.
type LogEvent struct {
	Timestamp  time.Time `yaml:"timestamp" json:"timestamp"`
	SourceName string    `yaml:"source_name" json:"source_name"`
	EventType  string    `yaml:"event_type" json:"event_type"`
	Message    string    `yaml:"message" json:"message"`
	Status     string    `yaml:"status" json:"status"`
	Resolution string    `yaml:"resolution" json:"resolution"`
}

// ViolationEvent is one (source, metric, row) instance where a fetched value
// was strictly below its threshold.
type ViolationEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	SourceName string    `json:"source_name"`
	MetricName string    `json:"metric_name"`
	Value      float64   `json:"value"`
	Threshold  float64   `json:"threshold"`
	RowRef     string    `json:"row_ref"`
	Severity   Severity  `json:"severity"`
}

// LogEvent renders the violation as an event-log record.
func (v ViolationEvent) LogEvent() LogEvent {
	return LogEvent{
		Timestamp:  v.Timestamp,
		SourceName: v.SourceName,
		EventType:  EventThresholdViolation,
		Message:    v.Message(),
		Status:     string(v.Severity),
	}
}

// Message renders the operator-facing description used in the event log.
func (v ViolationEvent) Message() string {
	return fmt.Sprintf("%s value %s is below threshold %s at row %s",
		v.MetricName, FormatValue(v.Value), FormatValue(v.Threshold), v.RowRef)
}

// FormatValue renders a metric value the way it appears in messages and
// exports: no exponent, no trailing zeros.
func FormatValue(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MetricRow is one data row fetched from a source: a row reference plus the
// numeric values resolved for the requested metric columns. Metrics whose
// column is missing, empty, or non-numeric in that row are absent from Values.
type MetricRow struct {
	Ref    string
	Values map[string]float64
}
