package storage

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// EventHeader is the event record header shared by every backend, in
// stored column order.
var EventHeader = []string{
	"Timestamp", "SheetName", "ErrorType", "ErrorMessage", "Status", "Resolution",
}

// EncodeEventRecord renders a LogEvent in EventHeader column order.
func EncodeEventRecord(e models.LogEvent) []string {
	return []string{
		FormatTime(e.Timestamp),
		e.SourceName,
		e.EventType,
		e.Message,
		e.Status,
		e.Resolution,
	}
}

// EncodeMetrics joins metric names in the comma-space form used by the
// KPIs column.
func EncodeMetrics(metrics []string) string {
	return strings.Join(metrics, ", ")
}

// DecodeMetrics reverses EncodeMetrics, dropping empty entries.
func DecodeMetrics(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	metrics := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			metrics = append(metrics, p)
		}
	}
	return metrics
}

// EncodeThresholds renders the thresholds map as a JSON object string.
func EncodeThresholds(thresholds map[string]float64) (string, error) {
	encoded, err := json.Marshal(thresholds)
	if err != nil {
		return "", errs.Wrap(err, "encoding thresholds")
	}
	return string(encoded), nil
}

// DecodeThresholds parses the JSON object form; empty input decodes to nil.
func DecodeThresholds(s string) (map[string]float64, error) {
	if s == "" {
		return nil, nil
	}
	var thresholds map[string]float64
	if err := json.Unmarshal([]byte(s), &thresholds); err != nil {
		return nil, errs.Wrap(err, "decoding thresholds")
	}
	return thresholds, nil
}

// FormatTime renders a timestamp as RFC 3339 in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FormatTimePtr renders an optional timestamp, empty when absent.
func FormatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatTime(*t)
}

// ParseTime parses an RFC 3339 timestamp.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

// ParseTimePtr parses an optional timestamp, nil when empty.
func ParseTimePtr(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
