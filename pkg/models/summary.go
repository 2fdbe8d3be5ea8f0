package models

import "time"

// EventSummary aggregates the live event log.
type EventSummary struct {
	Total    int            `json:"total"`
	ByType   map[string]int `json:"by_type"`
	ByStatus map[string]int `json:"by_status"`
	BySource map[string]int `json:"by_source"`
}

// SourceResult reports the violations found in one source during a run.
// Only sources with at least one violation appear in an EvaluationSummary.
type SourceResult struct {
	SourceName string           `json:"source_name"`
	Count      int              `json:"count"`
	Violations []ViolationEvent `json:"violations"`
}

// FetchFailure records a source that could not be read during a run.
type FetchFailure struct {
	SourceName string `json:"source_name"`
	Reason     string `json:"reason"`
}

// EvaluationSummary is the aggregate outcome of one evaluation cycle.
type EvaluationSummary struct {
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	Checked   int            `json:"checked"`
	Total     int            `json:"total"`
	Sources   []SourceResult `json:"sources"`
	Failures  []FetchFailure `json:"failures,omitempty"`
}

// Result is the uniform outcome shape returned by lifecycle operations.
// Err carries the underlying typed error for callers that inspect kinds;
// Message is the operator-facing line.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// OffboardCheck is the read-only precheck result for offboarding a source.
type OffboardCheck struct {
	Valid         bool         `json:"valid"`
	SourceName    string       `json:"source_name"`
	CurrentStatus SourceStatus `json:"current_status,omitempty"`
	EventCount    int          `json:"event_count"`
	Issues        []string     `json:"issues,omitempty"`
}
