package models

import "time"

// SourceStatus represents the current lifecycle state of a monitored source.
type SourceStatus string

const (
	StatusActive     SourceStatus = "ACTIVE"
	StatusOffboarded SourceStatus = "OFFBOARDED"
)

// SourceConfig describes a monitored tabular source: where to read it,
// which metric columns to track, and the minimum acceptable value per metric.
type SourceConfig struct {
	Name         string             `yaml:"name" json:"name"`
	Location     string             `yaml:"location" json:"location"`
	Status       SourceStatus       `yaml:"status" json:"status"`
	Metrics      []string           `yaml:"metrics" json:"metrics"`
	Thresholds   map[string]float64 `yaml:"thresholds" json:"thresholds"`
	OnboardedAt  time.Time          `yaml:"onboarded_at" json:"onboarded_at"`
	LastSyncAt   *time.Time         `yaml:"last_sync_at,omitempty" json:"last_sync_at,omitempty"`
	OffboardedAt *time.Time         `yaml:"offboarded_at,omitempty" json:"offboarded_at,omitempty"`
}

// Active reports whether the source is currently monitored.
func (s *SourceConfig) Active() bool {
	return s.Status == StatusActive
}

// HasMetric reports whether the named metric column is tracked.
func (s *SourceConfig) HasMetric(metric string) bool {
	for _, m := range s.Metrics {
		if m == metric {
			return true
		}
	}
	return false
}

// Threshold returns the configured minimum for the metric.
func (s *SourceConfig) Threshold(metric string) (float64, bool) {
	t, ok := s.Thresholds[metric]
	return t, ok
}
