package core

import (
	"context"
	"time"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// Registry is the durable store of monitored-source configurations.
// The interface is defined locally in core to avoid importing storage;
// implementations live in internal/storage and its driver subpackages.
type Registry interface {
	// UpsertSource inserts a new entry. It fails with DuplicateNameError if
	// the name is already present, regardless of the entry's status.
	UpsertSource(ctx context.Context, cfg models.SourceConfig) error
	// FindByName returns the entry or a NotFoundError.
	FindByName(ctx context.Context, name string) (*models.SourceConfig, error)
	// ListActive returns ACTIVE entries in registry insertion order.
	ListActive(ctx context.Context) ([]models.SourceConfig, error)
	// SetStatus transitions the entry's status. Setting OFFBOARDED also
	// stamps the offboarded timestamp.
	SetStatus(ctx context.Context, name string, status models.SourceStatus, at time.Time) error
	// UpdateMetrics replaces the metrics/thresholds pair wholesale. The
	// caller is responsible for keeping the two key sets equal.
	UpdateMetrics(ctx context.Context, name string, metrics []string, thresholds map[string]float64) error
	// TouchLastSync records a successful evaluation cycle. Best-effort:
	// returns false when the name is unknown or the write fails.
	TouchLastSync(ctx context.Context, name string, at time.Time) bool
}

// EventLog is the append-only store of violation and lifecycle events.
type EventLog interface {
	Append(ctx context.Context, event models.LogEvent) error
	// QueryBySource returns the source's live entries in append order.
	QueryBySource(ctx context.Context, name string) ([]models.LogEvent, error)
	// QueryArchive returns the source's archived entries in archival order.
	QueryArchive(ctx context.Context, name string) ([]models.LogEvent, error)
	Summarize(ctx context.Context) (*models.EventSummary, error)
	// Purge deletes the source's live entries, or every live entry when
	// name is empty, returning the count deleted. Irreversible.
	Purge(ctx context.Context, name string) (int, error)
	// Archive moves the source's live entries into the archive collection,
	// preserving order, and returns the count moved.
	Archive(ctx context.Context, name string) (int, error)
	// ExportCSV serializes the header plus matching live entries as quoted
	// comma-separated text, filtered by source when name is non-empty.
	ExportCSV(ctx context.Context, name string) (string, error)
}

// Fetcher reads current metric values from an external tabular source.
type Fetcher interface {
	// FetchRows returns one MetricRow per data row. Metric columns absent
	// from the header are skipped, as are empty and non-numeric cells;
	// only a wholly unreadable source yields a SourceUnreachableError.
	FetchRows(ctx context.Context, location string, metrics []string) ([]models.MetricRow, error)
	// ValidateColumns fails with MissingColumnError naming the first
	// requested metric absent from the source's header row.
	ValidateColumns(ctx context.Context, location string, metrics []string) error
}
