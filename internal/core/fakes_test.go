package core

import (
	"context"
	"errors"
	"time"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// fakeRegistry is an in-memory Registry that keeps insertion order.
type fakeRegistry struct {
	order   []string
	sources map[string]*models.SourceConfig
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{sources: make(map[string]*models.SourceConfig)}
}

func (r *fakeRegistry) UpsertSource(_ context.Context, cfg models.SourceConfig) error {
	if _, exists := r.sources[cfg.Name]; exists {
		return &errs.DuplicateNameError{Name: cfg.Name}
	}
	clone := cfg
	r.sources[cfg.Name] = &clone
	r.order = append(r.order, cfg.Name)
	return nil
}

func (r *fakeRegistry) FindByName(_ context.Context, name string) (*models.SourceConfig, error) {
	cfg, ok := r.sources[name]
	if !ok {
		return nil, errs.SourceNotFound(name)
	}
	clone := *cfg
	return &clone, nil
}

func (r *fakeRegistry) ListActive(_ context.Context) ([]models.SourceConfig, error) {
	var active []models.SourceConfig
	for _, name := range r.order {
		if cfg := r.sources[name]; cfg.Status == models.StatusActive {
			active = append(active, *cfg)
		}
	}
	return active, nil
}

func (r *fakeRegistry) SetStatus(_ context.Context, name string, status models.SourceStatus, at time.Time) error {
	cfg, ok := r.sources[name]
	if !ok {
		return errs.SourceNotFound(name)
	}
	cfg.Status = status
	if status == models.StatusOffboarded {
		stamp := at
		cfg.OffboardedAt = &stamp
	}
	return nil
}

func (r *fakeRegistry) UpdateMetrics(_ context.Context, name string, metrics []string, thresholds map[string]float64) error {
	cfg, ok := r.sources[name]
	if !ok {
		return errs.SourceNotFound(name)
	}
	cfg.Metrics = metrics
	cfg.Thresholds = thresholds
	return nil
}

func (r *fakeRegistry) TouchLastSync(_ context.Context, name string, at time.Time) bool {
	cfg, ok := r.sources[name]
	if !ok {
		return false
	}
	stamp := at
	cfg.LastSyncAt = &stamp
	return true
}

// fakeEventLog is an in-memory EventLog.
type fakeEventLog struct {
	live      []models.LogEvent
	archived  []models.LogEvent
	appendErr error
}

func newFakeEventLog() *fakeEventLog { return &fakeEventLog{} }

func (l *fakeEventLog) Append(_ context.Context, event models.LogEvent) error {
	if l.appendErr != nil {
		return l.appendErr
	}
	l.live = append(l.live, event)
	return nil
}

func (l *fakeEventLog) QueryBySource(_ context.Context, name string) ([]models.LogEvent, error) {
	return filterEvents(l.live, name), nil
}

func (l *fakeEventLog) QueryArchive(_ context.Context, name string) ([]models.LogEvent, error) {
	return filterEvents(l.archived, name), nil
}

func (l *fakeEventLog) Summarize(_ context.Context) (*models.EventSummary, error) {
	summary := &models.EventSummary{
		ByType:   make(map[string]int),
		ByStatus: make(map[string]int),
		BySource: make(map[string]int),
	}
	for _, e := range l.live {
		summary.Total++
		summary.ByType[e.EventType]++
		summary.ByStatus[e.Status]++
		summary.BySource[e.SourceName]++
	}
	return summary, nil
}

func (l *fakeEventLog) Purge(_ context.Context, name string) (int, error) {
	var kept []models.LogEvent
	purged := 0
	for _, e := range l.live {
		if name == "" || e.SourceName == name {
			purged++
			continue
		}
		kept = append(kept, e)
	}
	l.live = kept
	return purged, nil
}

func (l *fakeEventLog) Archive(ctx context.Context, name string) (int, error) {
	moved := filterEvents(l.live, name)
	l.archived = append(l.archived, moved...)
	if _, err := l.Purge(ctx, name); err != nil {
		return 0, err
	}
	return len(moved), nil
}

func (l *fakeEventLog) ExportCSV(_ context.Context, _ string) (string, error) {
	return "", errors.New("not implemented in fake")
}

func filterEvents(events []models.LogEvent, name string) []models.LogEvent {
	var out []models.LogEvent
	for _, e := range events {
		if name == "" || e.SourceName == name {
			out = append(out, e)
		}
	}
	return out
}

// fakeFetcher serves canned rows per location and can simulate unreachable
// sources.
type fakeFetcher struct {
	columns map[string][]string
	rows    map[string][]models.MetricRow
	fail    map[string]bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		columns: make(map[string][]string),
		rows:    make(map[string][]models.MetricRow),
		fail:    make(map[string]bool),
	}
}

func (f *fakeFetcher) FetchRows(_ context.Context, location string, _ []string) ([]models.MetricRow, error) {
	if f.fail[location] {
		return nil, &errs.SourceUnreachableError{Location: location, Err: errors.New("connection refused")}
	}
	return f.rows[location], nil
}

func (f *fakeFetcher) ValidateColumns(_ context.Context, location string, metrics []string) error {
	if f.fail[location] {
		return &errs.SourceUnreachableError{Location: location, Err: errors.New("connection refused")}
	}
	present := make(map[string]bool, len(f.columns[location]))
	for _, c := range f.columns[location] {
		present[c] = true
	}
	for _, m := range metrics {
		if !present[m] {
			return &errs.MissingColumnError{Column: m}
		}
	}
	return nil
}
