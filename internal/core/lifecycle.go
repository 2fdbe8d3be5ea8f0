package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// Lifecycle coordinates onboarding and offboarding of sources and of
// individual tracked metrics. Operations return the uniform Result shape
// instead of raising: every failure is caught at this boundary and turned
// into {Success: false, Message, Err}.
type Lifecycle interface {
	OnboardSource(ctx context.Context, location, name string, metrics []string, thresholds map[string]float64) models.Result
	OffboardSource(ctx context.Context, name string, archiveData bool) models.Result
	ValidateOffboarding(ctx context.Context, name string) (*models.OffboardCheck, error)
	OnboardMetric(ctx context.Context, name, metric string, threshold float64) models.Result
	OffboardMetric(ctx context.Context, name, metric string) models.Result
}

type lifecycle struct {
	registry Registry
	events   EventLog
	fetcher  Fetcher
}

// NewLifecycle creates a Lifecycle with all dependencies injected.
func NewLifecycle(registry Registry, events EventLog, fetcher Fetcher) Lifecycle {
	return &lifecycle{
		registry: registry,
		events:   events,
		fetcher:  fetcher,
	}
}

// OnboardSource validates the inputs and the source's column structure, then
// registers the source as ACTIVE and seeds the event log. The registry is
// only touched after every validation step has passed.
func (l *lifecycle) OnboardSource(ctx context.Context, location, name string, metrics []string, thresholds map[string]float64) models.Result {
	if strings.TrimSpace(name) == "" {
		return fail(errors.New("source name is required"))
	}
	if strings.TrimSpace(location) == "" {
		return fail(fmt.Errorf("location is required for source %s", name))
	}
	if len(metrics) == 0 {
		return fail(fmt.Errorf("at least one metric is required for source %s", name))
	}

	seen := make(map[string]bool, len(metrics))
	for _, metric := range metrics {
		if err := validateMetricName(metric); err != nil {
			return fail(err)
		}
		if seen[metric] {
			return fail(fmt.Errorf("metric %q is listed twice for source %s", metric, name))
		}
		seen[metric] = true

		t, ok := thresholds[metric]
		if !ok {
			return fail(fmt.Errorf("metric %q has no threshold for source %s", metric, name))
		}
		if t <= 0 {
			return fail(&errs.InvalidThresholdError{Metric: metric, Threshold: t})
		}
	}
	for key := range thresholds {
		if !seen[key] {
			return fail(fmt.Errorf("threshold %q does not match any metric of source %s", key, name))
		}
	}

	if err := l.fetcher.ValidateColumns(ctx, location, metrics); err != nil {
		return fail(err)
	}

	if err := l.registry.UpsertSource(ctx, models.SourceConfig{
		Name:        name,
		Location:    location,
		Status:      models.StatusActive,
		Metrics:     metrics,
		Thresholds:  thresholds,
		OnboardedAt: time.Now().UTC(),
	}); err != nil {
		return fail(err)
	}

	message := fmt.Sprintf("monitoring initialized for: %s", strings.Join(metrics, ", "))
	if err := l.appendLifecycleEvent(ctx, name, models.EventInitialization, message); err != nil {
		return fail(err)
	}
	return ok(fmt.Sprintf("source %s onboarded, tracking %d metrics", name, len(metrics)))
}

// OffboardSource retires a source. With archiveData the source's event log
// entries move to the archive first; the live entries are then purged either
// way, so offboarding without archiveData discards them for good.
func (l *lifecycle) OffboardSource(ctx context.Context, name string, archiveData bool) models.Result {
	cfg, err := l.registry.FindByName(ctx, name)
	if err != nil {
		return fail(err)
	}
	if cfg.Status == models.StatusOffboarded {
		return fail(&errs.AlreadyOffboardedError{Name: name})
	}

	archived := 0
	if archiveData {
		if archived, err = l.events.Archive(ctx, name); err != nil {
			return fail(errs.Wrapf(err, "archiving events for %s", name))
		}
	}
	purged, err := l.events.Purge(ctx, name)
	if err != nil {
		return fail(errs.Wrapf(err, "purging events for %s", name))
	}
	if err := l.registry.SetStatus(ctx, name, models.StatusOffboarded, time.Now().UTC()); err != nil {
		return fail(errs.Wrapf(err, "retiring %s", name))
	}

	if archiveData {
		return ok(fmt.Sprintf("source %s offboarded, %d events archived", name, archived))
	}
	return ok(fmt.Sprintf("source %s offboarded, %d events discarded", name, purged))
}

// ValidateOffboarding reports whether offboarding would succeed, the
// source's current status, and its live event count. It mutates nothing.
func (l *lifecycle) ValidateOffboarding(ctx context.Context, name string) (*models.OffboardCheck, error) {
	check := &models.OffboardCheck{SourceName: name}

	cfg, err := l.registry.FindByName(ctx, name)
	var notFound *errs.NotFoundError
	if errors.As(err, &notFound) {
		check.Issues = append(check.Issues, fmt.Sprintf("source %q is not registered", name))
		return check, nil
	}
	if err != nil {
		return nil, err
	}

	check.CurrentStatus = cfg.Status
	events, err := l.events.QueryBySource(ctx, name)
	if err != nil {
		return nil, errs.Wrapf(err, "counting events for %s", name)
	}
	check.EventCount = len(events)

	if cfg.Status == models.StatusOffboarded {
		check.Issues = append(check.Issues, fmt.Sprintf("source %q is already offboarded", name))
		return check, nil
	}

	check.Valid = true
	return check, nil
}

// OnboardMetric adds a metric to a source, or updates its threshold when the
// metric is already tracked. Adding never duplicates the name.
func (l *lifecycle) OnboardMetric(ctx context.Context, name, metric string, threshold float64) models.Result {
	if err := validateMetricName(metric); err != nil {
		return fail(err)
	}
	if threshold <= 0 {
		return fail(&errs.InvalidThresholdError{Metric: metric, Threshold: threshold})
	}

	cfg, err := l.registry.FindByName(ctx, name)
	if err != nil {
		return fail(err)
	}

	metrics := make([]string, len(cfg.Metrics))
	copy(metrics, cfg.Metrics)
	thresholds := make(map[string]float64, len(cfg.Thresholds)+1)
	for k, v := range cfg.Thresholds {
		thresholds[k] = v
	}
	if !cfg.HasMetric(metric) {
		metrics = append(metrics, metric)
	}
	thresholds[metric] = threshold

	if err := l.registry.UpdateMetrics(ctx, name, metrics, thresholds); err != nil {
		return fail(err)
	}

	message := fmt.Sprintf("metric %s onboarded for %s with threshold %s",
		metric, name, models.FormatValue(threshold))
	if err := l.appendLifecycleEvent(ctx, name, models.EventMetricOnboarded, message); err != nil {
		return fail(err)
	}
	return ok(message)
}

// OffboardMetric stops tracking one metric of a source, dropping its
// threshold with it.
func (l *lifecycle) OffboardMetric(ctx context.Context, name, metric string) models.Result {
	cfg, err := l.registry.FindByName(ctx, name)
	if err != nil {
		return fail(err)
	}
	if !cfg.HasMetric(metric) {
		return fail(errs.MetricNotFound(name, metric))
	}

	metrics := make([]string, 0, len(cfg.Metrics)-1)
	for _, m := range cfg.Metrics {
		if m != metric {
			metrics = append(metrics, m)
		}
	}
	thresholds := make(map[string]float64, len(metrics))
	for k, v := range cfg.Thresholds {
		if k != metric {
			thresholds[k] = v
		}
	}

	if err := l.registry.UpdateMetrics(ctx, name, metrics, thresholds); err != nil {
		return fail(err)
	}

	message := fmt.Sprintf("metric %s offboarded for %s", metric, name)
	if err := l.appendLifecycleEvent(ctx, name, models.EventMetricOffboarded, message); err != nil {
		return fail(err)
	}
	return ok(message)
}

func (l *lifecycle) appendLifecycleEvent(ctx context.Context, source, eventType, message string) error {
	err := l.events.Append(ctx, models.LogEvent{
		Timestamp:  time.Now().UTC(),
		SourceName: source,
		EventType:  eventType,
		Message:    message,
		Status:     models.StatusSuccess,
	})
	if err != nil {
		return errs.Wrapf(err, "recording %s event for %s", eventType, source)
	}
	return nil
}

// validateMetricName rejects names the registry cannot carry: the KPIs
// column is comma-joined, so metric names must stay comma-free.
func validateMetricName(metric string) error {
	if strings.TrimSpace(metric) == "" {
		return errors.New("metric name is required")
	}
	if strings.Contains(metric, ",") {
		return fmt.Errorf("metric name %q must not contain commas", metric)
	}
	return nil
}

func ok(message string) models.Result {
	return models.Result{Success: true, Message: message}
}

func fail(err error) models.Result {
	return models.Result{Message: err.Error(), Err: err}
}
