package core

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// Evaluator runs threshold checks across the monitored sources.
type Evaluator interface {
	// EvaluateSource fetches the source's current rows and returns every
	// threshold violation found. It has no side effects.
	EvaluateSource(ctx context.Context, cfg models.SourceConfig) ([]models.ViolationEvent, error)

	// EvaluateAll runs one full cycle over the active registry entries,
	// recording violations and fetch failures in the event log. One source
	// failing to fetch never aborts the remaining sources.
	EvaluateAll(ctx context.Context) (*models.EvaluationSummary, error)
}

type evaluator struct {
	registry Registry
	events   EventLog
	fetcher  Fetcher
	logger   *slog.Logger
}

// NewEvaluator creates an Evaluator with all dependencies injected. A nil
// logger falls back to slog.Default().
func NewEvaluator(registry Registry, events EventLog, fetcher Fetcher, logger *slog.Logger) Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &evaluator{
		registry: registry,
		events:   events,
		fetcher:  fetcher,
		logger:   logger,
	}
}

func (e *evaluator) EvaluateSource(ctx context.Context, cfg models.SourceConfig) ([]models.ViolationEvent, error) {
	rows, err := e.fetcher.FetchRows(ctx, cfg.Location, cfg.Metrics)
	if err != nil {
		return nil, err
	}

	var violations []models.ViolationEvent
	for _, row := range rows {
		for _, metric := range cfg.Metrics {
			value, ok := row.Values[metric]
			if !ok {
				continue
			}
			threshold, ok := cfg.Thresholds[metric]
			if !ok {
				continue
			}
			if !IsViolation(value, threshold) {
				continue
			}
			violations = append(violations, models.ViolationEvent{
				Timestamp:  time.Now().UTC(),
				SourceName: cfg.Name,
				MetricName: metric,
				Value:      value,
				Threshold:  threshold,
				RowRef:     row.Ref,
				Severity:   CalculateSeverity(value, threshold),
			})
		}
	}
	return violations, nil
}

func (e *evaluator) EvaluateAll(ctx context.Context) (*models.EvaluationSummary, error) {
	active, err := e.registry.ListActive(ctx)
	if err != nil {
		return nil, errs.Wrap(err, "listing active sources")
	}

	summary := &models.EvaluationSummary{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Checked:   len(active),
	}

	for _, cfg := range active {
		violations, err := e.EvaluateSource(ctx, cfg)
		if err != nil {
			e.logger.Warn("source evaluation failed",
				"run_id", summary.RunID, "source", cfg.Name, "error", err)
			summary.Failures = append(summary.Failures, models.FetchFailure{
				SourceName: cfg.Name,
				Reason:     err.Error(),
			})
			e.appendEvent(ctx, models.LogEvent{
				Timestamp:  time.Now().UTC(),
				SourceName: cfg.Name,
				EventType:  models.EventFetchFailure,
				Message:    err.Error(),
				Status:     string(models.SeverityHigh),
			})
			continue
		}

		for _, v := range violations {
			e.appendEvent(ctx, v.LogEvent())
		}
		if len(violations) > 0 {
			summary.Sources = append(summary.Sources, models.SourceResult{
				SourceName: cfg.Name,
				Count:      len(violations),
				Violations: violations,
			})
		}
		summary.Total += len(violations)

		if !e.registry.TouchLastSync(ctx, cfg.Name, time.Now().UTC()) {
			e.logger.Warn("could not stamp last sync", "source", cfg.Name)
		}
	}

	e.logger.Info("evaluation cycle finished",
		"run_id", summary.RunID,
		"checked", summary.Checked,
		"violations", summary.Total,
		"failures", len(summary.Failures))
	return summary, nil
}

// appendEvent records an event, logging instead of failing the cycle when
// the event log itself is unavailable.
func (e *evaluator) appendEvent(ctx context.Context, event models.LogEvent) {
	if err := e.events.Append(ctx, event); err != nil {
		e.logger.Warn("could not append event",
			"source", event.SourceName, "type", event.EventType, "error", err)
	}
}
