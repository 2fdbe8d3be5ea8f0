// Package notify delivers evaluation results to operators over email and
// webhooks. Notifiers are quiet by default: a summary with nothing to report
// produces no traffic at all.
package notify

import (
	"context"
	"errors"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// Notifier sends one evaluation summary to an external channel.
type Notifier interface {
	Notify(ctx context.Context, summary *models.EvaluationSummary) error
}

// FanOut dispatches a summary to every configured notifier, applying the
// minimum-severity filter once up front.
type FanOut struct {
	min       models.Severity
	notifiers []Notifier
}

// NewFanOut creates a FanOut. Violations below min are dropped before
// dispatch; a zero min keeps everything.
func NewFanOut(min models.Severity, notifiers ...Notifier) *FanOut {
	return &FanOut{min: min, notifiers: notifiers}
}

// FromConfig assembles the configured notifiers: email when recipients are
// set, webhook when a URL is set, command when a shell command is set.
func FromConfig(cfg models.NotifyConfig) *FanOut {
	var notifiers []Notifier
	if len(cfg.Emails) > 0 {
		notifiers = append(notifiers, NewEmailNotifier(cfg))
	}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.Command != "" {
		notifiers = append(notifiers, NewCommandNotifier(cfg.Command))
	}
	return NewFanOut(cfg.MinSeverity, notifiers...)
}

// Notify filters the summary and hands it to every notifier. Each notifier
// gets its chance even when an earlier one fails; the errors are joined.
func (f *FanOut) Notify(ctx context.Context, summary *models.EvaluationSummary) error {
	filtered := FilterBySeverity(summary, f.min)
	if emptySummary(filtered) {
		return nil
	}
	var failures []error
	for _, n := range f.notifiers {
		if err := n.Notify(ctx, filtered); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}

// FilterBySeverity returns a copy of summary keeping only violations at or
// above min. Fetch failures always pass through. A zero min returns the
// summary untouched.
func FilterBySeverity(summary *models.EvaluationSummary, min models.Severity) *models.EvaluationSummary {
	if summary == nil || min == "" {
		return summary
	}
	floor := min.Rank()

	out := *summary
	out.Sources = nil
	out.Total = 0
	for _, src := range summary.Sources {
		var kept []models.ViolationEvent
		for _, v := range src.Violations {
			if v.Severity.Rank() >= floor {
				kept = append(kept, v)
			}
		}
		if len(kept) == 0 {
			continue
		}
		out.Sources = append(out.Sources, models.SourceResult{
			SourceName: src.SourceName,
			Count:      len(kept),
			Violations: kept,
		})
		out.Total += len(kept)
	}
	return &out
}

func emptySummary(s *models.EvaluationSummary) bool {
	return s == nil || (s.Total == 0 && len(s.Failures) == 0)
}
