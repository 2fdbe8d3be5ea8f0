package server

import (
	"context"
	"time"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// schedule runs one evaluation cycle immediately, then one per interval
// until ctx is canceled.
func (s *Server) schedule(ctx context.Context) {
	s.logger.Info("scheduler started", "interval", s.interval)

	if _, err := s.RunCycle(ctx); err != nil {
		s.logger.Error("evaluation cycle failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			if _, err := s.RunCycle(ctx); err != nil {
				s.logger.Error("evaluation cycle failed", "error", err)
			}
		}
	}
}

// RunCycle evaluates every active source and dispatches notifications when
// a notifier is configured. A failed dispatch is logged, not returned: the
// cycle's results are already persisted at that point.
func (s *Server) RunCycle(ctx context.Context) (*models.EvaluationSummary, error) {
	summary, err := s.deps.Evaluator.EvaluateAll(ctx)
	if err != nil {
		return nil, err
	}
	if s.deps.Notifier != nil {
		if err := s.deps.Notifier.Notify(ctx, summary); err != nil {
			s.logger.Warn("notification dispatch failed", "error", err)
		}
	}
	return summary, nil
}
