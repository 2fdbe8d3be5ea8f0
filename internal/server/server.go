// Package server exposes the monitor over HTTP and drives scheduled
// evaluation cycles.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/core"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/notify"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// Deps are the collaborators the server needs. Notifier may be nil when
// notifications are disabled.
type Deps struct {
	Registry  core.Registry
	Events    core.EventLog
	Evaluator core.Evaluator
	Notifier  notify.Notifier
	Logger    *slog.Logger
}

// Server serves the read API and runs evaluation cycles on a ticker.
type Server struct {
	deps     Deps
	addr     string
	interval time.Duration
	logger   *slog.Logger
}

// New validates the check interval and builds a Server.
func New(deps Deps, addr string, intervalMinutes int) (*Server, error) {
	if err := core.ValidateInterval(intervalMinutes); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		deps:     deps,
		addr:     addr,
		interval: time.Duration(intervalMinutes) * time.Minute,
		logger:   logger,
	}, nil
}

// Router builds the HTTP API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealthz)
	r.Route("/api", func(r chi.Router) {
		r.Get("/sources", s.handleListSources)
		r.Get("/sources/{name}/events", s.handleSourceEvents)
		r.Get("/summary", s.handleSummary)
		r.Post("/check", s.handleCheck)
	})
	return r
}

// Run serves the API and the scheduler until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.Router()}

	go s.schedule(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "addr", s.addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.deps.Registry.ListActive(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "listing sources", err.Error())
		return
	}
	if sources == nil {
		sources = []models.SourceConfig{}
	}
	writeJSON(w, http.StatusOK, sources)
}

func (s *Server) handleSourceEvents(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if _, err := s.deps.Registry.FindByName(r.Context(), name); err != nil {
		var notFound *errs.NotFoundError
		if errors.As(err, &notFound) {
			writeProblem(w, http.StatusNotFound, "unknown source", err.Error())
			return
		}
		writeProblem(w, http.StatusInternalServerError, "looking up source", err.Error())
		return
	}

	events, err := s.deps.Events.QueryBySource(r.Context(), name)
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "querying events", err.Error())
		return
	}
	if events == nil {
		events = []models.LogEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.deps.Events.Summarize(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "summarizing events", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	summary, err := s.RunCycle(r.Context())
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "evaluation cycle failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// problem is the error response body.
type problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem{Title: title, Status: status, Detail: detail})
}
