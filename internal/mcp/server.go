// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the KPI monitor as MCP tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/core"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// Server wraps monitor services and exposes them as MCP tools.
type Server struct {
	server    *gomcp.Server
	registry  core.Registry
	events    core.EventLog
	evaluator core.Evaluator
	lifecycle core.Lifecycle
}

// NewServer creates a new MCP server with the given monitor dependencies.
func NewServer(registry core.Registry, events core.EventLog, evaluator core.Evaluator, lifecycle core.Lifecycle, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		registry:  registry,
		events:    events,
		evaluator: evaluator,
		lifecycle: lifecycle,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "gsda", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on the given transport, blocking until the client
// disconnects or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type listSourcesInput struct{}

type sourceOutput struct {
	Name        string             `json:"name"`
	Location    string             `json:"location"`
	Status      string             `json:"status"`
	Metrics     []string           `json:"metrics"`
	Thresholds  map[string]float64 `json:"thresholds"`
	OnboardedAt string             `json:"onboarded_at"`
	LastSyncAt  string             `json:"last_sync_at,omitempty"`
}

type listSourcesOutput struct {
	Sources []sourceOutput `json:"sources"`
	Count   int            `json:"count"`
}

type getSourceEventsInput struct {
	SourceName string `json:"source_name" jsonschema:"required,the registered source name (e.g. q3-sales)"`
	Archive    bool   `json:"archive,omitempty" jsonschema:"read the source's archived events instead of the live log"`
}

type eventOutput struct {
	Timestamp  string `json:"timestamp"`
	SourceName string `json:"source_name"`
	EventType  string `json:"event_type"`
	Message    string `json:"message"`
	Status     string `json:"status"`
	Resolution string `json:"resolution,omitempty"`
}

type getSourceEventsOutput struct {
	Events []eventOutput `json:"events"`
	Count  int           `json:"count"`
}

type getEventSummaryInput struct{}

type eventSummaryOutput struct {
	Total    int            `json:"total"`
	ByType   map[string]int `json:"by_type"`
	ByStatus map[string]int `json:"by_status"`
	BySource map[string]int `json:"by_source"`
}

type runCheckInput struct{}

type violationOutput struct {
	MetricName string  `json:"metric_name"`
	Value      float64 `json:"value"`
	Threshold  float64 `json:"threshold"`
	RowRef     string  `json:"row_ref"`
	Severity   string  `json:"severity"`
}

type sourceResultOutput struct {
	SourceName string            `json:"source_name"`
	Count      int               `json:"count"`
	Violations []violationOutput `json:"violations"`
}

type fetchFailureOutput struct {
	SourceName string `json:"source_name"`
	Reason     string `json:"reason"`
}

type runCheckOutput struct {
	RunID    string               `json:"run_id"`
	Checked  int                  `json:"checked"`
	Total    int                  `json:"total"`
	Sources  []sourceResultOutput `json:"sources"`
	Failures []fetchFailureOutput `json:"failures,omitempty"`
}

type validateOffboardingInput struct {
	SourceName string `json:"source_name" jsonschema:"required,the registered source name (e.g. q3-sales)"`
}

type validateOffboardingOutput struct {
	Valid         bool     `json:"valid"`
	SourceName    string   `json:"source_name"`
	CurrentStatus string   `json:"current_status,omitempty"`
	EventCount    int      `json:"event_count"`
	Issues        []string `json:"issues,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_sources",
		Description: "List actively monitored sources with their tracked KPIs, thresholds, and last sync time.",
	}, s.handleListSources)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_source_events",
		Description: "Get a source's logged events (violations, lifecycle changes) from the live log, or its archive with archive=true.",
	}, s.handleGetSourceEvents)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_event_summary",
		Description: "Aggregate the live event log by event type, status, and source.",
	}, s.handleGetEventSummary)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "run_check",
		Description: "Run one evaluation cycle now: fetch every active source, compare KPIs against thresholds, and record violations.",
	}, s.handleRunCheck)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "validate_offboarding",
		Description: "Check whether a source can be offboarded, without changing anything.",
	}, s.handleValidateOffboarding)
}

// --- Tool handlers ---

func (s *Server) handleListSources(ctx context.Context, _ *gomcp.CallToolRequest, _ listSourcesInput) (*gomcp.CallToolResult, listSourcesOutput, error) {
	sources, err := s.registry.ListActive(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("listing sources: %s", err)), listSourcesOutput{}, nil
	}

	out := listSourcesOutput{
		Sources: make([]sourceOutput, len(sources)),
		Count:   len(sources),
	}
	for i, src := range sources {
		out.Sources[i] = sourceToOutput(src)
	}

	return nil, out, nil
}

func (s *Server) handleGetSourceEvents(ctx context.Context, _ *gomcp.CallToolRequest, input getSourceEventsInput) (*gomcp.CallToolResult, getSourceEventsOutput, error) {
	if input.SourceName == "" {
		return errorResult("source_name is required"), getSourceEventsOutput{}, nil
	}

	if _, err := s.registry.FindByName(ctx, input.SourceName); err != nil {
		return errorResult(fmt.Sprintf("looking up source %s: %s", input.SourceName, err)), getSourceEventsOutput{}, nil
	}

	var (
		events []models.LogEvent
		err    error
	)
	if input.Archive {
		events, err = s.events.QueryArchive(ctx, input.SourceName)
	} else {
		events, err = s.events.QueryBySource(ctx, input.SourceName)
	}
	if err != nil {
		return errorResult(fmt.Sprintf("querying events for %s: %s", input.SourceName, err)), getSourceEventsOutput{}, nil
	}

	out := getSourceEventsOutput{
		Events: make([]eventOutput, len(events)),
		Count:  len(events),
	}
	for i, e := range events {
		out.Events[i] = eventOutput{
			Timestamp:  e.Timestamp.UTC().Format(time.RFC3339),
			SourceName: e.SourceName,
			EventType:  e.EventType,
			Message:    e.Message,
			Status:     e.Status,
			Resolution: e.Resolution,
		}
	}

	return nil, out, nil
}

func (s *Server) handleGetEventSummary(ctx context.Context, _ *gomcp.CallToolRequest, _ getEventSummaryInput) (*gomcp.CallToolResult, eventSummaryOutput, error) {
	summary, err := s.events.Summarize(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("summarizing events: %s", err)), emptySummaryOutput(), nil
	}

	out := eventSummaryOutput{
		Total:    summary.Total,
		ByType:   summary.ByType,
		ByStatus: summary.ByStatus,
		BySource: summary.BySource,
	}
	return nil, out, nil
}

func (s *Server) handleRunCheck(ctx context.Context, _ *gomcp.CallToolRequest, _ runCheckInput) (*gomcp.CallToolResult, runCheckOutput, error) {
	summary, err := s.evaluator.EvaluateAll(ctx)
	if err != nil {
		return errorResult(fmt.Sprintf("running evaluation cycle: %s", err)), runCheckOutput{}, nil
	}

	out := runCheckOutput{
		RunID:   summary.RunID,
		Checked: summary.Checked,
		Total:   summary.Total,
		Sources: make([]sourceResultOutput, len(summary.Sources)),
	}
	for i, src := range summary.Sources {
		sr := sourceResultOutput{
			SourceName: src.SourceName,
			Count:      src.Count,
			Violations: make([]violationOutput, len(src.Violations)),
		}
		for j, v := range src.Violations {
			sr.Violations[j] = violationOutput{
				MetricName: v.MetricName,
				Value:      v.Value,
				Threshold:  v.Threshold,
				RowRef:     v.RowRef,
				Severity:   string(v.Severity),
			}
		}
		out.Sources[i] = sr
	}
	for _, f := range summary.Failures {
		out.Failures = append(out.Failures, fetchFailureOutput{
			SourceName: f.SourceName,
			Reason:     f.Reason,
		})
	}

	return nil, out, nil
}

func (s *Server) handleValidateOffboarding(ctx context.Context, _ *gomcp.CallToolRequest, input validateOffboardingInput) (*gomcp.CallToolResult, validateOffboardingOutput, error) {
	if input.SourceName == "" {
		return errorResult("source_name is required"), validateOffboardingOutput{}, nil
	}

	check, err := s.lifecycle.ValidateOffboarding(ctx, input.SourceName)
	if err != nil {
		return errorResult(fmt.Sprintf("validating offboarding for %s: %s", input.SourceName, err)), validateOffboardingOutput{}, nil
	}

	out := validateOffboardingOutput{
		Valid:         check.Valid,
		SourceName:    check.SourceName,
		CurrentStatus: string(check.CurrentStatus),
		EventCount:    check.EventCount,
		Issues:        check.Issues,
	}
	return nil, out, nil
}

// --- Helpers ---

func sourceToOutput(src models.SourceConfig) sourceOutput {
	out := sourceOutput{
		Name:        src.Name,
		Location:    src.Location,
		Status:      string(src.Status),
		Metrics:     src.Metrics,
		Thresholds:  src.Thresholds,
		OnboardedAt: src.OnboardedAt.UTC().Format(time.RFC3339),
	}
	if src.LastSyncAt != nil {
		out.LastSyncAt = src.LastSyncAt.UTC().Format(time.RFC3339)
	}
	return out
}

func emptySummaryOutput() eventSummaryOutput {
	return eventSummaryOutput{
		ByType:   make(map[string]int),
		ByStatus: make(map[string]int),
		BySource: make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
