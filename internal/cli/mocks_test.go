package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// runCommand invokes a command's RunE directly with a background context,
// bypassing cobra's flag parsing. Flag package vars are set by each test.
func runCommand(cmd *cobra.Command, args []string) error {
	cmd.SetContext(context.Background())
	return cmd.RunE(cmd, args)
}

// captureStdout captures stdout output during fn execution.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	origStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("creating pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = origStdout

	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading pipe: %v", err)
	}
	return string(out)
}

// --- Lifecycle fake ---

type onboardCall struct {
	location   string
	name       string
	metrics    []string
	thresholds map[string]float64
}

type metricCall struct {
	op        string
	source    string
	metric    string
	threshold float64
}

type fakeLifecycle struct {
	failOnboard  map[string]error
	failOffboard error
	failMetric   error
	check        *models.OffboardCheck
	checkErr     error

	onboardCalls    []onboardCall
	offboardName    string
	offboardArchive bool
	metricCalls     []metricCall
}

func (f *fakeLifecycle) OnboardSource(_ context.Context, location, name string, metrics []string, thresholds map[string]float64) models.Result {
	f.onboardCalls = append(f.onboardCalls, onboardCall{location, name, metrics, thresholds})
	if err, ok := f.failOnboard[name]; ok {
		return models.Result{Success: false, Message: err.Error(), Err: err}
	}
	return models.Result{
		Success: true,
		Message: fmt.Sprintf("source %s onboarded, tracking %d metrics", name, len(metrics)),
	}
}

func (f *fakeLifecycle) OffboardSource(_ context.Context, name string, archiveData bool) models.Result {
	f.offboardName = name
	f.offboardArchive = archiveData
	if f.failOffboard != nil {
		return models.Result{Success: false, Message: f.failOffboard.Error(), Err: f.failOffboard}
	}
	return models.Result{Success: true, Message: fmt.Sprintf("source %s offboarded, 2 events archived", name)}
}

func (f *fakeLifecycle) ValidateOffboarding(_ context.Context, name string) (*models.OffboardCheck, error) {
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return f.check, nil
}

func (f *fakeLifecycle) OnboardMetric(_ context.Context, name, metric string, threshold float64) models.Result {
	f.metricCalls = append(f.metricCalls, metricCall{"onboard", name, metric, threshold})
	if f.failMetric != nil {
		return models.Result{Success: false, Message: f.failMetric.Error(), Err: f.failMetric}
	}
	return models.Result{
		Success: true,
		Message: fmt.Sprintf("metric %s onboarded for %s with threshold %s", metric, name, models.FormatValue(threshold)),
	}
}

func (f *fakeLifecycle) OffboardMetric(_ context.Context, name, metric string) models.Result {
	f.metricCalls = append(f.metricCalls, metricCall{"offboard", name, metric, 0})
	if f.failMetric != nil {
		return models.Result{Success: false, Message: f.failMetric.Error(), Err: f.failMetric}
	}
	return models.Result{Success: true, Message: fmt.Sprintf("metric %s offboarded for %s", metric, name)}
}

// --- Evaluator fake ---

type fakeEvaluator struct {
	summary *models.EvaluationSummary
	err     error
	runs    int
}

func (f *fakeEvaluator) EvaluateSource(_ context.Context, cfg models.SourceConfig) ([]models.ViolationEvent, error) {
	return nil, nil
}

func (f *fakeEvaluator) EvaluateAll(_ context.Context) (*models.EvaluationSummary, error) {
	f.runs++
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

// --- Registry fake ---

type fakeRegistry struct {
	sources []models.SourceConfig
	err     error
}

func (f *fakeRegistry) UpsertSource(_ context.Context, cfg models.SourceConfig) error { return nil }

func (f *fakeRegistry) FindByName(_ context.Context, name string) (*models.SourceConfig, error) {
	for i := range f.sources {
		if f.sources[i].Name == name {
			return &f.sources[i], nil
		}
	}
	return nil, errs.SourceNotFound(name)
}

func (f *fakeRegistry) ListActive(_ context.Context) ([]models.SourceConfig, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.sources, nil
}

func (f *fakeRegistry) SetStatus(_ context.Context, name string, status models.SourceStatus, at time.Time) error {
	return nil
}

func (f *fakeRegistry) UpdateMetrics(_ context.Context, name string, metrics []string, thresholds map[string]float64) error {
	return nil
}

func (f *fakeRegistry) TouchLastSync(_ context.Context, name string, at time.Time) bool { return true }

// --- EventLog fake ---

type fakeEventLog struct {
	live     []models.LogEvent
	archived []models.LogEvent
	summary  *models.EventSummary
	purged   int
	csv      string
	err      error

	purgeCalls int
	purgedName string
}

func (f *fakeEventLog) Append(_ context.Context, event models.LogEvent) error {
	f.live = append(f.live, event)
	return nil
}

func (f *fakeEventLog) QueryBySource(_ context.Context, name string) ([]models.LogEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return filterEvents(f.live, name), nil
}

func (f *fakeEventLog) QueryArchive(_ context.Context, name string) ([]models.LogEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return filterEvents(f.archived, name), nil
}

func (f *fakeEventLog) Summarize(_ context.Context) (*models.EventSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func (f *fakeEventLog) Purge(_ context.Context, name string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.purgeCalls++
	f.purgedName = name
	return f.purged, nil
}

func (f *fakeEventLog) Archive(_ context.Context, name string) (int, error) { return 0, nil }

func (f *fakeEventLog) ExportCSV(_ context.Context, name string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.csv, nil
}

func filterEvents(events []models.LogEvent, name string) []models.LogEvent {
	if name == "" {
		return events
	}
	var out []models.LogEvent
	for _, e := range events {
		if e.SourceName == name {
			out = append(out, e)
		}
	}
	return out
}

// --- Notifier fake ---

type fakeNotifier struct {
	got *models.EvaluationSummary
	err error
}

func (f *fakeNotifier) Notify(_ context.Context, summary *models.EvaluationSummary) error {
	f.got = summary
	return f.err
}

// --- Sample data ---

func sampleSources() []models.SourceConfig {
	synced := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	return []models.SourceConfig{
		{
			Name:        "q3-sales",
			Location:    "https://example.com/q3.csv",
			Status:      models.StatusActive,
			Metrics:     []string{"Revenue", "Units Sold"},
			Thresholds:  map[string]float64{"Revenue": 50000, "Units Sold": 1200},
			OnboardedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
			LastSyncAt:  &synced,
		},
		{
			Name:        "emea",
			Location:    "https://example.com/emea.csv",
			Status:      models.StatusActive,
			Metrics:     []string{"Margin"},
			Thresholds:  map[string]float64{"Margin": 40},
			OnboardedAt: time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC),
		},
	}
}

func sampleRunSummary() *models.EvaluationSummary {
	at := time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC)
	return &models.EvaluationSummary{
		RunID:     "run-42",
		StartedAt: at,
		Checked:   3,
		Total:     2,
		Sources: []models.SourceResult{
			{
				SourceName: "q3-sales",
				Count:      2,
				Violations: []models.ViolationEvent{
					{
						Timestamp:  at,
						SourceName: "q3-sales",
						MetricName: "Revenue",
						Value:      25000,
						Threshold:  50000,
						RowRef:     "2",
						Severity:   models.SeverityCritical,
					},
					{
						Timestamp:  at,
						SourceName: "q3-sales",
						MetricName: "Units Sold",
						Value:      1100,
						Threshold:  1200,
						RowRef:     "3",
						Severity:   models.SeverityLow,
					},
				},
			},
		},
		Failures: []models.FetchFailure{
			{SourceName: "apac", Reason: "connection refused"},
		},
	}
}

func sampleEvents() []models.LogEvent {
	return []models.LogEvent{
		{
			Timestamp:  time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
			SourceName: "q3-sales",
			EventType:  models.EventInitialization,
			Message:    "monitoring initialized for: Revenue, Units Sold",
			Status:     models.StatusSuccess,
		},
		{
			Timestamp:  time.Date(2025, 6, 1, 8, 30, 0, 0, time.UTC),
			SourceName: "q3-sales",
			EventType:  models.EventThresholdViolation,
			Message:    "Revenue value 25000 is below threshold 50000 at row 2",
			Status:     string(models.SeverityCritical),
		},
		{
			Timestamp:  time.Date(2025, 6, 1, 8, 31, 0, 0, time.UTC),
			SourceName: "emea",
			EventType:  models.EventThresholdViolation,
			Message:    "Margin value 30 is below threshold 40 at row 2",
			Status:     string(models.SeverityMedium),
		},
	}
}
