package storage

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/tabular"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

func newTestStore(t *testing.T) tabular.Store {
	t.Helper()
	store, err := tabular.NewCSVStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return store
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(newTestStore(t))
	if err != nil {
		t.Fatalf("creating registry: %v", err)
	}
	return reg
}

func sampleSource(name string) models.SourceConfig {
	return models.SourceConfig{
		Name:        name,
		Location:    "https://example.com/" + name + ".csv",
		Status:      models.StatusActive,
		Metrics:     []string{"Revenue", "Units Sold"},
		Thresholds:  map[string]float64{"Revenue": 50000, "Units Sold": 1200},
		OnboardedAt: time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC),
	}
}

func TestRegistry_UpsertAndFind(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	want := sampleSource("q3-sales")
	if err := reg.UpsertSource(ctx, want); err != nil {
		t.Fatalf("upserting source: %v", err)
	}

	got, err := reg.FindByName(ctx, "q3-sales")
	if err != nil {
		t.Fatalf("finding source: %v", err)
	}
	if got.Name != want.Name || got.Location != want.Location || got.Status != want.Status {
		t.Errorf("round trip mangled identity fields: %+v", got)
	}
	if !reflect.DeepEqual(got.Metrics, want.Metrics) {
		t.Errorf("metrics round trip: got %v, want %v", got.Metrics, want.Metrics)
	}
	if !reflect.DeepEqual(got.Thresholds, want.Thresholds) {
		t.Errorf("thresholds round trip: got %v, want %v", got.Thresholds, want.Thresholds)
	}
	if !got.OnboardedAt.Equal(want.OnboardedAt) {
		t.Errorf("onboard date round trip: got %v, want %v", got.OnboardedAt, want.OnboardedAt)
	}
	if got.LastSyncAt != nil || got.OffboardedAt != nil {
		t.Errorf("expected absent sync/offboard dates, got %v / %v", got.LastSyncAt, got.OffboardedAt)
	}
}

func TestRegistry_DuplicateNameRejected(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	if err := reg.UpsertSource(ctx, sampleSource("q3-sales")); err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	err := reg.UpsertSource(ctx, sampleSource("q3-sales"))
	var dup *errs.DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("expected DuplicateNameError, got %v", err)
	}
	if dup.Name != "q3-sales" {
		t.Errorf("error should name the source, got %q", dup.Name)
	}
}

func TestRegistry_DuplicateNameRejectedAfterOffboard(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	if err := reg.UpsertSource(ctx, sampleSource("q3-sales")); err != nil {
		t.Fatalf("upserting source: %v", err)
	}
	at := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	if err := reg.SetStatus(ctx, "q3-sales", models.StatusOffboarded, at); err != nil {
		t.Fatalf("offboarding: %v", err)
	}

	err := reg.UpsertSource(ctx, sampleSource("q3-sales"))
	var dup *errs.DuplicateNameError
	if !errors.As(err, &dup) {
		t.Fatalf("names must not be reusable after offboarding, got %v", err)
	}
}

func TestRegistry_FindMissing(t *testing.T) {
	reg := newTestRegistry(t)

	_, err := reg.FindByName(context.Background(), "ghost")
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRegistry_ListActiveInsertionOrder(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	for _, name := range []string{"alpha", "beta", "gamma"} {
		if err := reg.UpsertSource(ctx, sampleSource(name)); err != nil {
			t.Fatalf("upserting %s: %v", name, err)
		}
	}
	at := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	if err := reg.SetStatus(ctx, "beta", models.StatusOffboarded, at); err != nil {
		t.Fatalf("offboarding beta: %v", err)
	}

	active, err := reg.ListActive(ctx)
	if err != nil {
		t.Fatalf("listing active: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active sources, got %d", len(active))
	}
	if active[0].Name != "alpha" || active[1].Name != "gamma" {
		t.Errorf("insertion order not preserved: %s, %s", active[0].Name, active[1].Name)
	}
}

func TestRegistry_SetStatusStampsOffboardDate(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	if err := reg.UpsertSource(ctx, sampleSource("q3-sales")); err != nil {
		t.Fatalf("upserting source: %v", err)
	}
	at := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	if err := reg.SetStatus(ctx, "q3-sales", models.StatusOffboarded, at); err != nil {
		t.Fatalf("setting status: %v", err)
	}

	got, err := reg.FindByName(ctx, "q3-sales")
	if err != nil {
		t.Fatalf("finding source: %v", err)
	}
	if got.Status != models.StatusOffboarded {
		t.Errorf("expected OFFBOARDED, got %s", got.Status)
	}
	if got.OffboardedAt == nil || !got.OffboardedAt.Equal(at) {
		t.Errorf("offboard date not stamped: %v", got.OffboardedAt)
	}
}

func TestRegistry_SetStatusMissing(t *testing.T) {
	reg := newTestRegistry(t)

	err := reg.SetStatus(context.Background(), "ghost", models.StatusOffboarded, time.Now())
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRegistry_UpdateMetricsReplacesPair(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	if err := reg.UpsertSource(ctx, sampleSource("q3-sales")); err != nil {
		t.Fatalf("upserting source: %v", err)
	}

	metrics := []string{"Revenue", "Margin"}
	thresholds := map[string]float64{"Revenue": 60000, "Margin": 0.25}
	if err := reg.UpdateMetrics(ctx, "q3-sales", metrics, thresholds); err != nil {
		t.Fatalf("updating metrics: %v", err)
	}

	got, err := reg.FindByName(ctx, "q3-sales")
	if err != nil {
		t.Fatalf("finding source: %v", err)
	}
	if !reflect.DeepEqual(got.Metrics, metrics) {
		t.Errorf("metrics not replaced: %v", got.Metrics)
	}
	if !reflect.DeepEqual(got.Thresholds, thresholds) {
		t.Errorf("thresholds not replaced: %v", got.Thresholds)
	}
}

func TestRegistry_UpdateMetricsMissing(t *testing.T) {
	reg := newTestRegistry(t)

	err := reg.UpdateMetrics(context.Background(), "ghost", []string{"Revenue"}, map[string]float64{"Revenue": 1})
	var nf *errs.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRegistry_TouchLastSync(t *testing.T) {
	reg := newTestRegistry(t)
	ctx := context.Background()

	if err := reg.UpsertSource(ctx, sampleSource("q3-sales")); err != nil {
		t.Fatalf("upserting source: %v", err)
	}

	at := time.Date(2025, 4, 2, 8, 30, 0, 0, time.UTC)
	if !reg.TouchLastSync(ctx, "q3-sales", at) {
		t.Fatal("expected touch to succeed")
	}
	if reg.TouchLastSync(ctx, "ghost", at) {
		t.Error("touching an unknown source should report false, not fail")
	}

	got, err := reg.FindByName(ctx, "q3-sales")
	if err != nil {
		t.Fatalf("finding source: %v", err)
	}
	if got.LastSyncAt == nil || !got.LastSyncAt.Equal(at) {
		t.Errorf("last sync not stamped: %v", got.LastSyncAt)
	}
}

func TestRegistry_SurvivesReopen(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	reg, err := NewRegistry(store)
	if err != nil {
		t.Fatalf("creating registry: %v", err)
	}
	if err := reg.UpsertSource(ctx, sampleSource("q3-sales")); err != nil {
		t.Fatalf("upserting source: %v", err)
	}

	reopened, err := NewRegistry(store)
	if err != nil {
		t.Fatalf("reopening registry: %v", err)
	}
	got, err := reopened.FindByName(ctx, "q3-sales")
	if err != nil {
		t.Fatalf("finding source after reopen: %v", err)
	}
	if got.Location != "https://example.com/q3-sales.csv" {
		t.Errorf("unexpected location after reopen: %s", got.Location)
	}
}
