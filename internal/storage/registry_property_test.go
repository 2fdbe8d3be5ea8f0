package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"pgregory.net/rapid"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/tabular"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

func genAlphaString(t *rapid.T, label string, minLen, maxLen int) string {
	letters := "abcdefghijklmnopqrstuvwxyz"
	n := rapid.IntRange(minLen, maxLen).Draw(t, label+"Len")
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[rapid.IntRange(0, len(letters)-1).Draw(t, label+"Char")]
	}
	return string(b)
}

// genMetricName produces column-style names, sometimes two words. Commas are
// excluded: the KPIs column is comma-joined, so metric names cannot carry
// them (enforced at onboarding).
func genMetricName(t *rapid.T, label string) string {
	name := genAlphaString(t, label, 3, 10)
	if rapid.Bool().Draw(t, label+"TwoWords") {
		name += " " + genAlphaString(t, label+"Tail", 3, 8)
	}
	return name
}

func genTimestamp(t *rapid.T, label string) time.Time {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	offset := rapid.IntRange(0, 365*24*3600).Draw(t, label+"Offset")
	return base.Add(time.Duration(offset) * time.Second)
}

func genSourceConfig(t *rapid.T, label string) models.SourceConfig {
	nMetrics := rapid.IntRange(1, 5).Draw(t, label+"NMetrics")
	seen := make(map[string]bool)
	var metrics []string
	thresholds := make(map[string]float64)
	for i := 0; i < nMetrics; i++ {
		m := genMetricName(t, fmt.Sprintf("%sMetric%d", label, i))
		if seen[m] {
			continue
		}
		seen[m] = true
		metrics = append(metrics, m)
		thresholds[m] = rapid.Float64Range(0.01, 1e9).Draw(t, fmt.Sprintf("%sThreshold%d", label, i))
	}
	return models.SourceConfig{
		Name:        genAlphaString(t, label+"Name", 3, 16),
		Location:    "https://example.com/" + genAlphaString(t, label+"Loc", 3, 12) + ".csv",
		Status:      models.StatusActive,
		Metrics:     metrics,
		Thresholds:  thresholds,
		OnboardedAt: genTimestamp(t, label+"Onboarded"),
	}
}

// Feature: sheet-monitor, Property 4: Registry Round-Trip
func TestRegistryRoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "nSources")
		byName := make(map[string]models.SourceConfig)
		var order []string
		for i := 0; i < n; i++ {
			cfg := genSourceConfig(t, fmt.Sprintf("src%d", i))
			if _, dup := byName[cfg.Name]; dup {
				continue
			}
			byName[cfg.Name] = cfg
			order = append(order, cfg.Name)
		}

		dir, err := os.MkdirTemp("", "registry-prop-test-*")
		if err != nil {
			t.Fatal(err)
		}
		defer os.RemoveAll(dir)

		store, err := tabular.NewCSVStore(dir)
		if err != nil {
			t.Fatal(err)
		}
		reg, err := NewRegistry(store)
		if err != nil {
			t.Fatal(err)
		}

		ctx := context.Background()
		for _, name := range order {
			if err := reg.UpsertSource(ctx, byName[name]); err != nil {
				t.Fatal(err)
			}
		}

		for _, name := range order {
			orig := byName[name]
			got, err := reg.FindByName(ctx, name)
			if err != nil {
				t.Fatalf("source %s not found after round-trip: %v", name, err)
			}
			if got.Location != orig.Location {
				t.Fatalf("source %s location mismatch: %q vs %q", name, got.Location, orig.Location)
			}
			if len(got.Metrics) != len(orig.Metrics) {
				t.Fatalf("source %s metrics length mismatch: %d vs %d", name, len(got.Metrics), len(orig.Metrics))
			}
			for i, m := range orig.Metrics {
				if got.Metrics[i] != m {
					t.Fatalf("source %s metric %d mismatch: %q vs %q", name, i, got.Metrics[i], m)
				}
				if got.Thresholds[m] != orig.Thresholds[m] {
					t.Fatalf("source %s threshold %q mismatch: %v vs %v", name, m, got.Thresholds[m], orig.Thresholds[m])
				}
			}
			if !got.OnboardedAt.Equal(orig.OnboardedAt) {
				t.Fatalf("source %s onboard date mismatch: %v vs %v", name, got.OnboardedAt, orig.OnboardedAt)
			}
		}

		active, err := reg.ListActive(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(active) != len(order) {
			t.Fatalf("expected %d active sources, got %d", len(order), len(active))
		}
		for i, name := range order {
			if active[i].Name != name {
				t.Fatalf("insertion order broken at %d: %q vs %q", i, active[i].Name, name)
			}
		}
	})
}

// Feature: sheet-monitor, Property 5: Name Uniqueness Across Lifecycle
func TestRegistryNameNeverReusableProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cfg := genSourceConfig(t, "src")
		offboardFirst := rapid.Bool().Draw(t, "offboardFirst")

		dir, err := os.MkdirTemp("", "registry-unique-test-*")
		if err != nil {
			t.Fatal(err)
		}
		defer os.RemoveAll(dir)

		store, err := tabular.NewCSVStore(dir)
		if err != nil {
			t.Fatal(err)
		}
		reg, err := NewRegistry(store)
		if err != nil {
			t.Fatal(err)
		}

		ctx := context.Background()
		if err := reg.UpsertSource(ctx, cfg); err != nil {
			t.Fatal(err)
		}
		if offboardFirst {
			if err := reg.SetStatus(ctx, cfg.Name, models.StatusOffboarded, genTimestamp(t, "offboardAt")); err != nil {
				t.Fatal(err)
			}
		}

		err = reg.UpsertSource(ctx, cfg)
		var dup *errs.DuplicateNameError
		if !errors.As(err, &dup) {
			t.Fatalf("expected DuplicateNameError (offboarded=%v), got %v", offboardFirst, err)
		}
	})
}
