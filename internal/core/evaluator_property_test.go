package core

import (
	"context"
	"fmt"
	"strconv"
	"testing"

	"pgregory.net/rapid"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// Feature: sheet-monitor, Property 9: Evaluation Isolation
// A batch run checks every active source. Failing fetches are reported in
// the summary and logged as events without aborting the run, and only
// successfully fetched sources get their sync time advanced.
func TestProperty_EvaluationIsolation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		reg := newFakeRegistry()
		log := newFakeEventLog()
		fetch := newFakeFetcher()
		ctx := context.Background()

		n := rapid.IntRange(2, 6).Draw(rt, "sources")
		failing := make(map[string]bool, n)
		wantCounts := make(map[string]int, n)
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("source-%d", i)
			loc := fmt.Sprintf("loc-%d", i)
			cfg := activeSource(name, loc, []string{"Revenue"}, map[string]float64{"Revenue": 50000})
			if err := reg.UpsertSource(ctx, cfg); err != nil {
				t.Fatalf("seeding registry: %v", err)
			}
			if rapid.Bool().Draw(rt, fmt.Sprintf("fail-%d", i)) {
				failing[name] = true
				fetch.fail[loc] = true
				continue
			}
			k := rapid.IntRange(0, 3).Draw(rt, fmt.Sprintf("violations-%d", i))
			rows := make([]models.MetricRow, 0, k+1)
			for j := 0; j < k; j++ {
				rows = append(rows, models.MetricRow{
					Ref:    strconv.Itoa(j + 2),
					Values: map[string]float64{"Revenue": 10000},
				})
			}
			rows = append(rows, models.MetricRow{
				Ref:    strconv.Itoa(k + 2),
				Values: map[string]float64{"Revenue": 60000},
			})
			fetch.rows[loc] = rows
			wantCounts[name] = k
		}

		summary, err := NewEvaluator(reg, log, fetch, discardLogger()).EvaluateAll(ctx)
		if err != nil {
			t.Fatalf("the batch must always complete: %v", err)
		}
		if summary.Checked != n {
			t.Fatalf("checked %d sources, want %d", summary.Checked, n)
		}

		wantTotal := 0
		for _, k := range wantCounts {
			wantTotal += k
		}
		if summary.Total != wantTotal {
			t.Fatalf("total violations %d, want %d", summary.Total, wantTotal)
		}

		gotFailures := make(map[string]bool, len(summary.Failures))
		for _, f := range summary.Failures {
			gotFailures[f.SourceName] = true
		}
		if len(gotFailures) != len(failing) {
			t.Fatalf("failures %v, want %v", gotFailures, failing)
		}
		for name := range failing {
			if !gotFailures[name] {
				t.Fatalf("failures %v missing %s", gotFailures, name)
			}
		}

		gotCounts := make(map[string]int, len(summary.Sources))
		for _, s := range summary.Sources {
			gotCounts[s.SourceName] = s.Count
		}
		for name, want := range wantCounts {
			if want == 0 {
				if _, ok := gotCounts[name]; ok {
					t.Fatalf("source %s has no violations but appears in the summary", name)
				}
				continue
			}
			if gotCounts[name] != want {
				t.Fatalf("source %s reported %d violations, want %d", name, gotCounts[name], want)
			}
		}

		for i := 0; i < n; i++ {
			name := fmt.Sprintf("source-%d", i)
			cfg, err := reg.FindByName(ctx, name)
			if err != nil {
				t.Fatalf("finding %s: %v", name, err)
			}
			stamped := cfg.LastSyncAt != nil
			if stamped == failing[name] {
				t.Fatalf("sync stamped=%v for %s, failing=%v", stamped, name, failing[name])
			}
		}

		all, err := log.QueryBySource(ctx, "")
		if err != nil {
			t.Fatalf("querying events: %v", err)
		}
		fetchFailures := 0
		for _, e := range all {
			if e.EventType == models.EventFetchFailure {
				fetchFailures++
			}
		}
		if fetchFailures != len(failing) {
			t.Fatalf("recorded %d fetch failure events, want %d", fetchFailures, len(failing))
		}
	})
}
