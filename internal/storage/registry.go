// Package storage implements the registry and event log on top of the
// tabular collaborator, one record per table row.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/tabular"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

const registryTable = "registry"

// Registry record columns, in stored order.
const (
	colSheetName = iota
	colSheetURL
	colStatus
	colKPIs
	colThresholds
	colOnboardDate
	colLastSyncDate
	colOffboardDate
)

var registryHeader = []string{
	"SheetName", "SheetURL", "Status", "KPIs",
	"Thresholds", "OnboardDate", "LastSyncDate", "OffboardDate",
}

// Registry stores source configurations in the "registry" table.
type Registry struct {
	store tabular.Store
}

// NewRegistry opens the registry table, creating it on first use.
func NewRegistry(store tabular.Store) (*Registry, error) {
	if err := store.EnsureTable(registryTable, registryHeader); err != nil {
		return nil, errs.Wrap(err, "opening registry")
	}
	return &Registry{store: store}, nil
}

// UpsertSource inserts a new entry. Names are checked against every stored
// row, offboarded ones included, so a name can never be reused.
func (r *Registry) UpsertSource(ctx context.Context, cfg models.SourceConfig) error {
	_, rows, err := r.store.ReadAll(registryTable)
	if err != nil {
		return errs.Wrap(err, "loading registry")
	}
	for _, row := range rows {
		if len(row) > colSheetName && row[colSheetName] == cfg.Name {
			return &errs.DuplicateNameError{Name: cfg.Name}
		}
	}

	record, err := encodeSource(cfg)
	if err != nil {
		return err
	}
	if err := r.store.AppendRow(registryTable, record); err != nil {
		return errs.Wrapf(err, "storing source %s", cfg.Name)
	}
	return nil
}

// FindByName returns the entry for name or a NotFoundError.
func (r *Registry) FindByName(ctx context.Context, name string) (*models.SourceConfig, error) {
	_, row, err := r.findRow(name)
	if err != nil {
		return nil, err
	}
	return decodeSource(row)
}

// ListActive returns ACTIVE entries in registry insertion order.
func (r *Registry) ListActive(ctx context.Context) ([]models.SourceConfig, error) {
	_, rows, err := r.store.ReadAll(registryTable)
	if err != nil {
		return nil, errs.Wrap(err, "loading registry")
	}

	var active []models.SourceConfig
	for _, row := range rows {
		if len(row) <= colStatus || row[colStatus] != string(models.StatusActive) {
			continue
		}
		cfg, err := decodeSource(row)
		if err != nil {
			return nil, err
		}
		active = append(active, *cfg)
	}
	return active, nil
}

// SetStatus transitions the entry's status, stamping the offboard date when
// the new status is OFFBOARDED.
func (r *Registry) SetStatus(ctx context.Context, name string, status models.SourceStatus, at time.Time) error {
	idx, _, err := r.findRow(name)
	if err != nil {
		return err
	}
	if err := r.store.UpdateCell(registryTable, idx, colStatus, string(status)); err != nil {
		return errs.Wrapf(err, "updating status for %s", name)
	}
	if status == models.StatusOffboarded {
		if err := r.store.UpdateCell(registryTable, idx, colOffboardDate, FormatTime(at)); err != nil {
			return errs.Wrapf(err, "stamping offboard date for %s", name)
		}
	}
	return nil
}

// UpdateMetrics replaces the metrics/thresholds pair for the entry.
func (r *Registry) UpdateMetrics(ctx context.Context, name string, metrics []string, thresholds map[string]float64) error {
	idx, _, err := r.findRow(name)
	if err != nil {
		return err
	}

	encoded, err := EncodeThresholds(thresholds)
	if err != nil {
		return errs.Wrapf(err, "encoding thresholds for %s", name)
	}
	if err := r.store.UpdateCell(registryTable, idx, colKPIs, EncodeMetrics(metrics)); err != nil {
		return errs.Wrapf(err, "updating metrics for %s", name)
	}
	if err := r.store.UpdateCell(registryTable, idx, colThresholds, encoded); err != nil {
		return errs.Wrapf(err, "updating thresholds for %s", name)
	}
	return nil
}

// TouchLastSync stamps the last-sync date, reporting success.
func (r *Registry) TouchLastSync(ctx context.Context, name string, at time.Time) bool {
	idx, _, err := r.findRow(name)
	if err != nil {
		return false
	}
	return r.store.UpdateCell(registryTable, idx, colLastSyncDate, FormatTime(at)) == nil
}

// findRow locates the data row for name, returning its index.
func (r *Registry) findRow(name string) (int, []string, error) {
	_, rows, err := r.store.ReadAll(registryTable)
	if err != nil {
		return 0, nil, errs.Wrap(err, "loading registry")
	}
	for i, row := range rows {
		if len(row) > colSheetName && row[colSheetName] == name {
			return i, row, nil
		}
	}
	return 0, nil, errs.SourceNotFound(name)
}

func encodeSource(cfg models.SourceConfig) ([]string, error) {
	thresholds, err := EncodeThresholds(cfg.Thresholds)
	if err != nil {
		return nil, errs.Wrapf(err, "encoding thresholds for %s", cfg.Name)
	}
	return []string{
		cfg.Name,
		cfg.Location,
		string(cfg.Status),
		EncodeMetrics(cfg.Metrics),
		thresholds,
		FormatTime(cfg.OnboardedAt),
		FormatTimePtr(cfg.LastSyncAt),
		FormatTimePtr(cfg.OffboardedAt),
	}, nil
}

func decodeSource(row []string) (*models.SourceConfig, error) {
	if len(row) < len(registryHeader) {
		return nil, fmt.Errorf("malformed registry row: %d columns, want %d", len(row), len(registryHeader))
	}

	thresholds, err := DecodeThresholds(row[colThresholds])
	if err != nil {
		return nil, errs.Wrapf(err, "decoding thresholds for %s", row[colSheetName])
	}
	onboarded, err := ParseTime(row[colOnboardDate])
	if err != nil {
		return nil, errs.Wrapf(err, "decoding onboard date for %s", row[colSheetName])
	}
	lastSync, err := ParseTimePtr(row[colLastSyncDate])
	if err != nil {
		return nil, errs.Wrapf(err, "decoding last-sync date for %s", row[colSheetName])
	}
	offboarded, err := ParseTimePtr(row[colOffboardDate])
	if err != nil {
		return nil, errs.Wrapf(err, "decoding offboard date for %s", row[colSheetName])
	}

	return &models.SourceConfig{
		Name:         row[colSheetName],
		Location:     row[colSheetURL],
		Status:       models.SourceStatus(row[colStatus]),
		Metrics:      DecodeMetrics(row[colKPIs]),
		Thresholds:   thresholds,
		OnboardedAt:  onboarded,
		LastSyncAt:   lastSync,
		OffboardedAt: offboarded,
	}, nil
}
