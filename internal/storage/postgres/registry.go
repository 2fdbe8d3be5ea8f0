package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/storage"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

const registryColumns = "sheet_name, sheet_url, status, kpis, thresholds, onboard_date, last_sync_date, offboard_date"

// Registry stores source configurations in the registry table.
type Registry struct {
	db *DB
}

func NewRegistry(db *DB) *Registry { return &Registry{db: db} }

// UpsertSource inserts a new entry, rejecting any name already present
// regardless of its status.
func (r *Registry) UpsertSource(ctx context.Context, cfg models.SourceConfig) error {
	thresholds, err := storage.EncodeThresholds(cfg.Thresholds)
	if err != nil {
		return errs.Wrapf(err, "encoding thresholds for %s", cfg.Name)
	}

	sql := "INSERT INTO registry (" + registryColumns + ") VALUES ($1,$2,$3,$4,$5,$6,$7,$8) ON CONFLICT (sheet_name) DO NOTHING"
	ct, err := r.db.Pool.Exec(ctx, sql,
		cfg.Name,
		cfg.Location,
		string(cfg.Status),
		storage.EncodeMetrics(cfg.Metrics),
		thresholds,
		storage.FormatTime(cfg.OnboardedAt),
		storage.FormatTimePtr(cfg.LastSyncAt),
		storage.FormatTimePtr(cfg.OffboardedAt),
	)
	if err != nil {
		return errs.Wrapf(err, "storing source %s", cfg.Name)
	}
	if ct.RowsAffected() == 0 {
		return &errs.DuplicateNameError{Name: cfg.Name}
	}
	return nil
}

// FindByName returns the entry for name or a NotFoundError.
func (r *Registry) FindByName(ctx context.Context, name string) (*models.SourceConfig, error) {
	row := r.db.Pool.QueryRow(ctx, "SELECT "+registryColumns+" FROM registry WHERE sheet_name = $1", name)
	var rec sourceRow
	if err := rec.scan(row); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.SourceNotFound(name)
		}
		return nil, errs.Wrapf(err, "loading source %s", name)
	}
	return rec.decode()
}

// ListActive returns ACTIVE entries in insertion order.
func (r *Registry) ListActive(ctx context.Context) ([]models.SourceConfig, error) {
	rows, err := r.db.Pool.Query(ctx,
		"SELECT "+registryColumns+" FROM registry WHERE status = $1 ORDER BY id ASC",
		string(models.StatusActive))
	if err != nil {
		return nil, errs.Wrap(err, "listing active sources")
	}
	defer rows.Close()

	var active []models.SourceConfig
	for rows.Next() {
		var rec sourceRow
		if err := rec.scan(rows); err != nil {
			return nil, errs.Wrap(err, "scanning source")
		}
		cfg, err := rec.decode()
		if err != nil {
			return nil, err
		}
		active = append(active, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrap(err, "listing active sources")
	}
	return active, nil
}

// SetStatus transitions the entry's status, stamping the offboard date when
// the new status is OFFBOARDED.
func (r *Registry) SetStatus(ctx context.Context, name string, status models.SourceStatus, at time.Time) error {
	sql := "UPDATE registry SET status = $1 WHERE sheet_name = $2"
	args := []any{string(status), name}
	if status == models.StatusOffboarded {
		sql = "UPDATE registry SET status = $1, offboard_date = $2 WHERE sheet_name = $3"
		args = []any{string(status), storage.FormatTime(at), name}
	}

	ct, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return errs.Wrapf(err, "updating status for %s", name)
	}
	if ct.RowsAffected() == 0 {
		return errs.SourceNotFound(name)
	}
	return nil
}

// UpdateMetrics replaces the metrics/thresholds pair for the entry.
func (r *Registry) UpdateMetrics(ctx context.Context, name string, metrics []string, thresholds map[string]float64) error {
	encoded, err := storage.EncodeThresholds(thresholds)
	if err != nil {
		return errs.Wrapf(err, "encoding thresholds for %s", name)
	}

	ct, err := r.db.Pool.Exec(ctx,
		"UPDATE registry SET kpis = $1, thresholds = $2 WHERE sheet_name = $3",
		storage.EncodeMetrics(metrics), encoded, name)
	if err != nil {
		return errs.Wrapf(err, "updating metrics for %s", name)
	}
	if ct.RowsAffected() == 0 {
		return errs.SourceNotFound(name)
	}
	return nil
}

// TouchLastSync stamps the last-sync date, reporting success.
func (r *Registry) TouchLastSync(ctx context.Context, name string, at time.Time) bool {
	ct, err := r.db.Pool.Exec(ctx,
		"UPDATE registry SET last_sync_date = $1 WHERE sheet_name = $2",
		storage.FormatTime(at), name)
	return err == nil && ct.RowsAffected() == 1
}

// sourceRow carries one registry row in its stored string form.
type sourceRow struct {
	name, location, status  string
	kpis, thresholds        string
	onboard, sync, offboard string
}

func (s *sourceRow) scan(row pgx.Row) error {
	return row.Scan(&s.name, &s.location, &s.status, &s.kpis, &s.thresholds, &s.onboard, &s.sync, &s.offboard)
}

func (s sourceRow) decode() (*models.SourceConfig, error) {
	thresholds, err := storage.DecodeThresholds(s.thresholds)
	if err != nil {
		return nil, errs.Wrapf(err, "decoding thresholds for %s", s.name)
	}
	onboarded, err := storage.ParseTime(s.onboard)
	if err != nil {
		return nil, errs.Wrapf(err, "decoding onboard date for %s", s.name)
	}
	lastSync, err := storage.ParseTimePtr(s.sync)
	if err != nil {
		return nil, errs.Wrapf(err, "decoding last-sync date for %s", s.name)
	}
	offboarded, err := storage.ParseTimePtr(s.offboard)
	if err != nil {
		return nil, errs.Wrapf(err, "decoding offboard date for %s", s.name)
	}

	return &models.SourceConfig{
		Name:         s.name,
		Location:     s.location,
		Status:       models.SourceStatus(s.status),
		Metrics:      storage.DecodeMetrics(s.kpis),
		Thresholds:   thresholds,
		OnboardedAt:  onboarded,
		LastSyncAt:   lastSync,
		OffboardedAt: offboarded,
	}, nil
}
