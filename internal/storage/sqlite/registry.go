package sqlite

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/storage"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// Registry stores source configurations in the registry table.
type Registry struct {
	db *gorm.DB
}

// NewRegistry migrates the registry table and returns a store bound to db.
func NewRegistry(db *gorm.DB) (*Registry, error) {
	if err := db.AutoMigrate(&sourceRecord{}); err != nil {
		return nil, errs.Wrap(err, "migrating registry")
	}
	return &Registry{db: db}, nil
}

// UpsertSource inserts a new entry, rejecting any name already present
// regardless of its status.
func (r *Registry) UpsertSource(ctx context.Context, cfg models.SourceConfig) error {
	record, err := encodeSource(cfg)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&sourceRecord{}).Where("sheet_name = ?", cfg.Name).Count(&count).Error; err != nil {
			return errs.Wrapf(err, "checking name %s", cfg.Name)
		}
		if count > 0 {
			return &errs.DuplicateNameError{Name: cfg.Name}
		}
		if err := tx.Create(record).Error; err != nil {
			return errs.Wrapf(err, "storing source %s", cfg.Name)
		}
		return nil
	})
}

// FindByName returns the entry for name or a NotFoundError.
func (r *Registry) FindByName(ctx context.Context, name string) (*models.SourceConfig, error) {
	var record sourceRecord
	err := r.db.WithContext(ctx).Where("sheet_name = ?", name).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.SourceNotFound(name)
	}
	if err != nil {
		return nil, errs.Wrapf(err, "loading source %s", name)
	}
	return decodeSource(record)
}

// ListActive returns ACTIVE entries in insertion order.
func (r *Registry) ListActive(ctx context.Context) ([]models.SourceConfig, error) {
	var records []sourceRecord
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(models.StatusActive)).
		Order("id asc").
		Find(&records).Error; err != nil {
		return nil, errs.Wrap(err, "listing active sources")
	}

	var active []models.SourceConfig
	for _, record := range records {
		cfg, err := decodeSource(record)
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
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireSource(tx, name); err != nil {
			return err
		}
		updates := map[string]any{"status": string(status)}
		if status == models.StatusOffboarded {
			updates["offboard_date"] = storage.FormatTime(at)
		}
		if err := tx.Model(&sourceRecord{}).Where("sheet_name = ?", name).Updates(updates).Error; err != nil {
			return errs.Wrapf(err, "updating status for %s", name)
		}
		return nil
	})
}

// UpdateMetrics replaces the metrics/thresholds pair for the entry.
func (r *Registry) UpdateMetrics(ctx context.Context, name string, metrics []string, thresholds map[string]float64) error {
	encoded, err := storage.EncodeThresholds(thresholds)
	if err != nil {
		return errs.Wrapf(err, "encoding thresholds for %s", name)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireSource(tx, name); err != nil {
			return err
		}
		updates := map[string]any{
			"kpis":       storage.EncodeMetrics(metrics),
			"thresholds": encoded,
		}
		if err := tx.Model(&sourceRecord{}).Where("sheet_name = ?", name).Updates(updates).Error; err != nil {
			return errs.Wrapf(err, "updating metrics for %s", name)
		}
		return nil
	})
}

// TouchLastSync stamps the last-sync date, reporting success.
func (r *Registry) TouchLastSync(ctx context.Context, name string, at time.Time) bool {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireSource(tx, name); err != nil {
			return err
		}
		return tx.Model(&sourceRecord{}).
			Where("sheet_name = ?", name).
			Update("last_sync_date", storage.FormatTime(at)).Error
	})
	return err == nil
}

func requireSource(tx *gorm.DB, name string) error {
	var count int64
	if err := tx.Model(&sourceRecord{}).Where("sheet_name = ?", name).Count(&count).Error; err != nil {
		return errs.Wrapf(err, "checking source %s", name)
	}
	if count == 0 {
		return errs.SourceNotFound(name)
	}
	return nil
}

func encodeSource(cfg models.SourceConfig) (*sourceRecord, error) {
	thresholds, err := storage.EncodeThresholds(cfg.Thresholds)
	if err != nil {
		return nil, errs.Wrapf(err, "encoding thresholds for %s", cfg.Name)
	}
	return &sourceRecord{
		SheetName:    cfg.Name,
		SheetURL:     cfg.Location,
		Status:       string(cfg.Status),
		KPIs:         storage.EncodeMetrics(cfg.Metrics),
		Thresholds:   thresholds,
		OnboardDate:  storage.FormatTime(cfg.OnboardedAt),
		LastSyncDate: storage.FormatTimePtr(cfg.LastSyncAt),
		OffboardDate: storage.FormatTimePtr(cfg.OffboardedAt),
	}, nil
}

func decodeSource(record sourceRecord) (*models.SourceConfig, error) {
	thresholds, err := storage.DecodeThresholds(record.Thresholds)
	if err != nil {
		return nil, errs.Wrapf(err, "decoding thresholds for %s", record.SheetName)
	}
	onboarded, err := storage.ParseTime(record.OnboardDate)
	if err != nil {
		return nil, errs.Wrapf(err, "decoding onboard date for %s", record.SheetName)
	}
	lastSync, err := storage.ParseTimePtr(record.LastSyncDate)
	if err != nil {
		return nil, errs.Wrapf(err, "decoding last-sync date for %s", record.SheetName)
	}
	offboarded, err := storage.ParseTimePtr(record.OffboardDate)
	if err != nil {
		return nil, errs.Wrapf(err, "decoding offboard date for %s", record.SheetName)
	}

	return &models.SourceConfig{
		Name:         record.SheetName,
		Location:     record.SheetURL,
		Status:       models.SourceStatus(record.Status),
		Metrics:      storage.DecodeMetrics(record.KPIs),
		Thresholds:   thresholds,
		OnboardedAt:  onboarded,
		LastSyncAt:   lastSync,
		OffboardedAt: offboarded,
	}, nil
}
