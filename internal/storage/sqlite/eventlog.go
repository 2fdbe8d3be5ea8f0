package sqlite

import (
	"context"
	"encoding/csv"
	"strings"

	"gorm.io/gorm"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/storage"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// EventLog stores the live event log in the events table and archived
// entries in events_archive.
type EventLog struct {
	db *gorm.DB
}

// NewEventLog migrates both event tables and returns a log bound to db.
func NewEventLog(db *gorm.DB) (*EventLog, error) {
	if err := db.AutoMigrate(&eventRecord{}, &archivedEventRecord{}); err != nil {
		return nil, errs.Wrap(err, "migrating event log")
	}
	return &EventLog{db: db}, nil
}

// Append adds one record to the live log.
func (l *EventLog) Append(ctx context.Context, event models.LogEvent) error {
	if err := l.db.WithContext(ctx).Create(encodeEvent(event)).Error; err != nil {
		return errs.Wrap(err, "appending event")
	}
	return nil
}

// QueryBySource returns the source's live entries in append order.
func (l *EventLog) QueryBySource(ctx context.Context, name string) ([]models.LogEvent, error) {
	records, err := l.liveRecords(ctx, name)
	if err != nil {
		return nil, err
	}
	return decodeEvents(records), nil
}

// QueryArchive returns the source's archived entries in archival order.
func (l *EventLog) QueryArchive(ctx context.Context, name string) ([]models.LogEvent, error) {
	query := l.db.WithContext(ctx).Order("id asc")
	if name != "" {
		query = query.Where("sheet_name = ?", name)
	}
	var records []archivedEventRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, errs.Wrap(err, "loading archive")
	}

	var events []models.LogEvent
	for _, record := range records {
		event, ok := decodeEvent(eventRecord(record))
		if !ok {
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// Summarize aggregates the entire live log.
func (l *EventLog) Summarize(ctx context.Context) (*models.EventSummary, error) {
	records, err := l.liveRecords(ctx, "")
	if err != nil {
		return nil, err
	}

	summary := &models.EventSummary{
		ByType:   make(map[string]int),
		ByStatus: make(map[string]int),
		BySource: make(map[string]int),
	}
	for _, e := range decodeEvents(records) {
		summary.Total++
		summary.ByType[e.EventType]++
		summary.ByStatus[e.Status]++
		summary.BySource[e.SourceName]++
	}
	return summary, nil
}

// Purge deletes the source's live entries, or all live entries when name is
// empty, and returns the count deleted.
func (l *EventLog) Purge(ctx context.Context, name string) (int, error) {
	db := l.db.WithContext(ctx)
	var result *gorm.DB
	if name == "" {
		result = db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&eventRecord{})
	} else {
		result = db.Where("sheet_name = ?", name).Delete(&eventRecord{})
	}
	if result.Error != nil {
		return 0, errs.Wrap(result.Error, "purging events")
	}
	return int(result.RowsAffected), nil
}

// Archive moves the source's live entries into the archive table, keeping
// their original order, and returns the count moved.
func (l *EventLog) Archive(ctx context.Context, name string) (int, error) {
	moved := 0
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var records []eventRecord
		if err := tx.Where("sheet_name = ?", name).Order("id asc").Find(&records).Error; err != nil {
			return errs.Wrapf(err, "loading events for %s", name)
		}
		if len(records) == 0 {
			return nil
		}

		copies := make([]archivedEventRecord, len(records))
		for i, record := range records {
			record.ID = 0
			copies[i] = archivedEventRecord(record)
		}
		if err := tx.Create(&copies).Error; err != nil {
			return errs.Wrapf(err, "archiving events for %s", name)
		}
		if err := tx.Where("sheet_name = ?", name).Delete(&eventRecord{}).Error; err != nil {
			return errs.Wrapf(err, "deleting archived events for %s", name)
		}
		moved = len(records)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

// ExportCSV serializes the header plus matching live entries, in live-log
// order, as quoted comma-separated text.
func (l *EventLog) ExportCSV(ctx context.Context, name string) (string, error) {
	events, err := l.QueryBySource(ctx, name)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(storage.EventHeader); err != nil {
		return "", errs.Wrap(err, "exporting events")
	}
	for _, e := range events {
		if err := w.Write(storage.EncodeEventRecord(e)); err != nil {
			return "", errs.Wrap(err, "exporting events")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", errs.Wrap(err, "exporting events")
	}
	return sb.String(), nil
}

func (l *EventLog) liveRecords(ctx context.Context, name string) ([]eventRecord, error) {
	query := l.db.WithContext(ctx).Order("id asc")
	if name != "" {
		query = query.Where("sheet_name = ?", name)
	}
	var records []eventRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, errs.Wrap(err, "loading event log")
	}
	return records, nil
}

func encodeEvent(e models.LogEvent) *eventRecord {
	return &eventRecord{
		Timestamp:  storage.FormatTime(e.Timestamp),
		SheetName:  e.SourceName,
		ErrorType:  e.EventType,
		ErrorMsg:   e.Message,
		Status:     e.Status,
		Resolution: e.Resolution,
	}
}

func decodeEvent(record eventRecord) (models.LogEvent, bool) {
	ts, err := storage.ParseTime(record.Timestamp)
	if err != nil {
		return models.LogEvent{}, false
	}
	return models.LogEvent{
		Timestamp:  ts,
		SourceName: record.SheetName,
		EventType:  record.ErrorType,
		Message:    record.ErrorMsg,
		Status:     record.Status,
		Resolution: record.Resolution,
	}, true
}

func decodeEvents(records []eventRecord) []models.LogEvent {
	var events []models.LogEvent
	for _, record := range records {
		event, ok := decodeEvent(record)
		if !ok {
			continue
		}
		events = append(events, event)
	}
	return events
}
