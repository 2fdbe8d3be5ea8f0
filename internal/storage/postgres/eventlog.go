package postgres

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/storage"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

const eventColumns = "timestamp, sheet_name, error_type, error_message, status, resolution"

// EventLog stores the live event log in the events table and archived
// entries in events_archive.
type EventLog struct {
	db *DB
}

func NewEventLog(db *DB) *EventLog { return &EventLog{db: db} }

// Append adds one record to the live log.
func (l *EventLog) Append(ctx context.Context, event models.LogEvent) error {
	_, err := l.db.Pool.Exec(ctx,
		"INSERT INTO events ("+eventColumns+") VALUES ($1,$2,$3,$4,$5,$6)",
		storage.FormatTime(event.Timestamp),
		event.SourceName,
		event.EventType,
		event.Message,
		event.Status,
		event.Resolution,
	)
	if err != nil {
		return errs.Wrap(err, "appending event")
	}
	return nil
}

// QueryBySource returns the source's live entries in append order. An empty
// name returns the whole log.
func (l *EventLog) QueryBySource(ctx context.Context, name string) ([]models.LogEvent, error) {
	return l.queryEvents(ctx, "events", name)
}

// QueryArchive returns the source's archived entries in archival order.
func (l *EventLog) QueryArchive(ctx context.Context, name string) ([]models.LogEvent, error) {
	return l.queryEvents(ctx, "events_archive", name)
}

// Summarize aggregates the entire live log.
func (l *EventLog) Summarize(ctx context.Context) (*models.EventSummary, error) {
	summary := &models.EventSummary{
		ByType:   make(map[string]int),
		ByStatus: make(map[string]int),
		BySource: make(map[string]int),
	}

	var total int64
	if err := l.db.Pool.QueryRow(ctx, "SELECT COUNT(*)::bigint FROM events").Scan(&total); err != nil {
		return nil, errs.Wrap(err, "counting events")
	}
	summary.Total = int(total)

	groups := []struct {
		column string
		into   map[string]int
	}{
		{"error_type", summary.ByType},
		{"status", summary.ByStatus},
		{"sheet_name", summary.BySource},
	}
	for _, g := range groups {
		if err := l.countBy(ctx, g.column, g.into); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

// Purge deletes the source's live entries, or all live entries when name is
// empty, and returns the count deleted.
func (l *EventLog) Purge(ctx context.Context, name string) (int, error) {
	sql := "DELETE FROM events"
	args := []any{}
	if name != "" {
		sql += " WHERE sheet_name = $1"
		args = append(args, name)
	}

	ct, err := l.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, errs.Wrap(err, "purging events")
	}
	return int(ct.RowsAffected()), nil
}

// Archive moves the source's live entries into the archive table, keeping
// their original order, and returns the count moved.
func (l *EventLog) Archive(ctx context.Context, name string) (int, error) {
	tx, err := l.db.Pool.Begin(ctx)
	if err != nil {
		return 0, errs.Wrap(err, "beginning archive")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx,
		"INSERT INTO events_archive ("+eventColumns+") SELECT "+eventColumns+" FROM events WHERE sheet_name = $1 ORDER BY id ASC",
		name)
	if err != nil {
		return 0, errs.Wrapf(err, "archiving events for %s", name)
	}
	if _, err := tx.Exec(ctx, "DELETE FROM events WHERE sheet_name = $1", name); err != nil {
		return 0, errs.Wrapf(err, "deleting archived events for %s", name)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, errs.Wrap(err, "committing archive")
	}
	return int(ct.RowsAffected()), nil
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

func (l *EventLog) queryEvents(ctx context.Context, table, name string) ([]models.LogEvent, error) {
	sql := "SELECT " + eventColumns + " FROM " + table
	args := []any{}
	if name != "" {
		sql += " WHERE sheet_name = $1"
		args = append(args, name)
	}
	sql += " ORDER BY id ASC"

	rows, err := l.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errs.Wrapf(err, "loading %s", table)
	}
	defer rows.Close()

	var events []models.LogEvent
	for rows.Next() {
		var ts, source, eventType, message, status, resolution string
		if err := rows.Scan(&ts, &source, &eventType, &message, &status, &resolution); err != nil {
			return nil, errs.Wrap(err, "scanning event")
		}
		parsed, err := storage.ParseTime(ts)
		if err != nil {
			continue
		}
		events = append(events, models.LogEvent{
			Timestamp:  parsed,
			SourceName: source,
			EventType:  eventType,
			Message:    message,
			Status:     status,
			Resolution: resolution,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Wrapf(err, "loading %s", table)
	}
	return events, nil
}

func (l *EventLog) countBy(ctx context.Context, column string, into map[string]int) error {
	rows, err := l.db.Pool.Query(ctx, fmt.Sprintf("SELECT %s, COUNT(*)::bigint FROM events GROUP BY 1", column))
	if err != nil {
		return errs.Wrapf(err, "counting by %s", column)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return errs.Wrapf(err, "counting by %s", column)
		}
		into[key] = int(count)
	}
	return rows.Err()
}
