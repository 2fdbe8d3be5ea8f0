package storage

import (
	"context"
	"encoding/csv"
	"strings"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/tabular"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

const (
	eventsTable  = "events"
	archiveTable = "events_archive"
)

// Event record columns, in stored order.
const (
	evColTimestamp = iota
	evColSheetName
	evColErrorType
	evColErrorMessage
	evColStatus
	evColResolution
)

// EventLog stores the live event log in the "events" table and archived
// entries in "events_archive".
type EventLog struct {
	store tabular.Store
}

// NewEventLog opens the live events table, creating it on first use. The
// archive table is created lazily, the first time anything is archived.
func NewEventLog(store tabular.Store) (*EventLog, error) {
	if err := store.EnsureTable(eventsTable, EventHeader); err != nil {
		return nil, errs.Wrap(err, "opening event log")
	}
	return &EventLog{store: store}, nil
}

// Append adds one record to the live log.
func (l *EventLog) Append(ctx context.Context, event models.LogEvent) error {
	if err := l.store.AppendRow(eventsTable, EncodeEventRecord(event)); err != nil {
		return errs.Wrap(err, "appending event")
	}
	return nil
}

// QueryBySource returns the source's live entries in append order.
func (l *EventLog) QueryBySource(ctx context.Context, name string) ([]models.LogEvent, error) {
	return l.query(eventsTable, name)
}

// QueryArchive returns the source's archived entries in archival order.
func (l *EventLog) QueryArchive(ctx context.Context, name string) ([]models.LogEvent, error) {
	return l.query(archiveTable, name)
}

func (l *EventLog) query(table, name string) ([]models.LogEvent, error) {
	_, rows, err := l.store.ReadAll(table)
	if err != nil {
		return nil, errs.Wrap(err, "loading event log")
	}

	var events []models.LogEvent
	for _, row := range rows {
		event, ok := decodeEvent(row)
		if !ok {
			continue // skip malformed rows
		}
		if name == "" || event.SourceName == name {
			events = append(events, event)
		}
	}
	return events, nil
}

// Summarize aggregates the entire live log.
func (l *EventLog) Summarize(ctx context.Context) (*models.EventSummary, error) {
	events, err := l.query(eventsTable, "")
	if err != nil {
		return nil, err
	}

	summary := &models.EventSummary{
		ByType:   make(map[string]int),
		ByStatus: make(map[string]int),
		BySource: make(map[string]int),
	}
	for _, e := range events {
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
	indices, _, err := l.matchRows(name)
	if err != nil {
		return 0, err
	}
	if err := l.deleteRows(indices); err != nil {
		return 0, err
	}
	return len(indices), nil
}

// Archive moves the source's live entries into the archive table, keeping
// their original order, and returns the count moved. Zero entries is a no-op.
func (l *EventLog) Archive(ctx context.Context, name string) (int, error) {
	indices, rows, err := l.matchRows(name)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	if err := l.store.EnsureTable(archiveTable, EventHeader); err != nil {
		return 0, errs.Wrap(err, "opening archive")
	}
	for _, row := range rows {
		if err := l.store.AppendRow(archiveTable, row); err != nil {
			return 0, errs.Wrapf(err, "archiving events for %s", name)
		}
	}
	if err := l.deleteRows(indices); err != nil {
		return 0, err
	}
	return len(rows), nil
}

// ExportCSV serializes the header plus matching live entries, in live-log
// order, as quoted comma-separated text.
func (l *EventLog) ExportCSV(ctx context.Context, name string) (string, error) {
	_, rows, err := l.store.ReadAll(eventsTable)
	if err != nil {
		return "", errs.Wrap(err, "loading event log")
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(EventHeader); err != nil {
		return "", errs.Wrap(err, "exporting events")
	}
	for _, row := range rows {
		if name != "" && (len(row) <= evColSheetName || row[evColSheetName] != name) {
			continue
		}
		if err := w.Write(row); err != nil {
			return "", errs.Wrap(err, "exporting events")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", errs.Wrap(err, "exporting events")
	}
	return sb.String(), nil
}

// matchRows returns the indices and raw rows of live entries for name, or
// of every live entry when name is empty.
func (l *EventLog) matchRows(name string) ([]int, [][]string, error) {
	_, rows, err := l.store.ReadAll(eventsTable)
	if err != nil {
		return nil, nil, errs.Wrap(err, "loading event log")
	}

	var indices []int
	var matched [][]string
	for i, row := range rows {
		if name == "" || (len(row) > evColSheetName && row[evColSheetName] == name) {
			indices = append(indices, i)
			matched = append(matched, row)
		}
	}
	return indices, matched, nil
}

// deleteRows removes rows in descending index order so earlier deletions do
// not shift later targets.
func (l *EventLog) deleteRows(indices []int) error {
	for i := len(indices) - 1; i >= 0; i-- {
		if err := l.store.DeleteRow(eventsTable, indices[i]); err != nil {
			return errs.Wrap(err, "deleting events")
		}
	}
	return nil
}

func decodeEvent(row []string) (models.LogEvent, bool) {
	if len(row) < len(EventHeader) {
		return models.LogEvent{}, false
	}
	ts, err := ParseTime(row[evColTimestamp])
	if err != nil {
		return models.LogEvent{}, false
	}
	return models.LogEvent{
		Timestamp:  ts,
		SourceName: row[evColSheetName],
		EventType:  row[evColErrorType],
		Message:    row[evColErrorMessage],
		Status:     row[evColStatus],
		Resolution: row[evColResolution],
	}, true
}
