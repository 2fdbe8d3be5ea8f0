// Package tabular provides the persistent tabular collaborator: named
// tables of string cells with a fixed header row. The registry and event
// log are built on top of it.
package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store defines the operations the monitor needs from a tabular backend:
// create or open a named table, read it whole, append a row, update a
// cell, delete a row.
type Store interface {
	// EnsureTable creates the named table with the given header if it does
	// not exist yet. An existing table is left untouched.
	EnsureTable(name string, header []string) error
	// ReadAll returns the header row and all data rows in stored order.
	// A missing table reads as empty.
	ReadAll(name string) (header []string, rows [][]string, err error)
	// AppendRow appends one data row to the table.
	AppendRow(name string, row []string) error
	// UpdateCell sets a single cell, addressed by zero-based data-row and
	// column indices (the header row is not addressable).
	UpdateCell(name string, row, col int, value string) error
	// DeleteRow removes the data row at the given zero-based index.
	// Callers deleting several rows must work in descending index order.
	DeleteRow(name string, row int) error
}

// csvStore implements Store as one CSV file per table inside a directory.
type csvStore struct {
	dir string
	mu  sync.Mutex
}

// NewCSVStore creates a Store backed by CSV files under dir, creating the
// directory if needed.
func NewCSVStore(dir string) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating table directory: %w", err)
	}
	return &csvStore{dir: dir}, nil
}

func (s *csvStore) path(table string) string {
	return filepath.Join(s.dir, table+".csv")
}

// lock serializes table access against other monitor processes sharing the
// same data directory. The in-process mutex must already be held.
func (s *csvStore) lock() (func() error, error) {
	return lockFile(filepath.Join(s.dir, ".lock"))
}

// EnsureTable writes a header-only file if the table does not exist.
func (s *csvStore) EnsureTable(name string, header []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	if _, err := os.Stat(s.path(name)); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking table %s: %w", name, err)
	}
	return s.writeAll(name, header, nil)
}

// ReadAll reads the whole table. A missing file reads as an empty table.
// Reads take the exclusive lock too: writeAll truncates in place, so an
// unguarded reader could see a half-written file.
func (s *csvStore) ReadAll(name string) ([]string, [][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock()
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = unlock() }()
	return s.readAll(name)
}

func (s *csvStore) readAll(name string) ([]string, [][]string, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("opening table %s: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("reading table %s: %w", name, err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

// AppendRow appends a single record without rewriting the file.
func (s *csvStore) AppendRow(name string, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	f, err := os.OpenFile(s.path(name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening table %s for append: %w", name, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("appending to table %s: %w", name, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing table %s: %w", name, err)
	}
	return nil
}

// UpdateCell rewrites the table with one cell changed.
func (s *csvStore) UpdateCell(name string, row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	header, rows, err := s.readAll(name)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(rows) {
		return fmt.Errorf("table %s has no row %d", name, row)
	}
	if col < 0 || col >= len(rows[row]) {
		return fmt.Errorf("table %s row %d has no column %d", name, row, col)
	}
	rows[row][col] = value
	return s.writeAll(name, header, rows)
}

// DeleteRow rewrites the table without the given data row.
func (s *csvStore) DeleteRow(name string, row int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer func() { _ = unlock() }()

	header, rows, err := s.readAll(name)
	if err != nil {
		return err
	}
	if row < 0 || row >= len(rows) {
		return fmt.Errorf("table %s has no row %d", name, row)
	}
	rows = append(rows[:row], rows[row+1:]...)
	return s.writeAll(name, header, rows)
}

func (s *csvStore) writeAll(name string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("encoding table %s header: %w", name, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("encoding table %s row: %w", name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encoding table %s: %w", name, err)
	}

	if err := os.WriteFile(s.path(name), buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing table %s: %w", name, err)
	}
	return nil
}
