// Package fetcher reads current metric values from external tabular sources.
// A source location is either an HTTP(S) URL serving CSV or a local CSV file
// path.
package fetcher

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/miguelmontanez/google-sheets-dashboard-automation/internal/errs"
	"github.com/miguelmontanez/google-sheets-dashboard-automation/pkg/models"
)

// CSVFetcher resolves metric columns against a source's header row and
// returns only cells that parse as numbers. Sources that cannot be read,
// or whose body cannot be parsed, fail with SourceUnreachableError.
type CSVFetcher struct {
	client *http.Client
}

// Option configures CSVFetcher behavior.
type Option func(*CSVFetcher)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *CSVFetcher) {
		f.client.Timeout = d
	}
}

func New(opts ...Option) *CSVFetcher {
	f := &CSVFetcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchRows returns every data row of the source with the requested metrics
// resolved to numeric values. Metrics absent from the header, non-numeric
// cells, and empty cells are skipped rather than failing the fetch. Row
// references count the header as row 1, so the first data row is "2".
func (f *CSVFetcher) FetchRows(ctx context.Context, location string, metrics []string) ([]models.MetricRow, error) {
	header, records, err := f.read(ctx, location)
	if err != nil {
		return nil, err
	}

	columns := resolveColumns(header, metrics)
	rows := make([]models.MetricRow, 0, len(records))
	for i, record := range records {
		values := make(map[string]float64)
		for metric, col := range columns {
			if col >= len(record) {
				continue
			}
			if v, kind := parseCell(record[col]); kind == cellNumeric {
				values[metric] = v
			}
		}
		rows = append(rows, models.MetricRow{
			Ref:    strconv.Itoa(i + 2),
			Values: values,
		})
	}
	return rows, nil
}

// ValidateColumns checks that every requested metric appears in the source's
// header row, failing with a MissingColumnError naming the first absent one.
func (f *CSVFetcher) ValidateColumns(ctx context.Context, location string, metrics []string) error {
	header, _, err := f.read(ctx, location)
	if err != nil {
		return err
	}

	present := make(map[string]bool, len(header))
	for _, name := range header {
		present[strings.TrimSpace(name)] = true
	}
	for _, metric := range metrics {
		if !present[metric] {
			return &errs.MissingColumnError{Column: metric}
		}
	}
	return nil
}

func (f *CSVFetcher) read(ctx context.Context, location string) ([]string, [][]string, error) {
	body, err := f.open(ctx, location)
	if err != nil {
		return nil, nil, err
	}
	defer body.Close()

	reader := csv.NewReader(body)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, &errs.SourceUnreachableError{Location: location, Err: err}
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

func (f *CSVFetcher) open(ctx context.Context, location string) (io.ReadCloser, error) {
	if !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://") {
		file, err := os.Open(location)
		if err != nil {
			return nil, &errs.SourceUnreachableError{Location: location, Err: err}
		}
		return file, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, &errs.SourceUnreachableError{Location: location, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &errs.SourceUnreachableError{Location: location, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, &errs.SourceUnreachableError{Location: location, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}
	return resp.Body, nil
}

// resolveColumns maps each requested metric to its header position. Metrics
// absent from the header are left out so one missing column never fails the
// whole fetch.
func resolveColumns(header []string, metrics []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	columns := make(map[string]int, len(metrics))
	for _, metric := range metrics {
		if i, ok := index[metric]; ok {
			columns[metric] = i
		}
	}
	return columns
}

type cellKind int

const (
	cellEmpty cellKind = iota
	cellNumeric
	cellNonNumeric
)

// parseCell classifies one raw cell. Spreadsheet exports format numbers with
// grouping commas and currency signs, so those still count as numeric.
func parseCell(raw string) (float64, cellKind) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, cellEmpty
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, cellNonNumeric
	}
	return v, cellNumeric
}
