// Package errs defines the error taxonomy shared by the registry, fetcher,
// event log, and lifecycle layers.
package errs

import (
	"fmt"
	"strconv"
)

// Wrap adds context and preserves the error chain (errors.Is/As works).
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf adds formatted context and preserves the error chain.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	// Append the original err as the last arg for %w.
	args = append(args, err)
	return fmt.Errorf(format+": %w", args...)
}

// DuplicateNameError reports an attempt to register a source under a name
// already present in the registry. Names are never reusable, even after the
// original source has been offboarded.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("source %q is already registered; names cannot be reused", e.Name)
}

// NotFoundError reports a lookup miss for a source, or for a metric within
// a source when Source is set.
type NotFoundError struct {
	Kind   string
	Name   string
	Source string
}

func (e *NotFoundError) Error() string {
	if e.Kind == "metric" {
		return fmt.Sprintf("metric %q not found on source %q", e.Name, e.Source)
	}
	return fmt.Sprintf("source %q not found", e.Name)
}

// SourceNotFound returns a NotFoundError for a missing source.
func SourceNotFound(name string) *NotFoundError {
	return &NotFoundError{Kind: "source", Name: name}
}

// MetricNotFound returns a NotFoundError for a metric absent from a source.
func MetricNotFound(source, metric string) *NotFoundError {
	return &NotFoundError{Kind: "metric", Name: metric, Source: source}
}

// AlreadyOffboardedError reports an offboarding attempt on a source that has
// already been offboarded.
type AlreadyOffboardedError struct {
	Name string
}

func (e *AlreadyOffboardedError) Error() string {
	return fmt.Sprintf("source %q is already offboarded", e.Name)
}

// MissingColumnError names the first required metric column absent from a
// source's header row, detected during onboarding validation.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q not found in source header row", e.Column)
}

// SourceUnreachableError reports a source whose backing table could not be
// read at all.
type SourceUnreachableError struct {
	Location string
	Err      error
}

func (e *SourceUnreachableError) Error() string {
	return fmt.Sprintf("source at %s is unreachable: %v", e.Location, e.Err)
}

func (e *SourceUnreachableError) Unwrap() error { return e.Err }

// InvalidThresholdError reports a zero or negative threshold, which the
// severity formula cannot classify. Rejected at onboarding time.
type InvalidThresholdError struct {
	Metric    string
	Threshold float64
}

func (e *InvalidThresholdError) Error() string {
	return fmt.Sprintf("invalid threshold %s for metric %q: must be greater than zero",
		strconv.FormatFloat(e.Threshold, 'f', -1, 64), e.Metric)
}
