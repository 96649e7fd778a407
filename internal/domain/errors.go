package domain

import (
	"errors"
	"fmt"
)

// FetchErrorKind separates transport failures from remote status failures.
type FetchErrorKind int

const (
	// FetchNetwork covers connection refused, DNS failures and timeouts.
	FetchNetwork FetchErrorKind = iota + 1
	// FetchHTTPStatus covers any response outside the 2xx range.
	FetchHTTPStatus
)

func (k FetchErrorKind) String() string {
	switch k {
	case FetchNetwork:
		return "network"
	case FetchHTTPStatus:
		return "http_status"
	default:
		return "unknown"
	}
}

// FetchError reports a failed retrieval of a remote dataset.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	StatusCode int // set when Kind is FetchHTTPStatus
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == FetchHTTPStatus {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports a malformed delimited document.
type ParseError struct {
	Line int // 1-based; 0 when not attributable to a line
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse dataset: line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("parse dataset: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports a required column that is absent.
type SchemaError struct {
	Field string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing %s column", e.Field)
}

// TimestampError reports a time value that no accepted layout could parse.
type TimestampError struct {
	Row   int // 0-based data row index
	Value string
}

func (e *TimestampError) Error() string {
	return fmt.Sprintf("row %d: unparseable timestamp %q", e.Row, e.Value)
}

// PersistenceError reports a sink that could not be written.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// IsTransportError reports whether err stems from fetching the dataset.
func IsTransportError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsDataError reports whether err stems from the content of the dataset.
func IsDataError(err error) bool {
	var (
		pe *ParseError
		se *SchemaError
		te *TimestampError
	)
	return errors.As(err, &pe) || errors.As(err, &se) || errors.As(err, &te)
}
