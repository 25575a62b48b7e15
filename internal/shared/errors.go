package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	ErrTimeout            = fmt.Errorf("operation timed out")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Pipeline errors
	ErrParse               = fmt.Errorf("playlist source could not be read")
	ErrUnsupportedSource   = fmt.Errorf("unsupported source type")
	ErrEntryClassification = fmt.Errorf("entry could not be processed")
	ErrProvider            = fmt.Errorf("metadata provider request failed")
	ErrRateLimited         = fmt.Errorf("metadata provider rate limit exceeded")
	ErrCache               = fmt.Errorf("cache operation failed")
	ErrPersistence         = fmt.Errorf("persistence operation failed")
	ErrInvalidTransition   = fmt.Errorf("invalid scan status transition")
	ErrNotFound            = fmt.Errorf("record not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ParseError reports a playlist source that could not be fetched or decoded.
// It is fatal to the scan that produced it.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("parse error: %v", e.Err)
	}
	return fmt.Sprintf("parse error (%s): %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// NewParseError wraps err as a [ParseError] for source.
func NewParseError(source string, err error) error {
	return &ParseError{Source: source, Err: err}
}

// ProviderError reports a failed lookup against an external metadata provider.
type ProviderError struct {
	Provider   string
	Op         string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Provider, e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool {
	if target == ErrProvider {
		return true
	}
	return target == ErrRateLimited && e.StatusCode == 429
}

// PersistenceError reports a failed write or read against the store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// EntryError records a failure while processing a single playlist entry.
type EntryError struct {
	Index int
	Name  string
	Stage string
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("entry %d (%q) %s: %v", e.Index, e.Name, e.Stage, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

func (e *EntryError) Is(target error) bool { return target == ErrEntryClassification }

// IsRetryable reports whether err came from a transient provider condition.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrTimeout) {
		return true
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.StatusCode >= 500
	}
	return false
}
