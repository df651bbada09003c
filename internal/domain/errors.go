package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidQuery signals a search request rejected before any strategy ran.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidRecord signals an image record rejected on import.
	ErrInvalidRecord = errors.New("invalid image record")
	// ErrImageNotFound signals a missing, disabled or soft-deleted image record.
	ErrImageNotFound = errors.New("image not found")
	// ErrAccessorUnavailable signals a failed catalog call.
	ErrAccessorUnavailable = errors.New("catalog accessor unavailable")
	// ErrAllStrategiesFailed signals that every applicable strategy failed.
	ErrAllStrategiesFailed = errors.New("all search strategies failed")
	// ErrDescriberUnavailable signals a descriptive-metadata provider failure.
	ErrDescriberUnavailable = errors.New("describer unavailable")
	// ErrDescriberQuotaExceeded signals an exhausted describer token budget.
	ErrDescriberQuotaExceeded = errors.New("describer token quota exceeded")
	// ErrNotImplemented signals an unimplemented feature.
	ErrNotImplemented = errors.New("not implemented")
)

// StrategyFailure records why a single strategy produced no hits.
type StrategyFailure struct {
	Strategy string
	Err      error
}

// Reason returns the failure message.
func (f StrategyFailure) Reason() string {
	if f.Err == nil {
		return ""
	}
	return f.Err.Error()
}

// SearchError wraps ErrAllStrategiesFailed with the per-strategy causes.
type SearchError struct {
	Failures []StrategyFailure
}

func (e *SearchError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Strategy+": "+f.Reason())
	}
	return fmt.Sprintf("%s: %s", ErrAllStrategiesFailed.Error(), strings.Join(parts, "; "))
}

// Unwrap exposes the sentinel and every strategy cause to errors.Is / errors.As.
func (e *SearchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures)+1)
	errs = append(errs, ErrAllStrategiesFailed)
	for _, f := range e.Failures {
		if f.Err != nil {
			errs = append(errs, f.Err)
		}
	}
	return errs
}

// Only reports whether every strategy failed with target.
func (e *SearchError) Only(target error) bool {
	if len(e.Failures) == 0 {
		return false
	}
	for _, f := range e.Failures {
		if !errors.Is(f.Err, target) {
			return false
		}
	}
	return true
}

// NewSearchError creates an all-strategies-failed error.
func NewSearchError(failures []StrategyFailure) error {
	return &SearchError{Failures: failures}
}
