/*
errors.go - Centralized error types for the allocation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Nothing in this package swallows an error: every failure is returned to
  the caller, who decides user-facing behavior.

ERROR CATEGORIES:
  1. InvalidInput - malformed or missing fields; rejected before any write
  2. Conflict     - overlapping active booking for the same worker
  3. NotFound     - referenced allocation/project/worker/team is absent
  4. Store        - transactional/storage failure; safe to retry verbatim

USAGE:
  Callers match with errors.Is / errors.As:

    if errors.Is(err, schedule.ErrConflict) {
        var ce *schedule.ConflictError
        errors.As(err, &ce)
        // ce.AllocationID, ce.ProjectID, ce.Span
    }

SEE ALSO:
  - scheduler.go: Produces these errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package schedule

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced allocation, project, worker,
	// or team does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write would overlap an active booking
	// for the same worker. Never resolved silently.
	ErrConflict = errors.New("allocation conflict")

	// ErrInvalidInput is returned for malformed or missing required fields.
	// Always rejected before any write.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStore is returned for storage-level failures. The operation left
	// nothing partial behind and is safe to retry verbatim.
	ErrStore = errors.New("store error")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConflictError reports the first active allocation blocking a write.
type ConflictError struct {
	AllocationID AllocationID
	ProjectID    string
	Span         DateSpan
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicts with allocation %s on project %s over %s",
		e.AllocationID, e.ProjectID, e.Span)
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// InvalidInputError reports which field failed validation and why.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error { return ErrInvalidInput }

// StoreError wraps a storage failure with the operation that hit it.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return ErrStore }

func invalidf(field, format string, args ...any) error {
	return &InvalidInputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConflict reports whether the error is a booking conflict.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound reports whether the error indicates a missing record.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalidInput reports whether the error is a validation failure.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsRetryable reports whether the operation can be retried verbatim.
// Only storage failures qualify; conflicts require a transfer instead.
func IsRetryable(err error) bool { return errors.Is(err, ErrStore) }
