/*
errors.go - Centralized error types for the worktime engine

PURPOSE:
  All error kinds in one place. Every guard violation is reported as a
  typed error the caller can classify; the engine never returns bare
  strings and never panics on bad input.

ERROR CATEGORIES:
  1. Guard violations - a transition's precondition does not hold
  2. Validation errors - malformed or missing input at create/edit time
  3. Store errors - missing records, stale versions

USAGE:
  Callers classify with errors.Is:

    if errors.Is(err, worktime.ErrConcurrentModification) {
        // re-read and retry
    }

SEE ALSO:
  - lifecycle.go: raises these from transition guards
  - store.go: raises the store-level ones
*/
package worktime

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is returned for malformed or missing required input at
	// creation or edit time.
	ErrValidation = errors.New("validation failed")

	// ErrMissingReason is returned when a reject, deletion request or edit
	// omits its mandatory justification.
	ErrMissingReason = errors.New("reason is required")

	// ErrMissingReviewer is returned when the owner's role mandates peer
	// confirmation and no reviewer was supplied.
	ErrMissingReviewer = errors.New("reviewer is required")

	// ErrAlreadyRejected is returned when confirming a rejected entry.
	// A rejected entry must be corrected and re-submitted, not confirmed.
	ErrAlreadyRejected = errors.New("entry already rejected")

	// ErrAlreadyConfirmed is raised only where idempotence is intentionally
	// not granted, e.g. double-rejecting a confirmed entry.
	ErrAlreadyConfirmed = errors.New("entry already confirmed")

	// ErrConcurrentModification is returned when a transition's precondition
	// no longer holds against freshly read state.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrPermission is returned when the actor lacks authority for the
	// attempted transition.
	ErrPermission = errors.New("actor not permitted")

	// ErrEntryNotFound is returned by stores for unknown entry ids.
	ErrEntryNotFound = errors.New("entry not found")

	// ErrChangeNotFound is returned by stores for unknown change records.
	ErrChangeNotFound = errors.New("change record not found")

	// ErrQuotaLocked is returned when proposing changes to a locked quota.
	ErrQuotaLocked = errors.New("quota is locked")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes which field failed and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// PermissionError names the actor and the transition that was refused.
type PermissionError struct {
	Actor     UserID
	Operation string
	EntryID   EntryID
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s may not %s entry %s", e.Actor, e.Operation, e.EntryID)
}

func (e *PermissionError) Unwrap() error { return ErrPermission }

// StaleEntryError reports a compare-and-apply conflict.
type StaleEntryError struct {
	EntryID   EntryID
	Expected  int64
	Found     int64
	Operation string
}

func (e *StaleEntryError) Error() string {
	return fmt.Sprintf("entry %s changed underneath %s (version %d, found %d)",
		e.EntryID, e.Operation, e.Expected, e.Found)
}

func (e *StaleEntryError) Unwrap() error { return ErrConcurrentModification }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsRetryable returns true if the error might succeed on retry against
// freshly read state.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError returns true if the error is due to invalid caller input
// rather than engine or store failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrMissingReason) ||
		errors.Is(err, ErrMissingReviewer) ||
		errors.Is(err, ErrAlreadyRejected) ||
		errors.Is(err, ErrAlreadyConfirmed) ||
		errors.Is(err, ErrPermission) ||
		errors.Is(err, ErrQuotaLocked)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEntryNotFound) || errors.Is(err, ErrChangeNotFound)
}
