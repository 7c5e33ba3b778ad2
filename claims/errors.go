/*
errors.go - Centralized error types for the claims engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (API layer, batch jobs) should match with errors.Is/errors.As.

ERROR CATEGORIES:
  1. Validation errors - invalid closure reason, unsatisfied gate
  2. Lock errors       - mutating a closed case without privilege
  3. Conflict errors   - optimistic-concurrency mismatch on save
  4. Repository errors - opaque failures from the persistence boundary

SEE ALSO:
  - lifecycle.go: Produces validation/lock errors
  - repository.go: SaveCase contract for ErrConflict
*/
package claims

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrCaseNotFound is returned when the referenced case does not exist.
	ErrCaseNotFound = errors.New("case not found")

	// ErrTaskNotFound is returned when the referenced task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrCaseLocked is returned when a non-privileged caller mutates a
	// closed case. The lock is evaluated per-call, never cached.
	ErrCaseLocked = errors.New("case is closed")

	// ErrConflict is returned by SaveCase when the version stamp does not
	// match the stored one (concurrent edit detected).
	ErrConflict = errors.New("concurrent modification detected")

	// ErrValidation is the sentinel wrapped by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrChecklistIncomplete is wrapped by ChecklistError when a
	// document-gated transition is attempted with unsatisfied items.
	ErrChecklistIncomplete = errors.New("checklist incomplete")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports invalid input to a lifecycle operation. It is
// always surfaced to the caller unchanged; the engine never swallows a
// blocked transition.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// CaseLockedError identifies which closed case rejected a mutation.
type CaseLockedError struct {
	ClaimNumber string
}

func (e *CaseLockedError) Error() string {
	return fmt.Sprintf("case %s is closed and cannot be modified", e.ClaimNumber)
}

func (e *CaseLockedError) Unwrap() error { return ErrCaseLocked }

// ChecklistError reports an unsatisfied document gate, listing the
// missing requirement labels.
type ChecklistError struct {
	Missing []string
}

func (e *ChecklistError) Error() string {
	if len(e.Missing) == 0 {
		return "checklist is empty"
	}
	return "missing requirements: " + strings.Join(e.Missing, ", ")
}

func (e *ChecklistError) Unwrap() error { return ErrChecklistIncomplete }

// RepositoryError wraps an opaque failure from the persistence boundary.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("repository %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// or a blocked transition, as opposed to an infrastructure failure.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrCaseLocked) ||
		errors.Is(err, ErrChecklistIncomplete) ||
		errors.Is(err, ErrConflict)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCaseNotFound) || errors.Is(err, ErrTaskNotFound)
}
