/*
repository.go - Persistence port for the claims engine

PURPOSE:
  Defines the boundary between the domain logic and storage. The engine
  only ever talks to these interfaces; SQLite and in-memory
  implementations live in store/sqlite and claims/store.

OPTIMISTIC CONCURRENCY:
  SaveCase checks Case.Version against the stored stamp and fails with
  ErrConflict on mismatch. The source design was last-write-wins; the
  version check is a deliberate strengthening (see DESIGN.md).

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - claims/store/memory.go: In-memory for testing/dev

SEE ALSO:
  - lifecycle.go: All operations persist through this port
  - scheduler.go: InsertTask caller
*/
package claims

import "context"

// Repository is the narrow persistence port the engine requires.
type Repository interface {
	// GetCase loads a case by id. Returns ErrCaseNotFound if absent.
	GetCase(ctx context.Context, id CaseID) (*Case, error)

	// SaveCase persists the case. New cases (Version 0) are created with
	// Version 1; existing cases must carry the stored version or the
	// save fails with ErrConflict. On success the case's Version is the
	// newly stored stamp.
	SaveCase(ctx context.Context, c *Case) error

	// InsertTask persists a follow-up task.
	InsertTask(ctx context.Context, task FollowUpTask) error
}

// CaseFilter narrows ListCases results. Zero-value fields are ignored.
// ClaimNumber and Insured match as case-insensitive substrings; Insurer,
// Analyst and Status match exactly.
type CaseFilter struct {
	ClaimNumber string
	Insured     string
	Insurer     string
	Analyst     string
	Status      Status
}

// QueryRepository extends Repository with the lookups the API surface
// needs. Both store implementations provide it.
type QueryRepository interface {
	Repository

	// GetCaseByClaimNumber resolves the unique business key.
	GetCaseByClaimNumber(ctx context.Context, claimNumber string) (*Case, error)

	// ListCases returns cases matching the filter, newest first.
	ListCases(ctx context.Context, filter CaseFilter) ([]Case, error)

	// ListTasks returns the tasks of a case, oldest first.
	ListTasks(ctx context.Context, claimNumber string) ([]FollowUpTask, error)

	// SetTaskDone toggles a task's done flag.
	SetTaskDone(ctx context.Context, taskID string, done bool) error
}
