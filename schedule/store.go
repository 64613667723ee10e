/*
store.go - Persistence interface for allocations

PURPOSE:
  Defines the interface between the scheduling logic and the database.
  Different implementations can use SQLite or in-memory storage.

CONTRACT:
  - Allocations are never physically deleted; cancellation flips status.
  - Get on a missing id returns ErrNotFound.
  - ListOverlapping implements the closed-interval overlap test against
    ACTIVE worker rows only, ordered by start date.
  - Every mutating request runs inside one transaction via WithTx; a
    failed transaction leaves all rows exactly as before.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - schedule/store/memory.go: In-memory for testing

SEE ALSO:
  - scheduler.go: The only writer; wraps every mutation in WithTx
  - conflict.go: Uses ListOverlapping
*/
package schedule

import "context"

// =============================================================================
// ALLOCATION STORE
// =============================================================================

// ListFilter narrows ListAll. Zero values mean "no filter".
type ListFilter struct {
	ProjectID string
	Status    Status
}

// AllocationStore handles persistence of allocations.
type AllocationStore interface {
	// Create persists a new allocation and returns its id.
	Create(ctx context.Context, a Allocation) (AllocationID, error)

	// Update rewrites the mutable fields of an existing allocation.
	// Returns ErrNotFound if the id does not exist.
	Update(ctx context.Context, a Allocation) error

	// Get returns one allocation, or ErrNotFound.
	Get(ctx context.Context, id AllocationID) (*Allocation, error)

	// ListByProject returns every allocation for a project, any status.
	ListByProject(ctx context.Context, projectID string) ([]Allocation, error)

	// ListOverlapping returns the ACTIVE allocations for a worker whose
	// spans overlap the given one, excluding excludeID (the row being
	// written), ordered by start date.
	ListOverlapping(ctx context.Context, workerID string, span DateSpan, excludeID AllocationID) ([]Allocation, error)

	// ListAll returns allocations matching the filter.
	ListAll(ctx context.Context, filter ListFilter) ([]Allocation, error)
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore wraps AllocationStore with transaction support. A create-or-
// transfer request is one transaction: if fn returns an error everything
// is rolled back, otherwise everything is committed.
type TxStore interface {
	AllocationStore

	WithTx(ctx context.Context, fn func(AllocationStore) error) error
}
