/*
conflict.go - Overlap detection for worker bookings

PURPOSE:
  Enforces the exclusivity invariant: no two active allocations for the
  same individual worker may overlap. Teams and external services are
  exempt - only worker bookings are exclusive.

OVERLAP TEST:
  existing.start <= candidate.end AND existing.end >= candidate.start

  Both sides are inclusive. Two bookings that touch on the same boundary
  day conflict; there are no half-open semantics anywhere in the engine.

SEE ALSO:
  - span.go: DateSpan.Overlaps implements the same test
  - scheduler.go: Runs the check inside the write transaction
*/
package schedule

import "context"

// ConflictDetector finds the active allocations blocking a candidate write.
type ConflictDetector struct {
	Store AllocationStore
}

// Check returns the active allocations for the candidate's worker that
// overlap its span, ordered by start date and excluding the candidate
// itself (so updates do not conflict with their own row). Team and
// external bookings never conflict and return nil.
func (cd *ConflictDetector) Check(ctx context.Context, candidate Allocation) ([]Allocation, error) {
	workerID, ok := candidate.Resource.WorkerID()
	if !ok {
		return nil, nil
	}
	return cd.Store.ListOverlapping(ctx, workerID, candidate.Span, candidate.ID)
}

// conflictErr builds the error surfaced to callers, carrying the first
// blocking row's details so the caller can decide to transfer instead.
func conflictErr(conflicts []Allocation) error {
	first := conflicts[0]
	return &ConflictError{
		AllocationID: first.ID,
		ProjectID:    first.ProjectID,
		Span:         first.Span,
	}
}
