/*
scheduler.go - Transactional orchestration of allocation writes

PURPOSE:
  The Scheduler is the only writer in the engine. Every public operation
  (create, update, cancel, transfer) runs as: validate -> price ->
  conflict-check -> persist, with the check and the write inside one
  store transaction.

CONCURRENCY:
  The conflict check happens before the write, so two concurrent requests
  for the same worker could both pass it and both commit. A per-worker
  mutex around the transaction closes that race. Requests for different
  workers share no mutable state and proceed in parallel; team and
  external bookings have no exclusivity invariant and take no lock.

TRANSFER:
  Transfer moves a worker off one allocation early without losing the
  audit trail: the old row is truncated to the day before the new start,
  zeroed, and cancelled, then the replacement is validated against the
  already-updated state - all in one transaction. This is the only path
  that flips status to cancelled with a backdated end.

SEE ALSO:
  - draft.go: Input validation
  - rate.go: Pricing
  - conflict.go: Overlap detection
  - view.go, ranker.go: Read-side projections served from here
*/
package schedule

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SCHEDULER
// =============================================================================

// Scheduler coordinates allocation writes and serves derived views.
type Scheduler struct {
	Store    TxStore
	Projects ProjectRepo
	Workers  WorkerRepo
	Teams    TeamRepo

	// Now supplies "today" for priority ordering and cost series.
	// Nil means the real calendar; tests pin it.
	Now func() Date

	locks sync.Map // worker id -> *sync.Mutex
}

func NewScheduler(store TxStore, projects ProjectRepo, workers WorkerRepo, teams TeamRepo) *Scheduler {
	return &Scheduler{
		Store:    store,
		Projects: projects,
		Workers:  workers,
		Teams:    teams,
	}
}

// Today returns the engine's notion of the current day. Everything
// "today"-relative (priority buckets, cost series, default view windows)
// goes through here so a pinned Now steers all of it.
func (s *Scheduler) Today() Date {
	if s.Now != nil {
		return s.Now()
	}
	return Today()
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// Create validates, prices, conflict-checks and persists a new allocation.
func (s *Scheduler) Create(ctx context.Context, draft AllocationDraft) (*Allocation, error) {
	a, err := draft.toAllocation()
	if err != nil {
		return nil, err
	}

	project, res, err := s.resolve(ctx, a)
	if err != nil {
		return nil, err
	}

	a = Price(a, res, *project)
	a.ID = AllocationID(uuid.NewString())

	defer s.lockWorkers(workerIDs(a.Resource))()

	err = s.Store.WithTx(ctx, func(tx AllocationStore) error {
		detector := &ConflictDetector{Store: tx}
		conflicts, err := detector.Check(ctx, a)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return conflictErr(conflicts)
		}

		_, err = tx.Create(ctx, a)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.Store.Get(ctx, a.ID)
}

// Update edits the mutable fields (dates, amount, notes) of an active
// allocation, re-running pricing and the conflict check.
func (s *Scheduler) Update(ctx context.Context, id AllocationID, patch UpdatePatch) (*Allocation, error) {
	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Active() {
		return nil, invalidf("status", "cancelled allocations cannot be edited")
	}

	next, err := patch.apply(*current)
	if err != nil {
		return nil, err
	}

	project, res, err := s.resolve(ctx, next)
	if err != nil {
		return nil, err
	}
	next = Price(next, res, *project)

	defer s.lockWorkers(workerIDs(next.Resource))()

	err = s.Store.WithTx(ctx, func(tx AllocationStore) error {
		detector := &ConflictDetector{Store: tx}
		conflicts, err := detector.Check(ctx, next)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return conflictErr(conflicts)
		}

		return tx.Update(ctx, next)
	})
	if err != nil {
		return nil, err
	}

	return s.Store.Get(ctx, id)
}

// Cancel soft-deletes an allocation. The row stays for the audit trail;
// cancellation is the engine's only deletion mechanism.
func (s *Scheduler) Cancel(ctx context.Context, id AllocationID) (*Allocation, error) {
	current, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Active() {
		return current, nil
	}

	current.Status = StatusCancelled

	err = s.Store.WithTx(ctx, func(tx AllocationStore) error {
		return tx.Update(ctx, *current)
	})
	if err != nil {
		return nil, err
	}

	return s.Store.Get(ctx, id)
}

// Transfer atomically truncates and cancels one allocation and creates its
// replacement:
//
//  1. The old allocation's end becomes newDraft.start - 1 day, its amount
//     is zeroed (the superseded portion is no longer billable), and its
//     status flips to cancelled. The end may land before the start - that
//     records a booking fully superseded before it began.
//  2. The replacement is validated, priced and conflict-checked against
//     the already-updated state, so the truncated row no longer blocks it.
//
// Any failure rolls back the whole transaction, leaving the old row
// untouched.
func (s *Scheduler) Transfer(ctx context.Context, oldID AllocationID, draft AllocationDraft) (*Allocation, error) {
	old, err := s.Store.Get(ctx, oldID)
	if err != nil {
		return nil, err
	}

	if draft.StartDate == "" {
		return nil, invalidf("start_date", "required")
	}
	newStart, err := ParseDate(draft.StartDate)
	if err != nil {
		return nil, invalidf("start_date", "unparseable date %q", draft.StartDate)
	}

	a, err := draft.toAllocation()
	if err != nil {
		return nil, err
	}

	project, res, err := s.resolve(ctx, a)
	if err != nil {
		return nil, err
	}
	a = Price(a, res, *project)
	a.ID = AllocationID(uuid.NewString())

	defer s.lockWorkers(workerIDs(old.Resource, a.Resource))()

	err = s.Store.WithTx(ctx, func(tx AllocationStore) error {
		superseded, err := tx.Get(ctx, oldID)
		if err != nil {
			return err
		}

		superseded.Span.End = newStart.AddDays(-1)
		superseded.Amount = decimal.Zero
		superseded.Status = StatusCancelled
		if err := tx.Update(ctx, *superseded); err != nil {
			return err
		}

		detector := &ConflictDetector{Store: tx}
		conflicts, err := detector.Check(ctx, a)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return conflictErr(conflicts)
		}

		_, err = tx.Create(ctx, a)
		return err
	})
	if err != nil {
		return nil, err
	}

	return s.Store.Get(ctx, a.ID)
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// Get returns one allocation.
func (s *Scheduler) Get(ctx context.Context, id AllocationID) (*Allocation, error) {
	return s.Store.Get(ctx, id)
}

// List returns allocations in priority order (current, future, past,
// cancelled; each bucket by start date). An empty projectID lists all.
func (s *Scheduler) List(ctx context.Context, projectID string) ([]Allocation, error) {
	allocs, err := s.Store.ListAll(ctx, ListFilter{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	SortByPriority(allocs, s.Today())
	return allocs, nil
}

// WeeklyView buckets active allocations into the 7 days starting at start.
func (s *Scheduler) WeeklyView(ctx context.Context, start Date) (*WeekView, error) {
	allocs, err := s.Store.ListAll(ctx, ListFilter{Status: StatusActive})
	if err != nil {
		return nil, err
	}
	view := BuildWeekView(allocs, start)
	return &view, nil
}

// DailyCosts sums allocation amounts over the trailing `days` calendar
// days, attributing each amount entirely to its start day.
func (s *Scheduler) DailyCosts(ctx context.Context, projectID string, days int) ([]DailyCost, error) {
	allocs, err := s.Store.ListAll(ctx, ListFilter{ProjectID: projectID, Status: StatusActive})
	if err != nil {
		return nil, err
	}
	return BuildDailyCosts(allocs, s.Today(), days), nil
}

// MostUsed ranks resources by how many days of the window their
// allocations cover.
func (s *Scheduler) MostUsed(ctx context.Context, start Date, days int) ([]ResourceUsage, error) {
	allocs, err := s.Store.ListAll(ctx, ListFilter{Status: StatusActive})
	if err != nil {
		return nil, err
	}

	labels := make(map[Resource]string)
	labelFor := func(r Resource) string {
		if label, ok := labels[r]; ok {
			return label
		}
		label := r.String() // fallback when the catalog record is gone
		if res, err := s.resolveResource(ctx, r); err == nil {
			label = res.Label()
		}
		labels[r] = label
		return label
	}

	return RankUsage(allocs, WindowSpan(start, days), labelFor), nil
}

// =============================================================================
// RESOLUTION & LOCKING
// =============================================================================

// resolve loads the project and the catalog records behind the booking's
// resource. Missing references surface as NotFound before any write.
func (s *Scheduler) resolve(ctx context.Context, a Allocation) (*Project, ResolvedResource, error) {
	project, err := s.Projects.GetProject(ctx, a.ProjectID)
	if err != nil {
		return nil, ResolvedResource{}, err
	}

	res, err := s.resolveResource(ctx, a.Resource)
	if err != nil {
		return nil, ResolvedResource{}, err
	}

	return project, res, nil
}

func (s *Scheduler) resolveResource(ctx context.Context, r Resource) (ResolvedResource, error) {
	switch r.Kind() {
	case KindWorker:
		w, err := s.Workers.GetWorker(ctx, r.Ref())
		if err != nil {
			return ResolvedResource{}, err
		}
		return ResolvedResource{Kind: KindWorker, Name: w.Name, Workers: []Worker{*w}}, nil

	case KindTeam:
		t, err := s.Teams.GetTeam(ctx, r.Ref())
		if err != nil {
			return ResolvedResource{}, err
		}
		members := make([]Worker, 0, len(t.MemberIDs))
		for _, id := range t.MemberIDs {
			w, err := s.Workers.GetWorker(ctx, id)
			if err != nil {
				return ResolvedResource{}, err
			}
			members = append(members, *w)
		}
		return ResolvedResource{Kind: KindTeam, Name: t.Name, Workers: members}, nil

	case KindExternal:
		return ResolvedResource{Kind: KindExternal, Name: r.Ref()}, nil

	default:
		return ResolvedResource{}, invalidf("resource", "no resource reference populated")
	}
}

// workerIDs returns the worker references a write must serialize on.
func workerIDs(resources ...Resource) []string {
	var ids []string
	for _, r := range resources {
		if id, ok := r.WorkerID(); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// lockWorkers acquires the per-worker mutexes in sorted order (stable
// order prevents deadlock when a transfer touches two workers) and
// returns the release function.
func (s *Scheduler) lockWorkers(ids []string) func() {
	if len(ids) == 0 {
		return func() {}
	}

	sort.Strings(ids)
	var held []*sync.Mutex
	var last string
	for i, id := range ids {
		if i > 0 && id == last {
			continue
		}
		last = id
		v, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
		mu := v.(*sync.Mutex)
		mu.Lock()
		held = append(held, mu)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
