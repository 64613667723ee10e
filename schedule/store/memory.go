// Package store provides an in-memory implementation of the scheduling
// storage interfaces, used by tests and local development.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/warp/crew-scheduler/schedule"
)

// =============================================================================
// MEMORY STORE - schedule.TxStore plus the catalog repositories
// =============================================================================

type Memory struct {
	mu   sync.RWMutex
	txMu sync.Mutex // serializes WithTx blocks

	allocations map[schedule.AllocationID]schedule.Allocation
	order       []schedule.AllocationID // insertion order, keeps listings stable

	projects map[string]schedule.Project
	workers  map[string]schedule.Worker
	teams    map[string]schedule.Team
}

func NewMemory() *Memory {
	return &Memory{
		allocations: make(map[schedule.AllocationID]schedule.Allocation),
		projects:    make(map[string]schedule.Project),
		workers:     make(map[string]schedule.Worker),
		teams:       make(map[string]schedule.Team),
	}
}

// =============================================================================
// ALLOCATION STORE
// =============================================================================

func (m *Memory) Create(_ context.Context, a schedule.Allocation) (schedule.AllocationID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == "" {
		a.ID = schedule.AllocationID(uuid.NewString())
	}
	m.allocations[a.ID] = a
	m.order = append(m.order, a.ID)
	return a.ID, nil
}

func (m *Memory) Update(_ context.Context, a schedule.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.allocations[a.ID]; !ok {
		return schedule.ErrNotFound
	}
	m.allocations[a.ID] = a
	return nil
}

func (m *Memory) Get(_ context.Context, id schedule.AllocationID) (*schedule.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.allocations[id]
	if !ok {
		return nil, schedule.ErrNotFound
	}
	return &a, nil
}

func (m *Memory) ListByProject(_ context.Context, projectID string) ([]schedule.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []schedule.Allocation
	for _, id := range m.order {
		if a := m.allocations[id]; a.ProjectID == projectID {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *Memory) ListOverlapping(_ context.Context, workerID string, span schedule.DateSpan, excludeID schedule.AllocationID) ([]schedule.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []schedule.Allocation
	for _, id := range m.order {
		a := m.allocations[id]
		if a.ID == excludeID || !a.Active() {
			continue
		}
		if wid, ok := a.Resource.WorkerID(); !ok || wid != workerID {
			continue
		}
		if a.Span.Overlaps(span) {
			result = append(result, a)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Span.Start.Before(result[j].Span.Start)
	})
	return result, nil
}

func (m *Memory) ListAll(_ context.Context, filter schedule.ListFilter) ([]schedule.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []schedule.Allocation
	for _, id := range m.order {
		a := m.allocations[id]
		if filter.ProjectID != "" && a.ProjectID != filter.ProjectID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

// WithTx serializes transactional blocks and rolls the allocation table
// back when fn fails. Good enough for tests; the SQLite store provides
// real transactions.
func (m *Memory) WithTx(_ context.Context, fn func(schedule.AllocationStore) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := make(map[schedule.AllocationID]schedule.Allocation, len(m.allocations))
	for id, a := range m.allocations {
		snapshot[id] = a
	}
	orderSnapshot := append([]schedule.AllocationID(nil), m.order...)
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.allocations = snapshot
		m.order = orderSnapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// =============================================================================
// CATALOG REPOSITORIES
// =============================================================================

func (m *Memory) GetProject(_ context.Context, id string) (*schedule.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, schedule.ErrNotFound
	}
	return &p, nil
}

func (m *Memory) SaveProject(_ context.Context, p schedule.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.projects[p.ID] = p
	return nil
}

func (m *Memory) ListProjects(_ context.Context) ([]schedule.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]schedule.Project, 0, len(m.projects))
	for _, p := range m.projects {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) GetWorker(_ context.Context, id string) (*schedule.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.workers[id]
	if !ok {
		return nil, schedule.ErrNotFound
	}
	return &w, nil
}

func (m *Memory) SaveWorker(_ context.Context, w schedule.Worker) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workers[w.ID] = w
	return nil
}

func (m *Memory) ListWorkers(_ context.Context) ([]schedule.Worker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]schedule.Worker, 0, len(m.workers))
	for _, w := range m.workers {
		result = append(result, w)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) GetTeam(_ context.Context, id string) (*schedule.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.teams[id]
	if !ok {
		return nil, schedule.ErrNotFound
	}
	return &t, nil
}

func (m *Memory) SaveTeam(_ context.Context, t schedule.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teams[t.ID] = t
	return nil
}

func (m *Memory) ListTeams(_ context.Context) ([]schedule.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]schedule.Team, 0, len(m.teams))
	for _, t := range m.teams {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
