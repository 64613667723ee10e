/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements schedule.TxStore plus the project/worker/team repositories
  using SQLite. In production the same patterns apply to PostgreSQL -
  only minor SQL dialect differences.

KEY TABLES:
  allocations:  The bookings themselves. Never deleted; cancellation
                flips status.
  projects:     Catalog of projects (name, area for per_area pricing).
  workers:      Catalog of workers with their standard rates.
  teams:        Catalog of teams.
  team_members: Ordered team membership.

DATE STORAGE:
  Calendar dates are stored as YYYY-MM-DD text. The format compares
  lexicographically in date order, so the overlap predicate runs as a
  plain indexed range comparison.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety; WithTx holds the write lock for
  the whole transaction. SQLite is opened with WAL (Write-Ahead Logging)
  so readers don't block behind the writer.

USAGE:
  store, err := sqlite.New("./data/scheduler.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := schedule.NewScheduler(store, store, store, store)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - schedule/store.go: Interface definitions
  - schedule/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/crew-scheduler/schedule"
)

// Store implements schedule.TxStore and the catalog repositories.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		resource_kind TEXT NOT NULL,
		resource_ref TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		payment_mode TEXT NOT NULL,
		amount TEXT NOT NULL,
		paid_on TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_project
		ON allocations(project_id);

	-- Conflict detection hot path: active rows for one worker by range
	CREATE INDEX IF NOT EXISTS idx_allocations_worker_active
		ON allocations(resource_kind, resource_ref, status, start_date);

	-- Priority listings and weekly views
	CREATE INDEX IF NOT EXISTS idx_allocations_status_start
		ON allocations(status, start_date);

	CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		area TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS workers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		daily_rate TEXT NOT NULL DEFAULT '0',
		area_rate TEXT NOT NULL DEFAULT '0',
		flat_rate TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS team_members (
		team_id TEXT NOT NULL,
		worker_id TEXT NOT NULL,
		position INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (team_id, worker_id),
		FOREIGN KEY (team_id) REFERENCES teams(id)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is the common surface of *sql.DB and *sql.Tx the queries run on.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// ALLOCATION STORE (schedule.AllocationStore interface)
// =============================================================================

func (s *Store) Create(ctx context.Context, a schedule.Allocation) (schedule.AllocationID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createIn(ctx, s.db, a)
}

func (s *Store) createIn(ctx context.Context, db dbtx, a schedule.Allocation) (schedule.AllocationID, error) {
	if a.ID == "" {
		a.ID = schedule.AllocationID(uuid.NewString())
	}

	query := `
		INSERT INTO allocations
		(id, project_id, resource_kind, resource_ref, start_date, end_date,
		 payment_mode, amount, paid_on, status, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx, query,
		a.ID,
		a.ProjectID,
		string(a.Resource.Kind()),
		a.Resource.Ref(),
		a.Span.Start.String(),
		a.Span.End.String(),
		string(a.Mode),
		a.Amount.String(),
		nullDate(a.PaidOn),
		string(a.Status),
		a.Notes,
		now,
		now,
	)
	if err != nil {
		return "", &schedule.StoreError{Op: "create allocation", Err: err}
	}

	return a.ID, nil
}

func (s *Store) Update(ctx context.Context, a schedule.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.updateIn(ctx, s.db, a)
}

func (s *Store) updateIn(ctx context.Context, db dbtx, a schedule.Allocation) error {
	query := `
		UPDATE allocations
		SET start_date = ?, end_date = ?, payment_mode = ?, amount = ?,
		    paid_on = ?, status = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := db.ExecContext(ctx, query,
		a.Span.Start.String(),
		a.Span.End.String(),
		string(a.Mode),
		a.Amount.String(),
		nullDate(a.PaidOn),
		string(a.Status),
		a.Notes,
		time.Now().UTC().Format(time.RFC3339),
		a.ID,
	)
	if err != nil {
		return &schedule.StoreError{Op: "update allocation", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &schedule.StoreError{Op: "update allocation", Err: err}
	}
	if affected == 0 {
		return schedule.ErrNotFound
	}
	return nil
}

const allocationColumns = `id, project_id, resource_kind, resource_ref, start_date, end_date,
	payment_mode, amount, paid_on, status, notes, created_at, updated_at`

func (s *Store) Get(ctx context.Context, id schedule.AllocationID) (*schedule.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getIn(ctx, s.db, id)
}

func (s *Store) getIn(ctx context.Context, db dbtx, id schedule.AllocationID) (*schedule.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE id = ?`

	allocations, err := s.queryAllocations(ctx, db, query, id)
	if err != nil {
		return nil, err
	}
	if len(allocations) == 0 {
		return nil, schedule.ErrNotFound
	}
	return &allocations[0], nil
}

func (s *Store) ListByProject(ctx context.Context, projectID string) ([]schedule.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listByProjectIn(ctx, s.db, projectID)
}

func (s *Store) listByProjectIn(ctx context.Context, db dbtx, projectID string) ([]schedule.Allocation, error) {
	query := `SELECT ` + allocationColumns + `
		FROM allocations
		WHERE project_id = ?
		ORDER BY start_date ASC, created_at ASC`

	return s.queryAllocations(ctx, db, query, projectID)
}

func (s *Store) ListOverlapping(ctx context.Context, workerID string, span schedule.DateSpan, excludeID schedule.AllocationID) ([]schedule.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listOverlappingIn(ctx, s.db, workerID, span, excludeID)
}

func (s *Store) listOverlappingIn(ctx context.Context, db dbtx, workerID string, span schedule.DateSpan, excludeID schedule.AllocationID) ([]schedule.Allocation, error) {
	// Closed-interval overlap: existing.start <= candidate.end AND
	// existing.end >= candidate.start.
	query := `SELECT ` + allocationColumns + `
		FROM allocations
		WHERE resource_kind = 'worker' AND resource_ref = ?
		  AND status = 'active'
		  AND id != ?
		  AND start_date <= ? AND end_date >= ?
		ORDER BY start_date ASC`

	return s.queryAllocations(ctx, db, query,
		workerID, excludeID, span.End.String(), span.Start.String())
}

func (s *Store) ListAll(ctx context.Context, filter schedule.ListFilter) ([]schedule.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listAllIn(ctx, s.db, filter)
}

func (s *Store) listAllIn(ctx context.Context, db dbtx, filter schedule.ListFilter) ([]schedule.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE 1=1`
	var args []any

	if filter.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, filter.ProjectID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY start_date ASC, created_at ASC`

	return s.queryAllocations(ctx, db, query, args...)
}

func (s *Store) queryAllocations(ctx context.Context, db dbtx, query string, args ...any) ([]schedule.Allocation, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &schedule.StoreError{Op: "query allocations", Err: err}
	}
	defer rows.Close()

	var allocations []schedule.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	if err := rows.Err(); err != nil {
		return nil, &schedule.StoreError{Op: "query allocations", Err: err}
	}

	return allocations, nil
}

func scanAllocation(rows *sql.Rows) (schedule.Allocation, error) {
	var (
		a            schedule.Allocation
		resourceKind string
		resourceRef  string
		startDate    string
		endDate      string
		mode         string
		amount       string
		paidOn       sql.NullString
		status       string
		notes        sql.NullString
		createdAt    string
		updatedAt    string
	)

	err := rows.Scan(
		&a.ID, &a.ProjectID, &resourceKind, &resourceRef,
		&startDate, &endDate, &mode, &amount, &paidOn,
		&status, &notes, &createdAt, &updatedAt,
	)
	if err != nil {
		return a, &schedule.StoreError{Op: "scan allocation", Err: err}
	}

	a.Resource = schedule.RestoreResource(schedule.ResourceKind(resourceKind), resourceRef)
	a.Span.Start, _ = schedule.ParseDate(startDate)
	a.Span.End, _ = schedule.ParseDate(endDate)
	a.Mode = schedule.PaymentMode(mode)
	a.Amount = parseDecimal(amount)
	a.Status = schedule.Status(status)
	a.Notes = notes.String

	if paidOn.Valid && paidOn.String != "" {
		if d, err := schedule.ParseDate(paidOn.String); err == nil {
			a.PaidOn = &d
		}
	}

	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return a, nil
}

// =============================================================================
// TRANSACTIONAL STORE (schedule.TxStore interface)
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store schedule.AllocationStore) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &schedule.StoreError{Op: "begin transaction", Err: err}
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return &schedule.StoreError{Op: "commit transaction", Err: err}
	}
	return nil
}

// txStore routes every operation through the open transaction so reads
// (the conflict check in particular) see in-transaction writes.
type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (t *txStore) Create(ctx context.Context, a schedule.Allocation) (schedule.AllocationID, error) {
	return t.parent.createIn(ctx, t.tx, a)
}

func (t *txStore) Update(ctx context.Context, a schedule.Allocation) error {
	return t.parent.updateIn(ctx, t.tx, a)
}

func (t *txStore) Get(ctx context.Context, id schedule.AllocationID) (*schedule.Allocation, error) {
	return t.parent.getIn(ctx, t.tx, id)
}

func (t *txStore) ListByProject(ctx context.Context, projectID string) ([]schedule.Allocation, error) {
	return t.parent.listByProjectIn(ctx, t.tx, projectID)
}

func (t *txStore) ListOverlapping(ctx context.Context, workerID string, span schedule.DateSpan, excludeID schedule.AllocationID) ([]schedule.Allocation, error) {
	return t.parent.listOverlappingIn(ctx, t.tx, workerID, span, excludeID)
}

func (t *txStore) ListAll(ctx context.Context, filter schedule.ListFilter) ([]schedule.Allocation, error) {
	return t.parent.listAllIn(ctx, t.tx, filter)
}

// =============================================================================
// PROJECT REPOSITORY (schedule.ProjectRepo interface)
// =============================================================================

func (s *Store) GetProject(ctx context.Context, id string) (*schedule.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p schedule.Project
	var area string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, area FROM projects WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &area)
	if err == sql.ErrNoRows {
		return nil, schedule.ErrNotFound
	}
	if err != nil {
		return nil, &schedule.StoreError{Op: "get project", Err: err}
	}

	p.Area = parseDecimal(area)
	return &p, nil
}

func (s *Store) SaveProject(ctx context.Context, p schedule.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO projects (id, name, area, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			area = excluded.area
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, p.Area.String(), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &schedule.StoreError{Op: "save project", Err: err}
	}
	return nil
}

func (s *Store) ListProjects(ctx context.Context) ([]schedule.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, area FROM projects ORDER BY name ASC`)
	if err != nil {
		return nil, &schedule.StoreError{Op: "list projects", Err: err}
	}
	defer rows.Close()

	var projects []schedule.Project
	for rows.Next() {
		var p schedule.Project
		var area string
		if err := rows.Scan(&p.ID, &p.Name, &area); err != nil {
			return nil, &schedule.StoreError{Op: "scan project", Err: err}
		}
		p.Area = parseDecimal(area)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &schedule.StoreError{Op: "list projects", Err: err}
	}
	return projects, nil
}

// =============================================================================
// WORKER REPOSITORY (schedule.WorkerRepo interface)
// =============================================================================

func (s *Store) GetWorker(ctx context.Context, id string) (*schedule.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var w schedule.Worker
	var daily, area, flat string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, daily_rate, area_rate, flat_rate FROM workers WHERE id = ?`, id,
	).Scan(&w.ID, &w.Name, &daily, &area, &flat)
	if err == sql.ErrNoRows {
		return nil, schedule.ErrNotFound
	}
	if err != nil {
		return nil, &schedule.StoreError{Op: "get worker", Err: err}
	}

	w.DailyRate = parseDecimal(daily)
	w.AreaRate = parseDecimal(area)
	w.FlatRate = parseDecimal(flat)
	return &w, nil
}

func (s *Store) SaveWorker(ctx context.Context, w schedule.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO workers (id, name, daily_rate, area_rate, flat_rate, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			daily_rate = excluded.daily_rate,
			area_rate = excluded.area_rate,
			flat_rate = excluded.flat_rate
	`
	_, err := s.db.ExecContext(ctx, query,
		w.ID, w.Name, w.DailyRate.String(), w.AreaRate.String(), w.FlatRate.String(),
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &schedule.StoreError{Op: "save worker", Err: err}
	}
	return nil
}

func (s *Store) ListWorkers(ctx context.Context) ([]schedule.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, daily_rate, area_rate, flat_rate FROM workers ORDER BY name ASC`)
	if err != nil {
		return nil, &schedule.StoreError{Op: "list workers", Err: err}
	}
	defer rows.Close()

	var workers []schedule.Worker
	for rows.Next() {
		var w schedule.Worker
		var daily, area, flat string
		if err := rows.Scan(&w.ID, &w.Name, &daily, &area, &flat); err != nil {
			return nil, &schedule.StoreError{Op: "scan worker", Err: err}
		}
		w.DailyRate = parseDecimal(daily)
		w.AreaRate = parseDecimal(area)
		w.FlatRate = parseDecimal(flat)
		workers = append(workers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, &schedule.StoreError{Op: "list workers", Err: err}
	}
	return workers, nil
}

// =============================================================================
// TEAM REPOSITORY (schedule.TeamRepo interface)
// =============================================================================

func (s *Store) GetTeam(ctx context.Context, id string) (*schedule.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var t schedule.Team
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name FROM teams WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name)
	if err == sql.ErrNoRows {
		return nil, schedule.ErrNotFound
	}
	if err != nil {
		return nil, &schedule.StoreError{Op: "get team", Err: err}
	}

	t.MemberIDs, err = s.teamMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) teamMembers(ctx context.Context, teamID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT worker_id FROM team_members WHERE team_id = ? ORDER BY position ASC`, teamID)
	if err != nil {
		return nil, &schedule.StoreError{Op: "get team members", Err: err}
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var workerID string
		if err := rows.Scan(&workerID); err != nil {
			return nil, &schedule.StoreError{Op: "scan team member", Err: err}
		}
		ids = append(ids, workerID)
	}
	if err := rows.Err(); err != nil {
		return nil, &schedule.StoreError{Op: "get team members", Err: err}
	}
	return ids, nil
}

func (s *Store) SaveTeam(ctx context.Context, t schedule.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &schedule.StoreError{Op: "save team", Err: err}
	}
	defer sqlTx.Rollback()

	_, err = sqlTx.ExecContext(ctx, `
		INSERT INTO teams (id, name, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name
	`, t.ID, t.Name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return &schedule.StoreError{Op: "save team", Err: err}
	}

	if _, err := sqlTx.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = ?`, t.ID); err != nil {
		return &schedule.StoreError{Op: "save team members", Err: err}
	}
	for i, workerID := range t.MemberIDs {
		_, err := sqlTx.ExecContext(ctx,
			`INSERT INTO team_members (team_id, worker_id, position) VALUES (?, ?, ?)`,
			t.ID, workerID, i)
		if err != nil {
			return &schedule.StoreError{Op: "save team members", Err: err}
		}
	}

	if err := sqlTx.Commit(); err != nil {
		return &schedule.StoreError{Op: "save team", Err: err}
	}
	return nil
}

func (s *Store) ListTeams(ctx context.Context) ([]schedule.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM teams ORDER BY name ASC`)
	if err != nil {
		return nil, &schedule.StoreError{Op: "list teams", Err: err}
	}

	var teams []schedule.Team
	for rows.Next() {
		var t schedule.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			rows.Close()
			return nil, &schedule.StoreError{Op: "scan team", Err: err}
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, &schedule.StoreError{Op: "list teams", Err: err}
	}
	rows.Close()

	for i := range teams {
		members, err := s.teamMembers(ctx, teams[i].ID)
		if err != nil {
			return nil, err
		}
		teams[i].MemberIDs = members
	}
	return teams, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullDate(d *schedule.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
