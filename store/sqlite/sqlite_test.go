package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/crew-scheduler/schedule"
	"github.com/warp/crew-scheduler/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func testAllocation(id, workerID, start, end string) schedule.Allocation {
	s, _ := schedule.ParseDate(start)
	e, _ := schedule.ParseDate(end)
	return schedule.Allocation{
		ID:        schedule.AllocationID(id),
		ProjectID: "site-a",
		Resource:  schedule.WorkerResource(workerID),
		Span:      schedule.NewSpan(s, e),
		Mode:      schedule.PayDaily,
		Amount:    decimal.RequireFromString("437.50"),
		Status:    schedule.StatusActive,
		Notes:     "pour foundation",
	}
}

// =============================================================================
// ALLOCATION CRUD
// =============================================================================

func TestSQLite_CreateAndGet_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := testAllocation("a-1", "w-1", "2024-03-10", "2024-03-12")
	paid := schedule.NewDate(2024, 3, 10)
	in.PaidOn = &paid

	id, err := store.Create(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, schedule.AllocationID("a-1"), id)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, in.ProjectID, got.ProjectID)
	assert.Equal(t, schedule.KindWorker, got.Resource.Kind())
	assert.Equal(t, "w-1", got.Resource.Ref())
	assert.Equal(t, "2024-03-10", got.Span.Start.String())
	assert.Equal(t, "2024-03-12", got.Span.End.String())
	assert.Equal(t, schedule.PayDaily, got.Mode)
	assert.True(t, got.Amount.Equal(in.Amount))
	require.NotNil(t, got.PaidOn)
	assert.Equal(t, "2024-03-10", got.PaidOn.String())
	assert.Equal(t, schedule.StatusActive, got.Status)
	assert.Equal(t, "pour foundation", got.Notes)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLite_Create_GeneratesID(t *testing.T) {
	store := newTestStore(t)

	id, err := store.Create(context.Background(), testAllocation("", "w-1", "2024-03-10", "2024-03-12"))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestSQLite_Get_Unknown_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, schedule.ErrNotFound)
}

func TestSQLite_Update_PersistsChanges(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, testAllocation("a-1", "w-1", "2024-03-10", "2024-03-12"))
	require.NoError(t, err)

	a, err := store.Get(ctx, id)
	require.NoError(t, err)
	a.Status = schedule.StatusCancelled
	a.Amount = decimal.Zero
	require.NoError(t, store.Update(ctx, *a))

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, schedule.StatusCancelled, got.Status)
	assert.True(t, got.Amount.IsZero())
}

func TestSQLite_Update_Unknown_NotFound(t *testing.T) {
	store := newTestStore(t)

	err := store.Update(context.Background(), testAllocation("ghost", "w-1", "2024-03-10", "2024-03-12"))
	assert.ErrorIs(t, err, schedule.ErrNotFound)
}

// =============================================================================
// OVERLAP QUERY
// =============================================================================

func TestSQLite_ListOverlapping_InclusiveBoundaries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, testAllocation("a", "w-1", "2024-03-10", "2024-03-15"))
	require.NoError(t, err)

	// Touching the end day overlaps
	span := schedule.NewSpan(schedule.NewDate(2024, 3, 15), schedule.NewDate(2024, 3, 20))
	got, err := store.ListOverlapping(ctx, "w-1", span, "")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	// The day after does not
	span = schedule.NewSpan(schedule.NewDate(2024, 3, 16), schedule.NewDate(2024, 3, 20))
	got, err = store.ListOverlapping(ctx, "w-1", span, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSQLite_ListOverlapping_SkipsCancelledOtherWorkersAndSelf(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, testAllocation("a", "w-1", "2024-03-10", "2024-03-15"))
	require.NoError(t, err)
	_, err = store.Create(ctx, testAllocation("b", "w-2", "2024-03-10", "2024-03-15"))
	require.NoError(t, err)
	cancelled := testAllocation("c", "w-1", "2024-03-10", "2024-03-15")
	cancelled.Status = schedule.StatusCancelled
	_, err = store.Create(ctx, cancelled)
	require.NoError(t, err)

	span := schedule.NewSpan(schedule.NewDate(2024, 3, 12), schedule.NewDate(2024, 3, 14))

	got, err := store.ListOverlapping(ctx, "w-1", span, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, schedule.AllocationID("a"), got[0].ID)

	got, err = store.ListOverlapping(ctx, "w-1", span, "a")
	require.NoError(t, err)
	assert.Empty(t, got)
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestSQLite_WithTx_CommitsOnSuccess(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.WithTx(ctx, func(tx schedule.AllocationStore) error {
		_, err := tx.Create(ctx, testAllocation("a", "w-1", "2024-03-10", "2024-03-12"))
		return err
	})
	require.NoError(t, err)

	_, err = store.Get(ctx, "a")
	assert.NoError(t, err)
}

func TestSQLite_WithTx_RollsBackOnError(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := store.WithTx(ctx, func(tx schedule.AllocationStore) error {
		if _, err := tx.Create(ctx, testAllocation("a", "w-1", "2024-03-10", "2024-03-12")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = store.Get(ctx, "a")
	assert.ErrorIs(t, err, schedule.ErrNotFound)
}

func TestSQLite_WithTx_ReadsSeeInTxWrites(t *testing.T) {
	// The transfer path updates the old row and immediately conflict-checks
	// the replacement; the check must see the update.
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, testAllocation("a", "w-1", "2024-02-01", "2024-02-29"))
	require.NoError(t, err)

	err = store.WithTx(ctx, func(tx schedule.AllocationStore) error {
		a, err := tx.Get(ctx, "a")
		if err != nil {
			return err
		}
		a.Status = schedule.StatusCancelled
		if err := tx.Update(ctx, *a); err != nil {
			return err
		}

		span := schedule.NewSpan(schedule.NewDate(2024, 2, 10), schedule.NewDate(2024, 2, 20))
		overlapping, err := tx.ListOverlapping(ctx, "w-1", span, "")
		if err != nil {
			return err
		}
		assert.Empty(t, overlapping, "cancelled-in-tx row must not surface")
		return nil
	})
	require.NoError(t, err)
}

// =============================================================================
// CATALOG
// =============================================================================

func TestSQLite_ProjectUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	p := schedule.Project{ID: "site-a", Name: "Site A", Area: decimal.NewFromInt(200)}
	require.NoError(t, store.SaveProject(ctx, p))

	p.Name = "Site A (phase 2)"
	require.NoError(t, store.SaveProject(ctx, p))

	got, err := store.GetProject(ctx, "site-a")
	require.NoError(t, err)
	assert.Equal(t, "Site A (phase 2)", got.Name)
	assert.True(t, got.Area.Equal(decimal.NewFromInt(200)))

	all, err := store.ListProjects(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestSQLite_WorkerRates_Roundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	w := schedule.Worker{
		ID:        "w-1",
		Name:      "Iva",
		DailyRate: decimal.RequireFromString("150"),
		AreaRate:  decimal.RequireFromString("12.50"),
		FlatRate:  decimal.RequireFromString("900"),
	}
	require.NoError(t, store.SaveWorker(ctx, w))

	got, err := store.GetWorker(ctx, "w-1")
	require.NoError(t, err)
	assert.True(t, got.DailyRate.Equal(w.DailyRate))
	assert.True(t, got.AreaRate.Equal(w.AreaRate))
	assert.True(t, got.FlatRate.Equal(w.FlatRate))
}

func TestSQLite_Team_MembershipReplaced(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	team := schedule.Team{ID: "crew-1", Name: "Framing", MemberIDs: []string{"w-1", "w-2"}}
	require.NoError(t, store.SaveTeam(ctx, team))

	team.MemberIDs = []string{"w-2", "w-3"}
	require.NoError(t, store.SaveTeam(ctx, team))

	got, err := store.GetTeam(ctx, "crew-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"w-2", "w-3"}, got.MemberIDs, "membership is replaced in order, not merged")

	teams, err := store.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, []string{"w-2", "w-3"}, teams[0].MemberIDs)
}

func TestSQLite_Catalog_Unknown_NotFound(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.GetProject(ctx, "ghost")
	assert.ErrorIs(t, err, schedule.ErrNotFound)
	_, err = store.GetWorker(ctx, "ghost")
	assert.ErrorIs(t, err, schedule.ErrNotFound)
	_, err = store.GetTeam(ctx, "ghost")
	assert.ErrorIs(t, err, schedule.ErrNotFound)
}
