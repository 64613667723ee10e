package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/crew-scheduler/schedule"
	"github.com/warp/crew-scheduler/schedule/store"
)

func testAllocation(id, workerID, start, end string) schedule.Allocation {
	s, _ := schedule.ParseDate(start)
	e, _ := schedule.ParseDate(end)
	return schedule.Allocation{
		ID:        schedule.AllocationID(id),
		ProjectID: "site-a",
		Resource:  schedule.WorkerResource(workerID),
		Span:      schedule.NewSpan(s, e),
		Mode:      schedule.PayDaily,
		Amount:    decimal.NewFromInt(100),
		Status:    schedule.StatusActive,
	}
}

func TestMemory_CreateGetUpdate(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	id, err := mem.Create(ctx, testAllocation("", "w-1", "2024-03-10", "2024-03-12"))
	require.NoError(t, err)
	assert.NotEmpty(t, id, "a missing id is generated")

	a, err := mem.Get(ctx, id)
	require.NoError(t, err)

	a.Notes = "edited"
	require.NoError(t, mem.Update(ctx, *a))

	reloaded, err := mem.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "edited", reloaded.Notes)
}

func TestMemory_GetUnknown_NotFound(t *testing.T) {
	mem := store.NewMemory()

	_, err := mem.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, schedule.ErrNotFound)

	err = mem.Update(context.Background(), testAllocation("ghost", "w-1", "2024-03-10", "2024-03-12"))
	assert.ErrorIs(t, err, schedule.ErrNotFound)
}

func TestMemory_ListOverlapping_Filters(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	_, err := mem.Create(ctx, testAllocation("a", "w-1", "2024-03-10", "2024-03-15"))
	require.NoError(t, err)

	// Different worker
	_, err = mem.Create(ctx, testAllocation("b", "w-2", "2024-03-10", "2024-03-15"))
	require.NoError(t, err)

	// Cancelled
	cancelled := testAllocation("c", "w-1", "2024-03-10", "2024-03-15")
	cancelled.Status = schedule.StatusCancelled
	_, err = mem.Create(ctx, cancelled)
	require.NoError(t, err)

	span := schedule.NewSpan(schedule.NewDate(2024, 3, 14), schedule.NewDate(2024, 3, 20))

	got, err := mem.ListOverlapping(ctx, "w-1", span, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, schedule.AllocationID("a"), got[0].ID)

	// Excluding the row itself finds nothing
	got, err = mem.ListOverlapping(ctx, "w-1", span, "a")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemory_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: One committed row
	// WHEN: A transaction writes two more and then fails
	// THEN: The store is back to the single original row

	mem := store.NewMemory()
	ctx := context.Background()

	_, err := mem.Create(ctx, testAllocation("keep", "w-1", "2024-03-01", "2024-03-02"))
	require.NoError(t, err)

	boom := errors.New("boom")
	err = mem.WithTx(ctx, func(tx schedule.AllocationStore) error {
		if _, err := tx.Create(ctx, testAllocation("x", "w-2", "2024-03-10", "2024-03-12")); err != nil {
			return err
		}
		if _, err := tx.Create(ctx, testAllocation("y", "w-3", "2024-03-10", "2024-03-12")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	all, err := mem.ListAll(ctx, schedule.ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, schedule.AllocationID("keep"), all[0].ID)
}

func TestMemory_ListAll_FilterByStatus(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	_, err := mem.Create(ctx, testAllocation("a", "w-1", "2024-03-10", "2024-03-12"))
	require.NoError(t, err)
	cancelled := testAllocation("b", "w-1", "2024-04-10", "2024-04-12")
	cancelled.Status = schedule.StatusCancelled
	_, err = mem.Create(ctx, cancelled)
	require.NoError(t, err)

	active, err := mem.ListAll(ctx, schedule.ListFilter{Status: schedule.StatusActive})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, schedule.AllocationID("a"), active[0].ID)
}
