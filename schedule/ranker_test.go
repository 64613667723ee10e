package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/crew-scheduler/schedule"
)

func labelByRef(r schedule.Resource) string {
	return string(r.Kind()) + ":" + r.Ref()
}

func TestRankUsage_CountsWindowDayIntersections(t *testing.T) {
	// GIVEN: A booking starting in-window but running past its end
	// THEN: Only the days inside the window count

	window := schedule.WindowSpan(schedule.NewDate(2024, 3, 11), 7) // Mar 11..17

	runsOver := alloc("a", schedule.NewDate(2024, 3, 15), schedule.NewDate(2024, 3, 25), schedule.StatusActive)

	ranked := schedule.RankUsage([]schedule.Allocation{runsOver}, window, labelByRef)
	require.Len(t, ranked, 1)
	assert.Equal(t, 3, ranked[0].Occurrences) // Mar 15, 16, 17
}

func TestRankUsage_SameResourceAccumulates(t *testing.T) {
	window := schedule.WindowSpan(schedule.NewDate(2024, 3, 11), 7)

	first := alloc("a", schedule.NewDate(2024, 3, 11), schedule.NewDate(2024, 3, 12), schedule.StatusActive)
	second := alloc("b", schedule.NewDate(2024, 3, 14), schedule.NewDate(2024, 3, 16), schedule.StatusActive)

	ranked := schedule.RankUsage([]schedule.Allocation{first, second}, window, labelByRef)
	require.Len(t, ranked, 1)
	assert.Equal(t, "worker:w-1", ranked[0].Label)
	assert.Equal(t, 5, ranked[0].Occurrences)
}

func TestRankUsage_ExcludesStartsOutsideWindow(t *testing.T) {
	window := schedule.WindowSpan(schedule.NewDate(2024, 3, 11), 7)

	// Starts the day before the window opens; its in-window days do not count
	early := alloc("a", schedule.NewDate(2024, 3, 10), schedule.NewDate(2024, 3, 16), schedule.StatusActive)
	// Starts after the window closes
	late := alloc("b", schedule.NewDate(2024, 3, 18), schedule.NewDate(2024, 3, 20), schedule.StatusActive)

	ranked := schedule.RankUsage([]schedule.Allocation{early, late}, window, labelByRef)
	assert.Empty(t, ranked)
}

func TestRankUsage_ExcludesCancelled(t *testing.T) {
	window := schedule.WindowSpan(schedule.NewDate(2024, 3, 11), 7)

	cancelled := alloc("a", schedule.NewDate(2024, 3, 11), schedule.NewDate(2024, 3, 15), schedule.StatusCancelled)

	ranked := schedule.RankUsage([]schedule.Allocation{cancelled}, window, labelByRef)
	assert.Empty(t, ranked)
}

func TestRankUsage_TiesKeepFirstSeenOrder(t *testing.T) {
	window := schedule.WindowSpan(schedule.NewDate(2024, 3, 11), 7)

	a := alloc("a", schedule.NewDate(2024, 3, 11), schedule.NewDate(2024, 3, 12), schedule.StatusActive)

	b := alloc("b", schedule.NewDate(2024, 3, 13), schedule.NewDate(2024, 3, 14), schedule.StatusActive)
	b.Resource = schedule.WorkerResource("w-2")

	ranked := schedule.RankUsage([]schedule.Allocation{a, b}, window, labelByRef)
	require.Len(t, ranked, 2)
	assert.Equal(t, "worker:w-1", ranked[0].Label)
	assert.Equal(t, "worker:w-2", ranked[1].Label)

	// Reversed input reverses the tie-break
	ranked = schedule.RankUsage([]schedule.Allocation{b, a}, window, labelByRef)
	assert.Equal(t, "worker:w-2", ranked[0].Label)
}

func TestRankUsage_SortedDescending(t *testing.T) {
	window := schedule.WindowSpan(schedule.NewDate(2024, 3, 11), 7)

	small := alloc("a", schedule.NewDate(2024, 3, 11), schedule.NewDate(2024, 3, 11), schedule.StatusActive)

	big := alloc("b", schedule.NewDate(2024, 3, 12), schedule.NewDate(2024, 3, 16), schedule.StatusActive)
	big.Resource = schedule.WorkerResource("w-2")

	ranked := schedule.RankUsage([]schedule.Allocation{small, big}, window, labelByRef)
	require.Len(t, ranked, 2)
	assert.Equal(t, "worker:w-2", ranked[0].Label)
	assert.Equal(t, 5, ranked[0].Occurrences)
	assert.Equal(t, 1, ranked[1].Occurrences)
}
