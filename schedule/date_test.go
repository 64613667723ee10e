package schedule_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/crew-scheduler/schedule"
)

// =============================================================================
// DATE TESTS
// =============================================================================

func TestParseDate_Valid(t *testing.T) {
	d, err := schedule.ParseDate("2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, 2024, d.Year())
	assert.Equal(t, "2024-03-10", d.String())
}

func TestParseDate_Invalid(t *testing.T) {
	_, err := schedule.ParseDate("10/03/2024")
	assert.Error(t, err)

	_, err = schedule.ParseDate("")
	assert.Error(t, err)
}

func TestDate_Comparisons(t *testing.T) {
	a := schedule.NewDate(2024, 3, 10)
	b := schedule.NewDate(2024, 3, 11)

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.True(t, a.Equal(schedule.NewDate(2024, 3, 10)))
	assert.True(t, a.BeforeOrEqual(a))
	assert.True(t, a.AfterOrEqual(a))
}

func TestDate_AddDays_CrossesMonthBoundary(t *testing.T) {
	d := schedule.NewDate(2024, 1, 30)
	assert.Equal(t, "2024-02-02", d.AddDays(3).String())
	assert.Equal(t, "2024-01-27", d.AddDays(-3).String())
}

func TestDaysBetween(t *testing.T) {
	a := schedule.NewDate(2024, 3, 10)
	assert.Equal(t, 0, schedule.DaysBetween(a, a))
	assert.Equal(t, 5, schedule.DaysBetween(a, a.AddDays(5)))
	assert.Equal(t, -5, schedule.DaysBetween(a.AddDays(5), a))
}

func TestStartOfWeek_Monday(t *testing.T) {
	// 2024-03-13 is a Wednesday; its week starts Monday 2024-03-11
	wed := schedule.NewDate(2024, 3, 13)
	assert.Equal(t, "2024-03-11", schedule.StartOfWeek(wed).String())

	// Monday maps to itself
	mon := schedule.NewDate(2024, 3, 11)
	assert.Equal(t, "2024-03-11", schedule.StartOfWeek(mon).String())

	// Sunday belongs to the week that started 6 days earlier
	sun := schedule.NewDate(2024, 3, 17)
	assert.Equal(t, "2024-03-11", schedule.StartOfWeek(sun).String())
}

// =============================================================================
// SPAN TESTS
// =============================================================================

func TestNewSpan_CoercesMissingEnd(t *testing.T) {
	start := schedule.NewDate(2024, 3, 10)

	// Missing end becomes the start (single-day span)
	span := schedule.NewSpan(start, schedule.Date{})
	assert.Equal(t, start, span.End)
	assert.Equal(t, 1, span.Days())

	// End before start also collapses to the start
	span = schedule.NewSpan(start, start.AddDays(-5))
	assert.Equal(t, start, span.End)
}

func TestSpan_Days_Inclusive(t *testing.T) {
	start := schedule.NewDate(2024, 1, 1)
	span := schedule.NewSpan(start, start.AddDays(2))

	// Jan 1..3 inclusive is 3 days
	assert.Equal(t, 3, span.Days())
}

func TestSpan_Overlaps_ClosedInterval(t *testing.T) {
	a := schedule.NewSpan(schedule.NewDate(2024, 3, 10), schedule.NewDate(2024, 3, 15))

	// Sharing a single boundary day counts as overlap
	touching := schedule.NewSpan(schedule.NewDate(2024, 3, 15), schedule.NewDate(2024, 3, 20))
	assert.True(t, a.Overlaps(touching))

	// Fully inside
	inside := schedule.NewSpan(schedule.NewDate(2024, 3, 11), schedule.NewDate(2024, 3, 12))
	assert.True(t, a.Overlaps(inside))

	// Adjacent but disjoint
	after := schedule.NewSpan(schedule.NewDate(2024, 3, 16), schedule.NewDate(2024, 3, 20))
	assert.False(t, a.Overlaps(after))
}

func TestSpan_Intersect(t *testing.T) {
	a := schedule.NewSpan(schedule.NewDate(2024, 3, 10), schedule.NewDate(2024, 3, 20))
	b := schedule.NewSpan(schedule.NewDate(2024, 3, 18), schedule.NewDate(2024, 3, 25))

	overlap, ok := a.Intersect(b)
	require.True(t, ok)
	assert.Equal(t, "2024-03-18", overlap.Start.String())
	assert.Equal(t, "2024-03-20", overlap.End.String())
	assert.Equal(t, 3, overlap.Days())

	_, ok = a.Intersect(schedule.NewSpan(schedule.NewDate(2024, 4, 1), schedule.NewDate(2024, 4, 2)))
	assert.False(t, ok)
}

func TestWindowSpan(t *testing.T) {
	start := schedule.NewDate(2024, 3, 10)
	window := schedule.WindowSpan(start, 7)
	assert.Equal(t, "2024-03-16", window.End.String())
	assert.Equal(t, 7, window.Days())
}
