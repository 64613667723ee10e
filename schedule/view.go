/*
view.go - Derived read-side projections

PURPOSE:
  Pure functions that turn already-fetched allocation rows into the views
  the application renders. Keeping the ordering and bucketing logic out
  of the store makes it storage-agnostic and unit-testable without a
  database. Views are computed per request; there is no caching layer.

PRIORITY ORDERING:
  Every allocation gets a bucket relative to "today":
    0 current   - active, spanning today
    1 future    - active, starting after today
    2 past      - active, ended before today
    3 cancelled - regardless of dates
  Sort key is (bucket, start date); ties keep their stored order.

WEEKLY BUCKETING:
  A 7-day map from each date to the active allocations touching that day.
  An allocation spanning several days appears once per day it touches,
  each time with its FULL amount - costs are not apportioned across days.

SEE ALSO:
  - ranker.go: Usage frequency over arbitrary windows
  - scheduler.go: Fetches the rows these functions project
*/
package schedule

import (
	"sort"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PRIORITY ORDERING
// =============================================================================

type PriorityBucket int

const (
	BucketCurrent   PriorityBucket = 0
	BucketFuture    PriorityBucket = 1
	BucketPast      PriorityBucket = 2
	BucketCancelled PriorityBucket = 3
)

// BucketOf assigns the sort bucket for an allocation relative to today.
func BucketOf(a Allocation, today Date) PriorityBucket {
	if !a.Active() {
		return BucketCancelled
	}
	switch {
	case a.Span.Start.After(today):
		return BucketFuture
	case a.Span.End.Before(today) && !a.Span.End.IsZero():
		return BucketPast
	default:
		// Spanning today, or no recorded end.
		return BucketCurrent
	}
}

// SortByPriority orders allocations in place by (bucket, start date).
// The sort is stable so same-key rows keep their stored order.
func SortByPriority(allocs []Allocation, today Date) {
	sort.SliceStable(allocs, func(i, j int) bool {
		bi, bj := BucketOf(allocs[i], today), BucketOf(allocs[j], today)
		if bi != bj {
			return bi < bj
		}
		return allocs[i].Span.Start.Before(allocs[j].Span.Start)
	})
}

// =============================================================================
// WEEKLY VIEW
// =============================================================================

// DayView is one calendar day and the active allocations touching it.
type DayView struct {
	Date        Date
	Allocations []Allocation
}

// WeekView is the 7-day calendar projection starting at Start.
type WeekView struct {
	Start Date
	Days  [7]DayView
}

// BuildWeekView buckets active allocations into the 7 days starting at
// weekStart. Each allocation appears in every day its span contains,
// carrying its full amount and metadata unchanged.
func BuildWeekView(allocs []Allocation, weekStart Date) WeekView {
	view := WeekView{Start: weekStart}
	for i := 0; i < 7; i++ {
		day := weekStart.AddDays(i)
		view.Days[i].Date = day
		for _, a := range allocs {
			if a.Active() && a.Span.Contains(day) {
				view.Days[i].Allocations = append(view.Days[i].Allocations, a)
			}
		}
	}
	return view
}

// =============================================================================
// DAILY COST SERIES
// =============================================================================

// DailyCost is one day of the trailing cost series. The total sums the
// amounts of active allocations STARTING that day - cost is attributed
// entirely to the start day, not spread across the span.
type DailyCost struct {
	Date           Date
	Total          decimal.Decimal
	HadAllocations bool
}

// BuildDailyCosts produces the trailing `days`-day series ending today.
func BuildDailyCosts(allocs []Allocation, today Date, days int) []DailyCost {
	if days < 1 {
		days = 1
	}

	byStart := make(map[Date][]Allocation)
	for _, a := range allocs {
		if a.Active() {
			byStart[a.Span.Start] = append(byStart[a.Span.Start], a)
		}
	}

	series := make([]DailyCost, 0, days)
	for i := days - 1; i >= 0; i-- {
		day := today.AddDays(-i)
		entry := DailyCost{Date: day, Total: decimal.Zero}
		for _, a := range byStart[day] {
			entry.Total = entry.Total.Add(a.Amount)
			entry.HadAllocations = true
		}
		series = append(series, entry)
	}
	return series
}
