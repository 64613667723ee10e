package schedule

// =============================================================================
// DATE SPAN - Inclusive date interval
// =============================================================================

// DateSpan is an inclusive [Start, End] calendar interval. Both boundary
// days belong to the span; a same-day allocation has Days() == 1.
type DateSpan struct {
	Start Date
	End   Date
}

// NewSpan builds a span from start and end. A missing end, or an end before
// the start, is coerced to the start (the same-day booking rule).
func NewSpan(start, end Date) DateSpan {
	if end.IsZero() || end.Before(start) {
		end = start
	}
	return DateSpan{Start: start, End: end}
}

// Days returns the inclusive day count.
func (s DateSpan) Days() int {
	return DaysBetween(s.Start, s.End) + 1
}

// Contains reports whether the day falls within [Start, End].
func (s DateSpan) Contains(d Date) bool {
	return d.AfterOrEqual(s.Start) && d.BeforeOrEqual(s.End)
}

// Overlaps is the closed-interval overlap test. Both sides are inclusive,
// so two spans that touch on the same boundary day overlap.
func (s DateSpan) Overlaps(other DateSpan) bool {
	return s.Start.BeforeOrEqual(other.End) && s.End.AfterOrEqual(other.Start)
}

// Intersect returns the overlapping part of two spans. The second return
// value is false when they do not overlap.
func (s DateSpan) Intersect(other DateSpan) (DateSpan, bool) {
	if !s.Overlaps(other) {
		return DateSpan{}, false
	}
	start := s.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := s.End
	if other.End.Before(end) {
		end = other.End
	}
	return DateSpan{Start: start, End: end}, true
}

// Dates returns every day in the span, in order.
func (s DateSpan) Dates() []Date {
	var days []Date
	for d := s.Start; d.BeforeOrEqual(s.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

// IsValid reports whether End >= Start. Transfer-cancelled rows are the one
// place where invalid spans are persisted on purpose.
func (s DateSpan) IsValid() bool {
	return s.End.AfterOrEqual(s.Start)
}

func (s DateSpan) String() string {
	return "[" + s.Start.String() + ", " + s.End.String() + "]"
}

// WeekSpan returns the 7-day span starting at the given day.
func WeekSpan(start Date) DateSpan {
	return DateSpan{Start: start, End: start.AddDays(6)}
}

// WindowSpan returns the span covering `days` calendar days starting at start.
func WindowSpan(start Date, days int) DateSpan {
	if days < 1 {
		days = 1
	}
	return DateSpan{Start: start, End: start.AddDays(days - 1)}
}
