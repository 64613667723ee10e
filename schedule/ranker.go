/*
ranker.go - Resource usage frequency over a date window

PURPOSE:
  Answers "which resources were scheduled most?" for an arbitrary window.
  An allocation counts once for EVERY day of the window its span
  intersects, so a booking covering the whole window contributes the full
  window length to its resource, not 1.

COUNTING RULES:
  - Only active allocations participate.
  - Only allocations whose START falls inside the window participate.
  - Identity is the display label: "worker:<name>", "team:<name>",
    "external:<label>".
  - Output is sorted by occurrence count descending; ties keep
    first-seen order.

SEE ALSO:
  - view.go: The other read-side projections
  - scheduler.go: Supplies the label resolver
*/
package schedule

import "sort"

// ResourceUsage is one ranked entry.
type ResourceUsage struct {
	Label       string
	Occurrences int
}

// RankUsage aggregates day-intersection counts per resource over the
// window. labelFor maps a booking's resource to its ranking identity.
func RankUsage(allocs []Allocation, window DateSpan, labelFor func(Resource) string) []ResourceUsage {
	counts := make(map[string]int)
	var firstSeen []string

	for _, a := range allocs {
		if !a.Active() || !window.Contains(a.Span.Start) {
			continue
		}

		overlap, ok := a.Span.Intersect(window)
		if !ok {
			continue
		}

		label := labelFor(a.Resource)
		if _, seen := counts[label]; !seen {
			firstSeen = append(firstSeen, label)
		}
		counts[label] += overlap.Days()
	}

	ranked := make([]ResourceUsage, 0, len(firstSeen))
	for _, label := range firstSeen {
		ranked = append(ranked, ResourceUsage{Label: label, Occurrences: counts[label]})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Occurrences > ranked[j].Occurrences
	})

	return ranked
}
