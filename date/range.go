package date

import (
	"fmt"
	"iter"
)

// Range represents an inclusive range of dates.
type Range struct{ From, To Date }

// NewRange creates a new date range. If 'from' is after 'to', they are swapped.
func NewRange(from, to Date) Range {
	if from.After(to) {
		from, to = to, from
	}
	return Range{From: from, To: to}
}

// Contains return true date is included in the range (boundaries included).
func (r Range) Contains(d Date) bool { return !d.Before(r.From) && !d.After(r.To) }

// IsZero reports whether both bounds are the zero Date.
func (r Range) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

// Len returns the number of days in the range, boundaries included.
func (r Range) Len() int {
	n := 0
	for d := r.From; !d.After(r.To); d = d.Add(1) {
		n++
	}
	return n
}

// Days returns an iterator that yields each date within the range, inclusive.
func (r Range) Days() iter.Seq[Date] {
	return func(yield func(Date) bool) {
		for d := r.From; !d.After(r.To); d = d.Add(1) {
			if !yield(d) {
				return
			}
		}
	}
}

// String formats the range as "from..to".
func (r Range) String() string { return fmt.Sprintf("%s..%s", r.From, r.To) }

// Missing computes the set difference between the requested range and a
// sorted list of present dates: the days of r that are not in present,
// grouped into maximal runs of consecutive days. Contiguous gaps are
// coalesced into a single range, non-contiguous gaps yield separate ranges.
//
// present must be sorted in ascending order; dates outside r are ignored.
// If present covers every day of r, Missing returns nil.
func Missing(r Range, present []Date) []Range {
	// Drop dates outside the requested range.
	for len(present) > 0 && present[0].Before(r.From) {
		present = present[1:]
	}
	for len(present) > 0 && present[len(present)-1].After(r.To) {
		present = present[:len(present)-1]
	}

	var gaps []Range
	cursor := r.From
	for _, d := range present {
		if cursor.Before(d) {
			gaps = append(gaps, Range{From: cursor, To: d.Add(-1)})
		}
		cursor = d.Add(1)
	}
	if !cursor.After(r.To) {
		gaps = append(gaps, Range{From: cursor, To: r.To})
	}
	return gaps
}
