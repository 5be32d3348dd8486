package interval

import "time"

// Span is a half-open time interval [Start, End).
type Span struct {
	Start time.Time
	End   time.Time
}

func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps reports whether two half-open intervals intersect. Intervals that
// only touch at an endpoint do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// MergeSorted collapses a start-sorted interval list into the minimal set of
// non-overlapping intervals. Adjacent intervals (next.Start == current.End)
// merge as well. The input slice is not modified.
func MergeSorted(spans []Span) []Span {
	if len(spans) == 0 {
		return nil
	}

	merged := make([]Span, 0, len(spans))
	current := spans[0]
	for _, next := range spans[1:] {
		if !next.Start.After(current.End) {
			if next.End.After(current.End) {
				current.End = next.End
			}
			continue
		}
		merged = append(merged, current)
		current = next
	}
	return append(merged, current)
}
