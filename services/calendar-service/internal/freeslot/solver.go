package freeslot

import (
	"slices"
	"time"

	"github.com/timely-app/timely-backend/services/calendar-service/internal/interval"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/recurrence"
)

// Find computes the start times of gaps of at least minGap inside the query
// window, given the stored events of every user being considered. Recurring
// events are expanded against the window first; busy time from all users is
// merged into one timeline before gaps are measured.
//
// When no event produces busy time inside the window the whole window is
// free and the window start is the single result. Only gap start times are
// reported; the contract does not include gap ends.
func Find(events []model.Event, window interval.Span, minGap time.Duration) []time.Time {
	var busy []interval.Span
	for _, ev := range events {
		for span := range recurrence.Expand(ev, window) {
			busy = append(busy, span)
		}
	}

	if len(busy) == 0 {
		return []time.Time{window.Start}
	}

	slices.SortFunc(busy, func(a, b interval.Span) int { return a.Start.Compare(b.Start) })
	merged := interval.MergeSorted(busy)

	var slots []time.Time
	cursor := window.Start
	for _, block := range merged {
		if block.Start.Sub(cursor) >= minGap {
			slots = append(slots, cursor)
		}
		if block.End.After(cursor) {
			cursor = block.End
		}
	}
	if window.End.Sub(cursor) >= minGap {
		slots = append(slots, cursor)
	}
	return slots
}
