package recurrence

import (
	"iter"

	"github.com/timely-app/timely-backend/services/calendar-service/internal/interval"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
)

// Expand yields the concrete busy intervals of one stored event that
// intersect the query window. The sequence is finite, lazy, and restartable:
// ranging over it twice produces the same occurrences.
//
// Stepping is implemented for daily and weekly rules only. For everyTwoWeeks,
// monthly and yearly the loop stops after the first occurrence so it cannot
// spin forever; callers see a single busy interval for those rules.
// Exceptions are not consulted.
func Expand(ev model.Event, window interval.Span) iter.Seq[interval.Span] {
	return func(yield func(interval.Span) bool) {
		if ev.RepeatRule == model.RepeatNever || !ev.RepeatRule.Valid() {
			if interval.Overlaps(ev.Start, ev.End, window.Start, window.End) {
				yield(interval.Span{Start: ev.Start, End: ev.End})
			}
			return
		}

		duration := ev.End.Sub(ev.Start)
		limit := window.End
		if ev.RepeatUntil != nil && ev.RepeatUntil.Before(limit) {
			limit = *ev.RepeatUntil
		}

		for current := ev.Start; current.Before(limit); {
			end := current.Add(duration)
			if interval.Overlaps(current, end, window.Start, window.End) {
				if !yield(interval.Span{Start: current, End: end}) {
					return
				}
			}

			switch ev.RepeatRule {
			case model.RepeatDaily:
				current = current.AddDate(0, 0, 1)
			case model.RepeatWeekly:
				current = current.AddDate(0, 0, 7)
			default:
				// everyTwoWeeks, monthly, yearly: stepping not implemented.
				return
			}
		}
	}
}
