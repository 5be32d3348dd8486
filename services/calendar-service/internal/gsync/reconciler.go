// Package gsync reconciles externally-fetched calendar occurrences into the
// per-user event store. Occurrence groups that form a recurring series are
// collapsed into a single stored record so one weekly meeting synced as 30
// provider instances occupies one row.
package gsync

import (
	"slices"
	"time"

	"github.com/timely-app/timely-backend/services/calendar-service/internal/googlecal"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/recurrence"
)

const untitledEvent = "Untitled Event"

const defaultImportance = "medium"

// Write is one reconciliation decision: an event payload plus the id of the
// stored record it replaces. An empty ExistingID means insert.
type Write struct {
	ExistingID string
	Event      model.Event
}

// Reconcile matches fetched occurrences against the user's stored events and
// returns the writes that bring the store up to date. Cancelled occurrences
// are discarded. The caller applies the returned writes as one atomic batch.
func Reconcile(userID string, occurrences []googlecal.Occurrence, stored []model.Event) []Write {
	byGoogleID := make(map[string]model.Event, len(stored))
	for _, ev := range stored {
		if ev.GoogleEventID != "" {
			byGoogleID[ev.GoogleEventID] = ev
		}
	}

	groups := groupByTitle(occurrences)

	var writes []Write
	for _, group := range groups {
		instances := resolveAndSort(group.occurrences)
		if len(instances) == 0 {
			continue
		}

		starts := make([]time.Time, len(instances))
		for i, inst := range instances {
			starts[i] = inst.start
		}
		rule, until := recurrence.Detect(starts)
		color := model.ColorForTitle(group.title)

		if rule != model.RepeatNever {
			master := instances[0]
			untilDate := dateOnly(*until)
			ev := model.Event{
				UserID:        userID,
				Title:         group.title,
				Location:      master.occ.Location,
				Start:         master.start,
				End:           master.end,
				AllDay:        master.occ.Start.AllDay(),
				Color:         color,
				RepeatRule:    rule,
				RepeatUntil:   &untilDate,
				Exceptions:    nil,
				Importance:    defaultImportance,
				GoogleEventID: master.occ.ID,
			}
			writes = append(writes, Write{
				ExistingID: findRecurringMatch(stored, group.title),
				Event:      ev,
			})
			continue
		}

		for _, inst := range instances {
			ev := model.Event{
				UserID:        userID,
				Title:         group.title,
				Location:      inst.occ.Location,
				Start:         inst.start,
				End:           inst.end,
				AllDay:        inst.occ.Start.AllDay(),
				Color:         color,
				RepeatRule:    model.RepeatNever,
				RepeatUntil:   nil,
				Exceptions:    nil,
				Importance:    defaultImportance,
				GoogleEventID: inst.occ.ID,
			}
			var existingID string
			if match, ok := byGoogleID[inst.occ.ID]; ok {
				existingID = match.ID
			}
			writes = append(writes, Write{ExistingID: existingID, Event: ev})
		}
	}
	return writes
}

type titleGroup struct {
	title       string
	occurrences []googlecal.Occurrence
}

// groupByTitle buckets occurrences by exact title, preserving first-seen
// title order so reconciliation output is deterministic.
func groupByTitle(occurrences []googlecal.Occurrence) []titleGroup {
	index := map[string]int{}
	var groups []titleGroup
	for _, occ := range occurrences {
		if occ.Status == "cancelled" {
			continue
		}
		title := occ.Summary
		if title == "" {
			title = untitledEvent
		}
		i, ok := index[title]
		if !ok {
			i = len(groups)
			index[title] = i
			groups = append(groups, titleGroup{title: title})
		}
		groups[i].occurrences = append(groups[i].occurrences, occ)
	}
	return groups
}

type instance struct {
	occ   googlecal.Occurrence
	start time.Time
	end   time.Time
}

// resolveAndSort parses occurrence times and orders the group
// chronologically; occurrences with unparseable times are skipped rather
// than failing the whole sync.
func resolveAndSort(occurrences []googlecal.Occurrence) []instance {
	out := make([]instance, 0, len(occurrences))
	for _, occ := range occurrences {
		start, err := occ.Start.Resolve()
		if err != nil {
			continue
		}
		end, err := occ.End.Resolve()
		if err != nil {
			continue
		}
		out = append(out, instance{occ: occ, start: start, end: end})
	}
	slices.SortFunc(out, func(a, b instance) int { return a.start.Compare(b.start) })
	return out
}

// findRecurringMatch locates the stored recurring record a re-synced series
// should update in place, keyed by title.
func findRecurringMatch(stored []model.Event, title string) string {
	for _, ev := range stored {
		if ev.GoogleEventID != "" && ev.Title == title && ev.RepeatRule != model.RepeatNever {
			return ev.ID
		}
	}
	return ""
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
