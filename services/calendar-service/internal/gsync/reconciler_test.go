package gsync

import (
	"testing"
	"time"

	"github.com/timely-app/timely-backend/services/calendar-service/internal/googlecal"
	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
)

func timed(id, title string, start time.Time, d time.Duration) googlecal.Occurrence {
	return googlecal.Occurrence{
		ID:      id,
		Summary: title,
		Start:   googlecal.EventTime{DateTime: start.Format(time.RFC3339)},
		End:     googlecal.EventTime{DateTime: start.Add(d).Format(time.RFC3339)},
	}
}

func TestReconcileCollapsesWeeklySeries(t *testing.T) {
	first := time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)
	occ := []googlecal.Occurrence{
		timed("g1", "Standup", first, time.Hour),
		timed("g2", "Standup", first.AddDate(0, 0, 7), time.Hour),
		timed("g3", "Standup", first.AddDate(0, 0, 14), time.Hour),
	}

	writes := Reconcile("u1", occ, nil)
	if len(writes) != 1 {
		t.Fatalf("expected one collapsed write, got %d", len(writes))
	}
	w := writes[0]
	if w.ExistingID != "" {
		t.Fatalf("expected insert, got update of %q", w.ExistingID)
	}
	if w.Event.RepeatRule != model.RepeatWeekly {
		t.Fatalf("rule %q, want weekly", w.Event.RepeatRule)
	}
	if !w.Event.Start.Equal(first) {
		t.Fatalf("master start %v, want first occurrence", w.Event.Start)
	}
	wantUntil := time.Date(2026, 4, 20, 0, 0, 0, 0, time.UTC)
	if w.Event.RepeatUntil == nil || !w.Event.RepeatUntil.Equal(wantUntil) {
		t.Fatalf("repeatUntil %v, want %v", w.Event.RepeatUntil, wantUntil)
	}
	if w.Event.GoogleEventID != "g1" {
		t.Fatalf("googleEventId %q, want the chronologically first occurrence's", w.Event.GoogleEventID)
	}
}

func TestReconcileUpdatesExistingRecurringRecordInPlace(t *testing.T) {
	first := time.Date(2026, 4, 6, 10, 0, 0, 0, time.UTC)
	occ := []googlecal.Occurrence{
		timed("g1", "Standup", first, time.Hour),
		timed("g2", "Standup", first.AddDate(0, 0, 7), time.Hour),
	}
	stored := []model.Event{{
		ID:            "evt-1",
		UserID:        "u1",
		Title:         "Standup",
		RepeatRule:    model.RepeatWeekly,
		GoogleEventID: "g-old",
	}}

	writes := Reconcile("u1", occ, stored)
	if len(writes) != 1 {
		t.Fatalf("expected one write, got %d", len(writes))
	}
	if writes[0].ExistingID != "evt-1" {
		t.Fatalf("expected update of evt-1, got %q", writes[0].ExistingID)
	}
}

func TestReconcileOneOffsMatchByGoogleEventID(t *testing.T) {
	occ := []googlecal.Occurrence{
		timed("g1", "Dentist", time.Date(2026, 4, 6, 15, 0, 0, 0, time.UTC), time.Hour),
		timed("g2", "Haircut", time.Date(2026, 4, 9, 12, 0, 0, 0, time.UTC), 30*time.Minute),
	}
	stored := []model.Event{{
		ID:            "evt-9",
		UserID:        "u1",
		Title:         "Dentist",
		RepeatRule:    model.RepeatNever,
		GoogleEventID: "g1",
	}}

	writes := Reconcile("u1", occ, stored)
	if len(writes) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(writes))
	}
	byTitle := map[string]Write{}
	for _, w := range writes {
		byTitle[w.Event.Title] = w
	}
	if byTitle["Dentist"].ExistingID != "evt-9" {
		t.Fatalf("Dentist should update evt-9, got %q", byTitle["Dentist"].ExistingID)
	}
	if byTitle["Haircut"].ExistingID != "" {
		t.Fatalf("Haircut should insert, got update of %q", byTitle["Haircut"].ExistingID)
	}
}

func TestReconcileDiscardsCancelled(t *testing.T) {
	occ := []googlecal.Occurrence{
		{
			ID:      "g1",
			Summary: "Dentist",
			Status:  "cancelled",
			Start:   googlecal.EventTime{DateTime: "2026-04-06T15:00:00Z"},
			End:     googlecal.EventTime{DateTime: "2026-04-06T16:00:00Z"},
		},
	}
	if writes := Reconcile("u1", occ, nil); len(writes) != 0 {
		t.Fatalf("cancelled occurrences must be discarded, got %v", writes)
	}
}

func TestReconcileAllDaySeries(t *testing.T) {
	occ := []googlecal.Occurrence{
		{ID: "g1", Summary: "Gym", Start: googlecal.EventTime{Date: "2026-04-06"}, End: googlecal.EventTime{Date: "2026-04-07"}},
		{ID: "g2", Summary: "Gym", Start: googlecal.EventTime{Date: "2026-04-07"}, End: googlecal.EventTime{Date: "2026-04-08"}},
		{ID: "g3", Summary: "Gym", Start: googlecal.EventTime{Date: "2026-04-08"}, End: googlecal.EventTime{Date: "2026-04-09"}},
	}
	writes := Reconcile("u1", occ, nil)
	if len(writes) != 1 {
		t.Fatalf("expected one write, got %d", len(writes))
	}
	if writes[0].Event.RepeatRule != model.RepeatDaily {
		t.Fatalf("rule %q, want daily", writes[0].Event.RepeatRule)
	}
	if !writes[0].Event.AllDay {
		t.Fatal("expected allDay event")
	}
}

func TestReconcileUntitledEvents(t *testing.T) {
	occ := []googlecal.Occurrence{
		timed("g1", "", time.Date(2026, 4, 6, 15, 0, 0, 0, time.UTC), time.Hour),
	}
	writes := Reconcile("u1", occ, nil)
	if len(writes) != 1 || writes[0].Event.Title != "Untitled Event" {
		t.Fatalf("got %v", writes)
	}
}
