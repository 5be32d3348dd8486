package recurrence

import (
	"testing"
	"time"

	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func TestDetectSingleEvent(t *testing.T) {
	rule, until := Detect([]time.Time{day(2026, 4, 6, 9)})
	if rule != model.RepeatNever || until != nil {
		t.Fatalf("got %q/%v, want never/nil", rule, until)
	}
}

func TestDetectDaily(t *testing.T) {
	rule, until := Detect([]time.Time{
		day(2026, 4, 6, 9),
		day(2026, 4, 7, 9),
	})
	if rule != model.RepeatDaily {
		t.Fatalf("got %q, want daily", rule)
	}
	if until == nil || !until.Equal(day(2026, 4, 7, 9)) {
		t.Fatalf("until wrong: %v", until)
	}
}

func TestDetectWeekly(t *testing.T) {
	d := day(2026, 4, 6, 10)
	rule, until := Detect([]time.Time{d, d.AddDate(0, 0, 7), d.AddDate(0, 0, 14)})
	if rule != model.RepeatWeekly {
		t.Fatalf("got %q, want weekly", rule)
	}
	if until == nil || !until.Equal(d.AddDate(0, 0, 14)) {
		t.Fatalf("until wrong: %v", until)
	}
}

func TestDetectEveryTwoWeeks(t *testing.T) {
	d := day(2026, 4, 6, 10)
	rule, _ := Detect([]time.Time{d, d.AddDate(0, 0, 14), d.AddDate(0, 0, 28)})
	if rule != model.RepeatEveryTwoWeeks {
		t.Fatalf("got %q, want everyTwoWeeks", rule)
	}
}

func TestDetectIrregularGaps(t *testing.T) {
	d := day(2026, 4, 6, 10)
	rule, until := Detect([]time.Time{d, d.AddDate(0, 0, 7), d.AddDate(0, 0, 10)})
	if rule != model.RepeatNever || until != nil {
		t.Fatalf("got %q/%v, want never/nil", rule, until)
	}
}

func TestDetectConstantOddGapIsNotARule(t *testing.T) {
	d := day(2026, 4, 6, 10)
	rule, _ := Detect([]time.Time{d, d.AddDate(0, 0, 3), d.AddDate(0, 0, 6)})
	if rule != model.RepeatNever {
		t.Fatalf("got %q, want never for constant 3-day gap", rule)
	}
}

func TestDetectMonthly(t *testing.T) {
	rule, until := Detect([]time.Time{
		day(2026, 1, 15, 14),
		day(2026, 2, 15, 14),
		day(2026, 3, 15, 14),
	})
	if rule != model.RepeatMonthly {
		t.Fatalf("got %q, want monthly", rule)
	}
	if until == nil || !until.Equal(day(2026, 3, 15, 14)) {
		t.Fatalf("until wrong: %v", until)
	}
}

func TestDetectMonthlyRequiresSameDayOfMonth(t *testing.T) {
	rule, _ := Detect([]time.Time{
		day(2026, 1, 15, 14),
		day(2026, 2, 16, 14),
		day(2026, 3, 15, 14),
	})
	if rule != model.RepeatNever {
		t.Fatalf("got %q, want never", rule)
	}
}

func TestDetectYearly(t *testing.T) {
	rule, _ := Detect([]time.Time{
		day(2024, 7, 4, 0),
		day(2025, 7, 4, 0),
		day(2026, 7, 4, 0),
	})
	if rule != model.RepeatYearly {
		t.Fatalf("got %q, want yearly", rule)
	}
}

func TestDetectSortsUnorderedInputWithoutMutatingIt(t *testing.T) {
	d := day(2026, 4, 6, 10)
	in := []time.Time{d.AddDate(0, 0, 14), d, d.AddDate(0, 0, 7)}
	rule, until := Detect(in)
	if rule != model.RepeatWeekly {
		t.Fatalf("got %q, want weekly", rule)
	}
	if until == nil || !until.Equal(d.AddDate(0, 0, 14)) {
		t.Fatalf("until wrong: %v", until)
	}
	if !in[0].Equal(d.AddDate(0, 0, 14)) || !in[1].Equal(d) {
		t.Fatal("input slice was reordered")
	}
}
