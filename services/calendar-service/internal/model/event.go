package model

import "time"

type RepeatRule string

const (
	RepeatNever         RepeatRule = "never"
	RepeatDaily         RepeatRule = "daily"
	RepeatWeekly        RepeatRule = "weekly"
	RepeatEveryTwoWeeks RepeatRule = "everyTwoWeeks"
	RepeatMonthly       RepeatRule = "monthly"
	RepeatYearly        RepeatRule = "yearly"
)

// Event is one calendar entry in the per-user store. For recurring events
// Start/End describe the first occurrence; the occurrence duration End-Start
// is constant across the series.
type Event struct {
	ID       string
	UserID   string
	Title    string
	Location string
	Start    time.Time
	End      time.Time
	AllDay   bool
	Color    int64
	// RepeatUntil is the last occurrence's calendar date, set iff
	// RepeatRule != never.
	RepeatRule  RepeatRule
	RepeatUntil *time.Time
	// Exceptions holds dates to skip. The field is stored and round-tripped
	// but expansion does not consult it yet.
	Exceptions    []time.Time
	Importance    string
	GoogleEventID string
	CreatedAt     time.Time
}

func (r RepeatRule) Valid() bool {
	switch r {
	case RepeatNever, RepeatDaily, RepeatWeekly, RepeatEveryTwoWeeks, RepeatMonthly, RepeatYearly:
		return true
	default:
		return false
	}
}
