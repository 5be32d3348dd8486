package recurrence

import (
	"math"
	"slices"
	"time"

	"github.com/timely-app/timely-backend/services/calendar-service/internal/model"
)

// Detect classifies a group of occurrence start times (believed to belong to
// one logical series) into a repeat rule and the series' last occurrence.
//
// The checks run in fixed precedence: constant day interval (1/7/14 days),
// then monthly, then yearly. A rule only matches when every consecutive pair
// agrees; otherwise the group is treated as independent one-off events.
// The input slice is never modified; sorting happens on a private copy.
func Detect(starts []time.Time) (model.RepeatRule, *time.Time) {
	if len(starts) < 2 {
		return model.RepeatNever, nil
	}

	sorted := slices.Clone(starts)
	slices.SortFunc(sorted, func(a, b time.Time) int { return a.Compare(b) })
	last := sorted[len(sorted)-1]

	if rule, ok := fixedDayInterval(sorted); ok {
		return rule, &last
	}
	if isMonthly(sorted) {
		return model.RepeatMonthly, &last
	}
	if isYearly(sorted) {
		return model.RepeatYearly, &last
	}
	return model.RepeatNever, nil
}

func fixedDayInterval(sorted []time.Time) (model.RepeatRule, bool) {
	first := dayGap(sorted[0], sorted[1])
	for i := 2; i < len(sorted); i++ {
		if dayGap(sorted[i-1], sorted[i]) != first {
			return model.RepeatNever, false
		}
	}
	switch first {
	case 1:
		return model.RepeatDaily, true
	case 7:
		return model.RepeatWeekly, true
	case 14:
		return model.RepeatEveryTwoWeeks, true
	default:
		// A constant gap of any other length falls through to the
		// monthly/yearly checks.
		return model.RepeatNever, false
	}
}

// dayGap rounds the elapsed time to whole days, so series whose instants
// shift by an hour across a DST boundary still count as daily/weekly.
func dayGap(prev, curr time.Time) int {
	return int(math.Round(curr.Sub(prev).Hours() / 24))
}

func isMonthly(sorted []time.Time) bool {
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		if prev.Day() != curr.Day() {
			return false
		}
		monthDiff := (curr.Year()-prev.Year())*12 + int(curr.Month()) - int(prev.Month())
		if monthDiff != 1 {
			return false
		}
	}
	return true
}

func isYearly(sorted []time.Time) bool {
	for i := 1; i < len(sorted); i++ {
		prev, curr := sorted[i-1], sorted[i]
		if prev.Day() != curr.Day() || prev.Month() != curr.Month() {
			return false
		}
		if curr.Year()-prev.Year() != 1 {
			return false
		}
	}
	return true
}
