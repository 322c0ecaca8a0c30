package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	appLog "github.com/sreeprasad/luma-notifier/internal/log"
)

// NextOccurrence resolves the first occurrence of an event within
// [rangeStart, rangeEnd], inclusive.
//
// Non-recurring events resolve to their own DTSTART (reported only when it
// falls inside the range check done by the caller's filter, so here it is
// returned as-is). For RRULE-bearing events the rule is expanded with
// EXDATEs applied, and the earliest instance inside the range is returned.
// The second return value is false when a recurring event has no instance
// in the range, or when the RRULE fails to parse.
func NextOccurrence(ev ParsedEvent, rangeStart, rangeEnd time.Time) (time.Time, bool) {
	if ev.RawRRule == "" {
		return ev.Start, !ev.Start.IsZero()
	}
	if ev.Start.IsZero() {
		return time.Time{}, false
	}

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Warn("unparseable RRULE, using DTSTART only", "uid", ev.UID, "rrule", ev.RawRRule, "err", err)
		return ev.Start, true
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		// Align EXDATE location with the event's start for comparison.
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Between works in the event's own timezone.
	occ := set.Between(rangeStart.In(ev.Start.Location()), rangeEnd.In(ev.Start.Location()), true)
	if len(occ) == 0 {
		return time.Time{}, false
	}
	return occ[0], true
}
