package ics

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "github.com/sreeprasad/luma-notifier/internal/log"
)

// ParseError is returned when the feed document itself is structurally
// invalid. Per-entry problems never surface as a ParseError; those entries
// are skipped with a warning.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "feed parse: " + e.Err.Error() }

func (e *ParseError) Unwrap() error { return e.Err }

// ParsedEvent is the normalized representation of a VEVENT from the feed.
type ParsedEvent struct {
	UID       string
	Organizer string // "mailto:" stripped

	Summary     string
	Description string
	Location    string
	EventURL    string

	// Start is the DTSTART instant, zero when missing or unparseable.
	Start time.Time

	// Accepted reports whether any ATTENDEE carries PARTSTAT=ACCEPTED.
	Accepted bool

	RawRRule string
	ExDates  []time.Time
}

// eventURLPattern matches a Luma event page link inside an (ICS-escaped)
// DESCRIPTION value.
var eventURLPattern = regexp.MustCompile(`https?://(?:lu\.ma|luma\.com)/(?:event/|e/|join/)?[^\s\\]+`)

// ParseFeed parses a raw ICS payload into the feed's events, preserving
// feed order. A VEVENT that cannot be interpreted (e.g. missing UID) is
// logged and skipped; only a malformed document aborts.
func ParseFeed(body []byte) ([]ParsedEvent, error) {
	if len(body) == 0 {
		return nil, &ParseError{Err: errors.New("empty feed body")}
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, &ParseError{Err: err}
	}

	events := make([]ParsedEvent, 0)

	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Warn("skipping malformed feed entry", "err", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("feed parse completed", "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (ParsedEvent, error) {
	var out ParsedEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertyOrganizer); p != nil {
		out.Organizer = stripMailto(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Description = p.Value
		out.EventURL = extractEventURL(p.Value)
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}

	out.Start = startTime(ve)
	out.Accepted = anyAttendeeAccepted(ve)

	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	// EXDATE can appear multiple times, each with a comma-separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out, nil
}

// startTime resolves DTSTART via the library's timezone-aware helpers,
// falling back to a basic parse of the raw value. A zero result means the
// entry has no usable start and will be treated as non-matching.
func startTime(ve *ical.VEvent) time.Time {
	if start, err := ve.GetStartAt(); err == nil && !start.IsZero() {
		return start
	}
	// All-day events carry VALUE=DATE, which GetStartAt rejects.
	if start, err := ve.GetAllDayStartAt(); err == nil && !start.IsZero() {
		return start
	}
	if p := ve.GetProperty(ical.ComponentPropertyDtStart); p != nil {
		if t, err := parseICSTime(p.Value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func anyAttendeeAccepted(ve *ical.VEvent) bool {
	for _, p := range ve.GetProperties(ical.ComponentPropertyAttendee) {
		if p.ICalParameters == nil {
			continue
		}
		for _, v := range p.ICalParameters["PARTSTAT"] {
			if strings.EqualFold(v, "ACCEPTED") {
				return true
			}
		}
	}
	return false
}

func stripMailto(v string) string {
	if len(v) >= 7 && strings.EqualFold(v[:7], "mailto:") {
		return v[7:]
	}
	return v
}

// extractEventURL pulls the first Luma event link out of an escaped
// DESCRIPTION value, trimming ICS line-fold and escape residue.
func extractEventURL(description string) string {
	m := eventURLPattern.FindString(description)
	if m == "" {
		return ""
	}
	for strings.HasSuffix(m, `\n`) {
		m = strings.TrimSuffix(m, `\n`)
	}
	return strings.TrimRight(m, `\`)
}

// parseICSTime parses a basic ICS date/date-time string. Used for EXDATE
// values and as a DTSTART fallback where full parameter context is absent.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g. 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}

	// Floating local date-time, e.g. 20250101T090000
	if strings.Contains(v, "T") {
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}

	// Date-only (all-day), e.g. 20250101
	return time.ParseInLocation("20060102", v, time.Local)
}
