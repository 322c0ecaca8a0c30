package model

import "time"

// Registration is one event registration extracted from the calendar feed.
// UID is the iCalendar UID and is the dedup key: it stays stable across
// fetches of the same underlying registration even when other fields change.
type Registration struct {
	UID       string
	Organizer string // email-like, "mailto:" prefix already stripped

	// Accepted is true when some ATTENDEE on the entry carries
	// PARTSTAT=ACCEPTED. The feed is the registrant's own calendar, so
	// this is the registrant's RSVP.
	Accepted bool

	// Start is the (next) occurrence start. Zero when DTSTART was missing
	// or unparseable; such entries never pass the filter.
	Start time.Time

	Title       string
	Description string
	Location    string

	// EventURL is the event page link scraped from the description,
	// empty when none was found.
	EventURL string
}
