// Package filter decides which feed entries count as relevant registrations.
package filter

import (
	"strings"
	"time"

	"github.com/sreeprasad/luma-notifier/internal/model"
)

// Relevant reports whether a registration should be notified about:
// the organizer address ends with "@<organizerDomain>" (case-insensitive),
// the registrant has accepted, and the start falls inside
// [today, today+lookaheadDays], both bounds inclusive.
//
// A zero Start never matches. The domain check is a strict suffix on the
// full "@domain" form, so "x@evil-lu.ma" does not match domain "lu.ma".
func Relevant(reg model.Registration, today time.Time, lookaheadDays int, organizerDomain string) bool {
	if !OrganizerMatches(reg.Organizer, organizerDomain) {
		return false
	}
	if !reg.Accepted {
		return false
	}
	if reg.Start.IsZero() {
		return false
	}
	if reg.Start.Before(today) {
		return false
	}
	if reg.Start.After(today.AddDate(0, 0, lookaheadDays)) {
		return false
	}
	return true
}

// OrganizerMatches checks the case-insensitive "@domain" suffix.
func OrganizerMatches(organizer, domain string) bool {
	if organizer == "" || domain == "" {
		return false
	}
	org := strings.ToLower(strings.TrimSpace(organizer))
	return strings.HasSuffix(org, "@"+strings.ToLower(domain))
}
