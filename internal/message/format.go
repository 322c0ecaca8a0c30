// Package message renders the outgoing notification text.
package message

import (
	"strings"

	"github.com/sreeprasad/luma-notifier/internal/model"
)

const dateLayout = "Mon, Jan 2 at 3:04 PM"

// Format renders one registration into a short, human-readable message.
// Deterministic for a given registration; no side effects.
func Format(reg model.Registration) string {
	title := reg.Title
	if title == "" {
		title = "Untitled Event"
	}

	lines := []string{
		"Hey! I just registered for an event:",
		"",
		title,
	}
	if !reg.Start.IsZero() {
		lines = append(lines, reg.Start.Format(dateLayout))
	}
	if reg.EventURL != "" {
		lines = append(lines, reg.EventURL)
	}

	return strings.Join(lines, "\n")
}
