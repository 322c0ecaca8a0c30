package ics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextOccurrenceNonRecurring(t *testing.T) {
	start := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)
	ev := ParsedEvent{UID: "single", Start: start}

	got, ok := NextOccurrence(ev, time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC), time.Date(2026, 9, 24, 0, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, start, got)
}

func TestNextOccurrenceZeroStart(t *testing.T) {
	_, ok := NextOccurrence(ParsedEvent{UID: "no-start"}, time.Now(), time.Now().AddDate(0, 0, 30))
	assert.False(t, ok)
}

func TestNextOccurrenceWeeklySeries(t *testing.T) {
	// Monday series registered long before the window opens.
	ev := ParsedEvent{
		UID:      "weekly",
		Start:    time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		RawRRule: "FREQ=WEEKLY",
	}

	windowStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, 0, 30)

	got, ok := NextOccurrence(ev, windowStart, windowEnd)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC), got.UTC())
}

func TestNextOccurrenceHonorsExDate(t *testing.T) {
	ev := ParsedEvent{
		UID:      "weekly-ex",
		Start:    time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		RawRRule: "FREQ=WEEKLY",
		ExDates:  []time.Time{time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)},
	}

	windowStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, 0, 30)

	got, ok := NextOccurrence(ev, windowStart, windowEnd)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC), got.UTC())
}

func TestNextOccurrenceNoInstanceInWindow(t *testing.T) {
	// Series ends before the window opens.
	ev := ParsedEvent{
		UID:      "ended",
		Start:    time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC),
		RawRRule: "FREQ=WEEKLY;UNTIL=20260301T000000Z",
	}

	windowStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	windowEnd := windowStart.AddDate(0, 0, 30)

	_, ok := NextOccurrence(ev, windowStart, windowEnd)
	assert.False(t, ok)
}

func TestNextOccurrenceBadRRuleFallsBackToStart(t *testing.T) {
	start := time.Date(2026, 8, 30, 18, 0, 0, 0, time.UTC)
	ev := ParsedEvent{UID: "bad-rrule", Start: start, RawRRule: "FREQ=SOMETIMES"}

	got, ok := NextOccurrence(ev, start.AddDate(0, 0, -5), start.AddDate(0, 0, 25))
	require.True(t, ok)
	assert.Equal(t, start, got)
}
