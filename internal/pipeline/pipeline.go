// Package pipeline wires one notification run end to end.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sreeprasad/luma-notifier/internal/delta"
	"github.com/sreeprasad/luma-notifier/internal/filter"
	"github.com/sreeprasad/luma-notifier/internal/ics"
	appLog "github.com/sreeprasad/luma-notifier/internal/log"
	"github.com/sreeprasad/luma-notifier/internal/message"
	"github.com/sreeprasad/luma-notifier/internal/messenger"
	"github.com/sreeprasad/luma-notifier/internal/model"
	"github.com/sreeprasad/luma-notifier/internal/state"
)

// Fetcher retrieves the raw feed body.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// Deps carries the collaborators for one run. Store is mutated and
// persisted as dispatches succeed.
type Deps struct {
	Fetcher   Fetcher
	Messenger messenger.Messenger
	Store     *state.Store

	DestinationContact string
	LookaheadDays      int
	OrganizerDomain    string

	// DryRun dispatches (typically to a console sender) without touching
	// the notified-set, so a rehearsal never suppresses a real
	// notification later.
	DryRun bool

	// Now is overridable in tests; defaults to time.Now.
	Now func() time.Time
}

// Report summarizes a completed run.
type Report struct {
	Found    int // entries parsed from the feed
	Relevant int // entries passing the filter
	New      int // relevant entries not yet notified
	Sent     int
	Failed   int // dispatch failures (entry stays unnotified)
}

// Run executes the fetch → parse → filter → diff → dispatch sequence.
//
// A fetch or document-parse failure aborts before any state mutation. A
// dispatch failure is contained to its entry: the UID is not marked and
// later entries still get their attempt. Each successful dispatch is
// persisted immediately, so a crash mid-run cannot re-send what already
// went out; a persist failure aborts the run.
func Run(ctx context.Context, d Deps) (Report, error) {
	var rep Report

	now := time.Now
	if d.Now != nil {
		now = d.Now
	}

	body, err := d.Fetcher.Fetch(ctx)
	if err != nil {
		return rep, err
	}

	events, err := ics.ParseFeed(body)
	if err != nil {
		return rep, err
	}
	rep.Found = len(events)

	today := now()
	windowEnd := today.AddDate(0, 0, d.LookaheadDays)

	relevant := make([]model.Registration, 0)
	for _, ev := range events {
		start, ok := ics.NextOccurrence(ev, today, windowEnd)
		if !ok {
			start = time.Time{}
		}
		reg := model.Registration{
			UID:         ev.UID,
			Organizer:   ev.Organizer,
			Accepted:    ev.Accepted,
			Start:       start,
			Title:       ev.Summary,
			Description: ev.Description,
			Location:    ev.Location,
			EventURL:    ev.EventURL,
		}
		if filter.Relevant(reg, today, d.LookaheadDays, d.OrganizerDomain) {
			relevant = append(relevant, reg)
		}
	}
	rep.Relevant = len(relevant)

	fresh := delta.New(relevant, d.Store)
	rep.New = len(fresh)
	appLog.Info("run delta computed", "found", rep.Found, "relevant", rep.Relevant, "new", rep.New)

	for _, reg := range fresh {
		text := message.Format(reg)
		if err := d.Messenger.Send(ctx, text, d.DestinationContact); err != nil {
			appLog.Error("dispatch failed, will retry next run", err, "uid", reg.UID, "title", reg.Title)
			rep.Failed++
			continue
		}
		rep.Sent++

		if d.DryRun {
			appLog.Info("dry run, not marking as sent", "uid", reg.UID, "title", reg.Title)
			continue
		}

		d.Store.MarkSent(reg.UID, now())
		if err := d.Store.Save(); err != nil {
			// Re-notification on the next run beats corrupting history,
			// but a store that cannot persist ends the run.
			return rep, fmt.Errorf("persisting notified-set: %w", err)
		}
		appLog.Info("notification sent", "uid", reg.UID, "title", reg.Title)
	}

	return rep, nil
}
