package presence

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/jtpox/discord-roon/internal/domain/zone"
)

// Dispatcher demultiplexes zone notifications from the core, maintains
// the running snapshot of the tracked zone and feeds the reconciler. It
// owns the snapshot; one notification is processed fully (including its
// synchronous presence push) before the next.
type Dispatcher struct {
	selector   *zone.Selector
	reconciler *Reconciler

	tracked *zone.Zone
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(selector *zone.Selector, reconciler *Reconciler) *Dispatcher {
	return &Dispatcher{
		selector:   selector,
		reconciler: reconciler,
	}
}

// Run consumes events until the channel closes or the context ends.
func (d *Dispatcher) Run(ctx context.Context, events <-chan zone.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			d.HandleEvent(ctx, ev)
		}
	}
}

// HandleEvent classifies and processes one zone notification.
func (d *Dispatcher) HandleEvent(ctx context.Context, ev zone.Event) {
	switch ev.Kind {
	case zone.EventSnapshot, zone.EventChanged, zone.EventAdded:
		d.handleZones(ctx, ev.Zones)
	case zone.EventRemoved:
		d.handleRemoved(ev.Removed)
	case zone.EventSeekChanged:
		d.handleSeek(ctx, ev.Zones)
	default:
		log.Debug().Str("kind", ev.Kind.String()).Msg("Ignoring unknown zone event")
	}
}

// HandleDisconnect resets state when the core goes away. The presence
// display is cleared; nothing is replayed when the core comes back.
func (d *Dispatcher) HandleDisconnect() {
	d.tracked = nil
	d.reconciler.Reset()
}

func (d *Dispatcher) handleZones(ctx context.Context, records []zone.Record) {
	selected := d.selector.Select(records)
	if selected == nil {
		// No priority zone in this report; nothing is updated.
		return
	}

	if d.tracked == nil || d.tracked.ID != selected.ID {
		// Priority zone changed: replace the snapshot wholesale.
		if d.tracked != nil {
			log.Info().
				Str("from", d.tracked.ID).
				Str("to", selected.ID).
				Msg("Tracked zone changed")
		}
		d.tracked = &zone.Zone{}
	}

	d.tracked.Apply(*selected)
	d.reconciler.Apply(ctx, d.tracked, false)
}

func (d *Dispatcher) handleRemoved(ids []string) {
	if d.tracked == nil {
		return
	}
	for _, id := range ids {
		if id == d.tracked.ID {
			log.Info().Str("zone", id).Msg("Tracked zone removed")
			d.tracked = nil
			d.reconciler.Reset()
			return
		}
	}
}

// handleSeek patches only the seek position. A record for a zone that is
// not tracked is expected multi-zone traffic, not an error.
func (d *Dispatcher) handleSeek(ctx context.Context, records []zone.Record) {
	if d.tracked == nil {
		return
	}
	for _, rec := range records {
		if rec.ID != d.tracked.ID || rec.SeekPosition == nil {
			continue
		}
		d.tracked.ApplySeek(*rec.SeekPosition)
		d.reconciler.Apply(ctx, d.tracked, true)
		return
	}
}
