package presence

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jtpox/discord-roon/internal/domain/artwork"
	"github.com/jtpox/discord-roon/internal/domain/zone"
)

// phase is the reconciler's internal state.
type phase int

const (
	phaseIdle phase = iota
	phasePaused
	phasePlaying
)

// artSlot is the single-slot artwork cache. Only the most recently
// requested key is tracked; the inFlight flag gates duplicate concurrent
// resolutions process-wide.
type artSlot struct {
	key      string
	url      string
	inFlight bool
}

// Reconciler drives the remote presence display from zone snapshots.
// Synchronous text/timestamp pushes are strictly ordered by notification
// arrival; the asynchronous artwork push is not, bounded by the single
// in-flight resolution.
type Reconciler struct {
	client   Client
	provider artwork.Provider // nil disables artwork resolution
	now      func() time.Time

	mu     sync.Mutex
	phase  phase
	pushed bool
	slot   artSlot
	last   *Activity
}

// NewReconciler creates a reconciler. provider may be nil.
func NewReconciler(client Client, provider artwork.Provider) *Reconciler {
	return &Reconciler{
		client:   client,
		provider: provider,
		now:      time.Now,
		slot:     artSlot{url: PlaceholderImageKey},
	}
}

// Apply reconciles the display with the snapshot. cheap marks seek-only
// passes, which must not trigger artwork resolution.
func (r *Reconciler) Apply(ctx context.Context, z *zone.Zone, cheap bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case z == nil:
		r.toIdleLocked()

	case z.State == zone.StatePaused:
		if r.phase != phasePaused {
			r.clearLocked()
			r.phase = phasePaused
			r.last = nil
		}

	case z.State == zone.StatePlaying && z.NowPlaying != nil:
		act := deriveActivity(z, r.slot.url, r.now())
		r.pushLocked(act)
		r.phase = phasePlaying
		if !cheap {
			r.maybeResolveArtLocked(ctx, z)
		}

	default:
		// stopped, other, or a claimed "playing" without track data.
		r.toIdleLocked()
	}
}

// Reset returns the reconciler to idle, clearing the display if needed.
// The art slot is deliberately kept: a removed-and-re-added zone playing
// the same track must not re-trigger resolution.
func (r *Reconciler) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toIdleLocked()
}

func (r *Reconciler) toIdleLocked() {
	if r.pushed {
		r.clearLocked()
	}
	r.phase = phaseIdle
	r.last = nil
}

// maybeResolveArtLocked triggers an asynchronous artwork resolution when
// the image key changed and no resolution is outstanding. The guard and
// the key are set before any suspension point; that ordering is the
// de-duplication mechanism.
func (r *Reconciler) maybeResolveArtLocked(ctx context.Context, z *zone.Zone) {
	if r.provider == nil {
		return
	}

	key := z.NowPlaying.ImageKey
	if key == "" || key == r.slot.key || r.slot.inFlight {
		return
	}

	r.slot.inFlight = true
	r.slot.key = key

	req := artwork.Request{
		ImageKey: key,
		Artist:   z.NowPlaying.Artist,
		Album:    z.NowPlaying.Album,
		Track:    z.NowPlaying.Track,
	}

	log.Debug().Str("imageKey", key).Msg("Triggering artwork resolution")
	go r.resolveArt(ctx, req)
}

// resolveArt runs off the dispatcher goroutine. The result is folded back
// into the slot and pushed as an incremental large-image patch.
func (r *Reconciler) resolveArt(ctx context.Context, req artwork.Request) {
	url, err := r.provider.Resolve(ctx, req)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err != nil || url == "" {
		if errors.Is(err, artwork.ErrNotFound) {
			log.Info().Str("imageKey", req.ImageKey).Msg("No artwork found")
		} else {
			log.Warn().Err(err).Str("imageKey", req.ImageKey).Msg("Artwork resolution failed")
		}
		url = PlaceholderImageKey
	}

	r.slot.url = url
	r.slot.inFlight = false

	// Patch, don't replace: only the large image changes, the rest stays
	// as last pushed. Nothing to patch if the display was cleared.
	if r.last != nil {
		r.last.LargeImageKey = url
		r.setActivityLocked(*r.last)
	}
}

// pushLocked sends a full activity and records it for later patching.
func (r *Reconciler) pushLocked(a Activity) {
	r.setActivityLocked(a)
	r.last = &a
}

func (r *Reconciler) setActivityLocked(a Activity) {
	if !r.client.Connected() {
		return
	}
	if err := r.client.SetActivity(a); err != nil {
		log.Warn().Err(err).Msg("Presence push failed")
		return
	}
	r.pushed = true
}

func (r *Reconciler) clearLocked() {
	if !r.client.Connected() {
		return
	}
	if err := r.client.ClearActivity(); err != nil {
		log.Warn().Err(err).Msg("Presence clear failed")
		return
	}
	r.pushed = false
}
