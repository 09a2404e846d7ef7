// Package zone models playback zones reported by the Roon core and the
// selection of the single zone the bridge tracks.
package zone

// State is the playback state of a zone.
type State string

// Playback states. Anything the core reports outside the first three is
// folded into StateOther (e.g. "loading").
const (
	StatePlaying State = "playing"
	StatePaused  State = "paused"
	StateStopped State = "stopped"
	StateOther   State = "other"
)

// ParseState maps a raw state string from the core to a State.
func ParseState(s string) State {
	switch s {
	case "playing":
		return StatePlaying
	case "paused":
		return StatePaused
	case "stopped":
		return StateStopped
	default:
		return StateOther
	}
}

// NowPlaying describes the current track in a zone.
type NowPlaying struct {
	ImageKey     string
	Length       int // seconds
	SeekPosition int // seconds
	Track        string
	Artist       string
	Album        string
}

// Zone is the running snapshot of the tracked zone. It is owned by the
// dispatcher and read-only to downstream components within a pass.
type Zone struct {
	ID          string
	DisplayName string
	State       State
	NowPlaying  *NowPlaying
}

// Record is a partial zone notification. Nil pointer fields were absent
// from the incoming record and must not overwrite existing snapshot state.
type Record struct {
	ID           string
	DisplayName  *string
	State        *State
	NowPlaying   *NowPlayingRecord
	SeekPosition *int // seconds; set only on seek-position deltas
}

// NowPlayingRecord is the partial now-playing section of a Record.
type NowPlayingRecord struct {
	ImageKey     *string
	Length       *int
	SeekPosition *int
	Track        *string
	Artist       *string
	Album        *string
}

// Apply patches the snapshot with the fields present in rec.
func (z *Zone) Apply(rec Record) {
	if rec.ID != "" {
		z.ID = rec.ID
	}
	if rec.DisplayName != nil {
		z.DisplayName = *rec.DisplayName
	}
	if rec.State != nil {
		z.State = *rec.State
	}
	if rec.NowPlaying != nil {
		if z.NowPlaying == nil {
			z.NowPlaying = &NowPlaying{}
		}
		z.NowPlaying.apply(rec.NowPlaying)
	}
	if rec.SeekPosition != nil {
		z.ApplySeek(*rec.SeekPosition)
	}
}

// ApplySeek patches only the seek position, clamped to the track length.
func (z *Zone) ApplySeek(seek int) {
	if z.NowPlaying == nil {
		return
	}
	if seek > z.NowPlaying.Length {
		seek = z.NowPlaying.Length
	}
	z.NowPlaying.SeekPosition = seek
}

func (n *NowPlaying) apply(rec *NowPlayingRecord) {
	if rec.ImageKey != nil {
		n.ImageKey = *rec.ImageKey
	}
	if rec.Length != nil {
		n.Length = *rec.Length
	}
	if rec.SeekPosition != nil {
		n.SeekPosition = *rec.SeekPosition
	}
	if rec.Track != nil {
		n.Track = *rec.Track
	}
	if rec.Artist != nil {
		n.Artist = *rec.Artist
	}
	if rec.Album != nil {
		n.Album = *rec.Album
	}
	if n.SeekPosition > n.Length {
		n.SeekPosition = n.Length
	}
}

// EventKind classifies a zone notification from the core.
type EventKind int

// Notification kinds delivered by the transport.
const (
	EventSnapshot EventKind = iota
	EventChanged
	EventAdded
	EventRemoved
	EventSeekChanged
)

// String returns the event kind name for logging.
func (k EventKind) String() string {
	switch k {
	case EventSnapshot:
		return "snapshot"
	case EventChanged:
		return "changed"
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	case EventSeekChanged:
		return "seek_changed"
	default:
		return "unknown"
	}
}

// Event is a normalized zone notification.
type Event struct {
	Kind    EventKind
	Zones   []Record // for snapshot/changed/added/seek_changed
	Removed []string // zone ids, for removed
}
