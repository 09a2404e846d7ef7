// Package presence reconciles the tracked zone's now-playing state with
// the remote rich-presence display.
package presence

import (
	"time"

	"github.com/jtpox/discord-roon/internal/domain/zone"
)

// PlaceholderImageKey is the display asset shown until real artwork
// resolves, and the fallback when resolution fails.
const PlaceholderImageKey = "roon_labs_logo"

// maxTextLen is the remote display's limit for text fields.
const maxTextLen = 128

// Placeholders for empty metadata fields.
const (
	UnknownTrack  = "Unknown Track"
	UnknownArtist = "Unknown Artist"
	UnknownAlbum  = "Unknown Album"
)

// Activity is the outbound presence payload. It is derived from the zone
// snapshot on every push and never persisted.
type Activity struct {
	Details        string
	State          string
	StartTimestamp int64 // ms since epoch
	EndTimestamp   int64 // ms since epoch
	LargeImageKey  string
	LargeImageText string
	SmallImageKey  string
	SmallImageText string
}

// Client pushes presence updates to the remote display.
type Client interface {
	// Connected reports whether the display is reachable. Pushes while
	// disconnected are dropped, never queued.
	Connected() bool
	SetActivity(a Activity) error
	ClearActivity() error
}

// formatText applies the display's text rules: empty fields fall back to
// a placeholder, a single-character field gets a trailing space (the
// display collapses length-1 strings), and everything is capped at 128
// characters. Padding happens before truncation.
func formatText(s, fallback string) string {
	if s == "" {
		s = fallback
	}
	runes := []rune(s)
	if len(runes) == 1 {
		s += " "
		runes = []rune(s)
	}
	if len(runes) > maxTextLen {
		return string(runes[:maxTextLen])
	}
	return s
}

// deriveActivity builds the presence payload for a playing zone.
// largeImage is the currently resolved artwork reference (placeholder or
// a real URL).
func deriveActivity(z *zone.Zone, largeImage string, now time.Time) Activity {
	np := z.NowPlaying

	startMs := now.UnixMilli() - int64(np.SeekPosition)*1000
	endMs := startMs + int64(np.Length)*1000

	return Activity{
		Details:        formatText(np.Track, UnknownTrack),
		State:          formatText(np.Artist, UnknownArtist),
		StartTimestamp: startMs,
		EndTimestamp:   endMs,
		LargeImageKey:  largeImage,
		LargeImageText: "Listening at: " + z.DisplayName,
		SmallImageKey:  PlaceholderImageKey,
		SmallImageText: formatText(np.Album, UnknownAlbum),
	}
}
