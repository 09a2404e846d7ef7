package presence

import (
	"strings"
	"testing"
	"time"

	"github.com/jtpox/discord-roon/internal/domain/zone"
)

func TestFormatText(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		fallback string
		want     string
	}{
		{"normal text unchanged", "Song Title", "Unknown Track", "Song Title"},
		{"empty uses fallback", "", "Unknown Track", "Unknown Track"},
		{"single char padded", "A", "Unknown Track", "A "},
		{"two chars unchanged", "AB", "Unknown Track", "AB"},
		{"long text truncated", strings.Repeat("x", 200), "Unknown Track", strings.Repeat("x", 128)},
		{"exactly 128 unchanged", strings.Repeat("y", 128), "Unknown Track", strings.Repeat("y", 128)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatText(tt.in, tt.fallback)
			if got != tt.want {
				t.Errorf("formatText(%q) = %q (len %d), want %q (len %d)",
					tt.in, got, len(got), tt.want, len(tt.want))
			}
		})
	}
}

func TestFormatTextSingleCharLength(t *testing.T) {
	// The padded single-character field must come out at length 2; the
	// display collapses length-1 strings.
	got := formatText("A", UnknownTrack)
	if len(got) != 2 {
		t.Errorf("padded length = %d, want 2", len(got))
	}
}

func TestDeriveActivityTimestamps(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	z := &zone.Zone{
		ID:          "z1",
		DisplayName: "Desktop",
		State:       zone.StatePlaying,
		NowPlaying: &zone.NowPlaying{
			Track:        "Song",
			Artist:       "Artist",
			Album:        "Album",
			Length:       180,
			SeekPosition: 30,
		},
	}

	act := deriveActivity(z, PlaceholderImageKey, now)

	wantStart := now.UnixMilli() - 30000
	if act.StartTimestamp != wantStart {
		t.Errorf("start = %d, want %d", act.StartTimestamp, wantStart)
	}
	if act.EndTimestamp != wantStart+180000 {
		t.Errorf("end = %d, want %d", act.EndTimestamp, wantStart+180000)
	}
}

func TestDeriveActivityFields(t *testing.T) {
	z := &zone.Zone{
		ID:          "z1",
		DisplayName: "Living Room",
		State:       zone.StatePlaying,
		NowPlaying: &zone.NowPlaying{
			Track:  "Song",
			Artist: "Artist",
			Album:  "Album",
			Length: 60,
		},
	}

	act := deriveActivity(z, "https://img.example/cover.jpg", time.Now())

	if act.Details != "Song" {
		t.Errorf("details = %q", act.Details)
	}
	if act.State != "Artist" {
		t.Errorf("state = %q", act.State)
	}
	if act.LargeImageKey != "https://img.example/cover.jpg" {
		t.Errorf("large image = %q", act.LargeImageKey)
	}
	if act.LargeImageText != "Listening at: Living Room" {
		t.Errorf("large image text = %q", act.LargeImageText)
	}
	if act.SmallImageText != "Album" {
		t.Errorf("small image text = %q", act.SmallImageText)
	}
}

func TestDeriveActivityEmptyMetadata(t *testing.T) {
	z := &zone.Zone{
		ID:          "z1",
		DisplayName: "Desktop",
		State:       zone.StatePlaying,
		NowPlaying:  &zone.NowPlaying{Length: 60},
	}

	act := deriveActivity(z, PlaceholderImageKey, time.Now())

	if act.Details != UnknownTrack {
		t.Errorf("details = %q, want %q", act.Details, UnknownTrack)
	}
	if act.State != UnknownArtist {
		t.Errorf("state = %q, want %q", act.State, UnknownArtist)
	}
	if act.SmallImageText != UnknownAlbum {
		t.Errorf("small image text = %q, want %q", act.SmallImageText, UnknownAlbum)
	}
}
