package artwork

import (
	"context"
	"errors"
	"testing"
)

type fakeSearcher struct {
	gotArtist string
	gotAlbum  string
	gotTrack  string
	url       string
	err       error
}

func (f *fakeSearcher) SearchCoverImage(ctx context.Context, artist, album, track string) (string, error) {
	f.gotArtist = artist
	f.gotAlbum = album
	f.gotTrack = track
	return f.url, f.err
}

func TestSearchResolveNormalizesCredits(t *testing.T) {
	s := &fakeSearcher{url: "https://covers.example/1.jpg"}
	p := NewSearchProvider(s)

	url, err := p.Resolve(context.Background(), Request{
		ImageKey: "k",
		Artist:   "Artist A / Artist B",
		Album:    "Album Name (feat. Guest)",
		Track:    "Song Title (feat. Someone)",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://covers.example/1.jpg" {
		t.Errorf("got url %q", url)
	}

	if s.gotArtist != "Artist A" {
		t.Errorf("artist passed as %q, want %q", s.gotArtist, "Artist A")
	}
	if s.gotAlbum != "Album Name" {
		t.Errorf("album passed as %q, want %q", s.gotAlbum, "Album Name")
	}
	if s.gotTrack != "Song Title" {
		t.Errorf("track passed as %q, want %q", s.gotTrack, "Song Title")
	}
}

func TestSearchResolveNoMatch(t *testing.T) {
	p := NewSearchProvider(&fakeSearcher{url: ""})
	_, err := p.Resolve(context.Background(), Request{Artist: "A", Track: "T"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchResolvePropagatesError(t *testing.T) {
	wantErr := errors.New("search backend down")
	p := NewSearchProvider(&fakeSearcher{err: wantErr})
	_, err := p.Resolve(context.Background(), Request{Artist: "A", Track: "T"})
	if !errors.Is(err, wantErr) {
		t.Errorf("expected wrapped backend error, got %v", err)
	}
}
