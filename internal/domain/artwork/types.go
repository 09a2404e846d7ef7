// Package artwork resolves a now-playing image key and track metadata to a
// displayable image URL, through one of two provider variants.
package artwork

import (
	"context"
	"errors"
)

// Common errors
var (
	// ErrNotFound indicates no artwork matched (permanent for this request)
	ErrNotFound = errors.New("artwork not found")

	// ErrTemporaryFailure indicates a transient provider failure
	ErrTemporaryFailure = errors.New("temporary failure")

	// ErrRateLimited indicates the provider rate limit was exceeded
	ErrRateLimited = errors.New("rate limited")
)

// Request carries everything a provider may need to resolve artwork.
type Request struct {
	ImageKey string
	Artist   string
	Album    string
	Track    string
}

// Provider resolves a request to an image URL. Implementations are pure
// lookups from the caller's perspective; any bookkeeping (album identity,
// caches) is encapsulated.
type Provider interface {
	Resolve(ctx context.Context, req Request) (string, error)
}

// FetchFunc returns the raw image bytes for an image key from the
// playback source.
type FetchFunc func(ctx context.Context, imageKey string) ([]byte, error)

// GalleryAPI is the subset of the gallery host API the upload-based
// provider needs.
type GalleryAPI interface {
	// AlbumImages returns title→link for every image in the album.
	AlbumImages(ctx context.Context, albumID string) (map[string]string, error)

	// CreateAlbum creates a new shared album.
	CreateAlbum(ctx context.Context, title string) (id, deleteHash string, err error)

	// UploadImage uploads image bytes titled with the image key.
	UploadImage(ctx context.Context, data []byte, title string) (link, deleteHash string, err error)

	// AddToAlbum attaches an uploaded image to the album.
	AddToAlbum(ctx context.Context, albumDeleteHash, imageDeleteHash string) error
}

// Store persists resolved URLs and the gallery album identity across
// restarts. Implementations must treat a missing entry as ("", nil).
type Store interface {
	GetURL(imageKey string) (string, error)
	PutURL(imageKey, url string) error
	GetAlbum() (id, deleteHash string, err error)
	PutAlbum(id, deleteHash string) error
}

// Searcher is the subset of the metadata-search API the search-based
// provider needs. An empty URL with a nil error means no match.
type Searcher interface {
	SearchCoverImage(ctx context.Context, artist, album, track string) (string, error)
}
