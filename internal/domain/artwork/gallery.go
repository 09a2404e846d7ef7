package artwork

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// DefaultAlbumTitle names the shared album created on first use.
const DefaultAlbumTitle = "Album Covers for Roon Discord Integration"

// GalleryProvider resolves artwork through a shared upload-based image
// collection. An image is looked up by its title (the source image key);
// when absent, the raw bytes are fetched from the playback source,
// downscaled and uploaded.
type GalleryProvider struct {
	api        GalleryAPI
	store      Store
	fetch      FetchFunc
	albumTitle string

	mu        sync.Mutex
	albumID   string
	albumHash string
}

// NewGalleryProvider creates the upload-based provider. store may be nil,
// in which case the album identity is recreated every run and resolved
// URLs are not persisted.
func NewGalleryProvider(api GalleryAPI, store Store, fetch FetchFunc) *GalleryProvider {
	p := &GalleryProvider{
		api:        api,
		store:      store,
		fetch:      fetch,
		albumTitle: DefaultAlbumTitle,
	}
	if store != nil {
		if id, hash, err := store.GetAlbum(); err == nil && id != "" {
			p.albumID = id
			p.albumHash = hash
			log.Info().Str("album", id).Msg("Gallery: using stored album")
		}
	}
	return p
}

// Resolve implements Provider.
func (p *GalleryProvider) Resolve(ctx context.Context, req Request) (string, error) {
	if req.ImageKey == "" {
		return "", ErrNotFound
	}

	// Persisted hit skips the album round-trip entirely.
	if p.store != nil {
		if url, err := p.store.GetURL(req.ImageKey); err == nil && url != "" {
			log.Debug().Str("imageKey", req.ImageKey).Msg("Gallery: cache hit")
			return url, nil
		}
	}

	albumID, albumHash, err := p.ensureAlbum(ctx)
	if err != nil {
		return "", fmt.Errorf("ensure album: %w", err)
	}

	images, err := p.api.AlbumImages(ctx, albumID)
	if err != nil {
		// The stored album may have been deleted remotely. Recreate once
		// and carry on with an empty collection.
		log.Warn().Err(err).Str("album", albumID).Msg("Gallery: album listing failed, recreating")
		albumID, albumHash, err = p.recreateAlbum(ctx)
		if err != nil {
			return "", fmt.Errorf("recreate album: %w", err)
		}
		images = nil
	}

	if link, ok := images[req.ImageKey]; ok && link != "" {
		p.remember(req.ImageKey, link)
		return link, nil
	}

	data, err := p.fetch(ctx, req.ImageKey)
	if err != nil {
		return "", fmt.Errorf("fetch image bytes: %w", err)
	}

	// Oversized source art is downscaled before upload. Failure to decode
	// is not fatal: upload the original bytes.
	if scaled, err := Downscale(data, MaxUploadDimension); err == nil {
		data = scaled
	} else {
		log.Debug().Err(err).Str("imageKey", req.ImageKey).Msg("Gallery: downscale skipped")
	}

	link, imageHash, err := p.api.UploadImage(ctx, data, req.ImageKey)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	if err := p.api.AddToAlbum(ctx, albumHash, imageHash); err != nil {
		// The upload itself succeeded and the link is valid; a loose image
		// just won't be found by future album listings.
		log.Warn().Err(err).Str("imageKey", req.ImageKey).Msg("Gallery: adding upload to album failed")
	}

	log.Info().Str("imageKey", req.ImageKey).Str("link", link).Msg("Gallery: uploaded cover")
	p.remember(req.ImageKey, link)
	return link, nil
}

// ensureAlbum returns the album identity, creating it lazily on first use.
func (p *GalleryProvider) ensureAlbum(ctx context.Context) (string, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.albumID != "" {
		return p.albumID, p.albumHash, nil
	}
	return p.createAlbumLocked(ctx)
}

func (p *GalleryProvider) recreateAlbum(ctx context.Context) (string, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.createAlbumLocked(ctx)
}

func (p *GalleryProvider) createAlbumLocked(ctx context.Context) (string, string, error) {
	id, hash, err := p.api.CreateAlbum(ctx, p.albumTitle)
	if err != nil {
		return "", "", err
	}

	p.albumID = id
	p.albumHash = hash
	if p.store != nil {
		if err := p.store.PutAlbum(id, hash); err != nil {
			log.Warn().Err(err).Msg("Gallery: persisting album identity failed")
		}
	}

	log.Info().Str("album", id).Msg("Gallery: created album")
	return id, hash, nil
}

func (p *GalleryProvider) remember(imageKey, url string) {
	if p.store == nil {
		return
	}
	if err := p.store.PutURL(imageKey, url); err != nil {
		log.Warn().Err(err).Str("imageKey", imageKey).Msg("Gallery: persisting resolved URL failed")
	}
}
