package artwork

import (
	"context"

	"github.com/rs/zerolog/log"
)

// SearchProvider resolves artwork by querying an external metadata
// database with normalized track credits.
type SearchProvider struct {
	search Searcher
}

// NewSearchProvider creates the metadata-search provider.
func NewSearchProvider(search Searcher) *SearchProvider {
	return &SearchProvider{search: search}
}

// Resolve implements Provider. The artist is reduced to the primary
// credited artist and featured-artist clauses are stripped from the album
// and track titles before searching; both annotations frequently cause
// false-negative matches.
func (p *SearchProvider) Resolve(ctx context.Context, req Request) (string, error) {
	artist := PrimaryArtist(req.Artist)
	album := StripFeatClause(req.Album)
	track := StripFeatClause(req.Track)

	url, err := p.search.SearchCoverImage(ctx, artist, album, track)
	if err != nil {
		return "", err
	}
	if url == "" {
		log.Info().
			Str("artist", artist).
			Str("track", track).
			Msg("Search: no cover image found")
		return "", ErrNotFound
	}
	return url, nil
}
