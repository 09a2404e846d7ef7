// Package discogs is a minimal Discogs database search client used by
// the search-based artwork provider.
package discogs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the Discogs API base URL
	DefaultBaseURL = "https://api.discogs.com"

	// DefaultUserAgent follows Discogs API guidelines
	DefaultUserAgent = "discord-roon/2.0 +https://github.com/jtpox/discord-roon"

	// DefaultTimeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit - authenticated Discogs clients get 60/minute
	DefaultRateLimit = 1 // requests per second

	// MaxResponseSize caps API response bodies (1MB)
	MaxResponseSize = 1 * 1024 * 1024
)

// Common errors
var (
	// ErrRateLimited indicates the API rate limit was exceeded
	ErrRateLimited = errors.New("rate limited")
)

// Client searches the Discogs database with user-token auth.
type Client struct {
	baseURL    string
	userAgent  string
	token      string
	httpClient *http.Client
	limiter    *rateLimiter
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (useful for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a new Discogs client.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		token:     token,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: newRateLimiter(DefaultRateLimit),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// searchResponse is a Discogs database search response.
type searchResponse struct {
	Results []searchResult `json:"results"`
}

// searchResult is one entry of a search response.
type searchResult struct {
	ID         int    `json:"id"`
	Title      string `json:"title"`
	CoverImage string `json:"cover_image"`
	Thumb      string `json:"thumb"`
}

// SearchCoverImage searches the database by artist, release title and
// track, returning the first result's cover image URL. An empty URL with
// a nil error means no match was found.
func (c *Client) SearchCoverImage(ctx context.Context, artist, album, track string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	query := url.Values{}
	query.Set("artist", artist)
	query.Set("track", track)
	if album != "" {
		query.Set("release_title", album)
	}
	query.Set("per_page", "5")

	searchURL := c.baseURL + "/database/search?" + query.Encode()

	log.Debug().
		Str("artist", artist).
		Str("track", track).
		Msg("Searching Discogs for cover image")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Discogs token="+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Success
	case http.StatusTooManyRequests:
		log.Warn().Str("artist", artist).Msg("Discogs rate limit exceeded")
		return "", ErrRateLimited
	default:
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var search searchResponse
	if err := json.Unmarshal(body, &search); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if len(search.Results) == 0 {
		return "", nil
	}

	first := search.Results[0]
	if first.CoverImage != "" {
		return first.CoverImage, nil
	}
	return first.Thumb, nil
}

// rateLimiter implements a simple token-interval rate limiter
type rateLimiter struct {
	mu          sync.Mutex
	interval    time.Duration
	lastRequest time.Time
}

func newRateLimiter(requestsPerSecond int) *rateLimiter {
	return &rateLimiter{
		interval: time.Second / time.Duration(requestsPerSecond),
	}
}

// Wait blocks until a request can be made
func (r *rateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	nextAllowed := r.lastRequest.Add(r.interval)

	if now.Before(nextAllowed) {
		select {
		case <-time.After(nextAllowed.Sub(now)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	r.lastRequest = time.Now()
	return nil
}
