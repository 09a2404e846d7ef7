// Package imgur is a minimal Imgur API client covering the anonymous
// album upload flow the gallery artwork provider needs.
package imgur

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBaseURL is the Imgur API base URL
	DefaultBaseURL = "https://api.imgur.com/3"

	// DefaultTimeout for HTTP requests
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit - Imgur credits are scarce for anonymous clients
	DefaultRateLimit = 2 // requests per second

	// MaxResponseSize caps API response bodies (1MB)
	MaxResponseSize = 1 * 1024 * 1024
)

// Common errors
var (
	// ErrRateLimited indicates the API rate limit was exceeded
	ErrRateLimited = errors.New("rate limited")

	// ErrNotFound indicates the requested album does not exist
	ErrNotFound = errors.New("not found")
)

// Client talks to the Imgur API with anonymous Client-ID auth.
type Client struct {
	baseURL    string
	clientID   string
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

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// NewClient creates a new Imgur API client.
func NewClient(clientID string, opts ...Option) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		clientID: clientID,
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

// apiEnvelope is the standard Imgur response wrapper.
type apiEnvelope struct {
	Data    json.RawMessage `json:"data"`
	Success bool            `json:"success"`
	Status  int             `json:"status"`
}

// imageData is one image record in API responses.
type imageData struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Link       string `json:"link"`
	DeleteHash string `json:"deletehash"`
}

// albumData is an album record in API responses.
type albumData struct {
	ID         string `json:"id"`
	DeleteHash string `json:"deletehash"`
}

// AlbumImages returns title→link for every image in the album.
func (c *Client) AlbumImages(ctx context.Context, albumID string) (map[string]string, error) {
	raw, err := c.do(ctx, http.MethodGet, "/album/"+albumID+"/images", "", nil)
	if err != nil {
		return nil, err
	}

	var images []imageData
	if err := json.Unmarshal(raw, &images); err != nil {
		return nil, fmt.Errorf("parse album images: %w", err)
	}

	out := make(map[string]string, len(images))
	for _, img := range images {
		if img.Title != "" {
			out[img.Title] = img.Link
		}
	}
	return out, nil
}

// CreateAlbum creates a new anonymous album.
func (c *Client) CreateAlbum(ctx context.Context, title string) (string, string, error) {
	form := url.Values{}
	form.Set("title", title)

	raw, err := c.do(ctx, http.MethodPost, "/album",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return "", "", err
	}

	var album albumData
	if err := json.Unmarshal(raw, &album); err != nil {
		return "", "", fmt.Errorf("parse album: %w", err)
	}
	if album.ID == "" {
		return "", "", fmt.Errorf("album response missing id")
	}
	return album.ID, album.DeleteHash, nil
}

// UploadImage uploads image bytes titled with the image key.
func (c *Client) UploadImage(ctx context.Context, data []byte, title string) (string, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("image", title)
	if err != nil {
		return "", "", fmt.Errorf("build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", "", fmt.Errorf("build upload form: %w", err)
	}
	for field, value := range map[string]string{
		"type":        "image",
		"title":       title,
		"description": title,
	} {
		if err := w.WriteField(field, value); err != nil {
			return "", "", fmt.Errorf("build upload form: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return "", "", fmt.Errorf("build upload form: %w", err)
	}

	raw, err := c.do(ctx, http.MethodPost, "/image", w.FormDataContentType(), &body)
	if err != nil {
		return "", "", err
	}

	var img imageData
	if err := json.Unmarshal(raw, &img); err != nil {
		return "", "", fmt.Errorf("parse upload: %w", err)
	}
	if img.Link == "" {
		return "", "", fmt.Errorf("upload response missing link")
	}
	return img.Link, img.DeleteHash, nil
}

// AddToAlbum attaches an uploaded image to an album by deletehash. Both
// hashes are required for anonymous albums.
func (c *Client) AddToAlbum(ctx context.Context, albumDeleteHash, imageDeleteHash string) error {
	form := url.Values{}
	form.Set("deletehashes[]", imageDeleteHash)

	_, err := c.do(ctx, http.MethodPost, "/album/"+albumDeleteHash+"/add",
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	return err
}

// do performs one API request and unwraps the response envelope.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", "Client-ID "+c.clientID)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// Success
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var envelope apiEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if !envelope.Success {
		return nil, fmt.Errorf("api error: status %d", envelope.Status)
	}
	return envelope.Data, nil
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
