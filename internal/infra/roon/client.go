// Package roon connects to a Roon core over websocket and exposes zone
// notifications and image retrieval.
package roon

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/jtpox/discord-roon/internal/domain/zone"
	"github.com/jtpox/discord-roon/internal/version"
)

const (
	// ExtensionID identifies this bridge to the Roon core.
	ExtensionID = "com.jtpox.discord-roon"

	// DefaultRequestTimeout bounds a single request/response exchange.
	DefaultRequestTimeout = 15 * time.Second

	// ImageFitSize is the requested dimension for zone artwork.
	ImageFitSize = 512

	writeWait      = 10 * time.Second
	handshakeWait  = 10 * time.Second
	eventQueueSize = 32
)

// Common errors
var (
	// ErrNotConnected indicates no active core connection
	ErrNotConnected = errors.New("not connected to core")

	// ErrRequestFailed indicates the core rejected a request
	ErrRequestFailed = errors.New("request failed")
)

// message is the JSON frame exchanged with the core.
type message struct {
	Verb      string          `json:"verb"`
	Name      string          `json:"name,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
	Body      json.RawMessage `json:"body,omitempty"`
}

// Message verbs.
const (
	verbRequest  = "REQUEST"
	verbComplete = "COMPLETE"
	verbContinue = "CONTINUE"
)

// Client is a Roon core websocket client. A Client serves one connection
// at a time; after the read loop ends, Connect may be called again to dial
// a fresh one. The reconnect loop itself belongs to the caller.
type Client struct {
	url string

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan message
	events  chan zone.Event
	closed  bool
}

// NewClient creates a client for the given core websocket URL
// (e.g. ws://core.local:9100/api).
func NewClient(url string) *Client {
	return &Client{
		url:     url,
		pending: make(map[string]chan message),
	}
}

// Connect dials the core and registers the extension. It starts the read
// loop; the connection stays up until Close or a transport error.
func (c *Client) Connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeWait}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial core: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.closed = false
	c.mu.Unlock()

	go c.readLoop()

	if err := c.register(ctx); err != nil {
		c.Close()
		return err
	}

	log.Info().Str("url", c.url).Msg("Connected to Roon core")
	return nil
}

type registration struct {
	ExtensionID string `json:"extension_id"`
	DisplayName string `json:"display_name"`
	Version     string `json:"display_version"`
	Publisher   string `json:"publisher"`
	Email       string `json:"email"`
	Website     string `json:"website"`
}

func (c *Client) register(ctx context.Context) error {
	reg := registration{
		ExtensionID: ExtensionID,
		DisplayName: "Discord Rich Presence",
		Version:     version.Version,
		Publisher:   "jtpox",
		Email:       "jt@jtpox.com",
		Website:     "https://github.com/jtpox/discord-roon",
	}
	body, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("encode registration: %w", err)
	}

	resp, err := c.request(ctx, "com.roonlabs.registry:1/register", body)
	if err != nil {
		return fmt.Errorf("register extension: %w", err)
	}
	if resp.Name != "Registered" {
		return fmt.Errorf("%w: registration rejected (%s)", ErrRequestFailed, resp.Name)
	}
	return nil
}

// SubscribeZones subscribes to zone notifications. The returned channel
// carries the initial snapshot followed by deltas, and is closed when the
// connection drops.
func (c *Client) SubscribeZones(ctx context.Context) (<-chan zone.Event, error) {
	c.mu.Lock()
	if c.conn == nil || c.closed {
		c.mu.Unlock()
		return nil, ErrNotConnected
	}
	if c.events == nil {
		c.events = make(chan zone.Event, eventQueueSize)
	}
	events := c.events
	c.mu.Unlock()

	body, _ := json.Marshal(map[string]int{"subscription_key": 0})
	resp, err := c.request(ctx, "com.roonlabs.transport:2/subscribe_zones", body)
	if err != nil {
		return nil, fmt.Errorf("subscribe zones: %w", err)
	}
	if resp.Name != "Subscribed" {
		return nil, fmt.Errorf("%w: subscribe rejected (%s)", ErrRequestFailed, resp.Name)
	}

	// The subscribe response carries the initial snapshot.
	for _, ev := range parseZoneBody(resp.Body) {
		c.deliver(ev)
	}
	return events, nil
}

type imageRequest struct {
	ImageKey string `json:"image_key"`
	Scale    string `json:"scale"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Format   string `json:"format"`
}

type imageResponse struct {
	ContentType string `json:"content_type"`
	Image       string `json:"image"` // base64
}

// GetImage fetches zone artwork by image key, scaled to fit.
func (c *Client) GetImage(ctx context.Context, imageKey string) ([]byte, error) {
	body, err := json.Marshal(imageRequest{
		ImageKey: imageKey,
		Scale:    "fit",
		Width:    ImageFitSize,
		Height:   ImageFitSize,
		Format:   "image/jpeg",
	})
	if err != nil {
		return nil, fmt.Errorf("encode image request: %w", err)
	}

	resp, err := c.request(ctx, "com.roonlabs.image:1/get_image", body)
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	if resp.Name != "Success" {
		return nil, fmt.Errorf("%w: get image (%s)", ErrRequestFailed, resp.Name)
	}

	var img imageResponse
	if err := json.Unmarshal(resp.Body, &img); err != nil {
		return nil, fmt.Errorf("parse image response: %w", err)
	}

	data, err := base64.StdEncoding.DecodeString(img.Image)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return data, nil
}

// Close shuts down the connection. The events channel is closed by the
// read loop on its way out.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.conn == nil {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// request sends a REQUEST frame and waits for the matching COMPLETE.
func (c *Client) request(ctx context.Context, name string, body json.RawMessage) (message, error) {
	id := uuid.NewString()
	ch := make(chan message, 1)

	c.mu.Lock()
	if c.conn == nil || c.closed {
		c.mu.Unlock()
		return message{}, ErrNotConnected
	}
	c.pending[id] = ch
	conn := c.conn
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	msg := message{Verb: verbRequest, Name: name, RequestID: id, Body: body}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		return message{}, fmt.Errorf("write request: %w", err)
	}

	timer := time.NewTimer(DefaultRequestTimeout)
	defer timer.Stop()

	select {
	case resp, ok := <-ch:
		if !ok {
			return message{}, ErrNotConnected
		}
		return resp, nil
	case <-timer.C:
		return message{}, fmt.Errorf("request %s: timeout", name)
	case <-ctx.Done():
		return message{}, ctx.Err()
	}
}

// readLoop dispatches incoming frames to pending requests and the event
// channel until the connection dies.
func (c *Client) readLoop() {
	defer c.teardown()

	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			c.mu.Lock()
			closed := c.closed
			c.mu.Unlock()
			if !closed {
				log.Warn().Err(err).Msg("Core connection lost")
			}
			return
		}

		switch msg.Verb {
		case verbComplete:
			c.mu.Lock()
			ch, ok := c.pending[msg.RequestID]
			c.mu.Unlock()
			if ok {
				ch <- msg
			}
		case verbContinue:
			if msg.Name == "Changed" {
				for _, ev := range parseZoneBody(msg.Body) {
					c.deliver(ev)
				}
			}
		default:
			log.Debug().Str("verb", msg.Verb).Str("name", msg.Name).Msg("Ignoring frame")
		}
	}
}

func (c *Client) deliver(ev zone.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.events == nil || c.closed {
		return
	}
	// teardown closes the channel under the same lock, so the send must
	// stay under it too. The default arm keeps it from blocking.
	select {
	case c.events <- ev:
	default:
		log.Warn().Str("kind", ev.Kind.String()).Msg("Dropping zone event, queue full")
	}
}

func (c *Client) teardown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
	if c.events != nil {
		close(c.events)
		c.events = nil
	}
}
