// Package discord implements the Discord rich-presence IPC transport
// over the local discord-ipc unix socket.
package discord

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jtpox/discord-roon/internal/domain/presence"
)

// IPC opcodes.
const (
	opHandshake = 0
	opFrame     = 1
	opClose     = 2
	opPing      = 3
	opPong      = 4
)

const (
	// maxFrameSize caps inbound IPC frames (64KB)
	maxFrameSize = 64 * 1024

	ioTimeout = 10 * time.Second
)

// Common errors
var (
	// ErrNotConnected indicates no active IPC connection
	ErrNotConnected = errors.New("not connected to discord")

	// ErrNoSocket indicates no discord-ipc socket was found
	ErrNoSocket = errors.New("discord ipc socket not found")
)

// Client is a rich-presence IPC client. It implements presence.Client.
type Client struct {
	clientID   string
	socketPath string // fixed path for testing; empty means discover

	mu        sync.Mutex
	conn      net.Conn
	connected bool
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithSocketPath pins the IPC socket path instead of discovering it.
func WithSocketPath(path string) Option {
	return func(c *Client) {
		c.socketPath = path
	}
}

// NewClient creates a client for the given Discord application ID.
func NewClient(clientID string, opts ...Option) *Client {
	c := &Client{clientID: clientID}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect dials the IPC socket and performs the handshake.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return nil
	}

	conn, err := c.dial()
	if err != nil {
		return err
	}

	handshake := map[string]any{"v": 1, "client_id": c.clientID}
	if err := writeFrame(conn, opHandshake, handshake); err != nil {
		conn.Close()
		return fmt.Errorf("handshake: %w", err)
	}

	op, payload, err := readFrame(conn)
	if err != nil {
		conn.Close()
		return fmt.Errorf("handshake response: %w", err)
	}
	if op == opClose {
		conn.Close()
		return fmt.Errorf("handshake rejected: %s", payload)
	}

	c.conn = conn
	c.connected = true
	log.Info().Str("client_id", c.clientID).Msg("Connected to Discord")
	return nil
}

// Close shuts down the IPC connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropLocked()
}

// Connected reports whether the IPC connection is up.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// activityPayload is the wire form of a presence activity.
type activityPayload struct {
	Details    string      `json:"details,omitempty"`
	State      string      `json:"state,omitempty"`
	Type       int         `json:"type"`
	Timestamps *timestamps `json:"timestamps,omitempty"`
	Assets     *assets     `json:"assets,omitempty"`
	Instance   bool        `json:"instance"`
}

type timestamps struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

type assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

// activityTypeListening renders the "Listening to" badge.
const activityTypeListening = 2

// SetActivity pushes the activity to the local Discord client.
func (c *Client) SetActivity(a presence.Activity) error {
	payload := &activityPayload{
		Details: a.Details,
		State:   a.State,
		Type:    activityTypeListening,
		Timestamps: &timestamps{
			Start: a.StartTimestamp,
			End:   a.EndTimestamp,
		},
		Assets: &assets{
			LargeImage: a.LargeImageKey,
			LargeText:  a.LargeImageText,
			SmallImage: a.SmallImageKey,
			SmallText:  a.SmallImageText,
		},
	}
	return c.sendActivity(payload)
}

// ClearActivity removes the presence from the local Discord client.
func (c *Client) ClearActivity() error {
	return c.sendActivity(nil)
}

// commandFrame is a SET_ACTIVITY request.
type commandFrame struct {
	Cmd   string      `json:"cmd"`
	Args  commandArgs `json:"args"`
	Nonce string      `json:"nonce"`
}

type commandArgs struct {
	PID      int              `json:"pid"`
	Activity *activityPayload `json:"activity"`
}

// responseFrame is the subset of a reply we care about.
type responseFrame struct {
	Cmd   string `json:"cmd"`
	Evt   string `json:"evt"`
	Nonce string `json:"nonce"`
	Data  struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"data"`
}

func (c *Client) sendActivity(activity *activityPayload) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.conn == nil {
		return ErrNotConnected
	}

	cmd := commandFrame{
		Cmd:   "SET_ACTIVITY",
		Args:  commandArgs{PID: os.Getpid(), Activity: activity},
		Nonce: uuid.NewString(),
	}

	if err := writeFrame(c.conn, opFrame, cmd); err != nil {
		c.dropLocked()
		return fmt.Errorf("write activity: %w", err)
	}

	resp, err := c.readResponseLocked()
	if err != nil {
		c.dropLocked()
		return fmt.Errorf("activity response: %w", err)
	}
	if resp.Evt == "ERROR" {
		return fmt.Errorf("activity rejected: %s (code %d)", resp.Data.Message, resp.Data.Code)
	}
	return nil
}

// readResponseLocked reads frames until a command reply arrives, answering
// pings along the way. Caller holds c.mu.
func (c *Client) readResponseLocked() (responseFrame, error) {
	for {
		op, payload, err := readFrame(c.conn)
		if err != nil {
			return responseFrame{}, err
		}

		switch op {
		case opPing:
			var echo json.RawMessage = payload
			if err := writeFrame(c.conn, opPong, echo); err != nil {
				return responseFrame{}, err
			}
		case opClose:
			return responseFrame{}, fmt.Errorf("connection closed by peer")
		case opFrame:
			var resp responseFrame
			if err := json.Unmarshal(payload, &resp); err != nil {
				return responseFrame{}, fmt.Errorf("parse response: %w", err)
			}
			return resp, nil
		default:
			log.Debug().Uint32("op", op).Msg("Ignoring IPC frame")
		}
	}
}

func (c *Client) dropLocked() error {
	c.connected = false
	if c.conn != nil {
		err := c.conn.Close()
		c.conn = nil
		return err
	}
	return nil
}

// dial connects to the first reachable discord-ipc socket.
func (c *Client) dial() (net.Conn, error) {
	if c.socketPath != "" {
		return net.DialTimeout("unix", c.socketPath, ioTimeout)
	}

	for _, path := range socketCandidates() {
		conn, err := net.DialTimeout("unix", path, ioTimeout)
		if err == nil {
			log.Debug().Str("socket", path).Msg("Found Discord IPC socket")
			return conn, nil
		}
	}
	return nil, ErrNoSocket
}

// socketCandidates lists the discord-ipc socket paths to try, in order.
func socketCandidates() []string {
	var dirs []string
	for _, env := range []string{"XDG_RUNTIME_DIR", "TMPDIR", "TMP", "TEMP"} {
		if dir := os.Getenv(env); dir != "" {
			dirs = append(dirs, dir)
			// Flatpak and snap builds nest the socket
			dirs = append(dirs,
				filepath.Join(dir, "app", "com.discordapp.Discord"),
				filepath.Join(dir, "snap.discord"),
			)
		}
	}
	dirs = append(dirs, "/tmp")

	var paths []string
	for _, dir := range dirs {
		for i := 0; i < 10; i++ {
			paths = append(paths, filepath.Join(dir, fmt.Sprintf("discord-ipc-%d", i)))
		}
	}
	return paths
}

// writeFrame encodes a little-endian opcode/length header and JSON body.
func writeFrame(conn net.Conn, op uint32, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	buf := make([]byte, 8+len(body))
	binary.LittleEndian.PutUint32(buf[0:4], op)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(body)))
	copy(buf[8:], body)

	conn.SetWriteDeadline(time.Now().Add(ioTimeout))
	_, err = conn.Write(buf)
	return err
}

// readFrame decodes one opcode/length-prefixed frame.
func readFrame(conn net.Conn) (uint32, []byte, error) {
	header := make([]byte, 8)
	conn.SetReadDeadline(time.Now().Add(ioTimeout))
	if _, err := io.ReadFull(conn, header); err != nil {
		return 0, nil, err
	}

	op := binary.LittleEndian.Uint32(header[0:4])
	length := binary.LittleEndian.Uint32(header[4:8])
	if length > maxFrameSize {
		return 0, nil, fmt.Errorf("frame too large: %d bytes", length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(conn, payload); err != nil {
		return 0, nil, err
	}
	return op, payload, nil
}
