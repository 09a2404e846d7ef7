// Package config loads and validates the bridge settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	defaultConfigPath = "~/.config/discord-roon/config.toml"
	defaultDBPath     = "~/.local/share/discord-roon/artcache.db"

	// DefaultDiscordClientID is the public application id used for the
	// rich presence display when none is configured.
	DefaultDiscordClientID = "1149335969523318975"

	// DefaultZones is the default zone priority list.
	DefaultZones = "Desktop,Living Room"
)

// ArtProviderKind identifies which artwork provider is active.
type ArtProviderKind int

const (
	// ArtProviderNone disables artwork resolution entirely.
	ArtProviderNone ArtProviderKind = iota
	// ArtProviderGallery resolves artwork through the Imgur album upload flow.
	ArtProviderGallery
	// ArtProviderSearch resolves artwork through Discogs metadata search.
	ArtProviderSearch
)

// String returns a human-readable provider name.
func (k ArtProviderKind) String() string {
	switch k {
	case ArtProviderGallery:
		return "gallery"
	case ArtProviderSearch:
		return "search"
	default:
		return "none"
	}
}

// Config holds all bridge settings.
type Config struct {
	// Zones is the comma-separated zone priority list. Order is priority,
	// display names match case-sensitively.
	Zones string `toml:"zones"`

	// DiscordClientID is the Discord application id for the RPC handshake.
	DiscordClientID string `toml:"discord_client_id"`

	// ImgurEnable turns on the album-upload artwork provider.
	ImgurEnable bool `toml:"imgur_enable"`
	// ImgurClientID authenticates anonymous Imgur API calls.
	ImgurClientID string `toml:"imgur_client_id"`

	// DiscogsEnable turns on the metadata-search artwork provider.
	DiscogsEnable bool `toml:"discogs_enable"`
	// DiscogsUserToken authenticates Discogs database searches.
	DiscogsUserToken string `toml:"discogs_user_token"`

	// CacheDBPath is the SQLite art cache location.
	CacheDBPath string `toml:"cache_db_path"`

	// RoonURL is the websocket address of the Roon core, e.g.
	// "ws://192.168.1.10:9100/api". Discovery is out of scope; the core
	// address is configured explicitly.
	RoonURL string `toml:"roon_url"`
}

// Load reads the config file at path (or the default location when empty),
// applies defaults and environment overrides, and validates the result.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	data, err := os.ReadFile(resolved)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		// Missing file is fine; defaults plus env have to carry it.
	} else {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaults() Config {
	return Config{
		Zones:           DefaultZones,
		DiscordClientID: DefaultDiscordClientID,
		CacheDBPath:     defaultDBPath,
	}
}

// applyEnv lets credentials come from the environment so the config file
// can be committed without secrets. godotenv populates these in main.
func (c *Config) applyEnv() {
	if v := os.Getenv("DISCORD_CLIENT_ID"); v != "" {
		c.DiscordClientID = v
	}
	if v := os.Getenv("IMGUR_CLIENT_ID"); v != "" {
		c.ImgurClientID = v
	}
	if v := os.Getenv("DISCOGS_USER_TOKEN"); v != "" {
		c.DiscogsUserToken = v
	}
	if v := os.Getenv("ROON_URL"); v != "" {
		c.RoonURL = v
	}
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Zones) == "" {
		c.Zones = DefaultZones
	}
	if strings.TrimSpace(c.DiscordClientID) == "" {
		c.DiscordClientID = DefaultDiscordClientID
	}
	if strings.TrimSpace(c.CacheDBPath) == "" {
		c.CacheDBPath = defaultDBPath
	}
	c.CacheDBPath = mustExpand(c.CacheDBPath)
}

func (c *Config) validate() error {
	if c.ImgurEnable && strings.TrimSpace(c.ImgurClientID) == "" {
		return fmt.Errorf("imgur enabled but imgur_client_id is empty")
	}
	if c.DiscogsEnable && strings.TrimSpace(c.DiscogsUserToken) == "" {
		return fmt.Errorf("discogs enabled but discogs_user_token is empty")
	}
	return nil
}

// ArtProvider returns the active artwork provider. The gallery variant wins
// when both integrations are enabled.
func (c Config) ArtProvider() ArtProviderKind {
	switch {
	case c.ImgurEnable:
		return ArtProviderGallery
	case c.DiscogsEnable:
		return ArtProviderSearch
	default:
		return ArtProviderNone
	}
}

// ZoneList returns the parsed priority list, highest priority first.
// Empty entries are dropped; surrounding whitespace is trimmed.
func (c Config) ZoneList() []string {
	parts := strings.Split(c.Zones, ",")
	zones := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			zones = append(zones, name)
		}
	}
	return zones
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Path expansion failed, using as-is")
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
