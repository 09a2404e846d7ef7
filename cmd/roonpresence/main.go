// Package main is the entry point for the Roon Discord presence bridge.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jtpox/discord-roon/internal/config"
	"github.com/jtpox/discord-roon/internal/domain/artwork"
	"github.com/jtpox/discord-roon/internal/domain/presence"
	"github.com/jtpox/discord-roon/internal/domain/zone"
	"github.com/jtpox/discord-roon/internal/infra/cache"
	"github.com/jtpox/discord-roon/internal/infra/discogs"
	"github.com/jtpox/discord-roon/internal/infra/imgur"
	"github.com/jtpox/discord-roon/internal/infra/roon"
	"github.com/jtpox/discord-roon/internal/transport/discord"
	"github.com/jtpox/discord-roon/internal/version"
)

const (
	discordRetryInterval = 15 * time.Second
	coreRetryInterval    = 5 * time.Second
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to config file (default ~/.config/discord-roon/config.toml)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	// Setup logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Secrets can live in a .env next to the binary
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("Loaded .env file")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Print startup banner
	versionInfo := version.GetInfo()
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().Msgf("  %s", versionInfo.String())
	log.Info().Msg("  Roon → Discord Rich Presence Bridge")
	log.Info().Msg("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	log.Info().
		Strs("zones", cfg.ZoneList()).
		Str("art_provider", cfg.ArtProvider().String()).
		Str("roon_url", cfg.RoonURL).
		Msg("Configuration")

	if cfg.RoonURL == "" {
		log.Fatal().Msg("roon_url is not configured")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The core client doubles as the image source for the gallery provider.
	roonClient := roon.NewClient(cfg.RoonURL)

	provider, store := buildArtProvider(cfg, roonClient.GetImage)
	if store != nil {
		defer store.Close()
	}

	// Discord connection is best-effort: the bridge keeps running while the
	// desktop client is away and reattaches when it comes back.
	discordClient := discord.NewClient(cfg.DiscordClientID)
	if err := discordClient.Connect(); err != nil {
		log.Warn().Err(err).Msg("Discord not reachable yet, will retry")
	}
	defer discordClient.Close()
	go maintainDiscord(ctx, discordClient)

	selector := zone.NewSelector(cfg.ZoneList())
	reconciler := presence.NewReconciler(discordClient, provider)
	dispatcher := presence.NewDispatcher(selector, reconciler)

	runBridge(ctx, roonClient, dispatcher)

	// Leave no stale presence behind on shutdown.
	dispatcher.HandleDisconnect()
	roonClient.Close()
	log.Info().Msg("Bridge stopped")
}

// buildArtProvider wires the configured artwork provider. The cache store
// is returned for shutdown when the gallery variant opened one.
func buildArtProvider(cfg config.Config, fetch artwork.FetchFunc) (artwork.Provider, *cache.Store) {
	switch cfg.ArtProvider() {
	case config.ArtProviderGallery:
		store := cache.NewStore(cfg.CacheDBPath)
		if err := store.Open(); err != nil {
			log.Warn().Err(err).Msg("Art cache unavailable, continuing without persistence")
			store = nil
		}
		api := imgur.NewClient(cfg.ImgurClientID)
		var persist artwork.Store
		if store != nil {
			persist = store
		}
		return artwork.NewGalleryProvider(api, persist, fetch), store

	case config.ArtProviderSearch:
		return artwork.NewSearchProvider(discogs.NewClient(cfg.DiscogsUserToken)), nil

	default:
		log.Info().Msg("Artwork resolution disabled")
		return nil, nil
	}
}

// maintainDiscord reattaches to the local Discord client whenever the
// connection drops.
func maintainDiscord(ctx context.Context, client *discord.Client) {
	ticker := time.NewTicker(discordRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if client.Connected() {
				continue
			}
			if err := client.Connect(); err != nil {
				log.Debug().Err(err).Msg("Discord reconnect failed")
			}
		}
	}
}

// runBridge keeps a core connection alive, feeding zone events into the
// dispatcher until the context ends.
func runBridge(ctx context.Context, client *roon.Client, dispatcher *presence.Dispatcher) {
	for {
		if err := connectAndRun(ctx, client, dispatcher); err != nil {
			log.Warn().Err(err).Msg("Core session ended")
		}
		dispatcher.HandleDisconnect()

		select {
		case <-ctx.Done():
			return
		case <-time.After(coreRetryInterval):
		}
	}
}

func connectAndRun(ctx context.Context, client *roon.Client, dispatcher *presence.Dispatcher) error {
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	events, err := client.SubscribeZones(ctx)
	if err != nil {
		return err
	}

	// Blocks until the connection drops or shutdown.
	dispatcher.Run(ctx, events)
	return nil
}
