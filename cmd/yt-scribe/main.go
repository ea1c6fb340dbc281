package main

import (
	"context"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	ytscribe "github.com/snarg/yt-scribe"
	"github.com/snarg/yt-scribe/internal/api"
	"github.com/snarg/yt-scribe/internal/archive"
	"github.com/snarg/yt-scribe/internal/backend"
	"github.com/snarg/yt-scribe/internal/config"
	"github.com/snarg/yt-scribe/internal/events"
	"github.com/snarg/yt-scribe/internal/metrics"
	"github.com/snarg/yt-scribe/internal/notify"
	"github.com/snarg/yt-scribe/internal/store"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "http listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flag.StringVar(&overrides.StorePath, "store", "", "path to the transcript store file")
	flag.Parse()

	// Config
	cfg, err := config.Load(overrides)
	if err != nil {
		early := zerolog.New(os.Stderr).With().Timestamp().Logger()
		early.Fatal().Err(err).Msg("failed to load config")
	}

	// Logger
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	log := zerolog.New(os.Stdout).With().Timestamp().Logger().Level(level)
	log.Info().Str("version", version).Msg("yt-scribe starting")

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Event bus
	bus := events.NewBus(256)

	// Store
	st, fileStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	// External edits of the store file refresh open browser tabs.
	if fileStore != nil {
		err := fileStore.Watch(ctx, 250*time.Millisecond, func() {
			bus.Publish(events.TypeSavedChanged, nil)
			metrics.SSEEventsPublishedTotal.Inc()
		})
		if err != nil {
			log.Warn().Err(err).Msg("store watcher unavailable")
		}
	}

	// Transcription backends
	providers := buildProviders(cfg, log)
	if len(providers) == 0 {
		log.Fatal().Msg("no transcription backend configured")
	}
	if _, ok := providers[cfg.DefaultService]; !ok {
		log.Fatal().Str("service", cfg.DefaultService).Msg("default service is not configured")
	}

	// Optional MQTT lifecycle events
	var mqtt *notify.Publisher
	if cfg.MQTTBrokerURL != "" {
		mqttLog := log.With().Str("component", "mqtt").Logger()
		mqtt, err = notify.Connect(notify.Options{
			BrokerURL:   cfg.MQTTBrokerURL,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
			Log:         mqttLog,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mqtt broker")
		}
		defer mqtt.Close()
		defer mqtt.Attach(bus)()
	}

	// Optional S3 archival
	var archiver *archive.Archiver
	if cfg.S3Bucket != "" {
		archiver, err = archive.New(archive.Config{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure s3 archive")
		}
		if err := archiver.HeadBucket(ctx); err != nil {
			log.Fatal().Err(err).Str("bucket", cfg.S3Bucket).Msg("s3 bucket check failed")
		}
	}

	// Embedded UI
	webFS, err := fs.Sub(ytscribe.WebFiles, "web")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load embedded web files")
	}

	// HTTP Server
	deps := api.Deps{
		Providers:      providers,
		DefaultService: cfg.DefaultService,
		Store:          st,
		Archiver:       archiver,
		Bus:            bus,
		WebFS:          webFS,
		Version:        version,
		StartTime:      startTime,
	}
	if mqtt != nil {
		deps.MQTT = mqtt
	}
	httpLog := log.With().Str("component", "http").Logger()
	srv := api.NewServer(cfg, deps, httpLog)

	// Start HTTP server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("http server error")
		}
	}

	// Graceful shutdown with 10s timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}

	log.Info().Msg("yt-scribe stopped")
}

// openStore creates the configured store. The second return value is
// non-nil only for the file driver, which supports change watching.
func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (store.Store, *store.FileStore, error) {
	storeLog := log.With().Str("component", "store").Logger()
	switch cfg.StoreDriver {
	case "postgres":
		ps, err := store.NewPGStore(ctx, cfg.DatabaseURL, storeLog)
		return ps, nil, err
	default:
		f, err := store.NewFileStore(cfg.StorePath, storeLog)
		return f, f, err
	}
}

// buildProviders wires up every backend that has the config it needs.
func buildProviders(cfg *config.Config, log zerolog.Logger) map[string]backend.Provider {
	providers := make(map[string]backend.Provider)

	if cfg.CaptionsURL != "" {
		providers["captions"] = backend.NewCaptionsClient(cfg.CaptionsURL, cfg.CaptionsTimeout)
	}
	if cfg.WhisperURL != "" {
		providers["whisper"] = backend.NewWhisperClient(cfg.WhisperURL, cfg.WhisperAPIKey, cfg.WhisperTimeout)
	}
	if cfg.SupadataAPIKey != "" {
		metadata := backend.NewMetadataFetcher("", cfg.MetadataTimeout)
		supaLog := log.With().Str("component", "supadata").Logger()
		providers["supadata"] = backend.NewSupadataClient(cfg.SupadataURL, cfg.SupadataAPIKey, cfg.SupadataTimeout, metadata, supaLog)
	}

	for name := range providers {
		log.Info().Str("service", name).Msg("transcription backend configured")
	}
	return providers
}
