package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/vocably/speech-engine/internal/api"
	"github.com/vocably/speech-engine/internal/attempts"
	"github.com/vocably/speech-engine/internal/audio"
	"github.com/vocably/speech-engine/internal/config"
	"github.com/vocably/speech-engine/internal/practice"
	"github.com/vocably/speech-engine/internal/recognize"
	"github.com/vocably/speech-engine/internal/storage"
	"github.com/vocably/speech-engine/internal/synth"
)

var version = "dev"

func main() {
	startTime := time.Now()

	var overrides config.Overrides
	flag.StringVar(&overrides.EnvFile, "env-file", "", "path to .env file")
	flag.StringVar(&overrides.HTTPAddr, "addr", "", "http listen address")
	flag.StringVar(&overrides.LogLevel, "log-level", "", "log level")
	flag.StringVar(&overrides.ModelPath, "model", "", "path to the vosk model directory")
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
	log.Info().Str("version", version).Msg("speech-engine starting")

	if !audio.CheckFFmpeg() {
		log.Warn().Msg("ffmpeg not found, only canonical WAV input will decode")
	}
	if !synth.CheckFFprobe() {
		log.Warn().Msg("ffprobe not found, synthesized durations will be absent")
	}

	// Context for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Recognition model. A missing model is fatal: every STT request needs it.
	engineLog := log.With().Str("component", "recognize").Logger()
	engine, err := recognize.NewEngine(cfg.ModelPath, engineLog)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.ModelPath).Msg("failed to load recognition model")
	}

	// Object store
	storeLog := log.With().Str("component", "storage").Logger()
	store, err := storage.NewS3Store(cfg.S3, storeLog)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to reach object store")
	}

	// Attempt persistence, on only when a database is configured
	var attemptStore *attempts.Store
	if cfg.DatabaseURL != "" {
		dbLog := log.With().Str("component", "attempts").Logger()
		attemptStore, err = attempts.Connect(ctx, cfg.DatabaseURL, dbLog)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer attemptStore.Close()
	} else {
		log.Info().Msg("no database configured, attempt persistence disabled")
	}

	// Services
	renderer := synth.NewGoogleTTSClient(cfg.TTSEndpoint, cfg.TTSTimeout)
	synthSvc := synth.NewService(store, renderer, cfg.TTSCacheEnabled, log)

	var sink practice.AttemptSink
	if attemptStore != nil {
		sink = attemptStore
	}
	practiceSvc := practice.NewService(engine, store, sink, cfg.TargetSampleRate, log)

	// HTTP Server
	httpLog := log.With().Str("component", "http").Logger()
	var dbCheck api.HealthChecker
	if attemptStore != nil {
		dbCheck = attemptStore
	}
	deps := api.Deps{
		STT:      api.NewSTTHandler(practiceSvc, httpLog),
		TTS:      api.NewTTSHandler(synthSvc, httpLog),
		Attempts: api.NewAttemptsHandler(attemptReader(attemptStore), httpLog),
		Health:   api.NewHealthHandler(practiceSvc, store, dbCheck, version, startTime),
	}
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

	log.Info().Msg("speech-engine stopped")
}

// attemptReader keeps the handler's nil check meaningful: a nil *Store must
// become a nil interface, not a typed nil.
func attemptReader(s *attempts.Store) api.AttemptReader {
	if s == nil {
		return nil
	}
	return s
}
