package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/debemdeboas/semantic-composer/internal/config"
	"github.com/debemdeboas/semantic-composer/internal/db"
	"github.com/debemdeboas/semantic-composer/internal/engine"
	"github.com/debemdeboas/semantic-composer/internal/host"
	"github.com/debemdeboas/semantic-composer/internal/logger"
	"github.com/debemdeboas/semantic-composer/internal/render"
	"github.com/debemdeboas/semantic-composer/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		bootLog := logger.New("info")
		bootLog.Debug().Msg("No .env file loaded")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		bootLog := logger.New("info")
		bootLog.Fatal().Err(err).Str("path", *configPath).Msg("Failed to load config")
	}

	log := logger.New(cfg.Logging.Level)
	config.SetLogger(log)
	db.SetLogger(log)
	storage.SetLogger(log)
	render.SetLogger(log)
	engine.SetLogger(log)

	if err := run(cfg, log); err != nil {
		log.Error().Stack().Err(err).Msg("Server failed")
		os.Exit(1)
	}
	log.Info().Msg("Server stopped")
}

// run serves until SIGINT or SIGTERM. Storage and sessions are closed on every
// return path.
func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return pkgerrors.Wrapf(err, "open %s storage", cfg.Storage.Backend)
	}
	defer store.Close()

	h, err := host.New(cfg, store, log)
	if err != nil {
		return pkgerrors.Wrap(err, "create host")
	}
	defer h.Close()

	server := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           h.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		h.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server shutdown failed")
		}
	}()

	log.Info().
		Str("addr", server.Addr).
		Str("storage", store.Name()).
		Msg("Starting server")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return pkgerrors.Wrap(err, "listen")
	}
	return nil
}
