package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/chartfeed/chartfeed/config"
	"github.com/chartfeed/chartfeed/internal/dataload"
	"github.com/chartfeed/chartfeed/internal/engine"
	"github.com/chartfeed/chartfeed/internal/replay"
	"github.com/chartfeed/chartfeed/internal/seed"
	"github.com/chartfeed/chartfeed/internal/server"
	"github.com/chartfeed/chartfeed/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.With().Str("service", "chartfeed").Logger()

	log.Info().Int("port", cfg.ServerPort).Str("data_dir", cfg.DataDir).
		Int("base_resolution_min", cfg.BaseResolutionMin).Msg("chartfeed starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var remote dataload.RemoteSource
	if cfg.SeedURL != "" {
		remote = seed.New(seed.Options{
			BaseURL:        cfg.SeedURL,
			APIKey:         cfg.SeedAPIKey,
			RequestTimeout: cfg.RequestTimeout,
		})
		log.Info().Str("url", cfg.SeedURL).Msg("remote seed source enabled")
	}

	st := store.New(cfg.BaseResolutionMin)
	loader := dataload.New(cfg.DataDir, cfg.BaseResolutionMin, remote)
	for _, symbol := range cfg.Symbols {
		st.Load(symbol, loader.LoadSymbol(ctx, symbol))
	}

	eng := engine.New(st, replay.New())
	srv := server.New(eng, st, cfg.RateLimitRPS)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: srv.Router(),
	}

	go func() {
		log.Info().Str("addr", httpSrv.Addr).Msg("http server starting")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("chartfeed stopped")
}
