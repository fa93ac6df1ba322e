package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Jvinniec/di-milestoneproj/internal/common"
	"github.com/Jvinniec/di-milestoneproj/internal/config"
	"github.com/Jvinniec/di-milestoneproj/internal/finance"
	"github.com/Jvinniec/di-milestoneproj/internal/plotter"
	"github.com/Jvinniec/di-milestoneproj/internal/server"
	"github.com/Jvinniec/di-milestoneproj/internal/storage"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		common.NewLogger("info").Fatal().Err(err).Msg("config: load failed")
	}
	logger := common.NewLogger(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("config: invalid")
	}

	client, err := finance.NewAlphaVantageClient(cfg.Provider.APIKey,
		finance.WithBaseURL(cfg.Provider.BaseURL),
		finance.WithTimeout(cfg.Provider.Timeout),
		finance.WithRateLimit(cfg.Provider.RequestsPerMinute),
		finance.WithLogger(logger),
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("provider: client not created")
	}

	cache := finance.NewCache()
	fetcher := finance.NewFetcher(client, cache, logger)
	builder := finance.NewBuilder(cache, finance.ChartOptions{
		DaysToShow:    cfg.Chart.DaysToShow,
		LookaheadDays: cfg.Chart.LookaheadDays,
		Width:         cfg.Chart.Width,
		CacheTTL:      cfg.Chart.CacheTTL,
	}, logger)

	// submission log is optional; without it /stats is disabled
	var recorder storage.Recorder
	if cfg.Storage.SQLitePath != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755)
		db, err := storage.OpenSQLite("file:" + cfg.Storage.SQLitePath + "?_busy_timeout=5000")
		if err != nil {
			logger.Fatal().Err(err).Msg("db: open failed")
		}
		if err := storage.InitSchema(db); err != nil {
			logger.Fatal().Err(err).Msg("db: schema failed")
		}
		store := storage.NewStore(db)
		defer store.Close()
		recorder = store
		logger.Info().Str("path", cfg.Storage.SQLitePath).Msg("db: submission log enabled")
	}

	orchestrator := plotter.New(fetcher, builder, recorder, logger)
	handlers := server.NewHandlers(orchestrator, recorder, logger)
	srv := server.NewHTTPServer(cfg.Addr(), server.NewHTTPMux(handlers), cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("http: listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http: server error")
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http: shutdown")
	}
	logger.Info().Int("cached_symbols", cache.Len()).Msg("http: stopped")
}
