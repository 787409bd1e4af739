package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/maltedev/listing-harvester/internal/api"
	"github.com/maltedev/listing-harvester/internal/browser"
	"github.com/maltedev/listing-harvester/internal/config"
	"github.com/maltedev/listing-harvester/internal/database"
	"github.com/maltedev/listing-harvester/internal/events"
	"github.com/maltedev/listing-harvester/internal/gate"
	"github.com/maltedev/listing-harvester/internal/harvest"
	"github.com/maltedev/listing-harvester/internal/interrupt"
	"github.com/maltedev/listing-harvester/internal/logger"
	"github.com/maltedev/listing-harvester/internal/storage"
)

func runHarvest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	state := harvest.NewRunState()
	log.Info("starting harvester", "run_id", state.ID(), "filters", len(cfg.Filters))

	mirrors, cleanup, err := openMirrors(ctx, cfg, state, log)
	if err != nil {
		return err
	}
	defer cleanup()

	sink := storage.NewFanout(storage.NewCSVWriter(cfg.Output.Dir, cfg.Output.FilePrefix, log), log, mirrors...)

	b, err := browser.New(browserOptions(cfg))
	if err != nil {
		return fmt.Errorf("failed to initialize browser: %w", err)
	}

	handler := interrupt.New(state, sink, b, log)
	stop := handler.Listen()
	defer stop()

	session, err := b.NewSession()
	if err != nil {
		b.Close()
		return err
	}

	if cfg.Server.StatusAddr != "" {
		srv := api.NewServer(cfg.Server.StatusAddr, api.NewHandlers(state, log), log)
		srv.Start()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	opts := harvest.Options{
		PageSize:    cfg.Scraper.PageSize,
		SettleDelay: cfg.Scraper.NavigationWait,
		ScrollStep:  cfg.Scraper.ScrollDistance,
		ScrollDelay: cfg.Scraper.ScrollWait,
		Selector:    cfg.Scraper.Selector,
		OffsetParam: cfg.Scraper.OffsetParam,
	}
	controller := harvest.NewController(session, sink, state, opts, log)
	runner := harvest.NewRunner(session, gate.NewLineGate(os.Stdin), controller, opts, log)

	if _, err := runner.Run(ctx, cfg.Filters); err != nil {
		select {
		case <-handler.Fired():
			// The interrupt handler owns shutdown and exits with status 0.
			select {}
		default:
		}
		session.Close()
		b.Close()
		return err
	}

	if err := session.Close(); err != nil {
		log.Warn("failed to close session", "error", err)
	}
	if err := b.Close(); err != nil {
		log.Warn("failed to close browser", "error", err)
	}
	return nil
}

func browserOptions(cfg *config.Config) *browser.Options {
	opts := browser.DefaultOptions()
	opts.Headless = cfg.Browser.Headless
	opts.Timeout = cfg.Browser.Timeout
	opts.UserAgent = cfg.Browser.UserAgent
	opts.TimezoneID = cfg.Browser.TimezoneID
	opts.ProxyServer = cfg.Browser.ProxyServer
	if cfg.Browser.Locale != "" {
		opts.Locale = cfg.Browser.Locale
	}
	return opts
}

func databaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		URL:         cfg.Database.URL,
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		MaxConnLife: cfg.Database.MaxConnLifetime,
		MaxConnIdle: cfg.Database.MaxConnIdleTime,
	}
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if cmd.Flags().Changed("output-dir") {
		cfg.Output.Dir = outputDir
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
}

// openMirrors connects the optional Postgres and Redis sinks. Both are
// secondary to the CSV output.
func openMirrors(ctx context.Context, cfg *config.Config, state *harvest.RunState, log *slog.Logger) ([]storage.Sink, func(), error) {
	var mirrors []storage.Sink
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.Database.URL != "" {
		db, err := database.New(ctx, databaseConfig(cfg))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		closers = append(closers, db.Close)

		store := database.NewResultStore(db, state.ID(), log)
		if err := store.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		mirrors = append(mirrors, store)
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closers = append(closers, func() { client.Close() })

		if err := client.Ping(ctx).Err(); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		mirrors = append(mirrors, events.NewPublisher(client, cfg.Redis.Stream, state.ID(), log))
	}

	return mirrors, cleanup, nil
}
