package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/osukon/banchod/internal/bancho"
	"github.com/osukon/banchod/internal/config"
	"github.com/osukon/banchod/internal/db"
	"github.com/osukon/banchod/internal/geoloc"
	"github.com/osukon/banchod/internal/metrics"
)

const ConfigPath = "config/banchod.yaml"

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig)
		cancel()
	}()

	if err := run(ctx); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// Configure slog
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))

	slog.Info("banchod starting")

	// Load config
	cfgPath := ConfigPath
	if p := os.Getenv("BANCHOD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.LoadServer(cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	slog.Info("config loaded", "bind", cfg.BindAddress, "port", cfg.Port, "domain", cfg.Domain)

	// Connect to database
	database, err := db.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()
	slog.Info("database connected")

	// Run migrations
	if err := db.RunMigrations(ctx, cfg.Database.DSN()); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	slog.Info("database migrations applied")

	reg := metrics.NewRegistry()
	geo := geoloc.New()

	srv := bancho.NewServer(cfg, slog.Default(), database, reg, geo, nil)
	if err := srv.LoadChannels(ctx); err != nil {
		return fmt.Errorf("loading channels: %w", err)
	}

	httpServer := bancho.NewHTTPServer(srv)

	addr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting http server", "addr", addr)
		if err := httpServer.Run(gctx, addr); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := srv.RunHousekeeping(gctx); err != nil {
			return fmt.Errorf("housekeeping: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}
