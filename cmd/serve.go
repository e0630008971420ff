package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/signalcorps/beacon/internal/config"
	"github.com/signalcorps/beacon/internal/gateway"
	"github.com/signalcorps/beacon/internal/signal"
	"github.com/signalcorps/beacon/internal/store"
	"github.com/signalcorps/beacon/internal/store/pg"
	"github.com/signalcorps/beacon/internal/store/sqlite"
	"github.com/signalcorps/beacon/internal/telemetry"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the beacon server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		slog.Error("failed to init telemetry", "error", err)
		os.Exit(1)
	}
	defer shutdownTelemetry(context.Background())

	stores, err := openStores(cfg)
	if err != nil {
		slog.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	codes, err := buildCodeTable(ctx, cfg)
	if err != nil {
		slog.Error("failed to load signal codes", "error", err)
		os.Exit(1)
	}
	slog.Info("signal code table loaded", "codes", codes.Len())

	server := gateway.NewServer(cfg, stores, codes)
	if err := server.Start(ctx); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStores selects the storage backend from config. SQLite is the
// standalone default; Postgres serves shared deployments.
func openStores(cfg *config.Config) (*store.Stores, error) {
	storeCfg := store.Config{
		Driver:      cfg.Database.Driver,
		SQLitePath:  config.ExpandHome(cfg.Database.SQLitePath),
		PostgresDSN: cfg.Database.PostgresDSN,
	}
	if cfg.IsPostgres() {
		slog.Info("using postgres storage")
		return pg.NewStores(storeCfg)
	}
	slog.Info("using sqlite storage", "path", storeCfg.SQLitePath)
	return sqlite.NewStores(storeCfg)
}

// buildCodeTable loads the builtin signal codes, merges the optional
// custom code file over them, and starts the hot-reload watcher.
func buildCodeTable(ctx context.Context, cfg *config.Config) (*signal.Table, error) {
	table := signal.NewBuiltinTable()

	path := config.ExpandHome(cfg.Signals.CodesFile)
	if path == "" {
		return table, nil
	}

	codes, err := signal.LoadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("signal code file not found, using builtin table", "path", path)
			return table, nil
		}
		return nil, err
	}
	if err := table.Replace(codes); err != nil {
		return nil, err
	}

	if cfg.Signals.Watch {
		watcher, err := signal.NewWatcher(table, path)
		if err != nil {
			slog.Warn("signal code watcher unavailable", "error", err)
			return table, nil
		}
		watcher.Start(ctx)
	}
	return table, nil
}
