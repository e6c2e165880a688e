package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"crypto_dash/internal/infra"
	"crypto_dash/internal/market"
	"crypto_dash/internal/storage"
	"crypto_dash/internal/store"
)

// Bootstrap orchestrates the application startup sequence: config, logger,
// durable storage, state store and market client, wired in that order so the
// watchlist is restored before anything reads the store.
type Bootstrap struct {
	Config    *infra.Config
	Watchlist *storage.WatchlistStore
	Store     *store.Store
	Client    *market.Client

	unlock func()
}

// NewBootstrap creates an empty Bootstrap instance.
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization.
func (b *Bootstrap) Initialize() error {
	// 1. Config: fall back to defaults when no config file exists, so the
	// dashboard runs out of the box.
	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		cfg = infra.DefaultConfig()
	}
	b.Config = cfg

	// 2. Logger
	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("bootstrapping",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("currency", cfg.API.Currency))

	// 3. Workspace + single-instance lock (protects the sqlite file)
	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data")
	if err := infra.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	b.unlock = unlock

	// 4. Durable watchlist storage
	dbPath := filepath.Join(dataDir, "dash.db")
	ws, err := storage.NewWatchlistStore(dbPath)
	if err != nil {
		unlock()
		return err
	}
	b.Watchlist = ws
	slog.Info("watchlist storage ready", slog.String("path", dbPath))

	// 5. State store (restores watchlist synchronously) + market client
	b.Store = store.New(ws)
	b.Client = market.NewClient(cfg, b.Store)
	slog.Info("state store ready", slog.Int("watchlist", len(b.Store.Watchlist())))

	return nil
}

// Shutdown releases storage and the instance lock.
func (b *Bootstrap) Shutdown() {
	if b.Watchlist != nil {
		if err := b.Watchlist.Close(); err != nil {
			slog.Warn("watchlist storage close failed", slog.Any("error", err))
		}
	}
	if b.unlock != nil {
		b.unlock()
	}
}
