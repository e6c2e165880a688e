package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crypto_dash/internal/app"
	"crypto_dash/internal/domain"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", slog.Any("error", err))
		os.Exit(1)
	}
}

// run owns the whole lifecycle. Fatal paths return instead of exiting so
// the deferred Shutdown always releases storage and the instance lock;
// os.Exit here would orphan the lock file and block every later launch.
func run() error {
	bootstrap := app.NewBootstrap()
	if err := bootstrap.Initialize(); err != nil {
		return fmt.Errorf("bootstrapping failed: %w", err)
	}
	defer bootstrap.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := bootstrap.Config
	st := bootstrap.Store
	client := bootstrap.Client

	// Initial load. A terminal fetch error here is fatal: there is nothing
	// to show and nothing cached to degrade to.
	st.SetLoading(true)
	coins, err := client.FetchMarkets(ctx, 1, cfg.API.PageSize)
	if err != nil {
		return fmt.Errorf("initial market load failed: %w", err)
	}
	st.Initialize(coins)
	st.MergeWatchlistWith(ctx, coins, client)
	st.SetLoading(false)

	slog.Info("initial market data loaded",
		slog.Int("coins", len(coins)),
		slog.Int("watchlist", len(st.Watchlist())))

	ticker := time.NewTicker(cfg.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down")
			return nil
		case <-ticker.C:
			refresh(ctx, bootstrap)
		}
	}
}

// refresh performs one bulk market refresh followed by watchlist
// reconciliation. The generation token discards the commit if a newer load
// for the category started in the meantime.
func refresh(ctx context.Context, b *app.Bootstrap) {
	st := b.Store
	if st.IsLoading() {
		return
	}

	st.SetLoading(true)
	defer st.SetLoading(false)

	gen := st.BeginCategoryLoad(domain.CategoryAll)
	fresh, err := b.Client.FetchMarkets(ctx, 1, b.Config.API.PageSize)
	if err != nil {
		slog.Warn("market refresh failed, keeping previous data", slog.Any("error", err))
		return
	}

	if !st.CommitCategoryLoad(domain.CategoryAll, fresh, gen) {
		return
	}
	st.SetLastRefresh(time.Now())
	st.MergeWatchlistWith(ctx, fresh, b.Client)

	slog.Info("market data refreshed",
		slog.Int("coins", len(fresh)),
		slog.Int("watchlist", len(st.Watchlist())))
}
