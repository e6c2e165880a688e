package store

import (
	"context"
	"log/slog"

	"crypto_dash/internal/domain"
)

// IDFetcher resolves an explicit id set into coin snapshots. Implemented by
// the market client; the reconciliation only needs this one call.
type IDFetcher interface {
	FetchByIDs(ctx context.Context, ids []string) ([]domain.Coin, error)
}

// MergeWatchlistWith reconciles the watchlist against a fresh bulk snapshot.
// Entries found in fresh are updated immediately; ids the snapshot does not
// cover are batch-fetched through fetcher, and the combined result is merged
// into the watchlist, the main coin list and every cached category list in a
// single atomic commit. The supplementary fetch degrades silently: on
// failure the reconciliation keeps whatever fresh already resolved.
// Watchlist entries no source could resolve are left unchanged, never
// dropped.
func (s *Store) MergeWatchlistWith(ctx context.Context, fresh []domain.Coin, fetcher IDFetcher) {
	lookup := make(map[string]domain.Coin, len(fresh))
	for _, c := range fresh {
		lookup[c.ID] = c
	}

	// First pass: update entries the snapshot covers, collect the rest.
	s.mu.Lock()
	mergeInto(s.watchlist, lookup)
	var missing []string
	for _, c := range s.watchlist {
		if _, ok := lookup[c.ID]; !ok {
			missing = append(missing, c.ID)
		}
	}
	s.mu.Unlock()

	if len(missing) > 0 && fetcher != nil {
		fetched, err := fetcher.FetchByIDs(ctx, missing)
		if err != nil {
			slog.Warn("watchlist supplement fetch failed, merging partial results",
				slog.Int("missing", len(missing)),
				slog.Any("error", err))
		}
		for _, c := range fetched {
			lookup[c.ID] = c
		}
	}

	// Single atomic commit across all three views.
	s.mu.Lock()
	mergeInto(s.watchlist, lookup)
	mergeInto(s.coins, lookup)
	for cat := range s.categoryCoins {
		mergeInto(s.categoryCoins[cat], lookup)
	}
	snapshot := copyCoins(s.watchlist)
	s.mu.Unlock()

	s.persistWatchlist(snapshot)
	s.notify()
}
