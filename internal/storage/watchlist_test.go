package storage

import (
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"crypto_dash/internal/domain"
	"crypto_dash/internal/store"
)

func openStore(t *testing.T, path string) *WatchlistStore {
	t.Helper()
	ws, err := NewWatchlistStore(path)
	if err != nil {
		t.Fatalf("open watchlist store: %v", err)
	}
	t.Cleanup(func() { ws.Close() })
	return ws
}

func TestWatchlistStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.db")
	ws := openStore(t, path)

	coins := []domain.Coin{
		{ID: "bitcoin", Symbol: "btc", Price: decimal.NewFromInt(50000)},
		{ID: "dogecoin", Symbol: "doge", Price: decimal.NewFromFloat(0.12)},
	}
	if err := ws.SaveWatchlist(coins); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := ws.LoadWatchlist()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 2 || loaded[0].ID != "bitcoin" || loaded[1].ID != "dogecoin" {
		t.Errorf("loaded = %+v", loaded)
	}
	if !loaded[1].Price.Equal(decimal.NewFromFloat(0.12)) {
		t.Errorf("price lost precision: %s", loaded[1].Price)
	}
}

func TestWatchlistStore_EmptyOnMissingKey(t *testing.T) {
	ws := openStore(t, filepath.Join(t.TempDir(), "dash.db"))

	loaded, err := ws.LoadWatchlist()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != nil {
		t.Errorf("expected nil watchlist in fresh db, got %+v", loaded)
	}
}

func TestWatchlistStore_SaveOverwrites(t *testing.T) {
	ws := openStore(t, filepath.Join(t.TempDir(), "dash.db"))

	ws.SaveWatchlist([]domain.Coin{{ID: "bitcoin"}, {ID: "ethereum"}})
	ws.SaveWatchlist([]domain.Coin{{ID: "ethereum"}})

	loaded, err := ws.LoadWatchlist()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != "ethereum" {
		t.Errorf("loaded = %+v", loaded)
	}
}

// Simulated reload: a second store constructed over the same database keeps
// the watchlist and nothing else.
func TestPersistenceScopeAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.db")
	ws := openStore(t, path)

	first := store.New(ws)
	first.Initialize([]domain.Coin{{ID: "bitcoin"}, {ID: "ethereum"}})
	first.SetLoading(true)
	first.SetCategoryCoins(domain.CategoryMeme, []domain.Coin{{ID: "dogecoin"}})
	first.AddToWatchlist(domain.Coin{ID: "dogecoin", Price: decimal.NewFromFloat(0.12)})
	first.AddToWatchlist(domain.Coin{ID: "bitcoin"})

	reloaded := store.New(openStore(t, path))

	wl := reloaded.Watchlist()
	if len(wl) != 2 || wl[0].ID != "dogecoin" || wl[1].ID != "bitcoin" {
		t.Errorf("watchlist not preserved: %+v", wl)
	}
	if len(reloaded.Coins()) != 0 {
		t.Error("coin list must not survive reload")
	}
	if reloaded.IsInitialized() || reloaded.IsLoading() {
		t.Error("transient flags must reset on reload")
	}
	if _, ok := reloaded.CategoryCoins(domain.CategoryMeme); ok {
		t.Error("category caches must not survive reload")
	}
}
