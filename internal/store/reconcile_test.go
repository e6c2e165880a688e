package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"crypto_dash/internal/domain"
)

type stubFetcher struct {
	coins []domain.Coin
	err   error
	got   []string
}

func (f *stubFetcher) FetchByIDs(_ context.Context, ids []string) ([]domain.Coin, error) {
	f.got = append([]string(nil), ids...)
	return f.coins, f.err
}

func TestMergeWatchlistWith_FullReconciliation(t *testing.T) {
	s := New(nil)
	s.AddToWatchlist(coin("bitcoin", 50000))
	s.AddToWatchlist(coin("dogecoin", 1))
	s.SetCoins([]domain.Coin{coin("bitcoin", 50000)})
	s.SetCategoryCoins(domain.CategoryMeme, []domain.Coin{coin("dogecoin", 1)})

	fresh := []domain.Coin{coin("bitcoin", 52000)}
	fetcher := &stubFetcher{coins: []domain.Coin{coin("dogecoin", 2)}}

	s.MergeWatchlistWith(context.Background(), fresh, fetcher)

	if len(fetcher.got) != 1 || fetcher.got[0] != "dogecoin" {
		t.Errorf("expected supplement fetch for missing id, got %v", fetcher.got)
	}

	wl := s.Watchlist()
	if !wl[0].Price.Equal(decimal.NewFromInt(52000)) {
		t.Errorf("snapshot-covered entry not merged: %s", wl[0].Price)
	}
	if !wl[1].Price.Equal(decimal.NewFromInt(2)) {
		t.Errorf("batch-fetched entry not merged: %s", wl[1].Price)
	}

	// main list and category caches updated in the same commit
	if got := s.Coins(); !got[0].Price.Equal(decimal.NewFromInt(52000)) {
		t.Errorf("main list not merged: %s", got[0].Price)
	}
	if memes, _ := s.CategoryCoins(domain.CategoryMeme); !memes[0].Price.Equal(decimal.NewFromInt(2)) {
		t.Errorf("category list not merged: %s", memes[0].Price)
	}
}

func TestMergeWatchlistWith_DegradesOnBatchFailure(t *testing.T) {
	s := New(nil)
	s.AddToWatchlist(coin("bitcoin", 50000))
	s.AddToWatchlist(coin("dogecoin", 1))
	s.AddToWatchlist(coin("shiba-inu", 1))

	fresh := []domain.Coin{coin("bitcoin", 52000)}
	fetcher := &stubFetcher{err: errors.New("rate limited")}

	s.MergeWatchlistWith(context.Background(), fresh, fetcher)

	wl := s.Watchlist()
	if len(wl) != 3 {
		t.Fatalf("reconciliation dropped entries: %d", len(wl))
	}
	if !wl[0].Price.Equal(decimal.NewFromInt(52000)) {
		t.Errorf("resolvable entry not updated: %s", wl[0].Price)
	}
	// unresolvable entries unchanged, never dropped
	if !wl[1].Price.Equal(decimal.NewFromInt(1)) || !wl[2].Price.Equal(decimal.NewFromInt(1)) {
		t.Errorf("unresolvable entries mutated: %s / %s", wl[1].Price, wl[2].Price)
	}
}

func TestMergeWatchlistWith_NoMissingSkipsFetch(t *testing.T) {
	s := New(nil)
	s.AddToWatchlist(coin("bitcoin", 50000))

	fetcher := &stubFetcher{}
	s.MergeWatchlistWith(context.Background(), []domain.Coin{coin("bitcoin", 51000)}, fetcher)

	if fetcher.got != nil {
		t.Errorf("supplement fetch issued with nothing missing: %v", fetcher.got)
	}
	if wl := s.Watchlist(); !wl[0].Price.Equal(decimal.NewFromInt(51000)) {
		t.Errorf("entry not merged: %s", wl[0].Price)
	}
}

func TestMergeWatchlistWith_NilFetcher(t *testing.T) {
	s := New(nil)
	s.AddToWatchlist(coin("dogecoin", 1))

	// must not panic; entry stays as-is
	s.MergeWatchlistWith(context.Background(), nil, nil)

	if wl := s.Watchlist(); len(wl) != 1 || !wl[0].Price.Equal(decimal.NewFromInt(1)) {
		t.Errorf("watchlist changed unexpectedly: %+v", wl)
	}
}
