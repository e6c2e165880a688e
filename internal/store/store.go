package store

import (
	"log/slog"
	"sync"
	"time"

	"crypto_dash/internal/domain"
)

// Persister durably stores the watchlist, and only the watchlist. The live
// coin lists and transient flags are never persisted; a restart always
// refetches them.
type Persister interface {
	SaveWatchlist(coins []domain.Coin) error
	LoadWatchlist() ([]domain.Coin, error)
}

// Store is the single source of truth for all coin-related view state.
// Mutations are atomic under one mutex; subscribers are notified after each
// mutation, outside the lock. Accessors hand out copies so callers can never
// alias internal slices.
type Store struct {
	mu              sync.Mutex
	coins           []domain.Coin
	initialized     bool
	loading         bool
	currentCategory domain.Category
	categoryCoins   map[domain.Category][]domain.Coin
	watchlist       []domain.Coin
	lastRefresh     time.Time

	// categoryGen guards against out-of-order completion on rapid category
	// switching: a commit carrying a superseded generation is discarded.
	categoryGen map[domain.Category]uint64

	persister   Persister
	subscribers []func()
}

// New creates a store and synchronously reconstructs the watchlist from the
// persister before any consumer reads it. persister may be nil (tests).
// All other state starts at its zero value: empty lists, flags false.
func New(persister Persister) *Store {
	s := &Store{
		currentCategory: domain.CategoryAll,
		categoryCoins:   make(map[domain.Category][]domain.Coin),
		categoryGen:     make(map[domain.Category]uint64),
		persister:       persister,
	}

	if persister != nil {
		watchlist, err := persister.LoadWatchlist()
		if err != nil {
			slog.Warn("watchlist restore failed, starting empty", slog.Any("error", err))
		} else {
			s.watchlist = dedupeByID(watchlist)
		}
	}

	return s
}

// Subscribe registers a callback invoked after every mutation.
func (s *Store) Subscribe(fn func()) {
	s.mu.Lock()
	s.subscribers = append(s.subscribers, fn)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

// Initialize performs the one-time startup transition: sets the coin list
// and the "all" category cache, flips the initialized flag and stamps the
// refresh time. Calling it again is a no-op.
func (s *Store) Initialize(coins []domain.Coin) {
	s.mu.Lock()
	if s.initialized {
		s.mu.Unlock()
		return
	}
	s.initialized = true
	s.coins = copyCoins(coins)
	s.categoryCoins[domain.CategoryAll] = copyCoins(coins)
	s.lastRefresh = time.Now()
	s.mu.Unlock()

	s.notify()
}

// SetCoins replaces the view-bound coin list wholesale.
func (s *Store) SetCoins(coins []domain.Coin) {
	s.mu.Lock()
	s.coins = copyCoins(coins)
	s.mu.Unlock()

	s.notify()
}

// SetLoading toggles the in-flight indicator.
func (s *Store) SetLoading(loading bool) {
	s.mu.Lock()
	s.loading = loading
	s.mu.Unlock()

	s.notify()
}

// SetCurrentCategory switches the active category marker. It performs no
// fetching and does not swap the coin list; that orchestration belongs to
// the caller.
func (s *Store) SetCurrentCategory(cat domain.Category) {
	s.mu.Lock()
	s.currentCategory = cat
	s.mu.Unlock()

	s.notify()
}

// SetCategoryCoins stores a snapshot for cat. When cat is the current
// category the view-bound list is replaced with it too, keeping the two in
// sync.
func (s *Store) SetCategoryCoins(cat domain.Category, coins []domain.Coin) {
	s.mu.Lock()
	s.setCategoryCoinsLocked(cat, coins)
	s.mu.Unlock()

	s.notify()
}

func (s *Store) setCategoryCoinsLocked(cat domain.Category, coins []domain.Coin) {
	s.categoryCoins[cat] = copyCoins(coins)
	if cat == s.currentCategory {
		s.coins = copyCoins(coins)
	}
}

// BeginCategoryLoad marks the start of an async load for cat and returns a
// generation token. A later BeginCategoryLoad for the same category
// invalidates all earlier tokens.
func (s *Store) BeginCategoryLoad(cat domain.Category) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categoryGen[cat]++
	return s.categoryGen[cat]
}

// CommitCategoryLoad applies a fetched snapshot only if gen is still the
// latest generation for cat. Superseded completions are discarded, so a
// slow response can never clobber a newer one. Reports whether the commit
// was applied.
func (s *Store) CommitCategoryLoad(cat domain.Category, coins []domain.Coin, gen uint64) bool {
	s.mu.Lock()
	if s.categoryGen[cat] != gen {
		s.mu.Unlock()
		slog.Debug("discarding superseded category load", slog.String("category", string(cat)))
		return false
	}
	s.setCategoryCoinsLocked(cat, coins)
	s.mu.Unlock()

	s.notify()
	return true
}

// AddToWatchlist appends coin unless an entry with the same id exists.
func (s *Store) AddToWatchlist(coin domain.Coin) {
	s.mu.Lock()
	for _, c := range s.watchlist {
		if c.ID == coin.ID {
			s.mu.Unlock()
			return
		}
	}
	s.watchlist = append(s.watchlist, coin)
	snapshot := copyCoins(s.watchlist)
	s.mu.Unlock()

	s.persistWatchlist(snapshot)
	s.notify()
}

// RemoveFromWatchlist drops the entry with the given id, if present.
func (s *Store) RemoveFromWatchlist(id string) {
	s.mu.Lock()
	kept := s.watchlist[:0]
	removed := false
	for _, c := range s.watchlist {
		if c.ID == id {
			removed = true
			continue
		}
		kept = append(kept, c)
	}
	if !removed {
		s.mu.Unlock()
		return
	}
	s.watchlist = kept
	snapshot := copyCoins(s.watchlist)
	s.mu.Unlock()

	s.persistWatchlist(snapshot)
	s.notify()
}

// UpdateCoinDetails merges the given snapshot into the matching coin
// wherever it appears: the main list, every cached category list and the
// watchlist. Other coins are untouched. Used for detail-page refinement
// without invalidating whole lists.
func (s *Store) UpdateCoinDetails(id string, details domain.Coin) {
	lookup := map[string]domain.Coin{id: details}

	s.mu.Lock()
	mergeInto(s.coins, lookup)
	for cat := range s.categoryCoins {
		mergeInto(s.categoryCoins[cat], lookup)
	}
	touchedWatchlist := mergeInto(s.watchlist, lookup)
	var snapshot []domain.Coin
	if touchedWatchlist {
		snapshot = copyCoins(s.watchlist)
	}
	s.mu.Unlock()

	if touchedWatchlist {
		s.persistWatchlist(snapshot)
	}
	s.notify()
}

// SetLastRefresh stamps the most recent bulk refresh time.
func (s *Store) SetLastRefresh(t time.Time) {
	s.mu.Lock()
	s.lastRefresh = t
	s.mu.Unlock()

	s.notify()
}

// Coins returns a copy of the view-bound coin list.
func (s *Store) Coins() []domain.Coin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCoins(s.coins)
}

// Watchlist returns a copy of the watchlist.
func (s *Store) Watchlist() []domain.Coin {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCoins(s.watchlist)
}

// CategoryCoins returns the cached snapshot for cat, if present.
func (s *Store) CategoryCoins(cat domain.Category) ([]domain.Coin, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coins, ok := s.categoryCoins[cat]
	if !ok {
		return nil, false
	}
	return copyCoins(coins), true
}

// CurrentCategory returns the active category marker.
func (s *Store) CurrentCategory() domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentCategory
}

// IsLoading reports the in-flight indicator.
func (s *Store) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// IsInitialized reports whether Initialize has run.
func (s *Store) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// LastRefresh returns the most recent bulk refresh time.
func (s *Store) LastRefresh() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefresh
}

// persistWatchlist writes the watchlist snapshot through the persister.
// Store operations are total: persistence failure is logged, never surfaced.
func (s *Store) persistWatchlist(snapshot []domain.Coin) {
	if s.persister == nil {
		return
	}
	if err := s.persister.SaveWatchlist(snapshot); err != nil {
		slog.Warn("watchlist persist failed", slog.Any("error", err))
	}
}

// mergeInto refreshes each coin in list that has a counterpart in lookup.
// Reports whether anything changed.
func mergeInto(list []domain.Coin, lookup map[string]domain.Coin) bool {
	changed := false
	for i := range list {
		if fresh, ok := lookup[list[i].ID]; ok {
			list[i].Merge(fresh)
			changed = true
		}
	}
	return changed
}

func copyCoins(coins []domain.Coin) []domain.Coin {
	if coins == nil {
		return nil
	}
	out := make([]domain.Coin, len(coins))
	copy(out, coins)
	return out
}

func dedupeByID(coins []domain.Coin) []domain.Coin {
	seen := make(map[string]bool, len(coins))
	out := coins[:0]
	for _, c := range coins {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}
