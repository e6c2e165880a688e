package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"crypto_dash/internal/domain"
)

const watchlistKey = "watchlist"

// WatchlistStore persists the user's watchlist in SQLite. The whole list is
// stored as one JSON blob under a fixed key, mirroring the browser
// localStorage contract it replaces: read once at startup, rewritten on
// every watchlist mutation.
type WatchlistStore struct {
	db *sql.DB
}

// NewWatchlistStore opens (or creates) the database with WAL mode enabled.
func NewWatchlistStore(dbPath string) (*WatchlistStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create metadata table: %w", err)
	}

	return &WatchlistStore{db: db}, nil
}

// SaveWatchlist rewrites the persisted watchlist blob.
func (s *WatchlistStore) SaveWatchlist(coins []domain.Coin) error {
	payload, err := json.Marshal(coins)
	if err != nil {
		return fmt.Errorf("failed to marshal watchlist: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT INTO metadata (key, value, updated_at) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at",
		watchlistKey, string(payload), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert watchlist: %w", err)
	}
	return nil
}

// LoadWatchlist reads the persisted watchlist. A missing key yields an
// empty list, not an error.
func (s *WatchlistStore) LoadWatchlist() ([]domain.Coin, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", watchlistKey).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read watchlist: %w", err)
	}

	var coins []domain.Coin
	if err := json.Unmarshal([]byte(value), &coins); err != nil {
		return nil, fmt.Errorf("failed to unmarshal watchlist: %w", err)
	}
	return coins, nil
}

// Close closes the database connection.
func (s *WatchlistStore) Close() error {
	return s.db.Close()
}
