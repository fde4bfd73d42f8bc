package tripmap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/FACorreiaa/go-tripmap/pkg/geo"
)

// DiscoveryCenterKey stores the last map center used outside of a trip.
const DiscoveryCenterKey = "discover:center"

// TripCenterKey is the storage key of a trip's last viewed map center.
func TripCenterKey(tripID string) string {
	return "trip:" + tripID + ":center"
}

// CenterStore persists map centers by key. Last writer wins.
type CenterStore interface {
	Load(ctx context.Context, key string) (geo.Coordinates, bool, error)
	Store(ctx context.Context, key string, c geo.Coordinates) error
}

// SQLiteCenterStore keeps centers as JSON [lat, lon] pairs in a local SQLite
// file.
type SQLiteCenterStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func OpenSQLiteCenterStore(path string, logger *zap.Logger) (*SQLiteCenterStore, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open center store: %w", err)
	}
	db.SetMaxOpenConns(1)

	const schema = `CREATE TABLE IF NOT EXISTS map_centers (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create center store schema: %w", err)
	}
	return &SQLiteCenterStore{db: db, logger: logger}, nil
}

func (s *SQLiteCenterStore) Load(ctx context.Context, key string) (geo.Coordinates, bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM map_centers WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return geo.Coordinates{}, false, nil
	}
	if err != nil {
		return geo.Coordinates{}, false, fmt.Errorf("load center %q: %w", key, err)
	}
	c, err := geo.UnmarshalPair([]byte(raw))
	if err != nil {
		s.logger.Warn("Discarding malformed stored center", zap.String("key", key), zap.Error(err))
		return geo.Coordinates{}, false, nil
	}
	return c, true, nil
}

func (s *SQLiteCenterStore) Store(ctx context.Context, key string, c geo.Coordinates) error {
	raw, err := c.MarshalPair()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO map_centers (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(raw))
	if err != nil {
		return fmt.Errorf("store center %q: %w", key, err)
	}
	return nil
}

func (s *SQLiteCenterStore) Close() error {
	return s.db.Close()
}

// MemoryCenterStore is a CenterStore for tests and throwaway sessions.
type MemoryCenterStore struct {
	mu      sync.Mutex
	centers map[string]geo.Coordinates
}

func NewMemoryCenterStore() *MemoryCenterStore {
	return &MemoryCenterStore{centers: make(map[string]geo.Coordinates)}
}

func (m *MemoryCenterStore) Load(_ context.Context, key string) (geo.Coordinates, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.centers[key]
	return c, ok, nil
}

func (m *MemoryCenterStore) Store(_ context.Context, key string, c geo.Coordinates) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.centers[key] = c
	return nil
}
