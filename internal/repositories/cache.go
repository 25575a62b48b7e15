package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/lens/internal/cache"
)

// CacheRepository is a [cache.Cache] stored in the cache_entries table.
//
// Expired rows are treated as misses on read and removed by [CacheRepository.Purge].
type CacheRepository struct {
	db  *sql.DB
	now cache.Clock
}

var _ cache.Cache = (*CacheRepository)(nil)

// NewCacheRepository creates a new CacheRepository with the given database connection
func NewCacheRepository(db *sql.DB) *CacheRepository {
	return &CacheRepository{db: db, now: time.Now}
}

// WithClock replaces the time source used for expiry.
func (r *CacheRepository) WithClock(c cache.Clock) *CacheRepository {
	r.now = c
	return r
}

func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value     []byte
		expiresAt time.Time
	)
	err := r.db.QueryRowContext(ctx, `SELECT value, expires_at FROM cache_entries WHERE key = ?`, key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	if !r.now().Before(expiresAt) {
		return nil, false, nil
	}
	return value, true, nil
}

// Set upserts key. Concurrent writers to one key are last-write-wins.
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := r.now().UTC().Truncate(time.Second)
	query := `
		INSERT INTO cache_entries (key, value, expires_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at, updated_at = excluded.updated_at
	`
	if _, err := r.db.ExecContext(ctx, query, key, value, now.Add(ttl), now); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Purge deletes expired entries and returns how many were removed.
func (r *CacheRepository) Purge(ctx context.Context) (int64, error) {
	now := r.now().UTC().Truncate(time.Second)
	result, err := r.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache: %w", err)
	}
	return result.RowsAffected()
}
