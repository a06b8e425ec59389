package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"ev-route-planner/internal/platform/obs"
	"fmt"
	"strings"
	"time"
)

// SqliteStore is a SQLite-backed Store using the response_cache table
// created by repositories.InitSchema.
type SqliteStore struct {
	DB  *sql.DB
	now func() time.Time
}

func NewSqliteStore(db *sql.DB) *SqliteStore {
	return &SqliteStore{DB: db, now: time.Now}
}

func (s *SqliteStore) Get(ctx context.Context, key string, dst any) (_ bool, err error) {
	defer obs.Time(ctx, "cache.sqlite.Get")(&err)

	if s.DB == nil {
		return false, errors.New("response cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return false, errors.New("get response cache: key must not be empty")
	}

	q := `
	SELECT payload
	FROM response_cache
	WHERE cache_key = ?
		AND expires_at > ?;
	`

	var payload []byte
	err = s.DB.QueryRowContext(ctx, q, key, s.now().Unix()).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get response cache: query response_cache table: %w", err)
	}

	if err := json.Unmarshal(payload, dst); err != nil {
		return false, fmt.Errorf("get response cache: decode %q: %w", key, err)
	}
	return true, nil
}

func (s *SqliteStore) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if s.DB == nil {
		return errors.New("response cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("insert response cache: key must not be empty")
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("insert response cache: encode %q: %w", key, err)
	}

	q := `
	INSERT OR REPLACE INTO response_cache (
		cache_key,
		payload,
		expires_at
	)
	VALUES (?, ?, ?);
	`
	if _, err := s.DB.ExecContext(ctx, q, key, payload, s.now().Add(ttl).Unix()); err != nil {
		return fmt.Errorf("insert response cache key=%q: %w", key, err)
	}
	return nil
}

// Purge deletes expired rows.
func (s *SqliteStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM response_cache WHERE expires_at <= ?;`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge response cache: %w", err)
	}
	return res.RowsAffected()
}
