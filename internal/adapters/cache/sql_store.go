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

// SQLStore is a Postgres-backed Store using the response_cache table.
type SQLStore struct {
	DB  *sql.DB
	now func() time.Time
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db, now: time.Now}
}

func (s *SQLStore) Get(ctx context.Context, key string, dst any) (_ bool, err error) {
	defer obs.Time(ctx, "cache.sql.Get")(&err)

	if s.DB == nil {
		return false, errors.New("response cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return false, errors.New("get response cache: key must not be empty")
	}

	q := `
	SELECT payload
	FROM response_cache
	WHERE cache_key = $1
		AND expires_at > $2;
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

func (s *SQLStore) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
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
	INSERT INTO response_cache (cache_key, payload, expires_at)
	VALUES ($1, $2, $3)
	ON CONFLICT (cache_key) DO UPDATE
	SET payload = EXCLUDED.payload,
		expires_at = EXCLUDED.expires_at;
	`
	if _, err := s.DB.ExecContext(ctx, q, key, string(payload), s.now().Add(ttl).Unix()); err != nil {
		return fmt.Errorf("insert response cache key=%q: %w", key, err)
	}
	return nil
}
