// Package cache keeps geocoding, routing and charger responses for a while
// so repeated trips along the same corridor do not hit the upstream APIs.
package cache

import (
	"context"
	"time"
)

// Store is a TTL key/value store for JSON-encodable values.
type Store interface {
	// Get decodes the value under key into dst. A miss or an expired entry
	// returns false with a nil error.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
}
