package cache

import (
	"context"
	"ev-route-planner/internal/domain"
	"ev-route-planner/internal/ports"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultTTL = time.Hour

// Store failures are logged and treated as misses; the wrapped service is
// always the source of truth.
type base struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
}

func newBase(store Store, ttl time.Duration, logger *zap.Logger) *base {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &base{store: store, ttl: ttl, logger: logger}
}

func (b *base) load(ctx context.Context, key string, dst any) bool {
	ok, err := b.store.Get(ctx, key, dst)
	if err != nil {
		b.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

// share runs fn once per key across concurrent callers. The upstream call
// is detached from any single caller's cancellation; each caller stops
// waiting when its own ctx is done.
func (b *base) share(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	detached := context.WithoutCancel(ctx)
	ch := b.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	select {
	case r := <-ch:
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *base) save(ctx context.Context, key string, v any) {
	if err := b.store.Set(ctx, key, v, b.ttl); err != nil {
		b.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// cachedGeocode is the storable form of a domain.GeocodeResult.
type cachedGeocode struct {
	Kind       string                  `json:"kind"`
	Place      domain.ResolvedPlace    `json:"place"`
	Candidates []domain.PlaceCandidate `json:"candidates,omitempty"`
	Query      string                  `json:"query,omitempty"`
}

func encodeGeocode(r domain.GeocodeResult) cachedGeocode {
	switch v := r.(type) {
	case domain.Single:
		return cachedGeocode{Kind: "single", Place: v.Place}
	case domain.Ambiguous:
		return cachedGeocode{Kind: "ambiguous", Candidates: v.Candidates}
	case domain.NotFound:
		return cachedGeocode{Kind: "not_found", Query: v.Query}
	}
	return cachedGeocode{Kind: "not_found"}
}

func (c cachedGeocode) result() domain.GeocodeResult {
	switch c.Kind {
	case "single":
		return domain.Single{Place: c.Place}
	case "ambiguous":
		return domain.Ambiguous{Candidates: c.Candidates}
	}
	return domain.NotFound{Query: c.Query}
}

// CachingGeocoder memoises a ports.Geocoder. Concurrent identical lookups
// share one upstream call.
type CachingGeocoder struct {
	*base
	next ports.Geocoder
}

var _ ports.Geocoder = (*CachingGeocoder)(nil)

func NewCachingGeocoder(next ports.Geocoder, store Store, ttl time.Duration, logger *zap.Logger) *CachingGeocoder {
	return &CachingGeocoder{base: newBase(store, ttl, logger), next: next}
}

func searchKey(q ports.SearchQuery) string {
	key := fmt.Sprintf("geo:search:%s|%t|%s", q.Country, q.LocalityOnly, q.Text)
	if q.Proximity != nil {
		key += "|" + q.Proximity.String()
	}
	return key
}

func (g *CachingGeocoder) Search(ctx context.Context, q ports.SearchQuery) (domain.GeocodeResult, error) {
	key := searchKey(q)

	var hit cachedGeocode
	if g.load(ctx, key, &hit) {
		return hit.result(), nil
	}

	v, err := g.share(ctx, key, func(ctx context.Context) (any, error) {
		res, err := g.next.Search(ctx, q)
		if err != nil {
			return nil, err
		}
		g.save(ctx, key, encodeGeocode(res))
		return res, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(domain.GeocodeResult), nil
}

func (g *CachingGeocoder) Reverse(ctx context.Context, p domain.GeoPoint) (ports.ReversePlace, error) {
	key := "geo:reverse:" + p.String()

	var hit ports.ReversePlace
	if g.load(ctx, key, &hit) {
		return hit, nil
	}

	v, err := g.share(ctx, key, func(ctx context.Context) (any, error) {
		res, err := g.next.Reverse(ctx, p)
		if err != nil {
			return nil, err
		}
		g.save(ctx, key, res)
		return res, nil
	})
	if err != nil {
		return ports.ReversePlace{}, err
	}
	return v.(ports.ReversePlace), nil
}

type cachedRoute struct {
	TotalMeters float64         `json:"total_meters"`
	Polyline    domain.Polyline `json:"polyline"`
}

// CachingDirections memoises a ports.Directions. Failures, including
// domain.ErrRouteUnavailable, are not cached.
type CachingDirections struct {
	*base
	next ports.Directions
}

var _ ports.Directions = (*CachingDirections)(nil)

func NewCachingDirections(next ports.Directions, store Store, ttl time.Duration, logger *zap.Logger) *CachingDirections {
	return &CachingDirections{base: newBase(store, ttl, logger), next: next}
}

func (d *CachingDirections) Route(ctx context.Context, from, to domain.GeoPoint) (ports.RouteResult, error) {
	key := "route:" + from.String() + ">" + to.String()

	var hit cachedRoute
	if d.load(ctx, key, &hit) {
		return ports.RouteResult{TotalMeters: hit.TotalMeters, Polyline: hit.Polyline}, nil
	}

	v, err := d.share(ctx, key, func(ctx context.Context) (any, error) {
		res, err := d.next.Route(ctx, from, to)
		if err != nil {
			return nil, err
		}
		d.save(ctx, key, cachedRoute{TotalMeters: res.TotalMeters, Polyline: res.Polyline})
		return res, nil
	})
	if err != nil {
		return ports.RouteResult{}, err
	}
	return v.(ports.RouteResult), nil
}

// CachingChargers memoises a ports.ChargerLookup. Error summaries are
// returned but never stored.
type CachingChargers struct {
	*base
	next ports.ChargerLookup
}

var _ ports.ChargerLookup = (*CachingChargers)(nil)

func NewCachingChargers(next ports.ChargerLookup, store Store, ttl time.Duration, logger *zap.Logger) *CachingChargers {
	return &CachingChargers{base: newBase(store, ttl, logger), next: next}
}

func (c *CachingChargers) Near(ctx context.Context, p domain.GeoPoint, radiusKm float64) domain.ChargerSummary {
	key := "chargers:" + p.String() + "|" + strconv.FormatFloat(radiusKm, 'f', -1, 64)

	var hit domain.ChargerSummary
	if c.load(ctx, key, &hit) {
		return hit
	}

	v, err := c.share(ctx, key, func(ctx context.Context) (any, error) {
		s := c.next.Near(ctx, p, radiusKm)
		if s.Category != domain.ChargersError {
			c.save(ctx, key, s)
		}
		return s, nil
	})
	if err != nil {
		return domain.ChargerLookupFailed("network")
	}
	return v.(domain.ChargerSummary)
}
