// Package fake provides deterministic in-memory adapters for tests and demos.
package fake

import (
	"context"
	"errors"
	"ev-route-planner/internal/domain"
	"ev-route-planner/internal/geo"
	"ev-route-planner/internal/ports"
	"fmt"
	"math"
	"sync"
)

// A town placed at a kilometre mark along the corridor.
type Town struct {
	Name string
	Km   float64
	// Region towns are only found when the search is not locality-only.
	Region bool
}

// Corridor is a straight road along the equator with towns on it. Distances
// along the road equal haversine distances, so tests can reason in km.
// It implements ports.Geocoder and ports.Directions.
type Corridor struct {
	mu sync.Mutex

	towns []Town
	// Polyline resolution in km. The default of 7 keeps round target
	// distances off the vertices.
	StepKm float64
	// Reverse geocoding only names towns within this distance.
	ReachKm float64
	// Extra meters added to any route ending at the named town.
	Detour map[string]float64
	// Names whose forward search returns these candidates.
	Ambiguous map[string][]domain.PlaceCandidate
	// When set, every Route call fails with domain.ErrRouteUnavailable.
	NoRoute bool
	// When set, every Search call fails with this error.
	SearchErr error

	calls map[string]int
}

var _ ports.Geocoder = (*Corridor)(nil)
var _ ports.Directions = (*Corridor)(nil)

func NewCorridor(towns ...Town) *Corridor {
	return &Corridor{
		towns:     towns,
		StepKm:    7,
		ReachKm:   25,
		Detour:    map[string]float64{},
		Ambiguous: map[string][]domain.PlaceCandidate{},
		calls:     map[string]int{},
	}
}

// PointAt returns the corridor point at km.
func PointAt(km float64) domain.GeoPoint {
	return domain.GeoPoint{Lat: 0, Lng: km * 1000 / (geo.EarthRadiusMeters * math.Pi / 180)}
}

// KmOf is the inverse of PointAt.
func KmOf(p domain.GeoPoint) float64 {
	return p.Lng * (geo.EarthRadiusMeters * math.Pi / 180) / 1000
}

// Calls returns how many times the named method was invoked.
func (c *Corridor) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

func (c *Corridor) count(method string) {
	c.mu.Lock()
	c.calls[method]++
	c.mu.Unlock()
}

func (c *Corridor) Search(ctx context.Context, q ports.SearchQuery) (domain.GeocodeResult, error) {
	c.count("Search")
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.SearchErr != nil {
		return nil, c.SearchErr
	}

	for name, cands := range c.Ambiguous {
		if domain.SamePlaceName(name, q.Text) {
			return domain.Ambiguous{Candidates: cands}, nil
		}
	}

	for _, t := range c.towns {
		if t.Region && q.LocalityOnly {
			continue
		}
		if domain.SamePlaceName(t.Name, q.Text) {
			return domain.Single{Place: domain.ResolvedPlace{Name: t.Name, Point: PointAt(t.Km)}}, nil
		}
	}

	return domain.NotFound{Query: q.Text}, nil
}

func (c *Corridor) Reverse(ctx context.Context, p domain.GeoPoint) (ports.ReversePlace, error) {
	c.count("Reverse")
	if err := ctx.Err(); err != nil {
		return ports.ReversePlace{}, err
	}

	km := KmOf(p)
	best := -1
	bestDist := math.Inf(1)
	for i, t := range c.towns {
		if d := math.Abs(t.Km - km); d <= c.ReachKm && d < bestDist {
			best, bestDist = i, d
		}
	}

	if best < 0 {
		return ports.ReversePlace{Name: domain.PointOnRoute, Point: p}, nil
	}
	t := c.towns[best]
	return ports.ReversePlace{Name: t.Name, Point: PointAt(t.Km)}, nil
}

func (c *Corridor) Route(ctx context.Context, from, to domain.GeoPoint) (ports.RouteResult, error) {
	c.count("Route")
	if err := ctx.Err(); err != nil {
		return ports.RouteResult{}, err
	}
	if c.NoRoute {
		return ports.RouteResult{}, fmt.Errorf("fake route: %w", domain.ErrRouteUnavailable)
	}

	a, b := KmOf(from), KmOf(to)
	meters := math.Abs(b-a) * 1000
	for _, t := range c.towns {
		if extra, ok := c.Detour[t.Name]; ok && math.Abs(t.Km-b) < 1e-6 {
			meters += extra
		}
	}

	return ports.RouteResult{TotalMeters: meters, Polyline: c.line(a, b)}, nil
}

func (c *Corridor) line(a, b float64) domain.Polyline {
	step := c.StepKm
	if step <= 0 {
		step = 7
	}
	if b < a {
		step = -step
	}

	n := int(math.Floor(math.Abs(b-a) / math.Abs(step)))
	out := make(domain.Polyline, 0, n+2)
	for i := 0; i <= n; i++ {
		out = append(out, PointAt(a+float64(i)*step))
	}
	if last := a + float64(n)*step; math.Abs(last-b) > 1e-9 {
		out = append(out, PointAt(b))
	}
	return out
}

// Chargers is a ports.ChargerLookup returning a fixed summary.
type Chargers struct {
	mu      sync.Mutex
	Summary domain.ChargerSummary
	points  []domain.GeoPoint
}

var _ ports.ChargerLookup = (*Chargers)(nil)

func NewChargers(summary domain.ChargerSummary) *Chargers {
	return &Chargers{Summary: summary}
}

func (c *Chargers) Near(ctx context.Context, p domain.GeoPoint, radiusKm float64) domain.ChargerSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = append(c.points, p)
	return c.Summary
}

// Points returns every point looked up so far.
func (c *Chargers) Points() []domain.GeoPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.GeoPoint, len(c.points))
	copy(out, c.points)
	return out
}

// ErrOffline is a convenient transport failure for tests.
var ErrOffline = errors.New("fake: service offline")
