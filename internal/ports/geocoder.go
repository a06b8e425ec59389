package ports

import (
	"context"
	"ev-route-planner/internal/domain"
)

// Parameters for a forward geocoding query.
type SearchQuery struct {
	Text string
	// ISO 3166 alpha-3 country filter; empty means adapter default.
	Country      string
	LocalityOnly bool
	// Bias results toward this point when set.
	Proximity *domain.GeoPoint
}

// The named place nearest to a coordinate. Name is domain.PointOnRoute
// when nothing named was found.
type ReversePlace struct {
	Name  string
	Point domain.GeoPoint
}

// Contract for converting between place names and coordinates.
type Geocoder interface {
	// Resolve free text into Single, Ambiguous or NotFound.
	Search(ctx context.Context, q SearchQuery) (domain.GeocodeResult, error)
	// Find the named place nearest to a coordinate.
	Reverse(ctx context.Context, p domain.GeoPoint) (ReversePlace, error)
}
