package ports

import (
	"context"
	"ev-route-planner/internal/domain"
)

// Driving route between two points.
type RouteResult struct {
	TotalMeters float64
	Polyline    domain.Polyline
}

// Contract for retrieving driving directions.
type Directions interface {
	// Return the route from one point to another, or an error wrapping
	// domain.ErrRouteUnavailable when no drivable path exists.
	Route(ctx context.Context, from, to domain.GeoPoint) (RouteResult, error)
}
