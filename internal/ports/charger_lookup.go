package ports

import (
	"context"
	"ev-route-planner/internal/domain"
)

// Contract for summarising charging options near a stop.
type ChargerLookup interface {
	// Never fails: lookup problems are reported through the summary category.
	Near(ctx context.Context, p domain.GeoPoint, radiusKm float64) domain.ChargerSummary
}
