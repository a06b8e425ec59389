package ports

import (
	"context"
	"ev-route-planner/internal/domain"
)

// Port: a boundary for storing planned trips.
type TripRepository interface {
	// Insert or replace a trip by ID.
	SaveTrip(ctx context.Context, trip *domain.Trip) error
	// Return domain.ErrTripNotFound when the ID is unknown.
	GetTrip(ctx context.Context, id string) (*domain.Trip, error)
	// Most recent first.
	ListTrips(ctx context.Context, limit int) ([]*domain.Trip, error)
}
