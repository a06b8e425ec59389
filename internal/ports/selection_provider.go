package ports

import (
	"context"
	"ev-route-planner/internal/domain"
)

// Which of the two trip endpoints is being disambiguated.
type PlaceRole string

const (
	RoleOrigin      PlaceRole = "origin"
	RoleDestination PlaceRole = "destination"
)

// Contract for the human (or policy) picking among ambiguous candidates.
type SelectionProvider interface {
	// Return the index of the chosen candidate. An error aborts resolution.
	Choose(ctx context.Context, role PlaceRole, query string, candidates []domain.PlaceCandidate) (int, error)
}

// SelectionFunc adapts a plain function to SelectionProvider.
type SelectionFunc func(ctx context.Context, role PlaceRole, query string, candidates []domain.PlaceCandidate) (int, error)

func (f SelectionFunc) Choose(ctx context.Context, role PlaceRole, query string, candidates []domain.PlaceCandidate) (int, error) {
	return f(ctx, role, query, candidates)
}
