package services

import (
	"context"
	"ev-route-planner/internal/adapters/fake"
	"ev-route-planner/internal/domain"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateFractions(t *testing.T) {
	assert.Equal(t, []float64{1.0}, CandidateFractions(0))
	assert.Equal(t, []float64{1.0}, CandidateFractions(0.09))
	assert.Equal(t, []float64{1.0, 1.1, 0.9, 1.2, 0.8, 1.3, 0.7}, CandidateFractions(0.3))
	assert.Equal(t, []float64{1.0, 1.1, 0.9, 1.2, 0.8}, CandidateFractions(0.25))
	assert.Len(t, CandidateFractions(0.7), 15)
}

func TestParseAcceptancePolicy(t *testing.T) {
	p, err := ParseAcceptancePolicy("")
	assert.NoError(t, err)
	assert.Equal(t, FirstFit, p)

	p, err = ParseAcceptancePolicy("closest")
	assert.NoError(t, err)
	assert.Equal(t, ClosestToIdeal, p)

	_, err = ParseAcceptancePolicy("best")
	assert.Error(t, err)
}

func newStageSearch(c *fake.Corridor) *StageSearch {
	chargers := fake.NewChargers(domain.ChargersFound(1))
	return NewStageSearch(NewPlaceResolver(c, "", nil), c, c, chargers, FirstFit, nil)
}

func TestNextArrivesWithinLimit(t *testing.T) {
	s := newStageSearch(fake.NewCorridor())
	tc := &TripContext{
		Current:        place("Bogotá", 0),
		Destination:    place("Girardot", 250),
		MaxDailyMeters: 200000,
		BufferFraction: 0.3,
	}

	out := s.Next(context.Background(), tc)

	require.Equal(t, StepArrived, out.Kind)
	assert.Equal(t, "Girardot", out.Stage.To)
	assert.InDelta(t, 250000, out.Stage.DistanceMeters, 1e-3)
	assert.Equal(t, 0, tc.Itinerary.Len(), "Next leaves the context alone")
}

func TestNextNeverStopsAtDestinationName(t *testing.T) {
	corridor := fake.NewCorridor(fake.Town{Name: "cartagena", Km: 200})
	corridor.ReachKm = 30
	s := newStageSearch(corridor)
	tc := &TripContext{
		Current:        place("Bogotá", 0),
		Destination:    place("Cartagena", 650),
		MaxDailyMeters: 200000,
		BufferFraction: 0.3,
	}

	out := s.Next(context.Background(), tc)

	assert.Equal(t, StepNoReachableStop, out.Kind)
	assert.ErrorIs(t, out.Err, domain.ErrNoReachableStop)
}
