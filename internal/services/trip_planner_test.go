package services

import (
	"context"
	"ev-route-planner/internal/adapters/fake"
	"ev-route-planner/internal/domain"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlanner(c *fake.Corridor, policy AcceptancePolicy) (*TripPlanner, *fake.Chargers) {
	chargers := fake.NewChargers(domain.ChargersFound(2))
	p := NewTripPlanner(c, c, chargers, PlannerConfig{Policy: policy}, nil)
	return p, chargers
}

func place(name string, km float64) domain.ResolvedPlace {
	return domain.ResolvedPlace{Name: name, Point: fake.PointAt(km)}
}

func assertItineraryInvariants(t *testing.T, res TripResult) {
	t.Helper()

	stages := res.Stages()
	limit := res.MaxDailyMeters * (1 + res.BufferFraction)

	assert.LessOrEqual(t, len(stages), domain.MaxStages)
	for i, s := range stages {
		assert.Equal(t, i+1, s.Day, "day indices must be 1..N")
		assert.LessOrEqual(t, s.DistanceMeters, limit, "stage %d exceeds limit", s.Day)
		assert.False(t, domain.SamePlaceName(s.From, s.To), "stage %d goes nowhere", s.Day)
		if i > 0 {
			assert.Equal(t, stages[i-1].To, s.From)
		}
	}
}

func TestRunSingleStage(t *testing.T) {
	corridor := fake.NewCorridor()
	p, chargers := newPlanner(corridor, FirstFit)

	res := p.Run(context.Background(), place("Bogotá", 0), place("Girardot", 140), 200000, 0.3)

	assert.Equal(t, domain.TripCompleted, res.Status)
	require.Len(t, res.Stages(), 1)
	s := res.Stages()[0]
	assert.Equal(t, 1, s.Day)
	assert.Equal(t, "Bogotá", s.From)
	assert.Equal(t, "Girardot", s.To)
	assert.InDelta(t, 140000, s.DistanceMeters, 1e-3)
	assert.Equal(t, domain.ChargersAvailable, s.Charging.Category)
	assert.Len(t, chargers.Points(), 1)
	assert.NoError(t, res.Err)
	assert.Equal(t, 0, corridor.Calls("Reverse"))
}

func TestRunMultiStage(t *testing.T) {
	corridor := fake.NewCorridor(
		fake.Town{Name: "Villeta", Km: 150},
		fake.Town{Name: "Honda", Km: 210},
		fake.Town{Name: "Puerto Boyacá", Km: 330},
		fake.Town{Name: "Aguachica", Km: 400},
		fake.Town{Name: "Bosconia", Km: 520},
	)
	p, _ := newPlanner(corridor, FirstFit)

	res := p.Run(context.Background(), place("Bogotá", 0), place("Cartagena", 650), 200000, 0.3)

	require.Equal(t, domain.TripCompleted, res.Status)
	stages := res.Stages()
	require.Len(t, stages, 3)
	assert.Equal(t, "Honda", stages[0].To)
	assert.Equal(t, "Aguachica", stages[1].To)
	assert.Equal(t, "Cartagena", stages[2].To)
	assert.InDelta(t, 650000, res.Itinerary.TotalMeters(), 1e-3)
	assertItineraryInvariants(t, res)
}

func TestRunRejectsLegOverLimit(t *testing.T) {
	corridor := fake.NewCorridor(
		fake.Town{Name: "Honda", Km: 200},
		fake.Town{Name: "La Dorada", Km: 225},
	)
	corridor.ReachKm = 10
	// Honda sits on the route but the only road in is a long detour.
	corridor.Detour["Honda"] = 100000

	p, _ := newPlanner(corridor, FirstFit)
	res := p.Run(context.Background(), place("Bogotá", 0), place("Cartagena", 650), 200000, 0.3)

	stages := res.Stages()
	require.NotEmpty(t, stages)
	assert.Equal(t, "La Dorada", stages[0].To)
	assertItineraryInvariants(t, res)
}

func TestRunRejectsStartName(t *testing.T) {
	corridor := fake.NewCorridor(
		fake.Town{Name: "HONDA", Km: 200},
		fake.Town{Name: "Mariquita", Km: 180},
	)
	corridor.ReachKm = 15

	p, _ := newPlanner(corridor, FirstFit)
	res := p.Run(context.Background(), place("Honda", 0), place("Cartagena", 400), 200000, 0.3)

	stages := res.Stages()
	require.NotEmpty(t, stages)
	assert.Equal(t, "Mariquita", stages[0].To)
	assertItineraryInvariants(t, res)
}

func TestRunSkipsStopNamedLikeDestination(t *testing.T) {
	corridor := fake.NewCorridor(
		fake.Town{Name: "CARTAGENA", Km: 200},
		fake.Town{Name: "Mariquita", Km: 180},
	)
	corridor.ReachKm = 15

	p, _ := newPlanner(corridor, FirstFit)
	res := p.Run(context.Background(), place("Bogotá", 0), place("Cartagena", 400), 200000, 0.3)

	stages := res.Stages()
	require.NotEmpty(t, stages)
	assert.Equal(t, "Mariquita", stages[0].To)
	for _, s := range stages[:len(stages)-1] {
		assert.False(t, domain.SamePlaceName(s.To, "Cartagena"))
	}
	assertItineraryInvariants(t, res)
}

func TestRunSameOriginAndDestination(t *testing.T) {
	corridor := fake.NewCorridor()
	p, chargers := newPlanner(corridor, FirstFit)

	res := p.Run(context.Background(), place("Bogotá", 0), place("BOGOTÁ", 0), 200000, 0.3)

	assert.Equal(t, domain.TripCompleted, res.Status)
	assert.Empty(t, res.Stages())
	assert.NoError(t, res.Err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, 0, corridor.Calls("Route"))
	assert.Empty(t, chargers.Points())
	assertItineraryInvariants(t, res)
}

func TestRunNoReachableStop(t *testing.T) {
	corridor := fake.NewCorridor() // reverse geocoding always yields the sentinel
	p, _ := newPlanner(corridor, FirstFit)

	res := p.Run(context.Background(), place("Bogotá", 0), place("Cartagena", 650), 200000, 0.3)

	assert.Equal(t, domain.TripPartialNoStop, res.Status)
	assert.Empty(t, res.Stages())
	assert.NoError(t, res.Err)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], domain.ErrNoReachableStop.Error())
}

func TestRunNoStopAfterProgress(t *testing.T) {
	corridor := fake.NewCorridor(fake.Town{Name: "Honda", Km: 200})
	p, _ := newPlanner(corridor, FirstFit)

	res := p.Run(context.Background(), place("Bogotá", 0), place("Cartagena", 650), 200000, 0.3)

	assert.Equal(t, domain.TripPartialNoStop, res.Status)
	require.Len(t, res.Stages(), 1)
	assert.Equal(t, "Honda", res.Stages()[0].To)
}

func TestRunRouteUnavailable(t *testing.T) {
	corridor := fake.NewCorridor(fake.Town{Name: "Honda", Km: 200})
	corridor.NoRoute = true
	p, _ := newPlanner(corridor, FirstFit)

	res := p.Run(context.Background(), place("Bogotá", 0), place("Cartagena", 650), 200000, 0.3)

	assert.Equal(t, domain.TripPartialNoRoute, res.Status)
	assert.Empty(t, res.Stages())
	assert.ErrorIs(t, res.Err, domain.ErrRouteUnavailable)
	assert.Equal(t, 1, corridor.Calls("Route"))
}

func TestTripResultToTrip(t *testing.T) {
	corridor := fake.NewCorridor(fake.Town{Name: "Honda", Km: 200})
	corridor.NoRoute = true
	p, _ := newPlanner(corridor, FirstFit)

	res := p.Run(context.Background(), place("Bogotá", 0), place("Cartagena", 650), 200000, 0.3)
	created := time.Date(2026, 5, 1, 7, 30, 0, 0, time.UTC)
	trip := res.Trip("trip-9", created)

	assert.Equal(t, "trip-9", trip.ID)
	assert.Equal(t, domain.TripPartialNoRoute, trip.Status)
	assert.Equal(t, "Bogotá", trip.Origin.Name)
	assert.Equal(t, "Cartagena", trip.Destination.Name)
	assert.Equal(t, 200000.0, trip.MaxDailyMeters)
	assert.Equal(t, res.Err.Error(), trip.Message)
	assert.Empty(t, trip.Stages)
	assert.Equal(t, created, trip.CreatedAt)
}

func TestRunTooManyStages(t *testing.T) {
	towns := make([]fake.Town, 0, 60)
	for km := 100; km < 6000; km += 100 {
		towns = append(towns, fake.Town{Name: fmt.Sprintf("Town %d", km), Km: float64(km)})
	}
	corridor := fake.NewCorridor(towns...)
	p, _ := newPlanner(corridor, FirstFit)

	res := p.Run(context.Background(), place("Start", 0), place("End", 6000), 100000, 0.2)

	assert.Equal(t, domain.TripTooManyStages, res.Status)
	assert.ErrorIs(t, res.Err, domain.ErrTooManyStages)
	assert.Len(t, res.Stages(), domain.MaxStages)
	assertItineraryInvariants(t, res)
}

func TestRunCompletesOnLastAllowedStage(t *testing.T) {
	towns := make([]fake.Town, 0, 30)
	for km := 100; km < 3000; km += 100 {
		towns = append(towns, fake.Town{Name: fmt.Sprintf("Town %d", km), Km: float64(km)})
	}
	corridor := fake.NewCorridor(towns...)
	p, _ := newPlanner(corridor, FirstFit)

	// 29 full days then a final 100 km leg: exactly 30 stages.
	res := p.Run(context.Background(), place("Start", 0), place("End", 3000), 100000, 0.2)

	assert.Equal(t, domain.TripCompleted, res.Status)
	assert.Len(t, res.Stages(), domain.MaxStages)
}

func TestRunClosestToIdeal(t *testing.T) {
	towns := []fake.Town{
		{Name: "Overshoot", Km: 228},
		{Name: "Near", Km: 185},
	}

	first := fake.NewCorridor(towns...)
	first.ReachKm = 10
	p, _ := newPlanner(first, FirstFit)
	res := p.Run(context.Background(), place("Start", 0), place("End", 600), 200000, 0.3)
	require.NotEmpty(t, res.Stages())
	assert.Equal(t, "Overshoot", res.Stages()[0].To)

	closest := fake.NewCorridor(towns...)
	closest.ReachKm = 10
	p, _ = newPlanner(closest, ClosestToIdeal)
	res = p.Run(context.Background(), place("Start", 0), place("End", 600), 200000, 0.3)
	require.NotEmpty(t, res.Stages())
	assert.Equal(t, "Near", res.Stages()[0].To)
}

func TestRunAmbiguousStopUsesNearestCandidate(t *testing.T) {
	corridor := fake.NewCorridor(fake.Town{Name: "San Juan", Km: 200})
	corridor.Ambiguous["San Juan"] = []domain.PlaceCandidate{
		{Label: "San Juan, Nariño", Point: fake.PointAt(2000)},
		{Label: "San Juan, Honda", Point: fake.PointAt(195)},
	}
	p, _ := newPlanner(corridor, FirstFit)

	res := p.Run(context.Background(), place("Bogotá", 0), place("Cartagena", 400), 200000, 0.3)

	require.Equal(t, domain.TripCompleted, res.Status)
	stages := res.Stages()
	require.Len(t, stages, 2)
	assert.Equal(t, "San Juan", stages[0].To)
	assert.InDelta(t, 195, fake.KmOf(stages[0].Point), 1e-6)
}

func TestRunCancelledContext(t *testing.T) {
	corridor := fake.NewCorridor()
	p, _ := newPlanner(corridor, FirstFit)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := p.Run(ctx, place("Bogotá", 0), place("Cartagena", 650), 200000, 0.3)
	assert.Equal(t, domain.TripPartialNoRoute, res.Status)
	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 0, corridor.Calls("Route"))
}

func TestPlanTrip(t *testing.T) {
	corridor := fake.NewCorridor(
		fake.Town{Name: "Bogotá", Km: 0},
		fake.Town{Name: "Honda", Km: 210},
		fake.Town{Name: "Aguachica", Km: 400},
		fake.Town{Name: "Cartagena", Km: 650},
	)
	p, _ := newPlanner(corridor, FirstFit)

	res, err := p.PlanTrip(context.Background(), TripRequest{
		Origin:         "bogotá",
		Destination:    "Cartagena",
		MaxDailyMeters: 200000,
		BufferFraction: 0.3,
	}, nil)

	require.NoError(t, err)
	assert.Equal(t, domain.TripCompleted, res.Status)
	assert.Equal(t, "Bogotá", res.Origin.Name)
	assert.Len(t, res.Stages(), 3)
	assertItineraryInvariants(t, res)
}

func TestPlanTripResolutionErrors(t *testing.T) {
	corridor := fake.NewCorridor(fake.Town{Name: "Bogotá", Km: 0})
	p, _ := newPlanner(corridor, FirstFit)

	_, err := p.PlanTrip(context.Background(), TripRequest{
		Origin: "Bogotá", Destination: "Atlantis", MaxDailyMeters: 200000, BufferFraction: 0.3,
	}, nil)
	assert.ErrorIs(t, err, domain.ErrPlaceNotFound)

	_, err = p.PlanTrip(context.Background(), TripRequest{
		Origin: "Bogotá", Destination: "Bogotá", MaxDailyMeters: 0, BufferFraction: 0.3,
	}, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTripRequest)
}

func TestPlanTripRejectsSamePlace(t *testing.T) {
	corridor := fake.NewCorridor(fake.Town{Name: "Bogotá", Km: 0})
	p, _ := newPlanner(corridor, FirstFit)

	_, err := p.PlanTrip(context.Background(), TripRequest{
		Origin: "Bogotá", Destination: "BOGOTÁ", MaxDailyMeters: 200000, BufferFraction: 0.3,
	}, nil)

	assert.ErrorIs(t, err, domain.ErrInvalidTripRequest)
	assert.Equal(t, 0, corridor.Calls("Route"))
}
