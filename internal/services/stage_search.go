package services

import (
	"context"
	"errors"
	"ev-route-planner/internal/domain"
	"ev-route-planner/internal/geo"
	"ev-route-planner/internal/ports"
	"fmt"
	"math"

	"go.uber.org/zap"
)

// AcceptancePolicy decides which qualifying candidate becomes the next stop.
type AcceptancePolicy int

const (
	// FirstFit accepts the first qualifying candidate in generation order.
	FirstFit AcceptancePolicy = iota
	// ClosestToIdeal evaluates every candidate and keeps the qualifying one
	// whose leg is closest to the daily distance.
	ClosestToIdeal
)

func (p AcceptancePolicy) String() string {
	if p == ClosestToIdeal {
		return "closest"
	}
	return "first-fit"
}

// ParseAcceptancePolicy accepts "first-fit" (default) and "closest".
func ParseAcceptancePolicy(s string) (AcceptancePolicy, error) {
	switch s {
	case "", "first-fit", "firstfit":
		return FirstFit, nil
	case "closest", "closest-to-ideal":
		return ClosestToIdeal, nil
	default:
		return FirstFit, fmt.Errorf("unknown acceptance policy %q", s)
	}
}

// TripContext carries everything one trip's search needs. It is owned by a
// single trip and never shared.
type TripContext struct {
	Origin          domain.ResolvedPlace
	Current         domain.ResolvedPlace
	Destination     domain.ResolvedPlace
	MaxDailyMeters  float64
	BufferFraction  float64
	ChargerRadiusKm float64
	Itinerary       domain.Itinerary
	Warnings        []string
}

// Limit is the longest leg the search may accept.
func (tc *TripContext) Limit() float64 {
	return tc.MaxDailyMeters * (1 + tc.BufferFraction)
}

type StepKind int

const (
	StepNextStop StepKind = iota
	StepArrived
	StepNoRoute
	StepNoReachableStop
)

// StepOutcome is the result of one StageSearch.Next call. Stage is set for
// StepNextStop and StepArrived; Next is the new current place for StepNextStop.
type StepOutcome struct {
	Kind  StepKind
	Stage domain.Stage
	Next  domain.ResolvedPlace
	Err   error
}

// CandidateFractions lists the fractions of the daily distance to try:
// 1.0 first, then alternately above and below in 0.1 steps, for
// floor(buffer×10) steps on each side.
func CandidateFractions(bufferFraction float64) []float64 {
	steps := int(math.Floor(bufferFraction*10 + 1e-9))
	if steps < 0 {
		steps = 0
	}

	out := make([]float64, 0, 1+2*steps)
	out = append(out, 1.0)
	for i := 1; i <= steps; i++ {
		out = append(out, float64(10+i)/10, float64(10-i)/10)
	}
	return out
}

// StageSearch decides where the next day's leg ends.
type StageSearch struct {
	resolver   *PlaceResolver
	geocoder   ports.Geocoder
	directions ports.Directions
	chargers   ports.ChargerLookup
	policy     AcceptancePolicy
	logger     *zap.Logger
}

func NewStageSearch(
	resolver *PlaceResolver,
	geocoder ports.Geocoder,
	directions ports.Directions,
	chargers ports.ChargerLookup,
	policy AcceptancePolicy,
	logger *zap.Logger,
) *StageSearch {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StageSearch{
		resolver:   resolver,
		geocoder:   geocoder,
		directions: directions,
		chargers:   chargers,
		policy:     policy,
		logger:     logger,
	}
}

type candidateStop struct {
	place    domain.ResolvedPlace
	meters   float64
	fraction float64
}

// Next routes from the current place to the destination and either closes
// the trip, proposes the next overnight stop, or reports why it cannot.
// It does not modify tc.
func (s *StageSearch) Next(ctx context.Context, tc *TripContext) StepOutcome {
	rest, err := s.directions.Route(ctx, tc.Current.Point, tc.Destination.Point)
	if err != nil {
		return StepOutcome{
			Kind: StepNoRoute,
			Err:  fmt.Errorf("route %s -> %s: %w", tc.Current.Name, tc.Destination.Name, routeErr(err)),
		}
	}

	remaining := rest.TotalMeters
	limit := tc.Limit()

	if remaining <= limit {
		return StepOutcome{
			Kind: StepArrived,
			Stage: domain.Stage{
				From:           tc.Current.Name,
				To:             tc.Destination.Name,
				DistanceMeters: remaining,
				Point:          tc.Destination.Point,
				Charging:       s.chargers.Near(ctx, tc.Destination.Point, tc.ChargerRadiusKm),
			},
		}
	}

	var best *candidateStop
	for _, f := range CandidateFractions(tc.BufferFraction) {
		if err := ctx.Err(); err != nil {
			return StepOutcome{Kind: StepNoRoute, Err: err}
		}

		target := tc.MaxDailyMeters * f
		if target <= 0 || target > remaining {
			continue
		}

		stop, ok := s.tryCandidate(ctx, tc, rest.Polyline, target, limit)
		if !ok {
			continue
		}
		stop.fraction = f

		if s.policy == FirstFit {
			best = &stop
			break
		}
		if best == nil || math.Abs(stop.meters-tc.MaxDailyMeters) < math.Abs(best.meters-tc.MaxDailyMeters) {
			best = &stop
		}
	}

	if best == nil {
		return StepOutcome{
			Kind: StepNoReachableStop,
			Err: fmt.Errorf(
				"day %d from %s: %w (buffer %.0f%%)",
				tc.Itinerary.Len()+1, tc.Current.Name, domain.ErrNoReachableStop, tc.BufferFraction*100,
			),
		}
	}

	s.logger.Debug("stop accepted",
		zap.Int("day", tc.Itinerary.Len()+1),
		zap.String("from", tc.Current.Name),
		zap.String("to", best.place.Name),
		zap.Float64("fraction", best.fraction),
		zap.Float64("leg_m", best.meters),
	)

	return StepOutcome{
		Kind: StepNextStop,
		Stage: domain.Stage{
			From:           tc.Current.Name,
			To:             best.place.Name,
			DistanceMeters: best.meters,
			Point:          best.place.Point,
			Charging:       s.chargers.Near(ctx, best.place.Point, tc.ChargerRadiusKm),
		},
		Next: best.place,
	}
}

// tryCandidate checks one target distance. Every rejection is local to the
// candidate; external failures only disqualify it.
func (s *StageSearch) tryCandidate(
	ctx context.Context,
	tc *TripContext,
	line domain.Polyline,
	target float64,
	limit float64,
) (candidateStop, bool) {
	log := s.logger.With(zap.Float64("target_m", target))

	point, err := geo.PointAtDistance(line, target)
	if err != nil {
		log.Debug("candidate skipped: no point on route", zap.Error(err))
		return candidateStop{}, false
	}

	near, err := s.geocoder.Reverse(ctx, point)
	if err != nil {
		log.Debug("candidate skipped: reverse geocode failed", zap.Error(err))
		return candidateStop{}, false
	}
	if domain.IsPointOnRoute(near.Name) {
		log.Debug("candidate skipped: unnamed point")
		return candidateStop{}, false
	}
	if domain.SamePlaceName(near.Name, tc.Current.Name) {
		log.Debug("candidate skipped: same as start", zap.String("name", near.Name))
		return candidateStop{}, false
	}
	// Reaching the destination town is arrival, never an overnight stop.
	if domain.SamePlaceName(near.Name, tc.Destination.Name) {
		log.Debug("candidate skipped: same as destination", zap.String("name", near.Name))
		return candidateStop{}, false
	}

	// Reverse geocoding coordinates are not always routable; resolve the
	// name again to get a point the directions service accepts.
	routable, ok := s.routablePoint(ctx, near)
	if !ok {
		log.Debug("candidate skipped: name not routable", zap.String("name", near.Name))
		return candidateStop{}, false
	}

	leg, err := s.directions.Route(ctx, tc.Current.Point, routable)
	if err != nil {
		log.Debug("candidate skipped: no route", zap.String("name", near.Name), zap.Error(err))
		return candidateStop{}, false
	}
	if leg.TotalMeters > limit {
		log.Debug("candidate skipped: leg too long",
			zap.String("name", near.Name),
			zap.Float64("leg_m", leg.TotalMeters),
			zap.Float64("limit_m", limit),
		)
		return candidateStop{}, false
	}

	return candidateStop{
		place:  domain.ResolvedPlace{Name: near.Name, Point: routable},
		meters: leg.TotalMeters,
	}, true
}

func (s *StageSearch) routablePoint(ctx context.Context, near ports.ReversePlace) (domain.GeoPoint, bool) {
	hint := near.Point
	res, err := s.resolver.Resolve(ctx, near.Name, &hint)
	if err != nil {
		return domain.GeoPoint{}, false
	}

	switch v := res.(type) {
	case domain.Single:
		return v.Place.Point, true
	case domain.Ambiguous:
		return nearestCandidate(v.Candidates, near.Point), true
	default:
		return domain.GeoPoint{}, false
	}
}

func nearestCandidate(candidates []domain.PlaceCandidate, to domain.GeoPoint) domain.GeoPoint {
	best := candidates[0].Point
	bestDist := geo.DistanceMeters(best, to)
	for _, c := range candidates[1:] {
		if d := geo.DistanceMeters(c.Point, to); d < bestDist {
			best, bestDist = c.Point, d
		}
	}
	return best
}

// routeErr maps any directions failure onto domain.ErrRouteUnavailable while
// keeping the cause.
func routeErr(err error) error {
	if errors.Is(err, domain.ErrRouteUnavailable) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrRouteUnavailable, err)
}
