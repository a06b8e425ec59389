package services

import (
	"context"
	"ev-route-planner/internal/domain"
	"ev-route-planner/internal/platform/obs"
	"ev-route-planner/internal/ports"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

type PlannerConfig struct {
	// Country filter passed to the geocoder; empty uses the adapter default.
	Country         string
	ChargerRadiusKm float64
	// Hard cap on itinerary length; zero means domain.MaxStages.
	MaxStages int
	Policy    AcceptancePolicy
}

type TripRequest struct {
	Origin         string
	Destination    string
	MaxDailyMeters float64
	BufferFraction float64
}

func (r TripRequest) validate() error {
	if strings.TrimSpace(r.Origin) == "" || strings.TrimSpace(r.Destination) == "" {
		return fmt.Errorf("%w: origin and destination are required", domain.ErrInvalidTripRequest)
	}
	if r.MaxDailyMeters <= 0 {
		return fmt.Errorf("%w: max daily distance must be positive", domain.ErrInvalidTripRequest)
	}
	if r.BufferFraction < 0 || r.BufferFraction > 1 {
		return fmt.Errorf("%w: buffer fraction must be within [0, 1]", domain.ErrInvalidTripRequest)
	}
	return nil
}

// TripResult is always inspectable: partial itineraries are kept together
// with the reason the loop stopped. Err is set for PartialNoRoute and
// TooManyStages; PartialNoStop carries a warning instead.
type TripResult struct {
	Status         domain.TripStatus
	Origin         domain.ResolvedPlace
	Destination    domain.ResolvedPlace
	MaxDailyMeters float64
	BufferFraction float64
	Itinerary      domain.Itinerary
	Err            error
	Warnings       []string
}

func (r TripResult) Stages() []domain.Stage { return r.Itinerary.Stages() }

// Trip converts the result into the stored form.
func (r TripResult) Trip(id string, createdAt time.Time) *domain.Trip {
	t := &domain.Trip{
		ID:             id,
		Origin:         r.Origin,
		Destination:    r.Destination,
		MaxDailyMeters: r.MaxDailyMeters,
		BufferFraction: r.BufferFraction,
		Status:         r.Status,
		Stages:         r.Stages(),
		CreatedAt:      createdAt,
	}
	if r.Err != nil {
		t.Message = r.Err.Error()
	}
	if len(r.Warnings) > 0 {
		t.Warnings = append([]string(nil), r.Warnings...)
	}
	return t
}

// TripPlanner resolves trip endpoints and splits the route into daily legs.
type TripPlanner struct {
	resolver *PlaceResolver
	search   *StageSearch
	cfg      PlannerConfig
	logger   *zap.Logger
}

func NewTripPlanner(
	geocoder ports.Geocoder,
	directions ports.Directions,
	chargers ports.ChargerLookup,
	cfg PlannerConfig,
	logger *zap.Logger,
) *TripPlanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxStages <= 0 || cfg.MaxStages > domain.MaxStages {
		cfg.MaxStages = domain.MaxStages
	}
	if cfg.ChargerRadiusKm <= 0 {
		cfg.ChargerRadiusKm = 25
	}

	resolver := NewPlaceResolver(geocoder, cfg.Country, logger)
	return &TripPlanner{
		resolver: resolver,
		search:   NewStageSearch(resolver, geocoder, directions, chargers, cfg.Policy, logger),
		cfg:      cfg,
		logger:   logger,
	}
}

// NewResolution starts a fresh resolution for the given names. Callers that
// collect choices asynchronously (the HTTP API) drive it themselves.
func (p *TripPlanner) NewResolution(origin, destination string) *PlaceResolution {
	return NewPlaceResolution(p.resolver, origin, destination)
}

// PlanTrip resolves both names, asking selector on ambiguity, then runs the
// stage loop. The error is non-nil only when resolution fails; every staging
// outcome is reported through TripResult.Status.
func (p *TripPlanner) PlanTrip(
	ctx context.Context,
	req TripRequest,
	selector ports.SelectionProvider,
) (_ TripResult, err error) {
	defer obs.Time(ctx, "planner.PlanTrip")(&err)

	if err := req.validate(); err != nil {
		return TripResult{}, fmt.Errorf("plan trip: %w", err)
	}

	res := p.NewResolution(req.Origin, req.Destination)
	if err := ResolvePlaces(ctx, res, selector); err != nil {
		return TripResult{}, fmt.Errorf("plan trip: %w", err)
	}

	if domain.SamePlaceName(res.Origin().Name, res.Destination().Name) {
		return TripResult{}, fmt.Errorf("plan trip: %w: origin and destination are both %s",
			domain.ErrInvalidTripRequest, res.Origin().Name)
	}

	result := p.Run(ctx, res.Origin(), res.Destination(), req.MaxDailyMeters, req.BufferFraction)
	res.Finish()
	return result, nil
}

// Run builds the itinerary from resolved endpoints. It never fails: the loop
// stops on arrival, on a routing failure, when no stop qualifies, or when the
// stage cap is reached, and the itinerary so far is always returned.
func (p *TripPlanner) Run(
	ctx context.Context,
	origin domain.ResolvedPlace,
	destination domain.ResolvedPlace,
	maxDailyMeters float64,
	bufferFraction float64,
) TripResult {
	tc := &TripContext{
		Origin:          origin,
		Current:         origin,
		Destination:     destination,
		MaxDailyMeters:  maxDailyMeters,
		BufferFraction:  bufferFraction,
		ChargerRadiusKm: p.cfg.ChargerRadiusKm,
	}

	log := p.logger.With(zap.String("origin", origin.Name), zap.String("destination", destination.Name))

	// Nothing to drive: a stage may never end where it started.
	if domain.SamePlaceName(origin.Name, destination.Name) {
		tc.Warnings = append(tc.Warnings, "origin and destination are the same place")
		return p.finish(tc, domain.TripCompleted, nil, log)
	}

	for {
		if err := ctx.Err(); err != nil {
			return p.finish(tc, domain.TripPartialNoRoute, err, log)
		}

		out := p.search.Next(ctx, tc)

		switch out.Kind {
		case StepNoRoute:
			return p.finish(tc, domain.TripPartialNoRoute, out.Err, log)

		case StepArrived:
			stage := tc.Itinerary.Append(out.Stage)
			log.Debug("final stage", zap.Int("day", stage.Day), zap.Float64("leg_m", stage.DistanceMeters))
			return p.finish(tc, domain.TripCompleted, nil, log)

		case StepNoReachableStop:
			tc.Warnings = append(tc.Warnings, out.Err.Error())
			return p.finish(tc, domain.TripPartialNoStop, nil, log)

		case StepNextStop:
			stage := tc.Itinerary.Append(out.Stage)
			tc.Current = out.Next
			log.Debug("stage", zap.Int("day", stage.Day), zap.String("to", stage.To), zap.Float64("leg_m", stage.DistanceMeters))

			if tc.Itinerary.Len() >= p.cfg.MaxStages {
				err := fmt.Errorf("%w: stopped after %d stages without reaching %s",
					domain.ErrTooManyStages, tc.Itinerary.Len(), destination.Name)
				return p.finish(tc, domain.TripTooManyStages, err, log)
			}

		default:
			return p.finish(tc, domain.TripPartialNoRoute, fmt.Errorf("unexpected step kind %d", out.Kind), log)
		}
	}
}

func (p *TripPlanner) finish(tc *TripContext, status domain.TripStatus, err error, log *zap.Logger) TripResult {
	fields := []zap.Field{
		zap.String("status", string(status)),
		zap.Int("stages", tc.Itinerary.Len()),
		zap.Float64("total_m", tc.Itinerary.TotalMeters()),
	}
	switch {
	case err != nil:
		log.Warn("trip stopped", append(fields, zap.Error(err))...)
	case len(tc.Warnings) > 0:
		log.Warn("trip incomplete", append(fields, zap.Strings("warnings", tc.Warnings))...)
	default:
		log.Info("trip planned", fields...)
	}

	return TripResult{
		Status:         status,
		Origin:         tc.Origin,
		Destination:    tc.Destination,
		MaxDailyMeters: tc.MaxDailyMeters,
		BufferFraction: tc.BufferFraction,
		Itinerary:      tc.Itinerary,
		Err:            err,
		Warnings:       tc.Warnings,
	}
}
