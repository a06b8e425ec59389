package services

import (
	"context"
	"errors"
	"ev-route-planner/internal/domain"
	"ev-route-planner/internal/platform/obs"
	"ev-route-planner/internal/ports"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// PlaceResolver turns free text into a geocoding result, preferring
// locality-level matches (cities and towns) over broader regions.
type PlaceResolver struct {
	geocoder ports.Geocoder
	country  string
	logger   *zap.Logger
}

func NewPlaceResolver(geocoder ports.Geocoder, country string, logger *zap.Logger) *PlaceResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlaceResolver{geocoder: geocoder, country: country, logger: logger}
}

// Resolve queries localities first and retries once without the locality
// restriction when nothing matched. Transport failures are returned wrapped
// in domain.ErrGeocodingUnavailable; an unknown name is NotFound, not an error.
func (r *PlaceResolver) Resolve(
	ctx context.Context,
	name string,
	proximity *domain.GeoPoint,
) (_ domain.GeocodeResult, err error) {
	defer obs.Time(ctx, "resolver.Resolve")(&err)

	text := strings.Join(strings.Fields(name), " ")
	if text == "" {
		return domain.NotFound{Query: name}, nil
	}

	q := ports.SearchQuery{
		Text:         text,
		Country:      r.country,
		LocalityOnly: true,
		Proximity:    proximity,
	}

	res, err := r.search(ctx, q)
	if err != nil {
		return nil, err
	}
	if _, ok := res.(domain.NotFound); !ok {
		return res, nil
	}

	r.logger.Debug("no locality match, retrying without layer filter", zap.String("query", text))

	q.LocalityOnly = false
	return r.search(ctx, q)
}

func (r *PlaceResolver) search(ctx context.Context, q ports.SearchQuery) (domain.GeocodeResult, error) {
	res, err := r.geocoder.Search(ctx, q)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("search %q: %w: %w", q.Text, domain.ErrGeocodingUnavailable, err)
	}
	return normalizeResult(res, q.Text), nil
}

// normalizeResult keeps the variant honest when an adapter returns an
// Ambiguous with fewer than two candidates.
func normalizeResult(res domain.GeocodeResult, query string) domain.GeocodeResult {
	switch v := res.(type) {
	case domain.Ambiguous:
		switch len(v.Candidates) {
		case 0:
			return domain.NotFound{Query: query}
		case 1:
			c := v.Candidates[0]
			return domain.Single{Place: domain.ResolvedPlace{Name: c.Label, Point: c.Point}}
		}
		return v
	case nil:
		return domain.NotFound{Query: query}
	default:
		return res
	}
}

// PlaceResolution is the state machine that resolves a trip's origin and
// destination before staging starts:
//
//	Idle → ResolvingOrigin → AwaitingOriginChoice? → ResolvingDestination →
//	AwaitingDestinationChoice? → Staging → Done
//
// It suspends in an Awaiting*Choice phase until Select is called and makes no
// geocoding calls while suspended. A PlaceResolution belongs to one trip and
// is not safe for concurrent use.
type PlaceResolution struct {
	resolver *PlaceResolver

	originQuery      string
	destinationQuery string

	phase       domain.SearchPhase
	origin      domain.ResolvedPlace
	destination domain.ResolvedPlace
	candidates  []domain.PlaceCandidate
}

func NewPlaceResolution(resolver *PlaceResolver, origin, destination string) *PlaceResolution {
	return &PlaceResolution{
		resolver:         resolver,
		originQuery:      strings.TrimSpace(origin),
		destinationQuery: strings.TrimSpace(destination),
		phase:            domain.PhaseIdle,
	}
}

func (r *PlaceResolution) Phase() domain.SearchPhase { return r.phase }

func (r *PlaceResolution) Origin() domain.ResolvedPlace { return r.origin }

func (r *PlaceResolution) Destination() domain.ResolvedPlace { return r.destination }

// Candidates returns the pending choices, or nil when nothing is pending.
func (r *PlaceResolution) Candidates() []domain.PlaceCandidate {
	if !r.phase.Awaiting() {
		return nil
	}
	out := make([]domain.PlaceCandidate, len(r.candidates))
	copy(out, r.candidates)
	return out
}

// Pending reports which endpoint is waiting for a choice and the text the
// user typed for it.
func (r *PlaceResolution) Pending() (ports.PlaceRole, string, bool) {
	switch r.phase {
	case domain.PhaseAwaitingOriginChoice:
		return ports.RoleOrigin, r.originQuery, true
	case domain.PhaseAwaitingDestinationChoice:
		return ports.RoleDestination, r.destinationQuery, true
	default:
		return "", "", false
	}
}

// Start leaves Idle and runs until the machine suspends or reaches Staging.
// On NotFound or a geocoder failure the machine returns to Idle and can be
// started again.
func (r *PlaceResolution) Start(ctx context.Context) error {
	if r.phase != domain.PhaseIdle {
		return fmt.Errorf("start resolution: already in phase %s", r.phase)
	}
	r.phase = domain.PhaseResolvingOrigin
	return r.advance(ctx)
}

// Select applies a human choice. An out-of-range index returns
// domain.ErrInvalidSelection and leaves the phase unchanged.
func (r *PlaceResolution) Select(ctx context.Context, index int) error {
	if !r.phase.Awaiting() {
		return fmt.Errorf("select %d in phase %s: %w", index, r.phase, domain.ErrNoChoicePending)
	}
	if index < 0 || index >= len(r.candidates) {
		return fmt.Errorf("select %d of %d candidates: %w", index, len(r.candidates), domain.ErrInvalidSelection)
	}

	c := r.candidates[index]
	place := domain.ResolvedPlace{Name: c.Label, Point: c.Point}
	r.candidates = nil

	if r.phase == domain.PhaseAwaitingOriginChoice {
		r.origin = place
		r.phase = domain.PhaseResolvingDestination
	} else {
		r.destination = place
		r.phase = domain.PhaseStaging
	}

	return r.advance(ctx)
}

// Finish moves a Staging resolution to Done once the trip loop has ended.
func (r *PlaceResolution) Finish() {
	if r.phase == domain.PhaseStaging {
		r.phase = domain.PhaseDone
	}
}

func (r *PlaceResolution) advance(ctx context.Context) error {
	for {
		switch r.phase {
		case domain.PhaseResolvingOrigin:
			res, err := r.resolver.Resolve(ctx, r.originQuery, nil)
			if err != nil {
				r.reset()
				return fmt.Errorf("resolve origin: %w", err)
			}

			switch v := res.(type) {
			case domain.Single:
				r.origin = v.Place
				r.phase = domain.PhaseResolvingDestination
			case domain.Ambiguous:
				r.candidates = v.Candidates
				r.phase = domain.PhaseAwaitingOriginChoice
				return nil
			case domain.NotFound:
				r.reset()
				return fmt.Errorf("resolve origin %q: %w", r.originQuery, domain.ErrPlaceNotFound)
			default:
				r.reset()
				return fmt.Errorf("resolve origin: unexpected result %T", res)
			}

		case domain.PhaseResolvingDestination:
			proximity := r.origin.Point
			res, err := r.resolver.Resolve(ctx, r.destinationQuery, &proximity)
			if err != nil {
				r.reset()
				return fmt.Errorf("resolve destination: %w", err)
			}

			switch v := res.(type) {
			case domain.Single:
				r.destination = v.Place
				r.phase = domain.PhaseStaging
			case domain.Ambiguous:
				r.candidates = v.Candidates
				r.phase = domain.PhaseAwaitingDestinationChoice
				return nil
			case domain.NotFound:
				r.reset()
				return fmt.Errorf("resolve destination %q: %w", r.destinationQuery, domain.ErrPlaceNotFound)
			default:
				r.reset()
				return fmt.Errorf("resolve destination: unexpected result %T", res)
			}

		default:
			return nil
		}
	}
}

func (r *PlaceResolution) reset() {
	r.phase = domain.PhaseIdle
	r.origin = domain.ResolvedPlace{}
	r.destination = domain.ResolvedPlace{}
	r.candidates = nil
}

// maxInvalidSelections bounds how often a provider may answer with an
// out-of-range index before resolution gives up.
const maxInvalidSelections = 5

// ResolvePlaces drives a PlaceResolution to Staging, asking selector whenever
// the machine suspends on an ambiguous name.
func ResolvePlaces(ctx context.Context, res *PlaceResolution, selector ports.SelectionProvider) error {
	if res.Phase() == domain.PhaseIdle {
		if err := res.Start(ctx); err != nil {
			return err
		}
	}

	invalid := 0
	for res.Phase().Awaiting() {
		role, query, _ := res.Pending()
		if selector == nil {
			return fmt.Errorf("resolve %s %q: %w", role, query, domain.ErrSelectionRequired)
		}

		idx, err := selector.Choose(ctx, role, query, res.Candidates())
		if err != nil {
			return fmt.Errorf("choose %s for %q: %w", role, query, err)
		}

		err = res.Select(ctx, idx)
		if errors.Is(err, domain.ErrInvalidSelection) {
			invalid++
			if invalid >= maxInvalidSelections {
				return err
			}
			continue
		}
		if err != nil {
			return err
		}
		invalid = 0
	}

	return nil
}
