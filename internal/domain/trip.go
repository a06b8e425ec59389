package domain

import "time"

// MaxStages is the hard safeguard on itinerary length.
const MaxStages = 30

type TripStatus string

const (
	TripCompleted      TripStatus = "completed"
	TripPartialNoStop  TripStatus = "partial_no_stop"
	TripPartialNoRoute TripStatus = "partial_no_route"
	TripTooManyStages  TripStatus = "too_many_stages"
)

// Partial reports whether the trip ended before reaching the destination.
func (s TripStatus) Partial() bool { return s != TripCompleted }

// Progress of a trip request from free-text names to a finished itinerary.
type SearchPhase int

const (
	PhaseIdle SearchPhase = iota
	PhaseResolvingOrigin
	PhaseAwaitingOriginChoice
	PhaseResolvingDestination
	PhaseAwaitingDestinationChoice
	PhaseStaging
	PhaseDone
)

func (p SearchPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseResolvingOrigin:
		return "resolving_origin"
	case PhaseAwaitingOriginChoice:
		return "awaiting_origin_choice"
	case PhaseResolvingDestination:
		return "resolving_destination"
	case PhaseAwaitingDestinationChoice:
		return "awaiting_destination_choice"
	case PhaseStaging:
		return "staging"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Awaiting reports whether the phase is suspended on a human choice.
func (p SearchPhase) Awaiting() bool {
	return p == PhaseAwaitingOriginChoice || p == PhaseAwaitingDestinationChoice
}

// Trip is the stored outcome of a planning run.
type Trip struct {
	ID             string        `json:"id"`
	Origin         ResolvedPlace `json:"origin"`
	Destination    ResolvedPlace `json:"destination"`
	MaxDailyMeters float64       `json:"max_daily_meters"`
	BufferFraction float64       `json:"buffer_fraction"`
	Status         TripStatus    `json:"status"`
	Message        string        `json:"message,omitempty"`
	Warnings       []string      `json:"warnings,omitempty"`
	Stages         []Stage       `json:"stages"`
	CreatedAt      time.Time     `json:"created_at"`
}
