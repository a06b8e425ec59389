package domain

import "errors"

var (
	ErrPlaceNotFound        = errors.New("place not found")
	ErrGeocodingUnavailable = errors.New("geocoding service unavailable")
	ErrRouteUnavailable     = errors.New("route unavailable")
	ErrNoReachableStop      = errors.New("no reachable stop within daily limit")
	ErrTooManyStages        = errors.New("too many stages")
	ErrInvalidSelection     = errors.New("invalid selection")
	ErrNoChoicePending      = errors.New("no choice pending")
	ErrTripNotFound         = errors.New("trip not found")
	ErrSelectionRequired    = errors.New("place is ambiguous and no selection provider was given")
	ErrInvalidTripRequest   = errors.New("invalid trip request")
)
