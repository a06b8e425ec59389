package dto

import (
	"ev-route-planner/internal/domain"
	"ev-route-planner/internal/export"
	"time"
)

type CreateTripRequest struct {
	Origin      string  `json:"origin"`
	Destination string  `json:"destination"`
	MaxDailyKm  float64 `json:"max_daily_km"`
	// Percent over the daily limit a leg may run. Absent or 0 picks a value
	// from the daily distance.
	BufferPercent *float64 `json:"buffer_percent"`
}

type SelectionRequest struct {
	Index *int `json:"index" binding:"required"`
}

type PlaceResponse struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
}

type CandidateResponse struct {
	Index int     `json:"index"`
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

type StageResponse struct {
	Day              int     `json:"day"`
	From             string  `json:"from"`
	To               string  `json:"to"`
	DistanceKm       float64 `json:"distance_km"`
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	ChargingCategory string  `json:"charging_category"`
	Charging         string  `json:"charging"`
}

type TripResponse struct {
	ID            string          `json:"id"`
	Origin        PlaceResponse   `json:"origin"`
	Destination   PlaceResponse   `json:"destination"`
	MaxDailyKm    float64         `json:"max_daily_km"`
	BufferPercent float64         `json:"buffer_percent"`
	Status        string          `json:"status"`
	Message       string          `json:"message,omitempty"`
	Warnings      []string        `json:"warnings,omitempty"`
	TotalKm       float64         `json:"total_km"`
	Stages        []StageResponse `json:"stages"`
	MapsURL       string          `json:"maps_url"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TripSessionResponse describes a trip request: either the choice it is
// waiting for or the planned trip.
type TripSessionResponse struct {
	ID           string              `json:"id"`
	Phase        string              `json:"phase"`
	PendingRole  string              `json:"pending_role,omitempty"`
	PendingQuery string              `json:"pending_query,omitempty"`
	Candidates   []CandidateResponse `json:"candidates,omitempty"`
	Trip         *TripResponse       `json:"trip,omitempty"`
}

type TripSummary struct {
	ID          string    `json:"id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Status      string    `json:"status"`
	Days        int       `json:"days"`
	TotalKm     float64   `json:"total_km"`
	CreatedAt   time.Time `json:"created_at"`
}

type ListTripsResponse struct {
	Trips []TripSummary `json:"trips"`
}

func NewPlaceResponse(p domain.ResolvedPlace) PlaceResponse {
	return PlaceResponse{Name: p.Name, Lat: p.Point.Lat, Lng: p.Point.Lng}
}

func NewCandidates(cands []domain.PlaceCandidate) []CandidateResponse {
	out := make([]CandidateResponse, 0, len(cands))
	for i, c := range cands {
		out = append(out, CandidateResponse{Index: i, Label: c.Label, Lat: c.Point.Lat, Lng: c.Point.Lng})
	}
	return out
}

func NewTripResponse(t *domain.Trip) *TripResponse {
	res := &TripResponse{
		ID:            t.ID,
		Origin:        NewPlaceResponse(t.Origin),
		Destination:   NewPlaceResponse(t.Destination),
		MaxDailyKm:    t.MaxDailyMeters / 1000,
		BufferPercent: t.BufferFraction * 100,
		Status:        string(t.Status),
		Message:       t.Message,
		Warnings:      t.Warnings,
		TotalKm:       totalKm(t.Stages),
		Stages:        make([]StageResponse, 0, len(t.Stages)),
		MapsURL:       export.GoogleMapsURL(t.Origin.Point, t.Stages),
		CreatedAt:     t.CreatedAt,
	}
	for _, s := range t.Stages {
		res.Stages = append(res.Stages, StageResponse{
			Day:              s.Day,
			From:             s.From,
			To:               s.To,
			DistanceKm:       s.DistanceMeters / 1000,
			Lat:              s.Point.Lat,
			Lng:              s.Point.Lng,
			ChargingCategory: string(s.Charging.Category),
			Charging:         s.Charging.String(),
		})
	}
	return res
}

func NewTripSummary(t *domain.Trip) TripSummary {
	return TripSummary{
		ID:          t.ID,
		Origin:      t.Origin.Name,
		Destination: t.Destination.Name,
		Status:      string(t.Status),
		Days:        len(t.Stages),
		TotalKm:     totalKm(t.Stages),
		CreatedAt:   t.CreatedAt,
	}
}

func totalKm(stages []domain.Stage) float64 {
	var m float64
	for _, s := range stages {
		m += s.DistanceMeters
	}
	return m / 1000
}
