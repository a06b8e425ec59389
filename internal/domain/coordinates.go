package domain

import (
	"fmt"
	"math"
)

// Immutable geographic point in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// NewGeoPoint validates latitude and longitude ranges.
func NewGeoPoint(lat, lng float64) (GeoPoint, error) {
	p := GeoPoint{Lat: lat, Lng: lng}
	if !p.Valid() {
		return GeoPoint{}, fmt.Errorf("invalid coordinates lat=%v lng=%v", lat, lng)
	}
	return p, nil
}

// Valid reports whether the point is finite and within WGS84 bounds.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Return coordinates as [lon, lat] for external API compatibility.
func (p GeoPoint) LonLat() []float64 { return []float64{p.Lng, p.Lat} }

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Ordered route geometry from origin to destination.
// A Polyline is produced fresh by each directions lookup and is never mutated.
type Polyline []GeoPoint
