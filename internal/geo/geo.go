package geo

import (
	"errors"
	"fmt"
	"ev-route-planner/internal/domain"
	"math"

	"github.com/twpayne/go-polyline"
)

// Earth's mean radius in meters.
const EarthRadiusMeters = 6371000

var ErrEmptyPolyline = errors.New("polyline has no points")

// DistanceMeters returns the great-circle distance between a and b using the
// haversine formula.
func DistanceMeters(a, b domain.GeoPoint) float64 {
	if a == b {
		return 0
	}

	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dlat := (b.Lat - a.Lat) * math.Pi / 180
	dlng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// Length sums the haversine length of every segment.
func Length(line domain.Polyline) float64 {
	var total float64
	for i := 1; i < len(line); i++ {
		total += DistanceMeters(line[i-1], line[i])
	}
	return total
}

// PointAtDistance walks the polyline and returns the far endpoint of the
// first segment whose inclusion brings the accumulated length to at least
// targetMeters. It does not interpolate inside the segment.
//
// When the target is beyond the end of the line the second-to-last point is
// returned (or the only point of a single-point line).
func PointAtDistance(line domain.Polyline, targetMeters float64) (domain.GeoPoint, error) {
	if len(line) == 0 {
		return domain.GeoPoint{}, ErrEmptyPolyline
	}

	var acc float64
	for i := 1; i < len(line); i++ {
		acc += DistanceMeters(line[i-1], line[i])
		if acc >= targetMeters {
			return line[i], nil
		}
	}

	if len(line) < 2 {
		return line[0], nil
	}
	return line[len(line)-2], nil
}

// DecodePolyline decodes a Google encoded polyline (precision 5) into points.
func DecodePolyline(encoded string) (domain.Polyline, error) {
	if encoded == "" {
		return nil, ErrEmptyPolyline
	}

	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("decode polyline: %d trailing bytes", len(rest))
	}

	out := make(domain.Polyline, 0, len(coords))
	for _, c := range coords {
		if len(c) < 2 {
			return nil, errors.New("decode polyline: short coordinate")
		}
		out = append(out, domain.GeoPoint{Lat: c[0], Lng: c[1]})
	}
	return out, nil
}

// EncodePolyline is the inverse of DecodePolyline.
func EncodePolyline(line domain.Polyline) string {
	coords := make([][]float64, 0, len(line))
	for _, p := range line {
		coords = append(coords, []float64{p.Lat, p.Lng})
	}
	return string(polyline.EncodeCoords(coords))
}
