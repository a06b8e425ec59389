// Package export renders planned trips for use outside the planner.
package export

import (
	"errors"
	"ev-route-planner/internal/domain"
	"fmt"
	"image/color"
	"io"
	"strconv"
	"strings"

	"github.com/twpayne/go-kml"
)

const googleMapsDir = "https://www.google.com/maps/dir/"

// GoogleMapsURL returns a directions link through the origin and every
// stage endpoint, in order.
func GoogleMapsURL(origin domain.GeoPoint, stages []domain.Stage) string {
	parts := make([]string, 0, len(stages)+1)
	parts = append(parts, latLng(origin))
	for _, s := range stages {
		parts = append(parts, latLng(s.Point))
	}
	return googleMapsDir + strings.Join(parts, "/")
}

func latLng(p domain.GeoPoint) string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// WriteKML writes trip as a KML document: one placemark for the origin, one
// per overnight stop, and a line joining them.
func WriteKML(w io.Writer, trip *domain.Trip) error {
	if trip == nil {
		return errors.New("write kml: trip is nil")
	}

	schema := kml.Schema("stage", "stage",
		kml.SimpleField("day", "int"),
		kml.SimpleField("distance_km", "double"),
		kml.SimpleField("charging", "string"),
	)
	routeStyle := kml.SharedStyle("route",
		kml.LineStyle(
			kml.Color(color.RGBA{R: 0, G: 160, B: 80, A: 255}),
			kml.Width(4),
		),
	)

	coords := make([]kml.Coordinate, 0, len(trip.Stages)+1)
	coords = append(coords, coordinate(trip.Origin.Point))

	stops := kml.Folder(
		kml.Name("Stops"),
		kml.Placemark(
			kml.Name("Start: "+trip.Origin.Name),
			kml.Point(kml.Coordinates(coordinate(trip.Origin.Point))),
		),
	)
	for _, s := range trip.Stages {
		km := s.DistanceMeters / 1000
		coords = append(coords, coordinate(s.Point))
		stops.Add(kml.Placemark(
			kml.Name(fmt.Sprintf("Day %d: %s", s.Day, s.To)),
			kml.Description(fmt.Sprintf("%s to %s, %.1f km. %s", s.From, s.To, km, s.Charging)),
			kml.ExtendedData(
				kml.SchemaData(schema.URL(),
					kml.SimpleData("day", strconv.Itoa(s.Day)),
					kml.SimpleData("distance_km", strconv.FormatFloat(km, 'f', 1, 64)),
					kml.SimpleData("charging", string(s.Charging.Category)),
				),
			),
			kml.Point(kml.Coordinates(coordinate(s.Point))),
		))
	}

	doc := kml.KML(kml.Document(
		kml.Name(fmt.Sprintf("%s to %s", trip.Origin.Name, trip.Destination.Name)),
		kml.Description(fmt.Sprintf("Status: %s", trip.Status)),
		schema,
		routeStyle,
		stops,
		kml.Placemark(
			kml.Name("Route"),
			kml.StyleURL(routeStyle.URL()),
			kml.LineString(kml.Coordinates(coords...)),
		),
	))

	if err := doc.WriteIndent(w, "", "  "); err != nil {
		return fmt.Errorf("write kml: %w", err)
	}
	return nil
}

func coordinate(p domain.GeoPoint) kml.Coordinate {
	return kml.Coordinate{Lon: p.Lng, Lat: p.Lat}
}
