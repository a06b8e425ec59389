package export

import (
	"bytes"
	"encoding/xml"
	"ev-route-planner/internal/domain"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTrip() *domain.Trip {
	bogota := domain.ResolvedPlace{Name: "Bogotá", Point: domain.GeoPoint{Lat: 4.711, Lng: -74.0721}}
	cartagena := domain.ResolvedPlace{Name: "Cartagena", Point: domain.GeoPoint{Lat: 10.391, Lng: -75.4794}}
	return &domain.Trip{
		ID:          "t1",
		Origin:      bogota,
		Destination: cartagena,
		Status:      domain.TripCompleted,
		Stages: []domain.Stage{
			{Day: 1, From: "Bogotá", To: "Honda", DistanceMeters: 151_300, Point: domain.GeoPoint{Lat: 5.2043, Lng: -74.7547}, Charging: domain.ChargersFound(2)},
			{Day: 2, From: "Honda", To: "Cartagena", DistanceMeters: 190_000, Point: cartagena.Point, Charging: domain.SlowChargingOnly()},
		},
	}
}

func TestGoogleMapsURL(t *testing.T) {
	trip := sampleTrip()
	got := GoogleMapsURL(trip.Origin.Point, trip.Stages)
	assert.Equal(t,
		"https://www.google.com/maps/dir/4.711000,-74.072100/5.204300,-74.754700/10.391000,-75.479400",
		got)
}

func TestGoogleMapsURLWithoutStages(t *testing.T) {
	got := GoogleMapsURL(domain.GeoPoint{Lat: 1, Lng: 2}, nil)
	assert.Equal(t, "https://www.google.com/maps/dir/1.000000,2.000000", got)
}

func TestWriteKML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteKML(&buf, sampleTrip()))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, "<name>Bogotá to Cartagena</name>")
	assert.Contains(t, out, "<name>Day 1: Honda</name>")
	assert.Contains(t, out, "<name>Day 2: Cartagena</name>")
	assert.Contains(t, out, `<SimpleData name="charging">slow_only</SimpleData>`)
	assert.Contains(t, out, "<coordinates>-74.0721,4.711 -74.7547,5.2043 -75.4794,10.391</coordinates>")
	assert.Equal(t, 3, strings.Count(out, "<Point>"))

	var doc struct{}
	assert.NoError(t, xml.Unmarshal(buf.Bytes(), &doc), "output must be well-formed XML")
}

func TestWriteKMLNilTrip(t *testing.T) {
	assert.Error(t, WriteKML(&bytes.Buffer{}, nil))
}
