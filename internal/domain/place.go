package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// PointOnRoute is the name reported by reverse geocoding when no named place
// exists near the queried coordinate.
const PointOnRoute = "point on the route"

// A geocoding hit offered to a human when a query is ambiguous.
type PlaceCandidate struct {
	Label string   `json:"label"`
	Point GeoPoint `json:"point"`
}

// The confirmed output of place resolution.
type ResolvedPlace struct {
	Name  string   `json:"name"`
	Point GeoPoint `json:"point"`
}

// GeocodeResult is the closed set of forward geocoding outcomes:
// Single, Ambiguous or NotFound. Switch on it with a type switch.
type GeocodeResult interface {
	geocodeResult()
}

// Single is an unambiguous hit.
type Single struct {
	Place ResolvedPlace
}

// Ambiguous holds two or more candidates. Candidates is never empty.
type Ambiguous struct {
	Candidates []PlaceCandidate
}

// NotFound means the query matched nothing.
type NotFound struct {
	Query string
}

func (Single) geocodeResult()    {}
func (Ambiguous) geocodeResult() {}
func (NotFound) geocodeResult()  {}

// SamePlaceName compares two place names ignoring case, surrounding
// whitespace and Unicode composition ("Bogotá" typed precomposed or not).
func SamePlaceName(a, b string) bool {
	return foldName(a) == foldName(b)
}

func foldName(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	// Caser values are stateful, so one is made per call.
	return cases.Fold().String(s)
}

// IsPointOnRoute reports whether name is the reverse geocoding sentinel or empty.
func IsPointOnRoute(name string) bool {
	return strings.TrimSpace(name) == "" || SamePlaceName(name, PointOnRoute)
}
