package ors

import (
	"context"
	"encoding/json"
	"ev-route-planner/internal/domain"
	"ev-route-planner/internal/ports"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	retryBaseDelay = time.Millisecond
}

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{APIKey: "test-key", BaseURL: srv.URL, Country: "COL", SearchSize: 5})
	require.NoError(t, err)
	return c
}

func writeGeoJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/geo+json")
	_, _ = w.Write([]byte(body))
}

const hondaSearch = `{
  "geocoding": {"version": "0.2"},
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-74.7547, 5.2043]},
     "properties": {"name": "Honda", "label": "Honda, TO, Colombia", "layer": "locality"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-75.01, 4.95]},
     "properties": {"name": "Hondas", "label": "Hondas, TO, Colombia", "layer": "locality"}}
  ]
}`

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Options{})
	assert.Error(t, err)
}

func TestSearchSingleExactName(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("Authorization"))

		q := r.URL.Query()
		assert.Equal(t, "Honda", q.Get("text"))
		assert.Equal(t, "COL", q.Get("boundary.country"))
		assert.Equal(t, "locality", q.Get("layers"))
		assert.Equal(t, "5", q.Get("size"))
		assert.Equal(t, "4.711000", q.Get("focus.point.lat"))
		assert.Equal(t, "-74.072100", q.Get("focus.point.lon"))

		writeGeoJSON(w, hondaSearch)
	})

	near := domain.GeoPoint{Lat: 4.711, Lng: -74.0721}
	res, err := c.Search(context.Background(), ports.SearchQuery{Text: " Honda ", LocalityOnly: true, Proximity: &near})
	require.NoError(t, err)

	single, ok := res.(domain.Single)
	require.True(t, ok, "got %T", res)
	assert.Equal(t, "Honda, TO, Colombia", single.Place.Name)
	assert.InDelta(t, 5.2043, single.Place.Point.Lat, 1e-9)
	assert.InDelta(t, -74.7547, single.Place.Point.Lng, 1e-9)
}

func TestSearchAmbiguous(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("layers"))
		writeGeoJSON(w, `{"type": "FeatureCollection", "features": [
		  {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-75.6, 5.1]},
		   "properties": {"name": "San José", "label": "San José, CAL, Colombia"}},
		  {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-72.6, 2.5]},
		   "properties": {"name": "San José", "label": "San José del Guaviare, GUV, Colombia"}},
		  {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-75.6, 5.1]},
		   "properties": {"name": "San José", "label": "San José, CAL, Colombia"}}
		]}`)
	})

	res, err := c.Search(context.Background(), ports.SearchQuery{Text: "san josé"})
	require.NoError(t, err)

	amb, ok := res.(domain.Ambiguous)
	require.True(t, ok, "got %T", res)
	require.Len(t, amb.Candidates, 2, "duplicate labels are collapsed")
	assert.Equal(t, "San José, CAL, Colombia", amb.Candidates[0].Label)
}

func TestSearchNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeGeoJSON(w, `{"type": "FeatureCollection", "features": []}`)
	})

	res, err := c.Search(context.Background(), ports.SearchQuery{Text: "Atlantis"})
	require.NoError(t, err)
	assert.Equal(t, domain.NotFound{Query: "Atlantis"}, res)
}

func TestReversePrefersLocality(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/geocode/reverse", r.URL.Path)
		assert.Equal(t, "5.200000", r.URL.Query().Get("point.lat"))
		writeGeoJSON(w, `{"type": "FeatureCollection", "features": [
		  {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-74.70, 5.21]},
		   "properties": {"label": "Vereda El Triunfo, TO, Colombia", "layer": "neighbourhood"}},
		  {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-74.7547, 5.2043]},
		   "properties": {"label": "Honda, TO, Colombia", "layer": "locality"}}
		]}`)
	})

	got, err := c.Reverse(context.Background(), domain.GeoPoint{Lat: 5.2, Lng: -74.74})
	require.NoError(t, err)
	assert.Equal(t, "Honda, TO, Colombia", got.Name)
	assert.InDelta(t, 5.2043, got.Point.Lat, 1e-9)
}

func TestReverseNothingNamed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeGeoJSON(w, `{"type": "FeatureCollection", "features": []}`)
	})

	p := domain.GeoPoint{Lat: 7.1, Lng: -73.9}
	got, err := c.Reverse(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, domain.PointOnRoute, got.Name)
	assert.Equal(t, p, got.Point)
}

func TestRoute(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/directions/driving-car", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body directionsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, [][]float64{{-74.0721, 4.711}, {-75.479, 10.391}}, body.Coordinates)

		_, _ = w.Write([]byte(`{"routes": [{"summary": {"distance": 1047123.4, "duration": 60000},
		  "geometry": "_p~iF~ps|U_ulLnnqC_mqNvxq` + "`" + `@"}]}`))
	})

	got, err := c.Route(context.Background(),
		domain.GeoPoint{Lat: 4.711, Lng: -74.0721},
		domain.GeoPoint{Lat: 10.391, Lng: -75.479},
	)
	require.NoError(t, err)
	assert.InDelta(t, 1047123.4, got.TotalMeters, 1e-6)
	require.Len(t, got.Polyline, 3)
	assert.InDelta(t, 38.5, got.Polyline[0].Lat, 1e-5)
}

func TestRouteUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": {"code": 2010, "message": "Could not find routable point"}}`))
	})

	_, err := c.Route(context.Background(), domain.GeoPoint{Lat: 4.7, Lng: -74}, domain.GeoPoint{Lat: 0, Lng: -30})
	assert.ErrorIs(t, err, domain.ErrRouteUnavailable)
}

func TestRouteErrorCodeOnBadRequest(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"code": 2004, "message": "Request parameters exceed the server configuration limits"}}`))
	})

	_, err := c.Route(context.Background(), domain.GeoPoint{Lat: 4.7, Lng: -74}, domain.GeoPoint{Lat: 40, Lng: -3})
	assert.ErrorIs(t, err, domain.ErrRouteUnavailable)
}

func TestRetryOnTransientStatus(t *testing.T) {
	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		writeGeoJSON(w, hondaSearch)
	})

	_, err := c.Search(context.Background(), ports.SearchQuery{Text: "Honda"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestRetryHonoursRetryAfter(t *testing.T) {
	old := maxRetryAfter
	maxRetryAfter = 30 * time.Millisecond
	t.Cleanup(func() { maxRetryAfter = old })

	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		writeGeoJSON(w, hondaSearch)
	})

	start := time.Now()
	_, err := c.Search(context.Background(), ports.SearchQuery{Text: "Honda"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), attempts.Load())
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond, "waits the capped Retry-After, not the base delay")
}

func TestNoRetryWhenQuotaSpent(t *testing.T) {
	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.Header().Set("X-Ratelimit-Remaining", "0")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "Quota exceeded"}`))
	})

	_, err := c.Search(context.Background(), ports.SearchQuery{Text: "Honda"})
	require.Error(t, err)

	var he *httpStatusError
	require.ErrorAs(t, err, &he)
	assert.True(t, he.QuotaSpent)
	assert.Equal(t, int32(1), attempts.Load())
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Equal(t, time.Duration(0), parseRetryAfter(""))
	assert.Equal(t, time.Duration(0), parseRetryAfter("Wed, 21 Oct 2026 07:28:00 GMT"))
	assert.Equal(t, time.Duration(0), parseRetryAfter("-1"))
}

func TestNoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "Access to this API has been disallowed"}`))
	})

	_, err := c.Search(context.Background(), ports.SearchQuery{Text: "Honda"})
	require.Error(t, err)

	var he *httpStatusError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
	assert.Equal(t, int32(1), attempts.Load())
	assert.NotErrorIs(t, err, domain.ErrRouteUnavailable)
}
