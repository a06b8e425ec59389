package ors

import (
	"context"
	"ev-route-planner/internal/domain"
	"ev-route-planner/internal/platform/obs"
	"ev-route-planner/internal/ports"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Search resolves free text with the Pelias search endpoint (/geocode/search).
//
// Several hits are only Ambiguous when more than one carries a name equal to
// the query, or when none does; a single exact-name hit wins outright.
func (c *Client) Search(ctx context.Context, q ports.SearchQuery) (_ domain.GeocodeResult, err error) {
	defer obs.Time(ctx, "ors.Search")(&err)

	text := normalize(q.Text)
	if text == "" {
		return domain.NotFound{Query: q.Text}, nil
	}

	params := url.Values{}
	params.Set("text", text)
	params.Set("size", strconv.Itoa(c.searchSize))
	if country := firstNonEmpty(q.Country, c.country); country != "" {
		params.Set("boundary.country", country)
	}
	if q.LocalityOnly {
		params.Set("layers", "locality")
	}
	if q.Proximity != nil {
		params.Set("focus.point.lat", formatCoord(q.Proximity.Lat))
		params.Set("focus.point.lon", formatCoord(q.Proximity.Lng))
	}

	fc, err := c.getFeatures(ctx, "/geocode/search", params)
	if err != nil {
		return nil, fmt.Errorf("ors search %q: %w", text, err)
	}

	return classify(text, toCandidates(fc)), nil
}

// Reverse finds the named place nearest to p, preferring localities over
// any other layer. No features yields domain.PointOnRoute at p.
func (c *Client) Reverse(ctx context.Context, p domain.GeoPoint) (_ ports.ReversePlace, err error) {
	defer obs.Time(ctx, "ors.Reverse")(&err)

	params := url.Values{}
	params.Set("point.lat", formatCoord(p.Lat))
	params.Set("point.lon", formatCoord(p.Lng))
	params.Set("size", "10")

	fc, err := c.getFeatures(ctx, "/geocode/reverse", params)
	if err != nil {
		return ports.ReversePlace{}, fmt.Errorf("ors reverse %s: %w", p, err)
	}

	var chosen *geojson.Feature
	for _, f := range fc.Features {
		if stringProp(f.Properties, "layer") == "locality" {
			chosen = f
			break
		}
	}
	if chosen == nil && len(fc.Features) > 0 {
		chosen = fc.Features[0]
	}

	if chosen == nil {
		return ports.ReversePlace{Name: domain.PointOnRoute, Point: p}, nil
	}

	cand, ok := toCandidate(chosen)
	if !ok {
		return ports.ReversePlace{Name: domain.PointOnRoute, Point: p}, nil
	}
	return ports.ReversePlace{Name: cand.Label, Point: cand.Point}, nil
}

func (c *Client) getFeatures(ctx context.Context, path string, params url.Values) (*geojson.FeatureCollection, error) {
	endpoint := c.baseURL + path

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.URL.RawQuery = params.Encode()
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	return fc, nil
}

func toCandidates(fc *geojson.FeatureCollection) []namedCandidate {
	out := make([]namedCandidate, 0, len(fc.Features))
	seen := make(map[string]struct{}, len(fc.Features))
	for _, f := range fc.Features {
		cand, ok := toCandidate(f)
		if !ok {
			continue
		}
		if _, dup := seen[cand.Label]; dup {
			continue
		}
		seen[cand.Label] = struct{}{}
		out = append(out, namedCandidate{
			PlaceCandidate: cand,
			name:           stringProp(f.Properties, "name"),
		})
	}
	return out
}

type namedCandidate struct {
	domain.PlaceCandidate
	name string
}

func toCandidate(f *geojson.Feature) (domain.PlaceCandidate, bool) {
	pt, ok := f.Geometry.(orb.Point)
	if !ok {
		return domain.PlaceCandidate{}, false
	}

	label := stringProp(f.Properties, "label")
	if label == "" {
		label = stringProp(f.Properties, "name")
	}
	if label == "" {
		return domain.PlaceCandidate{}, false
	}

	return domain.PlaceCandidate{
		Label: label,
		Point: domain.GeoPoint{Lat: pt.Lat(), Lng: pt.Lon()},
	}, true
}

func classify(query string, cands []namedCandidate) domain.GeocodeResult {
	if len(cands) == 0 {
		return domain.NotFound{Query: query}
	}

	var exact []domain.PlaceCandidate
	for _, c := range cands {
		if domain.SamePlaceName(c.name, query) {
			exact = append(exact, c.PlaceCandidate)
		}
	}

	pick := exact
	if len(pick) == 0 {
		pick = make([]domain.PlaceCandidate, 0, len(cands))
		for _, c := range cands {
			pick = append(pick, c.PlaceCandidate)
		}
	}

	if len(pick) == 1 {
		return domain.Single{Place: domain.ResolvedPlace{Name: pick[0].Label, Point: pick[0].Point}}
	}
	return domain.Ambiguous{Candidates: pick}
}

// stringProp reads a string property; missing or non-string values are "".
func stringProp(p geojson.Properties, key string) string {
	s, _ := p[key].(string)
	return s
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
