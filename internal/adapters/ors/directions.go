package ors

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"ev-route-planner/internal/domain"
	"ev-route-planner/internal/geo"
	"ev-route-planner/internal/platform/obs"
	"ev-route-planner/internal/ports"
	"fmt"
	"net/http"
)

type directionsRequest struct {
	Coordinates  [][]float64 `json:"coordinates"`
	Instructions bool        `json:"instructions"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
		Geometry string `json:"geometry"`
	} `json:"routes"`
}

type orsErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ORS routing error codes that mean "no drivable path" rather than a
// service fault: 2004 route too long, 2009 route not found, 2010 point not
// routable.
var noRouteCodes = map[int]bool{2004: true, 2009: true, 2010: true}

// Route requests driving directions (/v2/directions/{profile}) and decodes
// the encoded polyline geometry.
func (c *Client) Route(ctx context.Context, from, to domain.GeoPoint) (_ ports.RouteResult, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	payload, err := json.Marshal(directionsRequest{
		Coordinates:  [][]float64{from.LonLat(), to.LonLat()},
		Instructions: false,
	})
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("ors route: marshal request: %w", err)
	}

	endpoint := c.baseURL + "/v2/directions/" + c.profile

	resp, err := c.doWithRetry(ctx, func() (*http.Request, error) {
		return c.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		if isNoRoute(err) {
			return ports.RouteResult{}, fmt.Errorf("ors route %s -> %s: %w: %w", from, to, domain.ErrRouteUnavailable, err)
		}
		return ports.RouteResult{}, fmt.Errorf("ors route %s -> %s: %w", from, to, err)
	}
	defer resp.Body.Close()

	var decoded directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return ports.RouteResult{}, fmt.Errorf("ors route: decode response: %w", err)
	}

	if len(decoded.Routes) == 0 {
		return ports.RouteResult{}, fmt.Errorf("ors route %s -> %s: %w: empty response", from, to, domain.ErrRouteUnavailable)
	}

	r := decoded.Routes[0]
	line, err := geo.DecodePolyline(r.Geometry)
	if err != nil {
		return ports.RouteResult{}, fmt.Errorf("ors route: %w", err)
	}

	return ports.RouteResult{TotalMeters: r.Summary.Distance, Polyline: line}, nil
}

func isNoRoute(err error) bool {
	var he *httpStatusError
	if !errors.As(err, &he) {
		return false
	}
	if he.Code == http.StatusNotFound {
		return true
	}

	var body orsErrorBody
	if json.Unmarshal([]byte(he.Body), &body) != nil {
		return false
	}
	return noRouteCodes[body.Error.Code]
}
