package ocm

import (
	"context"
	"encoding/json"
	"errors"
	"ev-route-planner/internal/domain"
	"ev-route-planner/internal/platform/obs"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.openchargemap.io"

type Options struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client counts charging points around a stop using the Open Charge Map
// POI endpoint. It implements ports.ChargerLookup.
type Client struct {
	session    *http.Client
	apiKey     string
	baseURL    string
	maxResults int
	logger     *zap.Logger
}

func NewClient(opts Options) *Client {
	c := &Client{
		session:    opts.HTTPClient,
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		maxResults: opts.MaxResults,
		logger:     opts.Logger,
	}
	if c.session == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		c.session = &http.Client{Timeout: timeout}
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.maxResults <= 0 {
		c.maxResults = 10
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Only the identifier is decoded; the count is all a stop needs.
type poi struct {
	ID int `json:"ID"`
}

type statusError struct {
	Code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("OCM status %d", e.Code)
}

// Near never returns an error. Failures become a ChargersError summary so a
// flaky charger service cannot abort a trip.
func (c *Client) Near(ctx context.Context, p domain.GeoPoint, radiusKm float64) domain.ChargerSummary {
	pois, err := c.fetch(ctx, p, radiusKm)
	if err != nil {
		c.logger.Warn("charger lookup failed",
			zap.Stringer("point", p),
			zap.String("req_id", obs.RequestID(ctx)),
			zap.Error(err),
		)

		var se *statusError
		if errors.As(err, &se) {
			return domain.ChargerLookupFailed(fmt.Sprintf("HTTP %d", se.Code))
		}
		return domain.ChargerLookupFailed("network")
	}
	return domain.ChargersFound(len(pois))
}

func (c *Client) fetch(ctx context.Context, p domain.GeoPoint, radiusKm float64) (_ []poi, err error) {
	defer obs.Time(ctx, "ocm.Near")(&err)

	params := url.Values{}
	params.Set("output", "json")
	params.Set("latitude", strconv.FormatFloat(p.Lat, 'f', 6, 64))
	params.Set("longitude", strconv.FormatFloat(p.Lng, 'f', 6, 64))
	params.Set("distance", strconv.FormatFloat(radiusKm, 'f', -1, 64))
	params.Set("distanceunit", "km")
	params.Set("maxresults", strconv.Itoa(c.maxResults))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v3/poi/?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.session.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, &statusError{Code: resp.StatusCode}
	}

	var out []poi
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}
