package ors

import (
	"errors"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.openrouteservice.org"

type Options struct {
	APIKey  string
	BaseURL string
	// Routing profile, e.g. driving-car.
	Profile string
	// ISO 3166 alpha-3 country applied when a query does not name one.
	Country string
	// Maximum features requested per forward search.
	SearchSize int
	Timeout    time.Duration
	// Optional; a client with Timeout is created when nil.
	HTTPClient *http.Client
}

// Client talks to OpenRouteService for geocoding and directions.
// It implements ports.Geocoder and ports.Directions and is safe for
// concurrent use. Caching lives in decorators, not here.
type Client struct {
	session    *http.Client
	apiKey     string
	baseURL    string
	profile    string
	country    string
	searchSize int
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("ORS api key is empty")
	}

	c := &Client{
		session:    opts.HTTPClient,
		apiKey:     opts.APIKey,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		profile:    opts.Profile,
		country:    opts.Country,
		searchSize: opts.SearchSize,
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
	if c.profile == "" {
		c.profile = "driving-car"
	}
	if c.searchSize <= 0 {
		c.searchSize = 5
	}

	return c, nil
}

// normalize collapses whitespace so equal queries produce equal requests.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
