// Package weatherapi is the HTTP client for the WeatherAPI.com v1 endpoints.
package weatherapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// DefaultBaseURL is the versioned base path of the service.
const DefaultBaseURL = "https://api.weatherapi.com/v1"

// Endpoint paths under the base URL.
const (
	PathCurrent   = "/current.json"
	PathForecast  = "/forecast.json"
	PathSearch    = "/search.json"
	PathHistory   = "/history.json"
	PathAstronomy = "/astronomy.json"
	PathMarine    = "/marine.json"
)

// Client issues authenticated GET requests against the service.
type Client struct {
	name    string
	apiKey  string
	baseURL string
	http    *http.Client
	circuit *gobreaker.CircuitBreaker
}

// Option customises a Client.
type Option func(*Client)

// WithBaseURL points the client at a different host, e.g. a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithBreaker replaces the default circuit breaker settings.
func WithBreaker(cfg BreakerConfig) Option {
	return func(c *Client) {
		c.circuit = newBreaker(c.name, cfg)
	}
}

func NewClient(client *http.Client, apiKey string, opts ...Option) *Client {
	c := &Client{
		name:    "weatherapi",
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http:    client,
	}
	c.circuit = newBreaker(c.name, BreakerConfig{
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string {
	return c.name
}

// Get calls path with params plus the API key and returns the raw JSON payload.
// Failures are returned as *weather.APIError.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	if c.apiKey == "" {
		return nil, &weather.APIError{Kind: weather.KindRequest, Message: "weatherapi api key is not configured"}
	}

	buildRequest := func(ctx context.Context) (*http.Request, error) {
		values := url.Values{}
		for k, vs := range params {
			values[k] = append([]string(nil), vs...)
		}
		values.Set("key", c.apiKey)

		u := c.baseURL + "/" + strings.TrimLeft(path, "/") + "?" + values.Encode()
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	return doRequest(ctx, c.http, c.circuit, buildRequest)
}

// Ping reports whether the service host is reachable. Any HTTP answer counts,
// including an auth failure; only transport errors mean offline.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+PathCurrent, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
