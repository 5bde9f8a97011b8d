package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/skywash/skywash-api/internal/circuitbreaker"
	"github.com/skywash/skywash-api/internal/observability"
)

// AirQualityClient fetches the current PM2.5 reading for a provider city
// identifier. Implementations return a typed error on any failure; the
// enrichment layer converts every failure to static fallback.
type AirQualityClient interface {
	FetchPM25(ctx context.Context, citySlug string) (float64, error)
}

var (
	// ErrUpstreamFailure covers network errors, timeouts and non-200 responses.
	ErrUpstreamFailure = errors.New("upstream failure")
	// ErrBadPayload covers unparseable bodies, non-ok status and missing or
	// non-numeric pm25 fields.
	ErrBadPayload = errors.New("malformed feed payload")
	// ErrOutOfRange rejects readings outside [0, 1000] µg/m³.
	ErrOutOfRange = errors.New("pm2.5 value out of range")
)

// PM25 readings outside this range are treated as corrupt upstream data.
const (
	minPM25 = 0.0
	maxPM25 = 1000.0
)

// WAQIClient fetches PM2.5 readings from the World Air Quality Index feed.
// Every call is a single attempt with a fixed timeout; there are no
// retries because a failed city degrades to static data anyway.
type WAQIClient struct {
	token   string
	baseURL string
	timeout time.Duration
	client  *http.Client
	breaker *circuitbreaker.CircuitBreaker
}

// NewWAQIClient creates a WAQIClient. An empty token falls back to the
// provider's rate-limited "demo" token.
func NewWAQIClient(token, baseURL string, timeout time.Duration) *WAQIClient {
	if token == "" {
		token = "demo"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WAQIClient{
		token:   token,
		baseURL: baseURL,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
	}
}

// SetCircuitBreaker wires an optional breaker around feed calls. An open
// breaker fails fast with circuitbreaker.ErrOpen.
func (c *WAQIClient) SetCircuitBreaker(cb *circuitbreaker.CircuitBreaker) {
	c.breaker = cb
}

// waqiResponse mirrors the feed schema: {"status":"ok","data":{"iaqi":{"pm25":{"v":35.4}}}}.
// V is decoded loosely because the feed occasionally reports values as strings.
type waqiResponse struct {
	Status string `json:"status"`
	Data   struct {
		IAQI struct {
			PM25 struct {
				V any `json:"v"`
			} `json:"pm25"`
		} `json:"iaqi"`
	} `json:"data"`
}

// FetchPM25 fetches and validates the current PM2.5 value for citySlug.
func (c *WAQIClient) FetchPM25(ctx context.Context, citySlug string) (float64, error) {
	if c.breaker == nil {
		return c.callFeed(ctx, citySlug)
	}
	var value float64
	err := c.breaker.Call(func() error {
		v, callErr := c.callFeed(ctx, citySlug)
		if callErr != nil {
			return callErr
		}
		value = v
		return nil
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

func (c *WAQIClient) callFeed(ctx context.Context, citySlug string) (float64, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.buildRequest(reqCtx, citySlug)
	if err != nil {
		observability.WAQICallsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WAQICallsTotal.WithLabelValues("error").Inc()
		observability.WAQICallDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return 0, fmt.Errorf("%w: request timeout: %v", ErrUpstreamFailure, err)
		}
		return 0, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.WAQICallsTotal.WithLabelValues(status).Inc()
	observability.WAQICallDuration.WithLabelValues(status).Observe(duration)

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("%w: read body: %v", ErrUpstreamFailure, err)
	}

	var feed waqiResponse
	if err := json.Unmarshal(body, &feed); err != nil {
		return 0, fmt.Errorf("%w: parse: %v", ErrBadPayload, err)
	}
	if feed.Status != "ok" {
		return 0, fmt.Errorf("%w: status %q", ErrBadPayload, feed.Status)
	}
	if feed.Data.IAQI.PM25.V == nil {
		return 0, fmt.Errorf("%w: missing data.iaqi.pm25.v", ErrBadPayload)
	}

	value, err := numericValue(feed.Data.IAQI.PM25.V)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	if value < minPM25 || value > maxPM25 {
		return 0, fmt.Errorf("%w: %.1f", ErrOutOfRange, value)
	}
	return value, nil
}

func (c *WAQIClient) buildRequest(ctx context.Context, citySlug string) (*http.Request, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u = u.JoinPath(citySlug, "/")

	params := url.Values{}
	params.Set("token", c.token)
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// numericValue converts the loosely typed pm25 "v" field to a float64.
func numericValue(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, fmt.Errorf("non-numeric value %q", val)
		}
		return f, nil
	case json.Number:
		return val.Float64()
	default:
		return 0, fmt.Errorf("unexpected value type %T", v)
	}
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}
