// Package google wraps the Google Maps Distance Matrix API.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/brewery-sync/internal/resilience"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

// ErrInvalidRequest means the API rejected this request's payload. It says
// nothing about the health of the service.
var ErrInvalidRequest = eris.New("google: invalid request")

// ShouldTrip reports whether err counts as a service failure for a circuit
// breaker. Cancellations and rejected payloads do not.
func ShouldTrip(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || eris.Is(err, ErrInvalidRequest) {
		return false
	}
	return true
}

// Client performs Distance Matrix lookups.
type Client interface {
	DistanceMatrix(ctx context.Context, req DistanceMatrixRequest) (*DistanceMatrixResponse, error)
}

// DistanceMatrixRequest describes one matrix lookup.
type DistanceMatrixRequest struct {
	Origins      []string
	Destinations []string
	Units        string // "imperial" or "metric"; default imperial
}

// DistanceMatrixResponse is the JSON body returned by the API.
type DistanceMatrixResponse struct {
	Status               string   `json:"status"`
	ErrorMessage         string   `json:"error_message,omitempty"`
	OriginAddresses      []string `json:"origin_addresses"`
	DestinationAddresses []string `json:"destination_addresses"`
	Rows                 []Row    `json:"rows"`
}

// Row holds the elements for one origin.
type Row struct {
	Elements []Element `json:"elements"`
}

// Element is the route between one origin and one destination. Distance
// and Duration are nil when no route was found.
type Element struct {
	Status   string     `json:"status"`
	Distance *TextValue `json:"distance,omitempty"`
	Duration *TextValue `json:"duration,omitempty"`
}

// TextValue pairs a human-readable text with its numeric value (meters or
// seconds).
type TextValue struct {
	Text  string  `json:"text"`
	Value float64 `json:"value"`
}

// FirstElement returns rows[0].elements[0], or nil when the response has
// no rows or elements.
func (r *DistanceMatrixResponse) FirstElement() *Element {
	if r == nil || len(r.Rows) == 0 || len(r.Rows[0].Elements) == 0 {
		return nil
	}
	return &r.Rows[0].Elements[0]
}

// HasRoute reports whether the element carries both distance and duration.
func (e *Element) HasRoute() bool {
	return e != nil && e.Status == "OK" && e.Distance != nil && e.Duration != nil
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL. An empty value keeps the
// default.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit throttles requests to rps. A non-positive value disables
// throttling.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// WithCircuitBreaker guards every lookup with cb.
func WithCircuitBreaker(cb *resilience.CircuitBreaker) Option {
	return func(c *httpClient) {
		c.breaker = cb
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewClient creates a Distance Matrix client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(10, 10),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) DistanceMatrix(ctx context.Context, req DistanceMatrixRequest) (*DistanceMatrixResponse, error) {
	if len(req.Origins) == 0 || len(req.Destinations) == 0 {
		return nil, eris.New("google: distance matrix needs at least one origin and one destination")
	}

	lookup := func(ctx context.Context) (*DistanceMatrixResponse, error) {
		retry := c.retry.WithOnRetry(resilience.RetryLogger("google", "distance_matrix"))
		return resilience.DoVal(ctx, retry, func(ctx context.Context) (*DistanceMatrixResponse, error) {
			return c.distanceMatrixOnce(ctx, req)
		})
	}

	if c.breaker != nil {
		return resilience.ExecuteVal(ctx, c.breaker, lookup)
	}
	return lookup(ctx)
}

func (c *httpClient) distanceMatrixOnce(ctx context.Context, dm DistanceMatrixRequest) (*DistanceMatrixResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "google: rate limit")
		}
	}

	units := dm.Units
	if units == "" {
		units = "imperial"
	}
	params := url.Values{
		"origins":      {strings.Join(dm.Origins, "|")},
		"destinations": {strings.Join(dm.Destinations, "|")},
		"units":        {units},
		"key":          {c.apiKey},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/distancematrix/json?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "google: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if resilience.IsTransient(err) {
			return nil, resilience.NewTransientError(eris.Wrap(err, "google: send request"), 0)
		}
		return nil, eris.Wrap(err, "google: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "google: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("google", resp.StatusCode, body)
	}

	var result DistanceMatrixResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, eris.Wrap(err, "google: unmarshal response")
	}

	switch result.Status {
	case "OK":
		return &result, nil
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		return nil, resilience.NewTransientError(
			eris.Errorf("google: distance matrix status %s: %s", result.Status, result.ErrorMessage), 0)
	case "INVALID_REQUEST", "MAX_ELEMENTS_EXCEEDED", "MAX_DIMENSIONS_EXCEEDED":
		return nil, eris.Wrapf(ErrInvalidRequest, "google: distance matrix status %s: %s", result.Status, result.ErrorMessage)
	default:
		return nil, eris.Errorf("google: distance matrix status %s: %s", result.Status, result.ErrorMessage)
	}
}
