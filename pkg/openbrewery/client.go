// Package openbrewery is a client for the Open Brewery DB listing API.
package openbrewery

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/brewery-sync/internal/model"
	"github.com/sells-group/brewery-sync/internal/resilience"
)

const (
	defaultBaseURL = "https://api.openbrewerydb.org"

	// DefaultPerPage is the page size used when none is given.
	DefaultPerPage = 100

	// MaxPerPage is the largest page size the API accepts.
	MaxPerPage = 200
)

// Client lists breweries one page at a time.
type Client interface {
	ListBreweries(ctx context.Context, state string, page, perPage int) ([]model.Brewery, error)
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

// WithRetry overrides the retry policy for transient failures.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	retry   resilience.RetryConfig
}

// NewClient creates an Open Brewery DB client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) ListBreweries(ctx context.Context, state string, page, perPage int) ([]model.Brewery, error) {
	retry := c.retry.WithOnRetry(resilience.RetryLogger("openbrewery", "list_breweries"))
	return resilience.DoVal(ctx, retry, func(ctx context.Context) ([]model.Brewery, error) {
		return c.listOnce(ctx, state, page, perPage)
	})
}

func (c *httpClient) listOnce(ctx context.Context, state string, page, perPage int) ([]model.Brewery, error) {
	params := url.Values{
		"per_page": {strconv.Itoa(perPage)},
		"page":     {strconv.Itoa(page)},
	}
	if state != "" {
		params.Set("by_state", state)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/breweries?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "openbrewery: create request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if resilience.IsTransient(err) {
			return nil, resilience.NewTransientError(eris.Wrap(err, "openbrewery: send request"), 0)
		}
		return nil, eris.Wrap(err, "openbrewery: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "openbrewery: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("openbrewery", resp.StatusCode, body)
	}

	var breweries []model.Brewery
	if err := json.Unmarshal(body, &breweries); err != nil {
		return nil, eris.Wrapf(err, "openbrewery: unmarshal page %d", page)
	}
	return breweries, nil
}
