// Package notion wraps the Notion API for the brewery database: cursor
// pagination, typed page properties and error classification.
package notion

import (
	"context"
	"errors"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/brewery-sync/internal/resilience"
)

// Client defines the Notion API operations used by this application.
type Client interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error)
	RetrievePage(ctx context.Context, pageID string) (*notionapi.Page, error)
}

// ClientOption configures the Notion client.
type ClientOption func(*notionClient)

// WithRateLimit overrides the default Notion rate limit (3 req/s). A
// non-positive value disables throttling.
func WithRateLimit(rps float64) ClientOption {
	return func(c *notionClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry overrides the retry policy applied to transient failures.
func WithRetry(cfg resilience.RetryConfig) ClientOption {
	return func(c *notionClient) {
		c.retry = cfg
	}
}

type notionClient struct {
	inner   *notionapi.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a Notion client for the given integration token. Calls
// are throttled to 3 req/s and 429/5xx responses are retried with backoff.
func NewClient(token string, opts ...ClientOption) Client {
	c := &notionClient{
		inner:   notionapi.NewClient(notionapi.Token(token)),
		limiter: rate.NewLimiter(3, 1),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *notionClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// call throttles, retries and classifies one API operation.
func call[T any](ctx context.Context, c *notionClient, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	retry := c.retry.WithOnRetry(resilience.RetryLogger("notion", op))
	return resilience.DoVal(ctx, retry, func(ctx context.Context) (T, error) {
		var zero T
		if err := c.wait(ctx); err != nil {
			return zero, eris.Wrap(err, "notion: rate limit")
		}
		v, err := fn(ctx)
		if err != nil {
			return zero, classify(op, err)
		}
		return v, nil
	})
}

func (c *notionClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	return call(ctx, c, fmt.Sprintf("query database %s", dbID), func(ctx context.Context) (*notionapi.DatabaseQueryResponse, error) {
		return c.inner.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	})
}

func (c *notionClient) CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	return call(ctx, c, "create page", func(ctx context.Context) (*notionapi.Page, error) {
		return c.inner.Page.Create(ctx, req)
	})
}

func (c *notionClient) UpdatePage(ctx context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	return call(ctx, c, fmt.Sprintf("update page %s", pageID), func(ctx context.Context) (*notionapi.Page, error) {
		return c.inner.Page.Update(ctx, notionapi.PageID(pageID), req)
	})
}

func (c *notionClient) RetrievePage(ctx context.Context, pageID string) (*notionapi.Page, error) {
	return call(ctx, c, fmt.Sprintf("retrieve page %s", pageID), func(ctx context.Context) (*notionapi.Page, error) {
		return c.inner.Page.Get(ctx, notionapi.PageID(pageID))
	})
}

// APIError is a failed Notion API call with its HTTP status and error code.
type APIError struct {
	Op      string
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion: %s: %d %s: %s", e.Op, e.Status, e.Code, e.Message)
}

func classify(op string, err error) error {
	var nErr *notionapi.Error
	if errors.As(err, &nErr) {
		apiErr := &APIError{Op: op, Status: nErr.Status, Code: string(nErr.Code), Message: nErr.Message}
		if resilience.IsTransientHTTPStatus(nErr.Status) {
			return resilience.NewTransientError(apiErr, nErr.Status)
		}
		return apiErr
	}
	if resilience.IsTransient(err) {
		return resilience.NewTransientError(eris.Wrapf(err, "notion: %s", op), 0)
	}
	return eris.Wrapf(err, "notion: %s", op)
}

// StatusOf returns the HTTP status of a Notion API error, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from Notion (page missing or not
// shared with the integration).
func IsNotFound(err error) bool {
	return StatusOf(err) == 404
}

// IsValidation reports whether err is a 400 from Notion, e.g. a malformed
// page id.
func IsValidation(err error) bool {
	return StatusOf(err) == 400
}
