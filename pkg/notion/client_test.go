package notion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/brewery-sync/internal/resilience"
	"github.com/sells-group/brewery-sync/pkg/notion/mocks"
)

func TestMockClientSatisfiesInterface(t *testing.T) {
	t.Parallel()
	var _ Client = (*mocks.MockClient)(nil)
}

func TestNewClientReturnsClient(t *testing.T) {
	c := NewClient("test-token", WithRateLimit(0))
	assert.NotNil(t, c)
}

func testClient() *notionClient {
	return &notionClient{
		retry: resilience.RetryConfig{
			MaxAttempts:    3,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
		},
	}
}

func TestCall_RetriesTransientStatus(t *testing.T) {
	c := testClient()
	calls := 0

	page, err := call(context.Background(), c, "retrieve page p1", func(_ context.Context) (*notionapi.Page, error) {
		calls++
		if calls < 3 {
			return nil, &notionapi.Error{Status: 502, Code: "bad_gateway", Message: "upstream"}
		}
		return &notionapi.Page{ID: "p1"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, notionapi.ObjectID("p1"), page.ID)
	assert.Equal(t, 3, calls)
}

func TestCall_DoesNotRetryNotFound(t *testing.T) {
	c := testClient()
	calls := 0

	_, err := call(context.Background(), c, "retrieve page p1", func(_ context.Context) (*notionapi.Page, error) {
		calls++
		return nil, &notionapi.Error{Status: 404, Code: "object_not_found", Message: "Could not find page"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.Contains(t, err.Error(), "notion: retrieve page p1: 404 object_not_found")
}

func TestCall_ExhaustedTransientKeepsStatus(t *testing.T) {
	c := testClient()

	_, err := call(context.Background(), c, "query database db", func(_ context.Context) (*notionapi.DatabaseQueryResponse, error) {
		return nil, &notionapi.Error{Status: 429, Code: "rate_limited", Message: "slow down"}
	})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err))
	assert.Equal(t, 429, StatusOf(err))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		status     int
		transient  bool
		validation bool
	}{
		{"validation", &notionapi.Error{Status: 400, Code: "validation_error"}, 400, false, true},
		{"not found", &notionapi.Error{Status: 404, Code: "object_not_found"}, 404, false, false},
		{"server", &notionapi.Error{Status: 503, Code: "service_unavailable"}, 503, true, false},
		{"network", errors.New("read tcp: connection reset by peer"), 0, true, false},
		{"other", errors.New("json: cannot unmarshal"), 0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := classify("op", tt.err)
			assert.Equal(t, tt.status, StatusOf(err))
			assert.Equal(t, tt.transient, resilience.IsTransient(err))
			assert.Equal(t, tt.validation, IsValidation(err))
		})
	}
}

func TestStatusOf_NonAPIError(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 0, StatusOf(errors.New("plain")))
	assert.Equal(t, 0, StatusOf(nil))
}
