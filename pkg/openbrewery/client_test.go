package openbrewery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/brewery-sync/internal/resilience"
)

func fastRetry() resilience.RetryConfig {
	return resilience.RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	}
}

func TestListBreweries_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/breweries", r.URL.Path)
		assert.Equal(t, "massachusetts", r.URL.Query().Get("by_state"))
		assert.Equal(t, "50", r.URL.Query().Get("per_page"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"b1","name":"Harpoon","brewery_type":"regional","street":"306 Northern Ave",
			 "city":"Boston","state":"Massachusetts","postal_code":"02210-2367",
			 "phone":"6174569322","website_url":"http://www.harpoonbrewery.com",
			 "latitude":"42.3466","longitude":-71.0342},
			{"id":"b2","name":"Garage","brewery_type":"micro","street":null,"city":null,
			 "state":"Massachusetts","postal_code":null,"phone":null,"website_url":null,
			 "latitude":null,"longitude":null}
		]`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	breweries, err := client.ListBreweries(context.Background(), "massachusetts", 2, 50)

	require.NoError(t, err)
	require.Len(t, breweries, 2)
	assert.Equal(t, "b1", breweries[0].ID)
	assert.Equal(t, "Boston", breweries[0].City.String())
	assert.Equal(t, "42.3466", breweries[0].Latitude.String())
	assert.Equal(t, "-71.0342", breweries[0].Longitude.String())
	assert.Empty(t, breweries[1].Street.String())
	assert.Empty(t, breweries[1].Latitude.String())
}

func TestListBreweries_RetriesTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetry(fastRetry()))
	breweries, err := client.ListBreweries(context.Background(), "massachusetts", 1, 100)

	require.NoError(t, err)
	assert.Empty(t, breweries)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListBreweries_NotFoundNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Couldn't find Brewery"}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL), WithRetry(fastRetry()))
	_, err := client.ListBreweries(context.Background(), "massachusetts", 1, 100)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "openbrewery: unexpected status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestListBreweries_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.ListBreweries(context.Background(), "massachusetts", 1, 100)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal page 1")
}

// pagedServer serves total breweries perPage at a time and counts requests.
func pagedServer(t *testing.T, total int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		page, err := strconv.Atoi(r.URL.Query().Get("page"))
		require.NoError(t, err)
		perPage, err := strconv.Atoi(r.URL.Query().Get("per_page"))
		require.NoError(t, err)

		start := (page - 1) * perPage
		end := min(start+perPage, total)
		var items []string
		for i := start; i < end; i++ {
			items = append(items, fmt.Sprintf(`{"id":"b%d","name":"Brewery %d"}`, i, i))
		}
		_, _ = w.Write([]byte("[" + strings.Join(items, ",") + "]"))
	}))
}

func TestFetchAll_RequestCount(t *testing.T) {
	tests := []struct {
		name    string
		total   int
		perPage int
		want    int32
	}{
		{name: "empty", total: 0, perPage: 100, want: 1},
		{name: "partial page", total: 42, perPage: 100, want: 2},
		{name: "exact page", total: 100, perPage: 100, want: 2},
		{name: "several pages", total: 250, perPage: 100, want: 4},
		{name: "small pages", total: 7, perPage: 2, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := pagedServer(t, tt.total, &calls)
			defer srv.Close()

			client := NewClient(WithBaseURL(srv.URL))
			breweries, err := FetchAll(context.Background(), client, "massachusetts", tt.perPage)

			require.NoError(t, err)
			assert.Len(t, breweries, tt.total)
			assert.Equal(t, tt.want, calls.Load())
			if tt.total > 0 {
				assert.Equal(t, "b0", breweries[0].ID)
				assert.Equal(t, fmt.Sprintf("b%d", tt.total-1), breweries[tt.total-1].ID)
			}
		})
	}
}
