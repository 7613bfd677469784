//go:build !integration

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/jomei/notionapi"

	"github.com/sells-group/brewery-sync/internal/config"
	"github.com/sells-group/brewery-sync/internal/mapping"
	"github.com/sells-group/brewery-sync/internal/model"
	"github.com/sells-group/brewery-sync/pkg/notion"
	"github.com/sells-group/brewery-sync/pkg/notion/notiontest"
)

const testHome = "4 Moloney St, West Roxbury MA 02132"

// testConfig returns a complete config backed by a SQLite ledger in a temp
// dir. Base URLs are left for the caller.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Notion:      config.NotionConfig{Token: "secret_test", BreweryDB: "db-test"},
		Google:      config.GoogleConfig{Key: "key-test"},
		OpenBrewery: config.OpenBreweryConfig{State: "massachusetts", PerPage: 100},
		Home:        config.HomeConfig{Address: testHome},
		Sync:        config.SyncConfig{Concurrency: 1, RouteCacheTTLHours: 24},
		Retry:       config.RetryConfig{MaxAttempts: 1, InitialBackoffMs: 1, MaxBackoffMs: 1},
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "ledger.db"),
		},
		Log: config.LogConfig{Level: "info", Format: "console"},
	}
}

// useMemoryNotion routes every command's Notion calls to mem.
func useMemoryNotion(t *testing.T, mem *notiontest.Memory) {
	t.Helper()
	orig := newNotionClient
	newNotionClient = func(string, ...notion.ClientOption) notion.Client { return mem }
	t.Cleanup(func() { newNotionClient = orig })
}

// breweryServer serves breweries on page 1 and an empty page after that.
func breweryServer(t *testing.T, breweries []model.Brewery) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "1" {
			_ = json.NewEncoder(w).Encode(breweries)
			return
		}
		_, _ = w.Write([]byte("[]"))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// routeServer answers every Distance Matrix lookup with the same route.
func routeServer(t *testing.T, distance, duration string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"OK","rows":[{"elements":[{"status":"OK",` +
			`"distance":{"text":"` + distance + `","value":0},` +
			`"duration":{"text":"` + duration + `","value":0}}]}]}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

// breweryPage returns the properties an import would write for a brewery.
func breweryPage(name, street, city string) notionapi.Properties {
	return mapping.ToProperties(model.Brewery{
		Name:   name,
		Street: model.LooseString(street),
		City:   model.LooseString(city),
	})
}
