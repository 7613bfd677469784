package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/brewery-sync/internal/controller"
	"github.com/sells-group/brewery-sync/internal/enrich"
	"github.com/sells-group/brewery-sync/internal/resilience"
	"github.com/sells-group/brewery-sync/internal/store"
	"github.com/sells-group/brewery-sync/pkg/google"
	"github.com/sells-group/brewery-sync/pkg/notion"
	"github.com/sells-group/brewery-sync/pkg/openbrewery"
)

// newNotionClient builds the destination client. Tests replace it with an
// in-memory database.
var newNotionClient = func(token string, opts ...notion.ClientOption) notion.Client {
	return notion.NewClient(token, opts...)
}

// syncEnv holds the store, clients and controller needed by the import and
// run commands.
type syncEnv struct {
	Store      store.Store // may be nil
	Notion     notion.Client
	Controller *controller.Controller
}

// Close releases resources held by the environment.
func (se *syncEnv) Close() {
	if se.Store != nil {
		_ = se.Store.Close()
	}
}

// initEnv validates the config for mode ("import" or "enrich"), opens the
// ledger and builds the controller. withEnrich also wires the routing client
// for import runs. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string, withEnrich bool) (*syncEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	if withEnrich {
		if err := cfg.Validate("enrich"); err != nil {
			return nil, err
		}
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if st != nil {
		if err := st.Migrate(ctx); err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
	}

	retry := resilience.FromRetryConfig(cfg.Retry.MaxAttempts, cfg.Retry.InitialBackoffMs, cfg.Retry.MaxBackoffMs)

	notionClient := newNotionClient(cfg.Notion.Token,
		notion.WithRateLimit(cfg.Notion.RateLimit),
		notion.WithRetry(retry.WithOnRetry(resilience.RetryLogger("notion", "api"))),
	)

	opts := []controller.Option{
		controller.WithSource(openbrewery.NewClient(
			openbrewery.WithBaseURL(cfg.OpenBrewery.BaseURL),
			openbrewery.WithRetry(retry.WithOnRetry(resilience.RetryLogger("openbrewery", "list_breweries"))),
		)),
	}
	if st != nil {
		opts = append(opts, controller.WithStore(st))
	}
	if mode == "enrich" || withEnrich {
		opts = append(opts, controller.WithEnricher(newEnricher(notionClient, st, retry)))
	}

	ctl := controller.New(controller.Config{
		DatabaseID:    cfg.Notion.BreweryDB,
		State:         cfg.OpenBrewery.State,
		PerPage:       cfg.OpenBrewery.PerPage,
		Concurrency:   cfg.Sync.Concurrency,
		ProgressEvery: cfg.Sync.ProgressEvery,
	}, notionClient, opts...)

	return &syncEnv{Store: st, Notion: notionClient, Controller: ctl}, nil
}

// newEnricher wires the Distance Matrix client behind a circuit breaker and
// the route cache.
func newEnricher(notionClient notion.Client, st store.Store, retry resilience.RetryConfig) *enrich.Enricher {
	cbCfg := resilience.FromCircuitConfig(cfg.Circuit.FailureThreshold, cfg.Circuit.ResetTimeoutSecs)
	cbCfg.ShouldTrip = google.ShouldTrip
	cbCfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("google: circuit breaker state change",
			zap.Stringer("from", from),
			zap.Stringer("to", to),
		)
	}
	cb := resilience.NewCircuitBreaker(cbCfg)
	gc := google.NewClient(cfg.Google.Key,
		google.WithBaseURL(cfg.Google.BaseURL),
		google.WithRateLimit(cfg.Google.RateLimit),
		google.WithRetry(retry.WithOnRetry(resilience.RetryLogger("google", "distance_matrix"))),
		google.WithCircuitBreaker(cb),
	)

	var cache enrich.RouteCache
	if st != nil {
		cache = st
	}
	ttl := time.Duration(cfg.Sync.RouteCacheTTLHours) * time.Hour
	return enrich.New(notionClient, enrich.NewRouter(gc, cache, ttl), cfg.Home.Address)
}

// initStore opens the ledger named by store.driver. The "none" driver
// returns a nil store and disables the ledger.
func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "brewery-sync.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		if cfg.Store.DatabaseURL == "" {
			return nil, eris.New("store.database_url is required for the postgres driver")
		}
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "none", "":
		zap.L().Debug("run ledger disabled")
		return nil, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
