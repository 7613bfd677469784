package enrich

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	"github.com/sells-group/brewery-sync/internal/model"
	"github.com/sells-group/brewery-sync/pkg/google"
)

var (
	// ErrNoRoute means the routing service found no drive between the
	// two addresses.
	ErrNoRoute = eris.New("enrich: no route")

	// ErrUnparseableDistance means the distance text had no leading number.
	ErrUnparseableDistance = eris.New("enrich: unparseable distance")
)

const metersPerMile = 1609.344

// RouteCache stores routes between lookups. store.Store satisfies it.
type RouteCache interface {
	GetCachedRoute(ctx context.Context, key string) (*model.Route, error)
	SetCachedRoute(ctx context.Context, key string, route model.Route, ttl time.Duration) error
}

// Router resolves drive time and distance, consulting the cache first.
type Router struct {
	client google.Client
	cache  RouteCache
	ttl    time.Duration
}

// NewRouter returns a Router. cache may be nil.
func NewRouter(client google.Client, cache RouteCache, ttl time.Duration) *Router {
	return &Router{client: client, cache: cache, ttl: ttl}
}

// Route returns the drive from origin to destination. It returns ErrNoRoute
// or ErrUnparseableDistance for answers that carry no usable route.
func (r *Router) Route(ctx context.Context, origin, destination string) (*model.Route, error) {
	key := CacheKey(origin, destination)

	if r.cache != nil {
		cached, err := r.cache.GetCachedRoute(ctx, key)
		if err != nil {
			zap.L().Warn("enrich: route cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	resp, err := r.client.DistanceMatrix(ctx, google.DistanceMatrixRequest{
		Origins:      []string{origin},
		Destinations: []string{destination},
		Units:        "imperial",
	})
	if err != nil {
		return nil, eris.Wrap(err, "enrich: distance matrix")
	}

	el := resp.FirstElement()
	if !el.HasRoute() || el.Distance.Text == "" || el.Duration.Text == "" {
		return nil, ErrNoRoute
	}

	miles, err := ParseMiles(el.Distance.Text)
	if err != nil {
		return nil, err
	}

	route := &model.Route{
		Origin:        origin,
		Destination:   destination,
		DurationText:  el.Duration.Text,
		DistanceText:  el.Distance.Text,
		DistanceMiles: miles,
	}

	if r.cache != nil && r.ttl > 0 {
		if err := r.cache.SetCachedRoute(ctx, key, *route, r.ttl); err != nil {
			zap.L().Warn("enrich: route cache write failed", zap.Error(err))
		}
	}
	return route, nil
}

// CacheKey is the sha256 of the normalized origin and destination.
func CacheKey(origin, destination string) string {
	sum := sha256.Sum256([]byte(normalizeAddress(origin) + "|" + normalizeAddress(destination)))
	return hex.EncodeToString(sum[:])
}

func normalizeAddress(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(norm.NFC.String(s)), " "))
}

// ParseMiles reads the leading number of a distance text such as "12.3 mi"
// or "1,204 mi". Thousands separators are dropped and feet, kilometers and
// meters are converted to miles. A bare number is taken as miles.
func ParseMiles(text string) (float64, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, eris.Wrapf(ErrUnparseableDistance, "%q", text)
	}

	n, err := strconv.ParseFloat(strings.ReplaceAll(fields[0], ",", ""), 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) || n < 0 {
		return 0, eris.Wrapf(ErrUnparseableDistance, "%q", text)
	}

	unit := ""
	if len(fields) > 1 {
		unit = strings.ToLower(fields[1])
	}
	switch unit {
	case "", "mi", "mile", "miles":
		return n, nil
	case "ft", "feet":
		return n / 5280, nil
	case "km":
		return n * 1000 / metersPerMile, nil
	case "m":
		return n / metersPerMile, nil
	default:
		return 0, eris.Wrapf(ErrUnparseableDistance, "%q", text)
	}
}
