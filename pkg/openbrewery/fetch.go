package openbrewery

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/brewery-sync/internal/model"
)

// FetchAll requests pages 1, 2, ... until one comes back empty and returns
// every brewery in order. Any page failure aborts the fetch with no partial
// result.
func FetchAll(ctx context.Context, c Client, state string, perPage int) ([]model.Brewery, error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	log := zap.L().With(zap.String("state", state), zap.Int("per_page", perPage))

	var all []model.Brewery
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "openbrewery: fetch all cancelled")
		}

		batch, err := c.ListBreweries(ctx, state, page, perPage)
		if err != nil {
			return nil, eris.Wrapf(err, "openbrewery: fetch page %d", page)
		}
		if len(batch) == 0 {
			log.Debug("openbrewery: fetch complete", zap.Int("pages", page), zap.Int("breweries", len(all)))
			return all, nil
		}

		all = append(all, batch...)
		log.Debug("openbrewery: fetched page", zap.Int("page", page), zap.Int("count", len(batch)))
	}
}
