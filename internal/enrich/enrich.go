// Package enrich computes drive time and distance from home for brewery
// pages and writes them back to Notion.
package enrich

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/brewery-sync/internal/mapping"
	"github.com/sells-group/brewery-sync/internal/model"
	"github.com/sells-group/brewery-sync/internal/resilience"
	"github.com/sells-group/brewery-sync/pkg/notion"
)

// Enricher fills the Drive time and Miles from home properties.
type Enricher struct {
	client notion.Client
	router *Router
	home   string
}

// New returns an Enricher measuring routes from home.
func New(client notion.Client, router *Router, home string) *Enricher {
	return &Enricher{client: client, router: router, home: home}
}

// Enrich computes the route for one page and writes it back. Pages without
// an Address or Town are skipped without any remote call.
func (e *Enricher) Enrich(ctx context.Context, page notionapi.Page) model.Outcome {
	id := string(page.ID)
	props := page.Properties
	name := notion.PlainText(props, mapping.PropName)
	log := zap.L().With(zap.String("page_id", id), zap.String("name", name))

	address := notion.PlainText(props, mapping.PropAddress)
	town := notion.PlainText(props, mapping.PropTown)
	if address == "" || town == "" {
		log.Debug("enrich: missing address or town")
		return model.Skipped(id, name, model.ReasonMissingFields)
	}

	state := notion.PlainText(props, mapping.PropState)
	if state == "" {
		log.Warn("enrich: state property missing")
	}

	// The brewery is the origin and home the destination.
	origin := ComposeAddress(address, town, state, notion.PlainText(props, mapping.PropZipCode))

	route, err := e.router.Route(ctx, origin, e.home)
	switch {
	case eris.Is(err, ErrNoRoute):
		log.Info("enrich: no route", zap.String("origin", origin))
		return model.Skipped(id, name, model.ReasonNoRoute)
	case eris.Is(err, ErrUnparseableDistance):
		log.Warn("enrich: unparseable distance", zap.Error(err))
		return model.Skipped(id, name, model.ReasonUnparseableDistance)
	case err != nil:
		log.Error("enrich: route lookup failed", zap.String("error_class", resilience.ClassifyError(err)), zap.Error(err))
		return model.Failed(id, name, err)
	}

	_, err = e.client.UpdatePage(ctx, id, &notionapi.PageUpdateRequest{
		Properties: notionapi.Properties{
			mapping.PropDriveTime: notion.RichText(route.DurationText),
			mapping.PropMiles:     notion.Number(route.DistanceMiles),
		},
	})
	if err != nil {
		err = eris.Wrapf(err, "enrich: update page %s", id)
		log.Error("enrich: write back failed", zap.String("error_class", resilience.ClassifyError(err)), zap.Error(err))
		return model.Failed(id, name, err)
	}

	log.Debug("enrich: enriched",
		zap.String("drive_time", route.DurationText),
		zap.Float64("miles", route.DistanceMiles),
	)
	return model.Enriched(id, name)
}

// ComposeAddress formats "<address>, <town> <state> <zip>", dropping empty
// parts.
func ComposeAddress(address, town, state, zip string) string {
	var locality []string
	for _, p := range []string{town, state, zip} {
		if p = strings.TrimSpace(p); p != "" {
			locality = append(locality, p)
		}
	}

	address = strings.TrimSpace(address)
	switch {
	case address == "":
		return strings.Join(locality, " ")
	case len(locality) == 0:
		return address
	default:
		return address + ", " + strings.Join(locality, " ")
	}
}
