// Package reconcile upserts directory breweries into the Notion database,
// matching on the ID property.
//
// The lookup and the following create or update are separate requests, so
// two writers racing on the same brewery can create duplicate pages. Runs
// are expected to have a single writer per database.
package reconcile

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/brewery-sync/internal/mapping"
	"github.com/sells-group/brewery-sync/internal/model"
	"github.com/sells-group/brewery-sync/pkg/notion"
)

// Result describes the write made for one brewery.
type Result struct {
	Page       *notionapi.Page
	Created    bool
	Duplicates int // extra pages sharing the same ID, left untouched
}

// Outcome converts the result to a ledger outcome.
func (r *Result) Outcome(b model.Brewery) model.Outcome {
	kind := model.OutcomeUpdated
	if r.Created {
		kind = model.OutcomeCreated
	}
	return model.Outcome{RecordID: b.ID, Name: b.Name, Kind: kind}
}

// Upserter creates or updates brewery pages.
type Upserter struct {
	client notion.Client
	dbID   string
}

// NewUpserter returns an Upserter writing to database dbID.
func NewUpserter(client notion.Client, dbID string) *Upserter {
	return &Upserter{client: client, dbID: dbID}
}

// Upsert updates the page whose ID equals b.ID, or creates one when none
// exists. Updates leave enrichment and State properties alone.
func (u *Upserter) Upsert(ctx context.Context, b model.Brewery) (*Result, error) {
	if b.ID == "" {
		return nil, eris.Errorf("reconcile: brewery %q has no id", b.Name)
	}

	log := zap.L().With(zap.String("brewery_id", b.ID))
	props := mapping.ToProperties(b)

	matches, err := notion.QueryAll(ctx, u.client, u.dbID, notion.RichTextEquals(mapping.PropExternalID, b.ID))
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: find page for %s", b.ID)
	}

	if len(matches) > 0 {
		if len(matches) > 1 {
			log.Warn("reconcile: duplicate external id",
				zap.Int("pages", len(matches)),
				zap.String("page_id", string(matches[0].ID)),
			)
		}

		page, err := u.client.UpdatePage(ctx, string(matches[0].ID), &notionapi.PageUpdateRequest{
			Properties: props,
		})
		if err != nil {
			return nil, eris.Wrapf(err, "reconcile: update page for %s", b.ID)
		}
		log.Debug("reconcile: updated page", zap.String("page_id", string(page.ID)))
		return &Result{Page: page, Duplicates: len(matches) - 1}, nil
	}

	page, err := u.client.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(u.dbID),
		},
		Properties: mapping.WithExternalID(props, b.ID),
	})
	if err != nil {
		return nil, eris.Wrapf(err, "reconcile: create page for %s", b.ID)
	}
	log.Debug("reconcile: created page", zap.String("page_id", string(page.ID)))
	return &Result{Page: page, Created: true}, nil
}
