package notion

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
)

// QueryAll fetches every page of a database query, following next_cursor
// until Notion reports no further cursor. The first request carries no
// cursor. The next page is prefetched while the current one is appended.
func QueryAll(ctx context.Context, c Client, dbID string, query *notionapi.DatabaseQueryRequest) ([]notionapi.Page, error) {
	request := func(cursor notionapi.Cursor) *notionapi.DatabaseQueryRequest {
		req := &notionapi.DatabaseQueryRequest{StartCursor: cursor}
		if query != nil {
			req.Filter = query.Filter
			req.Sorts = query.Sorts
			req.PageSize = query.PageSize
		}
		return req
	}

	type fetched struct {
		resp *notionapi.DatabaseQueryResponse
		err  error
	}

	var all []notionapi.Page
	var pending <-chan fetched
	for {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "notion: query all cancelled")
		}

		var resp *notionapi.DatabaseQueryResponse
		var err error
		if pending != nil {
			f := <-pending
			resp, err = f.resp, f.err
		} else {
			resp, err = c.QueryDatabase(ctx, dbID, request(""))
		}
		if err != nil {
			return nil, eris.Wrap(err, "notion: query all page")
		}

		all = append(all, resp.Results...)

		if !resp.HasMore || resp.NextCursor == "" {
			return all, nil
		}

		ch := make(chan fetched, 1)
		pending = ch
		next := request(resp.NextCursor)
		go func() {
			r, e := c.QueryDatabase(ctx, dbID, next)
			ch <- fetched{resp: r, err: e}
		}()
	}
}

// RichTextEquals builds a query matching pages whose rich_text property
// equals value exactly.
func RichTextEquals(property, value string) *notionapi.DatabaseQueryRequest {
	return &notionapi.DatabaseQueryRequest{
		Filter: notionapi.PropertyFilter{
			Property: property,
			RichText: &notionapi.TextFilterCondition{
				Equals: value,
			},
		},
	}
}
