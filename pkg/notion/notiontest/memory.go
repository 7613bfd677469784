// Package notiontest provides an in-memory notion.Client for tests.
package notiontest

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"sync"

	"github.com/jomei/notionapi"

	"github.com/sells-group/brewery-sync/pkg/notion"
)

var _ notion.Client = (*Memory)(nil)

// Memory is a single-database notion.Client backed by a map. It supports
// rich_text equals filters and cursor pagination, and merges properties on
// update the way the API does.
type Memory struct {
	// PageSize caps results per query. Zero means 100.
	PageSize int

	mu    sync.Mutex
	pages map[string]*notionapi.Page
	order []string
	seq   int
	calls map[string]int
}

// NewMemory returns an empty in-memory database.
func NewMemory() *Memory {
	return &Memory{
		pages: make(map[string]*notionapi.Page),
		calls: make(map[string]int),
	}
}

// AddPage stores a page with the given properties and returns a copy.
func (m *Memory) AddPage(props notionapi.Properties) notionapi.Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *clonePage(m.insert(props))
}

// Pages returns copies of every page in creation order.
func (m *Memory) Pages() []notionapi.Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]notionapi.Page, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *clonePage(m.pages[id]))
	}
	return out
}

// Calls returns how many times op ("query", "create", "update", "retrieve")
// was invoked.
func (m *Memory) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func (m *Memory) QueryDatabase(_ context.Context, _ string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["query"]++

	var matched []notionapi.Page
	for _, id := range m.order {
		p := m.pages[id]
		if req == nil || matches(req.Filter, p.Properties) {
			matched = append(matched, *clonePage(p))
		}
	}

	start := 0
	if req != nil && req.StartCursor != "" {
		n, err := strconv.Atoi(string(req.StartCursor))
		if err != nil || n < 0 || n > len(matched) {
			return nil, &notion.APIError{Op: "query database", Status: 400, Code: "validation_error", Message: "invalid start_cursor"}
		}
		start = n
	}

	size := m.PageSize
	if req != nil && req.PageSize > 0 && (size == 0 || req.PageSize < size) {
		size = req.PageSize
	}
	if size <= 0 {
		size = 100
	}

	end := min(start+size, len(matched))
	resp := &notionapi.DatabaseQueryResponse{Results: matched[start:end]}
	if end < len(matched) {
		resp.HasMore = true
		resp.NextCursor = notionapi.Cursor(strconv.Itoa(end))
	}
	return resp, nil
}

func (m *Memory) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["create"]++
	return clonePage(m.insert(req.Properties)), nil
}

func (m *Memory) UpdatePage(_ context.Context, pageID string, req *notionapi.PageUpdateRequest) (*notionapi.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["update"]++

	p, ok := m.pages[pageID]
	if !ok {
		return nil, notFound("update page", pageID)
	}
	maps.Copy(p.Properties, req.Properties)
	return clonePage(p), nil
}

func (m *Memory) RetrievePage(_ context.Context, pageID string) (*notionapi.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls["retrieve"]++

	p, ok := m.pages[pageID]
	if !ok {
		return nil, notFound("retrieve page", pageID)
	}
	return clonePage(p), nil
}

func (m *Memory) insert(props notionapi.Properties) *notionapi.Page {
	m.seq++
	id := fmt.Sprintf("page-%d", m.seq)
	p := &notionapi.Page{
		Object:     notionapi.ObjectTypePage,
		ID:         notionapi.ObjectID(id),
		Properties: maps.Clone(props),
	}
	if p.Properties == nil {
		p.Properties = notionapi.Properties{}
	}
	m.pages[id] = p
	m.order = append(m.order, id)
	return p
}

func matches(filter notionapi.Filter, props notionapi.Properties) bool {
	switch f := filter.(type) {
	case nil:
		return true
	case notionapi.PropertyFilter:
		return matchProperty(&f, props)
	case *notionapi.PropertyFilter:
		return matchProperty(f, props)
	default:
		return false
	}
}

func matchProperty(f *notionapi.PropertyFilter, props notionapi.Properties) bool {
	if f.RichText == nil {
		return false
	}
	return notion.PlainText(props, f.Property) == f.RichText.Equals
}

func clonePage(p *notionapi.Page) *notionapi.Page {
	c := *p
	c.Properties = maps.Clone(p.Properties)
	return &c
}

func notFound(op, pageID string) error {
	return &notion.APIError{
		Op:      op,
		Status:  404,
		Code:    "object_not_found",
		Message: fmt.Sprintf("Could not find page with ID: %s.", pageID),
	}
}
