package notion

import (
	"context"
	"strconv"
	"sync"
)

// ClientStub serves pre-recorded result pages. Each query returns the page its cursor points to.
type ClientStub struct {
	mu      sync.RWMutex
	pages   [][]Page
	queries []DatabaseQuery
	err     error
}

func NewClientStub(pages ...[]Page) *ClientStub {
	return &ClientStub{pages: pages}
}

func (c *ClientStub) QueryDatabase(ctx context.Context, databaseId string, query DatabaseQuery) (QueryResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.queries = append(c.queries, query)
	if c.err != nil {
		return QueryResponse{}, c.err
	}

	index := 0
	if query.StartCursor != "" {
		for i := range c.pages {
			if cursor(i) == query.StartCursor {
				index = i
			}
		}
	}
	if index >= len(c.pages) {
		return QueryResponse{}, nil
	}

	response := QueryResponse{Results: c.pages[index]}
	if index+1 < len(c.pages) {
		next := cursor(index + 1)
		response.HasMore = true
		response.NextCursor = &next
	}
	return response, nil
}

func (c *ClientStub) Queries() []DatabaseQuery {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]DatabaseQuery(nil), c.queries...)
}

func (c *ClientStub) SetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

func cursor(index int) string {
	return "cursor-" + strconv.Itoa(index)
}
