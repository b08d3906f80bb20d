package syncer

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/tidwall/gjson"
)

// MockSource is a mock implementation of Source
type MockSource struct {
	ListPageFunc func(ctx context.Context, req PageRequest) (*Page, error)
	ResolveFunc  func(ctx context.Context, href string) ([]gjson.Result, error)

	mu       sync.Mutex
	pages    []PageRequest
	resolved []string
}

func (m *MockSource) ListPage(ctx context.Context, req PageRequest) (*Page, error) {
	m.mu.Lock()
	m.pages = append(m.pages, req)
	m.mu.Unlock()
	if m.ListPageFunc != nil {
		return m.ListPageFunc(ctx, req)
	}
	return &Page{}, nil
}

func (m *MockSource) Resolve(ctx context.Context, href string) ([]gjson.Result, error) {
	m.mu.Lock()
	m.resolved = append(m.resolved, href)
	m.mu.Unlock()
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, href)
	}
	return nil, nil
}

func (m *MockSource) PageCalls() []PageRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PageRequest(nil), m.pages...)
}

func (m *MockSource) ResolveCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.resolved...)
}

// items builds raw items from Go values
func items(values ...any) []gjson.Result {
	out := make([]gjson.Result, 0, len(values))
	for _, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		out = append(out, gjson.ParseBytes(b))
	}
	return out
}

// pagedSource serves fixed pages by offset and fails at failAt (page index) when set
func pagedSource(pageSize int, pages [][]gjson.Result, failAt int, failErr error) *MockSource {
	return &MockSource{
		ListPageFunc: func(_ context.Context, req PageRequest) (*Page, error) {
			idx := req.Offset / pageSize
			if failAt >= 0 && idx == failAt {
				return nil, failErr
			}
			if idx >= len(pages) {
				return &Page{}, nil
			}
			return &Page{Items: pages[idx]}, nil
		},
	}
}
