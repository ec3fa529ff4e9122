// Package testutil provides testing utilities for the tag updater.
package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockResponse defines the behavior for a mock Snyk endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
}

// MockSnyk is a configurable mock Snyk REST server for testing.
type MockSnyk struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	PatchCount        int
	LastRequestHeader http.Header
	LastPatchBody     []byte
}

// NewMockSnyk creates a new mock Snyk server.
func NewMockSnyk() *MockSnyk {
	mock := &MockSnyk{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		if r.Method == http.MethodPatch {
			mock.PatchCount++
			body, _ := io.ReadAll(r.Body)
			mock.LastPatchBody = body
		}
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.Method+" "+r.URL.Path]
		if !exists {
			handler, exists = mock.handlers[r.URL.Path]
		}
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockSnyk) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSnyk) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockSnyk) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.PatchCount = 0
	m.LastRequestHeader = nil
	m.LastPatchBody = nil
}

// SetHandler sets a custom handler for a path. The key may be a bare path
// or "METHOD /path" to bind a single method.
func (m *MockSnyk) SetHandler(key string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[key] = handler
}

// SetResponse configures a static response for a path.
func (m *MockSnyk) SetResponse(key string, resp MockResponse) {
	m.SetHandler(key, func(w http.ResponseWriter, r *http.Request) {
		for header, value := range resp.Headers {
			w.Header().Set(header, value)
		}
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", "application/vnd.api+json")
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetCollection serves a single-page collection of records on a path.
func (m *MockSnyk) SetCollection(path string, records ...any) {
	m.SetResponse(path, MockResponse{
		StatusCode: http.StatusOK,
		Body:       CollectionPage(records, ""),
	})
}

// SetPagedCollection serves records across pages of pageSize, linked by
// links.next cursors under the /rest prefix the paginator must strip.
func (m *MockSnyk) SetPagedCollection(path string, pageSize int, records ...any) {
	pages := make([][]any, 0)
	for start := 0; start < len(records); start += pageSize {
		end := start + pageSize
		if end > len(records) {
			end = len(records)
		}
		pages = append(pages, records[start:end])
	}
	if len(pages) == 0 {
		pages = append(pages, nil)
	}

	// One handler dispatching on the starting_after cursor.
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		index := 0
		if cursor := r.URL.Query().Get("starting_after"); cursor != "" {
			fmt.Sscanf(cursor, "page%d", &index)
		}
		if index >= len(pages) {
			index = len(pages) - 1
		}

		next := ""
		if index+1 < len(pages) {
			next = fmt.Sprintf("/rest%s?starting_after=page%d", path, index+1)
		}

		w.Header().Set("Content-Type", "application/vnd.api+json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(CollectionPage(pages[index], next)))
	})
}

// SetRateLimitSequence serves n 429 responses with the given Retry-After
// header value, then delegates to the provided success response.
func (m *MockSnyk) SetRateLimitSequence(path string, n int, retryAfter string, success MockResponse) {
	var mu sync.Mutex
	served := 0

	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		rateLimited := served < n
		served++
		mu.Unlock()

		if rateLimited {
			if retryAfter != "" {
				w.Header().Set("Retry-After", retryAfter)
			}
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"errors":[{"detail":"Too many requests"}]}`))
			return
		}

		for header, value := range success.Headers {
			w.Header().Set(header, value)
		}
		w.WriteHeader(success.StatusCode)
		w.Write([]byte(success.Body))
	})
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockSnyk) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetPatchCount returns the number of PATCH requests received.
func (m *MockSnyk) GetPatchCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PatchCount
}

// defaultHandler serves an empty collection.
func (m *MockSnyk) defaultHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"data": []}`))
}

// CollectionPage renders a JSON:API collection page body with an optional
// next link.
func CollectionPage(records []any, next string) string {
	if records == nil {
		records = []any{}
	}
	page := map[string]any{"data": records}
	if next != "" {
		page["links"] = map[string]any{"next": next}
	}
	body, _ := json.Marshal(page)
	return string(body)
}

// Resource builds a JSON:API resource record for mock responses.
func Resource(id, resourceType string, attributes map[string]any, relationships map[string]any) map[string]any {
	record := map[string]any{
		"id":         id,
		"type":       resourceType,
		"attributes": attributes,
	}
	if relationships != nil {
		record["relationships"] = relationships
	}
	return record
}

// SingleResource renders a JSON:API single-resource document body.
func SingleResource(record map[string]any) string {
	body, _ := json.Marshal(map[string]any{"data": record})
	return string(body)
}
