// Package testutil provides testing utilities for the Skinport API service.
package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"time"
)

// MockResponse defines the behavior of the mock Skinport items endpoint.
type MockResponse struct {
	StatusCode int
	Body       string
	Delay      time.Duration
}

// MockSkinport is a configurable mock of the Skinport items API.
type MockSkinport struct {
	server   *httptest.Server
	mu       sync.RWMutex
	response MockResponse

	// Tracking
	RequestCount      int
	LastRequestHeader http.Header
	LastQuery         url.Values
}

// NewMockSkinport creates a mock Skinport server that answers every request
// with a healthy two-listing payload until SetResponse overrides it.
func NewMockSkinport() *MockSkinport {
	mock := &MockSkinport{
		response: MockResponse{
			StatusCode: http.StatusOK,
			Body: `[
				{"market_hash_name": "AK-47 | Redline (Field-Tested)", "min_price": 17.35, "tradable": true},
				{"market_hash_name": "AK-47 | Redline (Field-Tested)", "min_price": 16.9, "tradable": false}
			]`,
		},
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.LastRequestHeader = r.Header.Clone()
		mock.LastQuery = r.URL.Query()
		response := mock.response
		mock.mu.Unlock()

		if response.Delay > 0 {
			time.Sleep(response.Delay)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(response.StatusCode)
		_, _ = w.Write([]byte(response.Body))
	}))

	return mock
}

// SetResponse overrides the response for subsequent requests.
func (m *MockSkinport) SetResponse(response MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = response
}

// URL returns the mock server URL.
func (m *MockSkinport) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSkinport) Close() {
	m.server.Close()
}

// Requests returns the number of requests served so far.
func (m *MockSkinport) Requests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// Reset clears all tracking state.
func (m *MockSkinport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.LastRequestHeader = nil
	m.LastQuery = nil
}
