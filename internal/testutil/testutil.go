// Package testutil provides a fake catalog service for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Response is a canned response of a CatalogStub.
type Response struct {
	Status int
	Body   string
}

// CatalogStub is a test server that answers GET requests with canned responses,
// keyed by request URI. Unknown URIs get a 404.
type CatalogStub struct {
	*httptest.Server

	mu       sync.Mutex
	requests []string
}

// NewCatalogStub starts a CatalogStub that is closed when the test ends.
func NewCatalogStub(t *testing.T, routes map[string]Response) *CatalogStub {
	t.Helper()
	stub := &CatalogStub{}
	stub.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		stub.requests = append(stub.requests, r.URL.RequestURI())
		stub.mu.Unlock()

		resp, ok := routes[r.URL.RequestURI()]
		if !ok {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(resp.Status)
		fmt.Fprint(w, resp.Body)
	}))
	t.Cleanup(stub.Close)
	return stub
}

// Requests returns the URIs requested so far, in order.
func (s *CatalogStub) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// ListJSON returns a listing response body with the given names.
func ListJSON(count int, names ...string) string {
	results := make([]string, len(names))
	for i, n := range names {
		results[i] = fmt.Sprintf(`{"name": %q, "url": "https://pokeapi.co/api/v2/pokemon/%d/"}`, n, i+1)
	}
	return fmt.Sprintf(`{"count": %d, "next": null, "previous": null, "results": [%s]}`, count, strings.Join(results, ", "))
}
