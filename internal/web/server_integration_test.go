//go:build integration

package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dnswlt/pokedex/internal/favorites"
	"github.com/dnswlt/pokedex/internal/pokeapi"
	"github.com/prometheus/client_golang/prometheus"
)

// setupIntegrationServer starts a test server backed by the public PokéAPI.
// It returns the test server instance and the favorites store it serves.
func setupIntegrationServer(t *testing.T) (*httptest.Server, *favorites.Store) {
	// Root of the project, assuming we are running from internal/web
	projectRoot, err := filepath.Abs("../../")
	if err != nil {
		t.Fatalf("Failed to resolve project root: %v", err)
	}

	client := pokeapi.New(pokeapi.DefaultBaseURL,
		pokeapi.WithHTTPClient(&http.Client{Timeout: 10 * time.Second}))
	store := favorites.NewStore()

	server, err := NewServer(ServerOptions{
		Addr:           "localhost:0", // Random port
		BaseDir:        projectRoot,   // Use templates/static from source
		ListLimit:      20,
		EntryCacheSize: 100,
		Gatherer:       prometheus.NewRegistry(),
	}, client, store)
	if err != nil {
		t.Fatalf("Failed to create server: %v", err)
	}

	// Probe the remote service once so that an offline machine skips instead of failing.
	if _, err := client.ListCatalog(t.Context(), 1); err != nil {
		t.Skipf("PokéAPI not reachable: %v", err)
	}

	return httptest.NewServer(server.Handler()), store
}

func TestIntegration_ServerSmoke(t *testing.T) {
	ts, _ := setupIntegrationServer(t)
	defer ts.Close()

	// List of explicit URLs to check with expected substrings
	testCases := []struct {
		path     string
		expected []string
	}{
		{"/", []string{"<title>", "Favorites"}}, // Redirects to /ui/home
		{"/ui/pokedex", []string{"bulbasaur", "ivysaur"}},
		{"/ui/pokedex?offset=20", []string{"spearow", "Previous"}},
		{"/ui/pokedex?q=" + url.QueryEscape("name~saur$"), []string{"venusaur"}},
		{"/ui/pokedex/pikachu", []string{"#025", "electric", "static"}},
		{"/ui/pokedex/1", []string{"bulbasaur", "overgrow"}},
		{"/static/main.css", []string{"topbar"}},
	}

	client := ts.Client()

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			fullURL := ts.URL + tc.path
			resp, err := client.Get(fullURL)
			if err != nil {
				t.Fatalf("Failed to GET %s: %v", fullURL, err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				t.Errorf("GET %s returned status %d, expected 200", tc.path, resp.StatusCode)
			}

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				t.Errorf("Failed to read body from %s: %v", tc.path, err)
			}

			bodyStr := string(body)
			for _, exp := range tc.expected {
				if !strings.Contains(bodyStr, exp) {
					t.Errorf("GET %s: response body missing expected substring %q", tc.path, exp)
				}
			}
		})
	}
}

func TestIntegration_NotFound(t *testing.T) {
	ts, _ := setupIntegrationServer(t)
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/ui/pokedex/missingno")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestIntegration_AddFavorite(t *testing.T) {
	ts, store := setupIntegrationServer(t)
	defer ts.Close()

	resp, err := ts.Client().Post(ts.URL+"/api/favorites", "application/json", strings.NewReader(`{"name": "Eevee"}`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	favs := store.List()
	if len(favs) != 1 || favs[0].Name != "eevee" || favs[0].ID != 133 {
		t.Errorf("favorites = %+v, want eevee (#133)", favs)
	}
}
