package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dnswlt/pokedex/internal/favorites"
	"github.com/dnswlt/pokedex/internal/query"
)

func (s *Server) serveFavoritesPanel(w http.ResponseWriter, r *http.Request) {
	favs, err := query.Filter(r.URL.Query().Get("q"), s.favorites.List())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.serveHTMLPage(w, r, "favorites_list.html", map[string]any{
		"Favorites": favs,
	})
}

// redirectBack sends non-htmx form posts back to the page they came from.
func redirectBack(w http.ResponseWriter, r *http.Request) {
	target := "/ui/home"
	if ref := r.Header.Get("Referer"); ref != "" {
		target = ref
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) addFavorite(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		http.Error(w, "Missing name", http.StatusBadRequest)
		return
	}
	entry, err := s.fetchEntry(r.Context(), name)
	if err != nil {
		s.serveCatalogError(w, r, err)
		return
	}
	s.favorites.Add(favorites.FromCatalog(entry))

	if !isHX(r) {
		redirectBack(w, r)
		return
	}
	s.serveHTMLPage(w, r, "favorite_button.html", map[string]any{
		"Name":       entry.Name,
		"IsFavorite": true,
	})
}

func (s *Server) removeFavorite(w http.ResponseWriter, r *http.Request, name string) {
	s.favorites.Remove(name)

	if !isHX(r) {
		redirectBack(w, r)
		return
	}
	s.serveHTMLPage(w, r, "favorite_button.html", map[string]any{
		"Name":       name,
		"IsFavorite": s.favorites.Contains(name),
	})
}

// favoritesEvent is the data of a server-sent favorites event.
type favoritesEvent struct {
	Op    string `json:"op"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// serveFavoritesEvents streams favorites changes as server-sent events
// until the client disconnects.
func (s *Server) serveFavoritesEvents(w http.ResponseWriter, r *http.Request) {
	// Subscribe before sending headers: once the client sees the response,
	// it must not miss any mutation.
	events := s.favorites.Watch(r.Context(), sseBuffer)

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		s.logger.Error("Event stream not supported", "error", err)
		return
	}

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return // request context done
			}
			data, err := json.Marshal(favoritesEvent{
				Op:    ev.Op.String(),
				Name:  ev.Name,
				Count: len(ev.Favorites),
			})
			if err != nil {
				s.logger.Error("Failed to encode favorites event", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: favorites\ndata: %s\n\n", data); err != nil {
				return
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}
