package web

import (
	"net/http"
	"strconv"

	"github.com/dnswlt/pokedex/internal/pokeapi"
	"github.com/dnswlt/pokedex/internal/query"
)

// pokedexRow is one row of the Pokédex listing.
type pokedexRow struct {
	pokeapi.Summary
	IsFavorite bool
}

// favoriteButton is the data of the favorite_button.html template.
type favoriteButton struct {
	Name       string
	IsFavorite bool
}

func (s *Server) serveHome(w http.ResponseWriter, r *http.Request) {
	params := map[string]any{
		"Welcome":   s.opts.UI.Welcome,
		"Favorites": s.favorites.List(),
	}
	s.serveHTMLPage(w, r, "home.html", params)
}

// intParam returns the non-negative integer query parameter key, or def if it is absent.
func intParam(r *http.Request, key string, def int) (int, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func (s *Server) servePokedex(w http.ResponseWriter, r *http.Request) {
	limit, ok := intParam(r, "limit", s.opts.ListLimit)
	if !ok || limit == 0 || limit > maxListLimit {
		http.Error(w, "Invalid limit", http.StatusBadRequest)
		return
	}
	offset, ok := intParam(r, "offset", 0)
	if !ok {
		http.Error(w, "Invalid offset", http.StatusBadRequest)
		return
	}

	page, err := s.catalog.List(r.Context(), pokeapi.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		s.serveCatalogError(w, r, err)
		return
	}

	q := r.URL.Query().Get("q")
	results, err := query.Filter(q, page.Results)
	if err != nil {
		if isHX(r) {
			// Keep the table while the user is still typing.
			s.renderErrorSnippet(w, err.Error())
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rows := make([]pokedexRow, len(results))
	for i, p := range results {
		rows[i] = pokedexRow{Summary: p, IsFavorite: s.favorites.Contains(p.Name)}
	}
	params := map[string]any{
		"Rows":  rows,
		"Query": q,
	}

	if isHX(r) {
		// htmx request: only render rows
		s.serveHTMLPage(w, r, "pokedex_rows.html", params)
		return
	}
	// full page
	params["Count"] = page.Count
	params["From"] = min(offset+1, page.Count)
	params["To"] = min(offset+len(page.Results), page.Count)
	if page.Previous != "" {
		params["PrevURL"] = pageURL(r.URL, max(0, offset-limit))
	}
	if page.Next != "" {
		params["NextURL"] = pageURL(r.URL, offset+limit)
	}
	s.serveHTMLPage(w, r, "pokedex.html", params)
}

func (s *Server) servePokemon(w http.ResponseWriter, r *http.Request, name string) {
	entry, err := s.fetchEntry(r.Context(), name)
	if err != nil {
		s.serveCatalogError(w, r, err)
		return
	}
	maxStat := 0
	for _, st := range entry.Stats {
		maxStat = max(maxStat, st.BaseStat)
	}
	params := map[string]any{
		"Pokemon": entry,
		"MaxStat": max(maxStat, 150),
		"Button": favoriteButton{
			Name:       entry.Name,
			IsFavorite: s.favorites.Contains(entry.Name),
		},
	}
	s.serveHTMLPage(w, r, "pokemon_detail.html", params)
}
