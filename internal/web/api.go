package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dnswlt/pokedex/internal/favorites"
)

// Requests to the JSON API larger than this are rejected.
const maxAPIBodySize = 1 << 20

type addFavoriteRequest struct {
	Name string `json:"name"`
}

type apiError struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Failed to write JSON response", "error", err)
	}
}

func (s *Server) writeJSONError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, apiError{Error: msg})
}

func (s *Server) apiListFavorites(w http.ResponseWriter, r *http.Request) {
	favs := s.favorites.List()
	if favs == nil {
		favs = []favorites.Entry{}
	}
	s.writeJSON(w, http.StatusOK, favs)
}

func (s *Server) apiAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req addFavoriteRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAPIBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		s.writeJSONError(w, http.StatusBadRequest, "missing name")
		return
	}
	entry, err := s.fetchEntry(r.Context(), req.Name)
	if err != nil {
		status := catalogErrorStatus(err)
		if status != http.StatusNotFound {
			s.logger.Error("Catalog request failed", "path", r.URL.Path, "error", err)
		}
		s.writeJSONError(w, status, err.Error())
		return
	}
	fav := favorites.FromCatalog(entry)
	s.favorites.Add(fav)
	s.writeJSON(w, http.StatusCreated, fav)
}

func (s *Server) apiRemoveFavorite(w http.ResponseWriter, r *http.Request, name string) {
	s.favorites.Remove(name)
	w.WriteHeader(http.StatusNoContent)
}
