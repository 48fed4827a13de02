package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dnswlt/pokedex"
	"github.com/dnswlt/pokedex/internal/config"
	"github.com/dnswlt/pokedex/internal/favorites"
	"github.com/dnswlt/pokedex/internal/pokeapi"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Catalog is the read-only view of the remote catalog that the server needs.
// *pokeapi.Client implements it.
type Catalog interface {
	List(ctx context.Context, opts pokeapi.ListOptions) (*pokeapi.Page, error)
	FetchEntry(ctx context.Context, nameOrID string) (*pokeapi.Entry, error)
}

type ServerOptions struct {
	Addr           string // E.g., "localhost:8080"
	BaseDir        string // Directory from which resources (templates etc.) are read.
	ListLimit      int    // Default page size of the Pokédex listing.
	EntryCacheSize int    // Number of fetched entries to keep in memory. 0 disables caching.
	UI             config.UIConfig
	// Source of the /metrics endpoint. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

type Server struct {
	opts       ServerOptions
	template   *template.Template
	catalog    Catalog
	favorites  *favorites.Store
	entryCache *lru.Cache[string, *pokeapi.Entry]
	logger     *slog.Logger
}

const (
	// Upper bound for the limit query parameter of the listing.
	maxListLimit = 2000
	// Interval of SSE comments that keep idle event streams open.
	sseKeepAlive = 30 * time.Second
	// Number of undelivered favorites events buffered per SSE client.
	sseBuffer = 16
)

func NewServer(opts ServerOptions, catalog Catalog, store *favorites.Store) (*Server, error) {
	if opts.ListLimit <= 0 {
		opts.ListLimit = pokeapi.DefaultListLimit
	}
	if opts.UI.Title == "" {
		opts.UI.Title = config.Default().UI.Title
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		opts:      opts,
		catalog:   catalog,
		favorites: store,
		logger:    logger,
	}
	if opts.EntryCacheSize > 0 {
		cache, err := lru.New[string, *pokeapi.Entry](opts.EntryCacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create entry cache: %v", err)
		}
		s.entryCache = cache
	}
	if err := s.reloadTemplates(); err != nil {
		return nil, err
	}
	return s, nil
}

// withRequestLogging wraps a handler and logs each request at debug level.
// Logs include method, path, status, remote address, and duration.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap ResponseWriter to capture status code
		lrw := &loggingResponseWriter{ResponseWriter: w}

		next.ServeHTTP(lrw, r)

		s.logger.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lrw.statusCode,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		)
	})
}

func (s *Server) reloadTemplates() error {
	tmpl := template.New("root")
	tmpl = tmpl.Funcs(map[string]any{
		"urlencode": urlencode,
		"markdown":  markdown,
		"decimal":   decimal,
		"percent":   percent,
	})
	var err error
	if s.opts.BaseDir == "" {
		s.template, err = tmpl.ParseFS(pokedex.Files, "templates/*.html")
	} else {
		s.template, err = tmpl.ParseGlob(path.Join(s.opts.BaseDir, "templates/*.html"))
	}
	return err
}

// fetchEntry returns the catalog entry for name, consulting the entry cache first.
func (s *Server) fetchEntry(ctx context.Context, name string) (*pokeapi.Entry, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if s.entryCache != nil {
		if e, ok := s.entryCache.Get(key); ok {
			return e, nil
		}
	}
	e, err := s.catalog.FetchEntry(ctx, key)
	if err != nil {
		return nil, err
	}
	if s.entryCache != nil {
		s.entryCache.Add(key, e)
		if e.Name != key {
			// Entries fetched by ID are also found by name.
			s.entryCache.Add(e.Name, e)
		}
	}
	return e, nil
}

// catalogErrorStatus maps catalog client errors to HTTP status codes.
func catalogErrorStatus(err error) int {
	switch {
	case errors.Is(err, pokeapi.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pokeapi.ErrRemoteUnavailable), errors.Is(err, pokeapi.ErrParse):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled):
		// Client went away; the status is never seen.
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (s *Server) serveCatalogError(w http.ResponseWriter, r *http.Request, err error) {
	status := catalogErrorStatus(err)
	if status == http.StatusNotFound {
		s.logger.Debug("Catalog entry not found", "path", r.URL.Path, "error", err)
	} else {
		s.logger.Error("Catalog request failed", "path", r.URL.Path, "error", err)
	}
	msg := http.StatusText(status)
	switch status {
	case http.StatusNotFound:
		msg = "No such Pokémon"
	case http.StatusBadGateway:
		msg = "The Pokédex service is currently unavailable"
	}
	if isHX(r) {
		w.Header().Set("Content-Type", "text/html; charset=UTF-8")
		w.WriteHeader(status)
		s.renderErrorSnippet(w, msg)
		return
	}
	http.Error(w, msg, status)
}

func isHX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func (s *Server) renderErrorSnippet(w http.ResponseWriter, errorMsg string) {
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	if err := s.template.ExecuteTemplate(w, "_error.html", map[string]any{
		"Error": errorMsg,
	}); err != nil {
		s.logger.Error("Failed to render error snippet", "error", err)
	}
}

func (s *Server) serveHTMLPage(w http.ResponseWriter, r *http.Request, templateFile string, params map[string]any) {
	var output bytes.Buffer
	nav := NewNavBar(
		NavItem("/ui/home", "Home"),
		NavItem("/ui/pokedex", "Pokédex"),
	).SetActive(r.URL.Path)
	templateParams := map[string]any{
		"Now":      time.Now().Format("2006-01-02 15:04:05"),
		"NavBar":   nav,
		"Title":    s.opts.UI.Title,
		"HelpLink": s.opts.UI.HelpLink,
	}
	maps.Copy(templateParams, params)
	err := s.template.ExecuteTemplate(&output, templateFile, templateParams)
	if err != nil {
		s.logger.Error("Failed to render template", "template", templateFile, "error", err)
		http.Error(w, "Template rendering error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=UTF-8")
	w.Write(output.Bytes())
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Home and Pokédex pages
	mux.HandleFunc("GET /ui/home", s.serveHome)
	mux.HandleFunc("GET /ui/pokedex", s.servePokedex)
	mux.HandleFunc("GET /ui/pokedex/{name}", func(w http.ResponseWriter, r *http.Request) {
		s.servePokemon(w, r, r.PathValue("name"))
	})

	// Favorites panel and mutations
	mux.HandleFunc("GET /ui/favorites", s.serveFavoritesPanel)
	mux.HandleFunc("POST /ui/favorites", s.addFavorite)
	mux.HandleFunc("POST /ui/favorites/{name}/delete", func(w http.ResponseWriter, r *http.Request) {
		s.removeFavorite(w, r, r.PathValue("name"))
	})
	mux.HandleFunc("GET /ui/favorites/events", s.serveFavoritesEvents)

	// JSON API
	mux.HandleFunc("GET /api/favorites", s.apiListFavorites)
	mux.HandleFunc("POST /api/favorites", s.apiAddFavorite)
	mux.HandleFunc("DELETE /api/favorites/{name}", func(w http.ResponseWriter, r *http.Request) {
		s.apiRemoveFavorite(w, r, r.PathValue("name"))
	})

	mux.Handle("GET /metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))

	// Health check. Useful for cloud deployments.
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "OK")
	})

	// Static resources (JavaScript, CSS, etc.)
	if s.opts.BaseDir == "" {
		mux.Handle("GET /static/", http.FileServer(http.FS(pokedex.Files)))
	} else {
		staticFS := http.Dir(path.Join(s.opts.BaseDir, "static"))
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(staticFS)))
	}

	// Default route (all other paths): redirect to the UI home page
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "", http.StatusBadRequest)
			return
		}
		if isHX(r) {
			// Do not redirect htmx requests, those should only request valid paths.
			http.Error(w, "", http.StatusNotFound)
			return
		}
		refererURL, err := url.Parse(r.Header.Get("Referer"))
		if err == nil && refererURL.Host == r.Host {
			// Request is coming from our own domain: this indicates an internal broken link.
			http.Error(w, "Broken link", http.StatusNotFound)
			return
		}
		// Redirect GET to the UI home page.
		http.Redirect(w, r, "/ui/home", http.StatusTemporaryRedirect)
	})

	return mux
}

// Serve starts the HTTP server on s.opts.Addr using the wrapped handler.
func (s *Server) Serve() error {
	handler := s.Handler()
	s.logger.Info("Pokédex server listening", "url", "http://"+s.opts.Addr)
	return http.ListenAndServe(s.opts.Addr, handler)
}

func (s *Server) Handler() http.Handler {
	return s.withRequestLogging(s.routes())
}
