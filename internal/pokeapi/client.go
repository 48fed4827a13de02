package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public PokéAPI endpoint.
	DefaultBaseURL = "https://pokeapi.co/api/v2"
	// DefaultListLimit is the page size used by the web UI if none is configured.
	DefaultListLimit = 50

	// Bodies larger than this are rejected as unparseable.
	maxBodySize = 8 << 20
)

var (
	// ErrRemoteUnavailable is returned when the catalog service answered with a
	// non-success status or the request could not be completed at all.
	ErrRemoteUnavailable = errors.New("catalog service unavailable")
	// ErrNotFound is returned by FetchEntry if the service has no such entry.
	ErrNotFound = errors.New("no such catalog entry")
	// ErrParse is returned when a response body does not have the expected shape.
	ErrParse = errors.New("unexpected catalog response")
)

// Operation names reported to an Observer.
const (
	OpList  = "list"
	OpFetch = "fetch"
)

// Observer is notified after every request the client makes.
// err is nil for successful requests.
type Observer interface {
	ObserveCatalogRequest(op string, duration time.Duration, err error)
}

// Client issues read-only queries against the catalog service.
// It does not retry, cache, or impose timeouts; callers control
// cancellation through the context they pass in.
type Client struct {
	baseURL    string
	httpClient *http.Client
	observer   Observer
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithObserver registers an observer that is told about every request.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// New returns a client for the catalog service at baseURL.
// An empty baseURL selects DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the catalog service URL without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListCatalog returns the first limit summaries of the catalog, in service order.
func (c *Client) ListCatalog(ctx context.Context, limit int) ([]Summary, error) {
	page, err := c.List(ctx, ListOptions{Limit: limit})
	if err != nil {
		return nil, err
	}
	return page.Results, nil
}

// List returns one page of catalog summaries.
// Any non-success status, including 404, is reported as ErrRemoteUnavailable.
func (c *Client) List(ctx context.Context, opts ListOptions) (page *Page, err error) {
	start := time.Now()
	defer func() { c.observe(OpList, start, err) }()

	q := url.Values{}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	u := c.baseURL + "/pokemon"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	body, status, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrRemoteUnavailable, u, status)
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrParse, u, err)
	}
	if resp.Results == nil {
		return nil, fmt.Errorf("%w: GET %s: missing results", ErrParse, u)
	}
	for i, s := range *resp.Results {
		if s.Name == "" {
			return nil, fmt.Errorf("%w: GET %s: result %d has no name", ErrParse, u, i)
		}
	}

	page = &Page{
		Count:   resp.Count,
		Results: *resp.Results,
	}
	if resp.Next != nil {
		page.Next = *resp.Next
	}
	if resp.Previous != nil {
		page.Previous = *resp.Previous
	}
	return page, nil
}

// FetchEntry returns the catalog entry with the given name or numeric ID.
// Names are matched case-insensitively.
func (c *Client) FetchEntry(ctx context.Context, nameOrID string) (entry *Entry, err error) {
	start := time.Now()
	defer func() { c.observe(OpFetch, start, err) }()

	key := strings.ToLower(strings.TrimSpace(nameOrID))
	if key == "" {
		return nil, fmt.Errorf("%w: empty name", ErrNotFound)
	}
	u := c.baseURL + "/pokemon/" + url.PathEscape(key)

	body, status, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, nameOrID)
	}
	if status < 200 || status > 299 {
		return nil, fmt.Errorf("%w: GET %s: status %d", ErrRemoteUnavailable, u, status)
	}

	entry, err = parseEntry(body)
	if err != nil {
		return nil, fmt.Errorf("%w: GET %s: %v", ErrParse, u, err)
	}
	return entry, nil
}

func parseEntry(body []byte) (*Entry, error) {
	var attrs map[string]json.RawMessage
	if err := json.Unmarshal(body, &attrs); err != nil {
		return nil, err
	}
	if attrs == nil {
		return nil, errors.New("body is not an object")
	}
	var resp entryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}
	if resp.Name == nil || *resp.Name == "" {
		return nil, errors.New("missing name")
	}
	if resp.ID == nil {
		return nil, errors.New("missing id")
	}

	e := &Entry{
		Name:       *resp.Name,
		ID:         *resp.ID,
		Attributes: attrs,
		Height:     resp.Height,
		Weight:     resp.Weight,
		Types:      resp.Types,
		Abilities:  resp.Abilities,
		Stats:      resp.Stats,
	}
	if resp.BaseExperience != nil {
		e.BaseExperience = *resp.BaseExperience
	}
	if resp.Sprites != nil {
		e.Sprites = *resp.Sprites
	}
	return e, nil
}

// get performs a GET request and returns the body and status code.
// Transport failures are wrapped as ErrRemoteUnavailable.
func (c *Client) get(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: GET %s: %v", ErrRemoteUnavailable, u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: GET %s: reading body: %v", ErrRemoteUnavailable, u, err)
	}
	if len(body) > maxBodySize {
		return nil, 0, fmt.Errorf("%w: GET %s: body exceeds %d bytes", ErrParse, u, maxBodySize)
	}
	c.logger.Debug("catalog request", "url", u, "status", resp.StatusCode, "bytes", len(body))
	return body, resp.StatusCode, nil
}

func (c *Client) observe(op string, start time.Time, err error) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveCatalogRequest(op, time.Since(start), err)
}
