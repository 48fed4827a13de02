package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/dnswlt/pokedex/internal/pokeapi"
	"gopkg.in/yaml.v3"
)

// CatalogConfig configures access to the remote catalog service.
type CatalogConfig struct {
	BaseURL   string `yaml:"baseURL"`   // Base URL of the PokéAPI, e.g. "https://pokeapi.co/api/v2".
	ListLimit int    `yaml:"listLimit"` // Page size of the Pokédex listing.
}

// HelpLink is a custom link shown in the footer.
type HelpLink struct {
	Title string `yaml:"title"`
	URL   string `yaml:"url"`
}

// UIConfig has configuration that only affects the UI.
type UIConfig struct {
	Title string `yaml:"title"`
	// Markdown shown on the home page above the favorites.
	Welcome  string    `yaml:"welcome"`
	HelpLink *HelpLink `yaml:"helpLink"`
}

// Bundle is the umbrella struct for the serialized application configuration YAML.
type Bundle struct {
	Catalog CatalogConfig `yaml:"catalog"`
	UI      UIConfig      `yaml:"ui"`
}

const defaultWelcome = `Browse the **Pokédex** and collect your favorites.
Favorites live in memory only and are gone when the server restarts.`

// Default returns the configuration used when no config file is given.
func Default() *Bundle {
	return &Bundle{
		Catalog: CatalogConfig{
			BaseURL:   pokeapi.DefaultBaseURL,
			ListLimit: pokeapi.DefaultListLimit,
		},
		UI: UIConfig{
			Title:   "Pokédex",
			Welcome: defaultWelcome,
		},
	}
}

// Load reads the YAML configuration at path. Fields missing from the file
// keep their Default values. An empty path returns Default().
func Load(path string) (*Bundle, error) {
	if path == "" {
		return Default(), nil
	}
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config %q: %v", path, err)
	}
	bundle, err := Parse(bs)
	if err != nil {
		return nil, fmt.Errorf("invalid configuration YAML in %q: %w", path, err)
	}
	return bundle, nil
}

// Parse decodes and validates a YAML configuration. Unknown fields are rejected.
func Parse(bs []byte) (*Bundle, error) {
	bundle := Default()
	dec := yaml.NewDecoder(bytes.NewReader(bs))
	dec.KnownFields(true)
	if err := dec.Decode(bundle); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := bundle.Validate(); err != nil {
		return nil, err
	}
	return bundle, nil
}

// Validate checks the semantic constraints of the configuration.
func (b *Bundle) Validate() error {
	if b.Catalog.ListLimit <= 0 {
		return fmt.Errorf("catalog.listLimit must be positive, got %d", b.Catalog.ListLimit)
	}
	u, err := url.Parse(b.Catalog.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("catalog.baseURL must be an absolute http(s) URL, got %q", b.Catalog.BaseURL)
	}
	if h := b.UI.HelpLink; h != nil && h.URL == "" {
		return errors.New("ui.helpLink.url must not be empty")
	}
	return nil
}
