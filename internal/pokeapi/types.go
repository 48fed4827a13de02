// Package pokeapi is a minimal read-only client for the PokéAPI catalog service.
//
// It exposes two queries, a paged listing of catalog summaries and a single-entry
// fetch by name or numeric ID. Responses are decoded into explicit result types;
// bodies that do not have the expected shape are reported as ErrParse.
package pokeapi

import (
	"encoding/json"
	"strconv"
)

// Summary is one element of a catalog listing.
type Summary struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// QueryValues returns the values of s that can be matched by search queries.
// The empty attribute denotes the default (name) match.
func (s Summary) QueryValues(attr string) ([]string, bool) {
	switch attr {
	case "", "name":
		return []string{s.Name}, true
	}
	return nil, false
}

// Page is a single page of a catalog listing.
type Page struct {
	Count    int       // Total number of entries in the catalog.
	Next     string    // URL of the next page, empty on the last page.
	Previous string    // URL of the previous page, empty on the first page.
	Results  []Summary // Summaries in service order.
}

// ListOptions control paging of List.
type ListOptions struct {
	Limit  int
	Offset int
}

// NamedRef is a name/URL pair as used throughout the PokéAPI for references
// to other resources (types, abilities, stats).
type NamedRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type TypeSlot struct {
	Slot int      `json:"slot"`
	Type NamedRef `json:"type"`
}

type AbilitySlot struct {
	Ability  NamedRef `json:"ability"`
	IsHidden bool     `json:"is_hidden"`
	Slot     int      `json:"slot"`
}

type Stat struct {
	BaseStat int      `json:"base_stat"`
	Effort   int      `json:"effort"`
	Stat     NamedRef `json:"stat"`
}

type Sprites struct {
	FrontDefault string `json:"front_default"`
	FrontShiny   string `json:"front_shiny"`
}

// Entry is a single catalog entry.
//
// Name and ID are always set. Attributes holds every top-level field of the
// service response, undecoded. The remaining fields are a typed view of the
// attributes the UI renders; they are zero when absent from the response.
type Entry struct {
	Name       string
	ID         int
	Attributes map[string]json.RawMessage

	Height         int
	Weight         int
	BaseExperience int
	Types          []TypeSlot
	Abilities      []AbilitySlot
	Stats          []Stat
	Sprites        Sprites
}

// TypeNames returns the names of e's types in slot order.
func (e *Entry) TypeNames() []string {
	names := make([]string, 0, len(e.Types))
	for _, t := range e.Types {
		names = append(names, t.Type.Name)
	}
	return names
}

// Attribute returns the raw JSON of the top-level attribute key, or "" if absent.
func (e *Entry) Attribute(key string) string {
	if raw, ok := e.Attributes[key]; ok {
		return string(raw)
	}
	return ""
}

// DisplayID formats the ID the way the Pokédex does, e.g. "#025".
func (e *Entry) DisplayID() string {
	s := strconv.Itoa(e.ID)
	for len(s) < 3 {
		s = "0" + s
	}
	return "#" + s
}

// listResponse is the wire format of the listing endpoint.
// Results is a pointer so that a missing field can be told apart from an empty list.
type listResponse struct {
	Count    int        `json:"count"`
	Next     *string    `json:"next"`
	Previous *string    `json:"previous"`
	Results  *[]Summary `json:"results"`
}

// entryResponse is the wire format of the fields of a single entry that are
// decoded into typed Entry fields.
type entryResponse struct {
	Name           *string       `json:"name"`
	ID             *int          `json:"id"`
	Height         int           `json:"height"`
	Weight         int           `json:"weight"`
	BaseExperience *int          `json:"base_experience"`
	Types          []TypeSlot    `json:"types"`
	Abilities      []AbilitySlot `json:"abilities"`
	Stats          []Stat        `json:"stats"`
	Sprites        *Sprites      `json:"sprites"`
}
