// Package favorites holds the in-memory list of favorite catalog entries.
//
// A Store is constructed explicitly and handed to every component that needs it.
// All reads go through List and friends, all writes through Add and Remove.
// Components that render favorites subscribe to the store and are called back
// after every mutation with a snapshot of the new state.
package favorites

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"

	"github.com/dnswlt/pokedex/internal/pokeapi"
)

// Entry is a favorite catalog entry. Name is its identity key.
type Entry struct {
	Name      string   `json:"name"`
	ID        int      `json:"id"`
	SpriteURL string   `json:"spriteUrl,omitempty"`
	Types     []string `json:"types,omitempty"`
}

// FromCatalog returns the favorite entry for a catalog entry.
func FromCatalog(e *pokeapi.Entry) Entry {
	return Entry{
		Name:      e.Name,
		ID:        e.ID,
		SpriteURL: e.Sprites.FrontDefault,
		Types:     e.TypeNames(),
	}
}

// QueryValues makes entries searchable by name, id, and type.
func (e Entry) QueryValues(attr string) ([]string, bool) {
	switch attr {
	case "", "name":
		return []string{e.Name}, true
	case "id":
		return []string{strconv.Itoa(e.ID)}, true
	case "type":
		return e.Types, true
	}
	return nil, false
}

func (e Entry) clone() Entry {
	e.Types = slices.Clone(e.Types)
	return e
}

type Op int

const (
	OpAdd Op = iota
	OpRemove
)

func (o Op) String() string {
	switch o {
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	}
	return "unknown"
}

// Event describes a single mutation of the store.
type Event struct {
	Op Op
	// Name of the added entry, or the name passed to Remove.
	Name string
	// Number of entries dropped by a Remove. Always 0 for OpAdd.
	Removed int
	// Snapshot of the favorites after the mutation.
	Favorites []Entry
}

// Observer is called after every mutation of the store it is subscribed to.
type Observer func(Event)

type subscription struct {
	id int
	fn Observer
}

// Store is a list of favorites that notifies subscribers of every change.
//
// A Store is safe for concurrent use. Observers run synchronously on the
// goroutine that performed the mutation, one mutation at a time and in
// subscription order. Observers must not call Add or Remove.
type Store struct {
	// notifyMu serializes mutations together with their notifications,
	// so observers see events in the order the mutations happened.
	notifyMu sync.Mutex

	mu          sync.Mutex // guards the fields below
	entries     []Entry
	subscribers []subscription
	nextID      int

	logger *slog.Logger
}

type Option func(*Store)

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends entry to the favorites. It does not check for an existing entry
// of the same name, so adding an entry twice yields two entries.
func (s *Store) Add(entry Entry) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.entries = append(s.entries, entry.clone())
	ev := Event{Op: OpAdd, Name: entry.Name, Favorites: s.snapshotLocked()}
	subs := slices.Clone(s.subscribers)
	s.mu.Unlock()

	s.logger.Debug("favorite added", "name", entry.Name, "count", len(ev.Favorites))
	notify(subs, ev)
}

// Remove drops all entries named name. Removing a name that is not present
// leaves the favorites unchanged; subscribers are notified in either case.
func (s *Store) Remove(name string) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	before := len(s.entries)
	kept := make([]Entry, 0, before)
	for _, e := range s.entries {
		if e.Name != name {
			kept = append(kept, e)
		}
	}
	s.entries = kept
	ev := Event{Op: OpRemove, Name: name, Removed: before - len(kept), Favorites: s.snapshotLocked()}
	subs := slices.Clone(s.subscribers)
	s.mu.Unlock()

	s.logger.Debug("favorite removed", "name", name, "removed", ev.Removed, "count", len(ev.Favorites))
	notify(subs, ev)
}

// List returns a snapshot of the favorites in insertion order.
// The result is owned by the caller.
func (s *Store) List() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Contains reports whether at least one entry is named name.
func (s *Store) Contains(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.ContainsFunc(s.entries, func(e Entry) bool { return e.Name == name })
}

// Len returns the number of entries, duplicates included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Subscribe registers fn to be called after every subsequent mutation.
// The returned function cancels the subscription; it may be called more than once.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers = append(s.subscribers, subscription{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.subscribers = slices.DeleteFunc(s.subscribers, func(sub subscription) bool {
			return sub.id == id
		})
	}
}

// Watch returns a channel that receives an Event for every subsequent mutation
// until ctx is done, at which point the channel is closed.
// If the channel's buffer is full, events are dropped rather than blocking
// the mutation; receivers that need the current state should call List.
func (s *Store) Watch(ctx context.Context, buffer int) <-chan Event {
	ch := make(chan Event, buffer)
	var mu sync.Mutex // guards closed and sends on ch
	closed := false
	cancel := s.Subscribe(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		if closed {
			return
		}
		select {
		case ch <- ev:
		default:
			s.logger.Debug("dropping favorites event for slow watcher", "op", ev.Op, "name", ev.Name)
		}
	})
	go func() {
		<-ctx.Done()
		cancel()
		mu.Lock()
		closed = true
		close(ch)
		mu.Unlock()
	}()
	return ch
}

func (s *Store) snapshotLocked() []Entry {
	return cloneEntries(s.entries)
}

// notify calls every subscriber with ev. Each subscriber except the last
// gets its own copy of the snapshot.
func notify(subs []subscription, ev Event) {
	snap := ev.Favorites
	for i, sub := range subs {
		if i < len(subs)-1 {
			ev.Favorites = cloneEntries(snap)
		} else {
			ev.Favorites = snap
		}
		sub.fn(ev)
	}
}

func cloneEntries(es []Entry) []Entry {
	out := make([]Entry, len(es))
	for i, e := range es {
		out[i] = e.clone()
	}
	return out
}
