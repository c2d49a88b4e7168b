package statusicon

import (
	"fmt"
	"strings"
	"sync"
)

// Registry hands out [Item] instances by unique identifier. It enforces
// the preconditions the items themselves assume: identifiers are
// non-blank and unique among live items. Validation happens before any
// item is constructed, so a rejected call performs no bus I/O.
type Registry struct {
	mu    sync.RWMutex
	items map[string]*Item
}

// NewRegistry returns an empty [Registry].
func NewRegistry() *Registry {
	return &Registry{items: make(map[string]*Item)}
}

// Create validates opts.ID, constructs a new [Item], and records it
// under its identifier. Returns [ErrInvalidArgument] for a blank
// identifier and [ErrAlreadyExists] for a duplicate one.
//
// The returned item is not yet connected; call [Item.Init] on it.
func (r *Registry) Create(opts Options) (*Item, error) {
	if strings.TrimSpace(opts.ID) == "" {
		return nil, fmt.Errorf("%w: blank item identifier", ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[opts.ID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, opts.ID)
	}

	item := New(opts)
	r.items[opts.ID] = item

	return item, nil
}

// Get returns the live item registered under id, if any.
func (r *Registry) Get(id string) (*Item, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	return item, ok
}

// IDs returns a snapshot of the identifiers of live items.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.items))
	for id := range r.items {
		ids = append(ids, id)
	}

	return ids
}

// Remove disposes the item registered under id and forgets it. Removing
// an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	item, ok := r.items[id]
	delete(r.items, id)
	r.mu.Unlock()

	if ok {
		item.Dispose()
	}
}

// Close disposes every live item and empties the registry.
func (r *Registry) Close() {
	r.mu.Lock()
	items := r.items
	r.items = make(map[string]*Item)
	r.mu.Unlock()

	for _, item := range items {
		item.Dispose()
	}
}
