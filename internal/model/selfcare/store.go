package selfcare

// Store exposes self-care content retrieval for HTTP handlers.
type Store interface {
	List() []Item
	FindByID(id string) (Item, bool)
}

// MemoryStore implements Store with an in-memory slice, suitable for MVP.
type MemoryStore struct {
	items []Item
}

// NewMemoryStore returns a MemoryStore preloaded with the supplied items.
func NewMemoryStore(items []Item) *MemoryStore {
	return &MemoryStore{items: append([]Item(nil), items...)}
}

// List returns the seeded content list.
func (s *MemoryStore) List() []Item {
	return append([]Item(nil), s.items...)
}

// FindByID looks up an item by identifier.
func (s *MemoryStore) FindByID(id string) (Item, bool) {
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}
