package item

import (
	"context"
	"sort"
	"sync"
)

// Repository defines the interface for item persistence.
//
// Update and Delete return ErrItemNotFound when the ID is absent, and must
// decide that atomically with the write.
type Repository interface {
	Create(ctx context.Context, it Item) error
	Get(ctx context.Context, id string) (Item, error)
	List(ctx context.Context) ([]Item, error)
	Update(ctx context.Context, it Item) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// MemoryRepository keeps items in a map for the process lifetime.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]Item
}

// NewMemoryRepository creates an empty in-memory item repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]Item)}
}

// Create stores it unless its ID is taken.
func (r *MemoryRepository) Create(_ context.Context, it Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[it.ID]; ok {
		return ErrItemExists
	}
	r.items[it.ID] = it
	return nil
}

// Get returns the item with id.
func (r *MemoryRepository) Get(_ context.Context, id string) (Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	it, ok := r.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return it, nil
}

// List returns every item ordered by name, then ID.
func (r *MemoryRepository) List(_ context.Context) ([]Item, error) {
	r.mu.RLock()
	items := make([]Item, 0, len(r.items))
	for _, it := range r.items {
		items = append(items, it)
	}
	r.mu.RUnlock()

	sortItems(items)
	return items, nil
}

// Update replaces the stored item with the same ID.
func (r *MemoryRepository) Update(_ context.Context, it Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[it.ID]; !ok {
		return ErrItemNotFound
	}
	r.items[it.ID] = it
	return nil
}

// Delete removes the item with id.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return ErrItemNotFound
	}
	delete(r.items, id)
	return nil
}

// Count returns the number of stored items.
func (r *MemoryRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

func sortItems(items []Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})
}
