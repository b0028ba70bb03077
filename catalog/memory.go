package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/quest-engine/ledger"
)

// =============================================================================
// MEMORY SOURCE - In-memory Source (for testing/dev)
// =============================================================================

type MemorySource struct {
	mu      sync.RWMutex
	items   map[ledger.ItemID]Item
	recipes map[string]Recipe
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		items:   make(map[ledger.ItemID]Item),
		recipes: make(map[string]Recipe),
	}
}

// PutItem inserts or replaces an item.
func (s *MemorySource) PutItem(item Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[item.ID] = item
}

// PutRecipe inserts or replaces a recipe. No validation here; the Catalog
// validates at read time so misconfiguration tests can set up bad data.
func (s *MemorySource) PutRecipe(recipe Recipe) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes[recipe.ID] = recipe
}

func (s *MemorySource) Items(_ context.Context) ([]Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]Item, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return items, nil
}

func (s *MemorySource) Item(_ context.Context, id ledger.ItemID) (Item, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	return item, ok, nil
}

func (s *MemorySource) Recipe(_ context.Context, id string) (Recipe, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recipe, ok := s.recipes[id]
	return recipe, ok, nil
}
