/*
Package catalog provides the read-only registry of reward items and
crafting recipes.

PURPOSE:
  The catalog answers three questions for the engines:
  - Which items are currently in the lottery pool? (ActiveItems)
  - What is this item? (ItemByID)
  - What does this recipe consume and produce? (RecipeByID)

  It performs pure lookups with no side effects. Mutating the catalog
  (creating items, toggling the active flag, defining recipes) is an
  administrative concern handled by the backing Source.

REFERENTIAL INTEGRITY:
  A recipe that references a non-existent item is a configuration bug.
  The catalog surfaces it loudly at read time as a ConfigurationError
  instead of silently letting a craft write entries for phantom items.

ACTIVE FLAG:
  Only active items participate in the lottery pool and are redeemable.
  Deactivating an item never invalidates historical ledger entries; the
  ledger keeps referring to it by id.
*/
package catalog

import (
	"context"

	"github.com/warp/quest-engine/ledger"
)

// =============================================================================
// CATALOG ROWS
// =============================================================================

// Item is a catalog row describing a reward item.
type Item struct {
	ID         ledger.ItemID
	Name       string
	PointPrice int64 // cost for direct redemption
	Active     bool
}

// RecipeInput is one (item, required quantity) pair of a recipe.
type RecipeInput struct {
	ItemID   ledger.ItemID
	Quantity int64
}

// Recipe describes a craft: consume every input, produce one output item.
type Recipe struct {
	ID       string
	OutputID ledger.ItemID
	Inputs   []RecipeInput // ordered as authored
}

// =============================================================================
// SOURCE - Backing storage for catalog rows
// =============================================================================

// Source is the persistence interface the catalog reads from. Implemented
// by the SQLite store and by the in-memory source for tests.
type Source interface {
	Items(ctx context.Context) ([]Item, error)
	Item(ctx context.Context, id ledger.ItemID) (Item, bool, error)
	Recipe(ctx context.Context, id string) (Recipe, bool, error)
}

// =============================================================================
// CATALOG - Validated lookups over a Source
// =============================================================================

type Catalog struct {
	source Source
}

func New(source Source) *Catalog {
	return &Catalog{source: source}
}

// ActiveItems returns all items with Active=true. These are the lottery
// pool and the redeemable set.
func (c *Catalog) ActiveItems(ctx context.Context) ([]Item, error) {
	items, err := c.source.Items(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]Item, 0, len(items))
	for _, it := range items {
		if it.Active {
			active = append(active, it)
		}
	}
	return active, nil
}

// ItemByID returns one item; unknown ids yield a NotFoundError.
func (c *Catalog) ItemByID(ctx context.Context, id ledger.ItemID) (Item, error) {
	item, ok, err := c.source.Item(ctx, id)
	if err != nil {
		return Item{}, err
	}
	if !ok {
		return Item{}, &NotFoundError{Kind: "item", ID: string(id)}
	}
	return item, nil
}

// RecipeByID returns one recipe; unknown ids yield a NotFoundError. Every item the
// recipe references is checked against the catalog; a dangling reference
// is surfaced as a ConfigurationError rather than ignored.
func (c *Catalog) RecipeByID(ctx context.Context, id string) (Recipe, error) {
	recipe, ok, err := c.source.Recipe(ctx, id)
	if err != nil {
		return Recipe{}, err
	}
	if !ok {
		return Recipe{}, &NotFoundError{Kind: "recipe", ID: id}
	}
	if err := c.validateRecipe(ctx, recipe); err != nil {
		return Recipe{}, err
	}
	return recipe, nil
}

func (c *Catalog) validateRecipe(ctx context.Context, recipe Recipe) error {
	if len(recipe.Inputs) == 0 {
		return &ConfigurationError{
			RecipeID: recipe.ID,
			Detail:   "recipe has no inputs",
		}
	}
	if _, ok, err := c.source.Item(ctx, recipe.OutputID); err != nil {
		return err
	} else if !ok {
		return &ConfigurationError{
			RecipeID: recipe.ID,
			Detail:   "output item does not exist: " + string(recipe.OutputID),
		}
	}
	for _, in := range recipe.Inputs {
		if in.Quantity <= 0 {
			return &ConfigurationError{
				RecipeID: recipe.ID,
				Detail:   "non-positive input quantity for " + string(in.ItemID),
			}
		}
		if _, ok, err := c.source.Item(ctx, in.ItemID); err != nil {
			return err
		} else if !ok {
			return &ConfigurationError{
				RecipeID: recipe.ID,
				Detail:   "input item does not exist: " + string(in.ItemID),
			}
		}
	}
	return nil
}
