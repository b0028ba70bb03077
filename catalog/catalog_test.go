package catalog_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/quest-engine/catalog"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestCatalog() (*catalog.Catalog, *catalog.MemorySource) {
	source := catalog.NewMemorySource()
	return catalog.New(source), source
}

// =============================================================================
// ITEM TESTS
// =============================================================================

func TestCatalog_ActiveItems_FiltersInactive(t *testing.T) {
	// GIVEN: Two active items and one inactive
	// WHEN: Listing the active pool
	// THEN: Only the active ones are returned

	cat, source := newTestCatalog()
	source.PutItem(catalog.Item{ID: "sword", Name: "Sword", Active: true})
	source.PutItem(catalog.Item{ID: "shield", Name: "Shield", Active: true})
	source.PutItem(catalog.Item{ID: "relic", Name: "Relic", Active: false})

	items, err := cat.ActiveItems(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	for _, it := range items {
		assert.True(t, it.Active)
	}
}

func TestCatalog_ItemByID_NotFound(t *testing.T) {
	cat, _ := newTestCatalog()

	_, err := cat.ItemByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	var nf *catalog.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

// =============================================================================
// RECIPE VALIDATION TESTS
// =============================================================================

func TestCatalog_RecipeByID_Valid(t *testing.T) {
	cat, source := newTestCatalog()
	source.PutItem(catalog.Item{ID: "wood", Name: "Wood"})
	source.PutItem(catalog.Item{ID: "sword", Name: "Sword"})
	source.PutRecipe(catalog.Recipe{
		ID: "r1", OutputID: "sword",
		Inputs: []catalog.RecipeInput{{ItemID: "wood", Quantity: 2}},
	})

	recipe, err := cat.RecipeByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Len(t, recipe.Inputs, 1)
}

func TestCatalog_RecipeByID_Unknown(t *testing.T) {
	cat, _ := newTestCatalog()

	_, err := cat.RecipeByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestCatalog_Recipe_EmptyInputs_Misconfigured(t *testing.T) {
	// A recipe with no inputs would mint items from nothing.

	cat, source := newTestCatalog()
	source.PutItem(catalog.Item{ID: "sword", Name: "Sword"})
	source.PutRecipe(catalog.Recipe{ID: "r1", OutputID: "sword"})

	_, err := cat.RecipeByID(context.Background(), "r1")
	assert.ErrorIs(t, err, catalog.ErrConfigurationInvalid)
}

func TestCatalog_Recipe_NonPositiveQuantity_Misconfigured(t *testing.T) {
	cat, source := newTestCatalog()
	source.PutItem(catalog.Item{ID: "wood", Name: "Wood"})
	source.PutItem(catalog.Item{ID: "sword", Name: "Sword"})
	source.PutRecipe(catalog.Recipe{
		ID: "r1", OutputID: "sword",
		Inputs: []catalog.RecipeInput{{ItemID: "wood", Quantity: 0}},
	})

	_, err := cat.RecipeByID(context.Background(), "r1")
	assert.ErrorIs(t, err, catalog.ErrConfigurationInvalid)
}

func TestCatalog_Recipe_UnknownInputItem_Misconfigured(t *testing.T) {
	// GIVEN: A recipe referencing an input item the catalog does not know
	// WHEN: Loading it
	// THEN: A configuration error names the recipe

	cat, source := newTestCatalog()
	source.PutItem(catalog.Item{ID: "sword", Name: "Sword"})
	source.PutRecipe(catalog.Recipe{
		ID: "r1", OutputID: "sword",
		Inputs: []catalog.RecipeInput{{ItemID: "mystery", Quantity: 1}},
	})

	_, err := cat.RecipeByID(context.Background(), "r1")
	assert.ErrorIs(t, err, catalog.ErrConfigurationInvalid)
	var cfgErr *catalog.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "r1", cfgErr.RecipeID)
}

func TestCatalog_Recipe_UnknownOutputItem_Misconfigured(t *testing.T) {
	cat, source := newTestCatalog()
	source.PutItem(catalog.Item{ID: "wood", Name: "Wood"})
	source.PutRecipe(catalog.Recipe{
		ID: "r1", OutputID: "ghost",
		Inputs: []catalog.RecipeInput{{ItemID: "wood", Quantity: 1}},
	})

	_, err := cat.RecipeByID(context.Background(), "r1")
	assert.ErrorIs(t, err, catalog.ErrConfigurationInvalid)
}
