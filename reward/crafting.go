/*
crafting.go - Recipe-based crafting with all-or-nothing consistency

PURPOSE:
  A craft consumes every input of a recipe and produces one unit of its
  output item. The consumption entries and the production entry are tied
  by a single transaction-group id and committed in one atomic batch, so
  the ledger can never show inputs consumed without the output (or the
  reverse).

ALGORITHM:
  1. Load the recipe (catalog validates referential integrity).
  2. Check EVERY input's held quantity; collect all shortfalls.
  3. Any shortfall -> InsufficientMaterialsError, zero entries written.
  4. Otherwise write one batch: a negative entry per input plus one
     positive output entry, single Ledger.Write call.

CONCURRENCY:
  The check-then-write sequence runs under the user's lock. Two crafts
  racing for the same materials serialize; the loser sees the updated
  quantities and fails cleanly. There is no reserve-then-commit step and
  no optimistic retry.
*/
package reward

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/warp/quest-engine/catalog"
	"github.com/warp/quest-engine/ledger"
	"github.com/warp/quest-engine/metrics"
)

// =============================================================================
// CRAFTING ENGINE
// =============================================================================

type CraftingEngine struct {
	catalog  *catalog.Catalog
	ledger   ledger.Writer
	balances *ledger.BalanceCalculator
	locks    *ledger.UserLocks
	log      zerolog.Logger
}

func NewCraftingEngine(cat *catalog.Catalog, lw ledger.Writer, bc *ledger.BalanceCalculator, locks *ledger.UserLocks, log zerolog.Logger) *CraftingEngine {
	return &CraftingEngine{catalog: cat, ledger: lw, balances: bc, locks: locks, log: log}
}

// Consumed reports one consumed input of a successful craft.
type Consumed struct {
	ItemID   ledger.ItemID `json:"item_id"`
	Quantity int64         `json:"quantity"`
}

// Produced reports the output of a successful craft.
type Produced struct {
	ItemID   ledger.ItemID `json:"item_id"`
	Quantity int64         `json:"quantity"`
}

// CraftResult is the outcome of a successful craft.
type CraftResult struct {
	GroupID  ledger.GroupID `json:"transaction_group_id"`
	Consumed []Consumed     `json:"consumed"`
	Produced Produced       `json:"produced"`
}

// Craft executes a recipe for a user.
//
// Errors: catalog NotFound/Configuration errors pass through unmodified;
// InsufficientMaterialsError carries every shortfall; ledger write
// failures wrap ledger.ErrLedgerWrite.
func (e *CraftingEngine) Craft(ctx context.Context, userID ledger.UserID, recipeID string) (CraftResult, error) {
	recipe, err := e.catalog.RecipeByID(ctx, recipeID)
	if err != nil {
		return CraftResult{}, err
	}

	unlock := e.locks.Lock(userID)
	defer unlock()

	// Check every input before writing anything; collect every shortfall
	// so the caller can render the complete picture.
	var shortfalls []Shortfall
	for _, in := range recipe.Inputs {
		owned, err := e.balances.ItemQuantity(ctx, userID, in.ItemID)
		if err != nil {
			return CraftResult{}, err
		}
		if owned < in.Quantity {
			shortfalls = append(shortfalls, Shortfall{
				ItemID:   in.ItemID,
				Required: in.Quantity,
				Owned:    owned,
			})
		}
	}
	if len(shortfalls) > 0 {
		metrics.Crafts.WithLabelValues("insufficient").Inc()
		return CraftResult{}, &InsufficientMaterialsError{
			RecipeID:   recipeID,
			Shortfalls: shortfalls,
		}
	}

	batch := ledger.Batch{Items: make([]ledger.ItemEntry, 0, len(recipe.Inputs)+1)}
	for _, in := range recipe.Inputs {
		batch.Items = append(batch.Items, ledger.ItemEntry{
			UserID:    userID,
			ItemID:    in.ItemID,
			Quantity:  -in.Quantity,
			Source:    ledger.ItemCraftingConsume,
			SourceRef: recipeID,
		})
	}
	batch.Items = append(batch.Items, ledger.ItemEntry{
		UserID:    userID,
		ItemID:    recipe.OutputID,
		Quantity:  1,
		Source:    ledger.ItemCraftingProduce,
		SourceRef: recipeID,
	})

	group, err := e.ledger.Write(ctx, batch)
	if err != nil {
		return CraftResult{}, err
	}

	result := CraftResult{
		GroupID:  group,
		Consumed: make([]Consumed, len(recipe.Inputs)),
		Produced: Produced{ItemID: recipe.OutputID, Quantity: 1},
	}
	for i, in := range recipe.Inputs {
		result.Consumed[i] = Consumed{ItemID: in.ItemID, Quantity: in.Quantity}
	}

	e.log.Info().
		Str("user", string(userID)).
		Str("recipe", recipeID).
		Str("group", string(group)).
		Msg("craft committed")

	metrics.Crafts.WithLabelValues("ok").Inc()
	return result, nil
}
