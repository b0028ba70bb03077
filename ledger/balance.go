/*
balance.go - Balance calculation

PURPOSE:
  Answers "how many points does this user have?" and "how many of item X
  does this user hold?" by replaying the ledger. This is the central
  read-side calculation.

KEY INSIGHT:
  Balances are derived values. The calculator MUST NOT cache or memoize
  across calls - every call reflects the latest committed ledger state.
  Any cached balance elsewhere would be an optimization layered on top,
  never authoritative.

NO-HISTORY SEMANTICS:
  A user or item with no entries has balance 0. That is a normal answer,
  not an error.

SEE ALSO:
  - ledger.go: The write path that feeds these aggregates
*/
package ledger

import "context"

// =============================================================================
// BALANCE CALCULATOR - Pure aggregation over the Store
// =============================================================================

type BalanceCalculator struct {
	store Store
}

func NewBalanceCalculator(store Store) *BalanceCalculator {
	return &BalanceCalculator{store: store}
}

// PointsBalance returns the signed sum of all point entries for a user.
func (bc *BalanceCalculator) PointsBalance(ctx context.Context, userID UserID) (int64, error) {
	entries, err := bc.store.LoadPoints(ctx, userID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.Amount
	}
	return total, nil
}

// ItemQuantities returns the held quantity of every item the user has
// ledger history for. Items whose entries net to zero are included with
// quantity 0 so callers can distinguish "never held" from "held and spent".
func (bc *BalanceCalculator) ItemQuantities(ctx context.Context, userID UserID) (map[ItemID]int64, error) {
	entries, err := bc.store.LoadItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	quantities := make(map[ItemID]int64)
	for _, e := range entries {
		quantities[e.ItemID] += e.Quantity
	}
	return quantities, nil
}

// ItemQuantity returns the held quantity of one item. Zero for no history.
func (bc *BalanceCalculator) ItemQuantity(ctx context.Context, userID UserID, itemID ItemID) (int64, error) {
	entries, err := bc.store.LoadItemEntries(ctx, userID, itemID)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, e := range entries {
		total += e.Quantity
	}
	return total, nil
}
