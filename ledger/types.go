/*
Package ledger provides the append-only transaction log for the
gamification economy.

PURPOSE:
  This package contains the source of truth for everything a user owns:
  points and reward items. There is no stored balance anywhere in the
  system - a balance is always computed by summing ledger entries.

KEY CONCEPTS IN THIS FILE (types.go):
  - PointsEntry: an immutable signed change to a user's point balance
  - ItemEntry:   an immutable signed change to a user's held item quantity
  - Batch:       one or more entries (points and/or items mixed) that must
                 commit as a single atomic unit
  - GroupID:     the transaction-group identifier stamped on every entry
                 of a batch, tying a logical operation together

DESIGN PRINCIPLES:
  1. Immutability: Entries are never modified or deleted
  2. Derived balances: SUM over entries is the only balance definition
  3. Type safety: Strong typing for user/item/entry identifiers
  4. Auditability: Every entry carries its source kind and reference

SEE ALSO:
  - store.go:   Persistence interface (append-only)
  - ledger.go:  Write path that stamps group ids onto batches
  - balance.go: Read-side aggregation
*/
package ledger

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EntryID string
type UserID string
type ItemID string

// GroupID ties together all entries produced by one logical operation
// (a craft, a lottery draw, a redemption). Every committed entry has one,
// even entries written alone.
type GroupID string

// =============================================================================
// SOURCE KINDS - Why an entry exists
// =============================================================================

// PointsSource enumerates the origins of point balance changes.
type PointsSource string

const (
	PointsTaskReward         PointsSource = "task_reward"          // plain task completion
	PointsFeaturedTaskReward PointsSource = "featured_task_reward" // featured-task lottery point payout
	PointsLotteryPayout      PointsSource = "lottery_payout"       // empty-pool lottery fallback
	PointsPurchaseRedemption PointsSource = "purchase_redemption"  // spent on a catalog item
	PointsPromotionalGrant   PointsSource = "promotional_grant"    // admin grant
)

// ItemSource enumerates the origins of item quantity changes.
type ItemSource string

const (
	ItemLotteryReward      ItemSource = "lottery_reward"      // won in a featured-task draw
	ItemCraftingConsume    ItemSource = "crafting_consume"    // recipe input (negative)
	ItemCraftingProduce    ItemSource = "crafting_produce"    // recipe output (positive)
	ItemPurchaseRedemption ItemSource = "purchase_redemption" // bought with points
)

// =============================================================================
// ENTRIES - Immutable ledger rows
// =============================================================================

// PointsEntry records a single signed change to a user's point balance.
// A user's balance is SUM(Amount) over all their entries; no other field
// anywhere stores a balance.
type PointsEntry struct {
	ID        EntryID
	UserID    UserID
	Amount    int64 // positive = credit, negative = debit
	Source    PointsSource
	GroupID   GroupID
	SourceRef string // optional, e.g. the task id that earned the reward
	CreatedAt time.Time
}

// ItemEntry records a single signed change to a user's held quantity of
// one item. Held quantity is SUM(Quantity) over all entries for the
// (user, item) pair. It may only go negative transiently inside an
// uncommitted batch; engines pre-validate sufficiency so a committed
// ledger never shows a negative aggregate.
type ItemEntry struct {
	ID        EntryID
	UserID    UserID
	ItemID    ItemID
	Quantity  int64
	Source    ItemSource
	GroupID   GroupID
	SourceRef string
	CreatedAt time.Time
}

// =============================================================================
// BATCH - The atomic unit of writing
// =============================================================================

// Batch holds the entries of one logical operation. All of them commit
// together or not at all.
type Batch struct {
	Points []PointsEntry
	Items  []ItemEntry
}

// IsEmpty reports whether the batch contains no entries.
func (b Batch) IsEmpty() bool {
	return len(b.Points) == 0 && len(b.Items) == 0
}

// Size returns the total number of entries in the batch.
func (b Batch) Size() int {
	return len(b.Points) + len(b.Items)
}
