/*
store.go - Persistence interface for ledger entries

PURPOSE:
  Defines the interface between the ledger and the database. The Store
  persists entries while maintaining append-only semantics. Implementations
  exist for SQLite (production) and in-memory (testing/dev).

APPEND-ONLY CONTRACT:
  - AppendBatch(): the ONLY write operation
  - NO Update() or Delete() methods exist, by design

ATOMIC BATCHES:
  AppendBatch() ensures all-or-nothing semantics. When a craft consumes
  three inputs and produces one output (4 entries), either all 4 are
  written or none are. Readers never observe consumption without its
  matching production.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go:  Production SQLite
  - ledger/store/memory.go:  In-memory for testing

SEE ALSO:
  - ledger.go: Higher-level write path using Store
*/
package ledger

import "context"

// =============================================================================
// STORE - Interface for entry persistence (append-only)
// =============================================================================

// Store handles persistence of ledger entries.
// IMPORTANT: Store is APPEND-ONLY. No Update, No Delete. Ever.
type Store interface {
	// AppendBatch persists all entries of a batch atomically.
	// Either every entry commits or none do.
	// This is the ONLY write operation.
	AppendBatch(ctx context.Context, batch Batch) error

	// LoadPoints returns all point entries for a user, oldest first.
	LoadPoints(ctx context.Context, userID UserID) ([]PointsEntry, error)

	// LoadItems returns all item entries for a user, oldest first.
	LoadItems(ctx context.Context, userID UserID) ([]ItemEntry, error)

	// LoadItemEntries returns a user's entries for one item, oldest first.
	LoadItemEntries(ctx context.Context, userID UserID, itemID ItemID) ([]ItemEntry, error)
}
