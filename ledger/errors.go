/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All ledger-level error types in one place. Domain packages (reward,
  quest) wrap these with additional context where useful.

ERROR CATEGORIES:
  1. Write errors - Batch persistence failures (always full rollback)
  2. Validation errors - Malformed entries rejected before the store

USAGE:
  if errors.Is(err, ledger.ErrLedgerWrite) {
      // storage-level commit failure; nothing was persisted
  }
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrLedgerWrite is returned when a batch cannot be committed. The
	// contract is strict: on this error, no entry of the batch has been
	// persisted.
	ErrLedgerWrite = errors.New("ledger write failed")

	// ErrEmptyBatch is returned when Write is called with no entries.
	ErrEmptyBatch = errors.New("empty batch")

	// ErrInvalidEntry is returned when an entry is structurally invalid
	// (missing user id, missing item id, zero delta).
	ErrInvalidEntry = errors.New("invalid ledger entry")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// WriteError wraps a storage failure with the size of the rejected batch.
type WriteError struct {
	BatchSize int
	Err       error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("ledger write failed (%d entries rolled back): %v", e.BatchSize, e.Err)
}

func (e *WriteError) Unwrap() error { return ErrLedgerWrite }

// EntryError identifies which entry of a batch failed pre-write validation.
type EntryError struct {
	Index  int
	Reason string
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("invalid ledger entry at index %d: %s", e.Index, e.Reason)
}

func (e *EntryError) Unwrap() error { return ErrInvalidEntry }
