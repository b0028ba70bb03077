/*
ledger.go - The write path: group-id stamping and atomic commits

PURPOSE:
  The Ledger is the single entry point for writing to the economy. Every
  reward, craft, redemption, and grant goes through Write(), which stamps
  one freshly generated transaction-group id onto every entry of the batch
  and commits them as a unit.

CRITICAL INVARIANTS:
  1. APPEND-ONLY: No Update, No Delete. EVER.
  2. ATOMIC: A batch commits fully or not at all.
  3. UNIFORM AUDITABILITY: Even single-entry writes get a group id, so
     every committed entry can be traced to the operation that produced it.

FAILURE MODE:
  Any storage failure surfaces as a WriteError wrapping ErrLedgerWrite,
  and the caller may assume nothing was persisted.

SEE ALSO:
  - store.go:   Low-level persistence interface
  - balance.go: Read-side aggregation over committed entries
*/
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/warp/quest-engine/metrics"
)

// =============================================================================
// WRITER - Contract exposed to the engines
// =============================================================================

// Writer is the write-side contract of the ledger. Engines depend on this
// rather than on a concrete store.
type Writer interface {
	// Write commits a batch atomically and returns the transaction-group
	// id stamped onto every entry. On error nothing was persisted.
	Write(ctx context.Context, batch Batch) (GroupID, error)
}

// =============================================================================
// LEDGER - Default Writer over a Store
// =============================================================================

type Ledger struct {
	store Store
	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

func New(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// NewWithClock creates a Ledger with a custom clock. Test use.
func NewWithClock(store Store, now func() time.Time) *Ledger {
	return &Ledger{store: store, now: now}
}

// Write validates the batch, stamps it with a new group id, fills in entry
// ids and creation timestamps, and commits it atomically.
func (l *Ledger) Write(ctx context.Context, batch Batch) (GroupID, error) {
	if batch.IsEmpty() {
		return "", ErrEmptyBatch
	}
	if err := validateBatch(batch); err != nil {
		return "", err
	}

	group := GroupID(uuid.NewString())
	now := l.now().UTC()

	stamped := Batch{
		Points: make([]PointsEntry, len(batch.Points)),
		Items:  make([]ItemEntry, len(batch.Items)),
	}
	for i, e := range batch.Points {
		e.ID = EntryID(uuid.NewString())
		e.GroupID = group
		e.CreatedAt = now
		stamped.Points[i] = e
	}
	for i, e := range batch.Items {
		e.ID = EntryID(uuid.NewString())
		e.GroupID = group
		e.CreatedAt = now
		stamped.Items[i] = e
	}

	if err := l.store.AppendBatch(ctx, stamped); err != nil {
		metrics.LedgerBatches.WithLabelValues("error").Inc()
		return "", &WriteError{BatchSize: stamped.Size(), Err: err}
	}
	metrics.LedgerBatches.WithLabelValues("ok").Inc()
	return group, nil
}

// validateBatch rejects structurally broken entries before they reach the
// store. An amount of zero is meaningless in an append-only log and almost
// always indicates a caller bug.
func validateBatch(batch Batch) error {
	idx := 0
	for _, e := range batch.Points {
		switch {
		case e.UserID == "":
			return &EntryError{Index: idx, Reason: "missing user id"}
		case e.Amount == 0:
			return &EntryError{Index: idx, Reason: "zero amount"}
		case e.Source == "":
			return &EntryError{Index: idx, Reason: "missing source kind"}
		}
		idx++
	}
	for _, e := range batch.Items {
		switch {
		case e.UserID == "":
			return &EntryError{Index: idx, Reason: "missing user id"}
		case e.ItemID == "":
			return &EntryError{Index: idx, Reason: "missing item id"}
		case e.Quantity == 0:
			return &EntryError{Index: idx, Reason: "zero quantity"}
		case e.Source == "":
			return &EntryError{Index: idx, Reason: "missing source kind"}
		}
		idx++
	}
	return nil
}
