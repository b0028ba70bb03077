package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/quest-engine/ledger"
	"github.com/warp/quest-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger() (*ledger.Ledger, *store.Memory) {
	mem := store.NewMemory()
	return ledger.New(mem), mem
}

func pointsEntry(userID string, amount int64) ledger.PointsEntry {
	return ledger.PointsEntry{
		UserID: ledger.UserID(userID),
		Amount: amount,
		Source: ledger.PointsTaskReward,
	}
}

func itemEntry(userID, itemID string, qty int64) ledger.ItemEntry {
	return ledger.ItemEntry{
		UserID:   ledger.UserID(userID),
		ItemID:   ledger.ItemID(itemID),
		Quantity: qty,
		Source:   ledger.ItemLotteryReward,
	}
}

// =============================================================================
// WRITE PATH TESTS
// =============================================================================

func TestLedger_Write_StampsGroupOnEveryEntry(t *testing.T) {
	// GIVEN: A mixed batch of two point entries and one item entry
	// WHEN: Writing the batch
	// THEN: Every committed entry carries the same group id, a unique
	//       entry id, and a creation timestamp

	led, mem := newTestLedger()
	ctx := context.Background()

	group, err := led.Write(ctx, ledger.Batch{
		Points: []ledger.PointsEntry{pointsEntry("u1", 10), pointsEntry("u1", -3)},
		Items:  []ledger.ItemEntry{itemEntry("u1", "sword", 1)},
	})
	require.NoError(t, err)
	require.NotEmpty(t, group)

	points, err := mem.LoadPoints(ctx, "u1")
	require.NoError(t, err)
	items, err := mem.LoadItems(ctx, "u1")
	require.NoError(t, err)

	require.Len(t, points, 2)
	require.Len(t, items, 1)

	seen := map[ledger.EntryID]bool{}
	for _, e := range points {
		assert.Equal(t, group, e.GroupID)
		assert.NotEmpty(t, e.ID)
		assert.False(t, e.CreatedAt.IsZero())
		assert.False(t, seen[e.ID], "entry ids must be unique")
		seen[e.ID] = true
	}
	assert.Equal(t, group, items[0].GroupID)
	assert.NotEmpty(t, items[0].ID)
	assert.False(t, seen[items[0].ID])
}

func TestLedger_Write_NewGroupPerBatch(t *testing.T) {
	// GIVEN: Two separate writes
	// WHEN: Each batch commits
	// THEN: The group ids differ

	led, _ := newTestLedger()
	ctx := context.Background()

	g1, err := led.Write(ctx, ledger.Batch{Points: []ledger.PointsEntry{pointsEntry("u1", 5)}})
	require.NoError(t, err)
	g2, err := led.Write(ctx, ledger.Batch{Points: []ledger.PointsEntry{pointsEntry("u1", 5)}})
	require.NoError(t, err)

	assert.NotEqual(t, g1, g2)
}

func TestLedger_Write_EmptyBatch_Rejected(t *testing.T) {
	led, _ := newTestLedger()

	_, err := led.Write(context.Background(), ledger.Batch{})
	assert.ErrorIs(t, err, ledger.ErrEmptyBatch)
}

func TestLedger_Write_ZeroAmount_Rejected(t *testing.T) {
	// GIVEN: A batch containing a zero-amount point entry
	// WHEN: Writing it
	// THEN: The write fails with an entry validation error and nothing
	//       is persisted

	led, mem := newTestLedger()
	ctx := context.Background()

	_, err := led.Write(ctx, ledger.Batch{
		Points: []ledger.PointsEntry{pointsEntry("u1", 0)},
	})

	assert.ErrorIs(t, err, ledger.ErrInvalidEntry)
	var entryErr *ledger.EntryError
	assert.ErrorAs(t, err, &entryErr)

	points, _ := mem.LoadPoints(ctx, "u1")
	assert.Empty(t, points)
}

func TestLedger_Write_MissingItemID_Rejected(t *testing.T) {
	led, _ := newTestLedger()

	_, err := led.Write(context.Background(), ledger.Batch{
		Items: []ledger.ItemEntry{itemEntry("u1", "", 1)},
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidEntry)
}

func TestLedger_Write_StoreFailure_NothingPersisted(t *testing.T) {
	// GIVEN: A store that fails the next append
	// WHEN: Writing a mixed batch
	// THEN: The error wraps ErrLedgerWrite and the ledger stays empty

	led, mem := newTestLedger()
	ctx := context.Background()

	mem.FailNextAppend(errors.New("disk full"))

	_, err := led.Write(ctx, ledger.Batch{
		Points: []ledger.PointsEntry{pointsEntry("u1", 10)},
		Items:  []ledger.ItemEntry{itemEntry("u1", "sword", 1)},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.ErrLedgerWrite)
	var writeErr *ledger.WriteError
	require.ErrorAs(t, err, &writeErr)
	assert.Equal(t, 2, writeErr.BatchSize)

	points, _ := mem.LoadPoints(ctx, "u1")
	items, _ := mem.LoadItems(ctx, "u1")
	assert.Empty(t, points)
	assert.Empty(t, items)
}

func TestLedger_Write_InjectedClock(t *testing.T) {
	// GIVEN: A ledger with a fixed clock
	// WHEN: Writing an entry
	// THEN: The committed entry carries the fixed UTC timestamp

	fixed := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	mem := store.NewMemory()
	led := ledger.NewWithClock(mem, func() time.Time { return fixed })
	ctx := context.Background()

	_, err := led.Write(ctx, ledger.Batch{Points: []ledger.PointsEntry{pointsEntry("u1", 7)}})
	require.NoError(t, err)

	points, _ := mem.LoadPoints(ctx, "u1")
	require.Len(t, points, 1)
	assert.Equal(t, fixed, points[0].CreatedAt)
}
