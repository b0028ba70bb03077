package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/quest-engine/ledger"
)

// =============================================================================
// POINTS BALANCE TESTS
// =============================================================================

func TestBalance_Points_SignedSum(t *testing.T) {
	// GIVEN: Credits and debits across several writes
	// WHEN: Computing the balance
	// THEN: It equals the signed sum of every entry

	led, mem := newTestLedger()
	bc := ledger.NewBalanceCalculator(mem)
	ctx := context.Background()

	for _, amount := range []int64{100, -30, 10, -5} {
		_, err := led.Write(ctx, ledger.Batch{Points: []ledger.PointsEntry{pointsEntry("u1", amount)}})
		require.NoError(t, err)
	}

	balance, err := bc.PointsBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(75), balance)
}

func TestBalance_Points_NoHistory_Zero(t *testing.T) {
	_, mem := newTestLedger()
	bc := ledger.NewBalanceCalculator(mem)

	balance, err := bc.PointsBalance(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestBalance_Points_CanGoNegativeByDesign(t *testing.T) {
	// The calculator reports whatever the log sums to. Overdraft
	// prevention lives in the engines, not here.

	led, mem := newTestLedger()
	bc := ledger.NewBalanceCalculator(mem)
	ctx := context.Background()

	_, err := led.Write(ctx, ledger.Batch{Points: []ledger.PointsEntry{
		{UserID: "u1", Amount: -40, Source: ledger.PointsPurchaseRedemption},
	}})
	require.NoError(t, err)

	balance, err := bc.PointsBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(-40), balance)
}

// =============================================================================
// ITEM QUANTITY TESTS
// =============================================================================

func TestBalance_ItemQuantities_NetPerItem(t *testing.T) {
	// GIVEN: Gains and consumptions across two items
	// WHEN: Computing quantities
	// THEN: Each item nets out independently, and a zero-net item still
	//       appears in the map

	led, mem := newTestLedger()
	bc := ledger.NewBalanceCalculator(mem)
	ctx := context.Background()

	_, err := led.Write(ctx, ledger.Batch{Items: []ledger.ItemEntry{
		itemEntry("u1", "coin", 5),
		itemEntry("u1", "gem", 2),
	}})
	require.NoError(t, err)
	_, err = led.Write(ctx, ledger.Batch{Items: []ledger.ItemEntry{
		itemEntry("u1", "coin", -5),
		itemEntry("u1", "gem", -1),
	}})
	require.NoError(t, err)

	quantities, err := bc.ItemQuantities(ctx, "u1")
	require.NoError(t, err)

	assert.Equal(t, int64(1), quantities["gem"])
	qty, ok := quantities["coin"]
	assert.True(t, ok, "zero-net item should still be present")
	assert.Zero(t, qty)
}

func TestBalance_ItemQuantity_SingleItem(t *testing.T) {
	led, mem := newTestLedger()
	bc := ledger.NewBalanceCalculator(mem)
	ctx := context.Background()

	_, err := led.Write(ctx, ledger.Batch{Items: []ledger.ItemEntry{itemEntry("u1", "coin", 3)}})
	require.NoError(t, err)

	qty, err := bc.ItemQuantity(ctx, "u1", "coin")
	require.NoError(t, err)
	assert.Equal(t, int64(3), qty)

	none, err := bc.ItemQuantity(ctx, "u1", "gem")
	require.NoError(t, err)
	assert.Zero(t, none)
}
