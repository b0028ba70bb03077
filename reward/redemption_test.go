package reward_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/quest-engine/catalog"
	"github.com/warp/quest-engine/ledger"
	"github.com/warp/quest-engine/ledger/store"
	"github.com/warp/quest-engine/reward"
)

// =============================================================================
// TEST SETUP
// =============================================================================

type redeemFixture struct {
	redeemer *reward.Redeemer
	ledger   *ledger.Ledger
	mem      *store.Memory
	source   *catalog.MemorySource
}

func newRedeemFixture() *redeemFixture {
	mem := store.NewMemory()
	led := ledger.New(mem)
	source := catalog.NewMemorySource()
	redeemer := reward.NewRedeemer(
		catalog.New(source), led,
		ledger.NewBalanceCalculator(mem), ledger.NewUserLocks(), zerolog.Nop(),
	)
	return &redeemFixture{redeemer: redeemer, ledger: led, mem: mem, source: source}
}

func (f *redeemFixture) grant(t *testing.T, userID string, amount int64) {
	t.Helper()
	_, err := f.redeemer.GrantPoints(context.Background(), ledger.UserID(userID), amount, "test grant")
	require.NoError(t, err)
}

// =============================================================================
// REDEMPTION TESTS
// =============================================================================

func TestRedeem_Success_MixedBatchOneGroup(t *testing.T) {
	// GIVEN: A user with 100 points and a 60-point item
	// WHEN: Redeeming
	// THEN: One group holds the point debit and the item credit, and the
	//       balance drops to 40

	f := newRedeemFixture()
	f.source.PutItem(catalog.Item{ID: "sword", Name: "Sword", PointPrice: 60, Active: true})
	ctx := context.Background()

	f.grant(t, "u1", 100)

	result, err := f.redeemer.Redeem(ctx, "u1", "sword")
	require.NoError(t, err)
	assert.Equal(t, int64(60), result.PointsPaid)

	points, _ := f.mem.LoadPoints(ctx, "u1")
	items, _ := f.mem.LoadItems(ctx, "u1")
	require.Len(t, points, 2) // grant + debit
	require.Len(t, items, 1)
	assert.Equal(t, result.GroupID, points[1].GroupID)
	assert.Equal(t, result.GroupID, items[0].GroupID)
	assert.Equal(t, ledger.PointsPurchaseRedemption, points[1].Source)
	assert.Equal(t, ledger.ItemPurchaseRedemption, items[0].Source)

	bc := ledger.NewBalanceCalculator(f.mem)
	balance, err := bc.PointsBalance(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)
}

func TestRedeem_InsufficientPoints_Rejected(t *testing.T) {
	// GIVEN: A user with fewer points than the price
	// WHEN: Redeeming
	// THEN: The error reports price and balance, and no entries appear

	f := newRedeemFixture()
	f.source.PutItem(catalog.Item{ID: "sword", Name: "Sword", PointPrice: 60, Active: true})
	ctx := context.Background()

	f.grant(t, "u1", 10)

	_, err := f.redeemer.Redeem(ctx, "u1", "sword")
	assert.ErrorIs(t, err, reward.ErrInsufficientPoints)

	var insuff *reward.InsufficientPointsError
	require.ErrorAs(t, err, &insuff)
	assert.Equal(t, int64(60), insuff.Price)
	assert.Equal(t, int64(10), insuff.Balance)

	items, _ := f.mem.LoadItems(ctx, "u1")
	assert.Empty(t, items)
}

func TestRedeem_FreeItem_NoPointsLeg(t *testing.T) {
	// GIVEN: An active item priced at zero and a user with no points
	// WHEN: Redeeming
	// THEN: The item entry is written on its own, nothing is charged, and
	//       the point balance stays untouched

	f := newRedeemFixture()
	f.source.PutItem(catalog.Item{ID: "pamphlet", Name: "Pamphlet", PointPrice: 0, Active: true})
	ctx := context.Background()

	result, err := f.redeemer.Redeem(ctx, "u1", "pamphlet")
	require.NoError(t, err)
	assert.Equal(t, int64(0), result.PointsPaid)

	points, _ := f.mem.LoadPoints(ctx, "u1")
	items, _ := f.mem.LoadItems(ctx, "u1")
	assert.Empty(t, points)
	require.Len(t, items, 1)
	assert.Equal(t, result.GroupID, items[0].GroupID)
	assert.Equal(t, ledger.ItemPurchaseRedemption, items[0].Source)
}

func TestRedeem_InactiveItem_Rejected(t *testing.T) {
	f := newRedeemFixture()
	f.source.PutItem(catalog.Item{ID: "relic", Name: "Relic", PointPrice: 5, Active: false})

	f.grant(t, "u1", 100)

	_, err := f.redeemer.Redeem(context.Background(), "u1", "relic")
	assert.ErrorIs(t, err, reward.ErrItemNotRedeemable)
}

func TestRedeem_UnknownItem_NotFound(t *testing.T) {
	f := newRedeemFixture()

	_, err := f.redeemer.Redeem(context.Background(), "u1", "ghost")
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestRedeem_LedgerFailure_NeitherSideWritten(t *testing.T) {
	// GIVEN: Enough points but a failing store
	// WHEN: Redeeming
	// THEN: Neither the debit nor the item credit survives

	f := newRedeemFixture()
	f.source.PutItem(catalog.Item{ID: "sword", Name: "Sword", PointPrice: 60, Active: true})
	ctx := context.Background()

	f.grant(t, "u1", 100)
	f.mem.FailNextAppend(errors.New("io error"))

	_, err := f.redeemer.Redeem(ctx, "u1", "sword")
	assert.ErrorIs(t, err, ledger.ErrLedgerWrite)

	bc := ledger.NewBalanceCalculator(f.mem)
	balance, _ := bc.PointsBalance(ctx, "u1")
	assert.Equal(t, int64(100), balance)
	items, _ := f.mem.LoadItems(ctx, "u1")
	assert.Empty(t, items)
}

// =============================================================================
// GRANT TESTS
// =============================================================================

func TestGrantPoints_WritesPromotionalEntry(t *testing.T) {
	f := newRedeemFixture()
	ctx := context.Background()

	group, err := f.redeemer.GrantPoints(ctx, "u1", 25, "season opener")
	require.NoError(t, err)
	require.NotEmpty(t, group)

	points, _ := f.mem.LoadPoints(ctx, "u1")
	require.Len(t, points, 1)
	assert.Equal(t, ledger.PointsPromotionalGrant, points[0].Source)
	assert.Equal(t, "season opener", points[0].SourceRef)
}

func TestGrantPoints_NonPositiveAmount_Rejected(t *testing.T) {
	f := newRedeemFixture()

	_, err := f.redeemer.GrantPoints(context.Background(), "u1", 0, "noop")
	assert.Error(t, err)
	_, err = f.redeemer.GrantPoints(context.Background(), "u1", -5, "clawback")
	assert.Error(t, err)
}
