/*
redemption.go - Direct item redemption and promotional grants

PURPOSE:
  Redemption spends a user's points on one unit of an active catalog item.
  The debit (points) and the credit (item) are a single mixed batch under
  one transaction-group id; a failed commit leaves neither side behind.

  GrantPoints is the administrative counterpart: a bare positive point
  entry with the promotional-grant source kind.
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
// REDEEMER
// =============================================================================

type Redeemer struct {
	catalog  *catalog.Catalog
	ledger   ledger.Writer
	balances *ledger.BalanceCalculator
	locks    *ledger.UserLocks
	log      zerolog.Logger
}

func NewRedeemer(cat *catalog.Catalog, lw ledger.Writer, bc *ledger.BalanceCalculator, locks *ledger.UserLocks, log zerolog.Logger) *Redeemer {
	return &Redeemer{catalog: cat, ledger: lw, balances: bc, locks: locks, log: log}
}

// RedemptionResult is the outcome of a successful redemption.
type RedemptionResult struct {
	GroupID    ledger.GroupID `json:"transaction_group_id"`
	ItemID     ledger.ItemID  `json:"item_id"`
	PointsPaid int64          `json:"points_paid"`
}

// Redeem spends PointPrice points for one unit of an active item.
func (r *Redeemer) Redeem(ctx context.Context, userID ledger.UserID, itemID ledger.ItemID) (RedemptionResult, error) {
	item, err := r.catalog.ItemByID(ctx, itemID)
	if err != nil {
		return RedemptionResult{}, err
	}
	if !item.Active {
		return RedemptionResult{}, ErrItemNotRedeemable
	}

	unlock := r.locks.Lock(userID)
	defer unlock()

	balance, err := r.balances.PointsBalance(ctx, userID)
	if err != nil {
		return RedemptionResult{}, err
	}
	if balance < item.PointPrice {
		metrics.Redemptions.WithLabelValues("insufficient").Inc()
		return RedemptionResult{}, &InsufficientPointsError{
			ItemID:  itemID,
			Price:   item.PointPrice,
			Balance: balance,
		}
	}

	batch := ledger.Batch{
		Items: []ledger.ItemEntry{{
			UserID:    userID,
			ItemID:    itemID,
			Quantity:  1,
			Source:    ledger.ItemPurchaseRedemption,
			SourceRef: string(itemID),
		}},
	}
	// A free item has no points leg; the ledger rejects zero amounts.
	if item.PointPrice > 0 {
		batch.Points = []ledger.PointsEntry{{
			UserID:    userID,
			Amount:    -item.PointPrice,
			Source:    ledger.PointsPurchaseRedemption,
			SourceRef: string(itemID),
		}}
	}

	group, err := r.ledger.Write(ctx, batch)
	if err != nil {
		return RedemptionResult{}, err
	}

	r.log.Info().
		Str("user", string(userID)).
		Str("item", string(itemID)).
		Int64("price", item.PointPrice).
		Msg("redemption committed")

	metrics.Redemptions.WithLabelValues("ok").Inc()
	return RedemptionResult{GroupID: group, ItemID: itemID, PointsPaid: item.PointPrice}, nil
}

// GrantPoints writes a promotional point grant for a user. Amount must be
// positive; the ledger rejects zero and promotions never debit.
func (r *Redeemer) GrantPoints(ctx context.Context, userID ledger.UserID, amount int64, reason string) (ledger.GroupID, error) {
	if amount <= 0 {
		return "", &EntryAmountError{Amount: amount}
	}
	return r.ledger.Write(ctx, ledger.Batch{
		Points: []ledger.PointsEntry{{
			UserID:    userID,
			Amount:    amount,
			Source:    ledger.PointsPromotionalGrant,
			SourceRef: reason,
		}},
	})
}
