/*
lottery.go - The featured-task lottery

PURPOSE:
  Decides between a fixed point bonus and a random item from the active
  catalog pool. One biased-coin draw at the configured win probability,
  independent of any state. A lottery must never return nothing: when the
  item side is drawn but the active pool is empty, the engine falls back
  to the fixed point bonus. The pool's population is an external
  configuration concern and must never cause a user-visible failure.

WRITES:
  The engine persists its own outcome through the ledger, so callers get
  back a committed result. Callers hold the user lock; the engine does
  not take it again.
*/
package reward

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/quest-engine/catalog"
	"github.com/warp/quest-engine/ledger"
	"github.com/warp/quest-engine/metrics"
)

// =============================================================================
// DRAW OUTCOME
// =============================================================================

type DrawType string

const (
	DrawPoints DrawType = "points"
	DrawItem   DrawType = "item"
)

// DrawResult is the committed outcome of one lottery draw.
type DrawResult struct {
	Type    DrawType       `json:"type"`
	Amount  int64          `json:"amount,omitempty"`  // set for points outcomes
	ItemID  ledger.ItemID  `json:"item_id,omitempty"` // set for item outcomes
	GroupID ledger.GroupID `json:"transaction_group_id"`

	// Fallback marks a points outcome forced by an empty item pool.
	Fallback bool `json:"fallback,omitempty"`
}

// =============================================================================
// LOTTERY ENGINE
// =============================================================================

type LotteryEngine struct {
	catalog *catalog.Catalog
	ledger  ledger.Writer
	config  Config
	rng     *rand.Rand
	log     zerolog.Logger
}

func NewLotteryEngine(cat *catalog.Catalog, lw ledger.Writer, cfg Config, log zerolog.Logger) *LotteryEngine {
	return &LotteryEngine{
		catalog: cat,
		ledger:  lw,
		config:  cfg,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		log:     log,
	}
}

// NewLotteryEngineWithRand creates an engine with a deterministic random
// source. Test use.
func NewLotteryEngineWithRand(cat *catalog.Catalog, lw ledger.Writer, cfg Config, rng *rand.Rand, log zerolog.Logger) *LotteryEngine {
	return &LotteryEngine{catalog: cat, ledger: lw, config: cfg, rng: rng, log: log}
}

// Draw runs one lottery draw for a user and persists the outcome.
// taskID is recorded as the source reference of the written entry.
//
// The only error surface is ledger/catalog I/O; an empty item pool is a
// normal fallback, never an error.
func (e *LotteryEngine) Draw(ctx context.Context, userID ledger.UserID, taskID string) (DrawResult, error) {
	roll := decimal.NewFromFloat(e.rng.Float64())
	if roll.LessThan(e.config.WinProbability) {
		return e.payPoints(ctx, userID, taskID, ledger.PointsFeaturedTaskReward, false)
	}

	pool, err := e.catalog.ActiveItems(ctx)
	if err != nil {
		return DrawResult{}, err
	}
	if len(pool) == 0 {
		e.log.Warn().Str("user", string(userID)).Msg("lottery item pool empty, paying point fallback")
		return e.payPoints(ctx, userID, taskID, ledger.PointsLotteryPayout, true)
	}

	won := pool[e.rng.Intn(len(pool))]
	group, err := e.ledger.Write(ctx, ledger.Batch{
		Items: []ledger.ItemEntry{{
			UserID:    userID,
			ItemID:    won.ID,
			Quantity:  1,
			Source:    ledger.ItemLotteryReward,
			SourceRef: taskID,
		}},
	})
	if err != nil {
		return DrawResult{}, err
	}

	e.log.Info().
		Str("user", string(userID)).
		Str("item", string(won.ID)).
		Str("group", string(group)).
		Msg("lottery item won")

	metrics.LotteryDraws.WithLabelValues("item").Inc()
	return DrawResult{Type: DrawItem, ItemID: won.ID, GroupID: group}, nil
}

func (e *LotteryEngine) payPoints(ctx context.Context, userID ledger.UserID, taskID string, source ledger.PointsSource, fallback bool) (DrawResult, error) {
	group, err := e.ledger.Write(ctx, ledger.Batch{
		Points: []ledger.PointsEntry{{
			UserID:    userID,
			Amount:    e.config.FeaturedBonus,
			Source:    source,
			SourceRef: taskID,
		}},
	})
	if err != nil {
		return DrawResult{}, err
	}
	if fallback {
		metrics.LotteryDraws.WithLabelValues("fallback").Inc()
	} else {
		metrics.LotteryDraws.WithLabelValues("points").Inc()
	}
	return DrawResult{
		Type:     DrawPoints,
		Amount:   e.config.FeaturedBonus,
		GroupID:  group,
		Fallback: fallback,
	}, nil
}
