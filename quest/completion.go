/*
completion.go - Task completion orchestration

PURPOSE:
  The top-level use case of the reward engine. Completing a task:
  1. blocks permanently re-claimed tasks (marker presence, never dates),
  2. picks the reward path (plain fixed reward vs featured lottery),
  3. persists the reward through the ledger,
  4. sets the permanent claim marker and the completed flag,
  5. propagates completion percentages up the ancestor chain.

STATE MACHINE (per task, from this core's perspective):
  Claimable (ClaimedAt == nil) -> PermanentlyClaimed (ClaimedAt set).
  The second state is terminal for reward purposes, whatever the task-CRUD
  owner later does to the completion flag.

FAILURE SEMANTICS:
  Steps 2-4 abort the attempt: the marker is only set after the reward
  write committed, so a failed reward leaves the task claimable and
  re-attemptable. Step 5 failures are logged but never roll back the
  committed reward.
*/
package quest

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/quest-engine/ledger"
	"github.com/warp/quest-engine/metrics"
	"github.com/warp/quest-engine/reward"
)

// =============================================================================
// COMPLETION RESULT
// =============================================================================

type RewardType string

const (
	RewardNone   RewardType = "none" // already claimed
	RewardPoints RewardType = "points"
	RewardItem   RewardType = "item"
)

// CompletionResult is returned for every completion attempt, including
// repeats on an already-claimed task (a zero-amount success rather than
// an error, so callers need no special-case branch).
type CompletionResult struct {
	TaskID         TaskID         `json:"task_id"`
	RewardType     RewardType     `json:"reward_type"`
	Amount         int64          `json:"amount,omitempty"`
	ItemID         ledger.ItemID  `json:"item_id,omitempty"`
	GroupID        ledger.GroupID `json:"transaction_group_id,omitempty"`
	AlreadyClaimed bool           `json:"already_claimed,omitempty"`
	Featured       bool           `json:"featured,omitempty"`
}

// =============================================================================
// COMPLETION SERVICE - The orchestrator
// =============================================================================

type CompletionService struct {
	tasks    TaskStore
	featured *FeaturedTaskSelector
	lottery  *reward.LotteryEngine
	ledger   ledger.Writer
	progress *ProgressUpdater
	locks    *ledger.UserLocks
	config   reward.Config
	log      zerolog.Logger
	now      func() time.Time
}

func NewCompletionService(
	tasks TaskStore,
	featured *FeaturedTaskSelector,
	lottery *reward.LotteryEngine,
	lw ledger.Writer,
	locks *ledger.UserLocks,
	cfg reward.Config,
	log zerolog.Logger,
) *CompletionService {
	return &CompletionService{
		tasks:    tasks,
		featured: featured,
		lottery:  lottery,
		ledger:   lw,
		progress: NewProgressUpdater(tasks, log),
		locks:    locks,
		config:   cfg,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the service clock. Test use.
func (s *CompletionService) WithClock(now func() time.Time) *CompletionService {
	s.now = now
	return s
}

// CompleteTask runs the whole completion sequence for one task.
func (s *CompletionService) CompleteTask(ctx context.Context, userID ledger.UserID, taskID TaskID) (CompletionResult, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	task, ok, err := s.tasks.Task(ctx, taskID)
	if err != nil {
		return CompletionResult{}, err
	}
	if !ok {
		return CompletionResult{}, &TaskNotFoundError{TaskID: taskID}
	}

	// Sole anti-replay mechanism: marker presence. Deliberately NOT a
	// date comparison - a task claimed on day N stays claimed on day N+1
	// and forever after.
	if task.Claimed() {
		metrics.TasksAlreadyClaimed.Inc()
		return CompletionResult{
			TaskID:         taskID,
			RewardType:     RewardNone,
			AlreadyClaimed: true,
		}, nil
	}

	isFeatured, err := s.featured.IsFeaturedToday(ctx, userID, taskID)
	if err != nil {
		return CompletionResult{}, err
	}

	result := CompletionResult{TaskID: taskID, Featured: isFeatured}
	var lotteryFallback bool
	if isFeatured {
		draw, err := s.lottery.Draw(ctx, userID, string(taskID))
		if err != nil {
			return CompletionResult{}, err
		}
		result.GroupID = draw.GroupID
		lotteryFallback = draw.Fallback
		switch draw.Type {
		case reward.DrawItem:
			result.RewardType = RewardItem
			result.ItemID = draw.ItemID
		default:
			result.RewardType = RewardPoints
			result.Amount = draw.Amount
		}
	} else {
		group, err := s.ledger.Write(ctx, ledger.Batch{
			Points: []ledger.PointsEntry{{
				UserID:    userID,
				Amount:    s.config.PlainTaskReward,
				Source:    ledger.PointsTaskReward,
				SourceRef: string(taskID),
			}},
		})
		if err != nil {
			return CompletionResult{}, err
		}
		result.RewardType = RewardPoints
		result.Amount = s.config.PlainTaskReward
		result.GroupID = group
	}

	// The reward is committed; now seal the task. A failure here leaves
	// an issued reward on an unclaimed task, which we surface to the
	// caller rather than hide.
	claimedAt := s.now().UTC()
	if err := s.tasks.MarkClaimed(ctx, taskID, claimedAt); err != nil {
		s.log.Error().Err(err).Str("task", string(taskID)).Msg("claim marker write failed after reward commit")
		return CompletionResult{}, err
	}
	if err := s.tasks.SetCompleted(ctx, taskID, true); err != nil {
		s.log.Error().Err(err).Str("task", string(taskID)).Msg("completion state write failed")
		return CompletionResult{}, err
	}

	// Percentage propagation degrades gracefully: the completion event
	// is durable even when the tree walk fails.
	if err := s.progress.PropagateFrom(ctx, taskID); err != nil {
		s.log.Warn().Err(err).Str("task", string(taskID)).Msg("completion percentage propagation failed")
	}

	s.log.Info().
		Str("user", string(userID)).
		Str("task", string(taskID)).
		Str("reward", string(result.RewardType)).
		Bool("featured", isFeatured).
		Msg("task completed")

	switch {
	case !isFeatured:
		metrics.TasksCompleted.WithLabelValues("plain").Inc()
	case result.RewardType == RewardItem:
		metrics.TasksCompleted.WithLabelValues("lottery_item").Inc()
	case lotteryFallback:
		metrics.TasksCompleted.WithLabelValues("lottery_fallback").Inc()
	default:
		metrics.TasksCompleted.WithLabelValues("lottery_points").Inc()
	}

	return result, nil
}
