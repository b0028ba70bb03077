/*
progress.go - Completion-percentage propagation up the task tree

PURPOSE:
  When a leaf completes, every ancestor's completion percentage must be
  recomputed: completed leaf descendants over total leaf descendants,
  times 100 (0 when a node has no leaves). The tree is arbitrarily deep.

IMPLEMENTATION NOTE:
  The walk is an explicit upward loop with a visited set, not recursion.
  The task-CRUD owner maintains the tree acyclic, but a cycle introduced
  by a bug over there must degrade to a logged anomaly here, never a
  stack overflow or an infinite loop.

FAILURE POLICY:
  Propagation runs after the reward commit. Its failures are logged and
  swallowed - the completion event stays durable even if percentages lag.
*/
package quest

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// PROGRESS UPDATER
// =============================================================================

type ProgressUpdater struct {
	tasks TaskStore
	log   zerolog.Logger
}

func NewProgressUpdater(tasks TaskStore, log zerolog.Logger) *ProgressUpdater {
	return &ProgressUpdater{tasks: tasks, log: log}
}

// PropagateFrom recomputes the completion percentage of every ancestor of
// taskID, starting at its direct parent and walking to the root. Returns
// the first error encountered; callers decide whether to surface it (the
// completion orchestrator logs and moves on).
func (p *ProgressUpdater) PropagateFrom(ctx context.Context, taskID TaskID) error {
	task, ok, err := p.tasks.Task(ctx, taskID)
	if err != nil {
		return err
	}
	if !ok {
		return &TaskNotFoundError{TaskID: taskID}
	}

	visited := map[TaskID]bool{task.ID: true}
	current := task.ParentID

	for current != nil {
		id := *current
		if visited[id] {
			// A cycle can only come from a bug in the task-CRUD owner.
			// Log it and stop; percentages upstream of the cycle stay stale.
			p.log.Error().Str("task", string(id)).Msg("cycle detected in task tree, aborting percentage propagation")
			return nil
		}
		visited[id] = true

		node, ok, err := p.tasks.Task(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			p.log.Warn().Str("task", string(id)).Msg("ancestor vanished during percentage propagation")
			return nil
		}

		pct, err := p.recompute(ctx, id)
		if err != nil {
			return err
		}
		if err := p.tasks.SetCompletionPercentage(ctx, id, pct); err != nil {
			return err
		}

		current = node.ParentID
	}
	return nil
}

// recompute derives one node's percentage from its leaf descendants.
func (p *ProgressUpdater) recompute(ctx context.Context, id TaskID) (decimal.Decimal, error) {
	leaves, err := p.tasks.LeafDescendants(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	if len(leaves) == 0 {
		return decimal.Zero, nil
	}

	var completed int64
	for _, leaf := range leaves {
		if leaf.Completed {
			completed++
		}
	}

	return decimal.NewFromInt(completed).
		Div(decimal.NewFromInt(int64(len(leaves)))).
		Mul(hundred).
		Round(2), nil
}
