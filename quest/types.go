/*
Package quest orchestrates task completion: reward issuance, the
permanent anti-replay claim, and completion-percentage propagation up the
task tree.

PURPOSE:
  The task tree itself (parents, children, titles, scheduling) is owned by
  the surrounding task-CRUD system. This package consumes a narrow view of
  it and writes back exactly three things: the completed flag, the derived
  completion percentage, and the permanent claim marker.

KEY CONCEPTS IN THIS FILE (types.go):
  - Task: the subset of a task row this core reads and writes
  - TaskStore: the consumed task-lookup/tree-query interface
  - FeaturedProvider: the consumed featured-task-set lookup

CLAIM SEMANTICS:
  ClaimedAt is once-set, never cleared. A task whose marker is non-nil can
  never issue a reward again, regardless of later completion-state toggles
  by the task-CRUD owner. The check is marker PRESENCE, never date
  equality: completing again on a later day is still blocked.
*/
package quest

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/quest-engine/ledger"
)

// =============================================================================
// TASK - The core's view of a task row
// =============================================================================

type TaskID string

type Task struct {
	ID       TaskID
	ParentID *TaskID // nil for roots

	// Completed is the completion state flag.
	Completed bool

	// CompletionPercentage is derived, never authored: the share of
	// completed leaf descendants, 0-100.
	CompletionPercentage decimal.Decimal

	// ClaimedAt is the permanent claim marker. Non-nil means the task
	// has issued its reward and never will again.
	ClaimedAt *time.Time
}

// Claimed reports whether the permanent claim marker is set.
func (t Task) Claimed() bool { return t.ClaimedAt != nil }

// =============================================================================
// CONSUMED INTERFACES - Owned by excluded collaborators
// =============================================================================

// TaskStore is the consumed task interface. Task and LeafDescendants are
// tree queries owned by the task-CRUD collaborator; the three write
// methods cover the only task columns this core touches.
type TaskStore interface {
	// Task returns one task or (Task{}, false, nil) when absent.
	Task(ctx context.Context, id TaskID) (Task, bool, error)

	// LeafDescendants returns every leaf task (no children) in the
	// subtree rooted at id, excluding id itself unless id is a leaf.
	LeafDescendants(ctx context.Context, id TaskID) ([]Task, error)

	// MarkClaimed sets the permanent claim marker. Implementations must
	// never clear an existing marker.
	MarkClaimed(ctx context.Context, id TaskID, at time.Time) error

	// SetCompleted updates the completion state flag.
	SetCompleted(ctx context.Context, id TaskID, completed bool) error

	// SetCompletionPercentage persists a recomputed percentage.
	SetCompletionPercentage(ctx context.Context, id TaskID, pct decimal.Decimal) error
}

// FeaturedProvider looks up the fixed-size set of task ids a user chose
// as featured for a given date. One set per (user, date); read-only here.
type FeaturedProvider interface {
	FeaturedTaskIDs(ctx context.Context, userID ledger.UserID, date time.Time) ([]TaskID, error)
}
