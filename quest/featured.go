/*
featured.go - Featured task membership test

PURPOSE:
  Answers one question for the completion orchestrator: is this task one
  of the user's chosen featured tasks for today? Featured completions go
  through the lottery reward path; plain ones get the fixed reward.

  The set itself is owned by the surrounding task-management system; this
  is a pure read.
*/
package quest

import (
	"context"
	"time"

	"github.com/warp/quest-engine/ledger"
)

// =============================================================================
// FEATURED TASK SELECTOR
// =============================================================================

type FeaturedTaskSelector struct {
	provider FeaturedProvider
	// now is injectable for day-boundary tests.
	now func() time.Time
}

func NewFeaturedTaskSelector(provider FeaturedProvider) *FeaturedTaskSelector {
	return &FeaturedTaskSelector{provider: provider, now: time.Now}
}

func NewFeaturedTaskSelectorWithClock(provider FeaturedProvider, now func() time.Time) *FeaturedTaskSelector {
	return &FeaturedTaskSelector{provider: provider, now: now}
}

// IsFeaturedToday reports whether taskID is in the user's featured set
// for the current date. No set for today means not featured.
func (s *FeaturedTaskSelector) IsFeaturedToday(ctx context.Context, userID ledger.UserID, taskID TaskID) (bool, error) {
	today := truncateToDay(s.now())
	ids, err := s.provider.FeaturedTaskIDs(ctx, userID, today)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == taskID {
			return true, nil
		}
	}
	return false, nil
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
