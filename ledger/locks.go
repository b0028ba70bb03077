/*
locks.go - Per-user serialization of check-then-write sequences

PURPOSE:
  Balances are computed, not stored, so there is no row to lock. Instead,
  every logical operation (craft, redemption, task completion) performs
  its "check sufficiency, then write" sequence while holding that user's
  lock. Two concurrent operations against the same user can therefore
  never both pass a sufficiency check and both subtract below zero.

  This is a hard correctness requirement, not an optimization.

OWNERSHIP:
  The lock is acquired by the outermost operation. Engines that are only
  ever called from a locked context (LotteryEngine inside task completion)
  do not lock themselves; composing engines must not re-acquire.
*/
package ledger

import "sync"

// UserLocks hands out one mutex per user id. Locks are created lazily and
// never released back; the map grows with the active user population,
// which is fine at this system's scale.
type UserLocks struct {
	mu    sync.Mutex
	locks map[UserID]*sync.Mutex
}

func NewUserLocks() *UserLocks {
	return &UserLocks{locks: make(map[UserID]*sync.Mutex)}
}

// Lock acquires the mutex for a user and returns the unlock function.
//
//	unlock := locks.Lock(userID)
//	defer unlock()
func (ul *UserLocks) Lock(userID UserID) func() {
	ul.mu.Lock()
	m, ok := ul.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		ul.locks[userID] = m
	}
	ul.mu.Unlock()

	m.Lock()
	return m.Unlock
}
