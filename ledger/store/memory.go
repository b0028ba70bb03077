// Package store provides ledger.Store implementations.
package store

import (
	"context"
	"sync"

	"github.com/warp/quest-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	points map[ledger.UserID][]ledger.PointsEntry
	items  map[ledger.UserID][]ledger.ItemEntry

	// failNext forces the next AppendBatch to fail after partially
	// applying nothing. Test hook for rollback behavior.
	failNext error
}

func NewMemory() *Memory {
	return &Memory{
		points: make(map[ledger.UserID][]ledger.PointsEntry),
		items:  make(map[ledger.UserID][]ledger.ItemEntry),
	}
}

// FailNextAppend makes the next AppendBatch return err without writing.
func (m *Memory) FailNextAppend(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failNext = err
}

// AppendBatch adds all entries of a batch atomically. The writes happen
// under one lock and only after any injected failure check, so a failed
// batch leaves no entries behind.
func (m *Memory) AppendBatch(_ context.Context, batch ledger.Batch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}

	for _, e := range batch.Points {
		m.points[e.UserID] = append(m.points[e.UserID], e)
	}
	for _, e := range batch.Items {
		m.items[e.UserID] = append(m.items[e.UserID], e)
	}
	return nil
}

func (m *Memory) LoadPoints(_ context.Context, userID ledger.UserID) ([]ledger.PointsEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ledger.PointsEntry, len(m.points[userID]))
	copy(result, m.points[userID])
	return result, nil
}

func (m *Memory) LoadItems(_ context.Context, userID ledger.UserID) ([]ledger.ItemEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]ledger.ItemEntry, len(m.items[userID]))
	copy(result, m.items[userID])
	return result, nil
}

func (m *Memory) LoadItemEntries(_ context.Context, userID ledger.UserID, itemID ledger.ItemID) ([]ledger.ItemEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []ledger.ItemEntry
	for _, e := range m.items[userID] {
		if e.ItemID == itemID {
			result = append(result, e)
		}
	}
	return result, nil
}
