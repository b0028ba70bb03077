package quest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/quest-engine/ledger"
)

// =============================================================================
// MEMORY TASK STORE - In-memory TaskStore + FeaturedProvider (testing/dev)
// =============================================================================

// MemoryTaskStore implements TaskStore and FeaturedProvider in memory. It
// also carries the structural parent/child data that production leaves to
// the task-CRUD owner, because tests need to build trees.
type MemoryTaskStore struct {
	mu       sync.RWMutex
	tasks    map[TaskID]*Task
	children map[TaskID][]TaskID
	featured map[featuredKey][]TaskID

	// FailMarkClaimed forces MarkClaimed to return this error once.
	failMarkClaimed error
}

type featuredKey struct {
	UserID ledger.UserID
	Date   string // YYYY-MM-DD
}

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{
		tasks:    make(map[TaskID]*Task),
		children: make(map[TaskID][]TaskID),
		featured: make(map[featuredKey][]TaskID),
	}
}

// PutTask inserts or replaces a task and registers it under its parent.
func (m *MemoryTaskStore) PutTask(task Task) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.tasks[task.ID]; ok && old.ParentID != nil {
		m.children[*old.ParentID] = removeID(m.children[*old.ParentID], task.ID)
	}
	t := task
	m.tasks[task.ID] = &t
	if task.ParentID != nil {
		m.children[*task.ParentID] = append(m.children[*task.ParentID], task.ID)
	}
}

// SetFeatured records the featured set for (user, date).
func (m *MemoryTaskStore) SetFeatured(userID ledger.UserID, date time.Time, ids []TaskID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.featured[featuredKey{UserID: userID, Date: dayKey(date)}] = append([]TaskID(nil), ids...)
}

// FailNextMarkClaimed makes the next MarkClaimed call fail. Test hook.
func (m *MemoryTaskStore) FailNextMarkClaimed(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failMarkClaimed = err
}

// LinkChild declares a parent->child edge without replacing either task.
// Used by tests that want to build cycles the normal API would not allow.
func (m *MemoryTaskStore) LinkChild(parent, child TaskID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.children[parent] = append(m.children[parent], child)
	if t, ok := m.tasks[child]; ok {
		p := parent
		t.ParentID = &p
	}
}

func (m *MemoryTaskStore) Task(_ context.Context, id TaskID) (Task, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tasks[id]
	if !ok {
		return Task{}, false, nil
	}
	return *t, true, nil
}

func (m *MemoryTaskStore) LeafDescendants(_ context.Context, id TaskID) ([]Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var leaves []Task
	visited := map[TaskID]bool{}
	stack := append([]TaskID(nil), m.children[id]...)
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		visited[cur] = true

		kids := m.children[cur]
		if len(kids) == 0 {
			if t, ok := m.tasks[cur]; ok {
				leaves = append(leaves, *t)
			}
			continue
		}
		stack = append(stack, kids...)
	}
	sort.Slice(leaves, func(i, j int) bool { return leaves[i].ID < leaves[j].ID })
	return leaves, nil
}

func (m *MemoryTaskStore) MarkClaimed(_ context.Context, id TaskID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failMarkClaimed != nil {
		err := m.failMarkClaimed
		m.failMarkClaimed = nil
		return err
	}
	t, ok := m.tasks[id]
	if !ok {
		return &TaskNotFoundError{TaskID: id}
	}
	if t.ClaimedAt == nil {
		claimed := at
		t.ClaimedAt = &claimed
	}
	return nil
}

func (m *MemoryTaskStore) SetCompleted(_ context.Context, id TaskID, completed bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return &TaskNotFoundError{TaskID: id}
	}
	t.Completed = completed
	return nil
}

func (m *MemoryTaskStore) SetCompletionPercentage(_ context.Context, id TaskID, pct decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.tasks[id]
	if !ok {
		return &TaskNotFoundError{TaskID: id}
	}
	t.CompletionPercentage = pct
	return nil
}

func (m *MemoryTaskStore) FeaturedTaskIDs(_ context.Context, userID ledger.UserID, date time.Time) ([]TaskID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.featured[featuredKey{UserID: userID, Date: dayKey(date)}]
	return append([]TaskID(nil), ids...), nil
}

func dayKey(t time.Time) string { return t.UTC().Format("2006-01-02") }

func removeID(ids []TaskID, id TaskID) []TaskID {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
