/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  One Store implements every persistence interface of the system:
  ledger.Store (append-only entry tables), catalog.Source (items and
  recipes), quest.TaskStore and quest.FeaturedProvider (the task columns
  this core owns), plus the administrative write methods the API layer
  needs to populate the catalog and task tree.

APPEND-ONLY ENFORCEMENT:
  There are no UPDATE or DELETE statements against point_entries or
  item_entries anywhere in this package. The only entry write is the
  batched INSERT inside one database transaction.

KEY TABLES:
  point_entries:  Immutable point ledger
  item_entries:   Immutable item ledger
  items:          Reward catalog
  recipes:        Crafting recipes
  recipe_inputs:  Ordered (item, quantity) pairs per recipe
  tasks:          The three columns this core writes + structural parent
  featured_tasks: One set of task ids per (user, date)

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block,
  single writer at a time, better crash recovery.

CONCURRENCY:
  sync.RWMutex for in-process thread safety; logical check-then-write
  serialization is handled above this layer by ledger.UserLocks.

SEE ALSO:
  - ledger/store.go: Interface definition and append-only contract
  - ledger/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/quest-engine/catalog"
	"github.com/warp/quest-engine/ledger"
	"github.com/warp/quest-engine/quest"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases coherent across the
	// pool; the Store serializes access with its own mutex anyway.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	-- Point ledger (append-only)
	CREATE TABLE IF NOT EXISTS point_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		source TEXT NOT NULL,
		group_id TEXT NOT NULL,
		source_ref TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_point_entries_user
		ON point_entries(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_point_entries_group
		ON point_entries(group_id);

	-- Item ledger (append-only)
	CREATE TABLE IF NOT EXISTS item_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		item_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		source TEXT NOT NULL,
		group_id TEXT NOT NULL,
		source_ref TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_item_entries_user
		ON item_entries(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_item_entries_user_item
		ON item_entries(user_id, item_id);
	CREATE INDEX IF NOT EXISTS idx_item_entries_group
		ON item_entries(group_id);

	-- Reward catalog
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		point_price INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS recipes (
		id TEXT PRIMARY KEY,
		output_item_id TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS recipe_inputs (
		recipe_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		item_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		PRIMARY KEY (recipe_id, position)
	);

	-- Tasks: parent_id is structural (owned by the task-CRUD side);
	-- completed, completion_pct and claimed_at are the only columns this
	-- core writes.
	CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		parent_id TEXT,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		completion_pct TEXT NOT NULL DEFAULT '0',
		claimed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_parent
		ON tasks(parent_id);

	-- Featured task sets: one row per (user, date, task)
	CREATE TABLE IF NOT EXISTS featured_tasks (
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		task_id TEXT NOT NULL,
		PRIMARY KEY (user_id, date, task_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEDGER STORE (ledger.Store interface)
// =============================================================================

// AppendBatch persists every entry of a batch inside one database
// transaction. Either all commit or none do.
func (s *Store) AppendBatch(ctx context.Context, batch ledger.Batch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, e := range batch.Points {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO point_entries (id, user_id, amount, source, group_id, source_ref, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.UserID, e.Amount, e.Source, e.GroupID,
			nullString(e.SourceRef), e.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to append point entry: %w", err)
		}
	}
	for _, e := range batch.Items {
		_, err := sqlTx.ExecContext(ctx, `
			INSERT INTO item_entries (id, user_id, item_id, quantity, source, group_id, source_ref, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.UserID, e.ItemID, e.Quantity, e.Source, e.GroupID,
			nullString(e.SourceRef), e.CreatedAt.Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("failed to append item entry: %w", err)
		}
	}

	return sqlTx.Commit()
}

// LoadPoints returns all point entries for a user, oldest first.
func (s *Store) LoadPoints(ctx context.Context, userID ledger.UserID) ([]ledger.PointsEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, amount, source, group_id, source_ref, created_at
		FROM point_entries
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query point entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.PointsEntry
	for rows.Next() {
		var (
			e         ledger.PointsEntry
			sourceRef sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Source, &e.GroupID, &sourceRef, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan point entry: %w", err)
		}
		e.SourceRef = sourceRef.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// LoadItems returns all item entries for a user, oldest first.
func (s *Store) LoadItems(ctx context.Context, userID ledger.UserID) ([]ledger.ItemEntry, error) {
	return s.queryItemEntries(ctx, `
		SELECT id, user_id, item_id, quantity, source, group_id, source_ref, created_at
		FROM item_entries
		WHERE user_id = ?
		ORDER BY created_at ASC, id ASC`, userID)
}

// LoadItemEntries returns a user's entries for one item, oldest first.
func (s *Store) LoadItemEntries(ctx context.Context, userID ledger.UserID, itemID ledger.ItemID) ([]ledger.ItemEntry, error) {
	return s.queryItemEntries(ctx, `
		SELECT id, user_id, item_id, quantity, source, group_id, source_ref, created_at
		FROM item_entries
		WHERE user_id = ? AND item_id = ?
		ORDER BY created_at ASC, id ASC`, userID, itemID)
}

func (s *Store) queryItemEntries(ctx context.Context, query string, args ...any) ([]ledger.ItemEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query item entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.ItemEntry
	for rows.Next() {
		var (
			e         ledger.ItemEntry
			sourceRef sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.ItemID, &e.Quantity, &e.Source, &e.GroupID, &sourceRef, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan item entry: %w", err)
		}
		e.SourceRef = sourceRef.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// CATALOG SOURCE (catalog.Source interface)
// =============================================================================

func (s *Store) Items(ctx context.Context) ([]catalog.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, point_price, active FROM items ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []catalog.Item
	for rows.Next() {
		var it catalog.Item
		if err := rows.Scan(&it.ID, &it.Name, &it.PointPrice, &it.Active); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (s *Store) Item(ctx context.Context, id ledger.ItemID) (catalog.Item, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var it catalog.Item
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, point_price, active FROM items WHERE id = ?", id,
	).Scan(&it.ID, &it.Name, &it.PointPrice, &it.Active)
	if err == sql.ErrNoRows {
		return catalog.Item{}, false, nil
	}
	if err != nil {
		return catalog.Item{}, false, err
	}
	return it, true, nil
}

func (s *Store) Recipe(ctx context.Context, id string) (catalog.Recipe, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var recipe catalog.Recipe
	err := s.db.QueryRowContext(ctx,
		"SELECT id, output_item_id FROM recipes WHERE id = ?", id,
	).Scan(&recipe.ID, &recipe.OutputID)
	if err == sql.ErrNoRows {
		return catalog.Recipe{}, false, nil
	}
	if err != nil {
		return catalog.Recipe{}, false, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, quantity FROM recipe_inputs
		WHERE recipe_id = ?
		ORDER BY position ASC`, id)
	if err != nil {
		return catalog.Recipe{}, false, err
	}
	defer rows.Close()

	for rows.Next() {
		var in catalog.RecipeInput
		if err := rows.Scan(&in.ItemID, &in.Quantity); err != nil {
			return catalog.Recipe{}, false, err
		}
		recipe.Inputs = append(recipe.Inputs, in)
	}
	return recipe, true, rows.Err()
}

// SaveItem inserts or updates a catalog item (admin surface).
func (s *Store) SaveItem(ctx context.Context, item catalog.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, name, point_price, active)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			point_price = excluded.point_price,
			active = excluded.active`,
		item.ID, item.Name, item.PointPrice, item.Active)
	return err
}

// SaveRecipe inserts or replaces a recipe and its ordered inputs.
func (s *Store) SaveRecipe(ctx context.Context, recipe catalog.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, `
		INSERT INTO recipes (id, output_item_id) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET output_item_id = excluded.output_item_id`,
		recipe.ID, recipe.OutputID); err != nil {
		return err
	}
	if _, err := sqlTx.ExecContext(ctx,
		"DELETE FROM recipe_inputs WHERE recipe_id = ?", recipe.ID); err != nil {
		return err
	}
	for i, in := range recipe.Inputs {
		if _, err := sqlTx.ExecContext(ctx, `
			INSERT INTO recipe_inputs (recipe_id, position, item_id, quantity)
			VALUES (?, ?, ?, ?)`,
			recipe.ID, i, in.ItemID, in.Quantity); err != nil {
			return err
		}
	}
	return sqlTx.Commit()
}

// =============================================================================
// TASK STORE (quest.TaskStore interface)
// =============================================================================

func (s *Store) Task(ctx context.Context, id quest.TaskID) (quest.Task, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, parent_id, completed, completion_pct, claimed_at FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return quest.Task{}, false, nil
	}
	if err != nil {
		return quest.Task{}, false, err
	}
	return t, true, nil
}

// LeafDescendants walks the subtree under id with a recursive CTE and
// returns every node in it that has no children.
func (s *Store) LeafDescendants(ctx context.Context, id quest.TaskID) ([]quest.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		WITH RECURSIVE subtree(id) AS (
			SELECT id FROM tasks WHERE parent_id = ?
			UNION
			SELECT t.id FROM tasks t JOIN subtree s ON t.parent_id = s.id
		)
		SELECT t.id, t.parent_id, t.completed, t.completion_pct, t.claimed_at
		FROM tasks t
		WHERE t.id IN (SELECT id FROM subtree)
		  AND NOT EXISTS (SELECT 1 FROM tasks c WHERE c.parent_id = t.id)
		ORDER BY t.id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leaves []quest.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, t)
	}
	return leaves, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (quest.Task, error) {
	var (
		t         quest.Task
		parentID  sql.NullString
		pct       string
		claimedAt sql.NullString
	)
	if err := row.Scan(&t.ID, &parentID, &t.Completed, &pct, &claimedAt); err != nil {
		return quest.Task{}, err
	}
	if parentID.Valid {
		p := quest.TaskID(parentID.String)
		t.ParentID = &p
	}
	t.CompletionPercentage, _ = decimal.NewFromString(pct)
	if claimedAt.Valid {
		at, _ := time.Parse(time.RFC3339Nano, claimedAt.String)
		t.ClaimedAt = &at
	}
	return t, nil
}

// MarkClaimed sets the permanent claim marker. The WHERE clause refuses
// to overwrite an existing marker: once set, it never changes.
func (s *Store) MarkClaimed(ctx context.Context, id quest.TaskID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET claimed_at = ? WHERE id = ? AND claimed_at IS NULL",
		at.UTC().Format(time.RFC3339Nano), id)
	return err
}

func (s *Store) SetCompleted(ctx context.Context, id quest.TaskID, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET completed = ? WHERE id = ?", completed, id)
	return err
}

func (s *Store) SetCompletionPercentage(ctx context.Context, id quest.TaskID, pct decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET completion_pct = ? WHERE id = ?", pct.String(), id)
	return err
}

// SaveTask inserts or updates a task row. In production the task-CRUD
// system owns the structure; this exists so the tree can be populated
// through the admin API and in tests.
func (s *Store) SaveTask(ctx context.Context, task quest.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var parentID any
	if task.ParentID != nil {
		parentID = string(*task.ParentID)
	}
	var claimedAt any
	if task.ClaimedAt != nil {
		claimedAt = task.ClaimedAt.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (id, parent_id, completed, completion_pct, claimed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			parent_id = excluded.parent_id,
			completed = excluded.completed`,
		task.ID, parentID, task.Completed,
		task.CompletionPercentage.String(), claimedAt)
	return err
}

// =============================================================================
// FEATURED TASK SETS (quest.FeaturedProvider interface)
// =============================================================================

func (s *Store) FeaturedTaskIDs(ctx context.Context, userID ledger.UserID, date time.Time) ([]quest.TaskID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT task_id FROM featured_tasks WHERE user_id = ? AND date = ? ORDER BY task_id",
		userID, date.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []quest.TaskID
	for rows.Next() {
		var id quest.TaskID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// SaveFeaturedSet replaces the featured set for (user, date).
func (s *Store) SaveFeaturedSet(ctx context.Context, userID ledger.UserID, date time.Time, taskIDs []quest.TaskID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	day := date.UTC().Format("2006-01-02")

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx,
		"DELETE FROM featured_tasks WHERE user_id = ? AND date = ?", userID, day); err != nil {
		return err
	}
	for _, id := range taskIDs {
		if _, err := sqlTx.ExecContext(ctx,
			"INSERT INTO featured_tasks (user_id, date, task_id) VALUES (?, ?, ?)",
			userID, day, id); err != nil {
			return err
		}
	}
	return sqlTx.Commit()
}

// Helper functions

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
