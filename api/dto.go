/*
dto.go - Request and response data structures

PURPOSE:
  Defines the JSON shapes the API accepts and returns. Engine result
  structs (CompletionResult, CraftResult, RedemptionResult, DrawResult)
  already carry json tags and are returned directly; this file holds the
  request bodies and the read-side projections the engines do not own.

NAMING CONVENTION:
  All JSON fields use snake_case. Timestamps are RFC3339 strings; dates
  are YYYY-MM-DD.
*/
package api

import "github.com/warp/quest-engine/ledger"

// =============================================================================
// REQUEST BODIES
// =============================================================================

// CompleteTaskRequest triggers a task completion for a user.
type CompleteTaskRequest struct {
	UserID string `json:"user_id"`
}

// CraftRequest executes a recipe for a user.
type CraftRequest struct {
	UserID   string `json:"user_id"`
	RecipeID string `json:"recipe_id"`
}

// RedeemRequest spends points on one unit of a catalog item.
type RedeemRequest struct {
	UserID string `json:"user_id"`
	ItemID string `json:"item_id"`
}

// GrantRequest writes a promotional point grant (admin).
type GrantRequest struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// SaveItemRequest creates or updates a catalog item (admin).
type SaveItemRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PointPrice int64  `json:"point_price"`
	Active     bool   `json:"active"`
}

// SaveRecipeRequest creates or replaces a crafting recipe (admin).
type SaveRecipeRequest struct {
	ID     string           `json:"id"`
	Output string           `json:"output_item_id"`
	Inputs []RecipeInputDTO `json:"inputs"`
}

type RecipeInputDTO struct {
	ItemID   string `json:"item_id"`
	Quantity int64  `json:"quantity"`
}

// SaveTaskRequest creates or updates a task node (admin).
type SaveTaskRequest struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parent_id,omitempty"`
}

// SaveFeaturedRequest replaces the featured task set for (user, date).
type SaveFeaturedRequest struct {
	UserID  string   `json:"user_id"`
	Date    string   `json:"date"` // YYYY-MM-DD
	TaskIDs []string `json:"task_ids"`
}

// =============================================================================
// RESPONSE BODIES
// =============================================================================

// BalanceDTO is the read-side points summary for a user.
type BalanceDTO struct {
	UserID string `json:"user_id"`
	Points int64  `json:"points"`
}

// ItemQuantityDTO is one item's net held quantity.
type ItemQuantityDTO struct {
	ItemID   string `json:"item_id"`
	Quantity int64  `json:"quantity"`
}

// PointsEntryDTO is one point ledger entry in history responses.
type PointsEntryDTO struct {
	ID        string `json:"id"`
	Amount    int64  `json:"amount"`
	Source    string `json:"source"`
	GroupID   string `json:"transaction_group_id"`
	SourceRef string `json:"source_ref,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ItemEntryDTO is one item ledger entry in history responses.
type ItemEntryDTO struct {
	ID        string `json:"id"`
	ItemID    string `json:"item_id"`
	Quantity  int64  `json:"quantity"`
	Source    string `json:"source"`
	GroupID   string `json:"transaction_group_id"`
	SourceRef string `json:"source_ref,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ItemDTO is a catalog item in list responses.
type ItemDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	PointPrice int64  `json:"point_price"`
	Active     bool   `json:"active"`
}

// TaskDTO is a task projection for progress reads.
type TaskDTO struct {
	ID                   string  `json:"id"`
	ParentID             *string `json:"parent_id,omitempty"`
	Completed            bool    `json:"completed"`
	CompletionPercentage string  `json:"completion_percentage"`
	ClaimedAt            *string `json:"claimed_at,omitempty"`
}

// GrantResponse acknowledges a promotional grant.
type GrantResponse struct {
	GroupID ledger.GroupID `json:"transaction_group_id"`
	Amount  int64          `json:"amount"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Shortfalls any    `json:"shortfalls,omitempty"`
}
