/*
handlers.go - HTTP API handlers for the reward engine

PURPOSE:
  Exposes the ledger, crafting, lottery and task-completion engines via
  REST. Handles HTTP request/response, JSON serialization, and delegates
  to domain logic.

ENDPOINTS:
  Users (read side):
    GET  /api/users/{id}/balance            Points balance
    GET  /api/users/{id}/items              Net item quantities
    GET  /api/users/{id}/points/entries     Point ledger history
    GET  /api/users/{id}/items/{itemID}/entries  Item ledger history

  Operations:
    POST /api/tasks/{id}/complete           Complete a task, claim reward
    GET  /api/tasks/{id}                    Task progress projection
    POST /api/craft                         Execute a recipe
    POST /api/redeem                        Spend points on an item

  Catalog:
    GET  /api/catalog/items                 Active reward items

  Admin:
    POST /api/admin/items                   Create/update catalog item
    POST /api/admin/recipes                 Create/replace recipe
    POST /api/admin/tasks                   Create/update task node
    POST /api/admin/featured                Replace featured set
    POST /api/admin/grants                  Promotional point grant

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Unknown task, item or recipe
  - 409: Item exists but is not redeemable
  - 422: Insufficient materials or points (full shortfall list included)
  - 500: Misconfigured recipes, ledger write failures, internal errors

  An already-claimed task completion is NOT an error: it returns 200 with
  a zero-amount result, so repeat submissions are cheap no-ops.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/warp/quest-engine/catalog"
	"github.com/warp/quest-engine/ledger"
	"github.com/warp/quest-engine/quest"
	"github.com/warp/quest-engine/reward"
	"github.com/warp/quest-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store      *sqlite.Store
	Balances   *ledger.BalanceCalculator
	Completion *quest.CompletionService
	Crafting   *reward.CraftingEngine
	Redeemer   *reward.Redeemer
	Catalog    *catalog.Catalog

	log zerolog.Logger
}

// NewHandler creates a handler over an already-wired engine set.
func NewHandler(
	store *sqlite.Store,
	balances *ledger.BalanceCalculator,
	completion *quest.CompletionService,
	crafting *reward.CraftingEngine,
	redeemer *reward.Redeemer,
	cat *catalog.Catalog,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		Store:      store,
		Balances:   balances,
		Completion: completion,
		Crafting:   crafting,
		Redeemer:   redeemer,
		Catalog:    cat,
		log:        log,
	}
}

// =============================================================================
// READ-SIDE HANDLERS
// =============================================================================

// GetBalance returns the computed points balance for a user.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := ledger.UserID(chi.URLParam(r, "id"))

	points, err := h.Balances.PointsBalance(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute balance", err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{UserID: string(userID), Points: points})
}

// GetItemQuantities returns the user's net quantity per item.
func (h *Handler) GetItemQuantities(w http.ResponseWriter, r *http.Request) {
	userID := ledger.UserID(chi.URLParam(r, "id"))

	quantities, err := h.Balances.ItemQuantities(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute item quantities", err)
		return
	}

	dtos := make([]ItemQuantityDTO, 0, len(quantities))
	for itemID, qty := range quantities {
		dtos = append(dtos, ItemQuantityDTO{ItemID: string(itemID), Quantity: qty})
	}
	sort.Slice(dtos, func(i, j int) bool { return dtos[i].ItemID < dtos[j].ItemID })

	writeJSON(w, http.StatusOK, dtos)
}

// GetPointsHistory returns the user's point ledger entries, oldest first.
func (h *Handler) GetPointsHistory(w http.ResponseWriter, r *http.Request) {
	userID := ledger.UserID(chi.URLParam(r, "id"))

	entries, err := h.Store.LoadPoints(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load point entries", err)
		return
	}

	dtos := make([]PointsEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = PointsEntryDTO{
			ID:        string(e.ID),
			Amount:    e.Amount,
			Source:    string(e.Source),
			GroupID:   string(e.GroupID),
			SourceRef: e.SourceRef,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetItemHistory returns the user's ledger entries for one item.
func (h *Handler) GetItemHistory(w http.ResponseWriter, r *http.Request) {
	userID := ledger.UserID(chi.URLParam(r, "id"))
	itemID := ledger.ItemID(chi.URLParam(r, "itemID"))

	entries, err := h.Store.LoadItemEntries(r.Context(), userID, itemID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load item entries", err)
		return
	}

	dtos := make([]ItemEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = ItemEntryDTO{
			ID:        string(e.ID),
			ItemID:    string(e.ItemID),
			Quantity:  e.Quantity,
			Source:    string(e.Source),
			GroupID:   string(e.GroupID),
			SourceRef: e.SourceRef,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetTask returns one task's progress projection.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	id := quest.TaskID(chi.URLParam(r, "id"))

	task, ok, err := h.Store.Task(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load task", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

// ListCatalogItems returns the active reward items.
func (h *Handler) ListCatalogItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Catalog.ActiveItems(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list catalog items", err)
		return
	}

	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = ItemDTO{
			ID:         string(it.ID),
			Name:       it.Name,
			PointPrice: it.PointPrice,
			Active:     it.Active,
		}
	}

	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// OPERATION HANDLERS
// =============================================================================

// CompleteTask runs the completion sequence for a task. Repeat calls on
// a claimed task return 200 with a zero-amount result.
func (h *Handler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := quest.TaskID(chi.URLParam(r, "id"))

	var req CompleteTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	result, err := h.Completion.CompleteTask(r.Context(), ledger.UserID(req.UserID), taskID)
	if err != nil {
		h.writeDomainError(w, "Failed to complete task", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Craft executes a recipe for a user.
func (h *Handler) Craft(w http.ResponseWriter, r *http.Request) {
	var req CraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" || req.RecipeID == "" {
		writeError(w, http.StatusBadRequest, "user_id and recipe_id are required", nil)
		return
	}

	result, err := h.Crafting.Craft(r.Context(), ledger.UserID(req.UserID), req.RecipeID)
	if err != nil {
		h.writeDomainError(w, "Failed to craft", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// Redeem spends points on one unit of an item.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" || req.ItemID == "" {
		writeError(w, http.StatusBadRequest, "user_id and item_id are required", nil)
		return
	}

	result, err := h.Redeemer.Redeem(r.Context(), ledger.UserID(req.UserID), ledger.ItemID(req.ItemID))
	if err != nil {
		h.writeDomainError(w, "Failed to redeem", err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// SaveItem creates or updates a catalog item.
func (h *Handler) SaveItem(w http.ResponseWriter, r *http.Request) {
	var req SaveItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "id and name are required", nil)
		return
	}
	if req.PointPrice < 0 {
		writeError(w, http.StatusBadRequest, "point_price must not be negative", nil)
		return
	}

	item := catalog.Item{
		ID:         ledger.ItemID(req.ID),
		Name:       req.Name,
		PointPrice: req.PointPrice,
		Active:     req.Active,
	}
	if err := h.Store.SaveItem(r.Context(), item); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save item", err)
		return
	}

	writeJSON(w, http.StatusCreated, ItemDTO{
		ID:         req.ID,
		Name:       req.Name,
		PointPrice: req.PointPrice,
		Active:     req.Active,
	})
}

// SaveRecipe creates or replaces a recipe. The recipe is validated the
// same way the crafting path validates it, so broken configurations are
// rejected at write time instead of surfacing at craft time.
func (h *Handler) SaveRecipe(w http.ResponseWriter, r *http.Request) {
	var req SaveRecipeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Output == "" {
		writeError(w, http.StatusBadRequest, "id and output_item_id are required", nil)
		return
	}

	recipe := catalog.Recipe{
		ID:       req.ID,
		OutputID: ledger.ItemID(req.Output),
	}
	for _, in := range req.Inputs {
		recipe.Inputs = append(recipe.Inputs, catalog.RecipeInput{
			ItemID:   ledger.ItemID(in.ItemID),
			Quantity: in.Quantity,
		})
	}

	if err := h.Store.SaveRecipe(r.Context(), recipe); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save recipe", err)
		return
	}

	// Re-read through the catalog so validation runs against the stored
	// state, items included.
	if _, err := h.Catalog.RecipeByID(r.Context(), req.ID); err != nil {
		h.writeDomainError(w, "Recipe saved but invalid", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// SaveTask creates or updates a task node.
func (h *Handler) SaveTask(w http.ResponseWriter, r *http.Request) {
	var req SaveTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required", nil)
		return
	}

	task := quest.Task{ID: quest.TaskID(req.ID)}
	if req.ParentID != nil {
		p := quest.TaskID(*req.ParentID)
		task.ParentID = &p
	}

	if err := h.Store.SaveTask(r.Context(), task); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save task", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// SaveFeatured replaces the featured task set for (user, date).
func (h *Handler) SaveFeatured(w http.ResponseWriter, r *http.Request) {
	var req SaveFeaturedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	ids := make([]quest.TaskID, len(req.TaskIDs))
	for i, id := range req.TaskIDs {
		ids[i] = quest.TaskID(id)
	}

	if err := h.Store.SaveFeaturedSet(r.Context(), ledger.UserID(req.UserID), date, ids); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save featured set", err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

// Grant writes a promotional point grant.
func (h *Handler) Grant(w http.ResponseWriter, r *http.Request) {
	var req GrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive", nil)
		return
	}

	group, err := h.Redeemer.GrantPoints(r.Context(), ledger.UserID(req.UserID), req.Amount, req.Reason)
	if err != nil {
		h.writeDomainError(w, "Failed to grant points", err)
		return
	}

	writeJSON(w, http.StatusCreated, GrantResponse{GroupID: group, Amount: req.Amount})
}

// =============================================================================
// HELPERS
// =============================================================================

func toTaskDTO(task quest.Task) TaskDTO {
	dto := TaskDTO{
		ID:                   string(task.ID),
		Completed:            task.Completed,
		CompletionPercentage: task.CompletionPercentage.String(),
	}
	if task.ParentID != nil {
		p := string(*task.ParentID)
		dto.ParentID = &p
	}
	if task.ClaimedAt != nil {
		at := task.ClaimedAt.Format(time.RFC3339)
		dto.ClaimedAt = &at
	}
	return dto
}

// writeDomainError maps domain errors onto HTTP statuses. Unknown errors
// become 500s.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	var materials *reward.InsufficientMaterialsError
	switch {
	case errors.As(err, &materials):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:      message,
			Details:    err.Error(),
			Shortfalls: materials.Shortfalls,
		})
	case errors.Is(err, reward.ErrInsufficientPoints):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	case errors.Is(err, reward.ErrItemNotRedeemable):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, quest.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, catalog.ErrConfigurationInvalid):
		h.log.Error().Err(err).Msg("recipe configuration invalid")
		writeError(w, http.StatusInternalServerError, message, err)
	case errors.Is(err, ledger.ErrLedgerWrite):
		h.log.Error().Err(err).Msg("ledger write failed")
		writeError(w, http.StatusInternalServerError, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
