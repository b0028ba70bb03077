/*
errors.go - Reward engine error types

PURPOSE:
  Structured, user-renderable errors for the reward engines. The crafting
  shortfall error deliberately carries EVERY missing input, not just the
  first one found, so a caller can show a complete picture in one round
  trip.
*/
package reward

import (
	"errors"
	"fmt"
	"strings"

	"github.com/warp/quest-engine/ledger"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInsufficientMaterials is returned when a user lacks one or more
	// recipe inputs. Zero ledger entries are written in that case.
	ErrInsufficientMaterials = errors.New("insufficient materials")

	// ErrInsufficientPoints is returned when a redemption costs more
	// points than the user holds.
	ErrInsufficientPoints = errors.New("insufficient points")

	// ErrItemNotRedeemable is returned when redeeming an inactive item.
	ErrItemNotRedeemable = errors.New("item not redeemable")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid reward config")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// Shortfall describes one missing recipe input.
type Shortfall struct {
	ItemID   ledger.ItemID `json:"item_id"`
	Required int64         `json:"required"`
	Owned    int64         `json:"owned"`
}

// InsufficientMaterialsError lists every shortfall of a failed craft.
type InsufficientMaterialsError struct {
	RecipeID   string
	Shortfalls []Shortfall
}

func (e *InsufficientMaterialsError) Error() string {
	parts := make([]string, len(e.Shortfalls))
	for i, s := range e.Shortfalls {
		parts[i] = fmt.Sprintf("%s (need %d, have %d)", s.ItemID, s.Required, s.Owned)
	}
	return fmt.Sprintf("insufficient materials for recipe %s: %s", e.RecipeID, strings.Join(parts, ", "))
}

func (e *InsufficientMaterialsError) Unwrap() error { return ErrInsufficientMaterials }

// InsufficientPointsError reports a redemption shortfall.
type InsufficientPointsError struct {
	ItemID  ledger.ItemID
	Price   int64
	Balance int64
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("insufficient points for %s: price %d, balance %d", e.ItemID, e.Price, e.Balance)
}

func (e *InsufficientPointsError) Unwrap() error { return ErrInsufficientPoints }

// EntryAmountError rejects non-positive grant amounts.
type EntryAmountError struct {
	Amount int64
}

func (e *EntryAmountError) Error() string {
	return fmt.Sprintf("grant amount must be positive, got %d", e.Amount)
}

// ConfigError identifies the offending config field.
type ConfigError struct {
	Field  string
	Detail string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("reward config: %s %s", e.Field, e.Detail)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }
