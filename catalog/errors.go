package catalog

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is the base for missing catalog rows.
	ErrNotFound = errors.New("catalog entry not found")

	// ErrConfigurationInvalid is returned when catalog rows are
	// inconsistent with each other (e.g. a recipe referencing an item
	// that does not exist). Surfaced at read time, never silently fixed.
	ErrConfigurationInvalid = errors.New("catalog configuration invalid")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// NotFoundError identifies which kind of row was missing.
type NotFoundError struct {
	Kind string // "item" or "recipe"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConfigurationError describes an internally inconsistent recipe.
type ConfigurationError struct {
	RecipeID string
	Detail   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("recipe %s misconfigured: %s", e.RecipeID, e.Detail)
}

func (e *ConfigurationError) Unwrap() error { return ErrConfigurationInvalid }
