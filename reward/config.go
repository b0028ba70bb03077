/*
Package reward provides the engines that move value through the ledger:
crafting, the featured-task lottery, direct redemption, and promotional
grants.

PURPOSE:
  Each engine is one public operation that performs a complete
  check-then-write sequence against the ledger. None of them keep state;
  all amounts, probabilities, and fallbacks come from an injected Config
  rather than package-level globals.

SEE ALSO:
  - crafting.go:   recipe-based N-inputs -> 1-output crafting
  - lottery.go:    weighted points-or-item draw with guaranteed fallback
  - redemption.go: spend points, gain an item, atomically
*/
package reward

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// CONFIG - Reward amounts and lottery weighting (dependency-injected)
// =============================================================================

// Config carries every tunable of the reward engines. Constructed once at
// startup and passed in; there is no ambient global configuration.
type Config struct {
	// PlainTaskReward is the fixed point amount for completing an
	// ordinary (non-featured) task.
	PlainTaskReward int64

	// FeaturedBonus is the fixed point payout of the featured-task
	// lottery. Must be strictly larger than PlainTaskReward; featured
	// tasks are supposed to be worth the gamble.
	FeaturedBonus int64

	// WinProbability is the chance that a lottery draw pays points
	// instead of an item. Expressed as a decimal in [0, 1].
	WinProbability decimal.Decimal
}

// DefaultConfig mirrors the production defaults: a small plain reward, a
// larger featured bonus, and a 50% points/item split.
func DefaultConfig() Config {
	return Config{
		PlainTaskReward: 10,
		FeaturedBonus:   50,
		WinProbability:  decimal.NewFromFloat(0.5),
	}
}

// Validate rejects configurations the engines cannot honor.
func (c Config) Validate() error {
	if c.PlainTaskReward <= 0 {
		return &ConfigError{Field: "plain_task_reward", Detail: "must be positive"}
	}
	if c.FeaturedBonus <= c.PlainTaskReward {
		return &ConfigError{Field: "featured_bonus", Detail: "must exceed plain_task_reward"}
	}
	if c.WinProbability.IsNegative() || c.WinProbability.GreaterThan(decimal.NewFromInt(1)) {
		return &ConfigError{Field: "win_probability", Detail: "must be within [0, 1]"}
	}
	return nil
}
