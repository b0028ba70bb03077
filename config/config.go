/*
Package config loads server configuration from a TOML file.

Every field has a sensible default, so the server runs with no config
file at all. Values from the file override defaults; command-line flags
override the file (see cmd/server/main.go).

EXAMPLE (quest.toml):

	[server]
	port = 8080
	db_path = "quest.db"

	[rewards]
	plain_task_reward = 10
	featured_bonus = 50
	win_probability = "0.5"
*/
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/shopspring/decimal"
	"github.com/warp/quest-engine/reward"
)

// Config is the top-level server configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Rewards RewardsConfig `toml:"rewards"`
}

// ServerConfig holds HTTP server and storage settings.
type ServerConfig struct {
	Port   int    `toml:"port"`
	DBPath string `toml:"db_path"`
}

// RewardsConfig mirrors reward.Config with TOML field names. The win
// probability is a string in the file so it round-trips exactly.
type RewardsConfig struct {
	PlainTaskReward int64  `toml:"plain_task_reward"`
	FeaturedBonus   int64  `toml:"featured_bonus"`
	WinProbability  string `toml:"win_probability"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	rw := reward.DefaultConfig()
	return Config{
		Server: ServerConfig{
			Port:   8080,
			DBPath: "quest.db",
		},
		Rewards: RewardsConfig{
			PlainTaskReward: rw.PlainTaskReward,
			FeaturedBonus:   rw.FeaturedBonus,
			WinProbability:  rw.WinProbability.String(),
		},
	}
}

// Load reads path and merges it over the defaults. A missing file is
// not an error: the defaults are returned as-is.
func Load(path string) (Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// RewardConfig converts the TOML fields into a validated reward.Config.
func (c Config) RewardConfig() (reward.Config, error) {
	p, err := decimal.NewFromString(c.Rewards.WinProbability)
	if err != nil {
		return reward.Config{}, fmt.Errorf("invalid win_probability %q: %w", c.Rewards.WinProbability, err)
	}
	rw := reward.Config{
		PlainTaskReward: c.Rewards.PlainTaskReward,
		FeaturedBonus:   c.Rewards.FeaturedBonus,
		WinProbability:  p,
	}
	if err := rw.Validate(); err != nil {
		return reward.Config{}, err
	}
	return rw, nil
}
