package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/quest-engine/config"
	"github.com/warp/quest-engine/reward"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quest.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfig_MissingFile_Defaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "quest.db", cfg.Server.DBPath)

	rw, err := cfg.RewardConfig()
	require.NoError(t, err)
	assert.Equal(t, reward.DefaultConfig().PlainTaskReward, rw.PlainTaskReward)
}

func TestConfig_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 9090
db_path = "/tmp/test.db"

[rewards]
plain_task_reward = 5
featured_bonus = 80
win_probability = "0.25"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/tmp/test.db", cfg.Server.DBPath)

	rw, err := cfg.RewardConfig()
	require.NoError(t, err)
	assert.Equal(t, int64(5), rw.PlainTaskReward)
	assert.Equal(t, int64(80), rw.FeaturedBonus)
	assert.True(t, rw.WinProbability.Equal(decimal.RequireFromString("0.25")))
}

func TestConfig_PartialFile_KeepsOtherDefaults(t *testing.T) {
	path := writeConfig(t, `
[server]
port = 3000
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "quest.db", cfg.Server.DBPath, "unset fields keep defaults")
}

func TestConfig_MalformedTOML_Error(t *testing.T) {
	path := writeConfig(t, `[server` + "\n")

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestConfig_InvalidRewardValues_RejectedOnConversion(t *testing.T) {
	path := writeConfig(t, `
[rewards]
plain_task_reward = 10
featured_bonus = 10
win_probability = "0.5"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	_, err = cfg.RewardConfig()
	assert.ErrorIs(t, err, reward.ErrInvalidConfig)
}

func TestConfig_UnparseableProbability_Error(t *testing.T) {
	path := writeConfig(t, `
[rewards]
plain_task_reward = 10
featured_bonus = 50
win_probability = "half"
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	_, err = cfg.RewardConfig()
	assert.Error(t, err)
}
