package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, 60, cfg.Schedule.CheckIntervalSeconds)
	require.Equal(t, "data/bot_state.json", cfg.State.File)
	require.Equal(t, "data/fx_sentinel.db", cfg.Database.SQLitePath)
	require.NotEmpty(t, cfg.Schedule.DigestCron)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	doc := `
telegram:
  bot_token: from-file
data_source:
  api_key: file-key
schedule:
  check_interval_seconds: 120
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	t.Setenv("TELEGRAM_TOKEN", "from-env")
	t.Setenv("CHECK_INTERVAL_SECONDS", "30")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Telegram.BotToken)
	require.Equal(t, "file-key", cfg.DataSource.APIKey)
	require.Equal(t, 30, cfg.Schedule.CheckIntervalSeconds)
}

func TestValidate(t *testing.T) {
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("AV_API_KEY", "")
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Error(t, cfg.Validate())

	cfg.Telegram.BotToken = "token"
	require.Error(t, cfg.Validate())

	cfg.DataSource.APIKey = "key"
	require.NoError(t, cfg.Validate())

	cfg.Schedule.CheckIntervalSeconds = 0
	require.Error(t, cfg.Validate())
}
