package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:4000", cfg.Server.Address())
	assert.Equal(t, "/user/Game/api.php", cfg.Server.APIPath)
	assert.True(t, cfg.Server.CORS)
	assert.Equal(t, 8*time.Second, cfg.Feed.Timeout)
	assert.Equal(t, "WinGo_30S", cfg.Feed.Game)
	assert.Equal(t, 12, cfg.Engine.LedgerCapacity)
	assert.Equal(t, 1000, cfg.Engine.PendingCapacity)
	assert.Equal(t, "ai_predictor_model.json", cfg.Model.Path)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.Telegram.Enabled())
	assert.Equal(t, "info", cfg.App.LogLevel)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 8080
feed:
  lottery: WinGo
  game: WinGo_1M
  timeout: 3s
telegram:
  chat_ids: [1001, 1002]
app:
  log_level: debug
`), 0o644))

	t.Setenv("PORT", "9090")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("MYSQL_PASSWORD", "secret")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "WinGo_1M", cfg.Feed.Game)
	assert.Equal(t, 3*time.Second, cfg.Feed.Timeout)
	assert.Equal(t, 2, cfg.Feed.RetryCount)
	assert.Equal(t, []int64{1001, 1002}, cfg.Telegram.ChatIDs)
	assert.True(t, cfg.Telegram.Enabled())
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, "debug", cfg.App.LogLevel)
	assert.Equal(t, "/user/Game/api.php", cfg.Server.APIPath)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	dir := t.TempDir()

	malformed := filepath.Join(dir, "malformed.yaml")
	require.NoError(t, os.WriteFile(malformed, []byte("server: [unterminated"), 0o644))
	_, err := LoadConfig(malformed)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.yaml")
	require.NoError(t, os.WriteFile(invalid, []byte("app:\n  log_level: chatty\n"), 0o644))
	_, err = LoadConfig(invalid)
	assert.ErrorContains(t, err, "validation")

	t.Setenv("PORT", "eighty")
	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorContains(t, err, "PORT")
}

func TestGetDSN(t *testing.T) {
	db := Database{Host: "db", Port: 3306, Username: "u", Password: "p", Database: "shadex"}
	assert.Equal(t, "u:p@tcp(db:3306)/shadex?charset=utf8mb4&parseTime=True&loc=UTC", db.GetDSN())
}
