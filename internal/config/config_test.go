package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: t.Parallel() is intentionally omitted in this package. These
// tests share process-global environment variables; t.Setenv would race
// with any concurrent reader.

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.ini")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("LOG_PATH", filepath.Join(t.TempDir(), "logs"))

	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Chat.Interface)
	assert.Equal(t, 9090, cfg.Chat.Port)
	assert.Equal(t, []string{"John", "Jill", "Smith", "Bella"}, cfg.Chat.Names)
	assert.Equal(t, 0, cfg.Chat.DropNoActivity)
	assert.False(t, cfg.Chat.TraceLogEnabled)
	assert.True(t, cfg.HTTP.Enabled)
	assert.Equal(t, 9091, cfg.HTTP.Port)
	assert.Equal(t, 50, cfg.History.ReplayLimit)
	assert.NotEmpty(t, cfg.History.DatabasePath)
	assert.Equal(t, map[string]string{"user": "pass$123"}, cfg.HTTP.Logins)
}

func TestLoadConfig_FileValues(t *testing.T) {
	t.Setenv("LOG_PATH", filepath.Join(t.TempDir(), "logs"))

	path := writeConfig(t, `
[SRV_CHAT]
Chat_IPInterface = 127.0.0.1
Chat_Port = 7001
Names = Alice, Bob
DropNoActivity = 300
TraceLogEnabled = true

[SRV_HTTP]
HTTP_Enabled = false
HTTP_Port = 7002

[SRV_HTTPLOGINS]
admin = secret

[SRV_HISTORY]
DatabasePath = /tmp/chat-test.db
ReplayLimit = 10
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Chat.Interface)
	assert.Equal(t, 7001, cfg.Chat.Port)
	assert.Equal(t, []string{"Alice", "Bob"}, cfg.Chat.Names)
	assert.Equal(t, 300, cfg.Chat.DropNoActivity)
	assert.True(t, cfg.Chat.TraceLogEnabled)
	assert.False(t, cfg.HTTP.Enabled)
	assert.Equal(t, 7002, cfg.HTTP.Port)
	assert.Equal(t, "secret", cfg.HTTP.Logins["admin"])
	assert.Equal(t, "/tmp/chat-test.db", cfg.History.DatabasePath)
	assert.Equal(t, 10, cfg.History.ReplayLimit)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "env-logs")
	dbPath := filepath.Join(t.TempDir(), "env.db")
	t.Setenv("CHAT_PORT", "8123")
	t.Setenv("LOG_PATH", logDir)
	t.Setenv("CHAT_DB_PATH", dbPath)

	cfg, err := LoadConfig(writeConfig(t, "[SRV_CHAT]\nChat_Port = 7001\n"))
	require.NoError(t, err)

	assert.Equal(t, 8123, cfg.Chat.Port)
	assert.Equal(t, logDir, cfg.Paths.LogPath)
	assert.Equal(t, dbPath, cfg.History.DatabasePath)
	assert.DirExists(t, logDir)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.ini"))
	assert.Error(t, err)
}

func TestLoadConfig_EmptyNamePool(t *testing.T) {
	t.Setenv("LOG_PATH", filepath.Join(t.TempDir(), "logs"))

	_, err := LoadConfig(writeConfig(t, "[SRV_CHAT]\nNames = ,\n"))
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	t.Setenv("LOG_PATH", filepath.Join(t.TempDir(), "logs"))

	path := writeConfig(t, "[SRV_CHAT]\nChat_Port = 7005\nNames = Zoe\n")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	out := filepath.Join(t.TempDir(), "saved.ini")
	require.NoError(t, cfg.Save(out))

	saved, err := LoadConfig(out)
	require.NoError(t, err)
	assert.Equal(t, 7005, saved.Chat.Port)
	assert.Equal(t, []string{"Zoe"}, saved.Chat.Names)
}
