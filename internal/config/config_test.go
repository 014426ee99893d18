package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quipvault/quipvault/internal/constants"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, constants.EnvDevelopment, cfg.App.Environment)
	assert.Equal(t, "quipvault", cfg.App.Name)
	assert.Equal(t, constants.DefaultStorePath, cfg.Store.Path)
	assert.Equal(t, constants.DefaultStoreBusyTimeoutMs, cfg.Store.BusyTimeoutMs)
	assert.Equal(t, constants.DefaultExportDir, cfg.Transfer.ExportDir)
	assert.Equal(t, constants.DefaultMaxErrorsAllowed, cfg.Transfer.DefaultMaxErrors)
	assert.Equal(t, constants.DefaultProgressBufferSize, cfg.Transfer.ProgressBufferSize)
	assert.Equal(t, time.Hour, cfg.Transfer.LikelyDuplicateWindow)
	assert.Equal(t, constants.DefaultLogLevel, cfg.Logging.Level)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
app:
  environment: testing
  version: 2.1.0
store:
  path: /tmp/quipvault-test.db
transfer:
  export_dir: /tmp/exports
  default_max_errors: 3
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "testing", cfg.App.Environment)
	assert.Equal(t, "2.1.0", cfg.App.Version)
	assert.Equal(t, "/tmp/quipvault-test.db", cfg.Store.Path)
	assert.Equal(t, "/tmp/exports", cfg.Transfer.ExportDir)
	assert.Equal(t, 3, cfg.Transfer.DefaultMaxErrors)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.App.IsTesting())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, constants.DefaultStorePath, cfg.Store.Path)
	assert.Equal(t, constants.DefaultExportDir, cfg.Transfer.ExportDir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("transfer:\n  export_dir: /from/file\n"), 0o600))

	t.Setenv("TRANSFER_EXPORT_DIR", "/from/env")
	t.Setenv("TRANSFER_DEFAULT_MAX_ERRORS", "7")
	t.Setenv("TRANSFER_LIKELY_DUP_WINDOW", "30m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/from/env", cfg.Transfer.ExportDir)
	assert.Equal(t, 7, cfg.Transfer.DefaultMaxErrors)
	assert.Equal(t, 30*time.Minute, cfg.Transfer.LikelyDuplicateWindow)
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: shouting\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log level")
}

func TestLoad_InvalidEnvironmentFallsBack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("app:\n  environment: staging\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, constants.EnvDevelopment, cfg.App.Environment)
}

func TestEnvironmentChecks(t *testing.T) {
	cfg := Default()

	cfg.App.Environment = "Production"
	assert.True(t, cfg.App.IsProduction())
	assert.False(t, cfg.App.IsDevelopment())

	cfg.App.Environment = "development"
	assert.True(t, cfg.App.IsDevelopment())
}
