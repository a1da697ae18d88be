package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("PORT")
	os.Unsetenv("SUPERSTAQ_REMOTE_HOST")
	os.Unsetenv("SUPERSTAQ_API_VERSION")
	os.Unsetenv("SUPERSTAQ_DEFAULT_SHOTS")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, DefaultRemoteHost, cfg.SuperstaqRemoteHost)
	assert.Equal(t, DefaultAPIVersion, cfg.SuperstaqAPIVersion)
	assert.Equal(t, DefaultShots, cfg.DefaultShots)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9999")
	t.Setenv("SUPERSTAQ_REMOTE_HOST", "http://localhost:5000")
	t.Setenv("SUPERSTAQ_API_KEY", "test-key")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("RISK_FREE_RATE", "0.02")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "http://localhost:5000", cfg.SuperstaqRemoteHost)
	assert.Equal(t, "test-key", cfg.SuperstaqAPIKey)
	assert.True(t, cfg.DevMode)
	assert.InDelta(t, 0.02, cfg.RiskFreeRate, 1e-12)
	assert.True(t, cfg.HasAPIKey())
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("PORT", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestResolveAPIKey_EnvWins(t *testing.T) {
	t.Setenv("SUPERSTAQ_API_KEY", "from-env")

	assert.Equal(t, "from-env", resolveAPIKey())
}

func TestResolveAPIKey_KeyFile(t *testing.T) {
	t.Setenv("SUPERSTAQ_API_KEY", "")
	os.Unsetenv("SUPERSTAQ_API_KEY")

	home := t.TempDir()
	t.Setenv("HOME", home)

	keyDir := filepath.Join(home, ".super.tech")
	require.NoError(t, os.MkdirAll(keyDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(keyDir, "superstaq_api_key"), []byte("file-key\n"), 0o600))

	assert.Equal(t, "file-key", resolveAPIKey())
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BOOL", "true")
	t.Setenv("TEST_FLOAT", "1.5")

	assert.Equal(t, "value", getEnv("TEST_STR", "default"))
	assert.Equal(t, "default", getEnv("TEST_MISSING", "default"))
	assert.Equal(t, 42, getEnvAsInt("TEST_INT", 0))
	assert.Equal(t, 7, getEnvAsInt("TEST_INT_MISSING", 7))
	assert.True(t, getEnvAsBool("TEST_BOOL", false))
	assert.InDelta(t, 1.5, getEnvAsFloat("TEST_FLOAT", 0), 1e-12)
}
