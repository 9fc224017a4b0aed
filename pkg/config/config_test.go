package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://api-supamart.onrender.com/api", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3*time.Second, cfg.API.ConversionTimeout)
	assert.Equal(t, "/login", cfg.Dashboard.LoginURL)
	assert.Equal(t, 2*time.Second, cfg.Dashboard.RedirectDelay)
	assert.Zero(t, cfg.Dashboard.CacheMaxAge)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.NotContains(t, cfg.Session.Path, "~")
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dashboard.yaml")
	content := []byte("api:\n  base_url: http://localhost:4000/api\n  conversion_timeout: 500ms\ndashboard:\n  redirect_delay: 0s\n  manifest: sections.yaml\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	t.Setenv("DASHBOARD_SERVER_ADDR", ":9090")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4000/api", cfg.API.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.API.ConversionTimeout)
	assert.Zero(t, cfg.Dashboard.RedirectDelay)
	assert.Equal(t, "sections.yaml", cfg.Dashboard.Manifest)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "/login", cfg.Dashboard.LoginURL)
}

func TestValidateRejectsBadTimeouts(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	cfg.API.ConversionTimeout = 0
	assert.Error(t, cfg.Validate())
}
