// File: internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "console", cfg.Logger.Format)
	assert.Equal(t, "https://tls.browserleaks.com/", cfg.Oracle.URL)
	assert.Equal(t, 3*time.Second, cfg.Oracle.SettleWait)
	assert.Equal(t, ".coupang.com", cfg.Target.CookieDomain)
	assert.Equal(t, "/srp", cfg.Target.RSCPath)
	assert.Equal(t, 3, cfg.Crawler.MaxPages)
	assert.Equal(t, 500*time.Millisecond, cfg.Crawler.DelayMin)
	assert.Equal(t, 1500*time.Millisecond, cfg.Crawler.DelayMax)
	assert.Equal(t, 5000, cfg.Crawler.Page1MinBytes)
	assert.Equal(t, 50000, cfg.Crawler.PageNMinBytes)
	assert.Contains(t, cfg.Crawler.ContentMarkers, "product-list")
	assert.Contains(t, cfg.Crawler.BlockMarkers, "ERR_")
	assert.True(t, cfg.Replay.VerifyTLS)
	assert.False(t, cfg.Replay.ForceTLS12)
	assert.Equal(t, "output", cfg.Output.BaseDir)
	assert.Equal(t, 3, cfg.Browser.MarkerAttempts)
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Crawler.MaxPages)
	assert.Equal(t, "https://www.coupang.com/np/search", cfg.Target.SearchURL)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
crawler:
  max_pages: 7
  page1_min_bytes: 1234
target:
  cookie_domain: ".other.example"
replay:
  force_tls12: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Crawler.MaxPages)
	assert.Equal(t, 1234, cfg.Crawler.Page1MinBytes)
	assert.Equal(t, ".other.example", cfg.Target.CookieDomain)
	assert.True(t, cfg.Replay.ForceTLS12)
	// Untouched keys keep their defaults.
	assert.Equal(t, 50000, cfg.Crawler.PageNMinBytes)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("FPCRAWL_CRAWLER_MAX_PAGES", "9")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Crawler.MaxPages)
}
