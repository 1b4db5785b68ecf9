package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := LoadArgs(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.App.PollInterval)
	assert.Equal(t, 100*time.Millisecond, cfg.App.TickInterval)
	assert.Equal(t, 2*time.Second, cfg.App.ToolCheckDelay)
	assert.Equal(t, 4*time.Second, cfg.App.CatalogCheckDelay)
	assert.Equal(t, "catalog.toml", cfg.App.CatalogPath)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.NotEmpty(t, cfg.App.StateFile)
	assert.NoError(t, Validate(cfg))
}

func TestPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "assetdesk.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
poll-interval = "30s"
tick-interval = "250ms"
catalog = "/srv/catalog.toml"
footer = true
`), 0o644))

	environ := []string{
		"ASSETDESK_CONFIG=" + file,
		"ASSETDESK_POLL_INTERVAL=10s",
		"ASSETDESK_WIDTH=120",
	}
	cfg, err := LoadArgs([]string{"--width", "90", "extra"}, environ)
	require.NoError(t, err)

	assert.Equal(t, file, cfg.App.ConfigFile)
	assert.Equal(t, 10*time.Second, cfg.App.PollInterval, "env beats file")
	assert.Equal(t, 250*time.Millisecond, cfg.App.TickInterval, "file beats default")
	assert.Equal(t, "/srv/catalog.toml", cfg.App.CatalogPath)
	assert.True(t, cfg.App.ShowFooter)
	assert.Equal(t, 90, cfg.App.Width, "flag beats env")
	assert.Equal(t, []string{"extra"}, cfg.Args)
	assert.Equal(t, "90", cfg.Flags["width"])
}

func TestMissingConfigFileFails(t *testing.T) {
	_, err := LoadArgs([]string{"--config", filepath.Join(t.TempDir(), "nope.toml")}, nil)
	assert.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg, err := LoadArgs([]string{"--poll-interval", "0s"}, nil)
	require.NoError(t, err)
	assert.Error(t, Validate(cfg))

	cfg, err = LoadArgs([]string{"--height", "-1"}, nil)
	require.NoError(t, err)
	assert.Error(t, Validate(cfg))

	cfg, err = LoadArgs(nil, []string{"ASSETDESK_TICK_INTERVAL=soon"})
	require.NoError(t, err)
	assert.Error(t, Validate(cfg), "unparseable durations resolve to zero")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "ASSETDESK_CATALOG_CHECK_DELAY", EnvKey("catalog-check-delay"))
}
