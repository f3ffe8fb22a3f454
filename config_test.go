package main

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigJSON(t *testing.T) {
	t.Setenv("PEXELS_API_KEY", "")
	path := writeConfig(t, "config.json", `{
  "pexels.com": {"key": "pk"},
  "queue": {"maxPerHour": 90},
  "debug": {"prettyJson": true}
}`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "pk", cfg.Pexels.Key)
	assert.Equal(t, "pexels", cfg.Provider.Use)
	assert.Equal(t, "pk", cfg.apiKey())
	assert.True(t, cfg.Debug.PrettyJson)

	q := cfg.queueOptions()
	assert.Equal(t, 90, q.MaxPerWindow)
	assert.Equal(t, 200*time.Millisecond, q.MinDelay)
	assert.Equal(t, time.Hour, q.Window)
	assert.Equal(t, DefaultCacheOptions(), cfg.cacheOptions())
	assert.Equal(t, 15*time.Second, cfg.Provider.timeout())
}

func TestLoadConfigTOML(t *testing.T) {
	t.Setenv("PEXELS_API_KEY", "")
	path := writeConfig(t, "config.toml", `
database = "data/test.db"

[provider]
use = "unsplash"
timeoutSec = 3

[unsplash]
access = "ua"

[server]
listen = ":9000"
auth = true
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "unsplash", cfg.Provider.Use)
	assert.Equal(t, "ua", cfg.apiKey())
	assert.Equal(t, 3*time.Second, cfg.Provider.timeout())
	assert.Equal(t, ":9000", cfg.Server.Listen)
	assert.True(t, cfg.Server.Auth)
	assert.Equal(t, "data/test.db", cfg.Database)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("PEXELS_API_KEY", "from-env")
	path := writeConfig(t, "config.json", `{"pexels.com": {"key": "from-file"}}`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Pexels.Key)
}

func TestLoadConfigSyntaxError(t *testing.T) {
	path := writeConfig(t, "config.json", "{\n  \"queue\": {\n    \"maxPerHour\": 90,\n  }\n}\n")
	_, err := loadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Line: 4")
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestNewProvider(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)
	for _, name := range []string{"pexels", "unsplash", "pixabay"} {
		cfg.Provider.Use = name
		p, err := newProvider(cfg, nil)
		require.NoError(t, err)
		assert.Equal(t, name, p.Type())
	}
	cfg.Provider.Use = "flickr"
	_, err := newProvider(cfg, nil)
	assert.Error(t, err)
}

func TestFindPos(t *testing.T) {
	text := "line one\nline two\nline three\n"
	pos := findPos(bufio.NewReader(strings.NewReader(text)), 3)
	assert.Equal(t, FilePos{line: 1, pos: 3}, pos)

	pos = findPos(bufio.NewReader(strings.NewReader(text)), 12)
	assert.Equal(t, FilePos{line: 2, pos: 3}, pos)
}
