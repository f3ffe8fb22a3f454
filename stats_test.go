package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStats(t *testing.T) {
	s := NewMemoryStats()
	ctx := context.Background()
	for _, name := range []string{"primary", "primary", "curated"} {
		require.NoError(t, s.Record(ctx, StatsEvent{Kind: "strategy", Name: name, At: time.Now()}))
	}
	require.NoError(t, s.Record(ctx, StatsEvent{Kind: "cache", Name: "hit"}))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]map[string]int64{
		"strategy": {"primary": 2, "curated": 1},
		"cache":    {"hit": 1},
	}, snap)

	snap["cache"]["hit"] = 99
	again, _ := s.Snapshot(ctx)
	assert.Equal(t, int64(1), again["cache"]["hit"], "snapshot is a copy")
}

func TestRedisStatsPrefix(t *testing.T) {
	assert.Equal(t, "slideimg:stats", NewRedisStats(nil, "", time.Hour).prefix)
	assert.Equal(t, "deck:stats", NewRedisStats(nil, ":deck:stats:", time.Hour).prefix)
}

func TestLoggingToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slideimg.log")
	cfg := &Config{}
	cfg.Log.File = path
	cfg.Log.MaxSizeMB = 1
	cfg.Debug.Verbose = true
	setupLogging(cfg)
	t.Cleanup(func() {
		closeLogging()
		setupLogging(&Config{})
	})

	l := newLogger("test")
	l.Println("hello")
	debugf(l, "verbose %d", 1)
	require.NoError(t, closeLogging())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "(test) ")
	assert.Contains(t, string(data), "hello")
	assert.Contains(t, string(data), "verbose 1")
}
