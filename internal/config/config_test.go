package config

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Full(t *testing.T) {
	cfg, err := Load("testdata/full.yaml")
	require.NoError(t, err)

	assert.Equal(t, Backend{Kind: BackendSQLite, Path: "./data.db"}, cfg.Backend)
	assert.Equal(t, 128, cfg.Cache.MaxEntries)
	assert.Equal(t, "./mappings", cfg.Mappings)
	assert.Equal(t, Log{Level: "debug", Format: "json"}, cfg.Log)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("cache:\n  max_entries: 4\n"))
	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.Backend.Kind)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 4, cfg.Cache.MaxEntries)

	cfg, err = Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"unknown backend", "backend:\n  kind: mongo\n", "backend.kind"},
		{"negative cache", "cache:\n  max_entries: -1\n", "cache.max_entries"},
		{"bad level", "log:\n  level: loud\n", "log.level"},
		{"bad format", "log:\n  format: xml\n", "log.format"},
		{"unknown key", "backnd:\n  kind: memory\n", "backnd"},
		{"not yaml", "backend: [", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.Log = Log{Level: "warn", Format: "json"}

	logger := cfg.Logger(&buf)
	logger.Info("hidden")
	logger.Warn("shown", "k", 1)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":1`)

	buf.Reset()
	cfg.Log = Log{Level: "debug", Format: "text"}
	cfg.Logger(&buf).Debug("detail")
	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.True(t, cfg.Logger(&buf).Enabled(context.Background(), slog.LevelDebug))
}
