package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plancal/internal/layout"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "plancal", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_NormalizesPartialFile(t *testing.T) {
	path := writeConfig(t, `
timezone: UTC
week_start: friday
layout:
  grid_interval: 30
ics:
  - url: https://example.com/work.ics
    id: work
  - url: https://example.com/journal.ics
    id: journal
    kind: record
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "monday", cfg.WeekStart)
	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Equal(t, 30, cfg.Layout.GridInterval)
	assert.Equal(t, layout.DefaultHourHeight, cfg.Layout.HourHeight)
	assert.Equal(t, "both", cfg.Layout.PlanRecordMode)
	assert.Equal(t, "cluster", cfg.Layout.ColumnScope)
	require.Len(t, cfg.ICS, 2)
	assert.Equal(t, "plan", cfg.ICS[0].Kind)
	assert.Equal(t, "record", cfg.ICS[1].Kind)
	assert.Equal(t, time.UTC, cfg.Location())
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		body string
		is   error
	}{
		{"grid interval", "layout:\n  grid_interval: 20\n", layout.ErrInvalidGridInterval},
		{"mode", "layout:\n  plan_record_mode: weekly\n", layout.ErrInvalidMode},
		{"scope", "layout:\n  column_scope: month\n", nil},
		{"ics kind", "ics:\n  - url: https://example.com/a.ics\n    kind: journal\n", nil},
		{"timezone", "timezone: Mars/Olympus\n", nil},
		{"yaml", "layout: [\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestLoad_EmptyPath(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)
}

func TestConfig_Settings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Layout.HourHeight = 48
	cfg.Layout.DefaultDurationMinutes = 30
	cfg.Layout.PlanRecordMode = "record"
	cfg.Layout.ColumnScope = "day"

	s := cfg.Settings()

	assert.Equal(t, 48.0, s.Grid.HourHeight)
	assert.Equal(t, 15, s.Grid.GridInterval)
	assert.Equal(t, 30*time.Minute, s.Grid.DefaultDuration)
	assert.Equal(t, layout.ModeRecord, s.Mode)
	assert.Equal(t, layout.ScopeDay, s.Scope)
}

func TestSave_OverwritesAtomically(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.Listen = "0.0.0.0:9000"
	cfg.BasicAuth = &BasicAuthConfig{Username: "me", Password: "secret"}

	require.NoError(t, cfg.Save(path))
	cfg.Listen = "0.0.0.0:9001"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9001", loaded.Listen)
	require.NotNil(t, loaded.BasicAuth)
	assert.Equal(t, "me", loaded.BasicAuth.Username)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
