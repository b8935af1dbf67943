package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{"MEMOIR_DB", "MEMOIR_ADDR", "MEMOIR_LOG_LEVEL", "MEMOIR_BIRTH_YEAR", "MEMOIR_WORKERS"} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 4, cfg.Workers)
	assert.NotEmpty(t, cfg.DBPath)
	assert.Zero(t, cfg.BirthYear)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "db_path: /tmp/stories.db\naddr: :9090\nlog_level: debug\nbirth_year: 1941\nworkers: 2\n")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/stories.db", cfg.DBPath)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 1941, cfg.BirthYear)
	assert.Equal(t, 2, cfg.Workers)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "addr: :9090\nbirth_year: 1941\n")

	t.Setenv("MEMOIR_ADDR", ":7000")
	t.Setenv("MEMOIR_BIRTH_YEAR", "1950")
	t.Setenv("MEMOIR_WORKERS", "8")
	t.Setenv("MEMOIR_DB", "/data/m.db")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, 1950, cfg.BirthYear)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "/data/m.db", cfg.DBPath)
}

func TestLoadErrors(t *testing.T) {
	t.Run("bad yaml", func(t *testing.T) {
		clearEnv(t)
		_, err := LoadFile(writeFile(t, "addr: [unclosed"))
		assert.Error(t, err)
	})

	t.Run("bad env number", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MEMOIR_BIRTH_YEAR", "nineteen")
		_, err := LoadFile("")
		assert.Error(t, err)
	})

	t.Run("bad log level", func(t *testing.T) {
		clearEnv(t)
		_, err := LoadFile(writeFile(t, "log_level: loud\n"))
		assert.Error(t, err)
	})

	t.Run("no workers", func(t *testing.T) {
		clearEnv(t)
		_, err := LoadFile(writeFile(t, "workers: 0\n"))
		assert.Error(t, err)
	})
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.BirthYear = 1938
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestPathFromEnv(t *testing.T) {
	t.Setenv("MEMOIR_CONFIG", "/etc/memoir.yaml")
	assert.Equal(t, "/etc/memoir.yaml", Path())
}
