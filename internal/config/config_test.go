package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0o644))
}

func TestLoad_FullProject(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
database:
  path: out/app.db
  max_open_conns: 4
  busy_timeout: 10s

migrations: migrations

archive:
  url: https://example.com/data.tar.gz
  path: cache/data.tar.gz
  sha256: abc123
  extract_dir: cache

datasets:
  - file: cache/data/users.csv
    table: users
    columns: [id, name, email]
    primary_key: id
    truncate: true
  - file: cache/data/orders.csv
    table: orders
    columns: [id, user_id, amount]
    primary_key: id

retry:
  max_attempts: 7
  delay: 250ms
  backoff: exponential

timeout: 5m
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "out/app.db", cfg.Database.Path)
	assert.Equal(t, 4, cfg.Database.MaxOpenConns)
	assert.Equal(t, "10s", cfg.Database.BusyTimeout)
	assert.Equal(t, "migrations", cfg.Migrations)

	assert.Equal(t, "https://example.com/data.tar.gz", cfg.Archive.URL)
	assert.Equal(t, "cache", cfg.Archive.ExtractDir)

	require.Len(t, cfg.Datasets, 2)
	assert.Equal(t, "users", cfg.Datasets[0].Table)
	assert.Equal(t, []string{"id", "name", "email"}, cfg.Datasets[0].Columns)
	assert.True(t, cfg.Datasets[0].Truncate)
	assert.False(t, cfg.Datasets[1].Truncate)

	assert.Equal(t, 7, cfg.Retry.MaxAttempts)
	assert.Equal(t, "250ms", cfg.Retry.Delay)
	assert.Equal(t, "exponential", cfg.Retry.Backoff)
	assert.Equal(t, "5m", cfg.Timeout)
}

func TestLoad_MinimalProject(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
database:
  path: app.db

datasets:
  - file: users.csv
    table: users
    columns: [id, name]
`)

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "app.db", cfg.Database.Path)
	assert.Empty(t, cfg.Migrations)
	assert.Empty(t, cfg.Archive.URL)
	assert.Zero(t, cfg.Retry.MaxAttempts)
	require.Len(t, cfg.Datasets, 1)
	assert.Empty(t, cfg.Datasets[0].PrimaryKey)
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigNotFound))
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "database: [not: a: mapping\n")

	_, err := Load(dir)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrConfigNotFound))
}
