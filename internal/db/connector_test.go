package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datatools-io/batchload/pkg/batchload"
)

func TestOpen_CreatesAndProbes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	handle, err := Open(context.Background(), Config{Path: path})
	require.NoError(t, err)
	defer handle.Close()

	require.NoError(t, Probe(context.Background(), handle))

	// The file appears once something is written.
	_, err = handle.Exec("CREATE TABLE t (id TEXT)")
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, batchload.ErrInvalidConfig))
}

func TestOpen_MissingParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent", "nested", "app.db")

	_, err := Open(context.Background(), Config{Path: path})
	require.Error(t, err)
	assert.True(t, errors.Is(err, batchload.ErrConnectivity))
	assert.Contains(t, err.Error(), "unable to open database file")
}

func TestOpen_PathIsNotADatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-db")
	require.NoError(t, os.WriteFile(path, []byte("plain text, long enough to carry a bogus header"), 0o644))

	handle, err := Open(context.Background(), Config{Path: path})
	if err == nil {
		// The driver defers reading the header until the first real query.
		defer handle.Close()
		_, err = handle.Exec("CREATE TABLE t (id TEXT)")
	}
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(err.Error()), "not a database")
}

func TestProbe_ClosedHandle(t *testing.T) {
	handle, err := Open(context.Background(), Config{
		Path: filepath.Join(t.TempDir(), "app.db"),
	})
	require.NoError(t, err)
	require.NoError(t, handle.Close())

	err = Probe(context.Background(), handle)
	require.Error(t, err)
	assert.True(t, errors.Is(err, batchload.ErrConnectivity))
}

func TestBuildDSN(t *testing.T) {
	dsn := buildDSN("data/app.db", 5*time.Second)

	assert.True(t, strings.HasPrefix(dsn, "file:data/app.db?"))
	assert.Contains(t, dsn, "_busy_timeout=5000")
	assert.Contains(t, dsn, "_foreign_keys=on")
}

func TestOpen_ForeignKeysEnforced(t *testing.T) {
	handle, err := Open(context.Background(), Config{
		Path: filepath.Join(t.TempDir(), "app.db"),
	})
	require.NoError(t, err)
	defer handle.Close()

	_, err = handle.Exec(`CREATE TABLE users (id TEXT PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = handle.Exec(`CREATE TABLE orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id)
	)`)
	require.NoError(t, err)

	_, err = handle.Exec(`INSERT INTO orders (id, user_id) VALUES ('o1', 'ghost')`)
	require.Error(t, err, "foreign keys are on in the DSN")
}
