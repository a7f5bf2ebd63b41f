package iocache

import (
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thaafei/domainx/schema"
)

func TestMigrateStore_NoneBackend(t *testing.T) {
	err := MigrateStore(schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "migrations are not supported for NoneBackend")
}

func TestMigrateStore_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	require.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, -1))
	// Second run is a no-op
	require.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, -1))
	// Step down, to zero, and back up
	require.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, 3))
	require.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, 0))
	require.NoError(t, MigrateStore(schema.SQLiteBackend, dbPath, 6))

	store, err := NewDomainStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	_, err = store.ListDomains(t.Context())
	assert.NoError(t, err)
}

func TestDialectFS(t *testing.T) {
	sub, err := fs.Sub(migrationsFS, "migrations")
	require.NoError(t, err)

	mysqlDown, err := fs.ReadFile(dialectFS{FS: sub, dialect: "mysql"}, "6_unique_library_names.down.sql")
	require.NoError(t, err)
	assert.Contains(t, string(mysqlDown), "ON libraries")

	sharedDown, err := fs.ReadFile(dialectFS{FS: sub}, "6_unique_library_names.down.sql")
	require.NoError(t, err)
	assert.NotContains(t, string(sharedDown), "ON libraries")

	// Files without an override come from the shared set
	up, err := fs.ReadFile(dialectFS{FS: sub, dialect: "mysql"}, "6_unique_library_names.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "UNIQUE INDEX")

	entries, err := fs.ReadDir(dialectFS{FS: sub, dialect: "mysql"}, ".")
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestMigrateStore_InMemory(t *testing.T) {
	require.NoError(t, MigrateStore(schema.SQLiteBackend, ":memory:", -1))
}
