package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigNormalize(t *testing.T) {
	cfg := Config{Host: "db", Name: "carhub"}
	require.NoError(t, cfg.Normalize())
	require.Equal(t, "5432", cfg.Port)
	require.Equal(t, "disable", cfg.SSLMode)
	require.Equal(t, 5, cfg.MaxConnections)
	require.Contains(t, cfg.DSN(), "dbname=carhub")
	require.Equal(t, "postgres://:@db:5432/carhub?sslmode=disable", cfg.URL())

	require.Error(t, (&Config{Name: "x"}).Normalize())
}

func TestResolveMigrationsDir(t *testing.T) {
	dir, err := resolveMigrationsDir("/srv/migrations")
	require.NoError(t, err)
	require.Equal(t, "/srv/migrations", dir)

	dir, err = resolveMigrationsDir("")
	require.NoError(t, err)
	require.Contains(t, dir, "migrations")
}

func TestMigrationFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000002_add_index.up.sql", "000002_add_index.down.sql",
		"000001_create_listings.up.sql", "000010_x.up.sql", "README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	files := listMigrationFiles(dir)
	var versions []uint64
	for _, f := range files {
		versions = append(versions, f.version)
	}
	require.Equal(t, []uint64{1, 2, 10}, versions)
	require.Equal(t, []string{"000002_add_index.up.sql", "000010_x.up.sql"}, between(files, 1, 10))
	require.Empty(t, between(files, 10, 10))
	require.Nil(t, listMigrationFiles(filepath.Join(dir, "missing")))
}
