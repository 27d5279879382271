package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := Open(Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestRunMigrations(t *testing.T) {
	conn := openMemory(t)
	m := NewMigrationManager(conn, Migrations())

	require.NoError(t, m.RunMigrations())
	require.NoError(t, m.RunMigrations(), "second run is a no-op")

	applied, err := m.GetAppliedMigrations()
	require.NoError(t, err)
	assert.True(t, applied[1])

	var count int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM regeneration_runs").Scan(&count))
	assert.Zero(t, count)
}

func TestLoadMigrationsOrder(t *testing.T) {
	source := fstest.MapFS{
		"002_second.sql": {Data: []byte("CREATE TABLE b (id INTEGER);")},
		"001_first.sql":  {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"notes.txt":      {Data: []byte("ignored")},
		"bad_name.sql":   {Data: []byte("ignored")},
	}
	migrations, err := NewMigrationManager(openMemory(t), source).LoadMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "001_first", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
}

func TestFailedMigrationRollsBack(t *testing.T) {
	conn := openMemory(t)
	source := fstest.MapFS{
		"001_broken.sql": {Data: []byte("CREATE TABLE ok (id INTEGER); NOT SQL;")},
	}
	m := NewMigrationManager(conn, source)
	require.Error(t, m.RunMigrations())

	applied, err := m.GetAppliedMigrations()
	require.NoError(t, err)
	assert.False(t, applied[1])
}

func TestTransaction(t *testing.T) {
	conn := openMemory(t)
	_, err := conn.Exec("CREATE TABLE items (id INTEGER)")
	require.NoError(t, err)

	sentinel := errors.New("abort")
	err = Transaction(conn, func(tx *sql.Tx) error {
		if _, err := tx.Exec("INSERT INTO items (id) VALUES (1)"); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	require.NoError(t, Transaction(conn, func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO items (id) VALUES (2)")
		return err
	}))

	var ids []int
	rows, err := conn.Query("SELECT id FROM items")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var id int
		require.NoError(t, rows.Scan(&id))
		ids = append(ids, id)
	}
	assert.Equal(t, []int{2}, ids)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "runs.db")
	conn, err := Open(Config{Path: path})
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, NewMigrationManager(conn, Migrations()).RunMigrations())
}
