package database

import (
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_add_index.sql":    {Data: []byte("CREATE INDEX i ON t (c);")},
		"001_create_table.sql": {Data: []byte("CREATE TABLE t (c TEXT);")},
		"README.md":            {Data: []byte("ignored")},
	}

	migrations, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "create_table", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
}

func TestLoadMigrations_Invalid(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{"init.sql": {Data: []byte("")}})
	assert.ErrorContains(t, err, "invalid migration filename")

	_, err = LoadMigrations(fstest.MapFS{
		"001_a.sql": {Data: []byte("")},
		"001_b.sql": {Data: []byte("")},
	})
	assert.ErrorContains(t, err, "duplicate migration version 1")
}

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := LoadMigrations(Migrations())
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "action_log", migrations[0].Name)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS action_log")
	assert.Equal(t, "action_summary", migrations[1].Name)
	assert.Contains(t, migrations[1].SQL, "expense_action_summary")
}

func TestMigrator_RunSkipsApplied(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"001_one.sql": {Data: []byte("CREATE TABLE one (id INTEGER)")},
		"002_two.sql": {Data: []byte("CREATE TABLE two (id INTEGER)")},
	}

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT version FROM schema_migrations").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE two").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("INSERT INTO schema_migrations").WithArgs(2, "two").WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	applied, err := NewMigrator(db, zap.NewNop()).Run(fsys)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfigDSN(t *testing.T) {
	assert.Equal(t, "file:data/desk.db?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", Config{Path: "data/desk.db"}.DSN())
	assert.Contains(t, Config{Path: ":memory:"}.DSN(), "memory")
}
