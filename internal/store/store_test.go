package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Enfiniq/loomcal-sub000/internal/querysql"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err, "database file was not created")
	assert.Equal(t, querysql.SQLite, s.Dialect())
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	for _, table := range []string{"events", "users", "user_configs"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q not found after idempotent opens", table)
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s, _ := createTestStore(t)

	assert.NoError(t, s.verifyPragma("journal_mode", "wal"))
	assert.NoError(t, s.verifyPragma("synchronous", "1"))
	assert.NoError(t, s.verifyPragma("busy_timeout", "5000"))
	assert.NoError(t, s.verifyPragma("foreign_keys", "1"))
	assert.NoError(t, s.verifyPragma("user_version", "1"))
}

func TestOpen_RefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open(sqliteDriver, path)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "newer than supported")
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{}
	assert.NoError(t, s.Close())
}

func TestRebind(t *testing.T) {
	pg := &Store{dialect: querysql.Postgres}
	lite := &Store{dialect: querysql.SQLite}

	q := "UPDATE events SET doc = ?, updated_at = ? WHERE id = ?"
	assert.Equal(t, "UPDATE events SET doc = $1, updated_at = $2 WHERE id = $3", pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}

func TestSQLRegexp(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		value   any
		want    bool
	}{
		{"text match", "^Yo", "Yoga", true},
		{"text miss", "^Yo", "Run", false},
		{"missing field", ".*", nil, false},
		{"bytes", "ga$", []byte("Yoga"), true},
		{"integer", "^4", int64(42), true},
		{"float", `\.5$`, 2.5, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sqlRegexp(tt.pattern, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := sqlRegexp("(", "x")
	assert.Error(t, err)
}

func TestNewEventID(t *testing.T) {
	a, b := newEventID(), newEventID()

	assert.True(t, strings.HasPrefix(a, "evt_"), a)
	assert.Len(t, a, len("evt_")+26)
	assert.NotEqual(t, a, b)
}
