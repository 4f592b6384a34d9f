package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotaiq/rotaiq/internal/models"
)

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(Config{Driver: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	db, err := Open(Config{Driver: "sqlite", DSN: "file:dbtest?mode=memory&cache=shared&_foreign_keys=1"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))

	for _, table := range []string{"regions", "branches", "users", "invitations", "shifts", "shift_claims"} {
		assert.True(t, db.Migrator().HasTable(table), "expected table %s", table)
	}

	// Composite uniqueness on (shift_id, user_id) backs claim get-or-create.
	assert.True(t, db.Migrator().HasIndex(&models.ShiftClaim{}, "idx_shift_claims_shift_user"))
}

func TestBuildPostgresDSN(t *testing.T) {
	dsn, err := buildPostgresDSN(Config{User: "rota", Name: "rotaiq", Password: "secret"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "dbname=rotaiq")
	assert.Contains(t, dsn, "sslmode=disable")

	_, err = buildPostgresDSN(Config{})
	assert.Error(t, err)
}

func TestBuildMySQLDSN(t *testing.T) {
	dsn, err := buildMySQLDSN(Config{User: "rota", Password: "secret", Name: "rotaiq"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "rota:secret@tcp(127.0.0.1:3306)/rotaiq")
	assert.Contains(t, dsn, "parseTime=True")
	assert.Contains(t, dsn, "loc=UTC")

	_, err = buildMySQLDSN(Config{})
	assert.Error(t, err)
}
