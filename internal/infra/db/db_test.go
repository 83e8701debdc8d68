package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConnectionConfig(t *testing.T) {
	cfg := DefaultConnectionConfig()

	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 10, cfg.MaxIdleConns)
	assert.Equal(t, 1*time.Hour, cfg.ConnMaxLifetime)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxIdleTime)
}

func TestGetConnectionConfigFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		expected ConnectionConfig
	}{
		{
			name:     "defaults",
			env:      map[string]string{},
			expected: DefaultConnectionConfig(),
		},
		{
			name: "overrides",
			env: map[string]string{
				"DB_MAX_OPEN_CONNS":     "50",
				"DB_MAX_IDLE_CONNS":     "5",
				"DB_CONN_MAX_LIFETIME":  "2h",
				"DB_CONN_MAX_IDLE_TIME": "1m",
			},
			expected: ConnectionConfig{MaxOpenConns: 50, MaxIdleConns: 5, ConnMaxLifetime: 2 * time.Hour, ConnMaxIdleTime: time.Minute},
		},
		{
			name: "invalid values fall back",
			env: map[string]string{
				"DB_MAX_OPEN_CONNS":    "invalid",
				"DB_MAX_IDLE_CONNS":    "-1",
				"DB_CONN_MAX_LIFETIME": "forever",
			},
			expected: DefaultConnectionConfig(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "DB_CONN_MAX_LIFETIME", "DB_CONN_MAX_IDLE_TIME"} {
				t.Setenv(k, tt.env[k])
			}
			assert.Equal(t, tt.expected, getConnectionConfigFromEnv())
		})
	}
}

func TestDetectDialect(t *testing.T) {
	assert.Equal(t, Postgres, DetectDialect("postgres://u:p@localhost/db"))
	assert.Equal(t, Postgres, DetectDialect("POSTGRESQL://u:p@localhost/db"))
	assert.Equal(t, SQLite, DetectDialect("wpdesk.db"))
	assert.Equal(t, SQLite, DetectDialect("file:test.db?cache=shared"))
}

func TestOpenSQLiteAndMigrate(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sites.db")

	db, dialect, err := Open(ctx, path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	assert.Equal(t, SQLite, dialect)

	require.NoError(t, MigrateUp(ctx, db, dialect))
	require.NoError(t, MigrateUp(ctx, db, dialect), "migrations are idempotent")

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sites`).Scan(&n))
	assert.Zero(t, n)

	require.NoError(t, MigrateDown(ctx, db))
}

func TestMigrateUp_Postgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS sites .* TIMESTAMPTZ`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_sites_created_at`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, MigrateUp(context.Background(), db, Postgres))
	assert.NoError(t, mock.ExpectationsWereMet())
}
