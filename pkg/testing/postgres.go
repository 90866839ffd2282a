package testing

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/2beens/wodlog/internal/db"
)

// GetDBPool connects to the test database (POSTGRES_HOST, default localhost),
// migrates it and truncates all tables.
func GetDBPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	host := os.Getenv("POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}
	t.Logf("using postgres host: %s", host)

	params := db.NewDBPoolParams{
		DBHost:     host,
		DBPort:     "5432",
		DBName:     "wodlog_test",
		DBPassword: os.Getenv("POSTGRES_PASS"),
	}
	require.NoError(t, db.RunMigrations(db.ConnString(params)))

	dbPool, err := db.NewDBPool(ctx, params)
	require.NoError(t, err)
	t.Cleanup(dbPool.Close)

	_, err = dbPool.Exec(ctx, `TRUNCATE likes, comments, logs, programming, workouts, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return dbPool
}
