package store

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// newTestPostgres connects to TEST_DATABASE_URL, applies the up migrations and empties the
// tables. The test is skipped when no database is configured.
func newTestPostgres(t *testing.T) *Postgres {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	files, err := filepath.Glob(filepath.Join("..", "db", "migrations", "*.up.sql"))
	require.NoError(t, err)
	sort.Strings(files)
	for _, f := range files {
		sql, err := os.ReadFile(f)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, string(sql))
		require.NoError(t, err, strings.TrimSuffix(filepath.Base(f), ".up.sql"))
	}

	p := NewPostgres(pool)
	require.NoError(t, p.Wipe(ctx))
	return p
}

func TestPostgres_Users(t *testing.T) {
	runUserSuite(t, newTestPostgres(t))
}

func TestPostgres_Attempts(t *testing.T) {
	runAttemptSuite(t, newTestPostgres(t))
}

func TestPostgres_Sessions(t *testing.T) {
	p := newTestPostgres(t)
	runSessionSuite(t, p, p)
}
