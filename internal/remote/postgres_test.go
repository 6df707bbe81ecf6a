// ABOUTME: Tests for the Postgres backend against a real database.
// ABOUTME: Skipped unless HABITS_TEST_POSTGRES_DSN points at a disposable database.
package remote

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func setupTestPostgres(t *testing.T) *PostgresBackend {
	t.Helper()
	dsn := os.Getenv("HABITS_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("HABITS_TEST_POSTGRES_DSN not set")
	}

	b, err := OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)
	b.cost = bcrypt.MinCost
	t.Cleanup(b.Close)
	return b
}

func TestPostgresBackendContract(t *testing.T) {
	runBackendContract(t, func(t *testing.T) Backend {
		return setupTestPostgres(t)
	})
}

func TestPostgresDeleteAccountCascades(t *testing.T) {
	ctx := context.Background()
	b := setupTestPostgres(t)

	email := uniqueEmail()
	sess, err := b.CreateAccount(ctx, email, "pw")
	require.NoError(t, err)
	require.NoError(t, b.InsertRow(ctx, testRow(sess.AccountID, "x")))

	require.NoError(t, b.DeleteAccount(ctx, email))

	_, err = b.SignIn(ctx, email, "pw")
	require.ErrorIs(t, err, ErrAuthentication)

	var n int
	require.NoError(t, b.pool.QueryRow(ctx,
		`SELECT count(*) FROM sync_rows WHERE account_id = $1`, sess.AccountID).Scan(&n))
	require.Equal(t, 0, n)
}
