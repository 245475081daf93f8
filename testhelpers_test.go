package authkit_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	authkit "github.com/quorik/go-authkit"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// setupTestDB opens a private in-memory SQLite database with the full
// schema applied. Limiting the pool to one connection keeps the memory
// database alive for the whole test.
func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { db.Close() })

	require.NoError(t, authkit.CreateSchema(context.Background(), db))

	return db
}

// seedUser inserts a user with real derived credentials and returns it.
func seedUser(t *testing.T, repo authkit.RepositoryManager, name, email, password string, mask authkit.Permissions) *authkit.User {
	t.Helper()

	salt, err := authkit.GenerateSalt()
	require.NoError(t, err)

	hash, err := authkit.DeriveHash(password, salt)
	require.NoError(t, err)

	user, err := repo.Users().Create(context.Background(), &authkit.User{
		Name:         name,
		Email:        authkit.NormalizeEmail(email),
		PasswordSalt: authkit.EncodeHex(salt),
		PasswordHash: authkit.EncodeHex(hash),
		Permissions:  mask,
	})
	require.NoError(t, err)

	return user
}

// frozenClock returns a clock pinned to a fixed instant.
func frozenClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
