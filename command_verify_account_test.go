package authkit_test

import (
	"context"
	"testing"
	"time"

	authkit "github.com/quorik/go-authkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyAccountPromotes(t *testing.T) {
	db := setupTestDB(t)
	repo := authkit.NewRepositoryManager(db, authkit.Config{})
	handler := authkit.NewVerifyAccountHandler(repo, authkit.WithVerifyAccountLogger(nopLogger{}))
	ctx := context.Background()

	staged := stagedRegistration("alice", "alice@example.com", "tok-1")
	staged.PasswordSalt = "aa11"
	staged.PasswordHash = "bb22"
	_, err := repo.PendingRegistrations().Create(ctx, staged)
	require.NoError(t, err)

	var resp *authkit.VerifyAccountResponse
	err = handler.Execute(ctx, authkit.VerifyAccountMessage{
		Token:      "tok-1",
		OnResponse: func(r *authkit.VerifyAccountResponse) { resp = r },
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.True(t, resp.Found)
	require.NotNil(t, resp.User)
	assert.NotZero(t, resp.User.ID)

	// The account carries the staged credentials and starts read-only.
	user, err := repo.Users().GetByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "aa11", user.PasswordSalt)
	assert.Equal(t, "bb22", user.PasswordHash)
	assert.Equal(t, authkit.PermissionsReadOnly, user.Permissions)

	// The staging row is consumed.
	_, err = repo.PendingRegistrations().FindByToken(ctx, "tok-1")
	assert.Error(t, err)
}

func TestVerifyAccountUnknownToken(t *testing.T) {
	db := setupTestDB(t)
	repo := authkit.NewRepositoryManager(db, authkit.Config{})
	handler := authkit.NewVerifyAccountHandler(repo, authkit.WithVerifyAccountLogger(nopLogger{}))

	var resp *authkit.VerifyAccountResponse
	err := handler.Execute(context.Background(), authkit.VerifyAccountMessage{
		Token:      "never-issued",
		OnResponse: func(r *authkit.VerifyAccountResponse) { resp = r },
	})
	require.NoError(t, err, "an unknown token is an expected outcome, not a failure")
	require.NotNil(t, resp)
	assert.False(t, resp.Found)
	assert.Nil(t, resp.User)
}

func TestVerifyAccountExpiredToken(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	stagedAt := time.Now().UTC().Add(-2 * time.Hour)
	writer := authkit.NewPendingRegistrationsRepository(db, time.Hour,
		authkit.WithPendingClock(frozenClock(stagedAt)))
	_, err := writer.Create(ctx, stagedRegistration("alice", "alice@example.com", "tok-1"))
	require.NoError(t, err)

	repo := authkit.NewRepositoryManager(db, authkit.Config{})
	handler := authkit.NewVerifyAccountHandler(repo, authkit.WithVerifyAccountLogger(nopLogger{}))

	var resp *authkit.VerifyAccountResponse
	err = handler.Execute(ctx, authkit.VerifyAccountMessage{
		Token:      "tok-1",
		OnResponse: func(r *authkit.VerifyAccountResponse) { resp = r },
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.False(t, resp.Found, "an expired token reads exactly like a never-issued one")

	// No account was created.
	_, err = repo.Users().GetByName(ctx, "alice")
	assert.Error(t, err)
}

func TestVerifyAccountDoubleRedemption(t *testing.T) {
	db := setupTestDB(t)
	repo := authkit.NewRepositoryManager(db, authkit.Config{})
	handler := authkit.NewVerifyAccountHandler(repo, authkit.WithVerifyAccountLogger(nopLogger{}))
	ctx := context.Background()

	_, err := repo.PendingRegistrations().Create(ctx, stagedRegistration("alice", "alice@example.com", "tok-1"))
	require.NoError(t, err)

	require.NoError(t, handler.Execute(ctx, authkit.VerifyAccountMessage{Token: "tok-1"}))

	var resp *authkit.VerifyAccountResponse
	err = handler.Execute(ctx, authkit.VerifyAccountMessage{
		Token:      "tok-1",
		OnResponse: func(r *authkit.VerifyAccountResponse) { resp = r },
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.False(t, resp.Found, "a consumed token cannot be redeemed twice")

	users, err := repo.Users().List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1, "redeeming twice must not create a second account")
}

func TestVerifyAccountConflictRemovesStaging(t *testing.T) {
	db := setupTestDB(t)
	repo := authkit.NewRepositoryManager(db, authkit.Config{})
	handler := authkit.NewVerifyAccountHandler(repo, authkit.WithVerifyAccountLogger(nopLogger{}))
	ctx := context.Background()

	_, err := repo.PendingRegistrations().Create(ctx, stagedRegistration("alice", "alice@example.com", "tok-1"))
	require.NoError(t, err)

	// The identity was claimed between staging and verification.
	seedUser(t, repo, "alice", "somebody-else@example.com", "a very long passphrase", authkit.PermissionsReadOnly)

	err = handler.Execute(ctx, authkit.VerifyAccountMessage{Token: "tok-1"})
	assert.True(t, authkit.IsConflict(err))

	// The staging row is unrecoverable and gone; retrying gets not-found.
	var resp *authkit.VerifyAccountResponse
	err = handler.Execute(ctx, authkit.VerifyAccountMessage{
		Token:      "tok-1",
		OnResponse: func(r *authkit.VerifyAccountResponse) { resp = r },
	})
	require.NoError(t, err)
	assert.False(t, resp.Found)

	// The earlier account is untouched.
	user, err := repo.Users().GetByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "somebody-else@example.com", user.Email)
}
