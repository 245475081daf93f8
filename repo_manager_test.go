package authkit_test

import (
	"context"
	"testing"

	authkit "github.com/quorik/go-authkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func TestRepositoryManagerValidate(t *testing.T) {
	db := setupTestDB(t)
	repo := authkit.NewRepositoryManager(db, authkit.Config{})

	require.NoError(t, repo.Validate())
	assert.NotNil(t, repo.Users())
	assert.NotNil(t, repo.PendingRegistrations())
	assert.NotNil(t, repo.Sessions())
}

func TestRepositoryManagerRunInTx(t *testing.T) {
	db := setupTestDB(t)
	repo := authkit.NewRepositoryManager(db, authkit.Config{})
	ctx := context.Background()

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := repo.Users().CreateTx(ctx, tx, &authkit.User{
			Name:         "alice",
			Email:        "alice@example.com",
			PasswordSalt: "00",
			PasswordHash: "11",
		})
		return err
	})
	require.NoError(t, err)

	_, err = repo.Users().GetByName(ctx, "alice")
	assert.NoError(t, err)
}

func TestRepositoryManagerRunInTxRollsBack(t *testing.T) {
	db := setupTestDB(t)
	repo := authkit.NewRepositoryManager(db, authkit.Config{})
	ctx := context.Background()

	boom := assert.AnError
	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := repo.Users().CreateTx(ctx, tx, &authkit.User{
			Name:         "alice",
			Email:        "alice@example.com",
			PasswordSalt: "00",
			PasswordHash: "11",
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = repo.Users().GetByName(ctx, "alice")
	assert.Error(t, err, "the insert must be rolled back")
}

func TestRepositoryManagerRunInTxCancelledContext(t *testing.T) {
	db := setupTestDB(t)
	repo := authkit.NewRepositoryManager(db, authkit.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		t.Fatal("the transaction body must not run")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
