package authkit

import (
	"context"

	"github.com/goliatone/go-errors"
)

// UserProvider verifies submitted credentials against the Users repository.
type UserProvider struct {
	users  Users
	logger Logger
}

var _ IdentityProvider = (*UserProvider)(nil)

// NewUserProvider will create a new UserProvider
func NewUserProvider(users Users) *UserProvider {
	return &UserProvider{
		users:  users,
		logger: defLogger{},
	}
}

func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	if l != nil {
		u.logger = l
	}
	return u
}

// VerifyIdentity finds the user behind the identifier and checks the
// password. An unknown identifier and a wrong password produce the same
// error so the caller cannot enumerate accounts.
func (u *UserProvider) VerifyIdentity(ctx context.Context, identifier Identifier, password string) (*User, error) {
	user, err := u.findUser(ctx, identifier)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrMismatchedHashAndPassword
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve user during verification")
	}

	if !verifyStoredCredentials(password, user.PasswordSalt, user.PasswordHash) {
		return nil, ErrMismatchedHashAndPassword
	}

	return user, nil
}

func (u *UserProvider) findUser(ctx context.Context, identifier Identifier) (*User, error) {
	if identifier.IsEmail() {
		return u.users.GetByEmail(ctx, identifier.Value())
	}
	return u.users.GetByName(ctx, identifier.Value())
}
