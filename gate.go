package authkit

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
)

// Gate is the composite entry point every privileged handler calls: it
// turns a bearer token into a verified identity and checks capabilities
// against the permission model.
type Gate struct {
	repo     RepositoryManager
	provider IdentityProvider
	logger   Logger
}

// GateOption customizes gate construction.
type GateOption func(*Gate)

// WithGateLogger overrides the gate's logger.
func WithGateLogger(logger Logger) GateOption {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithIdentityProvider swaps the credential-verification seam.
func WithIdentityProvider(provider IdentityProvider) GateOption {
	return func(g *Gate) {
		if provider != nil {
			g.provider = provider
		}
	}
}

// NewGate returns a Gate backed by the given repositories.
func NewGate(repo RepositoryManager, opts ...GateOption) *Gate {
	g := &Gate{
		repo:     repo,
		provider: NewUserProvider(repo.Users()),
		logger:   defLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Login verifies the identifier/password pair and issues a bearer session
// valid for the configured window.
func (g *Gate) Login(ctx context.Context, identifier Identifier, password string) (*Session, error) {
	user, err := g.provider.VerifyIdentity(ctx, identifier, password)
	if err != nil {
		if IsUnauthenticated(err) {
			return nil, err
		}
		g.logger.Error("login verification failed", "error", err)
		return nil, err
	}

	session, err := g.repo.Sessions().Create(ctx, user.ID)
	if err != nil {
		g.logger.Error("failed to issue session", "error", err)
		return nil, err
	}

	return session, nil
}

// Logout deletes the session. Logging out an unknown or already-expired
// session is not an error.
func (g *Gate) Logout(ctx context.Context, sessionID string) error {
	return g.repo.Sessions().Delete(ctx, sessionID)
}

// Authenticate resolves a bearer token into a user. A missing, unknown, or
// expired token all yield ErrUnauthenticated; the cases are deliberately
// indistinguishable. Expired sessions are removed opportunistically by the
// session store during resolution.
func (g *Gate) Authenticate(ctx context.Context, bearerToken string) (*User, error) {
	if bearerToken == "" {
		return nil, ErrUnauthenticated
	}

	user, err := g.repo.Sessions().Resolve(ctx, bearerToken)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrUnauthenticated
		}
		g.logger.Error("session resolution failed", "error", err)
		return nil, err
	}

	return user, nil
}

// RequireCapability checks the identity against the permission model. The
// returned ErrForbidden is distinguishable from ErrUnauthenticated: the
// caller holds a valid identity, just insufficient rights.
func (g *Gate) RequireCapability(user *User, required Permissions) error {
	if user == nil {
		return ErrUnauthenticated
	}

	if !HasPermission(user.Permissions, required) {
		return withMeta(ErrForbidden, map[string]any{
			"user_id":  user.ID,
			"required": Labels(required),
		})
	}

	return nil
}

// RequireRoot demands the root sentinel specifically. It gates the most
// destructive operations.
func (g *Gate) RequireRoot(user *User) error {
	if user == nil {
		return ErrUnauthenticated
	}

	if !IsRoot(user.Permissions) {
		return withMeta(ErrForbidden, map[string]any{
			"user_id": user.ID,
		})
	}

	return nil
}

// GrantAdmin sets the fixed admin mask (read, write, delete, manage-users)
// on the target account. Arbitrary masks are not accepted on this path.
func (g *Gate) GrantAdmin(ctx context.Context, actor *User, targetID int64) error {
	return g.setPermissions(ctx, actor, targetID, PermissionsAdmin)
}

// RevokeAdmin resets the target account to read-only.
func (g *Gate) RevokeAdmin(ctx context.Context, actor *User, targetID int64) error {
	return g.setPermissions(ctx, actor, targetID, PermissionsReadOnly)
}

// setPermissions enforces the escalation-safety rules: no self-service
// grants, only root actors reach the store, and only the fixed grant/revoke
// masks ever do. The actor check runs before any target lookup so a
// non-root caller cannot probe which user ids exist.
func (g *Gate) setPermissions(ctx context.Context, actor *User, targetID int64, mask Permissions) error {
	if actor == nil {
		return ErrUnauthenticated
	}

	if actor.ID == targetID {
		return withMeta(ErrForbidden, map[string]any{
			"reason": "cannot modify own permissions",
		})
	}

	if err := g.RequireRoot(actor); err != nil {
		return err
	}

	changed, err := g.repo.Users().UpdatePermissions(ctx, targetID, mask)
	if err != nil {
		return err
	}

	if !changed {
		return withMeta(ErrUserNotFound, map[string]any{
			"user_id": targetID,
		})
	}

	return nil
}

// DeleteUser removes an account and, in the same transaction, every session
// it owns. Reserved for callers holding manage-users.
func (g *Gate) DeleteUser(ctx context.Context, actor *User, targetID int64) error {
	if err := g.RequireCapability(actor, PermManageUsers); err != nil {
		return err
	}

	if actor.ID == targetID {
		return withMeta(ErrForbidden, map[string]any{
			"reason": "cannot delete own account",
		})
	}

	target, err := g.repo.Users().GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if IsRoot(target.Permissions) && !IsRoot(actor.Permissions) {
		return withMeta(ErrForbidden, map[string]any{
			"reason": "root accounts cannot be deleted",
		})
	}

	deleted, err := g.repo.Users().Delete(ctx, targetID)
	if err != nil {
		return err
	}

	if !deleted {
		return withMeta(ErrUserNotFound, map[string]any{
			"user_id": targetID,
		})
	}

	return nil
}
