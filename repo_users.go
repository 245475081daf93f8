package authkit

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Users is the repository over permanent accounts.
type Users interface {
	Create(ctx context.Context, record *User) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByName(ctx context.Context, name string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, capability ...Permissions) ([]*User, error)
	UpdatePermissions(ctx context.Context, id int64, mask Permissions) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type users struct {
	db  *bun.DB
	now func() time.Time
}

var _ Users = (*users)(nil)

// UsersOption customizes repository construction.
type UsersOption func(*users)

// WithUsersClock injects a custom clock (useful for tests).
func WithUsersClock(clock func() time.Time) UsersOption {
	return func(u *users) {
		if clock != nil {
			u.now = clock
		}
	}
}

// NewUsersRepository returns the bun-backed Users repository.
func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := &users{db: db, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

func (a *users) Create(ctx context.Context, record *User) (*User, error) {
	return a.CreateTx(ctx, a.db, record)
}

// CreateTx inserts a user. A uniqueness violation on name or email surfaces
// as ErrDuplicateIdentity so the promotion step can react specifically.
func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = a.now().UTC()
	}

	if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, withMeta(ErrDuplicateIdentity, map[string]any{
				"name":  record.Name,
				"email": record.Email,
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
	}

	return record, nil
}

func (a *users) GetByID(ctx context.Context, id int64) (*User, error) {
	return a.getOne(ctx, "?TableAlias.id = ?", id)
}

// GetByName performs an exact, case-sensitive lookup.
func (a *users) GetByName(ctx context.Context, name string) (*User, error) {
	return a.getOne(ctx, "?TableAlias.name = ?", name)
}

// GetByEmail expects an already-lowercased key; normalization happens once
// at the boundary, not here.
func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.getOne(ctx, "?TableAlias.email = ?", email)
}

func (a *users) getOne(ctx context.Context, clause string, arg any) (*User, error) {
	record := &User{}
	err := a.db.NewSelect().
		Model(record).
		Where(clause, arg).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, withMeta(ErrUserNotFound, map[string]any{
				"key": arg,
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query user")
	}
	return record, nil
}

// List returns users ordered root first, then admin, then user, each group
// by ascending id. An optional capability narrows the result to accounts
// holding every bit of the mask (root always qualifies).
func (a *users) List(ctx context.Context, capability ...Permissions) ([]*User, error) {
	var records []*User

	q := a.db.NewSelect().Model(&records)

	if len(capability) > 0 && capability[0] != 0 {
		required := int64(capability[0])
		q = q.Where("?TableAlias.permissions = -1 OR (?TableAlias.permissions & ?) = ?", required, required)
	}

	err := q.
		OrderExpr(
			"CASE WHEN ?TableAlias.permissions = -1 THEN 0 WHEN (?TableAlias.permissions & ?) = ? THEN 1 ELSE 2 END",
			int64(PermManageUsers), int64(PermManageUsers),
		).
		OrderExpr("?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to list users")
	}

	return records, nil
}

// UpdatePermissions overwrites the permission mask and reports whether a row
// changed. The root sentinel is rejected for every caller; granting root
// happens only through direct provisioning.
func (a *users) UpdatePermissions(ctx context.Context, id int64, mask Permissions) (bool, error) {
	if IsRoot(mask) {
		return false, withMeta(ErrRootMaskReserved, map[string]any{
			"user_id": id,
		})
	}

	res, err := a.db.NewUpdate().
		Model((*User)(nil)).
		Set("permissions = ?", int64(mask)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to update permissions")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read affected rows")
	}

	return rows > 0, nil
}

// Delete removes the user and every session referencing it in one
// transaction, so no orphan session window exists.
func (a *users) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool

	err := a.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*Session)(nil)).
			Where("?TableAlias.user_id = ?", id).
			Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete user sessions")
		}

		res, err := tx.NewDelete().
			Model((*User)(nil)).
			Where("?TableAlias.id = ?", id).
			Exec(ctx)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete user")
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read affected rows")
		}

		deleted = rows > 0
		return nil
	})
	if err != nil {
		return false, err
	}

	return deleted, nil
}

// isUniqueViolation checks whether a driver error is a UNIQUE constraint
// violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
