package authkit

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ErrRegistrationNotFound is the single outcome for a token that was never
// issued, already consumed, or expired; callers cannot tell which.
var ErrRegistrationNotFound = goerrors.New("registration link invalid or expired", goerrors.CategoryNotFound).
	WithTextCode("REGISTRATION_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// PendingRegistrations is the staging area for unverified signups.
type PendingRegistrations interface {
	Create(ctx context.Context, record *PendingRegistration) (*PendingRegistration, error)
	FindByToken(ctx context.Context, token string) (*PendingRegistration, error)
	FindByTokenTx(ctx context.Context, tx bun.IDB, token string) (*PendingRegistration, error)
	ExistsActive(ctx context.Context, email, name string) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	DeleteTx(ctx context.Context, tx bun.IDB, id int64) (bool, error)
	DeleteExpired(ctx context.Context) (int64, error)
}

type pendingRegistrations struct {
	db  *bun.DB
	ttl time.Duration
	now func() time.Time
}

var _ PendingRegistrations = (*pendingRegistrations)(nil)

// PendingOption customizes repository construction.
type PendingOption func(*pendingRegistrations)

// WithPendingClock injects a custom clock (useful for tests).
func WithPendingClock(clock func() time.Time) PendingOption {
	return func(p *pendingRegistrations) {
		if clock != nil {
			p.now = clock
		}
	}
}

// NewPendingRegistrationsRepository returns the bun-backed staging
// repository. The ttl sets the expiry window stamped onto new rows.
func NewPendingRegistrationsRepository(db *bun.DB, ttl time.Duration, opts ...PendingOption) PendingRegistrations {
	repo := &pendingRegistrations{db: db, ttl: ttl, now: time.Now}
	if repo.ttl <= 0 {
		repo.ttl = DefaultPendingTTL
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

// Create inserts a staging row, stamping creation and expiry timestamps.
// The caller provides the token; a collision on it, or on the name/email
// uniqueness constraints, surfaces as ErrDuplicateIdentity.
func (p *pendingRegistrations) Create(ctx context.Context, record *PendingRegistration) (*PendingRegistration, error) {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = p.now().UTC()
	}
	if record.ExpiresAt.IsZero() {
		record.ExpiresAt = record.CreatedAt.Add(p.ttl)
	}

	if _, err := p.db.NewInsert().Model(record).Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return nil, withMeta(ErrDuplicateIdentity, map[string]any{
				"name":  record.Name,
				"email": record.Email,
			})
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create pending registration")
	}

	return record, nil
}

func (p *pendingRegistrations) FindByToken(ctx context.Context, token string) (*PendingRegistration, error) {
	return p.FindByTokenTx(ctx, p.db, token)
}

// FindByTokenTx returns the staging row only while it is live. Expired rows
// are indistinguishable from never-issued tokens.
func (p *pendingRegistrations) FindByTokenTx(ctx context.Context, tx bun.IDB, token string) (*PendingRegistration, error) {
	record := &PendingRegistration{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Where("?TableAlias.expires_at > ?", p.now().UTC()).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query pending registration")
	}
	return record, nil
}

// ExistsActive reports whether a live row matches the email or the name.
// The signup path uses it to reject duplicates before hashing a password;
// the datastore constraints remain the authoritative guard.
func (p *pendingRegistrations) ExistsActive(ctx context.Context, email, name string) (bool, error) {
	exists, err := p.db.NewSelect().
		Model((*PendingRegistration)(nil)).
		Where("(?TableAlias.email = ? OR ?TableAlias.name = ?) AND ?TableAlias.expires_at > ?",
			email, name, p.now().UTC()).
		Exists(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to check pending registrations")
	}
	return exists, nil
}

func (p *pendingRegistrations) Delete(ctx context.Context, id int64) (bool, error) {
	return p.DeleteTx(ctx, p.db, id)
}

// DeleteTx removes a staging row by id. Absence is not an error, so the
// delete stays idempotent under concurrent verification and sweeps.
func (p *pendingRegistrations) DeleteTx(ctx context.Context, tx bun.IDB, id int64) (bool, error) {
	res, err := tx.NewDelete().
		Model((*PendingRegistration)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete pending registration")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read affected rows")
	}

	return rows > 0, nil
}

// DeleteExpired sweeps every staging row whose expiry has passed and returns
// the count. Safe to run opportunistically or on a timer.
func (p *pendingRegistrations) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := p.db.NewDelete().
		Model((*PendingRegistration)(nil)).
		Where("?TableAlias.expires_at <= ?", p.now().UTC()).
		Exec(ctx)
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sweep expired registrations")
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read affected rows")
	}

	return count, nil
}
