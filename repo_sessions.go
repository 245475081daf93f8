package authkit

import (
	"context"
	"database/sql"
	"errors"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// ErrSessionNotFound covers a session id that never existed, was deleted,
// or just expired. The gate maps it to ErrUnauthenticated.
var ErrSessionNotFound = goerrors.New("session not found", goerrors.CategoryNotFound).
	WithTextCode("SESSION_NOT_FOUND").
	WithCode(goerrors.CodeNotFound)

// Sessions issues and resolves bearer sessions.
type Sessions interface {
	Create(ctx context.Context, userID int64) (*Session, error)
	Resolve(ctx context.Context, sessionID string) (*User, error)
	Delete(ctx context.Context, sessionID string) error
}

type sessions struct {
	db     *bun.DB
	ttl    time.Duration
	now    func() time.Time
	logger Logger
}

var _ Sessions = (*sessions)(nil)

// SessionsOption customizes repository construction.
type SessionsOption func(*sessions)

// WithSessionsClock injects a custom clock (useful for tests).
func WithSessionsClock(clock func() time.Time) SessionsOption {
	return func(s *sessions) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithSessionsLogger overrides the logger used for lazy-cleanup failures.
func WithSessionsLogger(logger Logger) SessionsOption {
	return func(s *sessions) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSessionsRepository returns the bun-backed session store. The ttl fixes
// the validity window stamped onto new sessions.
func NewSessionsRepository(db *bun.DB, ttl time.Duration, opts ...SessionsOption) Sessions {
	repo := &sessions{db: db, ttl: ttl, now: time.Now, logger: defLogger{}}
	if repo.ttl <= 0 {
		repo.ttl = DefaultSessionTTL
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

// Create issues a fresh opaque session id for the user and persists the
// binding with an expiry of now plus the configured window.
func (s *sessions) Create(ctx context.Context, userID int64) (*Session, error) {
	id, err := RandomSessionID()
	if err != nil {
		return nil, err
	}

	record := &Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: s.now().UTC().Add(s.ttl),
	}

	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist session")
	}

	return record, nil
}

// Resolve looks up the session and joins it against the owning user. An
// expired session is deleted on the spot and reported as not found.
func (s *sessions) Resolve(ctx context.Context, sessionID string) (*User, error) {
	record := &Session{}
	err := s.db.NewSelect().
		Model(record).
		Relation("User").
		Where("?TableAlias.session_id = ?", sessionID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query session")
	}

	if record.Expired(s.now().UTC()) {
		if err := s.Delete(ctx, sessionID); err != nil {
			s.logger.Error("failed to remove expired session", "error", err)
		}
		return nil, ErrSessionNotFound
	}

	if record.User == nil {
		return nil, ErrSessionNotFound
	}

	return record.User, nil
}

// Delete removes a session. Absence is not an error.
func (s *sessions) Delete(ctx context.Context, sessionID string) error {
	_, err := s.db.NewDelete().
		Model((*Session)(nil)).
		Where("?TableAlias.session_id = ?", sessionID).
		Exec(ctx)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to delete session")
	}
	return nil
}
