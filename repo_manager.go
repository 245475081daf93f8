package authkit

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories plus transactional access to
// the underlying store.
type RepositoryManager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Users() Users
	PendingRegistrations() PendingRegistrations
	Sessions() Sessions
}

type mngr struct {
	db       *bun.DB
	users    Users
	pending  PendingRegistrations
	sessions Sessions
}

// NewRepositoryManager wires every repository against the same database
// handle using lifetimes from cfg.
func NewRepositoryManager(db *bun.DB, cfg Config) RepositoryManager {
	cfg = cfg.WithDefaults()
	return &mngr{
		db:       db,
		users:    NewUsersRepository(db),
		pending:  NewPendingRegistrationsRepository(db, cfg.PendingTTL),
		sessions: NewSessionsRepository(db, cfg.SessionTTL),
	}
}

func (m mngr) Validate() error {
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.pending == nil {
		return errors.New("repository pendingRegistrations should be initialized")
	}

	if m.sessions == nil {
		return errors.New("repository sessions should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) PendingRegistrations() PendingRegistrations {
	return m.pending
}

func (m mngr) Sessions() Sessions {
	return m.sessions
}
