package authkit

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// CreateSchema creates the users, pending_registrations, and sessions tables
// with their uniqueness constraints. The constraints on users(name),
// users(email), and pending_registrations(token) are the authoritative guard
// against duplicate-signup races; the application checks are advisory.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*User)(nil),
		(*PendingRegistration)(nil),
		(*Session)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create table")
		}
	}

	indexes := []struct {
		name    string
		model   any
		column  string
		unique  bool
	}{
		{name: "idx_pending_registrations_name", model: (*PendingRegistration)(nil), column: "name", unique: true},
		{name: "idx_pending_registrations_email", model: (*PendingRegistration)(nil), column: "email", unique: true},
		{name: "idx_sessions_user_id", model: (*Session)(nil), column: "user_id"},
	}

	for _, idx := range indexes {
		q := db.NewCreateIndex().
			Model(idx.model).
			IfNotExists().
			Index(idx.name).
			Column(idx.column)
		if idx.unique {
			q = q.Unique()
		}
		if _, err := q.Exec(ctx); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create index")
		}
	}

	return nil
}
