package authkit

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

// User is a permanent account record. Instances are created by promoting a
// PendingRegistration or through direct administrative insertion.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`
	ID            int64       `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Name          string      `bun:"name,notnull,unique" json:"name,omitempty"`
	Email         string      `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordSalt  string      `bun:"password_salt,notnull" json:"-"`
	PasswordHash  string      `bun:"password_hash,notnull" json:"-"`
	Permissions   Permissions `bun:"permissions,notnull" json:"permissions"`
	CreatedAt     time.Time   `bun:"created_at,notnull" json:"created_at,omitempty"`
}

// Role derives the display role for the user's permission mask. It is never
// used for authorization decisions.
func (u *User) Role() UserRole {
	return RoleForMask(u.Permissions)
}

// PendingRegistration is an unverified signup awaiting email confirmation.
// Rows are consumed on verification or removed by the expiry sweep; they are
// never updated in place.
type PendingRegistration struct {
	bun.BaseModel `bun:"table:pending_registrations,alias:pnd"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id,omitempty"`
	Name          string    `bun:"name,notnull" json:"name,omitempty"`
	Email         string    `bun:"email,notnull" json:"email,omitempty"`
	PasswordSalt  string    `bun:"password_salt,notnull" json:"-"`
	PasswordHash  string    `bun:"password_hash,notnull" json:"-"`
	Token         string    `bun:"token,notnull,unique" json:"-"`
	CreatedAt     time.Time `bun:"created_at,notnull" json:"created_at,omitempty"`
	ExpiresAt     time.Time `bun:"expires_at,notnull" json:"expires_at,omitempty"`
}

// Expired reports whether the registration window has closed at the given
// instant. The boundary itself counts as expired.
func (p *PendingRegistration) Expired(now time.Time) bool {
	return !p.ExpiresAt.After(now)
}

// Session binds an opaque bearer token to a user. The token doubles as the
// primary key; deleting the owning user deletes its sessions.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:ses"`
	ID            string    `bun:"session_id,pk" json:"session_id,omitempty"`
	UserID        int64     `bun:"user_id,notnull" json:"user_id,omitempty"`
	User          *User     `bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	ExpiresAt     time.Time `bun:"expires_at,notnull" json:"expires_at,omitempty"`
}

// Expired reports whether the session is no longer usable at the given
// instant. A read exactly at the expiry boundary is treated as expired.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// NormalizeEmail lowercases an email address for storage and lookups. The
// repositories expect already-normalized keys; callers at the boundary run
// addresses through here exactly once.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
