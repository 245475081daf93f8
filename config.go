package authkit

import "time"

// Default lifetimes for issued credentials.
const (
	// DefaultSessionTTL is the fixed validity window for bearer sessions.
	DefaultSessionTTL = 7 * 24 * time.Hour
	// DefaultPendingTTL is how long an unverified signup stays redeemable.
	DefaultPendingTTL = 48 * time.Hour
)

// Config collects the knobs shared across repositories and workflows. It is
// injected at construction; nothing reads it as ambient state.
type Config struct {
	// SessionTTL is the validity window applied to new sessions.
	SessionTTL time.Duration
	// PendingTTL is the validity window applied to pending registrations.
	PendingTTL time.Duration
	// VerificationBaseURL prefixes the token in verification emails, e.g.
	// "https://app.example.com/verify".
	VerificationBaseURL string
	// MailFromName is the display name used in verification emails.
	MailFromName string
}

// WithDefaults fills zero-valued fields with the package defaults.
func (c Config) WithDefaults() Config {
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.PendingTTL <= 0 {
		c.PendingTTL = DefaultPendingTTL
	}
	return c
}
