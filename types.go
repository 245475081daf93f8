package authkit

import (
	"context"
	"fmt"
)

// Logger is the minimal logging surface the package needs. Callers plug in
// their own implementation; the default writes to stdout.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Mailer is the outbound-email capability. Delivery failures are reported
// synchronously and are never fatal to the calling workflow.
type Mailer interface {
	Send(to []string, subject, htmlBody string) error
}

// IdentityProvider verifies submitted credentials against the user store.
type IdentityProvider interface {
	VerifyIdentity(ctx context.Context, identifier Identifier, password string) (*User, error)
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] AUTH "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] AUTH "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] AUTH "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
