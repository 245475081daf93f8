package authkit

import "strings"

type identifierKind int

const (
	identifierUsername identifierKind = iota
	identifierEmail
)

// Identifier is the login key a client presents: either an email address or
// a username, resolved explicitly at the boundary instead of sniffed from
// the string shape.
type Identifier struct {
	kind  identifierKind
	value string
}

// EmailIdentifier tags the value as an email address and normalizes it.
func EmailIdentifier(value string) Identifier {
	return Identifier{kind: identifierEmail, value: NormalizeEmail(value)}
}

// UsernameIdentifier tags the value as a username. Usernames are
// case-sensitive, so only surrounding whitespace is removed.
func UsernameIdentifier(value string) Identifier {
	return Identifier{kind: identifierUsername, value: strings.TrimSpace(value)}
}

// IsEmail reports whether the identifier carries an email address.
func (i Identifier) IsEmail() bool {
	return i.kind == identifierEmail
}

// Value returns the normalized lookup key.
func (i Identifier) Value() string {
	return i.value
}
