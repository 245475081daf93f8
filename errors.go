package authkit

import (
	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to structured errors so callers can branch without
// string matching.
const (
	TextCodeInvalidCreds      = "INVALID_CREDENTIALS"
	TextCodeUnauthenticated   = "UNAUTHENTICATED"
	TextCodeForbidden         = "FORBIDDEN"
	TextCodeRootMaskReserved  = "ROOT_MASK_RESERVED"
	TextCodeDuplicateIdentity = "DUPLICATE_IDENTITY"
	TextCodeInvalidEncoding   = "INVALID_ENCODING"
	TextCodeInvalidSalt       = "INVALID_SALT_LENGTH"
	TextCodeUserNotFound      = "USER_NOT_FOUND"
	TextCodeEmptyPassword     = "NO_EMPTY_PASSWORD"
)

// ErrMismatchedHashAndPassword is returned for every failed login, whether
// the identifier is unknown or the password is wrong. The two cases are
// deliberately indistinguishable to prevent account enumeration.
var ErrMismatchedHashAndPassword = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds)

// ErrUnauthenticated covers a missing, unknown, or expired bearer session,
// without revealing which.
var ErrUnauthenticated = goerrors.New("authentication required", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated)

// ErrForbidden is returned when a valid identity lacks the required
// capability, or an escalation-safety guard trips.
var ErrForbidden = goerrors.New("insufficient permissions", goerrors.CategoryAuth).
	WithTextCode(TextCodeForbidden)

// ErrRootMaskReserved rejects the root sentinel on the ordinary
// permission-update path, for every caller including root itself.
var ErrRootMaskReserved = goerrors.New("the root permission mask cannot be assigned", goerrors.CategoryAuth).
	WithTextCode(TextCodeRootMaskReserved)

// ErrDuplicateIdentity is surfaced when a name or email collides with an
// existing user or a live pending registration.
var ErrDuplicateIdentity = goerrors.New("name or email already registered", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateIdentity).
	WithCode(goerrors.CodeConflict)

// ErrInvalidEncoding rejects malformed hexadecimal salt/hash strings.
var ErrInvalidEncoding = goerrors.New("value is not lowercase hexadecimal", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidEncoding)

// ErrInvalidSaltLength rejects salts that are not exactly SaltLength bytes.
var ErrInvalidSaltLength = goerrors.New("salt has the wrong length", goerrors.CategoryBadInput).
	WithTextCode(TextCodeInvalidSalt)

// ErrUserNotFound is the typed not-found result for user lookups.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrNoEmptyString rejects empty passwords before key derivation.
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword)

// withMeta returns a fresh copy of a sentinel error carrying the metadata.
// The sentinels are shared process-wide, so they are never mutated; every
// call site that wants per-request detail goes through here.
func withMeta(err *goerrors.Error, meta map[string]any) *goerrors.Error {
	fresh := goerrors.New(err.Message, err.Category).WithTextCode(err.TextCode)
	if err.Code != 0 {
		fresh = fresh.WithCode(err.Code)
	}
	return fresh.WithMetadata(meta)
}

// IsConflict reports whether err is a uniqueness conflict.
func IsConflict(err error) bool {
	return hasCategory(err, goerrors.CategoryConflict)
}

// IsUnauthenticated reports whether err maps to a 401-style outcome.
func IsUnauthenticated(err error) bool {
	return hasTextCode(err, TextCodeUnauthenticated) || hasTextCode(err, TextCodeInvalidCreds)
}

// IsForbidden reports whether err maps to a 403-style outcome.
func IsForbidden(err error) bool {
	return hasTextCode(err, TextCodeForbidden) || hasTextCode(err, TextCodeRootMaskReserved)
}

func hasCategory(err error, category goerrors.Category) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == category
}

func hasTextCode(err error, code string) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}
