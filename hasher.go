package authkit

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. Changing any of these invalidates stored hashes, so
// they are constants rather than configuration.
const (
	// SaltLength is the required salt size in bytes.
	SaltLength = 32
	// HashLength is the derived key size in bytes.
	HashLength = 32
	// KDFIterations is the PBKDF2 iteration count.
	KDFIterations = 600_000
)

// GenerateSalt produces a fresh cryptographically random salt.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate salt")
	}
	return salt, nil
}

// DeriveHash runs the password through PBKDF2-SHA512. The salt must be
// exactly SaltLength bytes.
func DeriveHash(password string, salt []byte) ([]byte, error) {
	if password == "" {
		return nil, ErrNoEmptyString
	}
	if len(salt) != SaltLength {
		return nil, withMeta(ErrInvalidSaltLength, map[string]any{
			"length": len(salt),
		})
	}
	return pbkdf2.Key([]byte(password), salt, KDFIterations, HashLength, sha512.New), nil
}

// VerifyPassword recomputes the hash and compares it to expected in fixed
// time. It returns false, never an error, on any derivation failure so
// callers cannot distinguish bad input from a bad password.
func VerifyPassword(password string, salt, expected []byte) bool {
	candidate, err := DeriveHash(password, salt)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(candidate, expected) == 1
}

// EncodeHex renders raw salt/hash bytes as lowercase hexadecimal for
// storage.
func EncodeHex(b []byte) string {
	return hex.EncodeToString(b)
}

// DecodeHex parses a stored lowercase-hex value back into bytes. Empty
// strings, odd lengths, and non-hex characters are rejected.
func DecodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, withMeta(ErrInvalidEncoding, map[string]any{
			"reason": "empty string",
		})
	}
	if len(s)%2 != 0 {
		return nil, withMeta(ErrInvalidEncoding, map[string]any{
			"reason": "odd length",
		})
	}
	if s != strings.ToLower(s) {
		return nil, withMeta(ErrInvalidEncoding, map[string]any{
			"reason": "uppercase characters",
		})
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, withMeta(ErrInvalidEncoding, map[string]any{
			"reason": err.Error(),
		})
	}
	return b, nil
}

// hashCredentials is the signup-side helper: fresh salt, derived hash, both
// hex encoded for the datastore.
func hashCredentials(password string) (saltHex, hashHex string, err error) {
	salt, err := GenerateSalt()
	if err != nil {
		return "", "", err
	}

	hash, err := DeriveHash(password, salt)
	if err != nil {
		return "", "", err
	}

	return EncodeHex(salt), EncodeHex(hash), nil
}

// verifyStoredCredentials decodes hex salt/hash columns and checks the
// password against them. Decode failures count as a mismatch.
func verifyStoredCredentials(password, saltHex, hashHex string) bool {
	salt, err := DecodeHex(saltHex)
	if err != nil {
		return false
	}

	hash, err := DecodeHex(hashHex)
	if err != nil {
		return false
	}

	return VerifyPassword(password, salt, hash)
}

// RandomSessionID returns an opaque 128-bit-plus bearer token encoded as
// lowercase hex.
func RandomSessionID() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate session id")
	}
	return hex.EncodeToString(raw), nil
}
