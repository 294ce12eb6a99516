package dormly

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/pbkdf2"
)

// PasswordAuthenticator hashes and verifies passwords.
type PasswordAuthenticator interface {
	HashPassword(password string) (string, error)
	VerifyPassword(password, encoded string) bool
}

// Hasher derives PBKDF2-SHA256 keys with a per-call random salt. The
// stored form is base64(salt || derived key); every call produces a
// different string for the same password.
type Hasher struct {
	opts PasswordHashingOptions
}

func NewHasher(opts PasswordHashingOptions) *Hasher {
	return &Hasher{opts: opts}
}

var _ PasswordAuthenticator = (*Hasher)(nil)

func (h *Hasher) HashPassword(password string) (string, error) {
	if password == "" {
		return "", goerrors.New("password must not be empty", goerrors.CategoryBadInput)
	}

	salt := make([]byte, h.opts.SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to draw password salt")
	}

	key := pbkdf2.Key([]byte(password), salt, h.opts.Iterations, h.opts.HashSize, sha256.New)

	combined := make([]byte, 0, h.opts.SaltSize+h.opts.HashSize)
	combined = append(combined, salt...)
	combined = append(combined, key...)

	return base64.StdEncoding.EncodeToString(combined), nil
}

// VerifyPassword recomputes the derived key from the candidate password and
// the stored salt and compares in constant time. Malformed input returns
// false, never an error.
func (h *Hasher) VerifyPassword(password, encoded string) bool {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return false
	}

	if len(raw) != h.opts.SaltSize+h.opts.HashSize {
		return false
	}

	salt := raw[:h.opts.SaltSize]
	stored := raw[h.opts.SaltSize:]

	computed := pbkdf2.Key([]byte(password), salt, h.opts.Iterations, h.opts.HashSize, sha256.New)

	return subtle.ConstantTimeCompare(computed, stored) == 1
}
