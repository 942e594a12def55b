package security

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password modes accepted by NewPasswordHasher
const (
	ModePlaintext = "plaintext"
	ModeBcrypt    = "bcrypt"
)

// PasswordHasher turns passwords into their stored form and checks candidates against it
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(stored, candidate string) bool
}

// PlaintextHasher stores passwords unchanged. It exists for data written by
// clients that compare raw passwords and must not be used for real accounts.
type PlaintextHasher struct{}

func (PlaintextHasher) Hash(password string) (string, error) {
	return password, nil
}

func (PlaintextHasher) Verify(stored, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(candidate)) == 1
}

// BcryptHasher stores bcrypt digests
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

func (BcryptHasher) Verify(stored, candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(candidate))
	return err == nil
}

// NewPasswordHasher returns the hasher for mode
func NewPasswordHasher(mode string) (PasswordHasher, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModePlaintext:
		return PlaintextHasher{}, nil
	case ModeBcrypt:
		return BcryptHasher{}, nil
	default:
		return nil, errors.New("unknown password mode " + mode)
	}
}
