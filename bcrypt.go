package crm

import (
	"errors"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// passwordHashCost trades login latency for brute-force resistance.
const passwordHashCost = 14

// HashPassword derives the bcrypt hash we store for an account. Empty
// passwords are rejected before hitting the hasher.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost)
	return string(h), err
}

// ComparePasswordAndHash checks a cleartext password against a stored
// hash, mapping a mismatch to the package sentinel so callers never
// leak bcrypt internals.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// RandomPasswordHash hashes a throwaway random password. Used when an
// account is provisioned without credentials and must not be loginable
// until a reset.
func RandomPasswordHash() string {
	pwd := uuid.New()

	h, err := HashPassword(pwd.String())
	if err != nil {
		return RandomPasswordHash()
	}

	return h
}
