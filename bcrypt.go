package caseauth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the work factor used across the product. bcrypt
// embeds the per-call salt in its output so verification needs no
// separate salt storage.
const bcryptCost = 14

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatchedHashAndPassword
		}
		return err
	}
	return nil
}

// VerifyPassword reports whether password matches hash. A malformed or
// empty hash yields false, never an error; callers that need the cause
// use ComparePasswordAndHash.
func VerifyPassword(password, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// dummyHash is a valid bcrypt digest of a random throwaway value. Login
// compares against it when the account is missing or has no local
// credential, keeping the failure paths on the same timing profile.
const dummyHash = "$2a$14$8K1p38PpLkkM4VzZ7yJOMeYvR0hA7Rv1tYJMiblYHMBpGYg7Xv1la"

// CompareDummyPassword burns one bcrypt comparison and always fails.
func CompareDummyPassword(password string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
}
