package caseauth_test

import (
	"testing"

	"github.com/goliatone/caseauth"
	"github.com/stretchr/testify/assert"
)

func TestHashPassword(t *testing.T) {
	t.Run("hashes a password", func(t *testing.T) {
		hash, err := caseauth.HashPassword("s3cret-value")
		assert.NoError(t, err)
		assert.NotEmpty(t, hash)
		assert.NotEqual(t, "s3cret-value", hash)
	})

	t.Run("empty password is rejected", func(t *testing.T) {
		_, err := caseauth.HashPassword("")
		assert.ErrorIs(t, err, caseauth.ErrNoEmptyString)
	})

	t.Run("same password yields different digests", func(t *testing.T) {
		first, err := caseauth.HashPassword("s3cret-value")
		assert.NoError(t, err)
		second, err := caseauth.HashPassword("s3cret-value")
		assert.NoError(t, err)
		assert.NotEqual(t, first, second)
	})
}

func TestComparePasswordAndHash(t *testing.T) {
	hash, err := caseauth.HashPassword("s3cret-value")
	assert.NoError(t, err)

	t.Run("round trip", func(t *testing.T) {
		assert.NoError(t, caseauth.ComparePasswordAndHash("s3cret-value", hash))
	})

	t.Run("mismatch", func(t *testing.T) {
		err := caseauth.ComparePasswordAndHash("wrong-value", hash)
		assert.ErrorIs(t, err, caseauth.ErrMismatchedHashAndPassword)
	})
}

func TestVerifyPassword(t *testing.T) {
	hash, err := caseauth.HashPassword("s3cret-value")
	assert.NoError(t, err)

	t.Run("matching password", func(t *testing.T) {
		assert.True(t, caseauth.VerifyPassword("s3cret-value", hash))
	})

	t.Run("wrong password", func(t *testing.T) {
		assert.False(t, caseauth.VerifyPassword("wrong-value", hash))
	})

	t.Run("empty stored hash is false, not an error", func(t *testing.T) {
		assert.False(t, caseauth.VerifyPassword("s3cret-value", ""))
	})

	t.Run("malformed stored hash is false, not a panic", func(t *testing.T) {
		assert.NotPanics(t, func() {
			assert.False(t, caseauth.VerifyPassword("s3cret-value", "not-a-bcrypt-digest"))
		})
	})
}
