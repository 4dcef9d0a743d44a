package caseauth

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeEmailTaken         = "EMAIL_TAKEN"
	TextCodeIdentityTaken      = "PROVIDER_IDENTITY_TAKEN"
	TextCodeInvalidCredentials = "INVALID_CREDENTIALS"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeRoleNotAllowed     = "ROLE_NOT_ALLOWED"
	TextCodeEmptyPassword      = "EMPTY_PASSWORD"
	TextCodeEmailFrozen        = "EMAIL_FROZEN"
	TextCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
)

// ErrEmailTaken is returned when an email is already held by another
// account, regardless of which mechanism created it.
var ErrEmailTaken = errors.New("email already in use", errors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(errors.CodeConflict)

// ErrIdentityTaken is returned when a delegated identity is already
// bound to an account.
var ErrIdentityTaken = errors.New("provider identity already registered", errors.CategoryConflict).
	WithTextCode(TextCodeIdentityTaken).
	WithCode(errors.CodeConflict)

// ErrInvalidCredentials is the single outcome for every local login
// failure. Unknown email, wrong password, and an account with no local
// credential all map here so callers cannot enumerate accounts.
var ErrInvalidCredentials = errors.New("invalid credentials", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens past their validity window.
var ErrTokenExpired = errors.New("token is expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail structural or
// signature checks.
var ErrTokenMalformed = errors.New("token is malformed", errors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(errors.CodeUnauthorized)

// ErrRoleNotAllowed is returned when a valid session lacks a role the
// route requires.
var ErrRoleNotAllowed = errors.New("role not allowed for this resource", errors.CategoryAuthz).
	WithTextCode(TextCodeRoleNotAllowed).
	WithCode(errors.CodeForbidden)

// ErrNoEmptyString rejects empty plaintext passwords before hashing.
var ErrNoEmptyString = errors.New("password must not be empty", errors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(errors.CodeBadRequest)

// ErrMismatchedHashAndPassword is the internal bcrypt mismatch error.
// It never reaches a client unmapped; login converts it to
// ErrInvalidCredentials.
var ErrMismatchedHashAndPassword = errors.New("password does not match", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrEmailFrozen is returned when a profile update tries to change the
// email of an account bound to a delegated identity.
var ErrEmailFrozen = errors.New("cannot change the email of a provider-linked account", errors.CategoryAuthz).
	WithTextCode(TextCodeEmailFrozen).
	WithCode(errors.CodeForbidden)

// ErrAccountNotFound is returned when an account lookup comes back empty.
var ErrAccountNotFound = errors.New("account not found", errors.CategoryNotFound).
	WithTextCode(TextCodeAccountNotFound).
	WithCode(errors.CodeNotFound)
