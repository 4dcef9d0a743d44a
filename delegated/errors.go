package delegated

import "github.com/goliatone/go-errors"

const (
	TextCodeProviderNotFound = "delegated_provider_not_found"
	TextCodeInvalidState     = "delegated_invalid_state"
	TextCodeStateExpired     = "delegated_state_expired"
	TextCodeExchangeFail     = "delegated_exchange_failed"
	TextCodeProfileFail      = "delegated_profile_failed"
	TextCodeEmailNotVerified = "delegated_email_not_verified"
)

// Rejection reasons shown to end users. The resolver returns these
// verbatim so both JSON and page presentations stay consistent.
const (
	ReasonAlreadyRegistered = "This account is already registered. Please log in."
	ReasonEmailInUse        = "This email is already in use. Please log in with your original method."
	ReasonNotRegistered     = "This account is not registered. Please sign up first."
	ReasonInvalidIntent     = "Invalid authentication action specified."
)

// ErrProviderNotFound is returned when a requested provider is not configured.
var ErrProviderNotFound = errors.New("identity provider not found", errors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotFound).
	WithCode(errors.CodeNotFound)

// ErrInvalidState is returned when the flow state is invalid or tampered.
var ErrInvalidState = errors.New("invalid flow state", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidState).
	WithCode(errors.CodeBadRequest)

// ErrStateExpired is returned when the flow state has expired.
var ErrStateExpired = errors.New("flow state expired", errors.CategoryBadInput).
	WithTextCode(TextCodeStateExpired).
	WithCode(errors.CodeBadRequest)

// ErrExchangeFailed is returned when a provider code exchange fails.
var ErrExchangeFailed = errors.New("code exchange failed", errors.CategoryAuth).
	WithTextCode(TextCodeExchangeFail).
	WithCode(errors.CodeUnauthorized)

// ErrProfileFailed is returned when fetching the provider profile fails.
var ErrProfileFailed = errors.New("failed to fetch provider profile", errors.CategoryAuth).
	WithTextCode(TextCodeProfileFail).
	WithCode(errors.CodeUnauthorized)

// ErrEmailNotVerified is returned when a provider email is not verified.
var ErrEmailNotVerified = errors.New("email not verified", errors.CategoryAuth).
	WithTextCode(TextCodeEmailNotVerified).
	WithCode(errors.CodeForbidden)
