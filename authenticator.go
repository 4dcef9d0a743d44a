package caseauth

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Auther is the local email/password authenticator. It is constructed
// once from configuration and holds no mutable state; every request
// goes through the store and the token service it was built with.
type Auther struct {
	store        AccountStore
	tokenService TokenService
	logger       Logger
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(store AccountStore, cfg Config) *Auther {
	tokenService := NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		defLogger{},
	)

	return &Auther{
		store:        store,
		tokenService: tokenService,
		logger:       defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// WithTokenService overrides the token service, mostly for tests.
func (s *Auther) WithTokenService(ts TokenService) *Auther {
	s.tokenService = ts
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the password for the account holding email and mints
// a bearer token. Unknown email, a delegated-only account, and a wrong
// password are indistinguishable to the caller: all return
// ErrInvalidCredentials, and the first two still burn one bcrypt
// comparison so the timing profile matches.
func (s *Auther) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			CompareDummyPassword(password)
			s.logger.Debug("Login rejected: no account for email")
			return "", ErrInvalidCredentials
		}
		s.logger.Error("Login account lookup failed: %v", err)
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account during login")
	}

	if !account.HasLocalCredential() {
		CompareDummyPassword(password)
		s.logger.Debug("Login rejected: account has no local credential")
		return "", ErrInvalidCredentials
	}

	if !VerifyPassword(password, account.PasswordHash) {
		s.logger.Debug("Login rejected: password mismatch")
		return "", ErrInvalidCredentials
	}

	token, err := s.tokenService.Generate(NewIdentityFromAccount(account))
	if err != nil {
		s.logger.Error("Login token generation failed: %v", err)
		return "", err
	}

	return token, nil
}

// SessionFromToken validates a raw bearer token and returns its claims.
func (s *Auther) SessionFromToken(raw string) (AuthClaims, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Debug("SessionFromToken validation failed: %v", err)
		return nil, err
	}
	return claims, nil
}

// IdentityFromClaims loads the account behind validated claims.
func (s *Auther) IdentityFromClaims(ctx context.Context, claims AuthClaims) (Identity, error) {
	id, err := uuid.Parse(claims.AccountID())
	if err != nil {
		return nil, ErrTokenMalformed
	}

	account, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, ErrAccountNotFound
		}
		s.logger.Error("IdentityFromClaims account lookup failed: %v", err)
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to retrieve account for session")
	}

	return NewIdentityFromAccount(account), nil
}

var _ Authenticator = (*Auther)(nil)
