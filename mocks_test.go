package caseauth_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/goliatone/caseauth"
	"github.com/stretchr/testify/mock"
)

// MockAccountStore implements caseauth.AccountStore
type MockAccountStore struct {
	mock.Mock
}

func (m *MockAccountStore) FindByEmail(ctx context.Context, email string) (*caseauth.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*caseauth.Account), args.Error(1)
}

func (m *MockAccountStore) FindByExternalID(ctx context.Context, externalID string) (*caseauth.Account, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*caseauth.Account), args.Error(1)
}

func (m *MockAccountStore) FindByID(ctx context.Context, id uuid.UUID) (*caseauth.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*caseauth.Account), args.Error(1)
}

func (m *MockAccountStore) CreateAccount(ctx context.Context, record *caseauth.Account) (*caseauth.Account, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*caseauth.Account), args.Error(1)
}

func (m *MockAccountStore) UpdateAccount(ctx context.Context, record *caseauth.Account) (*caseauth.Account, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*caseauth.Account), args.Error(1)
}

// MockTokenService implements caseauth.TokenService
type MockTokenService struct {
	mock.Mock
}

func (m *MockTokenService) Generate(identity caseauth.Identity) (string, error) {
	args := m.Called(identity)
	return args.String(0), args.Error(1)
}

func (m *MockTokenService) Validate(tokenString string) (caseauth.AuthClaims, error) {
	args := m.Called(tokenString)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(caseauth.AuthClaims), args.Error(1)
}

// MockLogger implements caseauth.Logger
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {}
func (m *MockLogger) Info(format string, args ...any)  {}
func (m *MockLogger) Warn(format string, args ...any)  {}
func (m *MockLogger) Error(format string, args ...any) {}

// testConfig implements caseauth.Config
type testConfig struct {
	signingKey      string
	tokenExpiration time.Duration
}

func (c testConfig) GetSigningKey() string             { return c.signingKey }
func (c testConfig) GetTokenExpiration() time.Duration { return c.tokenExpiration }
func (c testConfig) GetCookieName() string             { return "token" }
func (c testConfig) GetIssuer() string                 { return "test-issuer" }
func (c testConfig) GetAudience() []string             { return []string{"test-audience"} }
func (c testConfig) GetLoginRoute() string             { return "/login" }

type testIdentity struct {
	id, name, email, role string
}

func (t testIdentity) ID() string          { return t.id }
func (t testIdentity) DisplayName() string { return t.name }
func (t testIdentity) Email() string       { return t.email }
func (t testIdentity) Role() string        { return t.role }
