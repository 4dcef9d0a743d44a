package delegated_test

import (
	"context"
	"fmt"
	"net/url"
	"testing"
	"time"

	"github.com/goliatone/caseauth"
	"github.com/goliatone/caseauth/delegated"
	"github.com/stretchr/testify/assert"
)

// fakeProvider records what the flow hands it and answers from canned
// values.
type fakeProvider struct {
	name          string
	assertion     *delegated.Assertion
	profile       *delegated.Profile
	exchangeErr   error
	profileErr    error
	lastState     string
	lastAuthCfg   delegated.AuthCodeConfig
	lastCode      string
	lastVerifier  string
	exchangeCalls int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) AuthCodeURL(state string, opts ...delegated.AuthCodeOption) string {
	p.lastState = state
	p.lastAuthCfg = delegated.ApplyAuthCodeOptions(nil, opts...)
	return fmt.Sprintf("https://provider.example/authorize?state=%s", url.QueryEscape(state))
}

func (p *fakeProvider) Exchange(ctx context.Context, code string, opts ...delegated.ExchangeOption) (*delegated.Assertion, error) {
	p.exchangeCalls++
	p.lastCode = code
	p.lastVerifier = delegated.ApplyExchangeOptions(opts...).CodeVerifier
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return p.assertion, nil
}

func (p *fakeProvider) Profile(ctx context.Context, assertion *delegated.Assertion) (*delegated.Profile, error) {
	if p.profileErr != nil {
		return nil, p.profileErr
	}
	return p.profile, nil
}

type fixedTokenService struct {
	token string
	err   error
	last  caseauth.Identity
}

func (ts *fixedTokenService) Generate(identity caseauth.Identity) (string, error) {
	ts.last = identity
	return ts.token, ts.err
}

func (ts *fixedTokenService) Validate(token string) (caseauth.AuthClaims, error) {
	return nil, caseauth.ErrTokenMalformed
}

func flowConfig() delegated.FlowConfig {
	return delegated.FlowConfig{
		DefaultRedirectURL: "/dashboard",
		StateEncryptionKey: testEncryptionKey,
		StateHMACKey:       testHMACKey,
		StateTTL:           5 * time.Minute,
	}
}

func newFakeGoogle() *fakeProvider {
	return &fakeProvider{
		name:      "google",
		assertion: &delegated.Assertion{AccessToken: "at-1", IDToken: "idt-1"},
		profile:   googleProfile(),
	}
}

func TestFlow_Begin(t *testing.T) {
	ctx := context.Background()

	t.Run("encodes intent and PKCE into the round trip", func(t *testing.T) {
		provider := newFakeGoogle()
		flow := delegated.NewFlow(newMemoryStore(), &fixedTokenService{token: "jwt"}, flowConfig(),
			delegated.WithProvider(provider))

		redirect, err := flow.Begin(ctx, "google", delegated.IntentSignup)
		assert.NoError(t, err)
		assert.Equal(t, "google", redirect.Provider)
		assert.Contains(t, redirect.URL, url.QueryEscape(redirect.State))
		assert.Equal(t, "S256", provider.lastAuthCfg.CodeChallengeMethod)
		assert.NotEmpty(t, provider.lastAuthCfg.CodeChallenge)

		sm := newTestStateManager(5 * time.Minute)
		state, err := sm.Decode(redirect.State)
		assert.NoError(t, err)
		assert.Equal(t, delegated.IntentSignup, state.Intent)
		assert.Equal(t, "google", state.Provider)
		assert.Equal(t, "/dashboard", state.RedirectURL)
		assert.NotEmpty(t, state.CodeVerifier)
	})

	t.Run("redirect override", func(t *testing.T) {
		provider := newFakeGoogle()
		flow := delegated.NewFlow(newMemoryStore(), &fixedTokenService{token: "jwt"}, flowConfig(),
			delegated.WithProvider(provider))

		redirect, err := flow.Begin(ctx, "google", delegated.IntentLogin,
			delegated.WithRedirectURL("/cases/42"))
		assert.NoError(t, err)

		state, err := newTestStateManager(5 * time.Minute).Decode(redirect.State)
		assert.NoError(t, err)
		assert.Equal(t, "/cases/42", state.RedirectURL)
	})

	t.Run("unknown provider", func(t *testing.T) {
		flow := delegated.NewFlow(newMemoryStore(), &fixedTokenService{}, flowConfig())

		_, err := flow.Begin(ctx, "github", delegated.IntentLogin)
		assert.ErrorIs(t, err, delegated.ErrProviderNotFound)
	})
}

func TestFlow_Complete(t *testing.T) {
	ctx := context.Background()

	begin := func(t *testing.T, flow *delegated.Flow, intent string) string {
		t.Helper()
		redirect, err := flow.Begin(ctx, "google", intent)
		assert.NoError(t, err)
		return redirect.State
	}

	t.Run("signup issues a session token", func(t *testing.T) {
		provider := newFakeGoogle()
		tokens := &fixedTokenService{token: "session-jwt"}
		store := newMemoryStore()
		flow := delegated.NewFlow(store, tokens, flowConfig(),
			delegated.WithProvider(provider))

		state := begin(t, flow, delegated.IntentSignup)
		result, err := flow.Complete(ctx, "google", "auth-code", state)
		assert.NoError(t, err)
		assert.Equal(t, delegated.StatusCreated, result.Outcome.Status)
		assert.Equal(t, "session-jwt", result.Token)
		assert.Equal(t, "/dashboard", result.RedirectURL)
		assert.Equal(t, "auth-code", provider.lastCode)
		// the verifier minted at Begin travels back into Exchange
		assert.Equal(t, provider.lastVerifier, mustDecodeState(t, state).CodeVerifier)
		assert.Equal(t, 1, store.writes)
	})

	t.Run("login accepts a known identity", func(t *testing.T) {
		provider := newFakeGoogle()
		store := newMemoryStore(&caseauth.Account{
			Email:      "ada@example.com",
			ExternalID: "google-subject-1",
			Role:       caseauth.RoleLawyer,
		})
		flow := delegated.NewFlow(store, &fixedTokenService{token: "session-jwt"}, flowConfig(),
			delegated.WithProvider(provider))

		state := begin(t, flow, delegated.IntentLogin)
		result, err := flow.Complete(ctx, "google", "auth-code", state)
		assert.NoError(t, err)
		assert.Equal(t, delegated.StatusAccepted, result.Outcome.Status)
		assert.Equal(t, "session-jwt", result.Token)
	})

	t.Run("rejection carries the reason and no token", func(t *testing.T) {
		provider := newFakeGoogle()
		flow := delegated.NewFlow(newMemoryStore(), &fixedTokenService{token: "session-jwt"}, flowConfig(),
			delegated.WithProvider(provider))

		state := begin(t, flow, delegated.IntentLogin)
		result, err := flow.Complete(ctx, "google", "auth-code", state)
		assert.NoError(t, err)
		assert.Equal(t, delegated.StatusRejected, result.Outcome.Status)
		assert.Equal(t, delegated.ReasonNotRegistered, result.Outcome.Reason)
		assert.Empty(t, result.Token)
	})

	t.Run("state minted for another provider is refused", func(t *testing.T) {
		provider := newFakeGoogle()
		flow := delegated.NewFlow(newMemoryStore(), &fixedTokenService{}, flowConfig(),
			delegated.WithProvider(provider))

		sm := newTestStateManager(5 * time.Minute)
		state, err := sm.Encode(&delegated.FlowState{
			Provider: "github",
			Intent:   delegated.IntentLogin,
		})
		assert.NoError(t, err)

		_, err = flow.Complete(ctx, "google", "auth-code", state)
		assert.ErrorIs(t, err, delegated.ErrInvalidState)
		assert.Equal(t, 0, provider.exchangeCalls)
	})

	t.Run("tampered state never reaches the provider", func(t *testing.T) {
		provider := newFakeGoogle()
		flow := delegated.NewFlow(newMemoryStore(), &fixedTokenService{}, flowConfig(),
			delegated.WithProvider(provider))

		_, err := flow.Complete(ctx, "google", "auth-code", "bm90LXJlYWwtc3RhdGU=")
		assert.ErrorIs(t, err, delegated.ErrInvalidState)
		assert.Equal(t, 0, provider.exchangeCalls)
	})

	t.Run("expired state", func(t *testing.T) {
		provider := newFakeGoogle()
		flow := delegated.NewFlow(newMemoryStore(), &fixedTokenService{}, flowConfig(),
			delegated.WithProvider(provider))

		sm := newTestStateManager(5 * time.Minute)
		state, err := sm.Encode(&delegated.FlowState{
			Provider:  "google",
			Intent:    delegated.IntentLogin,
			IssuedAt:  time.Now().Add(-time.Hour).Unix(),
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		})
		assert.NoError(t, err)

		_, err = flow.Complete(ctx, "google", "auth-code", state)
		assert.ErrorIs(t, err, delegated.ErrStateExpired)
	})

	t.Run("exchange failure", func(t *testing.T) {
		provider := newFakeGoogle()
		provider.exchangeErr = fmt.Errorf("upstream 502")
		flow := delegated.NewFlow(newMemoryStore(), &fixedTokenService{}, flowConfig(),
			delegated.WithProvider(provider))

		state := begin(t, flow, delegated.IntentSignup)
		_, err := flow.Complete(ctx, "google", "auth-code", state)
		assert.ErrorIs(t, err, delegated.ErrExchangeFailed)
	})

	t.Run("profile failure", func(t *testing.T) {
		provider := newFakeGoogle()
		provider.profileErr = fmt.Errorf("userinfo 500")
		flow := delegated.NewFlow(newMemoryStore(), &fixedTokenService{}, flowConfig(),
			delegated.WithProvider(provider))

		state := begin(t, flow, delegated.IntentSignup)
		_, err := flow.Complete(ctx, "google", "auth-code", state)
		assert.ErrorIs(t, err, delegated.ErrProfileFailed)
	})

	t.Run("unverified email is refused when required", func(t *testing.T) {
		provider := newFakeGoogle()
		provider.profile.EmailVerified = false
		cfg := flowConfig()
		cfg.RequireEmailVerified = true
		flow := delegated.NewFlow(newMemoryStore(), &fixedTokenService{}, cfg,
			delegated.WithProvider(provider))

		state := begin(t, flow, delegated.IntentSignup)
		_, err := flow.Complete(ctx, "google", "auth-code", state)
		assert.ErrorIs(t, err, delegated.ErrEmailNotVerified)
	})
}

func mustDecodeState(t *testing.T, token string) *delegated.FlowState {
	t.Helper()
	state, err := newTestStateManager(5 * time.Minute).Decode(token)
	assert.NoError(t, err)
	return state
}
