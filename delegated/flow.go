package delegated

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/caseauth"
)

// Flow orchestrates delegated identity round trips: it encodes the
// declared intent into the encrypted state on the way out and runs the
// resolver on the way back.
type Flow struct {
	providers    map[string]Provider
	stateManager StateManager
	resolver     *Resolver
	tokenService caseauth.TokenService
	logger       caseauth.Logger
	config       FlowConfig
}

// FlowConfig configures a delegated identity flow.
type FlowConfig struct {
	DefaultRedirectURL   string
	StateEncryptionKey   []byte
	StateHMACKey         []byte
	StateTTL             time.Duration
	RequireEmailVerified bool
}

// FlowOption configures the flow.
type FlowOption func(*Flow)

// NewFlow creates a delegated identity flow.
func NewFlow(
	store caseauth.AccountStore,
	tokenService caseauth.TokenService,
	config FlowConfig,
	opts ...FlowOption,
) *Flow {
	cfg := config
	if cfg.StateTTL == 0 {
		cfg.StateTTL = 10 * time.Minute
	}

	f := &Flow{
		providers:    make(map[string]Provider),
		resolver:     NewResolver(store),
		tokenService: tokenService,
		logger:       caseauth.DefaultLogger(),
		config:       cfg,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	if f.stateManager == nil {
		f.stateManager = NewEncryptedStateManager(
			cfg.StateEncryptionKey,
			cfg.StateHMACKey,
			cfg.StateTTL,
		)
	}

	return f
}

// WithProvider registers an identity provider.
func WithProvider(provider Provider) FlowOption {
	return func(f *Flow) {
		if provider == nil {
			return
		}
		f.providers[provider.Name()] = provider
	}
}

// WithStateManager sets a custom state manager.
func WithStateManager(sm StateManager) FlowOption {
	return func(f *Flow) {
		f.stateManager = sm
	}
}

// WithResolver sets a custom resolver.
func WithResolver(r *Resolver) FlowOption {
	return func(f *Flow) {
		if r != nil {
			f.resolver = r
		}
	}
}

// WithFlowLogger sets the flow logger.
func WithFlowLogger(logger caseauth.Logger) FlowOption {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// FlowRedirect contains the authorization URL for redirecting users.
type FlowRedirect struct {
	URL      string
	State    string
	Provider string
}

// FlowResult contains the result of a completed flow. Token is empty
// when the outcome is a rejection.
type FlowResult struct {
	Outcome     *Outcome
	Token       string
	Provider    string
	Profile     *Profile
	RedirectURL string
}

// Begin starts the authorization flow for a provider with the given
// intent (IntentLogin or IntentSignup). The intent travels inside the
// encrypted state so the callback cannot be steered by a tampered
// query parameter.
func (f *Flow) Begin(ctx context.Context, providerName, intent string, opts ...BeginOption) (*FlowRedirect, error) {
	provider, ok := f.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	if f.stateManager == nil {
		return nil, ErrInvalidState
	}

	cfg := &beginConfig{
		redirectURL: f.config.DefaultRedirectURL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	codeVerifier, err := generateCodeVerifier()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	codeChallenge := computeCodeChallenge(codeVerifier)

	state := &FlowState{
		Nonce:        generateNonce(),
		Provider:     providerName,
		CodeVerifier: codeVerifier,
		RedirectURL:  cfg.redirectURL,
		Intent:       intent,
		IssuedAt:     time.Now().Unix(),
		ExpiresAt:    time.Now().Add(f.config.StateTTL).Unix(),
	}

	stateToken, err := f.stateManager.Encode(state)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	authURL := provider.AuthCodeURL(stateToken, WithPKCE(codeChallenge, "S256"))

	return &FlowRedirect{
		URL:      authURL,
		State:    stateToken,
		Provider: providerName,
	}, nil
}

// Complete finishes the flow after the provider callback.
func (f *Flow) Complete(ctx context.Context, providerName, code, stateToken string) (*FlowResult, error) {
	if f.stateManager == nil {
		return nil, ErrInvalidState
	}

	state, err := f.stateManager.Decode(stateToken)
	if err != nil {
		if errors.Is(err, ErrStateExpired) {
			return nil, ErrStateExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	if state.Provider != providerName {
		return nil, fmt.Errorf("%w: provider mismatch", ErrInvalidState)
	}

	provider, ok := f.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProviderNotFound, providerName)
	}

	assertion, err := provider.Exchange(ctx, code, WithCodeVerifier(state.CodeVerifier))
	if err != nil {
		f.logger.Error("delegated auth: %s exchange failed: %v", providerName, err)
		return nil, ErrExchangeFailed
	}

	profile, err := provider.Profile(ctx, assertion)
	if err != nil {
		f.logger.Error("delegated auth: %s profile fetch failed: %v", providerName, err)
		return nil, ErrProfileFailed
	}

	if f.config.RequireEmailVerified && !profile.EmailVerified {
		return nil, ErrEmailNotVerified
	}

	outcome, err := f.resolver.Resolve(ctx, state.Intent, profile)
	if err != nil {
		return nil, err
	}

	result := &FlowResult{
		Outcome:     outcome,
		Provider:    providerName,
		Profile:     profile,
		RedirectURL: state.RedirectURL,
	}

	if outcome.Status == StatusRejected {
		return result, nil
	}

	token, err := f.tokenService.Generate(caseauth.NewIdentityFromAccount(outcome.Account))
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	result.Token = token

	return result, nil
}

// ListProviders returns all registered providers.
func (f *Flow) ListProviders() []ProviderInfo {
	var providers []ProviderInfo
	for name, p := range f.providers {
		providers = append(providers, ProviderInfo{
			Name:    name,
			AuthURL: p.AuthCodeURL(""),
		})
	}
	return providers
}

// ProviderInfo describes an available provider.
type ProviderInfo struct {
	Name    string
	AuthURL string
}

// BeginOption configures flow initiation.
type BeginOption func(*beginConfig)

type beginConfig struct {
	redirectURL string
}

// WithRedirectURL sets the post-auth redirect URL.
func WithRedirectURL(url string) BeginOption {
	return func(c *beginConfig) {
		c.redirectURL = url
	}
}
