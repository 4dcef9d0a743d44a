package google

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/goliatone/caseauth/delegated"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderAuthCodeURL(t *testing.T) {
	provider := New(Config{
		ClientID:    "client-id",
		CallbackURL: "https://example.com/callback",
	})

	authURL := provider.AuthCodeURL("state-token",
		delegated.WithPKCE("challenge", "S256"),
		delegated.WithPrompt("consent"))

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)

	query := parsed.Query()
	assert.Equal(t, "client-id", query.Get("client_id"))
	assert.Equal(t, "https://example.com/callback", query.Get("redirect_uri"))
	assert.Equal(t, "state-token", query.Get("state"))
	assert.Equal(t, "code", query.Get("response_type"))
	assert.Equal(t, "offline", query.Get("access_type"))
	assert.Equal(t, "consent", query.Get("prompt"))
	assert.Equal(t, "challenge", query.Get("code_challenge"))
	assert.Equal(t, "S256", query.Get("code_challenge_method"))

	scope := query.Get("scope")
	assert.Contains(t, scope, "openid")
	assert.Contains(t, scope, "email")
	assert.Contains(t, scope, "profile")
}

func TestProviderExchangeAndProfile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			values, err := url.ParseQuery(string(body))
			assert.NoError(t, err)

			assert.Equal(t, "authorization_code", values.Get("grant_type"))
			assert.Equal(t, "client-id", values.Get("client_id"))
			assert.Equal(t, "client-secret", values.Get("client_secret"))
			assert.Equal(t, "auth-code", values.Get("code"))
			assert.Equal(t, "verifier", values.Get("code_verifier"))

			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "token",
				"token_type":    "Bearer",
				"expires_in":    3600,
				"refresh_token": "refresh-token",
				"scope":         "openid email profile",
			})
		case "/userinfo":
			assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"sub":            "user-1",
				"email":          "user@example.com",
				"email_verified": true,
				"name":           "User Example",
				"picture":        "https://example.com/avatar.png",
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	provider := New(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CallbackURL:  "https://example.com/callback",
		TokenURL:     server.URL + "/token",
		UserInfoURL:  server.URL + "/userinfo",
	})

	assertion, err := provider.Exchange(context.Background(), "auth-code", delegated.WithCodeVerifier("verifier"))
	require.NoError(t, err)
	assert.Equal(t, "token", assertion.AccessToken)
	assert.Equal(t, "refresh-token", assertion.RefreshToken)
	assert.Equal(t, []string{"openid", "email", "profile"}, assertion.Scopes)
	assert.True(t, assertion.ExpiresAt.After(time.Now()))

	// no id token in the response, so the profile comes from userinfo
	profile, err := provider.Profile(context.Background(), assertion)
	require.NoError(t, err)
	assert.Equal(t, "google", profile.Provider)
	assert.Equal(t, "user-1", profile.SubjectID)
	assert.Equal(t, "user@example.com", profile.Email)
	assert.True(t, profile.EmailVerified)
	assert.Equal(t, "User Example", profile.Name)
	assert.Equal(t, "https://example.com/avatar.png", profile.AvatarURL)
}

func TestProviderExchangeErrorNormalized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error":             "invalid_grant",
			"error_description": "Bad authorization code.",
		})
	}))
	defer server.Close()

	provider := New(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		CallbackURL:  "https://example.com/callback",
		TokenURL:     server.URL,
	})

	_, err := provider.Exchange(context.Background(), "stale-code")
	require.Error(t, err)

	var perr *delegated.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "google", perr.Provider)
	assert.Equal(t, "exchange", perr.Operation)
	assert.Equal(t, http.StatusBadRequest, perr.Status)
	assert.Equal(t, "invalid_grant", perr.Code)
}

func TestProviderProfileErrorNormalized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":    401,
				"message": "Invalid Credentials",
				"status":  "UNAUTHENTICATED",
			},
		})
	}))
	defer server.Close()

	provider := New(Config{
		ClientID:    "client-id",
		CallbackURL: "https://example.com/callback",
		UserInfoURL: server.URL,
	})

	_, err := provider.Profile(context.Background(), &delegated.Assertion{AccessToken: "bad"})
	require.Error(t, err)

	var perr *delegated.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "google", perr.Provider)
	assert.Equal(t, "profile", perr.Operation)
	assert.Equal(t, http.StatusUnauthorized, perr.Status)
	assert.Equal(t, "UNAUTHENTICATED", perr.Code)
}

func TestProviderProfileMissingAssertion(t *testing.T) {
	provider := New(Config{ClientID: "client-id"})

	_, err := provider.Profile(context.Background(), nil)
	require.Error(t, err)

	var perr *delegated.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "missing_assertion", perr.Code)
}
