// Package guard provides role-gated authorization middleware for fiber.
// A guard verifies the bearer credential from the cookie or the
// Authorization header, checks the caller's role against a permitted
// set fixed at construction, and hands refusals to an injected
// Presenter so API and page routes can fail in their own dialect.
package guard

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/caseauth"
)

// CodeUnauthenticated is the failure code attached to requests refused
// before a role check. Role refusals carry the text code of
// caseauth.ErrRoleNotAllowed.
const CodeUnauthenticated = "UNAUTHENTICATED"

// TokenValidator validates raw bearer tokens.
// This mirrors the TokenService.Validate method from the caseauth package.
type TokenValidator interface {
	Validate(tokenString string) (caseauth.AuthClaims, error)
}

// Config configures a guard.
type Config struct {
	// Validator is required.
	Validator TokenValidator

	// Roles is the permitted role set. Empty means any authenticated
	// caller passes. Normalized (trimmed, lowercased, deduplicated)
	// once at construction.
	Roles []string

	// Presenter renders refusals. Defaults to JSONPresenter.
	Presenter Presenter

	// CookieName is the cookie carrying the token. Defaults to "token".
	CookieName string

	// AuthScheme is the Authorization header scheme. Defaults to "Bearer".
	AuthScheme string

	// ContextKey is the fiber locals key for verified claims.
	// Defaults to caseauth.ClaimsLocalKey.
	ContextKey string

	// Filter skips the guard when it returns true.
	Filter func(*fiber.Ctx) bool

	Logger caseauth.Logger
}

// New builds the middleware handler. The permitted role set is
// normalized here, not per request.
func New(config Config) fiber.Handler {
	cfg := setDefaults(config)
	roleSet := normalizeRoles(cfg.Roles)
	required := sortedRoles(roleSet)

	return func(c *fiber.Ctx) error {
		if cfg.Filter != nil && cfg.Filter(c) {
			return c.Next()
		}

		token := extractToken(c, cfg)
		if token == "" {
			return cfg.Presenter.Unauthenticated(c, Failure{
				Status:  fiber.StatusUnauthorized,
				Code:    CodeUnauthenticated,
				Message: "No token, authorization denied.",
			})
		}

		claims, err := cfg.Validator.Validate(token)
		if err != nil {
			cfg.Logger.Debug("guard: token rejected: %v", err)
			// Instruct the client to drop the stale credential so the
			// next page load starts clean.
			clearCookie(c, cfg.CookieName)
			return cfg.Presenter.Unauthenticated(c, Failure{
				Status:  fiber.StatusUnauthorized,
				Code:    CodeUnauthenticated,
				Message: "Token is not valid or expired.",
			})
		}

		if len(roleSet) > 0 {
			if _, ok := roleSet[strings.ToLower(claims.Role())]; !ok {
				return cfg.Presenter.Forbidden(c, Failure{
					Status:        fiber.StatusForbidden,
					Code:          caseauth.ErrRoleNotAllowed.TextCode,
					Message:       accessDeniedMessage(required),
					RequiredRoles: required,
				})
			}
		}

		c.Locals(cfg.ContextKey, claims)
		c.SetUserContext(caseauth.WithClaimsContext(c.UserContext(), claims))

		return c.Next()
	}
}

func setDefaults(cfg Config) Config {
	if cfg.Presenter == nil {
		cfg.Presenter = &JSONPresenter{}
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "token"
	}
	if cfg.AuthScheme == "" {
		cfg.AuthScheme = "Bearer"
	}
	if cfg.ContextKey == "" {
		cfg.ContextKey = caseauth.ClaimsLocalKey
	}
	if cfg.Logger == nil {
		cfg.Logger = caseauth.DefaultLogger()
	}
	return cfg
}

func normalizeRoles(roles []string) map[string]struct{} {
	set := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		role = strings.ToLower(strings.TrimSpace(role))
		if role == "" {
			continue
		}
		set[role] = struct{}{}
	}
	return set
}

func sortedRoles(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for _, role := range caseauth.GetAllRoles() {
		if _, ok := set[string(role)]; ok {
			out = append(out, string(role))
		}
	}
	// Roles outside the known ladder still gate; append them after.
	for role := range set {
		if !caseauth.IsValidRole(caseauth.Role(role)) {
			out = append(out, role)
		}
	}
	return out
}

func accessDeniedMessage(required []string) string {
	return "Access Denied: You do not have the required role (" +
		strings.Join(required, ", ") + ") to access this resource."
}

func extractToken(c *fiber.Ctx, cfg Config) string {
	if token := c.Cookies(cfg.CookieName); token != "" {
		return token
	}

	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return ""
	}

	prefix := cfg.AuthScheme + " "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}

	return ""
}

func clearCookie(c *fiber.Ctx, name string) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   c.Secure(),
	})
}
