package guard

import (
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// Failure describes a refused request for presentation.
type Failure struct {
	Status        int
	Code          string
	Message       string
	RequiredRoles []string
}

// Presenter renders guard refusals. API surfaces want machine-readable
// JSON; server-rendered surfaces want a redirect to the login form or a
// rendered error page.
type Presenter interface {
	Unauthenticated(c *fiber.Ctx, failure Failure) error
	Forbidden(c *fiber.Ctx, failure Failure) error
}

// JSONPresenter renders refusals as JSON bodies.
type JSONPresenter struct{}

// Unauthenticated implements Presenter.
func (p *JSONPresenter) Unauthenticated(c *fiber.Ctx, failure Failure) error {
	return p.render(c, failure)
}

// Forbidden implements Presenter.
func (p *JSONPresenter) Forbidden(c *fiber.Ctx, failure Failure) error {
	return p.render(c, failure)
}

func (p *JSONPresenter) render(c *fiber.Ctx, failure Failure) error {
	body := fiber.Map{
		"msg":  failure.Message,
		"code": failure.Code,
	}
	if len(failure.RequiredRoles) > 0 {
		body["required_roles"] = failure.RequiredRoles
	}
	return c.Status(failure.Status).JSON(body)
}

// PagePresenter redirects unauthenticated visitors to the login form
// and renders an error view for forbidden ones.
type PagePresenter struct {
	// LoginRoute is where unauthenticated visitors are sent.
	// Defaults to "/login".
	LoginRoute string

	// ErrorView is the template rendered on Forbidden.
	// Defaults to "error".
	ErrorView string

	// RedirectURL/RedirectText populate the error view's escape link.
	RedirectURL  string
	RedirectText string
}

// Unauthenticated implements Presenter.
func (p *PagePresenter) Unauthenticated(c *fiber.Ctx, failure Failure) error {
	route := p.LoginRoute
	if route == "" {
		route = "/login"
	}
	return c.Redirect(route+"?message="+url.QueryEscape(failure.Message), fiber.StatusFound)
}

// Forbidden implements Presenter.
func (p *PagePresenter) Forbidden(c *fiber.Ctx, failure Failure) error {
	view := p.ErrorView
	if view == "" {
		view = "error"
	}

	redirectURL := p.RedirectURL
	if redirectURL == "" {
		redirectURL = "/dashboard"
	}
	redirectText := p.RedirectText
	if redirectText == "" {
		redirectText = "Back to Dashboard"
	}

	return c.Status(failure.Status).Render(view, fiber.Map{
		"statusCode":   failure.Status,
		"message":      failure.Message,
		"redirectUrl":  redirectURL,
		"redirectText": redirectText,
	})
}

// NegotiatingPresenter picks a presenter per request: JSON for API
// callers, pages for browsers.
type NegotiatingPresenter struct {
	JSON Presenter
	Page Presenter
}

// NewNegotiatingPresenter wires the default JSON and page presenters.
func NewNegotiatingPresenter(loginRoute string) *NegotiatingPresenter {
	return &NegotiatingPresenter{
		JSON: &JSONPresenter{},
		Page: &PagePresenter{LoginRoute: loginRoute},
	}
}

// Unauthenticated implements Presenter.
func (p *NegotiatingPresenter) Unauthenticated(c *fiber.Ctx, failure Failure) error {
	return p.pick(c).Unauthenticated(c, failure)
}

// Forbidden implements Presenter.
func (p *NegotiatingPresenter) Forbidden(c *fiber.Ctx, failure Failure) error {
	return p.pick(c).Forbidden(c, failure)
}

func (p *NegotiatingPresenter) pick(c *fiber.Ctx) Presenter {
	if wantsJSON(c) {
		return p.JSON
	}
	return p.Page
}

func wantsJSON(c *fiber.Ctx) bool {
	if c.XHR() {
		return true
	}
	accept := c.Get(fiber.HeaderAccept)
	return strings.Contains(accept, fiber.MIMEApplicationJSON)
}
