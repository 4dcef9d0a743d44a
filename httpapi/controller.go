// Package httpapi wires the account flows onto fiber routes: local
// register/login/logout, the delegated identity round trip, and the
// profile endpoints.
package httpapi

import (
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/goliatone/caseauth"
	"github.com/goliatone/caseauth/delegated"
	goerrors "github.com/goliatone/go-errors"
)

// AuthControllerRoutes holds the route paths the controller registers.
type AuthControllerRoutes struct {
	Login          string
	Logout         string
	Register       string
	Profile        string
	GoogleSignup   string
	GoogleLogin    string
	GoogleCallback string
	Dashboard      string
}

// AuthControllerViews holds the template names for page rendering.
type AuthControllerViews struct {
	Login    string
	Register string
}

// AuthController serves the account routes. Page requests fail with
// redirects carrying a message query parameter; API requests fail with
// JSON bodies.
type AuthController struct {
	Logger caseauth.Logger
	Repo   caseauth.RepositoryManager
	Auther *caseauth.RouteAuthenticator
	Flow   *delegated.Flow
	Routes *AuthControllerRoutes
	Views  *AuthControllerViews
}

// AuthControllerOption configures the controller.
type AuthControllerOption func(*AuthController) *AuthController

// NewAuthController creates a controller with the default route map.
func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: caseauth.DefaultLogger(),
		Routes: &AuthControllerRoutes{
			Login:          "/login",
			Logout:         "/logout",
			Register:       "/register",
			Profile:        "/api/auth/profile",
			GoogleSignup:   "/api/auth/google/signup",
			GoogleLogin:    "/api/auth/google/login",
			GoogleCallback: "/api/auth/google/callback",
			Dashboard:      "/dashboard",
		},
		Views: &AuthControllerViews{
			Login:    "login",
			Register: "register",
		},
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

// WithLogger sets the controller logger.
func WithLogger(logger caseauth.Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithRepository sets the repository manager.
func WithRepository(repo caseauth.RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

// WithRouteAuthenticator sets the cookie transport.
func WithRouteAuthenticator(auther *caseauth.RouteAuthenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

// WithFlow sets the delegated identity flow.
func WithFlow(flow *delegated.Flow) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Flow = flow
		return c
	}
}

// RegisterRoutes mounts the public account routes. The profile routes
// need an authenticated guard; mount them with RegisterProfileRoutes.
func (a *AuthController) RegisterRoutes(app fiber.Router) {
	app.Get(a.Routes.Login, a.LoginShow)
	app.Post(a.Routes.Login, a.LoginPost)
	app.Get(a.Routes.Logout, a.LogOut)
	app.Get(a.Routes.Register, a.RegistrationShow)
	app.Post(a.Routes.Register, a.RegistrationCreate)

	if a.Flow != nil {
		app.Get(a.Routes.GoogleSignup, a.DelegatedBegin(delegated.IntentSignup))
		app.Get(a.Routes.GoogleLogin, a.DelegatedBegin(delegated.IntentLogin))
		app.Get(a.Routes.GoogleCallback, a.DelegatedCallback)
	}
}

// RegisterProfileRoutes mounts the profile endpoints behind the given
// guard middleware.
func (a *AuthController) RegisterProfileRoutes(app fiber.Router, authenticated fiber.Handler) {
	app.Get(a.Routes.Profile, authenticated, a.ProfileShow)
	app.Put(a.Routes.Profile, authenticated, a.ProfileUpdate)
}

func (a *AuthController) LoginShow(c *fiber.Ctx) error {
	return c.Render(a.Views.Login, fiber.Map{
		"message": c.Query("message"),
	})
}

// LoginPostPayload is the login form payload.
type LoginPostPayload struct {
	Email    string `form:"email" json:"email"`
	Password string `form:"password" json:"password"`
}

func (r LoginPostPayload) GetEmail() string    { return r.Email }
func (r LoginPostPayload) GetPassword() string { return r.Password }

// Validate will validate the payload
func (r LoginPostPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := LoginPostPayload{}
	if err := c.BodyParser(&payload); err != nil {
		a.Logger.Error("login parse payload: %v", err)
		return a.fail(c, fiber.StatusBadRequest, "Invalid Credentials", a.Routes.Login)
	}

	if err := payload.Validate(); err != nil {
		return a.fail(c, fiber.StatusBadRequest, "Invalid Credentials", a.Routes.Login)
	}

	if err := a.Auther.Login(c, payload); err != nil {
		if goerrors.Is(err, caseauth.ErrInvalidCredentials) {
			return a.fail(c, fiber.StatusUnauthorized, "Invalid Credentials", a.Routes.Login)
		}
		a.Logger.Error("login: %v", err)
		return a.fail(c, fiber.StatusInternalServerError, "Server error during login.", a.Routes.Login)
	}

	if wantsJSON(c) {
		return c.JSON(fiber.Map{"msg": "Login successful"})
	}
	return c.Redirect(a.Routes.Dashboard, fiber.StatusFound)
}

func (a *AuthController) LogOut(c *fiber.Ctx) error {
	a.Auther.Logout(c)
	if wantsJSON(c) {
		return c.JSON(fiber.Map{"msg": "You have been logged out."})
	}
	return a.redirectWithMessage(c, a.Routes.Login, "You have been logged out.")
}

func (a *AuthController) RegistrationShow(c *fiber.Ctx) error {
	return c.Render(a.Views.Register, fiber.Map{
		"message": c.Query("message"),
	})
}

// RegistrationCreatePayload is the registration form payload.
type RegistrationCreatePayload struct {
	Name            string `form:"name" json:"name"`
	Email           string `form:"email" json:"email"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
	Role            string `form:"role" json:"role"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.ConfirmPassword, validation.By(func(value any) error {
			s, _ := value.(string)
			if s != "" && s != r.Password {
				return validation.NewError("validation_match", "passwords do not match")
			}
			return nil
		})),
	)
}

func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := RegistrationCreatePayload{}
	if err := c.BodyParser(&payload); err != nil {
		a.Logger.Error("register parse payload: %v", err)
		return a.fail(c, fiber.StatusBadRequest, "Server error during registration.", a.Routes.Register)
	}

	if err := payload.Validate(); err != nil {
		return a.fail(c, fiber.StatusBadRequest, err.Error(), a.Routes.Register)
	}

	handler := caseauth.RegisterAccountHandler{Repo: a.Repo}
	err := handler.Execute(c.UserContext(), caseauth.RegisterAccountMessage{
		DisplayName: payload.Name,
		Email:       payload.Email,
		Password:    payload.Password,
		Role:        payload.Role,
	})
	if err != nil {
		if goerrors.Is(err, caseauth.ErrEmailTaken) {
			return a.fail(c, fiber.StatusConflict, "User already exists", a.Routes.Register)
		}
		a.Logger.Error("register: %v", err)
		return a.fail(c, fiber.StatusInternalServerError, "Server error during registration.", a.Routes.Register)
	}

	if wantsJSON(c) {
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"msg": "Registration successful! Please log in.",
		})
	}
	return a.redirectWithMessage(c, a.Routes.Login, "Registration successful! Please log in.")
}

// DelegatedBegin starts the provider round trip with a fixed intent.
// The intent is sealed inside the encrypted state, not read back from
// the provider callback query.
func (a *AuthController) DelegatedBegin(intent string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		redirect, err := a.Flow.Begin(c.UserContext(), "google", intent)
		if err != nil {
			a.Logger.Error("delegated begin: %v", err)
			return a.fail(c, fiber.StatusInternalServerError,
				"An unexpected error occurred. Please try again.", a.Routes.Login)
		}
		return c.Redirect(redirect.URL, fiber.StatusFound)
	}
}

func (a *AuthController) DelegatedCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return a.fail(c, fiber.StatusBadRequest,
			"Google authentication failed. Please try again.", a.Routes.Login)
	}

	result, err := a.Flow.Complete(c.UserContext(), "google", code, state)
	if err != nil {
		a.Logger.Error("delegated callback: %v", err)
		return a.fail(c, fiber.StatusUnauthorized,
			"An unexpected error occurred. Please try again.", a.Routes.Login)
	}

	if result.Outcome.Status == delegated.StatusRejected {
		return a.fail(c, fiber.StatusUnauthorized, result.Outcome.Reason, a.Routes.Login)
	}

	a.Auther.SetSessionToken(c, result.Token)

	if wantsJSON(c) {
		return c.JSON(fiber.Map{"msg": "Login successful"})
	}

	target := result.RedirectURL
	if target == "" {
		target = a.Routes.Dashboard
	}
	return c.Redirect(target, fiber.StatusFound)
}

func (a *AuthController) ProfileShow(c *fiber.Ctx) error {
	account, err := a.currentAccount(c)
	if err != nil {
		return a.profileError(c, err)
	}

	return c.JSON(account.Sanitized())
}

// ProfileUpdatePayload carries the editable profile fields.
type ProfileUpdatePayload struct {
	Name  string `form:"name" json:"name"`
	Email string `form:"email" json:"email"`
}

// Validate will validate the payload
func (r ProfileUpdatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Length(1, 200)),
		validation.Field(&r.Email, validation.Length(6, 100), is.Email),
	)
}

func (a *AuthController) ProfileUpdate(c *fiber.Ctx) error {
	payload := ProfileUpdatePayload{}
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": "Failed to parse body"})
	}

	if err := payload.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"msg": err.Error()})
	}

	account, err := a.currentAccount(c)
	if err != nil {
		return a.profileError(c, err)
	}

	ctx := c.UserContext()
	store := a.Repo.Accounts()

	emailChanged := payload.Email != "" && !strings.EqualFold(payload.Email, account.Email)
	if emailChanged {
		if account.IsDelegated() {
			return a.profileError(c, caseauth.ErrEmailFrozen)
		}

		if existing, err := store.FindByEmail(ctx, payload.Email); err == nil && existing.ID != account.ID {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"msg": "This email is already in use.",
			})
		}

		account.Email = payload.Email
	}

	if payload.Name != "" {
		account.DisplayName = payload.Name
	}

	updated, err := store.UpdateAccount(ctx, account)
	if err != nil {
		if goerrors.Is(err, caseauth.ErrEmailTaken) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"msg": "This email is already in use.",
			})
		}
		a.Logger.Error("profile update: %v", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Server Error")
	}

	return c.JSON(fiber.Map{
		"msg":  "Profile updated successfully",
		"user": updated.Sanitized(),
	})
}

func (a *AuthController) currentAccount(c *fiber.Ctx) (*caseauth.Account, error) {
	claims, ok := caseauth.GetFiberClaims(c, "")
	if !ok {
		return nil, caseauth.ErrTokenMalformed
	}

	id, err := uuid.Parse(claims.AccountID())
	if err != nil {
		return nil, caseauth.ErrTokenMalformed
	}

	return a.Repo.Accounts().FindByID(c.UserContext(), id)
}

func (a *AuthController) profileError(c *fiber.Ctx, err error) error {
	if goerrors.IsNotFound(err) || goerrors.Is(err, caseauth.ErrAccountNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"msg": "User not found"})
	}
	if goerrors.Is(err, caseauth.ErrTokenMalformed) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"msg": "Token is not valid or expired."})
	}
	if goerrors.Is(err, caseauth.ErrEmailFrozen) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"msg": "Cannot change the email of a Google-linked account.",
		})
	}
	a.Logger.Error("profile: %v", err)
	return c.Status(fiber.StatusInternalServerError).SendString("Server Error")
}

func (a *AuthController) fail(c *fiber.Ctx, status int, message, route string) error {
	if wantsJSON(c) {
		return c.Status(status).JSON(fiber.Map{"msg": message})
	}
	return a.redirectWithMessage(c, route, message)
}

func (a *AuthController) redirectWithMessage(c *fiber.Ctx, route, message string) error {
	return c.Redirect(route+"?message="+url.QueryEscape(message), fiber.StatusFound)
}

func wantsJSON(c *fiber.Ctx) bool {
	if c.XHR() {
		return true
	}
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON)
}
