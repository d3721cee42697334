package login

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

const (
	// Path is the path to the login page.
	Path = auth.LoginPath

	// TemplateName is the name of the login template.
	TemplateName = "login"

	usernameMaxLen = 100
)

// Service is the login handler service.
type Service struct {
	env   *handler.Env
	local *auth.LocalProvider
	ldap  *auth.LDAPProvider
}

// Init registers the login routes.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if !handler.Valid(app, env) {
		return handler.ErrNilEnv
	}

	s.env = env

	if env.Config.Auth.Local.Enabled {
		s.local = auth.NewLocalProvider(env.DB)
	}

	if env.Config.Auth.LDAP.Enabled {
		provider, err := auth.NewLDAPProvider(env.Config.Auth.LDAP)
		if err != nil {
			log.Warn().Err(err).Msg("LDAP authentication will be disabled")
		} else {
			s.ldap = provider
		}
	}

	app.Get(Path, s.Get)
	app.Post(Path, s.limiter(), s.Post)

	return nil
}

// limiter throttles failed logins per client address.
func (s *Service) limiter() fiber.Handler {
	return handler.Limiter(s.env, "login", true, func(c *fiber.Ctx) error {
		log.Warn().Str("ip", session.Get(c).IP()).Msg("login rate limit reached")

		return s.render(c, fiber.StatusTooManyRequests, "Too many failed sign in attempts, please wait a moment")
	})
}

// Get handles the login page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	return s.render(c, fiber.StatusOK, "")
}

// Post handles the login form submission.
func (s *Service) Post(c *fiber.Ctx) error {
	var in struct {
		Username string `form:"username" json:"username"`
		Password string `form:"password" json:"password"`
		Method   string `form:"method"   json:"method"`
	}

	if err := c.BodyParser(&in); err != nil {
		return s.render(c, fiber.StatusBadRequest, "Invalid form data")
	}

	in.Username = strings.TrimSpace(in.Username)
	if len(in.Username) > usernameMaxLen {
		in.Username = in.Username[:usernameMaxLen]
	}

	method := s.method(in.Method)

	user, err := s.authenticate(c.UserContext(), method, in.Username, in.Password)
	if err != nil {
		msg := handler.RecordFailedLogin(c, s.env, in.Username, method, err)

		switch {
		case errors.Is(err, ErrEmptyCredentials):
			msg = "Please enter username and password"
		case errors.Is(err, ErrInvalidAuthMethod), errors.Is(err, ErrNoAuthMethod),
			errors.Is(err, ErrLocalAuthDisabled), errors.Is(err, ErrLDAPAuthDisabled):
			msg = "This sign in method is not available"
		}

		return s.render(c, fiber.StatusUnauthorized, msg)
	}

	if err = handler.StartSession(c, s.env, user, method); err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("failed to start session")

		return s.render(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return c.Redirect(handler.AdminPath)
}

// method resolves the requested method, defaulting to the first enabled one.
func (s *Service) method(requested string) string {
	if requested != "" {
		return strings.ToLower(requested)
	}

	if s.local == nil && s.ldap != nil {
		return handler.MethodLDAP
	}

	return handler.MethodLocal
}

func (s *Service) authenticate(ctx context.Context, method, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrEmptyCredentials
	}

	if s.local == nil && s.ldap == nil {
		return nil, ErrNoAuthMethod
	}

	switch method {
	case handler.MethodLocal:
		if s.local == nil {
			return nil, ErrLocalAuthDisabled
		}

		return s.local.Authenticate(ctx, username, password)
	case handler.MethodLDAP:
		if s.ldap == nil {
			return nil, ErrLDAPAuthDisabled
		}

		id, err := s.ldap.Authenticate(ctx, username, password)
		if err != nil {
			return nil, err
		}

		return s.env.Auth.UpsertExternalUser(ctx, *id, s.ldap.Provisioning())
	default:
		return nil, ErrInvalidAuthMethod
	}
}

func (s *Service) render(c *fiber.Ctx, status int, errMsg string) error {
	oidc := s.env.Config.Auth.OIDC

	buttonText := oidc.ButtonText
	if buttonText == "" {
		buttonText = "Sign in with SSO"
	}

	data := fiber.Map{
		"Title":        s.env.Config.Title,
		"LocalEnabled": s.local != nil,
		"LDAPEnabled":  s.ldap != nil,
		"OIDCEnabled":  oidc.Enabled,
		"OIDCButton":   buttonText,
		"OIDCPath":     Path + "/oidc",
	}

	if errMsg != "" {
		data["Error"] = errMsg
	}

	return c.Status(status).Render(TemplateName, data)
}
