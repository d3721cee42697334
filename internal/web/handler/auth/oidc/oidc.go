package oidc

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler"
)

const (
	// LoginPath is the path to initiate OIDC login.
	LoginPath = auth.LoginPath + "/oidc"

	// CallbackPath is the path for the OIDC callback.
	CallbackPath = LoginPath + "/callback"

	// StateCookieName holds the pending state between login and callback.
	StateCookieName = "oidc_state"

	stateTTL        = 5 * time.Minute
	discoverTimeout = 15 * time.Second
	msgUnavailable  = "OIDC authentication is not available"
)

// ErrInvalidState is recorded when the callback state does not match the cookie.
var ErrInvalidState = errors.New("invalid or expired state")

// Flow is the part of the identity provider the handler needs.
type Flow interface {
	AuthURL(state string) string
	HandleCallback(ctx context.Context, code string) (*auth.ExternalIdentity, error)
	Provisioning() auth.ProvisionOptions
}

// Service is the OIDC handler service.
type Service struct {
	env *handler.Env
	// Flow is discovered from the configuration by Init when left nil.
	Flow Flow
}

// Init registers the OIDC routes. Discovery failures disable OIDC and do not fail Init.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if !handler.Valid(app, env) {
		return handler.ErrNilEnv
	}

	s.env = env

	if s.Flow == nil && env.Config.Auth.OIDC.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), discoverTimeout)
		defer cancel()

		provider, err := auth.NewOIDCProvider(ctx, env.Config.Auth.OIDC)
		if err != nil {
			log.Warn().Err(err).Msg("failed to initialize OIDC provider, OIDC authentication will be disabled")
		} else {
			s.Flow = provider

			log.Info().Msg("OIDC authentication provider initialized")
		}
	}

	app.Get(LoginPath, s.Login)
	app.Get(CallbackPath, s.Callback)

	return nil
}

// Login initiates the OIDC login flow.
func (s *Service) Login(c *fiber.Ctx) error {
	if s.Flow == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString(msgUnavailable)
	}

	state, err := auth.GenerateStateToken()
	if err != nil {
		log.Error().Err(err).Msg("failed to generate state token")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	c.Cookie(&fiber.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     LoginPath,
		Expires:  time.Now().Add(stateTTL),
		MaxAge:   int(stateTTL.Seconds()),
		HTTPOnly: true,
		Secure:   s.env.SecureCookies(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	return c.Redirect(s.Flow.AuthURL(state))
}

// Callback handles the OIDC callback.
func (s *Service) Callback(c *fiber.Ctx) error {
	if s.Flow == nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString(msgUnavailable)
	}

	code := c.Query("code")
	state := c.Query("state")
	expected := c.Cookies(StateCookieName)

	c.Cookie(&fiber.Cookie{
		Name:     StateCookieName,
		Path:     LoginPath,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.env.SecureCookies(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})

	if code == "" || state == "" || expected == "" ||
		subtle.ConstantTimeCompare([]byte(state), []byte(expected)) != 1 {
		handler.RecordFailedLogin(c, s.env, "", handler.MethodOIDC, ErrInvalidState)

		return c.Status(fiber.StatusBadRequest).SendString("Invalid callback parameters")
	}

	id, err := s.Flow.HandleCallback(c.UserContext(), code)
	if err != nil {
		msg := handler.RecordFailedLogin(c, s.env, "", handler.MethodOIDC, err)

		return c.Status(fiber.StatusUnauthorized).SendString(msg)
	}

	user, err := s.env.Auth.UpsertExternalUser(c.UserContext(), *id, s.Flow.Provisioning())
	if err != nil {
		msg := handler.RecordFailedLogin(c, s.env, id.Username, handler.MethodOIDC, err)

		return c.Status(fiber.StatusUnauthorized).SendString(msg)
	}

	if err = handler.StartSession(c, s.env, user, handler.MethodOIDC); err != nil {
		log.Error().Err(err).Str("username", user.Username).Msg("failed to start session")

		return c.Status(fiber.StatusInternalServerError).SendString("Internal server error")
	}

	return c.Redirect(handler.AdminPath)
}
