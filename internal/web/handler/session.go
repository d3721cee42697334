package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// Login methods recorded in the audit log.
const (
	MethodLocal = "local"
	MethodLDAP  = "ldap"
	MethodOIDC  = "oidc"
)

// ErrMsgInvalidCredentials is shown for every credential problem, so the
// login form does not reveal which accounts exist.
const ErrMsgInvalidCredentials = "Invalid username or password"

// StartSession writes the session cookie of an authenticated user and records the login.
func StartSession(c *fiber.Ctx, env *Env, user *models.User, method string) error {
	su, err := env.Auth.SessionUser(c.UserContext(), user)
	if err != nil {
		return err
	}

	if err = env.Codec.IssueCookie(c, su, env.SecureCookies()); err != nil {
		return err
	}

	env.Audit.Record(session.Get(c), audit.Entry{
		Action:   audit.ActionLogin,
		EntityID: &user.ID,
		Detail:   "signed in with " + method,
		Actor:    &audit.Actor{ID: user.ID, Username: user.Username},
	})

	log.Info().Str("username", user.Username).Str("method", method).Msg("user logged in")

	return nil
}

// RecordFailedLogin records a rejected login attempt and returns the message for the user.
func RecordFailedLogin(c *fiber.Ctx, env *Env, username, method string, cause error) string {
	env.Audit.Record(session.Get(c), audit.Entry{
		Action: audit.ActionFailedLogin,
		Detail: method + ": " + cause.Error(),
		Actor:  &audit.Actor{Username: username},
	})

	log.Warn().Err(cause).Str("username", username).Str("method", method).Msg("login failed")

	return LoginErrorMessage(cause)
}

// LoginErrorMessage maps an authentication error to the text shown on the login page.
func LoginErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrUserAccountDisabled):
		return "Your account is disabled"
	case errors.Is(err, auth.ErrAutoCreateDisabled):
		return "Your account is not enabled for this application"
	case errors.Is(err, auth.ErrInvalidPassword),
		errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, auth.ErrMultipleUsersFound),
		errors.Is(err, auth.ErrUsernameTaken):
		return ErrMsgInvalidCredentials
	default:
		return "Sign in is currently not possible, please try again later"
	}
}
