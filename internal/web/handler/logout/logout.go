// Package logout ends an admin session.
package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// Path is the logout route.
const Path = handler.AdminPath + "/logout"

// Service is the logout handler service.
type Service struct {
	env *handler.Env
}

// Init registers the logout routes.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if !handler.Valid(app, env) {
		return handler.ErrNilEnv
	}

	s.env = env

	app.Get(Path, s.Logout)
	app.Post(Path, s.Logout)

	return nil
}

// Logout records the logout of a signed in user and clears the session cookie.
// The token itself stays valid until it expires, the cookie is all a browser holds.
func (s *Service) Logout(c *fiber.Ctx) error {
	acc := session.Get(c)

	if u := acc.Identity(); u != nil {
		s.env.Audit.Record(acc, audit.Entry{Action: audit.ActionLogout, EntityID: &u.ID})
		log.Info().Str("username", u.Username).Msg("user logged out")
	}

	session.ClearCookie(c, s.env.SecureCookies())

	return c.Redirect(auth.LoginPath)
}
