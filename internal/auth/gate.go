package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

const (
	// LoginPath is where page loads without session are sent.
	LoginPath = "/admin/login"

	// ActionsPathPrefix marks programmatic admin endpoints answered with JSON.
	ActionsPathPrefix = "/admin/actions"
)

// IdentitySource resolves the identity of the current request, see session.Accessor.
type IdentitySource interface {
	Identity() *session.User
}

// Require returns the current identity if it holds perm.
// It must run before any state changing effect.
func Require(src IdentitySource, perm string) (*session.User, error) {
	var user *session.User
	if src != nil {
		user = src.Identity()
	}

	if user == nil {
		return nil, ErrUnauthenticated
	}

	if !user.Has(perm) {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, perm)
	}

	return user, nil
}

// CanViewElevatedStatus reports whether u may read the roles and permissions of other users.
// This is the only place where ManageUsers acts as an administrator flag.
func CanViewElevatedStatus(u *session.User) bool {
	return u.Has(ManageUsers)
}

// RequirePermission creates Fiber middleware that requires a specific permission.
// Page loads without session are redirected to the login page. Programmatic
// requests get a JSON 401 or 403.
func RequirePermission(perm string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := Require(session.Get(c), perm)
		if err == nil {
			c.Locals("CurrentUser", user)

			return c.Next()
		}

		programmatic := WantsJSON(c)

		switch {
		case errors.Is(err, ErrUnauthenticated) && !programmatic:
			return c.Redirect(LoginPath)
		case errors.Is(err, ErrUnauthenticated):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": "Authentication required",
			})
		}

		log.Warn().Uint64("user_id", session.Get(c).Identity().ID).Str("permission", perm).
			Str("path", c.Path()).Msg("user lacks required permission")

		if programmatic {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "You don't have permission to perform this action",
			})
		}

		return c.Status(fiber.StatusForbidden).SendString("Forbidden: You don't have permission to access this resource")
	}
}

// WantsJSON reports whether the request is a programmatic call.
func WantsJSON(c *fiber.Ctx) bool {
	if strings.HasPrefix(c.Path(), ActionsPathPrefix) || strings.HasPrefix(c.Path(), "/api/") {
		return true
	}

	return c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON
}
