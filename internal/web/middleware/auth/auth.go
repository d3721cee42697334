package auth

import (
	"path"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	appauth "github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

const (
	// ProtectedPrefix is the area that requires a session.
	ProtectedPrefix = "/admin"
	// HomePath is where signed in users visiting the login page are sent.
	HomePath = ProtectedPrefix
)

// skippedPrefixes are never filtered.
//
//nolint:gochecknoglobals
var skippedPrefixes = []string{"/api/", "/static/", "/metrics", "/checkalive"}

// staticExtensions mark asset requests, which are never filtered.
//
//nolint:gochecknoglobals
var staticExtensions = map[string]struct{}{
	".css": {}, ".js": {}, ".map": {}, ".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {},
	".svg": {}, ".ico": {}, ".webp": {}, ".avif": {}, ".woff": {}, ".woff2": {}, ".ttf": {},
	".txt": {}, ".xml": {},
}

// Config configures the filter.
type Config struct {
	// Codec re-issues the session cookie of authenticated requests to the protected area.
	// Nil disables the sliding expiry.
	Codec *session.Codec
	// Secure sets the Secure flag on re-issued cookies.
	Secure bool
}

// New returns the edge filter. It only checks that a valid session exists,
// permissions are checked by the handlers.
// It expects session.Middleware to run first.
func New(cfg Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p := strings.ToLower(c.Path())
		if Skip(p) {
			return c.Next()
		}

		var (
			protected = IsProtected(p)
			public    = IsLoginPage(p)
			user      = session.Get(c).Identity()
		)

		switch {
		case protected && !public && user == nil:
			if appauth.WantsJSON(c) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"success": false,
					"message": "Authentication required",
				})
			}

			return c.Redirect(appauth.LoginPath)
		case public && user != nil:
			return c.Redirect(HomePath)
		case protected && user != nil && cfg.Codec != nil:
			if err := cfg.Codec.IssueCookie(c, *user, cfg.Secure); err != nil {
				log.Warn().Err(err).Str("username", user.Username).Msg("failed to refresh session cookie")
			}
		}

		return c.Next()
	}
}

// Skip reports whether the lower case path bypasses the filter.
func Skip(p string) bool {
	for _, prefix := range skippedPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}

	_, ok := staticExtensions[path.Ext(p)]

	return ok
}

// IsProtected reports whether the lower case path belongs to the protected area.
func IsProtected(p string) bool {
	return p == ProtectedPrefix || strings.HasPrefix(p, ProtectedPrefix+"/")
}

// IsLoginPage reports whether the lower case path is the login page or one of its sub paths.
func IsLoginPage(p string) bool {
	return p == appauth.LoginPath || strings.HasPrefix(p, appauth.LoginPath+"/")
}
