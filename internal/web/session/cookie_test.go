package session_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

func cookieHeader(t *testing.T, h fiber.Handler) string {
	t.Helper()

	app := fiber.New()
	app.Get("/", h)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	defer resp.Body.Close()

	return resp.Header.Get(fiber.HeaderSetCookie)
}

func TestWriteCookie(t *testing.T) {
	header := cookieHeader(t, func(c *fiber.Ctx) error {
		session.WriteCookie(c, "token", true)

		return nil
	})

	lower := strings.ToLower(header)
	assert.True(t, strings.HasPrefix(header, session.CookieName+"=token"))
	assert.Contains(t, lower, "max-age=86400")
	assert.NotContains(t, lower, "expires=")
	assert.Contains(t, lower, "httponly")
	assert.Contains(t, lower, "secure")
	assert.Contains(t, lower, "samesite=lax")
	assert.Contains(t, lower, "path=/")
}

func TestClearCookie(t *testing.T) {
	header := cookieHeader(t, func(c *fiber.Ctx) error {
		session.ClearCookie(c, false)

		return nil
	})

	lower := strings.ToLower(header)
	assert.True(t, strings.HasPrefix(header, session.CookieName+"="))
	assert.Contains(t, lower, "expires=")
	assert.NotContains(t, lower, "secure")
}
