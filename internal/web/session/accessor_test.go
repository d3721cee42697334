package session_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// countingVerifier counts decode calls.
type countingVerifier struct {
	calls int
	user  *session.User
}

func (v *countingVerifier) Verify(string) *session.User {
	v.calls++

	return v.user
}

func TestAccessorDecodesOnce(t *testing.T) {
	v := &countingVerifier{user: &session.User{ID: 1, Username: "admin", Permissions: []string{}}}
	acc := session.NewAccessor(context.Background(), "token", v, "10.0.0.1", "test-agent")

	for range 5 {
		require.NotNil(t, acc.Identity())
	}

	assert.Equal(t, 1, v.calls)
	assert.Equal(t, "10.0.0.1", acc.IP())
	assert.Equal(t, "test-agent", acc.UserAgent())
}

func TestAccessorWithoutTokenNeverDecodes(t *testing.T) {
	v := &countingVerifier{user: &session.User{ID: 1, Username: "admin"}}
	acc := session.NewAccessor(context.Background(), "", v, "", "")

	assert.Nil(t, acc.Identity())
	assert.Equal(t, 0, v.calls)
}

func TestAccessorInvalidTokenMemoizesNil(t *testing.T) {
	v := &countingVerifier{}
	acc := session.NewAccessor(context.Background(), "broken", v, "", "")

	assert.Nil(t, acc.Identity())
	assert.Nil(t, acc.Identity())
	assert.Equal(t, 1, v.calls)
}

func TestNilAccessor(t *testing.T) {
	var acc *session.Accessor

	assert.Nil(t, acc.Identity())
	assert.Empty(t, acc.IP())
	assert.Empty(t, acc.UserAgent())
	assert.NotNil(t, acc.Context())
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name         string
		forwardedFor string
		remote       string
		want         string
	}{
		{name: "remote only", remote: "192.0.2.1", want: "192.0.2.1"},
		{name: "remote with port", remote: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "first forwarded hop", forwardedFor: "203.0.113.9, 10.0.0.2, 10.0.0.3", remote: "10.0.0.3", want: "203.0.113.9"},
		{name: "single forwarded hop", forwardedFor: "2001:db8::1", remote: "10.0.0.3", want: "2001:db8::1"},
		{name: "empty first hop falls back", forwardedFor: " ,10.0.0.2", remote: "10.0.0.3", want: "10.0.0.3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, session.ClientIP(tt.forwardedFor, tt.remote))
		})
	}
}

func TestMiddlewareSharesOneAccessor(t *testing.T) {
	v := &countingVerifier{user: &session.User{ID: 9, Username: "carol", Permissions: []string{}}}

	app := fiber.New()
	app.Use(session.Middleware(v))
	app.Get("/admin", func(c *fiber.Ctx) error {
		// two independent consumers of the identity in one request
		first := session.Get(c).Identity()
		second := session.Get(c).Identity()

		if first == nil || second == nil || first.Username != "carol" {
			return c.SendStatus(fiber.StatusUnauthorized)
		}

		return c.SendString(session.Get(c).IP())
	})

	req := httptest.NewRequest(fiber.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "token"})
	req.Header.Set(fiber.HeaderXForwardedFor, "198.51.100.7, 10.0.0.1")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, v.calls)
}
