package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

type staticIdentity struct {
	user *session.User
}

func (s staticIdentity) Identity() *session.User {
	return s.user
}

func TestRequire(t *testing.T) {
	editor := &session.User{ID: 2, Username: "editor", Permissions: []string{auth.ManageProducts, auth.ViewDashboard}}

	tests := []struct {
		name    string
		src     auth.IdentitySource
		perm    string
		wantErr error
	}{
		{name: "nil source", src: nil, perm: auth.ManageProducts, wantErr: auth.ErrUnauthenticated},
		{name: "no identity", src: staticIdentity{}, perm: auth.ManageProducts, wantErr: auth.ErrUnauthenticated},
		{name: "held permission", src: staticIdentity{editor}, perm: auth.ManageProducts},
		{name: "missing permission", src: staticIdentity{editor}, perm: auth.ManageUsers, wantErr: auth.ErrForbidden},
		{name: "empty permission set", src: staticIdentity{&session.User{ID: 3, Username: "x", Permissions: []string{}}}, perm: auth.ViewDashboard, wantErr: auth.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := auth.Require(tt.src, tt.perm)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, editor, user)
		})
	}
}

func TestRequireEveryPermission(t *testing.T) {
	for _, held := range auth.All() {
		src := staticIdentity{&session.User{ID: 1, Username: "u", Permissions: []string{held}}}

		for _, wanted := range auth.All() {
			_, err := auth.Require(src, wanted)
			assert.Equal(t, held == wanted, err == nil, "held %s wanted %s", held, wanted)
		}
	}
}

func TestCanViewElevatedStatus(t *testing.T) {
	assert.False(t, auth.CanViewElevatedStatus(nil))
	assert.False(t, auth.CanViewElevatedStatus(&session.User{Permissions: []string{auth.ViewAuditLogs}}))
	assert.True(t, auth.CanViewElevatedStatus(&session.User{Permissions: []string{auth.ManageUsers}}))
}

type fixedVerifier struct {
	user *session.User
}

func (f fixedVerifier) Verify(token string) *session.User {
	if token == "valid" {
		return f.user
	}

	return nil
}

func TestRequirePermissionMiddleware(t *testing.T) {
	verifier := fixedVerifier{&session.User{ID: 1, Username: "editor", Permissions: []string{auth.ViewDashboard}}}

	app := fiber.New()
	app.Use(session.Middleware(verifier))
	app.Get("/admin", auth.RequirePermission(auth.ViewDashboard), func(c *fiber.Ctx) error {
		return c.SendString("dashboard")
	})
	app.Get("/admin/audit", auth.RequirePermission(auth.ViewAuditLogs), func(c *fiber.Ctx) error {
		return c.SendString("audit")
	})
	app.Post("/admin/actions/users", auth.RequirePermission(auth.ManageUsers), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	tests := []struct {
		name         string
		method       string
		path         string
		cookie       string
		accept       string
		wantStatus   int
		wantLocation string
	}{
		{name: "page without session redirects", method: fiber.MethodGet, path: "/admin", wantStatus: fiber.StatusFound, wantLocation: auth.LoginPath},
		{name: "page with bad token redirects", method: fiber.MethodGet, path: "/admin", cookie: "forged", wantStatus: fiber.StatusFound, wantLocation: auth.LoginPath},
		{name: "page with permission", method: fiber.MethodGet, path: "/admin", cookie: "valid", wantStatus: fiber.StatusOK},
		{name: "page without permission", method: fiber.MethodGet, path: "/admin/audit", cookie: "valid", wantStatus: fiber.StatusForbidden},
		{name: "json client without session", method: fiber.MethodGet, path: "/admin/audit", accept: fiber.MIMEApplicationJSON, wantStatus: fiber.StatusUnauthorized},
		{name: "action without session", method: fiber.MethodPost, path: "/admin/actions/users", wantStatus: fiber.StatusUnauthorized},
		{name: "action without permission", method: fiber.MethodPost, path: "/admin/actions/users", cookie: "valid", wantStatus: fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: session.CookieName, Value: tt.cookie})
			}

			if tt.accept != "" {
				req.Header.Set(fiber.HeaderAccept, tt.accept)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, resp.Header.Get(fiber.HeaderLocation))
			}
		})
	}
}
