// Package handlertest builds fiber apps and handler environments for handler tests.
package handlertest

import (
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/config"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/testdb"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// NoOpViews is a minimal fiber views engine. It writes the "Error" field of a
// fiber.Map when present and the template name otherwise.
type NoOpViews struct{}

// Load implements fiber.Views.
func (NoOpViews) Load() error { return nil }

// Render implements fiber.Views.
func (NoOpViews) Render(w io.Writer, name string, data any, _ ...string) error {
	if m, ok := data.(fiber.Map); ok {
		if v, exists := m["Error"]; exists && v != nil {
			_, err := io.WriteString(w, v.(string))

			return err
		}
	}

	_, err := io.WriteString(w, name)

	return err
}

// Config returns a dev mode configuration with local login enabled.
func Config() *config.Config {
	return &config.Config{
		DevMode: true,
		Title:   "Storefront Admin",
		Webserver: config.Webserver{
			URL:        "http://localhost",
			Port:       3000,
			Session:    config.Session{Secret: testdb.Secret},
			LoginLimit: config.LoginLimit{Max: 100, Window: time.Minute},
		},
		Auth: config.Auth{Local: config.LocalDBAuth{Enabled: true}},
	}
}

// Env returns a handler environment on a seeded in-memory database.
func Env(t testing.TB) *handler.Env {
	t.Helper()

	return EnvWithConfig(t, Config())
}

// EnvWithConfig is Env with a custom configuration.
func EnvWithConfig(t testing.TB, cfg *config.Config) *handler.Env {
	t.Helper()

	db := testdb.New(t)

	sink, err := audit.NewSink(db)
	require.NoError(t, err)

	deps, err := action.NewDeps(db, sink)
	require.NoError(t, err)

	return &handler.Env{
		Config:  cfg,
		DB:      db,
		Codec:   testdb.Codec(),
		Auth:    auth.NewService(db),
		Audit:   sink,
		Actions: deps,
	}
}

// App returns a fiber app with the session middleware of env installed.
func App(env *handler.Env) *fiber.App {
	app := fiber.New(fiber.Config{Views: NoOpViews{}})
	app.Use(session.Middleware(env.Codec))

	return app
}

// Init registers svc on a new App and fails the test on error.
func Init(t testing.TB, env *handler.Env, svc handler.Service) *fiber.App {
	t.Helper()

	app := App(env)
	require.NoError(t, svc.Init(app, env))

	return app
}

// SignIn attaches a session cookie for user to req.
func SignIn(t testing.TB, env *handler.Env, req *http.Request, user models.User) {
	t.Helper()

	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: testdb.Token(t, env.DB, user)})
}

// Do performs req against app and returns the response with its body.
func Do(t testing.TB, app *fiber.App, req *http.Request) (*http.Response, string) {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	return resp, string(body)
}
