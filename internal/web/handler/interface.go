package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/config"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// ErrNilEnv is returned by Init when the app or the environment is incomplete.
var ErrNilEnv = errors.New(ErrNilEnvFatalLogMsg)

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, env *Env) error
}

// Env carries the collaborators shared by all handlers.
type Env struct {
	Config  *config.Config
	DB      *gorm.DB
	Codec   *session.Codec
	Auth    *auth.Service
	Audit   *audit.Sink
	Actions *action.Deps
	// LimiterStorage backs the login and contact rate limiters, nil means in-memory.
	LimiterStorage fiber.Storage
}

// Valid reports whether app and env can be used by Init.
func Valid(app *fiber.App, env *Env) bool {
	return app != nil && env != nil && env.Config != nil && env.DB != nil &&
		env.Codec != nil && env.Auth != nil && env.Audit != nil && env.Actions != nil
}

// SecureCookies reports whether cookies must carry the Secure flag.
func (e *Env) SecureCookies() bool {
	return e.Config.IsProduction()
}
