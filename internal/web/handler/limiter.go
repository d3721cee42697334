package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// Limiter throttles requests per client address with the configured login limits.
// Keys are prefixed, so several limiters can share LimiterStorage. When
// skipSuccessful is set only responses with a status of 400 or above count.
func Limiter(env *Env, keyPrefix string, skipSuccessful bool, reached fiber.Handler) fiber.Handler {
	limits := env.Config.Webserver.LoginLimit

	return limiter.New(limiter.Config{
		Max:                    limits.Max,
		Expiration:             limits.Window,
		SkipSuccessfulRequests: skipSuccessful,
		Storage:                env.LimiterStorage,
		KeyGenerator: func(c *fiber.Ctx) string {
			return keyPrefix + ":" + session.Get(c).IP()
		},
		LimitReached: reached,
	})
}
