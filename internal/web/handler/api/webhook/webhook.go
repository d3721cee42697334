// Package webhook receives the revalidation hook of the content management system.
package webhook

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

const (
	// Path is the revalidation endpoint.
	Path = "/api/webhooks/revalidate"

	// SecretHeader carries the shared secret.
	SecretHeader = "X-Webhook-Secret"

	// ActorName is recorded as username of webhook audit entries.
	ActorName = "webhook"
)

//nolint:gochecknoglobals
var revalidations = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "webhook_revalidations_total",
	Help: "Revalidation webhook calls by outcome.",
}, []string{"outcome"})

// Input is the webhook payload.
type Input struct {
	Paths []string `json:"paths" validate:"max=50,dive,required,startswith=/,max=512"`
	Tags  []string `json:"tags"  validate:"max=50,dive,required,max=128"`
}

// Response acknowledges a revalidation.
type Response struct {
	Revalidated bool     `json:"revalidated"`
	Paths       []string `json:"paths"`
	Tags        []string `json:"tags"`
}

// Service is the webhook handler service.
type Service struct {
	env    *handler.Env
	secret []byte
}

// Init registers the webhook route. Without configured secret the route answers 404.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if !handler.Valid(app, env) {
		return handler.ErrNilEnv
	}

	s.env = env
	s.secret = []byte(env.Config.Webhook.Secret)

	if len(s.secret) == 0 {
		log.Info().Msg("webhook secret not configured, revalidation webhook disabled")
	}

	app.Post(Path, s.Post)

	return nil
}

// Post handles a revalidation call.
func (s *Service) Post(c *fiber.Ctx) error {
	if len(s.secret) == 0 {
		return c.SendStatus(fiber.StatusNotFound)
	}

	given := []byte(c.Get(SecretHeader))
	if subtle.ConstantTimeCompare(given, s.secret) != 1 {
		revalidations.WithLabelValues("unauthorized").Inc()
		log.Warn().Str("ip", session.Get(c).IP()).Msg("webhook called with invalid secret")

		return c.Status(fiber.StatusUnauthorized).JSON(action.Fail("Invalid webhook secret"))
	}

	var in Input
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			revalidations.WithLabelValues("invalid").Inc()

			return c.Status(fiber.StatusBadRequest).JSON(action.Fail("Invalid request body"))
		}
	}

	if err := s.env.Actions.Validate.Struct(&in); err != nil {
		revalidations.WithLabelValues("invalid").Inc()

		return c.Status(fiber.StatusUnprocessableEntity).JSON(action.Invalid(err))
	}

	if in.Paths == nil {
		in.Paths = []string{}
	}

	if in.Tags == nil {
		in.Tags = []string{}
	}

	s.env.Audit.Record(session.Get(c), audit.Entry{
		Action: audit.ActionWebhookRevalidate,
		Detail: detail(in),
		Actor:  &audit.Actor{Username: ActorName},
	})

	revalidations.WithLabelValues("ok").Inc()

	return c.JSON(Response{Revalidated: true, Paths: in.Paths, Tags: in.Tags})
}

func detail(in Input) string {
	if len(in.Paths) == 0 && len(in.Tags) == 0 {
		return "revalidate all"
	}

	var b strings.Builder

	if len(in.Paths) > 0 {
		b.WriteString("paths: " + strings.Join(in.Paths, ", "))
	}

	if len(in.Tags) > 0 {
		if b.Len() > 0 {
			b.WriteString("; ")
		}

		b.WriteString("tags: " + strings.Join(in.Tags, ", "))
	}

	return b.String()
}
