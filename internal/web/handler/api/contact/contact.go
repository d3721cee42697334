// Package contact receives the public contact form of the storefront.
package contact

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// Path is the contact form endpoint.
const Path = "/api/contact"

// Input is a submitted contact form.
type Input struct {
	Name    string `json:"name"    form:"name"    validate:"required,max=200"`
	Email   string `json:"email"   form:"email"   validate:"required,email,max=255"`
	Message string `json:"message" form:"message" validate:"required,max=5000"`
}

// Service is the contact form handler service.
type Service struct {
	env *handler.Env
}

// Init registers the contact route.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if !handler.Valid(app, env) {
		return handler.ErrNilEnv
	}

	s.env = env

	app.Post(Path, handler.Limiter(env, "contact", false, func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusTooManyRequests).JSON(action.Fail("Too many messages, please try again later"))
	}), s.Post)

	return nil
}

// Post stores a contact message. No session is required.
func (s *Service) Post(c *fiber.Ctx) error {
	var in Input
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(action.Fail("Invalid request body"))
	}

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Message = strings.TrimSpace(in.Message)

	if err := s.env.Actions.Validate.Struct(&in); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(action.Invalid(err))
	}

	acc := session.Get(c)

	msg := models.ContactMessage{
		Name:      in.Name,
		Email:     in.Email,
		Message:   in.Message,
		IPAddress: acc.IP(),
	}

	if err := s.env.DB.WithContext(c.UserContext()).Create(&msg).Error; err != nil {
		log.Error().Err(err).Msg("failed to store contact message")

		return c.Status(fiber.StatusInternalServerError).JSON(action.Fail("Your message could not be sent"))
	}

	s.env.Audit.Record(acc, audit.Entry{
		Action:   audit.ActionContactFormSubmission,
		EntityID: &msg.ID,
		Detail:   "message from " + in.Email,
	})

	return c.Status(fiber.StatusCreated).JSON(action.OK(msg.ID, "Thank you for your message"))
}
