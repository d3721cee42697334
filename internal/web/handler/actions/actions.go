// Package actions exposes the admin mutations as JSON endpoints.
//
//	POST /admin/actions/:entity             create
//	POST /admin/actions/:entity/:id         update
//	POST /admin/actions/:entity/:id/delete  delete
//
// Every endpoint answers with an action.Result. Permission failures map to
// 401 and 403, rejected mutations to 422.
package actions

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action/brand"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action/category"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action/media"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action/portfolio"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action/product"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action/role"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action/user"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// Path is the prefix of all action endpoints.
const Path = auth.ActionsPathPrefix

// crud is implemented by every entity service of the action package.
type crud[I any] interface {
	Create(acc *session.Accessor, in I) (action.Result, error)
	Update(acc *session.Accessor, id uint64, in I) (action.Result, error)
	Delete(acc *session.Accessor, id uint64) (action.Result, error)
}

// endpoint binds the request body to the input type of one entity.
type endpoint struct {
	create func(c *fiber.Ctx, acc *session.Accessor) (action.Result, error)
	update func(c *fiber.Ctx, acc *session.Accessor, id uint64) (action.Result, error)
	delete func(acc *session.Accessor, id uint64) (action.Result, error)
}

var errBadBody = errors.New("request body cannot be decoded")

func bind[I any](svc crud[I]) endpoint {
	return endpoint{
		create: func(c *fiber.Ctx, acc *session.Accessor) (action.Result, error) {
			var in I
			if err := c.BodyParser(&in); err != nil {
				return action.Fail("Invalid request body"), errBadBody
			}

			return svc.Create(acc, in)
		},
		update: func(c *fiber.Ctx, acc *session.Accessor, id uint64) (action.Result, error) {
			var in I
			if err := c.BodyParser(&in); err != nil {
				return action.Fail("Invalid request body"), errBadBody
			}

			return svc.Update(acc, id, in)
		},
		delete: svc.Delete,
	}
}

// Service is the actions handler service.
type Service struct {
	endpoints map[string]endpoint
}

// Init registers the action routes.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if !handler.Valid(app, env) {
		return handler.ErrNilEnv
	}

	deps := env.Actions

	s.endpoints = map[string]endpoint{
		product.Entity:   bind[product.Input](product.New(deps)),
		category.Entity:  bind[category.Input](category.New(deps)),
		brand.Entity:     bind[brand.Input](brand.New(deps)),
		portfolio.Entity: bind[portfolio.Input](portfolio.New(deps)),
		media.Entity:     bind[media.Input](media.New(deps)),
		user.Entity:      bind[user.Input](user.New(deps)),
		role.Entity:      bind[role.Input](role.New(deps)),
	}

	group := app.Group(Path)
	group.Post("/:entity", s.Create)
	group.Post("/:entity/:id", s.Update)
	group.Post("/:entity/:id/delete", s.Delete)

	return nil
}

// Create handles POST /admin/actions/:entity.
func (s *Service) Create(c *fiber.Ctx) error {
	ep, ok := s.endpoints[c.Params("entity")]
	if !ok {
		return notFound(c)
	}

	res, err := ep.create(c, session.Get(c))

	return respond(c, res, err)
}

// Update handles POST /admin/actions/:entity/:id.
func (s *Service) Update(c *fiber.Ctx) error {
	ep, ok := s.endpoints[c.Params("entity")]
	if !ok {
		return notFound(c)
	}

	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	res, err := ep.update(c, session.Get(c), id)

	return respond(c, res, err)
}

// Delete handles POST /admin/actions/:entity/:id/delete.
func (s *Service) Delete(c *fiber.Ctx) error {
	ep, ok := s.endpoints[c.Params("entity")]
	if !ok {
		return notFound(c)
	}

	id, ok := parseID(c)
	if !ok {
		return notFound(c)
	}

	res, err := ep.delete(session.Get(c), id)

	return respond(c, res, err)
}

func parseID(c *fiber.Ctx) (uint64, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)

	return id, err == nil && id > 0
}

func notFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(action.Fail("Unknown action"))
}

func respond(c *fiber.Ctx, res action.Result, err error) error {
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return c.Status(fiber.StatusUnauthorized).JSON(res)
	case errors.Is(err, auth.ErrForbidden):
		log.Warn().Str("path", c.Path()).Str("username", session.Get(c).Identity().Username).
			Msg("action rejected by permission gate")

		return c.Status(fiber.StatusForbidden).JSON(res)
	case errors.Is(err, errBadBody):
		return c.Status(fiber.StatusBadRequest).JSON(res)
	case err != nil:
		log.Error().Err(err).Str("path", c.Path()).Msg("action failed")

		return c.Status(fiber.StatusInternalServerError).JSON(action.Fail("Internal server error"))
	case !res.Success:
		return c.Status(fiber.StatusUnprocessableEntity).JSON(res)
	default:
		return c.JSON(res)
	}
}
