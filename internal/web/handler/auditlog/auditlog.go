// Package auditlog lists audit entries for users holding view_audit_logs.
package auditlog

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler"
)

const (
	// Path is the audit log listing.
	Path = handler.AdminPath + "/audit"

	// DefaultPageSize is the page size when none is requested.
	DefaultPageSize = 50
)

// Page is one page of the listing.
type Page struct {
	Items    []models.AuditLog `json:"items"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// Service is the audit log handler service.
type Service struct {
	sink *audit.Sink
}

// Init registers the listing route.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if !handler.Valid(app, env) {
		return handler.ErrNilEnv
	}

	s.sink = env.Audit

	app.Get(Path, auth.RequirePermission(auth.ViewAuditLogs), s.List)

	return nil
}

// List handles GET /admin/audit. Query parameters: action, username,
// user_id, entity_id, since, until (RFC 3339), page and page_size.
func (s *Service) List(c *fiber.Ctx) error {
	f, err := parseFilter(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": err.Error()})
	}

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	pageSize := c.QueryInt("page_size", DefaultPageSize)

	items, total, err := s.sink.List(c.UserContext(), f, page, pageSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to list audit entries")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": "Internal server error"})
	}

	if items == nil {
		items = []models.AuditLog{}
	}

	return c.JSON(Page{Items: items, Total: total, Page: page, PageSize: pageSize})
}

type badParam string

func (b badParam) Error() string {
	return "invalid query parameter " + string(b)
}

func parseFilter(c *fiber.Ctx) (audit.Filter, error) {
	f := audit.Filter{
		Action:   strings.ToUpper(strings.TrimSpace(c.Query("action"))),
		Username: strings.TrimSpace(c.Query("username")),
	}

	var err error

	if f.UserID, err = optionalID(c, "user_id"); err != nil {
		return f, err
	}

	if f.EntityID, err = optionalID(c, "entity_id"); err != nil {
		return f, err
	}

	if f.Since, err = optionalTime(c, "since"); err != nil {
		return f, err
	}

	if f.Until, err = optionalTime(c, "until"); err != nil {
		return f, err
	}

	return f, nil
}

func optionalID(c *fiber.Ctx, key string) (*uint64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil //nolint:nilnil
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, badParam(key)
	}

	return &id, nil
}

func optionalTime(c *fiber.Ctx, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, badParam(key)
	}

	return t, nil
}
