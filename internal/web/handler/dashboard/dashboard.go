// Package dashboard provides the landing page of the admin area.
package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/navigation"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

const (
	// Path is the path to the dashboard page.
	Path = handler.AdminPath

	// TemplateName is the name of the dashboard template.
	TemplateName = "dashboard"

	// RecentAuditEntries is the number of audit rows shown on the dashboard.
	RecentAuditEntries = 10
)

// Stats counts the rows of each entity.
type Stats struct {
	Products   int64 `json:"products"`
	Categories int64 `json:"categories"`
	Brands     int64 `json:"brands"`
	Portfolios int64 `json:"portfolios"`
	Media      int64 `json:"media"`
	Messages   int64 `json:"messages"`
	// Users and Roles are only counted for users with elevated status.
	Users *int64 `json:"users,omitempty"`
	Roles *int64 `json:"roles,omitempty"`
}

// UserRow is a user in the elevated listing.
type UserRow struct {
	ID         uint64   `json:"id"`
	Username   string   `json:"username"`
	Active     bool     `json:"active"`
	AuthSource string   `json:"auth_source"`
	Roles      []string `json:"roles"`
}

// Data is the dashboard view model.
type Data struct {
	Stats  Stats             `json:"stats"`
	Users  []UserRow         `json:"users,omitempty"`
	Recent []models.AuditLog `json:"recent,omitempty"`
}

// Service is the dashboard handler service.
type Service struct {
	env *handler.Env
}

// Init registers the dashboard route.
func (s *Service) Init(app *fiber.App, env *handler.Env) error {
	if !handler.Valid(app, env) {
		return handler.ErrNilEnv
	}

	s.env = env

	app.Get(Path, auth.RequirePermission(auth.ViewDashboard), s.Get)

	return nil
}

// Get handles the dashboard page rendering.
func (s *Service) Get(c *fiber.Ctx) error {
	user := session.Get(c).Identity()

	data, err := s.load(c, user)
	if err != nil {
		log.Error().Err(err).Msg("failed to load dashboard")

		return c.Status(fiber.StatusInternalServerError).SendString("Failed to load dashboard")
	}

	if auth.WantsJSON(c) {
		return c.JSON(data)
	}

	nav := navigation.NewContext("Dashboard", navigation.SectionDashboard, "dashboard", user).
		AddBreadcrumb("Dashboard", Path, true)

	return c.Render(TemplateName, fiber.Map{
		"Title":      s.env.Config.Title,
		"Navigation": nav,
		"User":       user,
		"Data":       data,
	}, handler.BaseLayout)
}

type counter struct {
	model any
	dst   *int64
}

func (s *Service) load(c *fiber.Ctx, user *session.User) (Data, error) {
	var data Data

	db := s.env.DB.WithContext(c.UserContext())

	counts := []counter{
		{&models.Product{}, &data.Stats.Products},
		{&models.Category{}, &data.Stats.Categories},
		{&models.Brand{}, &data.Stats.Brands},
		{&models.Portfolio{}, &data.Stats.Portfolios},
		{&models.Media{}, &data.Stats.Media},
		{&models.ContactMessage{}, &data.Stats.Messages},
	}

	if auth.CanViewElevatedStatus(user) {
		data.Stats.Users = new(int64)
		data.Stats.Roles = new(int64)
		counts = append(counts, counter{&models.User{}, data.Stats.Users}, counter{&models.Role{}, data.Stats.Roles})

		users, err := s.users(db)
		if err != nil {
			return data, err
		}

		data.Users = users
	}

	for _, cnt := range counts {
		if err := db.Model(cnt.model).Count(cnt.dst).Error; err != nil {
			return data, err //nolint:wrapcheck
		}
	}

	if user.Has(auth.ViewAuditLogs) {
		recent, _, err := s.env.Audit.List(c.UserContext(), audit.Filter{}, 1, RecentAuditEntries)
		if err != nil {
			return data, err //nolint:wrapcheck
		}

		data.Recent = recent
	}

	return data, nil
}

func (s *Service) users(db *gorm.DB) ([]UserRow, error) {
	var users []models.User
	if err := db.Preload("Roles").Order("username").Find(&users).Error; err != nil {
		return nil, err //nolint:wrapcheck
	}

	rows := make([]UserRow, 0, len(users))
	for i := range users {
		rows = append(rows, UserRow{
			ID:         users[i].ID,
			Username:   users[i].Username,
			Active:     users[i].Active,
			AuthSource: string(users[i].AuthSource),
			Roles:      users[i].RoleNames(),
		})
	}

	return rows, nil
}
