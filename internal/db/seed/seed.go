// Package seed migrates the schema and creates the fixed permission set,
// the built-in roles and the bootstrap administrator.
package seed

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/config"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/controller/setting"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
)

const (
	// AdminRole holds every permission and cannot be deleted.
	AdminRole = "admin"
	// EditorRole manages catalog content.
	EditorRole = "editor"

	// StateSetting is the settings row recording the last seed run.
	StateSetting = "seed.state"

	// Version is bumped whenever the seeded data changes.
	Version = 1

	defaultAdminUsername = "admin"
	defaultAdminEmail    = "admin@localhost"
	generatedPasswordLen = 12
)

// State is stored in the settings table after every seed run.
type State struct {
	Version  int       `json:"version"`
	SeededAt time.Time `json:"seeded_at"`
}

// editorPermissions are granted to the editor role.
func editorPermissions() []string {
	return []string{
		auth.ViewDashboard,
		auth.ManageProducts,
		auth.ManageCategories,
		auth.ManageBrands,
		auth.ManagePortfolios,
		auth.ManageMedia,
	}
}

// Migrate creates or updates all tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}

// Run seeds permissions, roles and, when nobody can manage users, the bootstrap admin.
func Run(db *gorm.DB, cfg config.Seed) error {
	var generated string

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := Permissions(tx); err != nil {
			return err
		}

		if err := Roles(tx); err != nil {
			return err
		}

		password, err := Admin(tx, cfg)
		if err != nil {
			return err
		}

		generated = password

		return setting.SetJSON(tx, StateSetting, State{Version: Version, SeededAt: time.Now().UTC()})
	})
	if err != nil {
		return err
	}

	if generated != "" {
		log.Warn().Str("username", firstNonEmpty(cfg.AdminUsername, defaultAdminUsername)).
			Str("password", generated).
			Msg("bootstrap administrator created with a generated password, change it after the first login")
	}

	return nil
}

// Permissions upserts the fixed permission set.
func Permissions(tx *gorm.DB) error {
	for _, name := range auth.All() {
		p := models.Permission{Name: name, Description: auth.Description(name)}

		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"description"}),
		}).Create(&p).Error
		if err != nil {
			return fmt.Errorf("failed to seed permission %s: %w", name, err)
		}
	}

	return nil
}

// Roles creates the built-in roles. The admin role always gets every permission.
func Roles(tx *gorm.DB) error {
	if err := ensureRole(tx, AdminRole, "Full access", true, auth.All(), true); err != nil {
		return err
	}

	return ensureRole(tx, EditorRole, "Manages catalog content", false, editorPermissions(), false)
}

func ensureRole(tx *gorm.DB, name, description string, system bool, perms []string, resync bool) error {
	var role models.Role

	err := tx.Where("name = ?", name).First(&role).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		role = models.Role{Name: name, Description: description, IsSystem: system}
		if err = tx.Create(&role).Error; err != nil {
			return fmt.Errorf("failed to create role %s: %w", name, err)
		}

		resync = true
	case err != nil:
		return fmt.Errorf("failed to load role %s: %w", name, err)
	}

	if !resync {
		return nil
	}

	var permissions []models.Permission
	if err = tx.Where("name IN ?", perms).Find(&permissions).Error; err != nil {
		return fmt.Errorf("failed to load permissions: %w", err)
	}

	if err = tx.Model(&role).Association("Permissions").Replace(permissions); err != nil {
		return fmt.Errorf("failed to assign permissions to %s: %w", name, err)
	}

	return nil
}

// Admin creates the bootstrap administrator when no active user holds ManageUsers.
// It returns the generated password, empty when the password came from config
// or no user was created.
func Admin(tx *gorm.DB, cfg config.Seed) (string, error) {
	holders, err := auth.ActiveHolders(tx, auth.ManageUsers, auth.HolderFilter{})
	if err != nil {
		return "", err
	}

	if len(holders) > 0 {
		return "", nil
	}

	var role models.Role
	if err = tx.Where("name = ?", AdminRole).First(&role).Error; err != nil {
		return "", fmt.Errorf("failed to load admin role: %w", err)
	}

	username := firstNonEmpty(cfg.AdminUsername, defaultAdminUsername)

	var user models.User

	err = tx.Where("username = ?", username).First(&user).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load %s: %w", username, err)
	}

	var generated string

	password := cfg.AdminPassword
	if password == "" {
		if generated, err = randomPassword(); err != nil {
			return "", err
		}

		password = generated
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return "", err
	}

	// an existing account with that name is reactivated as administrator
	user.Username = username
	user.Email = firstNonEmpty(user.Email, cfg.AdminEmail, defaultAdminEmail)
	user.Password = hash
	user.Active = true
	user.AuthSource = models.AuthSourceLocal

	if err = tx.Save(&user).Error; err != nil {
		return "", fmt.Errorf("failed to save %s: %w", username, err)
	}

	if err = tx.Model(&user).Association("Roles").Append(&role); err != nil {
		return "", fmt.Errorf("failed to grant admin role: %w", err)
	}

	return generated, nil
}

func randomPassword() (string, error) {
	b := make([]byte, generatedPasswordLen)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}

	return hex.EncodeToString(b), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
