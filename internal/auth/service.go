package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// Service provides authorization lookups on the role tables.
type Service struct {
	db *gorm.DB
}

// NewService creates a new auth service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// permissionsOfUser selects the distinct permission names granted to a user through its roles.
func permissionsOfUser(tx *gorm.DB, userID uint64) *gorm.DB {
	return tx.Table("permissions").
		Distinct("permissions.name").
		Joins("JOIN role_permissions ON role_permissions.permission_id = permissions.id").
		Joins("JOIN user_roles ON user_roles.role_id = role_permissions.role_id").
		Where("user_roles.user_id = ?", userID)
}

// PermissionsFor returns the sorted permission set of a user.
func (s *Service) PermissionsFor(ctx context.Context, userID uint64) ([]string, error) {
	permissions := []string{}

	err := permissionsOfUser(s.db.WithContext(ctx), userID).
		Pluck("permissions.name", &permissions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}

	slices.Sort(permissions)

	return permissions, nil
}

// SessionUser builds the session identity of an authenticated account.
// The permission set is computed once here and travels in the token.
func (s *Service) SessionUser(ctx context.Context, user *models.User) (session.User, error) {
	perms, err := s.PermissionsFor(ctx, user.ID)
	if err != nil {
		return session.User{}, err
	}

	return session.User{
		ID:          user.ID,
		Username:    user.Username,
		Permissions: perms,
	}, nil
}

// HolderFilter narrows ActiveHolders to a hypothetical future state.
type HolderFilter struct {
	// ExcludeUserID ignores this user, e.g. because it is about to be deleted.
	ExcludeUserID uint64
	// ExcludeRoleID ignores grants through this role, e.g. because it is about to
	// be deleted or lose the permission.
	ExcludeRoleID uint
}

// ActiveHolders returns the ids of active users holding perm through any role.
// Pass a transaction to evaluate the guard and the write atomically.
func ActiveHolders(tx *gorm.DB, perm string, f HolderFilter) ([]uint64, error) {
	q := tx.Table("users").
		Distinct("users.id").
		Joins("JOIN user_roles ON user_roles.user_id = users.id").
		Joins("JOIN role_permissions ON role_permissions.role_id = user_roles.role_id").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("users.active = ? AND permissions.name = ?", true, perm)

	if f.ExcludeUserID != 0 {
		q = q.Where("users.id <> ?", f.ExcludeUserID)
	}

	if f.ExcludeRoleID != 0 {
		q = q.Where("user_roles.role_id <> ?", f.ExcludeRoleID)
	}

	var ids []uint64
	if err := q.Pluck("users.id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to count holders of %s: %w", perm, err)
	}

	return ids, nil
}

// RolesGrant reports whether any of the roles carries perm.
func RolesGrant(tx *gorm.DB, roleIDs []uint, perm string) (bool, error) {
	if len(roleIDs) == 0 {
		return false, nil
	}

	var count int64

	err := tx.Table("role_permissions").
		Joins("JOIN permissions ON permissions.id = role_permissions.permission_id").
		Where("role_permissions.role_id IN ? AND permissions.name = ?", roleIDs, perm).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check role permissions: %w", err)
	}

	return count > 0, nil
}

// ExternalIdentity is a user asserted by LDAP or OIDC.
type ExternalIdentity struct {
	Source     models.AuthSource
	ExternalID string
	Username   string
	Email      string
	FirstName  string
	LastName   string
	Groups     []string
}

// ProvisionOptions controls how external users are mirrored locally.
type ProvisionOptions struct {
	AutoCreate  bool
	DefaultRole string
	// SyncRoles replaces the roles of the user by the roles named like its groups.
	SyncRoles bool
}

// UpsertExternalUser finds or creates the local account of an external identity.
func (s *Service) UpsertExternalUser(ctx context.Context, id ExternalIdentity, opts ProvisionOptions) (*models.User, error) {
	var user models.User

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("external_id = ? AND auth_source = ?", id.ExternalID, id.Source).First(&user).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if !opts.AutoCreate {
				return ErrAutoCreateDisabled
			}

			var taken int64
			if err = tx.Model(&models.User{}).Where("username = ?", id.Username).Count(&taken).Error; err != nil {
				return fmt.Errorf("failed to check username: %w", err)
			}

			if taken > 0 {
				return ErrUsernameTaken
			}

			user = models.User{
				Active:     true,
				Username:   id.Username,
				Email:      id.Email,
				FirstName:  id.FirstName,
				LastName:   id.LastName,
				AuthSource: id.Source,
				ExternalID: id.ExternalID,
			}

			if err = tx.Create(&user).Error; err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			if opts.DefaultRole != "" && !opts.SyncRoles {
				return assignRolesByName(tx, &user, []string{opts.DefaultRole})
			}
		case err != nil:
			return fmt.Errorf("failed to query user: %w", err)
		default:
			if !user.Active {
				return ErrUserAccountDisabled
			}

			user.Email = id.Email
			user.FirstName = id.FirstName
			user.LastName = id.LastName

			if err = tx.Save(&user).Error; err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
		}

		if opts.SyncRoles {
			names := slices.Clone(id.Groups)
			if opts.DefaultRole != "" {
				names = append(names, opts.DefaultRole)
			}

			return assignRolesByName(tx, &user, names)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// assignRolesByName replaces the roles of user by the existing roles with the given names.
// Unknown names are ignored.
func assignRolesByName(tx *gorm.DB, user *models.User, names []string) error {
	cleaned := make([]string, 0, len(names))

	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			cleaned = append(cleaned, n)
		}
	}

	roles := []models.Role{}

	if len(cleaned) > 0 {
		if err := tx.Where("name IN ?", cleaned).Find(&roles).Error; err != nil {
			return fmt.Errorf("failed to load roles: %w", err)
		}
	}

	assoc := tx.Model(user).Association("Roles")

	var err error
	if len(roles) == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(roles)
	}

	if err != nil {
		return fmt.Errorf("failed to assign roles: %w", err)
	}

	user.Roles = roles

	return nil
}
