// Package role provides the role mutations of the admin area.
package role

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"gorm.io/gorm"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

const (
	// Entity is the name used in routes, metrics and audit tags.
	Entity = "role"

	// LastHolderMessage explains why a mutation was refused.
	LastHolderMessage = "At least one active user must keep the permission to manage users"
	// SystemRoleMessage is returned for changes to built-in roles.
	SystemRoleMessage = "System roles cannot be modified or deleted"
)

// Input is the editable state of a role.
type Input struct {
	Name        string   `json:"name"        validate:"required,max=100"`
	Description string   `json:"description" validate:"max=255"`
	Permissions []string `json:"permissions" validate:"dive,permission"`
}

// Service mutates roles. Roles are managed with the user management permission.
type Service struct {
	deps *action.Deps
}

// New creates the role service.
func New(deps *action.Deps) *Service {
	return &Service{deps: deps}
}

func mutation(op action.Op, in any) action.Mutation {
	return action.Mutation{Entity: Entity, Op: op, Permission: auth.ManageUsers, Input: in}
}

// Create adds a role.
func (s *Service) Create(acc *session.Accessor, in Input) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpCreate, &in),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			var (
				r   models.Role
				res action.Result
			)

			err := s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var err error

				res, err = s.save(tx, &r, in)

				return err
			})
			if err != nil || !res.Success {
				return res, audit.Entry{}, err
			}

			return action.OK(uint64(r.ID), "Role created"), audit.Entry{Detail: describe("created", r.Name, in.Permissions)}, nil
		})
}

// Update changes the role id.
func (s *Service) Update(acc *session.Accessor, id uint64, in Input) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpUpdate, &in),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			var (
				r   models.Role
				res action.Result
			)

			err := s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				found, err := action.Load(tx.Preload("Permissions"), &r, id)
				if err != nil || !found {
					res = action.Fail("Role not found")

					return err
				}

				if r.IsSystem {
					res = action.Fail(SystemRoleMessage)

					return nil
				}

				if slices.Contains(r.PermissionNames(), auth.ManageUsers) && !slices.Contains(in.Permissions, auth.ManageUsers) {
					res, err = keepsHolder(tx, r.ID)
					if err != nil || !res.Success {
						return err
					}
				}

				res, err = s.save(tx, &r, in)

				return err
			})
			if err != nil || !res.Success {
				return res, audit.Entry{}, err
			}

			return action.OK(uint64(r.ID), "Role updated"), audit.Entry{Detail: describe("updated", r.Name, in.Permissions)}, nil
		})
}

// Delete removes the role id and its user assignments.
func (s *Service) Delete(acc *session.Accessor, id uint64) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpDelete, nil),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			var (
				r   models.Role
				res action.Result
			)

			err := s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				found, err := action.Load(tx.Preload("Permissions"), &r, id)
				if err != nil || !found {
					res = action.Fail("Role not found")

					return err
				}

				if r.IsSystem {
					res = action.Fail(SystemRoleMessage)

					return nil
				}

				if slices.Contains(r.PermissionNames(), auth.ManageUsers) {
					res, err = keepsHolder(tx, r.ID)
					if err != nil || !res.Success {
						return err
					}
				}

				if err = tx.Model(&r).Association("Permissions").Clear(); err != nil {
					return fmt.Errorf("failed to remove permissions: %w", err)
				}

				if err = tx.Exec("DELETE FROM user_roles WHERE role_id = ?", r.ID).Error; err != nil {
					return fmt.Errorf("failed to remove role assignments: %w", err)
				}

				if err = tx.Delete(&r).Error; err != nil {
					return err
				}

				res = action.OK(uint64(r.ID), "Role deleted")

				return nil
			})
			if err != nil || !res.Success {
				return res, audit.Entry{}, err
			}

			return res, audit.Entry{Detail: "deleted role " + r.Name}, nil
		})
}

// keepsHolder refuses to withdraw the user management permission of role
// when no active user would keep it otherwise.
func keepsHolder(tx *gorm.DB, roleID uint) (action.Result, error) {
	others, err := auth.ActiveHolders(tx, auth.ManageUsers, auth.HolderFilter{ExcludeRoleID: roleID})
	if err != nil || len(others) > 0 {
		return action.OK(uint64(roleID), ""), err
	}

	holders, err := auth.ActiveHolders(tx, auth.ManageUsers, auth.HolderFilter{})
	if err != nil || len(holders) == 0 {
		return action.OK(uint64(roleID), ""), err
	}

	return action.Fail(LastHolderMessage), nil
}

func (s *Service) save(tx *gorm.DB, r *models.Role, in Input) (action.Result, error) {
	var taken int64

	q := tx.Model(&models.Role{}).Where("name = ?", in.Name)
	if r.ID != 0 {
		q = q.Where("id <> ?", r.ID)
	}

	if err := q.Count(&taken).Error; err != nil {
		return action.Result{}, fmt.Errorf("failed to check role name: %w", err)
	}

	if taken > 0 {
		return action.FieldError("name", "is already in use"), nil
	}

	names := slices.Compact(slices.Sorted(slices.Values(in.Permissions)))
	perms := []models.Permission{}

	if len(names) > 0 {
		if err := tx.Where("name IN ?", names).Find(&perms).Error; err != nil {
			return action.Result{}, fmt.Errorf("failed to load permissions: %w", err)
		}

		if len(perms) != len(names) {
			return action.FieldError("permissions", "contains unknown permissions"), nil
		}
	}

	r.Name = in.Name
	r.Description = in.Description
	r.Permissions = nil

	if err := tx.Save(r).Error; err != nil {
		return action.Result{}, fmt.Errorf("failed to save role: %w", err)
	}

	assoc := tx.Model(r).Association("Permissions")

	var err error
	if len(perms) == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(perms)
	}

	if err != nil {
		return action.Result{}, fmt.Errorf("failed to assign permissions: %w", err)
	}

	return action.OK(uint64(r.ID), ""), nil
}

func describe(verb, name string, perms []string) string {
	if len(perms) == 0 {
		return verb + " role " + name + " without permissions"
	}

	return verb + " role " + name + " with " + strings.Join(perms, ", ")
}
