// Package user provides the user account mutations of the admin area.
package user

import (
	"context"
	"fmt"
	"slices"

	"gorm.io/gorm"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

const (
	// Entity is the name used in routes, metrics and audit tags.
	Entity = "user"

	// LastHolderMessage explains why a mutation was refused.
	LastHolderMessage = "At least one active user must keep the permission to manage users"
	// SelfDeleteMessage is returned when a user tries to delete their own account.
	SelfDeleteMessage = "You cannot delete your own account"
)

// Input is the editable state of a user account.
type Input struct {
	Username   string `json:"username"    validate:"required,min=3,max=100"`
	Email      string `json:"email"       validate:"required,email,max=255"`
	FirstName  string `json:"first_name"  validate:"max=100"`
	LastName   string `json:"last_name"   validate:"max=100"`
	AuthSource string `json:"auth_source" validate:"omitempty,oneof=local oidc ldap"`
	ExternalID string `json:"external_id" validate:"max=255"`
	// Password is required when creating a local account. On update an
	// empty password keeps the current one.
	Password string `json:"password" validate:"omitempty,min=8,max=128"`
	Active   bool   `json:"active"`
	RoleIDs  []uint `json:"role_ids" validate:"dive,gt=0"`
}

func (in Input) source() models.AuthSource {
	if in.AuthSource == "" {
		return models.AuthSourceLocal
	}

	return models.AuthSource(in.AuthSource)
}

// Service mutates user accounts.
type Service struct {
	deps *action.Deps
}

// New creates the user service.
func New(deps *action.Deps) *Service {
	return &Service{deps: deps}
}

func mutation(op action.Op, in any) action.Mutation {
	return action.Mutation{Entity: Entity, Op: op, Permission: auth.ManageUsers, Input: in}
}

// Create adds a user account.
func (s *Service) Create(acc *session.Accessor, in Input) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpCreate, &in),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			if in.source() == models.AuthSourceLocal && in.Password == "" {
				return action.FieldError("password", "is required"), audit.Entry{}, nil
			}

			var (
				u   models.User
				res action.Result
			)

			err := s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				var err error

				res, err = s.save(tx, &u, in)

				return err
			})
			if err != nil || !res.Success {
				return res, audit.Entry{}, err
			}

			return action.OK(u.ID, "User created"), audit.Entry{Detail: "created user " + u.Username}, nil
		})
}

// Update changes the user account id.
func (s *Service) Update(acc *session.Accessor, id uint64, in Input) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpUpdate, &in),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			var (
				u   models.User
				res action.Result
			)

			err := s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				found, err := action.Load(tx, &u, id)
				if err != nil || !found {
					res = action.Fail("User not found")

					return err
				}

				res, err = s.keepsHolder(tx, id, in)
				if err != nil || !res.Success {
					return err
				}

				res, err = s.save(tx, &u, in)

				return err
			})
			if err != nil || !res.Success {
				return res, audit.Entry{}, err
			}

			return action.OK(u.ID, "User updated"), audit.Entry{Detail: "updated user " + u.Username}, nil
		})
}

// Delete removes the user account id. Users cannot delete themselves and
// the last active holder of the user management permission cannot be deleted.
func (s *Service) Delete(acc *session.Accessor, id uint64) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpDelete, nil),
		func(ctx context.Context, actor *session.User) (action.Result, audit.Entry, error) {
			if actor.ID == id {
				return action.Fail(SelfDeleteMessage), audit.Entry{}, nil
			}

			var (
				u   models.User
				res action.Result
			)

			err := s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				found, err := action.Load(tx, &u, id)
				if err != nil || !found {
					res = action.Fail("User not found")

					return err
				}

				others, err := auth.ActiveHolders(tx, auth.ManageUsers, auth.HolderFilter{ExcludeUserID: id})
				if err != nil {
					return err
				}

				if len(others) == 0 {
					holders, errHolders := auth.ActiveHolders(tx, auth.ManageUsers, auth.HolderFilter{})
					if errHolders != nil {
						return errHolders
					}

					if slices.Contains(holders, id) {
						res = action.Fail(LastHolderMessage)

						return nil
					}
				}

				if err = tx.Model(&u).Association("Roles").Clear(); err != nil {
					return fmt.Errorf("failed to remove roles: %w", err)
				}

				if err = tx.Delete(&u).Error; err != nil {
					return err
				}

				res = action.OK(u.ID, "User deleted")

				return nil
			})
			if err != nil || !res.Success {
				return res, audit.Entry{}, err
			}

			return res, audit.Entry{Detail: "deleted user " + u.Username}, nil
		})
}

// keepsHolder refuses updates that would leave nobody able to manage users.
func (s *Service) keepsHolder(tx *gorm.DB, id uint64, in Input) (action.Result, error) {
	others, err := auth.ActiveHolders(tx, auth.ManageUsers, auth.HolderFilter{ExcludeUserID: id})
	if err != nil || len(others) > 0 {
		return action.OK(id, ""), err
	}

	holders, err := auth.ActiveHolders(tx, auth.ManageUsers, auth.HolderFilter{})
	if err != nil || !slices.Contains(holders, id) {
		return action.OK(id, ""), err
	}

	if in.Active {
		grants, errGrant := auth.RolesGrant(tx, in.RoleIDs, auth.ManageUsers)
		if errGrant != nil || grants {
			return action.OK(id, ""), errGrant
		}
	}

	return action.Fail(LastHolderMessage), nil
}

// save checks the username and roles, then writes u and its role links.
func (s *Service) save(tx *gorm.DB, u *models.User, in Input) (action.Result, error) {
	var taken int64

	q := tx.Model(&models.User{}).Where("username = ?", in.Username)
	if u.ID != 0 {
		q = q.Where("id <> ?", u.ID)
	}

	if err := q.Count(&taken).Error; err != nil {
		return action.Result{}, fmt.Errorf("failed to check username: %w", err)
	}

	if taken > 0 {
		return action.FieldError("username", "is already in use"), nil
	}

	ids := slices.Compact(slices.Sorted(slices.Values(in.RoleIDs)))
	roles := []models.Role{}

	if len(ids) > 0 {
		if err := tx.Where("id IN ?", ids).Find(&roles).Error; err != nil {
			return action.Result{}, fmt.Errorf("failed to load roles: %w", err)
		}

		if len(roles) != len(ids) {
			return action.FieldError("role_ids", "contains unknown roles"), nil
		}
	}

	u.Username = in.Username
	u.Email = in.Email
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.AuthSource = in.source()
	u.ExternalID = in.ExternalID
	u.Active = in.Active

	switch {
	case u.AuthSource != models.AuthSourceLocal:
		u.Password = ""
	case in.Password != "":
		hash, err := models.HashPassword(in.Password)
		if err != nil {
			return action.Result{}, err
		}

		u.Password = hash
	}

	// roles are written through the association below
	u.Roles = nil

	if err := tx.Save(u).Error; err != nil {
		return action.Result{}, fmt.Errorf("failed to save user: %w", err)
	}

	assoc := tx.Model(u).Association("Roles")

	var err error
	if len(roles) == 0 {
		err = assoc.Clear()
	} else {
		err = assoc.Replace(roles)
	}

	if err != nil {
		return action.Result{}, fmt.Errorf("failed to assign roles: %w", err)
	}

	return action.OK(u.ID, ""), nil
}
