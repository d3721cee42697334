// Package category provides the category mutations of the admin area.
package category

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// Entity is the name used in routes, metrics and audit tags.
const Entity = "category"

// maxDepth bounds the parent walk of the cycle check.
const maxDepth = 64

// Input is the editable state of a category.
type Input struct {
	Name     string  `json:"name"      validate:"required,max=200"`
	Slug     string  `json:"slug"      validate:"required,max=200,slug"`
	ParentID *uint64 `json:"parent_id"`
}

// Service mutates categories.
type Service struct {
	deps *action.Deps
}

// New creates the category service.
func New(deps *action.Deps) *Service {
	return &Service{deps: deps}
}

func mutation(op action.Op, in any) action.Mutation {
	return action.Mutation{Entity: Entity, Op: op, Permission: auth.ManageCategories, Input: in}
}

// Create adds a category.
func (s *Service) Create(acc *session.Accessor, in Input) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpCreate, &in),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			var c models.Category

			res, err := s.save(ctx, &c, in)
			if err != nil || !res.Success {
				return res, audit.Entry{}, err
			}

			return action.OK(c.ID, "Category created"), audit.Entry{Detail: "created category " + c.Name}, nil
		})
}

// Update changes the category id.
func (s *Service) Update(acc *session.Accessor, id uint64, in Input) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpUpdate, &in),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			var c models.Category

			found, err := action.Load(s.deps.DB.WithContext(ctx), &c, id)
			if err != nil || !found {
				return action.Fail("Category not found"), audit.Entry{}, err
			}

			res, err := s.save(ctx, &c, in)
			if err != nil || !res.Success {
				return res, audit.Entry{}, err
			}

			return action.OK(c.ID, "Category updated"), audit.Entry{Detail: "updated category " + c.Name}, nil
		})
}

// Delete removes the category id. Its products lose their category and
// its children move up to its parent.
func (s *Service) Delete(acc *session.Accessor, id uint64) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpDelete, nil),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			var (
				c        models.Category
				products int64
			)

			found, err := action.Load(s.deps.DB.WithContext(ctx), &c, id)
			if err != nil || !found {
				return action.Fail("Category not found"), audit.Entry{}, err
			}

			err = s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				upd := tx.Model(&models.Product{}).Where("category_id = ?", c.ID).Update("category_id", nil)
				if upd.Error != nil {
					return fmt.Errorf("failed to detach products: %w", upd.Error)
				}

				products = upd.RowsAffected

				if err := tx.Model(&models.Category{}).Where("parent_id = ?", c.ID).
					Update("parent_id", c.ParentID).Error; err != nil {
					return fmt.Errorf("failed to move child categories: %w", err)
				}

				return tx.Delete(&c).Error
			})
			if err != nil {
				return action.Result{}, audit.Entry{}, err
			}

			return action.OK(c.ID, "Category deleted"), audit.Entry{
				Detail: fmt.Sprintf("deleted category %s, detached %d products", c.Name, products),
			}, nil
		})
}

func (s *Service) save(ctx context.Context, c *models.Category, in Input) (action.Result, error) {
	db := s.deps.DB.WithContext(ctx)

	taken, err := action.SlugTaken(db, &models.Category{}, in.Slug, c.ID)
	if err != nil {
		return action.Result{}, err
	}

	if taken {
		return action.FieldError("slug", "is already in use"), nil
	}

	if in.ParentID != nil {
		res, errParent := s.checkParent(db, c.ID, *in.ParentID)
		if errParent != nil || !res.Success {
			return res, errParent
		}
	}

	c.Name = in.Name
	c.Slug = in.Slug
	c.ParentID = in.ParentID

	if err = db.Save(c).Error; err != nil {
		return action.Result{}, err
	}

	return action.OK(c.ID, ""), nil
}

// checkParent rejects unknown parents and parents that would create a cycle.
func (s *Service) checkParent(db *gorm.DB, id, parentID uint64) (action.Result, error) {
	next := &parentID

	for depth := 0; next != nil; depth++ {
		if id != 0 && *next == id {
			return action.FieldError("parent_id", "cannot be the category itself or one of its children"), nil
		}

		if depth >= maxDepth {
			return action.FieldError("parent_id", "is nested too deep"), nil
		}

		var parent models.Category

		found, err := action.Load(db, &parent, *next)
		if err != nil {
			return action.Result{}, err
		}

		if !found {
			return action.FieldError("parent_id", "does not exist"), nil
		}

		next = parent.ParentID
	}

	return action.OK(0, ""), nil
}
