// Package brand provides the brand mutations of the admin area.
package brand

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
const Entity = "brand"

// Input is the editable state of a brand.
type Input struct {
	Name    string `json:"name"    validate:"required,max=200"`
	Slug    string `json:"slug"    validate:"required,max=200,slug"`
	Website string `json:"website" validate:"omitempty,url,max=255"`
}

// Service mutates brands.
type Service struct {
	deps *action.Deps
}

// New creates the brand service.
func New(deps *action.Deps) *Service {
	return &Service{deps: deps}
}

func mutation(op action.Op, in any) action.Mutation {
	return action.Mutation{Entity: Entity, Op: op, Permission: auth.ManageBrands, Input: in}
}

// Create adds a brand.
func (s *Service) Create(acc *session.Accessor, in Input) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpCreate, &in),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			var b models.Brand

			res, err := s.save(ctx, &b, in)
			if err != nil || !res.Success {
				return res, audit.Entry{}, err
			}

			return action.OK(b.ID, "Brand created"), audit.Entry{Detail: "created brand " + b.Name}, nil
		})
}

// Update changes the brand id.
func (s *Service) Update(acc *session.Accessor, id uint64, in Input) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpUpdate, &in),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			var b models.Brand

			found, err := action.Load(s.deps.DB.WithContext(ctx), &b, id)
			if err != nil || !found {
				return action.Fail("Brand not found"), audit.Entry{}, err
			}

			res, err := s.save(ctx, &b, in)
			if err != nil || !res.Success {
				return res, audit.Entry{}, err
			}

			return action.OK(b.ID, "Brand updated"), audit.Entry{Detail: "updated brand " + b.Name}, nil
		})
}

// Delete removes the brand id. Its products lose their brand.
func (s *Service) Delete(acc *session.Accessor, id uint64) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpDelete, nil),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			var (
				b        models.Brand
				products int64
			)

			found, err := action.Load(s.deps.DB.WithContext(ctx), &b, id)
			if err != nil || !found {
				return action.Fail("Brand not found"), audit.Entry{}, err
			}

			err = s.deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				upd := tx.Model(&models.Product{}).Where("brand_id = ?", b.ID).Update("brand_id", nil)
				if upd.Error != nil {
					return fmt.Errorf("failed to detach products: %w", upd.Error)
				}

				products = upd.RowsAffected

				return tx.Delete(&b).Error
			})
			if err != nil {
				return action.Result{}, audit.Entry{}, err
			}

			return action.OK(b.ID, "Brand deleted"), audit.Entry{
				Detail: fmt.Sprintf("deleted brand %s, detached %d products", b.Name, products),
			}, nil
		})
}

func (s *Service) save(ctx context.Context, b *models.Brand, in Input) (action.Result, error) {
	db := s.deps.DB.WithContext(ctx)

	taken, err := action.SlugTaken(db, &models.Brand{}, in.Slug, b.ID)
	if err != nil {
		return action.Result{}, err
	}

	if taken {
		return action.FieldError("slug", "is already in use"), nil
	}

	b.Name = in.Name
	b.Slug = in.Slug
	b.Website = in.Website

	if err = db.Save(b).Error; err != nil {
		return action.Result{}, err
	}

	return action.OK(b.ID, ""), nil
}
