// Package product provides the product mutations of the admin area.
package product

import (
	"context"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// Entity is the name used in routes, metrics and audit tags.
const Entity = "product"

// Input is the editable state of a product.
type Input struct {
	Name        string  `json:"name"        validate:"required,max=200"`
	Slug        string  `json:"slug"        validate:"required,max=200,slug"`
	Description string  `json:"description" validate:"max=10000"`
	CategoryID  *uint64 `json:"category_id"`
	BrandID     *uint64 `json:"brand_id"`
	Published   bool    `json:"published"`
}

// Service mutates products.
type Service struct {
	deps *action.Deps
}

// New creates the product service.
func New(deps *action.Deps) *Service {
	return &Service{deps: deps}
}

func mutation(op action.Op, in any) action.Mutation {
	return action.Mutation{Entity: Entity, Op: op, Permission: auth.ManageProducts, Input: in}
}

// Create adds a product.
func (s *Service) Create(acc *session.Accessor, in Input) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpCreate, &in),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			var p models.Product

			res, err := s.save(ctx, &p, in)
			if err != nil || !res.Success {
				return res, audit.Entry{}, err
			}

			return action.OK(p.ID, "Product created"), audit.Entry{Detail: "created product " + p.Name}, nil
		})
}

// Update changes the product id.
func (s *Service) Update(acc *session.Accessor, id uint64, in Input) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpUpdate, &in),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			var p models.Product

			found, err := action.Load(s.deps.DB.WithContext(ctx), &p, id)
			if err != nil || !found {
				return action.Fail("Product not found"), audit.Entry{}, err
			}

			res, err := s.save(ctx, &p, in)
			if err != nil || !res.Success {
				return res, audit.Entry{}, err
			}

			return action.OK(p.ID, "Product updated"), audit.Entry{Detail: "updated product " + p.Name}, nil
		})
}

// Delete removes the product id.
func (s *Service) Delete(acc *session.Accessor, id uint64) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpDelete, nil),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			db := s.deps.DB.WithContext(ctx)

			var p models.Product

			found, err := action.Load(db, &p, id)
			if err != nil || !found {
				return action.Fail("Product not found"), audit.Entry{}, err
			}

			if err = db.Delete(&p).Error; err != nil {
				return action.Result{}, audit.Entry{}, err
			}

			return action.OK(p.ID, "Product deleted"), audit.Entry{Detail: "deleted product " + p.Name}, nil
		})
}

// save validates the references and writes p.
func (s *Service) save(ctx context.Context, p *models.Product, in Input) (action.Result, error) {
	db := s.deps.DB.WithContext(ctx)

	taken, err := action.SlugTaken(db, &models.Product{}, in.Slug, p.ID)
	if err != nil {
		return action.Result{}, err
	}

	if taken {
		return action.FieldError("slug", "is already in use"), nil
	}

	if in.CategoryID != nil {
		ok, errRef := action.Exists(db, &models.Category{}, *in.CategoryID)
		if errRef != nil {
			return action.Result{}, errRef
		}

		if !ok {
			return action.Fail("Category not found"), nil
		}
	}

	if in.BrandID != nil {
		ok, errRef := action.Exists(db, &models.Brand{}, *in.BrandID)
		if errRef != nil {
			return action.Result{}, errRef
		}

		if !ok {
			return action.Fail("Brand not found"), nil
		}
	}

	p.Name = in.Name
	p.Slug = in.Slug
	p.Description = in.Description
	p.CategoryID = in.CategoryID
	p.BrandID = in.BrandID
	p.Published = in.Published

	if err = db.Save(p).Error; err != nil {
		return action.Result{}, err
	}

	return action.OK(p.ID, ""), nil
}
