// Package portfolio provides the portfolio mutations of the admin area.
package portfolio

import (
	"context"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// Entity is the name used in routes, metrics and audit tags.
const Entity = "portfolio"

// Input is the editable state of a portfolio entry.
type Input struct {
	Title     string `json:"title"     validate:"required,max=200"`
	Slug      string `json:"slug"      validate:"required,max=200,slug"`
	Summary   string `json:"summary"   validate:"max=10000"`
	Published bool   `json:"published"`
}

// Service mutates portfolio entries.
type Service struct {
	deps *action.Deps
}

// New creates the portfolio service.
func New(deps *action.Deps) *Service {
	return &Service{deps: deps}
}

func mutation(op action.Op, in any) action.Mutation {
	return action.Mutation{Entity: Entity, Op: op, Permission: auth.ManagePortfolios, Input: in}
}

// Create adds a portfolio entry.
func (s *Service) Create(acc *session.Accessor, in Input) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpCreate, &in),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			var p models.Portfolio

			res, err := s.save(ctx, &p, in)
			if err != nil || !res.Success {
				return res, audit.Entry{}, err
			}

			return action.OK(p.ID, "Portfolio created"), audit.Entry{Detail: "created portfolio " + p.Title}, nil
		})
}

// Update changes the portfolio entry id.
func (s *Service) Update(acc *session.Accessor, id uint64, in Input) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpUpdate, &in),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			var p models.Portfolio

			found, err := action.Load(s.deps.DB.WithContext(ctx), &p, id)
			if err != nil || !found {
				return action.Fail("Portfolio not found"), audit.Entry{}, err
			}

			res, err := s.save(ctx, &p, in)
			if err != nil || !res.Success {
				return res, audit.Entry{}, err
			}

			return action.OK(p.ID, "Portfolio updated"), audit.Entry{Detail: "updated portfolio " + p.Title}, nil
		})
}

// Delete removes the portfolio entry id.
func (s *Service) Delete(acc *session.Accessor, id uint64) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpDelete, nil),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			db := s.deps.DB.WithContext(ctx)

			var p models.Portfolio

			found, err := action.Load(db, &p, id)
			if err != nil || !found {
				return action.Fail("Portfolio not found"), audit.Entry{}, err
			}

			if err = db.Delete(&p).Error; err != nil {
				return action.Result{}, audit.Entry{}, err
			}

			return action.OK(p.ID, "Portfolio deleted"), audit.Entry{Detail: "deleted portfolio " + p.Title}, nil
		})
}

func (s *Service) save(ctx context.Context, p *models.Portfolio, in Input) (action.Result, error) {
	db := s.deps.DB.WithContext(ctx)

	taken, err := action.SlugTaken(db, &models.Portfolio{}, in.Slug, p.ID)
	if err != nil {
		return action.Result{}, err
	}

	if taken {
		return action.FieldError("slug", "is already in use"), nil
	}

	p.Title = in.Title
	p.Slug = in.Slug
	p.Summary = in.Summary
	p.Published = in.Published

	if err = db.Save(p).Error; err != nil {
		return action.Result{}, err
	}

	return action.OK(p.ID, ""), nil
}
