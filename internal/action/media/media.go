// Package media provides the media library mutations of the admin area.
// Files themselves live in external storage, only their records are managed here.
package media

import (
	"context"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// Entity is the name used in routes, metrics and audit tags.
const Entity = "media"

// Input is the editable state of a media record.
type Input struct {
	FileName string `json:"file_name" validate:"required,max=255"`
	URL      string `json:"url"       validate:"required,url,max=1024"`
	MimeType string `json:"mime_type" validate:"max=100"`
	Size     int64  `json:"size"      validate:"min=0"`
	AltText  string `json:"alt_text"  validate:"max=255"`
	Metadata string `json:"metadata"  validate:"max=10000"`
}

// Service mutates media records.
type Service struct {
	deps *action.Deps
}

// New creates the media service.
func New(deps *action.Deps) *Service {
	return &Service{deps: deps}
}

func mutation(op action.Op, in any) action.Mutation {
	return action.Mutation{Entity: Entity, Op: op, Permission: auth.ManageMedia, Input: in}
}

func apply(m *models.Media, in Input) {
	m.FileName = in.FileName
	m.URL = in.URL
	m.MimeType = in.MimeType
	m.Size = in.Size
	m.AltText = in.AltText
	m.Metadata = models.MediaMetadata(in.Metadata)
}

// Create adds a media record.
func (s *Service) Create(acc *session.Accessor, in Input) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpCreate, &in),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			var m models.Media
			apply(&m, in)

			if err := s.deps.DB.WithContext(ctx).Create(&m).Error; err != nil {
				return action.Result{}, audit.Entry{}, err
			}

			return action.OK(m.ID, "Media created"), audit.Entry{Detail: "created media " + m.FileName}, nil
		})
}

// Update changes the media record id.
func (s *Service) Update(acc *session.Accessor, id uint64, in Input) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpUpdate, &in),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			db := s.deps.DB.WithContext(ctx)

			var m models.Media

			found, err := action.Load(db, &m, id)
			if err != nil || !found {
				return action.Fail("Media not found"), audit.Entry{}, err
			}

			apply(&m, in)

			if err = db.Save(&m).Error; err != nil {
				return action.Result{}, audit.Entry{}, err
			}

			return action.OK(m.ID, "Media updated"), audit.Entry{Detail: "updated media " + m.FileName}, nil
		})
}

// Delete removes the media record id.
func (s *Service) Delete(acc *session.Accessor, id uint64) (action.Result, error) {
	return s.deps.Run(acc, mutation(action.OpDelete, nil),
		func(ctx context.Context, _ *session.User) (action.Result, audit.Entry, error) {
			db := s.deps.DB.WithContext(ctx)

			var m models.Media

			found, err := action.Load(db, &m, id)
			if err != nil || !found {
				return action.Fail("Media not found"), audit.Entry{}, err
			}

			if err = db.Delete(&m).Error; err != nil {
				return action.Result{}, audit.Entry{}, err
			}

			return action.OK(m.ID, "Media deleted"), audit.Entry{Detail: "deleted media " + m.FileName}, nil
		})
}
