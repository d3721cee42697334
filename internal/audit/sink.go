package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/logger"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// ErrDBNil is returned by NewSink without a database handle.
var ErrDBNil = errors.New("audit: database is nil")

// Actor identifies who performed an action when no session does,
// e.g. a webhook caller or the user of a failed login.
type Actor struct {
	ID       uint64
	Username string
}

// Entry is one action to record.
type Entry struct {
	Action   string
	EntityID *uint64
	Detail   string
	// Actor overrides the identity of the request.
	Actor *Actor
}

// Recorder is implemented by Sink.
type Recorder interface {
	Record(acc *session.Accessor, e Entry)
}

// Sink writes audit entries.
type Sink struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSink creates a sink writing to db.
func NewSink(db *gorm.DB) (*Sink, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &Sink{db: db, now: time.Now}, nil
}

// Record writes one row for e. Entries without actor are dropped unless
// the action is allowed to be actor-less. Errors are logged and swallowed.
func (s *Sink) Record(acc *session.Accessor, e Entry) {
	row, ok := s.row(acc, e)
	if !ok {
		entriesCounter.WithLabelValues(OutcomeDropped).Inc()
		log.Debug().Str("action", e.Action).Msg("audit entry without actor dropped")

		return
	}

	if err := s.db.WithContext(acc.Context()).Create(&row).Error; err != nil {
		entriesCounter.WithLabelValues(OutcomeFailed).Inc()
		log.Error().Err(err).Str("action", row.Action).Msg("failed to write audit entry")

		return
	}

	entriesCounter.WithLabelValues(OutcomeWritten).Inc()

	ev := log.Info().
		Str("type", logger.AuditEventType).
		Uint64("auditID", row.ID).
		Str("action", row.Action).
		Str("username", row.Username).
		Str("ip", row.IPAddress)

	if row.UserID != nil {
		ev = ev.Uint64("userID", *row.UserID)
	}

	if row.EntityID != nil {
		ev = ev.Uint64("entityID", *row.EntityID)
	}

	ev.Msg(row.Detail)
}

// row builds the audit row, reporting false when the entry must be dropped.
func (s *Sink) row(acc *session.Accessor, e Entry) (models.AuditLog, bool) {
	actor := e.Actor
	if actor == nil {
		if u := acc.Identity(); u != nil {
			actor = &Actor{ID: u.ID, Username: u.Username}
		}
	}

	// only allow-listed tags may be written without a user id
	if e.Action == "" || ((actor == nil || actor.ID == 0) && !ActorOptional(e.Action)) {
		return models.AuditLog{}, false
	}

	row := models.AuditLog{
		Action:    truncate(e.Action, actionMaxLen),
		EntityID:  e.EntityID,
		Detail:    truncate(e.Detail, models.AuditDetailMaxLen),
		IPAddress: truncate(session.ClientIP(acc.IP(), ""), models.AuditIPMaxLen),
		UserAgent: truncate(acc.UserAgent(), models.AuditUserAgentMaxLen),
		CreatedAt: s.now(),
	}

	if actor != nil {
		row.Username = truncate(actor.Username, usernameMaxLen)

		if actor.ID != 0 {
			id := actor.ID
			row.UserID = &id
		}
	}

	return row, true
}

const (
	actionMaxLen   = 64
	usernameMaxLen = 100
)

// truncate cuts s to at most limit characters.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	r := []rune(s)
	if len(r) <= limit {
		return s
	}

	return string(r[:limit])
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Action   string
	Username string
	UserID   *uint64
	EntityID *uint64
	Since    time.Time
	Until    time.Time
}

const maxPageSize = 200

// List returns one page of entries, newest first, and the number of matching entries.
func (s *Sink) List(ctx context.Context, f Filter, page, pageSize int) ([]models.AuditLog, int64, error) {
	if page < 1 {
		page = 1
	}

	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	q := s.db.WithContext(ctx).Model(&models.AuditLog{})

	if f.Action != "" {
		q = q.Where("action = ?", f.Action)
	}

	if f.Username != "" {
		q = q.Where("username = ?", f.Username)
	}

	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}

	if f.EntityID != nil {
		q = q.Where("entity_id = ?", *f.EntityID)
	}

	if !f.Since.IsZero() {
		q = q.Where("created_at >= ?", f.Since)
	}

	if !f.Until.IsZero() {
		q = q.Where("created_at <= ?", f.Until)
	}

	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit entries: %w", err)
	}

	entries := []models.AuditLog{}

	err := q.Order("created_at DESC").Order("id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit entries: %w", err)
	}

	return entries, total, nil
}
