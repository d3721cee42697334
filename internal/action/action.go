package action

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// ErrDepsIncomplete is returned by NewDeps when a dependency is missing.
var ErrDepsIncomplete = errors.New("action: database and audit recorder are required")

// Op is the kind of a mutation.
type Op string

// Operations.
const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Mutation describes one call of Deps.Run.
type Mutation struct {
	// Entity is the lower case entity name, e.g. "product".
	Entity     string
	Op         Op
	Permission string
	// Input is validated before the permission check when not nil.
	Input any
}

// Tag returns the audit action tag, e.g. CREATE_PRODUCT.
func (m Mutation) Tag() string {
	return strings.ToUpper(string(m.Op) + "_" + m.Entity)
}

// WriteFunc performs the persistence write of a mutation. A failed Result
// aborts without audit entry. The returned entry may leave Action and
// EntityID empty, they default to the mutation tag and Result.ID.
type WriteFunc func(ctx context.Context, actor *session.User) (Result, audit.Entry, error)

// Deps are the collaborators shared by all entity services.
type Deps struct {
	DB       *gorm.DB
	Audit    audit.Recorder
	Validate *validator.Validate
}

// NewDeps creates the dependencies with the default validator.
func NewDeps(db *gorm.DB, recorder audit.Recorder) (*Deps, error) {
	if db == nil || recorder == nil {
		return nil, ErrDepsIncomplete
	}

	return &Deps{DB: db, Audit: recorder, Validate: NewValidator()}, nil
}

// Run executes a mutation. The error is only set when the permission gate
// rejected the caller, in that case nothing was written.
func (d *Deps) Run(acc *session.Accessor, m Mutation, write WriteFunc) (Result, error) {
	if m.Input != nil {
		if err := d.Validate.Struct(m.Input); err != nil {
			observe(m, OutcomeInvalid)

			return Invalid(err), nil
		}
	}

	actor, err := auth.Require(acc, m.Permission)
	if err != nil {
		observe(m, OutcomeDenied)

		return Fail(GateMessage(err)), err
	}

	res, entry, err := write(acc.Context(), actor)
	if err != nil {
		observe(m, OutcomeError)
		log.Error().Err(err).
			Str("entity", m.Entity).
			Str("operation", string(m.Op)).
			Uint64("userID", actor.ID).
			Msg("admin action failed")

		return Failf("Failed to %s %s", m.Op, m.Entity), nil
	}

	if !res.Success {
		observe(m, OutcomeRejected)

		return res, nil
	}

	if entry.Action == "" {
		entry.Action = m.Tag()
	}

	if entry.EntityID == nil && res.ID != 0 {
		entry.EntityID = IDPtr(res.ID)
	}

	d.Audit.Record(acc, entry)
	observe(m, OutcomeSuccess)

	return res, nil
}

// GateMessage is the user facing text of a permission gate error.
func GateMessage(err error) string {
	if errors.Is(err, auth.ErrUnauthenticated) {
		return "Please sign in"
	}

	return "You are not allowed to do this"
}

// IDPtr returns a pointer to a copy of id.
func IDPtr(id uint64) *uint64 {
	return &id
}
