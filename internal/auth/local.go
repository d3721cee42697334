package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
)

// LocalProvider authenticates against the argon2id hashes of the users table.
// Accounts of the LDAP and OIDC sources never sign in here.
type LocalProvider struct {
	db *gorm.DB

	// decoy is verified for unknown usernames, so both outcomes cost one argon2id run.
	decoy func() *models.User
}

// NewLocalProvider creates a new local authentication provider.
func NewLocalProvider(db *gorm.DB) *LocalProvider {
	return &LocalProvider{
		db: db,
		decoy: sync.OnceValue(func() *models.User {
			hash, _ := models.HashPassword("storefront-decoy") //nolint:errcheck // empty hash never matches

			return &models.User{Password: hash}
		}),
	}
}

// Authenticate checks username and password. The account state is only
// reported to callers that know the password.
func (p *LocalProvider) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User

	err := p.db.WithContext(ctx).
		Where("username = ? AND auth_source = ?", username, models.AuthSourceLocal).
		First(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		p.decoy().VerifyPassword(password)

		return nil, ErrUserNotFound
	case err != nil:
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if !user.VerifyPassword(password) {
		return nil, ErrInvalidPassword
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	return &user, nil
}
