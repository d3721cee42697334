package models

import (
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
)

// AuthSource represents the authentication source for a user account.
type AuthSource string

const (
	// AuthSourceLocal indicates the user authenticates with a local database password.
	AuthSourceLocal AuthSource = "local"
	// AuthSourceOIDC indicates the user authenticates via OpenID Connect (OIDC).
	AuthSourceOIDC AuthSource = "oidc"
	// AuthSourceLDAP indicates the user authenticates via LDAP or Active Directory.
	AuthSourceLDAP AuthSource = "ldap"
)

// User represents an admin account.
// Its effective permissions are the union of the permissions of its roles.
type User struct {
	ID     uint64 `gorm:"primaryKey"`
	Active bool
	// Username is the unique username for login.
	Username string `gorm:"unique;size:100;not null"`
	Email    string `gorm:"size:255;not null"`
	// Password is the Argon2id hash, empty for external users.
	Password  string `gorm:"size:255"`
	FirstName string `gorm:"size:100"`
	LastName  string `gorm:"size:100"`
	// Roles assigned to the user, stored in user_roles.
	Roles      []Role     `gorm:"many2many:user_roles;constraint:OnDelete:CASCADE"`
	AuthSource AuthSource `gorm:"type:varchar(20);not null;default:'local'"`
	// ExternalID is the OIDC subject or LDAP DN of external users.
	ExternalID string `gorm:"size:255"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the database table name for the User model.
func (User) TableName() string {
	return "users"
}

// RoleNames returns the names of the loaded roles.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}

	return names
}

// HashPassword hashes a plaintext password using the Argon2id algorithm.
func HashPassword(password string) (string, error) {
	hashedPassword, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return hashedPassword, nil
}

// VerifyPassword verifies a plaintext password against the stored hash.
// Users without a local hash never match.
func (u *User) VerifyPassword(password string) bool {
	if u.Password == "" {
		return false
	}

	match, err := argon2id.ComparePasswordAndHash(password, u.Password)
	if err != nil {
		log.Error().Msgf("failed to verify password: %v", err)
		return false
	}

	return match
}
