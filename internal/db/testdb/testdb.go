// Package testdb opens seeded in-memory databases for tests.
package testdb

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/seed"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

// Secret signs the session tokens of tests.
const Secret = "0123456789abcdef0123456789abcdef"

// New returns a migrated in-memory database with permissions and built-in roles.
// The pool is limited to one connection, so every query shares the same memory database.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "failed to open test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, seed.Migrate(db))
	require.NoError(t, seed.Permissions(db))
	require.NoError(t, seed.Roles(db))

	return db
}

// Role returns the role with the given name.
func Role(t testing.TB, db *gorm.DB, name string) models.Role {
	t.Helper()

	var role models.Role
	require.NoError(t, db.Preload("Permissions").Where("name = ?", name).First(&role).Error)

	return role
}

// CreateRole creates a role granting perms.
func CreateRole(t testing.TB, db *gorm.DB, name string, perms ...string) models.Role {
	t.Helper()

	role := models.Role{Name: name}
	require.NoError(t, db.Create(&role).Error)

	if len(perms) > 0 {
		var permissions []models.Permission
		require.NoError(t, db.Where("name IN ?", perms).Find(&permissions).Error)
		require.Len(t, permissions, len(perms))
		require.NoError(t, db.Model(&role).Association("Permissions").Replace(permissions))
	}

	return role
}

// CreateUser creates an active local user with password "secret" holding the named roles.
func CreateUser(t testing.TB, db *gorm.DB, username string, roles ...string) models.User {
	t.Helper()

	hash, err := models.HashPassword("secret")
	require.NoError(t, err)

	user := models.User{
		Active:     true,
		Username:   username,
		Email:      username + "@example.com",
		Password:   hash,
		AuthSource: models.AuthSourceLocal,
	}
	require.NoError(t, db.Create(&user).Error)

	if len(roles) > 0 {
		var rs []models.Role
		require.NoError(t, db.Where("name IN ?", roles).Find(&rs).Error)
		require.Len(t, rs, len(roles))
		require.NoError(t, db.Model(&user).Association("Roles").Replace(rs))
	}

	return user
}

// Codec returns a session codec signing with Secret.
func Codec() *session.Codec {
	return session.NewCodec(Secret)
}

// Token issues a session token for user with the permissions its roles grant.
func Token(t testing.TB, db *gorm.DB, user models.User) string {
	t.Helper()

	su, err := auth.NewService(db).SessionUser(context.Background(), &user)
	require.NoError(t, err)

	token, _, err := Codec().Issue(su)
	require.NoError(t, err)

	return token
}

// Accessor returns the request accessor of a session signed in as user.
func Accessor(t testing.TB, db *gorm.DB, user models.User) *session.Accessor {
	t.Helper()

	return session.NewAccessor(context.Background(), Token(t, db, user), Codec(), "192.0.2.10", "testdb")
}
