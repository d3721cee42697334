package seed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/config"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/controller/setting"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/seed"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/testdb"
)

func TestRunCreatesBootstrapAdmin(t *testing.T) {
	db := testdb.New(t)

	require.NoError(t, seed.Run(db, config.Seed{AdminUsername: "root", AdminPassword: "change-me-now"}))

	var user models.User
	require.NoError(t, db.Preload("Roles").Where("username = ?", "root").First(&user).Error)
	assert.True(t, user.Active)
	assert.True(t, user.VerifyPassword("change-me-now"))
	assert.Equal(t, []string{seed.AdminRole}, user.RoleNames())

	perms, err := auth.NewService(db).PermissionsFor(t.Context(), user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, auth.All(), perms)

	var state seed.State
	require.NoError(t, setting.GetJSON(db, seed.StateSetting, &state))
	assert.Equal(t, seed.Version, state.Version)
}

func TestRunIsIdempotent(t *testing.T) {
	db := testdb.New(t)

	require.NoError(t, seed.Run(db, config.Seed{}))
	require.NoError(t, seed.Run(db, config.Seed{}))

	var users, permissions, roles int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	require.NoError(t, db.Model(&models.Permission{}).Count(&permissions).Error)
	require.NoError(t, db.Model(&models.Role{}).Count(&roles).Error)

	assert.Equal(t, int64(1), users)
	assert.Equal(t, int64(len(auth.All())), permissions)
	assert.Equal(t, int64(2), roles)
}

func TestAdminGeneratesPassword(t *testing.T) {
	db := testdb.New(t)

	password, err := seed.Admin(db, config.Seed{})
	require.NoError(t, err)
	assert.Len(t, password, 24)

	var user models.User
	require.NoError(t, db.Where("username = ?", "admin").First(&user).Error)
	assert.True(t, user.VerifyPassword(password))
}

func TestAdminSkippedWhenHolderExists(t *testing.T) {
	db := testdb.New(t)
	testdb.CreateUser(t, db, "alice", seed.AdminRole)

	password, err := seed.Admin(db, config.Seed{})
	require.NoError(t, err)
	assert.Empty(t, password)

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("username = ?", "admin").Count(&count).Error)
	assert.Zero(t, count)
}

func TestRolesAreSystemAndEditor(t *testing.T) {
	db := testdb.New(t)

	admin := testdb.Role(t, db, seed.AdminRole)
	assert.True(t, admin.IsSystem)
	assert.ElementsMatch(t, auth.All(), admin.PermissionNames())

	editor := testdb.Role(t, db, seed.EditorRole)
	assert.False(t, editor.IsSystem)
	assert.NotContains(t, editor.PermissionNames(), auth.ManageUsers)
}
