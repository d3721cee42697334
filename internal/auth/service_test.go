package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/seed"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/testdb"
)

func TestPermissionsFor(t *testing.T) {
	db := testdb.New(t)
	testdb.CreateRole(t, db, "auditor", auth.ViewAuditLogs, auth.ViewDashboard)

	editor := testdb.CreateUser(t, db, "eve", seed.EditorRole, "auditor")
	nobody := testdb.CreateUser(t, db, "nobody")

	svc := auth.NewService(db)

	perms, err := svc.PermissionsFor(t.Context(), editor.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{
		auth.ManageBrands,
		auth.ManageCategories,
		auth.ManageMedia,
		auth.ManagePortfolios,
		auth.ManageProducts,
		auth.ViewAuditLogs,
		auth.ViewDashboard,
	}, perms)

	perms, err = svc.PermissionsFor(t.Context(), nobody.ID)
	require.NoError(t, err)
	assert.NotNil(t, perms)
	assert.Empty(t, perms)

	su, err := svc.SessionUser(t.Context(), &editor)
	require.NoError(t, err)
	assert.Equal(t, editor.ID, su.ID)
	assert.Equal(t, "eve", su.Username)
	assert.Contains(t, su.Permissions, auth.ViewAuditLogs)
}

func TestActiveHolders(t *testing.T) {
	db := testdb.New(t)
	admin := testdb.Role(t, db, seed.AdminRole)
	userAdmins := testdb.CreateRole(t, db, "user-admins", auth.ManageUsers)

	alice := testdb.CreateUser(t, db, "alice", seed.AdminRole)
	bob := testdb.CreateUser(t, db, "bob", "user-admins", seed.AdminRole)
	carol := testdb.CreateUser(t, db, "carol", seed.AdminRole)
	testdb.CreateUser(t, db, "eve", seed.EditorRole)

	require.NoError(t, db.Model(&carol).Update("active", false).Error)

	holders, err := auth.ActiveHolders(db, auth.ManageUsers, auth.HolderFilter{})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint64{alice.ID, bob.ID}, holders)

	holders, err = auth.ActiveHolders(db, auth.ManageUsers, auth.HolderFilter{ExcludeUserID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint64{bob.ID}, holders)

	// without the admin role only bob keeps the permission through user-admins
	holders, err = auth.ActiveHolders(db, auth.ManageUsers, auth.HolderFilter{ExcludeRoleID: admin.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint64{bob.ID}, holders)

	holders, err = auth.ActiveHolders(db, auth.ManageUsers, auth.HolderFilter{ExcludeRoleID: userAdmins.ID, ExcludeUserID: bob.ID})
	require.NoError(t, err)
	assert.Equal(t, []uint64{alice.ID}, holders)
}

func TestRolesGrant(t *testing.T) {
	db := testdb.New(t)
	admin := testdb.Role(t, db, seed.AdminRole)
	editor := testdb.Role(t, db, seed.EditorRole)

	ok, err := auth.RolesGrant(db, []uint{editor.ID}, auth.ManageUsers)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = auth.RolesGrant(db, []uint{editor.ID, admin.ID}, auth.ManageUsers)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = auth.RolesGrant(db, nil, auth.ManageUsers)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpsertExternalUser(t *testing.T) {
	db := testdb.New(t)
	svc := auth.NewService(db)

	id := auth.ExternalIdentity{
		Source:     models.AuthSourceOIDC,
		ExternalID: "sub-123",
		Username:   "frank",
		Email:      "frank@example.com",
		Groups:     []string{seed.EditorRole, "unknown-group"},
	}

	_, err := svc.UpsertExternalUser(t.Context(), id, auth.ProvisionOptions{})
	require.ErrorIs(t, err, auth.ErrAutoCreateDisabled)

	user, err := svc.UpsertExternalUser(t.Context(), id, auth.ProvisionOptions{AutoCreate: true, SyncRoles: true})
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.Equal(t, []string{seed.EditorRole}, user.RoleNames())

	// second login updates profile and drops roles of groups the user left
	id.Email = "frank@new.example.com"
	id.Groups = nil

	again, err := svc.UpsertExternalUser(t.Context(), id, auth.ProvisionOptions{AutoCreate: true, SyncRoles: true})
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Equal(t, "frank@new.example.com", again.Email)

	perms, err := svc.PermissionsFor(t.Context(), again.ID)
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestUpsertExternalUserDefaultRoleAndConflicts(t *testing.T) {
	db := testdb.New(t)
	svc := auth.NewService(db)
	testdb.CreateUser(t, db, "grace")

	_, err := svc.UpsertExternalUser(t.Context(), auth.ExternalIdentity{
		Source: models.AuthSourceLDAP, ExternalID: "uid=grace,dc=example,dc=com", Username: "grace",
	}, auth.ProvisionOptions{AutoCreate: true})
	require.ErrorIs(t, err, auth.ErrUsernameTaken)

	user, err := svc.UpsertExternalUser(t.Context(), auth.ExternalIdentity{
		Source: models.AuthSourceLDAP, ExternalID: "uid=heidi,dc=example,dc=com", Username: "heidi",
	}, auth.ProvisionOptions{AutoCreate: true, DefaultRole: seed.EditorRole})
	require.NoError(t, err)
	assert.Equal(t, []string{seed.EditorRole}, user.RoleNames())

	require.NoError(t, db.Model(user).Update("active", false).Error)

	_, err = svc.UpsertExternalUser(t.Context(), auth.ExternalIdentity{
		Source: models.AuthSourceLDAP, ExternalID: "uid=heidi,dc=example,dc=com", Username: "heidi",
	}, auth.ProvisionOptions{AutoCreate: true})
	require.ErrorIs(t, err, auth.ErrUserAccountDisabled)
}

func TestLocalProviderAuthenticate(t *testing.T) {
	db := testdb.New(t)
	user := testdb.CreateUser(t, db, "ivan", seed.EditorRole)
	disabled := testdb.CreateUser(t, db, "judy")
	require.NoError(t, db.Model(&disabled).Update("active", false).Error)

	p := auth.NewLocalProvider(db)

	got, err := p.Authenticate(t.Context(), "ivan", "secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = p.Authenticate(t.Context(), "ivan", "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidPassword)

	_, err = p.Authenticate(t.Context(), "nobody", "secret")
	require.ErrorIs(t, err, auth.ErrUserNotFound)

	_, err = p.Authenticate(t.Context(), "judy", "secret")
	require.ErrorIs(t, err, auth.ErrUserAccountDisabled)

	_, err = p.Authenticate(t.Context(), "judy", "wrong")
	require.ErrorIs(t, err, auth.ErrInvalidPassword, "account state stays hidden without the password")
}
