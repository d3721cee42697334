package auth

import (
	"testing"

	"github.com/go-ldap/ldap/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/config"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
)

func TestNewLDAPProviderDefaults(t *testing.T) {
	_, err := NewLDAPProvider(config.LDAPAuth{})
	require.ErrorIs(t, err, ErrLDAPDisabled)

	p, err := NewLDAPProvider(config.LDAPAuth{Enabled: true, UsernameAttr: "sAMAccountName"})
	require.NoError(t, err)
	assert.Equal(t, "(sAMAccountName={username})", p.config.UserFilter)
	assert.Equal(t, "cn", p.config.GroupNameAttr)
	assert.Equal(t, defaultLDAPTimeout, p.config.RequestTimeout)
}

func TestLDAPFiltersEscapeInput(t *testing.T) {
	p, err := NewLDAPProvider(config.LDAPAuth{
		Enabled:     true,
		UserFilter:  "(&(objectClass=person)(uid={username}))",
		GroupFilter: "(member={userdn})",
	})
	require.NoError(t, err)

	filter := p.userFilter("a*)(uid=*")
	assert.Equal(t, "(&(objectClass=person)(uid=", filter[:len("(&(objectClass=person)(uid=")])
	assert.NotContains(t, filter, "*")
	assert.NotContains(t, filter, ")(uid=")

	assert.Equal(t, "(member=uid=x,dc=example)", p.groupFilter("uid=x,dc=example"))
}

func TestLDAPIdentityFromEntry(t *testing.T) {
	p, err := NewLDAPProvider(config.LDAPAuth{Enabled: true})
	require.NoError(t, err)

	entry := ldap.NewEntry("uid=kim,ou=people,dc=example,dc=com", map[string][]string{
		"uid":       {"kim"},
		"mail":      {"kim@example.com"},
		"givenName": {"Kim"},
		"sn":        {"Lee"},
	})

	id := p.identityFromEntry(entry, "KIM")
	assert.Equal(t, ExternalIdentity{
		Source:     models.AuthSourceLDAP,
		ExternalID: "uid=kim,ou=people,dc=example,dc=com",
		Username:   "kim",
		Email:      "kim@example.com",
		FirstName:  "Kim",
		LastName:   "Lee",
	}, id)

	bare := p.identityFromEntry(ldap.NewEntry("uid=x,dc=example", nil), "x-login")
	assert.Equal(t, "x-login", bare.Username)

	groups := p.groupNames([]*ldap.Entry{
		ldap.NewEntry("cn=editor,ou=groups,dc=example", map[string][]string{"cn": {"editor"}}),
		ldap.NewEntry("cn=nameless,ou=groups,dc=example", nil),
	})
	assert.Equal(t, []string{"editor", "cn=nameless,ou=groups,dc=example"}, groups)
}

func TestIdentityFromClaims(t *testing.T) {
	cfg := config.OIDCAuth{GroupsClaim: "roles"}

	id, err := identityFromClaims(cfg, "sub-1", map[string]any{
		"preferred_username": "leo",
		"email":              "leo@example.com",
		"given_name":         "Leo",
		"family_name":        "Park",
		"roles":              []any{"editor", 42, ""},
	})
	require.NoError(t, err)
	assert.Equal(t, &ExternalIdentity{
		Source:     models.AuthSourceOIDC,
		ExternalID: "sub-1",
		Username:   "leo",
		Email:      "leo@example.com",
		FirstName:  "Leo",
		LastName:   "Park",
		Groups:     []string{"editor"},
	}, id)

	id, err = identityFromClaims(config.OIDCAuth{}, "sub-2", map[string]any{
		"email":  "mia@example.com",
		"groups": "editor",
	})
	require.NoError(t, err)
	assert.Equal(t, "mia@example.com", id.Username)
	assert.Equal(t, []string{"editor"}, id.Groups)

	_, err = identityFromClaims(config.OIDCAuth{}, "", map[string]any{"email": "x@example.com"})
	require.ErrorIs(t, err, ErrMissingSubject)

	_, err = identityFromClaims(config.OIDCAuth{}, "sub-3", map[string]any{})
	require.ErrorIs(t, err, ErrMissingSubject)
}
