package auth

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/config"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
)

// ErrLDAPDisabled is returned when LDAP authentication is disabled via configuration.
var ErrLDAPDisabled = errors.New("ldap authentication is disabled")

const defaultLDAPTimeout = 10

// LDAPProvider authenticates against an LDAP or Active Directory server.
type LDAPProvider struct {
	config config.LDAPAuth
}

// NewLDAPProvider creates a new LDAP provider with attribute defaults filled in.
func NewLDAPProvider(cfg config.LDAPAuth) (*LDAPProvider, error) {
	if !cfg.Enabled {
		return nil, ErrLDAPDisabled
	}

	if cfg.UsernameAttr == "" {
		cfg.UsernameAttr = "uid"
	}

	if cfg.EmailAttr == "" {
		cfg.EmailAttr = "mail"
	}

	if cfg.FirstNameAttr == "" {
		cfg.FirstNameAttr = "givenName"
	}

	if cfg.LastNameAttr == "" {
		cfg.LastNameAttr = "sn"
	}

	if cfg.GroupNameAttr == "" {
		cfg.GroupNameAttr = "cn"
	}

	if cfg.UserFilter == "" {
		cfg.UserFilter = "(" + cfg.UsernameAttr + "={username})"
	}

	if cfg.ConnectTimeout == 0 {
		cfg.ConnectTimeout = defaultLDAPTimeout
	}

	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultLDAPTimeout
	}

	return &LDAPProvider{config: cfg}, nil
}

// Provisioning returns how LDAP users are mirrored locally.
func (p *LDAPProvider) Provisioning() ProvisionOptions {
	return ProvisionOptions{
		AutoCreate:  p.config.AutoCreateUsers,
		DefaultRole: p.config.DefaultRole,
		SyncRoles:   p.config.SyncRolesFromGroup,
	}
}

// Connect establishes a connection to the LDAP server.
func (p *LDAPProvider) Connect() (*ldap.Conn, error) {
	hostPort := net.JoinHostPort(p.config.Host, strconv.Itoa(p.config.Port))

	ldapURL := "ldap://" + hostPort
	if p.config.UseSSL {
		ldapURL = "ldaps://" + hostPort
	}

	var tlsConfig *tls.Config
	if p.config.UseSSL || p.config.StartTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: p.config.SkipVerify, //nolint:gosec // opt-in for lab directories
			ServerName:         p.config.Host,
		}
	}

	dialer := &net.Dialer{Timeout: time.Duration(p.config.ConnectTimeout) * time.Second}

	conn, err := ldap.DialURL(ldapURL, ldap.DialWithTLSConfig(tlsConfig), ldap.DialWithDialer(dialer))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	if !p.config.UseSSL && p.config.StartTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			p.close(conn)

			return nil, fmt.Errorf("failed to start TLS: %w", errStartTLS)
		}
	}

	conn.SetTimeout(time.Duration(p.config.RequestTimeout) * time.Second)

	return conn, nil
}

func (p *LDAPProvider) close(conn *ldap.Conn) {
	if errClose := conn.Close(); errClose != nil {
		log.Warn().Err(errClose).Msg("failed to close LDAP connection")
	}
}

// Authenticate verifies the credentials and returns the directory identity with its group names.
func (p *LDAPProvider) Authenticate(_ context.Context, username, password string) (*ExternalIdentity, error) {
	// an empty password would be an anonymous bind that always succeeds
	if password == "" {
		return nil, ErrInvalidPassword
	}

	conn, err := p.Connect()
	if err != nil {
		return nil, err
	}
	defer p.close(conn)

	if err = p.bindService(conn); err != nil {
		return nil, err
	}

	entry, err := p.searchUserEntry(conn, username)
	if err != nil {
		return nil, err
	}

	if err = conn.Bind(entry.DN, password); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPassword, err)
	}

	// group searches run as the service account again
	if err = p.bindService(conn); err != nil {
		return nil, err
	}

	groups, err := p.userGroups(conn, entry.DN)
	if err != nil {
		return nil, fmt.Errorf("failed to get user groups: %w", err)
	}

	id := p.identityFromEntry(entry, username)
	id.Groups = groups

	return &id, nil
}

// bindService binds with the configured service account, if any.
func (p *LDAPProvider) bindService(conn *ldap.Conn) error {
	if p.config.BindDN == "" {
		return nil
	}

	if err := conn.Bind(p.config.BindDN, p.config.BindPassword); err != nil {
		return fmt.Errorf("failed to bind with service account: %w", err)
	}

	return nil
}

// userFilter builds the search filter for username.
func (p *LDAPProvider) userFilter(username string) string {
	return strings.ReplaceAll(p.config.UserFilter, "{username}", ldap.EscapeFilter(username))
}

// groupFilter builds the group search filter for the user DN.
func (p *LDAPProvider) groupFilter(userDN string) string {
	return strings.ReplaceAll(p.config.GroupFilter, "{userdn}", ldap.EscapeFilter(userDN))
}

// searchUserEntry searches LDAP for the given username and returns a single entry.
func (p *LDAPProvider) searchUserEntry(conn *ldap.Conn, username string) (*ldap.Entry, error) {
	searchRequest := ldap.NewSearchRequest(
		p.config.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		2, // one is expected, two proves ambiguity
		p.config.RequestTimeout,
		false,
		p.userFilter(username),
		[]string{
			p.config.UsernameAttr,
			p.config.EmailAttr,
			p.config.FirstNameAttr,
			p.config.LastNameAttr,
		},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil && !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
		return nil, fmt.Errorf("failed to search for user: %w", err)
	}

	if searchResult == nil {
		return nil, ErrUserNotFound
	}

	switch len(searchResult.Entries) {
	case 0:
		return nil, ErrUserNotFound
	case 1:
		return searchResult.Entries[0], nil
	default:
		return nil, ErrMultipleUsersFound
	}
}

// userGroups returns the names of the groups the user belongs to.
func (p *LDAPProvider) userGroups(conn *ldap.Conn, userDN string) ([]string, error) {
	if p.config.GroupBaseDN == "" || p.config.GroupFilter == "" {
		return nil, nil
	}

	searchRequest := ldap.NewSearchRequest(
		p.config.GroupBaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		0,
		p.config.RequestTimeout,
		false,
		p.groupFilter(userDN),
		[]string{p.config.GroupNameAttr},
		nil,
	)

	searchResult, err := conn.Search(searchRequest)
	if err != nil {
		return nil, fmt.Errorf("failed to search for groups: %w", err)
	}

	return p.groupNames(searchResult.Entries), nil
}

// groupNames maps group entries to names, the name attribute falling back to the DN.
func (p *LDAPProvider) groupNames(entries []*ldap.Entry) []string {
	names := make([]string, 0, len(entries))

	for _, entry := range entries {
		name := entry.GetAttributeValue(p.config.GroupNameAttr)
		if name == "" {
			name = entry.DN
		}

		names = append(names, name)
	}

	return names
}

// identityFromEntry maps a directory entry to an external identity.
func (p *LDAPProvider) identityFromEntry(entry *ldap.Entry, loginName string) ExternalIdentity {
	username := entry.GetAttributeValue(p.config.UsernameAttr)
	if username == "" {
		username = loginName
	}

	return ExternalIdentity{
		Source:     models.AuthSourceLDAP,
		ExternalID: entry.DN,
		Username:   username,
		Email:      entry.GetAttributeValue(p.config.EmailAttr),
		FirstName:  entry.GetAttributeValue(p.config.FirstNameAttr),
		LastName:   entry.GetAttributeValue(p.config.LastNameAttr),
	}
}

// TestConnection tests the LDAP server connection and bind credentials.
func (p *LDAPProvider) TestConnection() error {
	conn, err := p.Connect()
	if err != nil {
		return err
	}
	defer p.close(conn)

	return p.bindService(conn)
}
