// Package login provides the login page and the local and LDAP sign in.
package login

import "errors"

var (
	// ErrNoAuthMethod is returned when neither local nor LDAP authentication is enabled.
	ErrNoAuthMethod = errors.New("no authentication method available")

	// ErrLocalAuthDisabled is returned when local (username/password) authentication
	// is disabled by configuration.
	ErrLocalAuthDisabled = errors.New("local authentication is disabled")

	// ErrLDAPAuthDisabled is returned when LDAP authentication is disabled by
	// configuration.
	ErrLDAPAuthDisabled = errors.New("ldap authentication is disabled")

	// ErrInvalidAuthMethod is returned when a requested authentication method is
	// unknown or not permitted.
	ErrInvalidAuthMethod = errors.New("invalid authentication method")

	// ErrEmptyCredentials is returned when username or password is missing.
	ErrEmptyCredentials = errors.New("username and password are required")
)
