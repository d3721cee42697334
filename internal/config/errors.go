package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrUnknownDBDriver error if config db.driver is not one of mysql, postgres or sqlite.
	ErrUnknownDBDriver = errors.New("toml config db.driver is not supported")

	// ErrLDAPIncomplete error if ldap sign in is enabled without host or base dn.
	ErrLDAPIncomplete = errors.New("toml config auth.ldap needs host and basedn when enabled")

	// ErrOIDCIncomplete error if oidc sign in is enabled without provider, client id or redirect url.
	ErrOIDCIncomplete = errors.New("toml config auth.oidc needs providerurl, clientid and redirecturl when enabled")
)
