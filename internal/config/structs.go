package config

import (
	"time"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development, disables production safeguards
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	Webhook   Webhook
	Seed      Seed
}

// Session settings.
type Session struct {
	// Secret signs the session token. Mandatory outside of dev mode.
	Secret string
}

// LoginLimit throttles login attempts per client IP.
type LoginLimit struct {
	Max    int
	Window time.Duration
}

// Webserver implement webserver settings.
type Webserver struct {
	BrowseStatic   bool       // enable static file browsing (for development purposes only)
	DisableRecover bool       // disable recover middleware
	Domain         string     // domain name for the webserver
	Port           int        // listening port for the webserver
	ShutDownTime   int        // wait time for shutdown
	URL            string     // base url for the webserver
	Session        Session    // session settings
	LoginLimit     LoginLimit // login throttling
}

// LocalDBAuth enables username/password login against the users table.
type LocalDBAuth struct {
	Enabled bool
}

// LDAPAuth configures directory based login.
type LDAPAuth struct {
	Enabled            bool
	Host               string
	Port               int
	UseSSL             bool
	StartTLS           bool
	SkipVerify         bool
	BindDN             string
	BindPassword       string
	BaseDN             string
	UserFilter         string
	GroupBaseDN        string
	GroupFilter        string
	GroupNameAttr      string
	UsernameAttr       string
	EmailAttr          string
	FirstNameAttr      string
	LastNameAttr       string
	DisplayNameAttr    string
	ConnectTimeout     int
	RequestTimeout     int
	AutoCreateUsers    bool
	DefaultRole        string
	SyncRolesFromGroup bool
}

// OIDCAuth configures OpenID Connect login.
type OIDCAuth struct {
	Enabled            bool
	ProviderURL        string
	ClientID           string
	ClientSecret       string
	RedirectURL        string
	Scopes             []string
	UsernameClaim      string
	EmailClaim         string
	FirstNameClaim     string
	LastNameClaim      string
	GroupsClaim        string
	AutoCreateUsers    bool
	DefaultRole        string
	SyncRolesFromGroup bool
	ButtonText         string
}

// Auth holds the enabled login providers.
type Auth struct {
	Local LocalDBAuth
	LDAP  LDAPAuth
	OIDC  OIDCAuth
}

// Webhook settings for the storefront revalidation hook.
type Webhook struct {
	Secret string
}

// Seed settings for the bootstrap administrator.
type Seed struct {
	AdminUsername string
	AdminEmail    string
	AdminPassword string // random if empty
}
