package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/config"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
)

// ErrOIDCDisabled is returned when OIDC is disabled via configuration.
var ErrOIDCDisabled = errors.New("oidc authentication is disabled")

// ErrMissingSubject is returned when an ID token carries no usable subject or username.
var ErrMissingSubject = errors.New("id token has no subject or username")

// OIDCProvider handles OIDC authentication.
type OIDCProvider struct {
	config   config.OIDCAuth
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth2   oauth2.Config
}

// NewOIDCProvider discovers the issuer and creates a new OIDC provider.
func NewOIDCProvider(ctx context.Context, cfg config.OIDCAuth) (*OIDCProvider, error) {
	if !cfg.Enabled {
		return nil, ErrOIDCDisabled
	}

	provider, err := oidc.NewProvider(ctx, cfg.ProviderURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	return &OIDCProvider{
		config:   cfg,
		provider: provider,
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		oauth2: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       scopes,
		},
	}, nil
}

// Provisioning returns how OIDC users are mirrored locally.
func (p *OIDCProvider) Provisioning() ProvisionOptions {
	return ProvisionOptions{
		AutoCreate:  p.config.AutoCreateUsers,
		DefaultRole: p.config.DefaultRole,
		SyncRoles:   p.config.SyncRolesFromGroup,
	}
}

// ButtonText is the label of the login button.
func (p *OIDCProvider) ButtonText() string {
	if p.config.ButtonText == "" {
		return "Sign in with SSO"
	}

	return p.config.ButtonText
}

// GenerateStateToken generates a random state token for CSRF protection.
func GenerateStateToken() (string, error) {
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err //nolint:wrapcheck
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// AuthURL returns the authorization URL for state.
func (p *OIDCProvider) AuthURL(state string) string {
	return p.oauth2.AuthCodeURL(state)
}

// HandleCallback exchanges the code and returns the verified identity.
func (p *OIDCProvider) HandleCallback(ctx context.Context, code string) (*ExternalIdentity, error) {
	oauth2Token, err := p.oauth2.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return nil, ErrNoIDToken
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify ID token: %w", err)
	}

	var claims map[string]any
	if err = idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("failed to parse claims: %w", err)
	}

	return identityFromClaims(p.config, idToken.Subject, claims)
}

// identityFromClaims maps ID token claims to an external identity using the configured claim names.
func identityFromClaims(cfg config.OIDCAuth, subject string, claims map[string]any) (*ExternalIdentity, error) {
	usernameClaim := firstNonEmpty(cfg.UsernameClaim, "preferred_username")
	emailClaim := firstNonEmpty(cfg.EmailClaim, "email")

	id := &ExternalIdentity{
		Source:     models.AuthSourceOIDC,
		ExternalID: subject,
		Username:   stringClaim(claims, usernameClaim),
		Email:      stringClaim(claims, emailClaim),
		FirstName:  stringClaim(claims, firstNonEmpty(cfg.FirstNameClaim, "given_name")),
		LastName:   stringClaim(claims, firstNonEmpty(cfg.LastNameClaim, "family_name")),
		Groups:     stringsClaim(claims, firstNonEmpty(cfg.GroupsClaim, "groups")),
	}

	if id.Username == "" {
		id.Username = id.Email
	}

	if id.ExternalID == "" || id.Username == "" {
		return nil, ErrMissingSubject
	}

	return id, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}

func stringClaim(claims map[string]any, name string) string {
	s, _ := claims[name].(string)

	return strings.TrimSpace(s)
}

// stringsClaim accepts a list claim or a single string claim.
func stringsClaim(claims map[string]any, name string) []string {
	switch v := claims[name].(type) {
	case []any:
		out := make([]string, 0, len(v))

		for _, g := range v {
			if s, ok := g.(string); ok && s != "" {
				out = append(out, s)
			}
		}

		return out
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}

		return []string{v}
	default:
		return nil
	}
}
