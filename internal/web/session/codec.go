// Package session issues and verifies the signed session token and gives
// request handlers access to the identity it carries.
package session

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// TTL is the lifetime of a token, refreshed on every protected navigation.
	TTL = 24 * time.Hour

	// MinSecretLength is the minimum HS256 key length accepted in production.
	MinSecretLength = 32

	issuer = "storefront-admin"

	// DevelopmentSecret signs tokens when no secret is configured outside production.
	// It is public, tokens signed with it must never be trusted in production.
	DevelopmentSecret = "storefront-admin-INSECURE-development-only-session-secret"
)

var (
	// ErrSecretRequired is returned when production runs without a session secret.
	ErrSecretRequired = errors.New("webserver.session.secret is required in production")
	// ErrSecretTooShort is returned when a production secret is shorter than MinSecretLength.
	ErrSecretTooShort = fmt.Errorf("webserver.session.secret must be at least %d bytes", MinSecretLength)
	// ErrInvalidUser is returned when a token is issued for a user without id or name.
	ErrInvalidUser = errors.New("session user needs id and username")
)

// User is the identity stored in the session.
type User struct {
	ID          uint64   `json:"id"`
	Username    string   `json:"username"`
	Permissions []string `json:"permissions"`
}

// Has reports whether the user holds permission perm.
func (u *User) Has(perm string) bool {
	return u != nil && slices.Contains(u.Permissions, perm)
}

// normalize makes Permissions a non nil, sorted, de-duplicated slice.
func (u *User) normalize() {
	perms := make([]string, 0, len(u.Permissions))

	for _, p := range u.Permissions {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}

	slices.Sort(perms)
	u.Permissions = slices.Compact(perms)
}

// Claims is the JWT payload.
type Claims struct {
	User User `json:"user"`
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with HS256.
type Codec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewCodec creates a codec for the given secret, see ResolveSecret.
func NewCodec(secret string) *Codec {
	return &Codec{
		secret: []byte(secret),
		ttl:    TTL,
		now:    time.Now,
	}
}

// WithClock returns a copy of the codec using now as time source.
func (c *Codec) WithClock(now func() time.Time) *Codec {
	n := *c
	n.now = now

	return &n
}

// Issue signs a token for u. The returned time is the token expiry.
func (c *Codec) Issue(u User) (string, time.Time, error) {
	if u.ID == 0 || u.Username == "" {
		return "", time.Time{}, ErrInvalidUser
	}

	u.normalize()

	now := c.now().UTC()
	exp := jwt.NewNumericDate(now.Add(c.ttl))

	claims := Claims{
		User: u,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: exp,
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}

	return signed, exp.Time, nil
}

// Verify returns the user of a valid token, or nil.
// Malformed, tampered, wrongly signed and expired tokens all yield nil.
func (c *Codec) Verify(token string) *User {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}

	claims := &Claims{}

	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
		jwt.WithStrictDecoding(),
	)
	if err != nil || !parsed.Valid {
		return nil
	}

	if claims.User.ID == 0 || claims.User.Username == "" {
		return nil
	}

	u := claims.User
	u.normalize()

	return &u
}

// ResolveSecret picks the signing secret.
// In production an empty or short secret is an error. Outside production an
// empty secret falls back to DevelopmentSecret with a warning.
func ResolveSecret(configured string, production bool) (string, error) {
	switch {
	case configured == "" && production:
		return "", ErrSecretRequired
	case configured == "":
		log.Warn().Msg("no session secret configured: using the insecure development secret")

		return DevelopmentSecret, nil
	case production && len(configured) < MinSecretLength:
		return "", ErrSecretTooShort
	}

	return configured, nil
}
