package session

import (
	"context"
	"net"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
)

// LocalsKey is the fiber.Locals key holding the request's *Accessor.
const LocalsKey = "sessionAccessor"

// Verifier decodes a session token, see Codec.Verify.
type Verifier interface {
	Verify(token string) *User
}

// Accessor exposes the identity of one request.
// The token is decoded at most once, on the first call to Identity.
type Accessor struct {
	ctx       context.Context //nolint:containedctx // request scoped
	token     string
	verifier  Verifier
	ip        string
	userAgent string

	once sync.Once
	user *User
}

// NewAccessor creates an accessor for a raw token.
func NewAccessor(ctx context.Context, token string, verifier Verifier, ip, userAgent string) *Accessor {
	if ctx == nil {
		ctx = context.Background()
	}

	return &Accessor{
		ctx:       ctx,
		token:     token,
		verifier:  verifier,
		ip:        ip,
		userAgent: userAgent,
	}
}

// Anonymous returns an accessor without identity, used by public endpoints and tests.
func Anonymous(ctx context.Context, ip, userAgent string) *Accessor {
	return NewAccessor(ctx, "", nil, ip, userAgent)
}

// Identity returns the authenticated user or nil.
func (a *Accessor) Identity() *User {
	if a == nil {
		return nil
	}

	a.once.Do(func() {
		if a.token == "" || a.verifier == nil {
			return
		}

		a.user = a.verifier.Verify(a.token)
	})

	return a.user
}

// Context returns the request context.
func (a *Accessor) Context() context.Context {
	if a == nil || a.ctx == nil {
		return context.Background()
	}

	return a.ctx
}

// IP returns the client address.
func (a *Accessor) IP() string {
	if a == nil {
		return ""
	}

	return a.ip
}

// UserAgent returns the client user agent.
func (a *Accessor) UserAgent() string {
	if a == nil {
		return ""
	}

	return a.userAgent
}

// ClientIP returns the first hop of X-Forwarded-For, else the remote address.
func ClientIP(forwardedFor, remote string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}

	if host, _, err := net.SplitHostPort(remote); err == nil {
		return host
	}

	return remote
}

// Middleware builds the request accessor and stores it in fiber.Locals.
func Middleware(verifier Verifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalsKey, FromFiber(c, verifier))

		return c.Next()
	}
}

// FromFiber creates an accessor for a fiber request.
func FromFiber(c *fiber.Ctx, verifier Verifier) *Accessor {
	return NewAccessor(
		c.UserContext(),
		c.Cookies(CookieName),
		verifier,
		ClientIP(c.Get(fiber.HeaderXForwardedFor), c.IP()),
		c.Get(fiber.HeaderUserAgent),
	)
}

// Get returns the accessor of the request.
// Requests that did not pass Middleware get an anonymous accessor.
func Get(c *fiber.Ctx) *Accessor {
	if acc, ok := c.Locals(LocalsKey).(*Accessor); ok {
		return acc
	}

	return Anonymous(c.UserContext(), ClientIP(c.Get(fiber.HeaderXForwardedFor), c.IP()), c.Get(fiber.HeaderUserAgent))
}
