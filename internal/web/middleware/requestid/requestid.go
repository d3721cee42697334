// Package requestid tags every request with a ULID.
package requestid

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
)

const (
	// Header carries the id in requests and responses.
	Header = "X-Request-ID"
	// LocalsKey is the fiber.Locals key of the id, see the fiber logger adapter.
	LocalsKey = "requestID"
)

var (
	entropyMu sync.Mutex                                                             //nolint:gochecknoglobals
	entropy   = ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0) //nolint:gochecknoglobals,gosec
)

// New returns a new lexicographically sortable id.
func New() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// Middleware stores the request id in fiber.Locals and the response header.
// A valid ULID sent by a proxy is kept.
func Middleware(c *fiber.Ctx) error {
	id := c.Get(Header)
	if _, err := ulid.ParseStrict(id); err != nil {
		id = New()
	}

	c.Locals(LocalsKey, id)
	c.Set(Header, id)

	return c.Next()
}

// Get returns the id of the request.
func Get(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalsKey).(string)

	return id
}
