package fiber_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter "github.com/StorefrontAdmin/StorefrontAdmin/internal/logger/adapter/fiber"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/logger"
)

// accessLine is the subset of the access log json checked here.
type accessLine struct {
	IP        string `json:"IP"`
	Status    int    `json:"status"`
	URI       string `json:"URI"`
	Method    string `json:"method"`
	Host      string `json:"host"`
	RequestID string `json:"requestID"`
	Username  string `json:"username"`
}

var consoleJSON = logger.Log{
	EnableAccessLogToConsole: true,
	DisableCheckAlive:        true,
	Console:                  logger.Console{Enabled: true},
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		targetPath string
		config     adapter.Config
		want       *accessLine
	}{
		{
			name:       "no writer no output",
			targetPath: "/admin",
		},
		{
			name:       "admin page",
			targetPath: "/admin",
			config:     adapter.Config{Config: consoleJSON, RequestIDLocal: "requestID"},
			want: &accessLine{
				IP:        "0.0.0.0",
				Status:    fiber.StatusOK,
				URI:       "/admin",
				Method:    fiber.MethodGet,
				Host:      "example.com",
				RequestID: "01HZY8Q7ZQ0000000000000000",
			},
		},
		{
			name:       "unchanged path with query",
			targetPath: "//admin/audit?page=2",
			config:     adapter.Config{Config: consoleJSON},
			want: &accessLine{
				IP:     "0.0.0.0",
				Status: fiber.StatusNotFound,
				URI:    "//admin/audit?page=2",
				Method: fiber.MethodGet,
				Host:   "example.com",
			},
		},
		{
			name:       "request fields",
			targetPath: "/admin",
			config: adapter.Config{
				Config: consoleJSON,
				Fields: func(_ *fiber.Ctx, e *zerolog.Event) {
					e.Str("username", "editor")
				},
			},
			want: &accessLine{
				IP:       "0.0.0.0",
				Status:   fiber.StatusOK,
				URI:      "/admin",
				Method:   fiber.MethodGet,
				Host:     "example.com",
				Username: "editor",
			},
		},
		{
			name:       "checkalive is not logged",
			targetPath: "/checkalive",
			config:     adapter.Config{Config: consoleJSON, CheckAliveURI: "/checkalive"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := testMiddlewareHelper(t, tt.targetPath, tt.config)

			if tt.want == nil {
				assert.Empty(t, output)

				return
			}

			var got accessLine
			require.NoError(t, json.Unmarshal([]byte(output), &got))
			assert.Equal(t, *tt.want, got)
		})
	}
}

func testMiddlewareHelper(t *testing.T, targetPath string, adapterConfig adapter.Config) string {
	t.Helper()

	stdout := os.Stdout

	// capture stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		Immutable:     true,
	})

	app.Use(func(c *fiber.Ctx) error {
		c.Locals("requestID", "01HZY8Q7ZQ0000000000000000")

		return c.Next()
	})
	app.Use(adapter.New(adapterConfig))

	app.Get("/admin", func(ctx *fiber.Ctx) error {
		return ctx.SendString("dashboard")
	})
	app.Get("/checkalive", func(ctx *fiber.Ctx) error {
		return ctx.SendString("OK")
	})

	_, err := app.Test(httptest.NewRequest(fiber.MethodGet, targetPath, nil), 100000)

	outC := make(chan string)
	// copy the output in a separate goroutine so printing can't block indefinitely
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	_ = w.Close()
	os.Stdout = stdout // restoring the real stdout

	out := <-outC

	require.NoError(t, err)

	return out
}
