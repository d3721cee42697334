package contact

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/action"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler/handlertest"
)

func post(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Forwarded-For", "198.51.100.7, 10.0.0.1")

	return req
}

func TestPostStoresMessageAndAudits(t *testing.T) {
	env := handlertest.Env(t)
	app := handlertest.Init(t, env, &Service{})

	resp, body := handlertest.Do(t, app, post(`{"name":" Ann ","email":"ann@example.com","message":"Hello"}`))
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)

	var res action.Result
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.True(t, res.Success)

	var msg models.ContactMessage
	require.NoError(t, env.DB.First(&msg, res.ID).Error)
	assert.Equal(t, "Ann", msg.Name)
	assert.Equal(t, "198.51.100.7", msg.IPAddress)

	var row models.AuditLog
	require.NoError(t, env.DB.First(&row).Error)
	assert.Equal(t, audit.ActionContactFormSubmission, row.Action)
	assert.Nil(t, row.UserID)
	assert.Equal(t, "198.51.100.7", row.IPAddress)
}

func TestPostValidation(t *testing.T) {
	env := handlertest.Env(t)
	app := handlertest.Init(t, env, &Service{})

	resp, body := handlertest.Do(t, app, post(`{"name":"Ann","email":"not-an-email","message":""}`))
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	var res action.Result
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	assert.Contains(t, res.Errors, "email")
	assert.Contains(t, res.Errors, "message")

	var n int64
	require.NoError(t, env.DB.Model(&models.ContactMessage{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestPostRateLimited(t *testing.T) {
	cfg := handlertest.Config()
	cfg.Webserver.LoginLimit.Max = 1
	env := handlertest.EnvWithConfig(t, cfg)
	app := handlertest.Init(t, env, &Service{})

	body := `{"name":"Ann","email":"ann@example.com","message":"Hello"}`

	resp, _ := handlertest.Do(t, app, post(body))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = handlertest.Do(t, app, post(body))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
