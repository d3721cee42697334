package webhook

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler/handlertest"
)

const secret = "hook-secret"

func newEnv(t *testing.T, withSecret bool) *handler.Env {
	t.Helper()

	cfg := handlertest.Config()
	if withSecret {
		cfg.Webhook.Secret = secret
	}

	return handlertest.EnvWithConfig(t, cfg)
}

func post(body, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, Path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if key != "" {
		req.Header.Set(SecretHeader, key)
	}

	return req
}

func auditRows(t *testing.T, env *handler.Env) []models.AuditLog {
	t.Helper()

	var rows []models.AuditLog
	require.NoError(t, env.DB.Find(&rows).Error)

	return rows
}

func TestRevalidate(t *testing.T) {
	env := newEnv(t, true)
	app := handlertest.Init(t, env, &Service{})
	before := testutil.ToFloat64(revalidations.WithLabelValues("ok"))

	resp, body := handlertest.Do(t, app, post(`{"paths":["/products/chair"],"tags":["catalog"]}`, secret))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	var out Response
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	assert.True(t, out.Revalidated)
	assert.Equal(t, []string{"/products/chair"}, out.Paths)

	rows := auditRows(t, env)
	require.Len(t, rows, 1)
	assert.Equal(t, audit.ActionWebhookRevalidate, rows[0].Action)
	assert.Equal(t, ActorName, rows[0].Username)
	assert.Nil(t, rows[0].UserID)
	assert.Equal(t, "paths: /products/chair; tags: catalog", rows[0].Detail)
	assert.InDelta(t, before+1, testutil.ToFloat64(revalidations.WithLabelValues("ok")), 0)
}

func TestRevalidateEmptyBody(t *testing.T) {
	env := newEnv(t, true)
	app := handlertest.Init(t, env, &Service{})

	resp, _ := handlertest.Do(t, app, post("", secret))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "revalidate all", auditRows(t, env)[0].Detail)
}

func TestRevalidateRejects(t *testing.T) {
	tests := []struct {
		name       string
		withSecret bool
		key        string
		body       string
		want       int
	}{
		{name: "not configured", key: secret, want: http.StatusNotFound},
		{name: "missing secret", withSecret: true, want: http.StatusUnauthorized},
		{name: "wrong secret", withSecret: true, key: "hook-secreT", want: http.StatusUnauthorized},
		{name: "relative path", withSecret: true, key: secret, body: `{"paths":["products"]}`, want: http.StatusUnprocessableEntity},
		{name: "malformed", withSecret: true, key: secret, body: `{"paths":`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newEnv(t, tt.withSecret)
			app := handlertest.Init(t, env, &Service{})

			resp, _ := handlertest.Do(t, app, post(tt.body, tt.key))

			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Empty(t, auditRows(t, env))
		})
	}
}
