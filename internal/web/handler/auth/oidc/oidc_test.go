package oidc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StorefrontAdmin/StorefrontAdmin/internal/audit"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/auth"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/models"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/db/seed"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/handler/handlertest"
	"github.com/StorefrontAdmin/StorefrontAdmin/internal/web/session"
)

type fakeFlow struct {
	id   *auth.ExternalIdentity
	err  error
	code string
}

func (f *fakeFlow) AuthURL(state string) string {
	return "https://idp.example.com/authorize?state=" + state
}

func (f *fakeFlow) HandleCallback(_ context.Context, code string) (*auth.ExternalIdentity, error) {
	f.code = code

	return f.id, f.err
}

func (f *fakeFlow) Provisioning() auth.ProvisionOptions {
	return auth.ProvisionOptions{AutoCreate: true, DefaultRole: seed.EditorRole}
}

func stateCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()

	for _, c := range resp.Cookies() {
		if c.Name == StateCookieName {
			return c
		}
	}

	t.Fatalf("no %s cookie set", StateCookieName)

	return nil
}

func callback(state, code, cookie string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, CallbackPath+"?code="+code+"&state="+state, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: StateCookieName, Value: cookie})
	}

	return req
}

func failedLogins(t *testing.T, svc *Service) int64 {
	t.Helper()

	var n int64
	require.NoError(t, svc.env.DB.Model(&models.AuditLog{}).Where("action = ?", audit.ActionFailedLogin).Count(&n).Error)

	return n
}

func TestLoginRedirectsWithState(t *testing.T) {
	env := handlertest.Env(t)
	app := handlertest.Init(t, env, &Service{Flow: &fakeFlow{}})

	resp, _ := handlertest.Do(t, app, httptest.NewRequest(http.MethodGet, LoginPath, nil))

	require.Equal(t, http.StatusFound, resp.StatusCode)

	state := stateCookie(t, resp)
	assert.NotEmpty(t, state.Value)
	assert.True(t, state.HttpOnly)
	assert.Equal(t, "https://idp.example.com/authorize?state="+state.Value, resp.Header.Get("Location"))
}

func TestCallbackSignsIn(t *testing.T) {
	env := handlertest.Env(t)
	flow := &fakeFlow{id: &auth.ExternalIdentity{
		Source:     models.AuthSourceOIDC,
		ExternalID: "sub-1",
		Username:   "olivia",
		Email:      "olivia@example.com",
	}}
	svc := &Service{Flow: flow}
	app := handlertest.Init(t, env, svc)

	resp, _ := handlertest.Do(t, app, callback("abc", "the-code", "abc"))

	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, handler.AdminPath, resp.Header.Get("Location"))
	assert.Equal(t, "the-code", flow.code)

	var token string
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			token = c.Value
		}
	}

	su := env.Codec.Verify(token)
	require.NotNil(t, su)
	assert.Equal(t, "olivia", su.Username)
	assert.True(t, su.Has(auth.ManageProducts))

	var user models.User
	require.NoError(t, env.DB.Where("external_id = ?", "sub-1").First(&user).Error)
	assert.Equal(t, models.AuthSourceOIDC, user.AuthSource)
}

func TestCallbackRejectsBadState(t *testing.T) {
	tests := []struct {
		name   string
		state  string
		cookie string
	}{
		{name: "mismatch", state: "abc", cookie: "xyz"},
		{name: "missing cookie", state: "abc"},
		{name: "missing state", cookie: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := handlertest.Env(t)
			flow := &fakeFlow{}
			svc := &Service{Flow: flow}
			app := handlertest.Init(t, env, svc)

			resp, _ := handlertest.Do(t, app, callback(tt.state, "code", tt.cookie))

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Empty(t, flow.code, "code must not be exchanged")
			assert.Equal(t, int64(1), failedLogins(t, svc))
		})
	}
}

func TestCallbackProviderError(t *testing.T) {
	env := handlertest.Env(t)
	svc := &Service{Flow: &fakeFlow{err: errors.New("exchange failed")}}
	app := handlertest.Init(t, env, svc)

	resp, _ := handlertest.Do(t, app, callback("abc", "code", "abc"))

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int64(1), failedLogins(t, svc))
}

func TestUnavailableWithoutProvider(t *testing.T) {
	env := handlertest.Env(t)
	app := handlertest.Init(t, env, &Service{})

	for _, p := range []string{LoginPath, CallbackPath} {
		resp, body := handlertest.Do(t, app, httptest.NewRequest(http.MethodGet, p, nil))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, p)
		assert.Equal(t, msgUnavailable, body)
	}
}
