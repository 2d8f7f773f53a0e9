package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/marcopiovanello/twitch-clip-dl/server/config"
	"github.com/marcopiovanello/twitch-clip-dl/server/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})

func withAuth(t *testing.T, required bool) {
	t.Helper()

	auth := &config.Instance().Authentication
	prev := *auth
	auth.RequireAuth = required
	auth.JWTSecret = "secret"
	t.Cleanup(func() { *auth = prev })
}

func serve(h http.Handler, mutate func(r *http.Request)) int {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthenticated(t *testing.T) {
	withAuth(t, true)

	token, err := user.IssueToken("admin", []byte("secret"))
	require.NoError(t, err)

	h := ApplyAuthenticationByConfig(ok)

	assert.Equal(t, http.StatusUnauthorized, serve(h, nil))
	assert.Equal(t, http.StatusUnauthorized, serve(h, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer nope")
	}))
	assert.Equal(t, http.StatusTeapot, serve(h, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}))
	assert.Equal(t, http.StatusTeapot, serve(h, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: user.TokenCookieName, Value: token})
	}))
}

func TestAuthenticationDisabled(t *testing.T) {
	withAuth(t, false)
	assert.Equal(t, http.StatusTeapot, serve(ApplyAuthenticationByConfig(ok), nil))
}
