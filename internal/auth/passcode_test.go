package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasscodeValid(t *testing.T) {
	cfg := &Config{Passcode: "s3cret"}

	assert.True(t, cfg.PasscodeValid("s3cret"))
	assert.False(t, cfg.PasscodeValid("wrong"))
	assert.False(t, cfg.PasscodeValid(""))

	empty := &Config{}
	assert.False(t, empty.PasscodeValid(""), "unset passcode rejects everything")
	assert.False(t, empty.PasscodeValid("anything"))
}

func TestWebhookAuthorized(t *testing.T) {
	cfg := &Config{Passcode: "s3cret", WebhookSecret: "hook"}

	r := httptest.NewRequest(http.MethodPost, "/webhook", nil)
	assert.False(t, cfg.WebhookAuthorized(r))

	r.Header.Set(WebhookSecretHeader, "hook")
	assert.True(t, cfg.WebhookAuthorized(r))

	r.Header.Set(WebhookSecretHeader, "nope")
	assert.False(t, cfg.WebhookAuthorized(r))

	// The admin passcode works for the webhook too.
	r.Header.Del(WebhookSecretHeader)
	r.Header.Set(PasscodeHeader, "s3cret")
	assert.True(t, cfg.WebhookAuthorized(r))
}

func TestMiddleware(t *testing.T) {
	cfg := &Config{Passcode: "s3cret", JWTSecret: "jwt-secret"}
	handler := cfg.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("valid passcode", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/leads", nil)
		r.Header.Set(PasscodeHeader, "s3cret")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("missing credentials", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/leads", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "invalid passcode")
	})

	t.Run("valid bearer token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "automation",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte("jwt-secret"))
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/leads", nil)
		r.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("token signed with wrong key", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"})
		signed, err := token.SignedString([]byte("other-secret"))
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/leads", nil)
		r.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
