package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// PasscodeHeader carries the operator passcode on every admin call.
const PasscodeHeader = "X-Admin-Passcode"

// WebhookSecretHeader lets automation push events without the admin passcode.
const WebhookSecretHeader = "X-Webhook-Secret"

// Config holds the admin credentials the API accepts. Passcode is the primary
// gate; a JWT secret additionally enables Bearer tokens for machine callers.
type Config struct {
	Passcode      string
	WebhookSecret string
	JWTSecret     string
}

// PasscodeValid compares the supplied passcode in constant time.
func (c *Config) PasscodeValid(passcode string) bool {
	if c.Passcode == "" || passcode == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.Passcode), []byte(passcode)) == 1
}

// WebhookAuthorized accepts either the admin passcode or the dedicated webhook
// secret.
func (c *Config) WebhookAuthorized(r *http.Request) bool {
	if c.PasscodeValid(r.Header.Get(PasscodeHeader)) {
		return true
	}
	secret := r.Header.Get(WebhookSecretHeader)
	if c.WebhookSecret == "" || secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(c.WebhookSecret), []byte(secret)) == 1
}

// Middleware rejects requests that carry neither a valid passcode header nor a
// valid Bearer token.
func (c *Config) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c.PasscodeValid(r.Header.Get(PasscodeHeader)) {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if c.JWTSecret != "" && authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" && c.tokenValid(parts[1]) {
				next.ServeHTTP(w, r)
				return
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"unauthorized","message":"Unauthorized: invalid passcode"}`))
	})
}

func (c *Config) tokenValid(tokenString string) bool {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(c.JWTSecret), nil
	})
	return err == nil && token.Valid
}
