// Package identity issues bearer tokens and resolves them on incoming
// requests for the mock hostel API.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

type contextKey int

const (
	emailKey contextKey = iota
	tokenKey
)

// EmailFromContext extracts the authenticated email from the request context.
func EmailFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(emailKey).(string); ok {
		return v
	}
	return ""
}

// TokenFromContext extracts the bearer token from the request context.
func TokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tokenKey).(string); ok {
		return v
	}
	return ""
}

type claims struct {
	email     string
	expiresAt time.Time
}

// Tokens is an in-memory registry of issued tokens.
type Tokens struct {
	ttl time.Duration
	now func() time.Time

	mu     sync.Mutex
	issued map[string]claims
}

// NewTokens creates a registry whose tokens expire after ttl.
func NewTokens(ttl time.Duration) *Tokens {
	return &Tokens{ttl: ttl, now: time.Now, issued: make(map[string]claims)}
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Issue creates a token for email.
func (t *Tokens) Issue(email string) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	t.mu.Lock()
	t.issued[token] = claims{email: email, expiresAt: t.now().Add(t.ttl)}
	t.mu.Unlock()
	return token, nil
}

// Lookup returns the email a live token was issued to.
func (t *Tokens) Lookup(token string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.issued[token]
	if !ok {
		return "", false
	}
	if t.now().After(c.expiresAt) {
		delete(t.issued, token)
		return "", false
	}
	return c.email, true
}

// Revoke invalidates token. It reports whether the token was live.
func (t *Tokens) Revoke(token string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.issued[token]
	delete(t.issued, token)
	return ok
}

// BearerToken returns the token of an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// Middleware rejects requests without a live bearer token and injects the
// token owner into the request context.
func Middleware(tokens *Tokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				writeUnauthorized(w, "missing bearer token")
				return
			}
			email, ok := tokens.Lookup(token)
			if !ok {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			ctx := context.WithValue(r.Context(), emailKey, email)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":%q}`, msg)
}

// IPFromRequest returns a normalized remote IP for request logging.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
