package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensLifecycle(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	tokens := NewTokens(time.Hour)
	tokens.now = func() time.Time { return now }

	tok, err := tokens.Issue("student@hostel.test")
	require.NoError(t, err)
	assert.Len(t, tok, 64)

	email, ok := tokens.Lookup(tok)
	assert.True(t, ok)
	assert.Equal(t, "student@hostel.test", email)

	now = now.Add(2 * time.Hour)
	_, ok = tokens.Lookup(tok)
	assert.False(t, ok, "expired token must not resolve")

	tok, err = tokens.Issue("student@hostel.test")
	require.NoError(t, err)
	assert.True(t, tokens.Revoke(tok))
	assert.False(t, tokens.Revoke(tok))
	_, ok = tokens.Lookup(tok)
	assert.False(t, ok)
}

func TestBearerToken(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":  "abc",
		"bearer abc ": "abc",
		"Basic abc":   "",
		"abc":         "",
		"":            "",
	}
	for header, want := range tests {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		assert.Equal(t, want, BearerToken(r), header)
	}
}

func TestMiddleware(t *testing.T) {
	tokens := NewTokens(time.Hour)
	tok, err := tokens.Issue("admin@hostel.test")
	require.NoError(t, err)

	var gotEmail, gotToken string
	h := Middleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotEmail = EmailFromContext(r.Context())
		gotToken = TokenFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer " + tok, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/users/me", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.want, w.Code)
		})
	}
	assert.Equal(t, "admin@hostel.test", gotEmail)
	assert.Equal(t, tok, gotToken)
}

func TestIPFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.7:5123"
	assert.Equal(t, "10.0.0.7", IPFromRequest(r))
	r.RemoteAddr = "garbage"
	assert.Equal(t, "garbage", IPFromRequest(r))
}
