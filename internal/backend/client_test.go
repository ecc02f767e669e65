package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanmayyjais/hostelMate-frontend/internal/domain"
)

func newTestClient(t *testing.T, h http.Handler, mutate ...func(*Options)) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	opts := Options{
		BaseURL:      srv.URL + "/api/",
		Timeout:      2 * time.Second,
		RetryWaitMin: time.Millisecond,
		RetryWaitMax: 5 * time.Millisecond,
	}
	for _, m := range mutate {
		m(&opts)
	}
	return New(opts)
}

func TestLoginSuccess(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "a@b.edu", body["email"])
		assert.Equal(t, "pw", body["password"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"tok","user":{"member_type":"student","name":"Asha"}}`))
	}))

	payload, err := c.Login(context.Background(), "a@b.edu", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", payload.Token)
	assert.Equal(t, "student", payload.User.MemberType())
	assert.True(t, payload.Complete())
}

func TestLoginIncompletePayload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"token":"tok"}`))
	}))

	payload, err := c.Login(context.Background(), "a@b.edu", "pw")
	require.NoError(t, err)
	assert.False(t, payload.Complete())
}

func TestLoginClassifiesFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, domain.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, domain.ErrForbidden},
		{"server fault", http.StatusInternalServerError, domain.ErrServerFault},
		{"not found", http.StatusNotFound, domain.ErrServerFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			}))

			payload, err := c.Login(context.Background(), "a@b.edu", "pw")
			assert.Nil(t, payload)
			require.ErrorIs(t, err, tt.want)

			var derr *domain.Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.status, derr.Status)
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestLoginTimeoutIsNetworkUnreachable(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}), func(o *Options) { o.Timeout = 50 * time.Millisecond })

	_, err := c.Login(context.Background(), "a@b.edu", "pw")
	require.ErrorIs(t, err, domain.ErrNetworkUnreachable)
	assert.NotErrorIs(t, err, domain.ErrServerFault)
}

func TestUnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Options{BaseURL: url, Timeout: time.Second})
	_, err := c.Login(context.Background(), "a@b.edu", "pw")
	require.ErrorIs(t, err, domain.ErrNetworkUnreachable)
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"token":"tok","user":{"member_type":"academicStaff"}}`))
	}), func(o *Options) { o.RetryMax = 2 })

	payload, err := c.Login(context.Background(), "a@b.edu", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", payload.Token)
	assert.EqualValues(t, 3, calls.Load())
}

func TestRetriesExhaustedKeepsStatus(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}), func(o *Options) { o.RetryMax = 1 })

	_, err := c.Login(context.Background(), "a@b.edu", "pw")
	var derr *domain.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, domain.KindServerFault, derr.Kind)
	assert.Equal(t, http.StatusBadGateway, derr.Status)
}

func TestGetSendsBearer(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/announcements", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"title":"Water outage"}]`))
	}))

	body, err := c.Get(context.Background(), "tok", "/announcements")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"title":"Water outage"}]`, string(body))
}

func TestRevoke(t *testing.T) {
	var got string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.URL.Path + " " + r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, c.Revoke(context.Background(), "tok"))
	assert.Equal(t, "/api/auth/logout Bearer tok", got)
}

func TestRateLimiterHonoursContext(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler(), func(o *Options) {
		o.RequestsPerSecond = 0.001
		o.Burst = 1
	})

	// First request consumes the burst.
	_, _ = c.Get(context.Background(), "", "/x")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := c.Get(ctx, "", "/x")
	require.ErrorIs(t, err, domain.ErrNetworkUnreachable)
}
