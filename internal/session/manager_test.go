package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanmayyjais/hostelMate-frontend/internal/domain"
	"github.com/tanmayyjais/hostelMate-frontend/internal/store"
)

var errDisk = errors.New("disk full")

// faultyStore wraps MemoryStore and fails selected operations.
type faultyStore struct {
	*store.MemoryStore
	failGet    bool
	failSet    bool
	failRemove bool
}

func (f *faultyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet {
		return "", false, errDisk
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *faultyStore) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errDisk
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func (f *faultyStore) SetMany(ctx context.Context, entries map[string]string) error {
	if f.failSet {
		return errDisk
	}
	return f.MemoryStore.SetMany(ctx, entries)
}

func (f *faultyStore) RemoveMany(ctx context.Context, keys ...string) error {
	if f.failRemove {
		return errDisk
	}
	return f.MemoryStore.RemoveMany(ctx, keys...)
}

type fakeAuth struct {
	payload *domain.AuthPayload
	err     error
	block   chan struct{}
	calls   int
	mu      sync.Mutex
}

func (f *fakeAuth) Login(ctx context.Context, _, _ string) (*domain.AuthPayload, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.payload, f.err
}

type fakeRevoker struct {
	token string
	err   error
}

func (f *fakeRevoker) Revoke(_ context.Context, token string) error {
	f.token = token
	return f.err
}

func studentPayload() *domain.AuthPayload {
	return &domain.AuthPayload{
		Token: "tok-1",
		User:  domain.Profile{"member_type": "student", "name": "Asha", "room": "B-204"},
	}
}

func profileJSON(t *testing.T, p domain.Profile) string {
	t.Helper()
	b, err := json.Marshal(p)
	require.NoError(t, err)
	return string(b)
}

func TestRestoreAtomicity(t *testing.T) {
	validProfile := `{"member_type":"student","name":"Asha"}`

	tests := []struct {
		name      string
		token     *string
		profile   *string
		wantAuthd bool
	}{
		{"both present", ptr("tok"), ptr(validProfile), true},
		{"token only", ptr("tok"), nil, false},
		{"profile only", nil, ptr(validProfile), false},
		{"neither", nil, nil, false},
		{"empty token", ptr(""), ptr(validProfile), false},
		{"corrupt profile", ptr("tok"), ptr(`{"member_type":`), false},
		{"null profile", ptr("tok"), ptr(`null`), false},
		{"non-object profile", ptr("tok"), ptr(`["student"]`), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := store.NewMemory()
			if tt.token != nil {
				require.NoError(t, s.Set(ctx, store.KeyToken, *tt.token))
			}
			if tt.profile != nil {
				require.NoError(t, s.Set(ctx, store.KeyProfile, *tt.profile))
			}

			m := NewManager(s, &fakeAuth{})
			assert.Equal(t, Waiting, Route(m.State()))

			require.NoError(t, m.Restore(ctx))
			st := m.State()
			assert.False(t, st.Loading)
			assert.NoError(t, st.LastError)
			assert.Equal(t, tt.wantAuthd, st.Authenticated())
			if !tt.wantAuthd {
				assert.Empty(t, st.Token)
				assert.Nil(t, st.Profile)
				assert.Equal(t, LoginFlow, Route(st))
			}
		})
	}
}

func TestRestoreStorageFault(t *testing.T) {
	s := &faultyStore{MemoryStore: store.NewMemory(), failGet: true}
	m := NewManager(s, &fakeAuth{})

	err := m.Restore(context.Background())
	require.ErrorIs(t, err, errDisk)

	st := m.State()
	assert.False(t, st.Loading)
	assert.ErrorIs(t, st.LastError, errDisk)
	assert.False(t, st.Authenticated())
}

func TestRestoreRunsOnce(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	m := NewManager(s, &fakeAuth{})
	require.NoError(t, m.Restore(ctx))

	require.NoError(t, s.SetMany(ctx, map[string]string{
		store.KeyToken:   "tok",
		store.KeyProfile: `{"member_type":"student"}`,
	}))
	require.NoError(t, m.Restore(ctx))
	assert.False(t, m.State().Authenticated())
}

func TestLoginPersistsThenPublishes(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	m := NewManager(s, &fakeAuth{payload: studentPayload()})
	require.NoError(t, m.Restore(ctx))

	var seen []State
	m.Subscribe(func(st State) {
		if st.Authenticated() {
			snap := s.Snapshot()
			assert.Equal(t, "tok-1", snap[store.KeyToken], "token must be persisted before it is visible")
			assert.NotEmpty(t, snap[store.KeyProfile])
		}
		seen = append(seen, st)
	})

	payload, err := m.Login(ctx, " asha@hostel.edu ", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", payload.Token)

	st := m.State()
	assert.True(t, st.Authenticated())
	assert.False(t, st.Loading)
	assert.Equal(t, StudentArea, Route(st))

	require.Len(t, seen, 2)
	assert.True(t, seen[0].Loading)
	assert.Equal(t, Waiting, Route(seen[0]))

	// A fresh manager over the same store sees the session.
	m2 := NewManager(s, &fakeAuth{})
	require.NoError(t, m2.Restore(ctx))
	assert.Equal(t, "B-204", m2.State().Profile.String("room"))
}

func TestLoginFailuresLeaveStateUnchanged(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", domain.StatusError("login", http.StatusUnauthorized, nil), domain.ErrUnauthorized},
		{"forbidden", domain.StatusError("login", http.StatusForbidden, nil), domain.ErrForbidden},
		{"timeout", &domain.Error{Kind: domain.KindConnectivity, Op: "login", Err: context.DeadlineExceeded}, domain.ErrNetworkUnreachable},
		{"server fault", domain.StatusError("login", http.StatusServiceUnavailable, nil), domain.ErrServerFault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			s := store.NewMemory()
			m := NewManager(s, &fakeAuth{err: tt.err})
			require.NoError(t, m.Restore(ctx))

			payload, err := m.Login(ctx, "a@b.edu", "pw")
			assert.Nil(t, payload)
			require.ErrorIs(t, err, tt.want)

			st := m.State()
			assert.False(t, st.Loading)
			assert.False(t, st.Authenticated())
			assert.ErrorIs(t, st.LastError, tt.want)
			assert.Empty(t, s.Snapshot())
			assert.NotEmpty(t, domain.UserMessage(st.LastError))
		})
	}
}

func TestFailedLoginKeepsExistingSession(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuth{payload: studentPayload()}
	m := NewManager(store.NewMemory(), auth)
	require.NoError(t, m.Restore(ctx))
	_, err := m.Login(ctx, "a@b.edu", "pw")
	require.NoError(t, err)

	auth.payload, auth.err = nil, domain.StatusError("login", http.StatusUnauthorized, nil)
	_, err = m.Login(ctx, "a@b.edu", "wrong")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	st := m.State()
	assert.Equal(t, "tok-1", st.Token)
	assert.Equal(t, StudentArea, Route(st))
}

func TestLoginIncompleteResponse(t *testing.T) {
	for name, payload := range map[string]*domain.AuthPayload{
		"missing token": {User: domain.Profile{"member_type": "student"}},
		"missing user":  {Token: "tok"},
		"nil payload":   nil,
	} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := store.NewMemory()
			m := NewManager(s, &fakeAuth{payload: payload})
			require.NoError(t, m.Restore(ctx))

			got, err := m.Login(ctx, "a@b.edu", "pw")
			assert.Nil(t, got)
			require.ErrorIs(t, err, ErrIncompleteLogin)
			assert.ErrorIs(t, m.State().LastError, ErrIncompleteLogin)
			assert.False(t, m.State().Authenticated())
			assert.Empty(t, s.Snapshot())
		})
	}
}

func TestLoginValidation(t *testing.T) {
	auth := &fakeAuth{payload: studentPayload()}
	m := NewManager(store.NewMemory(), auth)
	require.NoError(t, m.Restore(context.Background()))

	_, err := m.Login(context.Background(), "   ", "pw")
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Zero(t, auth.calls)
}

func TestLoginRejectsOverlap(t *testing.T) {
	ctx := context.Background()
	auth := &fakeAuth{payload: studentPayload(), block: make(chan struct{})}
	m := NewManager(store.NewMemory(), auth)
	require.NoError(t, m.Restore(ctx))

	done := make(chan error, 1)
	go func() {
		_, err := m.Login(ctx, "a@b.edu", "pw")
		done <- err
	}()

	require.Eventually(t, func() bool { return m.State().Loading }, time.Second, time.Millisecond)

	_, err := m.Login(ctx, "a@b.edu", "pw")
	require.ErrorIs(t, err, ErrLoginInProgress)

	close(auth.block)
	require.NoError(t, <-done)
	assert.Equal(t, 1, auth.calls)
	assert.True(t, m.State().Authenticated())
}

func TestLoginPersistFailure(t *testing.T) {
	ctx := context.Background()
	s := &faultyStore{MemoryStore: store.NewMemory(), failSet: true}
	m := NewManager(s, &fakeAuth{payload: studentPayload()})
	require.NoError(t, m.Restore(ctx))

	_, err := m.Login(ctx, "a@b.edu", "pw")
	require.ErrorIs(t, err, errDisk)
	assert.False(t, m.State().Authenticated())
	assert.False(t, m.State().Loading)
}

func TestUpdateUserMergeNeverDropsKeys(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	m := NewManager(s, &fakeAuth{payload: studentPayload()})
	require.NoError(t, m.Restore(ctx))
	_, err := m.Login(ctx, "a@b.edu", "pw")
	require.NoError(t, err)

	merged, err := m.UpdateUser(ctx, domain.Profile{"room": "C-101", "phone": "555-0101"})
	require.NoError(t, err)

	want := domain.Profile{"member_type": "student", "name": "Asha", "room": "C-101", "phone": "555-0101"}
	assert.Equal(t, want, merged)
	assert.Equal(t, want, m.State().Profile)

	var persisted domain.Profile
	require.NoError(t, json.Unmarshal([]byte(s.Snapshot()[store.KeyProfile]), &persisted))
	assert.Equal(t, want, persisted)

	// Empty partial is a no-op merge.
	merged, err = m.UpdateUser(ctx, domain.Profile{})
	require.NoError(t, err)
	assert.Equal(t, want, merged)
}

func TestUpdateUserPersistFailureKeepsMemory(t *testing.T) {
	ctx := context.Background()
	base := store.NewMemory()
	require.NoError(t, base.SetMany(ctx, map[string]string{
		store.KeyToken:   "tok",
		store.KeyProfile: profileJSON(t, domain.Profile{"member_type": "electricalStaff"}),
	}))
	s := &faultyStore{MemoryStore: base}
	m := NewManager(s, &fakeAuth{})
	require.NoError(t, m.Restore(ctx))
	assert.Equal(t, DepartmentStaffArea, Route(m.State()))

	s.failSet = true
	_, err := m.UpdateUser(ctx, domain.Profile{"member_type": "student"})
	require.ErrorIs(t, err, errDisk)
	assert.Equal(t, "electricalStaff", m.State().Profile.MemberType())
}

func TestUpdateUserRequiresSession(t *testing.T) {
	m := NewManager(store.NewMemory(), &fakeAuth{})
	require.NoError(t, m.Restore(context.Background()))

	_, err := m.UpdateUser(context.Background(), domain.Profile{"a": 1})
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestLogoutClearsEvenWhenRevokeFails(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	revoker := &fakeRevoker{err: errors.New("connection refused")}
	m := NewManager(s, &fakeAuth{payload: studentPayload()}, WithRevoker(revoker))
	require.NoError(t, m.Restore(ctx))
	_, err := m.Login(ctx, "a@b.edu", "pw")
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, store.KeyChat, "[]"))

	m.Logout(ctx)

	assert.Equal(t, "tok-1", revoker.token)
	st := m.State()
	assert.False(t, st.Authenticated())
	assert.False(t, st.Loading)
	assert.NoError(t, st.LastError)
	assert.Equal(t, LoginFlow, Route(st))

	snap := s.Snapshot()
	assert.NotContains(t, snap, store.KeyToken)
	assert.NotContains(t, snap, store.KeyProfile)
	assert.Contains(t, snap, store.KeyChat, "logout must not touch the chat history")
}

func TestLogoutStorageFaultStillClearsMemory(t *testing.T) {
	ctx := context.Background()
	s := &faultyStore{MemoryStore: store.NewMemory()}
	m := NewManager(s, &fakeAuth{payload: studentPayload()})
	require.NoError(t, m.Restore(ctx))
	_, err := m.Login(ctx, "a@b.edu", "pw")
	require.NoError(t, err)

	s.failRemove = true
	m.Logout(ctx)
	assert.False(t, m.State().Authenticated())
}

func TestUnsubscribe(t *testing.T) {
	m := NewManager(store.NewMemory(), &fakeAuth{})
	calls := 0
	unsubscribe := m.Subscribe(func(State) { calls++ })
	require.NoError(t, m.Restore(context.Background()))
	assert.Equal(t, 1, calls)

	unsubscribe()
	m.Logout(context.Background())
	assert.Equal(t, 1, calls)
}

func TestRoute(t *testing.T) {
	authd := func(memberType any) State {
		p := domain.Profile{}
		if memberType != nil {
			p["member_type"] = memberType
		}
		return State{Token: "tok", Profile: p}
	}

	tests := []struct {
		name  string
		state State
		want  Destination
	}{
		{"loading", State{Loading: true, Token: "tok", Profile: domain.Profile{"member_type": "student"}}, Waiting},
		{"anonymous", State{}, LoginFlow},
		{"token without profile", State{Token: "tok"}, LoginFlow},
		{"student", authd("student"), StudentArea},
		{"academic staff", authd("academicStaff"), AdminArea},
		{"electrical staff", authd("electricalStaff"), DepartmentStaffArea},
		{"plumbing staff", authd("plumbingStaff"), DepartmentStaffArea},
		{"warden", authd("warden"), UnknownRole},
		{"empty member type", authd(""), UnknownRole},
		{"missing member type", authd(nil), UnknownRole},
		{"non-string member type", authd(42), UnknownRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.state))
		})
	}
}

func ptr(s string) *string { return &s }
