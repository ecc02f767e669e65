// Package session owns the authenticated-user lifecycle: restoring a
// persisted session, logging in and out, and merging profile updates.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/tanmayyjais/hostelMate-frontend/internal/domain"
	"github.com/tanmayyjais/hostelMate-frontend/internal/store"
)

var (
	// ErrLoginInProgress is returned when Login is called while another login
	// has not resolved yet.
	ErrLoginInProgress = errors.New("login already in progress")
	// ErrIncompleteLogin is returned when the server accepted the credentials
	// but the response lacked a token or a user.
	ErrIncompleteLogin = errors.New("login response missing token or user")
	// ErrNotAuthenticated is returned by UpdateUser without a session.
	ErrNotAuthenticated = errors.New("not signed in")
)

// Authenticator performs the remote credential exchange.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*domain.AuthPayload, error)
}

// Revoker invalidates a token on the server.
type Revoker interface {
	Revoke(ctx context.Context, token string) error
}

// State is a snapshot of the session.
type State struct {
	Token     string
	Profile   domain.Profile
	Loading   bool
	LastError error
}

// Authenticated reports whether both the token and the profile are present.
func (s State) Authenticated() bool {
	return s.Token != "" && s.Profile != nil
}

// Manager is the single owner of the session. It is safe for concurrent use.
type Manager struct {
	store   store.Store
	auth    Authenticator
	revoker Revoker
	log     *slog.Logger

	restoreOnce sync.Once
	writeMu     sync.Mutex // serializes persisted writes with their publication

	mu        sync.Mutex
	state     State
	loggingIn bool
	observers map[int]func(State)
	nextObs   int
}

// Option configures a Manager.
type Option func(*Manager)

// WithRevoker makes Logout attempt a best-effort remote revoke.
func WithRevoker(r Revoker) Option {
	return func(m *Manager) { m.revoker = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager creates a Manager in the loading state. Call Restore once.
func NewManager(s store.Store, auth Authenticator, opts ...Option) *Manager {
	m := &Manager{
		store:     s,
		auth:      auth,
		log:       slog.Default(),
		state:     State{Loading: true},
		observers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns the current session snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() State {
	s := m.state
	s.Profile = s.Profile.Clone()
	return s
}

// Subscribe registers fn to be called with a snapshot after every state
// change. The returned func removes the subscription.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextObs
	m.nextObs++
	m.observers[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.observers, id)
		m.mu.Unlock()
	}
}

// mutate applies fn under the lock and notifies observers.
func (m *Manager) mutate(fn func(s *State)) {
	m.mu.Lock()
	fn(&m.state)
	snap := m.snapshotLocked()
	observers := make([]func(State), 0, len(m.observers))
	for _, o := range m.observers {
		observers = append(observers, o)
	}
	m.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
}

// Restore loads the persisted session. Only the first call has any effect.
// The session is authenticated only if both the token and a parseable
// profile were stored; anything else leaves it unauthenticated.
func (m *Manager) Restore(ctx context.Context) error {
	var err error
	m.restoreOnce.Do(func() { err = m.restore(ctx) })
	return err
}

func (m *Manager) restore(ctx context.Context) (err error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	var (
		token   string
		profile domain.Profile
	)
	defer func() {
		m.mutate(func(s *State) {
			if token != "" && profile != nil {
				s.Token, s.Profile = token, profile
			} else {
				s.Token, s.Profile = "", nil
			}
			if err != nil {
				s.LastError = err
			}
			s.Loading = false
		})
	}()

	token, _, err = m.store.Get(ctx, store.KeyToken)
	if err != nil {
		token = ""
		return fmt.Errorf("restore token: %w", err)
	}
	raw, ok, err := m.store.Get(ctx, store.KeyProfile)
	if err != nil {
		return fmt.Errorf("restore profile: %w", err)
	}
	if ok {
		profile = m.decodeProfile(raw)
	}

	if token != "" && profile != nil {
		m.log.Info("Session restored", "member_type", profile.MemberType())
	} else if token != "" || profile != nil {
		m.log.Warn("Discarding incomplete persisted session", "has_token", token != "", "has_profile", profile != nil)
	}
	return nil
}

func (m *Manager) decodeProfile(raw string) domain.Profile {
	var p domain.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		m.log.Warn("Persisted profile is corrupt, ignoring", "error", &domain.Error{Kind: domain.KindCorruption, Op: "restore profile", Err: err})
		return nil
	}
	return p
}

// Login exchanges credentials for a session. On success both values are
// persisted before they become visible in memory. A server response lacking
// a token or user returns ErrIncompleteLogin and leaves the session as it was.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.AuthPayload, error) {
	m.mu.Lock()
	if m.loggingIn {
		m.mu.Unlock()
		return nil, ErrLoginInProgress
	}
	m.loggingIn = true
	m.mu.Unlock()

	m.mutate(func(s *State) { s.Loading = true })

	payload, err := m.authenticate(ctx, email, password)
	if err == nil {
		m.writeMu.Lock()
		defer m.writeMu.Unlock()
		err = m.persist(ctx, payload)
	}

	m.mutate(func(s *State) {
		m.loggingIn = false
		s.Loading = false
		if err != nil {
			s.LastError = err
			return
		}
		s.Token, s.Profile, s.LastError = payload.Token, payload.User.Clone(), nil
	})
	if err != nil {
		return nil, err
	}
	m.log.Info("Logged in", "member_type", payload.User.MemberType())
	return payload, nil
}

func (m *Manager) authenticate(ctx context.Context, email, password string) (*domain.AuthPayload, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, &domain.Error{Kind: domain.KindValidation, Op: "login", Err: errors.New("email and password are required")}
	}

	payload, err := m.auth.Login(ctx, email, password)
	if err != nil {
		m.log.Warn("Login failed", "kind", domain.KindOf(err), "error", err)
		return nil, err
	}
	if !payload.Complete() {
		m.log.Warn("Login response incomplete", "has_token", payload != nil && payload.Token != "", "has_user", payload != nil && payload.User != nil)
		return nil, ErrIncompleteLogin
	}
	return payload, nil
}

// persist writes token and profile as one batch.
func (m *Manager) persist(ctx context.Context, payload *domain.AuthPayload) error {
	profileJSON, err := json.Marshal(payload.User)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := m.store.SetMany(ctx, map[string]string{
		store.KeyToken:   payload.Token,
		store.KeyProfile: string(profileJSON),
	}); err != nil {
		m.log.Error("Failed to persist session", "error", err)
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// UpdateUser shallow-merges partial into the profile. Keys absent from
// partial are kept. The merged profile is persisted before it becomes
// visible; on a persist failure the in-memory profile is unchanged.
func (m *Manager) UpdateUser(ctx context.Context, partial domain.Profile) (domain.Profile, error) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	current := m.State()
	if !current.Authenticated() {
		return nil, ErrNotAuthenticated
	}

	merged := current.Profile.Merge(partial)
	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	if err := m.store.Set(ctx, store.KeyProfile, string(data)); err != nil {
		m.log.Error("Failed to persist profile update", "error", err)
		return nil, fmt.Errorf("persist profile: %w", err)
	}

	m.mutate(func(s *State) { s.Profile = merged })
	return merged.Clone(), nil
}

// Logout clears the session from memory and storage. It never fails; storage
// and revoke faults are logged.
func (m *Manager) Logout(ctx context.Context) {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	token := m.State().Token
	m.mutate(func(s *State) { s.Loading = true })

	if m.revoker != nil && token != "" {
		if err := m.revoker.Revoke(ctx, token); err != nil {
			m.log.Warn("Remote logout failed, clearing local session anyway", "error", err)
		}
	}

	if err := m.store.RemoveMany(ctx, store.KeyToken, store.KeyProfile); err != nil {
		m.log.Error("Failed to remove persisted session", "error", err)
	}

	m.mutate(func(s *State) {
		s.Token, s.Profile, s.LastError = "", nil, nil
		s.Loading = false
	})
	m.log.Info("Logged out")
}
