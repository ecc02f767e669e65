package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteForTest(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "nested", "hostelmate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStores(t *testing.T) {
	impls := map[string]func(t *testing.T) Store{
		"sqlite": func(t *testing.T) Store { return newSQLiteForTest(t) },
		"memory": func(*testing.T) Store { return NewMemory() },
	}

	for name, newStore := range impls {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("missing key", func(t *testing.T) {
				s := newStore(t)
				v, ok, err := s.Get(ctx, KeyToken)
				require.NoError(t, err)
				assert.False(t, ok)
				assert.Empty(t, v)
			})

			t.Run("set overwrite get", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Set(ctx, KeyChat, "[]"))
				require.NoError(t, s.Set(ctx, KeyChat, `[{"sender":"user"}]`))
				v, ok, err := s.Get(ctx, KeyChat)
				require.NoError(t, err)
				assert.True(t, ok)
				assert.Equal(t, `[{"sender":"user"}]`, v)
			})

			t.Run("empty value is present", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.Set(ctx, KeyToken, ""))
				_, ok, err := s.Get(ctx, KeyToken)
				require.NoError(t, err)
				assert.True(t, ok)
			})

			t.Run("set many and remove many", func(t *testing.T) {
				s := newStore(t)
				require.NoError(t, s.SetMany(ctx, map[string]string{
					KeyToken:   "tok",
					KeyProfile: `{"member_type":"student"}`,
					KeyChat:    "[]",
				}))

				require.NoError(t, s.RemoveMany(ctx, KeyToken, KeyProfile))

				for _, k := range []string{KeyToken, KeyProfile} {
					_, ok, err := s.Get(ctx, k)
					require.NoError(t, err)
					assert.False(t, ok, k)
				}
				_, ok, err := s.Get(ctx, KeyChat)
				require.NoError(t, err)
				assert.True(t, ok)
			})

			t.Run("remove absent key", func(t *testing.T) {
				s := newStore(t)
				assert.NoError(t, s.Remove(ctx, "nope"))
				assert.NoError(t, s.RemoveMany(ctx))
			})

			t.Run("ping", func(t *testing.T) {
				assert.NoError(t, newStore(t).Ping(ctx))
			})
		})
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hostelmate.db")
	ctx := context.Background()

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.SetMany(ctx, map[string]string{KeyToken: "abc", KeyProfile: "{}"}))
	require.NoError(t, s.Close())

	s, err = NewSQLite(path)
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
}

func TestIsBusy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("disk I/O error"), false},
		{"busy text", errors.New("database is locked (5) (SQLITE_BUSY)"), true},
		{"locked text", errors.New("database is locked"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBusy(tt.err))
		})
	}
}

func TestWithBusyRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries busy then succeeds", func(t *testing.T) {
		calls := 0
		err := withBusyRetry(ctx, "op", func() error {
			calls++
			if calls < 2 {
				return errors.New("SQLITE_BUSY")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, calls)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		calls := 0
		boom := errors.New("constraint failed")
		err := withBusyRetry(ctx, "op", func() error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		err := withBusyRetry(cctx, "op", func() error { return errors.New("SQLITE_BUSY") })
		assert.ErrorIs(t, err, context.Canceled)
	})
}
