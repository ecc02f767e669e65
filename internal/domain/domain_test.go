package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		memberType string
		want       Role
	}{
		{"student", RoleStudent},
		{"academicStaff", RoleAcademicStaff},
		{"electricalStaff", RoleDepartmentStaff},
		{"civilStaff", RoleDepartmentStaff},
		{"Staff", RoleUnknown},
		{"warden", RoleUnknown},
		{"Student", RoleUnknown},
		{"", RoleUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.memberType, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseRole(tt.memberType))
		})
	}
}

func TestDepartment(t *testing.T) {
	assert.Equal(t, "electrical", Department("electricalStaff"))
	assert.Equal(t, "", Department("academicStaff"))
	assert.Equal(t, "", Department("student"))
}

func TestProfileMergeKeepsExistingKeys(t *testing.T) {
	base := Profile{"a": 1, "b": 2}
	merged := base.Merge(Profile{"b": 3, "c": 4})

	assert.Equal(t, Profile{"a": 1, "b": 3, "c": 4}, merged)
	assert.Equal(t, Profile{"a": 1, "b": 2}, base, "merge must not mutate the receiver")
}

func TestProfileMergeNilBase(t *testing.T) {
	var base Profile
	assert.Equal(t, Profile{"x": "y"}, base.Merge(Profile{"x": "y"}))
}

func TestErrorKindsAreDistinguishable(t *testing.T) {
	unauthorized := StatusError("login", http.StatusUnauthorized, nil)
	forbidden := StatusError("login", http.StatusForbidden, nil)
	fault := StatusError("login", http.StatusBadGateway, nil)
	network := &Error{Kind: KindConnectivity, Op: "login", Err: errors.New("dial tcp: refused")}

	assert.ErrorIs(t, unauthorized, ErrUnauthorized)
	assert.NotErrorIs(t, unauthorized, ErrForbidden)
	assert.ErrorIs(t, forbidden, ErrForbidden)
	assert.ErrorIs(t, fault, ErrServerFault)
	assert.ErrorIs(t, network, ErrNetworkUnreachable)
	assert.NotErrorIs(t, network, ErrServerFault)

	wrapped := fmt.Errorf("session: %w", forbidden)
	assert.Equal(t, KindForbidden, KindOf(wrapped))
	assert.Equal(t, Kind(0), KindOf(errors.New("plain")))
}

func TestUserMessageIncludesStatusForServerFault(t *testing.T) {
	msg := UserMessage(StatusError("login", http.StatusInternalServerError, nil))
	assert.Contains(t, msg, "500")
	assert.NotEqual(t, UserMessage(ErrUnauthorized), UserMessage(ErrForbidden))
	assert.NotEqual(t, UserMessage(ErrUnauthorized), UserMessage(ErrNetworkUnreachable))
	assert.Empty(t, UserMessage(nil))
}

func TestMessageTimestampRoundTrip(t *testing.T) {
	at := time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	msg := NewMessage(SenderUser, "hi", at)

	assert.Equal(t, "2025-03-14T09:26:53.589Z", msg.Timestamp)
	got, err := msg.Time()
	require.NoError(t, err)
	assert.True(t, got.Equal(at))
}
