// Package domain contains core domain types for the Hostel Mate client.
package domain

import (
	"maps"
	"strings"
)

// MemberTypeKey is the profile attribute that carries the member's role.
const MemberTypeKey = "member_type"

// Profile is the user record returned by the hostel API. Its shape is owned by
// the backend, so it is kept as an open attribute map.
type Profile map[string]any

// MemberType returns the raw member_type attribute, or "" when missing.
func (p Profile) MemberType() string {
	if p == nil {
		return ""
	}
	v, _ := p[MemberTypeKey].(string)
	return v
}

// String returns a string attribute, or "" when missing or not a string.
func (p Profile) String(key string) string {
	if p == nil {
		return ""
	}
	v, _ := p[key].(string)
	return v
}

// Role returns the routing role derived from member_type.
func (p Profile) Role() Role {
	return ParseRole(p.MemberType())
}

// Clone returns a shallow copy of the profile.
func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Merge returns a new profile with every key of update written over p.
// Keys of p that are absent from update are preserved.
func (p Profile) Merge(update Profile) Profile {
	merged := make(Profile, len(p)+len(update))
	maps.Copy(merged, p)
	maps.Copy(merged, update)
	return merged
}

// Role is the closed set of navigation roles.
type Role int

const (
	// RoleUnknown is any member_type the client has no area for.
	RoleUnknown Role = iota
	// RoleStudent is a hostel resident.
	RoleStudent
	// RoleAcademicStaff administers rooms, passes, receipts and announcements.
	RoleAcademicStaff
	// RoleDepartmentStaff resolves complaints for one department (electricalStaff, ...).
	RoleDepartmentStaff
)

const (
	memberTypeStudent       = "student"
	memberTypeAcademicStaff = "academicStaff"
	staffSuffix             = "Staff"
)

// ParseRole maps a member_type string onto a Role.
func ParseRole(memberType string) Role {
	switch {
	case memberType == memberTypeStudent:
		return RoleStudent
	case memberType == memberTypeAcademicStaff:
		return RoleAcademicStaff
	case len(memberType) > len(staffSuffix) && strings.HasSuffix(memberType, staffSuffix):
		return RoleDepartmentStaff
	default:
		return RoleUnknown
	}
}

// Department returns the department prefix of a department-staff member_type
// ("electricalStaff" -> "electrical"). It returns "" for other roles.
func Department(memberType string) string {
	if ParseRole(memberType) != RoleDepartmentStaff {
		return ""
	}
	return strings.TrimSuffix(memberType, staffSuffix)
}

func (r Role) String() string {
	switch r {
	case RoleStudent:
		return "student"
	case RoleAcademicStaff:
		return "academic-staff"
	case RoleDepartmentStaff:
		return "department-staff"
	default:
		return "unknown"
	}
}

// AuthPayload is the body of a successful login response.
type AuthPayload struct {
	User  Profile `json:"user"`
	Token string  `json:"token"`
}

// Complete reports whether both the token and the profile are present.
func (a *AuthPayload) Complete() bool {
	return a != nil && a.Token != "" && a.User != nil
}
