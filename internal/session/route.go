package session

import "github.com/tanmayyjais/hostelMate-frontend/internal/domain"

// Destination is the top-level area the navigation root shows.
type Destination int

const (
	// Waiting is shown while a restore, login or logout is in progress.
	Waiting Destination = iota
	// LoginFlow is the unauthenticated flow (sign in).
	LoginFlow
	// StudentArea is the resident area.
	StudentArea
	// AdminArea is the academic staff area.
	AdminArea
	// DepartmentStaffArea is the complaint queue of one department.
	DepartmentStaffArea
	// UnknownRole is shown for a member_type the client has no area for.
	UnknownRole
)

func (d Destination) String() string {
	switch d {
	case Waiting:
		return "waiting"
	case LoginFlow:
		return "login"
	case StudentArea:
		return "student"
	case AdminArea:
		return "admin"
	case DepartmentStaffArea:
		return "department-staff"
	default:
		return "unknown-role"
	}
}

// Route maps a session snapshot onto a destination.
func Route(s State) Destination {
	if s.Loading {
		return Waiting
	}
	if !s.Authenticated() {
		return LoginFlow
	}
	switch s.Profile.Role() {
	case domain.RoleStudent:
		return StudentArea
	case domain.RoleAcademicStaff:
		return AdminArea
	case domain.RoleDepartmentStaff:
		return DepartmentStaffArea
	default:
		return UnknownRole
	}
}
