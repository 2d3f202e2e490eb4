package domain

import "time"

// UserRole enumerates the institutional roles that can hold or act on
// applications.
type UserRole string

const (
	RoleStudent     UserRole = "student"
	RolePrincipal   UserRole = "principal"
	RoleHOD         UserRole = "hod"
	RoleExamSection UserRole = "exam_section"
	RoleTAndP       UserRole = "t_and_p"
	RoleClerk       UserRole = "clerk"
	RoleSystemAdmin UserRole = "system_admin"
)

// ValidRole reports whether the role is one of the known values.
func ValidRole(role UserRole) bool {
	switch role {
	case RoleStudent, RolePrincipal, RoleHOD, RoleExamSection, RoleTAndP, RoleClerk, RoleSystemAdmin:
		return true
	}
	return false
}

// User is the domain model for students and staff. Email is unique;
// EmailVerified flips exactly once, at OTP signup completion.
type User struct {
	ID            string
	Name          string
	Role          UserRole
	Department    string
	Email         string
	EmailVerified bool
	PasswordHash  *string
	CreatedAt     time.Time
}
