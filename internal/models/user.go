package models

// Role determines which dashboard and capability set a session has.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleFaculty Role = "faculty"
	RoleStudent Role = "student"
)

// Valid reports whether r is one of the supported roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleFaculty, RoleStudent:
		return true
	default:
		return false
	}
}

// User is the session identity. It is created at login, carried in the
// session token and never persisted.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	Program    string `json:"program,omitempty"`
	Department string `json:"department,omitempty"`
}
