package user

import "time"

type Role string

const (
	RoleAdmin    Role = "admin"    // Full access
	RoleHR       Role = "hr"       // Payroll, salary and attendance administration
	RoleManager  Role = "manager"  // Can approve leave and view team attendance
	RoleEmployee Role = "employee" // Self service only
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleHR, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// User is an employee reachable through the chat transport. ID is the
// transport's user id.
type User struct {
	ID           string
	EmployeeCode string
	Name         string
	Department   *string
	Role         Role
	PasswordHash *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Capabilities resolves the user's role once into a typed capability set.
func (u User) Capabilities() Capability {
	if !u.IsActive {
		return 0
	}
	return CapabilitiesOf(u.Role)
}

func (u User) Can(c Capability) bool {
	return u.Capabilities().Has(c)
}

// DisplayName falls back to the employee code for unnamed accounts.
func (u User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.EmployeeCode
}
