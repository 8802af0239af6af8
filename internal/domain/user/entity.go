package user

import "fmt"

type Role string

const (
	RoleAdmin    Role = "admin"     // Full access
	RoleHR       Role = "hr"        // Full access to leave and attendance
	RoleTeamLead Role = "team_lead" // Approves for the employees they manage
	RoleEmployee Role = "employee"  // Own records only
)

// ParseRole maps a claim value onto the closed role set.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleHR, RoleTeamLead, RoleEmployee:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Identity is the resolved caller of an operation.
type Identity struct {
	UserID     string
	EmployeeID string
	Role       Role
}

// IsPrivileged reports whether the role may act on any employee's records.
func (i Identity) IsPrivileged() bool {
	switch i.Role {
	case RoleAdmin, RoleHR:
		return true
	case RoleTeamLead, RoleEmployee:
		return false
	}
	return false
}

// IsSelf checks whether employeeID belongs to the caller.
func (i Identity) IsSelf(employeeID string) bool {
	return i.EmployeeID != "" && i.EmployeeID == employeeID
}
