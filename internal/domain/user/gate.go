package user

import "context"

// Gate resolves who is calling and whom a team lead manages. Identity
// issuance lives outside this service; implementations only read it.
type Gate interface {
	CurrentIdentity(ctx context.Context) (Identity, error)
	ManagedEmployeeIDs(ctx context.Context, managerID string) ([]string, error)
}

// CanActFor reports whether caller may act on behalf of employeeID: the
// employee themself, admin/hr, or a team lead managing them.
func CanActFor(ctx context.Context, gate Gate, caller Identity, employeeID string) (bool, error) {
	if caller.IsSelf(employeeID) {
		return true, nil
	}
	return CanSupervise(ctx, gate, caller, employeeID)
}

// CanSupervise reports whether caller may approve or inspect employeeID's
// records as a supervisor. Team leads never supervise themselves.
func CanSupervise(ctx context.Context, gate Gate, caller Identity, employeeID string) (bool, error) {
	switch caller.Role {
	case RoleAdmin, RoleHR:
		return true, nil
	case RoleTeamLead:
		if caller.IsSelf(employeeID) {
			return false, nil
		}
		managed, err := gate.ManagedEmployeeIDs(ctx, caller.EmployeeID)
		if err != nil {
			return false, err
		}
		for _, id := range managed {
			if id == employeeID {
				return true, nil
			}
		}
		return false, nil
	case RoleEmployee:
		return false, nil
	}
	return false, nil
}
