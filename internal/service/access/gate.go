package access

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/go-chi/jwtauth/v5"
)

// GateImpl resolves the caller from the verified JWT in ctx and the
// reporting line from the employee directory.
type GateImpl struct {
	employee.EmployeeRepository
}

func NewGate(employeeRepository employee.EmployeeRepository) user.Gate {
	return &GateImpl{EmployeeRepository: employeeRepository}
}

// CurrentIdentity implements user.Gate.
func (g *GateImpl) CurrentIdentity(ctx context.Context) (user.Identity, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return user.Identity{}, fmt.Errorf("%w: %v", user.ErrIdentityMissing, err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return user.Identity{}, user.ErrIdentityMissing
	}

	roleStr, _ := claims["role"].(string)
	role, err := user.ParseRole(roleStr)
	if err != nil {
		return user.Identity{}, fmt.Errorf("%w: %v", user.ErrIdentityMissing, err)
	}

	// Admin accounts may have no employee profile
	employeeID, _ := claims["employee_id"].(string)

	return user.Identity{UserID: userID, EmployeeID: employeeID, Role: role}, nil
}

// ManagedEmployeeIDs implements user.Gate.
func (g *GateImpl) ManagedEmployeeIDs(ctx context.Context, managerID string) ([]string, error) {
	if managerID == "" {
		return nil, nil
	}
	ids, err := g.EmployeeRepository.ListManagedIDs(ctx, managerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list managed employees: %w", err)
	}
	return ids, nil
}
