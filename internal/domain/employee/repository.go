package employee

import "context"

// Directory is the existence check every leave and attendance operation
// runs before touching an employee's records.
type Directory interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type EmployeeRepository interface {
	Directory
	GetByID(ctx context.Context, id string) (Employee, error)
	Create(ctx context.Context, newEmployee Employee) (Employee, error)
	// ListManagedIDs returns the ids of employees whose manager_id is managerID.
	ListManagedIDs(ctx context.Context, managerID string) ([]string, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
}
