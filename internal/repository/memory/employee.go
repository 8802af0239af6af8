package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
)

type employeeRepositoryImpl struct {
	store *Store
}

func NewEmployeeRepository(store *Store) employee.EmployeeRepository {
	return &employeeRepositoryImpl{store: store}
}

func (e *employeeRepositoryImpl) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := e.store.locked(ctx, func() error {
		_, exists = e.store.employees[id]
		return nil
	})
	return exists, err
}

func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	var emp employee.Employee
	err := e.store.locked(ctx, func() error {
		found, ok := e.store.employees[id]
		if !ok {
			return employee.ErrEmployeeNotFound
		}
		emp = found
		return nil
	})
	return emp, err
}

func (e *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	err := e.store.locked(ctx, func() error {
		now := e.store.now()
		if newEmployee.ID == "" {
			newEmployee.ID = database.NewID()
		}
		if newEmployee.EmploymentStatus == "" {
			newEmployee.EmploymentStatus = employee.EmploymentStatusActive
		}
		if newEmployee.HireDate.IsZero() {
			y, m, d := now.Date()
			newEmployee.HireDate = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
		newEmployee.CreatedAt = now
		newEmployee.UpdatedAt = now
		e.store.employees[newEmployee.ID] = newEmployee
		return nil
	})
	return newEmployee, err
}

func (e *employeeRepositoryImpl) ListManagedIDs(ctx context.Context, managerID string) ([]string, error) {
	return e.listIDs(ctx, func(emp employee.Employee) bool {
		return emp.ManagerID != nil && *emp.ManagerID == managerID
	})
}

func (e *employeeRepositoryImpl) ListActiveIDs(ctx context.Context) ([]string, error) {
	return e.listIDs(ctx, employee.Employee.IsActive)
}

func (e *employeeRepositoryImpl) listIDs(ctx context.Context, match func(employee.Employee) bool) ([]string, error) {
	var ids []string
	err := e.store.locked(ctx, func() error {
		for id, emp := range e.store.employees {
			if match(emp) {
				ids = append(ids, id)
			}
		}
		return nil
	})
	sort.Strings(ids)
	return ids, err
}
