package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type employeeRepositoryImpl struct {
	db *database.DB
}

func NewEmployeeRepository(db *database.DB) employee.EmployeeRepository {
	return &employeeRepositoryImpl{db: db}
}

// Exists implements employee.Directory.
func (e *employeeRepositoryImpl) Exists(ctx context.Context, id string) (bool, error) {
	q := GetQuerier(ctx, e.db)

	var exists bool
	err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check employee %s: %w", id, err)
	}
	return exists, nil
}

// GetByID implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id, user_id, full_name, manager_id, employment_status, hire_date, created_at, updated_at
		FROM employees
		WHERE id = $1
	`

	var emp employee.Employee
	err := q.QueryRow(ctx, query, id).Scan(
		&emp.ID, &emp.UserID, &emp.FullName, &emp.ManagerID,
		&emp.EmploymentStatus, &emp.HireDate, &emp.CreatedAt, &emp.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee %s: %w", id, err)
	}
	return emp, nil
}

// Create implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	q := GetQuerier(ctx, e.db)

	if newEmployee.ID == "" {
		newEmployee.ID = database.NewID()
	}
	if newEmployee.EmploymentStatus == "" {
		newEmployee.EmploymentStatus = employee.EmploymentStatusActive
	}

	query := `
		INSERT INTO employees (id, user_id, full_name, manager_id, employment_status, hire_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6, CURRENT_DATE), NOW(), NOW())
		RETURNING hire_date, created_at, updated_at
	`

	var hireDate any
	if !newEmployee.HireDate.IsZero() {
		hireDate = newEmployee.HireDate
	}

	err := q.QueryRow(ctx, query,
		newEmployee.ID, newEmployee.UserID, newEmployee.FullName, newEmployee.ManagerID,
		newEmployee.EmploymentStatus, hireDate,
	).Scan(&newEmployee.HireDate, &newEmployee.CreatedAt, &newEmployee.UpdatedAt)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}
	return newEmployee, nil
}

// ListManagedIDs implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListManagedIDs(ctx context.Context, managerID string) ([]string, error) {
	return e.listIDs(ctx, `SELECT id FROM employees WHERE manager_id = $1 ORDER BY id`, managerID)
}

// ListActiveIDs implements employee.EmployeeRepository.
func (e *employeeRepositoryImpl) ListActiveIDs(ctx context.Context) ([]string, error) {
	return e.listIDs(ctx, `SELECT id FROM employees WHERE employment_status = $1 ORDER BY id`, employee.EmploymentStatusActive)
}

func (e *employeeRepositoryImpl) listIDs(ctx context.Context, query string, arg any) ([]string, error) {
	q := GetQuerier(ctx, e.db)

	rows, err := q.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list employee ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan employee ids: %w", err)
	}
	return ids, nil
}
