package employee

import (
	"time"
)

// Employee is the directory projection this service needs: identity,
// reporting line and employment state. The full profile lives elsewhere.
type Employee struct {
	ID               string
	UserID           *string
	FullName         string
	ManagerID        *string
	EmploymentStatus EmploymentStatus
	HireDate         time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

func (e Employee) IsActive() bool {
	return e.EmploymentStatus == EmploymentStatusActive
}
