package leave

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// RequestQuery narrows a listing. A nil EmployeeIDs means every employee,
// an empty non-nil slice matches nothing.
type RequestQuery struct {
	EmployeeIDs []string
	Status      *Status
	LeaveType   *Type
	Year        *int
	Page        int
	Limit       int
}

// LeaveRequestRepository - interface for leave_requests table
type LeaveRequestRepository interface {
	Create(ctx context.Context, request LeaveRequest) (LeaveRequest, error)
	GetByID(ctx context.Context, id string) (LeaveRequest, error)
	// LockEmployee serializes request creation for one employee until the
	// surrounding transaction ends.
	LockEmployee(ctx context.Context, employeeID string) error
	// FindBlocking returns the employee's pending, on_hold and approved
	// requests whose inclusive range intersects [start, end].
	FindBlocking(ctx context.Context, employeeID string, start, end time.Time) ([]LeaveRequest, error)
	// Transition applies t only while the row is still in one of t.From.
	// Returns ErrConcurrentStatusChange when no row matched.
	Transition(ctx context.Context, id string, t Transition) (LeaveRequest, error)
	List(ctx context.Context, query RequestQuery) ([]LeaveRequest, int64, error)
	CountByStatus(ctx context.Context, year int) (map[Status]int, decimal.Decimal, error)

	HasApprovedFullDayLeave(ctx context.Context, employeeID string, date time.Time) (bool, error)
	ListEmployeesOnLeave(ctx context.Context, date time.Time) ([]string, error)
}

// LeaveBalanceRepository - interface for leave_balances and leave_ledger_entries
type LeaveBalanceRepository interface {
	GetByKey(ctx context.Context, key BalanceKey) (LeaveBalance, error)
	ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]LeaveBalance, error)
	// EnsureExists inserts a zero-allocated row for key if none exists.
	EnsureExists(ctx context.Context, key BalanceKey) error
	// AdjustTaken moves delta days from remaining to taken (a negative delta
	// gives them back) only if neither side drops below zero. Returns
	// ErrInsufficientBalance or ErrCreditExceedsTaken otherwise.
	AdjustTaken(ctx context.Context, key BalanceKey, delta decimal.Decimal) (LeaveBalance, error)
	// Provision upserts the allocation and carry forward, keeping taken.
	Provision(ctx context.Context, key BalanceKey, totalAllocated, carriedForward decimal.Decimal) (LeaveBalance, error)
	// AppendEntry returns ErrDuplicateLedgerEntry when the request already
	// has an entry of that kind.
	AppendEntry(ctx context.Context, entry LedgerEntry) (LedgerEntry, error)
	ListEntries(ctx context.Context, key BalanceKey) ([]LedgerEntry, error)
}
