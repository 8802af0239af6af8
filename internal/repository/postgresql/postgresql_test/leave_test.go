package pgtest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/postgresql"
	leaveService "github.com/cmlabs-hris/hris-timekeeping/internal/service/leave"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const approverID = "0192f5a0-0000-7000-8000-000000000001"

type leaveStack struct {
	employees employee.EmployeeRepository
	requests  leave.LeaveRequestRepository
	balances  leave.LeaveBalanceRepository
	ledger    *leaveService.Ledger
	service   *leaveService.RequestService
}

func newLeaveStack(t *testing.T) *leaveStack {
	setup := NewTestDatabase(t)

	transactor := postgresql.NewTransactor(setup.DB)
	s := &leaveStack{
		employees: postgresql.NewEmployeeRepository(setup.DB),
		requests:  postgresql.NewLeaveRequestRepository(setup.DB),
		balances:  postgresql.NewLeaveBalanceRepository(setup.DB),
	}
	s.ledger = leaveService.NewLedger(transactor, s.balances, s.employees, leaveService.LedgerPolicy{
		DefaultAllocations: map[leave.Type]decimal.Decimal{leave.TypeAnnual: decimal.NewFromInt(12)},
		MaxCarryForward:    decimal.NewFromInt(5),
	})
	s.service = leaveService.NewRequestService(transactor, s.requests, s.ledger)
	return s
}

func (s *leaveStack) employee(t *testing.T, name string, managerID *string) employee.Employee {
	t.Helper()
	emp, err := s.employees.Create(context.Background(), employee.Employee{FullName: name, ManagerID: managerID})
	require.NoError(t, err)
	return emp
}

func (s *leaveStack) request(t *testing.T, employeeID string, start, end time.Time, days int64) leave.LeaveRequest {
	t.Helper()
	lr, err := s.service.CreateRequest(context.Background(), leave.LeaveRequest{
		EmployeeID:    employeeID,
		LeaveType:     leave.TypeAnnual,
		DurationType:  leave.DurationFullDay,
		StartDate:     start,
		EndDate:       end,
		DaysRequested: decimal.NewFromInt(days),
		Reason:        "family trip",
		SubmittedBy:   approverID,
	})
	require.NoError(t, err)
	return lr
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestEmployeeRepository_Directory(t *testing.T) {
	// Setup
	s := newLeaveStack(t)
	ctx := context.Background()
	lead := s.employee(t, "Rina Lead", nil)
	worker := s.employee(t, "Budi Worker", &lead.ID)

	// Act
	exists, err := s.employees.Exists(ctx, worker.ID)
	require.NoError(t, err)
	missing, err := s.employees.Exists(ctx, "0192f5a0-0000-7000-8000-0000000000ff")
	require.NoError(t, err)
	managed, err := s.employees.ListManagedIDs(ctx, lead.ID)
	require.NoError(t, err)
	_, getErr := s.employees.GetByID(ctx, "0192f5a0-0000-7000-8000-0000000000ff")

	// Assert
	assert.True(t, exists)
	assert.False(t, missing)
	assert.Equal(t, []string{worker.ID}, managed)
	assert.ErrorIs(t, getErr, employee.ErrEmployeeNotFound)
}

func TestLeaveRequestRepository_OverlapAndTransition(t *testing.T) {
	// Setup
	s := newLeaveStack(t)
	ctx := context.Background()
	worker := s.employee(t, "Budi Worker", nil)
	lr := s.request(t, worker.ID, date(2025, 1, 15), date(2025, 1, 17), 3)

	// Act
	blocking, err := s.requests.FindBlocking(ctx, worker.ID, date(2025, 1, 17), date(2025, 1, 20))
	require.NoError(t, err)

	_, overlapErr := s.service.CreateRequest(ctx, leave.LeaveRequest{
		EmployeeID:    worker.ID,
		LeaveType:     leave.TypeAnnual,
		DurationType:  leave.DurationFullDay,
		StartDate:     date(2025, 1, 16),
		EndDate:       date(2025, 1, 16),
		DaysRequested: decimal.NewFromInt(1),
		Reason:        "second",
		SubmittedBy:   approverID,
	})

	reason := "team offsite"
	rejected, err := s.requests.Transition(ctx, lr.ID, leave.Transition{
		From:            []leave.Status{leave.StatusPending, leave.StatusOnHold},
		To:              leave.StatusRejected,
		By:              approverID,
		At:              time.Now(),
		RejectionReason: &reason,
	})
	require.NoError(t, err)
	_, staleErr := s.requests.Transition(ctx, lr.ID, leave.Transition{
		From: []leave.Status{leave.StatusPending},
		To:   leave.StatusApproved,
		By:   approverID,
		At:   time.Now(),
	})

	// Assert
	require.Len(t, blocking, 1)
	assert.Equal(t, lr.ID, blocking[0].ID)
	assert.ErrorIs(t, overlapErr, leave.ErrOverlappingLeave)
	assert.Equal(t, leave.StatusRejected, rejected.Status)
	assert.Equal(t, &reason, rejected.RejectionReason)
	assert.ErrorIs(t, staleErr, leave.ErrConcurrentStatusChange)
}

func TestRequestService_ApproveDebitsLedger(t *testing.T) {
	// Setup
	s := newLeaveStack(t)
	ctx := context.Background()
	worker := s.employee(t, "Budi Worker", nil)
	key := leave.BalanceKey{EmployeeID: worker.ID, LeaveType: leave.TypeAnnual, Year: 2025}
	_, err := s.balances.Provision(ctx, key, decimal.NewFromInt(20), decimal.Zero)
	require.NoError(t, err)
	lr := s.request(t, worker.ID, date(2025, 1, 15), date(2025, 1, 17), 3)

	// Act
	approved, err := s.service.Approve(ctx, lr.ID, approverID)
	require.NoError(t, err)
	_, againErr := s.service.Approve(ctx, lr.ID, approverID)

	// Assert
	assert.Equal(t, leave.StatusApproved, approved.Status)
	assert.ErrorIs(t, againErr, apperror.ErrConflict)

	balance, err := s.balances.GetByKey(ctx, key)
	require.NoError(t, err)
	assert.True(t, balance.Taken.Equal(decimal.NewFromInt(3)))
	assert.True(t, balance.Remaining.Equal(decimal.NewFromInt(17)))

	entries, err := s.balances.ListEntries(ctx, key)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, leave.EntryDebit, entries[0].Kind)
	assert.Equal(t, &lr.ID, entries[0].RequestID)
}

func TestRequestService_InsufficientBalanceRollsBack(t *testing.T) {
	// Setup
	s := newLeaveStack(t)
	ctx := context.Background()
	worker := s.employee(t, "Budi Worker", nil)
	key := leave.BalanceKey{EmployeeID: worker.ID, LeaveType: leave.TypeAnnual, Year: 2025}
	_, err := s.balances.Provision(ctx, key, decimal.NewFromInt(2), decimal.Zero)
	require.NoError(t, err)
	lr := s.request(t, worker.ID, date(2025, 2, 3), date(2025, 2, 5), 3)

	// Act
	_, err = s.service.Approve(ctx, lr.ID, approverID)

	// Assert
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	stored, err := s.requests.GetByID(ctx, lr.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, stored.Status)

	balance, err := s.balances.GetByKey(ctx, key)
	require.NoError(t, err)
	assert.True(t, balance.Taken.IsZero())
}

func TestRequestService_ConcurrentApprovalsNeverOverdraw(t *testing.T) {
	// Setup
	s := newLeaveStack(t)
	ctx := context.Background()
	worker := s.employee(t, "Budi Worker", nil)
	key := leave.BalanceKey{EmployeeID: worker.ID, LeaveType: leave.TypeAnnual, Year: 2025}
	_, err := s.balances.Provision(ctx, key, decimal.NewFromInt(3), decimal.Zero)
	require.NoError(t, err)
	first := s.request(t, worker.ID, date(2025, 3, 3), date(2025, 3, 4), 2)
	second := s.request(t, worker.ID, date(2025, 3, 10), date(2025, 3, 11), 2)

	// Act
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = s.service.Approve(ctx, id, approverID)
		}(i, id)
	}
	wg.Wait()

	// Assert
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, leave.ErrInsufficientBalance)
		}
	}
	assert.Equal(t, 1, succeeded)

	balance, err := s.balances.GetByKey(ctx, key)
	require.NoError(t, err)
	assert.True(t, balance.Taken.Equal(decimal.NewFromInt(2)))
	assert.True(t, balance.Remaining.Equal(decimal.NewFromInt(1)))
}

func TestRequestService_ReverseCreditsOnce(t *testing.T) {
	// Setup
	s := newLeaveStack(t)
	ctx := context.Background()
	worker := s.employee(t, "Budi Worker", nil)
	key := leave.BalanceKey{EmployeeID: worker.ID, LeaveType: leave.TypeAnnual, Year: 2025}
	_, err := s.balances.Provision(ctx, key, decimal.NewFromInt(10), decimal.Zero)
	require.NoError(t, err)
	lr := s.request(t, worker.ID, date(2025, 4, 7), date(2025, 4, 8), 2)
	_, err = s.service.Approve(ctx, lr.ID, approverID)
	require.NoError(t, err)

	// Act
	reversed, err := s.service.Reverse(ctx, lr.ID, approverID, "trip called off")
	require.NoError(t, err)
	_, againErr := s.service.Reverse(ctx, lr.ID, approverID, "trip called off")

	// Assert
	assert.Equal(t, leave.StatusCancelled, reversed.Status)
	assert.ErrorIs(t, againErr, leave.ErrReverseNotApproved)

	balance, err := s.balances.GetByKey(ctx, key)
	require.NoError(t, err)
	assert.True(t, balance.Taken.IsZero())
	assert.True(t, balance.Remaining.Equal(decimal.NewFromInt(10)))

	entries, err := s.balances.ListEntries(ctx, key)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLedger_ProvisionYearCarriesForward(t *testing.T) {
	// Setup
	s := newLeaveStack(t)
	ctx := context.Background()
	worker := s.employee(t, "Budi Worker", nil)
	_, err := s.balances.Provision(ctx, leave.BalanceKey{EmployeeID: worker.ID, LeaveType: leave.TypeAnnual, Year: 2024}, decimal.NewFromInt(12), decimal.Zero)
	require.NoError(t, err)

	// Act
	created, err := s.ledger.ProvisionYear(ctx, 2025)
	require.NoError(t, err)
	rerun, err := s.ledger.ProvisionYear(ctx, 2025)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 1, created)
	assert.Equal(t, 0, rerun)

	balance, err := s.balances.GetByKey(ctx, leave.BalanceKey{EmployeeID: worker.ID, LeaveType: leave.TypeAnnual, Year: 2025})
	require.NoError(t, err)
	assert.True(t, balance.CarriedForward.Equal(decimal.NewFromInt(5)))
	assert.True(t, balance.Remaining.Equal(decimal.NewFromInt(17)))
}
