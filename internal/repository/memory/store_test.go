package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func TestWithinTransaction_RollsBackOnError(t *testing.T) {
	// Setup
	ctx := context.Background()
	store := NewStore()
	balances := NewLeaveBalanceRepository(store)
	key := leave.BalanceKey{EmployeeID: "e1", LeaveType: leave.TypeAnnual, Year: 2025}
	_, err := balances.Provision(ctx, key, decimal.NewFromInt(10), decimal.Zero)
	require.NoError(t, err)

	// Act
	boom := errors.New("boom")
	err = NewTransactor(store).WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := balances.AdjustTaken(ctx, key, decimal.NewFromInt(4)); err != nil {
			return err
		}
		return boom
	})

	// Assert
	assert.ErrorIs(t, err, boom)
	b, err := balances.GetByKey(ctx, key)
	require.NoError(t, err)
	assert.True(t, b.Taken.IsZero())
	assert.True(t, b.Remaining.Equal(decimal.NewFromInt(10)))
}

func TestWithinTransaction_NestedJoinsOuter(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	tx := NewTransactor(store)
	employees := NewEmployeeRepository(store)

	err := tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return tx.WithinTransaction(ctx, func(ctx context.Context) error {
			_, err := employees.Create(ctx, employee.Employee{FullName: "Ayu"})
			return err
		})
	})

	require.NoError(t, err)
	ids, err := employees.ListActiveIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}

func TestLeaveBalance_AdjustTakenKeepsFloor(t *testing.T) {
	ctx := context.Background()
	balances := NewLeaveBalanceRepository(NewStore())
	key := leave.BalanceKey{EmployeeID: "e1", LeaveType: leave.TypeSick, Year: 2025}

	_, err := balances.AdjustTaken(ctx, key, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, leave.ErrBalanceNotFound)

	require.NoError(t, balances.EnsureExists(ctx, key))
	_, err = balances.AdjustTaken(ctx, key, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	_, err = balances.Provision(ctx, key, decimal.NewFromInt(3), decimal.Zero)
	require.NoError(t, err)
	b, err := balances.AdjustTaken(ctx, key, decimal.RequireFromString("2.5"))
	require.NoError(t, err)
	assert.True(t, b.Remaining.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, b.Consistent())

	_, err = balances.AdjustTaken(ctx, key, decimal.NewFromInt(-3))
	assert.ErrorIs(t, err, leave.ErrCreditExceedsTaken)

	_, err = balances.Provision(ctx, key, decimal.NewFromInt(2), decimal.Zero)
	assert.ErrorIs(t, err, leave.ErrProvisionBelowTaken)
}

func TestLeaveBalance_AppendEntryRejectsDuplicateKind(t *testing.T) {
	ctx := context.Background()
	balances := NewLeaveBalanceRepository(NewStore())
	key := leave.BalanceKey{EmployeeID: "e1", LeaveType: leave.TypeAnnual, Year: 2025}
	requestID := "r1"

	_, err := balances.AppendEntry(ctx, leave.LedgerEntry{Key: key, RequestID: &requestID, Kind: leave.EntryDebit, Days: decimal.NewFromInt(3)})
	require.NoError(t, err)
	_, err = balances.AppendEntry(ctx, leave.LedgerEntry{Key: key, RequestID: &requestID, Kind: leave.EntryDebit, Days: decimal.NewFromInt(3)})
	assert.ErrorIs(t, err, leave.ErrDuplicateLedgerEntry)
	_, err = balances.AppendEntry(ctx, leave.LedgerEntry{Key: key, RequestID: &requestID, Kind: leave.EntryCredit, Days: decimal.NewFromInt(3)})
	assert.NoError(t, err)

	entries, err := balances.ListEntries(ctx, key)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestLeaveRequest_TransitionRequiresSourceStatus(t *testing.T) {
	ctx := context.Background()
	requests := NewLeaveRequestRepository(NewStore())
	lr, err := requests.Create(ctx, leave.LeaveRequest{
		EmployeeID: "e1", LeaveType: leave.TypeAnnual, DurationType: leave.DurationFullDay,
		StartDate: day, EndDate: day, DaysRequested: decimal.NewFromInt(1), Status: leave.StatusPending,
	})
	require.NoError(t, err)

	approved, err := requests.Transition(ctx, lr.ID, leave.Transition{
		From: []leave.Status{leave.StatusPending}, To: leave.StatusApproved, By: "hr", At: day,
	})
	require.NoError(t, err)
	assert.Equal(t, leave.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "hr", *approved.ApprovedBy)

	_, err = requests.Transition(ctx, lr.ID, leave.Transition{
		From: []leave.Status{leave.StatusPending}, To: leave.StatusRejected, By: "hr", At: day,
	})
	assert.ErrorIs(t, err, leave.ErrConcurrentStatusChange)

	_, err = requests.Transition(ctx, "missing", leave.Transition{From: []leave.Status{leave.StatusPending}, To: leave.StatusApproved})
	assert.ErrorIs(t, err, leave.ErrLeaveRequestNotFound)

	onLeave, err := requests.HasApprovedFullDayLeave(ctx, "e1", day)
	require.NoError(t, err)
	assert.True(t, onLeave)
}

func TestAttendance_ClaimCheckIn(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	days := NewAttendanceRepository(store)
	checkIn := day.Add(9 * time.Hour)

	first, err := days.ClaimCheckIn(ctx, "e1", day, checkIn, attendance.StatusPresent, nil, false)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, first.Status)

	_, err = days.ClaimCheckIn(ctx, "e1", day, checkIn.Add(time.Minute), attendance.StatusPresent, nil, false)
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)

	n, err := days.MarkOnLeave(ctx, []string{"e1", "e2"}, day)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "checked-in day must not be flipped to on_leave")

	_, err = days.ClaimCheckIn(ctx, "e2", day, checkIn, attendance.StatusPresent, nil, false)
	assert.ErrorIs(t, err, attendance.ErrDayOnLeave)

	released, err := days.ClaimCheckIn(ctx, "e2", day, checkIn, attendance.StatusPresent, nil, true)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, released.Status)

	n, err = days.MarkAbsent(ctx, []string{"e1", "e2", "e3"}, day)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAttendanceBreak_SingleOpenBreak(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	days := NewAttendanceRepository(store)
	breaks := NewAttendanceBreakRepository(store)
	checkIn := day.Add(9 * time.Hour)

	d, err := days.ClaimCheckIn(ctx, "e1", day, checkIn, attendance.StatusPresent, nil, false)
	require.NoError(t, err)

	b, err := breaks.Start(ctx, attendance.BreakInterval{AttendanceID: d.ID, Type: attendance.BreakLunch, StartedAt: checkIn.Add(3 * time.Hour)})
	require.NoError(t, err)
	_, err = breaks.Start(ctx, attendance.BreakInterval{AttendanceID: d.ID, Type: attendance.BreakTea, StartedAt: checkIn.Add(4 * time.Hour)})
	assert.ErrorIs(t, err, attendance.ErrBreakInProgress)

	closed, err := breaks.End(ctx, b.ID, checkIn.Add(3*time.Hour+30*time.Minute), 30)
	require.NoError(t, err)
	require.NotNil(t, closed.DurationMinutes)
	assert.Equal(t, 30, *closed.DurationMinutes)

	_, err = breaks.End(ctx, b.ID, checkIn.Add(4*time.Hour), 90)
	assert.ErrorIs(t, err, attendance.ErrNoOpenBreak)

	got, err := days.GetByEmployeeAndDate(ctx, "e1", day)
	require.NoError(t, err)
	assert.Len(t, got.Breaks, 1)
	assert.Equal(t, 30, got.BreakMinutes())
}
