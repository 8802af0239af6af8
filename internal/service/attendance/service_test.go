package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wib = time.FixedZone("WIB", 7*60*60)

type identityKey struct{}

type stubGate struct {
	employees employee.EmployeeRepository
}

func (g stubGate) CurrentIdentity(ctx context.Context) (user.Identity, error) {
	identity, ok := ctx.Value(identityKey{}).(user.Identity)
	if !ok {
		return user.Identity{}, user.ErrIdentityMissing
	}
	return identity, nil
}

func (g stubGate) ManagedEmployeeIDs(ctx context.Context, managerID string) ([]string, error) {
	return g.employees.ListManagedIDs(ctx, managerID)
}

type fixture struct {
	service  *AttendanceServiceImpl
	days     attendance.AttendanceRepository
	requests leave.LeaveRequestRepository
	clock    time.Time

	hr     user.Identity
	lead   user.Identity
	worker user.Identity
	other  user.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	employees := memory.NewEmployeeRepository(store)
	days := memory.NewAttendanceRepository(store)
	requests := memory.NewLeaveRequestRepository(store)

	lead, err := employees.Create(ctx, employee.Employee{FullName: "Rina Lead"})
	require.NoError(t, err)
	worker, err := employees.Create(ctx, employee.Employee{FullName: "Budi Worker", ManagerID: &lead.ID})
	require.NoError(t, err)
	other, err := employees.Create(ctx, employee.Employee{FullName: "Sari Other"})
	require.NoError(t, err)

	f := &fixture{
		days:     days,
		requests: requests,
		hr:       user.Identity{UserID: "0192f5a0-0000-7000-8000-000000000001", Role: user.RoleHR},
		lead:     user.Identity{UserID: "0192f5a0-0000-7000-8000-000000000002", EmployeeID: lead.ID, Role: user.RoleTeamLead},
		worker:   user.Identity{UserID: "0192f5a0-0000-7000-8000-000000000003", EmployeeID: worker.ID, Role: user.RoleEmployee},
		other:    user.Identity{UserID: "0192f5a0-0000-7000-8000-000000000004", EmployeeID: other.ID, Role: user.RoleEmployee},
	}

	cutoff := attendance.Clock{Hour: 9, Minute: 0}
	f.service = NewAttendanceService(
		memory.NewTransactor(store),
		stubGate{employees: employees},
		employees,
		days,
		memory.NewAttendanceBreakRepository(store),
		requests,
		attendance.Policy{Location: wib, LateCutoff: &cutoff},
	).WithClock(func() time.Time { return f.clock })

	return f
}

func (f *fixture) at(hour, minute int) {
	f.clock = time.Date(2025, 3, 10, hour, minute, 0, 0, wib)
}

func as(identity user.Identity) context.Context {
	return context.WithValue(context.Background(), identityKey{}, identity)
}

var march10 = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

func TestWorkday_EightHoursWithLunch(t *testing.T) {
	// Setup
	f := newFixture(t)
	ctx := as(f.worker)

	// Act
	f.at(9, 0)
	checkedIn, err := f.service.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	f.at(12, 0)
	_, err = f.service.StartBreak(ctx, attendance.StartBreakRequest{BreakType: "lunch"})
	require.NoError(t, err)

	f.at(12, 30)
	ended, err := f.service.EndBreak(ctx, attendance.EndBreakRequest{})
	require.NoError(t, err)

	f.at(17, 30)
	checkedOut, err := f.service.CheckOut(ctx, attendance.CheckOutRequest{})
	require.NoError(t, err)

	// Assert
	assert.Equal(t, "present", checkedIn.Status)
	assert.Equal(t, "2025-03-10", checkedIn.Date)
	require.NotNil(t, ended.DurationMinutes)
	assert.Equal(t, 30, *ended.DurationMinutes)
	assert.True(t, checkedOut.WorkedHours.Equal(decimal.NewFromInt(8)), checkedOut.WorkedHours.String())
	assert.Equal(t, "present", checkedOut.Status)
	assert.Len(t, checkedOut.Breaks, 1)

	today, err := f.service.GetToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, "checked_out", today.State)
	assert.Empty(t, today.AllowedActions)
	assert.Equal(t, 30, today.TotalBreakMinutes)
}

func TestCheckIn_Twice(t *testing.T) {
	f := newFixture(t)
	ctx := as(f.worker)

	f.at(8, 55)
	_, err := f.service.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	f.at(9, 5)
	_, err = f.service.CheckIn(ctx, attendance.CheckInRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedIn)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	days, err := f.days.ListByEmployee(context.Background(), f.worker.EmployeeID, march10, march10)
	require.NoError(t, err)
	assert.Len(t, days, 1)
}

func TestCheckIn_LateAfterCutoff(t *testing.T) {
	f := newFixture(t)

	f.at(9, 0)
	onTime, err := f.service.CheckIn(as(f.worker), attendance.CheckInRequest{})
	require.NoError(t, err)
	assert.Equal(t, "present", onTime.Status)

	f.at(9, 1)
	late, err := f.service.CheckIn(as(f.other), attendance.CheckInRequest{})
	require.NoError(t, err)
	assert.Equal(t, "late", late.Status)

	f.at(17, 0)
	out, err := f.service.CheckOut(as(f.other), attendance.CheckOutRequest{})
	require.NoError(t, err)
	assert.Equal(t, "late", out.Status)
}

func TestCheckIn_OnApprovedLeave(t *testing.T) {
	f := newFixture(t)
	_, err := f.requests.Create(context.Background(), leave.LeaveRequest{
		EmployeeID:    f.worker.EmployeeID,
		LeaveType:     leave.TypeAnnual,
		DurationType:  leave.DurationFullDay,
		StartDate:     march10,
		EndDate:       march10.AddDate(0, 0, 1),
		DaysRequested: decimal.NewFromInt(2),
		Status:        leave.StatusApproved,
	})
	require.NoError(t, err)

	f.at(8, 0)
	today, err := f.service.GetToday(as(f.worker))
	require.NoError(t, err)
	assert.Equal(t, "on_leave", today.State)

	_, err = f.service.CheckIn(as(f.worker), attendance.CheckInRequest{})
	assert.ErrorIs(t, err, attendance.ErrDayOnLeave)
}

func TestCheckIn_AfterLeaveReversed(t *testing.T) {
	// Setup
	f := newFixture(t)
	ctx := context.Background()
	lr, err := f.requests.Create(ctx, leave.LeaveRequest{
		EmployeeID:    f.worker.EmployeeID,
		LeaveType:     leave.TypeAnnual,
		DurationType:  leave.DurationFullDay,
		StartDate:     march10,
		EndDate:       march10,
		DaysRequested: decimal.NewFromInt(1),
		Status:        leave.StatusApproved,
	})
	require.NoError(t, err)
	marked, err := f.service.MarkOnLeave(ctx, march10)
	require.NoError(t, err)
	require.Equal(t, 1, marked)

	reason := "trip called off"
	_, err = f.requests.Transition(ctx, lr.ID, leave.Transition{
		From:               []leave.Status{leave.StatusApproved},
		To:                 leave.StatusCancelled,
		By:                 f.hr.UserID,
		At:                 march10,
		CancellationReason: &reason,
	})
	require.NoError(t, err)
	f.at(8, 45)

	// Act
	today, err := f.service.GetToday(as(f.worker))
	require.NoError(t, err)
	checkedIn, checkInErr := f.service.CheckIn(as(f.worker), attendance.CheckInRequest{})

	// Assert
	assert.Equal(t, "not_checked_in", today.State)
	require.NoError(t, checkInErr)
	assert.Equal(t, "present", checkedIn.Status)

	stored, err := f.days.GetByEmployeeAndDate(ctx, f.worker.EmployeeID, march10)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, stored.Status)
	assert.NotNil(t, stored.CheckIn)
}

func TestCheckOut_Conflicts(t *testing.T) {
	f := newFixture(t)
	ctx := as(f.worker)

	f.at(9, 0)
	_, err := f.service.CheckOut(ctx, attendance.CheckOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)

	_, err = f.service.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	_, err = f.service.CheckOut(ctx, attendance.CheckOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrCheckOutBeforeCheckIn)

	f.at(12, 0)
	_, err = f.service.StartBreak(ctx, attendance.StartBreakRequest{})
	require.NoError(t, err)

	f.at(17, 0)
	_, err = f.service.CheckOut(ctx, attendance.CheckOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrBreakInProgress)

	today, err := f.service.GetToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, "on_break", today.State)
	assert.Equal(t, []string{"end_break"}, today.AllowedActions)
	require.NotNil(t, today.OpenBreak)
	assert.Equal(t, "other", today.OpenBreak.BreakType)

	_, err = f.service.EndBreak(ctx, attendance.EndBreakRequest{})
	require.NoError(t, err)
	_, err = f.service.CheckOut(ctx, attendance.CheckOutRequest{})
	require.NoError(t, err)

	_, err = f.service.CheckOut(ctx, attendance.CheckOutRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
	_, err = f.service.StartBreak(ctx, attendance.StartBreakRequest{})
	assert.ErrorIs(t, err, attendance.ErrAlreadyCheckedOut)
}

func TestBreaks_Conflicts(t *testing.T) {
	f := newFixture(t)
	ctx := as(f.worker)

	f.at(10, 0)
	_, err := f.service.StartBreak(ctx, attendance.StartBreakRequest{})
	assert.ErrorIs(t, err, attendance.ErrNotCheckedIn)

	_, err = f.service.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	_, err = f.service.EndBreak(ctx, attendance.EndBreakRequest{})
	assert.ErrorIs(t, err, attendance.ErrNoOpenBreak)

	f.at(10, 15)
	_, err = f.service.StartBreak(ctx, attendance.StartBreakRequest{BreakType: "tea"})
	require.NoError(t, err)
	_, err = f.service.StartBreak(ctx, attendance.StartBreakRequest{BreakType: "tea"})
	assert.ErrorIs(t, err, attendance.ErrBreakInProgress)

	_, err = f.service.EndBreak(ctx, attendance.EndBreakRequest{})
	assert.ErrorIs(t, err, attendance.ErrBreakEndBeforeStart)

	_, err = f.service.StartBreak(ctx, attendance.StartBreakRequest{BreakType: "nap"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestGetToday_NotCheckedIn(t *testing.T) {
	f := newFixture(t)
	f.at(7, 0)

	today, err := f.service.GetToday(as(f.worker))

	require.NoError(t, err)
	assert.Equal(t, "not_checked_in", today.State)
	assert.Equal(t, []string{"check_in"}, today.AllowedActions)
	assert.Nil(t, today.Attendance)
}

func TestCheckIn_RequiresEmployeeProfile(t *testing.T) {
	f := newFixture(t)
	f.at(9, 0)

	_, err := f.service.CheckIn(as(f.hr), attendance.CheckInRequest{})
	assert.ErrorIs(t, err, user.ErrEmployeeProfileRequired)

	_, err = f.service.CheckIn(context.Background(), attendance.CheckInRequest{})
	assert.ErrorIs(t, err, apperror.ErrUnauthenticated)
}

func TestGetMyAttendance_DefaultsToCurrentMonth(t *testing.T) {
	f := newFixture(t)
	ctx := as(f.worker)
	_, err := f.days.Create(context.Background(), attendance.AttendanceDay{
		EmployeeID: f.worker.EmployeeID, Date: time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC), Status: attendance.StatusAbsent,
	})
	require.NoError(t, err)

	f.at(9, 0)
	_, err = f.service.CheckIn(ctx, attendance.CheckInRequest{})
	require.NoError(t, err)

	days, err := f.service.GetMyAttendance(ctx, attendance.MyAttendanceFilter{})
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, "2025-03-10", days[0].Date)

	from := "2025-02-01"
	days, err = f.service.GetMyAttendance(ctx, attendance.MyAttendanceFilter{From: &from})
	require.NoError(t, err)
	assert.Len(t, days, 2)
}

func TestBackfillAttendance(t *testing.T) {
	f := newFixture(t)
	checkIn := "2025-03-07T09:30:00+07:00"
	checkOut := "2025-03-07T17:30:00+07:00"
	req := attendance.BackfillAttendanceRequest{
		EmployeeID: f.worker.EmployeeID,
		Date:       "2025-03-07",
		Status:     "late",
		CheckIn:    &checkIn,
		CheckOut:   &checkOut,
	}

	_, err := f.service.BackfillAttendance(as(f.lead), req)
	assert.ErrorIs(t, err, attendance.ErrBackfillNotAuthorized)

	created, err := f.service.BackfillAttendance(as(f.hr), req)
	require.NoError(t, err)
	assert.Equal(t, "late", created.Status)
	assert.True(t, created.WorkedHours.Equal(decimal.NewFromInt(8)))

	_, err = f.service.BackfillAttendance(as(f.hr), req)
	assert.ErrorIs(t, err, attendance.ErrAttendanceExists)

	wrongDay := "2025-03-08T09:00:00+07:00"
	_, err = f.service.BackfillAttendance(as(f.hr), attendance.BackfillAttendanceRequest{
		EmployeeID: f.worker.EmployeeID, Date: "2025-03-09", Status: "present", CheckIn: &wrongDay,
	})
	assert.ErrorIs(t, err, attendance.ErrBackfillWindow)

	_, err = f.service.BackfillAttendance(as(f.hr), attendance.BackfillAttendanceRequest{
		EmployeeID: f.worker.EmployeeID, Date: "2025-03-09", Status: "absent", CheckIn: &checkIn,
	})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestBackfillAttendance_OnApprovedLeave(t *testing.T) {
	// Setup
	f := newFixture(t)
	_, err := f.requests.Create(context.Background(), leave.LeaveRequest{
		EmployeeID:    f.worker.EmployeeID,
		LeaveType:     leave.TypeSick,
		DurationType:  leave.DurationFullDay,
		StartDate:     march10,
		EndDate:       march10,
		DaysRequested: decimal.NewFromInt(1),
		Status:        leave.StatusApproved,
	})
	require.NoError(t, err)
	checkIn := "2025-03-10T09:00:00+07:00"

	// Act
	_, presentErr := f.service.BackfillAttendance(as(f.hr), attendance.BackfillAttendanceRequest{
		EmployeeID: f.worker.EmployeeID, Date: "2025-03-10", Status: "present", CheckIn: &checkIn,
	})
	onLeave, onLeaveErr := f.service.BackfillAttendance(as(f.hr), attendance.BackfillAttendanceRequest{
		EmployeeID: f.worker.EmployeeID, Date: "2025-03-10", Status: "on_leave",
	})

	// Assert
	assert.ErrorIs(t, presentErr, attendance.ErrBackfillOnLeave)
	require.NoError(t, onLeaveErr)
	assert.Equal(t, "on_leave", onLeave.Status)
}

func TestGetMonthlySummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for day, status := range map[int]attendance.Status{3: attendance.StatusPresent, 4: attendance.StatusLate, 5: attendance.StatusAbsent} {
		_, err := f.days.Create(ctx, attendance.AttendanceDay{
			EmployeeID: f.worker.EmployeeID, Date: time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC), Status: status, WorkedHours: decimal.NewFromInt(8),
		})
		require.NoError(t, err)
	}

	summary, err := f.service.GetMonthlySummary(as(f.lead), attendance.MonthlySummaryRequest{EmployeeID: &f.worker.EmployeeID, Year: 2025, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, summary.DaysRecorded)
	assert.Equal(t, 1, summary.Present)
	assert.Equal(t, 1, summary.Late)
	assert.Equal(t, 1, summary.Absent)
	assert.True(t, summary.TotalWorkedHours.Equal(decimal.NewFromInt(24)))

	_, err = f.service.GetMonthlySummary(as(f.other), attendance.MonthlySummaryRequest{EmployeeID: &f.worker.EmployeeID, Year: 2025, Month: 3})
	assert.ErrorIs(t, err, attendance.ErrUnauthorized)
}

func TestDailyMarker(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.requests.Create(ctx, leave.LeaveRequest{
		EmployeeID:    f.other.EmployeeID,
		LeaveType:     leave.TypeSick,
		DurationType:  leave.DurationFullDay,
		StartDate:     march10,
		EndDate:       march10,
		DaysRequested: decimal.NewFromInt(1),
		Status:        leave.StatusApproved,
	})
	require.NoError(t, err)

	f.at(9, 0)
	_, err = f.service.CheckIn(as(f.worker), attendance.CheckInRequest{})
	require.NoError(t, err)

	onLeave, err := f.service.MarkOnLeave(ctx, march10)
	require.NoError(t, err)
	assert.Equal(t, 1, onLeave)

	// lead has no record; worker checked in; other is on leave
	absent, err := f.service.MarkAbsent(ctx, march10)
	require.NoError(t, err)
	assert.Equal(t, 1, absent)

	leadDay, err := f.days.GetByEmployeeAndDate(ctx, f.lead.EmployeeID, march10)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, leadDay.Status)

	otherDay, err := f.days.GetByEmployeeAndDate(ctx, f.other.EmployeeID, march10)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusOnLeave, otherDay.Status)

	// Reruns change nothing
	absent, err = f.service.MarkAbsent(ctx, march10)
	require.NoError(t, err)
	assert.Zero(t, absent)
}
