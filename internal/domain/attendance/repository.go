package attendance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AttendanceRepository defines data access methods for attendance_days.
type AttendanceRepository interface {
	// ClaimCheckIn writes the check-in on the (employee, date) row, creating
	// the row if needed. Returns ErrAlreadyCheckedIn or ErrDayOnLeave when the
	// existing row cannot take a check-in. releaseLeave lets the check-in
	// claim an on_leave row whose leave no longer holds.
	ClaimCheckIn(ctx context.Context, employeeID string, date, at time.Time, status Status, notes *string, releaseLeave bool) (AttendanceDay, error)

	// GetByEmployeeAndDate retrieves the day with its breaks.
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (AttendanceDay, error)

	// LockByEmployeeAndDate is GetByEmployeeAndDate holding a row lock until
	// the surrounding transaction ends.
	LockByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (AttendanceDay, error)

	// RecordCheckOut sets check-out only while it is still empty. Returns
	// ErrAlreadyCheckedOut otherwise.
	RecordCheckOut(ctx context.Context, id string, at time.Time, workedHours decimal.Decimal, status Status, notes *string) (AttendanceDay, error)

	// Create inserts a complete record. Returns ErrAttendanceExists on a
	// duplicate (employee, date).
	Create(ctx context.Context, day AttendanceDay) (AttendanceDay, error)

	// ListByEmployee returns days within [from, to] ordered by date.
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]AttendanceDay, error)

	// MarkOnLeave flags the date on_leave for each employee lacking a check-in.
	MarkOnLeave(ctx context.Context, employeeIDs []string, date time.Time) (int, error)

	// MarkAbsent inserts absent rows for employees with no record on date.
	MarkAbsent(ctx context.Context, employeeIDs []string, date time.Time) (int, error)
}

// BreakRepository defines data access methods for attendance_breaks.
type BreakRepository interface {
	// Start returns ErrBreakInProgress if the day already has an open break.
	Start(ctx context.Context, b BreakInterval) (BreakInterval, error)
	// End closes the open break; ErrNoOpenBreak when it was already closed.
	End(ctx context.Context, id string, at time.Time, durationMinutes int) (BreakInterval, error)
	ListByAttendance(ctx context.Context, attendanceID string) ([]BreakInterval, error)
}

// LeaveCalendar answers whether approved leave covers a date. Satisfied by
// the leave request repository.
type LeaveCalendar interface {
	HasApprovedFullDayLeave(ctx context.Context, employeeID string, date time.Time) (bool, error)
	ListEmployeesOnLeave(ctx context.Context, date time.Time) ([]string, error)
}
