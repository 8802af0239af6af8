package pgtest

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceRepository_DayLifecycle(t *testing.T) {
	// Setup
	setup := NewTestDatabase(t)
	ctx := context.Background()
	employees := postgresql.NewEmployeeRepository(setup.DB)
	days := postgresql.NewAttendanceRepository(setup.DB)
	breaks := postgresql.NewAttendanceBreakRepository(setup.DB)

	worker, err := employees.Create(ctx, employee.Employee{FullName: "Budi Worker"})
	require.NoError(t, err)
	day := date(2025, 3, 10)
	checkIn := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	// Act
	opened, err := days.ClaimCheckIn(ctx, worker.ID, day, checkIn, attendance.StatusPresent, nil, false)
	require.NoError(t, err)
	_, againErr := days.ClaimCheckIn(ctx, worker.ID, day, checkIn.Add(time.Minute), attendance.StatusPresent, nil, false)

	started, err := breaks.Start(ctx, attendance.BreakInterval{
		AttendanceID: opened.ID,
		Type:         attendance.BreakLunch,
		StartedAt:    time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, secondBreakErr := breaks.Start(ctx, attendance.BreakInterval{
		AttendanceID: opened.ID,
		Type:         attendance.BreakTea,
		StartedAt:    time.Date(2025, 3, 10, 12, 5, 0, 0, time.UTC),
	})
	_, err = breaks.End(ctx, started.ID, time.Date(2025, 3, 10, 12, 30, 0, 0, time.UTC), 30)
	require.NoError(t, err)

	closed, err := days.RecordCheckOut(ctx, opened.ID, time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC), decimal.NewFromInt(8), attendance.StatusPresent, nil)
	require.NoError(t, err)
	_, checkOutAgainErr := days.RecordCheckOut(ctx, opened.ID, time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC), decimal.NewFromInt(8), attendance.StatusPresent, nil)

	// Assert
	assert.ErrorIs(t, againErr, attendance.ErrAlreadyCheckedIn)
	assert.ErrorIs(t, secondBreakErr, attendance.ErrBreakInProgress)
	assert.True(t, closed.WorkedHours.Equal(decimal.NewFromInt(8)))
	assert.ErrorIs(t, checkOutAgainErr, attendance.ErrAlreadyCheckedOut)

	stored, err := days.GetByEmployeeAndDate(ctx, worker.ID, day)
	require.NoError(t, err)
	require.Len(t, stored.Breaks, 1)
	assert.Equal(t, 30, *stored.Breaks[0].DurationMinutes)
}

func TestAttendanceRepository_DailyMarks(t *testing.T) {
	// Setup
	setup := NewTestDatabase(t)
	ctx := context.Background()
	employees := postgresql.NewEmployeeRepository(setup.DB)
	days := postgresql.NewAttendanceRepository(setup.DB)

	present, err := employees.Create(ctx, employee.Employee{FullName: "Budi Present"})
	require.NoError(t, err)
	away, err := employees.Create(ctx, employee.Employee{FullName: "Sari Away"})
	require.NoError(t, err)
	missing, err := employees.Create(ctx, employee.Employee{FullName: "Tono Missing"})
	require.NoError(t, err)

	day := date(2025, 3, 10)
	_, err = days.ClaimCheckIn(ctx, present.ID, day, time.Date(2025, 3, 10, 8, 55, 0, 0, time.UTC), attendance.StatusPresent, nil, false)
	require.NoError(t, err)

	// Act
	onLeave, err := days.MarkOnLeave(ctx, []string{away.ID, present.ID}, day)
	require.NoError(t, err)
	absent, err := days.MarkAbsent(ctx, []string{present.ID, away.ID, missing.ID}, day)
	require.NoError(t, err)
	rerun, err := days.MarkAbsent(ctx, []string{present.ID, away.ID, missing.ID}, day)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, 1, onLeave)
	assert.Equal(t, 1, absent)
	assert.Equal(t, 0, rerun)

	awayDay, err := days.GetByEmployeeAndDate(ctx, away.ID, day)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusOnLeave, awayDay.Status)

	missingDay, err := days.GetByEmployeeAndDate(ctx, missing.ID, day)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusAbsent, missingDay.Status)
}

func TestAttendanceRepository_ClaimReleasesStaleLeaveMark(t *testing.T) {
	// Setup
	setup := NewTestDatabase(t)
	ctx := context.Background()
	employees := postgresql.NewEmployeeRepository(setup.DB)
	days := postgresql.NewAttendanceRepository(setup.DB)

	worker, err := employees.Create(ctx, employee.Employee{FullName: "Budi Worker"})
	require.NoError(t, err)
	day := date(2025, 3, 10)
	_, err = days.MarkOnLeave(ctx, []string{worker.ID}, day)
	require.NoError(t, err)
	checkIn := time.Date(2025, 3, 10, 8, 50, 0, 0, time.UTC)

	// Act
	_, heldErr := days.ClaimCheckIn(ctx, worker.ID, day, checkIn, attendance.StatusPresent, nil, false)
	released, releaseErr := days.ClaimCheckIn(ctx, worker.ID, day, checkIn, attendance.StatusPresent, nil, true)

	// Assert
	assert.ErrorIs(t, heldErr, attendance.ErrDayOnLeave)
	require.NoError(t, releaseErr)
	assert.Equal(t, attendance.StatusPresent, released.Status)
	require.NotNil(t, released.CheckIn)
	assert.True(t, released.CheckIn.Equal(checkIn))
}
