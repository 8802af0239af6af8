package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
)

type AttendanceServiceImpl struct {
	transactor database.Transactor
	gate       user.Gate
	employees  employee.EmployeeRepository
	attendance.AttendanceRepository
	breaks   attendance.BreakRepository
	calendar attendance.LeaveCalendar
	policy   attendance.Policy
	now      func() time.Time
}

func NewAttendanceService(
	transactor database.Transactor,
	gate user.Gate,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	breakRepo attendance.BreakRepository,
	calendar attendance.LeaveCalendar,
	policy attendance.Policy,
) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		transactor:           transactor,
		gate:                 gate,
		employees:            employeeRepo,
		AttendanceRepository: attendanceRepo,
		breaks:               breakRepo,
		calendar:             calendar,
		policy:               policy,
		now:                  time.Now,
	}
}

// WithClock replaces the clock stamped on check-ins, check-outs and breaks.
func (a *AttendanceServiceImpl) WithClock(now func() time.Time) *AttendanceServiceImpl {
	a.now = now
	return a
}

// CheckIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckIn(ctx context.Context, req attendance.CheckInRequest) (attendance.AttendanceResponse, error) {
	employeeID, err := a.currentEmployee(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.now().UTC()
	date := a.policy.LocalDate(now)

	onLeave, err := a.calendar.HasApprovedFullDayLeave(ctx, employeeID, date)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to check approved leave: %w", err)
	}
	if onLeave {
		return attendance.AttendanceResponse{}, attendance.ErrDayOnLeave
	}

	// No approved leave covers today, so an on_leave mark left by a reversed
	// leave is released.
	status := attendance.Classify(now, a.policy)
	day, err := a.AttendanceRepository.ClaimCheckIn(ctx, employeeID, date, now, status, req.Notes, true)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("Employee checked in", "employee_id", employeeID, "date", date.Format(validator.DateLayout), "status", status)
	return day.ToResponse(), nil
}

// CheckOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) CheckOut(ctx context.Context, req attendance.CheckOutRequest) (attendance.AttendanceResponse, error) {
	employeeID, err := a.currentEmployee(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	now := a.now().UTC()
	date := a.policy.LocalDate(now)

	var day attendance.AttendanceDay
	err = a.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		current, err := a.lockOpenDay(ctx, employeeID, date)
		if err != nil {
			return err
		}
		if current.OpenBreak() != nil {
			return attendance.ErrBreakInProgress
		}
		if !now.After(*current.CheckIn) {
			return attendance.ErrCheckOutBeforeCheckIn
		}

		workedHours := attendance.WorkedHours(*current.CheckIn, now, current.Breaks)
		status := current.Status
		if status == attendance.StatusPresent || status == attendance.StatusLate {
			status = attendance.Classify(*current.CheckIn, a.policy)
		}

		day, err = a.AttendanceRepository.RecordCheckOut(ctx, current.ID, now, workedHours, status, req.Notes)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("Employee checked out", "employee_id", employeeID, "date", date.Format(validator.DateLayout), "worked_hours", day.WorkedHours)
	return day.ToResponse(), nil
}

// GetToday implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetToday(ctx context.Context) (attendance.TodayResponse, error) {
	employeeID, err := a.currentEmployee(ctx)
	if err != nil {
		return attendance.TodayResponse{}, err
	}

	date := a.policy.LocalDate(a.now())
	resp := attendance.TodayResponse{Date: date.Format(validator.DateLayout)}

	day, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, date)
	switch {
	case err == nil:
		state := day.State()
		if state == attendance.StateOnLeave {
			onLeave, err := a.calendar.HasApprovedFullDayLeave(ctx, employeeID, date)
			if err != nil {
				return attendance.TodayResponse{}, fmt.Errorf("failed to check approved leave: %w", err)
			}
			if !onLeave {
				state = attendance.StateNotCheckedIn
			}
		}
		dayResp := day.ToResponse()
		resp.State = string(state)
		resp.AllowedActions = state.AllowedActions()
		resp.Attendance = &dayResp
		resp.TotalBreakMinutes = day.BreakMinutes()
		if open := day.OpenBreak(); open != nil {
			breakResp := open.ToResponse()
			resp.OpenBreak = &breakResp
		}
		return resp, nil
	case errors.Is(err, attendance.ErrAttendanceNotFound):
	default:
		return attendance.TodayResponse{}, fmt.Errorf("failed to get today's attendance: %w", err)
	}

	// No record yet: approved leave still shows the day as on leave
	onLeave, err := a.calendar.HasApprovedFullDayLeave(ctx, employeeID, date)
	if err != nil {
		return attendance.TodayResponse{}, fmt.Errorf("failed to check approved leave: %w", err)
	}
	state := attendance.StateNotCheckedIn
	if onLeave {
		state = attendance.StateOnLeave
	}
	resp.State = string(state)
	resp.AllowedActions = state.AllowedActions()
	return resp, nil
}

// GetMyAttendance implements attendance.AttendanceService. The range
// defaults to the current month up to today.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, filter attendance.MyAttendanceFilter) ([]attendance.AttendanceResponse, error) {
	employeeID, err := a.currentEmployee(ctx)
	if err != nil {
		return nil, err
	}

	if err := filter.Validate(); err != nil {
		return nil, err
	}

	to := a.policy.LocalDate(a.now())
	from := time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
	if filter.To != nil {
		to, _ = validator.IsValidDate(*filter.To)
		if filter.From == nil {
			from = time.Date(to.Year(), to.Month(), 1, 0, 0, 0, 0, time.UTC)
		}
	}
	if filter.From != nil {
		from, _ = validator.IsValidDate(*filter.From)
	}

	days, err := a.AttendanceRepository.ListByEmployee(ctx, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}

	responses := make([]attendance.AttendanceResponse, 0, len(days))
	for _, d := range days {
		responses = append(responses, d.ToResponse())
	}
	return responses, nil
}

// GetMonthlySummary implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMonthlySummary(ctx context.Context, req attendance.MonthlySummaryRequest) (attendance.MonthlySummaryResponse, error) {
	caller, err := a.gate.CurrentIdentity(ctx)
	if err != nil {
		return attendance.MonthlySummaryResponse{}, err
	}

	if err := req.Validate(); err != nil {
		return attendance.MonthlySummaryResponse{}, err
	}

	employeeID := caller.EmployeeID
	if req.EmployeeID != nil && *req.EmployeeID != "" {
		employeeID = *req.EmployeeID
	}
	if employeeID == "" {
		return attendance.MonthlySummaryResponse{}, user.ErrEmployeeProfileRequired
	}

	allowed, err := user.CanActFor(ctx, a.gate, caller, employeeID)
	if err != nil {
		return attendance.MonthlySummaryResponse{}, fmt.Errorf("failed to check access: %w", err)
	}
	if !allowed {
		return attendance.MonthlySummaryResponse{}, attendance.ErrUnauthorized
	}
	if err := a.ensureEmployee(ctx, employeeID); err != nil {
		return attendance.MonthlySummaryResponse{}, err
	}

	from := time.Date(req.Year, time.Month(req.Month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)
	days, err := a.AttendanceRepository.ListByEmployee(ctx, employeeID, from, to)
	if err != nil {
		return attendance.MonthlySummaryResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}

	return attendance.Summarize(employeeID, req.Year, time.Month(req.Month), days).ToResponse(), nil
}

// BackfillAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) BackfillAttendance(ctx context.Context, req attendance.BackfillAttendanceRequest) (attendance.AttendanceResponse, error) {
	caller, err := a.gate.CurrentIdentity(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !caller.IsPrivileged() {
		return attendance.AttendanceResponse{}, attendance.ErrBackfillNotAuthorized
	}

	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := a.ensureEmployee(ctx, req.EmployeeID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	date, _ := validator.IsValidDate(req.Date)
	status, err := attendance.ParseStatus(req.Status)
	if err != nil {
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to parse status: %w", err)
	}
	if status != attendance.StatusOnLeave {
		onLeave, err := a.calendar.HasApprovedFullDayLeave(ctx, req.EmployeeID, date)
		if err != nil {
			return attendance.AttendanceResponse{}, fmt.Errorf("failed to check approved leave: %w", err)
		}
		if onLeave {
			return attendance.AttendanceResponse{}, attendance.ErrBackfillOnLeave
		}
	}

	day := attendance.AttendanceDay{
		EmployeeID: req.EmployeeID,
		Date:       date,
		Status:     status,
		Notes:      req.Notes,
	}
	if req.CheckIn != nil {
		checkIn, _ := validator.IsValidDateTime(*req.CheckIn)
		checkIn = checkIn.UTC()
		if !a.policy.LocalDate(checkIn).Equal(date) {
			return attendance.AttendanceResponse{}, attendance.ErrBackfillWindow
		}
		day.CheckIn = &checkIn
	}
	if req.CheckOut != nil {
		checkOut, _ := validator.IsValidDateTime(*req.CheckOut)
		checkOut = checkOut.UTC()
		day.CheckOut = &checkOut
		day.WorkedHours = attendance.WorkedHours(*day.CheckIn, checkOut, nil)
	}

	created, err := a.AttendanceRepository.Create(ctx, day)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	slog.Info("Attendance backfilled", "employee_id", created.EmployeeID, "date", req.Date, "status", status, "by", caller.UserID)
	return created.ToResponse(), nil
}

// lockOpenDay loads and locks the employee's day, requiring a check-in
// without a check-out.
func (a *AttendanceServiceImpl) lockOpenDay(ctx context.Context, employeeID string, date time.Time) (attendance.AttendanceDay, error) {
	day, err := a.AttendanceRepository.LockByEmployeeAndDate(ctx, employeeID, date)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.AttendanceDay{}, attendance.ErrNotCheckedIn
		}
		return attendance.AttendanceDay{}, fmt.Errorf("failed to lock attendance day: %w", err)
	}
	if day.CheckIn == nil {
		return attendance.AttendanceDay{}, attendance.ErrNotCheckedIn
	}
	if day.CheckOut != nil {
		return attendance.AttendanceDay{}, attendance.ErrAlreadyCheckedOut
	}
	return day, nil
}

// currentEmployee resolves the caller's own employee profile.
func (a *AttendanceServiceImpl) currentEmployee(ctx context.Context) (string, error) {
	caller, err := a.gate.CurrentIdentity(ctx)
	if err != nil {
		return "", err
	}
	if caller.EmployeeID == "" {
		return "", user.ErrEmployeeProfileRequired
	}
	if err := a.ensureEmployee(ctx, caller.EmployeeID); err != nil {
		return "", err
	}
	return caller.EmployeeID, nil
}

func (a *AttendanceServiceImpl) ensureEmployee(ctx context.Context, employeeID string) error {
	exists, err := a.employees.Exists(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to check employee: %w", err)
	}
	if !exists {
		return employee.ErrEmployeeNotFound
	}
	return nil
}
