package attendance

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
)

// StartBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) StartBreak(ctx context.Context, req attendance.StartBreakRequest) (attendance.BreakResponse, error) {
	employeeID, err := a.currentEmployee(ctx)
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	if err := req.Validate(); err != nil {
		return attendance.BreakResponse{}, err
	}
	breakType, err := attendance.ParseBreakType(req.BreakType)
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	now := a.now().UTC()
	date := a.policy.LocalDate(now)

	var started attendance.BreakInterval
	err = a.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		day, err := a.lockOpenDay(ctx, employeeID, date)
		if err != nil {
			return err
		}
		if day.OpenBreak() != nil {
			return attendance.ErrBreakInProgress
		}
		if now.Before(*day.CheckIn) {
			return attendance.ErrBreakBeforeCheckIn
		}

		started, err = a.breaks.Start(ctx, attendance.BreakInterval{
			AttendanceID: day.ID,
			Type:         breakType,
			StartedAt:    now,
			Notes:        req.Notes,
		})
		return err
	})
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	slog.Info("Break started", "employee_id", employeeID, "break_id", started.ID, "break_type", breakType)
	return started.ToResponse(), nil
}

// EndBreak implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) EndBreak(ctx context.Context, req attendance.EndBreakRequest) (attendance.BreakResponse, error) {
	employeeID, err := a.currentEmployee(ctx)
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	if err := req.Validate(); err != nil {
		return attendance.BreakResponse{}, err
	}

	now := a.now().UTC()
	date := a.policy.LocalDate(now)

	var ended attendance.BreakInterval
	err = a.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		day, err := a.lockOpenDay(ctx, employeeID, date)
		if err != nil {
			return err
		}
		open := day.OpenBreak()
		if open == nil {
			return attendance.ErrNoOpenBreak
		}
		if !now.After(open.StartedAt) {
			return attendance.ErrBreakEndBeforeStart
		}

		minutes := int(now.Sub(open.StartedAt) / time.Minute)
		ended, err = a.breaks.End(ctx, open.ID, now, minutes)
		return err
	})
	if err != nil {
		return attendance.BreakResponse{}, err
	}

	slog.Info("Break ended", "employee_id", employeeID, "break_id", ended.ID, "duration_minutes", *ended.DurationMinutes)
	return ended.ToResponse(), nil
}
