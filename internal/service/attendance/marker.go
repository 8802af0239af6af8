package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
)

// MarkOnLeave implements attendance.DailyMarker.
func (a *AttendanceServiceImpl) MarkOnLeave(ctx context.Context, date time.Time) (int, error) {
	employeeIDs, err := a.calendar.ListEmployeesOnLeave(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("failed to list employees on leave: %w", err)
	}
	if len(employeeIDs) == 0 {
		return 0, nil
	}

	marked, err := a.AttendanceRepository.MarkOnLeave(ctx, employeeIDs, date)
	if err != nil {
		return 0, fmt.Errorf("failed to mark attendance on leave: %w", err)
	}

	slog.Info("Marked attendance on leave", "date", date.Format(validator.DateLayout), "count", marked)
	return marked, nil
}

// MarkAbsent implements attendance.DailyMarker. Employees on approved
// full-day leave are never marked absent.
func (a *AttendanceServiceImpl) MarkAbsent(ctx context.Context, date time.Time) (int, error) {
	activeIDs, err := a.employees.ListActiveIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active employees: %w", err)
	}
	onLeaveIDs, err := a.calendar.ListEmployeesOnLeave(ctx, date)
	if err != nil {
		return 0, fmt.Errorf("failed to list employees on leave: %w", err)
	}

	onLeave := make(map[string]struct{}, len(onLeaveIDs))
	for _, id := range onLeaveIDs {
		onLeave[id] = struct{}{}
	}
	candidates := make([]string, 0, len(activeIDs))
	for _, id := range activeIDs {
		if _, ok := onLeave[id]; !ok {
			candidates = append(candidates, id)
		}
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	marked, err := a.AttendanceRepository.MarkAbsent(ctx, candidates, date)
	if err != nil {
		return 0, fmt.Errorf("failed to mark absent: %w", err)
	}

	slog.Info("Marked absent employees", "date", date.Format(validator.DateLayout), "count", marked)
	return marked, nil
}
