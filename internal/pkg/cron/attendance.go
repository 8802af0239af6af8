package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
)

// AttendanceJobs closes out finished days: employees on approved leave are
// marked on_leave and everyone else without a record is marked absent.
type AttendanceJobs struct {
	marker  attendance.DailyMarker
	policy  attendance.Policy
	runHour int
	now     func() time.Time
}

func NewAttendanceJobs(marker attendance.DailyMarker, policy attendance.Policy, runHour int) *AttendanceJobs {
	if policy.Location == nil {
		policy.Location = time.UTC
	}
	return &AttendanceJobs{
		marker:  marker,
		policy:  policy,
		runHour: runHour,
		now:     time.Now,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("mark_on_leave_employees", interval, j.MarkOnLeaveEmployees)
	scheduler.AddJob("mark_absent_employees", interval, j.MarkAbsentEmployees)
}

// MarkOnLeaveEmployees marks today's approved full-day leave. It can run any
// time of day; existing records are left alone.
func (j *AttendanceJobs) MarkOnLeaveEmployees(ctx context.Context) error {
	today := j.policy.LocalDate(j.now())

	marked, err := j.marker.MarkOnLeave(ctx, today)
	if err != nil {
		return fmt.Errorf("failed to mark on leave: %w", err)
	}

	slog.Info("Cron: Marked employees on leave", "date", today.Format("2006-01-02"), "count", marked)
	return nil
}

// MarkAbsentEmployees marks yesterday's missing records absent. It only acts
// during the configured hour of the local day.
func (j *AttendanceJobs) MarkAbsentEmployees(ctx context.Context) error {
	now := j.now().In(j.policy.Location)
	if now.Hour() != j.runHour {
		return nil
	}

	slog.Info("Cron: Starting mark absent employees job")

	yesterday := j.policy.LocalDate(now.AddDate(0, 0, -1))
	if _, err := j.marker.MarkOnLeave(ctx, yesterday); err != nil {
		return fmt.Errorf("failed to mark on leave: %w", err)
	}

	marked, err := j.marker.MarkAbsent(ctx, yesterday)
	if err != nil {
		return fmt.Errorf("failed to mark absent: %w", err)
	}

	slog.Info("Cron: Marked absent employees", "date", yesterday.Format("2006-01-02"), "count", marked)
	return nil
}
