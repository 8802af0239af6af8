package attendance

import (
	"context"
	"time"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// CheckIn opens the caller's day
	CheckIn(ctx context.Context, req CheckInRequest) (AttendanceResponse, error)

	// CheckOut closes the caller's day and computes worked hours
	CheckOut(ctx context.Context, req CheckOutRequest) (AttendanceResponse, error)

	StartBreak(ctx context.Context, req StartBreakRequest) (BreakResponse, error)
	EndBreak(ctx context.Context, req EndBreakRequest) (BreakResponse, error)

	// GetToday reports the caller's current state and allowed actions
	GetToday(ctx context.Context) (TodayResponse, error)

	GetMyAttendance(ctx context.Context, filter MyAttendanceFilter) ([]AttendanceResponse, error)
	GetMonthlySummary(ctx context.Context, req MonthlySummaryRequest) (MonthlySummaryResponse, error)

	// BackfillAttendance creates a record for a past date (admin/hr)
	BackfillAttendance(ctx context.Context, req BackfillAttendanceRequest) (AttendanceResponse, error)
}

// DailyMarker runs the end-of-day status jobs.
type DailyMarker interface {
	MarkOnLeave(ctx context.Context, date time.Time) (int, error)
	MarkAbsent(ctx context.Context, date time.Time) (int, error)
}
