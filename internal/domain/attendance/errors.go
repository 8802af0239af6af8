package attendance

import "github.com/cmlabs-hris/hris-timekeeping/internal/pkg/apperror"

// Attendance domain errors
var (
	// Check-in errors
	ErrAlreadyCheckedIn = apperror.Conflict("you have already checked in today")
	ErrDayOnLeave       = apperror.Conflict("you are on approved leave today")

	// Check-out errors
	ErrNotCheckedIn          = apperror.Conflict("you have not checked in yet")
	ErrAlreadyCheckedOut     = apperror.Conflict("you have already checked out")
	ErrCheckOutBeforeCheckIn = apperror.Conflict("check-out must be after check-in")

	// Break errors
	ErrBreakInProgress     = apperror.Conflict("a break is already in progress")
	ErrNoOpenBreak         = apperror.Conflict("no break in progress")
	ErrBreakBeforeCheckIn  = apperror.Validation("break cannot start before check-in")
	ErrBreakEndBeforeStart = apperror.Validation("break must end after it started")

	// General errors
	ErrAttendanceNotFound    = apperror.NotFound("attendance record not found")
	ErrAttendanceExists      = apperror.Conflict("attendance record already exists for this date")
	ErrBackfillWindow        = apperror.Validation("check_out must be after check_in on the record date")
	ErrBackfillOnLeave       = apperror.Conflict("approved leave covers this date")
	ErrUnauthorized          = apperror.Authorization("unauthorized to access this attendance record")
	ErrBackfillNotAuthorized = apperror.Authorization("only admin or hr can create attendance records")
)
