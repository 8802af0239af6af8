package leave

import "github.com/cmlabs-hris/hris-timekeeping/internal/pkg/apperror"

var (
	ErrLeaveRequestNotFound = apperror.NotFound("leave request not found")
	ErrBalanceNotFound      = apperror.NotFound("leave balance not found")

	ErrStartAfterEnd        = apperror.Validation("start date must not be after end date")
	ErrStartInPast          = apperror.Validation("start date must not be in the past")
	ErrHalfDaySpan          = apperror.Validation("half-day leave must start and end on the same date")
	ErrOverlappingLeave     = apperror.Validation("leave request overlaps an existing pending or approved request")
	ErrNonPositiveDays      = apperror.Validation("days requested must be greater than zero")
	ErrZeroAdjustment       = apperror.Validation("ledger adjustment must not be zero")
	ErrNegativeProvisioning = apperror.Validation("allocation and carry forward must not be negative")

	ErrLeaveAlreadyProcessed   = apperror.Conflict("leave request is no longer awaiting a decision")
	ErrCancelNotPending        = apperror.Conflict("only pending leave requests can be cancelled; approved leave must be reversed")
	ErrReverseNotApproved      = apperror.Conflict("only approved leave requests can be reversed")
	ErrResumeNotOnHold         = apperror.Conflict("only leave requests on hold can be resumed")
	ErrHoldNotPending          = apperror.Conflict("only pending leave requests can be put on hold")
	ErrDuplicateLedgerEntry    = apperror.Conflict("ledger entry already recorded for this request")
	ErrConcurrentStatusChange  = apperror.Conflict("leave request status changed concurrently")
	ErrInsufficientBalance     = apperror.Invariant("insufficient leave balance")
	ErrCreditExceedsTaken      = apperror.Invariant("credit exceeds days taken")
	ErrProvisionBelowTaken     = apperror.Invariant("allocation would leave a negative remaining balance")
	ErrUnauthorizedAccess      = apperror.Authorization("not allowed to access this leave request")
	ErrApproverNotAuthorized   = apperror.Authorization("not allowed to decide on this leave request")
	ErrCancelNotAuthorized     = apperror.Authorization("only the requester or admin/hr can cancel a leave request")
	ErrReverseNotAuthorized    = apperror.Authorization("only admin or hr can reverse an approved leave request")
	ErrProvisionNotAuthorized  = apperror.Authorization("only admin or hr can provision leave balances")
	ErrCreateForOtherForbidden = apperror.Authorization("not allowed to request leave for this employee")
)
