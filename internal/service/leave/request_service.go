package leave

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
)

// RequestService drives the request lifecycle. Callers have already
// checked who may do what; every method here only enforces the state
// machine and keeps the ledger in step with it.
type RequestService struct {
	transactor database.Transactor
	leave.LeaveRequestRepository
	ledger *Ledger
}

func NewRequestService(transactor database.Transactor, leaveRequestRepository leave.LeaveRequestRepository, ledger *Ledger) *RequestService {
	return &RequestService{
		transactor:             transactor,
		LeaveRequestRepository: leaveRequestRepository,
		ledger:                 ledger,
	}
}

// CreateRequest stores a new pending request after checking it against the
// employee's pending, on-hold and approved requests.
func (r *RequestService) CreateRequest(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	if !request.DaysRequested.IsPositive() {
		return leave.LeaveRequest{}, leave.ErrNonPositiveDays
	}
	request.Status = leave.StatusPending

	var created leave.LeaveRequest
	err := r.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := r.LeaveRequestRepository.LockEmployee(ctx, request.EmployeeID); err != nil {
			return fmt.Errorf("failed to lock employee leave requests: %w", err)
		}

		existing, err := r.LeaveRequestRepository.FindBlocking(ctx, request.EmployeeID, request.StartDate, request.EndDate)
		if err != nil {
			return fmt.Errorf("failed to check overlapping leave requests: %w", err)
		}
		for _, other := range existing {
			if request.Overlaps(other) {
				return leave.ErrOverlappingLeave
			}
		}

		created, err = r.LeaveRequestRepository.Create(ctx, request)
		if err != nil {
			return fmt.Errorf("failed to create leave request: %w", err)
		}
		return nil
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	slog.Info("Leave request created", "request_id", created.ID, "employee_id", created.EmployeeID, "days", created.DaysRequested)
	return created, nil
}

// Approve debits the balance and flips the status in one transaction. If
// the balance cannot cover the request nothing changes.
func (r *RequestService) Approve(ctx context.Context, requestID string, approverID string) (leave.LeaveRequest, error) {
	request, err := r.LeaveRequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if !request.Status.CanTransitionTo(leave.StatusApproved) {
		return leave.LeaveRequest{}, leave.ErrLeaveAlreadyProcessed
	}

	key := request.BalanceKey()
	if err := r.ledger.EnsureBalance(ctx, key); err != nil {
		return leave.LeaveRequest{}, err
	}

	var approved leave.LeaveRequest
	err = r.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		approved, err = r.LeaveRequestRepository.Transition(ctx, requestID, leave.Transition{
			From: []leave.Status{leave.StatusPending, leave.StatusOnHold},
			To:   leave.StatusApproved,
			By:   approverID,
			At:   time.Now(),
		})
		if err != nil {
			return err
		}

		_, err = r.ledger.Adjust(ctx, key, approved.DaysRequested, LedgerRef{
			RequestID: &approved.ID,
			CreatedBy: &approverID,
		})
		return err
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	slog.Info("Leave request approved", "request_id", approved.ID, "approved_by", approverID, "balance", key.String(), "days", approved.DaysRequested)
	return approved, nil
}

func (r *RequestService) Reject(ctx context.Context, requestID string, rejectorID string, reason string) (leave.LeaveRequest, error) {
	request, err := r.LeaveRequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if !request.Status.CanTransitionTo(leave.StatusRejected) {
		return leave.LeaveRequest{}, leave.ErrLeaveAlreadyProcessed
	}

	return r.LeaveRequestRepository.Transition(ctx, requestID, leave.Transition{
		From:            []leave.Status{leave.StatusPending, leave.StatusOnHold},
		To:              leave.StatusRejected,
		By:              rejectorID,
		At:              time.Now(),
		RejectionReason: &reason,
	})
}

func (r *RequestService) Hold(ctx context.Context, requestID string, reviewerID string, comment *string) (leave.LeaveRequest, error) {
	request, err := r.LeaveRequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if request.Status != leave.StatusPending {
		return leave.LeaveRequest{}, leave.ErrHoldNotPending
	}

	return r.LeaveRequestRepository.Transition(ctx, requestID, leave.Transition{
		From:         []leave.Status{leave.StatusPending},
		To:           leave.StatusOnHold,
		By:           reviewerID,
		At:           time.Now(),
		AdminComment: comment,
	})
}

func (r *RequestService) Resume(ctx context.Context, requestID string, reviewerID string) (leave.LeaveRequest, error) {
	request, err := r.LeaveRequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if request.Status != leave.StatusOnHold {
		return leave.LeaveRequest{}, leave.ErrResumeNotOnHold
	}

	return r.LeaveRequestRepository.Transition(ctx, requestID, leave.Transition{
		From: []leave.Status{leave.StatusOnHold},
		To:   leave.StatusPending,
		By:   reviewerID,
		At:   time.Now(),
	})
}

// Cancel withdraws a pending request. Approved leave goes through Reverse.
func (r *RequestService) Cancel(ctx context.Context, request leave.LeaveRequest, cancelledBy string, reason *string) (leave.LeaveRequest, error) {
	if request.Status != leave.StatusPending {
		return leave.LeaveRequest{}, leave.ErrCancelNotPending
	}

	return r.LeaveRequestRepository.Transition(ctx, request.ID, leave.Transition{
		From:               []leave.Status{leave.StatusPending},
		To:                 leave.StatusCancelled,
		By:                 cancelledBy,
		At:                 time.Now(),
		CancellationReason: reason,
	})
}

// Reverse cancels approved leave and credits the days back, both or neither.
func (r *RequestService) Reverse(ctx context.Context, requestID string, reversedBy string, reason string) (leave.LeaveRequest, error) {
	request, err := r.LeaveRequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequest{}, err
	}
	if request.Status != leave.StatusApproved {
		return leave.LeaveRequest{}, leave.ErrReverseNotApproved
	}

	var reversed leave.LeaveRequest
	err = r.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		reversed, err = r.LeaveRequestRepository.Transition(ctx, requestID, leave.Transition{
			From:               []leave.Status{leave.StatusApproved},
			To:                 leave.StatusCancelled,
			By:                 reversedBy,
			At:                 time.Now(),
			CancellationReason: &reason,
		})
		if err != nil {
			return err
		}

		_, err = r.ledger.Adjust(ctx, reversed.BalanceKey(), reversed.DaysRequested.Neg(), LedgerRef{
			RequestID: &reversed.ID,
			Note:      &reason,
			CreatedBy: &reversedBy,
		})
		return err
	})
	if err != nil {
		return leave.LeaveRequest{}, err
	}

	slog.Info("Approved leave reversed", "request_id", reversed.ID, "reversed_by", reversedBy, "days", reversed.DaysRequested)
	return reversed, nil
}
