package leave

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/user"
)

type LeaveServiceImpl struct {
	gate user.Gate
	employee.Directory
	leave.LeaveRequestRepository
	ledger         *Ledger
	requestService *RequestService
	location       *time.Location
	now            func() time.Time
}

func NewLeaveService(
	gate user.Gate,
	directory employee.Directory,
	leaveRequestRepo leave.LeaveRequestRepository,
	ledger *Ledger,
	requestService *RequestService,
	location *time.Location,
) *LeaveServiceImpl {
	if location == nil {
		location = time.UTC
	}
	return &LeaveServiceImpl{
		gate:                   gate,
		Directory:              directory,
		LeaveRequestRepository: leaveRequestRepo,
		ledger:                 ledger,
		requestService:         requestService,
		location:               location,
		now:                    time.Now,
	}
}

// WithClock replaces the clock used for the start-date check.
func (l *LeaveServiceImpl) WithClock(now func() time.Time) *LeaveServiceImpl {
	l.now = now
	return l
}

// CreateLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) CreateLeaveRequest(ctx context.Context, req leave.CreateLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	caller, err := l.gate.CurrentIdentity(ctx)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	// Resolve the target employee, defaulting to the caller
	employeeID := caller.EmployeeID
	if req.EmployeeID != nil && *req.EmployeeID != "" {
		employeeID = *req.EmployeeID
	}
	if employeeID == "" {
		return leave.LeaveRequestResponse{}, user.ErrEmployeeProfileRequired
	}
	if !caller.IsSelf(employeeID) {
		allowed, err := user.CanSupervise(ctx, l.gate, caller, employeeID)
		if err != nil {
			return leave.LeaveRequestResponse{}, fmt.Errorf("failed to check supervisor: %w", err)
		}
		if !allowed {
			return leave.LeaveRequestResponse{}, leave.ErrCreateForOtherForbidden
		}
	}
	if err := l.ensureEmployee(ctx, employeeID); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	leaveType, err := leave.ParseType(req.LeaveType)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to parse leave type: %w", err)
	}
	durationType, err := leave.ParseDurationType(req.DurationType)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to parse duration type: %w", err)
	}

	startDate, endDate := req.Span()
	days, err := CalculateDays(startDate, endDate, durationType)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	today := leave.DateOnly(l.now().In(l.location))
	if startDate.Before(today) {
		return leave.LeaveRequestResponse{}, leave.ErrStartInPast
	}

	created, err := l.requestService.CreateRequest(ctx, leave.LeaveRequest{
		EmployeeID:       employeeID,
		LeaveType:        leaveType,
		DurationType:     durationType,
		StartDate:        startDate,
		EndDate:          endDate,
		DaysRequested:    days,
		Reason:           req.Reason,
		EmergencyContact: req.EmergencyContact,
		SubmittedBy:      caller.UserID,
	})
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	return created.ToResponse(), nil
}

// ApproveLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) ApproveLeaveRequest(ctx context.Context, requestID string) (leave.LeaveRequestResponse, error) {
	caller, err := l.authorizeDecision(ctx, requestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	approved, err := l.requestService.Approve(ctx, requestID, caller.UserID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return approved.ToResponse(), nil
}

// RejectLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) RejectLeaveRequest(ctx context.Context, req leave.RejectLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	caller, err := l.authorizeDecision(ctx, req.ID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	rejected, err := l.requestService.Reject(ctx, req.ID, caller.UserID, req.Reason)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return rejected.ToResponse(), nil
}

// HoldLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) HoldLeaveRequest(ctx context.Context, req leave.HoldLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	caller, err := l.authorizeDecision(ctx, req.ID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	held, err := l.requestService.Hold(ctx, req.ID, caller.UserID, req.Comment)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return held.ToResponse(), nil
}

// ResumeLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) ResumeLeaveRequest(ctx context.Context, requestID string) (leave.LeaveRequestResponse, error) {
	caller, err := l.authorizeDecision(ctx, requestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	resumed, err := l.requestService.Resume(ctx, requestID, caller.UserID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return resumed.ToResponse(), nil
}

// CancelLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) CancelLeaveRequest(ctx context.Context, req leave.CancelLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	caller, err := l.gate.CurrentIdentity(ctx)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	request, err := l.LeaveRequestRepository.GetByID(ctx, req.ID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	// Only the requester or admin/hr
	if !caller.IsSelf(request.EmployeeID) && !caller.IsPrivileged() {
		return leave.LeaveRequestResponse{}, leave.ErrCancelNotAuthorized
	}

	cancelled, err := l.requestService.Cancel(ctx, request, caller.UserID, req.Reason)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return cancelled.ToResponse(), nil
}

// ReverseLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) ReverseLeaveRequest(ctx context.Context, req leave.ReverseLeaveRequestRequest) (leave.LeaveRequestResponse, error) {
	if err := req.Validate(); err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	caller, err := l.gate.CurrentIdentity(ctx)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	if !caller.IsPrivileged() {
		return leave.LeaveRequestResponse{}, leave.ErrReverseNotAuthorized
	}

	reversed, err := l.requestService.Reverse(ctx, req.ID, caller.UserID, req.Reason)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}
	return reversed.ToResponse(), nil
}

// GetLeaveRequest implements leave.LeaveService.
func (l *LeaveServiceImpl) GetLeaveRequest(ctx context.Context, requestID string) (leave.LeaveRequestResponse, error) {
	caller, err := l.gate.CurrentIdentity(ctx)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	request, err := l.LeaveRequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return leave.LeaveRequestResponse{}, err
	}

	allowed, err := user.CanActFor(ctx, l.gate, caller, request.EmployeeID)
	if err != nil {
		return leave.LeaveRequestResponse{}, fmt.Errorf("failed to check access: %w", err)
	}
	if !allowed {
		return leave.LeaveRequestResponse{}, leave.ErrUnauthorizedAccess
	}

	return request.ToResponse(), nil
}

// ListMyLeaveRequests implements leave.LeaveService.
func (l *LeaveServiceImpl) ListMyLeaveRequests(ctx context.Context, filter leave.LeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	caller, err := l.gate.CurrentIdentity(ctx)
	if err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}
	if caller.EmployeeID == "" {
		return leave.ListLeaveRequestResponse{}, user.ErrEmployeeProfileRequired
	}

	if err := filter.Validate(); err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}

	query := filter.Query()
	query.EmployeeIDs = []string{caller.EmployeeID}
	return l.list(ctx, filter, query)
}

// ListLeaveRequests implements leave.LeaveService. Admin and hr see every
// request, team leads only those of the employees they manage.
func (l *LeaveServiceImpl) ListLeaveRequests(ctx context.Context, filter leave.LeaveRequestFilter) (leave.ListLeaveRequestResponse, error) {
	caller, err := l.gate.CurrentIdentity(ctx)
	if err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}

	if err := filter.Validate(); err != nil {
		return leave.ListLeaveRequestResponse{}, err
	}

	query := filter.Query()
	switch caller.Role {
	case user.RoleAdmin, user.RoleHR:
		if filter.EmployeeID != nil {
			query.EmployeeIDs = []string{*filter.EmployeeID}
		}
	case user.RoleTeamLead:
		managed, err := l.gate.ManagedEmployeeIDs(ctx, caller.EmployeeID)
		if err != nil {
			return leave.ListLeaveRequestResponse{}, fmt.Errorf("failed to get managed employees: %w", err)
		}
		query.EmployeeIDs = make([]string, 0, len(managed))
		for _, id := range managed {
			if filter.EmployeeID == nil || *filter.EmployeeID == id {
				query.EmployeeIDs = append(query.EmployeeIDs, id)
			}
		}
	case user.RoleEmployee:
		return leave.ListLeaveRequestResponse{}, user.ErrInsufficientPermissions
	default:
		return leave.ListLeaveRequestResponse{}, user.ErrInsufficientPermissions
	}

	return l.list(ctx, filter, query)
}

func (l *LeaveServiceImpl) list(ctx context.Context, filter leave.LeaveRequestFilter, query leave.RequestQuery) (leave.ListLeaveRequestResponse, error) {
	requests, totalCount, err := l.LeaveRequestRepository.List(ctx, query)
	if err != nil {
		return leave.ListLeaveRequestResponse{}, fmt.Errorf("failed to list leave requests: %w", err)
	}

	responses := make([]leave.LeaveRequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, r.ToResponse())
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(filter.Limit)))

	// Calculate "showing" text
	start := (filter.Page-1)*filter.Limit + 1
	end := start + len(responses) - 1
	if end > int(totalCount) {
		end = int(totalCount)
	}
	showing := fmt.Sprintf("%d-%d of %d results", start, end, totalCount)
	if totalCount == 0 || len(responses) == 0 {
		showing = fmt.Sprintf("0 of %d results", totalCount)
	}

	return leave.ListLeaveRequestResponse{
		TotalCount:    totalCount,
		Page:          filter.Page,
		Limit:         filter.Limit,
		TotalPages:    totalPages,
		Showing:       showing,
		LeaveRequests: responses,
	}, nil
}

// GetLeaveBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) GetLeaveBalance(ctx context.Context, req leave.GetLeaveBalanceRequest) ([]leave.LeaveBalanceResponse, error) {
	caller, err := l.gate.CurrentIdentity(ctx)
	if err != nil {
		return nil, err
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	employeeID := caller.EmployeeID
	if req.EmployeeID != nil && *req.EmployeeID != "" {
		employeeID = *req.EmployeeID
	}
	if employeeID == "" {
		return nil, user.ErrEmployeeProfileRequired
	}

	allowed, err := user.CanActFor(ctx, l.gate, caller, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to check access: %w", err)
	}
	if !allowed {
		return nil, leave.ErrUnauthorizedAccess
	}
	if err := l.ensureEmployee(ctx, employeeID); err != nil {
		return nil, err
	}

	balances, err := l.ledger.ListByEmployeeYear(ctx, employeeID, req.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave balances: %w", err)
	}

	responses := make([]leave.LeaveBalanceResponse, 0, len(balances))
	for _, b := range balances {
		responses = append(responses, b.ToResponse())
	}
	return responses, nil
}

// ProvisionLeaveBalance implements leave.LeaveService.
func (l *LeaveServiceImpl) ProvisionLeaveBalance(ctx context.Context, req leave.ProvisionLeaveBalanceRequest) (leave.LeaveBalanceResponse, error) {
	caller, err := l.gate.CurrentIdentity(ctx)
	if err != nil {
		return leave.LeaveBalanceResponse{}, err
	}
	if !caller.IsPrivileged() {
		return leave.LeaveBalanceResponse{}, leave.ErrProvisionNotAuthorized
	}

	if err := req.Validate(); err != nil {
		return leave.LeaveBalanceResponse{}, err
	}
	if err := l.ensureEmployee(ctx, req.EmployeeID); err != nil {
		return leave.LeaveBalanceResponse{}, err
	}

	leaveType, err := leave.ParseType(req.LeaveType)
	if err != nil {
		return leave.LeaveBalanceResponse{}, fmt.Errorf("failed to parse leave type: %w", err)
	}

	key := leave.BalanceKey{EmployeeID: req.EmployeeID, LeaveType: leaveType, Year: req.Year}
	balance, err := l.ledger.Provision(ctx, key, req.TotalAllocated, req.CarriedForward, LedgerRef{CreatedBy: &caller.UserID})
	if err != nil {
		return leave.LeaveBalanceResponse{}, err
	}
	return balance.ToResponse(), nil
}

// GetLeaveStats implements leave.LeaveService.
func (l *LeaveServiceImpl) GetLeaveStats(ctx context.Context, year int) (leave.LeaveStatsResponse, error) {
	caller, err := l.gate.CurrentIdentity(ctx)
	if err != nil {
		return leave.LeaveStatsResponse{}, err
	}
	if !caller.IsPrivileged() {
		return leave.LeaveStatsResponse{}, user.ErrInsufficientPermissions
	}

	counts, approvedDays, err := l.LeaveRequestRepository.CountByStatus(ctx, year)
	if err != nil {
		return leave.LeaveStatsResponse{}, fmt.Errorf("failed to count leave requests: %w", err)
	}

	stats := leave.LeaveStatsResponse{
		Year:         year,
		Pending:      counts[leave.StatusPending],
		OnHold:       counts[leave.StatusOnHold],
		Approved:     counts[leave.StatusApproved],
		Rejected:     counts[leave.StatusRejected],
		Cancelled:    counts[leave.StatusCancelled],
		ApprovedDays: approvedDays,
	}
	stats.Total = stats.Pending + stats.OnHold + stats.Approved + stats.Rejected + stats.Cancelled
	return stats, nil
}

// ProvisionYear implements leave.BalanceProvisioner.
func (l *LeaveServiceImpl) ProvisionYear(ctx context.Context, year int) (int, error) {
	return l.ledger.ProvisionYear(ctx, year)
}

// authorizeDecision loads the request and checks that the caller may decide
// on it: admin/hr, or a team lead managing the requester.
func (l *LeaveServiceImpl) authorizeDecision(ctx context.Context, requestID string) (user.Identity, error) {
	caller, err := l.gate.CurrentIdentity(ctx)
	if err != nil {
		return user.Identity{}, err
	}

	request, err := l.LeaveRequestRepository.GetByID(ctx, requestID)
	if err != nil {
		return user.Identity{}, err
	}

	allowed, err := user.CanSupervise(ctx, l.gate, caller, request.EmployeeID)
	if err != nil {
		return user.Identity{}, fmt.Errorf("failed to check supervisor: %w", err)
	}
	if !allowed {
		return user.Identity{}, leave.ErrApproverNotAuthorized
	}
	return caller, nil
}

func (l *LeaveServiceImpl) ensureEmployee(ctx context.Context, employeeID string) error {
	exists, err := l.Directory.Exists(ctx, employeeID)
	if err != nil {
		return fmt.Errorf("failed to check employee: %w", err)
	}
	if !exists {
		return employee.ErrEmployeeNotFound
	}
	return nil
}
