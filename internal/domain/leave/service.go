package leave

import (
	"context"
)

type LeaveService interface {
	// Request
	CreateLeaveRequest(ctx context.Context, req CreateLeaveRequestRequest) (LeaveRequestResponse, error)
	ApproveLeaveRequest(ctx context.Context, requestID string) (LeaveRequestResponse, error)
	RejectLeaveRequest(ctx context.Context, req RejectLeaveRequestRequest) (LeaveRequestResponse, error)
	HoldLeaveRequest(ctx context.Context, req HoldLeaveRequestRequest) (LeaveRequestResponse, error)
	ResumeLeaveRequest(ctx context.Context, requestID string) (LeaveRequestResponse, error)
	CancelLeaveRequest(ctx context.Context, req CancelLeaveRequestRequest) (LeaveRequestResponse, error)
	ReverseLeaveRequest(ctx context.Context, req ReverseLeaveRequestRequest) (LeaveRequestResponse, error)
	GetLeaveRequest(ctx context.Context, requestID string) (LeaveRequestResponse, error)
	ListMyLeaveRequests(ctx context.Context, filter LeaveRequestFilter) (ListLeaveRequestResponse, error)
	ListLeaveRequests(ctx context.Context, filter LeaveRequestFilter) (ListLeaveRequestResponse, error)
	// Balance
	GetLeaveBalance(ctx context.Context, req GetLeaveBalanceRequest) ([]LeaveBalanceResponse, error)
	ProvisionLeaveBalance(ctx context.Context, req ProvisionLeaveBalanceRequest) (LeaveBalanceResponse, error)
	GetLeaveStats(ctx context.Context, year int) (LeaveStatsResponse, error)
}

// BalanceProvisioner seeds a year's balances for every active employee.
type BalanceProvisioner interface {
	ProvisionYear(ctx context.Context, year int) (int, error)
}
