package user

import "github.com/cmlabs-hris/hris-timekeeping/internal/pkg/apperror"

var (
	ErrIdentityMissing         = apperror.New(apperror.KindUnauthenticated, "caller identity is missing or invalid")
	ErrEmployeeProfileRequired = apperror.Authorization("an employee profile is required for this action")
	ErrInsufficientPermissions = apperror.Authorization("insufficient permissions")
	ErrNotSupervisor           = apperror.Authorization("you do not manage this employee")
)
