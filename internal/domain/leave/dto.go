package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var (
	typeValues     = []string{"annual", "sick", "casual", "maternity", "paternity", "unpaid", "emergency"}
	durationValues = []string{"full_day", "half_day_morning", "half_day_afternoon"}
	statusValues   = []string{"pending", "approved", "rejected", "on_hold", "cancelled"}
)

type CreateLeaveRequestRequest struct {
	// Empty means the caller's own employee profile
	EmployeeID       *string `json:"employee_id,omitempty"`
	LeaveType        string  `json:"leave_type"`
	DurationType     string  `json:"duration_type"`
	StartDate        string  `json:"start_date"` // YYYY-MM-DD
	EndDate          string  `json:"end_date"`   // YYYY-MM-DD
	Reason           string  `json:"reason"`
	EmergencyContact *string `json:"emergency_contact,omitempty"`
}

func (r *CreateLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID != nil && !validator.IsValidUUID(*r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}

	// Leave type
	if validator.IsEmpty(r.LeaveType) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type",
			Message: "leave_type is required",
		})
	} else if !validator.IsInSlice(r.LeaveType, typeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type",
			Message: "leave_type must be one of: annual, sick, casual, maternity, paternity, unpaid, emergency",
		})
	}

	// Duration type defaults to a full day
	if r.DurationType == "" {
		r.DurationType = string(DurationFullDay)
	}
	if !validator.IsInSlice(r.DurationType, durationValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "duration_type",
			Message: "duration_type must be one of: full_day, half_day_morning, half_day_afternoon",
		})
	}

	// Dates
	if validator.IsEmpty(r.StartDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date is required",
		})
	} else if _, ok := validator.IsValidDate(r.StartDate); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "start_date",
			Message: "start_date must be in YYYY-MM-DD format",
		})
	}
	if validator.IsEmpty(r.EndDate) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date is required",
		})
	} else if _, ok := validator.IsValidDate(r.EndDate); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must be in YYYY-MM-DD format",
		})
	}

	// Reason
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}
	if len(r.Reason) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 1000 characters",
		})
	}

	if r.EmergencyContact != nil && len(*r.EmergencyContact) > 255 {
		errs = append(errs, validator.ValidationError{
			Field:   "emergency_contact",
			Message: "emergency_contact must not exceed 255 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// Span returns the parsed dates. Only meaningful after Validate succeeded.
func (r *CreateLeaveRequestRequest) Span() (time.Time, time.Time) {
	start, _ := validator.IsValidDate(r.StartDate)
	end, _ := validator.IsValidDate(r.EndDate)
	return start, end
}

type RejectLeaveRequestRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

func (r *RejectLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}
	if len(r.Reason) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 1000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type HoldLeaveRequestRequest struct {
	ID      string  `json:"-"`
	Comment *string `json:"comment,omitempty"`
}

func (r *HoldLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}
	if r.Comment != nil && len(*r.Comment) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "comment",
			Message: "comment must not exceed 1000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CancelLeaveRequestRequest struct {
	ID     string  `json:"-"`
	Reason *string `json:"reason,omitempty"`
}

func (r *CancelLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}
	if r.Reason != nil && len(*r.Reason) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 1000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ReverseLeaveRequestRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

func (r *ReverseLeaveRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type LeaveRequestFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	LeaveType  *string `json:"leave_type,omitempty"`
	Year       *int    `json:"year,omitempty"`

	// Pagination
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *LeaveRequestFilter) Validate() error {
	var errs validator.ValidationErrors

	// Page validation
	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1 // Default page
	}

	// Limit validation
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20 // Default limit
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if f.EmployeeID != nil && !validator.IsValidUUID(*f.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}
	if f.Status != nil && !validator.IsInSlice(*f.Status, statusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: pending, approved, rejected, on_hold, cancelled",
		})
	}
	if f.LeaveType != nil && !validator.IsInSlice(*f.LeaveType, typeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type",
			Message: "leave_type must be one of: annual, sick, casual, maternity, paternity, unpaid, emergency",
		})
	}
	if f.Year != nil && (*f.Year < 2000 || *f.Year > 2100) {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be between 2000 and 2100",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Query converts a validated filter into a repository query.
func (f LeaveRequestFilter) Query() RequestQuery {
	q := RequestQuery{Year: f.Year, Page: f.Page, Limit: f.Limit}
	if f.Status != nil {
		s := Status(*f.Status)
		q.Status = &s
	}
	if f.LeaveType != nil {
		t := Type(*f.LeaveType)
		q.LeaveType = &t
	}
	return q
}

type GetLeaveBalanceRequest struct {
	// Empty means the caller's own employee profile
	EmployeeID *string `json:"employee_id,omitempty"`
	Year       int     `json:"year"`
}

func (r *GetLeaveBalanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.EmployeeID != nil && !validator.IsValidUUID(*r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}
	if r.Year < 2000 || r.Year > 2100 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be between 2000 and 2100",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ProvisionLeaveBalanceRequest struct {
	EmployeeID     string          `json:"employee_id"`
	LeaveType      string          `json:"leave_type"`
	Year           int             `json:"year"`
	TotalAllocated decimal.Decimal `json:"total_allocated"`
	CarriedForward decimal.Decimal `json:"carried_forward"`
}

func (r *ProvisionLeaveBalanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}
	if !validator.IsInSlice(r.LeaveType, typeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "leave_type",
			Message: "leave_type must be one of: annual, sick, casual, maternity, paternity, unpaid, emergency",
		})
	}
	if r.Year < 2000 || r.Year > 2100 {
		errs = append(errs, validator.ValidationError{
			Field:   "year",
			Message: "year must be between 2000 and 2100",
		})
	}
	if r.TotalAllocated.IsNegative() {
		errs = append(errs, validator.ValidationError{
			Field:   "total_allocated",
			Message: "total_allocated must not be negative",
		})
	}
	if r.CarriedForward.IsNegative() {
		errs = append(errs, validator.ValidationError{
			Field:   "carried_forward",
			Message: "carried_forward must not be negative",
		})
	}
	// Half-day granularity
	two := decimal.NewFromInt(2)
	if !r.TotalAllocated.Mul(two).IsInteger() || !r.CarriedForward.Mul(two).IsInteger() {
		errs = append(errs, validator.ValidationError{
			Field:   "total_allocated",
			Message: "allocations must be whole or half days",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type LeaveRequestResponse struct {
	ID                 string          `json:"id"`
	EmployeeID         string          `json:"employee_id"`
	LeaveType          string          `json:"leave_type"`
	DurationType       string          `json:"duration_type"`
	StartDate          string          `json:"start_date"`
	EndDate            string          `json:"end_date"`
	DaysRequested      decimal.Decimal `json:"days_requested"`
	Reason             string          `json:"reason"`
	EmergencyContact   *string         `json:"emergency_contact,omitempty"`
	Status             string          `json:"status"`
	SubmittedBy        string          `json:"submitted_by"`
	ApprovedBy         *string         `json:"approved_by,omitempty"`
	ApprovedAt         *string         `json:"approved_at,omitempty"`
	RejectionReason    *string         `json:"rejection_reason,omitempty"`
	AdminComment       *string         `json:"admin_comment,omitempty"`
	CancelledBy        *string         `json:"cancelled_by,omitempty"`
	CancelledAt        *string         `json:"cancelled_at,omitempty"`
	CancellationReason *string         `json:"cancellation_reason,omitempty"`
	CreatedAt          string          `json:"created_at"`
	UpdatedAt          string          `json:"updated_at"`
}

type ListLeaveRequestResponse struct {
	TotalCount    int64                  `json:"total_count"`
	Page          int                    `json:"page"`
	Limit         int                    `json:"limit"`
	TotalPages    int                    `json:"total_pages"`
	Showing       string                 `json:"showing"`
	LeaveRequests []LeaveRequestResponse `json:"leave_requests"`
}

type LeaveBalanceResponse struct {
	EmployeeID     string          `json:"employee_id"`
	LeaveType      string          `json:"leave_type"`
	Year           int             `json:"year"`
	TotalAllocated decimal.Decimal `json:"total_allocated"`
	CarriedForward decimal.Decimal `json:"carried_forward"`
	Taken          decimal.Decimal `json:"taken"`
	Remaining      decimal.Decimal `json:"remaining"`
	UpdatedAt      string          `json:"updated_at"`
}

type LeaveStatsResponse struct {
	Year         int             `json:"year"`
	Pending      int             `json:"pending"`
	OnHold       int             `json:"on_hold"`
	Approved     int             `json:"approved"`
	Rejected     int             `json:"rejected"`
	Cancelled    int             `json:"cancelled"`
	Total        int             `json:"total"`
	ApprovedDays decimal.Decimal `json:"approved_days"`
}

// ToResponse maps the entity onto its JSON shape.
func (r LeaveRequest) ToResponse() LeaveRequestResponse {
	resp := LeaveRequestResponse{
		ID:                 r.ID,
		EmployeeID:         r.EmployeeID,
		LeaveType:          string(r.LeaveType),
		DurationType:       string(r.DurationType),
		StartDate:          r.StartDate.Format(validator.DateLayout),
		EndDate:            r.EndDate.Format(validator.DateLayout),
		DaysRequested:      r.DaysRequested,
		Reason:             r.Reason,
		EmergencyContact:   r.EmergencyContact,
		Status:             string(r.Status),
		SubmittedBy:        r.SubmittedBy,
		ApprovedBy:         r.ApprovedBy,
		RejectionReason:    r.RejectionReason,
		AdminComment:       r.AdminComment,
		CancelledBy:        r.CancelledBy,
		CancellationReason: r.CancellationReason,
		CreatedAt:          r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          r.UpdatedAt.Format(time.RFC3339),
	}
	if r.ApprovedAt != nil {
		s := r.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}
	if r.CancelledAt != nil {
		s := r.CancelledAt.Format(time.RFC3339)
		resp.CancelledAt = &s
	}
	return resp
}

func (b LeaveBalance) ToResponse() LeaveBalanceResponse {
	return LeaveBalanceResponse{
		EmployeeID:     b.Key.EmployeeID,
		LeaveType:      string(b.Key.LeaveType),
		Year:           b.Key.Year,
		TotalAllocated: b.TotalAllocated,
		CarriedForward: b.CarriedForward,
		Taken:          b.Taken,
		Remaining:      b.Remaining,
		UpdatedAt:      b.UpdatedAt.Format(time.RFC3339),
	}
}
