package attendance

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

var (
	statusValues    = []string{"present", "absent", "late", "half_day", "on_leave"}
	breakTypeValues = []string{"lunch", "tea", "personal", "other"}
)

type CheckInRequest struct {
	Notes *string `json:"notes,omitempty"`
}

func (r *CheckInRequest) Validate() error {
	return validateNotes(r.Notes)
}

type CheckOutRequest struct {
	Notes *string `json:"notes,omitempty"`
}

func (r *CheckOutRequest) Validate() error {
	return validateNotes(r.Notes)
}

func validateNotes(notes *string) error {
	if notes != nil && len(*notes) > 500 {
		return validator.ValidationErrors{{
			Field:   "notes",
			Message: "notes must not exceed 500 characters",
		}}
	}
	return nil
}

type StartBreakRequest struct {
	BreakType string  `json:"break_type"`
	Notes     *string `json:"notes,omitempty"`
}

func (r *StartBreakRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.BreakType == "" {
		r.BreakType = string(BreakOther)
	}
	if !validator.IsInSlice(r.BreakType, breakTypeValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "break_type",
			Message: "break_type must be one of: lunch, tea, personal, other",
		})
	}
	if r.Notes != nil && len(*r.Notes) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "notes must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EndBreakRequest struct{}

func (r *EndBreakRequest) Validate() error {
	return nil
}

type MyAttendanceFilter struct {
	From *string `json:"from,omitempty"` // YYYY-MM-DD
	To   *string `json:"to,omitempty"`   // YYYY-MM-DD
}

func (f *MyAttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	var from, to time.Time
	var okFrom, okTo bool
	if f.From != nil {
		if from, okFrom = validator.IsValidDate(*f.From); !okFrom {
			errs = append(errs, validator.ValidationError{
				Field:   "from",
				Message: "from must be in YYYY-MM-DD format",
			})
		}
	}
	if f.To != nil {
		if to, okTo = validator.IsValidDate(*f.To); !okTo {
			errs = append(errs, validator.ValidationError{
				Field:   "to",
				Message: "to must be in YYYY-MM-DD format",
			})
		}
	}
	if okFrom && okTo {
		if from.After(to) {
			errs = append(errs, validator.ValidationError{
				Field:   "from",
				Message: "from must not be after to",
			})
		} else if to.Sub(from) > 366*24*time.Hour {
			errs = append(errs, validator.ValidationError{
				Field:   "to",
				Message: "range must not exceed one year",
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type MonthlySummaryRequest struct {
	// Empty means the caller's own employee profile
	EmployeeID *string `json:"employee_id,omitempty"`
	Year       int     `json:"year"`
	Month      int     `json:"month"`
}

func (r *MonthlySummaryRequest) Validate() error {
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
	if r.Month < 1 || r.Month > 12 {
		errs = append(errs, validator.ValidationError{
			Field:   "month",
			Message: "month must be between 1 and 12",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// BackfillAttendanceRequest lets admin/hr record a day after the fact,
// e.g. when the employee forgot to check in.
type BackfillAttendanceRequest struct {
	EmployeeID string  `json:"employee_id"`
	Date       string  `json:"date"`                // YYYY-MM-DD
	Status     string  `json:"status"`              // present, absent, late, half_day, on_leave
	CheckIn    *string `json:"check_in,omitempty"`  // RFC3339
	CheckOut   *string `json:"check_out,omitempty"` // RFC3339
	Notes      *string `json:"notes,omitempty"`
}

func (r *BackfillAttendanceRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUUID(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id must be a valid UUID",
		})
	}
	if _, ok := validator.IsValidDate(r.Date); !ok {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}
	if !validator.IsInSlice(r.Status, statusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: present, absent, late, half_day, on_leave",
		})
	}

	var checkIn, checkOut time.Time
	var okIn, okOut bool
	if r.CheckIn != nil {
		if checkIn, okIn = validator.IsValidDateTime(*r.CheckIn); !okIn {
			errs = append(errs, validator.ValidationError{
				Field:   "check_in",
				Message: "check_in must be an RFC3339 timestamp",
			})
		}
	}
	if r.CheckOut != nil {
		if checkOut, okOut = validator.IsValidDateTime(*r.CheckOut); !okOut {
			errs = append(errs, validator.ValidationError{
				Field:   "check_out",
				Message: "check_out must be an RFC3339 timestamp",
			})
		}
		if r.CheckIn == nil {
			errs = append(errs, validator.ValidationError{
				Field:   "check_out",
				Message: "check_out requires check_in",
			})
		}
	}
	if okIn && okOut && !checkOut.After(checkIn) {
		errs = append(errs, validator.ValidationError{
			Field:   "check_out",
			Message: "check_out must be after check_in",
		})
	}

	switch Status(r.Status) {
	case StatusAbsent, StatusOnLeave:
		if r.CheckIn != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "check_in",
				Message: "check_in is not allowed for absent or on_leave records",
			})
		}
	case StatusPresent, StatusLate, StatusHalfDay:
		if r.CheckIn == nil {
			errs = append(errs, validator.ValidationError{
				Field:   "check_in",
				Message: "check_in is required for present, late or half_day records",
			})
		}
	}

	if r.Notes != nil && len(*r.Notes) > 500 {
		errs = append(errs, validator.ValidationError{
			Field:   "notes",
			Message: "notes must not exceed 500 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type AttendanceResponse struct {
	ID          string          `json:"id"`
	EmployeeID  string          `json:"employee_id"`
	Date        string          `json:"date"`
	CheckIn     *string         `json:"check_in,omitempty"`
	CheckOut    *string         `json:"check_out,omitempty"`
	Status      string          `json:"status"`
	WorkedHours decimal.Decimal `json:"worked_hours"`
	Notes       *string         `json:"notes,omitempty"`
	Breaks      []BreakResponse `json:"breaks"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

type BreakResponse struct {
	ID              string  `json:"id"`
	AttendanceID    string  `json:"attendance_id"`
	BreakType       string  `json:"break_type"`
	StartedAt       string  `json:"started_at"`
	EndedAt         *string `json:"ended_at,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	Notes           *string `json:"notes,omitempty"`
}

type TodayResponse struct {
	Date              string              `json:"date"`
	State             string              `json:"state"`
	AllowedActions    []string            `json:"allowed_actions"`
	Attendance        *AttendanceResponse `json:"attendance,omitempty"`
	OpenBreak         *BreakResponse      `json:"open_break,omitempty"`
	TotalBreakMinutes int                 `json:"total_break_minutes"`
}

type MonthlySummaryResponse struct {
	EmployeeID        string          `json:"employee_id"`
	Year              int             `json:"year"`
	Month             int             `json:"month"`
	DaysRecorded      int             `json:"days_recorded"`
	Present           int             `json:"present"`
	Late              int             `json:"late"`
	HalfDay           int             `json:"half_day"`
	Absent            int             `json:"absent"`
	OnLeave           int             `json:"on_leave"`
	TotalWorkedHours  decimal.Decimal `json:"total_worked_hours"`
	TotalBreakMinutes int             `json:"total_break_minutes"`
}

func (d AttendanceDay) ToResponse() AttendanceResponse {
	resp := AttendanceResponse{
		ID:          d.ID,
		EmployeeID:  d.EmployeeID,
		Date:        d.Date.Format(validator.DateLayout),
		Status:      string(d.Status),
		WorkedHours: d.WorkedHours,
		Notes:       d.Notes,
		Breaks:      make([]BreakResponse, 0, len(d.Breaks)),
		CreatedAt:   d.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   d.UpdatedAt.Format(time.RFC3339),
	}
	if d.CheckIn != nil {
		s := d.CheckIn.Format(time.RFC3339)
		resp.CheckIn = &s
	}
	if d.CheckOut != nil {
		s := d.CheckOut.Format(time.RFC3339)
		resp.CheckOut = &s
	}
	for _, b := range d.Breaks {
		resp.Breaks = append(resp.Breaks, b.ToResponse())
	}
	return resp
}

func (b BreakInterval) ToResponse() BreakResponse {
	resp := BreakResponse{
		ID:              b.ID,
		AttendanceID:    b.AttendanceID,
		BreakType:       string(b.Type),
		StartedAt:       b.StartedAt.Format(time.RFC3339),
		DurationMinutes: b.DurationMinutes,
		Notes:           b.Notes,
	}
	if b.EndedAt != nil {
		s := b.EndedAt.Format(time.RFC3339)
		resp.EndedAt = &s
	}
	return resp
}

func (s MonthlySummary) ToResponse() MonthlySummaryResponse {
	return MonthlySummaryResponse{
		EmployeeID:        s.EmployeeID,
		Year:              s.Year,
		Month:             int(s.Month),
		DaysRecorded:      s.DaysRecorded,
		Present:           s.ByStatus[StatusPresent],
		Late:              s.ByStatus[StatusLate],
		HalfDay:           s.ByStatus[StatusHalfDay],
		Absent:            s.ByStatus[StatusAbsent],
		OnLeave:           s.ByStatus[StatusOnLeave],
		TotalWorkedHours:  s.TotalWorkedHours,
		TotalBreakMinutes: s.TotalBreakMins,
	}
}
