package leave

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Type is the category of absence.
type Type string

const (
	TypeAnnual    Type = "annual"
	TypeSick      Type = "sick"
	TypeCasual    Type = "casual"
	TypeMaternity Type = "maternity"
	TypePaternity Type = "paternity"
	TypeUnpaid    Type = "unpaid"
	TypeEmergency Type = "emergency"
)

// Types lists every leave type in display order.
var Types = []Type{TypeAnnual, TypeSick, TypeCasual, TypeMaternity, TypePaternity, TypeUnpaid, TypeEmergency}

func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeAnnual, TypeSick, TypeCasual, TypeMaternity, TypePaternity, TypeUnpaid, TypeEmergency:
		return t, nil
	}
	return "", fmt.Errorf("unknown leave type %q", s)
}

// DurationType maps to the duration_type column
type DurationType string

const (
	DurationFullDay          DurationType = "full_day"
	DurationHalfDayMorning   DurationType = "half_day_morning"
	DurationHalfDayAfternoon DurationType = "half_day_afternoon"
)

func ParseDurationType(s string) (DurationType, error) {
	switch d := DurationType(s); d {
	case DurationFullDay, DurationHalfDayMorning, DurationHalfDayAfternoon:
		return d, nil
	}
	return "", fmt.Errorf("unknown duration type %q", s)
}

func (d DurationType) IsHalfDay() bool {
	switch d {
	case DurationHalfDayMorning, DurationHalfDayAfternoon:
		return true
	case DurationFullDay:
		return false
	}
	return false
}

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusOnHold    Status = "on_hold"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusApproved, StatusRejected, StatusOnHold, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown leave status %q", s)
}

// IsTerminal reports whether ordinary operations may still move the request.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApproved, StatusRejected, StatusCancelled:
		return true
	case StatusPending, StatusOnHold:
		return false
	}
	return false
}

// CanTransitionTo is the edge table of the request lifecycle. The single
// edge out of approved belongs to the privileged reversal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		switch next {
		case StatusApproved, StatusRejected, StatusCancelled, StatusOnHold:
			return true
		}
	case StatusOnHold:
		switch next {
		case StatusPending, StatusApproved, StatusRejected:
			return true
		}
	case StatusApproved:
		return next == StatusCancelled
	case StatusRejected, StatusCancelled:
		return false
	}
	return false
}

// BlocksOverlap reports whether a request in this status occupies its dates.
func (s Status) BlocksOverlap() bool {
	switch s {
	case StatusPending, StatusOnHold, StatusApproved:
		return true
	case StatusRejected, StatusCancelled:
		return false
	}
	return false
}

// LeaveRequest entity
type LeaveRequest struct {
	ID           string
	EmployeeID   string
	LeaveType    Type
	DurationType DurationType

	// Inclusive, date only (UTC midnight)
	StartDate     time.Time
	EndDate       time.Time
	DaysRequested decimal.Decimal

	Reason           string
	EmergencyContact *string

	Status          Status
	SubmittedBy     string
	ApprovedBy      *string
	ApprovedAt      *time.Time
	RejectionReason *string
	AdminComment    *string

	CancelledBy        *string
	CancelledAt        *time.Time
	CancellationReason *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Year selects the balance row a request is charged to. Requests spanning
// Dec 31 -> Jan 1 are charged entirely to the start year.
func (r LeaveRequest) Year() int {
	return r.StartDate.Year()
}

func (r LeaveRequest) BalanceKey() BalanceKey {
	return BalanceKey{EmployeeID: r.EmployeeID, LeaveType: r.LeaveType, Year: r.Year()}
}

// Covers reports whether the request spans the given date.
func (r LeaveRequest) Covers(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(r.StartDate) && !d.After(r.EndDate)
}

// Overlaps compares inclusive date ranges. Two half-day requests on the same
// single date only collide when they claim the same half.
func (r LeaveRequest) Overlaps(other LeaveRequest) bool {
	if r.StartDate.After(other.EndDate) || other.StartDate.After(r.EndDate) {
		return false
	}
	if r.DurationType.IsHalfDay() && other.DurationType.IsHalfDay() {
		return r.DurationType == other.DurationType
	}
	return true
}

// Transition describes one status change applied by the repository as a
// conditional update.
type Transition struct {
	From []Status
	To   Status
	By   string
	At   time.Time

	RejectionReason    *string
	AdminComment       *string
	CancellationReason *string
}

// BalanceKey identifies one ledger row.
type BalanceKey struct {
	EmployeeID string
	LeaveType  Type
	Year       int
}

func (k BalanceKey) String() string {
	return fmt.Sprintf("%s/%s/%d", k.EmployeeID, k.LeaveType, k.Year)
}

// LeaveBalance is the maintained running total for one BalanceKey.
type LeaveBalance struct {
	ID             string
	Key            BalanceKey
	TotalAllocated decimal.Decimal
	CarriedForward decimal.Decimal
	Taken          decimal.Decimal
	Remaining      decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Consistent checks remaining == total_allocated + carried_forward - taken
// and that no field is negative.
func (b LeaveBalance) Consistent() bool {
	for _, v := range []decimal.Decimal{b.TotalAllocated, b.CarriedForward, b.Taken, b.Remaining} {
		if v.IsNegative() {
			return false
		}
	}
	return b.Remaining.Equal(b.TotalAllocated.Add(b.CarriedForward).Sub(b.Taken))
}

type EntryKind string

const (
	EntryDebit     EntryKind = "debit"
	EntryCredit    EntryKind = "credit"
	EntryProvision EntryKind = "provision"
)

// LedgerEntry is one journal line behind a balance change.
type LedgerEntry struct {
	ID        string
	Key       BalanceKey
	RequestID *string
	Kind      EntryKind
	Days      decimal.Decimal
	Note      *string
	CreatedBy *string
	CreatedAt time.Time
}

// Stats counts requests per status for one year.
type Stats struct {
	Year         int
	ByStatus     map[Status]int
	ApprovedDays decimal.Decimal
}

// DateOnly truncates t to its calendar date at UTC midnight, keeping the
// wall-clock date of t's own location.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
