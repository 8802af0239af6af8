package attendance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusHalfDay Status = "half_day"
	StatusOnLeave Status = "on_leave"
)

// Statuses lists every day status in display order.
var Statuses = []Status{StatusPresent, StatusLate, StatusHalfDay, StatusAbsent, StatusOnLeave}

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPresent, StatusAbsent, StatusLate, StatusHalfDay, StatusOnLeave:
		return st, nil
	}
	return "", fmt.Errorf("unknown attendance status %q", s)
}

type BreakType string

const (
	BreakLunch    BreakType = "lunch"
	BreakTea      BreakType = "tea"
	BreakPersonal BreakType = "personal"
	BreakOther    BreakType = "other"
)

func ParseBreakType(s string) (BreakType, error) {
	switch b := BreakType(s); b {
	case BreakLunch, BreakTea, BreakPersonal, BreakOther:
		return b, nil
	}
	return "", fmt.Errorf("unknown break type %q", s)
}

// AttendanceDay is one employee's record for one calendar date.
type AttendanceDay struct {
	ID          string
	EmployeeID  string
	Date        time.Time // UTC midnight of the local date
	CheckIn     *time.Time
	CheckOut    *time.Time
	Status      Status
	WorkedHours decimal.Decimal
	Notes       *string
	Breaks      []BreakInterval
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// OpenBreak returns the break still running, if any.
func (d AttendanceDay) OpenBreak() *BreakInterval {
	for i := range d.Breaks {
		if d.Breaks[i].IsOpen() {
			return &d.Breaks[i]
		}
	}
	return nil
}

// BreakMinutes sums closed breaks.
func (d AttendanceDay) BreakMinutes() int {
	total := 0
	for _, b := range d.Breaks {
		if b.DurationMinutes != nil {
			total += *b.DurationMinutes
		}
	}
	return total
}

// State derives where the employee is in the day's workflow.
func (d AttendanceDay) State() DayState {
	switch {
	case d.Status == StatusOnLeave && d.CheckIn == nil:
		return StateOnLeave
	case d.CheckIn == nil:
		return StateNotCheckedIn
	case d.CheckOut != nil:
		return StateCheckedOut
	case d.OpenBreak() != nil:
		return StateOnBreak
	}
	return StateCheckedIn
}

type BreakInterval struct {
	ID              string
	AttendanceID    string
	Type            BreakType
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationMinutes *int
	Notes           *string
	CreatedAt       time.Time
}

func (b BreakInterval) IsOpen() bool {
	return b.EndedAt == nil
}

type DayState string

const (
	StateNotCheckedIn DayState = "not_checked_in"
	StateCheckedIn    DayState = "checked_in"
	StateOnBreak      DayState = "on_break"
	StateCheckedOut   DayState = "checked_out"
	StateOnLeave      DayState = "on_leave"
)

// AllowedActions lists what the employee may do next from this state.
func (s DayState) AllowedActions() []string {
	switch s {
	case StateNotCheckedIn:
		return []string{"check_in"}
	case StateCheckedIn:
		return []string{"start_break", "check_out"}
	case StateOnBreak:
		return []string{"end_break"}
	case StateCheckedOut, StateOnLeave:
		return []string{}
	}
	return []string{}
}

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// ParseClock reads "HH:MM".
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return Clock{}, fmt.Errorf("invalid clock %q: %w", s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// Policy holds the tenant's timekeeping rules.
type Policy struct {
	Location *time.Location
	// Nil disables late classification.
	LateCutoff *Clock
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// LocalDate is the calendar date of at in the policy's location, as UTC midnight.
func (p Policy) LocalDate(at time.Time) time.Time {
	y, m, d := at.In(p.location()).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Classify marks a check-in late when its local wall-clock time is after
// the cutoff. A check-in exactly at the cutoff is on time.
func Classify(checkIn time.Time, policy Policy) Status {
	if policy.LateCutoff == nil {
		return StatusPresent
	}
	loc := policy.location()
	local := checkIn.In(loc)
	cutoff := time.Date(local.Year(), local.Month(), local.Day(), policy.LateCutoff.Hour, policy.LateCutoff.Minute, 0, 0, loc)
	if local.After(cutoff) {
		return StatusLate
	}
	return StatusPresent
}

// WorkedHours is the elapsed time between check-in and check-out minus every
// closed break, each clipped to the working window, rounded to 2 decimals.
func WorkedHours(checkIn, checkOut time.Time, breaks []BreakInterval) decimal.Decimal {
	if !checkOut.After(checkIn) {
		return decimal.Zero
	}
	worked := checkOut.Sub(checkIn)
	for _, b := range breaks {
		if b.EndedAt == nil {
			continue
		}
		start, end := b.StartedAt, *b.EndedAt
		if start.Before(checkIn) {
			start = checkIn
		}
		if end.After(checkOut) {
			end = checkOut
		}
		if end.After(start) {
			worked -= end.Sub(start)
		}
	}
	if worked < 0 {
		worked = 0
	}
	return decimal.NewFromInt(int64(worked / time.Second)).
		Div(decimal.NewFromInt(3600)).
		Round(2)
}

// MonthlySummary aggregates one employee's month.
type MonthlySummary struct {
	EmployeeID       string
	Year             int
	Month            time.Month
	ByStatus         map[Status]int
	DaysRecorded     int
	TotalWorkedHours decimal.Decimal
	TotalBreakMins   int
}

// Summarize folds the days into a MonthlySummary.
func Summarize(employeeID string, year int, month time.Month, days []AttendanceDay) MonthlySummary {
	s := MonthlySummary{
		EmployeeID:       employeeID,
		Year:             year,
		Month:            month,
		ByStatus:         make(map[Status]int, len(Statuses)),
		TotalWorkedHours: decimal.Zero,
	}
	for _, st := range Statuses {
		s.ByStatus[st] = 0
	}
	for _, d := range days {
		s.ByStatus[d.Status]++
		s.DaysRecorded++
		s.TotalWorkedHours = s.TotalWorkedHours.Add(d.WorkedHours)
		s.TotalBreakMins += d.BreakMinutes()
	}
	return s
}
