package leave

import (
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestStatus_CanTransitionTo(t *testing.T) {
	allowed := map[Status][]Status{
		StatusPending:  {StatusApproved, StatusRejected, StatusCancelled, StatusOnHold},
		StatusOnHold:   {StatusPending, StatusApproved, StatusRejected},
		StatusApproved: {StatusCancelled},
	}
	all := []Status{StatusPending, StatusApproved, StatusRejected, StatusOnHold, StatusCancelled}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, s := range allowed[from] {
				if s == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusOnHold.IsTerminal())
	assert.True(t, StatusApproved.IsTerminal())
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
}

func TestParseEnums(t *testing.T) {
	lt, err := ParseType("sick")
	assert.NoError(t, err)
	assert.Equal(t, TypeSick, lt)

	_, err = ParseType("vacation")
	assert.Error(t, err)

	_, err = ParseDurationType("quarter_day")
	assert.Error(t, err)

	st, err := ParseStatus("on_hold")
	assert.NoError(t, err)
	assert.Equal(t, StatusOnHold, st)
}

func TestLeaveRequest_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b LeaveRequest
		want bool
	}{
		{
			name: "disjoint ranges",
			a:    LeaveRequest{StartDate: date("2025-03-10"), EndDate: date("2025-03-12"), DurationType: DurationFullDay},
			b:    LeaveRequest{StartDate: date("2025-03-13"), EndDate: date("2025-03-14"), DurationType: DurationFullDay},
			want: false,
		},
		{
			name: "shared boundary day",
			a:    LeaveRequest{StartDate: date("2025-03-10"), EndDate: date("2025-03-12"), DurationType: DurationFullDay},
			b:    LeaveRequest{StartDate: date("2025-03-12"), EndDate: date("2025-03-14"), DurationType: DurationFullDay},
			want: true,
		},
		{
			name: "morning and afternoon on the same day",
			a:    LeaveRequest{StartDate: date("2025-03-10"), EndDate: date("2025-03-10"), DurationType: DurationHalfDayMorning},
			b:    LeaveRequest{StartDate: date("2025-03-10"), EndDate: date("2025-03-10"), DurationType: DurationHalfDayAfternoon},
			want: false,
		},
		{
			name: "two mornings on the same day",
			a:    LeaveRequest{StartDate: date("2025-03-10"), EndDate: date("2025-03-10"), DurationType: DurationHalfDayMorning},
			b:    LeaveRequest{StartDate: date("2025-03-10"), EndDate: date("2025-03-10"), DurationType: DurationHalfDayMorning},
			want: true,
		},
		{
			name: "half day inside a full day range",
			a:    LeaveRequest{StartDate: date("2025-03-10"), EndDate: date("2025-03-12"), DurationType: DurationFullDay},
			b:    LeaveRequest{StartDate: date("2025-03-11"), EndDate: date("2025-03-11"), DurationType: DurationHalfDayAfternoon},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestLeaveRequest_YearUsesStartDate(t *testing.T) {
	r := LeaveRequest{EmployeeID: "e1", LeaveType: TypeAnnual, StartDate: date("2025-12-30"), EndDate: date("2026-01-02")}
	assert.Equal(t, BalanceKey{EmployeeID: "e1", LeaveType: TypeAnnual, Year: 2025}, r.BalanceKey())
	assert.True(t, r.Covers(date("2026-01-01")))
	assert.False(t, r.Covers(date("2026-01-03")))
}

func TestLeaveBalance_Consistent(t *testing.T) {
	ok := LeaveBalance{
		TotalAllocated: decimal.NewFromInt(20),
		CarriedForward: decimal.NewFromInt(2),
		Taken:          decimal.NewFromInt(3),
		Remaining:      decimal.NewFromInt(19),
	}
	assert.True(t, ok.Consistent())

	drifted := ok
	drifted.Remaining = decimal.NewFromInt(20)
	assert.False(t, drifted.Consistent())

	negative := LeaveBalance{Taken: decimal.NewFromInt(-1), Remaining: decimal.NewFromInt(1)}
	assert.False(t, negative.Consistent())
}

func TestErrorsCarryKinds(t *testing.T) {
	assert.True(t, errors.Is(ErrInsufficientBalance, apperror.ErrInvariant))
	assert.True(t, errors.Is(ErrCancelNotPending, apperror.ErrConflict))
	assert.True(t, errors.Is(ErrOverlappingLeave, apperror.ErrValidation))
	assert.True(t, errors.Is(ErrLeaveRequestNotFound, apperror.ErrNotFound))
	assert.False(t, errors.Is(ErrCancelNotPending, ErrReverseNotApproved))
}
