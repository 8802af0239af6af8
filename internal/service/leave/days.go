package leave

import (
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/shopspring/decimal"
)

var halfDay = decimal.RequireFromString("0.5")

// CalculateDays counts inclusive calendar days. Half-day requests are
// worth 0.5 and must start and end on the same date.
func CalculateDays(startDate, endDate time.Time, durationType leave.DurationType) (decimal.Decimal, error) {
	start, end := leave.DateOnly(startDate), leave.DateOnly(endDate)
	if start.After(end) {
		return decimal.Zero, leave.ErrStartAfterEnd
	}

	if durationType.IsHalfDay() {
		if !start.Equal(end) {
			return decimal.Zero, leave.ErrHalfDaySpan
		}
		return halfDay, nil
	}

	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days++
	}
	return decimal.NewFromInt(int64(days)), nil
}
