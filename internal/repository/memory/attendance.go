package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type attendanceRepositoryImpl struct {
	store *Store
}

func NewAttendanceRepository(store *Store) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{store: store}
}

// dayLocked returns the stored day with its breaks. Callers hold the lock.
func (s *Store) dayLocked(id string) attendance.AttendanceDay {
	day := s.days[id]
	day.Breaks = nil
	for _, b := range s.breaks {
		if b.AttendanceID == id {
			day.Breaks = append(day.Breaks, b)
		}
	}
	sort.Slice(day.Breaks, func(i, j int) bool { return day.Breaks[i].StartedAt.Before(day.Breaks[j].StartedAt) })
	return day
}

func (r *attendanceRepositoryImpl) ClaimCheckIn(ctx context.Context, employeeID string, date, at time.Time, status attendance.Status, notes *string, releaseLeave bool) (attendance.AttendanceDay, error) {
	var day attendance.AttendanceDay
	err := r.store.locked(ctx, func() error {
		s := r.store
		now := s.now()
		key := dayKey{EmployeeID: employeeID, Date: date}

		id, exists := s.dayIndex[key]
		if exists {
			current := s.days[id]
			if current.CheckIn != nil {
				return attendance.ErrAlreadyCheckedIn
			}
			if current.Status == attendance.StatusOnLeave && !releaseLeave {
				return attendance.ErrDayOnLeave
			}
			current.CheckIn = &at
			current.Status = status
			if notes != nil {
				current.Notes = notes
			}
			current.UpdatedAt = now
			s.days[id] = current
			day = s.dayLocked(id)
			return nil
		}

		created := attendance.AttendanceDay{
			ID:          database.NewID(),
			EmployeeID:  employeeID,
			Date:        date,
			CheckIn:     &at,
			Status:      status,
			WorkedHours: decimal.Zero,
			Notes:       notes,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		s.days[created.ID] = created
		s.dayIndex[key] = created.ID
		day = created
		return nil
	})
	return day, err
}

func (r *attendanceRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.AttendanceDay, error) {
	var day attendance.AttendanceDay
	err := r.store.locked(ctx, func() error {
		id, ok := r.store.dayIndex[dayKey{EmployeeID: employeeID, Date: date}]
		if !ok {
			return attendance.ErrAttendanceNotFound
		}
		day = r.store.dayLocked(id)
		return nil
	})
	return day, err
}

// LockByEmployeeAndDate reads like GetByEmployeeAndDate; the transaction
// already holds the store mutex.
func (r *attendanceRepositoryImpl) LockByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.AttendanceDay, error) {
	return r.GetByEmployeeAndDate(ctx, employeeID, date)
}

func (r *attendanceRepositoryImpl) RecordCheckOut(ctx context.Context, id string, at time.Time, workedHours decimal.Decimal, status attendance.Status, notes *string) (attendance.AttendanceDay, error) {
	var day attendance.AttendanceDay
	err := r.store.locked(ctx, func() error {
		current, ok := r.store.days[id]
		if !ok {
			return attendance.ErrAttendanceNotFound
		}
		if current.CheckIn == nil || current.CheckOut != nil {
			return attendance.ErrAlreadyCheckedOut
		}
		current.CheckOut = &at
		current.WorkedHours = workedHours
		current.Status = status
		if notes != nil {
			current.Notes = notes
		}
		current.UpdatedAt = r.store.now()
		r.store.days[id] = current
		day = r.store.dayLocked(id)
		return nil
	})
	return day, err
}

func (r *attendanceRepositoryImpl) Create(ctx context.Context, day attendance.AttendanceDay) (attendance.AttendanceDay, error) {
	err := r.store.locked(ctx, func() error {
		key := dayKey{EmployeeID: day.EmployeeID, Date: day.Date}
		if _, exists := r.store.dayIndex[key]; exists {
			return attendance.ErrAttendanceExists
		}
		if day.ID == "" {
			day.ID = database.NewID()
		}
		now := r.store.now()
		day.CreatedAt = now
		day.UpdatedAt = now
		day.Breaks = nil
		r.store.days[day.ID] = day
		r.store.dayIndex[key] = day.ID
		return nil
	})
	return day, err
}

func (r *attendanceRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.AttendanceDay, error) {
	var days []attendance.AttendanceDay
	err := r.store.locked(ctx, func() error {
		for key, id := range r.store.dayIndex {
			if key.EmployeeID != employeeID || key.Date.Before(from) || key.Date.After(to) {
				continue
			}
			days = append(days, r.store.dayLocked(id))
		}
		return nil
	})
	sort.Slice(days, func(i, j int) bool { return days[i].Date.Before(days[j].Date) })
	return days, err
}

func (r *attendanceRepositoryImpl) MarkOnLeave(ctx context.Context, employeeIDs []string, date time.Time) (int, error) {
	marked := 0
	err := r.store.locked(ctx, func() error {
		now := r.store.now()
		for _, employeeID := range employeeIDs {
			key := dayKey{EmployeeID: employeeID, Date: date}
			if id, exists := r.store.dayIndex[key]; exists {
				current := r.store.days[id]
				if current.CheckIn != nil || current.Status == attendance.StatusOnLeave {
					continue
				}
				current.Status = attendance.StatusOnLeave
				current.UpdatedAt = now
				r.store.days[id] = current
				marked++
				continue
			}
			r.insertLocked(key, attendance.StatusOnLeave, now)
			marked++
		}
		return nil
	})
	return marked, err
}

func (r *attendanceRepositoryImpl) MarkAbsent(ctx context.Context, employeeIDs []string, date time.Time) (int, error) {
	marked := 0
	err := r.store.locked(ctx, func() error {
		now := r.store.now()
		for _, employeeID := range employeeIDs {
			key := dayKey{EmployeeID: employeeID, Date: date}
			if _, exists := r.store.dayIndex[key]; exists {
				continue
			}
			r.insertLocked(key, attendance.StatusAbsent, now)
			marked++
		}
		return nil
	})
	return marked, err
}

func (r *attendanceRepositoryImpl) insertLocked(key dayKey, status attendance.Status, now time.Time) {
	day := attendance.AttendanceDay{
		ID:          database.NewID(),
		EmployeeID:  key.EmployeeID,
		Date:        key.Date,
		Status:      status,
		WorkedHours: decimal.Zero,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	r.store.days[day.ID] = day
	r.store.dayIndex[key] = day.ID
}

type attendanceBreakRepositoryImpl struct {
	store *Store
}

func NewAttendanceBreakRepository(store *Store) attendance.BreakRepository {
	return &attendanceBreakRepositoryImpl{store: store}
}

func (r *attendanceBreakRepositoryImpl) Start(ctx context.Context, b attendance.BreakInterval) (attendance.BreakInterval, error) {
	err := r.store.locked(ctx, func() error {
		for _, existing := range r.store.breaks {
			if existing.AttendanceID == b.AttendanceID && existing.IsOpen() {
				return attendance.ErrBreakInProgress
			}
		}
		if b.ID == "" {
			b.ID = database.NewID()
		}
		b.EndedAt = nil
		b.DurationMinutes = nil
		b.CreatedAt = r.store.now()
		r.store.breaks[b.ID] = b
		return nil
	})
	return b, err
}

func (r *attendanceBreakRepositoryImpl) End(ctx context.Context, id string, at time.Time, durationMinutes int) (attendance.BreakInterval, error) {
	var b attendance.BreakInterval
	err := r.store.locked(ctx, func() error {
		current, ok := r.store.breaks[id]
		if !ok || !current.IsOpen() {
			return attendance.ErrNoOpenBreak
		}
		current.EndedAt = &at
		current.DurationMinutes = &durationMinutes
		r.store.breaks[id] = current
		b = current
		return nil
	})
	return b, err
}

func (r *attendanceBreakRepositoryImpl) ListByAttendance(ctx context.Context, attendanceID string) ([]attendance.BreakInterval, error) {
	var breaks []attendance.BreakInterval
	err := r.store.locked(ctx, func() error {
		breaks = r.store.dayLocked(attendanceID).Breaks
		return nil
	})
	return breaks, err
}
