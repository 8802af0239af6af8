package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const attendanceColumns = `
	id, employee_id, date, check_in, check_out, status, worked_hours, notes, created_at, updated_at`

type attendanceRepositoryImpl struct {
	db     *database.DB
	breaks *attendanceBreakRepositoryImpl
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepositoryImpl{db: db, breaks: &attendanceBreakRepositoryImpl{db: db}}
}

func scanAttendance(row pgx.Row) (attendance.AttendanceDay, error) {
	var a attendance.AttendanceDay
	err := row.Scan(
		&a.ID, &a.EmployeeID, &a.Date, &a.CheckIn, &a.CheckOut,
		&a.Status, &a.WorkedHours, &a.Notes, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

func (r *attendanceRepositoryImpl) withBreaks(ctx context.Context, day attendance.AttendanceDay) (attendance.AttendanceDay, error) {
	breaks, err := r.breaks.ListByAttendance(ctx, day.ID)
	if err != nil {
		return attendance.AttendanceDay{}, err
	}
	day.Breaks = breaks
	return day, nil
}

// ClaimCheckIn implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ClaimCheckIn(ctx context.Context, employeeID string, date, at time.Time, status attendance.Status, notes *string, releaseLeave bool) (attendance.AttendanceDay, error) {
	q := GetQuerier(ctx, r.db)

	// Concurrent check-ins for the same day serialize on the unique key;
	// only a row without a check-in can be claimed, and an on_leave row only
	// when releaseLeave is set.
	query := `
		INSERT INTO attendance_days (id, employee_id, date, check_in, status, worked_hours, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, NOW(), NOW())
		ON CONFLICT (employee_id, date) DO UPDATE SET
			check_in = EXCLUDED.check_in,
			status = EXCLUDED.status,
			notes = COALESCE(EXCLUDED.notes, attendance_days.notes),
			updated_at = NOW()
		WHERE attendance_days.check_in IS NULL AND (attendance_days.status <> 'on_leave' OR $7)
		RETURNING ` + attendanceColumns

	day, err := scanAttendance(q.QueryRow(ctx, query, database.NewID(), employeeID, date, at, status, notes, releaseLeave))
	if err == nil {
		return day, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return attendance.AttendanceDay{}, fmt.Errorf("failed to record check-in: %w", err)
	}

	existing, getErr := r.GetByEmployeeAndDate(ctx, employeeID, date)
	if getErr != nil {
		return attendance.AttendanceDay{}, getErr
	}
	if existing.CheckIn == nil && existing.Status == attendance.StatusOnLeave {
		return attendance.AttendanceDay{}, attendance.ErrDayOnLeave
	}
	return attendance.AttendanceDay{}, attendance.ErrAlreadyCheckedIn
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.AttendanceDay, error) {
	return r.getByEmployeeAndDate(ctx, employeeID, date, "")
}

// LockByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) LockByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (attendance.AttendanceDay, error) {
	return r.getByEmployeeAndDate(ctx, employeeID, date, "FOR UPDATE")
}

func (r *attendanceRepositoryImpl) getByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, lock string) (attendance.AttendanceDay, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendance_days
		WHERE employee_id = $1 AND date = $2 ` + lock

	day, err := scanAttendance(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceDay{}, attendance.ErrAttendanceNotFound
		}
		return attendance.AttendanceDay{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return r.withBreaks(ctx, day)
}

// RecordCheckOut implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) RecordCheckOut(ctx context.Context, id string, at time.Time, workedHours decimal.Decimal, status attendance.Status, notes *string) (attendance.AttendanceDay, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_days SET
			check_out = $2,
			worked_hours = $3,
			status = $4,
			notes = COALESCE($5, notes),
			updated_at = NOW()
		WHERE id = $1 AND check_in IS NOT NULL AND check_out IS NULL
		RETURNING ` + attendanceColumns

	day, err := scanAttendance(q.QueryRow(ctx, query, id, at, workedHours, status, notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.AttendanceDay{}, attendance.ErrAlreadyCheckedOut
		}
		return attendance.AttendanceDay{}, fmt.Errorf("failed to record check-out: %w", err)
	}
	return r.withBreaks(ctx, day)
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) Create(ctx context.Context, day attendance.AttendanceDay) (attendance.AttendanceDay, error) {
	q := GetQuerier(ctx, r.db)

	if day.ID == "" {
		day.ID = database.NewID()
	}

	query := `
		INSERT INTO attendance_days (id, employee_id, date, check_in, check_out, status, worked_hours, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		day.ID, day.EmployeeID, day.Date, day.CheckIn, day.CheckOut,
		day.Status, day.WorkedHours, day.Notes,
	).Scan(&day.CreatedAt, &day.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.AttendanceDay{}, attendance.ErrAttendanceExists
		}
		return attendance.AttendanceDay{}, fmt.Errorf("failed to create attendance: %w", err)
	}
	return day, nil
}

// ListByEmployee implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.AttendanceDay, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + attendanceColumns + `
		FROM attendance_days
		WHERE employee_id = $1 AND date BETWEEN $2 AND $3
		ORDER BY date`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	defer rows.Close()

	var (
		days []attendance.AttendanceDay
		ids  []string
	)
	for rows.Next() {
		day, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		days = append(days, day)
		ids = append(ids, day.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(days) == 0 {
		return days, nil
	}

	byDay, err := r.breaks.listByAttendanceIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range days {
		days[i].Breaks = byDay[days[i].ID]
	}
	return days, nil
}

// MarkOnLeave implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) MarkOnLeave(ctx context.Context, employeeIDs []string, date time.Time) (int, error) {
	query := `
		INSERT INTO attendance_days (id, employee_id, date, status, worked_hours, created_at, updated_at)
		SELECT u.id, u.employee_id, $3, 'on_leave', 0, NOW(), NOW()
		FROM unnest($1::uuid[], $2::uuid[]) AS u(id, employee_id)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			status = 'on_leave',
			updated_at = NOW()
		WHERE attendance_days.check_in IS NULL AND attendance_days.status <> 'on_leave'
	`
	return r.bulkInsert(ctx, query, employeeIDs, date)
}

// MarkAbsent implements attendance.AttendanceRepository.
func (r *attendanceRepositoryImpl) MarkAbsent(ctx context.Context, employeeIDs []string, date time.Time) (int, error) {
	query := `
		INSERT INTO attendance_days (id, employee_id, date, status, worked_hours, created_at, updated_at)
		SELECT u.id, u.employee_id, $3, 'absent', 0, NOW(), NOW()
		FROM unnest($1::uuid[], $2::uuid[]) AS u(id, employee_id)
		ON CONFLICT (employee_id, date) DO NOTHING
	`
	return r.bulkInsert(ctx, query, employeeIDs, date)
}

func (r *attendanceRepositoryImpl) bulkInsert(ctx context.Context, query string, employeeIDs []string, date time.Time) (int, error) {
	if len(employeeIDs) == 0 {
		return 0, nil
	}
	q := GetQuerier(ctx, r.db)

	ids := make([]string, len(employeeIDs))
	for i := range ids {
		ids[i] = database.NewID()
	}

	tag, err := q.Exec(ctx, query, ids, employeeIDs, date)
	if err != nil {
		return 0, fmt.Errorf("failed to mark attendance: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
