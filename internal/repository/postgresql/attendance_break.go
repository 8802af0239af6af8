package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const breakColumns = `id, attendance_id, break_type, started_at, ended_at, duration_minutes, notes, created_at`

type attendanceBreakRepositoryImpl struct {
	db *database.DB
}

func NewAttendanceBreakRepository(db *database.DB) attendance.BreakRepository {
	return &attendanceBreakRepositoryImpl{db: db}
}

func scanBreak(row pgx.Row) (attendance.BreakInterval, error) {
	var b attendance.BreakInterval
	err := row.Scan(&b.ID, &b.AttendanceID, &b.Type, &b.StartedAt, &b.EndedAt, &b.DurationMinutes, &b.Notes, &b.CreatedAt)
	return b, err
}

// Start implements attendance.BreakRepository.
func (r *attendanceBreakRepositoryImpl) Start(ctx context.Context, b attendance.BreakInterval) (attendance.BreakInterval, error) {
	q := GetQuerier(ctx, r.db)

	if b.ID == "" {
		b.ID = database.NewID()
	}

	query := `
		INSERT INTO attendance_breaks (id, attendance_id, break_type, started_at, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`

	err := q.QueryRow(ctx, query, b.ID, b.AttendanceID, b.Type, b.StartedAt, b.Notes).Scan(&b.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return attendance.BreakInterval{}, attendance.ErrBreakInProgress
		}
		return attendance.BreakInterval{}, fmt.Errorf("failed to start break: %w", err)
	}
	return b, nil
}

// End implements attendance.BreakRepository.
func (r *attendanceBreakRepositoryImpl) End(ctx context.Context, id string, at time.Time, durationMinutes int) (attendance.BreakInterval, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendance_breaks SET ended_at = $2, duration_minutes = $3
		WHERE id = $1 AND ended_at IS NULL
		RETURNING ` + breakColumns

	b, err := scanBreak(q.QueryRow(ctx, query, id, at, durationMinutes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.BreakInterval{}, attendance.ErrNoOpenBreak
		}
		return attendance.BreakInterval{}, fmt.Errorf("failed to end break: %w", err)
	}
	return b, nil
}

// ListByAttendance implements attendance.BreakRepository.
func (r *attendanceBreakRepositoryImpl) ListByAttendance(ctx context.Context, attendanceID string) ([]attendance.BreakInterval, error) {
	byDay, err := r.listByAttendanceIDs(ctx, []string{attendanceID})
	if err != nil {
		return nil, err
	}
	return byDay[attendanceID], nil
}

func (r *attendanceBreakRepositoryImpl) listByAttendanceIDs(ctx context.Context, attendanceIDs []string) (map[string][]attendance.BreakInterval, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + breakColumns + `
		FROM attendance_breaks
		WHERE attendance_id = ANY($1)
		ORDER BY started_at`

	rows, err := q.Query(ctx, query, attendanceIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list breaks: %w", err)
	}
	defer rows.Close()

	byDay := make(map[string][]attendance.BreakInterval, len(attendanceIDs))
	for rows.Next() {
		b, err := scanBreak(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan break: %w", err)
		}
		byDay[b.AttendanceID] = append(byDay[b.AttendanceID], b)
	}
	return byDay, rows.Err()
}
