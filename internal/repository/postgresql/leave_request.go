package postgresql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const leaveRequestColumns = `
	id, employee_id, leave_type, duration_type, start_date, end_date, days_requested,
	reason, emergency_contact, status, submitted_by, approved_by, approved_at,
	rejection_reason, admin_comment, cancelled_by, cancelled_at, cancellation_reason,
	created_at, updated_at`

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

func scanLeaveRequest(row pgx.Row) (leave.LeaveRequest, error) {
	var lr leave.LeaveRequest
	err := row.Scan(
		&lr.ID,
		&lr.EmployeeID,
		&lr.LeaveType,
		&lr.DurationType,
		&lr.StartDate,
		&lr.EndDate,
		&lr.DaysRequested,
		&lr.Reason,
		&lr.EmergencyContact,
		&lr.Status,
		&lr.SubmittedBy,
		&lr.ApprovedBy,
		&lr.ApprovedAt,
		&lr.RejectionReason,
		&lr.AdminComment,
		&lr.CancelledBy,
		&lr.CancelledAt,
		&lr.CancellationReason,
		&lr.CreatedAt,
		&lr.UpdatedAt,
	)
	return lr, err
}

func collectLeaveRequests(rows pgx.Rows) ([]leave.LeaveRequest, error) {
	defer rows.Close()

	var requests []leave.LeaveRequest
	for rows.Next() {
		lr, err := scanLeaveRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, lr)
	}
	return requests, rows.Err()
}

// Create implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	if request.ID == "" {
		request.ID = database.NewID()
	}

	query := `
		INSERT INTO leave_requests (
			id, employee_id, leave_type, duration_type,
			start_date, end_date, days_requested,
			reason, emergency_contact, status, submitted_by,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7,
			$8, $9, $10, $11,
			NOW(), NOW()
		) RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		request.ID, request.EmployeeID, request.LeaveType, request.DurationType,
		request.StartDate, request.EndDate, request.DaysRequested,
		request.Reason, request.EmergencyContact, request.Status, request.SubmittedBy,
	).Scan(&request.CreatedAt, &request.UpdatedAt)
	if err != nil {
		return leave.LeaveRequest{}, fmt.Errorf("failed to create leave request: %w", err)
	}

	return request, nil
}

// GetByID implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveRequestColumns + ` FROM leave_requests WHERE id = $1`

	lr, err := scanLeaveRequest(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveRequest{}, leave.ErrLeaveRequestNotFound
		}
		return leave.LeaveRequest{}, fmt.Errorf("failed to get leave request %s: %w", id, err)
	}
	return lr, nil
}

// LockEmployee implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) LockEmployee(ctx context.Context, employeeID string) error {
	q := GetQuerier(ctx, r.db)

	if _, err := q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended('leave_request:' || $1::text, 0))`, employeeID); err != nil {
		return fmt.Errorf("failed to lock leave requests of employee %s: %w", employeeID, err)
	}
	return nil
}

// FindBlocking implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) FindBlocking(ctx context.Context, employeeID string, start, end time.Time) ([]leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + leaveRequestColumns + `
		FROM leave_requests
		WHERE employee_id = $1
			AND status IN ('pending', 'on_hold', 'approved')
			AND start_date <= $3
			AND end_date >= $2
		ORDER BY start_date
	`

	rows, err := q.Query(ctx, query, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping leave requests: %w", err)
	}
	requests, err := collectLeaveRequests(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan overlapping leave requests: %w", err)
	}
	return requests, nil
}

// Transition implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) Transition(ctx context.Context, id string, t leave.Transition) (leave.LeaveRequest, error) {
	q := GetQuerier(ctx, r.db)

	var (
		approvedBy, cancelledBy *string
		approvedAt, cancelledAt *time.Time
	)
	switch t.To {
	case leave.StatusApproved, leave.StatusRejected:
		approvedBy, approvedAt = &t.By, &t.At
	case leave.StatusCancelled:
		cancelledBy, cancelledAt = &t.By, &t.At
	case leave.StatusPending, leave.StatusOnHold:
	}

	from := make([]string, 0, len(t.From))
	for _, s := range t.From {
		from = append(from, string(s))
	}

	query := `
		UPDATE leave_requests SET
			status = $2,
			approved_by = COALESCE($4, approved_by),
			approved_at = COALESCE($5, approved_at),
			rejection_reason = COALESCE($6, rejection_reason),
			admin_comment = COALESCE($7, admin_comment),
			cancelled_by = COALESCE($8, cancelled_by),
			cancelled_at = COALESCE($9, cancelled_at),
			cancellation_reason = COALESCE($10, cancellation_reason),
			updated_at = $3
		WHERE id = $1 AND status = ANY($11)
		RETURNING ` + leaveRequestColumns

	lr, err := scanLeaveRequest(q.QueryRow(ctx, query,
		id, t.To, t.At,
		approvedBy, approvedAt,
		t.RejectionReason, t.AdminComment,
		cancelledBy, cancelledAt, t.CancellationReason,
		from,
	))
	if err == nil {
		return lr, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return leave.LeaveRequest{}, fmt.Errorf("failed to update leave request %s status: %w", id, err)
	}

	// Nothing matched: either the row is gone or someone moved it first
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return leave.LeaveRequest{}, getErr
	}
	return leave.LeaveRequest{}, leave.ErrConcurrentStatusChange
}

// List implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) List(ctx context.Context, query leave.RequestQuery) ([]leave.LeaveRequest, int64, error) {
	q := GetQuerier(ctx, r.db)

	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if query.EmployeeIDs != nil {
		if len(query.EmployeeIDs) == 0 {
			return []leave.LeaveRequest{}, 0, nil
		}
		add("employee_id = ANY($%d)", query.EmployeeIDs)
	}
	if query.Status != nil {
		add("status = $%d", *query.Status)
	}
	if query.LeaveType != nil {
		add("leave_type = $%d", *query.LeaveType)
	}
	if query.Year != nil {
		add("EXTRACT(YEAR FROM start_date)::int = $%d", *query.Year)
	}

	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	var total int64
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM leave_requests `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count leave requests: %w", err)
	}

	// Pagination
	limit, page := query.Limit, query.Page
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	args = append(args, limit, (page-1)*limit)
	listQuery := fmt.Sprintf(`
		SELECT %s FROM leave_requests %s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d`, leaveRequestColumns, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list leave requests: %w", err)
	}
	requests, err := collectLeaveRequests(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan leave requests: %w", err)
	}
	return requests, total, nil
}

// CountByStatus implements leave.LeaveRequestRepository.
func (r *leaveRequestRepositoryImpl) CountByStatus(ctx context.Context, year int) (map[leave.Status]int, decimal.Decimal, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT status, COUNT(*), COALESCE(SUM(days_requested), 0)
		FROM leave_requests
		WHERE EXTRACT(YEAR FROM start_date)::int = $1
		GROUP BY status
	`

	rows, err := q.Query(ctx, query, year)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to count leave requests by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[leave.Status]int)
	approvedDays := decimal.Zero
	for rows.Next() {
		var (
			status leave.Status
			count  int
			days   decimal.Decimal
		)
		if err := rows.Scan(&status, &count, &days); err != nil {
			return nil, decimal.Zero, fmt.Errorf("failed to scan leave request counts: %w", err)
		}
		counts[status] = count
		if status == leave.StatusApproved {
			approvedDays = days
		}
	}
	if err := rows.Err(); err != nil {
		return nil, decimal.Zero, err
	}
	return counts, approvedDays, nil
}

// HasApprovedFullDayLeave implements attendance.LeaveCalendar.
func (r *leaveRequestRepositoryImpl) HasApprovedFullDayLeave(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT EXISTS (
			SELECT 1 FROM leave_requests
			WHERE employee_id = $1
				AND status = 'approved'
				AND duration_type = 'full_day'
				AND start_date <= $2 AND end_date >= $2
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, employeeID, date).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check approved leave: %w", err)
	}
	return exists, nil
}

// ListEmployeesOnLeave implements attendance.LeaveCalendar.
func (r *leaveRequestRepositoryImpl) ListEmployeesOnLeave(ctx context.Context, date time.Time) ([]string, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT DISTINCT employee_id FROM leave_requests
		WHERE status = 'approved'
			AND duration_type = 'full_day'
			AND start_date <= $1 AND end_date >= $1
		ORDER BY employee_id
	`

	rows, err := q.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees on leave: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan employees on leave: %w", err)
	}
	return ids, nil
}
