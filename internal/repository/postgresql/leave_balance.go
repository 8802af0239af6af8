package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const leaveBalanceColumns = `
	id, employee_id, leave_type, year, total_allocated, carried_forward, taken, remaining, created_at, updated_at`

type leaveBalanceRepositoryImpl struct {
	db *database.DB
}

func NewLeaveBalanceRepository(db *database.DB) leave.LeaveBalanceRepository {
	return &leaveBalanceRepositoryImpl{db: db}
}

func scanLeaveBalance(row pgx.Row) (leave.LeaveBalance, error) {
	var b leave.LeaveBalance
	err := row.Scan(
		&b.ID, &b.Key.EmployeeID, &b.Key.LeaveType, &b.Key.Year,
		&b.TotalAllocated, &b.CarriedForward, &b.Taken, &b.Remaining,
		&b.CreatedAt, &b.UpdatedAt,
	)
	return b, err
}

// GetByKey implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) GetByKey(ctx context.Context, key leave.BalanceKey) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveBalanceColumns + `
		FROM leave_balances
		WHERE employee_id = $1 AND leave_type = $2 AND year = $3`

	b, err := scanLeaveBalance(q.QueryRow(ctx, query, key.EmployeeID, key.LeaveType, key.Year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return leave.LeaveBalance{}, leave.ErrBalanceNotFound
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to get leave balance %s: %w", key, err)
	}
	return b, nil
}

// ListByEmployeeYear implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + leaveBalanceColumns + `
		FROM leave_balances
		WHERE employee_id = $1 AND year = $2
		ORDER BY leave_type`

	rows, err := q.Query(ctx, query, employeeID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list leave balances: %w", err)
	}
	defer rows.Close()

	var balances []leave.LeaveBalance
	for rows.Next() {
		b, err := scanLeaveBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leave balance: %w", err)
		}
		balances = append(balances, b)
	}
	return balances, rows.Err()
}

// EnsureExists implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) EnsureExists(ctx context.Context, key leave.BalanceKey) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_balances (id, employee_id, leave_type, year, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (employee_id, leave_type, year) DO NOTHING
	`

	if _, err := q.Exec(ctx, query, database.NewID(), key.EmployeeID, key.LeaveType, key.Year); err != nil {
		return fmt.Errorf("failed to ensure leave balance %s: %w", key, err)
	}
	return nil
}

// AdjustTaken implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) AdjustTaken(ctx context.Context, key leave.BalanceKey, delta decimal.Decimal) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE leave_balances SET
			taken = taken + $4,
			remaining = remaining - $4,
			updated_at = NOW()
		WHERE employee_id = $1 AND leave_type = $2 AND year = $3
			AND remaining - $4 >= 0
			AND taken + $4 >= 0
		RETURNING ` + leaveBalanceColumns

	b, err := scanLeaveBalance(q.QueryRow(ctx, query, key.EmployeeID, key.LeaveType, key.Year, delta))
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return leave.LeaveBalance{}, fmt.Errorf("failed to adjust leave balance %s: %w", key, err)
	}

	if _, getErr := r.GetByKey(ctx, key); getErr != nil {
		return leave.LeaveBalance{}, getErr
	}
	if delta.IsPositive() {
		return leave.LeaveBalance{}, leave.ErrInsufficientBalance
	}
	return leave.LeaveBalance{}, leave.ErrCreditExceedsTaken
}

// Provision implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) Provision(ctx context.Context, key leave.BalanceKey, totalAllocated, carriedForward decimal.Decimal) (leave.LeaveBalance, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO leave_balances (
			id, employee_id, leave_type, year,
			total_allocated, carried_forward, taken, remaining,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, 0, $7, NOW(), NOW())
		ON CONFLICT (employee_id, leave_type, year) DO UPDATE SET
			total_allocated = EXCLUDED.total_allocated,
			carried_forward = EXCLUDED.carried_forward,
			remaining = EXCLUDED.total_allocated + EXCLUDED.carried_forward - leave_balances.taken,
			updated_at = NOW()
		WHERE EXCLUDED.total_allocated + EXCLUDED.carried_forward - leave_balances.taken >= 0
		RETURNING ` + leaveBalanceColumns

	b, err := scanLeaveBalance(q.QueryRow(ctx, query,
		database.NewID(), key.EmployeeID, key.LeaveType, key.Year,
		totalAllocated, carriedForward, totalAllocated.Add(carriedForward),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || pgErrorCode(err) == checkViolation {
			return leave.LeaveBalance{}, leave.ErrProvisionBelowTaken
		}
		return leave.LeaveBalance{}, fmt.Errorf("failed to provision leave balance %s: %w", key, err)
	}
	return b, nil
}

// AppendEntry implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) AppendEntry(ctx context.Context, entry leave.LedgerEntry) (leave.LedgerEntry, error) {
	q := GetQuerier(ctx, r.db)

	if entry.ID == "" {
		entry.ID = database.NewID()
	}

	query := `
		INSERT INTO leave_ledger_entries (
			id, employee_id, leave_type, year, request_id, kind, days, note, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING created_at
	`

	err := q.QueryRow(ctx, query,
		entry.ID, entry.Key.EmployeeID, entry.Key.LeaveType, entry.Key.Year,
		entry.RequestID, entry.Kind, entry.Days, entry.Note, entry.CreatedBy,
	).Scan(&entry.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return leave.LedgerEntry{}, leave.ErrDuplicateLedgerEntry
		}
		return leave.LedgerEntry{}, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return entry, nil
}

// ListEntries implements leave.LeaveBalanceRepository.
func (r *leaveBalanceRepositoryImpl) ListEntries(ctx context.Context, key leave.BalanceKey) ([]leave.LedgerEntry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, leave_type, year, request_id, kind, days, note, created_by, created_at
		FROM leave_ledger_entries
		WHERE employee_id = $1 AND leave_type = $2 AND year = $3
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, key.EmployeeID, key.LeaveType, key.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []leave.LedgerEntry
	for rows.Next() {
		var e leave.LedgerEntry
		if err := rows.Scan(
			&e.ID, &e.Key.EmployeeID, &e.Key.LeaveType, &e.Key.Year,
			&e.RequestID, &e.Kind, &e.Days, &e.Note, &e.CreatedBy, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
