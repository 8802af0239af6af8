package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/shopspring/decimal"
)

// LedgerPolicy configures yearly provisioning.
type LedgerPolicy struct {
	// Leave types without an entry are not provisioned automatically
	DefaultAllocations map[leave.Type]decimal.Decimal
	// Cap on annual leave carried into the next year
	MaxCarryForward decimal.Decimal
}

// LedgerRef ties a balance change to its cause.
type LedgerRef struct {
	RequestID *string
	Note      *string
	CreatedBy *string
}

// Ledger owns every change to leave_balances and writes one journal entry
// per change.
type Ledger struct {
	transactor database.Transactor
	leave.LeaveBalanceRepository
	employee.EmployeeRepository
	policy LedgerPolicy
}

func NewLedger(transactor database.Transactor, leaveBalanceRepository leave.LeaveBalanceRepository, employeeRepository employee.EmployeeRepository, policy LedgerPolicy) *Ledger {
	return &Ledger{
		transactor:             transactor,
		LeaveBalanceRepository: leaveBalanceRepository,
		EmployeeRepository:     employeeRepository,
		policy:                 policy,
	}
}

// EnsureBalance creates a zero-allocated row for key if none exists. It runs
// outside the approval transaction so the placeholder survives a rollback.
func (l *Ledger) EnsureBalance(ctx context.Context, key leave.BalanceKey) error {
	if err := l.LeaveBalanceRepository.EnsureExists(ctx, key); err != nil {
		return fmt.Errorf("failed to ensure leave balance: %w", err)
	}
	return nil
}

// Adjust moves delta days into taken (positive) or back into remaining
// (negative). Neither side may drop below zero.
func (l *Ledger) Adjust(ctx context.Context, key leave.BalanceKey, delta decimal.Decimal, ref LedgerRef) (leave.LeaveBalance, error) {
	if delta.IsZero() {
		return leave.LeaveBalance{}, leave.ErrZeroAdjustment
	}

	kind := leave.EntryDebit
	if delta.IsNegative() {
		kind = leave.EntryCredit
	}

	var balance leave.LeaveBalance
	err := l.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		balance, err = l.LeaveBalanceRepository.AdjustTaken(ctx, key, delta)
		if err != nil {
			return err
		}
		_, err = l.LeaveBalanceRepository.AppendEntry(ctx, leave.LedgerEntry{
			Key:       key,
			RequestID: ref.RequestID,
			Kind:      kind,
			Days:      delta.Abs(),
			Note:      ref.Note,
			CreatedBy: ref.CreatedBy,
		})
		return err
	})
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	return balance, nil
}

// Provision sets the allocation and carry forward for key, keeping taken.
func (l *Ledger) Provision(ctx context.Context, key leave.BalanceKey, totalAllocated, carriedForward decimal.Decimal, ref LedgerRef) (leave.LeaveBalance, error) {
	if totalAllocated.IsNegative() || carriedForward.IsNegative() {
		return leave.LeaveBalance{}, leave.ErrNegativeProvisioning
	}

	var balance leave.LeaveBalance
	err := l.transactor.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		balance, err = l.LeaveBalanceRepository.Provision(ctx, key, totalAllocated, carriedForward)
		if err != nil {
			return err
		}
		_, err = l.LeaveBalanceRepository.AppendEntry(ctx, leave.LedgerEntry{
			Key:       key,
			Kind:      leave.EntryProvision,
			Days:      totalAllocated.Add(carriedForward),
			Note:      ref.Note,
			CreatedBy: ref.CreatedBy,
		})
		return err
	})
	if err != nil {
		return leave.LeaveBalance{}, err
	}
	return balance, nil
}

// ProvisionYear seeds year for every active employee and every leave type
// with a default allocation. Existing rows are left alone, so reruns are
// harmless. Annual leave carries forward up to the policy cap.
func (l *Ledger) ProvisionYear(ctx context.Context, year int) (int, error) {
	employeeIDs, err := l.EmployeeRepository.ListActiveIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list active employees: %w", err)
	}

	note := fmt.Sprintf("yearly provisioning %d", year)
	provisioned := 0
	for _, employeeID := range employeeIDs {
		for _, leaveType := range leave.Types {
			allocation, ok := l.policy.DefaultAllocations[leaveType]
			if !ok {
				continue
			}

			key := leave.BalanceKey{EmployeeID: employeeID, LeaveType: leaveType, Year: year}
			if _, err := l.LeaveBalanceRepository.GetByKey(ctx, key); err == nil {
				slog.Debug("Leave balance already exists", "employee_id", employeeID, "leave_type", leaveType, "year", year)
				continue
			} else if !errors.Is(err, leave.ErrBalanceNotFound) {
				return provisioned, fmt.Errorf("failed to get leave balance %s: %w", key, err)
			}

			carried := decimal.Zero
			if leaveType == leave.TypeAnnual {
				carried, err = l.carryForward(ctx, employeeID, year)
				if err != nil {
					return provisioned, err
				}
			}

			if _, err := l.Provision(ctx, key, allocation, carried, LedgerRef{Note: &note}); err != nil {
				slog.Warn("Failed to provision leave balance", "employee_id", employeeID, "leave_type", leaveType, "year", year, "error", err)
				continue
			}
			provisioned++
		}
	}

	slog.Info("Provisioned leave balances", "year", year, "employees", len(employeeIDs), "count", provisioned)
	return provisioned, nil
}

func (l *Ledger) carryForward(ctx context.Context, employeeID string, year int) (decimal.Decimal, error) {
	previous, err := l.LeaveBalanceRepository.GetByKey(ctx, leave.BalanceKey{EmployeeID: employeeID, LeaveType: leave.TypeAnnual, Year: year - 1})
	if err != nil {
		if errors.Is(err, leave.ErrBalanceNotFound) {
			return decimal.Zero, nil
		}
		return decimal.Zero, fmt.Errorf("failed to get previous annual balance: %w", err)
	}
	return decimal.Min(previous.Remaining, l.policy.MaxCarryForward), nil
}
