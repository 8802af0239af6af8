package memory

import (
	"context"
	"sort"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type leaveBalanceRepositoryImpl struct {
	store *Store
}

func NewLeaveBalanceRepository(store *Store) leave.LeaveBalanceRepository {
	return &leaveBalanceRepositoryImpl{store: store}
}

func (r *leaveBalanceRepositoryImpl) GetByKey(ctx context.Context, key leave.BalanceKey) (leave.LeaveBalance, error) {
	var b leave.LeaveBalance
	err := r.store.locked(ctx, func() error {
		found, ok := r.store.balances[key]
		if !ok {
			return leave.ErrBalanceNotFound
		}
		b = found
		return nil
	})
	return b, err
}

func (r *leaveBalanceRepositoryImpl) ListByEmployeeYear(ctx context.Context, employeeID string, year int) ([]leave.LeaveBalance, error) {
	var balances []leave.LeaveBalance
	err := r.store.locked(ctx, func() error {
		for key, b := range r.store.balances {
			if key.EmployeeID == employeeID && key.Year == year {
				balances = append(balances, b)
			}
		}
		return nil
	})
	sort.Slice(balances, func(i, j int) bool { return balances[i].Key.LeaveType < balances[j].Key.LeaveType })
	return balances, err
}

func (r *leaveBalanceRepositoryImpl) EnsureExists(ctx context.Context, key leave.BalanceKey) error {
	return r.store.locked(ctx, func() error {
		if _, ok := r.store.balances[key]; ok {
			return nil
		}
		now := r.store.now()
		r.store.balances[key] = leave.LeaveBalance{
			ID:             database.NewID(),
			Key:            key,
			TotalAllocated: decimal.Zero,
			CarriedForward: decimal.Zero,
			Taken:          decimal.Zero,
			Remaining:      decimal.Zero,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		return nil
	})
}

func (r *leaveBalanceRepositoryImpl) AdjustTaken(ctx context.Context, key leave.BalanceKey, delta decimal.Decimal) (leave.LeaveBalance, error) {
	var b leave.LeaveBalance
	err := r.store.locked(ctx, func() error {
		current, ok := r.store.balances[key]
		if !ok {
			return leave.ErrBalanceNotFound
		}
		taken := current.Taken.Add(delta)
		remaining := current.Remaining.Sub(delta)
		if remaining.IsNegative() {
			return leave.ErrInsufficientBalance
		}
		if taken.IsNegative() {
			return leave.ErrCreditExceedsTaken
		}
		current.Taken = taken
		current.Remaining = remaining
		current.UpdatedAt = r.store.now()
		r.store.balances[key] = current
		b = current
		return nil
	})
	return b, err
}

func (r *leaveBalanceRepositoryImpl) Provision(ctx context.Context, key leave.BalanceKey, totalAllocated, carriedForward decimal.Decimal) (leave.LeaveBalance, error) {
	var b leave.LeaveBalance
	err := r.store.locked(ctx, func() error {
		now := r.store.now()
		current, ok := r.store.balances[key]
		if !ok {
			current = leave.LeaveBalance{ID: database.NewID(), Key: key, Taken: decimal.Zero, CreatedAt: now}
		}
		remaining := totalAllocated.Add(carriedForward).Sub(current.Taken)
		if remaining.IsNegative() {
			return leave.ErrProvisionBelowTaken
		}
		current.TotalAllocated = totalAllocated
		current.CarriedForward = carriedForward
		current.Remaining = remaining
		current.UpdatedAt = now
		r.store.balances[key] = current
		b = current
		return nil
	})
	return b, err
}

func (r *leaveBalanceRepositoryImpl) AppendEntry(ctx context.Context, entry leave.LedgerEntry) (leave.LedgerEntry, error) {
	err := r.store.locked(ctx, func() error {
		if entry.RequestID != nil {
			for _, e := range r.store.entries {
				if e.RequestID != nil && *e.RequestID == *entry.RequestID && e.Kind == entry.Kind {
					return leave.ErrDuplicateLedgerEntry
				}
			}
		}
		if entry.ID == "" {
			entry.ID = database.NewID()
		}
		entry.CreatedAt = r.store.now()
		r.store.entries = append(r.store.entries, entry)
		return nil
	})
	return entry, err
}

func (r *leaveBalanceRepositoryImpl) ListEntries(ctx context.Context, key leave.BalanceKey) ([]leave.LedgerEntry, error) {
	var entries []leave.LedgerEntry
	err := r.store.locked(ctx, func() error {
		for _, e := range r.store.entries {
			if e.Key == key {
				entries = append(entries, e)
			}
		}
		return nil
	})
	return entries, err
}
