// Package memory keeps every repository in process memory. It backs unit
// tests and DB_DRIVER=memory with the same observable semantics as the
// PostgreSQL repositories.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/employee"
	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
)

type dayKey struct {
	EmployeeID string
	Date       time.Time
}

// Store is the shared state behind the memory repositories. A single mutex
// guards it; a transaction holds the mutex for its whole duration.
type Store struct {
	mu sync.Mutex

	employees map[string]employee.Employee
	requests  map[string]leave.LeaveRequest
	balances  map[leave.BalanceKey]leave.LeaveBalance
	entries   []leave.LedgerEntry
	days      map[string]attendance.AttendanceDay
	dayIndex  map[dayKey]string
	breaks    map[string]attendance.BreakInterval

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		employees: make(map[string]employee.Employee),
		requests:  make(map[string]leave.LeaveRequest),
		balances:  make(map[leave.BalanceKey]leave.LeaveBalance),
		days:      make(map[string]attendance.AttendanceDay),
		dayIndex:  make(map[dayKey]string),
		breaks:    make(map[string]attendance.BreakInterval),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// locked runs fn under the store mutex unless ctx already belongs to one of
// this store's transactions.
func (s *Store) locked(ctx context.Context, fn func() error) error {
	if s.inTx(ctx) {
		return fn()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

type snapshot struct {
	employees map[string]employee.Employee
	requests  map[string]leave.LeaveRequest
	balances  map[leave.BalanceKey]leave.LeaveBalance
	entries   []leave.LedgerEntry
	days      map[string]attendance.AttendanceDay
	dayIndex  map[dayKey]string
	breaks    map[string]attendance.BreakInterval
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		employees: maps.Clone(s.employees),
		requests:  maps.Clone(s.requests),
		balances:  maps.Clone(s.balances),
		entries:   append([]leave.LedgerEntry(nil), s.entries...),
		days:      maps.Clone(s.days),
		dayIndex:  maps.Clone(s.dayIndex),
		breaks:    maps.Clone(s.breaks),
	}
}

func (s *Store) restore(snap snapshot) {
	s.employees = snap.employees
	s.requests = snap.requests
	s.balances = snap.balances
	s.entries = snap.entries
	s.days = snap.days
	s.dayIndex = snap.dayIndex
	s.breaks = snap.breaks
}

type transactor struct {
	store *Store
}

func NewTransactor(store *Store) database.Transactor {
	return &transactor{store: store}
}

// WithinTransaction implements database.Transactor with snapshot and
// rollback on error or panic.
func (t *transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	s := t.store
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}
