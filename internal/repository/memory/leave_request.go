package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
	"github.com/cmlabs-hris/hris-timekeeping/internal/pkg/database"
	"github.com/shopspring/decimal"
)

type leaveRequestRepositoryImpl struct {
	store *Store
}

func NewLeaveRequestRepository(store *Store) leave.LeaveRequestRepository {
	return &leaveRequestRepositoryImpl{store: store}
}

func (r *leaveRequestRepositoryImpl) Create(ctx context.Context, request leave.LeaveRequest) (leave.LeaveRequest, error) {
	err := r.store.locked(ctx, func() error {
		if request.ID == "" {
			request.ID = database.NewID()
		}
		now := r.store.now()
		request.CreatedAt = now
		request.UpdatedAt = now
		r.store.requests[request.ID] = request
		return nil
	})
	return request, err
}

func (r *leaveRequestRepositoryImpl) GetByID(ctx context.Context, id string) (leave.LeaveRequest, error) {
	var lr leave.LeaveRequest
	err := r.store.locked(ctx, func() error {
		found, ok := r.store.requests[id]
		if !ok {
			return leave.ErrLeaveRequestNotFound
		}
		lr = found
		return nil
	})
	return lr, err
}

// LockEmployee is a no-op: a transaction already holds the store mutex.
func (r *leaveRequestRepositoryImpl) LockEmployee(ctx context.Context, employeeID string) error {
	return nil
}

func (r *leaveRequestRepositoryImpl) FindBlocking(ctx context.Context, employeeID string, start, end time.Time) ([]leave.LeaveRequest, error) {
	var found []leave.LeaveRequest
	err := r.store.locked(ctx, func() error {
		for _, lr := range r.store.requests {
			if lr.EmployeeID != employeeID || !lr.Status.BlocksOverlap() {
				continue
			}
			if lr.StartDate.After(end) || lr.EndDate.Before(start) {
				continue
			}
			found = append(found, lr)
		}
		return nil
	})
	sort.Slice(found, func(i, j int) bool { return found[i].StartDate.Before(found[j].StartDate) })
	return found, err
}

func (r *leaveRequestRepositoryImpl) Transition(ctx context.Context, id string, t leave.Transition) (leave.LeaveRequest, error) {
	var lr leave.LeaveRequest
	err := r.store.locked(ctx, func() error {
		current, ok := r.store.requests[id]
		if !ok {
			return leave.ErrLeaveRequestNotFound
		}
		if !slices.Contains(t.From, current.Status) {
			return leave.ErrConcurrentStatusChange
		}

		by, at := t.By, t.At
		switch t.To {
		case leave.StatusApproved, leave.StatusRejected:
			current.ApprovedBy, current.ApprovedAt = &by, &at
		case leave.StatusCancelled:
			current.CancelledBy, current.CancelledAt = &by, &at
		case leave.StatusPending, leave.StatusOnHold:
		}
		if t.RejectionReason != nil {
			current.RejectionReason = t.RejectionReason
		}
		if t.AdminComment != nil {
			current.AdminComment = t.AdminComment
		}
		if t.CancellationReason != nil {
			current.CancellationReason = t.CancellationReason
		}
		current.Status = t.To
		current.UpdatedAt = at

		r.store.requests[id] = current
		lr = current
		return nil
	})
	return lr, err
}

func (r *leaveRequestRepositoryImpl) List(ctx context.Context, query leave.RequestQuery) ([]leave.LeaveRequest, int64, error) {
	var matched []leave.LeaveRequest
	err := r.store.locked(ctx, func() error {
		for _, lr := range r.store.requests {
			if query.EmployeeIDs != nil && !slices.Contains(query.EmployeeIDs, lr.EmployeeID) {
				continue
			}
			if query.Status != nil && lr.Status != *query.Status {
				continue
			}
			if query.LeaveType != nil && lr.LeaveType != *query.LeaveType {
				continue
			}
			if query.Year != nil && lr.StartDate.Year() != *query.Year {
				continue
			}
			matched = append(matched, lr)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	limit, page := query.Limit, query.Page
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}
	from := min((page-1)*limit, len(matched))
	to := min(from+limit, len(matched))
	return matched[from:to], total, nil
}

func (r *leaveRequestRepositoryImpl) CountByStatus(ctx context.Context, year int) (map[leave.Status]int, decimal.Decimal, error) {
	counts := make(map[leave.Status]int)
	approvedDays := decimal.Zero
	err := r.store.locked(ctx, func() error {
		for _, lr := range r.store.requests {
			if lr.StartDate.Year() != year {
				continue
			}
			counts[lr.Status]++
			if lr.Status == leave.StatusApproved {
				approvedDays = approvedDays.Add(lr.DaysRequested)
			}
		}
		return nil
	})
	return counts, approvedDays, err
}

func (r *leaveRequestRepositoryImpl) HasApprovedFullDayLeave(ctx context.Context, employeeID string, date time.Time) (bool, error) {
	var found bool
	err := r.store.locked(ctx, func() error {
		for _, lr := range r.store.requests {
			if lr.EmployeeID == employeeID && coversFullDay(lr, date) {
				found = true
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *leaveRequestRepositoryImpl) ListEmployeesOnLeave(ctx context.Context, date time.Time) ([]string, error) {
	seen := make(map[string]struct{})
	err := r.store.locked(ctx, func() error {
		for _, lr := range r.store.requests {
			if coversFullDay(lr, date) {
				seen[lr.EmployeeID] = struct{}{}
			}
		}
		return nil
	})
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, err
}

func coversFullDay(lr leave.LeaveRequest, date time.Time) bool {
	return lr.Status == leave.StatusApproved &&
		lr.DurationType == leave.DurationFullDay &&
		lr.Covers(date)
}
