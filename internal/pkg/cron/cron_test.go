package cron

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type markerCall struct {
	kind string
	date time.Time
}

type fakeMarker struct {
	mu    sync.Mutex
	calls []markerCall
	err   error
}

func (m *fakeMarker) MarkOnLeave(ctx context.Context, date time.Time) (int, error) {
	m.record("on_leave", date)
	return 1, m.err
}

func (m *fakeMarker) MarkAbsent(ctx context.Context, date time.Time) (int, error) {
	m.record("absent", date)
	return 2, m.err
}

func (m *fakeMarker) record(kind string, date time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, markerCall{kind: kind, date: date})
}

type fakeProvisioner struct {
	years []int
}

func (p *fakeProvisioner) ProvisionYear(ctx context.Context, year int) (int, error) {
	p.years = append(p.years, year)
	return 3, nil
}

var wib = time.FixedZone("WIB", 7*60*60)

func TestAttendanceJobs_MarkAbsentUsesLocalYesterday(t *testing.T) {
	// Setup
	marker := &fakeMarker{}
	jobs := NewAttendanceJobs(marker, attendance.Policy{Location: wib}, 0)
	// 17:30 UTC is 00:30 on 11 March in WIB
	jobs.now = func() time.Time { return time.Date(2025, 3, 10, 17, 30, 0, 0, time.UTC) }

	// Act
	err := jobs.MarkAbsentEmployees(context.Background())

	// Assert
	require.NoError(t, err)
	march10 := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, []markerCall{
		{kind: "on_leave", date: march10},
		{kind: "absent", date: march10},
	}, marker.calls)
}

func TestAttendanceJobs_MarkAbsentOutsideRunHour(t *testing.T) {
	// Setup
	marker := &fakeMarker{}
	jobs := NewAttendanceJobs(marker, attendance.Policy{Location: wib}, 0)
	jobs.now = func() time.Time { return time.Date(2025, 3, 10, 5, 0, 0, 0, time.UTC) }

	// Act
	err := jobs.MarkAbsentEmployees(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Empty(t, marker.calls)
}

func TestAttendanceJobs_MarkOnLeaveToday(t *testing.T) {
	// Setup
	marker := &fakeMarker{}
	jobs := NewAttendanceJobs(marker, attendance.Policy{Location: wib}, 0)
	jobs.now = func() time.Time { return time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC) }

	// Act
	err := jobs.MarkOnLeaveEmployees(context.Background())

	// Assert
	require.NoError(t, err)
	require.Len(t, marker.calls, 1)
	assert.Equal(t, time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC), marker.calls[0].date)
}

func TestAttendanceJobs_PropagatesErrors(t *testing.T) {
	// Setup
	marker := &fakeMarker{err: errors.New("database down")}
	jobs := NewAttendanceJobs(marker, attendance.Policy{}, 0)

	// Act
	err := jobs.MarkOnLeaveEmployees(context.Background())

	// Assert
	assert.ErrorContains(t, err, "database down")
}

func TestLeaveJobs_ProvisionYear(t *testing.T) {
	// Setup
	provisioner := &fakeProvisioner{}
	jobs := NewLeaveJobs(provisioner, wib)
	// Already 2026 in WIB
	jobs.now = func() time.Time { return time.Date(2025, 12, 31, 18, 0, 0, 0, time.UTC) }

	// Act
	err := jobs.ProvisionYear(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []int{2026}, provisioner.years)
}

func TestScheduler_RunOnce(t *testing.T) {
	// Setup
	scheduler := NewScheduler()
	var ran []string
	scheduler.AddJob("first", time.Hour, func(ctx context.Context) error {
		ran = append(ran, "first")
		return nil
	})
	scheduler.AddJob("failing", time.Hour, func(ctx context.Context) error {
		ran = append(ran, "failing")
		return errors.New("boom")
	})
	scheduler.AddJob("last", time.Hour, func(ctx context.Context) error {
		ran = append(ran, "last")
		return nil
	})

	// Act
	scheduler.RunOnce(context.Background())

	// Assert
	assert.Equal(t, []string{"first", "failing", "last"}, ran)
}

func TestScheduler_StartRunsImmediatelyAndStops(t *testing.T) {
	// Setup
	scheduler := NewScheduler()
	done := make(chan struct{}, 1)
	scheduler.AddJob("tick", time.Hour, func(ctx context.Context) error {
		select {
		case done <- struct{}{}:
		default:
		}
		return nil
	})

	// Act
	scheduler.Start(context.Background())

	// Assert
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run on start")
	}
	scheduler.Stop()
}
