package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-timekeeping/internal/domain/leave"
)

// LeaveJobs seeds leave balances for the current year, carrying forward what
// the previous year allows.
type LeaveJobs struct {
	provisioner leave.BalanceProvisioner
	location    *time.Location
	now         func() time.Time
}

func NewLeaveJobs(provisioner leave.BalanceProvisioner, location *time.Location) *LeaveJobs {
	if location == nil {
		location = time.UTC
	}
	return &LeaveJobs{
		provisioner: provisioner,
		location:    location,
		now:         time.Now,
	}
}

func (j *LeaveJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("provision_leave_balances", interval, j.ProvisionYear)
}

// ProvisionYear is idempotent: balances that already exist are skipped, so
// running it every interval only fills in new hires and the year rollover.
func (j *LeaveJobs) ProvisionYear(ctx context.Context) error {
	year := j.now().In(j.location).Year()

	created, err := j.provisioner.ProvisionYear(ctx, year)
	if err != nil {
		return fmt.Errorf("failed to provision leave balances for %d: %w", year, err)
	}

	if created > 0 {
		slog.Info("Cron: Provisioned leave balances", "year", year, "count", created)
	}
	return nil
}
