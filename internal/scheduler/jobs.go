package scheduler

import (
	"context"
	"time"

	"leave-system/pkg/config"
)

// LeaveMaintenance - периодические операции над отпусками и лимитами.
type LeaveMaintenance interface {
	ReconcileLeaves(ctx context.Context) error
	ReturnToWorkSweep(ctx context.Context) error
	ResetExternalQuota(ctx context.Context) error
	ResetAnnualLeave(ctx context.Context) error
}

// LeaveJobs - расписание обслуживания: сверка и возврат из отпуска каждый час,
// лимит выходов первого числа месяца, годовой баланс первого января.
func LeaveJobs(svc LeaveMaintenance, cfg config.SchedulerConfig) []Job {
	return []Job{
		{Name: "leave_reconciliation", Schedule: Every{Interval: time.Hour}, Run: svc.ReconcileLeaves},
		{Name: "return_to_work", Schedule: Every{Interval: time.Hour}, Run: svc.ReturnToWorkSweep},
		{Name: "external_quota_reset", Schedule: Monthly{Day: 1, Window: cfg.CatchUpWindow}, Run: svc.ResetExternalQuota},
		{Name: "annual_leave_reset", Schedule: Yearly{Month: time.January, Day: 1, Window: cfg.CatchUpWindow}, Run: svc.ResetAnnualLeave},
	}
}
