package entities

import (
	"math"
	"time"

	"leave-system/pkg/constants"
)

type EmployeeLeave struct {
	ID                   uint64                         `json:"id"`
	UserID               uint64                         `json:"user_id"`
	LeaveType            constants.LeaveType            `json:"leave_type"`
	ExceptionalLeaveType constants.ExceptionalLeaveType `json:"exceptional_leave_type"`
	TimeOfDay            constants.TimeOfDay            `json:"time_of_day"`
	StartDate            time.Time                      `json:"start_date"`
	EndDate              time.Time                      `json:"end_date"`
	Status               constants.Status               `json:"status"`
	Reason               *string                        `json:"reason,omitempty"`
	CreatedAt            time.Time                      `json:"created_at"`
}

// RequestedDays - целое число суток между началом и концом (остаток отбрасывается).
func (l *EmployeeLeave) RequestedDays() float64 {
	d := l.EndDate.Sub(l.StartDate)
	if d <= 0 {
		return 0
	}
	return math.Floor(d.Hours() / 24)
}

// DeductedDays - сколько дней списать с баланса при одобрении.
func (l *EmployeeLeave) DeductedDays() float64 {
	if l.LeaveType == constants.LeaveTypeHalfDay {
		return 0.5
	}
	return l.RequestedDays()
}

// Covers - момент t попадает в окно отпуска [start, end).
func (l *EmployeeLeave) Covers(t time.Time) bool {
	return !t.Before(l.StartDate) && t.Before(l.EndDate)
}
